package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jward/gildash"
	"github.com/jward/gildash/internal/graph"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query the index for an already-indexed project",
}

var (
	flagProject string
	flagKind    string
	flagLimit   int
)

func init() {
	queryCmd.AddCommand(searchSymbolsCmd)
	queryCmd.AddCommand(statsCmd)
	queryCmd.AddCommand(depsCmd)
	queryCmd.AddCommand(dependentsCmd)
	queryCmd.AddCommand(affectedCmd)
	queryCmd.AddCommand(cyclesCmd)

	queryCmd.PersistentFlags().StringVar(&flagProject, "project", "", "project scope (defaults to the repo root path)")
	depsCmd.Flags().IntVar(&flagLimit, "limit", 0, "maximum results (0 = unlimited)")
	dependentsCmd.Flags().IntVar(&flagLimit, "limit", 0, "maximum results (0 = unlimited)")
	searchSymbolsCmd.Flags().StringVar(&flagKind, "kind", "", "filter by symbol kind")
}

var searchSymbolsCmd = &cobra.Command{
	Use:   "symbols <prefix>",
	Short: "Search symbol names by prefix",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(e *gildash.Engine) error {
			rows, err := e.SearchSymbols(args[0], flagKind, flagProject)
			if err != nil {
				return err
			}
			for _, s := range rows {
				fmt.Printf("%s\t%s\t%s:%d\n", s.Kind, s.Name, s.FilePath, s.StartLine)
			}
			return nil
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Report symbol counts per kind",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(e *gildash.Engine) error {
			stats, err := e.SymbolStats(flagProject)
			if err != nil {
				return err
			}
			for kind, n := range stats {
				fmt.Printf("%s\t%d\n", kind, n)
			}
			return nil
		})
	},
}

var depsCmd = &cobra.Command{
	Use:   "deps <path>",
	Short: "List direct dependencies of a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(e *gildash.Engine) error {
			keys, err := e.Dependencies(flagProject, args[0], flagLimit)
			if err != nil {
				return err
			}
			printKeys(keys)
			return nil
		})
	},
}

var dependentsCmd = &cobra.Command{
	Use:   "dependents <path>",
	Short: "List direct dependents of a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(e *gildash.Engine) error {
			keys, err := e.Dependents(flagProject, args[0], flagLimit)
			if err != nil {
				return err
			}
			printKeys(keys)
			return nil
		})
	},
}

var affectedCmd = &cobra.Command{
	Use:   "affected <path> [path...]",
	Short: "List files transitively affected by a set of changed files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(e *gildash.Engine) error {
			keys, err := e.Affected(flagProject, args)
			if err != nil {
				return err
			}
			printKeys(keys)
			return nil
		})
	},
}

var cyclesCmd = &cobra.Command{
	Use:   "cycles",
	Short: "Enumerate dependency cycles in the project's graph",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(e *gildash.Engine) error {
			paths, err := e.CyclePaths(flagProject, nil)
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				fmt.Println("no cycles")
				return nil
			}
			for _, cycle := range paths {
				printKeys(cycle)
				fmt.Println("---")
			}
			return nil
		})
	},
}

func printKeys(keys []graph.Key) {
	for _, k := range keys {
		fmt.Printf("%s\t%s\n", k.Project, k.Path)
	}
}

// withEngine opens the engine rooted at the current working directory's
// repo root, resolves the default project scope, and runs fn against it.
func withEngine(fn func(e *gildash.Engine) error) error {
	targetDir, err := resolveTargetDir(nil)
	if err != nil {
		return err
	}
	root := findRepoRoot(targetDir)

	engine, err := gildash.Open(root)
	if err != nil {
		return fmt.Errorf("opening engine: %w", err)
	}
	defer engine.Close()

	if flagProject == "" {
		flagProject = root
	}
	return fn(engine)
}
