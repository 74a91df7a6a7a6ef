package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jward/gildash"
)

var (
	flagForce          bool
	flagExtensions     string
	flagIgnorePatterns string
)

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index a project for code intelligence",
	Long:  "Parses source files with tree-sitter and writes symbol and relation rows to the SQLite database under <root>/.gildash.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&flagForce, "force", false, "delete the database and reindex from scratch")
	indexCmd.Flags().StringVar(&flagExtensions, "extensions", "", "comma-separated extension filter (default .ts,.mts,.cts)")
	indexCmd.Flags().StringVar(&flagIgnorePatterns, "ignore", "", "comma-separated ignore glob patterns")
}

func runIndex(cmd *cobra.Command, args []string) error {
	start := time.Now()

	targetDir, err := resolveTargetDir(args)
	if err != nil {
		return err
	}
	root := findRepoRoot(targetDir)

	if flagForce {
		dbPath := filepath.Join(root, ".gildash")
		if err := os.RemoveAll(dbPath); err != nil {
			return fmt.Errorf("removing %s for --force: %w", dbPath, err)
		}
		fmt.Fprintf(os.Stderr, "Cleared database: %s\n", dbPath)
	}

	var opts []gildash.Option
	if flagExtensions != "" {
		opts = append(opts, gildash.WithExtensions(splitCSV(flagExtensions)...))
	}
	if flagIgnorePatterns != "" {
		opts = append(opts, gildash.WithIgnorePatterns(splitCSV(flagIgnorePatterns)...))
	}

	engine, err := gildash.Open(root, opts...)
	if err != nil {
		return fmt.Errorf("opening engine: %w", err)
	}
	defer engine.Close()

	fmt.Fprintf(os.Stderr, "Indexed %s in %s\n", root, time.Since(start).Round(time.Millisecond))
	return nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func resolveTargetDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("directory not found: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}
