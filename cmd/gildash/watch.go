package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jward/gildash"
	"github.com/jward/gildash/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Watch a project and keep the index up to date",
	Long:  "Joins the single-writer ownership protocol for the project and applies incremental updates as files change, blocking until interrupted.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	targetDir, err := resolveTargetDir(args)
	if err != nil {
		return err
	}
	root := findRepoRoot(targetDir)

	engine, err := gildash.Open(root, gildash.WithWatchMode(true))
	if err != nil {
		return fmt.Errorf("opening engine: %w", err)
	}
	defer engine.Close()

	engine.OnRoleChanged = func(r watch.Role) {
		fmt.Fprintf(os.Stderr, "role: %s\n", r)
	}
	engine.OnIndexed = func(changed, deleted []string) {
		fmt.Fprintf(os.Stderr, "indexed: %d changed, %d deleted\n", len(changed), len(deleted))
	}
	engine.OnError = func(err error) {
		fmt.Fprintf(os.Stderr, "watch error: %s\n", err)
	}

	fmt.Fprintf(os.Stderr, "Watching %s (ctrl-c to stop)\n", root)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	fmt.Fprintln(os.Stderr, "Stopping.")
	return nil
}
