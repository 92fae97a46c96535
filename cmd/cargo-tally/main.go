// Command cargo-tally tallies the number of crates that depend directly or
// transitively on a set of crates over time, replaying the crates.io
// database dump as a chronological stream of release events.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cratestats/cargo-tally/internal/config"
	"github.com/cratestats/cargo-tally/internal/ui"
)

var rootCmd = &cobra.Command{
	Use:   "cargo-tally [flags] QUERIES...",
	Short: "Tally reverse dependencies on crates.io over time",
	Long: `Tally the number of crates that depend on a group of crates over time.

A query is '+'-separated predicates combined as a logical OR. Each
predicate is a crate name with an optional semver requirement, or @user to
cover every crate owned by a crates.io user or team.

Examples:
  cargo-tally serde:1.0
  cargo-tally 'anyhow:^1.0 + thiserror'
  cargo-tally --transitive @dtolnay`,
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	flags := rootCmd.Flags()
	flags.String("db", "./db-dump.tar.gz", "Path to crates.io's database dump")
	flags.StringArray("exclude", nil, "Ignore dependencies from crates matching regex")
	flags.IntP("jobs", "j", 0, "Number of worker threads (default: number of CPUs, at most 32)")
	flags.Bool("relative", false, "Display as a fraction of total crates, not absolute number")
	flags.Bool("transitive", false, "Count transitive dependencies, not just direct dependencies")
	flags.String("title", "", "Graph title")
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := config.Initialize(); err != nil {
		ui.Errorf("%v", err)
		os.Exit(1)
	}
	for _, key := range []string{"db", "exclude", "jobs", "relative", "transitive", "title"} {
		if err := config.BindFlag(key, rootCmd.Flags().Lookup(key)); err != nil {
			ui.Errorf("%v", err)
			os.Exit(1)
		}
	}

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		ui.Errorf("%v", err)
		os.Exit(1)
	}
}
