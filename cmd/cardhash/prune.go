package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/cardhash/internal/config"
	"github.com/nao1215/cardhash/internal/database"
)

// defaultPruneAge is the idle time after which cache entries are removed
// when --older-than is not given.
const defaultPruneAge = 30 * 24 * time.Hour

// NewPruneCmd creates the prune command.
func NewPruneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove old entries from the hash cache",
		Long: `Prune deletes cached hashes that were neither stored nor reused since the
cutoff.
Run history is kept.

Examples:
  # Remove cache entries unused for 30 days
  cardhash prune

  # Remove cache entries unused for one week
  cardhash prune --older-than 168h`,
		Args: cobra.NoArgs,
		RunE: runPruneCmd,
	}

	cmd.Flags().Duration("older-than", defaultPruneAge,
		"Remove cache entries unused for longer than this duration")

	return cmd
}

// runPruneCmd executes the prune command.
func runPruneCmd(cmd *cobra.Command, _ []string) error {
	age, err := cmd.Flags().GetDuration("older-than")
	if err != nil {
		return err
	}
	if age < 0 {
		return errors.New("--older-than must not be negative")
	}

	db, err := database.Open(config.XDGDataDir(), database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	return runPrune(context.Background(), cmd.OutOrStdout(), db, time.Now().Add(-age))
}

// runPrune removes cache entries older than cutoff and reports the counts.
func runPrune(ctx context.Context, out io.Writer, db *database.RunDB, cutoff time.Time) error {
	removed, err := db.PruneHashes(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune hash cache: %w", err)
	}
	remaining, err := db.CountHashes(ctx)
	if err != nil {
		return fmt.Errorf("failed to count cached hashes: %w", err)
	}
	fmt.Fprintf(out, "Removed %d cached hash(es), %d remaining\n", removed, remaining)
	return nil
}
