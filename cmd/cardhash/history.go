package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/cardhash/internal/config"
	"github.com/nao1215/cardhash/internal/database"
)

// errRunNotFound is returned by history --run for an unknown run id.
var errRunNotFound = errors.New("run not found")

// defaultHistoryLimit is the number of runs listed when --limit is not given.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [directory]",
		Short: "Show recorded generation runs",
		Long: `History lists the runs recorded by 'cardhash generate', newest first.

Without a directory, runs of every directory are listed.
With --run, the details of one run are shown, including its failed files.

Examples:
  # Show the last runs for ./cards
  cardhash history ./cards

  # Show every directory with recorded runs
  cardhash history --list-dirs

  # Show one run and the files that failed in it
  cardhash history --run 0f8fad5b-d9cb-469f-a165-70867728950e`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("list-dirs", "L", false,
		"List every directory with recorded runs")
	cmd.Flags().IntP("limit", "n", defaultHistoryLimit,
		"Maximum number of runs to show (0 for all)")
	cmd.Flags().String("run", "",
		"Show the details of the run with this id")
	cmd.MarkFlagsMutuallyExclusive("list-dirs", "run")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	listDirs, err := cmd.Flags().GetBool("list-dirs")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	runID, err := cmd.Flags().GetString("run")
	if err != nil {
		return err
	}

	db, err := database.Open(config.XDGDataDir(), database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	out := cmd.OutOrStdout()
	if listDirs {
		return listDirectories(ctx, out, db)
	}
	if runID != "" {
		return showRun(ctx, out, db, runID)
	}

	var dir string
	if len(args) > 0 {
		if dir, err = filepath.Abs(args[0]); err != nil {
			return err
		}
	}
	return listRuns(ctx, out, db, dir, limit)
}

// listDirectories prints every directory that has recorded runs.
func listDirectories(ctx context.Context, out io.Writer, db *database.RunDB) error {
	dirs, err := db.ListDirectories(ctx)
	if err != nil {
		return fmt.Errorf("failed to list directories: %w", err)
	}

	if len(dirs) == 0 {
		fmt.Fprintln(out, "No recorded runs found.")
		fmt.Fprintln(out, "\nUse 'cardhash generate <directory>' to generate a manifest.")
		return nil
	}

	rows := make([][]string, 0, len(dirs))
	for _, d := range dirs {
		rows = append(rows, []string{
			d.Directory,
			strconv.Itoa(d.Runs),
			formatTime(d.LastRun),
			string(d.LastState),
		})
	}
	fmt.Fprintf(out, "Directories (%d):\n", len(dirs))
	fmt.Fprintln(out, renderTable(
		[]string{"Directory", "Runs", "Last run", "Last state"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft},
	))
	return nil
}

// listRuns prints the recorded runs for dir, or for every directory when dir
// is empty.
func listRuns(ctx context.Context, out io.Writer, db *database.RunDB, dir string, limit int) error {
	runs, err := db.ListRuns(ctx, dir, limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		if dir == "" {
			fmt.Fprintln(out, "No recorded runs found.")
		} else {
			fmt.Fprintf(out, "No recorded runs found for %s\n", dir)
		}
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.RunID,
			formatTime(r.StartedAt),
			filepath.Base(r.Directory),
			string(r.State),
			strconv.Itoa(r.Total),
			strconv.Itoa(r.Succeeded),
			strconv.Itoa(r.Failed),
			strconv.Itoa(r.CacheHits),
			r.Duration().Round(time.Millisecond).String(),
		})
	}

	if dir == "" {
		fmt.Fprintf(out, "Recorded runs (%d):\n", len(runs))
	} else {
		fmt.Fprintf(out, "Recorded runs for %s (%d):\n", dir, len(runs))
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Run", "Started", "Directory", "State", "Files", "Cards", "Failed", "Cached", "Duration"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
	))
	return nil
}

// showRun prints the details of one recorded run and its failed files.
func showRun(ctx context.Context, out io.Writer, db *database.RunDB, runID string) error {
	rec, err := db.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("%w: %s", errRunNotFound, runID)
	}

	fmt.Fprintf(out, "Run:       %s\n", rec.RunID)
	fmt.Fprintf(out, "Directory: %s\n", rec.Directory)
	fmt.Fprintf(out, "State:     %s\n", rec.State)
	fmt.Fprintf(out, "Started:   %s\n", formatTime(rec.StartedAt))
	fmt.Fprintf(out, "Finished:  %s\n", formatTime(rec.FinishedAt))
	fmt.Fprintf(out, "Duration:  %s\n", rec.Duration().Round(time.Millisecond))
	fmt.Fprintf(out, "Files:     %d (cards %d, failed %d, cached %d)\n",
		rec.Total, rec.Succeeded, rec.Failed, rec.CacheHits)
	if rec.ManifestPath != "" {
		fmt.Fprintf(out, "Manifest:  %s\n", rec.ManifestPath)
	}
	if rec.Error != "" {
		fmt.Fprintf(out, "Error:     %s\n", rec.Error)
	}

	if len(rec.Failures) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(rec.Failures))
	for _, f := range rec.Failures {
		rows = append(rows, []string{strconv.Itoa(f.Index), f.Filename, f.Stage, f.Message})
	}
	fmt.Fprintf(out, "\nFailed files (%d):\n", len(rec.Failures))
	fmt.Fprintln(out, renderTable(
		[]string{"Index", "File", "Stage", "Error"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
	))
	return nil
}

// formatTime renders t in local time, or "-" when unset.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
