package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nao1215/cardhash/internal/config"
	"github.com/nao1215/cardhash/internal/database"
	"github.com/nao1215/cardhash/internal/encoder"
	cardlog "github.com/nao1215/cardhash/internal/log"
	"github.com/nao1215/cardhash/internal/model"
	"github.com/nao1215/cardhash/internal/pipeline"
	"github.com/nao1215/cardhash/internal/progress"
	"github.com/nao1215/cardhash/internal/report"
	"github.com/nao1215/cardhash/internal/source"
)

// NewGenerateCmd creates the generate command.
func NewGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [directory]",
		Short: "Compute BlurHashes for a directory and write cards.json",
		Long: `Generate lists the .jpg and .png files directly inside the directory,
computes a BlurHash (4x3 components) for each of them in filename order and
writes the result to <directory>/cards.json.

By default the first unreadable image aborts the run and no manifest is
written. With --keep-going, failing images are skipped, the manifest holds the
remaining cards and the command still exits with status 1.

Examples:
  # Generate the manifest for ./cards
  cardhash generate ./cards

  # Use four workers and skip broken images
  cardhash generate -w 4 -k ./cards

  # Also write a Markdown run report
  cardhash generate -r run.md ./cards

Configuration file (.cardhash) example:
  defaults:
    workers: 2
  directories:
    ./cards:
      keepGoing: true
      excludePatterns:
        - "draft-*"`,
		Args: cobra.MaximumNArgs(1),
		RunE: runGenerateCmd,
	}

	cmd.Flags().IntP("workers", "w", config.DefaultWorkers,
		"Number of images processed concurrently")
	cmd.Flags().BoolP("keep-going", "k", false,
		"Skip images that fail instead of aborting the run")
	cmd.Flags().Bool("no-cache", false,
		"Do not read or store hashes in the hash cache")
	cmd.Flags().Bool("no-history", false,
		"Do not record the run in the run history")
	cmd.Flags().StringP("report", "r", "",
		"Write a Markdown run report to the specified file path")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .cardhash in current or home directory)")

	return cmd
}

// runGenerateCmd executes the generate command.
func runGenerateCmd(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), pipeline.ErrArgumentMissing)
		return cmd.Usage()
	}

	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := cardlog.NewLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, err = runGenerate(ctx, cfg, cmd.OutOrStdout(), logger)
	if err != nil {
		logger.Error("run failed", "dir", cfg.Directory, "error", err)
	}
	return err
}

// buildConfig creates a Config from the config file and the command flags.
// Flags given on the command line take precedence over the file.
func buildConfig(cmd *cobra.Command, dir string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Directory = dir
	cfg.Verbose = getVerboseFlag(cmd)

	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// An explicit --config must exist; the implicit lookup is optional.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			abs = dir
		}
		cfg.Apply(file.GetDirectoryConfig(abs))
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	flags := cmd.Flags()
	if flags.Changed("workers") {
		if cfg.Workers, err = flags.GetInt("workers"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("keep-going") {
		if cfg.KeepGoing, err = flags.GetBool("keep-going"); err != nil {
			return nil, err
		}
	}
	if noCache, _ := flags.GetBool("no-cache"); noCache { //nolint:errcheck // flag is registered above
		cfg.UseCache = false
	}
	if noHistory, _ := flags.GetBool("no-history"); noHistory { //nolint:errcheck // flag is registered above
		cfg.RecordHistory = false
	}
	if cfg.ReportFile, err = flags.GetString("report"); err != nil {
		return nil, err
	}

	return cfg, nil
}

// runGenerate performs one manifest generation run and prints its progress
// to out. The returned run is nil only when the run could not start.
func runGenerate(ctx context.Context, cfg *config.Config, out io.Writer, logger *slog.Logger) (*model.Run, error) {
	fmt.Fprintf(out, "Searching files in : %s\n", cfg.Directory)

	// A mistyped directory must not leave a lock file or a history row.
	if err := source.CheckDirectory(cfg.Directory); err != nil {
		return nil, err
	}

	lock, err := pipeline.AcquireLock(cfg.LockDir, cfg.Directory)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("failed to release lock", "path", lock.Path(), "error", err)
		}
	}()

	var db *database.RunDB
	if cfg.UseCache || cfg.RecordHistory {
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Debug("database opened", "path", db.Path())
	}

	adapterOpts := []encoder.AdapterOption{encoder.WithLogger(logger)}
	if cfg.UseCache {
		adapterOpts = append(adapterOpts, encoder.WithCache(db))
	}
	adapter, err := encoder.NewAdapter(encoder.NewBlurHash(), config.XComponents, config.YComponents, adapterOpts...)
	if err != nil {
		return nil, err
	}

	reporter := progress.New(out)
	assembler := pipeline.NewAssembler(adapter,
		pipeline.WithWorkers(cfg.Workers),
		pipeline.WithKeepGoing(cfg.KeepGoing),
		pipeline.WithProgress(reporter),
		pipeline.WithAssemblerLogger(logger),
	)

	p := pipeline.New(pipeline.WithLogger(logger))
	p.AddSteps(pipeline.DefaultSteps(assembler, report.NewManifestWriter(),
		source.WithExcludePatterns(cfg.ExcludePatterns...))...)

	run := model.NewRun(uuid.NewString(), cfg.Directory)
	runErr := p.Execute(ctx, run)
	reporter.Finish()

	if cfg.RecordHistory {
		// The caller's context may already be canceled; the record is still wanted.
		if err := db.SaveRun(context.WithoutCancel(ctx), run); err != nil {
			logger.Warn("failed to record run", "run_id", run.ID, "error", err)
		}
	}

	if cfg.ReportFile != "" {
		if err := writeRunReport(cfg.ReportFile, run); err != nil {
			logger.Warn("failed to write run report", "path", cfg.ReportFile, "error", err)
		}
	}

	if runErr != nil && !errors.Is(runErr, pipeline.ErrPartialFailure) {
		return run, runErr
	}

	fmt.Fprintf(out, "Saved : %s\n", run.ManifestPath)
	if runErr != nil {
		if _, err := report.NewSimpleWriter(out, report.WithVerbose(cfg.Verbose)).WriteRun(run); err != nil {
			logger.Warn("failed to print run summary", "error", err)
		}
		return run, runErr
	}
	fmt.Fprintln(out, "Done")
	return run, nil
}

// writeRunReport writes the Markdown report for run to path.
func writeRunReport(path string, run *model.Run) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600) //nolint:gosec // user-provided report path
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	_, err = report.NewMarkdownWriter(f).WriteRun(run)
	return err
}
