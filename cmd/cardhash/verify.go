package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/cardhash/internal/config"
	"github.com/nao1215/cardhash/internal/encoder"
	cardlog "github.com/nao1215/cardhash/internal/log"
	"github.com/nao1215/cardhash/internal/model"
	"github.com/nao1215/cardhash/internal/pipeline"
	"github.com/nao1215/cardhash/internal/report"
	"github.com/nao1215/cardhash/internal/source"
)

// errManifestInvalid is returned when verify finds problems in a manifest.
var errManifestInvalid = errors.New("manifest is invalid")

// NewVerifyCmd creates the verify command.
func NewVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify [directory]",
		Short: "Check that cards.json matches the directory",
		Long: `Verify reads <directory>/cards.json and checks that:
- ids are non-negative and unique
- every filename exists in the directory and has an allowed extension
- every hash is non-empty
- no filename is listed twice

Images in the directory that the manifest does not list are printed as notes.
They are not problems, since a --keep-going run leaves failed images out.

With --rehash, each image is hashed again and compared with the manifest.

Examples:
  # Check the manifest structure
  cardhash verify ./cards

  # Also recompute every hash
  cardhash verify --rehash ./cards`,
		Args: cobra.ExactArgs(1),
		RunE: runVerifyCmd,
	}

	cmd.Flags().Bool("rehash", false,
		"Recompute each hash and compare it with the manifest")

	return cmd
}

// runVerifyCmd executes the verify command.
func runVerifyCmd(cmd *cobra.Command, args []string) error {
	rehash, err := cmd.Flags().GetBool("rehash")
	if err != nil {
		return err
	}

	logger := cardlog.NewLogger(cmd.ErrOrStderr(), getVerboseFlag(cmd))

	var hasher pipeline.Hasher
	if rehash {
		adapter, err := encoder.NewAdapter(encoder.NewBlurHash(), config.XComponents, config.YComponents,
			encoder.WithLogger(logger))
		if err != nil {
			return err
		}
		hasher = adapter
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runVerify(ctx, cmd.OutOrStdout(), args[0], hasher)
}

// runVerify checks the manifest in dir and prints every problem found.
// hasher may be nil to skip rehashing.
func runVerify(ctx context.Context, out io.Writer, dir string, hasher pipeline.Hasher) error {
	if err := source.CheckDirectory(dir); err != nil {
		return err
	}

	path := report.NewManifestWriter().Path(dir)
	manifest, err := report.ReadManifest(path)
	if err != nil {
		return fmt.Errorf("%w: %w", errManifestInvalid, err)
	}

	problems, err := verifyManifest(ctx, dir, manifest, hasher)
	if err != nil {
		return err
	}
	unlisted, err := unlistedImages(dir, manifest)
	if err != nil {
		return err
	}
	for _, name := range unlisted {
		fmt.Fprintf(out, "  note: %s is not listed in the manifest\n", name)
	}
	if len(problems) > 0 {
		for _, p := range problems {
			fmt.Fprintf(out, "  - %s\n", p)
		}
		return fmt.Errorf("%w: %d problem(s) in %s", errManifestInvalid, len(problems), path)
	}

	fmt.Fprintf(out, "OK: %d card(s) verified in %s\n", len(manifest), path)
	return nil
}

// verifyManifest returns a description of every problem in manifest.
func verifyManifest(ctx context.Context, dir string, manifest model.Manifest, hasher pipeline.Hasher) ([]string, error) {
	problems := make([]string, 0)
	seen := make(map[int]string, len(manifest))
	names := manifest.Filenames()

	for i, card := range manifest {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		label := fmt.Sprintf("card %d (%s)", i, card.Filename)
		if card.ID < 0 {
			problems = append(problems, fmt.Sprintf("%s: negative id %d", label, card.ID))
		}
		if prev, ok := seen[card.ID]; ok {
			problems = append(problems, fmt.Sprintf("%s: id %d already used by %s", label, card.ID, prev))
		} else {
			seen[card.ID] = card.Filename
		}
		if card.Hash == "" {
			problems = append(problems, label+": empty hash")
		}

		if first := slices.Index(names, card.Filename); first != i {
			problems = append(problems, fmt.Sprintf("%s: filename already listed as card %d", label, first))
		}

		if card.Filename == "" || card.Filename != filepath.Base(card.Filename) {
			problems = append(problems, label+": filename must be a plain file name")
			continue
		}
		if !source.HasAllowedExtension(card.Filename) {
			problems = append(problems, label+": extension not allowed")
		}

		path := filepath.Join(dir, card.Filename)
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			problems = append(problems, label+": file not found")
			continue
		}

		if hasher == nil || card.Hash == "" {
			continue
		}
		result, err := hasher.HashFile(ctx, path)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil, err
			}
			problems = append(problems, fmt.Sprintf("%s: rehash failed: %v", label, err))
			continue
		}
		if result.Hash != card.Hash {
			problems = append(problems, fmt.Sprintf("%s: hash mismatch (manifest %s, file %s)", label, card.Hash, result.Hash))
		}
	}
	return problems, nil
}

// unlistedImages returns the names of images in dir that manifest does not
// list, in filename order.
func unlistedImages(dir string, manifest model.Manifest) ([]string, error) {
	paths, err := source.List(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0)
	for _, p := range paths {
		name := filepath.Base(p)
		if _, ok := manifest.Lookup(name); !ok {
			names = append(names, name)
		}
	}
	return names, nil
}
