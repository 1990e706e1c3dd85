package pipeline

import (
	"context"
	"fmt"

	"github.com/nao1215/cardhash/internal/model"
	"github.com/nao1215/cardhash/internal/source"
)

// ValidateStep checks that the run has a usable directory.
type ValidateStep struct{}

// NewValidateStep creates a ValidateStep.
func NewValidateStep() *ValidateStep {
	return &ValidateStep{}
}

// Name implements Step.
func (s *ValidateStep) Name() string { return "validate" }

// State implements Step.
func (s *ValidateStep) State() model.State { return model.StateValidating }

// Do implements Step.
func (s *ValidateStep) Do(_ context.Context, run *model.Run) error {
	if run.Directory == "" {
		return ErrArgumentMissing
	}
	return source.CheckDirectory(run.Directory)
}

// EnumerateStep lists the image files of the run's directory.
type EnumerateStep struct {
	opts []source.Option
}

// NewEnumerateStep creates an EnumerateStep passing opts to source.List.
func NewEnumerateStep(opts ...source.Option) *EnumerateStep {
	return &EnumerateStep{opts: opts}
}

// Name implements Step.
func (s *EnumerateStep) Name() string { return "enumerate" }

// State implements Step.
func (s *EnumerateStep) State() model.State { return model.StateEnumerating }

// Do implements Step.
func (s *EnumerateStep) Do(_ context.Context, run *model.Run) error {
	paths, err := source.List(run.Directory, s.opts...)
	if err != nil {
		return err
	}
	run.Paths = paths
	return nil
}

// AssembleStep hashes the enumerated files into cards.
type AssembleStep struct {
	assembler *Assembler
}

// NewAssembleStep creates an AssembleStep using assembler.
func NewAssembleStep(assembler *Assembler) *AssembleStep {
	return &AssembleStep{assembler: assembler}
}

// Name implements Step.
func (s *AssembleStep) Name() string { return "assemble" }

// State implements Step.
func (s *AssembleStep) State() model.State { return model.StateProcessing }

// Do implements Step.
func (s *AssembleStep) Do(ctx context.Context, run *model.Run) error {
	out, err := s.assembler.Assemble(ctx, run.Paths)
	if err != nil {
		return err
	}
	run.Cards = out.Cards
	run.Failures = out.Failures
	run.CacheHits = out.CacheHits
	return nil
}

// ManifestWriter persists a manifest for a directory and returns the path
// it was written to.
type ManifestWriter interface {
	Write(dir string, manifest model.Manifest) (string, error)
}

// WriteStep serializes the run's cards.
type WriteStep struct {
	writer ManifestWriter
}

// NewWriteStep creates a WriteStep using writer.
func NewWriteStep(writer ManifestWriter) *WriteStep {
	return &WriteStep{writer: writer}
}

// Name implements Step.
func (s *WriteStep) Name() string { return "write" }

// State implements Step.
func (s *WriteStep) State() model.State { return model.StateSerializing }

// Do implements Step.
func (s *WriteStep) Do(_ context.Context, run *model.Run) error {
	path, err := s.writer.Write(run.Directory, run.Manifest())
	if err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	run.ManifestPath = path
	return nil
}

// DefaultSteps returns the generation steps in execution order.
func DefaultSteps(assembler *Assembler, writer ManifestWriter, opts ...source.Option) []Step {
	return []Step{
		NewValidateStep(),
		NewEnumerateStep(opts...),
		NewAssembleStep(assembler),
		NewWriteStep(writer),
	}
}
