package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/cardhash/internal/model"
)

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, each receiving the Run as left by the
// previous steps.
type Step interface {
	// Do executes the step. A returned error fails the whole run.
	Do(ctx context.Context, run *model.Run) error

	// Name returns the step's name for logging purposes.
	Name() string

	// State returns the run state recorded while the step executes.
	State() model.State
}

// Pipeline orchestrates the execution of multiple steps.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates a new Pipeline with the given options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps in order and leaves run in a terminal state.
//
// The first failing step stops the pipeline: run is marked failed and the
// step's error is returned. Cancellation is checked between steps. When all
// steps succeed run is marked done; if files were skipped in keep-going mode
// the returned error wraps ErrPartialFailure.
func (p *Pipeline) Execute(ctx context.Context, run *model.Run) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"dir", run.Directory,
				"reason", err,
			)
			run.Fail(err)
			return err
		}

		run.State = step.State()
		p.logger.Info("executing step",
			"step", step.Name(),
			"dir", run.Directory,
		)

		if err := step.Do(ctx, run); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"dir", run.Directory,
				"error", err,
			)
			run.Fail(err)
			return err
		}

		p.logger.Debug("step completed",
			"step", step.Name(),
			"dir", run.Directory,
		)
		run.PerformedSteps = append(run.PerformedSteps, step.Name())
	}

	run.Finish()
	if n := run.Failed(); n > 0 {
		return fmt.Errorf("%w: %d of %d files failed", ErrPartialFailure, n, run.Total())
	}
	return nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
