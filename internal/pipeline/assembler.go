package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/cardhash/internal/encoder"
	"github.com/nao1215/cardhash/internal/model"
)

// Hasher computes the hash token of one image file.
type Hasher interface {
	HashFile(ctx context.Context, path string) (encoder.Result, error)
}

// Progress receives progress updates from the Assembler.
// Implementations must be safe for concurrent use.
type Progress interface {
	Start(total int)
	Increment()
}

// Assembly is the outcome of assembling a list of paths.
type Assembly struct {
	// Cards holds one card per successfully hashed file in enumeration order.
	Cards []model.Card

	// Failures holds the files skipped in keep-going mode.
	Failures []model.Failure

	// CacheHits counts cards whose hash came from the cache.
	CacheHits int
}

// Assembler turns enumerated paths into cards.
type Assembler struct {
	hasher    Hasher
	workers   int
	keepGoing bool
	progress  Progress
	logger    *slog.Logger
}

// AssemblerOption configures an Assembler.
type AssemblerOption func(*Assembler)

// WithWorkers sets how many files are processed concurrently.
// Values below 1 are ignored.
func WithWorkers(n int) AssemblerOption {
	return func(a *Assembler) {
		if n > 0 {
			a.workers = n
		}
	}
}

// WithKeepGoing makes per-file failures non-fatal. Failed files are
// recorded and left out of the manifest.
func WithKeepGoing(keepGoing bool) AssemblerOption {
	return func(a *Assembler) {
		a.keepGoing = keepGoing
	}
}

// WithProgress sets the progress receiver.
func WithProgress(p Progress) AssemblerOption {
	return func(a *Assembler) {
		a.progress = p
	}
}

// WithAssemblerLogger sets a custom logger.
func WithAssemblerLogger(logger *slog.Logger) AssemblerOption {
	return func(a *Assembler) {
		a.logger = logger
	}
}

// NewAssembler creates an Assembler using hasher. By default it processes
// one file at a time and stops at the first failure.
func NewAssembler(hasher Hasher, opts ...AssemblerOption) *Assembler {
	a := &Assembler{
		hasher:  hasher,
		workers: 1,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	if a.progress == nil {
		a.progress = nopProgress{}
	}
	return a
}

// slot holds the outcome for the file at one enumeration index.
type slot struct {
	card   model.Card
	cached bool
	err    error
	done   bool
}

// Assemble hashes every path and returns the cards in input order. The card
// id is the path's index in paths, so ids stay stable when files are skipped.
//
// In strict mode the lowest-indexed failing file aborts the assembly and its
// error is returned, whatever the worker count: files after a known failure
// are skipped, files before it always run. In keep-going mode failures are
// collected and err is nil unless ctx is cancelled.
func (a *Assembler) Assemble(ctx context.Context, paths []string) (Assembly, error) {
	a.logger.Info("assembling cards",
		"files", len(paths),
		"workers", a.workers,
		"keep_going", a.keepGoing,
	)
	startTime := time.Now()

	slots := make([]slot, len(paths))
	a.progress.Start(len(paths))

	// failedIdx is the lowest failing index seen so far, len(paths) if none.
	var failedIdx atomic.Int64
	failedIdx.Store(int64(len(paths)))
	skip := func(i int) bool {
		return !a.keepGoing && int64(i) > failedIdx.Load()
	}

	var g errgroup.Group
	g.SetLimit(a.workers)

	for i, path := range paths {
		if ctx.Err() != nil || skip(i) {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil || skip(i) {
				return nil
			}

			res, err := a.hasher.HashFile(ctx, path)
			if err != nil {
				slots[i] = slot{err: err, done: true}
				a.logger.Error("file failed",
					"file", path,
					"index", i,
					"error", err,
				)
				if a.keepGoing {
					a.progress.Increment()
					return nil
				}
				lowerFailedIdx(&failedIdx, int64(i))
				return nil
			}

			slots[i] = slot{
				card:   model.NewCard(i, path, res.Hash),
				cached: res.Cached,
				done:   true,
			}
			a.progress.Increment()
			return nil
		})
	}

	// Workers never return errors; failures live in the slots.
	_ = g.Wait() //nolint:errcheck // always nil

	// The caller's cancellation wins over per-file errors it caused.
	if err := ctx.Err(); err != nil {
		return Assembly{}, err
	}
	if idx := failedIdx.Load(); idx < int64(len(paths)) {
		return Assembly{}, slots[idx].err
	}

	out := Assembly{
		Cards:    make([]model.Card, 0, len(paths)),
		Failures: make([]model.Failure, 0),
	}
	for i, s := range slots {
		switch {
		case s.err != nil:
			out.Failures = append(out.Failures, model.Failure{
				Index:    i,
				Filename: filepath.Base(paths[i]),
				Stage:    stageOf(s.err),
				Message:  s.err.Error(),
			})
		case s.done:
			out.Cards = append(out.Cards, s.card)
			if s.cached {
				out.CacheHits++
			}
		}
	}

	a.logger.Info("assembly complete",
		"cards", len(out.Cards),
		"failures", len(out.Failures),
		"cache_hits", out.CacheHits,
		"elapsed", time.Since(startTime),
	)
	return out, nil
}

// lowerFailedIdx stores i in idx if it is below the current value.
func lowerFailedIdx(idx *atomic.Int64, i int64) {
	for {
		cur := idx.Load()
		if i >= cur || idx.CompareAndSwap(cur, i) {
			return
		}
	}
}

// stageOf maps an adapter error to the failure stage.
func stageOf(err error) string {
	switch {
	case errors.Is(err, encoder.ErrDecode):
		return model.StageDecode
	case errors.Is(err, encoder.ErrEncode):
		return model.StageEncode
	default:
		return model.StageRead
	}
}

type nopProgress struct{}

func (nopProgress) Start(int)  {}
func (nopProgress) Increment() {}
