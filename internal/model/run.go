package model

import (
	"path/filepath"
	"time"
)

// State is the lifecycle state of a Run.
type State string

// Run states in pipeline order. Failed can be reached from any state.
const (
	StateIdle        State = "idle"
	StateValidating  State = "validating"
	StateEnumerating State = "enumerating"
	StateProcessing  State = "processing"
	StateSerializing State = "serializing"
	StateDone        State = "done"
	StateFailed      State = "failed"
)

// IsTerminal reports whether no further transition is possible.
func (s State) IsTerminal() bool {
	return s == StateDone || s == StateFailed
}

// Stage names where a single file can fail.
const (
	StageRead   = "read"
	StageDecode = "decode"
	StageEncode = "encode"
)

// Failure describes one file that could not be turned into a Card.
type Failure struct {
	// Index is the file's position in the enumeration (the id it would have had).
	Index int `json:"index"`

	// Filename is the base name of the file.
	Filename string `json:"filename"`

	// Stage is where processing failed (read, decode or encode).
	Stage string `json:"stage,omitempty"`

	// Message is the error text.
	Message string `json:"error"`
}

// Run holds everything one manifest generation run produces.
// It is created by the driver and handed to each pipeline step in turn.
type Run struct {
	// ID is a unique identifier for this run (UUID).
	ID string `json:"run_id"`

	// Directory is the source directory, as given by the user.
	Directory string `json:"directory"`

	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// State is the current lifecycle state.
	State State `json:"state"`

	// Paths is the filtered enumeration result, in id order.
	Paths []string `json:"-"`

	// Cards is the assembled manifest content.
	Cards []Card `json:"cards"`

	// Failures lists files that were skipped in keep-going mode.
	Failures []Failure `json:"failures,omitempty"`

	// CacheHits counts hashes served from the hash cache.
	CacheHits int `json:"cache_hits"`

	// ManifestPath is where cards.json was written, empty until serialized.
	ManifestPath string `json:"manifest_path,omitempty"`

	// Error is the fatal error that ended the run, if any.
	Error error `json:"-"`

	// ErrorMessage is the string form of Error, kept for serialization.
	ErrorMessage string `json:"error,omitempty"`

	// PerformedSteps lists the names of the steps that ran.
	PerformedSteps []string `json:"performed_steps"`
}

// NewRun creates a Run for dir in the idle state.
func NewRun(id, dir string) *Run {
	return &Run{
		ID:             id,
		Directory:      dir,
		StartedAt:      time.Now(),
		State:          StateIdle,
		Cards:          make([]Card, 0),
		Failures:       make([]Failure, 0),
		PerformedSteps: make([]string, 0),
	}
}

// Fail moves the run to the failed state and records err.
func (r *Run) Fail(err error) {
	r.State = StateFailed
	r.Error = err
	if err != nil {
		r.ErrorMessage = err.Error()
	}
	r.FinishedAt = time.Now()
}

// Finish moves the run to the done state.
func (r *Run) Finish() {
	r.State = StateDone
	r.FinishedAt = time.Now()
}

// Total returns the number of enumerated files.
func (r *Run) Total() int {
	return len(r.Paths)
}

// Succeeded returns the number of files that produced a Card.
func (r *Run) Succeeded() int {
	return len(r.Cards)
}

// Failed returns the number of files that were skipped.
func (r *Run) Failed() int {
	return len(r.Failures)
}

// Duration returns how long the run took, or the elapsed time so far.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Manifest returns a snapshot of the assembled cards.
func (r *Run) Manifest() Manifest {
	cards := make([]Card, len(r.Cards))
	copy(cards, r.Cards)
	return NewManifest(cards)
}

// AbsDirectory returns the absolute form of Directory, falling back to
// Directory itself when it cannot be resolved.
func (r *Run) AbsDirectory() string {
	abs, err := filepath.Abs(r.Directory)
	if err != nil {
		return r.Directory
	}
	return abs
}
