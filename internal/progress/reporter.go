package progress

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
)

// Reporter prints progress updates. It is safe for concurrent use.
type Reporter struct {
	mu      sync.Mutex
	w       io.Writer
	inPlace bool
	total   int
	done    int
	started bool
}

// Option configures a Reporter.
type Option func(*Reporter)

// WithInPlace forces in-place rendering on or off regardless of the writer.
func WithInPlace(inPlace bool) Option {
	return func(r *Reporter) {
		r.inPlace = inPlace
	}
}

// New creates a Reporter writing to w. In-place rendering is enabled when w
// is a terminal.
func New(w io.Writer, opts ...Option) *Reporter {
	r := &Reporter{
		w:       w,
		inPlace: isTerminal(w),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Start resets the counter and prints "0 / total".
func (r *Reporter) Start(total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.total = total
	r.done = 0
	r.started = true
	r.print()
}

// Increment records one more processed file and prints the new count.
// The count never exceeds the total.
func (r *Reporter) Increment() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done < r.total {
		r.done++
	}
	r.print()
}

// Finish terminates an in-place line so the next output starts on a fresh
// line. It is a no-op when nothing was started.
func (r *Reporter) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started {
		return
	}
	r.started = false
	if r.inPlace {
		fmt.Fprintln(r.w)
	}
}

// Done returns the number of processed files.
func (r *Reporter) Done() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}

// print writes the current line. Callers must hold mu.
func (r *Reporter) print() {
	if r.inPlace {
		// Trailing spaces clear leftovers from a longer previous line.
		fmt.Fprintf(r.w, "\r%d / %d   ", r.done, r.total)
		return
	}
	fmt.Fprintf(r.w, "%d / %d\n", r.done, r.total)
}
