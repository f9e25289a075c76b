package transport

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/srand/solvelink/pkg/utils"
)

// Minimum time between two progress reports.
const ProgressInterval = time.Second

// Cumulative bytes transferred by a request.
type Progress struct {
	Sent     int64
	Received int64
}

// ProgressFunc is called during transfers. Returning false aborts the
// request, which then fails with ErrCancelled.
type ProgressFunc func(Progress) bool

var errAborted = errors.New("aborted by progress callback")

type progressTracker struct {
	mu       sync.Mutex
	clock    utils.Clock
	fn       ProgressFunc
	cancel   context.CancelCauseFunc
	last     time.Time
	progress Progress
}

func newProgressTracker(clock utils.Clock, fn ProgressFunc, cancel context.CancelCauseFunc) *progressTracker {
	return &progressTracker{
		clock:  clock,
		fn:     fn,
		cancel: cancel,
		last:   clock.Now(),
	}
}

func (t *progressTracker) add(sent, received int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.progress.Sent += int64(sent)
	t.progress.Received += int64(received)

	if t.fn == nil {
		return nil
	}

	now := t.clock.Now()
	if now.Sub(t.last) < ProgressInterval {
		return nil
	}
	t.last = now

	if !t.fn(t.progress) {
		t.cancel(errAborted)
		return errAborted
	}

	return nil
}

func (t *progressTracker) Progress() Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.progress
}

type countingReader struct {
	r       io.Reader
	tracker *progressTracker
	sending bool
}

func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)

	var perr error
	if r.sending {
		perr = r.tracker.add(n, 0)
	} else {
		perr = r.tracker.add(0, n)
	}

	if perr != nil {
		return n, perr
	}
	return n, err
}
