// Package annotate assigns experiment markers to consecutive samples.
//
// Explicit T1/T2 markers arm a countdown; once Countdown further samples
// have passed without another explicit marker, the next sample is marked T0
// automatically. A baseline period, during which task markers are refused,
// can be started independently.
package annotate

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cwbudde/eegstream/stream"
)

// Defaults for a 125 Hz recording.
const (
	DefaultCountdown        = 400
	DefaultBaselineDuration = 300 * time.Second
)

var (
	// ErrBaselineActive is returned for T1/T2 while the baseline runs.
	ErrBaselineActive = errors.New("annotate: baseline active")
	// ErrUnknownMarker is returned for anything other than T0, T1 or T2.
	ErrUnknownMarker = errors.New("annotate: unknown marker")
)

// State is the countdown state.
type State int

const (
	StateIdle State = iota
	StateArmedT1
	StateArmedT2
)

func (s State) String() string {
	switch s {
	case StateArmedT1:
		return "armed(T1)"
	case StateArmedT2:
		return "armed(T2)"
	default:
		return "idle"
	}
}

// Option configures an Annotator.
type Option func(*Annotator)

// WithCountdown sets the number of samples after T1/T2 before T0 is emitted.
func WithCountdown(n int) Option {
	return func(a *Annotator) {
		if n > 0 {
			a.countdown = n
		}
	}
}

// WithBaselineDuration sets how long StartBaseline blocks task markers.
func WithBaselineDuration(d time.Duration) Option {
	return func(a *Annotator) {
		if d > 0 {
			a.baselineDuration = d
		}
	}
}

// WithClock replaces time.Now for baseline bookkeeping.
func WithClock(now func() time.Time) Option {
	return func(a *Annotator) {
		if now != nil {
			a.now = now
		}
	}
}

// Annotator is safe for concurrent use: markers are usually added from a
// console goroutine while Next runs on the sample path.
type Annotator struct {
	countdown        int
	baselineDuration time.Duration
	now              func() time.Time

	mu            sync.Mutex
	pending       []stream.Marker
	state         State
	sinceMarker   int
	baselineStart time.Time
	baseline      bool
}

// New returns an idle annotator.
func New(opts ...Option) *Annotator {
	a := &Annotator{
		countdown:        DefaultCountdown,
		baselineDuration: DefaultBaselineDuration,
		now:              time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// AddMarker queues m for the next sample. Several markers added between two
// samples are emitted on consecutive samples in order.
func (a *Annotator) AddMarker(m stream.Marker) error {
	if !m.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownMarker, m)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if m != stream.T0 && a.baselineActiveLocked() {
		return ErrBaselineActive
	}
	a.pending = append(a.pending, m)
	return nil
}

// Next returns the marker for the current sample and advances the machine.
// Call it exactly once per sample.
func (a *Annotator) Next() stream.Marker {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.pending) > 0 {
		m := a.pending[0]
		a.pending = a.pending[1:]
		a.sinceMarker = 0
		switch m {
		case stream.T1:
			a.state = StateArmedT1
		case stream.T2:
			a.state = StateArmedT2
		default:
			a.state = StateIdle
		}
		return m
	}

	if a.state == StateIdle {
		return stream.MarkerNone
	}

	a.sinceMarker++
	if a.sinceMarker >= a.countdown {
		a.state = StateIdle
		a.sinceMarker = 0
		return stream.T0
	}
	return stream.MarkerNone
}

// State returns the countdown state.
func (a *Annotator) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Reset drops pending markers and disarms the countdown. The baseline is
// left running.
func (a *Annotator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pending = nil
	a.state = StateIdle
	a.sinceMarker = 0
}

// StartBaseline starts (or restarts) the baseline period.
func (a *Annotator) StartBaseline() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.baseline = true
	a.baselineStart = a.now()
}

// BaselineActive reports whether the baseline is running. It ends by itself
// once the configured duration has elapsed.
func (a *Annotator) BaselineActive() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.baselineActiveLocked()
}

// BaselineRemaining returns the time left in the baseline, or zero.
func (a *Annotator) BaselineRemaining() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.baselineActiveLocked() {
		return 0
	}
	return a.baselineDuration - a.now().Sub(a.baselineStart)
}

func (a *Annotator) baselineActiveLocked() bool {
	if !a.baseline {
		return false
	}
	if a.now().Sub(a.baselineStart) >= a.baselineDuration {
		a.baseline = false
		a.baselineStart = time.Time{}
	}
	return a.baseline
}
