// Package source delivers multi-channel samples from an acquisition device
// or a recording.
package source

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cwbudde/eegstream/stream"
)

// DefaultHistorySize keeps ten seconds at 125 Hz.
const DefaultHistorySize = 1250

// Source produces samples. Callbacks registered with OnSample run on the
// source's goroutine, in order, and must return quickly.
type Source interface {
	OnSample(fn func(stream.Sample))
	// Latest returns up to n of the most recent samples, oldest first.
	Latest(n int) []stream.Sample
	Start(ctx context.Context) error
	Stop() error
}

// Stats counts what a source has seen.
type Stats struct {
	Packets      int64
	Samples      int64
	DecodeErrors int64
	LastReceive  time.Time
}

// hub fans samples out to subscribers and keeps the history ring. It is
// embedded by every source in this package.
type hub struct {
	logger  *slog.Logger
	history *History

	mu   sync.RWMutex
	subs []func(stream.Sample)

	packets      atomic.Int64
	samples      atomic.Int64
	decodeErrors atomic.Int64
	lastReceive  atomic.Int64
}

func newHub(historySize int, logger *slog.Logger) *hub {
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &hub{logger: logger, history: NewHistory(historySize)}
}

// OnSample registers fn for every future sample.
func (h *hub) OnSample(fn func(stream.Sample)) {
	if fn == nil {
		return
	}
	h.mu.Lock()
	h.subs = append(h.subs, fn)
	h.mu.Unlock()
}

// Latest returns up to n of the most recent samples, oldest first.
func (h *hub) Latest(n int) []stream.Sample {
	return h.history.Latest(n)
}

// History exposes the ring for per-channel reads.
func (h *hub) History() *History { return h.history }

// Stats returns a snapshot of the counters.
func (h *hub) Stats() Stats {
	s := Stats{
		Packets:      h.packets.Load(),
		Samples:      h.samples.Load(),
		DecodeErrors: h.decodeErrors.Load(),
	}
	if ns := h.lastReceive.Load(); ns != 0 {
		s.LastReceive = time.Unix(0, ns)
	}
	return s
}

func (h *hub) publish(s stream.Sample) {
	h.history.Push(s)
	h.samples.Add(1)

	h.mu.RLock()
	subs := h.subs
	h.mu.RUnlock()
	for _, fn := range subs {
		fn(s)
	}
}
