package source

import (
	"sync"

	"github.com/cwbudde/eegstream/stream"
)

// History is a fixed-size ring of the most recent samples. The oldest
// sample is overwritten once the ring is full.
type History struct {
	mu  sync.Mutex
	buf []stream.Sample
	w   int // next write position
	n   int // samples stored
}

// NewHistory returns a ring holding size samples. A size below one selects
// DefaultHistorySize.
func NewHistory(size int) *History {
	if size < 1 {
		size = DefaultHistorySize
	}
	return &History{buf: make([]stream.Sample, size)}
}

// Push stores s, evicting the oldest sample when full. The ring keeps s
// itself; callers must not modify it afterwards.
func (h *History) Push(s stream.Sample) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.buf[h.w] = s
	h.w = (h.w + 1) % len(h.buf)
	if h.n < len(h.buf) {
		h.n++
	}
}

// Len returns the number of stored samples.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.n
}

// Latest returns up to n of the most recent samples, oldest first.
func (h *History) Latest(n int) []stream.Sample {
	h.mu.Lock()
	defer h.mu.Unlock()

	n = min(max(n, 0), h.n)
	out := make([]stream.Sample, n)
	start := (h.w - n + len(h.buf)) % len(h.buf)
	for i := range out {
		out[i] = h.buf[(start+i)%len(h.buf)]
	}
	return out
}

// Channel returns up to n of the most recent values of one channel, oldest
// first. Samples too short to have the channel contribute zero.
func (h *History) Channel(ch, n int) []float64 {
	latest := h.Latest(n)
	out := make([]float64, len(latest))
	for i, s := range latest {
		if ch < len(s) {
			out[i] = s[ch]
		}
	}
	return out
}
