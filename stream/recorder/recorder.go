// Package recorder buffers accepted records in memory and persists them in
// batches from a single background worker, so the sample path never waits
// for I/O.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cwbudde/eegstream/stream"
)

// Defaults match a 125 Hz stream: a flush every 30 records or 5 s.
const (
	DefaultFlushSize     = 30
	DefaultFlushInterval = 5 * time.Second
)

// ErrStopped is returned by Accept once Stop has been called.
var ErrStopped = errors.New("recorder: stopped")

// Sink persists batches of records. Write is only ever called from one
// goroutine at a time and must not retain the slice after returning.
type Sink interface {
	Write(batch []stream.Record) error
	Close() error
}

// Stats is a snapshot of recorder counters.
type Stats struct {
	Buffered      int
	Accepted      int64
	Flushed       int64
	Batches       int64
	FailedFlushes int64
	LastFlush     time.Time
	LastError     error
}

// Recorder is a BufferedStreamLogger. Accept is safe for concurrent use.
type Recorder struct {
	sink          Sink
	flushSize     int
	flushInterval time.Duration
	logger        *slog.Logger
	now           func() time.Time

	// mu guards the buffer and the counters; it is held only for append,
	// swap and re-prepend.
	mu        sync.Mutex
	buf       []stream.Record
	lastFlush time.Time
	stopped   bool
	stats     Stats

	// flushMu serialises sink writes.
	flushMu sync.Mutex

	trigger   chan struct{}
	done      chan struct{}
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
	stopErr   error
}

// New returns a recorder writing to sink. Call Start to launch the flush
// worker.
func New(sink Sink, opts ...Option) *Recorder {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return &Recorder{
		sink:          sink,
		flushSize:     cfg.flushSize,
		flushInterval: cfg.flushInterval,
		logger:        cfg.logger,
		now:           cfg.now,
		buf:           make([]stream.Record, 0, cfg.flushSize),
		lastFlush:     cfg.now(),
		trigger:       make(chan struct{}, 1),
		done:          make(chan struct{}),
	}
}

// Start launches the flush worker. Further calls are no-ops.
func (r *Recorder) Start() {
	r.startOnce.Do(func() {
		r.wg.Add(1)
		go r.run()
	})
}

// Accept appends rec to the buffer and, once the buffer holds FlushSize
// records or FlushInterval has passed since the last flush, wakes the
// worker. It never blocks on I/O.
func (r *Recorder) Accept(rec stream.Record) error {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return ErrStopped
	}
	r.buf = append(r.buf, rec)
	r.stats.Accepted++
	due := len(r.buf) >= r.flushSize || r.now().Sub(r.lastFlush) >= r.flushInterval
	r.mu.Unlock()

	if due {
		select {
		case r.trigger <- struct{}{}:
		default:
		}
	}
	return nil
}

// Flush writes everything buffered so far. On failure the batch is put back
// ahead of records accepted in the meantime and the error is returned.
func (r *Recorder) Flush() error {
	r.flushMu.Lock()
	defer r.flushMu.Unlock()

	r.mu.Lock()
	batch := r.buf
	r.buf = make([]stream.Record, 0, max(r.flushSize, cap(batch)))
	r.lastFlush = r.now()
	r.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	if err := r.sink.Write(batch); err != nil {
		r.mu.Lock()
		r.buf = append(batch, r.buf...)
		r.stats.FailedFlushes++
		r.stats.LastError = err
		buffered := len(r.buf)
		r.mu.Unlock()

		r.logger.Warn("flush failed, batch kept for retry",
			slog.Int("records", len(batch)), slog.Int("buffered", buffered), slog.Any("err", err))
		return fmt.Errorf("recorder: flush %d records: %w", len(batch), err)
	}

	r.mu.Lock()
	r.stats.Flushed += int64(len(batch))
	r.stats.Batches++
	r.stats.LastFlush = r.lastFlush
	r.stats.LastError = nil
	r.mu.Unlock()

	r.logger.Debug("flushed", slog.Int("records", len(batch)))
	return nil
}

// Stop refuses further records, stops the worker, waits for an in-flight
// flush, flushes what is left and closes the sink. If ctx ends first Stop
// returns its error; the shutdown still completes in the background.
// Subsequent calls return the first result.
func (r *Recorder) Stop(ctx context.Context) error {
	r.stopOnce.Do(func() {
		r.mu.Lock()
		r.stopped = true
		r.mu.Unlock()
		close(r.done)

		finished := make(chan error, 1)
		go func() {
			r.wg.Wait()
			flushErr := r.Flush()
			if flushErr != nil {
				r.mu.Lock()
				lost := len(r.buf)
				r.mu.Unlock()
				r.logger.Error("final flush failed", slog.Int("records", lost), slog.Any("err", flushErr))
			}
			finished <- errors.Join(flushErr, r.sink.Close())
		}()

		select {
		case r.stopErr = <-finished:
		case <-ctx.Done():
			r.stopErr = fmt.Errorf("recorder: stop: %w", ctx.Err())
		}
	})
	return r.stopErr
}

// Stats returns a snapshot of the counters.
func (r *Recorder) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.stats
	s.Buffered = len(r.buf)
	return s
}

func (r *Recorder) run() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			return
		case <-r.trigger:
		case <-ticker.C:
		}
		// Errors are logged by Flush; the batch stays buffered for the next
		// attempt.
		_ = r.Flush()
	}
}
