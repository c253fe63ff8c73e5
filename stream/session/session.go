// Package session runs the acquisition pipeline: samples from a source are
// filtered, annotated and handed to a recorder.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cwbudde/eegstream/dsp/filter/bandpass"
	"github.com/cwbudde/eegstream/measure/bandpower"
	"github.com/cwbudde/eegstream/measure/quality"
	"github.com/cwbudde/eegstream/stream"
	"github.com/cwbudde/eegstream/stream/annotate"
	"github.com/cwbudde/eegstream/stream/recorder"
	"github.com/cwbudde/eegstream/stream/source"
	"github.com/google/uuid"
)

// ErrNotEnoughHistory is returned by analyses run before enough filtered
// samples have been collected.
var ErrNotEnoughHistory = errors.New("session: not enough filtered samples")

// Stats is a snapshot of the pipeline counters.
type Stats struct {
	ID        string
	Started   time.Time
	Received  int64
	Dropped   int64
	Processed int64
	Faults    int64
	Recorder  recorder.Stats
}

// ChannelStats grades the recent signal of one channel.
type ChannelStats struct {
	Channel int
	quality.Report
}

// Session wires a source to a filter, an annotator and a recorder. The
// source callback only enqueues; one worker goroutine owns the filter state.
type Session struct {
	id           string
	channels     int
	queueSize    int
	historySize  int
	backpressure bool
	logger       *slog.Logger
	now          func() time.Time

	src       source.Source
	filter    *bandpass.Bandpass
	annotator *annotate.Annotator
	rec       *recorder.Recorder
	raw       *source.History
	filtered  *source.History
	quality   quality.Thresholds

	mu      sync.RWMutex
	queue   chan stream.Sample
	closed  bool
	started time.Time

	received  atomic.Int64
	dropped   atomic.Int64
	processed atomic.Int64
	faults    atomic.Int64

	next      int64
	worker    sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
	startErr  error
	stopErr   error
}

// New assembles a session. It takes ownership of rec: Start starts it and
// Stop stops it.
func New(src source.Source, filter *bandpass.Bandpass, rec *recorder.Recorder, opts ...Option) *Session {
	s := &Session{
		id:          uuid.NewString(),
		channels:    stream.DefaultChannels,
		queueSize:   DefaultQueueSize,
		historySize: source.DefaultHistorySize,
		logger:      slog.Default(),
		now:         time.Now,
		src:         src,
		filter:      filter,
		rec:         rec,
		quality:     quality.DefaultThresholds(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.annotator == nil {
		s.annotator = annotate.New()
	}
	s.queue = make(chan stream.Sample, s.queueSize)
	s.raw = source.NewHistory(s.historySize)
	s.filtered = source.NewHistory(s.historySize)
	s.logger = s.logger.With(slog.String("session", s.id))
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Annotator returns the marker state machine, for AddMarker and baseline
// control.
func (s *Session) Annotator() *annotate.Annotator { return s.annotator }

// Start resets the filter state and annotator, starts the recorder and the
// worker, and then the source. A session can be started once.
func (s *Session) Start(ctx context.Context) error {
	s.startOnce.Do(func() {
		s.filter.Reset()
		s.annotator.Reset()
		s.rec.Start()

		s.mu.Lock()
		s.started = s.now()
		s.mu.Unlock()

		s.worker.Add(1)
		go s.run()

		s.src.OnSample(s.enqueue)
		if err := s.src.Start(ctx); err != nil {
			s.startErr = fmt.Errorf("session: start source: %w", err)
			return
		}
		s.logger.Info("session started", slog.Int("channels", s.channels))
	})
	return s.startErr
}

// Stop stops the source, drains the queue and stops the recorder, which
// flushes and closes its sink. It is bounded by ctx.
func (s *Session) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() {
		var errs []error
		if err := s.src.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("session: stop source: %w", err))
		}

		s.mu.Lock()
		s.closed = true
		close(s.queue)
		s.mu.Unlock()

		drained := make(chan struct{})
		go func() {
			s.worker.Wait()
			close(drained)
		}()
		select {
		case <-drained:
		case <-ctx.Done():
			errs = append(errs, fmt.Errorf("session: drain: %w", ctx.Err()))
		}

		if err := s.rec.Stop(ctx); err != nil {
			errs = append(errs, err)
		}

		st := s.Stats()
		s.logger.Info("session stopped",
			slog.Int64("processed", st.Processed),
			slog.Int64("dropped", st.Dropped),
			slog.Int64("flushed", st.Recorder.Flushed))
		s.stopErr = errors.Join(errs...)
	})
	return s.stopErr
}

// Stats returns a snapshot of the counters.
func (s *Session) Stats() Stats {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	return Stats{
		ID:        s.id,
		Started:   started,
		Received:  s.received.Load(),
		Dropped:   s.dropped.Load(),
		Processed: s.processed.Load(),
		Faults:    s.faults.Load(),
		Recorder:  s.rec.Stats(),
	}
}

// BandPower analyses the last n filtered samples of one channel.
func (s *Session) BandPower(channel, n int) (bandpower.Result, error) {
	if channel < 0 || channel >= s.channels {
		return bandpower.Result{}, fmt.Errorf("session: channel %d out of range [0,%d)", channel, s.channels)
	}
	x := s.filtered.Channel(channel, n)
	if len(x) < n {
		return bandpower.Result{}, fmt.Errorf("%w: have %d, want %d", ErrNotEnoughHistory, len(x), n)
	}
	return bandpower.Analyze(x, bandpower.Config{SampleRate: s.filter.Spec().SampleRate})
}

// ChannelStats grades every channel from its last n raw and filtered
// samples.
func (s *Session) ChannelStats(n int) ([]ChannelStats, error) {
	if s.filtered.Len() < max(n, 2) {
		return nil, fmt.Errorf("%w: have %d, want %d", ErrNotEnoughHistory, s.filtered.Len(), n)
	}
	out := make([]ChannelStats, s.channels)
	for ch := range out {
		out[ch] = ChannelStats{
			Channel: ch,
			Report:  quality.Assess(s.raw.Channel(ch, n), s.filtered.Channel(ch, n), s.quality),
		}
	}
	return out, nil
}

// enqueue is the source callback. It never blocks unless the session was
// built WithBackpressure.
func (s *Session) enqueue(sample stream.Sample) {
	s.received.Add(1)

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.dropped.Add(1)
		return
	}
	if s.backpressure {
		s.queue <- sample
		return
	}
	select {
	case s.queue <- sample:
	default:
		if s.dropped.Add(1) == 1 {
			s.logger.Warn("sample queue full, dropping samples", slog.Int("queue", s.queueSize))
		}
	}
}

func (s *Session) run() {
	defer s.worker.Done()
	for sample := range s.queue {
		s.process(sample)
	}
}

func (s *Session) process(sample stream.Sample) {
	x := stream.Fit(sample, s.channels)
	y, err := s.filter.ApplyRealtime(x)
	if err != nil {
		s.faults.Add(1)
	}
	s.raw.Push(x)
	s.filtered.Push(y)

	rec := stream.Record{
		Index:    s.next,
		Time:     s.now(),
		Channels: y,
		Marker:   s.annotator.Next(),
	}
	s.next++

	if err := s.rec.Accept(rec); err != nil {
		s.logger.Warn("record rejected", slog.Int64("index", rec.Index), slog.Any("err", err))
	}
	s.processed.Add(1)
}
