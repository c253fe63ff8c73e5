package session

import (
	"log/slog"
	"time"

	"github.com/cwbudde/eegstream/measure/quality"
	"github.com/cwbudde/eegstream/stream/annotate"
)

// DefaultQueueSize holds eight seconds of samples at 125 Hz.
const DefaultQueueSize = 1024

// Option configures a Session.
type Option func(*Session)

// WithID sets the session identifier; New generates one otherwise.
func WithID(id string) Option {
	return func(s *Session) {
		if id != "" {
			s.id = id
		}
	}
}

// WithChannels sets the channel count every sample is fitted to.
func WithChannels(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.channels = n
		}
	}
}

// WithQueueSize bounds the queue between the source and the worker.
func WithQueueSize(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.queueSize = n
		}
	}
}

// WithBackpressure makes the source callback block while the queue is full
// instead of dropping samples. Use it for sources that can wait, such as file
// replay.
func WithBackpressure() Option {
	return func(s *Session) { s.backpressure = true }
}

// WithAnnotator supplies the marker state machine.
func WithAnnotator(a *annotate.Annotator) Option {
	return func(s *Session) {
		if a != nil {
			s.annotator = a
		}
	}
}

// WithHistorySize sets how many filtered samples are kept for analysis.
func WithHistorySize(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.historySize = n
		}
	}
}

// WithQualityThresholds sets the limits ChannelStats grades against.
func WithQualityThresholds(th quality.Thresholds) Option {
	return func(s *Session) { s.quality = th }
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces time.Now for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}
