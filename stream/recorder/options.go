package recorder

import (
	"log/slog"
	"time"
)

type config struct {
	flushSize     int
	flushInterval time.Duration
	logger        *slog.Logger
	now           func() time.Time
}

func defaultConfig() config {
	return config{
		flushSize:     DefaultFlushSize,
		flushInterval: DefaultFlushInterval,
		logger:        slog.Default(),
		now:           time.Now,
	}
}

// Option configures a Recorder.
type Option func(*config)

// WithFlushSize sets the record count that triggers a flush.
func WithFlushSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.flushSize = n
		}
	}
}

// WithFlushInterval sets the maximum time between flushes.
func WithFlushInterval(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.flushInterval = d
		}
	}
}

// WithLogger sets the logger for flush failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock replaces time.Now for the interval threshold.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		if now != nil {
			c.now = now
		}
	}
}
