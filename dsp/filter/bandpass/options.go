package bandpass

import "log/slog"

type config struct {
	logger          *slog.Logger
	zeroPhaseChunks bool
}

// Option configures a Bandpass.
type Option func(*config)

func defaultConfig() config {
	return config{logger: slog.Default()}
}

// WithLogger sets the logger used for non-fatal warnings.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *config) {
		if l != nil {
			cfg.logger = l
		}
	}
}

// WithZeroPhaseChunks routes streaming chunks that are long enough for
// zero-phase filtering through ApplyBatch instead of the causal path. Those
// chunks then have no phase delay but do not advance the streaming state,
// so consecutive chunks are no longer continuous at their boundaries.
func WithZeroPhaseChunks() Option {
	return func(cfg *config) { cfg.zeroPhaseChunks = true }
}
