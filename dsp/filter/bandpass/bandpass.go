package bandpass

import (
	"log/slog"

	"github.com/cwbudde/eegstream/dsp/filter/biquad"
	"github.com/cwbudde/eegstream/dsp/filter/design"
)

// Bandpass is a cascaded Butterworth bandpass filter.
//
// The coefficients are immutable after New. The streaming state is owned by
// the Bandpass and is not safe for concurrent use; run one Bandpass per
// stream, or drive independent streams through Step with their own State.
type Bandpass struct {
	spec     Spec
	highpass []biquad.Coefficients
	lowpass  []biquad.Coefficients

	logger          *slog.Logger
	zeroPhaseChunks bool

	state *State
}

// New validates spec and designs both cascades. It fails with an error
// wrapping ErrInvalidSpec and returns no filter when the spec is invalid.
func New(spec Spec, opts ...Option) (*Bandpass, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	for _, o := range opts {
		if o != nil {
			o(&cfg)
		}
	}

	return &Bandpass{
		spec:            spec,
		highpass:        design.ButterworthHP(spec.LowHz, spec.HighpassOrder(), spec.SampleRate),
		lowpass:         design.ButterworthLP(spec.EffectiveHighHz(), spec.LowpassOrder(), spec.SampleRate),
		logger:          cfg.logger,
		zeroPhaseChunks: cfg.zeroPhaseChunks,
	}, nil
}

// Spec returns the configuration the filter was built from.
func (f *Bandpass) Spec() Spec { return f.spec }

// MinBatchSamples is the shortest per-channel length ApplyBatch filters:
// three times the order of the larger cascade.
func (f *Bandpass) MinBatchSamples() int {
	return 3 * max(f.spec.HighpassOrder(), f.spec.LowpassOrder())
}

// Reset discards the streaming state. The next ApplyRealtime call starts
// from zeroed delay lines. Call it whenever a new recording starts.
func (f *Bandpass) Reset() {
	f.state = nil
}

// MagnitudeDB returns the single-pass (causal) response at freqHz in dB.
// The zero-phase path applies it twice.
func (f *Bandpass) MagnitudeDB(freqHz float64) float64 {
	sr := f.spec.SampleRate
	return biquad.NewChain(f.highpass).MagnitudeDB(freqHz, sr) +
		biquad.NewChain(f.lowpass).MagnitudeDB(freqHz, sr)
}

func (f *Bandpass) warn(msg string, args ...any) {
	f.logger.Warn(msg, args...)
}
