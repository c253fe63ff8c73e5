package bandpass

import (
	"log/slog"

	"github.com/cwbudde/eegstream/dsp/filter/biquad"
)

// Info is a read-only description of a Bandpass for diagnostics and tests.
type Info struct {
	Type            string
	Order           int
	LowHz           float64
	HighHz          float64
	EffectiveHighHz float64
	SampleRate      float64
	Normalized      [2]float64
	HighpassOrder   int
	LowpassOrder    int
	Highpass        []biquad.Coefficients
	Lowpass         []biquad.Coefficients
}

// Info returns the filter descriptor. The coefficient slices are copies.
func (f *Bandpass) Info() Info {
	s := f.spec
	return Info{
		Type:            "butterworth-bandpass-cascade",
		Order:           s.Order,
		LowHz:           s.LowHz,
		HighHz:          s.HighHz,
		EffectiveHighHz: s.EffectiveHighHz(),
		SampleRate:      s.SampleRate,
		Normalized:      s.Normalized(),
		HighpassOrder:   s.HighpassOrder(),
		LowpassOrder:    s.LowpassOrder(),
		Highpass:        append([]biquad.Coefficients(nil), f.highpass...),
		Lowpass:         append([]biquad.Coefficients(nil), f.lowpass...),
	}
}

// LogValue implements slog.LogValuer.
func (i Info) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("type", i.Type),
		slog.Int("order", i.Order),
		slog.Float64("low_hz", i.LowHz),
		slog.Float64("high_hz", i.HighHz),
		slog.Float64("effective_high_hz", i.EffectiveHighHz),
		slog.Float64("sample_rate_hz", i.SampleRate),
		slog.Int("highpass_order", i.HighpassOrder),
		slog.Int("lowpass_order", i.LowpassOrder),
	)
}
