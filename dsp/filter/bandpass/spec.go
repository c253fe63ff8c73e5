package bandpass

import (
	"fmt"
	"math"
)

// Spec is the immutable configuration of a Bandpass.
type Spec struct {
	LowHz      float64 // high-pass cutoff
	HighHz     float64 // nominal low-pass cutoff
	SampleRate float64
	// Order is the total filter order. The high-pass cascade gets Order/2,
	// the low-pass cascade Order/2+1.
	Order int
	// Margin moves the low-pass cutoff to HighHz*(1-Margin) so that the
	// nominal HighHz is already attenuated. Zero disables it.
	Margin float64
}

// DefaultSpec returns the OpenBCI Cyton+Daisy defaults: 0.5–50 Hz at 125 Hz,
// order 6, low-pass edge 10% below the nominal high cutoff.
func DefaultSpec() Spec {
	return Spec{
		LowHz:      0.5,
		HighHz:     50,
		SampleRate: 125,
		Order:      6,
		Margin:     0.1,
	}
}

// Nyquist returns half the sample rate.
func (s Spec) Nyquist() float64 { return s.SampleRate / 2 }

// EffectiveHighHz returns the cutoff actually used by the low-pass cascade.
func (s Spec) EffectiveHighHz() float64 { return s.HighHz * (1 - s.Margin) }

// HighpassOrder returns the order of the high-pass cascade.
func (s Spec) HighpassOrder() int { return s.Order / 2 }

// LowpassOrder returns the order of the low-pass cascade.
func (s Spec) LowpassOrder() int { return s.Order/2 + 1 }

// Normalized returns the cutoffs divided by the Nyquist frequency.
func (s Spec) Normalized() [2]float64 {
	nyq := s.Nyquist()
	return [2]float64{s.LowHz / nyq, s.HighHz / nyq}
}

// Validate reports whether the spec can be realised. All failures wrap
// ErrInvalidSpec.
func (s Spec) Validate() error {
	if !(s.SampleRate > 0) || math.IsInf(s.SampleRate, 0) {
		return fmt.Errorf("%w: sample rate must be > 0: %v", ErrInvalidSpec, s.SampleRate)
	}
	if s.Order < 2 {
		return fmt.Errorf("%w: order must be >= 2: %d", ErrInvalidSpec, s.Order)
	}
	if s.Margin < 0 || s.Margin >= 1 || math.IsNaN(s.Margin) {
		return fmt.Errorf("%w: margin must be in [0,1): %v", ErrInvalidSpec, s.Margin)
	}

	norm := s.Normalized()
	if !(norm[0] > 0) {
		return fmt.Errorf("%w: low cutoff %v Hz must be > 0", ErrInvalidSpec, s.LowHz)
	}
	if !(norm[1] < 1) {
		return fmt.Errorf("%w: high cutoff %v Hz must be below Nyquist (%v Hz)", ErrInvalidSpec, s.HighHz, s.Nyquist())
	}
	if s.LowHz >= s.EffectiveHighHz() {
		return fmt.Errorf("%w: low cutoff %v Hz must be below effective high cutoff %v Hz",
			ErrInvalidSpec, s.LowHz, s.EffectiveHighHz())
	}

	return nil
}
