// Package quality grades EEG channels from short windows of samples.
//
// Statistics are computed in one pass with Welford's update so that long
// windows of large-offset raw data keep their precision.
package quality

import "math"

// Stats holds time-domain statistics of one channel window. Amplitudes are
// in the unit of the input, µV for OpenBCI data.
type Stats struct {
	Length        int
	Mean          float64
	Variance      float64 // population variance
	StdDev        float64
	RMS           float64
	Min           float64
	Max           float64
	PeakToPeak    float64
	Peak          float64 // max(|min|, |max|)
	CrestFactor   float64 // peak / RMS
	ZeroCrossings int
	Kurtosis      float64 // excess kurtosis
}

// Calculate computes Stats in a single pass. NaN samples are skipped.
func Calculate(x []float64) Stats {
	var (
		n                  int
		mean, m2, m3, m4   float64
		sumSq              float64
		minVal, maxVal     = math.Inf(1), math.Inf(-1)
		zc                 int
		prev               float64
	)

	for _, v := range x {
		if math.IsNaN(v) {
			continue
		}
		if n > 0 && prev*v < 0 {
			zc++
		}
		prev = v

		n++
		nf := float64(n)
		delta := v - mean
		deltaN := delta / nf
		deltaN2 := deltaN * deltaN
		term1 := delta * deltaN * (nf - 1)

		// m4 before m3 before m2.
		m4 += term1*deltaN2*(nf*nf-3*nf+3) + 6*deltaN2*m2 - 4*deltaN*m3
		m3 += term1*deltaN*(nf-2) - 3*deltaN*m2
		m2 += term1
		mean += deltaN

		sumSq += v * v
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}

	if n == 0 {
		return Stats{}
	}

	nf := float64(n)
	s := Stats{
		Length:        n,
		Mean:          mean,
		Variance:      m2 / nf,
		RMS:           math.Sqrt(sumSq / nf),
		Min:           minVal,
		Max:           maxVal,
		PeakToPeak:    maxVal - minVal,
		Peak:          math.Max(math.Abs(minVal), math.Abs(maxVal)),
		ZeroCrossings: zc,
	}
	s.StdDev = math.Sqrt(s.Variance)
	if s.RMS > 0 {
		s.CrestFactor = s.Peak / s.RMS
	}
	if s.Variance > 0 {
		s.Kurtosis = (m4/nf)/(s.Variance*s.Variance) - 3
	}
	return s
}

// Status is the grade of a channel.
type Status int

const (
	StatusUnknown Status = iota
	StatusGood
	StatusFlat
	StatusRailed
	StatusNoisy
)

func (s Status) String() string {
	switch s {
	case StatusGood:
		return "good"
	case StatusFlat:
		return "flat"
	case StatusRailed:
		return "railed"
	case StatusNoisy:
		return "noisy"
	default:
		return "unknown"
	}
}

// Thresholds control the grading.
type Thresholds struct {
	// FlatUV is the filtered peak-to-peak below which a channel is flat.
	FlatUV float64
	// RailUV is the raw magnitude at which the amplifier saturates.
	RailUV float64
	// RailFraction is the share of raw samples at the rail that marks a
	// channel railed.
	RailFraction float64
	// NoisyUV is the filtered RMS above which a channel is noisy.
	NoisyUV float64
}

// DefaultThresholds returns limits for a Cyton board at gain 24, whose
// inputs saturate at ±187500 µV.
func DefaultThresholds() Thresholds {
	return Thresholds{
		FlatUV:       0.5,
		RailUV:       187000,
		RailFraction: 0.1,
		NoisyUV:      100,
	}
}

// Report is the assessment of one channel window.
type Report struct {
	Stats          // of the filtered window
	RailedFraction float64
	Status         Status
}

// Assess grades a channel from its raw and filtered windows. Saturation is
// judged on raw data, flatness and noise on filtered data.
func Assess(raw, filtered []float64, th Thresholds) Report {
	r := Report{Stats: Calculate(filtered)}
	r.RailedFraction = railedFraction(raw, th.RailUV)

	switch {
	case r.Length == 0:
		r.Status = StatusUnknown
	case len(raw) > 0 && r.RailedFraction >= th.RailFraction:
		r.Status = StatusRailed
	case r.PeakToPeak < th.FlatUV:
		r.Status = StatusFlat
	case r.RMS > th.NoisyUV:
		r.Status = StatusNoisy
	default:
		r.Status = StatusGood
	}
	return r
}

func railedFraction(x []float64, rail float64) float64 {
	if len(x) == 0 || !(rail > 0) {
		return 0
	}
	var n int
	for _, v := range x {
		if math.Abs(v) >= rail {
			n++
		}
	}
	return float64(n) / float64(len(x))
}
