package quality

import (
	"math"
	"testing"

	"github.com/cwbudde/eegstream/internal/testutil"
)

const tolerance = 1e-9

func TestCalculateSine(t *testing.T) {
	// 10 Hz at 125 Hz: 25 samples hold exactly two cycles.
	x := testutil.DeterministicSine(10, 125, 2, 250)
	s := Calculate(x)

	if s.Length != 250 {
		t.Fatalf("Length = %d, want 250", s.Length)
	}
	if math.Abs(s.Mean) > tolerance {
		t.Fatalf("Mean = %g, want 0", s.Mean)
	}
	if math.Abs(s.RMS-math.Sqrt2) > 1e-6 {
		t.Fatalf("RMS = %g, want %g", s.RMS, math.Sqrt2)
	}
	if math.Abs(s.StdDev-s.RMS) > 1e-6 {
		t.Fatalf("StdDev = %g, want RMS %g for zero-mean signal", s.StdDev, s.RMS)
	}
	if s.PeakToPeak > 4 || s.PeakToPeak < 3.8 {
		t.Fatalf("PeakToPeak = %g, want about 4", s.PeakToPeak)
	}
	// Pure sine: excess kurtosis -1.5.
	if math.Abs(s.Kurtosis+1.5) > 1e-6 {
		t.Fatalf("Kurtosis = %g, want -1.5", s.Kurtosis)
	}
	if s.ZeroCrossings < 38 || s.ZeroCrossings > 40 {
		t.Fatalf("ZeroCrossings = %d, want about 40", s.ZeroCrossings)
	}
}

func TestCalculateMatchesTwoPass(t *testing.T) {
	x := testutil.DeterministicNoise(42, 3, 1000)
	for i := range x {
		x[i] += 1e5 // large DC offset like raw Cyton data
	}
	s := Calculate(x)

	var mean float64
	for _, v := range x {
		mean += v
	}
	mean /= float64(len(x))
	var m2, m4 float64
	for _, v := range x {
		d := v - mean
		m2 += d * d
		m4 += d * d * d * d
	}
	variance := m2 / float64(len(x))
	kurt := (m4/float64(len(x)))/(variance*variance) - 3

	if math.Abs(s.Mean-mean) > 1e-6 {
		t.Fatalf("Mean = %.12g, want %.12g", s.Mean, mean)
	}
	if math.Abs(s.Variance-variance) > 1e-6*variance {
		t.Fatalf("Variance = %.12g, want %.12g", s.Variance, variance)
	}
	if math.Abs(s.Kurtosis-kurt) > 1e-6 {
		t.Fatalf("Kurtosis = %.12g, want %.12g", s.Kurtosis, kurt)
	}
}

func TestCalculateEmptyAndNaN(t *testing.T) {
	if s := Calculate(nil); s != (Stats{}) {
		t.Fatalf("Calculate(nil) = %+v, want zero", s)
	}
	if s := Calculate([]float64{math.NaN(), math.NaN()}); s.Length != 0 {
		t.Fatalf("all-NaN Length = %d, want 0", s.Length)
	}

	s := Calculate([]float64{1, math.NaN(), -1})
	if s.Length != 2 || s.ZeroCrossings != 1 || s.PeakToPeak != 2 {
		t.Fatalf("NaN skipping broken: %+v", s)
	}
}

func TestAssess(t *testing.T) {
	th := DefaultThresholds()
	sine := testutil.DeterministicSine(10, 125, 10, 250)

	tests := []struct {
		name     string
		raw      []float64
		filtered []float64
		want     Status
	}{
		{"good", sine, sine, StatusGood},
		{"flat", testutil.DC(5000, 250), testutil.DC(0, 250), StatusFlat},
		{"railed", testutil.DC(187500, 250), testutil.DC(0, 250), StatusRailed},
		{"noisy", sine, testutil.DeterministicSine(10, 125, 500, 250), StatusNoisy},
		{"empty", nil, nil, StatusUnknown},
		{"no raw", nil, sine, StatusGood},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Assess(tt.raw, tt.filtered, th)
			if r.Status != tt.want {
				t.Fatalf("Status = %s, want %s (report %+v)", r.Status, tt.want, r)
			}
		})
	}
}

func TestRailedFraction(t *testing.T) {
	x := []float64{0, 187500, -187500, 10}
	if got := railedFraction(x, 187000); got != 0.5 {
		t.Fatalf("railedFraction = %g, want 0.5", got)
	}
	if got := railedFraction(x, 0); got != 0 {
		t.Fatalf("railedFraction with zero rail = %g, want 0", got)
	}
}

func TestStatusString(t *testing.T) {
	for s, want := range map[Status]string{
		StatusGood: "good", StatusFlat: "flat", StatusRailed: "railed",
		StatusNoisy: "noisy", StatusUnknown: "unknown", Status(99): "unknown",
	} {
		if got := s.String(); got != want {
			t.Fatalf("Status(%d).String() = %q, want %q", int(s), got, want)
		}
	}
}
