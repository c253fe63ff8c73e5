package biquad

import (
	"math"
	"math/cmplx"
	"testing"
)

func TestResponse_Passthrough(t *testing.T) {
	c := Coefficients{B0: 1}
	for _, f := range []float64{0, 10, 30, 60} {
		if h := c.Response(f, 125); !almostEqual(cmplx.Abs(h), 1, eps) {
			t.Fatalf("|H(%v)| = %v, want 1", f, cmplx.Abs(h))
		}
	}
}

func TestResponse_DCMatchesDCGain(t *testing.T) {
	c := testCoeffs()
	h := c.Response(0, 125)
	if !almostEqual(real(h), c.DCGain(), 1e-12) || !almostEqual(imag(h), 0, 1e-12) {
		t.Fatalf("H(0) = %v, want %v", h, c.DCGain())
	}
}

func TestChain_Response_ProductOfSections(t *testing.T) {
	coeffs := twoSectionCoeffs()
	chain := NewChain(coeffs, WithGain(0.7))

	for _, f := range []float64{1, 12.5, 40} {
		want := complex(0.7, 0) * coeffs[0].Response(f, 125) * coeffs[1].Response(f, 125)
		got := chain.Response(f, 125)
		if cmplx.Abs(got-want) > 1e-12 {
			t.Fatalf("f=%v: got %v, want %v", f, got, want)
		}
	}
}

func TestChain_MagnitudeDB_MatchesResponse(t *testing.T) {
	chain := NewChain(twoSectionCoeffs())
	f := 20.0
	want := 20 * math.Log10(cmplx.Abs(chain.Response(f, 125)))
	if got := chain.MagnitudeDB(f, 125); !almostEqual(got, want, 1e-12) {
		t.Fatalf("MagnitudeDB = %v, want %v", got, want)
	}
}

func TestStable(t *testing.T) {
	if !testCoeffs().Stable() {
		t.Fatal("stable section reported unstable")
	}
	unstable := Coefficients{B0: 1, A1: -2.5, A2: 1.2}
	if unstable.Stable() {
		t.Fatal("unstable section reported stable")
	}
}

func TestChain_ImpulseResponsePreservesState(t *testing.T) {
	chain := NewChain(twoSectionCoeffs())
	chain.ProcessSample(1)
	saved := chain.State()

	ir := chain.ImpulseResponse(8)
	if len(ir) != 8 {
		t.Fatalf("len(ir) = %d, want 8", len(ir))
	}

	after := chain.State()
	for i := range saved {
		if saved[i] != after[i] {
			t.Fatalf("section %d state changed: %v -> %v", i, saved[i], after[i])
		}
	}
}
