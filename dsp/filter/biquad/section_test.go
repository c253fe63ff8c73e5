package biquad

import (
	"math"
	"testing"
)

// tolerance for floating-point comparisons.
const eps = 1e-12

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func testCoeffs() Coefficients {
	return Coefficients{B0: 0.25, B1: 0.5, B2: 0.25, A1: -0.2, A2: 0.04}
}

func TestNewSection(t *testing.T) {
	c := Coefficients{B0: 1, B1: 2, B2: 3, A1: 4, A2: 5}
	s := NewSection(c)
	if s.Coefficients != c {
		t.Fatalf("coefficients mismatch: got %v, want %v", s.Coefficients, c)
	}
	if st := s.State(); st != [2]float64{0, 0} {
		t.Fatalf("initial state not zero: %v", st)
	}
}

func TestProcessSample_DFIIT(t *testing.T) {
	// Hand-traced impulse response for B0=0.25, B1=0.5, B2=0.25, A1=-0.2, A2=0.04:
	//
	// n=0: y=0.25          d0=0.55   d1=0.24
	// n=1: y=0.55          d0=0.35   d1=-0.022
	// n=2: y=0.35          d0=0.048  d1=-0.014
	// n=3: y=0.048
	s := NewSection(testCoeffs())

	want := []float64{0.25, 0.55, 0.35, 0.048}
	for i, w := range want {
		var x float64
		if i == 0 {
			x = 1
		}
		if y := s.ProcessSample(x); !almostEqual(y, w, eps) {
			t.Errorf("sample %d: got %.15f, want %.15f", i, y, w)
		}
	}
}

func TestProcessBlock_MatchesSample(t *testing.T) {
	input := []float64{1, 0.5, -0.3, 0.7, 0, -1, 0.2, 0.8, 0.1}

	ref := NewSection(testCoeffs())
	want := make([]float64, len(input))
	for i, x := range input {
		want[i] = ref.ProcessSample(x)
	}

	s := NewSection(testCoeffs())
	block := append([]float64(nil), input...)
	s.ProcessBlock(block)

	for i := range block {
		if !almostEqual(block[i], want[i], eps) {
			t.Errorf("sample %d: block=%.15f, ref=%.15f", i, block[i], want[i])
		}
	}
	if s.State() != ref.State() {
		t.Fatalf("state diverged: block=%v sample=%v", s.State(), ref.State())
	}
}

func TestReset(t *testing.T) {
	s := NewSection(testCoeffs())
	s.ProcessSample(1)
	s.ProcessSample(0.5)
	s.Reset()
	if st := s.State(); st != [2]float64{0, 0} {
		t.Fatalf("state after Reset: %v", st)
	}
}

func TestState_SaveRestore(t *testing.T) {
	s := NewSection(testCoeffs())
	s.ProcessSample(1)
	saved := s.State()

	a := s.ProcessSample(0.3)
	s.SetState(saved)
	b := s.ProcessSample(0.3)

	if a != b {
		t.Fatalf("restored state produced %v, want %v", b, a)
	}
}

func TestDCGain(t *testing.T) {
	c := testCoeffs()
	want := (0.25 + 0.5 + 0.25) / (1 - 0.2 + 0.04)
	if got := c.DCGain(); !almostEqual(got, want, eps) {
		t.Fatalf("DCGain = %v, want %v", got, want)
	}
}

func TestSteadyState_ConstantInputHasNoTransient(t *testing.T) {
	c := testCoeffs()
	s := NewSection(c)
	s.SetState(c.SteadyState(2))

	want := 2 * c.DCGain()
	for i := range 20 {
		if y := s.ProcessSample(2); !almostEqual(y, want, 1e-12) {
			t.Fatalf("sample %d: got %v, want %v", i, y, want)
		}
	}
}

func TestFirstOrder(t *testing.T) {
	if !(Coefficients{B0: 0.3, B1: 0.3, A1: -0.4}).FirstOrder() {
		t.Fatal("expected first-order section")
	}
	if testCoeffs().FirstOrder() {
		t.Fatal("biquad reported as first-order")
	}
}

func TestProcessSample_DecayFlushesDenormals(t *testing.T) {
	s := NewSection(testCoeffs())
	s.ProcessSample(1)
	for range 5000 {
		s.ProcessSample(0)
	}
	if st := s.State(); st != [2]float64{0, 0} {
		t.Fatalf("state did not decay to exact zero: %v", st)
	}
}
