package testutil

import (
	"math"
	"testing"
)

func TestDeterministicSine(t *testing.T) {
	s := DeterministicSine(10, 125, 1.0, 125)
	if len(s) != 125 {
		t.Fatalf("len = %d, want 125", len(s))
	}
	if math.Abs(s[0]) > 1e-15 {
		t.Fatalf("s[0] = %v, want 0", s[0])
	}
	for i, v := range s {
		if v < -1 || v > 1 {
			t.Fatalf("s[%d] = %v out of range", i, v)
		}
	}
}

func TestDeterministicNoiseReproducible(t *testing.T) {
	a := DeterministicNoise(42, 1.0, 64)
	b := DeterministicNoise(42, 1.0, 64)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("noise not deterministic at index %d", i)
		}
	}
}

func TestMontageShape(t *testing.T) {
	m := Montage(16, 250, 125, 10, 12)
	if len(m) != 16 || len(m[15]) != 250 {
		t.Fatalf("shape = %dx%d, want 16x250", len(m), len(m[15]))
	}
}

func TestTranspose(t *testing.T) {
	m := [][]float64{{1, 2, 3}, {4, 5, 6}}
	tr := Transpose(m)
	if len(tr) != 3 || len(tr[0]) != 2 || tr[2][1] != 6 {
		t.Fatalf("Transpose = %v", tr)
	}
}

func TestRMS(t *testing.T) {
	s := DeterministicSine(10, 125, 1, 1250)
	if got := RMS(s); math.Abs(got-1/math.Sqrt2) > 1e-3 {
		t.Fatalf("RMS = %v, want %v", got, 1/math.Sqrt2)
	}
	if TailRMS(s, 2000) != 0 {
		t.Fatal("TailRMS past end should be 0")
	}
}
