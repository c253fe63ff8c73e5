package design

import (
	"math"
	"testing"

	"github.com/cwbudde/eegstream/dsp/filter/biquad"
)

const eegRate = 125.0

func chainDB(sections []biquad.Coefficients, freq float64) float64 {
	return biquad.NewChain(sections).MagnitudeDB(freq, eegRate)
}

func TestButterworth_SectionCount(t *testing.T) {
	for order := 1; order <= 8; order++ {
		want := (order + 1) / 2
		if got := ButterworthLP(20, order, eegRate); len(got) != want {
			t.Fatalf("LP order %d: sections=%d, want %d", order, len(got), want)
		}
		if got := ButterworthHP(1, order, eegRate); len(got) != want {
			t.Fatalf("HP order %d: sections=%d, want %d", order, len(got), want)
		}
	}
}

func TestButterworth_OddOrderHasFirstOrderSection(t *testing.T) {
	for _, order := range []int{1, 3, 5, 7} {
		lp := ButterworthLP(20, order, eegRate)
		if !lp[len(lp)-1].FirstOrder() {
			t.Fatalf("LP order %d: last section not first-order: %+v", order, lp[len(lp)-1])
		}
		hp := ButterworthHP(1, order, eegRate)
		if !hp[len(hp)-1].FirstOrder() {
			t.Fatalf("HP order %d: last section not first-order: %+v", order, hp[len(hp)-1])
		}
	}
}

func TestButterworthLP_Minus3dBAtCutoff(t *testing.T) {
	for _, order := range []int{1, 2, 3, 4, 5, 6} {
		db := chainDB(ButterworthLP(45, order, eegRate), 45)
		if math.Abs(db+3.0103) > 0.01 {
			t.Fatalf("order %d: |H(fc)| = %.4f dB, want -3.01 dB", order, db)
		}
	}
}

func TestButterworthHP_Minus3dBAtCutoff(t *testing.T) {
	for _, order := range []int{1, 2, 3, 4} {
		db := chainDB(ButterworthHP(0.5, order, eegRate), 0.5)
		if math.Abs(db+3.0103) > 0.01 {
			t.Fatalf("order %d: |H(fc)| = %.4f dB, want -3.01 dB", order, db)
		}
	}
}

func TestButterworthLP_HigherOrderSteeperRolloff(t *testing.T) {
	prev := 0.0
	for _, order := range []int{1, 2, 4, 6} {
		atten := -chainDB(ButterworthLP(45, order, eegRate), 55)
		if atten <= prev {
			t.Fatalf("order %d: attenuation %.2f dB not above order-lower %.2f dB", order, atten, prev)
		}
		prev = atten
	}
}

func TestButterworth_PassbandFlat(t *testing.T) {
	lp := chainDB(ButterworthLP(45, 4, eegRate), 10)
	hp := chainDB(ButterworthHP(0.5, 3, eegRate), 10)
	if math.Abs(lp) > 0.01 || math.Abs(hp) > 0.01 {
		t.Fatalf("10 Hz gain: LP %.4f dB, HP %.4f dB, want ~0", lp, hp)
	}
}

func TestButterworth_AllSectionsStable(t *testing.T) {
	for _, sr := range []float64{125, 250, 500, 1000} {
		for order := 1; order <= 8; order++ {
			for _, c := range append(ButterworthLP(0.36*sr, order, sr), ButterworthHP(0.5, order, sr)...) {
				if !c.Stable() {
					t.Fatalf("sr=%v order=%d: unstable section %+v", sr, order, c)
				}
			}
		}
	}
}

func TestButterworth_Deterministic(t *testing.T) {
	a := ButterworthLP(45, 4, eegRate)
	b := ButterworthLP(45, 4, eegRate)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("section %d differs between identical designs", i)
		}
	}
}

func TestButterworth_InvalidInput(t *testing.T) {
	if ButterworthLP(45, 0, eegRate) != nil {
		t.Fatal("order 0 should yield nil")
	}
	for _, c := range ButterworthLP(70, 2, eegRate) {
		if c != (biquad.Coefficients{}) {
			t.Fatalf("cutoff above Nyquist should yield zero coefficients, got %+v", c)
		}
	}
}
