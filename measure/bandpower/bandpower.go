// Package bandpower estimates the power of an EEG channel in the classic
// frequency bands from a windowed FFT.
package bandpower

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-vecmath"
	"github.com/cwbudde/eegstream/dsp/core"
	"github.com/cwbudde/eegstream/dsp/window"
	algofft "github.com/MeKo-Christian/algo-fft"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrTooShort is returned for signals with fewer than two samples.
var ErrTooShort = errors.New("bandpower: signal too short")

// Band is a named frequency range [LowHz, HighHz).
type Band struct {
	Name   string
	LowHz  float64
	HighHz float64
}

// DefaultBands returns the delta, theta, mu, beta and gamma bands, capped at
// the 45 Hz effective upper edge of the acquisition filter.
func DefaultBands() []Band {
	return []Band{
		{Name: "delta", LowHz: 0.5, HighHz: 4},
		{Name: "theta", LowHz: 4, HighHz: 8},
		{Name: "mu", LowHz: 8, HighHz: 13},
		{Name: "beta", LowHz: 13, HighHz: 30},
		{Name: "gamma", LowHz: 30, HighHz: 45},
	}
}

// Config holds analysis parameters.
type Config struct {
	SampleRate float64
	// FFTSize defaults to the next power of two >= len(signal).
	FFTSize int
	// Window defaults to Hann.
	Window window.Type
	// Bands defaults to DefaultBands.
	Bands []Band
}

// BandPower is the absolute and relative power of one band.
type BandPower struct {
	Band
	Power    float64
	Relative float64
	PowerDB  float64
}

// Result holds one analysis.
type Result struct {
	BinHz float64
	// Total is the power between DC (exclusive) and Nyquist.
	Total float64
	Bands []BandPower
}

// Band looks a band result up by name.
func (r Result) Band(name string) (BandPower, bool) {
	for _, b := range r.Bands {
		if b.Name == name {
			return b, true
		}
	}
	return BandPower{}, false
}

// Analyzer computes band power for a fixed configuration and reuses its FFT
// plan across calls. It is not safe for concurrent use.
type Analyzer struct {
	cfg  Config
	plan *algofft.Plan[complex128]
	x    []float64
	win  []float64
	in   []complex128
	out  []complex128
	re   []float64
	im   []float64
	psd  []float64
}

// NewAnalyzer prepares an analyzer for signals of length n.
func NewAnalyzer(n int, cfg Config) (*Analyzer, error) {
	if n < 2 {
		return nil, ErrTooShort
	}
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("bandpower: sample rate must be > 0: %v", cfg.SampleRate)
	}
	if cfg.FFTSize < n {
		cfg.FFTSize = nextPowerOf2(n)
	}
	if cfg.Window == window.TypeRectangular {
		cfg.Window = window.TypeHann
	}
	if len(cfg.Bands) == 0 {
		cfg.Bands = DefaultBands()
	}

	plan, err := algofft.NewPlan64(cfg.FFTSize)
	if err != nil {
		return nil, fmt.Errorf("bandpower: fft plan: %w", err)
	}

	bins := cfg.FFTSize/2 + 1
	return &Analyzer{
		cfg:  cfg,
		plan: plan,
		in:   make([]complex128, cfg.FFTSize),
		out:  make([]complex128, cfg.FFTSize),
		re:   make([]float64, bins),
		im:   make([]float64, bins),
		psd:  make([]float64, bins),
	}, nil
}

// Analyze is a one-shot band power analysis of signal.
func Analyze(signal []float64, cfg Config) (Result, error) {
	a, err := NewAnalyzer(len(signal), cfg)
	if err != nil {
		return Result{}, err
	}
	return a.Analyze(signal)
}

// Analyze removes the mean of signal, windows it and integrates the one-sided
// power spectral density over each band. Signals longer than the analyzer's
// FFT size are truncated.
func (a *Analyzer) Analyze(signal []float64) (Result, error) {
	if len(signal) < 2 {
		return Result{}, ErrTooShort
	}

	n := min(len(signal), a.cfg.FFTSize)
	a.x = core.EnsureLen(a.x, n)
	x := a.x
	copy(x, signal)
	floats.AddConst(-stat.Mean(x, nil), x)

	if len(a.win) != n {
		a.win = window.Generate(a.cfg.Window, n)
	}
	w := a.win
	vecmath.MulBlockInPlace(x, w)

	clear(a.in)
	for i, v := range x {
		a.in[i] = complex(v, 0)
	}
	if err := a.plan.Forward(a.out, a.in); err != nil {
		return Result{}, fmt.Errorf("bandpower: fft: %w", err)
	}

	for i := range a.re {
		a.re[i] = real(a.out[i])
		a.im[i] = imag(a.out[i])
	}
	vecmath.Power(a.psd, a.re, a.im)

	// One-sided density: fold the negative frequencies onto the positive
	// bins, DC and Nyquist excepted.
	sr := a.cfg.SampleRate
	vecmath.ScaleBlock(a.psd, a.psd, 2/(sr*floats.Dot(w, w)))
	a.psd[0] /= 2
	if a.cfg.FFTSize%2 == 0 {
		a.psd[len(a.psd)-1] /= 2
	}

	binHz := sr / float64(a.cfg.FFTSize)
	res := Result{
		BinHz: binHz,
		Total: floats.Sum(a.psd[1:]) * binHz,
		Bands: make([]BandPower, len(a.cfg.Bands)),
	}

	for i, b := range a.cfg.Bands {
		p := a.integrate(b, binHz)
		bp := BandPower{Band: b, Power: p, PowerDB: core.LinearPowerToDB(p)}
		if res.Total > 0 {
			bp.Relative = p / res.Total
		}
		res.Bands[i] = bp
	}

	return res, nil
}

func (a *Analyzer) integrate(b Band, binHz float64) float64 {
	lo := max(1, int(b.LowHz/binHz+0.5))
	hi := min(len(a.psd), int(b.HighHz/binHz+0.5))
	if hi <= lo {
		return 0
	}
	return floats.Sum(a.psd[lo:hi]) * binHz
}

func nextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
