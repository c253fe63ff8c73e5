package bandpass

import (
	"errors"
	"log/slog"
	"slices"

	"github.com/cwbudde/eegstream/dsp/core"
	"github.com/cwbudde/eegstream/dsp/filter/biquad"
)

// ApplyBatch filters every channel (row) of data forward and backward, so
// the output has no group delay and the same shape as the input.
//
// The returned matrix is always usable. A non-nil error only reports
// degradation: ErrInsufficientData when any channel is shorter than
// MinBatchSamples (the whole input is then returned unfiltered), or one
// *ChannelFault per channel that was passed through raw. data is not
// modified.
func (f *Bandpass) ApplyBatch(data [][]float64) ([][]float64, error) {
	minLen := f.MinBatchSamples()
	for _, row := range data {
		if len(row) < minLen {
			f.warn("insufficient samples for zero-phase filtering",
				slog.Int("samples", len(row)), slog.Int("min", minLen))
			return core.CloneMatrix(data), ErrInsufficientData
		}
	}

	out := make([][]float64, len(data))
	var faults []error
	for ch, row := range data {
		y, err := f.filtfiltChannel(ch, row)
		if err != nil {
			f.warn("channel passed through unfiltered", slog.Int("channel", ch), slog.Any("err", err))
			faults = append(faults, err)
		}
		out[ch] = y
	}

	return out, errors.Join(faults...)
}

// ApplyBatch1 is ApplyBatch for a single channel.
func (f *Bandpass) ApplyBatch1(x []float64) ([]float64, error) {
	out, err := f.ApplyBatch([][]float64{x})
	return out[0], err
}

func (f *Bandpass) filtfiltChannel(ch int, x []float64) ([]float64, error) {
	if !core.AllFinite(x) {
		return slices.Clone(x), &ChannelFault{Channel: ch, Reason: "non-finite input"}
	}

	y := filtfilt(f.highpass, x)
	y = filtfilt(f.lowpass, y)

	if !core.AllFinite(y) {
		return slices.Clone(x), &ChannelFault{Channel: ch, Reason: "non-finite output"}
	}

	return y, nil
}

// filtfilt runs the cascade forward and backward over x. The signal is
// extended at both ends by odd reflection and each pass starts from the
// steady state of its first sample, which suppresses edge transients.
func filtfilt(coeffs []biquad.Coefficients, x []float64) []float64 {
	n := len(x)
	if n == 0 {
		return nil
	}

	order := biquad.NewChain(coeffs).Order()
	padlen := min(3*(order+1), n-1)

	ext := make([]float64, n+2*padlen)
	for i := 0; i < padlen; i++ {
		ext[i] = 2*x[0] - x[padlen-i]
		ext[padlen+n+i] = 2*x[n-1] - x[n-2-i]
	}
	copy(ext[padlen:], x)

	chain := biquad.NewChain(coeffs)
	chain.Settle(ext[0])
	chain.ProcessBlock(ext)

	slices.Reverse(ext)
	chain.Reset()
	chain.Settle(ext[0])
	chain.ProcessBlock(ext)
	slices.Reverse(ext)

	return ext[padlen : padlen+n]
}
