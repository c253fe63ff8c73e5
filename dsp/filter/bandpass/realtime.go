package bandpass

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/cwbudde/eegstream/dsp/core"
)

// ApplyRealtime filters one multi-channel sample causally, advancing the
// filter's own streaming state. The state is created on the first call (or
// the first call after Reset) and rebuilt from zero, with a warning, if the
// channel count changes.
//
// The output is always usable; a non-nil error joins one *ChannelFault per
// channel that passed through raw.
func (f *Bandpass) ApplyRealtime(sample []float64) ([]float64, error) {
	return f.Step(f.streamState(len(sample)), sample)
}

// ApplyRealtimeChunk filters a channel × samples chunk.
//
// Chunks shorter than MinBatchSamples always run causally through the
// streaming state. Longer chunks also run causally unless the filter was
// built WithZeroPhaseChunks, in which case they go through ApplyBatch and the
// streaming state is left untouched. Causal filtering introduces the phase
// delay of the cascades.
func (f *Bandpass) ApplyRealtimeChunk(chunk [][]float64) ([][]float64, error) {
	if len(chunk) == 0 {
		return nil, nil
	}

	n := len(chunk[0])
	for ch, row := range chunk {
		if len(row) != n {
			return nil, fmt.Errorf("%w: channel %d has %d samples, channel 0 has %d", ErrRaggedInput, ch, len(row), n)
		}
	}

	if f.zeroPhaseChunks && n >= f.MinBatchSamples() {
		return f.ApplyBatch(chunk)
	}

	st := f.streamState(len(chunk))
	out := make([][]float64, len(chunk))
	var faults []error
	for ch, row := range chunk {
		y, err := f.stepBlock(&st.channels[ch], ch, row)
		if err != nil {
			faults = append(faults, err)
		}
		out[ch] = y
	}

	return out, errors.Join(faults...)
}

// Step is the explicit-state form of ApplyRealtime: it filters one sample
// through st and advances st. It lets a caller run several independent
// streams through one Bandpass.
func (f *Bandpass) Step(st *State, sample []float64) ([]float64, error) {
	if st.Channels() != len(sample) {
		return nil, fmt.Errorf("bandpass: state has %d channels, sample has %d", st.Channels(), len(sample))
	}

	out := make([]float64, len(sample))
	var faults []error
	for ch, x := range sample {
		y, err := f.stepSample(&st.channels[ch], ch, x)
		if err != nil {
			faults = append(faults, err)
		}
		out[ch] = y
	}

	return out, errors.Join(faults...)
}

func (f *Bandpass) streamState(channels int) *State {
	if f.state != nil && f.state.Channels() != channels {
		f.warn("channel count changed, resetting filter state",
			slog.Int("was", f.state.Channels()), slog.Int("now", channels))
		f.state = nil
	}
	if f.state == nil {
		f.state = f.NewState(channels)
	}

	return f.state
}

func (f *Bandpass) stepSample(cs *channelState, ch int, x float64) (float64, error) {
	if !core.IsFinite(x) {
		return x, f.fault(ch, "non-finite input")
	}

	y := cs.lowpass.ProcessSample(cs.highpass.ProcessSample(x))
	if !core.IsFinite(y) {
		cs.reset()
		return x, f.fault(ch, "non-finite output")
	}

	return y, nil
}

func (f *Bandpass) stepBlock(cs *channelState, ch int, row []float64) ([]float64, error) {
	if !core.AllFinite(row) {
		return slices.Clone(row), f.fault(ch, "non-finite input")
	}

	y := slices.Clone(row)
	cs.highpass.ProcessBlock(y)
	cs.lowpass.ProcessBlock(y)

	if !core.AllFinite(y) {
		cs.reset()
		return slices.Clone(row), f.fault(ch, "non-finite output")
	}

	return y, nil
}

func (f *Bandpass) fault(ch int, reason string) error {
	err := &ChannelFault{Channel: ch, Reason: reason}
	f.warn("channel passed through unfiltered", slog.Int("channel", ch), slog.String("reason", reason))
	return err
}
