package bandpass

import "github.com/cwbudde/eegstream/dsp/filter/biquad"

// State holds the per-channel delay lines of both cascades. It is sized for
// a fixed channel count and must not be shared between streams.
type State struct {
	channels []channelState
}

type channelState struct {
	highpass *biquad.Chain
	lowpass  *biquad.Chain
}

// NewState returns zeroed delay lines for the given channel count.
func (f *Bandpass) NewState(channels int) *State {
	st := &State{channels: make([]channelState, channels)}
	for i := range st.channels {
		st.channels[i] = channelState{
			highpass: biquad.NewChain(f.highpass),
			lowpass:  biquad.NewChain(f.lowpass),
		}
	}

	return st
}

// Channels returns the channel count the state was built for.
func (s *State) Channels() int { return len(s.channels) }

// Clone returns an independent copy of the delay lines.
func (s *State) Clone() *State {
	out := &State{channels: make([]channelState, len(s.channels))}
	for i, cs := range s.channels {
		out.channels[i] = channelState{
			highpass: cs.highpass.Clone(),
			lowpass:  cs.lowpass.Clone(),
		}
	}

	return out
}

// Zeroed reports whether every delay line is exactly zero.
func (s *State) Zeroed() bool {
	for _, cs := range s.channels {
		for _, chain := range []*biquad.Chain{cs.highpass, cs.lowpass} {
			for _, st := range chain.State() {
				if st != [2]float64{} {
					return false
				}
			}
		}
	}

	return true
}

func (cs *channelState) reset() {
	cs.highpass.Reset()
	cs.lowpass.Reset()
}
