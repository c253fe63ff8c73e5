package bandpass

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSpec is returned by New when the cutoff, sample rate or order
	// relationship cannot produce a stable bandpass.
	ErrInvalidSpec = errors.New("bandpass: invalid filter spec")

	// ErrInsufficientData reports that a batch was too short for zero-phase
	// filtering and was returned unfiltered.
	ErrInsufficientData = errors.New("bandpass: insufficient samples for zero-phase filtering")

	// ErrRaggedInput is returned when the channels of a streaming chunk do
	// not all hold the same number of samples.
	ErrRaggedInput = errors.New("bandpass: channels have different lengths")
)

// ChannelFault reports a channel that passed through unfiltered because its
// input or output was not finite.
type ChannelFault struct {
	Channel int
	Reason  string
}

func (e *ChannelFault) Error() string {
	return fmt.Sprintf("bandpass: channel %d passed through unfiltered: %s", e.Channel, e.Reason)
}
