// Package bandpass implements the EEG bandpass filter: a Butterworth
// high-pass cascade followed by a Butterworth low-pass cascade.
//
// Splitting the band into two lower-order cascades instead of designing a
// single high-order bandpass keeps the coefficients well conditioned. The
// low-pass edge sits a configurable margin below the nominal high cutoff so
// the nominal cutoff itself is already well into the stop band.
//
// Two processing paths are offered:
//
//   - [Bandpass.ApplyBatch] filters whole recordings forward and backward
//     (zero phase, non-causal).
//   - [Bandpass.ApplyRealtime] and [Bandpass.ApplyRealtimeChunk] filter a
//     live stream causally. The delay lines persist between calls in a
//     [State], so consecutive calls form one continuous output stream.
//
// Numeric faults are isolated per channel: a channel whose input or output
// is not finite passes through unfiltered and is reported as a
// [*ChannelFault], while the other channels are filtered normally.
package bandpass
