// Package design provides digital IIR filter coefficient designers for the
// EEG bandpass.
//
// Butterworth low-pass and high-pass cascades are assembled from RBJ
// biquads whose quality factors follow the Butterworth pole angles, plus a
// bilinear first-order section for odd orders. The results are consumed by
// dsp/filter/biquad for runtime processing.
package design
