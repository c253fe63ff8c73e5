// Package biquad provides second-order IIR section runtime primitives for
// streaming EEG filtering.
//
// A [Section] implements Direct Form II Transposed processing for a single
// second-order (or first-order, B2=A2=0) section defined by [Coefficients].
// Sections are cascaded via [Chain]. The delay line of every section can be
// snapshotted, restored and settled to the steady state of a constant input,
// which is what zero-phase filtering needs for its initial conditions.
//
// Coefficient design lives in dsp/filter/design.
package biquad
