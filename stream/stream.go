// Package stream defines the values that flow from a sample source through
// the filter and annotator into a recorder.
package stream

import (
	"strings"
	"time"

	"github.com/cwbudde/eegstream/dsp/core"
)

// Headset defaults for an OpenBCI Cyton + Daisy board.
const (
	DefaultChannels   = 16
	DefaultSampleRate = 125.0
)

// Sample is one reading per channel, in channel order.
type Sample []float64

// Fit returns a copy of values zero-padded or truncated to c channels.
func Fit(values []float64, c int) Sample {
	return Sample(core.Fit(values, c))
}

// Marker annotates a record with an experiment event.
type Marker string

const (
	MarkerNone Marker = ""
	// T0 marks rest, emitted explicitly or automatically after a countdown.
	T0 Marker = "T0"
	// T1 and T2 mark the two motor-imagery tasks.
	T1 Marker = "T1"
	T2 Marker = "T2"
)

// Valid reports whether m is one of T0, T1 or T2.
func (m Marker) Valid() bool {
	switch m {
	case T0, T1, T2:
		return true
	}
	return false
}

// ParseMarker accepts marker names case-insensitively ("t1" → T1).
func ParseMarker(s string) (Marker, bool) {
	m := Marker(strings.ToUpper(strings.TrimSpace(s)))
	return m, m.Valid()
}

// Record is a filtered sample as persisted by a sink.
type Record struct {
	// Index counts accepted samples from zero within a session.
	Index    int64
	Time     time.Time
	Channels []float64
	Marker   Marker
}
