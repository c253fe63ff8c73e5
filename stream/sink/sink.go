// Package sink persists record batches for the recorder: OpenBCI-compatible
// CSV, EDF, a callback for in-process consumers, and fan-out.
//
// When a write fails the recorder retries the whole batch. Multi and
// OpenBCICSV track the highest Record.Index they accepted and skip those
// records on the retry; a Func sink sees the retried records again.
package sink

import (
	"errors"
	"fmt"

	"github.com/cwbudde/eegstream/stream"
)

// Func adapts a function to the recorder's sink interface. Close is a no-op.
type Func func(batch []stream.Record) error

// Write calls f.
func (f Func) Write(batch []stream.Record) error { return f(batch) }

// Close does nothing.
func (Func) Close() error { return nil }

// Sink is the interface every sink in this package implements.
type Sink interface {
	Write(batch []stream.Record) error
	Close() error
}

// Multi writes each batch to every child in order. It remembers the highest
// Record.Index each child accepted, so when the recorder retries a batch
// after one child failed, the others only receive records they have not
// seen. Record indexes must increase.
type Multi struct {
	children []*child
}

type child struct {
	sink  Sink
	wrote bool
	last  int64
}

// NewMulti returns a fan-out over sinks.
func NewMulti(sinks ...Sink) *Multi {
	m := &Multi{}
	for _, s := range sinks {
		m.Add(s)
	}
	return m
}

// Add appends a child.
func (m *Multi) Add(s Sink) {
	m.children = append(m.children, &child{sink: s})
}

// Len returns the number of children.
func (m *Multi) Len() int { return len(m.children) }

// Write fails if any child fails; every child still sees the records it has
// not accepted yet.
func (m *Multi) Write(batch []stream.Record) error {
	var errs []error
	for i, c := range m.children {
		fresh := c.unseen(batch)
		if len(fresh) == 0 {
			continue
		}
		if err := c.sink.Write(fresh); err != nil {
			errs = append(errs, fmt.Errorf("sink %d: %w", i, err))
			continue
		}
		c.wrote, c.last = true, fresh[len(fresh)-1].Index
	}
	return errors.Join(errs...)
}

// Close closes every child.
func (m *Multi) Close() error {
	var errs []error
	for i, c := range m.children {
		if err := c.sink.Close(); err != nil {
			errs = append(errs, fmt.Errorf("sink %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

func (c *child) unseen(batch []stream.Record) []stream.Record {
	if !c.wrote {
		return batch
	}
	for i, rec := range batch {
		if rec.Index > c.last {
			return batch[i:]
		}
	}
	return nil
}
