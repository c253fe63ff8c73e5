package sink

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cwbudde/eegstream/stream"
)

// Column counts of the OpenBCI GUI export that are not EXG channels.
const (
	accelColumns  = 3
	otherColumns  = 7
	analogColumns = 3
)

// OpenBCICSV writes records in the OpenBCI GUI "Raw EXG Data" layout. The
// header is written with the first batch.
//
// Each batch is encoded in memory and handed to the underlying writer in one
// Write. Bytes the writer did not accept are kept and sent first on the next
// call, and rows up to the highest Index already handed over are skipped, so
// a batch retried after a failure is neither lost nor duplicated. Record
// indexes must increase.
type OpenBCICSV struct {
	w          io.Writer
	closer     io.Closer
	channels   int
	sampleRate float64

	buf     bytes.Buffer
	csv     *csv.Writer
	pending []byte
	header  bool
	wrote   bool
	last    int64
}

// NewOpenBCICSV writes to w. If w is an io.Closer, Close closes it.
func NewOpenBCICSV(w io.Writer, channels int, sampleRate float64) *OpenBCICSV {
	s := &OpenBCICSV{
		w:          w,
		channels:   channels,
		sampleRate: sampleRate,
	}
	s.csv = csv.NewWriter(&s.buf)
	s.csv.UseCRLF = true
	if c, ok := w.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// CreateOpenBCICSV creates path (and its directory) and returns a sink
// writing to it.
func CreateOpenBCICSV(path string, channels int, sampleRate float64) (*OpenBCICSV, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("sink: create recording dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("sink: create csv: %w", err)
	}
	return NewOpenBCICSV(f, channels, sampleRate), nil
}

// Write appends one row per record not yet written.
func (s *OpenBCICSV) Write(batch []stream.Record) error {
	s.buf.Reset()
	s.buf.Write(s.pending)

	if !s.header {
		if err := s.writeHeader(); err != nil {
			return err
		}
	}

	row := make([]string, 0, s.columns())
	last, wrote := s.last, s.wrote
	for _, rec := range batch {
		if wrote && rec.Index <= last {
			continue
		}
		row = s.appendRow(row[:0], rec)
		if err := s.csv.Write(row); err != nil {
			return fmt.Errorf("sink: csv row %d: %w", rec.Index, err)
		}
		last, wrote = rec.Index, true
	}
	s.csv.Flush()
	if err := s.csv.Error(); err != nil {
		return fmt.Errorf("sink: csv: %w", err)
	}

	// From here on the rows count as handed over: whatever the writer
	// refuses stays pending and goes out ahead of the next batch.
	s.header = true
	s.last, s.wrote = last, wrote
	return s.flush()
}

// Close writes any pending bytes and closes the underlying writer.
func (s *OpenBCICSV) Close() error {
	err := s.flush()
	if s.closer != nil {
		if cerr := s.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// flush hands the encoded buffer, or the pending tail when the buffer is
// empty, to the underlying writer.
func (s *OpenBCICSV) flush() error {
	out := s.buf.Bytes()
	if len(out) == 0 {
		out = s.pending
	}
	s.buf.Reset()
	if len(out) == 0 {
		return nil
	}

	n, err := s.w.Write(out)
	if err == nil && n < len(out) {
		err = io.ErrShortWrite
	}
	if err != nil {
		s.pending = append(s.pending[:0:0], out[n:]...)
		return fmt.Errorf("sink: csv: %w", err)
	}
	s.pending = nil
	return nil
}

func (s *OpenBCICSV) columns() int {
	return 1 + s.channels + accelColumns + otherColumns + analogColumns + 4
}

func (s *OpenBCICSV) writeHeader() error {
	preamble := []string{
		"%OpenBCI Raw EXG Data",
		fmt.Sprintf("%%Number of channels = %d", s.channels),
		fmt.Sprintf("%%Sample Rate = %s Hz", strconv.FormatFloat(s.sampleRate, 'f', -1, 64)),
		"%Board = OpenBCI_GUI$BoardCytonSerialDaisy",
	}
	for _, line := range preamble {
		if err := s.csv.Write([]string{line}); err != nil {
			return fmt.Errorf("sink: csv header: %w", err)
		}
	}

	cols := make([]string, 0, s.columns())
	cols = append(cols, "Sample Index")
	for i := range s.channels {
		cols = append(cols, fmt.Sprintf("EXG Channel %d", i))
	}
	for i := range accelColumns {
		cols = append(cols, fmt.Sprintf("Accel Channel %d", i))
	}
	cols = append(cols, "Other")
	for i := 1; i < otherColumns; i++ {
		cols = append(cols, fmt.Sprintf("Other.%d", i))
	}
	for i := range analogColumns {
		cols = append(cols, fmt.Sprintf("Analog Channel %d", i))
	}
	cols = append(cols, "Timestamp", fmt.Sprintf("Other.%d", otherColumns), "Timestamp (Formatted)", "Annotations")

	if err := s.csv.Write(cols); err != nil {
		return fmt.Errorf("sink: csv header: %w", err)
	}
	return nil
}

func (s *OpenBCICSV) appendRow(row []string, rec stream.Record) []string {
	idx := strconv.FormatInt(rec.Index, 10)
	row = append(row, idx)
	for _, v := range stream.Fit(rec.Channels, s.channels) {
		row = append(row, strconv.FormatFloat(v, 'f', -1, 64))
	}
	for range accelColumns + otherColumns + analogColumns {
		row = append(row, "0")
	}

	formatted := "0"
	if !rec.Time.IsZero() {
		formatted = rec.Time.Format("15:04:05.000")
	}
	return append(row, idx, "0", formatted, string(rec.Marker))
}
