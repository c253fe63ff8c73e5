package sink

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/OpenPSG/edf"
	"github.com/cwbudde/eegstream/stream"
)

// EDF data records hold at most 61440 bytes of 16-bit samples.
const maxRecordBytes = 61440

// EDFConfig describes the recording written by an EDF sink.
type EDFConfig struct {
	PatientID   string
	RecordingID string
	Channels    int
	SampleRate  float64
	// RecordDuration defaults to one second.
	RecordDuration time.Duration
	// PhysicalMin and PhysicalMax bound the stored range in µV; values
	// outside are clipped. They default to ±8000 µV.
	PhysicalMin float64
	PhysicalMax float64
	// Prefiltering is stored in every signal header, e.g. "HP:0.5Hz LP:45Hz".
	Prefiltering string
}

func (c *EDFConfig) normalize() error {
	if c.Channels <= 0 {
		c.Channels = stream.DefaultChannels
	}
	if c.SampleRate <= 0 {
		c.SampleRate = stream.DefaultSampleRate
	}
	if c.RecordDuration <= 0 {
		c.RecordDuration = time.Second
	}
	if c.RecordDuration%time.Second != 0 {
		return fmt.Errorf("sink: edf record duration %v is not a whole number of seconds", c.RecordDuration)
	}
	if c.PhysicalMin == 0 && c.PhysicalMax == 0 {
		c.PhysicalMin, c.PhysicalMax = -8000, 8000
	}
	if c.PhysicalMin >= c.PhysicalMax {
		return fmt.Errorf("sink: edf physical range [%v, %v] is empty", c.PhysicalMin, c.PhysicalMax)
	}

	perRecord := c.samplesPerRecord()
	if perRecord < 1 {
		return fmt.Errorf("sink: edf record of %v holds no samples at %v Hz", c.RecordDuration, c.SampleRate)
	}
	if perRecord*c.Channels*2 > maxRecordBytes {
		return fmt.Errorf("sink: edf record of %d×%d samples exceeds %d bytes", c.Channels, perRecord, maxRecordBytes)
	}
	return nil
}

func (c *EDFConfig) samplesPerRecord() int {
	return int(math.Round(c.SampleRate * c.RecordDuration.Seconds()))
}

// EDF groups records into fixed-duration EDF data records. The file header
// is written with the first batch, using that batch's first timestamp as the
// start time, and finalised on Close. Markers are not stored.
type EDF struct {
	w      io.WriteSeeker
	closer io.Closer
	cfg    EDFConfig

	writer  *edf.Writer
	pending [][]float64
	err     error
}

// NewEDF writes to w. If w is an io.Closer, Close closes it.
func NewEDF(w io.WriteSeeker, cfg EDFConfig) (*EDF, error) {
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	s := &EDF{
		w:       w,
		cfg:     cfg,
		pending: make([][]float64, cfg.Channels),
	}
	if c, ok := w.(io.Closer); ok {
		s.closer = c
	}
	return s, nil
}

// CreateEDF creates path (and its directory) and returns a sink writing to
// it.
func CreateEDF(path string, cfg EDFConfig) (*EDF, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("sink: create recording dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("sink: create edf: %w", err)
	}
	s, err := NewEDF(f, cfg)
	if err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

// Write buffers the batch and writes every complete data record. A failed
// record write leaves the file unusable; the error is returned from this
// and every later call.
func (s *EDF) Write(batch []stream.Record) error {
	if s.err != nil {
		return s.err
	}
	if len(batch) == 0 {
		return nil
	}

	if s.writer == nil {
		w, err := edf.Create(s.w, s.header(batch[0].Time))
		if err != nil {
			return fmt.Errorf("sink: edf header: %w", err)
		}
		s.writer = w
	}

	for _, rec := range batch {
		for ch, v := range stream.Fit(rec.Channels, s.cfg.Channels) {
			s.pending[ch] = append(s.pending[ch], s.clip(v))
		}
	}

	perRecord := s.cfg.samplesPerRecord()
	for len(s.pending[0]) >= perRecord {
		record := make([][]float64, s.cfg.Channels)
		for ch := range record {
			record[ch] = s.pending[ch][:perRecord]
		}
		if err := s.writer.WriteRecord(record); err != nil {
			s.err = fmt.Errorf("sink: edf record: %w", err)
			return s.err
		}
		for ch := range s.pending {
			s.pending[ch] = s.pending[ch][perRecord:]
		}
	}
	return nil
}

// Close zero-pads and writes a trailing partial record, rewrites the header
// with the final record count and closes the underlying writer.
func (s *EDF) Close() error {
	var errs []error
	if s.writer != nil && s.err == nil {
		if n := len(s.pending[0]); n > 0 {
			record := make([][]float64, s.cfg.Channels)
			for ch := range record {
				record[ch] = make([]float64, s.cfg.samplesPerRecord())
				copy(record[ch], s.pending[ch])
			}
			if err := s.writer.WriteRecord(record); err != nil {
				errs = append(errs, fmt.Errorf("sink: edf record: %w", err))
			}
		}
		if err := s.writer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("sink: edf close: %w", err))
		}
	}
	if s.closer != nil {
		errs = append(errs, s.closer.Close())
	}
	return errors.Join(errs...)
}

func (s *EDF) header(start time.Time) edf.Header {
	if start.IsZero() {
		start = time.Now()
	}
	signals := make([]edf.SignalHeader, s.cfg.Channels)
	for ch := range signals {
		signals[ch] = edf.SignalHeader{
			Label:             fmt.Sprintf("EXG Channel %d", ch),
			TransducerType:    "AgAgCl electrode",
			PhysicalDimension: "uV",
			PhysicalMin:       s.cfg.PhysicalMin,
			PhysicalMax:       s.cfg.PhysicalMax,
			DigitalMin:        math.MinInt16,
			DigitalMax:        math.MaxInt16,
			Prefiltering:      s.cfg.Prefiltering,
			SamplesPerRecord:  s.cfg.samplesPerRecord(),
		}
	}
	return edf.Header{
		Version:            edf.Version0,
		PatientID:          s.cfg.PatientID,
		RecordingID:        s.cfg.RecordingID,
		StartTime:          start,
		DataRecordDuration: s.cfg.RecordDuration,
		SignalCount:        s.cfg.Channels,
		Signals:            signals,
	}
}

func (s *EDF) clip(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return min(max(v, s.cfg.PhysicalMin), s.cfg.PhysicalMax)
}
