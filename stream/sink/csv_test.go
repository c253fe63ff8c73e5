package sink

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cwbudde/eegstream/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wantHeader = "%OpenBCI Raw EXG Data\r\n" +
	"%Number of channels = 16\r\n" +
	"%Sample Rate = 125 Hz\r\n" +
	"%Board = OpenBCI_GUI$BoardCytonSerialDaisy\r\n" +
	"Sample Index," +
	"EXG Channel 0,EXG Channel 1,EXG Channel 2,EXG Channel 3," +
	"EXG Channel 4,EXG Channel 5,EXG Channel 6,EXG Channel 7," +
	"EXG Channel 8,EXG Channel 9,EXG Channel 10,EXG Channel 11," +
	"EXG Channel 12,EXG Channel 13,EXG Channel 14,EXG Channel 15," +
	"Accel Channel 0,Accel Channel 1,Accel Channel 2," +
	"Other,Other.1,Other.2,Other.3,Other.4,Other.5,Other.6," +
	"Analog Channel 0,Analog Channel 1,Analog Channel 2," +
	"Timestamp,Other.7,Timestamp (Formatted),Annotations\r\n"

func TestOpenBCICSVLayout(t *testing.T) {
	var buf bytes.Buffer
	s := NewOpenBCICSV(&buf, 16, 125)
	assert.Zero(t, buf.Len(), "header must be written lazily")

	channels := make([]float64, 16)
	for i := range channels {
		channels[i] = float64(i) + 0.5
	}
	at := time.Date(2024, 3, 1, 14, 5, 9, 123_000_000, time.UTC)
	require.NoError(t, s.Write([]stream.Record{
		{Index: 0, Time: at, Channels: channels, Marker: stream.T1},
		{Index: 1, Time: at.Add(8 * time.Millisecond), Channels: channels[:2]},
	}))
	require.NoError(t, s.Close())

	want := wantHeader +
		"0,0.5,1.5,2.5,3.5,4.5,5.5,6.5,7.5,8.5,9.5,10.5,11.5,12.5,13.5,14.5,15.5," +
		"0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,14:05:09.123,T1\r\n" +
		"1,0.5,1.5,0,0,0,0,0,0,0,0,0,0,0,0,0,0," +
		"0,0,0,0,0,0,0,0,0,0,0,0,0,1,0,14:05:09.131,\r\n"
	assert.Equal(t, want, buf.String())
}

func TestOpenBCICSVHeaderOnce(t *testing.T) {
	var buf bytes.Buffer
	s := NewOpenBCICSV(&buf, 16, 125)
	for i := range int64(3) {
		require.NoError(t, s.Write([]stream.Record{{Index: i}}))
	}
	assert.Equal(t, 1, strings.Count(buf.String(), "%OpenBCI Raw EXG Data"))
	assert.Equal(t, 8, strings.Count(buf.String(), "\n"))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestOpenBCICSVWriteError(t *testing.T) {
	s := NewOpenBCICSV(failingWriter{}, 16, 125)
	assert.Error(t, s.Write([]stream.Record{{Index: 0}}))
}

// flakyWriter refuses the first fails calls. A refused call accepts the
// first partial bytes before failing.
type flakyWriter struct {
	bytes.Buffer
	fails   int
	partial int
	calls   int
}

var errDiskFull = errors.New("disk full")

func (w *flakyWriter) Write(p []byte) (int, error) {
	w.calls++
	if w.fails > 0 {
		w.fails--
		n := min(w.partial, len(p))
		w.Buffer.Write(p[:n])
		return n, errDiskFull
	}
	return w.Buffer.Write(p)
}

func csvBatch(from, n int64) []stream.Record {
	out := make([]stream.Record, n)
	for i := range out {
		idx := from + int64(i)
		out[i] = stream.Record{Index: idx, Channels: []float64{float64(idx)}}
	}
	return out
}

func referenceCSV(t *testing.T, batches ...[]stream.Record) string {
	t.Helper()
	var buf bytes.Buffer
	s := NewOpenBCICSV(&buf, 16, 125)
	for _, b := range batches {
		require.NoError(t, s.Write(b))
	}
	return buf.String()
}

func TestOpenBCICSVRecoversAfterFailedWrite(t *testing.T) {
	tests := []struct {
		name    string
		partial int
	}{
		{"nothing written", 0},
		{"torn header", 40},
		{"torn row", len(wantHeader) + 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &flakyWriter{fails: 1, partial: tt.partial}
			s := NewOpenBCICSV(w, 16, 125)

			first := csvBatch(0, 2)
			assert.ErrorIs(t, s.Write(first), errDiskFull)

			// The recorder retries the failed rows together with new ones.
			retry := append(append([]stream.Record(nil), first...), csvBatch(2, 2)...)
			require.NoError(t, s.Write(retry))
			require.NoError(t, s.Write(csvBatch(4, 1)))

			assert.Equal(t, referenceCSV(t, csvBatch(0, 5)), w.String())
			assert.Equal(t, 1, strings.Count(w.String(), "%OpenBCI Raw EXG Data"))
		})
	}
}

func TestOpenBCICSVRepeatedFailuresThenRecovery(t *testing.T) {
	w := &flakyWriter{fails: 3, partial: 5}
	s := NewOpenBCICSV(w, 16, 125)

	batch := csvBatch(0, 2)
	for range 3 {
		assert.ErrorIs(t, s.Write(batch), errDiskFull)
	}
	require.NoError(t, s.Write(batch))
	assert.Equal(t, referenceCSV(t, batch), w.String())
}

func TestOpenBCICSVCloseFlushesPending(t *testing.T) {
	w := &flakyWriter{fails: 1, partial: 10}
	s := NewOpenBCICSV(w, 16, 125)

	assert.Error(t, s.Write(csvBatch(0, 3)))
	require.NoError(t, s.Close())
	assert.Equal(t, referenceCSV(t, csvBatch(0, 3)), w.String())
}

func TestOpenBCICSVShortWrite(t *testing.T) {
	w := &shortWriter{}
	s := NewOpenBCICSV(w, 16, 125)
	assert.ErrorIs(t, s.Write(csvBatch(0, 1)), io.ErrShortWrite)
	require.NoError(t, s.Write(csvBatch(0, 1)))
	assert.Equal(t, referenceCSV(t, csvBatch(0, 1)), w.String())
}

// shortWriter accepts half of its first write without reporting an error.
type shortWriter struct {
	bytes.Buffer
	done bool
}

func (w *shortWriter) Write(p []byte) (int, error) {
	if !w.done {
		w.done = true
		return w.Buffer.Write(p[:len(p)/2])
	}
	return w.Buffer.Write(p)
}

func TestCreateOpenBCICSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "P1_Ana", "P1_rest_20240301_140509.csv")
	s, err := CreateOpenBCICSV(path, 16, 125)
	require.NoError(t, err)
	require.NoError(t, s.Write([]stream.Record{{Index: 0}}))
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), wantHeader))
}
