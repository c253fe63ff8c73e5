package source

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/OpenPSG/edf"
	"github.com/cwbudde/eegstream/internal/testutil"
	"github.com/cwbudde/eegstream/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeEDF writes records × 10 samples of two signals: i and -i.
func writeEDF(t *testing.T, records int) *os.File {
	t.Helper()
	f, err := os.OpenFile(filepath.Join(t.TempDir(), "replay.edf"), os.O_RDWR|os.O_CREATE, 0o644)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })

	sig := edf.SignalHeader{
		PhysicalDimension: "uV",
		PhysicalMin:       -1000,
		PhysicalMax:       1000,
		DigitalMin:        -32768,
		DigitalMax:        32767,
		SamplesPerRecord:  10,
	}
	a, b := sig, sig
	a.Label, b.Label = "EXG Channel 0", "EXG Channel 1"

	w, err := edf.Create(f, edf.Header{
		Version:            edf.Version0,
		StartTime:          time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		DataRecordDuration: time.Second,
		SignalCount:        2,
		Signals:            []edf.SignalHeader{a, b},
	})
	require.NoError(t, err)

	for r := range records {
		pos, neg := make([]float64, 10), make([]float64, 10)
		for i := range pos {
			pos[i] = float64(r*10 + i)
			neg[i] = -pos[i]
		}
		require.NoError(t, w.WriteRecord([][]float64{pos, neg}))
	}
	require.NoError(t, w.Close())
	return f
}

func TestEDFReplayPlaysEverySample(t *testing.T) {
	f := writeEDF(t, 30)
	p, err := NewEDFReplay(f, ReplayConfig{SampleRate: 10, Logger: testutil.DiscardLogger()})
	require.NoError(t, err)
	assert.Equal(t, 2, p.Channels())

	var mu sync.Mutex
	var got []stream.Sample
	p.OnSample(func(s stream.Sample) {
		mu.Lock()
		got = append(got, s)
		mu.Unlock()
	})

	require.NoError(t, p.Start(context.Background()))
	select {
	case <-p.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("replay did not finish")
	}
	require.NoError(t, p.Err())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 300)
	for i, s := range got {
		assert.InDelta(t, float64(i), s[0], 0.1)
		assert.InDelta(t, -float64(i), s[1], 0.1)
	}
	assert.Equal(t, int64(300), p.Stats().Samples)
	assert.Len(t, p.Latest(DefaultHistorySize), 300)
}

func TestEDFReplayChannelLimitAndStop(t *testing.T) {
	f := writeEDF(t, 5)
	p, err := NewEDFReplay(f, ReplayConfig{SampleRate: 10, Channels: 1, Realtime: true, Logger: testutil.DiscardLogger()})
	require.NoError(t, err)
	assert.Equal(t, 1, p.Channels())

	require.NoError(t, p.Start(context.Background()))
	time.Sleep(250 * time.Millisecond)
	require.NoError(t, p.Stop())

	n := p.Stats().Samples
	assert.Greater(t, n, int64(0))
	assert.Less(t, n, int64(50), "realtime replay at 10 Hz ran too fast")
	for _, s := range p.Latest(10) {
		assert.Len(t, s, 1)
	}
}
