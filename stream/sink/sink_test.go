package sink

import (
	"errors"
	"testing"
	"time"

	"github.com/cwbudde/eegstream/stream"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiFansOut(t *testing.T) {
	var a, b []stream.Record
	m := NewMulti(
		Func(func(batch []stream.Record) error { a = append(a, batch...); return nil }),
		Func(func(batch []stream.Record) error { b = append(b, batch...); return nil }),
	)
	require.Equal(t, 2, m.Len())

	batch := []stream.Record{{Index: 1, Marker: stream.T2}, {Index: 2}}
	require.NoError(t, m.Write(batch))
	require.NoError(t, m.Close())

	if diff := cmp.Diff(batch, a); diff != "" {
		t.Errorf("first child (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(batch, b); diff != "" {
		t.Errorf("second child (-want +got):\n%s", diff)
	}
}

func TestMultiReportsChildFailure(t *testing.T) {
	errBoom := errors.New("boom")
	var delivered int
	m := NewMulti(
		Func(func([]stream.Record) error { return errBoom }),
		Func(func(batch []stream.Record) error { delivered += len(batch); return nil }),
	)

	err := m.Write([]stream.Record{{Index: 1}})
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 1, delivered, "healthy child still receives the batch")
}

func TestMultiRetriesOnlyFailedChild(t *testing.T) {
	var healthy, flaky []stream.Record
	fails := 3
	m := NewMulti(
		Func(func(batch []stream.Record) error { healthy = append(healthy, batch...); return nil }),
		Func(func(batch []stream.Record) error {
			if fails > 0 {
				fails--
				return errors.New("disk full")
			}
			flaky = append(flaky, batch...)
			return nil
		}),
	)

	batch := []stream.Record{{Index: 0}, {Index: 1}}
	for range 3 {
		assert.Error(t, m.Write(batch))
	}
	require.NoError(t, m.Write(batch))

	if diff := cmp.Diff(batch, healthy); diff != "" {
		t.Errorf("healthy child got duplicates (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(batch, flaky); diff != "" {
		t.Errorf("recovered child (-want +got):\n%s", diff)
	}
}

func TestMultiRetryWithNewRecords(t *testing.T) {
	var healthy, flaky []stream.Record
	failNext := true
	m := NewMulti(
		Func(func(batch []stream.Record) error { healthy = append(healthy, batch...); return nil }),
		Func(func(batch []stream.Record) error {
			if failNext {
				failNext = false
				return errors.New("disk full")
			}
			flaky = append(flaky, batch...)
			return nil
		}),
	)

	assert.Error(t, m.Write([]stream.Record{{Index: 0}, {Index: 1}}))
	// The recorder prepends the failed batch to records accepted meanwhile.
	require.NoError(t, m.Write([]stream.Record{{Index: 0}, {Index: 1}, {Index: 2}}))
	require.NoError(t, m.Write([]stream.Record{{Index: 2}}))

	want := []stream.Record{{Index: 0}, {Index: 1}, {Index: 2}}
	if diff := cmp.Diff(want, healthy); diff != "" {
		t.Errorf("healthy child (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, flaky); diff != "" {
		t.Errorf("recovered child (-want +got):\n%s", diff)
	}
}

func TestMultiWithCSVRecoversWithoutDuplicates(t *testing.T) {
	w := &flakyWriter{fails: 2, partial: 30}
	var seen []stream.Record
	m := NewMulti(
		NewOpenBCICSV(w, 16, 125),
		Func(func(batch []stream.Record) error { seen = append(seen, batch...); return nil }),
	)

	batch := csvBatch(0, 3)
	assert.Error(t, m.Write(batch))
	assert.Error(t, m.Write(batch))
	require.NoError(t, m.Write(batch))
	require.NoError(t, m.Close())

	assert.Equal(t, referenceCSV(t, batch), w.String())
	assert.Len(t, seen, 3)
}

func TestRecordingPath(t *testing.T) {
	at := time.Date(2024, 3, 1, 14, 5, 9, 0, time.UTC)
	got := RecordingPath("data/recordings", "P7", `Ana "Bia" Souza/Lima`, "motor", "csv", at)
	assert.Equal(t, "data/recordings/P7_Ana_Bia_SouzaLima/P7_motor_20240301_140509.csv", got)
}

func TestSafeName(t *testing.T) {
	assert.Equal(t, "Unknown", SafeName(""))
	assert.Equal(t, "a_b", SafeName("a b?*"))
	long := SafeName(string(make([]byte, 80)))
	assert.Len(t, long, 50)
}
