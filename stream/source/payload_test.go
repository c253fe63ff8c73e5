package source

import (
	"testing"

	"github.com/cwbudde/eegstream/stream"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		kind Kind
		want []stream.Sample
	}{
		{
			name: "time series",
			in:   `{"type":"timeSeriesRaw","data":[[1,2,3],[4,5,6]]}`,
			kind: KindTimeSeries,
			want: []stream.Sample{{1, 4, 0}, {2, 5, 0}, {3, 6, 0}},
		},
		{
			name: "nested channel arrays",
			in:   `{"channels":{"Ch1":[1,2],"Ch3":[5,6]}}`,
			kind: KindChannelArrays,
			want: []stream.Sample{{1, 0, 5}, {2, 0, 6}},
		},
		{
			name: "flat channel arrays",
			in:   `{"Ch1":[1,2],"Ch2":[3,4]}`,
			kind: KindChannelArrays,
			want: []stream.Sample{{1, 3, 0}, {2, 4, 0}},
		},
		{
			name: "array encoded as string",
			in:   `{"Ch1":"[1 2]","Ch2":"3, 4"}`,
			kind: KindChannelArrays,
			want: []stream.Sample{{1, 3, 0}, {2, 4, 0}},
		},
		{
			name: "single sample",
			in:   `{"Ch1":1.5,"Ch2":-2,"timestamp":99}`,
			kind: KindSingleSample,
			want: []stream.Sample{{1.5, -2, 0}},
		},
		{
			name: "extra channels dropped",
			in:   `{"Ch1":1,"Ch2":2,"Ch3":3,"Ch4":4}`,
			kind: KindSingleSample,
			want: []stream.Sample{{1, 2, 3}},
		},
		{
			name: "json string wrapping an object",
			in:   `"{\"Ch1\":7}"`,
			kind: KindSingleSample,
			want: []stream.Sample{{7, 0, 0}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Decode([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.kind, p.Kind)
			if diff := cmp.Diff(tt.want, p.Samples(3)); diff != "" {
				t.Errorf("samples (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"not json", `hello`, ErrUnsupportedPayload},
		{"array", `[1,2,3]`, ErrUnsupportedPayload},
		{"no channels", `{"foo":1}`, ErrUnsupportedPayload},
		{"non numeric", `{"Ch1":[1,"x"]}`, ErrUnsupportedPayload},
		{"bad string", `{"Ch1":"1 two"}`, ErrUnsupportedPayload},
		{"string not json", `"plain text"`, ErrUnsupportedPayload},
		{"ragged arrays", `{"Ch1":[1,2],"Ch2":[1]}`, ErrRaggedChannels},
		{"ragged time series", `{"type":"timeSeriesRaw","data":[[1,2],[3]]}`, ErrRaggedChannels},
		{"channel index too large", `{"Ch9999":1}`, ErrUnsupportedPayload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.in))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "timeSeriesRaw", KindTimeSeries.String())
	assert.Equal(t, "unknown", Kind(0).String())
}
