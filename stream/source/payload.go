package source

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cwbudde/eegstream/stream"
)

var (
	// ErrUnsupportedPayload is returned for datagrams of no known shape.
	ErrUnsupportedPayload = errors.New("source: unsupported payload")
	// ErrRaggedChannels is returned when channel arrays differ in length.
	ErrRaggedChannels = errors.New("source: channel arrays differ in length")
)

// Kind identifies the wire shape a payload was decoded from.
type Kind int

const (
	// KindTimeSeries is the OpenBCI GUI networking widget format:
	// {"type":"timeSeriesRaw","data":[[ch0...],[ch1...]]}.
	KindTimeSeries Kind = iota + 1
	// KindChannelArrays is {"channels":{"Ch1":[...]}} or {"Ch1":[...]}.
	KindChannelArrays
	// KindSingleSample is {"Ch1":1.0,"Ch2":2.0,...}.
	KindSingleSample
)

func (k Kind) String() string {
	switch k {
	case KindTimeSeries:
		return "timeSeriesRaw"
	case KindChannelArrays:
		return "channelArrays"
	case KindSingleSample:
		return "singleSample"
	default:
		return "unknown"
	}
}

// Payload is a decoded datagram in channel-major layout. A nil row is a
// channel the sender did not include.
type Payload struct {
	Kind     Kind
	Channels [][]float64
}

// Len returns the number of samples per channel.
func (p Payload) Len() int {
	for _, row := range p.Channels {
		if row != nil {
			return len(row)
		}
	}
	return 0
}

// Samples converts the payload to c-channel samples. Missing channels read
// as zero and channels beyond c are dropped.
func (p Payload) Samples(c int) []stream.Sample {
	n := p.Len()
	out := make([]stream.Sample, n)
	for i := range out {
		s := make(stream.Sample, c)
		for ch := 0; ch < c && ch < len(p.Channels); ch++ {
			if row := p.Channels[ch]; row != nil {
				s[ch] = row[i]
			}
		}
		out[i] = s
	}
	return out
}

// Decode parses one datagram. A JSON string whose content is itself one of
// the known objects is unwrapped once.
func Decode(data []byte) (Payload, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return Payload{}, fmt.Errorf("%w: %w", ErrUnsupportedPayload, err)
	}
	if s, ok := v.(string); ok {
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			return Payload{}, fmt.Errorf("%w: string is not JSON: %w", ErrUnsupportedPayload, err)
		}
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return Payload{}, fmt.Errorf("%w: %T", ErrUnsupportedPayload, v)
	}

	if typ, _ := obj["type"].(string); typ == "timeSeriesRaw" {
		if raw, ok := obj["data"]; ok {
			return decodeTimeSeries(raw)
		}
	}
	if nested, ok := obj["channels"].(map[string]any); ok {
		return decodeChannels(nested)
	}
	return decodeChannels(obj)
}

func decodeTimeSeries(raw any) (Payload, error) {
	rows, ok := raw.([]any)
	if !ok {
		return Payload{}, fmt.Errorf("%w: timeSeriesRaw data is %T", ErrUnsupportedPayload, raw)
	}
	p := Payload{Kind: KindTimeSeries, Channels: make([][]float64, len(rows))}
	for ch, r := range rows {
		row, err := toFloats(r)
		if err != nil {
			return Payload{}, fmt.Errorf("channel %d: %w", ch, err)
		}
		if ch > 0 && len(row) != len(p.Channels[0]) {
			return Payload{}, fmt.Errorf("%w: channel %d has %d samples, channel 0 has %d",
				ErrRaggedChannels, ch, len(row), len(p.Channels[0]))
		}
		p.Channels[ch] = row
	}
	return p, nil
}

// decodeChannels reads "Ch1".."ChN" keys. If any value is an array (or an
// array encoded as a string) the payload is channel arrays, otherwise a
// single sample.
func decodeChannels(obj map[string]any) (Payload, error) {
	p := Payload{Kind: KindSingleSample}
	for key, val := range obj {
		ch, ok := channelIndex(key)
		if !ok {
			continue
		}
		row, err := toFloats(val)
		if err != nil {
			return Payload{}, fmt.Errorf("%s: %w", key, err)
		}
		if _, scalar := val.(float64); !scalar {
			p.Kind = KindChannelArrays
		}
		for len(p.Channels) <= ch {
			p.Channels = append(p.Channels, nil)
		}
		p.Channels[ch] = row
	}

	if len(p.Channels) == 0 {
		return Payload{}, fmt.Errorf("%w: no Ch1..ChN keys", ErrUnsupportedPayload)
	}

	n := -1
	for ch, row := range p.Channels {
		if row == nil {
			continue
		}
		if n >= 0 && len(row) != n {
			return Payload{}, fmt.Errorf("%w: Ch%d has %d samples, expected %d", ErrRaggedChannels, ch+1, len(row), n)
		}
		n = len(row)
	}
	return p, nil
}

// maxChannels bounds the channel keys accepted from the network.
const maxChannels = 256

// channelIndex maps "Ch1" to 0.
func channelIndex(key string) (int, bool) {
	num, ok := strings.CutPrefix(key, "Ch")
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(num)
	if err != nil || i < 1 || i > maxChannels {
		return 0, false
	}
	return i - 1, true
}

// toFloats accepts a number, an array of numbers, or a string holding
// whitespace- or comma-separated numbers optionally wrapped in brackets.
func toFloats(v any) ([]float64, error) {
	switch t := v.(type) {
	case float64:
		return []float64{t}, nil
	case []any:
		out := make([]float64, len(t))
		for i, e := range t {
			f, ok := e.(float64)
			if !ok {
				return nil, fmt.Errorf("%w: element %d is %T", ErrUnsupportedPayload, i, e)
			}
			out[i] = f
		}
		return out, nil
	case string:
		fields := strings.FieldsFunc(strings.Trim(t, `[]" `), func(r rune) bool {
			return r == ',' || r == ' ' || r == '\n' || r == '\t'
		})
		out := make([]float64, len(fields))
		for i, f := range fields {
			x, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrUnsupportedPayload, err)
			}
			out[i] = x
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: value is %T", ErrUnsupportedPayload, v)
	}
}
