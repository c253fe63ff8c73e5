// Package config loads eegstream settings from a Starlark file.
//
// A config file assigns top-level variables; everything not assigned keeps
// its default. The time module is predeclared so durations read naturally:
//
//	low_hz = 0.5
//	high_hz = 50.0
//	flush_interval = 5 * time.second
//	formats = ["csv", "edf"]
//
// Names starting with an underscore are private to the file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	startime "github.com/canonical/starlark/lib/time"
	"github.com/canonical/starlark/starlark"
	"github.com/cwbudde/eegstream/dsp/filter/bandpass"
	"github.com/cwbudde/eegstream/measure/quality"
	"github.com/cwbudde/eegstream/stream"
	"github.com/cwbudde/eegstream/stream/annotate"
	"github.com/cwbudde/eegstream/stream/recorder"
	"github.com/cwbudde/eegstream/stream/session"
	"github.com/cwbudde/eegstream/stream/source"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Config holds every tunable of a recording session.
type Config struct {
	Filter          bandpass.Spec
	ZeroPhaseChunks bool

	Channels int
	UDPAddr  string

	FlushSize     int
	FlushInterval time.Duration

	Countdown        int
	BaselineDuration time.Duration

	QueueSize   int
	HistorySize int
	Quality     quality.Thresholds

	OutputDir   string
	Formats     []string
	PatientID   string
	PatientName string
	Task        string
}

// Default returns the settings for an OpenBCI Cyton + Daisy headset at
// 125 Hz.
func Default() Config {
	return Config{
		Filter:           bandpass.DefaultSpec(),
		Channels:         stream.DefaultChannels,
		UDPAddr:          source.DefaultUDPAddr,
		FlushSize:        recorder.DefaultFlushSize,
		FlushInterval:    recorder.DefaultFlushInterval,
		Countdown:        annotate.DefaultCountdown,
		BaselineDuration: annotate.DefaultBaselineDuration,
		QueueSize:        session.DefaultQueueSize,
		HistorySize:      source.DefaultHistorySize,
		Quality:          quality.DefaultThresholds(),
		OutputDir:        "data/recordings",
		Formats:          []string{"csv"},
		PatientID:        "anonymous",
		Task:             "recording",
	}
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	if err := c.Filter.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	switch {
	case c.Channels <= 0:
		return fmt.Errorf("%w: channels must be > 0", ErrInvalid)
	case c.FlushSize <= 0:
		return fmt.Errorf("%w: flush_size must be > 0", ErrInvalid)
	case c.FlushInterval <= 0:
		return fmt.Errorf("%w: flush_interval must be > 0", ErrInvalid)
	case c.Countdown <= 0:
		return fmt.Errorf("%w: countdown must be > 0", ErrInvalid)
	case c.BaselineDuration <= 0:
		return fmt.Errorf("%w: baseline_duration must be > 0", ErrInvalid)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be > 0", ErrInvalid)
	case c.HistorySize <= 0:
		return fmt.Errorf("%w: history_size must be > 0", ErrInvalid)
	case c.Quality.RailFraction < 0 || c.Quality.RailFraction > 1:
		return fmt.Errorf("%w: rail_fraction must be in [0,1]", ErrInvalid)
	case len(c.Formats) == 0:
		return fmt.Errorf("%w: formats must not be empty", ErrInvalid)
	}
	for _, f := range c.Formats {
		if f != "csv" && f != "edf" {
			return fmt.Errorf("%w: unknown format %q", ErrInvalid, f)
		}
	}
	return nil
}

// Load reads and evaluates the Starlark file at path on top of Default.
func Load(path string, logger *slog.Logger) (Config, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return Parse(path, src, logger)
}

// Parse evaluates src on top of Default. filename is used in error
// messages. print() output goes to logger at debug level.
func Parse(filename string, src []byte, logger *slog.Logger) (Config, error) {
	if logger == nil {
		logger = slog.Default()
	}
	thread := &starlark.Thread{
		Name: "config",
		Print: func(_ *starlark.Thread, msg string) {
			logger.Debug(msg, slog.String("config", filename))
		},
	}

	globals, err := starlark.ExecFile(thread, filename, src, starlark.StringDict{
		"time": startime.Module,
	})
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	cfg := Default()
	if err := apply(&cfg, globals); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", filename, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type setter func(*Config, starlark.Value) error

var fields = map[string]setter{
	"low_hz":            floatField(func(c *Config) *float64 { return &c.Filter.LowHz }),
	"high_hz":           floatField(func(c *Config) *float64 { return &c.Filter.HighHz }),
	"sample_rate":       floatField(func(c *Config) *float64 { return &c.Filter.SampleRate }),
	"order":             intField(func(c *Config) *int { return &c.Filter.Order }),
	"margin":            floatField(func(c *Config) *float64 { return &c.Filter.Margin }),
	"zero_phase_chunks": boolField(func(c *Config) *bool { return &c.ZeroPhaseChunks }),
	"channels":          intField(func(c *Config) *int { return &c.Channels }),
	"udp_addr":          stringField(func(c *Config) *string { return &c.UDPAddr }),
	"flush_size":        intField(func(c *Config) *int { return &c.FlushSize }),
	"flush_interval":    durationField(func(c *Config) *time.Duration { return &c.FlushInterval }),
	"countdown":         intField(func(c *Config) *int { return &c.Countdown }),
	"baseline_duration": durationField(func(c *Config) *time.Duration { return &c.BaselineDuration }),
	"queue_size":        intField(func(c *Config) *int { return &c.QueueSize }),
	"history_size":      intField(func(c *Config) *int { return &c.HistorySize }),
	"flat_uv":           floatField(func(c *Config) *float64 { return &c.Quality.FlatUV }),
	"rail_uv":           floatField(func(c *Config) *float64 { return &c.Quality.RailUV }),
	"rail_fraction":     floatField(func(c *Config) *float64 { return &c.Quality.RailFraction }),
	"noisy_uv":          floatField(func(c *Config) *float64 { return &c.Quality.NoisyUV }),
	"output_dir":        stringField(func(c *Config) *string { return &c.OutputDir }),
	"formats":           stringsField(func(c *Config) *[]string { return &c.Formats }),
	"patient_id":        stringField(func(c *Config) *string { return &c.PatientID }),
	"patient_name":      stringField(func(c *Config) *string { return &c.PatientName }),
	"task":              stringField(func(c *Config) *string { return &c.Task }),
}

// Names returns the recognised variable names, sorted.
func Names() []string {
	out := make([]string, 0, len(fields))
	for name := range fields {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func apply(cfg *Config, globals starlark.StringDict) error {
	var unknown []string
	for _, name := range globals.Keys() {
		if strings.HasPrefix(name, "_") {
			continue
		}
		set, ok := fields[name]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		if err := set(cfg, globals[name]); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("unknown settings %s", strings.Join(unknown, ", "))
	}
	return nil
}

func floatField(field func(*Config) *float64) setter {
	return func(c *Config, v starlark.Value) error {
		f, ok := starlark.AsFloat(v)
		if !ok {
			return fmt.Errorf("want number, got %s", v.Type())
		}
		*field(c) = f
		return nil
	}
}

func intField(field func(*Config) *int) setter {
	return func(c *Config, v starlark.Value) error {
		if _, isInt := v.(starlark.Int); !isInt {
			return fmt.Errorf("want int, got %s", v.Type())
		}
		f, _ := starlark.AsFloat(v)
		if f > math.MaxInt32 || f < math.MinInt32 {
			return fmt.Errorf("%s out of range", v)
		}
		*field(c) = int(f)
		return nil
	}
}

func boolField(field func(*Config) *bool) setter {
	return func(c *Config, v starlark.Value) error {
		b, ok := v.(starlark.Bool)
		if !ok {
			return fmt.Errorf("want bool, got %s", v.Type())
		}
		*field(c) = bool(b)
		return nil
	}
}

func stringField(field func(*Config) *string) setter {
	return func(c *Config, v starlark.Value) error {
		s, ok := starlark.AsString(v)
		if !ok {
			return fmt.Errorf("want string, got %s", v.Type())
		}
		*field(c) = s
		return nil
	}
}

func stringsField(field func(*Config) *[]string) setter {
	return func(c *Config, v starlark.Value) error {
		var elems []starlark.Value
		switch l := v.(type) {
		case *starlark.List:
			for i := 0; i < l.Len(); i++ {
				elems = append(elems, l.Index(i))
			}
		case starlark.Tuple:
			elems = l
		default:
			return fmt.Errorf("want list of strings, got %s", v.Type())
		}

		out := make([]string, len(elems))
		for i, e := range elems {
			s, ok := starlark.AsString(e)
			if !ok {
				return fmt.Errorf("element %d: want string, got %s", i, e.Type())
			}
			out[i] = s
		}
		*field(c) = out
		return nil
	}
}

// durationField accepts a time.duration, a number of seconds, or a Go
// duration string such as "1m30s".
func durationField(field func(*Config) *time.Duration) setter {
	return func(c *Config, v starlark.Value) error {
		switch d := v.(type) {
		case startime.Duration:
			*field(c) = time.Duration(d)
			return nil
		case starlark.String:
			parsed, err := time.ParseDuration(string(d))
			if err != nil {
				return err
			}
			*field(c) = parsed
			return nil
		}
		secs, ok := starlark.AsFloat(v)
		if !ok {
			return fmt.Errorf("want duration, got %s", v.Type())
		}
		*field(c) = time.Duration(secs * float64(time.Second))
		return nil
	}
}
