package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/cwbudde/eegstream/internal/config"
)

// commonFlags are shared by every subcommand. Zero values mean "keep the
// configuration file's value".
type commonFlags struct {
	configPath string
	verbose    bool

	low, high, rate float64
	order           int
	channels        int

	out, formats        string
	patient, name, task string
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "Starlark configuration file")
	fs.BoolVar(&c.verbose, "v", false, "debug logging")
	fs.Float64Var(&c.low, "low", 0, "high-pass cutoff in Hz")
	fs.Float64Var(&c.high, "high", 0, "nominal low-pass cutoff in Hz")
	fs.Float64Var(&c.rate, "rate", 0, "sample rate in Hz")
	fs.IntVar(&c.order, "order", 0, "total filter order")
	fs.IntVar(&c.channels, "channels", 0, "EEG channel count")
	fs.StringVar(&c.out, "out", "", "recording base directory")
	fs.StringVar(&c.formats, "format", "", "comma-separated output formats (csv, edf)")
	fs.StringVar(&c.patient, "patient", "", "patient identifier")
	fs.StringVar(&c.name, "name", "", "patient name, used in the folder name")
	fs.StringVar(&c.task, "task", "", "task label, used in the file name")
}

func (c *commonFlags) logger() *slog.Logger {
	level := slog.LevelInfo
	if c.verbose {
		level = slog.LevelDebug
	}
	l := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(l)
	return l
}

// load reads the configuration file, if any, and applies flag overrides.
func (c *commonFlags) load(logger *slog.Logger) (config.Config, error) {
	cfg := config.Default()
	if c.configPath != "" {
		var err error
		if cfg, err = config.Load(c.configPath, logger); err != nil {
			return config.Config{}, err
		}
	}

	if c.low > 0 {
		cfg.Filter.LowHz = c.low
	}
	if c.high > 0 {
		cfg.Filter.HighHz = c.high
	}
	if c.rate > 0 {
		cfg.Filter.SampleRate = c.rate
	}
	if c.order > 0 {
		cfg.Filter.Order = c.order
	}
	if c.channels > 0 {
		cfg.Channels = c.channels
	}
	if c.out != "" {
		cfg.OutputDir = c.out
	}
	if c.formats != "" {
		cfg.Formats = strings.Split(c.formats, ",")
		for i := range cfg.Formats {
			cfg.Formats[i] = strings.ToLower(strings.TrimSpace(cfg.Formats[i]))
		}
	}
	if c.patient != "" {
		cfg.PatientID = c.patient
	}
	if c.name != "" {
		cfg.PatientName = c.name
	}
	if c.task != "" {
		cfg.Task = c.task
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("flags: %w", err)
	}
	return cfg, nil
}
