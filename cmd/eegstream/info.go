package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/cwbudde/eegstream/internal/config"
)

// probeHz are the frequencies printed in the magnitude table.
var probeHz = []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30, 40, 45, 50, 55, 60}

func runInfo(args []string, w io.Writer) error {
	var common commonFlags
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	common.register(fs)
	coeffs := fs.Bool("coeffs", false, "print biquad coefficients")
	names := fs.Bool("names", false, "list configuration file names")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: eegstream info [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Prints the bandpass design and the effective configuration.\n\nFlags:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if *names {
		for _, n := range config.Names() {
			fmt.Fprintln(w, n)
		}
		return nil
	}

	logger := common.logger()
	cfg, err := common.load(logger)
	if err != nil {
		return err
	}
	f, err := newFilter(cfg, logger)
	if err != nil {
		return err
	}
	info := f.Info()

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Filter\t%s\n", info.Type)
	fmt.Fprintf(tw, "Sample rate\t%g Hz\n", info.SampleRate)
	fmt.Fprintf(tw, "Passband\t%g - %g Hz (low-pass at %g Hz)\n", info.LowHz, info.HighHz, info.EffectiveHighHz)
	fmt.Fprintf(tw, "Normalized\t%.4f, %.4f\n", info.Normalized[0], info.Normalized[1])
	fmt.Fprintf(tw, "Order\t%d (high-pass %d, low-pass %d)\n", info.Order, info.HighpassOrder, info.LowpassOrder)
	fmt.Fprintf(tw, "Min batch\t%d samples\n", f.MinBatchSamples())
	fmt.Fprintf(tw, "Chunk policy\t%s\n", chunkPolicy(cfg.ZeroPhaseChunks))
	fmt.Fprintf(tw, "Channels\t%d\n", cfg.Channels)
	fmt.Fprintf(tw, "UDP address\t%s\n", cfg.UDPAddr)
	fmt.Fprintf(tw, "Flush\t%d records or %s\n", cfg.FlushSize, cfg.FlushInterval)
	fmt.Fprintf(tw, "Marker countdown\t%d samples\n", cfg.Countdown)
	fmt.Fprintf(tw, "Baseline\t%s\n", cfg.BaselineDuration)
	fmt.Fprintf(tw, "Output\t%s %v\n", cfg.OutputDir, cfg.Formats)
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Hz\tdB\t\n")
	for _, hz := range probeHz {
		if hz >= info.SampleRate/2 {
			break
		}
		fmt.Fprintf(tw, "%g\t%.2f\t\n", hz, f.MagnitudeDB(hz))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if !*coeffs {
		return nil
	}
	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Stage\tB0\tB1\tB2\tA1\tA2\n")
	for i, c := range info.Highpass {
		fmt.Fprintf(tw, "hp%d\t%.9g\t%.9g\t%.9g\t%.9g\t%.9g\n", i, c.B0, c.B1, c.B2, c.A1, c.A2)
	}
	for i, c := range info.Lowpass {
		fmt.Fprintf(tw, "lp%d\t%.9g\t%.9g\t%.9g\t%.9g\t%.9g\n", i, c.B0, c.B1, c.B2, c.A1, c.A2)
	}
	return tw.Flush()
}

func chunkPolicy(zeroPhase bool) string {
	if zeroPhase {
		return "zero-phase per chunk"
	}
	return "causal"
}
