package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cwbudde/eegstream/stream/session"
	"github.com/cwbudde/eegstream/stream/source"
)

func runReplay(args []string) error {
	var common commonFlags
	fs := flag.NewFlagSet("replay", flag.ExitOnError)
	common.register(fs)
	in := fs.String("in", "", "EDF file to replay (required)")
	realtime := fs.Bool("realtime", false, "pace samples at the sample rate")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: eegstream replay -in file.edf [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Plays an EDF recording through the filter and recorder.\n\nFlags:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		fs.Usage()
		return fmt.Errorf("replay: -in is required")
	}

	logger := common.logger()
	cfg, err := common.load(logger)
	if err != nil {
		return err
	}

	f, err := os.Open(*in)
	if err != nil {
		return fmt.Errorf("replay: %w", err)
	}
	defer f.Close()

	src, err := source.NewEDFReplay(f, source.ReplayConfig{
		SampleRate:  cfg.Filter.SampleRate,
		Channels:    cfg.Channels,
		Realtime:    *realtime,
		HistorySize: cfg.HistorySize,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	if src.Channels() < cfg.Channels {
		logger.Warn("recording has fewer signals than channels, padding with zeros",
			"signals", src.Channels(), "channels", cfg.Channels)
	}

	var opts []session.Option
	if !*realtime {
		opts = append(opts, session.WithBackpressure())
	}
	sess, err := newSession(cfg, src, logger, opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runSession(ctx, sess, src.Done(), logger); err != nil {
		return err
	}
	return src.Err()
}
