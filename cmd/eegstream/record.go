package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cwbudde/eegstream/stream/source"
	"golang.org/x/term"
)

func runRecord(args []string) error {
	var common commonFlags
	fs := flag.NewFlagSet("record", flag.ExitOnError)
	common.register(fs)
	addr := fs.String("addr", "", "UDP listen address (default "+source.DefaultUDPAddr+")")
	console := fs.Bool("console", true, "interactive marker console when stdin is a terminal")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: eegstream record [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Receives OpenBCI GUI UDP packets, filters and annotates them and\n")
		fmt.Fprintf(os.Stderr, "records them until interrupted.\n\nFlags:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger := common.logger()
	cfg, err := common.load(logger)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.UDPAddr = *addr
	}

	src := source.NewUDPReceiver(source.UDPConfig{
		Addr:        cfg.UDPAddr,
		Channels:    cfg.Channels,
		HistorySize: cfg.HistorySize,
		Logger:      logger,
	})
	sess, err := newSession(cfg, src, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan struct{})
	if *console && term.IsTerminal(int(os.Stdin.Fd())) {
		go func() {
			defer close(done)
			if err := runConsole(ctx, sess, logger); err != nil {
				logger.Error("marker console", "err", err)
			}
		}()
	}

	return runSession(ctx, sess, done, logger)
}
