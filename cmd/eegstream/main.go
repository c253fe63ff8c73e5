// Command eegstream records, replays and inspects filtered EEG streams.
//
// Usage:
//
//	eegstream record [flags]   receive OpenBCI GUI UDP packets and record them
//	eegstream replay [flags]   play an EDF file through the same pipeline
//	eegstream info   [flags]   print the filter design and configuration
//
// Every subcommand reads an optional Starlark configuration file (-config);
// flags override the file.
//
// Examples:
//
//	eegstream record -patient P007 -name "Ana Souza" -task motor
//	eegstream record -config lab.star -format csv,edf
//	eegstream replay -in session.edf -realtime
//	eegstream info -low 1 -high 40
package main

import (
	"fmt"
	"log/slog"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "record":
		err = runRecord(args)
	case "replay":
		err = runReplay(args)
	case "info":
		err = runInfo(args, os.Stdout)
	case "-h", "-help", "--help", "help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n\n", cmd)
		usage()
		os.Exit(2)
	}

	if err != nil {
		slog.Error("eegstream failed", slog.Any("err", err))
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: eegstream <command> [flags]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  record   receive UDP samples, filter, annotate and record them\n")
	fmt.Fprintf(os.Stderr, "  replay   play an EDF recording through the pipeline\n")
	fmt.Fprintf(os.Stderr, "  info     print the filter design and configuration\n")
	fmt.Fprintf(os.Stderr, "\nRun 'eegstream <command> -h' for command flags.\n")
}
