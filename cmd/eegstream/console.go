package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/chzyer/readline"
	"github.com/cwbudde/eegstream/measure/bandpower"
	"github.com/cwbudde/eegstream/stream"
	"github.com/cwbudde/eegstream/stream/annotate"
	"github.com/cwbudde/eegstream/stream/session"
)

// bandWindow is the number of filtered samples analysed by the bands
// command, about 4 s at 125 Hz.
const bandWindow = 512

// controller is the part of a session the marker console drives.
type controller interface {
	Annotator() *annotate.Annotator
	Stats() session.Stats
	BandPower(channel, n int) (bandpower.Result, error)
	ChannelStats(n int) ([]session.ChannelStats, error)
}

var consoleHelp = `Commands:
  t0 | t1 | t2      queue a marker on the next sample
  baseline          start the resting baseline (T1/T2 are refused meanwhile)
  status            session counters
  bands [channel]   band power of the filtered signal (default channel 0)
  quality           per-channel signal grade
  help              this text
  quit              stop recording
`

// runConsole reads marker commands from the terminal until quit, EOF or ctx
// ends. It returns when the console has been closed.
func runConsole(ctx context.Context, c controller, logger *slog.Logger) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "eeg> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
		AutoComplete: readline.NewPrefixCompleter(
			readline.PcItem("t0"),
			readline.PcItem("t1"),
			readline.PcItem("t2"),
			readline.PcItem("baseline"),
			readline.PcItem("status"),
			readline.PcItem("bands"),
			readline.PcItem("quality"),
			readline.PcItem("help"),
			readline.PcItem("quit"),
		),
	})
	if err != nil {
		return fmt.Errorf("console: %w", err)
	}
	defer rl.Close()

	stop := context.AfterFunc(ctx, func() { rl.Close() })
	defer stop()

	out := rl.Stdout()
	fmt.Fprint(out, consoleHelp)
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		if quit := execute(c, line, out, logger); quit {
			return nil
		}
	}
}

// execute runs one console command and reports whether the console should
// close.
func execute(c controller, line string, w io.Writer, logger *slog.Logger) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	cmd := strings.ToLower(fields[0])
	if m, ok := stream.ParseMarker(cmd); ok {
		if err := c.Annotator().AddMarker(m); err != nil {
			fmt.Fprintf(w, "marker %s refused: %v\n", m, err)
			return false
		}
		logger.Info("marker queued", slog.String("marker", string(m)))
		fmt.Fprintf(w, "%s queued\n", m)
		return false
	}

	switch cmd {
	case "baseline":
		a := c.Annotator()
		if a.BaselineActive() {
			fmt.Fprintf(w, "baseline already running, %s left\n", a.BaselineRemaining().Round(time.Second))
			return false
		}
		a.StartBaseline()
		logger.Info("baseline started", slog.Duration("duration", a.BaselineRemaining()))
		fmt.Fprintf(w, "baseline started, %s\n", a.BaselineRemaining().Round(time.Second))
	case "status":
		printStatus(w, c)
	case "bands":
		channel := 0
		if len(fields) > 1 {
			n, err := strconv.Atoi(fields[1])
			if err != nil {
				fmt.Fprintf(w, "invalid channel %q\n", fields[1])
				return false
			}
			channel = n
		}
		res, err := c.BandPower(channel, bandWindow)
		if err != nil {
			fmt.Fprintf(w, "bands: %v\n", err)
			return false
		}
		printBands(w, channel, res)
	case "quality":
		stats, err := c.ChannelStats(bandWindow)
		if err != nil {
			fmt.Fprintf(w, "quality: %v\n", err)
			return false
		}
		printQuality(w, stats)
	case "help", "?":
		fmt.Fprint(w, consoleHelp)
	case "quit", "exit", "q":
		return true
	default:
		fmt.Fprintf(w, "unknown command %q, try help\n", fields[0])
	}
	return false
}

func printStatus(w io.Writer, c controller) {
	st := c.Stats()
	a := c.Annotator()

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "session\t%s\n", st.ID)
	if !st.Started.IsZero() {
		fmt.Fprintf(tw, "running\t%s\n", time.Since(st.Started).Round(time.Second))
	}
	fmt.Fprintf(tw, "received\t%d\n", st.Received)
	fmt.Fprintf(tw, "processed\t%d\n", st.Processed)
	fmt.Fprintf(tw, "dropped\t%d\n", st.Dropped)
	fmt.Fprintf(tw, "filter faults\t%d\n", st.Faults)
	fmt.Fprintf(tw, "buffered\t%d\n", st.Recorder.Buffered)
	fmt.Fprintf(tw, "flushed\t%d in %d batches\n", st.Recorder.Flushed, st.Recorder.Batches)
	fmt.Fprintf(tw, "failed flushes\t%d\n", st.Recorder.FailedFlushes)
	if st.Recorder.LastError != nil {
		fmt.Fprintf(tw, "last error\t%v\n", st.Recorder.LastError)
	}
	fmt.Fprintf(tw, "marker state\t%s\n", a.State())
	if a.BaselineActive() {
		fmt.Fprintf(tw, "baseline\t%s left\n", a.BaselineRemaining().Round(time.Second))
	}
	tw.Flush()
}

func printBands(w io.Writer, channel int, res bandpower.Result) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "ch %d\tlow Hz\thigh Hz\tpower uV^2\trelative\tdB\t\n", channel)
	for _, b := range res.Bands {
		fmt.Fprintf(tw, "%s\t%.1f\t%.1f\t%.3f\t%.3f\t%.1f\t\n",
			b.Name, b.LowHz, b.HighHz, b.Power, b.Relative, b.PowerDB)
	}
	fmt.Fprintf(tw, "total\t\t\t%.3f\t\t\t\n", res.Total)
	tw.Flush()
}

func printQuality(w io.Writer, stats []session.ChannelStats) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "ch\tstatus\trms uV\tp-p uV\trailed\t\n")
	for _, cs := range stats {
		fmt.Fprintf(tw, "%d\t%s\t%.2f\t%.2f\t%.0f%%\t\n",
			cs.Channel, cs.Status, cs.RMS, cs.PeakToPeak, 100*cs.RailedFraction)
	}
	tw.Flush()
}
