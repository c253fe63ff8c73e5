package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/eegstream/dsp/filter/bandpass"
	"github.com/cwbudde/eegstream/internal/config"
	"github.com/cwbudde/eegstream/stream/annotate"
	"github.com/cwbudde/eegstream/stream/recorder"
	"github.com/cwbudde/eegstream/stream/session"
	"github.com/cwbudde/eegstream/stream/sink"
	"github.com/cwbudde/eegstream/stream/source"
	"github.com/google/uuid"
)

const (
	statusEvery = 10 * time.Second
	stopTimeout = 10 * time.Second
)

func newFilter(cfg config.Config, logger *slog.Logger) (*bandpass.Bandpass, error) {
	opts := []bandpass.Option{bandpass.WithLogger(logger)}
	if cfg.ZeroPhaseChunks {
		opts = append(opts, bandpass.WithZeroPhaseChunks())
	}
	return bandpass.New(cfg.Filter, opts...)
}

// openSinks creates one file per configured format under the patient
// folder.
func openSinks(cfg config.Config, f *bandpass.Bandpass, recordingID string, start time.Time, logger *slog.Logger) (*sink.Multi, error) {
	sinks := sink.NewMulti()
	for _, format := range cfg.Formats {
		path := sink.RecordingPath(cfg.OutputDir, cfg.PatientID, cfg.PatientName, cfg.Task, format, start)

		var s sink.Sink
		var err error
		switch format {
		case "csv":
			s, err = sink.CreateOpenBCICSV(path, cfg.Channels, cfg.Filter.SampleRate)
		case "edf":
			info := f.Info()
			s, err = sink.CreateEDF(path, sink.EDFConfig{
				PatientID:    cfg.PatientID,
				RecordingID:  recordingID,
				Channels:     cfg.Channels,
				SampleRate:   cfg.Filter.SampleRate,
				Prefiltering: fmt.Sprintf("HP:%gHz LP:%gHz", info.LowHz, info.EffectiveHighHz),
			})
		default:
			err = fmt.Errorf("unknown format %q", format)
		}
		if err != nil {
			return nil, errors.Join(err, sinks.Close())
		}

		logger.Info("recording to file", slog.String("format", format), slog.String("path", path))
		sinks.Add(s)
	}
	return sinks, nil
}

func newSession(cfg config.Config, src source.Source, logger *slog.Logger, extra ...session.Option) (*session.Session, error) {
	f, err := newFilter(cfg, logger)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	sinks, err := openSinks(cfg, f, id, time.Now(), logger)
	if err != nil {
		return nil, err
	}

	rec := recorder.New(sinks,
		recorder.WithFlushSize(cfg.FlushSize),
		recorder.WithFlushInterval(cfg.FlushInterval),
		recorder.WithLogger(logger))
	ann := annotate.New(
		annotate.WithCountdown(cfg.Countdown),
		annotate.WithBaselineDuration(cfg.BaselineDuration))

	opts := []session.Option{
		session.WithID(id),
		session.WithChannels(cfg.Channels),
		session.WithQueueSize(cfg.QueueSize),
		session.WithHistorySize(cfg.HistorySize),
		session.WithQualityThresholds(cfg.Quality),
		session.WithAnnotator(ann),
		session.WithLogger(logger),
	}
	return session.New(src, f, rec, append(opts, extra...)...), nil
}

// runSession starts sess, logs its counters periodically and stops it when
// ctx ends or done is closed.
func runSession(ctx context.Context, sess *session.Session, done <-chan struct{}, logger *slog.Logger) error {
	if err := sess.Start(ctx); err != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		return errors.Join(err, sess.Stop(stopCtx))
	}

	ticker := time.NewTicker(statusEvery)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-done:
			break loop
		case <-ticker.C:
			st := sess.Stats()
			logger.Info("status",
				slog.Int64("received", st.Received),
				slog.Int64("processed", st.Processed),
				slog.Int64("dropped", st.Dropped),
				slog.Int("buffered", st.Recorder.Buffered),
				slog.Int64("flushed", st.Recorder.Flushed),
				slog.Int64("failed_flushes", st.Recorder.FailedFlushes))
		}
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	return sess.Stop(stopCtx)
}
