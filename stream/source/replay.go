package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/OpenPSG/edf"
	"github.com/cwbudde/eegstream/stream"
)

// replayBlock is how many samples per channel are read from the file at a
// time.
const replayBlock = 125

// ReplayConfig configures an EDFReplay.
type ReplayConfig struct {
	// SampleRate paces realtime playback. The EDF reader does not expose the
	// file's rate, so it has to be supplied.
	SampleRate float64
	// Channels limits playback to the first Channels signals; 0 plays all.
	Channels int
	// Realtime paces samples at SampleRate; otherwise they are published as
	// fast as the subscribers accept them.
	Realtime    bool
	HistorySize int
	Logger      *slog.Logger
}

// EDFReplay plays the signals of an EDF file as a sample source.
type EDFReplay struct {
	*hub
	cfg     ReplayConfig
	signals []*edf.SignalReader

	mu       sync.Mutex
	cancel   context.CancelFunc
	finished chan struct{}
	err      error
}

// NewEDFReplay opens the EDF stream in r.
func NewEDFReplay(r io.ReadSeeker, cfg ReplayConfig) (*EDFReplay, error) {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = stream.DefaultSampleRate
	}

	er, err := edf.Open(r)
	if err != nil {
		return nil, fmt.Errorf("source: open edf: %w", err)
	}

	var signals []*edf.SignalReader
	for i := 0; cfg.Channels <= 0 || i < cfg.Channels; i++ {
		sr, err := er.Signal(i)
		if err != nil {
			break
		}
		signals = append(signals, sr)
	}
	if len(signals) == 0 {
		return nil, errors.New("source: edf file has no signals")
	}

	return &EDFReplay{
		hub:      newHub(cfg.HistorySize, cfg.Logger),
		cfg:      cfg,
		signals:  signals,
		finished: make(chan struct{}),
	}, nil
}

// Channels returns the number of signals played.
func (p *EDFReplay) Channels() int { return len(p.signals) }

// Start launches playback. A replay can be started once.
func (p *EDFReplay) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return errors.New("source: replay already started")
	}
	ctx, p.cancel = context.WithCancel(ctx)
	go p.run(ctx)
	return nil
}

// Stop ends playback and waits for it to finish.
func (p *EDFReplay) Stop() error {
	p.mu.Lock()
	cancel := p.cancel
	p.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	<-p.finished
	return p.Err()
}

// Done is closed when playback ends, at end of file or on Stop.
func (p *EDFReplay) Done() <-chan struct{} { return p.finished }

// Err returns the read error that ended playback, if any.
func (p *EDFReplay) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *EDFReplay) run(ctx context.Context) {
	defer close(p.finished)

	var ticker *time.Ticker
	if p.cfg.Realtime {
		period := time.Duration(math.Round(float64(time.Second) / p.cfg.SampleRate))
		ticker = time.NewTicker(period)
		defer ticker.Stop()
	}

	block := make([][]float64, len(p.signals))
	for ch := range block {
		block[ch] = make([]float64, replayBlock)
	}

	for {
		n, err := p.readBlock(block)
		for i := 0; i < n; i++ {
			if ticker != nil {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
				}
			} else if ctx.Err() != nil {
				return
			}

			s := make(stream.Sample, len(block))
			for ch := range block {
				s[ch] = block[ch][i]
			}
			p.packets.Add(1)
			p.lastReceive.Store(time.Now().UnixNano())
			p.publish(s)
		}

		if err != nil {
			if !errors.Is(err, io.EOF) {
				p.mu.Lock()
				p.err = fmt.Errorf("source: edf read: %w", err)
				p.mu.Unlock()
				p.logger.Error("replay stopped", slog.Any("err", err))
			} else {
				p.logger.Info("replay finished", slog.Int64("samples", p.samples.Load()))
			}
			return
		}
	}
}

// readBlock fills block from every signal and returns the number of
// complete samples read.
func (p *EDFReplay) readBlock(block [][]float64) (int, error) {
	n := replayBlock
	var firstErr error
	for ch, sr := range p.signals {
		got, err := sr.Read(block[ch])
		n = min(n, got)
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return n, firstErr
}
