package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/cwbudde/eegstream/stream"
)

// UDP defaults match the OpenBCI GUI networking widget.
const (
	DefaultUDPAddr     = "127.0.0.1:12345"
	DefaultReadTimeout = time.Second
	DefaultPacketSize  = 4096
)

// UDPConfig configures a UDPReceiver.
type UDPConfig struct {
	Addr     string
	Channels int
	// ReadTimeout bounds each read so Stop is noticed promptly.
	ReadTimeout time.Duration
	PacketSize  int
	HistorySize int
	Logger      *slog.Logger
}

// UDPReceiver listens for JSON datagrams and publishes every decoded sample.
type UDPReceiver struct {
	*hub
	cfg UDPConfig

	mu   sync.Mutex
	conn net.PacketConn
	done chan struct{}
	wg   sync.WaitGroup
}

// NewUDPReceiver returns a receiver; it does not bind until Start.
func NewUDPReceiver(cfg UDPConfig) *UDPReceiver {
	if cfg.Addr == "" {
		cfg.Addr = DefaultUDPAddr
	}
	if cfg.Channels <= 0 {
		cfg.Channels = stream.DefaultChannels
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.PacketSize <= 0 {
		cfg.PacketSize = DefaultPacketSize
	}
	return &UDPReceiver{hub: newHub(cfg.HistorySize, cfg.Logger), cfg: cfg}
}

// Start binds the socket and launches the receive loop. The loop ends when
// ctx is cancelled or Stop is called.
func (r *UDPReceiver) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn != nil {
		return errors.New("source: udp receiver already started")
	}

	conn, err := net.ListenPacket("udp", r.cfg.Addr)
	if err != nil {
		return fmt.Errorf("source: listen %s: %w", r.cfg.Addr, err)
	}
	r.conn = conn
	r.done = make(chan struct{})

	r.logger.Info("udp receiver listening", slog.String("addr", conn.LocalAddr().String()))

	r.wg.Add(1)
	go r.run(ctx, conn, r.done)
	return nil
}

// Addr returns the bound address, or nil before Start.
func (r *UDPReceiver) Addr() net.Addr {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn == nil {
		return nil
	}
	return r.conn.LocalAddr()
}

// Stop closes the socket and waits for the receive loop to exit.
func (r *UDPReceiver) Stop() error {
	r.mu.Lock()
	conn, done := r.conn, r.done
	r.conn, r.done = nil, nil
	r.mu.Unlock()

	if conn == nil {
		return nil
	}
	close(done)
	err := conn.Close()
	r.wg.Wait()
	return err
}

func (r *UDPReceiver) run(ctx context.Context, conn net.PacketConn, done <-chan struct{}) {
	defer r.wg.Done()

	buf := make([]byte, r.cfg.PacketSize)
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		default:
		}

		if err := conn.SetReadDeadline(time.Now().Add(r.cfg.ReadTimeout)); err != nil {
			r.logger.Warn("set read deadline", slog.Any("err", err))
		}
		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			r.logger.Warn("udp read", slog.Any("err", err))
			continue
		}

		r.packets.Add(1)
		r.lastReceive.Store(time.Now().UnixNano())
		r.handle(buf[:n])
	}
}

func (r *UDPReceiver) handle(packet []byte) {
	p, err := Decode(packet)
	if err != nil {
		r.decodeErrors.Add(1)
		r.logger.Warn("dropping datagram", slog.Int("bytes", len(packet)), slog.Any("err", err))
		return
	}
	for _, s := range p.Samples(r.cfg.Channels) {
		r.publish(s)
	}
}
