package modem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"

	"i4.energy/across/nbiot/at"
)

// Modem drives a Quectel BC28 NB-IoT module over AT commands.
//
// Bytes from the transport enter through PushByte (Loop does this for a
// Transport that can be read). Complete lines either answer the single
// outstanding command or, for socket data notifications, wake the
// dispatcher which pulls the data into a per-socket receive queue.
// Commands are serialized through one command slot shared by the
// application and the dispatcher.
type Modem struct {
	// transport provides the physical connection to the modem (serial, TCP, etc.)
	transport Transport
	// config contains the modem configuration settings
	config Config
	logger *slog.Logger

	closed      atomic.Bool
	loopRunning atomic.Bool

	// line is only touched by the ingestion context
	line *at.LineBuffer

	// slot holds a token while a command exchange is in flight
	slot chan struct{}
	// mu guards pending, which the ingestion path fills in
	mu      sync.Mutex
	pending *pendingCommand

	// sockets maps socket handles to their receive queues
	sockets       *xsync.MapOf[int, *RingQueue]
	listener      atomic.Pointer[SocketListener]
	notifications chan Notification

	identityMu sync.RWMutex
	identity   Identity

	// loopCtx controls the lifecycle of the dispatcher and Loop
	loopCtx    context.Context
	loopCancel context.CancelFunc
}

// New creates a new Modem instance with the given configuration.
// It establishes the transport connection and starts the notification
// dispatcher. The caller must then feed transport bytes, normally by
// running Loop, before issuing commands, and may call Init to verify
// the modem and read its identity.
func New(ctx context.Context, config Config) (*Modem, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	config.setDefaults()

	transport, err := config.dialer.Dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("dial modem: %w", err)
	}
	if transport == nil {
		return nil, ErrNotInitialized
	}

	m := newModem(ctx, transport, config)
	go m.dispatch(m.loopCtx)

	return m, nil
}

func newModem(ctx context.Context, transport Transport, config Config) *Modem {
	m := &Modem{
		transport:     transport,
		config:        config,
		logger:        config.logger,
		line:          at.NewLineBuffer(config.maxLineLength),
		slot:          make(chan struct{}, 1),
		sockets:       xsync.NewMapOf[int, *RingQueue](),
		notifications: make(chan Notification, config.notifyBacklog),
	}
	// The dispatcher outlives the dial context; Close stops it.
	m.loopCtx, m.loopCancel = context.WithCancel(context.WithoutCancel(ctx))
	return m
}

// Loop reads the transport and feeds every byte to PushByte.
// It must be called exactly once after New and before any command is
// issued; it runs until ctx is cancelled, the modem is closed or the
// transport fails.
//
// Usage:
//
//	m, err := modem.New(ctx, config)
//	if err != nil { return err }
//
//	go m.Loop(ctx)
//
//	if err := m.Init(ctx); err != nil { return err }
func (m *Modem) Loop(ctx context.Context) error {
	if !m.loopRunning.CompareAndSwap(false, true) {
		return ErrLoopRunning
	}
	defer m.loopRunning.Store(false)

	readErrs := make(chan error, 1)

	// The reader blocks in Read and only exits once the transport
	// returns an error, which Close guarantees.
	go func() {
		buf := make([]byte, 256)
		for {
			n, err := m.transport.Read(buf)
			for _, b := range buf[:n] {
				m.PushByte(b)
			}
			if err != nil {
				readErrs <- err
				return
			}
		}
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-m.loopCtx.Done():
		return ErrAlreadyClosed
	case err := <-readErrs:
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		return fmt.Errorf("read error: %w", err)
	}
}

// PushByte is the single data-ingestion entry point. It is safe to call
// from a dedicated reader goroutine and never blocks on command
// execution: completed lines are routed to the pending command or, for
// socket data notifications, queued for the dispatcher.
func (m *Modem) PushByte(b byte) {
	line, err := m.line.Push(b)
	if err != nil {
		m.logger.Warn("Discarded modem output", "error", err, "limit", m.config.maxLineLength)
		return
	}
	if line == nil {
		return
	}

	switch at.Classify(line) {
	case at.TypeURC:
		m.notify(line)
	default:
		if !m.deliver(line) {
			m.logger.Debug("Orphaned modem line", "line", string(line))
		}
	}
}

// notify parses a socket data notification and hands it to the
// dispatcher without blocking the ingestion context.
func (m *Modem) notify(line []byte) {
	socket, size, err := at.ParseSocketNotification(line)
	if err != nil {
		m.logger.Warn("Malformed socket notification", "line", string(line), "error", err)
		return
	}

	n := Notification{Socket: socket, Size: size}
	select {
	case m.notifications <- n:
	default:
		// Dispatcher backlog full, the data stays on the modem
		m.logger.Warn("Dropped socket notification", "socket", socket, "size", size)
	}
}

// Close shuts down the modem and releases all resources.
// It stops the dispatcher and Loop, closes the transport connection,
// and marks the modem as closed. After calling Close(), the modem
// cannot be reused.
func (m *Modem) Close() error {
	if !m.closed.CompareAndSwap(false, true) {
		return ErrAlreadyClosed
	}

	if m.loopCancel != nil {
		m.loopCancel()
	}

	if m.transport != nil {
		return m.transport.Close()
	}

	return nil
}
