package modem

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"i4.energy/across/nbiot/at"
)

// queue returns the receive queue of socket, creating it on first use.
func (m *Modem) queue(socket int) *RingQueue {
	q, _ := m.sockets.LoadOrCompute(socket, func() *RingQueue {
		return NewRingQueue(m.config.queueCapacity)
	})
	return q
}

// OpenSocket creates a TCP socket and connects it to ip:port.
//
// Socket creation is attempted several times since the modem often
// refuses right after attaching. If the connect fails the socket is
// closed again. On success the socket's receive queue starts empty.
// A persistent ErrNoSocket is usually cured by Reboot.
func (m *Modem) OpenSocket(ctx context.Context, ip, port string) (int, error) {
	socket := -1
	var lastErr error

	for attempt := range m.config.openAttempts {
		if attempt > 0 {
			if err := sleep(ctx, m.config.openTimeout); err != nil {
				return -1, err
			}
		}

		resp, err := m.exec(ctx, at.CmdSocketCreate, m.config.openTimeout, 64)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return -1, err
			}
			continue
		}
		if socket, err = at.ParseSocketID(resp); err != nil {
			lastErr = err
			socket = -1
			continue
		}
		break
	}
	if socket < 0 {
		return -1, fmt.Errorf("%w: %w", ErrNoSocket, lastErr)
	}

	cmd := fmt.Sprintf(at.CmdSocketConnect, socket, ip, port)
	if _, err := m.exec(ctx, cmd, m.config.atTimeout, 64); err != nil {
		if _, cerr := m.exec(ctx, fmt.Sprintf(at.CmdSocketClose, socket), m.config.atTimeout, 64); cerr != nil {
			m.logger.Warn("Failed to close unconnected socket", "socket", socket, "error", cerr)
		}
		return -1, fmt.Errorf("connect socket %d to %s:%s: %w", socket, ip, port, err)
	}

	m.queue(socket).Reset()
	m.logger.Info("Socket connected", "socket", socket, "ip", ip, "port", port)
	return socket, nil
}

// WriteSocket sends data over socket and returns the number of bytes the
// modem accepted. At most one packet (maxPacketSize bytes) is sent per
// call; callers with more data call again with the remainder.
func (m *Modem) WriteSocket(ctx context.Context, socket int, data []byte) (int, error) {
	if len(data) > m.config.maxPacketSize {
		data = data[:m.config.maxPacketSize]
	}
	cmd := fmt.Sprintf(at.CmdSocketSend, socket, len(data), strings.ToUpper(hex.EncodeToString(data)))

	resp, err := m.exec(ctx, cmd, m.config.atTimeout, 64)
	if err != nil {
		return 0, fmt.Errorf("send on socket %d: %w", socket, err)
	}
	sent, err := at.ParseSendAck(resp)
	if err != nil {
		return 0, fmt.Errorf("send on socket %d: %w", socket, err)
	}
	return sent, nil
}

// ReadSocket moves up to len(p) queued bytes of socket into p and
// returns the count, 0 if nothing is queued. It never blocks; callers
// needing a fixed amount poll with their own backoff. Bytes overwritten
// while the queue was full are lost without notice.
func (m *Modem) ReadSocket(socket int, p []byte) int {
	q, ok := m.sockets.Load(socket)
	if !ok {
		return 0
	}
	return q.Pop(p)
}

// CloseSocket closes socket on the modem and discards its queue.
func (m *Modem) CloseSocket(ctx context.Context, socket int) error {
	_, err := m.exec(ctx, fmt.Sprintf(at.CmdSocketClose, socket), m.config.atTimeout, 64)
	if err != nil && !errors.Is(err, ErrNack) {
		return fmt.Errorf("close socket %d: %w", socket, err)
	}
	m.sockets.Delete(socket)
	if err != nil {
		return fmt.Errorf("close socket %d: %w", socket, err)
	}
	return nil
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
