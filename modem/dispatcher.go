package modem

import (
	"context"
	"fmt"

	"i4.energy/across/nbiot/at"
)

// Notification reports that the modem holds Size bytes of incoming data
// for Socket.
type Notification struct {
	Socket int
	Size   int
}

// SocketListener is told about socket data after the dispatcher has
// moved it into the socket's receive queue. It runs in its own
// goroutine and typically drains the queue with ReadSocket.
type SocketListener func(Notification)

// SetSocketListener registers l for socket data notifications,
// replacing any previous listener. A nil l removes it. Data is queued
// whether or not a listener is set.
func (m *Modem) SetSocketListener(l SocketListener) {
	if l == nil {
		m.listener.Store(nil)
		return
	}
	m.listener.Store(&l)
}

// dispatch serves socket data notifications until ctx is done. It runs
// off the ingestion path so that reading the data, which needs the
// command slot, never stalls byte intake.
func (m *Modem) dispatch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-m.notifications:
			got, err := m.pull(ctx, n)
			if err != nil {
				m.logger.Warn("Socket read aborted",
					"socket", n.Socket, "size", n.Size, "received", got, "error", err)
			} else {
				m.logger.Debug("Socket data queued", "socket", n.Socket, "size", got)
			}

			if l := m.listener.Load(); l != nil {
				go (*l)(n)
			}
		}
	}
}

// pull reads n.Size bytes from the modem in chunks of at most
// maxPacketSize and pushes them into the socket's queue. It stops at
// the first failed or empty read; bytes queued so far stay available.
func (m *Modem) pull(ctx context.Context, n Notification) (int, error) {
	q := m.queue(n.Socket)
	dropped := q.Dropped()
	received := 0
	defer func() {
		// A reopen may Reset the queue meanwhile, so compare before subtracting.
		if d := q.Dropped(); d > dropped {
			m.logger.Warn("Socket receive queue overflow", "socket", n.Socket, "dropped", d-dropped)
		}
	}()

	for received < n.Size {
		want := min(n.Size-received, m.config.maxPacketSize)
		cmd := fmt.Sprintf(at.CmdSocketRead, n.Socket, want)

		resp, err := m.exec(ctx, cmd, m.config.atTimeout, m.config.maxLineLength)
		if err != nil {
			return received, err
		}

		data, err := at.ParseReceiveRecord(resp)
		if err != nil {
			return received, err
		}
		if len(data) == 0 {
			break
		}

		q.Push(data)
		received += len(data)
	}

	return received, nil
}
