package modem

import (
	"context"
	"io"
	"strings"
	"sync"
)

// Responder produces the modem's reply to one carriage-return
// terminated command. An empty reply means the modem stays silent.
type Responder func(cmd string) string

// TestTransport is a test helper that simulates a blocking transport using channels.
// This is needed because the Loop's reader goroutine continuously reads from the transport,
// and we need reads to block until data is available (like a real serial port would).
//
// Written commands are split on '\r', recorded and, when a Responder is
// set, answered through the read side, which makes the transport a
// small scripted modem.
type TestTransport struct {
	mu        sync.Mutex
	readChan  chan []byte
	closed    bool
	rest      []byte
	partial   strings.Builder
	commands  []string
	responder Responder
}

// NewTestTransport creates a new test transport for testing.
// Exported for use in tests.
func NewTestTransport(r Responder) *TestTransport {
	return &TestTransport{
		readChan:  make(chan []byte, 64),
		responder: r,
	}
}

// Dial makes the transport its own Dialer.
func (t *TestTransport) Dial(context.Context) (Transport, error) {
	return t, nil
}

func (t *TestTransport) Write(p []byte) (n int, err error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return 0, io.ErrClosedPipe
	}
	var replies []string
	for _, b := range p {
		t.partial.WriteByte(b)
		if b != '\r' {
			continue
		}
		cmd := t.partial.String()
		t.partial.Reset()
		t.commands = append(t.commands, cmd)
		if t.responder != nil {
			if reply := t.responder(cmd); reply != "" {
				replies = append(replies, reply)
			}
		}
	}
	t.mu.Unlock()

	for _, reply := range replies {
		t.SendData(reply)
	}
	return len(p), nil
}

// Read is only called from the Loop's reader goroutine.
func (t *TestTransport) Read(p []byte) (n int, err error) {
	if len(t.rest) == 0 {
		data, ok := <-t.readChan
		if !ok {
			return 0, io.EOF
		}
		t.rest = data
	}
	n = copy(p, t.rest)
	t.rest = t.rest[n:]
	return n, nil
}

func (t *TestTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	close(t.readChan)
	return nil
}

// SendData queues data to be read by the transport.
// This simulates receiving data from the modem.
func (t *TestTransport) SendData(data string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.readChan <- []byte(data)
	}
}

// Commands returns the commands written so far, terminators included.
func (t *TestTransport) Commands() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.commands...)
}
