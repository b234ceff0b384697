package modem

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"i4.energy/across/nbiot/at"
)

// Outcome is the result of a command exchange.
type Outcome int

const (
	// OutcomeNone means no terminal line arrived: the command timed out
	// or never got the command slot.
	OutcomeNone Outcome = iota
	OutcomeAck
	OutcomeNack
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAck:
		return "ack"
	case OutcomeNack:
		return "nack"
	default:
		return "none"
	}
}

// OutcomeOf maps an error returned by Exec back to the command outcome.
func OutcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeAck
	case errors.Is(err, ErrNack):
		return OutcomeNack
	default:
		return OutcomeNone
	}
}

// pendingCommand is the single in-flight command. The ingestion path
// appends response lines to it until a terminal line closes done.
type pendingCommand struct {
	cmd     string
	resp    []byte
	limit   int
	outcome Outcome
	done    chan struct{}
}

// deliver appends a response line to the pending command, if any, and
// reports whether one was waiting.
func (m *Modem) deliver(line []byte) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.pending
	if p == nil {
		return false
	}

	// Overflow is silently truncated; the terminal token still counts.
	room := p.limit - len(p.resp)
	p.resp = append(p.resp, line[:min(room, len(line))]...)

	if p.outcome != OutcomeNone {
		return true
	}
	switch at.Classify(line) {
	case at.TypeOK:
		p.outcome = OutcomeAck
		close(p.done)
	case at.TypeError:
		p.outcome = OutcomeNack
		close(p.done)
	}
	return true
}

// Exec sends an AT command and waits up to timeout for OK or ERROR.
// A missing carriage return is appended. The returned text is every
// response line received for the command, terminal line included.
//
// Only one command is in flight at a time across the application and
// the socket dispatcher. A caller that cannot get the command slot
// within the busy wait fails with ErrBusy. Other failures are
// ErrTimeout and ErrNack; all three are ordinary outcomes on a
// cellular link and the caller decides whether to retry.
func (m *Modem) Exec(ctx context.Context, cmd string, timeout time.Duration) (string, error) {
	return m.exec(ctx, cmd, timeout, m.config.maxLineLength)
}

func (m *Modem) exec(ctx context.Context, cmd string, timeout time.Duration, limit int) (string, error) {
	if m.closed.Load() {
		return "", ErrAlreadyClosed
	}
	if m.transport == nil {
		return "", ErrNotInitialized
	}

	if err := m.acquire(ctx); err != nil {
		return "", err
	}
	defer m.release()

	p := &pendingCommand{
		cmd:   cmd,
		resp:  make([]byte, 0, min(limit, 256)),
		limit: limit,
		done:  make(chan struct{}),
	}
	m.mu.Lock()
	m.pending = p
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.pending = nil
		m.mu.Unlock()
	}()

	if err := m.write(cmd); err != nil {
		return "", err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var waitErr error
	select {
	case <-p.done:
	case <-timer.C:
		waitErr = ErrTimeout
	case <-ctx.Done():
		waitErr = ctx.Err()
	case <-m.loopCtx.Done():
		waitErr = ErrAlreadyClosed
	}

	m.mu.Lock()
	resp, outcome := string(p.resp), p.outcome
	m.mu.Unlock()

	m.logger.Debug("AT exchange", "command", strings.TrimSpace(cmd), "outcome", outcome)

	switch outcome {
	case OutcomeAck:
		return resp, nil
	case OutcomeNack:
		return resp, fmt.Errorf("%w: %q", ErrNack, strings.TrimSpace(resp))
	}
	if waitErr == ErrTimeout {
		return resp, fmt.Errorf("command %q: %w", strings.TrimSpace(cmd), ErrTimeout)
	}
	return resp, waitErr
}

// send writes a command under the command slot without waiting for a
// reply. It is used for commands the modem does not answer reliably,
// such as a reboot.
func (m *Modem) send(ctx context.Context, cmd string) error {
	if m.closed.Load() {
		return ErrAlreadyClosed
	}
	if m.transport == nil {
		return ErrNotInitialized
	}
	if err := m.acquire(ctx); err != nil {
		return err
	}
	defer m.release()

	return m.write(cmd)
}

func (m *Modem) write(cmd string) error {
	if _, err := m.transport.Write([]byte(cmd)); err != nil {
		return fmt.Errorf("write command %q: %w", strings.TrimSpace(cmd), err)
	}
	if !strings.Contains(cmd, at.CR) {
		if _, err := m.transport.Write([]byte(at.CR)); err != nil {
			return fmt.Errorf("write command terminator: %w", err)
		}
	}
	return nil
}

// acquire takes the command slot, parking for at most the busy wait.
func (m *Modem) acquire(ctx context.Context) error {
	select {
	case m.slot <- struct{}{}:
		return nil
	default:
	}

	timer := time.NewTimer(m.config.busyWait)
	defer timer.Stop()

	select {
	case m.slot <- struct{}{}:
		return nil
	case <-timer.C:
		return ErrBusy
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Modem) release() {
	<-m.slot
}
