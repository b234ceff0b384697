package modem

import (
	"context"
	"fmt"

	"i4.energy/across/nbiot/at"
)

// Identity holds the subscriber and equipment identifiers read during Init.
type Identity struct {
	IMSI string
	IMEI string
}

// Init checks that the modem answers and reads its IMSI and IMEI.
// Loop must be running. The liveness check is repeated every poll
// interval for up to the ready timeout; an ERROR answer counts as alive.
//
// Failing to read the identity is logged but does not fail Init.
func (m *Modem) Init(ctx context.Context) error {
	attempts := max(int(m.config.readyTimeout/m.config.pollInterval), 1)
	if _, err := m.ping(ctx, attempts); err != nil {
		return err
	}

	var id Identity
	if resp, err := m.exec(ctx, at.CmdIMSI, m.config.pollInterval, 64); err == nil {
		id.IMSI = at.ParseIMSI(resp)
	} else {
		m.logger.Warn("Failed to read IMSI", "error", err)
	}
	if resp, err := m.exec(ctx, at.CmdIMEI, m.config.pollInterval, 64); err == nil {
		id.IMEI = at.ParseIMEI(resp)
	} else {
		m.logger.Warn("Failed to read IMEI", "error", err)
	}

	m.identityMu.Lock()
	m.identity = id
	m.identityMu.Unlock()

	m.logger.Info("Modem initialized", "imsi", id.IMSI, "imei", id.IMEI)
	return nil
}

// Identity returns the identifiers read by the last successful Init.
func (m *Modem) Identity() Identity {
	m.identityMu.RLock()
	defer m.identityMu.RUnlock()
	return m.identity
}

// Reboot restarts the modem and runs Init again once it is back. The
// reboot command is not acknowledged; the modem is given the reboot
// delay to come up before the liveness checks start.
//
// Rebooting is the last-resort recovery when sockets cannot be opened.
func (m *Modem) Reboot(ctx context.Context) error {
	m.logger.Info("Rebooting modem")
	if err := m.send(ctx, at.CmdReboot); err != nil {
		return fmt.Errorf("reboot: %w", err)
	}
	if err := sleep(ctx, m.config.rebootDelay); err != nil {
		return err
	}
	return m.Init(ctx)
}

// WaitReady blocks until the modem answers and reports registration on
// the network, polling within the ready timeout. Call it before
// opening sockets.
func (m *Modem) WaitReady(ctx context.Context) error {
	attempts := int(m.config.readyTimeout/m.config.pollInterval) + 1

	used, err := m.ping(ctx, attempts)
	if err != nil {
		return err
	}

	for range attempts - used {
		resp, err := m.exec(ctx, at.CmdRegistration, m.config.pollInterval, 64)
		if err == nil && at.IsRegistered(resp) {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := sleep(ctx, m.config.pollInterval); err != nil {
			return err
		}
	}
	return ErrNotRegistered
}

// ping sends the liveness check up to attempts times and returns the
// number of attempts used.
func (m *Modem) ping(ctx context.Context, attempts int) (int, error) {
	for i := range attempts {
		_, err := m.exec(ctx, at.CmdAt, m.config.pollInterval, 64)
		if OutcomeOf(err) != OutcomeNone {
			return i + 1, nil
		}
		if ctx.Err() != nil {
			return i + 1, ctx.Err()
		}
		if i < attempts-1 {
			if err := sleep(ctx, m.config.pollInterval); err != nil {
				return i + 1, err
			}
		}
	}
	return attempts, ErrNotResponding
}
