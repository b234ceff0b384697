package cmd

import (
	"context"
	"errors"
	"io"

	"i4.energy/across/nbiot/modem"
)

// openModem connects to the modem, starts reading it and runs Init.
// The returned wait function closes the modem and reports how Loop
// ended.
func openModem(ctx context.Context) (*modem.Modem, func() error, error) {
	modemConfig, err := modem.NewConfigBuilder().
		WithDialer(modem.SerialDialer{
			PortName: config.SerialPort,
			BaudRate: config.BaudRate,
		}).
		WithLogger(logger.With("component", "modem")).
		Build()
	if err != nil {
		return nil, nil, err
	}

	m, err := modem.New(ctx, modemConfig)
	if err != nil {
		return nil, nil, err
	}

	loopDone := make(chan error, 1)
	go func() {
		loopDone <- m.Loop(ctx)
	}()

	closeModem := func() error {
		if err := m.Close(); err != nil && !errors.Is(err, modem.ErrAlreadyClosed) {
			return err
		}
		if err := <-loopDone; err != nil &&
			!errors.Is(err, modem.ErrAlreadyClosed) &&
			!errors.Is(err, context.Canceled) &&
			!errors.Is(err, io.EOF) {
			return err
		}
		return nil
	}

	if err := m.Init(ctx); err != nil {
		closeModem()
		return nil, nil, err
	}
	return m, closeModem, nil
}
