package modem

import (
	"errors"

	"i4.energy/across/nbiot/at"
)

var (
	// ErrNoDialer is returned when a Modem is constructed without a Dialer.
	//
	// This indicates a configuration error. A Dialer is required in order to
	// establish a connection to the modem.
	ErrNoDialer = errors.New("no dialer configured")

	// ErrNotInitialized is returned when an operation is attempted on a Modem
	// that has no transport.
	//
	// This can occur if the Dialer returned a nil Transport or if the Modem
	// was not created via New.
	ErrNotInitialized = errors.New("modem not initialized")

	// ErrAlreadyClosed is returned when Close is called on a Modem that has
	// already been closed.
	ErrAlreadyClosed = errors.New("modem already closed")

	// ErrLoopRunning is returned when Loop is called while another Loop is
	// already reading the transport.
	ErrLoopRunning = errors.New("loop already running")

	// ErrTimeout is returned when no terminal line (OK or ERROR) arrives
	// within the command timeout. It is an expected outcome on a cellular
	// link and callers should retry.
	ErrTimeout = errors.New("no response from modem")

	// ErrNack is returned when the modem answers a command with ERROR.
	// Retrying without correcting the command usually fails again.
	ErrNack = errors.New("modem returned ERROR")

	// ErrBusy is returned when the command slot stays held by another
	// exchange for longer than the busy wait. It is retriable.
	ErrBusy = errors.New("command slot busy")

	// ErrNotResponding is returned by Init and WaitReady when the modem
	// never answers the liveness check.
	ErrNotResponding = errors.New("modem not responding")

	// ErrNotRegistered is returned by WaitReady when the modem answers but
	// does not register on the network in time.
	ErrNotRegistered = errors.New("not registered on network")

	// ErrNoSocket is returned when the modem refuses to create a socket
	// after all attempts.
	ErrNoSocket = errors.New("socket not created")

	// ErrLineTooLong is returned when a modem response line exceeds the
	// maximum allowed length.
	ErrLineTooLong = at.ErrLineTooLong
)
