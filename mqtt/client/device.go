package client

//go:generate go tool mockgen -destination=mock_device_test.go -package=client . Device

import (
	"context"

	"i4.energy/across/nbiot/modem"
)

// Device is the socket surface of the modem the client runs on.
// *modem.Modem satisfies it.
type Device interface {
	WaitReady(ctx context.Context) error
	Reboot(ctx context.Context) error
	Identity() modem.Identity

	OpenSocket(ctx context.Context, ip, port string) (int, error)
	WriteSocket(ctx context.Context, socket int, data []byte) (int, error)
	ReadSocket(socket int, p []byte) int
	CloseSocket(ctx context.Context, socket int) error
	SetSocketListener(l modem.SocketListener)
}

var _ Device = (*modem.Modem)(nil)
