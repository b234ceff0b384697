package client

import (
	"errors"
	"fmt"

	"i4.energy/across/nbiot/mqtt"
)

var (
	// ErrNotConnected is returned by operations that need an open session.
	ErrNotConnected = errors.New("mqtt client not connected")

	// ErrAlreadyConnected is returned by Connect on an open session.
	ErrAlreadyConnected = errors.New("mqtt client already connected")

	// ErrNoClientID is returned when no client id is configured and the
	// modem reported no IMSI to fall back to.
	ErrNoClientID = errors.New("no client id")

	// ErrEncode is returned when a frame does not fit the encoder's
	// constraints, for example an empty topic.
	ErrEncode = errors.New("cannot encode frame")

	// ErrAckTimeout is returned when the broker does not acknowledge a
	// CONNECT or SUBSCRIBE within the ack timeout.
	ErrAckTimeout = errors.New("no acknowledgement from broker")

	// ErrSubscribeRefused is returned when the SUBACK reports failure.
	ErrSubscribeRefused = errors.New("subscription refused")

	// ErrPingTimeout is returned by KeepAlive when a PINGREQ goes
	// unanswered. The session should be re-established.
	ErrPingTimeout = errors.New("ping response timed out")
)

// ConnAckError reports a CONNECT refused by the broker.
type ConnAckError struct {
	Code mqtt.ConnAckCode
}

func (e *ConnAckError) Error() string {
	return fmt.Sprintf("connection refused: %s", e.Code)
}
