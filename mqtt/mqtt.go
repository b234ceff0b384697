// Package mqtt encodes and decodes the MQTT 3.1.1 frames a constrained
// client needs: CONNECT, PUBLISH, SUBSCRIBE, PINGREQ and DISCONNECT on
// the way out, PUBLISH and CONNACK on the way in.
//
// All functions work on caller-supplied buffers and keep no state.
// Encoders return the number of bytes written, or 0 when the frame
// does not fit.
package mqtt

import (
	"errors"
	"fmt"
)

// MessageType is the control packet type carried in the high nibble of
// the first header byte.
type MessageType byte

const (
	TypeReserved MessageType = iota
	TypeConnect
	TypeConnAck
	TypePublish
	TypePubAck
	TypePubRec
	TypePubRel
	TypePubComp
	TypeSubscribe
	TypeSubAck
	TypeUnsubscribe
	TypeUnsubAck
	TypePingReq
	TypePingResp
	TypeDisconnect
)

var typeNames = [...]string{
	"RESERVED", "CONNECT", "CONNACK", "PUBLISH", "PUBACK", "PUBREC", "PUBREL",
	"PUBCOMP", "SUBSCRIBE", "SUBACK", "UNSUBSCRIBE", "UNSUBACK", "PINGREQ",
	"PINGRESP", "DISCONNECT",
}

func (t MessageType) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("MessageType(%d)", byte(t))
}

const (
	// ProtocolName and ProtocolLevel identify MQTT 3.1.1 in CONNECT.
	ProtocolName  = "MQTT"
	ProtocolLevel = 4

	// MaxRemainingLength is the largest value the 4-byte remaining
	// length field can carry.
	MaxRemainingLength = 268_435_455

	// SubscribePacketID is the packet identifier of every SUBSCRIBE.
	SubscribePacketID = 0x0001

	maxStringLength = 0xFFFF
)

// ConnAckCode is the return code of a CONNACK.
type ConnAckCode int

const (
	// NotConnAck is returned by CheckConnAck for anything that is not a
	// complete CONNACK frame.
	NotConnAck ConnAckCode = -1

	Accepted ConnAckCode = iota - 1
	UnacceptableProtocolVersion
	IdentifierRejected
	ServerUnavailable
	BadUsernameOrPassword
	NotAuthorized
)

func (c ConnAckCode) String() string {
	switch c {
	case NotConnAck:
		return "not a CONNACK"
	case Accepted:
		return "connection accepted"
	case UnacceptableProtocolVersion:
		return "unacceptable protocol version"
	case IdentifierRejected:
		return "identifier rejected"
	case ServerUnavailable:
		return "server unavailable"
	case BadUsernameOrPassword:
		return "bad user name or password"
	case NotAuthorized:
		return "not authorized"
	}
	return fmt.Sprintf("connack code %d", int(c))
}

var (
	// ErrNotPublish is returned by DecodePublish for a frame of another type.
	ErrNotPublish = errors.New("mqtt: not a PUBLISH frame")

	// ErrMalformed is returned when a frame is truncated or its lengths
	// are inconsistent.
	ErrMalformed = errors.New("mqtt: malformed frame")
)

// header builds the first byte of a fixed header.
func header(t MessageType, dup bool, qos byte, retain bool) byte {
	b := byte(t)<<4 | (qos&0x03)<<1
	if dup {
		b |= 0x08
	}
	if retain {
		b |= 0x01
	}
	return b
}

// TypeOf returns the message type of msg, TypeReserved when msg is empty.
func TypeOf(msg []byte) MessageType {
	if len(msg) == 0 {
		return TypeReserved
	}
	return MessageType(msg[0] >> 4)
}
