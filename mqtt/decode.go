package mqtt

import (
	"encoding/binary"
	"fmt"
)

// DecodeRemainingLength reads a variable-length integer from the start
// of src and returns its value and encoded size.
func DecodeRemainingLength(src []byte) (int, int, error) {
	v, mult := 0, 1
	for i := range 4 {
		if i >= len(src) {
			return 0, 0, fmt.Errorf("%w: truncated remaining length", ErrMalformed)
		}
		b := src[i]
		v += int(b&0x7F) * mult
		if b&0x80 == 0 {
			return v, i + 1, nil
		}
		mult *= 128
	}
	return 0, 0, fmt.Errorf("%w: remaining length exceeds 4 bytes", ErrMalformed)
}

// DecodePublish extracts the topic and payload of a PUBLISH frame. The
// payload aliases msg.
//
// For QoS 1 and 2 frames the two-byte packet identifier a broker sends
// is skipped. This makes DecodePublish not the inverse of EncodePublish
// for QoS > 0, whose one-byte MessageID would eat a payload byte.
func DecodePublish(msg []byte) (string, []byte, error) {
	if TypeOf(msg) != TypePublish {
		return "", nil, ErrNotPublish
	}
	qos := (msg[0] >> 1) & 0x03

	remaining, n, err := DecodeRemainingLength(msg[1:])
	if err != nil {
		return "", nil, err
	}
	body := msg[1+n:]
	if len(body) < remaining {
		return "", nil, fmt.Errorf("%w: frame holds %d of %d bytes", ErrMalformed, len(body), remaining)
	}
	body = body[:remaining]

	if len(body) < 2 {
		return "", nil, fmt.Errorf("%w: missing topic length", ErrMalformed)
	}
	topicLen := int(binary.BigEndian.Uint16(body))
	body = body[2:]
	if len(body) < topicLen {
		return "", nil, fmt.Errorf("%w: topic exceeds frame", ErrMalformed)
	}
	topic := string(body[:topicLen])
	body = body[topicLen:]

	if qos > 0 {
		if len(body) < 2 {
			return "", nil, fmt.Errorf("%w: missing packet identifier", ErrMalformed)
		}
		body = body[2:]
	}
	return topic, body, nil
}

// CheckConnAck returns the return code of a CONNACK frame, or
// NotConnAck for any other or truncated input.
func CheckConnAck(msg []byte) ConnAckCode {
	if len(msg) < 4 || TypeOf(msg) != TypeConnAck {
		return NotConnAck
	}
	return ConnAckCode(msg[3])
}

// FrameLength reports how many bytes the frame at the start of msg
// occupies. ok is false until the whole frame is present.
func FrameLength(msg []byte) (n int, ok bool) {
	if len(msg) < 2 {
		return 0, false
	}
	remaining, size, err := DecodeRemainingLength(msg[1:])
	if err != nil {
		return 0, false
	}
	n = 1 + size + remaining
	return n, len(msg) >= n
}
