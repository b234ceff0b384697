package mqtt

import "encoding/binary"

// ConnectOptions describes a CONNECT frame. Will messages are not
// supported; their flag bits are always clear.
type ConnectOptions struct {
	ClientID     string
	Username     string
	Password     string
	KeepAlive    uint16 // seconds
	CleanSession bool
}

// Publish describes an outbound PUBLISH frame.
type Publish struct {
	Topic   string
	Payload []byte
	QoS     byte
	Retain  bool
	Dup     bool
	// MessageID is written as a single byte when QoS > 0. Device
	// firmware talking to this codec's peers expects that layout, which
	// differs from the two-byte packet identifier of MQTT 3.1.1.
	MessageID byte
}

// EncodeRemainingLength writes v as an MQTT variable-length integer and
// returns the number of bytes used, 0 if v is out of range or dst is
// too short.
func EncodeRemainingLength(dst []byte, v int) int {
	if v < 0 || v > MaxRemainingLength {
		return 0
	}
	n := 0
	for {
		if n >= len(dst) {
			return 0
		}
		b := byte(v % 128)
		v /= 128
		if v > 0 {
			b |= 0x80
		}
		dst[n] = b
		n++
		if v == 0 {
			return n
		}
	}
}

// remainingLengthSize is the encoded size of v.
func remainingLengthSize(v int) int {
	switch {
	case v < 128:
		return 1
	case v < 16_384:
		return 2
	case v < 2_097_152:
		return 3
	}
	return 4
}

// writer appends to a fixed buffer and remembers whether it overflowed.
type writer struct {
	buf []byte
	n   int
	bad bool
}

func (w *writer) byte(b byte) {
	if w.n >= len(w.buf) {
		w.bad = true
		return
	}
	w.buf[w.n] = b
	w.n++
}

func (w *writer) uint16(v uint16) {
	if len(w.buf)-w.n < 2 {
		w.bad = true
		return
	}
	binary.BigEndian.PutUint16(w.buf[w.n:], v)
	w.n += 2
}

func (w *writer) bytes(p []byte) {
	if len(w.buf)-w.n < len(p) {
		w.bad = true
		return
	}
	w.n += copy(w.buf[w.n:], p)
}

// string writes a length-prefixed UTF-8 string.
func (w *writer) string(s string) {
	if len(s) > maxStringLength {
		w.bad = true
		return
	}
	w.uint16(uint16(len(s)))
	w.bytes([]byte(s))
}

func (w *writer) fixedHeader(first byte, remaining int) {
	w.byte(first)
	if w.bad {
		return
	}
	n := EncodeRemainingLength(w.buf[w.n:], remaining)
	if n == 0 {
		w.bad = true
		return
	}
	w.n += n
}

func (w *writer) result() int {
	if w.bad {
		return 0
	}
	return w.n
}

// EncodeConnect writes a CONNECT frame. The user name and password are
// sent only when non-empty.
func EncodeConnect(dst []byte, o ConnectOptions) int {
	var flags byte
	// protocol name, level, flags, keep-alive
	remaining := 2 + len(ProtocolName) + 1 + 1 + 2
	remaining += 2 + len(o.ClientID)
	if o.Username != "" {
		flags |= 0x80
		remaining += 2 + len(o.Username)
	}
	if o.Password != "" {
		flags |= 0x40
		remaining += 2 + len(o.Password)
	}
	if o.CleanSession {
		flags |= 0x02
	}

	w := writer{buf: dst}
	w.fixedHeader(header(TypeConnect, false, 0, false), remaining)
	w.string(ProtocolName)
	w.byte(ProtocolLevel)
	w.byte(flags)
	w.uint16(o.KeepAlive)
	w.string(o.ClientID)
	if o.Username != "" {
		w.string(o.Username)
	}
	if o.Password != "" {
		w.string(o.Password)
	}
	return w.result()
}

// EncodePublish writes a PUBLISH frame. The payload follows the topic
// without a length prefix. An empty topic yields 0.
func EncodePublish(dst []byte, p Publish) int {
	if p.Topic == "" || p.QoS > 2 {
		return 0
	}
	remaining := 2 + len(p.Topic) + len(p.Payload)
	if p.QoS > 0 {
		remaining++
	}

	w := writer{buf: dst}
	w.fixedHeader(header(TypePublish, p.Dup, p.QoS, p.Retain), remaining)
	w.string(p.Topic)
	if p.QoS > 0 {
		w.byte(p.MessageID)
	}
	w.bytes(p.Payload)
	return w.result()
}

// EncodeSubscribe writes a SUBSCRIBE frame for a single topic at QoS 0.
func EncodeSubscribe(dst []byte, topic string) int {
	if topic == "" {
		return 0
	}
	remaining := 2 + 2 + len(topic) + 1

	w := writer{buf: dst}
	// SUBSCRIBE requires the reserved flag bits 0010.
	w.fixedHeader(header(TypeSubscribe, false, 1, false), remaining)
	w.uint16(SubscribePacketID)
	w.string(topic)
	w.byte(0)
	return w.result()
}

// EncodePingReq writes the 2-byte PINGREQ frame.
func EncodePingReq(dst []byte) int {
	return encodeEmpty(dst, TypePingReq)
}

// EncodeDisconnect writes the 2-byte DISCONNECT frame.
func EncodeDisconnect(dst []byte) int {
	return encodeEmpty(dst, TypeDisconnect)
}

func encodeEmpty(dst []byte, t MessageType) int {
	if len(dst) < 2 {
		return 0
	}
	dst[0] = header(t, false, 0, false)
	dst[1] = 0
	return 2
}

// FrameSize returns the full size of a frame whose remaining length is
// remaining.
func FrameSize(remaining int) int {
	return 1 + remainingLengthSize(remaining) + remaining
}
