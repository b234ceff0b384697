package at

import (
	"bytes"
	"errors"
)

// ErrLineTooLong is returned when a modem response line exceeds the
// maximum allowed length.
//
// This typically indicates malformed input, unexpected binary data,
// or a protocol framing error.
var ErrLineTooLong = errors.New("response line too long")

// LineBuffer reassembles modem output into lines, one byte at a time.
//
// A line is complete when a '\n' arrives and at least MinLineLength
// bytes, terminator included, have accumulated. A bare "\r\n" is not
// a line: it stays in the buffer and becomes the prefix of the next
// one, so completed lines keep the modem's framing verbatim.
//
// LineBuffer is not safe for concurrent use. It is meant to be owned
// by the single context that receives transport bytes.
type LineBuffer struct {
	buf []byte
	max int
}

// NewLineBuffer returns a LineBuffer holding at most max bytes.
func NewLineBuffer(max int) *LineBuffer {
	return &LineBuffer{
		buf: make([]byte, 0, max),
		max: max,
	}
}

// Push appends b and returns the completed line, if any. The returned
// slice is a copy owned by the caller.
//
// When the buffer is already full the accumulated bytes are discarded
// and ErrLineTooLong is returned. The transport must keep lines within
// the configured capacity; this only keeps a misbehaving stream from
// growing memory.
func (l *LineBuffer) Push(b byte) ([]byte, error) {
	if len(l.buf) >= l.max {
		l.Reset()
		return nil, ErrLineTooLong
	}
	l.buf = append(l.buf, b)

	if b != '\n' || len(l.buf) < MinLineLength {
		return nil, nil
	}

	line := bytes.Clone(l.buf)
	l.Reset()
	return line, nil
}

// Len reports the number of bytes waiting for a line terminator.
func (l *LineBuffer) Len() int {
	return len(l.buf)
}

// Reset drops any partial line.
func (l *LineBuffer) Reset() {
	l.buf = l.buf[:0]
}

// Classify identifies the nature of a completed modem line.
//
// Matching is by substring, the same way the BC28 firmware reports
// results: the token may be surrounded by CR/LF framing or prefixed by
// noise. Socket data notifications take priority over everything else
// because they can interleave with a pending command's response.
func Classify(line []byte) ResponseType {
	switch {
	case bytes.Contains(line, []byte(UrcSocketData)):
		return TypeURC
	case bytes.Contains(line, []byte(OK)):
		return TypeOK
	case bytes.Contains(line, []byte(ERROR)):
		return TypeError
	default:
		return TypeData
	}
}
