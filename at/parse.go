package at

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxIdentityLength bounds IMSI and IMEI strings.
const MaxIdentityLength = 19

// ErrMalformed is returned when a response does not have the expected
// shape. Parsers never index past the end of their input.
var ErrMalformed = errors.New("malformed response")

// Field returns the text following the index-th occurrence of sep, or
// false when s has fewer separators. Field(s, ',', 0) is s itself.
func Field(s string, sep byte, index int) (string, bool) {
	for range index {
		i := strings.IndexByte(s, sep)
		if i < 0 {
			return "", false
		}
		s = s[i+1:]
	}
	return s, true
}

// leadingInt parses the decimal digits at the start of s and returns
// the value and the number of digits consumed.
func leadingInt(s string) (int, int, error) {
	n := 0
	for n < len(s) && s[n] >= '0' && s[n] <= '9' {
		n++
	}
	if n == 0 {
		return 0, 0, fmt.Errorf("%w: expected digits in %q", ErrMalformed, s)
	}
	v, err := strconv.Atoi(s[:n])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return v, n, nil
}

// ParseSocketNotification extracts the socket handle and pending byte
// count from a "+NSONMI: <socket>,<size>" line.
func ParseSocketNotification(line []byte) (socket, size int, err error) {
	i := bytes.Index(line, []byte(UrcSocketData))
	if i < 0 {
		return 0, 0, fmt.Errorf("%w: no %s token", ErrMalformed, UrcSocketData)
	}
	rest := string(line[i+len(UrcSocketData):])
	rest = strings.TrimLeft(strings.TrimPrefix(rest, ":"), " ")

	socket, n, err := leadingInt(rest)
	if err != nil {
		return 0, 0, err
	}
	rest = rest[n:]
	if !strings.HasPrefix(rest, ",") {
		return 0, 0, fmt.Errorf("%w: missing size in %q", ErrMalformed, line)
	}
	size, _, err = leadingInt(rest[1:])
	if err != nil {
		return 0, 0, err
	}
	return socket, size, nil
}

// ParseReceiveRecord decodes an AT+NSORF response:
//
//	<socket>,<ip>,<port>,<count>,<hex data>,<remaining>
//
// The fourth field is the number of bytes returned; the hex payload
// that follows must hold exactly that many bytes.
func ParseReceiveRecord(resp string) ([]byte, error) {
	rest, ok := Field(resp, ',', 3)
	if !ok {
		return nil, fmt.Errorf("%w: receive record has fewer than 4 fields", ErrMalformed)
	}
	count, n, err := leadingInt(rest)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	rest = rest[n:]
	if !strings.HasPrefix(rest, ",") || len(rest) < 1+2*count {
		return nil, fmt.Errorf("%w: short payload for %d bytes", ErrMalformed, count)
	}
	data, err := hex.DecodeString(rest[1 : 1+2*count])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return data, nil
}

// ParseSendAck returns the byte count from an AT+NSOSD response of the
// form "<socket>,<sent>".
func ParseSendAck(resp string) (int, error) {
	rest, ok := Field(resp, ',', 1)
	if !ok {
		return 0, fmt.Errorf("%w: no byte count in %q", ErrMalformed, resp)
	}
	sent, _, err := leadingInt(rest)
	return sent, err
}

// ParseSocketID returns the handle reported by AT+NSOCR. The handle is
// the first printable token after the CR/LF framing.
func ParseSocketID(resp string) (int, error) {
	i := 0
	for i < len(resp) && resp[i] < '+' {
		i++
	}
	id, _, err := leadingInt(resp[i:])
	return id, err
}

// IsRegistered reports whether an AT+CEREG? response shows the device
// registered on its home network (state 1).
func IsRegistered(resp string) bool {
	rest, ok := Field(resp, ',', 1)
	return ok && strings.HasPrefix(rest, "1")
}

// ParseIMSI returns the digits line of an AT+CIMI response.
func ParseIMSI(resp string) string {
	s := strings.TrimLeft(resp, CRLF)
	if i := strings.IndexByte(s, '\r'); i >= 0 {
		s = s[:i]
	}
	return truncate(s, MaxIdentityLength)
}

// ParseIMEI returns the value after the colon of an AT+CGSN=1 response
// ("+CGSN:<digits>").
func ParseIMEI(resp string) string {
	i := strings.IndexByte(resp, ':')
	if i < 0 {
		return ""
	}
	s := resp[i+1:]
	if j := strings.IndexByte(s, '\r'); j >= 0 {
		s = s[:j]
	}
	return truncate(strings.TrimSpace(s), MaxIdentityLength)
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
