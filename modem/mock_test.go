package modem_test

import (
	"io"

	gomock "go.uber.org/mock/gomock"
	"i4.energy/across/nbiot/modem"
)

// MockSequenceBuilder scripts a MockTransport as a modem: every expected
// Write queues its reply, and the Loop's reader picks replies up
// through a single open-ended Read expectation.
type MockSequenceBuilder struct {
	transport *modem.MockTransport
	replies   chan string
	calls     []any
}

func NewMockSequence(transport *modem.MockTransport) *MockSequenceBuilder {
	return &MockSequenceBuilder{
		transport: transport,
		replies:   make(chan string, 32),
		calls:     []any{},
	}
}

// Expect adds a command and the modem's reply to it. An empty reply
// leaves the command unanswered.
func (b *MockSequenceBuilder) Expect(cmd, reply string) *MockSequenceBuilder {
	b.calls = append(b.calls,
		b.transport.EXPECT().Write([]byte(cmd)).DoAndReturn(func(p []byte) (int, error) {
			if reply != "" {
				b.replies <- reply
			}
			return len(p), nil
		}),
	)
	return b
}

func (b *MockSequenceBuilder) AT() *MockSequenceBuilder {
	return b.Expect("AT\r", "\r\nOK\r\n")
}

func (b *MockSequenceBuilder) IMSI(imsi string) *MockSequenceBuilder {
	return b.Expect("AT+CIMI\r", "\r\n"+imsi+"\r\n\r\nOK\r\n")
}

func (b *MockSequenceBuilder) IMEI(imei string) *MockSequenceBuilder {
	return b.Expect("AT+CGSN=1\r", "\r\n+CGSN:"+imei+"\r\n\r\nOK\r\n")
}

func (b *MockSequenceBuilder) Registration(state string) *MockSequenceBuilder {
	return b.Expect("AT+CEREG?\r", "\r\n+CEREG: 0,"+state+"\r\n\r\nOK\r\n")
}

// Reads installs the reader side. Reads block until a reply is queued
// and report EOF once the sequence is finished.
func (b *MockSequenceBuilder) Reads() *MockSequenceBuilder {
	b.transport.EXPECT().Read(gomock.Any()).DoAndReturn(func(p []byte) (int, error) {
		reply, ok := <-b.replies
		if !ok {
			return 0, io.EOF
		}
		return copy(p, reply), nil
	}).AnyTimes()
	return b
}

// Finish makes the reader return EOF after the queued replies.
func (b *MockSequenceBuilder) Finish() {
	close(b.replies)
}

func (b *MockSequenceBuilder) Build() []any {
	return b.calls
}
