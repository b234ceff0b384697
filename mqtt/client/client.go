// Package client runs an MQTT session over a socket of the NB-IoT modem.
//
// A Client owns one TCP socket. CONNECT and its CONNACK are exchanged by
// polling the socket's receive queue; once connected, incoming bytes are
// handled by a socket listener that splits them into frames, hands
// PUBLISH frames to the subscription handler and wakes the goroutines
// waiting for SUBACK and PINGRESP.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"i4.energy/across/nbiot/modem"
	"i4.energy/across/nbiot/mqtt"
)

const (
	DefaultKeepAlive    = 60 * time.Second
	DefaultPollInterval = 200 * time.Millisecond
	DefaultAckTimeout   = 10 * time.Second

	// maxInbox bounds the bytes held while a frame is incomplete.
	maxInbox = 8 << 10
)

// Handler receives the topic and payload of an incoming PUBLISH. The
// payload is only valid during the call.
type Handler func(topic string, payload []byte)

// Options configure a Client. Zero values select the defaults.
type Options struct {
	Host string
	Port string

	// ClientID defaults to the modem's IMSI.
	ClientID     string
	Username     string
	Password     string
	KeepAlive    time.Duration
	CleanSession bool

	// PingInterval is the idle time after which KeepAlive sends PINGREQ.
	// Unset or not below KeepAlive, it becomes five sixths of KeepAlive.
	PingInterval time.Duration
	// PollInterval paces CONNACK polling and idle checks.
	PollInterval time.Duration
	// AckTimeout bounds the wait for CONNACK, SUBACK and PINGRESP.
	AckTimeout time.Duration

	Logger *slog.Logger
}

func (o *Options) setDefaults() {
	if o.KeepAlive == 0 {
		o.KeepAlive = DefaultKeepAlive
	}
	if o.PingInterval == 0 || o.PingInterval >= o.KeepAlive {
		o.PingInterval = o.KeepAlive * 5 / 6
	}
	if o.PollInterval == 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.AckTimeout == 0 {
		o.AckTimeout = DefaultAckTimeout
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
}

// Client is an MQTT 3.1.1 session over a modem socket. All methods are
// safe for concurrent use.
type Client struct {
	dev    Device
	opts   Options
	logger *slog.Logger

	mu       sync.Mutex
	socket   int
	lastSend time.Time
	handler  Handler
	msgID    byte

	// inboxMu serializes listener invocations
	inboxMu sync.Mutex
	inbox   []byte

	subAck   chan byte
	pingResp chan struct{}
}

// New returns a disconnected client for dev.
func New(dev Device, opts Options) *Client {
	opts.setDefaults()
	return &Client{
		dev:      dev,
		opts:     opts,
		logger:   opts.Logger,
		socket:   -1,
		subAck:   make(chan byte, 1),
		pingResp: make(chan struct{}, 1),
	}
}

// Connected reports whether a session is open.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.socket >= 0
}

// Connect waits for network registration, opens a socket to the broker
// and performs the CONNECT exchange.
//
// When the socket cannot be opened the modem is rebooted before the
// error is returned, so the next attempt starts from a fresh modem.
// A refused CONNECT returns a *ConnAckError.
func (c *Client) Connect(ctx context.Context) error {
	if c.Connected() {
		return ErrAlreadyConnected
	}

	clientID := c.opts.ClientID
	if clientID == "" {
		clientID = c.dev.Identity().IMSI
	}
	if clientID == "" {
		return ErrNoClientID
	}

	if err := c.dev.WaitReady(ctx); err != nil {
		return fmt.Errorf("wait for network: %w", err)
	}

	frame := make([]byte, 64+len(clientID)+len(c.opts.Username)+len(c.opts.Password))
	n := mqtt.EncodeConnect(frame, mqtt.ConnectOptions{
		ClientID:     clientID,
		Username:     c.opts.Username,
		Password:     c.opts.Password,
		KeepAlive:    uint16(min(c.opts.KeepAlive/time.Second, 0xFFFF)),
		CleanSession: c.opts.CleanSession,
	})
	if n == 0 {
		return fmt.Errorf("CONNECT: %w", ErrEncode)
	}

	socket, err := c.dev.OpenSocket(ctx, c.opts.Host, c.opts.Port)
	if err != nil {
		c.logger.Warn("Socket open failed, rebooting modem", "error", err)
		if rerr := c.dev.Reboot(ctx); rerr != nil {
			c.logger.Error("Modem reboot failed", "error", rerr)
		}
		return fmt.Errorf("open socket: %w", err)
	}

	if err := c.write(ctx, socket, frame[:n]); err != nil {
		c.abort(ctx, socket)
		return fmt.Errorf("send CONNECT: %w", err)
	}

	code, err := c.awaitConnAck(ctx, socket)
	if err != nil {
		c.abort(ctx, socket)
		return err
	}
	if code != mqtt.Accepted {
		c.abort(ctx, socket)
		return &ConnAckError{Code: code}
	}

	c.inboxMu.Lock()
	c.inbox = c.inbox[:0]
	c.inboxMu.Unlock()

	c.mu.Lock()
	c.socket = socket
	c.lastSend = time.Now()
	c.mu.Unlock()

	c.dev.SetSocketListener(c.onData)
	c.logger.Info("MQTT session established", "host", c.opts.Host, "port", c.opts.Port, "client_id", clientID)
	return nil
}

// awaitConnAck polls the socket until the 4-byte CONNACK is complete.
func (c *Client) awaitConnAck(ctx context.Context, socket int) (mqtt.ConnAckCode, error) {
	buf := make([]byte, 4)
	got := 0

	deadline := time.NewTimer(c.opts.AckTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()

	for {
		got += c.dev.ReadSocket(socket, buf[got:])
		if got == len(buf) {
			return mqtt.CheckConnAck(buf), nil
		}

		select {
		case <-ctx.Done():
			return mqtt.NotConnAck, ctx.Err()
		case <-deadline.C:
			return mqtt.NotConnAck, fmt.Errorf("CONNACK: %w", ErrAckTimeout)
		case <-ticker.C:
		}
	}
}

// Publish sends payload to topic. Frames larger than one modem packet
// are written in several socket sends.
func (c *Client) Publish(ctx context.Context, topic string, payload []byte, qos byte, retain bool) error {
	socket, err := c.current()
	if err != nil {
		return err
	}

	p := mqtt.Publish{Topic: topic, Payload: payload, QoS: qos, Retain: retain}
	if qos > 0 {
		p.MessageID = c.nextMessageID()
	}

	frame := make([]byte, mqtt.FrameSize(2+len(topic)+1+len(payload)))
	n := mqtt.EncodePublish(frame, p)
	if n == 0 {
		return fmt.Errorf("PUBLISH to %q: %w", topic, ErrEncode)
	}

	if err := c.write(ctx, socket, frame[:n]); err != nil {
		return fmt.Errorf("PUBLISH to %q: %w", topic, err)
	}
	c.logger.Debug("Published", "topic", topic, "size", len(payload), "qos", qos)
	return nil
}

// Subscribe subscribes to topic at QoS 0 and routes incoming messages
// to h. A later Subscribe replaces the handler for all topics.
func (c *Client) Subscribe(ctx context.Context, topic string, h Handler) error {
	socket, err := c.current()
	if err != nil {
		return err
	}

	frame := make([]byte, mqtt.FrameSize(2+2+len(topic)+1))
	n := mqtt.EncodeSubscribe(frame, topic)
	if n == 0 {
		return fmt.Errorf("SUBSCRIBE to %q: %w", topic, ErrEncode)
	}

	c.mu.Lock()
	c.handler = h
	c.mu.Unlock()

	// drop a stale acknowledgement
	select {
	case <-c.subAck:
	default:
	}

	if err := c.write(ctx, socket, frame[:n]); err != nil {
		return fmt.Errorf("SUBSCRIBE to %q: %w", topic, err)
	}

	timer := time.NewTimer(c.opts.AckTimeout)
	defer timer.Stop()

	select {
	case rc := <-c.subAck:
		if rc == 0x80 {
			return fmt.Errorf("SUBSCRIBE to %q: %w", topic, ErrSubscribeRefused)
		}
		c.logger.Info("Subscribed", "topic", topic, "granted_qos", rc)
		return nil
	case <-timer.C:
		return fmt.Errorf("SUBACK for %q: %w", topic, ErrAckTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// KeepAlive sends PINGREQ whenever the session has been idle for the
// ping interval and waits for PINGRESP. It runs until ctx is done or a
// ping goes unanswered, in which case it returns ErrPingTimeout.
func (c *Client) KeepAlive(ctx context.Context) error {
	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		c.mu.Lock()
		socket, idle := c.socket, time.Since(c.lastSend)
		c.mu.Unlock()
		if socket < 0 {
			return ErrNotConnected
		}
		if idle < c.opts.PingInterval {
			continue
		}

		if err := c.ping(ctx, socket); err != nil {
			return err
		}
	}
}

func (c *Client) ping(ctx context.Context, socket int) error {
	select {
	case <-c.pingResp:
	default:
	}

	frame := make([]byte, 2)
	if err := c.write(ctx, socket, frame[:mqtt.EncodePingReq(frame)]); err != nil {
		return fmt.Errorf("PINGREQ: %w", err)
	}

	timer := time.NewTimer(c.opts.AckTimeout)
	defer timer.Stop()

	select {
	case <-c.pingResp:
		c.logger.Debug("Ping acknowledged")
		return nil
	case <-timer.C:
		c.logger.Warn("Broker did not answer ping")
		return ErrPingTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Disconnect sends DISCONNECT and closes the socket. The session is
// considered closed even when either step fails.
func (c *Client) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	socket := c.socket
	c.socket = -1
	c.mu.Unlock()
	if socket < 0 {
		return ErrNotConnected
	}

	c.dev.SetSocketListener(nil)

	frame := make([]byte, 2)
	werr := c.write(ctx, socket, frame[:mqtt.EncodeDisconnect(frame)])
	if werr != nil {
		c.logger.Warn("Failed to send DISCONNECT", "error", werr)
	}
	if err := c.dev.CloseSocket(ctx, socket); err != nil {
		return err
	}
	c.logger.Info("MQTT session closed")
	return werr
}

// onData is the socket listener of a connected session.
func (c *Client) onData(n modem.Notification) {
	c.mu.Lock()
	socket, h := c.socket, c.handler
	c.mu.Unlock()
	if n.Socket != socket {
		return
	}

	c.inboxMu.Lock()
	defer c.inboxMu.Unlock()

	buf := make([]byte, 512)
	for {
		got := c.dev.ReadSocket(socket, buf)
		if got == 0 {
			break
		}
		c.inbox = append(c.inbox, buf[:got]...)
	}

	for {
		size, ok := mqtt.FrameLength(c.inbox)
		if !ok {
			break
		}
		c.handleFrame(c.inbox[:size], h)
		c.inbox = c.inbox[size:]
	}

	if len(c.inbox) > maxInbox {
		c.logger.Warn("Discarding unframed socket data", "size", len(c.inbox))
		c.inbox = nil
	}
}

func (c *Client) handleFrame(frame []byte, h Handler) {
	switch t := mqtt.TypeOf(frame); t {
	case mqtt.TypePublish:
		topic, payload, err := mqtt.DecodePublish(frame)
		if err != nil {
			c.logger.Warn("Malformed PUBLISH", "error", err)
			return
		}
		if h == nil {
			c.logger.Debug("PUBLISH without handler", "topic", topic)
			return
		}
		h(topic, payload)
	case mqtt.TypeSubAck:
		if len(frame) < 5 {
			c.logger.Warn("Short SUBACK", "size", len(frame))
			return
		}
		select {
		case c.subAck <- frame[4]:
		default:
		}
	case mqtt.TypePingResp:
		select {
		case c.pingResp <- struct{}{}:
		default:
		}
	default:
		c.logger.Debug("Ignoring frame", "type", t)
	}
}

// write sends frame in as many socket sends as the modem needs.
func (c *Client) write(ctx context.Context, socket int, frame []byte) error {
	for len(frame) > 0 {
		sent, err := c.dev.WriteSocket(ctx, socket, frame)
		if err != nil {
			return err
		}
		if sent <= 0 {
			return fmt.Errorf("socket %d accepted no data", socket)
		}
		frame = frame[min(sent, len(frame)):]
	}

	c.mu.Lock()
	c.lastSend = time.Now()
	c.mu.Unlock()
	return nil
}

// abort closes a socket whose session never got established.
func (c *Client) abort(ctx context.Context, socket int) {
	if err := c.dev.CloseSocket(ctx, socket); err != nil {
		c.logger.Warn("Failed to close socket", "socket", socket, "error", err)
	}
}

func (c *Client) current() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.socket < 0 {
		return -1, ErrNotConnected
	}
	return c.socket, nil
}

// nextMessageID cycles through 1..255.
func (c *Client) nextMessageID() byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgID++
	if c.msgID == 0 {
		c.msgID = 1
	}
	return c.msgID
}
