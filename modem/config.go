package modem

import (
	"log/slog"
	"time"
)

// Defaults follow the timings the BC28 needs in the field.
const (
	DefaultATTimeout     = 5 * time.Second
	DefaultBusyWait      = 10 * time.Second
	DefaultPollInterval  = 500 * time.Millisecond
	DefaultReadyTimeout  = 10 * time.Second
	DefaultOpenTimeout   = time.Second
	DefaultOpenAttempts  = 3
	DefaultRebootDelay   = 5 * time.Second
	DefaultMaxPacketSize = 1024
	DefaultNotifyBacklog = 16
	lineHeaderAllowance  = 64
)

// Config holds the settings of a Modem. Use NewConfigBuilder to create one.
type Config struct {
	dialer Dialer
	logger *slog.Logger

	// atTimeout bounds socket connect, send, receive and close commands
	atTimeout time.Duration
	// busyWait is how long a command waits for the command slot
	busyWait time.Duration
	// pollInterval separates liveness and registration attempts
	pollInterval time.Duration
	// readyTimeout bounds Init and WaitReady
	readyTimeout time.Duration
	// openTimeout bounds a single AT+NSOCR attempt
	openTimeout  time.Duration
	openAttempts int
	rebootDelay  time.Duration

	// maxPacketSize caps a single socket send or receive chunk
	maxPacketSize int
	// queueCapacity is the size of each socket receive queue
	queueCapacity int
	// maxLineLength bounds the line reassembler and response buffers
	maxLineLength int
	// notifyBacklog is the number of socket notifications that may wait
	// for the dispatcher before new ones are dropped
	notifyBacklog int
}

func (c *Config) validate() error {
	if c.dialer == nil {
		return ErrNoDialer
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	if c.atTimeout == 0 {
		c.atTimeout = DefaultATTimeout
	}
	if c.busyWait == 0 {
		c.busyWait = DefaultBusyWait
	}
	if c.pollInterval == 0 {
		c.pollInterval = DefaultPollInterval
	}
	if c.readyTimeout == 0 {
		c.readyTimeout = DefaultReadyTimeout
	}
	if c.openTimeout == 0 {
		c.openTimeout = DefaultOpenTimeout
	}
	if c.openAttempts == 0 {
		c.openAttempts = DefaultOpenAttempts
	}
	if c.rebootDelay == 0 {
		c.rebootDelay = DefaultRebootDelay
	}
	if c.maxPacketSize == 0 {
		c.maxPacketSize = DefaultMaxPacketSize
	}
	if c.queueCapacity == 0 {
		c.queueCapacity = c.maxPacketSize << 1
	}
	if c.maxLineLength == 0 {
		// A receive record carries the payload hex encoded.
		c.maxLineLength = c.maxPacketSize<<1 + lineHeaderAllowance
	}
	if c.notifyBacklog == 0 {
		c.notifyBacklog = DefaultNotifyBacklog
	}
}

// ConfigBuilder assembles a Config.
//
//	config, err := modem.NewConfigBuilder().
//		WithDialer(modem.SerialDialer{PortName: "/dev/ttyUSB0"}).
//		WithATTimeout(5 * time.Second).
//		Build()
type ConfigBuilder struct {
	config Config
}

func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{}
}

func (b *ConfigBuilder) WithDialer(d Dialer) *ConfigBuilder {
	b.config.dialer = d
	return b
}

func (b *ConfigBuilder) WithLogger(l *slog.Logger) *ConfigBuilder {
	b.config.logger = l
	return b
}

func (b *ConfigBuilder) WithATTimeout(d time.Duration) *ConfigBuilder {
	b.config.atTimeout = d
	return b
}

func (b *ConfigBuilder) WithBusyWait(d time.Duration) *ConfigBuilder {
	b.config.busyWait = d
	return b
}

func (b *ConfigBuilder) WithPollInterval(d time.Duration) *ConfigBuilder {
	b.config.pollInterval = d
	return b
}

func (b *ConfigBuilder) WithReadyTimeout(d time.Duration) *ConfigBuilder {
	b.config.readyTimeout = d
	return b
}

// WithOpenRetry sets how many AT+NSOCR attempts OpenSocket makes and
// the timeout of each. Attempts are separated by the same duration.
func (b *ConfigBuilder) WithOpenRetry(attempts int, timeout time.Duration) *ConfigBuilder {
	b.config.openAttempts = attempts
	b.config.openTimeout = timeout
	return b
}

func (b *ConfigBuilder) WithRebootDelay(d time.Duration) *ConfigBuilder {
	b.config.rebootDelay = d
	return b
}

// WithMaxPacketSize sets the largest socket chunk. Queue capacity and
// line length derive from it unless set explicitly.
func (b *ConfigBuilder) WithMaxPacketSize(n int) *ConfigBuilder {
	b.config.maxPacketSize = n
	return b
}

func (b *ConfigBuilder) WithQueueCapacity(n int) *ConfigBuilder {
	b.config.queueCapacity = n
	return b
}

func (b *ConfigBuilder) WithNotifyBacklog(n int) *ConfigBuilder {
	b.config.notifyBacklog = n
	return b
}

// Build validates the configuration and fills in defaults.
func (b *ConfigBuilder) Build() (Config, error) {
	c := b.config
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	c.setDefaults()
	return c, nil
}
