package cmd

import (
	"os"
	"strconv"
	"time"

	"github.com/spf13/pflag"
)

// Config holds the application configuration
type Config struct {
	// SerialPort is the path to the modem's serial port (e.g. "/dev/ttyUSB0")
	SerialPort string
	// BaudRate is the baud rate for serial communication with the modem (e.g. 9600)
	BaudRate int
	// LogLevel sets the logging level (e.g. "debug", "info", "warn", "error")
	LogLevel string
	// LogFormat selects "json" or "console" log output
	LogFormat string
	// BindAddress is the address the HTTP server listens on (e.g. "0.0.0.0:8080")
	BindAddress string

	// BrokerHost and BrokerPort locate the MQTT broker. The modem only
	// connects to IP addresses.
	BrokerHost string
	BrokerPort string
	// ClientID defaults to the modem's IMSI when empty
	ClientID string
	Username string
	Password string
	// KeepAlive is the MQTT keep-alive announced in CONNECT
	KeepAlive time.Duration
}

// ConfigOption is a function that modifies a Config
type ConfigOption func(*Config) error

// LoadConfig creates a new config by applying the given options in order
func LoadConfig(opts ...ConfigOption) (*Config, error) {
	config := &Config{}

	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, err
		}
	}

	return config, nil
}

// WithDefaults applies default configuration values
func WithDefaults() ConfigOption {
	return func(c *Config) error {
		c.SerialPort = "/dev/ttyUSB0"
		c.BaudRate = 9600
		c.LogLevel = "info"
		c.LogFormat = "json"
		c.BindAddress = "0.0.0.0:8080"
		c.BrokerPort = "1883"
		c.KeepAlive = 60 * time.Second
		return nil
	}
}

// WithEnv loads configuration from environment variables
func WithEnv() ConfigOption {
	return func(c *Config) error {
		if serial := os.Getenv("SERIAL_PORT"); serial != "" {
			c.SerialPort = serial
		}

		if baud := os.Getenv("BAUD_RATE"); baud != "" {
			if b, err := strconv.Atoi(baud); err == nil {
				c.BaudRate = b
			}
		}

		if level := os.Getenv("LOG_LEVEL"); level != "" {
			c.LogLevel = level
		}

		if format := os.Getenv("LOG_FORMAT"); format != "" {
			c.LogFormat = format
		}

		if addr := os.Getenv("BIND_ADDRESS"); addr != "" {
			c.BindAddress = addr
		}

		if host := os.Getenv("MQTT_HOST"); host != "" {
			c.BrokerHost = host
		}

		if port := os.Getenv("MQTT_PORT"); port != "" {
			c.BrokerPort = port
		}

		if id := os.Getenv("MQTT_CLIENT_ID"); id != "" {
			c.ClientID = id
		}

		if user := os.Getenv("MQTT_USERNAME"); user != "" {
			c.Username = user
		}

		// The password is only taken from the environment to keep it out
		// of shell history.
		if pass := os.Getenv("MQTT_PASSWORD"); pass != "" {
			c.Password = pass
		}

		if ka := os.Getenv("MQTT_KEEPALIVE"); ka != "" {
			if d, err := time.ParseDuration(ka); err == nil {
				c.KeepAlive = d
			}
		}

		return nil
	}
}

// WithFlags loads configuration from command-line flags that were set
func WithFlags(fSet *pflag.FlagSet) ConfigOption {
	return func(c *Config) error {
		fSet.Visit(func(f *pflag.Flag) {
			switch f.Name {
			case "port":
				c.SerialPort = f.Value.String()
			case "baud":
				if b, err := strconv.Atoi(f.Value.String()); err == nil {
					c.BaudRate = b
				}
			case "log-level":
				c.LogLevel = f.Value.String()
			case "log-format":
				c.LogFormat = f.Value.String()
			case "bind-address":
				c.BindAddress = f.Value.String()
			case "broker":
				c.BrokerHost = f.Value.String()
			case "broker-port":
				c.BrokerPort = f.Value.String()
			case "client-id":
				c.ClientID = f.Value.String()
			case "username":
				c.Username = f.Value.String()
			case "keepalive":
				if d, err := time.ParseDuration(f.Value.String()); err == nil {
					c.KeepAlive = d
				}
			}
		})
		return nil
	}
}
