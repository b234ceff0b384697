package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	config *Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "nbiot",
	Short: "BC28 NB-IoT modem tool",
	Long: `nbiot - drive a Quectel BC28 NB-IoT modem over its AT command interface.

Runs an MQTT session over the modem's TCP sockets and exposes it, together
with raw AT access, through a small HTTP API.

Settings are read from defaults, then the environment (SERIAL_PORT,
BAUD_RATE, LOG_LEVEL, LOG_FORMAT, BIND_ADDRESS, MQTT_HOST, MQTT_PORT,
MQTT_CLIENT_ID, MQTT_USERNAME, MQTT_PASSWORD, MQTT_KEEPALIVE), then flags.
The MQTT password is only read from the environment.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		config, err = LoadConfig(WithDefaults(), WithEnv(), WithFlags(cmd.Flags()))
		if err != nil {
			return err
		}
		logger = newLogger(os.Stderr, config.LogLevel, config.LogFormat)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("port", "p", "/dev/ttyUSB0", "Serial port of the modem")
	rootCmd.PersistentFlags().IntP("baud", "b", 9600, "Baud rate for serial communication")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "json", "Log format (json, console)")
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}
