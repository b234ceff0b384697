package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"i4.energy/across/nbiot/mqtt/client"
)

const (
	reconnectDelay  = 30 * time.Second
	shutdownTimeout = 30 * time.Second
)

var subscribeTopic string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Keep an MQTT session open and serve the HTTP API",
	Long: `Initialize the modem, keep an MQTT session to the broker alive
(reconnecting with a reboot of the modem when sockets fail) and serve:

  POST /publish   {"topic": "...", "message": "...", "qos": 0, "retain": false}
  POST /at        {"command": "AT+CSQ", "timeout_ms": 5000}
  GET  /identity`,
	RunE: runServe,
}

func init() {
	addBrokerFlags(serveCmd.Flags())
	serveCmd.Flags().String("bind-address", "0.0.0.0:8080", "Bind address for the HTTP server")
	serveCmd.Flags().StringVar(&subscribeTopic, "subscribe", "", "Topic filter whose messages are logged")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if config.BrokerHost == "" {
		return errors.New("--broker or MQTT_HOST is required")
	}

	m, closeModem, err := openModem(cmd.Context())
	if err != nil {
		return err
	}
	logger.Info("Modem ready", "imsi", m.Identity().IMSI, "imei", m.Identity().IMEI)

	c := newMQTTClient(m)

	httpServer := &http.Server{
		Addr: config.BindAddress,
		Handler: &Server{
			Logger:    logger.With("component", "server"),
			Modem:     m,
			Publisher: c,
		},
	}

	g, ctx := errgroup.WithContext(cmd.Context())

	g.Go(func() error {
		runSession(ctx, c)
		return nil
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Closing HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	err = g.Wait()

	logger.Info("Closing modem connection")
	if cerr := closeModem(); cerr != nil {
		logger.Error("Failed to close modem", "error", cerr)
	}
	return err
}

// runSession keeps the MQTT session up until ctx is done.
func runSession(ctx context.Context, c *client.Client) {
	for {
		if err := c.Connect(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("MQTT connect failed", "error", err, "retry_in", reconnectDelay)
			if !wait(ctx, reconnectDelay) {
				return
			}
			continue
		}

		if subscribeTopic != "" {
			err := c.Subscribe(ctx, subscribeTopic, func(topic string, payload []byte) {
				logger.Info("Message received", "topic", topic, "payload", string(payload))
			})
			if err != nil {
				logger.Warn("Subscribe failed", "topic", subscribeTopic, "error", err)
			}
		}

		err := c.KeepAlive(ctx)

		disconnectCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		if derr := c.Disconnect(disconnectCtx); derr != nil {
			logger.Debug("Disconnect failed", "error", derr)
		}
		cancel()

		if ctx.Err() != nil {
			return
		}
		logger.Warn("MQTT session lost", "error", err)
	}
}

// wait sleeps for d and reports false if ctx ended first.
func wait(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
