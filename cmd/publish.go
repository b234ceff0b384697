package cmd

import (
	"errors"

	"github.com/spf13/cobra"
)

var (
	publishQoS    uint8
	publishRetain bool
)

var publishCmd = &cobra.Command{
	Use:   "publish <topic> <message>",
	Short: "Publish a single MQTT message through the modem",
	Long: `Connect to the broker over the modem, publish one message and
disconnect again.

Example:
  nbiot publish --broker 203.0.113.7 sensors/meter '{"kwh":12.5}'`,
	Args: cobra.ExactArgs(2),
	RunE: runPublish,
}

func init() {
	addBrokerFlags(publishCmd.Flags())
	publishCmd.Flags().Uint8Var(&publishQoS, "qos", 0, "QoS of the message (0-2, no retransmission)")
	publishCmd.Flags().BoolVar(&publishRetain, "retain", false, "Ask the broker to retain the message")
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	if config.BrokerHost == "" {
		return errors.New("--broker or MQTT_HOST is required")
	}

	m, closeModem, err := openModem(cmd.Context())
	if err != nil {
		return err
	}
	defer closeModem()

	c := newMQTTClient(m)
	if err := c.Connect(cmd.Context()); err != nil {
		return err
	}
	defer c.Disconnect(cmd.Context())

	if err := c.Publish(cmd.Context(), args[0], []byte(args[1]), publishQoS, publishRetain); err != nil {
		return err
	}
	logger.Info("Message published", "topic", args[0], "size", len(args[1]))
	return nil
}
