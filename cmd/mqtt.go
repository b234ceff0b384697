package cmd

import (
	"github.com/spf13/pflag"

	"i4.energy/across/nbiot/mqtt/client"
)

// addBrokerFlags registers the MQTT session flags on fs.
func addBrokerFlags(fs *pflag.FlagSet) {
	fs.String("broker", "", "MQTT broker IP address")
	fs.String("broker-port", "1883", "MQTT broker port")
	fs.String("client-id", "", "MQTT client id (defaults to the IMSI)")
	fs.String("username", "", "MQTT user name; the password is read from MQTT_PASSWORD")
	fs.Duration("keepalive", 0, "MQTT keep-alive (default 60s)")
}

func newMQTTClient(dev client.Device) *client.Client {
	return client.New(dev, client.Options{
		Host:         config.BrokerHost,
		Port:         config.BrokerPort,
		ClientID:     config.ClientID,
		Username:     config.Username,
		Password:     config.Password,
		KeepAlive:    config.KeepAlive,
		CleanSession: true,
		Logger:       logger.With("component", "mqtt"),
	})
}
