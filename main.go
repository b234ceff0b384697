// Command nbiot drives a Quectel BC28 NB-IoT modem and runs an MQTT
// session over its sockets.
package main

import (
	"os"

	"i4.energy/across/nbiot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
