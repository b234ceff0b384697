package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var identityCmd = &cobra.Command{
	Use:   "identity",
	Short: "Print the IMSI and IMEI of the modem",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, closeModem, err := openModem(cmd.Context())
		if err != nil {
			return err
		}
		defer closeModem()

		id := m.Identity()
		fmt.Fprintf(cmd.OutOrStdout(), "IMSI: %s\nIMEI: %s\n", id.IMSI, id.IMEI)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(identityCmd)
}
