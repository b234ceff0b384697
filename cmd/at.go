package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var atTimeout time.Duration

var atCmd = &cobra.Command{
	Use:   "at <command>...",
	Short: "Send AT commands and print the responses",
	Long: `Send one or more AT commands to the modem in order and print each
response. A trailing carriage return is added when missing.

Example:
  nbiot at AT+CSQ AT+CEREG?`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAT,
}

func init() {
	atCmd.Flags().DurationVarP(&atTimeout, "timeout", "t", 5*time.Second, "Response timeout per command")
	rootCmd.AddCommand(atCmd)
}

func runAT(cmd *cobra.Command, args []string) error {
	m, closeModem, err := openModem(cmd.Context())
	if err != nil {
		return err
	}
	defer closeModem()

	out := cmd.OutOrStdout()
	for _, c := range args {
		resp, err := m.Exec(cmd.Context(), c, atTimeout)
		fmt.Fprintf(out, "> %s\n%s\n", c, strings.TrimSpace(resp))
		if err != nil {
			return err
		}
	}
	return nil
}
