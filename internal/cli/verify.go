// internal/cli/verify.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [dest]",
	Short: "Check staged libraries against their recorded fingerprint",
	Args:  cobra.ExactArgs(1),
	RunE:  runVerify,
}

func runVerify(cmd *cobra.Command, args []string) error {
	m, log, err := newManager(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer log.Sync()

	marker, err := m.Verify(args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d libraries for %s match %s\n",
		args[0], len(marker.Libraries), marker.ABI, marker.Fingerprint)
	return nil
}
