// internal/cli/version.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "abistage version %s\n", version)
		fmt.Fprintln(cmd.OutOrStdout(), "Native library ABI resolver and stager")
		fmt.Fprintln(cmd.OutOrStdout(), "https://github.com/arc-language/abistage")
	},
}
