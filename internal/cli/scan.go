// internal/cli/scan.go
package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan [archive]",
	Short: "List the ABIs a package carries native libraries for",
	Args:  cobra.ExactArgs(1),
	RunE:  runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	m, log, err := newManager(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer log.Sync()

	p := m.Profile(args[0])
	if !p.Readable() {
		return p.Err
	}

	out := cmd.OutOrStdout()
	if p.Empty() {
		fmt.Fprintf(out, "%s: no native code\n", args[0])
		return nil
	}

	names := make([]string, len(p.ABIs))
	for i, tag := range p.ABIs {
		names[i] = tag.String()
	}
	fmt.Fprintf(out, "%s: %s\n", args[0], strings.Join(names, " "))
	return nil
}
