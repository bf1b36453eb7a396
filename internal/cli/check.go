// internal/cli/check.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check [archive...]",
	Short: "Decide whether packages can run on this host",
	Long: `Print a verdict for each archive. Exits non-zero when any
package is not supported.

Examples:
  abistage check app.apk
  abistage check --host-abi=x86_64 --emulator-profile=/etc/abistage/emulator.toml *.apk`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	m, log, err := newManager(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer log.Sync()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Host: %s\n", m.Host())

	unsupported := 0
	for _, path := range args {
		v := m.Resolve(path)
		mark := "ok"
		if !v.Supported(cfg.Policy()) {
			mark = "NO"
			unsupported++
		}
		fmt.Fprintf(out, "  %-3s %s: %s\n", mark, path, v)
	}

	if unsupported > 0 {
		return fmt.Errorf("%d of %d packages not supported", unsupported, len(args))
	}
	return nil
}
