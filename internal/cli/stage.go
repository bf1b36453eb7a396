// internal/cli/stage.go
package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arc-language/abistage"
)

var stageCmd = &cobra.Command{
	Use:   "stage [archive] [dest]",
	Short: "Copy a package's native libraries into a directory",
	Args:  cobra.ExactArgs(2),
	RunE:  runStage,
}

func runStage(cmd *cobra.Command, args []string) error {
	m, log, err := newManager(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer log.Sync()

	res, err := m.Stage(args[0], args[1])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case !res.HasNativeCode:
		fmt.Fprintln(out, "No native libraries to stage")
	case !res.Found():
		fmt.Fprintf(out, "No compatible libraries (tried %s)\n", joinTags(res))
	default:
		fmt.Fprintf(out, "Staged %d libraries for %s (%s): %d copied, %d up to date\n",
			len(res.Libraries), res.ABI, res.Source, res.Copied, res.Skipped)
		if res.Translated() {
			fmt.Fprintln(out, "Libraries will run under translation")
		}
	}
	return nil
}

func joinTags(res *abistage.Result) string {
	names := make([]string, len(res.Attempted))
	for i, t := range res.Attempted {
		names[i] = t.String()
	}
	return strings.Join(names, ", ")
}
