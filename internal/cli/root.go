// internal/cli/root.go
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arc-language/abistage"
	"github.com/arc-language/abistage/internal/logging"
	"github.com/arc-language/abistage/pkg/config"
)

var (
	cfgFile         string
	debug           bool
	jsonLogs        bool
	hostABI         string
	emulatorProfile string
	unknownPolicy   string
	cfg             *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "abistage",
	Short: "Native library ABI resolver and stager",
	Long: `abistage - decide whether a packaged app can run on this host
and stage the native libraries it needs.

Packages are zip archives carrying native libraries under lib/<abi>/.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute executes the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/abistage/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "log-json", false, "write logs as JSON")
	rootCmd.PersistentFlags().StringVar(&hostABI, "host-abi", "", "host ABI to decide for (default is detected)")
	rootCmd.PersistentFlags().StringVar(&emulatorProfile, "emulator-profile", "", "TOML file describing the translation layer")
	rootCmd.PersistentFlags().StringVar(&unknownPolicy, "unknown-policy", "", "answer for unreadable archives (allow, deny)")

	// Add commands
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(stageCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	var err error
	cfg, err = config.LoadConfig(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		cfg = config.DefaultConfig()
	}

	// Override config with flags
	if hostABI != "" {
		cfg.HostABI = hostABI
	}
	if emulatorProfile != "" {
		cfg.EmulatorProfile = emulatorProfile
	}
	if unknownPolicy != "" {
		cfg.UnknownPolicy = unknownPolicy
	}
	if debug {
		cfg.Debug = true
	}
}

// newManager builds a manager from the loaded config, logging to errOut
func newManager(errOut io.Writer) (*abistage.Manager, *zap.Logger, error) {
	if cfg == nil {
		initConfig()
	}
	log := logging.New(cfg.Debug, jsonLogs, errOut)
	m, err := abistage.NewManager(cfg, abistage.WithLogger(log))
	if err != nil {
		return nil, log, err
	}
	return m, log, nil
}
