package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/me/flowctl/internal/config"
	"github.com/me/flowctl/internal/logging"
	"github.com/me/flowctl/internal/remote"
)

var (
	flagEndpoint  string
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	logger *slog.Logger
	client *remote.Client
)

// initRuntime builds the logger and remote client from the current flag
// values. The run command parses its flags by hand and calls this again
// after applying any global flags it saw.
func initRuntime() {
	if flagDebug {
		flagLogLevel = "debug"
	}
	logger = logging.NewLogger(logging.ParseLevel(flagLogLevel), flagLogFormat)
	client = remote.NewClient(flagEndpoint, logger)
}

// NewRootCmd creates the root cobra command for the flowctl CLI.
func NewRootCmd() *cobra.Command {
	cfg, err := config.Auto()
	if err != nil {
		cfg = config.Default()
	}

	root := &cobra.Command{
		Use:   "flowctl",
		Short: "flowctl - script-mode workflow client",
		Long:  "flowctl registers and runs workflows authored as single script files on a remote orchestration service.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			initRuntime()
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagEndpoint, "endpoint", cfg.Endpoint, "Orchestration service URL (or FLOWCTL_ENDPOINT env)")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newRunCmd(cfg),
		newRecentCmd(),
		newVersionCmd(),
	)

	return root
}
