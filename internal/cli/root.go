package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"strideq/internal/logging"
)

var (
	flagConfig    string
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	logger *slog.Logger
)

// NewRootCmd creates the root cobra command for the stridesim CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "stridesim",
		Short: "Stride scheduling simulator",
		Long:  "stridesim replays a task set through the kernel ready queue under FIFO or stride scheduling and reports each task's CPU share.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if flagDebug {
				flagLogLevel = "debug"
			}
			format, err := logging.ParseFormat(flagLogFormat)
			if err != nil {
				return err
			}
			logger = logging.NewLogger(logging.ParseLevel(flagLogLevel), format)
			return nil
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "Simulation YAML file (defaults only when empty)")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newRunCmd(),
		newPoliciesCmd(),
	)

	return root
}
