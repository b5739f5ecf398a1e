// Package commands provides the statex CLI commands.
package commands

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var logLevel string

// NewRootCmd creates the root command with all subcommands.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "statex",
		Short: "Statistics exporter for smart home recorders",
		Long: `Statex exports long-term statistics from smart home recorders as
delimited text (CSV, TSV) or hierarchical JSON.

Commands:
  serve    Run the export HTTP server
  export   Export statistics from a snapshot or a running server
  sample   Generate a sample statistics snapshot`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: configureLogging,
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	root.AddCommand(
		NewServeCmd(),
		NewExportCmd(),
		NewSampleCmd(),
	)

	return root
}

func configureLogging(cmd *cobra.Command, args []string) error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q", logLevel)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return nil
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}
