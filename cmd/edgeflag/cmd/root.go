// Package cmd implements the edgeflag command line interface.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/edgeflag/edgeflag/internal/constants"
	"github.com/edgeflag/edgeflag/internal/logger"
	"github.com/edgeflag/edgeflag/internal/output"

	"github.com/spf13/cobra"
)

var (
	debug   bool
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   constants.ProjectName,
	Short: "Multi-tenant feature flag identity store",
	Long: fmt.Sprintf(`%s stores end-user identities per environment and answers
override analytics and segment membership questions about them.`, constants.ProjectName),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			output.Info("verbose output enabled")
		}

		logLevel := slog.LevelInfo
		if debug {
			logLevel = slog.LevelDebug
		}
		logger.Initialize(constants.CLI, logLevel)
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debugging logs")
}
