// Package cmd defines the sysmgmt command line interface.
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/fleetops/sysmgmt/internal/conf"
	"github.com/fleetops/sysmgmt/internal/logger"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:           "sysmgmt",
	Short:         "Restaurant fleet incident pipeline",
	Long:          "sysmgmt ingests error occurrences from restaurant nodes, maintains the per-restaurant open-incident projection, and fans incidents out to registered push subscriptions.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.Default().Error("command failed", logger.Error(err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default sysmgmt.yaml in . or /etc/sysmgmt)")
}

// loadSettings reads configuration and builds the root logger from it.
func loadSettings() (*conf.Settings, logger.Logger, error) {
	settings, err := conf.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	log := logger.NewSlogLogger(os.Stderr, logger.ParseLevel(settings.LogLevel), nil)
	return settings, log, nil
}
