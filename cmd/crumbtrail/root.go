package main

import (
	"fmt"
	"os"

	"github.com/aretw0/crumbtrail/internal/app"
	"github.com/aretw0/crumbtrail/internal/config"
	"github.com/aretw0/crumbtrail/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "crumbtrail",
	Short: "Crumbtrail keeps hierarchical breadcrumb trails per session",
	Long: `Crumbtrail records the pages a visitor walks through, orders them by their
depth in the site, and renders them as breadcrumbs.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file (env: CRUMBTRAIL_*)")
	rootCmd.PersistentFlags().String("log-level", "", "Override the configured log level")
}

// loadConfig reads the config named by --config and applies flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}
	return cfg, nil
}

// openApp builds the application for cmd. Callers must Close it.
func openApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := logging.NewWithWriter(os.Stderr, logging.ParseLevel(cfg.LogLevel), logging.Format(cfg.LogFormat))
	return app.New(cfg, logger)
}
