// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the starter-export CLI. It exports
// Web of Science Starter API search results to a WoS-style workbook.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/fang"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/starter-export/internal/logging"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the starter-export CLI.
var rootCmd = &cobra.Command{
	Use:   "starter-export",
	Short: "Export Web of Science Starter API results to a WoS-like workbook",
	Long: `starter-export queries the Web of Science Starter API, fetches every
matching record with polite rate limiting and retries, and writes a workbook
with three sheets: the Starter subset, the full Core export layout, and a run
summary listing any cells clipped to the spreadsheet cell limit.

Configuration precedence is flag, then STARTER_* environment variable (also
read from .env), then starter-export.yaml, then the built-in default.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		cfg := logging.DefaultConfig()
		if lvl := viper.GetString("log_level"); lvl != "" {
			cfg.Level = lvl
		}
		cfg.Pretty = viper.GetBool("log_pretty")
		logging.Setup(cfg)
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./starter-export.yaml or ~/.config/starter-export/starter-export.yaml)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.Bool("log-pretty", false, "human-readable log output instead of JSON")

	_ = viper.BindPFlag("log_level", pf.Lookup("log-level"))
	_ = viper.BindPFlag("log_pretty", pf.Lookup("log-pretty"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("starter-export")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "starter-export"))
		}
	}

	viper.SetEnvPrefix("STARTER")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}
