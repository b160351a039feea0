// Package cmd provides the panekit command-line interface.
//
// Configuration sources, highest priority first:
//  1. Command-line flags (--port, --manifest, ...)
//  2. PANEKIT_CONFIG_FILE environment variable (custom config file path)
//  3. Individual environment variables (PANEKIT_SERVER_PORT, ...)
//  4. Configuration file (.panekit.yml in the working directory)
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "panekit",
	Short: "Policy-driven pane navigation with a live preview server",
	Long: `Panekit drives tab strips, accordions, and toggle panes from a single
policy-enforcing state store, and previews them in the browser with live
updates over WebSocket.

Quick start:
  panekit serve                   Start the preview server
  panekit list                    List panes declared in the manifest
  panekit version                 Show version information

Panes are declared in a YAML manifest (panes.yml by default); the serve
command reloads it automatically when it changes on disk.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Accept snake_case flag spellings for parity with the env var names.
	rootCmd.PersistentFlags().SetNormalizeFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .panekit.yml, can also use PANEKIT_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("PANEKIT_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".panekit")
	}

	viper.SetEnvPrefix("PANEKIT")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// A missing config file is fine; defaults and env vars still apply.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
