// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the netharvest CLI: schema-driven
// extraction of operational tables from network devices.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meshintel/netharvest/internal/secrets"
	"github.com/meshintel/netharvest/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds device credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback when set, else the named secret, else "".
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the netharvest CLI.
var rootCmd = &cobra.Command{
	Use:   "netharvest",
	Short: "Extract operational tables from network devices",
	Long: `netharvest retrieves semi-structured operational data from network
devices and normalizes it into tabular records for automation tooling.

A YAML definition file declares named tables: the RPC to issue against the
device and the rules that turn the XML reply into records. The get
subcommand runs one table against one device; schemas lists the tables a
definition file declares.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./netharvest.yaml or ~/.config/netharvest/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("netharvest")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "netharvest"))
		}
	}

	viper.SetEnvPrefix("NETHARVEST")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig merges built-in defaults with config-file and environment
// overrides.
func loadConfig() types.Config {
	cfg := types.Defaults()

	if v := viper.GetInt("transport.port"); v != 0 {
		cfg.Transport.Port = v
	}
	if v := viper.GetDuration("transport.timeout"); v != 0 {
		cfg.Transport.Timeout = v
	}
	if v := viper.GetString("extract.schema_dir"); v != "" {
		cfg.Extract.SchemaDir = v
	}
	if v := viper.GetString("extract.response_type"); v != "" {
		cfg.Extract.ResponseType = types.ResponseType(v)
	}
	if v := viper.GetInt("extract.connect_retries"); v != 0 {
		cfg.Extract.ConnectRetries = v
	}
	if v := viper.GetString("store.path"); v != "" {
		cfg.Store.Path = v
	}
	return cfg
}

// defaultTimeout is used when config yields a nonsensical timeout.
const defaultTimeout = 30 * time.Second

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
