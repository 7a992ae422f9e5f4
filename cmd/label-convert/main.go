// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the label-convert CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/label-convert/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets secrets.Secrets

// authToken returns the configured token, falling back to .secrets/auth-token.
func authToken(configured string) string {
	if configured != "" {
		return configured
	}
	return loadedSecrets.AuthToken
}

// rootCmd is the base command for the label-convert CLI.
var rootCmd = &cobra.Command{
	Use:   "label-convert",
	Short: "Turn a shipping-label PDF and an order spreadsheet into printable labels",
	Long: `label-convert sends a PDF of shipping labels and the matching XLSX order
sheet to a label conversion server and saves the combined PDF it returns.

The server address defaults to http://127.0.0.1:8000/convert and can be set
with --endpoint, the endpoint key in label-convert.yaml, or the
LABEL_CONVERT_ENDPOINT environment variable.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if s.AuthToken != "" {
			fmt.Fprintf(os.Stderr, "Loaded secrets: [%s]\n", secrets.AuthTokenFile)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./label-convert.yaml or ~/.config/label-convert/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("label-convert")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "label-convert"))
		}
	}

	viper.SetEnvPrefix("LABEL_CONVERT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
