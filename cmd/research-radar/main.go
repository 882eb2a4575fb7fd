// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the research-radar CLI: a scheduled
// research-newsletter pipeline that searches paper APIs, filters out papers
// already sent, summarizes the rest with Gemini, and emails the digest.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/research-radar/internal/secrets"
	"github.com/pdiddy/research-radar/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ and the environment
// at startup.
var loadedSecrets map[string]string

// secretDefault returns the secret value for key if it exists, or fallback
// otherwise.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the research-radar CLI.
var rootCmd = &cobra.Command{
	Use:   "research-radar",
	Short: "Automated research newsletter pipeline",
	Long: `research-radar searches academic APIs (arXiv, Crossref, Semantic Scholar)
for recent papers, deduplicates against the papers already sent, summarizes
the new ones with Gemini, and emails the digest.

The pipeline runs as the run subcommand, typically from cron. The remaining
subcommands inspect and maintain its state: search previews a query, state
manages the seen-paper file, and history browses the digest archive.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./research-radar.yaml or ~/.config/research-radar/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("research-radar")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "research-radar"))
		}
	}

	viper.SetEnvPrefix("RESEARCH_RADAR")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig merges defaults, the config file, and loaded secrets into one
// Config. Credentials never come from the config file in practice; the
// secrets overlay fills them in.
func loadConfig() (types.Config, error) {
	cfg := types.Defaults()
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing configuration: %w", err)
	}

	cfg.Summarization.APIKey = secretDefault(secrets.GeminiAPIKey, cfg.Summarization.APIKey)
	cfg.SMTP.Username = secretDefault(secrets.SMTPUsername, cfg.SMTP.Username)
	cfg.SMTP.Password = secretDefault(secrets.SMTPPassword, cfg.SMTP.Password)

	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
