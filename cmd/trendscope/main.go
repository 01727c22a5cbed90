// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the trendscope CLI.
package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/trendscope/internal/collect"
	"github.com/pdiddy/trendscope/internal/llm"
	"github.com/pdiddy/trendscope/internal/secrets"
	"github.com/pdiddy/trendscope/internal/store"
	"github.com/pdiddy/trendscope/internal/workflow"
	"github.com/pdiddy/trendscope/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback if set, otherwise the secret value for key.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the trendscope CLI.
var rootCmd = &cobra.Command{
	Use:   "trendscope",
	Short: "Market trend research with clustering and LLM insights",
	Long: `trendscope researches a market topic end to end: it collects recent
documents for a free-text query, embeds and clusters them into topics,
extracts keywords and names each topic, and synthesizes a structured
insight report with citations.

Run a one-shot analysis with the research subcommand, or start the HTTP
service with serve to submit queries and stream progress over SSE.`,
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

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./trendscope.yaml or ~/.config/trendscope/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("trendscope")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "trendscope"))
		}
	}

	viper.SetEnvPrefix("TRENDSCOPE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig assembles the runtime configuration from viper keys, loaded
// secrets, and documented defaults.
func loadConfig() types.Config {
	var cfg types.Config

	cfg.Collect.APIKey = secretDefault("tavily-api-key", viper.GetString("collect.api_key"))
	cfg.Collect.MaxResults = viper.GetInt("collect.max_results")
	cfg.Collect.MaxPerDomain = viper.GetInt("collect.max_per_domain")
	cfg.Collect.Timeout = viper.GetDuration("collect.timeout")

	cfg.AI.APIKey = secretDefault("openai-api-key", viper.GetString("ai.api_key"))
	cfg.AI.Model = viper.GetString("ai.model")
	cfg.AI.EmbeddingModel = viper.GetString("ai.embedding_model")
	cfg.AI.Timeout = viper.GetDuration("ai.timeout")

	cfg.Store.Backend = viper.GetString("store.backend")
	cfg.Store.Path = viper.GetString("store.path")
	cfg.Store.DrainInterval = viper.GetDuration("store.drain_interval")

	cfg.Server.Addr = viper.GetString("server.addr")
	cfg.Server.PollInterval = viper.GetDuration("server.poll_interval")

	cfg.Defaults()
	return cfg
}

// buildRunner wires the workflow runner and its state store from cfg.
func buildRunner(cfg types.Config, logger *zap.Logger) (*workflow.Runner, store.Store, error) {
	st, err := store.New(cfg.Store, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("opening state store: %w", err)
	}

	search := &collect.TavilyBackend{
		Client: &http.Client{Timeout: cfg.Collect.Timeout},
		Config: cfg.Collect,
	}
	ai := &llm.OpenAIBackend{
		Client: &http.Client{Timeout: cfg.AI.Timeout},
		Config: cfg.AI,
	}

	return workflow.NewRunner(st, search, ai, ai, cfg, logger), st, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
