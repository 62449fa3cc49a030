package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/levelcheck/internal/config"
	"github.com/abhisek/levelcheck/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "levelcheck",
	Short: "Adaptive CEFR language level assessment",
	Long: `levelcheck estimates a learner's CEFR level (A1 to C2) in a target language
through a short adaptive series of open questions scored by an LLM.`,
	SilenceUsage: true,
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("db", "", "SQLite file or postgres:// URL (overrides LEVELCHECK_DB)")
	pf.String("config", "", "Config file (default: ./levelcheck.yaml, then ~/.config/levelcheck/levelcheck.yaml)")
	pf.String("log-level", "info", "Log level: debug, info, warn, error")
	pf.String("log-format", "pretty", "Log format: pretty or json")
	pf.String("redis-url", "", "Redis URL for cross-process learner locks (overrides LEVELCHECK_REDIS_URL)")

	rootCmd.AddCommand(assessCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(questionsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// flagKeys maps persistent flags to config keys.
var flagKeys = map[string]string{
	"db":         "db",
	"redis-url":  "redis_url",
	"log-level":  "log.level",
	"log-format": "log.format",
}

// loadConfig layers command-line flags over LEVELCHECK_* env vars, the
// config file and defaults.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	v, err := config.New(path)
	if err != nil {
		return config.Config{}, err
	}
	for flag, key := range flagKeys {
		if f := cmd.Flags().Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return config.Config{}, fmt.Errorf("bind --%s: %w", flag, err)
			}
		}
	}
	return config.Load(v)
}

// resolveDBPath returns the configured database, falling back to the
// default per-user SQLite file.
func resolveDBPath(cfg config.Config) (string, error) {
	if cfg.DatabaseURL == "" {
		return store.DefaultDBPath()
	}
	if store.IsPostgresDSN(cfg.DatabaseURL) {
		return cfg.DatabaseURL, nil
	}
	return cfg.DatabaseURL, store.EnsureDir(cfg.DatabaseURL)
}

func openStore(ctx context.Context, cfg config.Config) (*store.Store, error) {
	dsn, err := resolveDBPath(cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	st, err := store.Open(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return st, nil
}
