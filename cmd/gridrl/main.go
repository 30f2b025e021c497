package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"gridrl/internal/config"
)

var (
	configPath string
	envFile    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "gridrl",
		Short:         "gridrl runs and evaluates agents on a seeded grid navigation environment",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config (defaults are used when empty)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with GRIDRL_* overrides")

	rootCmd.AddCommand(evalCmd())
	rootCmd.AddCommand(playCmd())
	rootCmd.AddCommand(replayCmd())
	rootCmd.AddCommand(boundsCmd())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}
}

// seedOrConfig returns the --seed flag when it was given and the config seed
// otherwise.
func seedOrConfig(cmd *cobra.Command, flag int64, cfg *config.Config) int64 {
	if cmd.Flags().Changed("seed") {
		return flag
	}
	return cfg.Seed
}

// loadConfig reads the config file, if any, then applies environment
// overrides.
func loadConfig() (*config.Config, error) {
	config.LoadDotEnv(envFile)

	cfg := config.Default()
	if configPath != "" {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
