package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables that override file settings.
const (
	EnvSeed     = "GRIDRL_SEED"
	EnvWorkers  = "GRIDRL_WORKERS"
	EnvEpisodes = "GRIDRL_EPISODES"
	EnvAgent    = "GRIDRL_AGENT"
)

// LoadDotEnv loads the first readable .env file among paths into the process
// environment. Variables already set are not overwritten. A missing file is
// not an error.
func LoadDotEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err == nil {
			log.Printf("[CONFIG] [INFO] loaded environment from %s", p)
			return
		}
	}
}

// ApplyEnv overrides cfg with any GRIDRL_* variables that are set and
// revalidates it.
func ApplyEnv(cfg *Config) error {
	if v, ok := os.LookupEnv(EnvSeed); ok {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %s must be an integer: %v", ErrInvalid, EnvSeed, err)
		}
		cfg.Seed = seed
		cfg.Eval.BaseSeed = seed
	}
	if v, ok := os.LookupEnv(EnvWorkers); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s must be an integer: %v", ErrInvalid, EnvWorkers, err)
		}
		cfg.Eval.Workers = n
	}
	if v, ok := os.LookupEnv(EnvEpisodes); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s must be an integer: %v", ErrInvalid, EnvEpisodes, err)
		}
		cfg.Eval.Episodes = n
	}
	if v, ok := os.LookupEnv(EnvAgent); ok {
		cfg.Eval.Agent = v
	}
	return cfg.Validate()
}
