package config

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"gridrl/internal/agent"
	"gridrl/internal/env"
)

var ErrInvalid = errors.New("invalid config")

// Config is the root configuration structure
type Config struct {
	Seed    int64         `yaml:"seed"`
	Env     EnvConfig     `yaml:"env"`
	Rewards RewardsConfig `yaml:"rewards"`
	Eval    EvalConfig    `yaml:"eval"`
	Logging LogConfig     `yaml:"logging"`
}

// EnvConfig defines environment parameters
type EnvConfig struct {
	GridSize         int    `yaml:"grid_size"`
	GridStep         int    `yaml:"grid_step"`
	MaxEpisodeLength int    `yaml:"max_episode_length"` // 0 = N*N/sqrt(N)
	MaxStuckSteps    int    `yaml:"max_stuck_steps"`    // 0 disables
	Policy           string `yaml:"policy"`             // standard|simple
}

// RewardsConfig defines the per-step reward constants
type RewardsConfig struct {
	WinReward        float64 `yaml:"win_reward"`
	LossPenalty      float64 `yaml:"loss_penalty"`
	StepPenalty      float64 `yaml:"step_penalty"`
	CollisionPenalty float64 `yaml:"collision_penalty"`
	BoundsPenalty    float64 `yaml:"bounds_penalty"`
}

// EvalConfig defines evaluation parameters
type EvalConfig struct {
	Agent            string  `yaml:"agent"` // random|greedy|oracle
	Episodes         int     `yaml:"episodes"`
	BaseSeed         int64   `yaml:"base_seed"`
	Workers          int     `yaml:"workers"`
	Epsilon          float64 `yaml:"epsilon"`
	RobustnessLambda float64 `yaml:"robustness_lambda"`
}

// LogConfig defines logging parameters
type LogConfig struct {
	CSVPath    string `yaml:"csv_path"`
	JSONPath   string `yaml:"json_path"`
	ReplayPath string `yaml:"replay_path"` // empty disables replay capture
	Live       bool   `yaml:"live"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	ec := env.DefaultConfig()
	r := ec.Rewards
	return &Config{
		Seed: 1337,
		Env: EnvConfig{
			GridSize:         ec.GridSize,
			GridStep:         ec.GridStep,
			MaxEpisodeLength: ec.MaxEpisodeLength,
			MaxStuckSteps:    ec.MaxStuckSteps,
			Policy:           ec.Policy.String(),
		},
		Rewards: RewardsConfig{
			WinReward:        r.WinReward,
			LossPenalty:      r.LossPenalty,
			StepPenalty:      r.StepPenalty,
			CollisionPenalty: r.CollisionPenalty,
			BoundsPenalty:    r.BoundsPenalty,
		},
		Eval: EvalConfig{
			Agent:            "greedy",
			Episodes:         100,
			BaseSeed:         1000,
			Epsilon:          0.05,
			RobustnessLambda: 0.25,
		},
		Logging: LogConfig{
			CSVPath:  "runs/eval.csv",
			JSONPath: "runs/eval.jsonl",
			Live:     true,
		},
	}
}

// Load reads a YAML config file over Default. Keys missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML config data over Default and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Env.Policy == "" {
		cfg.Env.Policy = env.PolicyStandard.String()
	}
	if cfg.Eval.Agent == "" {
		cfg.Eval.Agent = "greedy"
	}
	if cfg.Eval.Episodes == 0 {
		cfg.Eval.Episodes = 100
	}
	if cfg.Logging.CSVPath == "" {
		cfg.Logging.CSVPath = "runs/eval.csv"
	}
	if cfg.Logging.JSONPath == "" {
		cfg.Logging.JSONPath = "runs/eval.jsonl"
	}
}

// Validate checks every section, including the environment config it maps to.
func (c *Config) Validate() error {
	if _, err := c.EnvConfig(); err != nil {
		return fmt.Errorf("%w: env: %w", ErrInvalid, err)
	}
	if !slices.Contains(agent.Names, c.Eval.Agent) {
		return fmt.Errorf("%w: eval.agent %q (want one of %v)", ErrInvalid, c.Eval.Agent, agent.Names)
	}
	if c.Eval.Episodes < 0 {
		return fmt.Errorf("%w: eval.episodes %d", ErrInvalid, c.Eval.Episodes)
	}
	if c.Eval.Epsilon < 0 || c.Eval.Epsilon > 1 {
		return fmt.Errorf("%w: eval.epsilon %.3g outside [0, 1]", ErrInvalid, c.Eval.Epsilon)
	}
	return nil
}

// EnvConfig converts the env and rewards sections into an env.Config.
func (c *Config) EnvConfig() (env.Config, error) {
	policy, err := env.ParsePolicy(c.Env.Policy)
	if err != nil {
		return env.Config{}, err
	}
	ec := env.Config{
		GridSize:         c.Env.GridSize,
		GridStep:         c.Env.GridStep,
		MaxEpisodeLength: c.Env.MaxEpisodeLength,
		MaxStuckSteps:    c.Env.MaxStuckSteps,
		Policy:           policy,
		Rewards: env.Rewards{
			WinReward:        c.Rewards.WinReward,
			LossPenalty:      c.Rewards.LossPenalty,
			StepPenalty:      c.Rewards.StepPenalty,
			CollisionPenalty: c.Rewards.CollisionPenalty,
			BoundsPenalty:    c.Rewards.BoundsPenalty,
		},
	}
	if err := ec.Validate(); err != nil {
		return env.Config{}, err
	}
	return ec, nil
}
