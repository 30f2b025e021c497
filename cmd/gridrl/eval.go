package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"gridrl/internal/agent"
	"gridrl/internal/env"
	"gridrl/internal/eval"
	"gridrl/internal/logging"
)

func evalCmd() *cobra.Command {
	var (
		agentName string
		episodes  int
		baseSeed  int64
		workers   int
		epsilon   float64
		replayOut string
		noLive    bool
	)

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate an agent over a range of seeds and log normalized results",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("agent") {
				cfg.Eval.Agent = agentName
			}
			if flags.Changed("episodes") {
				cfg.Eval.Episodes = episodes
			}
			if flags.Changed("seed") {
				cfg.Eval.BaseSeed = baseSeed
			}
			if flags.Changed("workers") {
				cfg.Eval.Workers = workers
			}
			if flags.Changed("epsilon") {
				cfg.Eval.Epsilon = epsilon
			}
			if flags.Changed("replay") {
				cfg.Logging.ReplayPath = replayOut
			}
			if noLive {
				cfg.Logging.Live = false
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			envCfg, err := cfg.EnvConfig()
			if err != nil {
				return err
			}
			factory, err := agent.NewFactory(cfg.Eval.Agent, cfg.Eval.Epsilon)
			if err != nil {
				return err
			}
			ev, err := eval.NewEvaluator(envCfg, factory, cfg.Eval.Workers)
			if err != nil {
				return err
			}

			logger, err := logging.NewLogger(cfg.Logging.CSVPath, cfg.Logging.JSONPath)
			if err != nil {
				return err
			}
			defer logger.Close()
			if err := logger.Init(); err != nil {
				return err
			}

			log.Printf("[EVAL] [INFO] run=%s agent=%s episodes=%d seeds=%d.. workers=%d grid=%dx%d step=%d policy=%s",
				logger.RunID(), cfg.Eval.Agent, cfg.Eval.Episodes, cfg.Eval.BaseSeed, ev.Workers(),
				envCfg.GridSize, envCfg.GridSize, envCfg.GridStep, envCfg.Policy)

			ctx := cmd.Context()
			if cfg.Logging.Live && logging.Interactive(os.Stdout) {
				progress := logging.NewProgress(os.Stdout, ev.Workers(), cfg.Eval.Episodes, 200*time.Millisecond)
				ev.OnEpisode(progress.Update)
				progress.Start(ctx)
				defer progress.Stop()
			}

			start := time.Now()
			episodes, agg, err := ev.Evaluate(ctx, cfg.Eval.BaseSeed, cfg.Eval.Episodes)
			if err != nil {
				return fmt.Errorf("evaluation: %w", err)
			}
			log.Printf("[EVAL] [INFO] finished %d episodes in %s", len(episodes), time.Since(start).Round(time.Millisecond))

			for _, ep := range episodes {
				if err := logger.LogEpisode(cfg.Eval.Agent, ep); err != nil {
					return err
				}
			}
			if err := logger.LogSummary(cfg.Eval.Agent, agg, cfg.Eval.RobustnessLambda); err != nil {
				return err
			}

			if cfg.Logging.ReplayPath != "" && len(episodes) > 0 {
				return saveWorstReplay(ev, episodes, cfg.Logging.ReplayPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&agentName, "agent", "a", "greedy", fmt.Sprintf("agent to evaluate %v", agent.Names))
	cmd.Flags().IntVarP(&episodes, "episodes", "n", 100, "number of episodes")
	cmd.Flags().Int64VarP(&baseSeed, "seed", "s", 1000, "first episode seed")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "parallel workers (0 = one per CPU)")
	cmd.Flags().Float64Var(&epsilon, "epsilon", 0.05, "exploration rate of the greedy agent")
	cmd.Flags().StringVar(&replayOut, "replay", "", "save a replay of the lowest scoring episode to this path")
	cmd.Flags().BoolVar(&noLive, "no-live", false, "disable live progress output")
	return cmd
}

// saveWorstReplay re-runs the episode with the lowest normalized reward and
// writes its action trace.
func saveWorstReplay(ev *eval.Evaluator, episodes []env.EpisodeStats, path string) error {
	worst := episodes[0]
	for _, ep := range episodes[1:] {
		if ep.NormalizedReward < worst.NormalizedReward {
			worst = ep
		}
	}
	replay, _, err := ev.EvaluateWithReplay(worst.Seed)
	if err != nil {
		return err
	}
	if err := replay.Save(path); err != nil {
		return err
	}
	log.Printf("[EVAL] [INFO] saved replay of seed %d (%s, norm %.3f) to %s",
		worst.Seed, worst.Outcome, worst.NormalizedReward, path)
	return nil
}
