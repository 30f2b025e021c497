package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"gridrl/internal/agent"
	"gridrl/internal/env"
	"gridrl/internal/grid"
	"gridrl/internal/logging"
)

func playCmd() *cobra.Command {
	var (
		agentName string
		seed      int64
		delay     int
		noDisplay bool
	)

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Run one episode and draw every step in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			seed = seedOrConfig(cmd, seed, cfg)
			if !cmd.Flags().Changed("agent") {
				agentName = cfg.Eval.Agent
			}
			envCfg, err := cfg.EnvConfig()
			if err != nil {
				return err
			}
			factory, err := agent.NewFactory(agentName, cfg.Eval.Epsilon)
			if err != nil {
				return err
			}

			e, err := env.New(envCfg, seed)
			if err != nil {
				return err
			}
			if _, _, err := e.Reset(); err != nil {
				return err
			}
			a := factory(seed)

			fmt.Printf("Agent: %s, Seed: %d, Bounds: %+v\n", a.Name(), seed, e.Bounds())
			fmt.Println("Press Ctrl+C to exit")
			fmt.Println()

			display := NewDisplay(os.Stdout)
			frameDelay := time.Duration(delay) * time.Millisecond
			ctx := cmd.Context()

			last := env.Action(-1)
			for !e.Done() {
				if !noDisplay {
					if err := display.Render(e, last); err != nil {
						return err
					}
					select {
					case <-ctx.Done():
						return ctx.Err()
					case <-time.After(frameDelay):
					}
				}
				last = a.Act(e)
				if _, err := e.Step(last); err != nil {
					return err
				}
			}
			if !noDisplay {
				if err := display.Render(e, last); err != nil {
					return err
				}
			}

			printSummary(e.Stats(seed))
			return nil
		},
	}

	cmd.Flags().StringVarP(&agentName, "agent", "a", "greedy", fmt.Sprintf("agent to run %v", agent.Names))
	cmd.Flags().Int64VarP(&seed, "seed", "s", 0, "episode seed (default: config seed)")
	cmd.Flags().IntVar(&delay, "delay", 100, "delay between frames in milliseconds")
	cmd.Flags().BoolVar(&noDisplay, "no-display", false, "run without display (just print stats)")
	return cmd
}

// Display handles terminal rendering
type Display struct {
	out   io.Writer
	clear bool
}

// NewDisplay creates a display that clears the screen between frames when
// out is a terminal.
func NewDisplay(out *os.File) *Display {
	return &Display{out: out, clear: logging.Interactive(out)}
}

// Render draws the environment and a status line.
func (d *Display) Render(e *env.Env, action env.Action) error {
	if d.clear {
		clearScreen()
	}
	if err := grid.Render(d.out, e.Snapshot()); err != nil {
		return err
	}

	actionDisplay := "---"
	if action.Valid() {
		actionDisplay = action.String()
	}
	b := e.Bounds()
	fmt.Fprintf(d.out, "  Step: %3d/%d | Shortest: %d | Reward: %7.3f | Stuck: %d | Action: %s\n",
		e.Timestep(), b.MaxEpisodeLength, b.MinEpisodeLength, e.EpisodeReward(), e.StuckSteps(), actionDisplay)

	if e.Done() {
		_, err := fmt.Fprintf(d.out, "  %s: %s\n", e.Phase(), e.Outcome())
		return err
	}
	return nil
}

func printSummary(stats env.EpisodeStats) {
	fmt.Println()
	fmt.Println("═══════════════════════════════════")
	fmt.Printf("  Episode over: %s\n", stats.Outcome)
	fmt.Printf("  Steps: %d (shortest %d, cap %d)\n", stats.Length, stats.Bounds.MinEpisodeLength, stats.Bounds.MaxEpisodeLength)
	fmt.Printf("  Reward: %.3f in [%.3f, %.3f]\n", stats.Reward, stats.Bounds.MinEpisodeReward, stats.Bounds.MaxEpisodeReward)
	fmt.Println("═══════════════════════════════════")
}

func clearScreen() {
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.Command("cmd", "/c", "cls")
	} else {
		cmd = exec.Command("clear")
	}
	cmd.Stdout = os.Stdout
	cmd.Run()
}
