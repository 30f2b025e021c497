package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"gridrl/internal/env"
	"gridrl/internal/eval"
)

func replayCmd() *cobra.Command {
	var (
		delay     int
		noDisplay bool
	)

	cmd := &cobra.Command{
		Use:   "replay <file>",
		Short: "Play back a recorded episode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			replay, err := env.LoadReplay(args[0])
			if err != nil {
				return err
			}
			e, err := replay.Playback()
			if err != nil {
				return err
			}

			display := NewDisplay(os.Stdout)
			frameDelay := time.Duration(delay) * time.Millisecond
			ctx := cmd.Context()

			for i := range replay.Actions {
				if e.Done() {
					break
				}
				if err := replay.PlaybackStep(e, i, i+1); err != nil {
					return err
				}
				if noDisplay {
					continue
				}
				if err := display.Render(e, replay.Actions[i]); err != nil {
					return err
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(frameDelay):
				}
			}

			stats := e.Stats(replay.Seed)
			eval.Normalize(&stats)
			printSummary(stats)

			want := replay.FinalStats
			if stats.Length != want.Length || stats.Outcome != want.Outcome || stats.Reward != want.Reward {
				log.Printf("[REPLAY] [WARN] playback diverged: got %s in %d steps (%.4f), recorded %s in %d steps (%.4f)",
					stats.Outcome, stats.Length, stats.Reward, want.Outcome, want.Length, want.Reward)
				return fmt.Errorf("replay %s does not reproduce", args[0])
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&delay, "delay", 100, "delay between frames in milliseconds")
	cmd.Flags().BoolVar(&noDisplay, "no-display", false, "verify the replay without drawing it")
	return cmd
}
