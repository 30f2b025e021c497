package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"gridrl/internal/env"
	"gridrl/internal/grid"
)

func boundsCmd() *cobra.Command {
	var (
		seed  int64
		count int
		show  bool
	)

	cmd := &cobra.Command{
		Use:   "bounds",
		Short: "Print the episode bounds produced by reset for a range of seeds",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			seed = seedOrConfig(cmd, seed, cfg)
			envCfg, err := cfg.EnvConfig()
			if err != nil {
				return err
			}
			e, err := env.New(envCfg, seed)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SEED\tAGENT\tTARGET\tMIN_LEN\tMAX_LEN\tMIN_REWARD\tMAX_REWARD")
			for i := 0; i < count; i++ {
				s := seed + int64(i)
				if _, _, err := e.ResetSeed(s); err != nil {
					return err
				}
				b := e.Bounds()
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%.4f\t%.4f\n",
					s, e.Agent(), e.Target(), b.MinEpisodeLength, b.MaxEpisodeLength, b.MinEpisodeReward, b.MaxEpisodeReward)
				if show {
					if err := tw.Flush(); err != nil {
						return err
					}
					if err := grid.Render(os.Stdout, e.Snapshot()); err != nil {
						return err
					}
				}
			}
			return tw.Flush()
		},
	}

	cmd.Flags().Int64VarP(&seed, "seed", "s", 0, "first seed (default: config seed)")
	cmd.Flags().IntVarP(&count, "count", "n", 10, "number of seeds")
	cmd.Flags().BoolVar(&show, "show", false, "draw each grid")
	return cmd
}
