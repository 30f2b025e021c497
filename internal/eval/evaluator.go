// Package eval runs agents over batches of seeded episodes and normalizes the
// results with each episode's bounds.
package eval

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"gridrl/internal/agent"
	"gridrl/internal/env"
)

// EpisodeFunc is called after every finished episode. Calls come from worker
// goroutines and may be concurrent.
type EpisodeFunc func(worker, done, total int, stats env.EpisodeStats)

// Evaluator handles episode evaluation over a bounded worker pool
type Evaluator struct {
	cfg       env.Config
	factory   agent.Factory
	workers   int
	onEpisode EpisodeFunc
}

// NewEvaluator creates a new evaluator. workers <= 0 uses one per CPU.
func NewEvaluator(cfg env.Config, factory agent.Factory, workers int) (*Evaluator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Evaluator{
		cfg:     cfg,
		factory: factory,
		workers: workers,
	}, nil
}

// OnEpisode registers a progress callback.
func (ev *Evaluator) OnEpisode(fn EpisodeFunc) {
	ev.onEpisode = fn
}

// Workers returns the pool size.
func (ev *Evaluator) Workers() int {
	return ev.workers
}

// EvaluateEpisode runs one episode on e with a fresh agent seeded with seed.
// e is reset with seed, so the result depends only on (config, agent, seed).
func (ev *Evaluator) EvaluateEpisode(e *env.Env, seed int64) (env.EpisodeStats, error) {
	return ev.run(e, seed, nil)
}

func (ev *Evaluator) run(e *env.Env, seed int64, replay *env.Replay) (env.EpisodeStats, error) {
	if _, _, err := e.ResetSeed(seed); err != nil {
		return env.EpisodeStats{}, fmt.Errorf("seed %d: %w", seed, err)
	}
	a := ev.factory(seed)

	for !e.Done() {
		action := a.Act(e)
		if replay != nil {
			replay.Record(action)
		}
		if _, err := e.Step(action); err != nil {
			return env.EpisodeStats{}, fmt.Errorf("seed %d: %w", seed, err)
		}
	}

	stats := e.Stats(seed)
	Normalize(&stats)
	return stats, nil
}

// EvaluateSeeds runs one episode per seed and returns the stats in seed
// order. Each worker owns its Env, so results do not depend on scheduling.
func (ev *Evaluator) EvaluateSeeds(ctx context.Context, seeds []int64) ([]env.EpisodeStats, error) {
	results := make([]env.EpisodeStats, len(seeds))
	jobs := make(chan int)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		done     int
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workers := min(ev.workers, max(len(seeds), 1))
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			e, err := env.New(ev.cfg, 0)
			if err != nil {
				fail(err)
				cancel()
				return
			}
			for i := range jobs {
				stats, err := ev.run(e, seeds[i], nil)
				if err != nil {
					fail(err)
					cancel()
					return
				}
				results[i] = stats

				mu.Lock()
				done++
				n := done
				mu.Unlock()
				if ev.onEpisode != nil {
					ev.onEpisode(worker, n, len(seeds), stats)
				}
			}
		}(w)
	}

feed:
	for i := range seeds {
		if ctx.Err() != nil {
			break
		}
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil && done < len(seeds) {
		return nil, err
	}
	return results, nil
}

// Evaluate runs n episodes with seeds base, base+1, ... and aggregates them.
func (ev *Evaluator) Evaluate(ctx context.Context, base int64, n int) ([]env.EpisodeStats, env.AggregatedStats, error) {
	episodes, err := ev.EvaluateSeeds(ctx, SeedRange(base, n))
	if err != nil {
		return nil, env.AggregatedStats{}, err
	}
	return episodes, env.Aggregate(episodes), nil
}

// EvaluateWithReplay runs an episode and records actions for replay
func (ev *Evaluator) EvaluateWithReplay(seed int64) (*env.Replay, env.EpisodeStats, error) {
	e, err := env.New(ev.cfg, seed)
	if err != nil {
		return nil, env.EpisodeStats{}, err
	}
	replay := env.NewReplay(seed, ev.cfg)
	stats, err := ev.run(e, seed, replay)
	if err != nil {
		return nil, env.EpisodeStats{}, err
	}
	replay.SetFinalStats(stats)
	return replay, stats, nil
}

// SeedRange returns n consecutive seeds starting at base.
func SeedRange(base int64, n int) []int64 {
	seeds := make([]int64, n)
	for i := range seeds {
		seeds[i] = base + int64(i)
	}
	return seeds
}
