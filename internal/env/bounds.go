package env

import "math"

// Info keys shared with metrics consumers.
const (
	InfoMinEpisodeLength = "min_episode_length"
	InfoMaxEpisodeLength = "max_episode_length"
	InfoMinEpisodeReward = "min_episode_reward"
	InfoMaxEpisodeReward = "max_episode_reward"
	InfoTimestep         = "timestep"
	InfoStuckSteps       = "stuck_steps"
)

// Info is the auxiliary data returned by Reset and Step.
type Info map[string]float64

// Bounds are the best and worst achievable episode length and reward for the
// current episode. They are computed at reset and never change until the next
// reset, so raw results from different grids can be rescaled onto one range.
type Bounds struct {
	MinEpisodeLength int     `json:"min_episode_length"`
	MaxEpisodeLength int     `json:"max_episode_length"`
	MinEpisodeReward float64 `json:"min_episode_reward"`
	MaxEpisodeReward float64 `json:"max_episode_reward"`
}

// Info returns b in map form.
func (b Bounds) Info() Info {
	return Info{
		InfoMinEpisodeLength: float64(b.MinEpisodeLength),
		InfoMaxEpisodeLength: float64(b.MaxEpisodeLength),
		InfoMinEpisodeReward: b.MinEpisodeReward,
		InfoMaxEpisodeReward: b.MaxEpisodeReward,
	}
}

// DefaultMaxEpisodeLength is the step cap used when none is configured:
// N*N/sqrt(N), truncated.
func DefaultMaxEpisodeLength(gridSize int) int {
	n := float64(gridSize)
	return int(n * n / math.Sqrt(n))
}

// computeBounds derives the episode bounds from the shortest path length.
// The best episode walks the shortest path and collects the win reward on the
// last step; the worst one spends every step but the last on the harshest
// per-step penalty and ends on the loss penalty.
func computeBounds(shortest int, cfg Config) Bounds {
	maxLen := cfg.MaxEpisodeLength
	if maxLen <= 0 {
		maxLen = DefaultMaxEpisodeLength(cfg.GridSize)
	}
	maxLen = max(maxLen, shortest)

	r := cfg.Rewards
	return Bounds{
		MinEpisodeLength: shortest,
		MaxEpisodeLength: maxLen,
		MinEpisodeReward: float64(maxLen-1)*r.worstStep() + r.LossPenalty,
		MaxEpisodeReward: float64(shortest-1)*r.StepPenalty + r.WinReward,
	}
}
