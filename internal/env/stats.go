package env

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Outcome indicates how an episode ended
type Outcome int

const (
	OutcomeNone       Outcome = iota
	OutcomeGoal               // reached the target
	OutcomeStuck              // rejected move with no free neighbour
	OutcomeStuckLimit         // too many consecutive rejected moves
	OutcomeTimeout            // episode length cap reached
)

var outcomeNames = map[Outcome]string{
	OutcomeNone:       "none",
	OutcomeGoal:       "goal",
	OutcomeStuck:      "stuck",
	OutcomeStuckLimit: "stuck_limit",
	OutcomeTimeout:    "timeout",
}

func (o Outcome) String() string {
	if s, ok := outcomeNames[o]; ok {
		return s
	}
	return "unknown"
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *Outcome) UnmarshalText(text []byte) error {
	for k, v := range outcomeNames {
		if v == string(text) {
			*o = k
			return nil
		}
	}
	return fmt.Errorf("unknown outcome %q", text)
}

// EpisodeStats captures all metrics from a single episode
type EpisodeStats struct {
	Reward           float64 `json:"reward"`
	Length           int     `json:"length"`
	Outcome          Outcome `json:"outcome"`
	Seed             int64   `json:"seed"`
	Bounds           Bounds  `json:"bounds"`
	NormalizedReward float64 `json:"normalized_reward"`
	NormalizedLength float64 `json:"normalized_length"`
}

// AggregatedStats holds statistics across multiple episodes
type AggregatedStats struct {
	RewardMean           float64
	RewardStd            float64
	LengthMean           float64
	NormalizedRewardMean float64
	NormalizedRewardStd  float64
	NormalizedRewardMin  float64
	NormalizedRewardMax  float64
	NormalizedLengthMean float64
	SuccessRate          float64
	OutcomeCounts        map[Outcome]int
	NumEpisodes          int
}

// Aggregate computes statistics from multiple episode stats
func Aggregate(episodes []EpisodeStats) AggregatedStats {
	agg := AggregatedStats{OutcomeCounts: make(map[Outcome]int)}
	n := len(episodes)
	if n == 0 {
		return agg
	}
	agg.NumEpisodes = n

	rewards := make([]float64, n)
	lengths := make([]float64, n)
	normRewards := make([]float64, n)
	normLengths := make([]float64, n)
	for i, ep := range episodes {
		rewards[i] = ep.Reward
		lengths[i] = float64(ep.Length)
		normRewards[i] = ep.NormalizedReward
		normLengths[i] = ep.NormalizedLength
		agg.OutcomeCounts[ep.Outcome]++
	}

	agg.RewardMean, agg.RewardStd = stat.PopMeanStdDev(rewards, nil)
	agg.LengthMean = stat.Mean(lengths, nil)
	agg.NormalizedRewardMean, agg.NormalizedRewardStd = stat.PopMeanStdDev(normRewards, nil)
	agg.NormalizedRewardMin = floats.Min(normRewards)
	agg.NormalizedRewardMax = floats.Max(normRewards)
	agg.NormalizedLengthMean = stat.Mean(normLengths, nil)
	agg.SuccessRate = float64(agg.OutcomeCounts[OutcomeGoal]) / float64(n)

	return agg
}

// RobustnessScore computes the ranking score: mean - lambda * std of the
// normalized reward
func (a AggregatedStats) RobustnessScore(lambda float64) float64 {
	return a.NormalizedRewardMean - lambda*a.NormalizedRewardStd
}
