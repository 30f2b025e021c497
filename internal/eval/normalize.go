package eval

import "gridrl/internal/env"

// NormalizeReward rescales a raw episode reward onto [0, 1] using the bounds
// of the grid it was earned on: 0 is the worst achievable episode, 1 the best.
func NormalizeReward(raw float64, b env.Bounds) float64 {
	return rescale(raw, b.MinEpisodeReward, b.MaxEpisodeReward)
}

// NormalizeLength rescales an episode length onto [0, 1]: 0 is the shortest
// path, 1 the length cap.
func NormalizeLength(length int, b env.Bounds) float64 {
	return rescale(float64(length), float64(b.MinEpisodeLength), float64(b.MaxEpisodeLength))
}

// Normalize fills the normalized fields of s from its raw values and bounds.
func Normalize(s *env.EpisodeStats) {
	s.NormalizedReward = NormalizeReward(s.Reward, s.Bounds)
	s.NormalizedLength = NormalizeLength(s.Length, s.Bounds)
}

// rescale maps v from [lo, hi] to [0, 1]. A degenerate range maps to 0.
func rescale(v, lo, hi float64) float64 {
	if hi <= lo {
		return 0
	}
	return (v - lo) / (hi - lo)
}
