package env

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Replay stores a deterministic action trace for playback. The seed and
// config are enough to rebuild the exact grid and placement.
type Replay struct {
	Seed       int64        `json:"seed"`
	Config     Config       `json:"config"`
	Actions    []Action     `json:"actions"`
	FinalStats EpisodeStats `json:"final_stats"`
}

// NewReplay creates a new replay recorder
func NewReplay(seed int64, cfg Config) *Replay {
	return &Replay{
		Seed:    seed,
		Config:  cfg,
		Actions: make([]Action, 0, 256),
	}
}

// Record adds an action to the replay
func (r *Replay) Record(action Action) {
	r.Actions = append(r.Actions, action)
}

// SetFinalStats sets the final episode statistics
func (r *Replay) SetFinalStats(stats EpisodeStats) {
	r.FinalStats = stats
}

// Save writes the replay to a file, creating parent directories.
func (r *Replay) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadReplay loads a replay from a file
func LoadReplay(path string) (*Replay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Replay
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode replay %s: %w", path, err)
	}
	return &r, nil
}

// Playback recreates the environment from the replay, reset to the
// recorded starting state.
func (r *Replay) Playback() (*Env, error) {
	e, err := New(r.Config, r.Seed)
	if err != nil {
		return nil, err
	}
	if _, _, err := e.Reset(); err != nil {
		return nil, err
	}
	return e, nil
}

// PlaybackStep applies recorded actions [from, to) to e, stopping early if
// the episode ends.
func (r *Replay) PlaybackStep(e *Env, from, to int) error {
	if to > len(r.Actions) {
		to = len(r.Actions)
	}
	for i := from; i < to && !e.Done(); i++ {
		if _, err := e.Step(r.Actions[i]); err != nil {
			return fmt.Errorf("replay step %d: %w", i, err)
		}
	}
	return nil
}
