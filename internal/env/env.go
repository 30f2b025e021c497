// Package env implements the grid navigation environment: an episode state
// machine over a lattice grid with a pluggable reward policy.
//
// An Env is not safe for concurrent use. Run one Env per goroutine; separate
// instances share no state.
package env

import (
	"errors"
	"fmt"
	"math/rand"

	"gridrl/internal/grid"
)

var (
	ErrInvalidConfig = errors.New("invalid environment config")
	ErrNotActive     = errors.New("episode is not active; call Reset")
	ErrInvalidAction = errors.New("invalid action")
)

// Phase is the lifecycle state of an Env.
type Phase int

const (
	PhaseFresh Phase = iota // constructed, never reset
	PhaseActive
	PhaseTerminated
	PhaseTruncated
)

func (p Phase) String() string {
	switch p {
	case PhaseFresh:
		return "fresh"
	case PhaseActive:
		return "active"
	case PhaseTerminated:
		return "terminated"
	case PhaseTruncated:
		return "truncated"
	default:
		return "unknown"
	}
}

// Config defines an environment.
type Config struct {
	GridSize         int     `json:"grid_size"`
	GridStep         int     `json:"grid_step"`
	MaxEpisodeLength int     `json:"max_episode_length"` // 0 selects DefaultMaxEpisodeLength
	MaxStuckSteps    int     `json:"max_stuck_steps"`    // 0 disables the cap
	Policy           Policy  `json:"policy"`
	Rewards          Rewards `json:"rewards"`
}

// DefaultConfig returns a 16x16 lattice with corridors every other cell.
func DefaultConfig() Config {
	return Config{
		GridSize:      16,
		GridStep:      2,
		MaxStuckSteps: 5,
		Policy:        PolicyStandard,
		Rewards:       DefaultRewards(),
	}
}

// Validate checks cfg without building anything.
func (c Config) Validate() error {
	if c.GridSize < 1 || c.GridStep < 1 {
		return fmt.Errorf("grid_size=%d grid_step=%d: %w", c.GridSize, c.GridStep, grid.ErrInvalidGrid)
	}
	if c.MaxEpisodeLength < 0 {
		return fmt.Errorf("max_episode_length=%d: %w", c.MaxEpisodeLength, ErrInvalidConfig)
	}
	if c.Policy != PolicyStandard && c.Policy != PolicySimple {
		return fmt.Errorf("policy %d: %w", c.Policy, ErrInvalidConfig)
	}
	return c.Rewards.validate()
}

// StepResult is everything Step reports about one move.
type StepResult struct {
	Observation *Observation
	Reward      float64
	Terminated  bool
	Truncated   bool
	Info        Info
}

// Done reports whether the episode ended on this step.
func (r StepResult) Done() bool {
	return r.Terminated || r.Truncated
}

// Env is the grid navigation environment.
type Env struct {
	cfg Config
	rng *rand.Rand

	grid   *grid.Grid
	agent  grid.Position
	target grid.Position

	phase      Phase
	timestep   int
	stuckSteps int
	reward     float64
	outcome    Outcome
	bounds     Bounds
}

// New validates cfg and returns a fresh Env that owns a random source seeded
// with seed. Call Reset before stepping.
func New(cfg Config, seed int64) (*Env, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Env{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}, nil
}

// Config returns the configuration the Env was built with.
func (e *Env) Config() Config {
	return e.cfg
}

// ResetSeed reseeds the random source and resets.
func (e *Env) ResetSeed(seed int64) (*Observation, Info, error) {
	e.rng = rand.New(rand.NewSource(seed))
	return e.Reset()
}

// Reset rebuilds the grid, places agent and target, recomputes the bounds
// and starts a new episode. On error the Env is left fresh, with no grid and
// zero bounds.
func (e *Env) Reset() (*Observation, Info, error) {
	e.phase = PhaseFresh
	e.grid = nil
	e.agent, e.target = grid.Position{}, grid.Position{}
	e.timestep, e.stuckSteps, e.reward = 0, 0, 0
	e.outcome = OutcomeNone
	e.bounds = Bounds{}

	g, err := grid.New(e.cfg.GridSize, e.cfg.GridStep)
	if err != nil {
		return nil, nil, fmt.Errorf("reset: %w", err)
	}
	agent, target, err := grid.Place(g, e.rng)
	if err != nil {
		return nil, nil, fmt.Errorf("reset: %w", err)
	}
	shortest, err := grid.ShortestPathLength(g, agent, target)
	if err != nil {
		// The lattice is connected by construction; reaching this is a bug.
		return nil, nil, fmt.Errorf("reset: %w", err)
	}

	e.grid = g
	e.agent = agent
	e.target = target
	e.timestep = 0
	e.stuckSteps = 0
	e.reward = 0
	e.outcome = OutcomeNone
	e.bounds = computeBounds(shortest, e.cfg)
	e.phase = PhaseActive

	return newObservation(e.grid), e.bounds.Info(), nil
}

// Step attempts to move the agent one cell. It fails with ErrNotActive unless
// the episode is active, leaving the Env untouched.
func (e *Env) Step(a Action) (StepResult, error) {
	if e.phase != PhaseActive {
		return StepResult{}, fmt.Errorf("step in %s phase: %w", e.phase, ErrNotActive)
	}
	if !a.Valid() {
		return StepResult{}, fmt.Errorf("action %d: %w", int(a), ErrInvalidAction)
	}

	candidate := e.agent.Add(a.Delta())
	move := MoveAccepted
	switch {
	case !e.grid.InBounds(candidate):
		move = MoveOutOfBounds
	case e.grid.At(candidate).Blocked():
		move = MoveBlocked
	}

	reached := false
	if move == MoveAccepted {
		reached = candidate == e.target
		e.grid.Set(e.agent, grid.Track)
		e.grid.Set(candidate, grid.Agent)
		e.agent = candidate
		e.stuckSteps = 0
	} else {
		e.stuckSteps++
	}
	e.timestep++

	d := e.cfg.Policy.Decide(e.cfg.Rewards, Transition{
		Move:          move,
		ReachedTarget: reached,
		Stuck:         move != MoveAccepted && grid.IsStuck(e.grid, e.agent),
		Timestep:      e.timestep,
		StuckSteps:    e.stuckSteps,
		MaxLength:     e.bounds.MaxEpisodeLength,
		MaxStuckSteps: e.cfg.MaxStuckSteps,
	})

	e.reward += d.Reward
	e.outcome = d.Outcome
	switch {
	case d.Terminated:
		e.phase = PhaseTerminated
	case d.Truncated:
		e.phase = PhaseTruncated
	}

	info := e.bounds.Info()
	info[InfoTimestep] = float64(e.timestep)
	info[InfoStuckSteps] = float64(e.stuckSteps)

	return StepResult{
		Observation: newObservation(e.grid),
		Reward:      d.Reward,
		Terminated:  d.Terminated,
		Truncated:   d.Truncated,
		Info:        info,
	}, nil
}

// Bounds returns the bounds computed at the last reset.
func (e *Env) Bounds() Bounds {
	return e.bounds
}

// Info returns Bounds in map form.
func (e *Env) Info() Info {
	return e.bounds.Info()
}

// Observation renders the current grid.
func (e *Env) Observation() *Observation {
	if e.grid == nil {
		return nil
	}
	return newObservation(e.grid)
}

// Snapshot returns a copy of the current grid for rendering or analysis.
func (e *Env) Snapshot() *grid.Grid {
	if e.grid == nil {
		return nil
	}
	return e.grid.Clone()
}

func (e *Env) Phase() Phase { return e.phase }
func (e *Env) Timestep() int { return e.timestep }
func (e *Env) StuckSteps() int { return e.stuckSteps }
func (e *Env) Agent() grid.Position { return e.agent }
func (e *Env) Target() grid.Position { return e.target }
func (e *Env) EpisodeReward() float64 { return e.reward }
func (e *Env) Outcome() Outcome { return e.outcome }
func (e *Env) Done() bool { return e.phase == PhaseTerminated || e.phase == PhaseTruncated }

// Blocked reports whether moving with a from the agent's cell would be
// rejected. It does not change state.
func (e *Env) Blocked(a Action) bool {
	if e.grid == nil || !a.Valid() {
		return true
	}
	p := e.agent.Add(a.Delta())
	return !e.grid.InBounds(p) || e.grid.At(p).Blocked()
}

// Stats returns the episode statistics so far.
func (e *Env) Stats(seed int64) EpisodeStats {
	return EpisodeStats{
		Reward:  e.reward,
		Length:  e.timestep,
		Outcome: e.outcome,
		Seed:    seed,
		Bounds:  e.bounds,
	}
}
