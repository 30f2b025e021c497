package env

import "fmt"

// Policy selects the reward and termination rules an Env applies to every
// step. It is fixed when the Env is constructed.
type Policy int

const (
	// PolicyStandard penalises leaving the grid harder than collisions and
	// truncates as soon as a rejected move leaves the agent boxed in.
	PolicyStandard Policy = iota
	// PolicySimple charges the collision penalty for every rejected move and
	// truncates only on the stuck-step cap or the episode length cap.
	PolicySimple
)

// ParsePolicy maps a config name to a Policy.
func ParsePolicy(name string) (Policy, error) {
	switch name {
	case "", "standard":
		return PolicyStandard, nil
	case "simple":
		return PolicySimple, nil
	default:
		return 0, fmt.Errorf("unknown reward policy %q: %w", name, ErrInvalidConfig)
	}
}

func (p Policy) String() string {
	switch p {
	case PolicyStandard:
		return "standard"
	case PolicySimple:
		return "simple"
	default:
		return "unknown"
	}
}

func (p Policy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Policy) UnmarshalText(text []byte) error {
	v, err := ParsePolicy(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Rewards holds the per-step reward constants.
type Rewards struct {
	WinReward        float64 `json:"win_reward"`
	LossPenalty      float64 `json:"loss_penalty"`
	StepPenalty      float64 `json:"step_penalty"`
	CollisionPenalty float64 `json:"collision_penalty"`
	BoundsPenalty    float64 `json:"bounds_penalty"`
}

// DefaultRewards returns the constants of the latest environment revision.
func DefaultRewards() Rewards {
	return Rewards{
		WinReward:        1.0,
		LossPenalty:      -1.0,
		StepPenalty:      -0.001,
		CollisionPenalty: -0.05,
		BoundsPenalty:    -0.1,
	}
}

// worstStep is the most negative reward a single non-final step can earn.
func (r Rewards) worstStep() float64 {
	return min(r.StepPenalty, r.CollisionPenalty, r.BoundsPenalty)
}

func (r Rewards) validate() error {
	if r.WinReward <= r.LossPenalty {
		return fmt.Errorf("win_reward %.4g must exceed loss_penalty %.4g: %w", r.WinReward, r.LossPenalty, ErrInvalidConfig)
	}
	if r.StepPenalty > 0 || r.CollisionPenalty > 0 || r.BoundsPenalty > 0 {
		return fmt.Errorf("step, collision and bounds penalties must be <= 0: %w", ErrInvalidConfig)
	}
	return nil
}

// MoveKind classifies an attempted move.
type MoveKind int

const (
	MoveAccepted MoveKind = iota
	MoveOutOfBounds
	MoveBlocked // obstacle or track
)

// Transition describes one attempted move after the grid has been updated.
type Transition struct {
	Move          MoveKind
	ReachedTarget bool // the accepted move landed on the target
	Stuck         bool // the move was rejected and the agent has no free neighbour
	Timestep      int  // steps taken, including this one
	StuckSteps    int  // consecutive rejected moves, including this one
	MaxLength     int
	MaxStuckSteps int // <= 0 disables the cap
}

// Decision is the policy's verdict for a Transition.
type Decision struct {
	Reward     float64
	Terminated bool
	Truncated  bool
	Outcome    Outcome
}

// Decide applies the policy's rules to t.
// Reaching the target always wins over truncation in the same step.
func (p Policy) Decide(r Rewards, t Transition) Decision {
	var d Decision

	switch t.Move {
	case MoveOutOfBounds:
		d.Reward = r.BoundsPenalty
		if p == PolicySimple {
			d.Reward = r.CollisionPenalty
		}
	case MoveBlocked:
		d.Reward = r.CollisionPenalty
	default:
		d.Reward = r.StepPenalty
	}

	if t.Move == MoveAccepted && t.ReachedTarget {
		d.Reward = r.WinReward
		d.Terminated = true
		d.Outcome = OutcomeGoal
		return d
	}

	switch {
	case p == PolicyStandard && t.Move != MoveAccepted && t.Stuck:
		d.Outcome = OutcomeStuck
	case t.MaxStuckSteps > 0 && t.StuckSteps >= t.MaxStuckSteps:
		d.Outcome = OutcomeStuckLimit
	case t.Timestep >= t.MaxLength:
		d.Outcome = OutcomeTimeout
	default:
		return d
	}
	d.Reward = r.LossPenalty
	d.Truncated = true
	return d
}
