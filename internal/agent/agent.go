// Package agent provides baseline controllers for the navigation environment.
// They are reference points for evaluation, not learners.
package agent

import (
	"errors"
	"fmt"
	"math/rand"

	"gridrl/internal/env"
	"gridrl/internal/grid"
)

var ErrUnknownAgent = errors.New("unknown agent")

// Agent chooses the next action for an active Env. Agents may keep state
// (a random source, buffers) and are not safe for concurrent use.
type Agent interface {
	Name() string
	Act(e *env.Env) env.Action
}

// Factory builds a fresh Agent for one worker. seed feeds the agent's own
// random source, independent of the Env's.
type Factory func(seed int64) Agent

// Names lists the agents NewFactory understands.
var Names = []string{"random", "greedy", "oracle"}

// NewFactory returns a Factory for the named agent. epsilon is the
// exploration rate of the greedy agent and ignored by the others.
func NewFactory(name string, epsilon float64) (Factory, error) {
	switch name {
	case "random":
		return func(seed int64) Agent { return NewRandom(seed) }, nil
	case "greedy":
		if epsilon < 0 || epsilon > 1 {
			return nil, fmt.Errorf("greedy epsilon %.3g outside [0, 1]", epsilon)
		}
		return func(seed int64) Agent { return NewGreedy(epsilon, seed) }, nil
	case "oracle":
		return func(int64) Agent { return Oracle{} }, nil
	default:
		return nil, fmt.Errorf("%q (want one of %v): %w", name, Names, ErrUnknownAgent)
	}
}

// Random samples actions uniformly.
type Random struct {
	rng *rand.Rand
}

func NewRandom(seed int64) *Random {
	return &Random{rng: rand.New(rand.NewSource(seed))}
}

func (r *Random) Name() string { return "random" }

func (r *Random) Act(*env.Env) env.Action {
	return env.Action(r.rng.Intn(env.NumActions))
}

// Greedy prefers moves that are not blocked and bring the agent closer to the
// target by Manhattan distance. With probability epsilon it acts randomly.
type Greedy struct {
	epsilon  float64
	rng      *rand.Rand
	features *env.FeatureExtractor
}

func NewGreedy(epsilon float64, seed int64) *Greedy {
	return &Greedy{
		epsilon:  epsilon,
		rng:      rand.New(rand.NewSource(seed)),
		features: env.NewFeatureExtractor(),
	}
}

func (g *Greedy) Name() string { return "greedy" }

func (g *Greedy) Act(e *env.Env) env.Action {
	if g.epsilon > 0 && g.rng.Float64() < g.epsilon {
		return env.Action(g.rng.Intn(env.NumActions))
	}

	f := g.features.Extract(e)
	// f[4], f[5] point from the agent to the target.
	dr, dc := f[4], f[5]

	best, bestScore := env.Action(-1), float32(0)
	for a := env.ActionUp; a <= env.ActionRight; a++ {
		if f[a] != 0 {
			continue
		}
		d := a.Delta()
		score := float32(d.Row)*dr + float32(d.Col)*dc
		if best < 0 || score > bestScore {
			best, bestScore = a, score
		}
	}
	if best < 0 {
		return env.Action(g.rng.Intn(env.NumActions))
	}
	return best
}

// Oracle follows the BFS distance field from the target, so it always walks
// a shortest path and finishes in MinEpisodeLength steps.
type Oracle struct{}

func (Oracle) Name() string { return "oracle" }

func (Oracle) Act(e *env.Env) env.Action {
	g := e.Snapshot()
	if g == nil {
		return env.ActionUp
	}
	dist := grid.DistanceField(g, e.Target())
	here := e.Agent()

	best, bestDist := env.ActionUp, -1
	for a := env.ActionUp; a <= env.ActionRight; a++ {
		p := here.Add(a.Delta())
		if !g.InBounds(p) {
			continue
		}
		d := dist[p.Row*g.Size()+p.Col]
		if d < 0 {
			continue
		}
		if bestDist < 0 || d < bestDist {
			best, bestDist = a, d
		}
	}
	return best
}
