package grid

import (
	"fmt"
	"math/rand"
)

// Place picks two distinct Path cells uniformly at random, marks them Agent
// and Target, and returns their positions. The caller owns rng; seeding it
// makes placement reproducible.
func Place(g *Grid, rng *rand.Rand) (agent, target Position, err error) {
	free := g.Find(Path)
	if len(free) < 2 {
		return Position{}, Position{}, fmt.Errorf("%d path cells: %w", len(free), ErrPlacement)
	}

	// Sample without replacement: draw the second index from the remaining n-1
	// slots and shift past the first.
	i := rng.Intn(len(free))
	j := rng.Intn(len(free) - 1)
	if j >= i {
		j++
	}

	agent, target = free[i], free[j]
	g.Set(agent, Agent)
	g.Set(target, Target)
	return agent, target, nil
}
