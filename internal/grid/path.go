package grid

import "fmt"

const unvisited = -1

// passable reports whether BFS may expand into c.
func passable(c Cell) bool {
	return c == Path || c == Target
}

// ShortestPathLength returns the minimal number of unit moves from src to dest
// using Lee's algorithm: a level-order BFS over 4-connected Path and Target
// cells. Obstacle, Track and Agent cells are impassable. src itself is never
// checked, so it may hold the agent.
func ShortestPathLength(g *Grid, src, dest Position) (int, error) {
	if !g.InBounds(src) || !g.InBounds(dest) {
		return 0, fmt.Errorf("%v -> %v out of bounds: %w", src, dest, ErrNoPath)
	}
	if src == dest {
		return 0, nil
	}

	dist := make([]int, g.size*g.size)
	for i := range dist {
		dist[i] = unvisited
	}
	dist[src.Row*g.size+src.Col] = 0

	queue := make([]Position, 0, g.size)
	queue = append(queue, src)
	for head := 0; head < len(queue); head++ {
		cur := queue[head]
		d := dist[cur.Row*g.size+cur.Col]
		for _, delta := range Neighborhood {
			next := cur.Add(delta)
			if !g.InBounds(next) {
				continue
			}
			idx := next.Row*g.size + next.Col
			if dist[idx] != unvisited || !passable(g.cells[idx]) {
				continue
			}
			dist[idx] = d + 1
			if next == dest {
				return d + 1, nil
			}
			queue = append(queue, next)
		}
	}
	return 0, fmt.Errorf("%v -> %v: %w", src, dest, ErrNoPath)
}

// DistanceField runs a full BFS from src and returns the row-major distance
// of every cell, with -1 for cells that cannot be reached. Expansion follows
// the same rules as ShortestPathLength.
func DistanceField(g *Grid, src Position) []int {
	dist := make([]int, g.size*g.size)
	for i := range dist {
		dist[i] = unvisited
	}
	if !g.InBounds(src) {
		return dist
	}
	dist[src.Row*g.size+src.Col] = 0

	queue := []Position{src}
	for head := 0; head < len(queue); head++ {
		cur := queue[head]
		d := dist[cur.Row*g.size+cur.Col]
		for _, delta := range Neighborhood {
			next := cur.Add(delta)
			if !g.InBounds(next) {
				continue
			}
			idx := next.Row*g.size + next.Col
			if dist[idx] != unvisited || !passable(g.cells[idx]) {
				continue
			}
			dist[idx] = d + 1
			queue = append(queue, next)
		}
	}
	return dist
}

// IsStuck reports whether none of the four neighbours of p can be entered:
// each is out of bounds, an Obstacle or Track.
func IsStuck(g *Grid, p Position) bool {
	for _, delta := range Neighborhood {
		next := p.Add(delta)
		if g.InBounds(next) && !g.At(next).Blocked() {
			return false
		}
	}
	return true
}
