// Package grid implements the lattice world the navigation environment runs on:
// grid construction, random placement of agent and target, the BFS shortest-path
// oracle, the stuck detector and a text renderer.
//
// Coordinates are row-major (row, col) pairs throughout.
package grid

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidGrid = errors.New("invalid grid dimensions")
	ErrPlacement   = errors.New("not enough path cells for placement")
	ErrNoPath      = errors.New("no path between cells")
)

// Position is a (row, col) coordinate on the grid.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Add returns p shifted by d.
func (p Position) Add(d Position) Position {
	return Position{Row: p.Row + d.Row, Col: p.Col + d.Col}
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

// Neighborhood lists the four axis-aligned unit offsets in action order:
// up, down, left, right.
var Neighborhood = [4]Position{
	{Row: -1, Col: 0},
	{Row: 1, Col: 0},
	{Row: 0, Col: -1},
	{Row: 0, Col: 1},
}

// Grid is a square matrix of cells stored row-major.
type Grid struct {
	size  int
	step  int
	cells []Cell
}

// New builds a size x size grid filled with obstacles, then carves a Path
// corridor along every row and column whose index is a multiple of step.
// The result depends only on (size, step).
func New(size, step int) (*Grid, error) {
	if size < 1 || step < 1 {
		return nil, fmt.Errorf("size=%d step=%d: %w", size, step, ErrInvalidGrid)
	}

	g := &Grid{
		size:  size,
		step:  step,
		cells: make([]Cell, size*size),
	}
	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			if row%step == 0 || col%step == 0 {
				g.cells[row*size+col] = Path
			} else {
				g.cells[row*size+col] = Obstacle
			}
		}
	}
	return g, nil
}

// Size returns the side length N.
func (g *Grid) Size() int { return g.size }

// Step returns the corridor spacing the grid was built with.
func (g *Grid) Step() int { return g.step }

// InBounds reports whether p lies on the grid.
func (g *Grid) InBounds(p Position) bool {
	return p.Row >= 0 && p.Row < g.size && p.Col >= 0 && p.Col < g.size
}

// At returns the cell at p. p must be in bounds.
func (g *Grid) At(p Position) Cell {
	return g.cells[p.Row*g.size+p.Col]
}

// Set overwrites the cell at p. p must be in bounds.
func (g *Grid) Set(p Position, c Cell) {
	g.cells[p.Row*g.size+p.Col] = c
}

// Cells returns the row-major backing slice. Callers must not modify it.
func (g *Grid) Cells() []Cell {
	return g.cells
}

// Find returns every position holding c, in row-major order.
func (g *Grid) Find(c Cell) []Position {
	var out []Position
	for i, v := range g.cells {
		if v == c {
			out = append(out, Position{Row: i / g.size, Col: i % g.size})
		}
	}
	return out
}

// Count returns how many cells hold c.
func (g *Grid) Count(c Cell) int {
	n := 0
	for _, v := range g.cells {
		if v == c {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of g.
func (g *Grid) Clone() *Grid {
	cells := make([]Cell, len(g.cells))
	copy(cells, g.cells)
	return &Grid{size: g.size, step: g.step, cells: cells}
}
