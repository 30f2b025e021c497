package env

import (
	"gonum.org/v1/gonum/mat"

	"gridrl/internal/grid"
)

// Observation is the grid rendered as a single-channel image: an N x N matrix
// of cell intensities in [0, 255].
type Observation struct {
	*mat.Dense
}

func newObservation(g *grid.Grid) *Observation {
	n := g.Size()
	data := make([]float64, n*n)
	for i, c := range g.Cells() {
		data[i] = c.Intensity()
	}
	return &Observation{Dense: mat.NewDense(n, n, data)}
}

// Shape returns the image shape (rows, cols, channels).
func (o *Observation) Shape() [3]int {
	r, c := o.Dims()
	return [3]int{r, c, 1}
}

// CellAt decodes the cell class at p from its intensity.
func (o *Observation) CellAt(p grid.Position) (grid.Cell, bool) {
	v := o.At(p.Row, p.Col)
	for _, c := range []grid.Cell{grid.Path, grid.Obstacle, grid.Track, grid.Agent, grid.Target} {
		if c.Intensity() == v {
			return c, true
		}
	}
	return 0, false
}
