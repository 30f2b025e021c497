package grid

import (
	"io"
	"strings"
)

// Render draws g inside a box border, one glyph per cell. It only reads g,
// so presentation layers can call it on a snapshot at any time.
func Render(w io.Writer, g *Grid) error {
	_, err := io.WriteString(w, g.String())
	return err
}

// String renders g the same way as Render.
func (g *Grid) String() string {
	var b strings.Builder
	b.Grow((g.size*2 + 3) * (g.size + 2) * 3)

	b.WriteString("┌")
	b.WriteString(strings.Repeat("──", g.size))
	b.WriteString("┐\n")

	for row := 0; row < g.size; row++ {
		b.WriteString("│")
		for col := 0; col < g.size; col++ {
			b.WriteByte(' ')
			b.WriteRune(g.cells[row*g.size+col].Glyph())
		}
		b.WriteString("│\n")
	}

	b.WriteString("└")
	b.WriteString(strings.Repeat("──", g.size))
	b.WriteString("┘\n")
	return b.String()
}
