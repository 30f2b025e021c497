package grid

// Cell is the state of a single grid cell.
type Cell uint8

const (
	Path     Cell = iota // traversable
	Obstacle             // impassable
	Track                // visited by the agent this episode
	Agent
	Target
)

// Intensity returns the observation value of the cell on a 0..255 scale.
// Values are strictly increasing in the order Path, Obstacle, Track, Agent, Target
// so a consumer can recover the cell class from the value alone.
func (c Cell) Intensity() float64 {
	switch c {
	case Obstacle:
		return 255 * 0.25
	case Track:
		return 255 * 0.5
	case Agent:
		return 255 * 0.75
	case Target:
		return 255
	default:
		return 0
	}
}

// Glyph returns the character used by Render.
func (c Cell) Glyph() rune {
	switch c {
	case Obstacle:
		return '#'
	case Track:
		return '*'
	case Agent:
		return 'A'
	case Target:
		return 'T'
	default:
		return '.'
	}
}

func (c Cell) String() string {
	switch c {
	case Path:
		return "path"
	case Obstacle:
		return "obstacle"
	case Track:
		return "track"
	case Agent:
		return "agent"
	case Target:
		return "target"
	default:
		return "unknown"
	}
}

// Blocked reports whether the agent may not enter the cell.
func (c Cell) Blocked() bool {
	return c == Obstacle || c == Track
}
