package env

import "gridrl/internal/grid"

// Action is one of the four unit moves.
type Action int

const (
	ActionUp Action = iota
	ActionDown
	ActionLeft
	ActionRight
)

// NumActions is the size of the discrete action space.
const NumActions = 4

// Valid reports whether a is in the action space.
func (a Action) Valid() bool {
	return a >= ActionUp && a <= ActionRight
}

// Delta returns the position offset of the move.
func (a Action) Delta() grid.Position {
	return grid.Neighborhood[a]
}

func (a Action) String() string {
	switch a {
	case ActionUp:
		return "up"
	case ActionDown:
		return "down"
	case ActionLeft:
		return "left"
	case ActionRight:
		return "right"
	default:
		return "unknown"
	}
}
