package engine

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDirection is returned when a direction name cannot be parsed
var ErrInvalidDirection = errors.New("invalid direction")

// Direction is one of the four ways the board can be shifted
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

// Directions lists every direction in a stable order
var Directions = []Direction{Up, Down, Left, Right}

// String returns the lowercase direction name
func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// ParseDirection converts a direction name or WASD letter into a Direction
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "w":
		return Up, nil
	case "down", "s":
		return Down, nil
	case "left", "a":
		return Left, nil
	case "right", "d":
		return Right, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

// DirectionNames returns the canonical names of all directions
func DirectionNames() []string {
	names := make([]string, len(Directions))
	for i, d := range Directions {
		names[i] = d.String()
	}
	return names
}
