package game

import "fmt"

// Direction is a unit move on a grid. Square grids use Up/Down/Left/Right,
// hex grids use the six axial directions.
type Direction uint8

const (
	Up Direction = iota
	Down
	Left
	Right

	East
	NorthEast
	NorthWest
	West
	SouthWest
	SouthEast
)

var (
	// SquareDirections is the neighbour order used by square grids.
	SquareDirections = []Direction{Up, Down, Left, Right}
	// HexDirections is the neighbour order used by hex grids.
	HexDirections = []Direction{East, NorthEast, NorthWest, West, SouthWest, SouthEast}
)

var directionDeltas = [...]Point{
	Up:        {X: 0, Y: 1},
	Down:      {X: 0, Y: -1},
	Left:      {X: -1, Y: 0},
	Right:     {X: 1, Y: 0},
	East:      {X: 1, Y: 0},
	NorthEast: {X: 1, Y: -1},
	NorthWest: {X: 0, Y: -1},
	West:      {X: -1, Y: 0},
	SouthWest: {X: -1, Y: 1},
	SouthEast: {X: 0, Y: 1},
}

var directionNames = [...]string{
	Up:        "up",
	Down:      "down",
	Left:      "left",
	Right:     "right",
	East:      "east",
	NorthEast: "north_east",
	NorthWest: "north_west",
	West:      "west",
	SouthWest: "south_west",
	SouthEast: "south_east",
}

// Delta returns the coordinate offset of one step in d.
func (d Direction) Delta() Point {
	if int(d) >= len(directionDeltas) {
		return Point{}
	}
	return directionDeltas[d]
}

// Opposite returns the direction pointing back the way d came.
func (d Direction) Opposite() Direction {
	switch d {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	case Right:
		return Left
	case East:
		return West
	case West:
		return East
	case NorthEast:
		return SouthWest
	case SouthWest:
		return NorthEast
	case NorthWest:
		return SouthEast
	case SouthEast:
		return NorthWest
	}
	return d
}

// Reverses reports whether moving in o immediately after d is a 180 degree turn.
func (d Direction) Reverses(o Direction) bool {
	a, b := d.Delta(), o.Delta()
	if a == (Point{}) || b == (Point{}) {
		return false
	}
	return a.X+b.X == 0 && a.Y+b.Y == 0
}

func (d Direction) String() string {
	if int(d) >= len(directionNames) {
		return fmt.Sprintf("direction(%d)", uint8(d))
	}
	return directionNames[d]
}

// ParseDirection is the inverse of Direction.String.
func ParseDirection(s string) (Direction, bool) {
	for i, name := range directionNames {
		if name == s {
			return Direction(i), true
		}
	}
	return 0, false
}
