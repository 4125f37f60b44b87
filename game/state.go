// Package game defines the board primitives shared by the arena simulation.
//
// Coordinates, directions, grid geometry, the occupancy board and snake
// bodies live here. Nothing in this package touches the clock or does I/O,
// so the simulation built on top of it is reproducible given a seed.
package game

// Point is a board coordinate.
// On square grids (0,0) is bottom-left and Up is Y+1 (Battlesnake conventions).
// On hex grids X and Y hold the axial q and r coordinates.
type Point struct {
	X int32
	Y int32
}

// Add returns p translated by d.
func (p Point) Add(d Point) Point {
	return Point{X: p.X + d.X, Y: p.Y + d.Y}
}

// SnakeState is the collaborator-facing view of one snake.
type SnakeState struct {
	Id          string
	Body        []Point
	Alive       bool
	Score       int
	Personality string
	Difficulty  float64
	Action      string
}

// GameState is a point-in-time snapshot of a running arena, consumed by
// renderers, replay recording and the spectator feed.
type GameState struct {
	Width  int32
	Height int32
	Hex    bool
	Mode   string
	Turn   int32
	Time   float64
	Snakes []SnakeState
	Food   []Food
	Winner string
	Over   bool
}

// Clone performs a deep copy of the game state.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}

	out := &GameState{
		Width:  s.Width,
		Height: s.Height,
		Hex:    s.Hex,
		Mode:   s.Mode,
		Turn:   s.Turn,
		Time:   s.Time,
		Winner: s.Winner,
		Over:   s.Over,
	}

	if len(s.Food) > 0 {
		out.Food = make([]Food, len(s.Food))
		copy(out.Food, s.Food)
	}

	if len(s.Snakes) > 0 {
		out.Snakes = make([]SnakeState, len(s.Snakes))
		for i := range s.Snakes {
			out.Snakes[i] = s.Snakes[i]
			out.Snakes[i].Body = nil
			if len(s.Snakes[i].Body) > 0 {
				out.Snakes[i].Body = make([]Point, len(s.Snakes[i].Body))
				copy(out.Snakes[i].Body, s.Snakes[i].Body)
			}
		}
	}

	return out
}

// SnakeByID returns the snapshot for id, or nil.
func (s *GameState) SnakeByID(id string) *SnakeState {
	for i := range s.Snakes {
		if s.Snakes[i].Id == id {
			return &s.Snakes[i]
		}
	}
	return nil
}
