package behavior

import (
	"github.com/brensch/snekarena/game"
)

// Suggestion names an agent registers in Context.Suggestions.
const (
	MoveToFood   = "move_to_food"
	EscapeDanger = "escape_danger"
	Explore      = "explore"
	RandomMove   = "random_move"
	SafeExplore  = "safe_explore"
)

// Context is one agent's view of the board for a single evaluation.
// It is built fresh every decision and not modified while the tree runs.
type Context struct {
	Position  game.Point
	Direction game.Direction
	Food      []game.Point
	Danger    []game.Point
	Grid      game.Grid
	Others    []game.Mover

	// DangerAhead is set by the agent: the next cell in Direction is unsafe.
	DangerAhead bool
	// NearbyRadius limits FoodNearby; zero means any food counts.
	NearbyRadius int

	Suggestions map[string]func() bool
}

// NearestFood returns the closest food by grid distance. Ties go to the
// earliest entry in Food.
func (c *Context) NearestFood() (game.Point, bool) {
	if c == nil || c.Grid == nil || len(c.Food) == 0 {
		return game.Point{}, false
	}
	best := c.Food[0]
	bestDist := c.Grid.Distance(c.Position, best)
	for _, f := range c.Food[1:] {
		if d := c.Grid.Distance(c.Position, f); d < bestDist {
			best, bestDist = f, d
		}
	}
	return best, true
}

// IsFoodSafe reports whether no danger cell is within king distance 2 of food.
func (c *Context) IsFoodSafe(food game.Point) bool {
	if c.Grid == nil {
		return true
	}
	for _, d := range c.Danger {
		if c.Grid.KingDistance(d, food) <= 2 {
			return false
		}
	}
	return true
}

func (c *Context) FoodAvailable() bool { return len(c.Food) > 0 }

func (c *Context) FoodNearby() bool {
	f, ok := c.NearestFood()
	if !ok {
		return false
	}
	return c.NearbyRadius <= 0 || c.Grid.Distance(c.Position, f) <= c.NearbyRadius
}

// FoodSafe reports whether any food item is safe to approach.
func (c *Context) FoodSafe() bool {
	for _, f := range c.Food {
		if c.IsFoodSafe(f) {
			return true
		}
	}
	return false
}

func (c *Context) DangerNearby() bool { return len(c.Danger) > 0 }

// DangerCells returns every in-bounds cell touching an obstacle (diagonals
// included on square grids) that is not itself an obstacle. Order follows
// the obstacle slice, so callers should pass bodies in a fixed order.
func DangerCells(g game.Grid, obstacles []game.Point) []game.Point {
	blocked := make(map[game.Point]struct{}, len(obstacles))
	for _, o := range obstacles {
		blocked[o] = struct{}{}
	}
	seen := make(map[game.Point]struct{})
	var out []game.Point
	for _, o := range obstacles {
		for _, n := range g.Around(o) {
			if _, ok := blocked[n]; ok {
				continue
			}
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	return out
}
