package game

import "math/rand"

// Board tracks which snake owns each cell. It stores ids only and never
// holds references into snake bodies.
type Board struct {
	Grid
	owners map[Point]string
}

func NewBoard(g Grid) *Board {
	return &Board{Grid: g, owners: make(map[Point]string)}
}

// Occupy marks p as owned by owner. Out of bounds cells are ignored.
func (b *Board) Occupy(p Point, owner string) bool {
	if !b.Valid(p) {
		return false
	}
	b.owners[p] = owner
	return true
}

// Vacate clears p if it is currently owned by owner.
// A cell already re-occupied by another snake this tick is left alone.
func (b *Board) Vacate(p Point, owner string) {
	if cur, ok := b.owners[p]; ok && cur == owner {
		delete(b.owners, p)
	}
}

// VacateAll clears every cell owned by owner.
func (b *Board) VacateAll(owner string) {
	for p, cur := range b.owners {
		if cur == owner {
			delete(b.owners, p)
		}
	}
}

func (b *Board) Occupied(p Point) bool {
	_, ok := b.owners[p]
	return ok
}

func (b *Board) Owner(p Point) (string, bool) {
	id, ok := b.owners[p]
	return id, ok
}

// Len returns the number of occupied cells.
func (b *Board) Len() int { return len(b.owners) }

// Clear drops all occupancy.
func (b *Board) Clear() {
	clear(b.owners)
}

// RandomEmpty picks a uniformly random unoccupied cell that is not in exclude.
// Candidates are enumerated in Cells order so a seeded rng gives the same pick.
func (b *Board) RandomEmpty(rng *rand.Rand, exclude map[Point]struct{}) (Point, bool) {
	free := b.emptyCells(exclude)
	if len(free) == 0 {
		return Point{}, false
	}
	return free[rng.Intn(len(free))], true
}

func (b *Board) emptyCells(exclude map[Point]struct{}) []Point {
	cells := b.Cells()
	free := cells[:0]
	for _, p := range cells {
		if b.Occupied(p) {
			continue
		}
		if _, skip := exclude[p]; skip {
			continue
		}
		free = append(free, p)
	}
	return free
}
