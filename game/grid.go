package game

// Grid is the board geometry. Implementations must return neighbours and
// cells in a stable order so that searches and spawns are reproducible.
type Grid interface {
	// Valid reports whether p lies on the board.
	Valid(p Point) bool
	// Neighbors returns the in-bounds cells one step away, in Directions order.
	Neighbors(p Point) []Point
	// Directions lists the legal move directions for this geometry.
	Directions() []Direction
	// Distance is the step distance ignoring obstacles (Manhattan or hex).
	Distance(a, b Point) int
	// KingDistance is Chebyshev distance on square grids and hex distance on hex grids.
	KingDistance(a, b Point) int
	// Around returns the in-bounds cells at KingDistance 1 from p.
	Around(p Point) []Point
	// Cells returns every valid cell.
	Cells() []Point
	// Size returns the configured width and height.
	Size() (width, height int32)
}

// SquareGrid is a Width x Height rectangle with 4-connected movement.
type SquareGrid struct {
	Width  int32
	Height int32
}

var _ Grid = SquareGrid{}

func (g SquareGrid) Valid(p Point) bool {
	return p.X >= 0 && p.X < g.Width && p.Y >= 0 && p.Y < g.Height
}

func (g SquareGrid) Directions() []Direction { return SquareDirections }

func (g SquareGrid) Neighbors(p Point) []Point {
	out := make([]Point, 0, 4)
	for _, d := range SquareDirections {
		n := p.Add(d.Delta())
		if g.Valid(n) {
			out = append(out, n)
		}
	}
	return out
}

func (g SquareGrid) Distance(a, b Point) int {
	return int(abs32(a.X-b.X) + abs32(a.Y-b.Y))
}

func (g SquareGrid) KingDistance(a, b Point) int {
	return int(max(abs32(a.X-b.X), abs32(a.Y-b.Y)))
}

func (g SquareGrid) Around(p Point) []Point {
	out := make([]Point, 0, 8)
	for dy := int32(-1); dy <= 1; dy++ {
		for dx := int32(-1); dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			n := Point{X: p.X + dx, Y: p.Y + dy}
			if g.Valid(n) {
				out = append(out, n)
			}
		}
	}
	return out
}

func (g SquareGrid) Cells() []Point {
	if g.Width <= 0 || g.Height <= 0 {
		return nil
	}
	out := make([]Point, 0, int(g.Width*g.Height))
	for y := int32(0); y < g.Height; y++ {
		for x := int32(0); x < g.Width; x++ {
			out = append(out, Point{X: x, Y: y})
		}
	}
	return out
}

func (g SquareGrid) Size() (int32, int32) { return g.Width, g.Height }

// HexGrid is a roughly hexagonal board in axial coordinates centred on (0,0).
// A cell is valid when |q| <= Width/2, |r| <= Height/2 and |q+r| <= max(Width,Height)/2.
type HexGrid struct {
	Width  int32
	Height int32
}

var _ Grid = HexGrid{}

func (g HexGrid) Valid(p Point) bool {
	s := -p.X - p.Y
	return abs32(p.X) <= g.Width/2 &&
		abs32(p.Y) <= g.Height/2 &&
		abs32(s) <= max(g.Width, g.Height)/2
}

func (g HexGrid) Directions() []Direction { return HexDirections }

func (g HexGrid) Neighbors(p Point) []Point {
	out := make([]Point, 0, 6)
	for _, d := range HexDirections {
		n := p.Add(d.Delta())
		if g.Valid(n) {
			out = append(out, n)
		}
	}
	return out
}

func (g HexGrid) Distance(a, b Point) int {
	dq := a.X - b.X
	dr := a.Y - b.Y
	return int((abs32(dq) + abs32(dr) + abs32(dq+dr)) / 2)
}

func (g HexGrid) KingDistance(a, b Point) int { return g.Distance(a, b) }

func (g HexGrid) Around(p Point) []Point { return g.Neighbors(p) }

func (g HexGrid) Cells() []Point {
	hw, hh := g.Width/2, g.Height/2
	var out []Point
	for r := -hh; r <= hh; r++ {
		for q := -hw; q <= hw; q++ {
			p := Point{X: q, Y: r}
			if g.Valid(p) {
				out = append(out, p)
			}
		}
	}
	return out
}

func (g HexGrid) Size() (int32, int32) { return g.Width, g.Height }

// DirectionBetween returns the direction that steps from a to an adjacent b.
func DirectionBetween(g Grid, a, b Point) (Direction, bool) {
	delta := Point{X: b.X - a.X, Y: b.Y - a.Y}
	for _, d := range g.Directions() {
		if d.Delta() == delta {
			return d, true
		}
	}
	return 0, false
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
