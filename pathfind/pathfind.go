// Package pathfind searches a game.Grid for routes around an obstacle set.
package pathfind

import (
	"container/heap"

	"github.com/brensch/snekarena/game"
)

const (
	// DefaultMaxExpansions bounds A* on large open boards.
	DefaultMaxExpansions = 1 << 16
	// GreedyIterations caps the greedy walk.
	GreedyIterations = 100
)

// Obstacles is the set of cells a search may not enter.
type Obstacles map[game.Point]struct{}

// NewObstacles builds a set from any number of bodies.
func NewObstacles(bodies ...[]game.Point) Obstacles {
	o := make(Obstacles)
	for _, b := range bodies {
		o.Add(b...)
	}
	return o
}

func (o Obstacles) Add(pts ...game.Point) {
	for _, p := range pts {
		o[p] = struct{}{}
	}
}

func (o Obstacles) Has(p game.Point) bool {
	_, ok := o[p]
	return ok
}

// Without returns a copy of o with p removed.
func (o Obstacles) Without(p game.Point) Obstacles {
	out := make(Obstacles, len(o))
	for k := range o {
		if k != p {
			out[k] = struct{}{}
		}
	}
	return out
}

// Finder runs searches over one grid.
type Finder struct {
	grid game.Grid

	// MaxExpansions caps the nodes A* may close before giving up.
	MaxExpansions int
}

func New(g game.Grid) *Finder {
	return &Finder{grid: g, MaxExpansions: DefaultMaxExpansions}
}

func (f *Finder) Grid() game.Grid { return f.grid }

type pathNode struct {
	p      game.Point
	g      int
	h      int
	seq    int
	parent *pathNode
	index  int
}

type openList []*pathNode

func (o openList) Len() int { return len(o) }

// Less orders by f, then h (prefer nodes nearer the goal), then insertion order.
func (o openList) Less(i, j int) bool {
	fi, fj := o[i].g+o[i].h, o[j].g+o[j].h
	if fi != fj {
		return fi < fj
	}
	if o[i].h != o[j].h {
		return o[i].h < o[j].h
	}
	return o[i].seq < o[j].seq
}

func (o openList) Swap(i, j int) {
	o[i], o[j] = o[j], o[i]
	o[i].index = i
	o[j].index = j
}

func (o *openList) Push(x any) {
	n := x.(*pathNode)
	n.index = len(*o)
	*o = append(*o, n)
}

func (o *openList) Pop() any {
	old := *o
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*o = old[:len(old)-1]
	n.index = -1
	return n
}

// AStar returns the shortest path from start to goal inclusive, or nil when
// either end is off the board or blocked, the goal is unreachable, or the
// expansion budget runs out.
func (f *Finder) AStar(start, goal game.Point, obstacles Obstacles) []game.Point {
	if !f.grid.Valid(start) || !f.grid.Valid(goal) {
		return nil
	}
	if obstacles.Has(start) || obstacles.Has(goal) {
		return nil
	}
	if start == goal {
		return []game.Point{start}
	}

	limit := f.MaxExpansions
	if limit <= 0 {
		limit = DefaultMaxExpansions
	}

	open := &openList{}
	heap.Init(open)
	seq := 0
	heap.Push(open, &pathNode{p: start, h: f.grid.Distance(start, goal), seq: seq})

	best := map[game.Point]int{start: 0}
	closed := make(map[game.Point]struct{})
	expanded := 0

	for open.Len() > 0 {
		cur := heap.Pop(open).(*pathNode)
		if _, done := closed[cur.p]; done {
			continue
		}
		if cur.p == goal {
			return buildPath(cur)
		}
		closed[cur.p] = struct{}{}
		expanded++
		if expanded > limit {
			return nil
		}

		for _, n := range f.grid.Neighbors(cur.p) {
			if obstacles.Has(n) {
				continue
			}
			if _, done := closed[n]; done {
				continue
			}
			g := cur.g + 1
			if prev, ok := best[n]; ok && g >= prev {
				continue
			}
			best[n] = g
			seq++
			heap.Push(open, &pathNode{p: n, g: g, h: f.grid.Distance(n, goal), seq: seq, parent: cur})
		}
	}
	return nil
}

func buildPath(n *pathNode) []game.Point {
	var path []game.Point
	for cur := n; cur != nil; cur = cur.parent {
		path = append(path, cur.p)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// Greedy walks toward goal, always stepping to the unvisited free neighbour
// with the smallest heuristic distance. It gives up with nil on a dead end or
// after GreedyIterations steps, and never returns a partial path.
func (f *Finder) Greedy(start, goal game.Point, obstacles Obstacles) []game.Point {
	if !f.grid.Valid(start) || !f.grid.Valid(goal) || obstacles.Has(goal) {
		return nil
	}

	path := []game.Point{start}
	visited := map[game.Point]struct{}{start: {}}
	cur := start

	for i := 0; i < GreedyIterations; i++ {
		if cur == goal {
			return path
		}
		next, bestH, found := game.Point{}, 0, false
		for _, n := range f.grid.Neighbors(cur) {
			if obstacles.Has(n) {
				continue
			}
			if _, seen := visited[n]; seen {
				continue
			}
			h := f.grid.Distance(n, goal)
			if !found || h < bestH {
				next, bestH, found = n, h, true
			}
		}
		if !found {
			return nil
		}
		visited[next] = struct{}{}
		path = append(path, next)
		cur = next
	}
	if cur == goal {
		return path
	}
	return nil
}

// SafeMoves returns the in-bounds neighbours of pos that are not obstacles.
func (f *Finder) SafeMoves(pos game.Point, obstacles Obstacles) []game.Point {
	var out []game.Point
	for _, n := range f.grid.Neighbors(pos) {
		if !obstacles.Has(n) {
			out = append(out, n)
		}
	}
	return out
}

// DeadEndAhead reports whether pos has exactly one way out and that cell has
// nowhere to go once pos is left behind. Only one step of lookahead is used.
func (f *Finder) DeadEndAhead(pos game.Point, obstacles Obstacles) bool {
	safe := f.SafeMoves(pos, obstacles)
	if len(safe) != 1 {
		return false
	}
	for _, n := range f.SafeMoves(safe[0], obstacles) {
		if n != pos {
			return false
		}
	}
	return true
}
