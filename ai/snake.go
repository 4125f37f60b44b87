// Package ai couples a snake body to a behavior tree and a pathfinder.
package ai

import (
	"math"
	"math/rand"
	"sort"

	"github.com/brensch/snekarena/behavior"
	"github.com/brensch/snekarena/game"
	"github.com/brensch/snekarena/pathfind"
)

const (
	// PathCooldown is how long, in game seconds, a planned route is followed
	// before A* runs again.
	PathCooldown = 0.5

	MinDifficulty = 0.1
	MaxDifficulty = 1.0
)

// Config is everything an agent needs beyond its starting body.
type Config struct {
	Personality behavior.Personality
	Difficulty  float64
	// Finder may be nil, in which case route-dependent suggestions always fail.
	Finder *pathfind.Finder
	Rand   *rand.Rand
	// NearbyRadius bounds the aggressive "food nearby" check; zero means anywhere.
	NearbyRadius int
}

// Snake is an agent-driven snake. It embeds the plain body so it satisfies
// game.Mover, and overrides Move to keep its cached route in sync.
type Snake struct {
	*game.Snake

	personality behavior.Personality
	difficulty  float64
	tree        *behavior.Tree
	finder      *pathfind.Finder
	rng         *rand.Rand
	radius      int

	path      []game.Point
	target    game.Point
	hasTarget bool
	cooldown  float64

	lastUpdate float64
	lastAction string
	lastCtx    *behavior.Context
}

var _ game.Mover = (*Snake)(nil)

func New(id string, head game.Point, dir game.Direction, length int, cfg Config) *Snake {
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Snake{
		Snake:       game.NewSnake(id, head, dir, length),
		personality: cfg.Personality,
		difficulty:  clampDifficulty(cfg.Difficulty),
		tree:        behavior.ForPersonality(cfg.Personality, rng),
		finder:      cfg.Finder,
		rng:         rng,
		radius:      cfg.NearbyRadius,
		lastUpdate:  math.Inf(-1),
	}
}

func clampDifficulty(d float64) float64 {
	if math.IsNaN(d) {
		return MinDifficulty
	}
	return max(MinDifficulty, min(MaxDifficulty, d))
}

func (s *Snake) Personality() behavior.Personality { return s.personality }
func (s *Snake) Tree() *behavior.Tree              { return s.tree }
func (s *Snake) Difficulty() float64               { return s.difficulty }

// SetDifficulty clamps d into [MinDifficulty, MaxDifficulty].
func (s *Snake) SetDifficulty(d float64) { s.difficulty = clampDifficulty(d) }

// MistakeChance is the probability random_move ignores safety.
func (s *Snake) MistakeChance() float64 { return 1 - s.difficulty }

// DecisionDelay is the minimum game time between decisions.
func (s *Snake) DecisionDelay() float64 { return 0.2 - s.difficulty*0.15 }

// DifficultyLevel buckets the difficulty for display.
func (s *Snake) DifficultyLevel() string {
	switch {
	case s.difficulty < 0.3:
		return "Easy"
	case s.difficulty < 0.7:
		return "Medium"
	default:
		return "Hard"
	}
}

// SetFinder attaches or detaches the pathfinder.
func (s *Snake) SetFinder(f *pathfind.Finder) { s.finder = f }

// LastAction is the suggestion that produced the most recent decision, or "".
func (s *Snake) LastAction() string { return s.lastAction }

// LastContext is the context the most recent decision was made against.
func (s *Snake) LastContext() *behavior.Context { return s.lastCtx }

// Path returns the remaining cached waypoints.
func (s *Snake) Path() []game.Point {
	out := make([]game.Point, len(s.path))
	copy(out, s.path)
	return out
}

func (s *Snake) Target() (game.Point, bool) { return s.target, s.hasTarget }

// UpdateAI refreshes the agent's view and runs its tree, which may queue a new
// direction. It does nothing until DecisionDelay has passed since the last
// decision and reports whether a decision was attempted.
func (s *Snake) UpdateAI(food []game.Point, others []game.Mover, grid game.Grid, now float64) bool {
	if s.Len() == 0 || grid == nil {
		return false
	}
	elapsed := now - s.lastUpdate
	if elapsed < s.DecisionDelay() {
		return false
	}
	s.lastUpdate = now
	s.cooldown = max(0, s.cooldown-elapsed)

	ordered := s.Segments()
	for _, o := range others {
		ordered = append(ordered, o.Segments()...)
	}
	obstacles := pathfind.NewObstacles(ordered)
	head := s.Head()

	ctx := &behavior.Context{
		Position:     head,
		Direction:    s.Direction(),
		Food:         food,
		Danger:       behavior.DangerCells(grid, ordered),
		Grid:         grid,
		Others:       others,
		DangerAhead:  s.dangerAhead(grid, obstacles),
		NearbyRadius: s.radius,
	}
	ctx.Suggestions = map[string]func() bool{
		behavior.MoveToFood:   func() bool { return s.moveToFood(ctx, obstacles) },
		behavior.EscapeDanger: func() bool { return s.escapeDanger(grid, obstacles) },
		behavior.Explore:      func() bool { return s.explore(grid, obstacles) },
		behavior.RandomMove:   func() bool { return s.randomMove(grid, obstacles) },
		behavior.SafeExplore:  func() bool { return s.safeExplore(grid, obstacles) },
	}

	_, s.lastAction = s.tree.Run(ctx)
	s.lastCtx = ctx
	return true
}

func (s *Snake) dangerAhead(grid game.Grid, obstacles pathfind.Obstacles) bool {
	ahead := s.Head().Add(s.Direction().Delta())
	if !grid.Valid(ahead) || obstacles.Has(ahead) {
		return true
	}
	return s.finder != nil && s.finder.DeadEndAhead(s.Head(), obstacles)
}

// Move drops waypoints the head has already reached, clears an arrived-at
// target, then advances the body.
func (s *Snake) Move() (game.Point, bool) {
	head := s.Head()
	for len(s.path) > 0 && s.path[0] == head {
		s.path = s.path[1:]
	}
	if s.hasTarget && head == s.target {
		s.clearPath()
	}
	return s.Snake.Move()
}

func (s *Snake) clearPath() {
	s.path = nil
	s.hasTarget = false
	s.cooldown = 0
}

func (s *Snake) moveToFood(ctx *behavior.Context, obstacles pathfind.Obstacles) bool {
	if s.finder == nil {
		return false
	}
	goal, ok := ctx.NearestFood()
	if !ok {
		return false
	}

	if s.cooldown > 0 && s.hasTarget && containsPoint(ctx.Food, s.target) {
		if s.followPath(ctx.Grid, obstacles) {
			return true
		}
	}

	head := s.Head()
	path := s.finder.AStar(head, goal, obstacles.Without(head))
	if len(path) < 2 {
		s.clearPath()
		return false
	}
	s.path = path[1:]
	s.target = goal
	s.hasTarget = true
	s.cooldown = PathCooldown
	return s.followPath(ctx.Grid, obstacles)
}

// followPath steers toward the next cached waypoint. A waypoint that is no
// longer adjacent or has become blocked invalidates the whole route.
func (s *Snake) followPath(grid game.Grid, obstacles pathfind.Obstacles) bool {
	head := s.Head()
	for len(s.path) > 0 && s.path[0] == head {
		s.path = s.path[1:]
	}
	if len(s.path) == 0 {
		s.clearPath()
		return false
	}
	next := s.path[0]
	if obstacles.Has(next) {
		s.clearPath()
		return false
	}
	d, ok := game.DirectionBetween(grid, head, next)
	if !ok || !s.SetDirection(d) {
		s.clearPath()
		return false
	}
	return true
}

func (s *Snake) escapeDanger(grid game.Grid, obstacles pathfind.Obstacles) bool {
	if s.finder == nil {
		return false
	}
	safe := s.finder.SafeMoves(s.Head(), obstacles)
	scores := make([]float64, len(safe))
	for i, c := range safe {
		scores[i] = s.safety(grid, c, obstacles)
	}
	return s.steerRanked(grid, safe, scores)
}

// safety is the distance to the nearest obstacle plus half the onward exits.
func (s *Snake) safety(grid game.Grid, p game.Point, obstacles pathfind.Obstacles) float64 {
	nearest := 0
	first := true
	for o := range obstacles {
		if d := grid.Distance(p, o); first || d < nearest {
			nearest, first = d, false
		}
	}
	return float64(nearest) + 0.5*float64(len(s.finder.SafeMoves(p, obstacles)))
}

func (s *Snake) safeExplore(grid game.Grid, obstacles pathfind.Obstacles) bool {
	if s.finder == nil {
		return false
	}
	safe := s.finder.SafeMoves(s.Head(), obstacles)
	scores := make([]float64, len(safe))
	for i, c := range safe {
		scores[i] = float64(len(s.finder.SafeMoves(c, obstacles)))
	}
	return s.steerRanked(grid, safe, scores)
}

// steerRanked tries candidates from highest score down; equal scores keep
// their neighbour order.
func (s *Snake) steerRanked(grid game.Grid, cells []game.Point, scores []float64) bool {
	idx := make([]int, len(cells))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return scores[idx[a]] > scores[idx[b]] })
	for _, i := range idx {
		if s.steerTo(grid, cells[i]) {
			return true
		}
	}
	return false
}

func (s *Snake) explore(grid game.Grid, obstacles pathfind.Obstacles) bool {
	var safe []game.Point
	for _, n := range grid.Neighbors(s.Head()) {
		if !obstacles.Has(n) {
			safe = append(safe, n)
		}
	}
	s.rng.Shuffle(len(safe), func(i, j int) { safe[i], safe[j] = safe[j], safe[i] })
	for _, c := range safe {
		if s.steerTo(grid, c) {
			return true
		}
	}
	return false
}

// randomMove makes a mistake with probability MistakeChance: any direction
// except a reversal, safe or not. Otherwise it explores.
func (s *Snake) randomMove(grid game.Grid, obstacles pathfind.Obstacles) bool {
	if s.rng.Float64() < s.MistakeChance() {
		cur := s.Direction()
		var dirs []game.Direction
		for _, d := range grid.Directions() {
			if !cur.Reverses(d) {
				dirs = append(dirs, d)
			}
		}
		if len(dirs) > 0 {
			return s.SetDirection(dirs[s.rng.Intn(len(dirs))])
		}
	}
	return s.explore(grid, obstacles)
}

func (s *Snake) steerTo(grid game.Grid, cell game.Point) bool {
	d, ok := game.DirectionBetween(grid, s.Head(), cell)
	return ok && s.SetDirection(d)
}

func containsPoint(pts []game.Point, p game.Point) bool {
	for _, q := range pts {
		if q == p {
			return true
		}
	}
	return false
}
