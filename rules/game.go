package rules

import (
	"log/slog"
	"math/rand"
	"slices"
	"sort"

	"github.com/brensch/snekarena/ai"
	"github.com/brensch/snekarena/behavior"
	"github.com/brensch/snekarena/game"
	"github.com/brensch/snekarena/pathfind"
)

const (
	DefaultStartLength = 3
	DefaultTimeLimit   = 120.0
)

// Config holds the knobs for a new Game. Zero values pick defaults.
type Config struct {
	Mode        Mode
	Grid        game.Grid
	StartLength int
	Food        *game.FoodSettings
	TimeLimit   float64
	Seed        int64
	Logger      *slog.Logger
}

// Game is the arena simulation. It is not safe for concurrent use; callers
// drive it from one goroutine and hand snapshots from State to other readers.
//
// Every per-tick phase visits snakes in ascending id order. That order is
// observable: in FreeForAll a head-on collision eliminates the lower id only.
type Game struct {
	mode   Mode
	grid   game.Grid
	board  *game.Board
	finder *pathfind.Finder
	rng    *rand.Rand
	log    *slog.Logger

	snakes     map[string]game.Mover
	ids        []string
	scores     map[string]int
	active     map[string]struct{}
	eliminated map[string]struct{}
	outOrder   []string

	food   []game.Food
	events []CollisionEvent

	startLength int
	foodCfg     game.FoodSettings
	timeLimit   float64

	gameTime float64
	turn     int32
}

func New(cfg Config) *Game {
	if cfg.Grid == nil {
		cfg.Grid = game.SquareGrid{Width: 20, Height: 20}
	}
	if cfg.StartLength <= 0 {
		cfg.StartLength = DefaultStartLength
	}
	foodCfg := game.DefaultFoodSettings
	if cfg.Food != nil {
		foodCfg = *cfg.Food
	}
	if cfg.TimeLimit <= 0 {
		cfg.TimeLimit = DefaultTimeLimit
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	g := &Game{
		mode:        cfg.Mode,
		grid:        cfg.Grid,
		board:       game.NewBoard(cfg.Grid),
		finder:      pathfind.New(cfg.Grid),
		rng:         rand.New(rand.NewSource(cfg.Seed)),
		log:         logger.With("mode", cfg.Mode.String()),
		startLength: cfg.StartLength,
		foodCfg:     foodCfg,
		timeLimit:   cfg.TimeLimit,
	}
	g.resetState()
	return g
}

func (g *Game) resetState() {
	g.snakes = make(map[string]game.Mover)
	g.ids = nil
	g.scores = make(map[string]int)
	g.active = make(map[string]struct{})
	g.eliminated = make(map[string]struct{})
	g.outOrder = nil
	g.food = nil
	g.events = nil
	g.gameTime = 0
	g.turn = 0
	g.board.Clear()
}

func (g *Game) Mode() Mode                      { return g.mode }
func (g *Game) Grid() game.Grid                 { return g.grid }
func (g *Game) Board() *game.Board              { return g.board }
func (g *Game) Finder() *pathfind.Finder        { return g.finder }
func (g *Game) GameTime() float64               { return g.gameTime }
func (g *Game) Turn() int32                     { return g.turn }
func (g *Game) TimeLimit() float64              { return g.timeLimit }
func (g *Game) FoodSettings() game.FoodSettings { return g.foodCfg }

// Events returns every collision since the game started or was last reset.
func (g *Game) Events() []CollisionEvent { return slices.Clone(g.events) }

// Food returns the food currently on the board.
func (g *Game) Food() []game.Food { return slices.Clone(g.food) }

func (g *Game) Snake(id string) (game.Mover, bool) {
	s, ok := g.snakes[id]
	return s, ok
}

func (g *Game) Score(id string) int { return g.scores[id] }

func (g *Game) IsActive(id string) bool {
	_, ok := g.active[id]
	return ok
}

func (g *Game) IsEliminated(id string) bool {
	_, ok := g.eliminated[id]
	return ok
}

// SetTimeLimit changes the ScoreRace deadline in game seconds.
func (g *Game) SetTimeLimit(seconds float64) {
	if seconds > 0 {
		g.timeLimit = seconds
	}
}

// SetMaxFood caps the food on the board; values below 1 become 1.
func (g *Game) SetMaxFood(n int) {
	g.foodCfg.MaxFood = max(1, n)
}

// SetFoodSpawnChance sets the per-tick percentage chance of an extra item.
func (g *Game) SetFoodSpawnChance(percent int) {
	g.foodCfg.SpawnChance = max(0, min(100, percent))
}

// AddPlayerSnake places an externally steered snake. It returns false, with
// nothing changed, for a duplicate id or a body that would leave the board
// or overlap another snake.
func (g *Game) AddPlayerSnake(id string, head game.Point, dir game.Direction) bool {
	if !g.canPlace(id, head, dir) {
		return false
	}
	g.register(game.NewSnake(id, head, dir, g.startLength))
	return true
}

// AddAISnake places an agent facing the grid's default heading.
func (g *Game) AddAISnake(id string, head game.Point, p behavior.Personality, difficulty float64) bool {
	return g.AddAISnakeFacing(id, head, DefaultHeading(g.grid), p, difficulty)
}

func (g *Game) AddAISnakeFacing(id string, head game.Point, dir game.Direction, p behavior.Personality, difficulty float64) bool {
	if !g.canPlace(id, head, dir) {
		return false
	}
	g.register(ai.New(id, head, dir, g.startLength, ai.Config{
		Personality: p,
		Difficulty:  difficulty,
		Finder:      g.finder,
		Rand:        rand.New(rand.NewSource(g.rng.Int63())),
	}))
	return true
}

func (g *Game) canPlace(id string, head game.Point, dir game.Direction) bool {
	if id == "" {
		return false
	}
	if _, dup := g.snakes[id]; dup {
		return false
	}
	if !slices.Contains(g.grid.Directions(), dir) {
		return false
	}
	for _, p := range game.InitialBody(head, dir, g.startLength) {
		if !g.grid.Valid(p) || g.board.Occupied(p) {
			return false
		}
	}
	return true
}

func (g *Game) register(s game.Mover) {
	id := s.ID()
	g.snakes[id] = s
	i, _ := slices.BinarySearch(g.ids, id)
	g.ids = slices.Insert(g.ids, i, id)
	g.scores[id] = 0
	g.active[id] = struct{}{}
	for _, p := range s.Segments() {
		g.board.Occupy(p, id)
	}
	g.log.Debug("snake added", "snake", id, "head", s.Head())
}

// RemoveSnake takes an active snake out of play as if it had been eliminated,
// without emitting a collision. It returns false for unknown or already
// eliminated ids.
func (g *Game) RemoveSnake(id string) bool {
	if !g.IsActive(id) {
		return false
	}
	g.eliminate(id)
	return true
}

func (g *Game) eliminate(id string) {
	if !g.IsActive(id) {
		return
	}
	delete(g.active, id)
	g.eliminated[id] = struct{}{}
	g.outOrder = append(g.outOrder, id)
	g.board.VacateAll(id)
	g.log.Info("snake eliminated", "snake", id, "turn", g.turn, "score", g.scores[id])
}

func (g *Game) activeIDs() []string {
	out := make([]string, 0, len(g.active))
	for _, id := range g.ids {
		if g.IsActive(id) {
			out = append(out, id)
		}
	}
	return out
}

// ActiveSnakes returns the snakes still in play in id order.
func (g *Game) ActiveSnakes() []game.Mover {
	ids := g.activeIDs()
	out := make([]game.Mover, len(ids))
	for i, id := range ids {
		out[i] = g.snakes[id]
	}
	return out
}

// EliminatedSnakes returns eliminated snakes in the order they went out.
func (g *Game) EliminatedSnakes() []game.Mover {
	out := make([]game.Mover, len(g.outOrder))
	for i, id := range g.outOrder {
		out[i] = g.snakes[id]
	}
	return out
}

// Leaderboard ranks every snake by score, highest first; ties by id.
func (g *Game) Leaderboard() []Standing {
	out := make([]Standing, 0, len(g.ids))
	for _, id := range g.ids {
		out = append(out, Standing{Id: id, Score: g.scores[id], Alive: g.IsActive(id)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// IsGameOver applies the mode's termination rule.
func (g *Game) IsGameOver() bool {
	switch g.mode {
	case Survival, FreeForAll:
		return len(g.active) <= 1
	case ScoreRace:
		return g.gameTime >= g.timeLimit || (len(g.ids) > 0 && len(g.active) == 0)
	}
	return false
}

// Winner is the sole survivor in Survival and FreeForAll, or the leader in
// ScoreRace. It is empty while the game runs, in Cooperative, and on a draw.
func (g *Game) Winner() string {
	if !g.IsGameOver() {
		return ""
	}
	switch g.mode {
	case Survival, FreeForAll:
		if len(g.active) == 1 {
			return g.activeIDs()[0]
		}
	case ScoreRace:
		if lb := g.Leaderboard(); len(lb) > 0 {
			return lb[0].Id
		}
	}
	return ""
}

// IsDraw reports a Survival or FreeForAll game that ended with no snakes left.
func (g *Game) IsDraw() bool {
	return (g.mode == Survival || g.mode == FreeForAll) && len(g.ids) > 0 && len(g.active) == 0
}

// Reset removes every snake and all food and rewinds the clock.
// The random source carries on so consecutive games differ.
func (g *Game) Reset() {
	g.resetState()
}

// SeedFood tops the board up to the configured minimum before the first tick.
func (g *Game) SeedFood() {
	g.food = game.SpawnFood(g.board, g.food, g.rng, game.FoodSettings{
		MinimumFood: g.foodCfg.MinimumFood,
		MaxFood:     g.foodCfg.MaxFood,
		Points:      g.foodCfg.Points,
	}, g.turn)
}

// AddFood places food at p if the cell is on the board, empty and food free.
func (g *Game) AddFood(p game.Point, points int) bool {
	if !g.grid.Valid(p) || g.board.Occupied(p) {
		return false
	}
	for _, f := range g.food {
		if f.Position == p {
			return false
		}
	}
	g.food = append(g.food, game.Food{Position: p, Points: points})
	return true
}

// Update advances the simulation by one tick of dt seconds and returns the
// collisions that happened. It is a no-op once the game is over.
func (g *Game) Update(dt float64) []CollisionEvent {
	if g.IsGameOver() {
		return nil
	}
	g.gameTime += dt
	g.turn++

	ids := g.activeIDs()
	g.updateAgents(ids)

	type step struct {
		tail    game.Point
		vacated bool
	}
	steps := make(map[string]step, len(ids))
	for _, id := range ids {
		tail, vacated := g.snakes[id].Move()
		steps[id] = step{tail: tail, vacated: vacated}
	}

	var events []CollisionEvent
	for _, id := range ids {
		if !g.IsActive(id) {
			continue
		}
		s := g.snakes[id]
		head := s.Head()

		if !g.grid.Valid(head) {
			events = append(events, g.event(id, CollisionWall, head, ""))
			g.eliminate(id)
			continue
		}
		if s.SelfCollision() {
			events = append(events, g.event(id, CollisionSelf, head, ""))
			g.eliminate(id)
			continue
		}
		for _, other := range ids {
			if other == id || !g.IsActive(other) || !g.snakes[other].Occupies(head) {
				continue
			}
			events = append(events, g.event(id, CollisionSnake, head, other))
			g.resolveContact(id, other)
			if !g.IsActive(id) {
				break
			}
		}
		if g.IsActive(id) {
			if st := steps[id]; st.vacated {
				g.board.Vacate(st.tail, id)
			}
			g.board.Occupy(head, id)
		}
	}

	if g.mode == Cooperative {
		g.resyncBoard()
	}

	events = append(events, g.resolveFood(ids)...)
	g.food = game.SpawnFood(g.board, g.food, g.rng, g.foodCfg, g.turn)

	g.events = append(g.events, events...)
	if g.IsGameOver() {
		g.log.Info("game over", "turn", g.turn, "time", g.gameTime, "winner", g.Winner(), "draw", g.IsDraw())
	}
	return events
}

func (g *Game) updateAgents(ids []string) {
	foodPos := make([]game.Point, len(g.food))
	for i, f := range g.food {
		foodPos[i] = f.Position
	}
	for _, id := range ids {
		agent, ok := g.snakes[id].(*ai.Snake)
		if !ok {
			continue
		}
		others := make([]game.Mover, 0, len(ids)-1)
		for _, o := range ids {
			if o != id {
				others = append(others, g.snakes[o])
			}
		}
		if agent.UpdateAI(foodPos, others, g.grid, g.gameTime) {
			g.log.Debug("agent decision", "snake", id, "action", agent.LastAction(), "direction", agent.Pending().String())
		}
	}
}

func (g *Game) resolveContact(id, other string) {
	switch g.mode {
	case Survival:
		g.eliminate(id)
		g.eliminate(other)
	case FreeForAll, ScoreRace:
		g.eliminate(id)
	case Cooperative:
	}
}

// resolveFood lets the first snake in id order standing on a food item eat it.
func (g *Game) resolveFood(ids []string) []CollisionEvent {
	var events []CollisionEvent
	for _, id := range ids {
		if !g.IsActive(id) {
			continue
		}
		s := g.snakes[id]
		head := s.Head()
		i := slices.IndexFunc(g.food, func(f game.Food) bool { return f.Position == head })
		if i < 0 {
			continue
		}
		eaten := g.food[i]
		g.food = slices.Delete(g.food, i, i+1)
		s.Grow(g.foodCfg.Growth)
		g.scores[id] += eaten.Points
		events = append(events, g.event(id, CollisionFood, head, ""))
		g.log.Debug("food eaten", "snake", id, "at", head, "score", g.scores[id])

		g.food, _ = game.SpawnOne(g.board, g.food, g.rng, g.foodCfg)
	}
	return events
}

// resyncBoard rebuilds occupancy from the bodies; snakes may overlap when
// contact is harmless, and a plain per-cell owner cannot track that.
func (g *Game) resyncBoard() {
	g.board.Clear()
	for _, id := range g.activeIDs() {
		for _, p := range g.snakes[id].Segments() {
			g.board.Occupy(p, id)
		}
	}
}

func (g *Game) event(id string, kind CollisionKind, at game.Point, other string) CollisionEvent {
	return CollisionEvent{SnakeId: id, Kind: kind, Position: at, OtherId: other, Time: g.gameTime}
}

// DefaultHeading is Right on square grids and East on hex grids.
func DefaultHeading(g game.Grid) game.Direction {
	if slices.Contains(g.Directions(), game.East) {
		return game.East
	}
	return game.Right
}
