package rules

import (
	"fmt"
	"strings"
	"testing"

	"github.com/brensch/snekarena/ai"
	"github.com/brensch/snekarena/behavior"
	"github.com/brensch/snekarena/game"
)

func dumpState(state *game.GameState) string {
	if state == nil {
		return "<nil state>"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Turn=%d Time=%.2f Size=%dx%d Mode=%s Over=%v Winner=%q\n",
		state.Turn, state.Time, state.Width, state.Height, state.Mode, state.Over, state.Winner)

	fmt.Fprintf(&b, "Food(%d):", len(state.Food))
	for _, f := range state.Food {
		fmt.Fprintf(&b, " (%d,%d)", f.Position.X, f.Position.Y)
	}
	b.WriteString("\n")

	for _, s := range state.Snakes {
		fmt.Fprintf(&b, "Snake %s Alive=%v Score=%d Len=%d Body:", s.Id, s.Alive, s.Score, len(s.Body))
		for _, p := range s.Body {
			fmt.Fprintf(&b, " (%d,%d)", p.X, p.Y)
		}
		b.WriteString("\n")
	}

	w, h := int(state.Width), int(state.Height)
	if state.Hex || w <= 0 || h <= 0 || w > 40 || h > 40 {
		return b.String()
	}
	food := make(map[game.Point]bool, len(state.Food))
	for _, f := range state.Food {
		food[f.Position] = true
	}
	cell := make(map[game.Point]byte, 64)
	for _, s := range state.Snakes {
		if !s.Alive {
			continue
		}
		for i, p := range s.Body {
			c := s.Id[0]
			if i == 0 {
				c = 'H'
			}
			cell[p] = c
		}
	}
	b.WriteString("Board:\n")
	for y := h - 1; y >= 0; y-- {
		for x := 0; x < w; x++ {
			p := game.Point{X: int32(x), Y: int32(y)}
			switch c, ok := cell[p]; {
			case ok:
				b.WriteByte(c)
			case food[p]:
				b.WriteByte('F')
			default:
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func noFood() *game.FoodSettings {
	return &game.FoodSettings{}
}

func newTestGame(mode Mode) *Game {
	return New(Config{Mode: mode, Grid: game.SquareGrid{Width: 10, Height: 10}, Food: noFood()})
}

func countKind(events []CollisionEvent, kind CollisionKind) int {
	n := 0
	for _, e := range events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// a runs right into the side of b, which is heading down and out of the way.
func addSideHit(t *testing.T, g *Game) {
	t.Helper()
	if !g.AddPlayerSnake("a", game.Point{X: 3, Y: 5}, game.Right) {
		t.Fatalf("add a failed")
	}
	if !g.AddPlayerSnake("b", game.Point{X: 4, Y: 4}, game.Down) {
		t.Fatalf("add b failed")
	}
}

func TestUpdate_SurvivalContactEliminatesBoth(t *testing.T) {
	g := newTestGame(Survival)
	addSideHit(t, g)
	t.Logf("before:\n%s", dumpState(g.State()))

	events := g.Update(0.1)
	t.Logf("after:\n%s", dumpState(g.State()))

	if countKind(events, CollisionSnake) != 1 {
		t.Fatalf("events=%+v want one snake collision", events)
	}
	if events[0].SnakeId != "a" || events[0].OtherId != "b" || events[0].Position != (game.Point{X: 4, Y: 5}) {
		t.Fatalf("event=%+v", events[0])
	}
	if !g.IsEliminated("a") || !g.IsEliminated("b") {
		t.Fatalf("both snakes should be eliminated")
	}
	if g.Board().Len() != 0 {
		t.Fatalf("board still has %d occupied cells", g.Board().Len())
	}
	if !g.IsGameOver() || g.Winner() != "" || !g.IsDraw() {
		t.Fatalf("over=%v winner=%q draw=%v want draw", g.IsGameOver(), g.Winner(), g.IsDraw())
	}
}

func TestUpdate_FreeForAllContactEliminatesHitter(t *testing.T) {
	g := newTestGame(FreeForAll)
	addSideHit(t, g)

	g.Update(0.1)
	t.Logf("after:\n%s", dumpState(g.State()))

	if !g.IsEliminated("a") {
		t.Fatalf("a hit b and should be eliminated")
	}
	if !g.IsActive("b") {
		t.Fatalf("b should stay active")
	}
	if g.Winner() != "b" || g.IsDraw() {
		t.Fatalf("winner=%q draw=%v want b", g.Winner(), g.IsDraw())
	}
	for _, p := range []game.Point{{X: 4, Y: 3}, {X: 4, Y: 4}, {X: 4, Y: 5}} {
		if owner, ok := g.Board().Owner(p); !ok || owner != "b" {
			t.Fatalf("cell %v owner=%q,%v want b", p, owner, ok)
		}
	}
}

func TestUpdate_CooperativeContactHarmless(t *testing.T) {
	g := newTestGame(Cooperative)
	addSideHit(t, g)

	events := g.Update(0.1)
	if countKind(events, CollisionSnake) != 1 {
		t.Fatalf("events=%+v want a snake collision event", events)
	}
	if !g.IsActive("a") || !g.IsActive("b") {
		t.Fatalf("cooperative contact eliminated a snake")
	}
	if g.IsGameOver() {
		t.Fatalf("cooperative never ends by itself")
	}
}

func TestUpdate_HeadOnFreeForAllUsesIdOrder(t *testing.T) {
	g := newTestGame(FreeForAll)
	g.AddPlayerSnake("a", game.Point{X: 3, Y: 5}, game.Right)
	g.AddPlayerSnake("b", game.Point{X: 5, Y: 5}, game.Left)

	g.Update(0.1)
	if !g.IsEliminated("a") || !g.IsActive("b") {
		t.Fatalf("a eliminated=%v b active=%v\n%s", g.IsEliminated("a"), g.IsActive("b"), dumpState(g.State()))
	}
}

// a and b face each other in adjacent cells, so their heads swap places.
func TestUpdate_HeadSwap(t *testing.T) {
	cases := []struct {
		mode       Mode
		aOut, bOut bool
		winner     string
		boardCells int
	}{
		{mode: Survival, aOut: true, bOut: true, winner: "", boardCells: 0},
		{mode: FreeForAll, aOut: true, bOut: false, winner: "b", boardCells: 3},
	}
	for _, c := range cases {
		g := newTestGame(c.mode)
		if !g.AddPlayerSnake("a", game.Point{X: 3, Y: 5}, game.Right) ||
			!g.AddPlayerSnake("b", game.Point{X: 4, Y: 5}, game.Left) {
			t.Fatalf("%v: setup failed", c.mode)
		}

		events := g.Update(0.1)
		t.Logf("%v after:\n%s", c.mode, dumpState(g.State()))

		if countKind(events, CollisionSnake) == 0 {
			t.Fatalf("%v: no snake collision in %+v", c.mode, events)
		}
		if events[0].SnakeId != "a" || events[0].OtherId != "b" || events[0].Position != (game.Point{X: 4, Y: 5}) {
			t.Fatalf("%v: first event=%+v", c.mode, events[0])
		}
		if g.IsEliminated("a") != c.aOut || g.IsEliminated("b") != c.bOut {
			t.Fatalf("%v: a out=%v b out=%v", c.mode, g.IsEliminated("a"), g.IsEliminated("b"))
		}
		if !g.IsGameOver() || g.Winner() != c.winner {
			t.Fatalf("%v: over=%v winner=%q want %q", c.mode, g.IsGameOver(), g.Winner(), c.winner)
		}
		if g.Board().Len() != c.boardCells {
			t.Fatalf("%v: board has %d cells want %d", c.mode, g.Board().Len(), c.boardCells)
		}
	}
}

func TestUpdate_WallCollision(t *testing.T) {
	g := newTestGame(Survival)
	g.AddPlayerSnake("a", game.Point{X: 9, Y: 5}, game.Right)
	g.AddPlayerSnake("b", game.Point{X: 2, Y: 2}, game.Up)

	events := g.Update(0.1)
	if len(events) != 1 || events[0].Kind != CollisionWall || events[0].SnakeId != "a" {
		t.Fatalf("events=%+v want wall for a", events)
	}
	if events[0].Position != (game.Point{X: 10, Y: 5}) {
		t.Fatalf("position=%v want (10,5)", events[0].Position)
	}
	if !g.IsGameOver() || g.Winner() != "b" {
		t.Fatalf("over=%v winner=%q want b", g.IsGameOver(), g.Winner())
	}
	if g.Update(0.1) != nil {
		t.Fatalf("update after game over should be a no-op")
	}
	if g.Turn() != 1 {
		t.Fatalf("turn=%d want 1", g.Turn())
	}
}

func TestUpdate_SelfCollision(t *testing.T) {
	g := New(Config{Mode: Cooperative, Grid: game.SquareGrid{Width: 10, Height: 10}, StartLength: 5, Food: noFood()})
	if !g.AddPlayerSnake("a", game.Point{X: 5, Y: 5}, game.Right) {
		t.Fatalf("add failed")
	}
	s, _ := g.Snake("a")

	var events []CollisionEvent
	for _, d := range []game.Direction{game.Up, game.Left, game.Down} {
		if !s.SetDirection(d) {
			t.Fatalf("set %v rejected", d)
		}
		events = g.Update(0.1)
	}
	if len(events) != 1 || events[0].Kind != CollisionSelf {
		t.Fatalf("events=%+v want self collision\n%s", events, dumpState(g.State()))
	}
	if !g.IsEliminated("a") {
		t.Fatalf("a should be eliminated")
	}
}

func TestUpdate_FoodGoesToLowestId(t *testing.T) {
	g := New(Config{
		Mode: Cooperative,
		Grid: game.SquareGrid{Width: 10, Height: 10},
		Food: &game.FoodSettings{Points: 10, Growth: 1},
	})
	g.AddPlayerSnake("b", game.Point{X: 5, Y: 5}, game.Left)
	g.AddPlayerSnake("a", game.Point{X: 3, Y: 5}, game.Right)
	if !g.AddFood(game.Point{X: 4, Y: 5}, 10) {
		t.Fatalf("add food failed")
	}

	events := g.Update(0.1)
	t.Logf("after:\n%s", dumpState(g.State()))

	if countKind(events, CollisionFood) != 1 {
		t.Fatalf("events=%+v want exactly one food event", events)
	}
	if g.Score("a") != 10 || g.Score("b") != 0 {
		t.Fatalf("scores a=%d b=%d want 10/0", g.Score("a"), g.Score("b"))
	}
	if len(g.Food()) != 1 {
		t.Fatalf("eaten food should be replaced, food=%v", g.Food())
	}
	if g.Food()[0].Position == (game.Point{X: 4, Y: 5}) {
		t.Fatalf("replacement spawned on a snake")
	}
}

func TestUpdate_AggressiveAgentEatsFood(t *testing.T) {
	g := New(Config{
		Mode: Cooperative,
		Grid: game.SquareGrid{Width: 10, Height: 10},
		Food: &game.FoodSettings{MaxFood: 1, Points: 10, Growth: 1},
	})
	if !g.AddAISnakeFacing("ai", game.Point{X: 5, Y: 5}, game.Right, behavior.Aggressive, 0.5) {
		t.Fatalf("add agent failed")
	}
	if !g.AddFood(game.Point{X: 8, Y: 5}, 10) {
		t.Fatalf("add food failed")
	}
	m, _ := g.Snake("ai")
	agent := m.(*ai.Snake)

	ate := false
	for tick := 0; tick < 20 && !ate; tick++ {
		events := g.Update(0.1)
		if n := countKind(events, CollisionFood); n > 0 {
			if n != 1 || events[len(events)-1].Position != (game.Point{X: 8, Y: 5}) {
				t.Fatalf("events=%+v", events)
			}
			ate = true
		}
	}
	if !ate {
		t.Fatalf("agent never reached food\n%s", dumpState(g.State()))
	}
	if g.Score("ai") != 10 {
		t.Fatalf("score=%d want 10", g.Score("ai"))
	}
	if agent.Len()+agent.Growth() != 4 {
		t.Fatalf("len=%d growth=%d want total 4", agent.Len(), agent.Growth())
	}

	g.Update(0.1)
	if agent.Len() != 4 {
		t.Fatalf("len=%d want 4 after growing\n%s", agent.Len(), dumpState(g.State()))
	}
}

func TestUpdate_ScoreRaceEndsOnTime(t *testing.T) {
	g := New(Config{
		Mode:      ScoreRace,
		Grid:      game.SquareGrid{Width: 10, Height: 10},
		Food:      &game.FoodSettings{MaxFood: 1, Points: 10, Growth: 1},
		TimeLimit: 1,
	})
	g.AddPlayerSnake("a", game.Point{X: 2, Y: 3}, game.Up)
	g.AddPlayerSnake("b", game.Point{X: 7, Y: 3}, game.Up)
	g.AddFood(game.Point{X: 7, Y: 5}, 10)
	// Keeps the board at the cap so nothing respawns in either path.
	g.AddFood(game.Point{X: 0, Y: 9}, 10)

	for i := 0; i < 3; i++ {
		g.Update(0.25)
		if g.IsGameOver() {
			t.Fatalf("over early at %.2f", g.GameTime())
		}
	}
	g.Update(0.25)
	if !g.IsGameOver() {
		t.Fatalf("expected game over at %.2f", g.GameTime())
	}
	if g.Winner() != "b" {
		t.Fatalf("winner=%q want b\n%s", g.Winner(), dumpState(g.State()))
	}
	lb := g.Leaderboard()
	if lb[0].Id != "b" || lb[0].Score != 10 || lb[1].Id != "a" {
		t.Fatalf("leaderboard=%+v", lb)
	}
}

func TestAddSnake_Validation(t *testing.T) {
	g := newTestGame(Survival)
	if !g.AddPlayerSnake("a", game.Point{X: 5, Y: 5}, game.Right) {
		t.Fatalf("valid placement rejected")
	}

	cases := []struct {
		name string
		ok   bool
	}{
		{"duplicate id", g.AddPlayerSnake("a", game.Point{X: 2, Y: 8}, game.Up)},
		{"empty id", g.AddPlayerSnake("", game.Point{X: 2, Y: 8}, game.Up)},
		{"head off board", g.AddPlayerSnake("b", game.Point{X: 10, Y: 5}, game.Right)},
		{"body off board", g.AddAISnakeFacing("b", game.Point{X: 0, Y: 5}, game.Right, behavior.Balanced, 0.5)},
		{"overlap", g.AddPlayerSnake("b", game.Point{X: 4, Y: 6}, game.Up)},
		{"hex direction on square grid", g.AddPlayerSnake("b", game.Point{X: 5, Y: 1}, game.East)},
	}
	for _, c := range cases {
		if c.ok {
			t.Fatalf("%s: placement accepted", c.name)
		}
	}
	if len(g.ActiveSnakes()) != 1 || g.Board().Len() != 3 {
		t.Fatalf("rejected placements mutated state: active=%d cells=%d", len(g.ActiveSnakes()), g.Board().Len())
	}
}

func TestRemoveSnake(t *testing.T) {
	g := newTestGame(Cooperative)
	g.AddPlayerSnake("a", game.Point{X: 5, Y: 5}, game.Right)

	if !g.RemoveSnake("a") {
		t.Fatalf("remove failed")
	}
	if g.RemoveSnake("a") || g.RemoveSnake("zzz") {
		t.Fatalf("second remove or unknown id succeeded")
	}
	if len(g.EliminatedSnakes()) != 1 || len(g.ActiveSnakes()) != 0 {
		t.Fatalf("eliminated=%d active=%d", len(g.EliminatedSnakes()), len(g.ActiveSnakes()))
	}
	if g.Board().Len() != 0 {
		t.Fatalf("board not vacated")
	}
}

func TestEliminationMonotonic(t *testing.T) {
	g := NewSurvival(Config{Grid: game.SquareGrid{Width: 12, Height: 12}, Seed: 11}, 6, 0.3)
	gone := map[string]bool{}
	for tick := 0; tick < 500 && !g.IsGameOver(); tick++ {
		g.Update(0.1)
		for _, s := range g.EliminatedSnakes() {
			gone[s.ID()] = true
		}
		for _, s := range g.ActiveSnakes() {
			if gone[s.ID()] {
				t.Fatalf("tick %d: %s is active again\n%s", tick, s.ID(), dumpState(g.State()))
			}
			for _, p := range s.Segments() {
				if owner, _ := g.Board().Owner(p); owner != s.ID() {
					t.Fatalf("tick %d: cell %v owner=%q want %s", tick, p, owner, s.ID())
				}
			}
		}
	}
}

func TestDeterministicReplay(t *testing.T) {
	run := func() []CollisionEvent {
		g := NewFreeForAll(Config{Grid: game.SquareGrid{Width: 11, Height: 11}, Seed: 99}, 4, 0.6)
		for tick := 0; tick < 300 && !g.IsGameOver(); tick++ {
			g.Update(0.1)
		}
		return g.Events()
	}
	a, b := run(), run()
	if len(a) != len(b) {
		t.Fatalf("event count %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("event %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestHexGameRuns(t *testing.T) {
	grid := game.HexGrid{Width: 14, Height: 14}
	g := NewSurvival(Config{Grid: grid, Seed: 5}, 3, 0.8)
	if len(g.ActiveSnakes()) == 0 {
		t.Fatalf("no agents placed on hex board")
	}
	for tick := 0; tick < 300 && !g.IsGameOver(); tick++ {
		g.Update(0.1)
		for _, s := range g.ActiveSnakes() {
			for _, p := range s.Segments() {
				if !grid.Valid(p) {
					t.Fatalf("tick %d: %s has segment %v off board", tick, s.ID(), p)
				}
			}
		}
	}
}

func TestSpacedStarts(t *testing.T) {
	grid := game.SquareGrid{Width: 20, Height: 20}
	starts := SpacedStarts(grid, 4)
	if len(starts) != 4 {
		t.Fatalf("starts=%v", starts)
	}
	seen := map[game.Point]bool{}
	for _, p := range starts {
		if seen[p] {
			t.Fatalf("duplicate start %v", p)
		}
		seen[p] = true
		for _, c := range game.InitialBody(p, game.Right, DefaultStartLength) {
			if !grid.Valid(c) {
				t.Fatalf("start %v leaves body off board", p)
			}
		}
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{Survival, FreeForAll, Cooperative, ScoreRace} {
		got, err := ParseMode(m.String())
		if err != nil || got != m {
			t.Fatalf("round trip %v: %v %v", m, got, err)
		}
	}
	if m, err := ParseMode("free-for-all"); err != nil || m != FreeForAll {
		t.Fatalf("dashed name: %v %v", m, err)
	}
	if _, err := ParseMode("battle"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestResetClearsEverything(t *testing.T) {
	g := NewScoreRace(Config{Grid: game.SquareGrid{Width: 10, Height: 10}, Seed: 1}, 2, 0.5)
	g.Update(0.1)
	g.Reset()
	if len(g.ActiveSnakes()) != 0 || len(g.Food()) != 0 || g.GameTime() != 0 || g.Turn() != 0 || len(g.Events()) != 0 {
		t.Fatalf("reset left state behind:\n%s", dumpState(g.State()))
	}
	if g.Board().Len() != 0 {
		t.Fatalf("board not cleared")
	}
}

func TestNewForModeLeavesPlayerSlot(t *testing.T) {
	for _, m := range []Mode{Survival, FreeForAll, Cooperative, ScoreRace} {
		g := NewForMode(m, Config{Grid: game.SquareGrid{Width: 20, Height: 20}, Seed: 2}, 3, 0.5)
		if g.Mode() != m {
			t.Fatalf("mode=%v want %v", g.Mode(), m)
		}
		if n := len(g.ActiveSnakes()); n != 3 {
			t.Fatalf("%v: %d agents", m, n)
		}
		if len(g.Food()) == 0 {
			t.Fatalf("%v: no food seeded", m)
		}
		if !g.AddPlayerSnake("player", PlayerStart(g, 3), DefaultHeading(g.Grid())) {
			t.Fatalf("%v: player slot occupied\n%s", m, dumpState(g.State()))
		}
	}
}

func TestSoloGameOverAtStart(t *testing.T) {
	for _, build := range []func(Config, int, float64) *Game{NewSurvival, NewFreeForAll} {
		g := build(Config{Grid: game.SquareGrid{Width: 10, Height: 10}, Seed: 1}, 1, 0.5)
		if !g.IsGameOver() || g.Winner() != AgentID(0) {
			t.Fatalf("%v: over=%v winner=%q", g.Mode(), g.IsGameOver(), g.Winner())
		}
		if events := g.Update(0.1); events != nil || g.Turn() != 0 {
			t.Fatalf("%v: update ran: turn=%d events=%+v", g.Mode(), g.Turn(), events)
		}
	}
}
