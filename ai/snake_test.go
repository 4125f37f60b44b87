package ai

import (
	"math"
	"math/rand"
	"testing"

	"github.com/brensch/snekarena/behavior"
	"github.com/brensch/snekarena/game"
	"github.com/brensch/snekarena/pathfind"
)

func newAgent(p behavior.Personality, difficulty float64, g game.Grid, head game.Point, dir game.Direction) *Snake {
	return New("ai", head, dir, 3, Config{
		Personality: p,
		Difficulty:  difficulty,
		Finder:      pathfind.New(g),
		Rand:        rand.New(rand.NewSource(3)),
	})
}

func TestDifficulty_Clamped(t *testing.T) {
	g := game.SquareGrid{Width: 10, Height: 10}
	cases := []struct {
		in, want float64
	}{
		{-1, 0.1},
		{5, 1.0},
		{0.5, 0.5},
		{math.NaN(), 0.1},
	}
	for _, c := range cases {
		s := newAgent(behavior.Balanced, c.in, g, game.Point{X: 5, Y: 5}, game.Right)
		if s.Difficulty() != c.want {
			t.Fatalf("difficulty(%v)=%v want=%v", c.in, s.Difficulty(), c.want)
		}
		if got, want := s.MistakeChance(), 1-c.want; math.Abs(got-want) > 1e-9 {
			t.Fatalf("mistake(%v)=%v want=%v", c.in, got, want)
		}
		if got, want := s.DecisionDelay(), 0.2-c.want*0.15; math.Abs(got-want) > 1e-9 {
			t.Fatalf("delay(%v)=%v want=%v", c.in, got, want)
		}
	}
}

func TestDifficultyLevel(t *testing.T) {
	g := game.SquareGrid{Width: 10, Height: 10}
	s := newAgent(behavior.Balanced, 0.2, g, game.Point{X: 5, Y: 5}, game.Right)
	for _, c := range []struct {
		d    float64
		want string
	}{{0.2, "Easy"}, {0.5, "Medium"}, {0.9, "Hard"}} {
		s.SetDifficulty(c.d)
		if s.DifficultyLevel() != c.want {
			t.Fatalf("level(%v)=%s want=%s", c.d, s.DifficultyLevel(), c.want)
		}
	}
}

func TestUpdateAI_DecisionDelay(t *testing.T) {
	g := game.SquareGrid{Width: 10, Height: 10}
	s := newAgent(behavior.Balanced, 0.5, g, game.Point{X: 5, Y: 5}, game.Right)

	if !s.UpdateAI(nil, nil, g, 0) {
		t.Fatalf("first update should decide")
	}
	if s.UpdateAI(nil, nil, g, 0.1) {
		t.Fatalf("decided before delay %.3f elapsed", s.DecisionDelay())
	}
	if !s.UpdateAI(nil, nil, g, 0.2) {
		t.Fatalf("expected decision after delay")
	}
}

func TestMoveToFood_PlansAndFollows(t *testing.T) {
	g := game.SquareGrid{Width: 10, Height: 10}
	s := newAgent(behavior.Aggressive, 0.5, g, game.Point{X: 5, Y: 5}, game.Right)
	food := []game.Point{{X: 5, Y: 8}}

	s.UpdateAI(food, nil, g, 0)
	if s.LastAction() != behavior.MoveToFood {
		t.Fatalf("action=%q want move_to_food", s.LastAction())
	}
	if s.Pending() != game.Up {
		t.Fatalf("pending=%v want up", s.Pending())
	}
	if target, ok := s.Target(); !ok || target != food[0] {
		t.Fatalf("target=%v,%v want %v", target, ok, food[0])
	}
	if got := s.Path(); len(got) != 3 || got[2] != food[0] {
		t.Fatalf("path=%v", got)
	}

	s.Move()
	s.Move()
	if p := s.Path(); len(p) != 2 || p[0] != (game.Point{X: 5, Y: 7}) {
		t.Fatalf("after moves path=%v", p)
	}

	s.UpdateAI(food, nil, g, 0.2)
	if s.LastAction() != behavior.MoveToFood || s.Pending() != game.Up {
		t.Fatalf("action=%q pending=%v", s.LastAction(), s.Pending())
	}
	s.Move()
	s.Move()
	if _, ok := s.Target(); ok {
		t.Fatalf("target should clear once reached")
	}
}

func TestMoveToFood_NoFinderFallsThrough(t *testing.T) {
	g := game.SquareGrid{Width: 10, Height: 10}
	s := New("ai", game.Point{X: 5, Y: 5}, game.Right, 3, Config{
		Personality: behavior.Aggressive,
		Difficulty:  1,
		Rand:        rand.New(rand.NewSource(1)),
	})
	s.UpdateAI([]game.Point{{X: 8, Y: 5}}, nil, g, 0)
	if s.LastAction() != behavior.Explore {
		t.Fatalf("action=%q want explore", s.LastAction())
	}
}

func TestMoveToFood_Unreachable(t *testing.T) {
	g := game.SquareGrid{Width: 10, Height: 10}
	s := newAgent(behavior.Aggressive, 1, g, game.Point{X: 2, Y: 2}, game.Right)
	food := game.Point{X: 8, Y: 8}
	wall := game.NewSnake("wall", game.Point{X: 8, Y: 9}, game.Up, 1)
	others := []game.Mover{
		wall,
		game.NewSnake("w2", game.Point{X: 7, Y: 8}, game.Up, 1),
		game.NewSnake("w3", game.Point{X: 9, Y: 8}, game.Up, 1),
		game.NewSnake("w4", game.Point{X: 8, Y: 7}, game.Up, 1),
	}
	s.UpdateAI([]game.Point{food}, others, g, 0)
	if s.LastAction() == behavior.MoveToFood {
		t.Fatalf("planned a route into an enclosed cell")
	}
	if _, ok := s.Target(); ok {
		t.Fatalf("target set for unreachable food")
	}
}

func TestEscapeDanger_AvoidsWall(t *testing.T) {
	g := game.SquareGrid{Width: 10, Height: 10}
	s := newAgent(behavior.Aggressive, 1, g, game.Point{X: 9, Y: 5}, game.Right)

	s.UpdateAI(nil, nil, g, 0)
	if s.LastAction() != behavior.EscapeDanger {
		t.Fatalf("action=%q want escape_danger", s.LastAction())
	}
	if !s.LastContext().DangerAhead {
		t.Fatalf("expected danger ahead at the wall")
	}
	if p := s.Pending(); p != game.Up && p != game.Down {
		t.Fatalf("pending=%v want up or down", p)
	}
}

func TestEscapeDanger_CautiousPicksSafeCell(t *testing.T) {
	g := game.SquareGrid{Width: 10, Height: 10}
	s := newAgent(behavior.Cautious, 1, g, game.Point{X: 1, Y: 2}, game.Up)
	other := game.NewSnake("o", game.Point{X: 0, Y: 2}, game.Up, 3)

	s.UpdateAI(nil, []game.Mover{other}, g, 0)
	if s.LastAction() != behavior.EscapeDanger {
		t.Fatalf("cautious with danger nearby should escape, got %q", s.LastAction())
	}
	next := s.Head().Add(s.Pending().Delta())
	if !g.Valid(next) || other.Occupies(next) || s.Occupies(next) {
		t.Fatalf("escape chose unsafe cell %v", next)
	}
}

func TestSafeExplore_MostExits(t *testing.T) {
	g := game.SquareGrid{Width: 10, Height: 10}
	s := newAgent(behavior.Cautious, 1, g, game.Point{X: 0, Y: 5}, game.Up)
	if !s.safeExplore(g, pathfind.NewObstacles(s.Segments())) {
		t.Fatalf("safe explore failed on an open board")
	}
	// (1,5) has three exits, (0,6) only two.
	if s.Pending() != game.Right {
		t.Fatalf("pending=%v want right", s.Pending())
	}
}

func TestRandomMove_HardAgentStaysSafe(t *testing.T) {
	g := game.SquareGrid{Width: 10, Height: 10}
	for seed := int64(0); seed < 20; seed++ {
		s := New("ai", game.Point{X: 9, Y: 5}, game.Right, 3, Config{
			Personality: behavior.Random,
			Difficulty:  1,
			Finder:      pathfind.New(g),
			Rand:        rand.New(rand.NewSource(seed)),
		})
		s.UpdateAI(nil, nil, g, 0)
		next := s.Head().Add(s.Pending().Delta())
		if !g.Valid(next) || s.Occupies(next) {
			t.Fatalf("seed %d: difficulty 1 picked unsafe %v via %q", seed, next, s.LastAction())
		}
	}
}

func TestAgentIsMover(t *testing.T) {
	g := game.SquareGrid{Width: 5, Height: 5}
	var m game.Mover = newAgent(behavior.Balanced, 0.5, g, game.Point{X: 2, Y: 2}, game.Up)
	if m.SetDirection(game.Down) {
		t.Fatalf("reversal accepted through Mover")
	}
	tail, vacated := m.Move()
	if !vacated || tail != (game.Point{X: 2, Y: 0}) || m.Head() != (game.Point{X: 2, Y: 3}) {
		t.Fatalf("tail=%v vacated=%v head=%v", tail, vacated, m.Head())
	}
}

func TestRandomMove_MistakesNeverReverse(t *testing.T) {
	g := game.SquareGrid{Width: 10, Height: 10}
	obstacles := pathfind.NewObstacles([]game.Point{{X: 0, Y: 5}, {X: 0, Y: 4}, {X: 0, Y: 3}})

	intoWall := 0
	for seed := int64(0); seed < 200; seed++ {
		s := New("ai", game.Point{X: 0, Y: 5}, game.Up, 3, Config{
			Personality: behavior.Random,
			Difficulty:  MinDifficulty,
			Finder:      pathfind.New(g),
			Rand:        rand.New(rand.NewSource(seed)),
		})
		if !s.randomMove(g, obstacles) {
			t.Fatalf("seed %d: random_move failed", seed)
		}
		switch s.Pending() {
		case game.Down:
			t.Fatalf("seed %d: picked a reversal", seed)
		case game.Left:
			intoWall++
		}
	}
	// explore never steers off the board, so Left only comes from mistakes.
	if intoWall == 0 {
		t.Fatalf("no mistakes in 200 draws at difficulty %v", MinDifficulty)
	}
}
