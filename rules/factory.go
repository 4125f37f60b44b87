package rules

import (
	"fmt"
	"math"

	"github.com/brensch/snekarena/behavior"
	"github.com/brensch/snekarena/game"
)

// NewSurvival builds a Survival game with numAI agents of random personality.
// One extra start slot is left free for a player. A solo game is over at turn 0.
func NewSurvival(cfg Config, numAI int, difficulty float64) *Game {
	cfg.Mode = Survival
	return populate(New(cfg), numAI, difficulty)
}

// NewScoreRace builds a ScoreRace game; cfg.TimeLimit sets the deadline.
func NewScoreRace(cfg Config, numAI int, difficulty float64) *Game {
	cfg.Mode = ScoreRace
	return populate(New(cfg), numAI, difficulty)
}

// NewFreeForAll builds a FreeForAll game. Like Survival, a solo game is over at turn 0.
func NewFreeForAll(cfg Config, numAI int, difficulty float64) *Game {
	cfg.Mode = FreeForAll
	return populate(New(cfg), numAI, difficulty)
}

// NewCooperative builds a Cooperative game. It never ends by itself, so the
// caller decides when to stop.
func NewCooperative(cfg Config, numAI int, difficulty float64) *Game {
	cfg.Mode = Cooperative
	return populate(New(cfg), numAI, difficulty)
}

// NewForMode dispatches to the factory for m.
func NewForMode(m Mode, cfg Config, numAI int, difficulty float64) *Game {
	switch m {
	case Survival:
		return NewSurvival(cfg, numAI, difficulty)
	case ScoreRace:
		return NewScoreRace(cfg, numAI, difficulty)
	case Cooperative:
		return NewCooperative(cfg, numAI, difficulty)
	default:
		return NewFreeForAll(cfg, numAI, difficulty)
	}
}

// PlayerStart returns the start slot factories leave free after numAI agents.
func PlayerStart(g *Game, numAI int) game.Point {
	starts := SpacedStarts(g.grid, numAI+1)
	return starts[len(starts)-1]
}

func populate(g *Game, numAI int, difficulty float64) *Game {
	starts := SpacedStarts(g.grid, numAI+1)
	for i := 0; i < numAI && i < len(starts); i++ {
		p := behavior.Personalities[g.rng.Intn(len(behavior.Personalities))]
		g.AddAISnake(AgentID(i), starts[i], p, difficulty)
	}
	g.SeedFood()
	return g
}

// AgentID is the id factories give the i'th agent.
func AgentID(i int) string {
	return fmt.Sprintf("ai_%d", i)
}

// SpacedStarts spreads n heads over the board by splitting it into a grid of
// regions and taking each region's centre, kept two cells from the edges so
// a length-3 body fits behind it. Hex boards use the same layout shifted to
// be centred on the origin and pulled inward until the body fits.
func SpacedStarts(g game.Grid, n int) []game.Point {
	if n <= 0 {
		return nil
	}
	w, h := g.Size()
	cols := int32(math.Sqrt(float64(n + 1)))
	if cols < 1 {
		cols = 1
	}
	rows := (int32(n) + cols - 1) / cols
	cellW, cellH := w/cols, h/rows

	_, hex := g.(game.HexGrid)
	out := make([]game.Point, 0, n)
	for i := int32(0); i < int32(n); i++ {
		row, col := i/cols, i%cols
		x := max(2, min(col*cellW+cellW/2, w-3))
		y := max(2, min(row*cellH+cellH/2, h-3))
		p := game.Point{X: x, Y: y}
		if hex {
			p = pullInward(g, game.Point{X: x - w/2, Y: y - h/2})
		}
		out = append(out, p)
	}
	return out
}

// pullInward moves p toward the origin until p and the two cells west of it
// (an East-facing body) are all on the board.
func pullInward(g game.Grid, p game.Point) game.Point {
	fits := func(p game.Point) bool {
		return g.Valid(p) && g.Valid(game.Point{X: p.X - 2, Y: p.Y})
	}
	for !fits(p) && p != (game.Point{}) {
		switch {
		case p.X > 0:
			p.X--
		case p.X < 0:
			p.X++
		}
		switch {
		case p.Y > 0:
			p.Y--
		case p.Y < 0:
			p.Y++
		}
	}
	return p
}
