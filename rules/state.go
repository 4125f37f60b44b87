package rules

import (
	"github.com/brensch/snekarena/ai"
	"github.com/brensch/snekarena/game"
)

// State returns a snapshot of the arena for renderers, the replay archive and
// the spectator feed. Snakes are listed in id order.
func (g *Game) State() *game.GameState {
	w, h := g.grid.Size()
	_, hex := g.grid.(game.HexGrid)
	over := g.IsGameOver()

	st := &game.GameState{
		Width:  w,
		Height: h,
		Hex:    hex,
		Mode:   g.mode.String(),
		Turn:   g.turn,
		Time:   g.gameTime,
		Food:   g.Food(),
		Over:   over,
	}
	if over {
		st.Winner = g.Winner()
	}

	st.Snakes = make([]game.SnakeState, 0, len(g.ids))
	for _, id := range g.ids {
		s := g.snakes[id]
		ss := game.SnakeState{
			Id:    id,
			Body:  s.Segments(),
			Alive: g.IsActive(id),
			Score: g.scores[id],
		}
		if agent, ok := s.(*ai.Snake); ok {
			ss.Personality = agent.Personality().String()
			ss.Difficulty = agent.Difficulty()
			ss.Action = agent.LastAction()
		}
		st.Snakes = append(st.Snakes, ss)
	}
	return st
}
