package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/brensch/snekarena/rules"
	"github.com/brensch/snekarena/spectate"
	"github.com/brensch/snekarena/store"
)

// session drives one game and fans each tick out to the optional sinks.
type session struct {
	id       string
	game     *rules.Game
	dt       float64
	maxTurns int

	hub     *spectate.Hub
	archive *store.ArchiveWriter
	board   *store.Leaderboard

	done bool
}

func newSession(id string, g *rules.Game, dt float64, maxTurns int) *session {
	return &session{id: id, game: g, dt: dt, maxTurns: maxTurns}
}

func (s *session) start() {
	if s.hub != nil {
		if err := s.hub.Broadcast(spectate.NewGameInfo(s.id, s.game)); err != nil {
			log.Printf("broadcast game_info: %v", err)
		}
	}
	s.record(nil)
}

// step advances one tick and reports whether the game is finished.
func (s *session) step() bool {
	if s.done {
		return true
	}
	events := s.game.Update(s.dt)
	s.record(events)
	if s.hub != nil {
		if err := s.hub.Broadcast(spectate.NewFrame(s.game.State(), events)); err != nil {
			log.Printf("broadcast frame: %v", err)
		}
	}
	if s.game.IsGameOver() || (s.maxTurns > 0 && int(s.game.Turn()) >= s.maxTurns) {
		s.done = true
	}
	return s.done
}

func (s *session) record(events []rules.CollisionEvent) {
	if s.archive == nil {
		return
	}
	if err := s.archive.Write(store.NewTickRow(s.id, s.game.State(), events)); err != nil {
		log.Printf("archive tick %d: %v", s.game.Turn(), err)
	}
}

// finish announces the result and flushes every sink.
func (s *session) finish(ctx context.Context) error {
	s.done = true
	if s.hub != nil {
		if err := s.hub.Broadcast(spectate.NewGameEnd(s.id, s.game)); err != nil {
			log.Printf("broadcast game_end: %v", err)
		}
	}

	if s.archive != nil {
		s.archive.EndGame()
		path, err := s.archive.Finalize()
		if err != nil {
			return fmt.Errorf("finalize archive: %w", err)
		}
		if path != "" {
			log.Printf("Wrote %d ticks to %s", s.archive.Rows(), path)
		}
	}

	if s.board != nil {
		err := s.board.RecordGame(ctx, s.id, s.game.Mode().String(), s.game.Winner(), s.game.Leaderboard(), time.Now())
		if err != nil {
			return fmt.Errorf("record leaderboard: %w", err)
		}
	}
	return nil
}

// run steps the game on a ticker until it ends or ctx is cancelled. A zero
// interval runs as fast as possible.
func (s *session) run(ctx context.Context, interval time.Duration) {
	var tick <-chan time.Time
	if interval > 0 {
		t := time.NewTicker(interval)
		defer t.Stop()
		tick = t.C
	}
	for {
		if tick != nil {
			select {
			case <-ctx.Done():
				return
			case <-tick:
			}
		} else if ctx.Err() != nil {
			return
		}
		if s.step() {
			return
		}
	}
}

func (s *session) summary() string {
	g := s.game
	out := fmt.Sprintf("Game %s (%s) finished after %d turns / %.1fs", s.id, g.Mode(), g.Turn(), g.GameTime())
	switch {
	case g.Winner() != "":
		out += fmt.Sprintf(", winner %s", g.Winner())
	case g.IsDraw():
		out += ", draw"
	}
	for i, st := range g.Leaderboard() {
		status := "out"
		if st.Alive {
			status = "alive"
		}
		out += fmt.Sprintf("\n  %d. %-10s %5d  %s", i+1, st.Id, st.Score, status)
	}
	return out
}
