package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/brensch/snekarena/game"
	"github.com/brensch/snekarena/rules"
)

type TickMsg time.Time

func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

type model struct {
	sess     *session
	playerID string
	interval time.Duration
	paused   bool
}

func initialModel(sess *session, playerID string, interval time.Duration) model {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return model{sess: sess, playerID: playerID, interval: interval}
}

func (m model) Init() tea.Cmd {
	return tickCmd(m.interval)
}

var squareKeys = map[string]game.Direction{
	"up": game.Up, "w": game.Up,
	"down": game.Down, "s": game.Down,
	"left": game.Left, "a": game.Left,
	"right": game.Right, "d": game.Right,
}

var hexKeys = map[string]game.Direction{
	"e": game.NorthEast, "w": game.NorthWest,
	"a": game.West, "d": game.East,
	"z": game.SouthWest, "x": game.SouthEast,
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		key := msg.String()
		switch key {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "p", " ":
			m.paused = !m.paused
			return m, nil
		}
		m.steer(key)
	case TickMsg:
		if m.paused {
			return m, tickCmd(m.interval)
		}
		if m.sess.step() {
			return m, tea.Quit
		}
		return m, tickCmd(m.interval)
	}
	return m, nil
}

func (m model) steer(key string) {
	if m.playerID == "" || !m.sess.game.IsActive(m.playerID) {
		return
	}
	keys := squareKeys
	if _, hex := m.sess.game.Grid().(game.HexGrid); hex {
		keys = hexKeys
	}
	d, ok := keys[key]
	if !ok {
		return
	}
	if s, ok := m.sess.game.Snake(m.playerID); ok {
		s.SetDirection(d)
	}
}

func (m model) View() string {
	g := m.sess.game
	var b strings.Builder
	fmt.Fprintf(&b, "Mode: %s   Turn: %d   Time: %.1fs", g.Mode(), g.Turn(), g.GameTime())
	if g.Mode() == rules.ScoreRace {
		fmt.Fprintf(&b, " / %.0fs", g.TimeLimit())
	}
	if m.paused {
		b.WriteString("   [paused]")
	}
	b.WriteString("\n\n")
	b.WriteString(game.Render(g.State(), g.Grid()))
	b.WriteString("\n")
	for _, st := range g.Leaderboard() {
		marker := " "
		if !st.Alive {
			marker = "x"
		}
		fmt.Fprintf(&b, " %s %-10s %5d\n", marker, st.Id, st.Score)
	}
	if m.playerID != "" {
		if _, hex := g.Grid().(game.HexGrid); hex {
			b.WriteString("\nSteer with w/e/a/d/z/x. ")
		} else {
			b.WriteString("\nSteer with arrows or wasd. ")
		}
	} else {
		b.WriteString("\n")
	}
	b.WriteString("p pauses, q quits.\n")
	return b.String()
}
