// Package rules runs a multi-snake arena: it collects agent decisions,
// advances every snake, resolves collisions for the configured mode and
// manages food and scoring.
package rules

import (
	"fmt"
	"strings"

	"github.com/brensch/snekarena/game"
)

// Mode selects how snake-vs-snake collisions and termination are handled.
type Mode uint8

const (
	// Survival eliminates both snakes on contact; last snake standing wins.
	Survival Mode = iota
	// FreeForAll eliminates only the snake whose head made contact.
	FreeForAll
	// Cooperative never eliminates on contact and never ends by itself.
	Cooperative
	// ScoreRace resolves contact like FreeForAll and ends on the time limit.
	ScoreRace
)

var modeNames = [...]string{
	Survival:    "survival",
	FreeForAll:  "free_for_all",
	Cooperative: "cooperative",
	ScoreRace:   "score_race",
}

func (m Mode) String() string {
	if int(m) >= len(modeNames) {
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
	return modeNames[m]
}

func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "_")
	for i, name := range modeNames {
		if name == s {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown game mode %q", s)
}

// CollisionKind is what a snake's head ran into.
type CollisionKind uint8

const (
	CollisionWall CollisionKind = iota
	CollisionSelf
	CollisionSnake
	CollisionFood
)

func (k CollisionKind) String() string {
	switch k {
	case CollisionWall:
		return "wall"
	case CollisionSelf:
		return "self"
	case CollisionSnake:
		return "snake"
	case CollisionFood:
		return "food"
	}
	return fmt.Sprintf("collision(%d)", uint8(k))
}

// CollisionEvent records one collision during a tick. Time is game time in
// seconds, so replays of the same seed produce identical events.
type CollisionEvent struct {
	SnakeId  string
	Kind     CollisionKind
	Position game.Point
	OtherId  string
	Time     float64
}

// Standing is one leaderboard row.
type Standing struct {
	Id    string
	Score int
	Alive bool
}
