// Package spectate streams a running arena to websocket spectators.
//
// Every message is an Event envelope. A spectator first receives the current
// game_info (if any), then one frame per tick, and a game_end when the game
// finishes. Clients pick JSON text frames or msgpack binary frames with the
// codec query parameter.
package spectate

import (
	"github.com/brensch/snekarena/game"
	"github.com/brensch/snekarena/rules"
)

const (
	EventGameInfo = "game_info"
	EventFrame    = "frame"
	EventGameEnd  = "game_end"
)

type Event struct {
	Type string `json:"type" msgpack:"type"`
	Data any    `json:"data" msgpack:"data"`
}

type GameInfo struct {
	GameID    string  `json:"game_id" msgpack:"game_id"`
	Mode      string  `json:"mode" msgpack:"mode"`
	Width     int32   `json:"width" msgpack:"width"`
	Height    int32   `json:"height" msgpack:"height"`
	Hex       bool    `json:"hex" msgpack:"hex"`
	TimeLimit float64 `json:"time_limit,omitempty" msgpack:"time_limit,omitempty"`
}

type Coord struct {
	X int32 `json:"x" msgpack:"x"`
	Y int32 `json:"y" msgpack:"y"`
}

type SnakeData struct {
	ID          string  `json:"id" msgpack:"id"`
	Body        []Coord `json:"body" msgpack:"body"`
	Alive       bool    `json:"alive" msgpack:"alive"`
	Score       int     `json:"score" msgpack:"score"`
	Personality string  `json:"personality,omitempty" msgpack:"personality,omitempty"`
	Difficulty  float64 `json:"difficulty,omitempty" msgpack:"difficulty,omitempty"`
	Action      string  `json:"action,omitempty" msgpack:"action,omitempty"`
}

type FoodData struct {
	Coord
	Points int `json:"points" msgpack:"points"`
}

type Frame struct {
	Turn   int32       `json:"turn" msgpack:"turn"`
	Time   float64     `json:"time" msgpack:"time"`
	Snakes []SnakeData `json:"snakes" msgpack:"snakes"`
	Food   []FoodData  `json:"food" msgpack:"food"`
	Events []EventData `json:"events,omitempty" msgpack:"events,omitempty"`
}

type EventData struct {
	SnakeID string `json:"snake_id" msgpack:"snake_id"`
	Kind    string `json:"kind" msgpack:"kind"`
	At      Coord  `json:"at" msgpack:"at"`
	OtherID string `json:"other_id,omitempty" msgpack:"other_id,omitempty"`
}

type GameEnd struct {
	GameID    string         `json:"game_id" msgpack:"game_id"`
	Winner    string         `json:"winner,omitempty" msgpack:"winner,omitempty"`
	Draw      bool           `json:"draw" msgpack:"draw"`
	Turn      int32          `json:"turn" msgpack:"turn"`
	Standings []StandingData `json:"standings" msgpack:"standings"`
}

type StandingData struct {
	ID    string `json:"id" msgpack:"id"`
	Score int    `json:"score" msgpack:"score"`
	Alive bool   `json:"alive" msgpack:"alive"`
}

func NewGameInfo(gameID string, g *rules.Game) Event {
	st := g.State()
	return Event{Type: EventGameInfo, Data: GameInfo{
		GameID:    gameID,
		Mode:      st.Mode,
		Width:     st.Width,
		Height:    st.Height,
		Hex:       st.Hex,
		TimeLimit: g.TimeLimit(),
	}}
}

// NewFrame converts a snapshot and the events that produced it.
func NewFrame(st *game.GameState, events []rules.CollisionEvent) Event {
	f := Frame{
		Turn:   st.Turn,
		Time:   st.Time,
		Snakes: make([]SnakeData, 0, len(st.Snakes)),
		Food:   make([]FoodData, 0, len(st.Food)),
	}
	for _, s := range st.Snakes {
		sd := SnakeData{
			ID:          s.Id,
			Alive:       s.Alive,
			Score:       s.Score,
			Personality: s.Personality,
			Difficulty:  s.Difficulty,
			Action:      s.Action,
			Body:        make([]Coord, len(s.Body)),
		}
		for i, p := range s.Body {
			sd.Body[i] = toCoord(p)
		}
		f.Snakes = append(f.Snakes, sd)
	}
	for _, fd := range st.Food {
		f.Food = append(f.Food, FoodData{Coord: toCoord(fd.Position), Points: fd.Points})
	}
	for _, e := range events {
		f.Events = append(f.Events, EventData{
			SnakeID: e.SnakeId,
			Kind:    e.Kind.String(),
			At:      toCoord(e.Position),
			OtherID: e.OtherId,
		})
	}
	return Event{Type: EventFrame, Data: f}
}

func NewGameEnd(gameID string, g *rules.Game) Event {
	end := GameEnd{
		GameID: gameID,
		Winner: g.Winner(),
		Draw:   g.IsDraw(),
		Turn:   g.Turn(),
	}
	for _, s := range g.Leaderboard() {
		end.Standings = append(end.Standings, StandingData{ID: s.Id, Score: s.Score, Alive: s.Alive})
	}
	return Event{Type: EventGameEnd, Data: end}
}

func toCoord(p game.Point) Coord { return Coord{X: p.X, Y: p.Y} }
