// Package store persists finished and in-progress arena games: a parquet
// replay archive with one row per tick, and a sqlite leaderboard.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"github.com/brensch/snekarena/game"
	"github.com/brensch/snekarena/rules"
)

const archiveSchema = "arena_tick_v1"

// TickRow is a single (game, tick) snapshot.
//
// One row per tick keeps food and events next to the snakes they affected;
// snake bodies are stored as parallel x/y columns, which compress well.
type TickRow struct {
	GameID string  `parquet:"game_id,dict"`
	Turn   int32   `parquet:"turn"`
	Time   float64 `parquet:"time"`
	Mode   string  `parquet:"mode,dict"`
	Width  int32   `parquet:"width"`
	Height int32   `parquet:"height"`
	Hex    bool    `parquet:"hex"`

	FoodX      []int32 `parquet:"food_x"`
	FoodY      []int32 `parquet:"food_y"`
	FoodPoints []int32 `parquet:"food_points"`

	Snakes []ArchiveSnake `parquet:"snakes"`
	Events []ArchiveEvent `parquet:"events"`

	Winner string `parquet:"winner,dict,optional"`
	Over   bool   `parquet:"over"`
}

type ArchiveSnake struct {
	ID          string  `parquet:"id,dict"`
	Alive       bool    `parquet:"alive"`
	Score       int32   `parquet:"score"`
	Personality string  `parquet:"personality,dict,optional"`
	Difficulty  float32 `parquet:"difficulty"`
	Action      string  `parquet:"action,dict,optional"`

	BodyX []int32 `parquet:"body_x"`
	BodyY []int32 `parquet:"body_y"`
}

type ArchiveEvent struct {
	SnakeID string `parquet:"snake_id,dict"`
	Kind    string `parquet:"kind,dict"`
	X       int32  `parquet:"x"`
	Y       int32  `parquet:"y"`
	OtherID string `parquet:"other_id,dict,optional"`
}

// NewTickRow flattens a snapshot and the events of the tick that produced it.
func NewTickRow(gameID string, st *game.GameState, events []rules.CollisionEvent) TickRow {
	row := TickRow{
		GameID: gameID,
		Turn:   st.Turn,
		Time:   st.Time,
		Mode:   st.Mode,
		Width:  st.Width,
		Height: st.Height,
		Hex:    st.Hex,
		Winner: st.Winner,
		Over:   st.Over,
	}

	row.FoodX = make([]int32, len(st.Food))
	row.FoodY = make([]int32, len(st.Food))
	row.FoodPoints = make([]int32, len(st.Food))
	for i, f := range st.Food {
		row.FoodX[i] = f.Position.X
		row.FoodY[i] = f.Position.Y
		row.FoodPoints[i] = int32(f.Points)
	}

	row.Snakes = make([]ArchiveSnake, len(st.Snakes))
	for i, s := range st.Snakes {
		as := ArchiveSnake{
			ID:          s.Id,
			Alive:       s.Alive,
			Score:       int32(s.Score),
			Personality: s.Personality,
			Difficulty:  float32(s.Difficulty),
			Action:      s.Action,
			BodyX:       make([]int32, len(s.Body)),
			BodyY:       make([]int32, len(s.Body)),
		}
		for j, p := range s.Body {
			as.BodyX[j] = p.X
			as.BodyY[j] = p.Y
		}
		row.Snakes[i] = as
	}

	row.Events = make([]ArchiveEvent, len(events))
	for i, e := range events {
		row.Events[i] = ArchiveEvent{
			SnakeID: e.SnakeId,
			Kind:    e.Kind.String(),
			X:       e.Position.X,
			Y:       e.Position.Y,
			OtherID: e.OtherId,
		}
	}
	return row
}

// State rebuilds the snapshot a row was made from.
func (r TickRow) State() *game.GameState {
	st := &game.GameState{
		Width:  r.Width,
		Height: r.Height,
		Hex:    r.Hex,
		Mode:   r.Mode,
		Turn:   r.Turn,
		Time:   r.Time,
		Winner: r.Winner,
		Over:   r.Over,
	}
	for i := range r.FoodX {
		f := game.Food{Position: game.Point{X: r.FoodX[i], Y: r.FoodY[i]}}
		if i < len(r.FoodPoints) {
			f.Points = int(r.FoodPoints[i])
		}
		st.Food = append(st.Food, f)
	}
	for _, s := range r.Snakes {
		ss := game.SnakeState{
			Id:          s.ID,
			Alive:       s.Alive,
			Score:       int(s.Score),
			Personality: s.Personality,
			Difficulty:  float64(s.Difficulty),
			Action:      s.Action,
			Body:        make([]game.Point, len(s.BodyX)),
		}
		for j := range s.BodyX {
			ss.Body[j] = game.Point{X: s.BodyX[j], Y: s.BodyY[j]}
		}
		st.Snakes = append(st.Snakes, ss)
	}
	return st
}

// WriteTicksParquet writes rows to outPath via a temp file and rename.
func WriteTicksParquet(outPath string, rows []TickRow) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmpPath := outPath + ".tmp"
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", archiveSchema),
	); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write parquet: %w", err)
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename parquet: %w", err)
	}
	return nil
}

// WriteTicksBatchParquetAtomic writes a batch file under outDir, staging it in
// outDir/tmp so readers never observe a partial file. It returns the final path.
func WriteTicksBatchParquetAtomic(outDir string, rows []TickRow) (string, error) {
	tmpDir := filepath.Join(outDir, "tmp")
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return "", fmt.Errorf("create tmp dir: %w", err)
	}

	name := fmt.Sprintf("batch_%d.parquet", time.Now().UnixNano())
	finalPath := filepath.Join(outDir, name)
	if err := WriteTicksParquet(filepath.Join(tmpDir, name), rows); err != nil {
		return "", err
	}
	if err := os.Rename(filepath.Join(tmpDir, name), finalPath); err != nil {
		return "", fmt.Errorf("rename parquet: %w", err)
	}
	return finalPath, nil
}

// ReadTicksParquet loads every row from a file written by this package.
func ReadTicksParquet(path string) ([]TickRow, error) {
	rows, err := parquet.ReadFile[TickRow](path)
	if err != nil {
		return nil, fmt.Errorf("read parquet %s: %w", path, err)
	}
	return rows, nil
}
