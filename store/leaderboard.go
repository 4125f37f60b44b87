package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/brensch/snekarena/rules"
)

// Leaderboard keeps per-game results in sqlite and aggregates them per snake.
type Leaderboard struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

// Result is one snake's outcome in one game.
type Result struct {
	GameID   string
	SnakeID  string
	Mode     string
	Score    int
	Winner   bool
	PlayedAt time.Time
}

// Ranking is a snake's record across every stored game.
type Ranking struct {
	SnakeID   string
	Games     int
	Wins      int
	BestScore int
	Total     int
}

func NewLeaderboard(path string) *Leaderboard {
	return &Leaderboard{path: path}
}

func (l *Leaderboard) Init(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.path == "" {
		return errors.New("sqlite path is required")
	}
	if l.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", l.path)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	// One connection so ":memory:" databases are shared across calls.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping sqlite: %w", err)
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	l.db = db
	return nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS results (
			game_id   TEXT NOT NULL,
			snake_id  TEXT NOT NULL,
			mode      TEXT NOT NULL,
			score     INTEGER NOT NULL,
			winner    INTEGER NOT NULL,
			played_at INTEGER NOT NULL,
			PRIMARY KEY (game_id, snake_id)
		)
	`)
	if err != nil {
		return fmt.Errorf("create results table: %w", err)
	}
	return nil
}

func (l *Leaderboard) getDB() (*sql.DB, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.db == nil {
		return nil, errors.New("leaderboard is not initialized")
	}
	return l.db, nil
}

// RecordGame stores every standing of a finished game. Re-recording the same
// game id overwrites the earlier rows.
func (l *Leaderboard) RecordGame(ctx context.Context, gameID, mode, winner string, standings []rules.Standing, playedAt time.Time) error {
	db, err := l.getDB()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, s := range standings {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO results (game_id, snake_id, mode, score, winner, played_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(game_id, snake_id) DO UPDATE SET
				mode = excluded.mode,
				score = excluded.score,
				winner = excluded.winner,
				played_at = excluded.played_at
		`, gameID, s.Id, mode, s.Score, boolToInt(s.Id == winner), playedAt.UnixMilli())
		if err != nil {
			return fmt.Errorf("insert result %s/%s: %w", gameID, s.Id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GameResults returns a game's rows, best score first.
func (l *Leaderboard) GameResults(ctx context.Context, gameID string) ([]Result, error) {
	db, err := l.getDB()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT game_id, snake_id, mode, score, winner, played_at
		FROM results WHERE game_id = ?
		ORDER BY score DESC, snake_id ASC
	`, gameID)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var out []Result
	for rows.Next() {
		var (
			r      Result
			winner int
			played int64
		)
		if err := rows.Scan(&r.GameID, &r.SnakeID, &r.Mode, &r.Score, &winner, &played); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.Winner = winner != 0
		r.PlayedAt = time.UnixMilli(played)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Top ranks snakes by wins, then best score, then id.
func (l *Leaderboard) Top(ctx context.Context, limit int) ([]Ranking, error) {
	db, err := l.getDB()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}
	rows, err := db.QueryContext(ctx, `
		SELECT snake_id, COUNT(*), SUM(winner), MAX(score), SUM(score)
		FROM results
		GROUP BY snake_id
		ORDER BY SUM(winner) DESC, MAX(score) DESC, snake_id ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query rankings: %w", err)
	}
	defer rows.Close()

	var out []Ranking
	for rows.Next() {
		var r Ranking
		if err := rows.Scan(&r.SnakeID, &r.Games, &r.Wins, &r.BestScore, &r.Total); err != nil {
			return nil, fmt.Errorf("scan ranking: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// BestScore returns the highest score a snake has recorded.
func (l *Leaderboard) BestScore(ctx context.Context, snakeID string) (int, bool, error) {
	db, err := l.getDB()
	if err != nil {
		return 0, false, err
	}
	var best sql.NullInt64
	err = db.QueryRowContext(ctx, `SELECT MAX(score) FROM results WHERE snake_id = ?`, snakeID).Scan(&best)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	if !best.Valid {
		return 0, false, nil
	}
	return int(best.Int64), true, nil
}

func (l *Leaderboard) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.db == nil {
		return nil
	}
	err := l.db.Close()
	l.db = nil
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
