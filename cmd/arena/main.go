package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/brensch/snekarena/behavior"
	"github.com/brensch/snekarena/game"
	"github.com/brensch/snekarena/logging"
	"github.com/brensch/snekarena/rules"
	"github.com/brensch/snekarena/spectate"
	"github.com/brensch/snekarena/store"
)

const playerID = "player"

type options struct {
	mode        string
	width       int
	height      int
	hex         bool
	agents      int
	difficulty  float64
	personality string
	seed        int64
	tick        time.Duration
	dt          float64
	timeLimit   float64
	maxTurns    int
	minFood     int
	maxFood     int
	spawnChance int
	player      bool
	tui         bool
	outDir      string
	leaderboard string
	listen      string
	logLevel    string
	logFile     string
}

func main() {
	var o options
	flag.StringVar(&o.mode, "mode", getEnvOrDefault("MODE", "survival"), "Game mode: survival, free_for_all, cooperative, score_race")
	flag.IntVar(&o.width, "width", getEnvIntOrDefault("WIDTH", 20), "Board width (hex: diameter in q)")
	flag.IntVar(&o.height, "height", getEnvIntOrDefault("HEIGHT", 20), "Board height (hex: diameter in r)")
	flag.BoolVar(&o.hex, "hex", getEnvBoolOrDefault("HEX", false), "Play on a hex board")
	flag.IntVar(&o.agents, "agents", getEnvIntOrDefault("AGENTS", 4), "Number of AI snakes")
	flag.Float64Var(&o.difficulty, "difficulty", getEnvFloatOrDefault("DIFFICULTY", 0.7), "AI difficulty in [0.1, 1.0]")
	flag.StringVar(&o.personality, "personality", getEnvOrDefault("PERSONALITY", ""), "Force every agent to one personality (default: random per agent)")
	flag.Int64Var(&o.seed, "seed", int64(getEnvIntOrDefault("SEED", 0)), "RNG seed; 0 picks one from the clock")
	flag.DurationVar(&o.tick, "tick", getEnvDurationOrDefault("TICK", 100*time.Millisecond), "Wall-clock time between ticks; 0 runs headless games flat out")
	flag.Float64Var(&o.dt, "dt", getEnvFloatOrDefault("DT", 0.1), "Game seconds advanced per tick")
	flag.Float64Var(&o.timeLimit, "time-limit", getEnvFloatOrDefault("TIME_LIMIT", rules.DefaultTimeLimit), "Score race length in game seconds")
	flag.IntVar(&o.maxTurns, "max-turns", getEnvIntOrDefault("MAX_TURNS", 5000), "Stop after this many turns (0 = no cap)")
	flag.IntVar(&o.minFood, "min-food", getEnvIntOrDefault("MIN_FOOD", game.DefaultFoodSettings.MinimumFood), "Food kept on the board at all times")
	flag.IntVar(&o.maxFood, "max-food", getEnvIntOrDefault("MAX_FOOD", game.DefaultFoodSettings.MaxFood), "Food cap (0 = uncapped)")
	flag.IntVar(&o.spawnChance, "food-chance", getEnvIntOrDefault("FOOD_CHANCE", game.DefaultFoodSettings.SpawnChance), "Percent chance of extra food each tick")
	flag.BoolVar(&o.player, "player", getEnvBoolOrDefault("PLAYER", false), "Add a keyboard-controlled snake (needs -tui)")
	flag.BoolVar(&o.tui, "tui", getEnvBoolOrDefault("TUI", false), "Render the game in the terminal")
	flag.StringVar(&o.outDir, "out-dir", getEnvOrDefault("OUT_DIR", ""), "Directory for parquet replay archives (empty disables)")
	flag.StringVar(&o.leaderboard, "leaderboard", getEnvOrDefault("LEADERBOARD", ""), "sqlite leaderboard path (empty disables)")
	flag.StringVar(&o.listen, "listen", getEnvOrDefault("LISTEN", ""), "Serve spectators on this address, e.g. :8080 (empty disables)")
	flag.StringVar(&o.logLevel, "log-level", getEnvOrDefault("LOG_LEVEL", "info"), "debug, info, warn or error")
	flag.StringVar(&o.logFile, "log-file", getEnvOrDefault("LOG_FILE", ""), "Write structured logs here instead of stderr")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, o); err != nil {
		log.Fatalf("arena: %v", err)
	}
}

func run(ctx context.Context, o options) error {
	mode, err := rules.ParseMode(o.mode)
	if err != nil {
		return err
	}
	level, err := logging.ParseLevel(o.logLevel)
	if err != nil {
		return err
	}
	if o.agents < 0 {
		return errors.New("-agents must not be negative")
	}
	if o.player && !o.tui {
		return errors.New("-player needs -tui")
	}

	var logOut io.Writer = os.Stderr
	switch {
	case o.logFile != "":
		f, err := os.OpenFile(o.logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	case o.tui:
		// stderr shares the terminal with the board.
		logOut = io.Discard
	}
	logger := logging.New(logOut, level, o.logFile != "")

	seed := o.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	var grid game.Grid = game.SquareGrid{Width: int32(o.width), Height: int32(o.height)}
	if o.hex {
		grid = game.HexGrid{Width: int32(o.width), Height: int32(o.height)}
	}

	gameID := uuid.New().String()
	cfg := rules.Config{
		Mode:      mode,
		Grid:      grid,
		TimeLimit: o.timeLimit,
		Seed:      seed,
		Logger:    logger.With("game_id", gameID),
		Food: &game.FoodSettings{
			MinimumFood: o.minFood,
			MaxFood:     o.maxFood,
			SpawnChance: o.spawnChance,
			Points:      game.DefaultFoodSettings.Points,
			Growth:      game.DefaultFoodSettings.Growth,
		},
	}

	g, err := buildGame(cfg, o)
	if err != nil {
		return err
	}

	log.Printf("Starting arena %s", gameID)
	log.Printf("  Mode: %s", mode)
	log.Printf("  Board: %dx%d hex=%v", o.width, o.height, o.hex)
	log.Printf("  Agents: %d (difficulty %.2f)", o.agents, o.difficulty)
	log.Printf("  Seed: %d", seed)

	sess := newSession(gameID, g, o.dt, o.maxTurns)

	if o.outDir != "" {
		w, err := store.NewArchiveWriter(o.outDir)
		if err != nil {
			return err
		}
		sess.archive = w
		log.Printf("  Archive: %s", w.OutPath())
	}

	if o.leaderboard != "" {
		lb := store.NewLeaderboard(o.leaderboard)
		if err := lb.Init(ctx); err != nil {
			return fmt.Errorf("init leaderboard: %w", err)
		}
		defer lb.Close()
		sess.board = lb
		log.Printf("  Leaderboard: %s", o.leaderboard)
	}

	if o.listen != "" {
		hub := spectate.NewHub(logger)
		defer hub.Close()
		sess.hub = hub

		mux := http.NewServeMux()
		spectate.NewServer(hub, sess.board).RegisterRoutes(mux)
		srv := &http.Server{Addr: o.listen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("spectator server: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		log.Printf("  Spectators: ws://%s/ws", o.listen)
	}

	sess.start()

	if o.tui {
		pid := ""
		if o.player {
			pid = playerID
		}
		p := tea.NewProgram(initialModel(sess, pid, o.tick), tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fmt.Errorf("tui: %w", err)
		}
	} else {
		sess.run(ctx, o.tick)
	}

	// A cancelled ctx must not stop the final flush.
	if err := sess.finish(context.WithoutCancel(ctx)); err != nil {
		return err
	}
	logger.Info("game finished", "game_id", gameID, "turns", g.Turn(), "winner", g.Winner(), "draw", g.IsDraw())
	fmt.Println(sess.summary())
	return nil
}

func buildGame(cfg rules.Config, o options) (*rules.Game, error) {
	var g *rules.Game
	if o.personality == "" {
		g = rules.NewForMode(cfg.Mode, cfg, o.agents, o.difficulty)
	} else {
		p, err := behavior.ParsePersonality(o.personality)
		if err != nil {
			return nil, err
		}
		g = rules.New(cfg)
		for i, start := range rules.SpacedStarts(g.Grid(), o.agents+1)[:o.agents] {
			g.AddAISnake(rules.AgentID(i), start, p, o.difficulty)
		}
		g.SeedFood()
	}
	if o.player {
		if !g.AddPlayerSnake(playerID, rules.PlayerStart(g, o.agents), rules.DefaultHeading(g.Grid())) {
			return nil, errors.New("no room for the player snake")
		}
	}
	if len(g.ActiveSnakes()) == 0 {
		return nil, errors.New("no snakes could be placed; try a larger board")
	}
	return g, nil
}
