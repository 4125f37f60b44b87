package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/brensch/snekarena/game"
	"github.com/brensch/snekarena/store"
)

func main() {
	path := flag.String("file", "", "Arena parquet archive to replay")
	gameID := flag.String("game", "", "Only show this game id (default: every game in the file)")
	board := flag.Bool("board", false, "Draw the board for every turn")
	from := flag.Int("from", 0, "First turn to show")
	to := flag.Int("to", -1, "Last turn to show (-1 = until the end)")
	flag.Parse()

	if *path == "" {
		log.Fatalf("-file is required")
	}

	rows, err := store.ReadTicksParquet(*path)
	if err != nil {
		log.Fatalf("Failed to read archive: %v", err)
	}
	log.Printf("Loaded %d ticks from %s", len(rows), *path)

	shown := 0
	lastGame := ""
	for _, row := range rows {
		if *gameID != "" && row.GameID != *gameID {
			continue
		}
		if int(row.Turn) < *from || (*to >= 0 && int(row.Turn) > *to) {
			continue
		}
		if row.GameID != lastGame {
			lastGame = row.GameID
			fmt.Println()
			fmt.Printf("Game %s  mode=%s  board=%dx%d hex=%v\n", row.GameID, row.Mode, row.Width, row.Height, row.Hex)
		}
		fmt.Println(describeTick(row))
		if *board {
			st := row.State()
			fmt.Print(game.Render(st, gridFor(row)))
		}
		if row.Over {
			if row.Winner != "" {
				fmt.Printf("  Game over, winner %s\n", row.Winner)
			} else {
				fmt.Printf("  Game over, no winner\n")
			}
		}
		shown++
	}
	if shown == 0 {
		log.Printf("No ticks matched")
	}
}

func gridFor(row store.TickRow) game.Grid {
	if row.Hex {
		return game.HexGrid{Width: row.Width, Height: row.Height}
	}
	return game.SquareGrid{Width: row.Width, Height: row.Height}
}

// describeTick is one line per turn: who is alive, what each agent chose and
// anything that happened.
func describeTick(row store.TickRow) string {
	alive := 0
	var actions []string
	for _, s := range row.Snakes {
		if !s.Alive {
			continue
		}
		alive++
		action := s.Action
		if action == "" {
			action = "-"
		}
		actions = append(actions, fmt.Sprintf("%s→%s(%d)", s.ID, action, s.Score))
	}
	line := fmt.Sprintf("  Turn %3d | t=%6.2f | %d alive | %s", row.Turn, row.Time, alive, strings.Join(actions, ", "))
	for _, e := range row.Events {
		line += fmt.Sprintf("\n      %s %s at (%d,%d)", e.SnakeID, e.Kind, e.X, e.Y)
		if e.OtherID != "" {
			line += " with " + e.OtherID
		}
	}
	return line
}
