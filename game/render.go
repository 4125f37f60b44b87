package game

import (
	"fmt"
	"strings"
)

// Render draws the state as text. Heads are the first letter of the
// snake id in upper case, bodies the same letter in lower case, food is '*'.
// Hex boards are drawn with each row shifted half a cell per step of r.
func Render(st *GameState, grid Grid) string {
	_, hex := grid.(HexGrid)
	_, height := grid.Size()
	place := func(p Point) (row, col int) {
		if hex {
			return int(p.Y), int(2*p.X + p.Y)
		}
		return int(height - 1 - p.Y), int(2 * p.X)
	}

	cells := grid.Cells()
	if len(cells) == 0 {
		return ""
	}
	minRow, minCol := place(cells[0])
	maxRow, maxCol := minRow, minCol
	for _, c := range cells {
		r, k := place(c)
		minRow, maxRow = min(minRow, r), max(maxRow, r)
		minCol, maxCol = min(minCol, k), max(maxCol, k)
	}

	canvas := make([][]rune, maxRow-minRow+1)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", maxCol-minCol+1))
	}
	set := func(p Point, ch rune) {
		r, k := place(p)
		canvas[r-minRow][k-minCol] = ch
	}

	for _, c := range cells {
		set(c, '.')
	}
	for _, f := range st.Food {
		set(f.Position, '*')
	}
	for _, s := range st.Snakes {
		if !s.Alive || len(s.Body) == 0 {
			continue
		}
		letter := snakeLetter(s.Id)
		for i := len(s.Body) - 1; i >= 0; i-- {
			ch := letter
			if i == 0 {
				ch = []rune(strings.ToUpper(string(letter)))[0]
			}
			set(s.Body[i], ch)
		}
	}

	var b strings.Builder
	for _, row := range canvas {
		b.WriteString(strings.TrimRight(string(row), " "))
		b.WriteString("\n")
	}
	return b.String()
}

// snakeLetter is 'p' for players and a letter derived from the agent number
// otherwise, so ai_0 is 'a', ai_1 is 'b' and so on. 'p' is skipped.
func snakeLetter(id string) rune {
	var n int
	if _, err := fmt.Sscanf(id, "ai_%d", &n); err == nil {
		letters := "abcdefghijklmnoqrstuvwxyz"
		return rune(letters[n%len(letters)])
	}
	if id == "" {
		return '?'
	}
	return []rune(strings.ToLower(id))[0]
}
