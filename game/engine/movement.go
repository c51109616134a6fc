package engine

import (
	"time"
)

// MoveOutcome describes what a single directional move did to the board
type MoveOutcome struct {
	Direction   Direction `json:"direction"`
	Changed     bool      `json:"changed"`
	ScoreGained int       `json:"score_gained"`
	Spawned     *Tile     `json:"spawned,omitempty"`
}

// AddNewTile places a 2 or a 4 (equal odds) on a uniformly chosen empty
// cell. On a full board it does nothing and reports false.
func (gs *GameState) AddNewTile(rnd RandomSource) (Tile, bool) {
	empty := EmptyCells(gs.Grid)
	if len(empty) == 0 {
		return Tile{}, false
	}

	pos := empty[rnd.IntN(len(empty))]
	value := 2
	if rnd.Coin() {
		value = 4
	}
	gs.Grid[pos.Row][pos.Col] = value

	return Tile{Row: pos.Row, Col: pos.Col, Value: value}, true
}

// Apply shifts the board in direction d. When the board changes the merge
// score is added and exactly one new tile is spawned; otherwise the state
// is left untouched.
func (gs *GameState) Apply(d Direction, rnd RandomSource) MoveOutcome {
	outcome := MoveOutcome{Direction: d}

	grid, changed, gained := Slide(gs.Grid, d)
	if !changed {
		return outcome
	}

	gs.Grid = grid
	gs.Score += gained
	outcome.Changed = true
	outcome.ScoreGained = gained

	if tile, ok := gs.AddNewTile(rnd); ok {
		outcome.Spawned = &tile
	}
	return outcome
}

// MoveLeft slides every row towards column 0
func (gs *GameState) MoveLeft(rnd RandomSource) bool {
	return gs.Apply(Left, rnd).Changed
}

// MoveRight slides every row towards the last column
func (gs *GameState) MoveRight(rnd RandomSource) bool {
	return gs.Apply(Right, rnd).Changed
}

// MoveUp slides every column towards row 0
func (gs *GameState) MoveUp(rnd RandomSource) bool {
	return gs.Apply(Up, rnd).Changed
}

// MoveDown slides every column towards the last row
func (gs *GameState) MoveDown(rnd RandomSource) bool {
	return gs.Apply(Down, rnd).Changed
}

// CanMove reports whether any move could still change the board: an empty
// cell exists or two horizontally or vertically adjacent cells are equal.
func (gs *GameState) CanMove() bool {
	n := len(gs.Grid)
	for r := 0; r < n; r++ {
		for c := 0; c < len(gs.Grid[r]); c++ {
			v := gs.Grid[r][c]
			if v == 0 {
				return true
			}
			if r < n-1 && c < len(gs.Grid[r+1]) && gs.Grid[r+1][c] == v {
				return true
			}
			if c < len(gs.Grid[r])-1 && gs.Grid[r][c+1] == v {
				return true
			}
		}
	}
	return false
}

// IsWin reports whether any cell currently holds the win tile
func (gs *GameState) IsWin() bool {
	target := gs.WinTile
	if target <= 0 {
		target = DefaultWinTile
	}
	for _, row := range gs.Grid {
		for _, v := range row {
			if v == target {
				return true
			}
		}
	}
	return false
}

// AddMoveToHistory adds a move to the game's move log
func (gs *GameState) AddMoveToHistory(action string, outcome MoveOutcome) {
	entry := MoveHistoryEntry{
		Action:      action,
		Changed:     outcome.Changed,
		ScoreGained: outcome.ScoreGained,
		Score:       gs.Score,
		Spawned:     outcome.Spawned,
		MaxTile:     gs.MaxTile,
		Timestamp:   time.Now().Unix(),
		MoveNumber:  gs.TotalMoves + 1,
	}
	// Append to cumulative history (never cleared by reset) and increment total
	gs.MoveHistory = append(gs.MoveHistory, entry)
	gs.TotalMoves++

	// Append to current segment history and increment its counter
	gs.CurrentMoves = append(gs.CurrentMoves, entry)
	gs.CurrentMovesCount++
}
