package engine

import "math"

// EmptyCells returns the positions of all empty cells in row-major order
func EmptyCells(grid [][]int) []Position {
	var cells []Position
	for r, row := range grid {
		for c, v := range row {
			if v == 0 {
				cells = append(cells, Position{Row: r, Col: c})
			}
		}
	}
	return cells
}

// CountTiles counts the non-empty cells in the grid
func CountTiles(grid [][]int) int {
	count := 0
	for _, row := range grid {
		for _, v := range row {
			if v != 0 {
				count++
			}
		}
	}
	return count
}

// MaxTile returns the largest value on the grid, 0 for an empty grid
func MaxTile(grid [][]int) int {
	max := 0
	for _, row := range grid {
		for _, v := range row {
			if v > max {
				max = v
			}
		}
	}
	return max
}

// SumTiles returns the sum of all tile values
func SumTiles(grid [][]int) int {
	sum := 0
	for _, row := range grid {
		for _, v := range row {
			sum += v
		}
	}
	return sum
}

// TileCounts returns how many cells hold each non-zero value
func TileCounts(grid [][]int) map[int]int {
	counts := make(map[int]int)
	for _, row := range grid {
		for _, v := range row {
			if v != 0 {
				counts[v]++
			}
		}
	}
	return counts
}

// MaxReachableTile returns the largest tile a size x size board can ever
// hold: every cell filled with a descending chain ending in a spawned 4.
// It returns math.MaxInt when the value does not fit an int.
func MaxReachableTile(size int) int {
	exp := size*size + 1
	if exp >= 62 {
		return math.MaxInt
	}
	return 1 << exp
}

// Clone returns a deep copy of the state safe to hand to another goroutine
func (gs *GameState) Clone() *GameState {
	if gs == nil {
		return nil
	}
	out := *gs
	out.Grid = CloneGrid(gs.Grid)
	out.MoveHistory = make([]MoveHistoryEntry, len(gs.MoveHistory))
	copy(out.MoveHistory, gs.MoveHistory)
	out.CurrentMoves = make([]MoveHistoryEntry, len(gs.CurrentMoves))
	copy(out.CurrentMoves, gs.CurrentMoves)
	out.PossibleMoves = append([]string(nil), gs.PossibleMoves...)
	return &out
}
