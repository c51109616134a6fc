package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// NewGrid returns an empty size x size grid
func NewGrid(size int) [][]int {
	grid := make([][]int, size)
	for i := range grid {
		grid[i] = make([]int, size)
	}
	return grid
}

// CloneGrid returns a deep copy of grid
func CloneGrid(grid [][]int) [][]int {
	out := make([][]int, len(grid))
	for i, row := range grid {
		out[i] = make([]int, len(row))
		copy(out[i], row)
	}
	return out
}

// GridsEqual reports whether two grids hold the same values
func GridsEqual(a, b [][]int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !rowsEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Transpose returns a new grid whose rows are the columns of grid
func Transpose(grid [][]int) [][]int {
	n := len(grid)
	out := NewGrid(n)
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			out[c][r] = grid[r][c]
		}
	}
	return out
}

// ReverseRows returns a new grid with every row reversed (horizontal mirror)
func ReverseRows(grid [][]int) [][]int {
	out := make([][]int, len(grid))
	for r, row := range grid {
		n := len(row)
		out[r] = make([]int, n)
		for c, v := range row {
			out[r][n-1-c] = v
		}
	}
	return out
}

// FlipVertical returns a new grid with the row order reversed (vertical mirror)
func FlipVertical(grid [][]int) [][]int {
	n := len(grid)
	out := make([][]int, n)
	for r, row := range grid {
		out[n-1-r] = make([]int, len(row))
		copy(out[n-1-r], row)
	}
	return out
}

// Slide applies a move in direction d to a copy of grid without spawning a
// tile. It returns the new grid, whether any cell changed and the score
// gained by merges. Every direction is reduced to a left move: right mirrors
// the rows, up transposes, and down flips vertically before transposing.
func Slide(grid [][]int, d Direction) ([][]int, bool, int) {
	switch d {
	case Left:
		return slideLeft(grid)
	case Right:
		out, changed, gained := slideLeft(ReverseRows(grid))
		return ReverseRows(out), changed, gained
	case Up:
		out, changed, gained := slideLeft(Transpose(grid))
		return Transpose(out), changed, gained
	case Down:
		out, changed, gained := slideLeft(Transpose(FlipVertical(grid)))
		return FlipVertical(Transpose(out)), changed, gained
	}
	return CloneGrid(grid), false, 0
}

func slideLeft(grid [][]int) ([][]int, bool, int) {
	out := make([][]int, len(grid))
	changed := false
	gained := 0

	for r, row := range grid {
		slid, g := SlideRow(row)
		if !rowsEqual(slid, row) {
			changed = true
		}
		out[r] = slid
		gained += g
	}

	return out, changed, gained
}

// IsPowerOfTwo reports whether v is a power of two >= 2
func IsPowerOfTwo(v int) bool {
	return v >= 2 && v&(v-1) == 0
}

// ValidateGrid checks that grid is size x size and holds only empty cells or powers of two
func ValidateGrid(grid [][]int, size int) error {
	if len(grid) != size {
		return fmt.Errorf("grid must have %d rows, got %d", size, len(grid))
	}
	for r, row := range grid {
		if len(row) != size {
			return fmt.Errorf("grid row %d must have %d cells, got %d", r, size, len(row))
		}
		for c, v := range row {
			if v != 0 && !IsPowerOfTwo(v) {
				return fmt.Errorf("grid cell (%d,%d) holds %d, want 0 or a power of two >= 2", r, c, v)
			}
		}
	}
	return nil
}

// RenderGrid formats grid as right-aligned columns, "." for empty cells
func RenderGrid(grid [][]int) string {
	width := 1
	for _, row := range grid {
		for _, v := range row {
			if w := len(strconv.Itoa(v)); w > width {
				width = w
			}
		}
	}

	var b strings.Builder
	for _, row := range grid {
		for c, v := range row {
			if c > 0 {
				b.WriteByte(' ')
			}
			cell := "."
			if v != 0 {
				cell = strconv.Itoa(v)
			}
			b.WriteString(strings.Repeat(" ", width-len(cell)))
			b.WriteString(cell)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
