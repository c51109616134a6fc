package engine

// Compress returns the non-zero values of row in their original order,
// left-justified and padded with zeros to len(row). The input is not modified.
func Compress(row []int) []int {
	out := make([]int, len(row))
	i := 0
	for _, v := range row {
		if v != 0 {
			out[i] = v
			i++
		}
	}
	return out
}

// Merge combines equal non-zero neighbours of row from left to right and
// returns the compressed result together with the score gained. The left
// cell of a pair doubles and the right one is cleared, so a cell takes part
// in at most one merge. The input is not modified.
func Merge(row []int) ([]int, int) {
	out := make([]int, len(row))
	copy(out, row)

	gained := 0
	for i := 0; i < len(out)-1; i++ {
		if out[i] != 0 && out[i] == out[i+1] {
			out[i] *= 2
			gained += out[i]
			out[i+1] = 0
		}
	}

	return Compress(out), gained
}

// SlideRow applies a full left move to a single row: compress, then merge.
func SlideRow(row []int) ([]int, int) {
	return Merge(Compress(row))
}

func rowsEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
