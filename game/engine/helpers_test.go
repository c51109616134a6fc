package engine

// fixedSource always picks the first (or last) empty cell and a fixed value.
type fixedSource struct {
	pickLast bool
	four     bool
}

func (s fixedSource) IntN(n int) int {
	if s.pickLast {
		return n - 1
	}
	return 0
}

func (s fixedSource) Coin() bool {
	return s.four
}

// scriptedSource replays a list of picks and coin flips, then falls back to 0/false.
type scriptedSource struct {
	picks []int
	coins []bool
}

func (s *scriptedSource) IntN(n int) int {
	if len(s.picks) == 0 {
		return 0
	}
	p := s.picks[0]
	s.picks = s.picks[1:]
	return p % n
}

func (s *scriptedSource) Coin() bool {
	if len(s.coins) == 0 {
		return false
	}
	c := s.coins[0]
	s.coins = s.coins[1:]
	return c
}

func newTestState(grid [][]int) *GameState {
	return &GameState{
		Grid:    grid,
		Size:    len(grid),
		WinTile: DefaultWinTile,
	}
}

func createTestConfig() *GameConfig {
	return &GameConfig{
		Name:        "Engine Test Config",
		Description: "Configuration for engine tests",
		GridSize:    4,
		WinTile:     2048,
		Messages: Messages{
			Welcome:  "Welcome to engine test!",
			Victory:  "Reached %d!",
			GameOver: "Game over with %d points",
			NoChange: "Nothing moved",
			Moved:    "Score: %d",
		},
	}
}

// checkerboard returns a full grid with no two equal neighbours
func checkerboard(size int) [][]int {
	grid := NewGrid(size)
	for r := 0; r < size; r++ {
		for c := 0; c < size; c++ {
			if (r+c)%2 == 0 {
				grid[r][c] = 2
			} else {
				grid[r][c] = 4
			}
		}
	}
	return grid
}
