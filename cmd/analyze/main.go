// Command analyze prints quick, human-readable heuristics about the presets
// in the project's configs directory: board dimensions, the largest tile the
// board can hold, and rough effort estimates for reaching the win tile.
package main

import (
	"context"
	"fmt"
	"math/bits"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/slide2048/game/engine"
)

// Analysis holds the derived numbers for one preset
type Analysis struct {
	Name     string
	GridSize int
	Cells    int
	WinTile  int
	MaxTile  int

	// Reachable is false when the win tile exceeds MaxTile
	Reachable bool
	// Headroom is how many doublings past the win tile the board allows
	Headroom int
	// MergesFromTwos is the number of merges needed to build the win tile from 2s
	MergesFromTwos int
	// MinMoves assumes every spawn is a 4, starting from two 4s
	MinMoves int
	// ExpectedMoves assumes the average spawn value of 3
	ExpectedMoves int
	// ChainCells is the number of cells a 2,4,...,win chain occupies
	ChainCells int
}

// analyze derives the heuristics for a config with a valid grid size and a
// power-of-two win tile
func analyze(config *engine.GameConfig) Analysis {
	a := Analysis{
		Name:     config.Name,
		GridSize: config.GridSize,
		Cells:    config.GridSize * config.GridSize,
		WinTile:  config.WinTile,
		MaxTile:  engine.MaxReachableTile(config.GridSize),
	}
	a.Reachable = a.WinTile <= a.MaxTile
	if a.Reachable {
		a.Headroom = log2(a.MaxTile) - log2(a.WinTile)
	}
	a.MergesFromTwos = a.WinTile/2 - 1

	// Merges preserve the tile sum, so it grows only through spawns
	a.MinMoves = ceilDiv(max(a.WinTile-2*4, 0), 4)
	a.ExpectedMoves = ceilDiv(max(a.WinTile-2*3, 0), 3)
	a.ChainCells = log2(a.WinTile)
	return a
}

func log2(v int) int {
	return bits.Len(uint(v)) - 1
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// analyzeConfig loads one preset and prints its analysis. A preset whose
// win tile is out of reach is still analyzed; its validation error is
// returned afterwards.
func analyzeConfig(path string) (Analysis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Analysis{}, err
	}
	config, err := engine.ParseGameConfig(data, filepath.Ext(path))
	if err != nil {
		return Analysis{}, err
	}

	invalid := engine.ValidateGameConfig(config)
	if config.GridSize < engine.MinGridSize || config.GridSize > engine.MaxGridSize ||
		config.WinTile < engine.MinWinTile || !engine.IsPowerOfTwo(config.WinTile) {
		return Analysis{}, invalid
	}

	a := analyze(config)
	fmt.Printf("Name: %s\n", a.Name)
	if config.Description != "" {
		fmt.Printf("Description: %s\n", config.Description)
	}
	fmt.Printf("Grid Size: %d x %d (%d cells)\n", a.GridSize, a.GridSize, a.Cells)
	fmt.Printf("Win Tile: %d\n", a.WinTile)
	fmt.Printf("Largest Possible Tile: %d\n", a.MaxTile)

	if !a.Reachable {
		fmt.Printf("⚠️  CRITICAL: win tile %d can never be built on this board\n", a.WinTile)
		return a, invalid
	}

	fmt.Printf("✅ Win tile is reachable with %d doublings to spare\n", a.Headroom)
	fmt.Printf("Merges needed from 2s: %d\n", a.MergesFromTwos)
	fmt.Printf("Moves needed: at least %d, about %d on average spawns\n", a.MinMoves, a.ExpectedMoves)
	if a.ChainCells > a.Cells/2 {
		fmt.Printf("⚠️  WARNING: a full %d-tile chain covers more than half of the %d cells\n", a.ChainCells, a.Cells)
	}
	return a, invalid
}

// presetFiles lists the preset files in dir, sorted by name
func presetFiles(dir string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.json", "*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

func run(dir string) error {
	files, err := presetFiles(dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no presets found in %s", dir)
	}

	var failed []string
	for _, file := range files {
		fmt.Printf("\n=== Analyzing %s ===\n", filepath.Base(file))
		if _, err := analyzeConfig(file); err != nil {
			fmt.Printf("Error: %v\n", err)
			failed = append(failed, filepath.Base(file))
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("could not analyze %s", strings.Join(failed, ", "))
	}
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:      "analyze",
		Usage:     "print heuristics for the game presets",
		ArgsUsage: "[configs-dir]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir := cmd.Args().First()
			if dir == "" {
				dir = "configs"
			}
			return run(dir)
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
