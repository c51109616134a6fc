// Package engine provides the core game logic for the 2048 sliding-tile game.
//
// The engine package implements the game mechanics including:
//   - Row compression and merging with score accounting
//   - Four-direction moves built on a single left move via board re-orientation
//   - Random tile spawning through an injectable RandomSource
//   - Win and terminal-state detection
//   - Configuration loading and validation
//
// Core Types:
//
// The Engine interface defines the main contract for game operations,
// implemented by GameEngine. GameState represents the current board, score
// and move log, while GameConfig defines the board size, win tile and
// messages loaded from JSON or YAML files.
//
// Usage:
//
//	config, err := engine.LoadGameConfig("configs/classic.json")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine, err := engine.NewEngine(config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Slide the board
//	changed := gameEngine.Move("left")
//	state := gameEngine.GetState()
//
// Game Rules:
//
// Every move slides all tiles as far as possible in one direction. Two equal
// neighbouring tiles merge into one tile of double value, and the merged
// value is added to the score. A tile takes part in at most one merge per
// move. When a move changes the board a single new tile (2 or 4) appears on
// a random empty cell. The game is won once a tile reaches the configured
// win tile and is over when no move can change the board.
package engine
