package engine

import (
	"errors"
	"fmt"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Game state management
	GetState() *GameState
	SetState(state *GameState) error
	Reset() *GameState
	IsGameOver() bool
	IsWin() bool
	CanMove() bool
	GetScore() int
	GetGrid() [][]int
	GetMaxTile() int

	// Movement operations
	Move(direction string) bool
	MoveDirection(d Direction) MoveOutcome
	MoveUp() bool
	MoveDown() bool
	MoveLeft() bool
	MoveRight() bool
	GetPossibleMoves() []string

	// Configuration
	GetConfig() *GameConfig
	SetConfig(config *GameConfig) error

	// History
	GetMoveHistory() []MoveHistoryEntry
	GetLastMove() *MoveHistoryEntry
}

// GameEngine implements the Engine interface. It is not safe for concurrent
// use; callers that share an engine must serialise access.
type GameEngine struct {
	state  *GameState
	config *GameConfig
	rnd    RandomSource
}

// Option configures a GameEngine
type Option func(*GameEngine)

// WithRandomSource sets the source used to place new tiles
func WithRandomSource(rnd RandomSource) Option {
	return func(e *GameEngine) {
		if rnd != nil {
			e.rnd = rnd
		}
	}
}

// WithSeed makes tile placement reproducible for the given seed
func WithSeed(seed uint64) Option {
	return WithRandomSource(NewRandomSource(seed))
}

// NewEngine creates a new game engine with the provided configuration
func NewEngine(config *GameConfig, opts ...Option) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	engine := &GameEngine{config: config}
	for _, opt := range opts {
		opt(engine)
	}
	if engine.rnd == nil {
		engine.rnd = NewSecureRandomSource()
	}
	engine.state = InitGameStateFromConfig(config, engine.rnd)

	return engine, nil
}

// NewEngineWithDefaults creates a new game engine with default configuration
func NewEngineWithDefaults(opts ...Option) *GameEngine {
	engine, err := NewEngine(DefaultGameConfig(), opts...)
	if err != nil {
		panic(fmt.Sprintf("engine: default config is invalid: %v", err))
	}
	return engine
}

// GetState returns the current game state
func (e *GameEngine) GetState() *GameState {
	e.state.PossibleMoves = e.GetPossibleMoves()
	return e.state
}

// SetState replaces the game state. The grid must match the configured size
// and hold only powers of two; score, win and game-over flags are recomputed
// from the grid where they cannot be trusted.
func (e *GameEngine) SetState(state *GameState) error {
	if state == nil {
		return errors.New("state cannot be nil")
	}
	if err := ValidateGrid(state.Grid, e.config.GridSize); err != nil {
		return fmt.Errorf("invalid state: %w", err)
	}
	if state.Score < 0 {
		return fmt.Errorf("invalid state: negative score %d", state.Score)
	}

	state.Size = e.config.GridSize
	state.WinTile = e.config.WinTile
	state.ConfigName = e.config.Name
	state.MaxTile = MaxTile(state.Grid)
	state.Won = state.Won || state.IsWin()
	state.GameOver = !state.CanMove()
	if state.MoveHistory == nil {
		state.MoveHistory = []MoveHistoryEntry{}
	}
	if state.CurrentMoves == nil {
		state.CurrentMoves = []MoveHistoryEntry{}
	}

	e.state = state
	return nil
}

// Reset clears the board, zeroes the score and places the two seed tiles
func (e *GameEngine) Reset() *GameState {
	// Preserve cumulative history and totals across resets
	prevHistory := e.state.MoveHistory
	prevTotal := e.state.TotalMoves

	e.state = InitGameStateFromConfig(e.config, e.rnd)

	// Restore cumulative history and totals; clear only the current segment
	e.state.MoveHistory = prevHistory
	e.state.TotalMoves = prevTotal
	e.state.CurrentMoves = []MoveHistoryEntry{}
	e.state.CurrentMovesCount = 0

	return e.state
}

// IsGameOver returns whether no move can change the board
func (e *GameEngine) IsGameOver() bool {
	return e.state.GameOver
}

// IsWin returns whether a tile has reached the win tile
func (e *GameEngine) IsWin() bool {
	return e.state.IsWin()
}

// CanMove returns whether any move is still possible
func (e *GameEngine) CanMove() bool {
	return e.state.CanMove()
}

// GetScore returns the current score
func (e *GameEngine) GetScore() int {
	return e.state.Score
}

// GetGrid returns a copy of the grid for rendering
func (e *GameEngine) GetGrid() [][]int {
	return CloneGrid(e.state.Grid)
}

// GetMaxTile returns the largest tile on the board
func (e *GameEngine) GetMaxTile() int {
	return MaxTile(e.state.Grid)
}

// Move shifts the board in the named direction and reports whether it changed
func (e *GameEngine) Move(direction string) bool {
	d, err := ParseDirection(direction)
	if err != nil {
		e.state.Message = fmt.Sprintf("Unknown direction %q, use up, down, left or right", direction)
		e.state.AddMoveToHistory(direction, MoveOutcome{})
		return false
	}

	outcome := e.apply(d)
	e.state.AddMoveToHistory(d.String(), outcome)
	return outcome.Changed
}

// MoveDirection shifts the board in direction d and returns the full outcome
func (e *GameEngine) MoveDirection(d Direction) MoveOutcome {
	outcome := e.apply(d)
	e.state.AddMoveToHistory(d.String(), outcome)
	return outcome
}

// MoveUp shifts all columns towards the top row
func (e *GameEngine) MoveUp() bool { return e.MoveDirection(Up).Changed }

// MoveDown shifts all columns towards the bottom row
func (e *GameEngine) MoveDown() bool { return e.MoveDirection(Down).Changed }

// MoveLeft shifts all rows towards the first column
func (e *GameEngine) MoveLeft() bool { return e.MoveDirection(Left).Changed }

// MoveRight shifts all rows towards the last column
func (e *GameEngine) MoveRight() bool { return e.MoveDirection(Right).Changed }

func (e *GameEngine) apply(d Direction) MoveOutcome {
	wasWon := e.state.Won

	outcome := e.state.Apply(d, e.rnd)

	e.state.MaxTile = MaxTile(e.state.Grid)
	// Won stays set once the win tile has been built, even after it merges further
	e.state.Won = wasWon || e.state.IsWin()
	e.state.GameOver = !e.state.CanMove()

	msgs := e.config.Messages
	switch {
	case !outcome.Changed:
		e.state.Message = msgs.NoChange
	case e.state.Won && !wasWon:
		e.state.Message = fmt.Sprintf(msgs.Victory, e.state.WinTile)
	case e.state.GameOver:
		e.state.Message = fmt.Sprintf(msgs.GameOver, e.state.Score)
	case msgs.Moved != "":
		e.state.Message = fmt.Sprintf(msgs.Moved, e.state.Score)
	}

	return outcome
}

// GetPossibleMoves returns the directions that would change the board
func (e *GameEngine) GetPossibleMoves() []string {
	var possible []string
	for _, d := range Directions {
		if _, changed, _ := Slide(e.state.Grid, d); changed {
			possible = append(possible, d.String())
		}
	}
	return possible
}

// GetConfig returns the current game configuration
func (e *GameEngine) GetConfig() *GameConfig {
	return e.config
}

// SetConfig sets a new game configuration and starts a new game
func (e *GameEngine) SetConfig(config *GameConfig) error {
	if err := ValidateGameConfig(config); err != nil {
		return err
	}

	e.config = config
	e.state = InitGameStateFromConfig(config, e.rnd)
	return nil
}

// GetMoveHistory returns the complete move history
func (e *GameEngine) GetMoveHistory() []MoveHistoryEntry {
	return e.state.MoveHistory
}

// GetLastMove returns the last move made, or nil if no moves
func (e *GameEngine) GetLastMove() *MoveHistoryEntry {
	if len(e.state.MoveHistory) == 0 {
		return nil
	}
	return &e.state.MoveHistory[len(e.state.MoveHistory)-1]
}

// BulkMove executes multiple moves in sequence, returning the changed flag for each
func (e *GameEngine) BulkMove(moves []string) []bool {
	results := make([]bool, 0, len(moves))

	for _, direction := range moves {
		// Stop if game is over
		if e.IsGameOver() {
			break
		}

		results = append(results, e.Move(direction))
	}

	return results
}
