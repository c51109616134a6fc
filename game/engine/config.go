package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// DefaultGameConfig returns the classic 4x4 game that ends at 2048
func DefaultGameConfig() *GameConfig {
	return &GameConfig{
		Name:        "classic",
		Description: "Classic 4x4 board, reach the 2048 tile",
		GridSize:    DefaultGridSize,
		WinTile:     DefaultWinTile,
		Messages:    DefaultMessages(),
	}
}

// DefaultMessages returns the stock texts used when a config leaves them out
func DefaultMessages() Messages {
	return Messages{
		Welcome:  "Join the tiles, get to the target tile!",
		Victory:  "Congratulations! You reached %d!",
		GameOver: "Game Over! No more moves. Final score: %d",
		NoChange: "Nothing moved in that direction",
		Moved:    "Score: %d",
	}
}

// ApplyDefaults fills zero-valued grid size, win tile and messages
func (c *GameConfig) ApplyDefaults() {
	if c.GridSize == 0 {
		c.GridSize = DefaultGridSize
	}
	if c.WinTile == 0 {
		c.WinTile = DefaultWinTile
	}
	defaults := DefaultMessages()
	if c.Messages.Welcome == "" {
		c.Messages.Welcome = defaults.Welcome
	}
	if c.Messages.Victory == "" {
		c.Messages.Victory = defaults.Victory
	}
	if c.Messages.GameOver == "" {
		c.Messages.GameOver = defaults.GameOver
	}
	if c.Messages.NoChange == "" {
		c.Messages.NoChange = defaults.NoChange
	}
	if c.Messages.Moved == "" {
		c.Messages.Moved = defaults.Moved
	}
}

// ValidateGameConfig validates a game configuration for correctness and
// playability. All problems are reported in a single combined error.
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}

	var err error

	if config.Name == "" {
		err = multierr.Append(err, fmt.Errorf("config validation: name is required"))
	}

	// Validate grid size
	sizeOK := config.GridSize >= MinGridSize && config.GridSize <= MaxGridSize
	if !sizeOK {
		err = multierr.Append(err, fmt.Errorf("config validation: grid_size must be between %d and %d, got %d",
			MinGridSize, MaxGridSize, config.GridSize))
	}

	// Validate win tile
	if config.WinTile < MinWinTile || !IsPowerOfTwo(config.WinTile) {
		err = multierr.Append(err, fmt.Errorf("config validation: win_tile must be a power of two >= %d, got %d",
			MinWinTile, config.WinTile))
	} else if sizeOK {
		if limit := MaxReachableTile(config.GridSize); config.WinTile > limit {
			err = multierr.Append(err, fmt.Errorf("config validation: win_tile %d is unreachable on a %dx%d board (max tile %d)",
				config.WinTile, config.GridSize, config.GridSize, limit))
		}
	}

	// Validate messages
	if config.Messages.Welcome == "" {
		err = multierr.Append(err, fmt.Errorf("config validation: messages.welcome is required"))
	}
	if config.Messages.Victory == "" {
		err = multierr.Append(err, fmt.Errorf("config validation: messages.victory is required"))
	} else if !strings.Contains(config.Messages.Victory, "%d") {
		err = multierr.Append(err, fmt.Errorf("config validation: messages.victory must contain %%d for the win tile"))
	}
	if config.Messages.GameOver == "" {
		err = multierr.Append(err, fmt.Errorf("config validation: messages.game_over is required"))
	} else if !strings.Contains(config.Messages.GameOver, "%d") {
		err = multierr.Append(err, fmt.Errorf("config validation: messages.game_over must contain %%d for the score"))
	}
	if config.Messages.Moved != "" && !strings.Contains(config.Messages.Moved, "%d") {
		err = multierr.Append(err, fmt.Errorf("config validation: messages.moved must contain %%d for the score"))
	}

	return err
}

// DecodeGameConfig parses a configuration document and validates it.
// Missing optional fields receive their defaults before validation.
func DecodeGameConfig(data []byte, ext string) (*GameConfig, error) {
	config, err := ParseGameConfig(data, ext)
	if err != nil {
		return nil, err
	}
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

// ParseGameConfig parses a configuration document and applies defaults
// without validating it. The format is chosen from the file extension:
// .yaml and .yml are YAML, anything else is JSON.
func ParseGameConfig(data []byte, ext string) (*GameConfig, error) {
	var config GameConfig

	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse yaml config: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse json config: %w", err)
		}
	}

	config.ApplyDefaults()
	return &config, nil
}

// LoadGameConfig loads a game configuration from a JSON or YAML file
func LoadGameConfig(filename string) (*GameConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return DecodeGameConfig(data, filepath.Ext(filename))
}

// InitGameStateFromConfig creates a fresh game state for config with the
// seed tiles placed using rnd. A nil config uses DefaultGameConfig.
func InitGameStateFromConfig(config *GameConfig, rnd RandomSource) *GameState {
	if config == nil {
		config = DefaultGameConfig()
	}

	size := config.GridSize
	if size == 0 {
		size = DefaultGridSize
	}
	winTile := config.WinTile
	if winTile == 0 {
		winTile = DefaultWinTile
	}

	state := &GameState{
		Grid:              NewGrid(size),
		Size:              size,
		Score:             0,
		WinTile:           winTile,
		Message:           config.Messages.Welcome,
		ConfigName:        config.Name,
		MoveHistory:       []MoveHistoryEntry{},
		TotalMoves:        0,
		CurrentMoves:      []MoveHistoryEntry{},
		CurrentMovesCount: 0,
	}

	for i := 0; i < SeedTiles; i++ {
		state.AddNewTile(rnd)
	}
	state.MaxTile = MaxTile(state.Grid)

	return state
}
