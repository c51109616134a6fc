package engine

const (
	// Validation constants
	MinGridSize     = 2
	MaxGridSize     = 16
	DefaultGridSize = 4
	DefaultWinTile  = 2048
	MinWinTile      = 4
	MaxBulkMoves    = 100

	// SeedTiles is the number of tiles placed on a fresh board.
	SeedTiles = 2

	WebSocketBufferSize = 256
)

// Position represents row/column coordinates on the grid
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Tile is a value placed at a position
type Tile struct {
	Row   int `json:"row"`
	Col   int `json:"col"`
	Value int `json:"value"`
}

// Messages holds the player-facing texts of a configuration
type Messages struct {
	Welcome  string `json:"welcome" yaml:"welcome"`
	Victory  string `json:"victory" yaml:"victory"`     // %d is the win tile
	GameOver string `json:"game_over" yaml:"game_over"` // %d is the final score
	NoChange string `json:"no_change,omitempty" yaml:"no_change,omitempty"`
	Moved    string `json:"moved,omitempty" yaml:"moved,omitempty"` // %d is the score
}

// GameConfig represents the game configuration loaded from JSON or YAML
type GameConfig struct {
	Name        string   `json:"name" yaml:"name" jsonschema:"required,minLength=1"`
	Description string   `json:"description" yaml:"description"`
	GridSize    int      `json:"grid_size" yaml:"grid_size" jsonschema:"minimum=2,maximum=16,default=4"`
	WinTile     int      `json:"win_tile" yaml:"win_tile" jsonschema:"minimum=4,default=2048"`
	Messages    Messages `json:"messages" yaml:"messages"`
}

// GameState represents the complete game state
type GameState struct {
	Grid       [][]int `json:"grid"`
	Size       int     `json:"size"`
	Score      int     `json:"score"`
	WinTile    int     `json:"win_tile"`
	MaxTile    int     `json:"max_tile"`
	Won        bool    `json:"won"`
	GameOver   bool    `json:"game_over"`
	Message    string  `json:"message"`
	ConfigName string  `json:"config_name"`

	MoveHistory []MoveHistoryEntry `json:"move_history"`
	TotalMoves  int                `json:"total_moves"`

	// CurrentMoves tracks only the moves since the last reset. It mirrors MoveHistory entries
	// but gets cleared on reset while MoveHistory remains cumulative.
	CurrentMoves      []MoveHistoryEntry `json:"current_moves"`
	CurrentMovesCount int                `json:"current_moves_count"`

	// Computed helper view (not required for core game logic)
	PossibleMoves []string `json:"possible_moves,omitempty"`
}

// MoveHistoryEntry represents a single move in the game log
type MoveHistoryEntry struct {
	Action      string `json:"action"`
	Changed     bool   `json:"changed"`
	ScoreGained int    `json:"score_gained"`
	Score       int    `json:"score"`
	Spawned     *Tile  `json:"spawned,omitempty"`
	MaxTile     int    `json:"max_tile"`
	Timestamp   int64  `json:"timestamp"`
	MoveNumber  int    `json:"move_number"`
}
