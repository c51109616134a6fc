package service

import (
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/wricardo/slide2048/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	Seed           *uint64            `json:"seed,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameState      *engine.GameState  `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// ListOptions controls ordering and size of a session listing
type ListOptions struct {
	SortBy string `json:"sort_by"` // "created" or "accessed"
	Order  string `json:"order"`   // "asc" or "desc"
	Limit  int    `json:"limit"`
}

// MoveResult contains the result of a move operation
type MoveResult struct {
	Success   bool              `json:"success"`
	GameState *engine.GameState `json:"game_state"`
	Message   string            `json:"message"`
	Events    []GameEvent       `json:"events,omitempty"`
	Step      *StepInfo         `json:"step,omitempty"`
	Board     []string          `json:"board,omitempty"`
}

// BulkMoveResult contains the result of multiple moves
type BulkMoveResult struct {
	// Summary
	MovesExecuted  int               `json:"moves_executed"`
	MovesChanged   int               `json:"moves_changed"`
	RequestedMoves int               `json:"requested_moves"`
	Success        bool              `json:"success"`
	GameState      *engine.GameState `json:"game_state"`
	Events         []GameEvent       `json:"events"`
	StoppedReason  string            `json:"stopped_reason,omitempty"`   // Human-readable reason
	StopReasonCode string            `json:"stop_reason_code,omitempty"` // invalid_direction|game_over
	StoppedOnMove  int               `json:"stopped_on_move,omitempty"`  // 1-based index of the move that caused stop
	Truncated      bool              `json:"truncated,omitempty"`
	Limit          int               `json:"limit,omitempty"`

	// Start/end snapshot
	StartScore   int `json:"start_score"`
	EndScore     int `json:"end_score"`
	ScoreDelta   int `json:"score_delta"`
	StartMaxTile int `json:"start_max_tile"`
	EndMaxTile   int `json:"end_max_tile"`

	// Per-step compact trace (only for this call)
	Steps []StepInfo `json:"steps,omitempty"`

	// Final status aids
	GameOver      bool     `json:"game_over"`
	Won           bool     `json:"won"`
	Message       string   `json:"message,omitempty"`
	PossibleMoves []string `json:"possible_moves,omitempty"`
	Board         []string `json:"board,omitempty"`
}

// StepInfo is a compact record for each executed move
type StepInfo struct {
	Idx         int          `json:"idx"`
	Dir         string       `json:"dir"`
	Changed     bool         `json:"changed"`
	ScoreBefore int          `json:"score_before"`
	ScoreAfter  int          `json:"score_after"`
	ScoreGained int          `json:"score_gained"`
	MaxTile     int          `json:"max_tile"`
	Spawned     *engine.Tile `json:"spawned,omitempty"`
	Victory     bool         `json:"victory,omitempty"`
	GameOver    bool         `json:"game_over,omitempty"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string       `json:"type"` // "move", "no_change", "merge", "spawn", "victory", "game_over", "reset"
	Message   string       `json:"message"`
	Timestamp time.Time    `json:"timestamp"`
	Tile      *engine.Tile `json:"tile,omitempty"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.MoveHistoryEntry `json:"moves"`
	TotalMoves  int                       `json:"total_moves"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}

// TileStats summarises the tiles on a session's board. Tiles maps each tile
// value (as a string) to its count, ordered from the smallest value up.
type TileStats struct {
	SessionID  string                              `json:"session_id"`
	Score      int                                 `json:"score"`
	MaxTile    int                                 `json:"max_tile"`
	WinTile    int                                 `json:"win_tile"`
	TileCount  int                                 `json:"tile_count"`
	EmptyCells int                                 `json:"empty_cells"`
	TileSum    int                                 `json:"tile_sum"`
	Tiles      *orderedmap.OrderedMap[string, int] `json:"tiles"`
}

// ConfigInfo provides information about a game configuration
type ConfigInfo struct {
	Filename    string `json:"filename"`
	ConfigID    string `json:"config_id"` // The identifier to use for session creation
	Name        string `json:"name"`      // Display name
	Description string `json:"description"`
	GridSize    int    `json:"grid_size"`
	WinTile     int    `json:"win_tile"`
}
