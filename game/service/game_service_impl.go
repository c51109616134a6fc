package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/inconshreveable/log15/v3"
	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/wricardo/slide2048/game/engine"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrConfigNotFound  = errors.New("configuration not found")
	ErrInvalidConfig   = errors.New("invalid configuration")
)

// DefaultHistoryLimit and MaxHistoryLimit bound a page of move history
const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	logger   log15.Logger
}

// NewGameService creates a new game service instance. A nil logger discards
// all output.
func NewGameService(sessions SessionManager, configs ConfigManager, logger log15.Logger) GameService {
	if logger == nil {
		logger = log15.New()
		logger.SetHandler(log15.DiscardHandler())
	}
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		logger:   logger,
	}
}

// getConfigID returns the config_id for a given config name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

// lookup fetches a session and marks it accessed
func (s *gameServiceImpl) lookup(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %q: %w", sessionID, err)
	}
	if err := s.sessions.UpdateLastAccessed(sess.ID); err != nil {
		s.logger.Debug("failed to touch session", "session", sess.ID, "err", err)
	}
	return sess, nil
}

// info builds a SessionInfo; the caller holds the session lock
func (s *gameServiceImpl) info(sess *Session, configID string) *SessionInfo {
	if configID == "" {
		configID = s.getConfigID(sess.Config.Name)
	}
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     configID,
		Seed:           sess.Seed,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      sess.Engine.GetState().Clone(),
		GameConfig:     sess.Config,
	}
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string, seed *uint64) (*SessionInfo, error) {
	var config *engine.GameConfig
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			// Provide helpful error message with available options
			if errors.Is(err, ErrConfigNotFound) {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("config '%s' not found, available configs: %v: %w", configName, configIDs, err)
				}
				return nil, fmt.Errorf("config '%s' not found, use /api/configs to list available configurations: %w", configName, err)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	var opts []engine.Option
	if seed != nil {
		opts = append(opts, engine.WithSeed(*seed))
	}

	// Let session manager generate the ID
	sess, err := s.sessions.Create("", config, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	s.logger.Info("session created", "session", sess.ID, "config", config.Name, "size", config.GridSize, "seeded", seed != nil)

	sess.Lock()
	defer sess.Unlock()
	sess.Seed = seed
	return s.info(sess, configName), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	defer sess.Unlock()
	return s.info(sess, ""), nil
}

// ListSessions returns active sessions ordered by creation or last access
func (s *gameServiceImpl) ListSessions(ctx context.Context, opts ListOptions) ([]*SessionInfo, error) {
	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))

	for _, sess := range sessions {
		sess.Lock()
		result = append(result, s.info(sess, ""))
		sess.Unlock()
	}

	if opts.SortBy == "" {
		opts.SortBy = "accessed"
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	sort.SliceStable(result, func(i, j int) bool {
		var ti, tj time.Time
		if opts.SortBy == "created" {
			ti, tj = result[i].CreatedAt, result[j].CreatedAt
		} else {
			ti, tj = result[i].LastAccessedAt, result[j].LastAccessedAt
		}

		if opts.Order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	if opts.Limit > 0 && opts.Limit < len(result) {
		result = result[:opts.Limit]
	}

	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("session %q: %w", sessionID, err)
	}
	s.logger.Info("session deleted", "session", sessionID)
	return nil
}

// Move executes a single move for a session
func (s *gameServiceImpl) Move(ctx context.Context, sessionID, direction string, reset bool) (*MoveResult, error) {
	d, err := engine.ParseDirection(direction)
	if err != nil {
		return nil, err
	}

	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	defer sess.Unlock()

	events := []GameEvent{}

	if reset {
		sess.Engine.Reset()
		events = append(events, GameEvent{
			Type:      "reset",
			Message:   "Game reset to initial state",
			Timestamp: time.Now(),
		})
	}

	step, stepEvents := s.step(sess, 1, d)
	events = append(events, stepEvents...)

	state := sess.Engine.GetState().Clone()

	s.logger.Debug("move", "session", sess.ID, "dir", d, "changed", step.Changed,
		"gained", step.ScoreGained, "score", step.ScoreAfter, "max", step.MaxTile)

	return &MoveResult{
		Success:   step.Changed,
		GameState: state,
		Message:   state.Message,
		Events:    events,
		Step:      &step,
		Board:     renderLines(state.Grid),
	}, nil
}

// BulkMove executes multiple moves in sequence. Moves that leave the board
// unchanged are recorded and do not stop the sequence; an unknown direction
// or the end of the game does.
func (s *gameServiceImpl) BulkMove(ctx context.Context, sessionID string, moves []string, reset bool) (*BulkMoveResult, error) {
	if len(moves) == 0 {
		return nil, fmt.Errorf("%w: moves array cannot be empty", ErrInvalidRequest)
	}

	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	defer sess.Unlock()

	result := &BulkMoveResult{
		RequestedMoves: len(moves),
		Events:         make([]GameEvent, 0),
		Success:        true,
	}

	if reset {
		sess.Engine.Reset()
		result.Events = append(result.Events, GameEvent{
			Type:      "reset",
			Message:   "Game reset to initial state",
			Timestamp: time.Now(),
		})
	}

	start := sess.Engine.GetState()
	result.StartScore = start.Score
	result.StartMaxTile = start.MaxTile

	// Limit moves to prevent abuse
	if len(moves) > engine.MaxBulkMoves {
		result.Truncated = true
		result.Limit = engine.MaxBulkMoves
		moves = moves[:engine.MaxBulkMoves]
	}

	for i, move := range moves {
		if sess.Engine.IsGameOver() {
			result.StoppedReason = fmt.Sprintf("game over before move %d", i+1)
			result.StopReasonCode = "game_over"
			result.StoppedOnMove = i + 1
			break
		}

		d, err := engine.ParseDirection(move)
		if err != nil {
			result.Success = false
			result.StoppedReason = fmt.Sprintf("move %d: %v", i+1, err)
			result.StopReasonCode = "invalid_direction"
			result.StoppedOnMove = i + 1
			break
		}

		step, events := s.step(sess, i+1, d)
		result.MovesExecuted++
		if step.Changed {
			result.MovesChanged++
		}
		result.Steps = append(result.Steps, step)
		result.Events = append(result.Events, events...)
	}

	end := sess.Engine.GetState().Clone()
	result.GameState = end
	result.EndScore = end.Score
	result.ScoreDelta = end.Score - result.StartScore
	result.EndMaxTile = end.MaxTile
	result.GameOver = end.GameOver
	result.Won = end.Won
	result.Message = end.Message
	result.PossibleMoves = end.PossibleMoves
	result.Board = renderLines(end.Grid)

	if result.GameOver && result.StopReasonCode == "" {
		result.StopReasonCode = "game_over"
	}

	s.logger.Debug("bulk move", "session", sess.ID, "exec", result.MovesExecuted, "requested", result.RequestedMoves,
		"changed", result.MovesChanged, "stop", result.StopReasonCode, "score_delta", result.ScoreDelta)

	return result, nil
}

// step applies one direction and describes it; the caller holds the session lock
func (s *gameServiceImpl) step(sess *Session, idx int, d engine.Direction) (StepInfo, []GameEvent) {
	before := sess.Engine.GetState()
	scoreBefore := before.Score
	wasWon := before.Won

	outcome := sess.Engine.MoveDirection(d)
	after := sess.Engine.GetState()

	step := StepInfo{
		Idx:         idx,
		Dir:         d.String(),
		Changed:     outcome.Changed,
		ScoreBefore: scoreBefore,
		ScoreAfter:  after.Score,
		ScoreGained: outcome.ScoreGained,
		MaxTile:     after.MaxTile,
		Spawned:     outcome.Spawned,
		Victory:     after.Won && !wasWon,
		GameOver:    after.GameOver,
	}
	return step, moveEvents(step, after)
}

// moveEvents generates events from a single step
func moveEvents(step StepInfo, state *engine.GameState) []GameEvent {
	now := time.Now()

	if !step.Changed {
		return []GameEvent{{
			Type:      "no_change",
			Message:   fmt.Sprintf("Moving %s changed nothing", step.Dir),
			Timestamp: now,
		}}
	}

	events := []GameEvent{{
		Type:      "move",
		Message:   fmt.Sprintf("Moved %s", step.Dir),
		Timestamp: now,
	}}

	if step.ScoreGained > 0 {
		events = append(events, GameEvent{
			Type:      "merge",
			Message:   fmt.Sprintf("Merged tiles for %d points (score %d)", step.ScoreGained, step.ScoreAfter),
			Timestamp: now,
		})
	}
	if step.Spawned != nil {
		events = append(events, GameEvent{
			Type:      "spawn",
			Message:   fmt.Sprintf("New %d at row %d, col %d", step.Spawned.Value, step.Spawned.Row, step.Spawned.Col),
			Timestamp: now,
			Tile:      step.Spawned,
		})
	}
	if step.Victory {
		events = append(events, GameEvent{
			Type:      "victory",
			Message:   fmt.Sprintf("Reached the %d tile!", state.WinTile),
			Timestamp: now,
		})
	}
	if step.GameOver {
		events = append(events, GameEvent{
			Type:      "game_over",
			Message:   state.Message,
			Timestamp: now,
		})
	}

	return events
}

// Reset resets a game session to initial state
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	defer sess.Unlock()

	sess.Engine.Reset()
	s.logger.Info("session reset", "session", sess.ID)
	return sess.Engine.GetState().Clone(), nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	defer sess.Unlock()
	return sess.Engine.GetState().Clone(), nil
}

// GetMoveHistory returns paginated move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	history := sess.Engine.GetMoveHistory()
	sess.Unlock()

	return paginate(history, opts), nil
}

func paginate(history []engine.MoveHistoryEntry, opts HistoryOptions) *HistoryResponse {
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultHistoryLimit
	}
	if opts.Limit > MaxHistoryLimit {
		opts.Limit = MaxHistoryLimit
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	moves := []engine.MoveHistoryEntry{}
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			moves = append(moves, history[i])
		}
	} else if start < total {
		moves = append(moves, history[start:end]...)
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}
}

// GetTileStats returns a histogram of the tiles on the board
func (s *gameServiceImpl) GetTileStats(ctx context.Context, sessionID string) (*TileStats, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	state := sess.Engine.GetState().Clone()
	sess.Unlock()

	return tileStats(sess.ID, state), nil
}

func tileStats(sessionID string, state *engine.GameState) *TileStats {
	counts := engine.TileCounts(state.Grid)
	values := make([]int, 0, len(counts))
	for v := range counts {
		values = append(values, v)
	}
	sort.Ints(values)

	tiles := orderedmap.New[string, int]()
	for _, v := range values {
		tiles.Set(strconv.Itoa(v), counts[v])
	}

	return &TileStats{
		SessionID:  sessionID,
		Score:      state.Score,
		MaxTile:    state.MaxTile,
		WinTile:    state.WinTile,
		TileCount:  engine.CountTiles(state.Grid),
		EmptyCells: len(engine.EmptyCells(state.Grid)),
		TileSum:    engine.SumTiles(state.Grid),
		Tiles:      tiles,
	}
}

// ListConfigs returns available game configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific game configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a game configuration to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	if err := s.configs.SaveConfig(configName, config); err != nil {
		return err
	}
	s.logger.Info("config saved", "config", configName)
	return nil
}

// ConfigSchema returns the JSON schema that presets are checked against
func (s *gameServiceImpl) ConfigSchema(ctx context.Context) *jsonschema.Schema {
	return s.configs.Schema()
}

// renderLines splits the rendered board into one string per row
func renderLines(grid [][]int) []string {
	return strings.Split(strings.TrimSuffix(engine.RenderGrid(grid), "\n"), "\n")
}
