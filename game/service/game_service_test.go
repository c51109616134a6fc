package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/slide2048/game/engine"
	"github.com/wricardo/slide2048/game/service"
)

// MockSessionManager implements service.SessionManager for testing
type MockSessionManager struct {
	mu       sync.Mutex
	sessions map[string]*service.Session
}

func NewMockSessionManager() *MockSessionManager {
	return &MockSessionManager{
		sessions: make(map[string]*service.Session),
	}
}

func (m *MockSessionManager) Create(id string, config *engine.GameConfig, opts ...engine.Option) (*service.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Generate ID if empty (mimics real session manager behavior)
	if id == "" {
		id = fmt.Sprintf("test_%d", len(m.sessions)+1)
	}

	if _, exists := m.sessions[id]; exists {
		return nil, errors.New("session already exists")
	}

	eng, err := engine.NewEngine(config, opts...)
	if err != nil {
		return nil, err
	}

	session := &service.Session{
		ID:             id,
		Engine:         eng,
		Config:         config,
		CreatedAt:      time.Now(),
		LastAccessedAt: time.Now(),
	}

	m.sessions[id] = session
	return session, nil
}

func (m *MockSessionManager) Get(id string) (*service.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, exists := m.sessions[id]
	if !exists {
		return nil, service.ErrSessionNotFound
	}
	return session, nil
}

func (m *MockSessionManager) List() []*service.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	return result
}

func (m *MockSessionManager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[id]; !exists {
		return service.ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *MockSessionManager) UpdateLastAccessed(id string) error {
	session, err := m.Get(id)
	if err != nil {
		return err
	}
	session.Lock()
	session.LastAccessedAt = time.Now()
	session.Unlock()
	return nil
}

// MockConfigManager implements service.ConfigManager for testing
type MockConfigManager struct {
	configs map[string]*engine.GameConfig
	saved   map[string]*engine.GameConfig
}

func createTestConfig() *engine.GameConfig {
	return &engine.GameConfig{
		Name:        "test",
		Description: "Test configuration",
		GridSize:    4,
		WinTile:     2048,
		Messages: engine.Messages{
			Welcome:  "Welcome to test!",
			Victory:  "Reached %d!",
			GameOver: "Game over, score %d",
			NoChange: "Nothing moved",
			Moved:    "Score: %d",
		},
	}
}

func NewMockConfigManager() *MockConfigManager {
	small := createTestConfig()
	small.Name = "small"
	small.GridSize = 3
	small.WinTile = 256

	return &MockConfigManager{
		configs: map[string]*engine.GameConfig{
			"test":  createTestConfig(),
			"small": small,
		},
		saved: make(map[string]*engine.GameConfig),
	}
}

func (m *MockConfigManager) LoadConfig(name string) (*engine.GameConfig, error) {
	config, exists := m.configs[name]
	if !exists {
		return nil, service.ErrConfigNotFound
	}
	return config, nil
}

func (m *MockConfigManager) ListConfigs() ([]*service.ConfigInfo, error) {
	result := make([]*service.ConfigInfo, 0, len(m.configs))
	for id, config := range m.configs {
		result = append(result, &service.ConfigInfo{
			Filename:    id + ".json",
			ConfigID:    id,
			Name:        config.Name,
			Description: config.Description,
			GridSize:    config.GridSize,
			WinTile:     config.WinTile,
		})
	}
	return result, nil
}

func (m *MockConfigManager) GetDefault() *engine.GameConfig {
	return m.configs["test"]
}

func (m *MockConfigManager) SaveConfig(name string, config *engine.GameConfig) error {
	if err := engine.ValidateGameConfig(config); err != nil {
		return fmt.Errorf("%w: %v", service.ErrInvalidConfig, err)
	}
	m.saved[name] = config
	m.configs[name] = config
	return nil
}

func (m *MockConfigManager) Schema() *jsonschema.Schema {
	return jsonschema.Reflect(&engine.GameConfig{})
}

func newTestService() (service.GameService, *MockSessionManager, *MockConfigManager) {
	sessions := NewMockSessionManager()
	configs := NewMockConfigManager()
	return service.NewGameService(sessions, configs, nil), sessions, configs
}

// placeGrid overwrites a session's board with a known grid
func placeGrid(t *testing.T, sessions *MockSessionManager, id string, grid [][]int) {
	t.Helper()
	sess, err := sessions.Get(id)
	require.NoError(t, err)
	require.NoError(t, sess.Engine.SetState(&engine.GameState{Grid: grid}))
}

func seed(v uint64) *uint64 { return &v }

func TestGameService_CreateSession(t *testing.T) {
	tests := []struct {
		name       string
		configName string
		wantConfig string
		wantSize   int
		wantErr    error
	}{
		{"default config", "", "test", 4, nil},
		{"named config", "small", "small", 3, nil},
		{"unknown config", "missing", "", 0, service.ErrConfigNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestService()

			info, err := svc.CreateSession(context.Background(), tt.configName, nil)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Contains(t, err.Error(), "available configs")
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, info.ID)
			assert.Equal(t, tt.wantConfig, info.ConfigName)
			assert.Equal(t, tt.wantSize, info.GameState.Size)
			assert.Equal(t, engine.SeedTiles, engine.CountTiles(info.GameState.Grid))
			assert.Nil(t, info.Seed)
		})
	}
}

func TestGameService_CreateSessionWithSeed(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	a, err := svc.CreateSession(ctx, "", seed(2048))
	require.NoError(t, err)
	b, err := svc.CreateSession(ctx, "", seed(2048))
	require.NoError(t, err)

	require.NotNil(t, a.Seed)
	assert.Equal(t, uint64(2048), *a.Seed)
	assert.Equal(t, a.GameState.Grid, b.GameState.Grid)

	moves := []string{"left", "up", "right", "down", "left", "up"}
	ra, err := svc.BulkMove(ctx, a.ID, moves, false)
	require.NoError(t, err)
	rb, err := svc.BulkMove(ctx, b.ID, moves, false)
	require.NoError(t, err)
	assert.Equal(t, ra.GameState.Grid, rb.GameState.Grid)
	assert.Equal(t, ra.EndScore, rb.EndScore)
}

func TestGameService_Move(t *testing.T) {
	tests := []struct {
		name        string
		grid        [][]int
		direction   string
		wantSuccess bool
		wantRow0    []int
		wantScore   int
		wantEvents  []string
	}{
		{
			name:        "merge left",
			grid:        [][]int{{2, 2, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}},
			direction:   "left",
			wantSuccess: true,
			wantRow0:    []int{4, 0, 0, 0},
			wantScore:   4,
			wantEvents:  []string{"move", "merge", "spawn"},
		},
		{
			name:        "shift right without merge",
			grid:        [][]int{{2, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}},
			direction:   "RIGHT",
			wantSuccess: true,
			wantScore:   0,
			wantEvents:  []string{"move", "spawn"},
		},
		{
			name:        "blocked",
			grid:        [][]int{{2, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}},
			direction:   "up",
			wantSuccess: false,
			wantRow0:    []int{2, 0, 0, 0},
			wantScore:   0,
			wantEvents:  []string{"no_change"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, sessions, _ := newTestService()
			info, err := svc.CreateSession(context.Background(), "", seed(1))
			require.NoError(t, err)
			placeGrid(t, sessions, info.ID, tt.grid)

			result, err := svc.Move(context.Background(), info.ID, tt.direction, false)
			require.NoError(t, err)

			assert.Equal(t, tt.wantSuccess, result.Success)
			assert.Equal(t, tt.wantScore, result.GameState.Score)
			if tt.wantRow0 != nil {
				assert.Equal(t, tt.wantRow0, result.GameState.Grid[0])
			}
			require.NotNil(t, result.Step)
			assert.Equal(t, tt.wantSuccess, result.Step.Changed)
			assert.Equal(t, tt.wantScore, result.Step.ScoreGained)
			assert.Len(t, result.Board, 4)

			var types []string
			for _, ev := range result.Events {
				types = append(types, ev.Type)
			}
			assert.Equal(t, tt.wantEvents, types)
		})
	}
}

func TestGameService_MoveErrors(t *testing.T) {
	svc, _, _ := newTestService()
	info, err := svc.CreateSession(context.Background(), "", nil)
	require.NoError(t, err)

	_, err = svc.Move(context.Background(), info.ID, "sideways", false)
	assert.ErrorIs(t, err, engine.ErrInvalidDirection)

	_, err = svc.Move(context.Background(), "nope", "up", false)
	assert.ErrorIs(t, err, service.ErrSessionNotFound)
}

func TestGameService_MoveWithReset(t *testing.T) {
	svc, sessions, _ := newTestService()
	info, err := svc.CreateSession(context.Background(), "", seed(3))
	require.NoError(t, err)
	placeGrid(t, sessions, info.ID, [][]int{{512, 512, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}})

	result, err := svc.Move(context.Background(), info.ID, "left", true)
	require.NoError(t, err)

	assert.Equal(t, "reset", result.Events[0].Type)
	assert.Less(t, result.GameState.MaxTile, 512)
	assert.LessOrEqual(t, engine.CountTiles(result.GameState.Grid), 3)
}

func TestGameService_BulkMove(t *testing.T) {
	tests := []struct {
		name         string
		grid         [][]int
		moves        []string
		wantExecuted int
		wantChanged  int
		wantSuccess  bool
		wantStop     string
		wantStopOn   int
	}{
		{
			name:         "all valid",
			grid:         [][]int{{2, 2, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}},
			moves:        []string{"left", "right"},
			wantExecuted: 2,
			wantChanged:  2,
			wantSuccess:  true,
		},
		{
			name:         "unchanged moves do not stop",
			grid:         [][]int{{2, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}},
			moves:        []string{"up", "left", "right"},
			wantExecuted: 3,
			wantChanged:  1,
			wantSuccess:  true,
		},
		{
			name:         "invalid direction stops",
			grid:         [][]int{{2, 2, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}},
			moves:        []string{"left", "jump", "right"},
			wantExecuted: 1,
			wantChanged:  1,
			wantSuccess:  false,
			wantStop:     "invalid_direction",
			wantStopOn:   2,
		},
		{
			name: "stops at game over",
			grid: [][]int{
				{4, 8, 4, 8},
				{8, 4, 8, 4},
				{4, 8, 4, 8},
				{16, 2, 2, 16},
			},
			moves:        []string{"left", "left", "up"},
			wantExecuted: 1,
			wantChanged:  1,
			wantSuccess:  true,
			wantStop:     "game_over",
			wantStopOn:   2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, sessions, _ := newTestService()
			info, err := svc.CreateSession(context.Background(), "", seed(5))
			require.NoError(t, err)
			placeGrid(t, sessions, info.ID, tt.grid)

			result, err := svc.BulkMove(context.Background(), info.ID, tt.moves, false)
			require.NoError(t, err)

			assert.Equal(t, tt.wantExecuted, result.MovesExecuted)
			assert.Equal(t, tt.wantChanged, result.MovesChanged)
			assert.Equal(t, tt.wantSuccess, result.Success)
			assert.Equal(t, tt.wantStop, result.StopReasonCode)
			assert.Equal(t, tt.wantStopOn, result.StoppedOnMove)
			assert.Equal(t, len(tt.moves), result.RequestedMoves)
			assert.Len(t, result.Steps, tt.wantExecuted)
			assert.Equal(t, result.EndScore-result.StartScore, result.ScoreDelta)

			gained := 0
			for i, step := range result.Steps {
				assert.Equal(t, i+1, step.Idx)
				assert.Equal(t, step.ScoreBefore+step.ScoreGained, step.ScoreAfter)
				gained += step.ScoreGained
			}
			assert.Equal(t, result.ScoreDelta, gained)
		})
	}
}

func TestGameService_BulkMoveLimits(t *testing.T) {
	svc, _, _ := newTestService()
	info, err := svc.CreateSession(context.Background(), "", seed(9))
	require.NoError(t, err)

	_, err = svc.BulkMove(context.Background(), info.ID, nil, false)
	assert.ErrorIs(t, err, service.ErrInvalidRequest)

	moves := make([]string, engine.MaxBulkMoves+25)
	for i := range moves {
		moves[i] = engine.Directions[i%len(engine.Directions)].String()
	}

	result, err := svc.BulkMove(context.Background(), info.ID, moves, false)
	require.NoError(t, err)
	assert.True(t, result.Truncated)
	assert.Equal(t, engine.MaxBulkMoves, result.Limit)
	assert.LessOrEqual(t, result.MovesExecuted, engine.MaxBulkMoves)
	assert.Equal(t, engine.MaxBulkMoves+25, result.RequestedMoves)
}

func TestGameService_GetMoveHistory(t *testing.T) {
	svc, _, _ := newTestService()
	info, err := svc.CreateSession(context.Background(), "", seed(12))
	require.NoError(t, err)

	for i := 0; i < 25; i++ {
		_, err := svc.Move(context.Background(), info.ID, engine.Directions[i%4].String(), false)
		require.NoError(t, err)
	}

	tests := []struct {
		name         string
		opts         service.HistoryOptions
		wantLen      int
		wantFirstNum int
		wantPages    int
		wantNext     bool
		wantPrev     bool
	}{
		{"defaults newest first", service.HistoryOptions{}, 20, 25, 2, true, false},
		{"second page desc", service.HistoryOptions{Page: 2, Limit: 20}, 5, 5, 2, false, true},
		{"ascending", service.HistoryOptions{Page: 1, Limit: 10, Order: "asc"}, 10, 1, 3, true, false},
		{"last page asc", service.HistoryOptions{Page: 3, Limit: 10, Order: "asc"}, 5, 21, 3, false, true},
		{"page past end", service.HistoryOptions{Page: 9, Limit: 10, Order: "asc"}, 0, 0, 3, false, true},
		{"limit clamped", service.HistoryOptions{Limit: 1000}, 25, 25, 1, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			history, err := svc.GetMoveHistory(context.Background(), info.ID, tt.opts)
			require.NoError(t, err)

			assert.Equal(t, 25, history.TotalMoves)
			assert.Len(t, history.Moves, tt.wantLen)
			assert.NotNil(t, history.Moves)
			if tt.wantLen > 0 {
				assert.Equal(t, tt.wantFirstNum, history.Moves[0].MoveNumber)
			}
			assert.Equal(t, tt.wantPages, history.TotalPages)
			assert.Equal(t, tt.wantNext, history.HasNext)
			assert.Equal(t, tt.wantPrev, history.HasPrevious)
		})
	}
}

func TestGameService_GetTileStats(t *testing.T) {
	svc, sessions, _ := newTestService()
	info, err := svc.CreateSession(context.Background(), "", nil)
	require.NoError(t, err)
	placeGrid(t, sessions, info.ID, [][]int{
		{8, 2, 0, 0},
		{2, 0, 0, 0},
		{0, 4, 0, 0},
		{0, 0, 0, 128},
	})

	stats, err := svc.GetTileStats(context.Background(), info.ID)
	require.NoError(t, err)

	assert.Equal(t, 5, stats.TileCount)
	assert.Equal(t, 11, stats.EmptyCells)
	assert.Equal(t, 144, stats.TileSum)
	assert.Equal(t, 128, stats.MaxTile)

	var keys []string
	for pair := stats.Tiles.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	assert.Equal(t, []string{"2", "4", "8", "128"}, keys)
	count, ok := stats.Tiles.Get("2")
	require.True(t, ok)
	assert.Equal(t, 2, count)
}

func TestGameService_ListSessions(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		info, err := svc.CreateSession(ctx, "", nil)
		require.NoError(t, err)
		ids = append(ids, info.ID)
		time.Sleep(2 * time.Millisecond)
	}

	all, err := svc.ListSessions(ctx, service.ListOptions{SortBy: "created", Order: "asc"})
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i, info := range all {
		assert.Equal(t, ids[i], info.ID)
	}

	limited, err := svc.ListSessions(ctx, service.ListOptions{SortBy: "created", Limit: 2})
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, ids[2], limited[0].ID)

	// Touching the first session moves it to the front of the default ordering
	time.Sleep(2 * time.Millisecond)
	_, err = svc.GetGameState(ctx, ids[0])
	require.NoError(t, err)
	recent, err := svc.ListSessions(ctx, service.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, ids[0], recent[0].ID)
}

func TestGameService_DeleteSession(t *testing.T) {
	svc, _, _ := newTestService()
	info, err := svc.CreateSession(context.Background(), "", nil)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteSession(context.Background(), info.ID))
	_, err = svc.GetSession(context.Background(), info.ID)
	assert.ErrorIs(t, err, service.ErrSessionNotFound)
	assert.ErrorIs(t, svc.DeleteSession(context.Background(), info.ID), service.ErrSessionNotFound)
}

func TestGameService_Reset(t *testing.T) {
	svc, sessions, _ := newTestService()
	info, err := svc.CreateSession(context.Background(), "", seed(21))
	require.NoError(t, err)
	placeGrid(t, sessions, info.ID, [][]int{{64, 64, 2, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}})

	_, err = svc.Move(context.Background(), info.ID, "left", false)
	require.NoError(t, err)

	state, err := svc.Reset(context.Background(), info.ID)
	require.NoError(t, err)

	assert.Zero(t, state.Score)
	assert.Equal(t, 2, engine.CountTiles(state.Grid))
	assert.LessOrEqual(t, state.MaxTile, 4)
	assert.Equal(t, 1, state.TotalMoves)
	assert.Zero(t, state.CurrentMovesCount)
}

func TestGameService_Configs(t *testing.T) {
	svc, _, configs := newTestService()
	ctx := context.Background()

	list, err := svc.ListConfigs(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	cfg, err := svc.LoadConfig(ctx, "small")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.GridSize)

	bad := createTestConfig()
	bad.WinTile = 3
	assert.ErrorIs(t, svc.SaveConfig(ctx, "bad", bad), service.ErrInvalidConfig)

	good := createTestConfig()
	good.Name = "fresh"
	require.NoError(t, svc.SaveConfig(ctx, "fresh", good))
	assert.Contains(t, configs.saved, "fresh")

	schema := svc.ConfigSchema(ctx)
	require.NotNil(t, schema)
}

func TestGameService_ConcurrentMoves(t *testing.T) {
	svc, _, _ := newTestService()
	info, err := svc.CreateSession(context.Background(), "", seed(77))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				_, _ = svc.Move(context.Background(), info.ID, engine.Directions[(w+i)%4].String(), false)
				_, _ = svc.GetGameState(context.Background(), info.ID)
			}
		}(w)
	}
	wg.Wait()

	state, err := svc.GetGameState(context.Background(), info.ID)
	require.NoError(t, err)
	assert.Equal(t, 160, state.TotalMoves)
}
