package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/inconshreveable/log15/v3"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cast"

	"github.com/wricardo/slide2048/game/engine"
	"github.com/wricardo/slide2048/game/service"
)

// BoardURIPrefix prefixes the board resource URIs
const BoardURIPrefix = "game2048://sessions/"

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
	logger     log15.Logger
}

// NewClient creates a new MCP client that calls the REST API at baseURL. A
// nil logger discards output.
func NewClient(baseURL string, logger log15.Logger) *Client {
	if logger == nil {
		logger = log15.New()
		logger.SetHandler(log15.DiscardHandler())
	}
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"2048",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions(`2048 - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Slide numbered tiles on the board. Equal tiles that collide merge into one
tile of twice the value. Reach the win tile (2048 on the classic board).

AVAILABLE TOOLS:
- create_session: Start a new game (optional config_id and seed)
- game_state: Show the board
- move: Slide every tile one way (up/down/left/right)
- bulk_move: Several moves in one call (stops at game over)
- reset_game: Start the session over
- move_history: Past moves with score gains and spawned tiles
- tile_stats: Count of each tile value on the board
- describe_tile: Value and neighbours of one cell
- get_session, list_sessions, list_configs
- game_instructions: Rules and strategy

RESOURCES:
- game2048://sessions/{session_id}/board: the rendered board`),
	)

	c.registerTools()
	c.registerResources()
}

func sessionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session with optional config selection and random seed",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Preset to use, see list_configs (optional)",
				},
				"seed": map[string]interface{}{
					"type":        "integer",
					"description": "Seed for tile spawns; the same seed and moves replay the same game (optional)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"sort": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"created", "accessed"},
					"description": "Sort key (default accessed)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum sessions to return",
				},
			},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current board, score and status",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move",
		Description: "Slide all tiles in a direction. A new tile appears only if something moved.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"direction": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"up", "down", "left", "right"},
					"description": "Direction to slide",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of why this move (helps you reason about the board)",
				},
				"reset": map[string]interface{}{
					"type":        "boolean",
					"description": "Reset before moving",
				},
			},
			Required: []string{"session_id", "direction"},
		},
	}, c.handleMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "bulk_move",
		Description: fmt.Sprintf("Execute up to %d moves in sequence. Moves that change nothing are recorded as unchanged steps; the sequence stops at an unknown direction or at game over.", engine.MaxBulkMoves),
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"moves": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "string",
						"enum": []string{"up", "down", "left", "right"},
					},
					"description": "Array of moves",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the plan behind this sequence",
				},
				"reset": map[string]interface{}{
					"type":        "boolean",
					"description": "Reset before moving",
				},
			},
			Required: []string{"session_id", "moves"},
		},
	}, c.handleBulkMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Reset the game to a fresh board with two tiles",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_history",
		Description: "Get move history for a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Items per page",
				},
				"order": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"asc", "desc"},
					"description": "Oldest or newest first (default desc)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleMoveHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "tile_stats",
		Description: "Count of each tile value on the board, smallest first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleTileStats)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available game configurations",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the rules of 2048 and tips for playing well",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_tile",
		Description: "Get the value of a single cell and its four neighbours, and whether it can merge with any of them.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"row": map[string]interface{}{
					"type":        "integer",
					"description": "Row of the cell, 0 is the top row",
				},
				"col": map[string]interface{}{
					"type":        "integer",
					"description": "Column of the cell, 0 is the leftmost column",
				},
			},
			Required: []string{"session_id", "row", "col"},
		},
	}, c.handleDescribeTile)
}

// registerResources exposes each session's board as a resource
func (c *Client) registerResources() {
	c.mcpServer.AddResourceTemplate(
		mcp.NewResourceTemplate(
			BoardURIPrefix+"{session_id}/board",
			"Session board",
			mcp.WithTemplateDescription("The rendered board of a game session"),
			mcp.WithTemplateMIMEType("text/plain"),
		),
		c.handleBoardResource,
	)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	c.logger.Debug("api call", "method", method, "path", path, "status", resp.StatusCode,
		"request_id", resp.Header.Get("X-Request-ID"))

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func sessionPath(sessionID string, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// toMoves accepts an array of directions or a single comma or space
// separated string
func toMoves(raw interface{}) []string {
	if s, ok := raw.(string); ok {
		return strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	}
	moves := cast.ToStringSlice(raw)
	out := moves[:0]
	for _, m := range moves {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, m)
		}
	}
	return out
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	body := map[string]interface{}{}
	if configID := cast.ToString(args["config_id"]); configID != "" {
		body["config_id"] = configID
	}
	if raw, ok := args["seed"]; ok && raw != nil {
		seed, err := cast.ToUint64E(raw)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("seed must be a non-negative integer: %v", err)), nil
		}
		body["seed"] = seed
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s\n", session.ID, session.ConfigName)
	if session.GameState != nil {
		result += "\n" + formatGameState(session.GameState)
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	query := url.Values{}
	if sortBy := cast.ToString(args["sort"]); sortBy != "" {
		query.Set("sort", sortBy)
	}
	if limit := cast.ToInt(args["limit"]); limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	path := "/api/sessions"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}
	if err := c.apiCall(ctx, "GET", path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		score, maxTile := 0, 0
		if s.GameState != nil {
			score, maxTile = s.GameState.Score, s.GameState.MaxTile
		}
		fmt.Fprintf(&b, "- %s (Config: %s, Score: %d, Max tile: %d, Created: %s)\n",
			s.ID, s.ConfigName, score, maxTile, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := cast.ToString(request.GetArguments()["session_id"])

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := cast.ToString(request.GetArguments()["session_id"])

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID := cast.ToString(args["session_id"])

	// The intent argument only helps the caller reason; it is not forwarded
	body := map[string]interface{}{
		"direction": cast.ToString(args["direction"]),
		"reset":     cast.ToBool(args["reset"]),
	}

	var result service.MoveResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/move"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatMoveResult(&result)), nil
}

func (c *Client) handleBulkMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID := cast.ToString(args["session_id"])

	body := map[string]interface{}{
		"moves": toMoves(args["moves"]),
		"reset": cast.ToBool(args["reset"]),
	}

	var result service.BulkMoveResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/bulk-move"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatBulkMoveResult(sessionID, &result)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := cast.ToString(request.GetArguments()["session_id"])

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/reset"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleMoveHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID := cast.ToString(args["session_id"])

	query := url.Values{}
	if page := cast.ToInt(args["page"]); page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if limit := cast.ToInt(args["limit"]); limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if order := cast.ToString(args["order"]); order != "" {
		query.Set("order", order)
	}
	path := sessionPath(sessionID, "/history")
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleTileStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := cast.ToString(request.GetArguments()["session_id"])

	var stats service.TileStats
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/stats"), nil, &stats); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatTileStats(&stats)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Configurations:\n\n")
	for _, cfg := range configs {
		fmt.Fprintf(&b, "• %s\n  %s\n  Grid: %dx%d, Win tile: %d\n\n",
			cfg.ConfigID, cfg.Description, cfg.GridSize, cfg.GridSize, cfg.WinTile)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `2048 - Complete Instructions

GAME OBJECTIVE:
Create a tile with the win value (2048 on the classic 4x4 board) by merging
equal tiles. You may keep playing after you win.

GAME MECHANICS:
• Every move slides all tiles as far as they go in one direction
• Two equal tiles that meet merge into one tile of double value
• A tile merges at most once per move: [2,2,2,2] left gives [4,4,.,.]
• Merges happen from the side you slide towards: [2,2,2] left gives [4,2,.]
• Each merge adds the new tile's value to your score
• After a move that changed the board, a 2 or a 4 appears in a random empty cell
• A move that changes nothing is free: no tile spawns and no score is added
• The game is over when the board is full and no two neighbours are equal

READING THE BOARD:
• Rows are listed top to bottom, "." is an empty cell
• Row 0 is the top, column 0 is the left
• describe_tile shows a single cell and its neighbours

STRATEGY:
• Keep your largest tile in a corner and build a chain of decreasing tiles next to it
• Favour two directions (for example left and down) and use a third sparingly
• Avoid the direction that pulls your largest tile out of its corner
• Keep the row holding your largest tile full so it cannot shift
• Plan merges that cascade: 4 next to 4 next to 8 next to 16

MOVEMENT COMMANDS:
• move: one direction (up, down, left, right)
• bulk_move: up to 100 moves; moves that change nothing are recorded as unchanged, it stops at an unknown direction or game over
• Use seeds (create_session seed=N) to replay the same spawns

VICTORY CONDITIONS:
• A tile equal to the win tile appears anywhere on the board

Good luck reaching 2048!`

	return mcp.NewToolResultText(instructions), nil
}

func (c *Client) handleDescribeTile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID := cast.ToString(args["session_id"])
	row, err := cast.ToIntE(args["row"])
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("row must be an integer: %v", err)), nil
	}
	col, err := cast.ToIntE(args["col"])
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("col must be an integer: %v", err)), nil
	}

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	size := len(state.Grid)
	if row < 0 || col < 0 || row >= size || col >= size {
		return mcp.NewToolResultError(fmt.Sprintf("Cell (%d, %d) is out of bounds. Grid size is %dx%d (0-%d for both row and col)",
			row, col, size, size, size-1)), nil
	}

	return mcp.NewToolResultText(describeTile(state.Grid, row, col)), nil
}

// handleBoardResource serves game2048://sessions/{session_id}/board
func (c *Client) handleBoardResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	sessionID, err := boardSessionID(request.Params.URI)
	if err != nil {
		return nil, err
	}

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "text/plain",
			Text:     formatGameState(&state),
		},
	}, nil
}

// boardSessionID extracts the session ID from a board resource URI
func boardSessionID(uri string) (string, error) {
	rest, ok := strings.CutPrefix(uri, BoardURIPrefix)
	if !ok {
		return "", fmt.Errorf("unknown resource %q", uri)
	}
	id, ok := strings.CutSuffix(rest, "/board")
	if !ok || id == "" || strings.Contains(id, "/") {
		return "", fmt.Errorf("unknown resource %q", uri)
	}
	return id, nil
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session: %s\nConfig: %s\n", session.ID, session.ConfigName)
	if session.Seed != nil {
		fmt.Fprintf(&b, "Seed: %d\n", *session.Seed)
	}
	fmt.Fprintf(&b, "Created: %s\nLast accessed: %s\n",
		session.CreatedAt.Format(time.RFC3339), session.LastAccessedAt.Format(time.RFC3339))
	if session.GameState != nil {
		b.WriteString("\n" + formatGameState(session.GameState))
	}
	return b.String()
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available\n"
	}

	var b strings.Builder
	b.WriteString("Board:\n")
	b.WriteString(engine.RenderGrid(state.Grid))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Score: %d\n", state.Score)
	fmt.Fprintf(&b, "Max tile: %d / %d\n", state.MaxTile, state.WinTile)
	fmt.Fprintf(&b, "Empty cells: %d\n", len(engine.EmptyCells(state.Grid)))
	fmt.Fprintf(&b, "Moves: %d\n", state.CurrentMovesCount)

	switch {
	case state.GameOver:
		b.WriteString("Status: 💀 GAME OVER\n")
	case state.Won:
		b.WriteString("Status: 🎉 VICTORY! (you can keep playing)\n")
	default:
		b.WriteString("Status: playing\n")
	}

	if len(state.PossibleMoves) > 0 {
		fmt.Fprintf(&b, "Possible moves: %s\n", strings.Join(state.PossibleMoves, ", "))
	}
	if state.Message != "" {
		fmt.Fprintf(&b, "Message: %s\n", state.Message)
	}
	return b.String()
}

func formatMoveResult(result *service.MoveResult) string {
	var b strings.Builder
	if result.Success {
		b.WriteString("✓ Move successful")
	} else {
		b.WriteString("✗ Nothing moved")
	}
	if st := result.Step; st != nil {
		fmt.Fprintf(&b, " (%s, +%d)", st.Dir, st.ScoreGained)
		if st.Spawned != nil {
			fmt.Fprintf(&b, ", new %d at (%d,%d)", st.Spawned.Value, st.Spawned.Row, st.Spawned.Col)
		}
	}
	b.WriteString("\n")
	if result.Message != "" {
		fmt.Fprintf(&b, "%s\n", result.Message)
	}
	for _, ev := range result.Events {
		if ev.Type == "victory" || ev.Type == "game_over" {
			fmt.Fprintf(&b, "[%s] %s\n", ev.Type, ev.Message)
		}
	}
	b.WriteString("\n" + formatGameState(result.GameState))
	return b.String()
}

func formatBulkMoveResult(sessionID string, result *service.BulkMoveResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Bulk move on %s: %d/%d executed, %d changed the board\n",
		sessionID, result.MovesExecuted, result.RequestedMoves, result.MovesChanged)
	if result.Truncated {
		fmt.Fprintf(&b, "Request truncated to %d moves\n", result.Limit)
	}
	if result.StoppedReason != "" {
		fmt.Fprintf(&b, "Stopped on move %d: %s\n", result.StoppedOnMove, result.StoppedReason)
	}
	fmt.Fprintf(&b, "Score: %d -> %d (+%d)\n", result.StartScore, result.EndScore, result.ScoreDelta)
	fmt.Fprintf(&b, "Max tile: %d -> %d\n", result.StartMaxTile, result.EndMaxTile)

	if len(result.Steps) > 0 {
		b.WriteString("\nSteps:\n")
		for _, st := range result.Steps {
			b.WriteString(formatStepLine(st))
		}
	}

	b.WriteString("\n" + formatGameState(result.GameState))
	return b.String()
}

func formatStepLine(st service.StepInfo) string {
	if !st.Changed {
		return fmt.Sprintf("%3d. %-5s no change\n", st.Idx, st.Dir)
	}
	line := fmt.Sprintf("%3d. %-5s +%d score=%d max=%d", st.Idx, st.Dir, st.ScoreGained, st.ScoreAfter, st.MaxTile)
	if st.Spawned != nil {
		line += fmt.Sprintf(" spawn=%d@(%d,%d)", st.Spawned.Value, st.Spawned.Row, st.Spawned.Col)
	}
	if st.Victory {
		line += " VICTORY"
	}
	if st.GameOver {
		line += " GAME OVER"
	}
	return line + "\n"
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Move History (page %d/%d, %d total moves):\n\n",
		history.Page, history.TotalPages, history.TotalMoves)
	for _, m := range history.Moves {
		status := "no change"
		if m.Changed {
			status = fmt.Sprintf("+%d", m.ScoreGained)
		}
		fmt.Fprintf(&b, "#%d %s %s score=%d max=%d", m.MoveNumber, m.Action, status, m.Score, m.MaxTile)
		if m.Spawned != nil {
			fmt.Fprintf(&b, " spawn=%d@(%d,%d)", m.Spawned.Value, m.Spawned.Row, m.Spawned.Col)
		}
		b.WriteString("\n")
	}
	if history.HasNext {
		b.WriteString("\nMore moves on the next page\n")
	}
	return b.String()
}

func formatTileStats(stats *service.TileStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Tiles on %s: %d (sum %d), empty cells: %d\n",
		stats.SessionID, stats.TileCount, stats.TileSum, stats.EmptyCells)
	fmt.Fprintf(&b, "Max tile: %d / %d, score: %d\n", stats.MaxTile, stats.WinTile, stats.Score)
	if stats.Tiles != nil {
		for pair := stats.Tiles.Oldest(); pair != nil; pair = pair.Next() {
			fmt.Fprintf(&b, "  %5s x %d\n", pair.Key, pair.Value)
		}
	}
	return b.String()
}

func describeTile(grid [][]int, row, col int) string {
	cellName := func(v int) string {
		if v == 0 {
			return "empty"
		}
		return strconv.Itoa(v)
	}

	value := grid[row][col]
	var b strings.Builder
	fmt.Fprintf(&b, "Cell (%d, %d): %s\n", row, col, cellName(value))

	neighbours := []struct {
		name   string
		dr, dc int
	}{
		{"up", -1, 0},
		{"down", 1, 0},
		{"left", 0, -1},
		{"right", 0, 1},
	}
	var merges []string
	for _, n := range neighbours {
		r, c := row+n.dr, col+n.dc
		if r < 0 || c < 0 || r >= len(grid) || c >= len(grid) {
			fmt.Fprintf(&b, "  %-5s edge\n", n.name)
			continue
		}
		fmt.Fprintf(&b, "  %-5s %s\n", n.name, cellName(grid[r][c]))
		if value != 0 && grid[r][c] == value {
			merges = append(merges, n.name)
		}
	}

	if len(merges) > 0 {
		fmt.Fprintf(&b, "Can merge with: %s\n", strings.Join(merges, ", "))
	} else if value != 0 {
		b.WriteString("No equal neighbour\n")
	}
	return b.String()
}
