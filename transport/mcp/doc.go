// Package mcp exposes the 2048 REST API as Model Context Protocol tools.
//
// The Client holds no game state. Every tool call becomes one or two REST
// requests against a running API server, and the JSON answers are turned
// into compact text an agent can read: the board is rendered with "." for
// empty cells and rows listed top to bottom.
//
// Tools:
//   - create_session, list_sessions, get_session
//   - game_state, move, bulk_move, reset_game
//   - move_history, tile_stats, describe_tile
//   - list_configs, game_instructions
//
// Resources:
//   - game2048://sessions/{session_id}/board
//
// Arguments are coerced with spf13/cast, so seeds, rows and page numbers
// may arrive as JSON numbers or strings.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080", logger)
//	server.ServeStdio(client.GetMCPServer())
package mcp
