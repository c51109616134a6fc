// Package service provides the business logic layer for the 2048 game server.
//
// The service package implements:
//   - Multi-session game management
//   - Single and bulk moves with per-step traces
//   - Move history paging and board statistics
//   - Configuration listing, loading and saving
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages game presets and their schema.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the game engine. Each session owns its own engine and is locked for the
// duration of every operation, so different sessions never block each other.
// States handed back to callers are snapshots and may be used freely after
// the call returns.
//
// Usage:
//
//	sessionMgr := session.NewManager(logger)
//	configMgr, _ := config.NewManager("configs", logger)
//	gameService := service.NewGameService(sessionMgr, configMgr, logger)
//
//	// Create a new session with reproducible tile placement
//	seed := uint64(42)
//	info, err := gameService.CreateSession(ctx, "classic", &seed)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Execute moves
//	result, err := gameService.Move(ctx, info.ID, "left", false)
package service
