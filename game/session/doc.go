// Package session provides in-memory session storage for the 2048 game server.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Short random session ID generation
//   - Expiry of idle sessions
//
// Manager is the session store. Each stored service.Session carries its own
// engine, configuration and timestamps; IDs are matched case-insensitively.
// Sessions are not persisted and disappear when the process exits.
//
// Usage:
//
//	manager := session.NewManager(logger)
//
//	// Create a new session with a generated ID
//	sess, err := manager.Create("", config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Create a reproducible session
//	sess, err = manager.Create("demo", config, engine.WithSeed(7))
//
//	// Drop sessions idle for a day
//	removed := manager.CleanupExpiredSessions(24 * time.Hour)
package session
