// Package websocket streams 2048 game state to browsers and lets them play.
//
// A single Hub owns every connection, grouped by session ID. The hub's Run
// loop is the only goroutine that touches the client map; registration,
// broadcasts and client counts all pass through channels.
//
// Message Protocol:
//
//   - Incoming: {"action": "up"} where action is a direction or "reset"
//   - Outgoing: {"session_id": "ab12", "event": "state_update", "game_state": {...}}
//   - Outgoing on failure: {"session_id": "ab12", "event": "error", "data": {"error": "..."}}
//
// Each outgoing frame carries exactly one JSON document. Commands are run
// through the CommandHandler installed with SetCommandHandler and the
// resulting state is broadcast to every client watching the session, so
// spectators see moves made over HTTP, MCP or another socket.
//
// Usage:
//
//	hub := websocket.NewHub(logger)
//	hub.SetCommandHandler(handler)
//	go hub.Run(ctx)
//
//	r.HandleFunc("/sessions/{id}/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, mux.Vars(r)["id"])
//	})
//
// Cancelling the context passed to Run closes every client.
package websocket
