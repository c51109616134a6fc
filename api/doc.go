// Package api exposes the 2048 game service over HTTP.
//
// Endpoints:
//
// Sessions:
//   - POST /api/sessions - Create a session ({"config_id": "classic", "seed": 42})
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/unified - Sessions side by side (?sessionIds=a,b or ?configName=x)
//   - GET /api/sessions/{id} - Session details
//   - DELETE /api/sessions/{id} - Delete a session
//
// Game Operations:
//   - GET /api/sessions/{id}/state - Current board
//   - POST /api/sessions/{id}/move - {"direction": "left", "reset": false}
//   - POST /api/sessions/{id}/bulk-move - {"moves": ["left", "up"], "reset": false}
//   - POST /api/sessions/{id}/reset - Start over with two fresh tiles
//   - GET /api/sessions/{id}/history - Paged move log (?page=1&limit=20&order=desc)
//   - GET /api/sessions/{id}/stats - Tile histogram, smallest tile first
//
// Configuration:
//   - GET /api/configs - List presets
//   - POST /api/configs - Save a preset
//   - GET /api/configs/schema - JSON schema for presets
//   - GET /api/configs/{name} - A single preset
//
// Other:
//   - GET /api/health - Liveness
//   - GET /ws?session={id} - WebSocket stream of state updates
//
// Errors are returned as {"error": "..."} with 400 for bad input, 404 for
// unknown sessions or presets and 500 otherwise. Every response carries an
// X-Request-ID header, generated when the client does not send one.
//
// Moves, bulk moves and resets are broadcast to the session's WebSocket
// clients, and the server installs itself as the hub's command handler so
// WebSocket clients can play too.
package api
