// Package config manages the game presets of the 2048 server.
//
// The config package handles:
//   - Loading presets from JSON and YAML files
//   - Caching loaded presets
//   - Default preset selection
//   - Listing and saving presets
//   - Publishing the JSON schema of a preset
//
// Preset Format:
//
// A preset is a small document stored in the config directory as
// <id>.json, <id>.yaml or <id>.yml:
//
//	{
//	  "name": "classic",
//	  "description": "Classic 4x4 board, reach the 2048 tile",
//	  "grid_size": 4,
//	  "win_tile": 2048,
//	  "messages": {
//	    "welcome": "Join the tiles, get to 2048!",
//	    "victory": "You reached %d!",
//	    "game_over": "No more moves. Final score: %d"
//	  }
//	}
//
// Fields left out receive the classic defaults. The win tile must be a power
// of two that the board can actually hold.
//
// Usage:
//
//	manager, err := config.NewManager("configs", logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Load specific configuration
//	gameConfig, err := manager.LoadConfig("mini")
//
//	// Get default configuration ("classic" when present)
//	defaultConfig := manager.GetDefault()
//
//	// List available configurations
//	configs, err := manager.ListConfigs()
package config
