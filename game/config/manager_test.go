package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/wricardo/slide2048/game/engine"
)

func createValidConfig() *engine.GameConfig {
	return &engine.GameConfig{
		Name:        "Test Config",
		Description: "Test configuration",
		GridSize:    4,
		WinTile:     2048,
		Messages: engine.Messages{
			Welcome:  "Welcome!",
			Victory:  "Reached %d!",
			GameOver: "Game over, score %d",
			NoChange: "Nothing moved",
			Moved:    "Score: %d",
		},
	}
}

func writeConfigFile(t *testing.T, dir, name string, config *engine.GameConfig) {
	t.Helper()
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal config: %v", err)
	}

	filename := name
	if filepath.Ext(filename) == "" {
		filename = name + ".json"
	}

	if err := os.WriteFile(filepath.Join(dir, filename), data, 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
}

func writeRaw(t *testing.T, dir, filename, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, filename), []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", filename, err)
	}
}

func TestNewManager(t *testing.T) {
	t.Run("valid directory", func(t *testing.T) {
		dir := t.TempDir()

		classic := createValidConfig()
		classic.Name = "Classic"
		writeConfigFile(t, dir, "classic", classic)

		manager, err := NewManager(dir, nil)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if manager.GetDefault().Name != "Classic" {
			t.Errorf("Expected classic preset as default, got %q", manager.GetDefault().Name)
		}
		if manager.Dir() != dir {
			t.Errorf("Expected dir %s, got %s", dir, manager.Dir())
		}
	})

	t.Run("non-existent directory", func(t *testing.T) {
		_, err := NewManager("/non/existent/path", nil)
		if err == nil {
			t.Error("Expected error for non-existent directory")
		}
	})

	t.Run("file instead of directory", func(t *testing.T) {
		dir := t.TempDir()
		writeRaw(t, dir, "plain.txt", "x")
		if _, err := NewManager(filepath.Join(dir, "plain.txt"), nil); err == nil {
			t.Error("Expected error for a file path")
		}
	})

	t.Run("empty directory falls back to built-in default", func(t *testing.T) {
		manager, err := NewManager(t.TempDir(), nil)
		if err != nil {
			t.Fatalf("NewManager should succeed without config files, got error: %v", err)
		}

		def := manager.GetDefault()
		if def == nil {
			t.Fatal("Expected default config to be available")
		}
		if def.GridSize != engine.DefaultGridSize || def.WinTile != engine.DefaultWinTile {
			t.Errorf("Expected the classic built-in board, got %dx%d to %d", def.GridSize, def.GridSize, def.WinTile)
		}
	})

	t.Run("first preset when classic is missing", func(t *testing.T) {
		dir := t.TempDir()
		b := createValidConfig()
		b.Name = "Bravo"
		writeConfigFile(t, dir, "bravo", b)
		a := createValidConfig()
		a.Name = "Alpha"
		writeConfigFile(t, dir, "alpha", a)

		manager, err := NewManager(dir, nil)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if manager.GetDefault().Name != "Alpha" {
			t.Errorf("Expected Alpha, got %q", manager.GetDefault().Name)
		}
	})
}

func TestManager_LoadConfig(t *testing.T) {
	dir := t.TempDir()

	classic := createValidConfig()
	classic.Name = "Classic"
	writeConfigFile(t, dir, "classic", classic)

	big := createValidConfig()
	big.Name = "Big"
	big.GridSize = 6
	big.WinTile = 8192
	writeConfigFile(t, dir, "big", big)

	writeRaw(t, dir, "tiny.yaml", `
name: Tiny
grid_size: 3
win_tile: 256
messages:
  welcome: Small board
  victory: "Made %d"
  game_over: "Final %d"
`)

	manager, err := NewManager(dir, nil)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	t.Run("load existing config", func(t *testing.T) {
		config, err := manager.LoadConfig("big")
		if err != nil {
			t.Fatalf("Failed to load config: %v", err)
		}
		if config.Name != "Big" || config.GridSize != 6 {
			t.Errorf("Unexpected config %+v", config)
		}
	})

	t.Run("load with .json extension", func(t *testing.T) {
		config, err := manager.LoadConfig("big.json")
		if err != nil {
			t.Fatalf("Failed to load config with extension: %v", err)
		}
		if config.Name != "Big" {
			t.Errorf("Expected config name 'Big', got '%s'", config.Name)
		}
	})

	t.Run("load yaml preset", func(t *testing.T) {
		config, err := manager.LoadConfig("tiny")
		if err != nil {
			t.Fatalf("Failed to load yaml config: %v", err)
		}
		if config.GridSize != 3 || config.WinTile != 256 {
			t.Errorf("Unexpected yaml config %+v", config)
		}
		if config.Messages.NoChange == "" {
			t.Error("Expected default no_change message to be filled in")
		}
	})

	t.Run("load from cache", func(t *testing.T) {
		config1, _ := manager.LoadConfig("big")
		config2, err := manager.LoadConfig("big.json")
		if err != nil {
			t.Fatalf("Failed to load config from cache: %v", err)
		}
		if config1 != config2 {
			t.Error("Expected config to be loaded from cache")
		}
	})

	t.Run("load non-existent config", func(t *testing.T) {
		_, err := manager.LoadConfig("non-existent")
		if err != ErrConfigNotFound {
			t.Errorf("Expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("reject path traversal", func(t *testing.T) {
		for _, name := range []string{"../secret", "a/b", ".hidden", ""} {
			if _, err := manager.LoadConfig(name); !errors.Is(err, ErrInvalidName) {
				t.Errorf("Expected ErrInvalidName for %q, got %v", name, err)
			}
		}
	})

	t.Run("load invalid config", func(t *testing.T) {
		writeRaw(t, dir, "invalid.json", `{"name": "", "win_tile": 1000}`)

		_, err := manager.LoadConfig("invalid")
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("load malformed JSON", func(t *testing.T) {
		writeRaw(t, dir, "malformed.json", `{"name": "Malformed", invalid json}`)

		if _, err := manager.LoadConfig("malformed"); err == nil {
			t.Error("Expected error for malformed JSON")
		}
	})
}

func TestManager_ListConfigs(t *testing.T) {
	dir := t.TempDir()

	configs := []struct {
		filename string
		name     string
	}{
		{"classic", "Classic"},
		{"easy", "Easy"},
		{"medium", "Medium"},
		{"hard", "Hard"},
	}

	for _, cfg := range configs {
		config := createValidConfig()
		config.Name = cfg.name
		writeConfigFile(t, dir, cfg.filename, config)
	}

	writeRaw(t, dir, "readme.txt", "readme")
	writeRaw(t, dir, "broken.json", "{")
	// Same ID as the JSON preset; JSON wins
	writeRaw(t, dir, "easy.yaml", "name: Easy YAML\n")
	writeRaw(t, dir, "mini.yml", "name: Mini\ngrid_size: 3\nwin_tile: 128\n")

	manager, err := NewManager(dir, nil)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	configList, err := manager.ListConfigs()
	if err != nil {
		t.Fatalf("Failed to list configs: %v", err)
	}

	var ids []string
	for _, info := range configList {
		ids = append(ids, info.ConfigID)
	}
	want := "classic,easy,hard,medium,mini"
	if got := strings.Join(ids, ","); got != want {
		t.Errorf("Expected ids %s, got %s", want, got)
	}

	for _, info := range configList {
		switch info.ConfigID {
		case "easy":
			if info.Name != "Easy" || info.Filename != "easy.json" {
				t.Errorf("Expected JSON easy preset, got %+v", info)
			}
		case "mini":
			if info.GridSize != 3 || info.WinTile != 128 || info.Filename != "mini.yml" {
				t.Errorf("Unexpected mini preset %+v", info)
			}
		}
	}
}

func TestManager_SaveConfig(t *testing.T) {
	dir := t.TempDir()
	manager, err := NewManager(dir, nil)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	t.Run("json", func(t *testing.T) {
		config := createValidConfig()
		config.Name = "Saved"
		if err := manager.SaveConfig("saved", config); err != nil {
			t.Fatalf("SaveConfig: %v", err)
		}
		loaded, err := engine.LoadGameConfig(filepath.Join(dir, "saved.json"))
		if err != nil {
			t.Fatalf("Saved file does not load: %v", err)
		}
		if loaded.Name != "Saved" {
			t.Errorf("Expected Saved, got %s", loaded.Name)
		}
	})

	t.Run("yaml", func(t *testing.T) {
		config := createValidConfig()
		config.Name = "Saved YAML"
		config.GridSize = 5
		if err := manager.SaveConfig("saved-yaml.yaml", config); err != nil {
			t.Fatalf("SaveConfig: %v", err)
		}
		data, err := os.ReadFile(filepath.Join(dir, "saved-yaml.yaml"))
		if err != nil {
			t.Fatalf("ReadFile: %v", err)
		}
		if !strings.Contains(string(data), "grid_size: 5") {
			t.Errorf("Expected YAML output, got:\n%s", data)
		}
		cached, err := manager.LoadConfig("saved-yaml")
		if err != nil || cached != config {
			t.Errorf("Expected saved config to be cached, got %v", err)
		}
	})

	t.Run("fills defaults", func(t *testing.T) {
		config := &engine.GameConfig{Name: "Bare"}
		if err := manager.SaveConfig("bare", config); err != nil {
			t.Fatalf("SaveConfig: %v", err)
		}
		if config.GridSize != engine.DefaultGridSize || config.Messages.Welcome == "" {
			t.Errorf("Expected defaults to be applied, got %+v", config)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		config := createValidConfig()
		config.WinTile = 100
		if err := manager.SaveConfig("bad", config); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Expected ErrInvalidConfig, got %v", err)
		}
		if _, err := os.Stat(filepath.Join(dir, "bad.json")); !os.IsNotExist(err) {
			t.Error("Invalid config must not be written")
		}
	})

	t.Run("bad name", func(t *testing.T) {
		if err := manager.SaveConfig("../escape", createValidConfig()); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Expected ErrInvalidName, got %v", err)
		}
	})
}

func TestManager_RefreshCache(t *testing.T) {
	dir := t.TempDir()

	config := createValidConfig()
	config.Name = "Changeable"
	writeConfigFile(t, dir, "changeable", config)

	manager, err := NewManager(dir, nil)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	loaded, _ := manager.LoadConfig("changeable")
	if loaded.WinTile != 2048 {
		t.Errorf("Expected initial win tile 2048, got %d", loaded.WinTile)
	}

	config.WinTile = 512
	writeConfigFile(t, dir, "changeable", config)

	manager.RefreshCache()

	reloaded, _ := manager.LoadConfig("changeable")
	if reloaded.WinTile != 512 {
		t.Errorf("Expected reloaded win tile 512, got %d", reloaded.WinTile)
	}
}

func TestManager_SetDefault(t *testing.T) {
	dir := t.TempDir()
	small := createValidConfig()
	small.Name = "Small"
	small.GridSize = 3
	small.WinTile = 512
	writeConfigFile(t, dir, "small", small)

	manager, err := NewManager(dir, nil)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if err := manager.SetDefault("small"); err != nil {
		t.Fatalf("SetDefault: %v", err)
	}
	if manager.GetDefault().Name != "Small" {
		t.Errorf("Expected Small, got %s", manager.GetDefault().Name)
	}
	if err := manager.SetDefault("missing"); err != ErrConfigNotFound {
		t.Errorf("Expected ErrConfigNotFound, got %v", err)
	}
}

func TestManager_Schema(t *testing.T) {
	manager, err := NewManager(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	data, err := json.Marshal(manager.Schema())
	if err != nil {
		t.Fatalf("Failed to marshal schema: %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Schema is not JSON: %v", err)
	}

	props, ok := doc["properties"].(map[string]any)
	if !ok {
		t.Fatalf("Expected properties in schema, got %v", doc)
	}
	for _, field := range []string{"name", "grid_size", "win_tile", "messages"} {
		if _, ok := props[field]; !ok {
			t.Errorf("Expected %s in schema properties", field)
		}
	}

	required, _ := doc["required"].([]any)
	if len(required) != 1 || required[0] != "name" {
		t.Errorf("Expected only name to be required, got %v", required)
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	dir := t.TempDir()

	for i := 1; i <= 5; i++ {
		config := createValidConfig()
		config.Name = "Config" + string(rune('0'+i))
		writeConfigFile(t, dir, "config"+string(rune('0'+i)), config)
	}

	manager, err := NewManager(dir, nil)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 50)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			configName := "config" + string(rune('0'+((id%5)+1)))
			if _, err := manager.LoadConfig(configName); err != nil {
				errs <- err
			}
		}(i)
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Unexpected error during concurrent access: %v", err)
	}

	if manager.Count() != 5 {
		t.Errorf("Expected 5 configs in cache, got %d", manager.Count())
	}
}
