package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writePreset(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestValidateConfig_ValidJSON(t *testing.T) {
	path := writePreset(t, t.TempDir(), "classic.json", `{
		"name": "classic",
		"description": "Classic board",
		"grid_size": 4,
		"win_tile": 2048,
		"messages": {
			"welcome": "Welcome!",
			"victory": "You reached %d!",
			"game_over": "Final score: %d"
		}
	}`)

	result := validateConfig(path)
	if !result.Valid {
		t.Fatalf("Expected valid config, but got errors: %v", result.Errors)
	}
	if result.File != "classic.json" {
		t.Errorf("Expected file name classic.json, got %s", result.File)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "largest possible tile 131072") {
		t.Errorf("Expected a single info line, got %v", result.Errors)
	}
}

func TestValidateConfig_ValidYAMLWithDefaults(t *testing.T) {
	path := writePreset(t, t.TempDir(), "mini.yaml", "name: mini\ngrid_size: 3\nwin_tile: 512\n")

	result := validateConfig(path)
	if !result.Valid {
		t.Errorf("Expected valid config, but got errors: %v", result.Errors)
	}
}

func TestValidateConfig_NameMismatchIsInformational(t *testing.T) {
	path := writePreset(t, t.TempDir(), "quick.json", `{"name": "Quick Game", "win_tile": 256}`)

	result := validateConfig(path)
	if !result.Valid {
		t.Fatalf("Expected valid config, but got errors: %v", result.Errors)
	}
	if !strings.Contains(strings.Join(result.Errors, "\n"), `declares name "Quick Game"`) {
		t.Errorf("Expected a name note, got %v", result.Errors)
	}
}

func TestValidateConfig_InvalidJSON(t *testing.T) {
	path := writePreset(t, t.TempDir(), "broken.json", `{"name": "test", invalid json}`)

	result := validateConfig(path)
	if result.Valid {
		t.Error("Expected invalid config for malformed JSON")
	}
	if len(result.Errors) == 0 || !strings.Contains(result.Errors[0], "json") {
		t.Errorf("Expected a parse error, got %v", result.Errors)
	}
}

func TestValidateConfig_MissingFile(t *testing.T) {
	result := validateConfig(filepath.Join(t.TempDir(), "missing.json"))

	if result.Valid {
		t.Error("Expected invalid result for missing file")
	}
	if len(result.Errors) == 0 || !strings.Contains(result.Errors[0], "Failed to read file") {
		t.Errorf("Expected read error, got %v", result.Errors)
	}
}

func TestValidateConfig_UnsupportedExtension(t *testing.T) {
	path := writePreset(t, t.TempDir(), "preset.toml", `name = "x"`)

	result := validateConfig(path)
	if result.Valid {
		t.Error("Expected invalid result for .toml file")
	}
}

func TestValidateConfig_ReportsEveryProblem(t *testing.T) {
	path := writePreset(t, t.TempDir(), "bad.json", `{
		"name": "",
		"grid_size": 20,
		"win_tile": 100,
		"messages": {"victory": "no placeholder"}
	}`)

	result := validateConfig(path)
	if result.Valid {
		t.Fatal("Expected invalid config")
	}

	joined := strings.Join(result.Errors, "\n")
	for _, want := range []string{"name is required", "grid_size", "win_tile", "messages.victory"} {
		if !strings.Contains(joined, want) {
			t.Errorf("Expected %q among errors, got:\n%s", want, joined)
		}
	}
	if len(result.Errors) < 4 {
		t.Errorf("Expected each problem on its own line, got %d lines", len(result.Errors))
	}
}

func TestValidateConfig_UnreachableWinTile(t *testing.T) {
	path := writePreset(t, t.TempDir(), "tiny.json", `{"name": "tiny", "grid_size": 2, "win_tile": 64}`)

	result := validateConfig(path)
	if result.Valid {
		t.Fatal("Expected 64 to be unreachable on a 2x2 board")
	}
	if !strings.Contains(strings.Join(result.Errors, "\n"), "unreachable") {
		t.Errorf("Expected reachability error, got %v", result.Errors)
	}
}

func TestValidateUniqueIDs(t *testing.T) {
	files := []string{"configs/classic.json", "configs/mini.yaml", "configs/Classic.yml", "configs/mini.json"}

	problems := validateUniqueIDs(files)
	if len(problems) != 2 {
		t.Fatalf("Expected 2 duplicate IDs, got %v", problems)
	}
	if !strings.Contains(problems[0], `"classic"`) || !strings.Contains(problems[1], `"mini"`) {
		t.Errorf("Unexpected problems: %v", problems)
	}

	if problems := validateUniqueIDs([]string{"a.json", "b.yaml"}); len(problems) != 0 {
		t.Errorf("Expected no duplicates, got %v", problems)
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	writePreset(t, dir, "classic.json", `{"name": "classic"}`)
	writePreset(t, dir, "mini.yaml", "name: mini\ngrid_size: 3\nwin_tile: 512\n")
	writePreset(t, dir, "README.md", "not a preset")

	if err := run(dir); err != nil {
		t.Errorf("Expected all presets valid, got %v", err)
	}

	writePreset(t, dir, "classic.yml", "name: classic\n")
	if err := run(dir); err == nil {
		t.Error("Expected duplicate preset IDs to fail")
	}
}

func TestRun_EmptyDir(t *testing.T) {
	if err := run(t.TempDir()); err == nil {
		t.Error("Expected error for directory without presets")
	}
}

func TestRun_RepositoryPresets(t *testing.T) {
	if _, err := os.Stat("../configs"); err != nil {
		t.Skip("configs directory not available")
	}
	if err := run("../configs"); err != nil {
		t.Errorf("Shipped presets should be valid: %v", err)
	}
}
