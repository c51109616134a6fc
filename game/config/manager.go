package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/inconshreveable/log15/v3"
	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"

	"github.com/wricardo/slide2048/game/engine"
	"github.com/wricardo/slide2048/game/service"
)

var (
	ErrConfigNotFound = service.ErrConfigNotFound
	ErrInvalidConfig  = service.ErrInvalidConfig
	ErrInvalidName    = errors.New("invalid configuration name")
)

// DefaultConfigName is the preset used when a session does not ask for one
const DefaultConfigName = "classic"

// Extensions lists the preset file extensions in lookup order
var Extensions = []string{".json", ".yaml", ".yml"}

// Manager handles game configuration loading and caching
type Manager struct {
	configDir     string
	defaultConfig *engine.GameConfig
	configs       map[string]*engine.GameConfig
	schema        *jsonschema.Schema
	logger        log15.Logger
	mu            sync.RWMutex
}

// NewManager creates a new configuration manager over configDir. A nil
// logger discards output.
func NewManager(configDir string, logger log15.Logger) (*Manager, error) {
	// Ensure config directory exists
	if info, err := os.Stat(configDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("config directory does not exist: %s", configDir)
	}
	if logger == nil {
		logger = log15.New()
		logger.SetHandler(log15.DiscardHandler())
	}

	m := &Manager{
		configDir: configDir,
		configs:   make(map[string]*engine.GameConfig),
		schema:    buildSchema(),
		logger:    logger,
	}

	m.loadDefaultConfig()
	return m, nil
}

// Dir returns the directory presets are read from
func (m *Manager) Dir() string {
	return m.configDir
}

// LoadConfig loads a configuration by name. The name may carry one of the
// supported extensions; without one, .json, .yaml and .yml are tried in turn.
func (m *Manager) LoadConfig(name string) (*engine.GameConfig, error) {
	id, err := configID(name)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	// Check cache first
	if config, exists := m.configs[id]; exists {
		m.mu.RUnlock()
		return config, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if config, exists := m.configs[id]; exists {
		return config, nil
	}

	path, err := m.resolve(name)
	if err != nil {
		return nil, err
	}

	config, err := engine.LoadGameConfig(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, filepath.Base(path), err)
	}

	m.configs[id] = config
	m.logger.Debug("config loaded", "config", id, "file", filepath.Base(path))
	return config, nil
}

// resolve finds the preset file for name
func (m *Manager) resolve(name string) (string, error) {
	candidates := []string{name}
	if !hasExtension(name) {
		candidates = candidates[:0]
		for _, ext := range Extensions {
			candidates = append(candidates, name+ext)
		}
	}

	for _, candidate := range candidates {
		path := filepath.Join(m.configDir, candidate)
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			return path, nil
		}
		if err != nil && !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return "", ErrConfigNotFound
}

// ListConfigs returns information about all available configurations.
// Invalid files are skipped; when a name exists in several formats only the
// first in Extensions order is listed.
func (m *Manager) ListConfigs() ([]*service.ConfigInfo, error) {
	entries, err := os.ReadDir(m.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	byID := make(map[string]string)
	var order []string
	for _, ext := range Extensions {
		for _, entry := range entries {
			if entry.IsDir() || filepath.Ext(entry.Name()) != ext {
				continue
			}
			id := strings.TrimSuffix(entry.Name(), ext)
			if _, seen := byID[id]; seen {
				continue
			}
			byID[id] = entry.Name()
			order = append(order, id)
		}
	}

	sort.Strings(order)

	var configs []*service.ConfigInfo
	for _, id := range order {
		filename := byID[id]
		config, err := m.LoadConfig(filename)
		if err != nil {
			m.logger.Warn("skipping invalid config", "file", filename, "err", err)
			continue
		}

		configs = append(configs, &service.ConfigInfo{
			Filename:    filename,
			ConfigID:    id,
			Name:        config.Name,
			Description: config.Description,
			GridSize:    config.GridSize,
			WinTile:     config.WinTile,
		})
	}

	return configs, nil
}

// GetDefault returns the default configuration
func (m *Manager) GetDefault() *engine.GameConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultConfig
}

// SetDefault sets the default configuration by name
func (m *Manager) SetDefault(name string) error {
	config, err := m.LoadConfig(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultConfig = config
	return nil
}

// RefreshCache drops all cached configurations so the next load reads disk
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	m.configs = make(map[string]*engine.GameConfig)
	m.mu.Unlock()

	m.loadDefaultConfig()
}

// loadDefaultConfig picks classic, else the first valid preset, else the
// built-in classic board
func (m *Manager) loadDefaultConfig() {
	config, err := m.LoadConfig(DefaultConfigName)
	if err != nil {
		config = nil
		if configs, listErr := m.ListConfigs(); listErr == nil && len(configs) > 0 {
			config, _ = m.LoadConfig(configs[0].Filename)
		}
	}
	if config == nil {
		m.logger.Info("no preset found, using built-in default", "dir", m.configDir)
		config = engine.DefaultGameConfig()
	}

	m.mu.Lock()
	m.defaultConfig = config
	m.mu.Unlock()
}

// SaveConfig validates a configuration and writes it to disk. The format
// follows the extension of name and defaults to JSON.
func (m *Manager) SaveConfig(name string, config *engine.GameConfig) error {
	id, err := configID(name)
	if err != nil {
		return err
	}
	if config == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}

	config.ApplyDefaults()
	if err := engine.ValidateGameConfig(config); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	filename := name
	if !hasExtension(filename) {
		filename = name + ".json"
	}

	var data []byte
	switch filepath.Ext(filename) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(config)
	default:
		data, err = json.MarshalIndent(config, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	configPath := filepath.Join(m.configDir, filename)
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	m.mu.Lock()
	m.configs[id] = config
	m.mu.Unlock()

	m.logger.Info("config saved", "config", id, "file", filename)
	return nil
}

// Schema returns the JSON schema of a preset document
func (m *Manager) Schema() *jsonschema.Schema {
	return m.schema
}

// Count returns the number of cached configurations
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.configs)
}

func buildSchema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}
	schema := r.Reflect(&engine.GameConfig{})
	schema.Title = "2048 game preset"
	schema.Description = "Board size, target tile and player-facing messages of a 2048 game"
	return schema
}

// configID strips a supported extension and rejects names that would escape
// the config directory
func configID(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	for _, ext := range Extensions {
		if strings.HasSuffix(name, ext) {
			return strings.TrimSuffix(name, ext), nil
		}
	}
	return name, nil
}

func hasExtension(name string) bool {
	for _, ext := range Extensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
