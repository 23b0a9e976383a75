package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	koanftoml "github.com/knadh/koanf/parsers/toml/v2"
	koanfenv "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
)

const (
	envPrefix    = "ORCHAT_"
	apiKeyEnvVar = "OPENROUTER_API_KEY"

	defaultSystemPrompt = "You are a helpful AI assistant."
	defaultBaseURL      = "https://openrouter.ai/api/v1"
)

var (
	// ErrMissingAPIKey is returned when no OpenRouter API key can be found
	ErrMissingAPIKey = errors.New("OPENROUTER_API_KEY is not set. Export it or run `orchat key set`")
	// ErrDuplicateModel is returned when adding a model id that is already in the catalog
	ErrDuplicateModel = errors.New("model already exists")
)

// Model is a catalog entry
type Model struct {
	ID   string `koanf:"id"`
	Name string `koanf:"name"`
}

// Config represents the application configuration structure
type Config struct {
	SystemPrompt string           `koanf:"system_prompt"`
	DefaultModel string           `koanf:"default_model"`
	OpenRouter   OpenRouterConfig `koanf:"openrouter"`
	Storage      StorageConfig    `koanf:"storage"`
	Logging      LoggingConfig    `koanf:"logging"`
	UI           UIConfig         `koanf:"ui"`
	History      HistoryConfig    `koanf:"history"`
	Models       []Model          `koanf:"models"`

	// path is the user config file that catalog changes are written to
	path string
}

// OpenRouterConfig holds API settings
type OpenRouterConfig struct {
	BaseURL     string  `koanf:"base_url"`
	APIKey      string  `koanf:"api_key"`
	Referer     string  `koanf:"referer"`
	Title       string  `koanf:"title"`
	Temperature float64 `koanf:"temperature"`
	MaxTokens   int     `koanf:"max_tokens"`
}

// StorageConfig holds storage locations
type StorageConfig struct {
	ConversationsDir string `koanf:"conversations_dir"`
	DatabasePath     string `koanf:"database_path"` // Path to SQLite database
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `koanf:"level"`
}

// UIConfig holds UI-specific configuration
type UIConfig struct {
	MarkdownEnabled bool `koanf:"markdown_enabled"`
}

// HistoryConfig holds prompt history configuration
type HistoryConfig struct {
	Enabled    bool `koanf:"enabled"`
	MaxEntries int  `koanf:"max_entries"`
	MaxAgeDays int  `koanf:"max_age_days"`
}

func dataDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".local", "share", "orchat")
}

// defaultConfigPath returns ~/.config/orchat/config.toml
func defaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".orchat", "config.toml")
	}
	return filepath.Join(homeDir, ".config", "orchat", "config.toml")
}

// defaultConfig returns the configuration populated with sensible defaults.
// Models are filled in after loading so a configured catalog replaces them.
func defaultConfig() Config {
	return Config{
		SystemPrompt: defaultSystemPrompt,
		OpenRouter: OpenRouterConfig{
			BaseURL:     defaultBaseURL,
			Referer:     "https://github.com/afittestide/orchat",
			Title:       "orchat",
			Temperature: 0.7,
			MaxTokens:   4000,
		},
		Storage: StorageConfig{
			ConversationsDir: filepath.Join(dataDir(), "conversations"),
			DatabasePath:     filepath.Join(dataDir(), "orchat.sqlite"),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		UI: UIConfig{
			MarkdownEnabled: true,
		},
		History: HistoryConfig{
			Enabled:    true,
			MaxEntries: 500,
			MaxAgeDays: 90,
		},
	}
}

func defaultModels() []Model {
	return []Model{
		{ID: "openai/gpt-4", Name: "GPT-4"},
		{ID: "openai/gpt-3.5-turbo", Name: "GPT-3.5 Turbo"},
		{ID: "anthropic/claude-3-sonnet", Name: "Claude 3 Sonnet"},
	}
}

// LoadConfig loads configuration from defaults, the user config file and
// ORCHAT_ environment variables. An empty path selects the default location.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = defaultConfigPath()
	}

	k := koanf.New(".")

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), koanftoml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		slog.Warn("unable to stat config file", "path", path, "error", err)
	}

	// ORCHAT_OPENROUTER__BASE_URL becomes "openrouter.base_url"
	if err := k.Load(koanfenv.Provider(".", koanfenv.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(key, envPrefix)), "__", ".")
			return key, value
		},
	}), nil); err != nil {
		slog.Warn("failed to load environment variables", "error", err)
	}

	config := defaultConfig()
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.path = path

	config.Models = dedupeModels(config.Models)
	if len(config.Models) == 0 {
		config.Models = defaultModels()
	}
	if config.DefaultModel == "" || config.FindModel(config.DefaultModel) == nil {
		config.DefaultModel = config.Models[0].ID
	}
	if strings.TrimSpace(config.SystemPrompt) == "" {
		config.SystemPrompt = defaultSystemPrompt
	}

	config.OpenRouter.APIKey = resolveAPIKey(config.OpenRouter.APIKey)
	return &config, nil
}

// resolveAPIKey prefers the environment, then the config file, then the keyring
func resolveAPIKey(fromFile string) string {
	if key := strings.TrimSpace(os.Getenv(apiKeyEnvVar)); key != "" {
		return key
	}
	if fromFile != "" {
		return fromFile
	}
	key, err := GetAPIKeyFromKeyring(keyringProvider)
	if err != nil {
		slog.Debug("keyring lookup failed", "error", err)
		return ""
	}
	return key
}

// dedupeModels drops entries with empty or repeated ids, keeping the first
func dedupeModels(models []Model) []Model {
	seen := make(map[string]bool, len(models))
	out := make([]Model, 0, len(models))
	for _, m := range models {
		m.ID = strings.TrimSpace(m.ID)
		if m.ID == "" || seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		if strings.TrimSpace(m.Name) == "" {
			m.Name = m.ID
		}
		out = append(out, m)
	}
	return out
}

// Path returns the config file used for persisting catalog changes
func (c *Config) Path() string {
	return c.path
}

// FindModel returns the catalog entry for id, or nil
func (c *Config) FindModel(id string) *Model {
	for i := range c.Models {
		if c.Models[i].ID == id {
			return &c.Models[i]
		}
	}
	return nil
}

// AddModel appends a model to the catalog and persists the catalog
func (c *Config) AddModel(m Model) error {
	m.ID = strings.TrimSpace(m.ID)
	m.Name = strings.TrimSpace(m.Name)
	if m.ID == "" {
		return fmt.Errorf("model id cannot be empty")
	}
	if m.Name == "" {
		m.Name = m.ID
	}
	if c.FindModel(m.ID) != nil {
		return fmt.Errorf("%w: %s", ErrDuplicateModel, m.ID)
	}

	models := append(append([]Model(nil), c.Models...), m)
	if err := SaveModels(c.path, models); err != nil {
		return err
	}
	c.Models = models
	slog.Info("model added to catalog", "id", m.ID, "name", m.Name)
	return nil
}

// SaveModels rewrites the models catalog in the config file at path,
// preserving every other setting in that file
func SaveModels(path string, models []Model) error {
	if path == "" {
		return fmt.Errorf("no config file to save models to")
	}

	k := koanf.New(".")
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), koanftoml.Parser()); err != nil {
			return fmt.Errorf("failed to load existing config: %w", err)
		}
	}

	entries := make([]map[string]any, 0, len(models))
	for _, m := range models {
		entries = append(entries, map[string]any{"id": m.ID, "name": m.Name})
	}
	if err := k.Set("models", entries); err != nil {
		return fmt.Errorf("failed to update models in config: %w", err)
	}

	data, err := k.Marshal(koanftoml.Parser())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
