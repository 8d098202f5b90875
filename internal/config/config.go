// Package config holds all taskmind configuration from ~/.taskmind/config.json.
// This is the single source of truth for configuration; sub-configs are
// accessed through Get* methods that apply defaults for missing values.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config is the on-disk configuration shape.
type Config struct {
	// DataDir is where databases and logs live. Defaults to ~/.taskmind.
	DataDir string `json:"data_dir,omitempty"`

	// HTTPAddr is the serve-mode listen address.
	HTTPAddr string `json:"http_addr,omitempty"`

	// Embedding engine configuration for semantic vector search.
	Embedding *EmbeddingConfig `json:"embedding,omitempty"`

	// Auth settings for users and sessions.
	Auth *AuthConfig `json:"auth,omitempty"`

	// Logging configuration.
	Logging *LoggingConfig `json:"logging,omitempty"`
}

// EmbeddingConfig selects and parameterizes the embedding backend.
type EmbeddingConfig struct {
	// Provider selection: "ollama" (default) or "genai".
	Provider string `json:"provider,omitempty"`

	OllamaEndpoint string `json:"ollama_endpoint,omitempty"`
	OllamaModel    string `json:"ollama_model,omitempty"`

	GenAIAPIKey string `json:"genai_api_key,omitempty"`
	GenAIModel  string `json:"genai_model,omitempty"`
	TaskType    string `json:"task_type,omitempty"`

	// Disabled turns semantic search off entirely; the store falls back
	// to keyword matching.
	Disabled bool `json:"disabled,omitempty"`
}

// AuthConfig parameterizes users and sessions.
type AuthConfig struct {
	// SessionTTLHours is how long a login session stays valid.
	SessionTTLHours int `json:"session_ttl_hours,omitempty"`
}

// LoggingConfig mirrors the logging package's view of config.json.
type LoggingConfig struct {
	DebugMode  bool            `json:"debug_mode"`
	Categories map[string]bool `json:"categories,omitempty"`
	Level      string          `json:"level,omitempty"`
}

// Defaults.
const (
	DefaultHTTPAddr        = ":8080"
	DefaultSessionTTLHours = 30 * 24
)

// DefaultDataDir returns ~/.taskmind, falling back to .taskmind in the
// working directory when the home directory cannot be determined.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".taskmind"
	}
	return filepath.Join(home, ".taskmind")
}

// DefaultConfigPath returns the default path to config.json.
func DefaultConfigPath() string {
	return filepath.Join(DefaultDataDir(), "config.json")
}

// Load reads the config file. A missing file yields an empty config, with
// defaults available through the Get* methods. Environment overrides are
// applied after parsing.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the config as indented JSON, creating the directory if needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides lets the environment win over the file for deploy-time
// settings.
func (c *Config) applyEnvOverrides() {
	if dir := os.Getenv("TASKMIND_DATA_DIR"); dir != "" {
		c.DataDir = dir
	}
	if addr := os.Getenv("TASKMIND_HTTP_ADDR"); addr != "" {
		c.HTTPAddr = addr
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		if c.Embedding == nil {
			c.Embedding = &EmbeddingConfig{}
		}
		c.Embedding.GenAIAPIKey = key
		if c.Embedding.Provider == "" {
			c.Embedding.Provider = "genai"
		}
	}
	if endpoint := os.Getenv("OLLAMA_HOST"); endpoint != "" {
		if c.Embedding == nil {
			c.Embedding = &EmbeddingConfig{}
		}
		c.Embedding.OllamaEndpoint = endpoint
	}
}

// GetDataDir returns the data directory with the default applied.
func (c *Config) GetDataDir() string {
	if c.DataDir != "" {
		return c.DataDir
	}
	return DefaultDataDir()
}

// GetHTTPAddr returns the listen address with the default applied.
func (c *Config) GetHTTPAddr() string {
	if c.HTTPAddr != "" {
		return c.HTTPAddr
	}
	return DefaultHTTPAddr
}

// TasksDBPath returns the task store database path.
func (c *Config) TasksDBPath() string {
	return filepath.Join(c.GetDataDir(), "tasks.db")
}

// UsersDBPath returns the user database path.
func (c *Config) UsersDBPath() string {
	return filepath.Join(c.GetDataDir(), "users.db")
}

// GetEmbedding returns the embedding config with defaults applied.
func (c *Config) GetEmbedding() EmbeddingConfig {
	cfg := EmbeddingConfig{}
	if c.Embedding != nil {
		cfg = *c.Embedding
	}
	if cfg.Provider == "" {
		cfg.Provider = "ollama"
	}
	if cfg.OllamaEndpoint == "" {
		cfg.OllamaEndpoint = "http://localhost:11434"
	}
	if cfg.OllamaModel == "" {
		cfg.OllamaModel = "embeddinggemma"
	}
	if cfg.GenAIModel == "" {
		cfg.GenAIModel = "gemini-embedding-001"
	}
	if cfg.TaskType == "" {
		cfg.TaskType = "SEMANTIC_SIMILARITY"
	}
	return cfg
}

// GetSessionTTL returns the session lifetime with the default applied.
func (c *Config) GetSessionTTL() time.Duration {
	if c.Auth != nil && c.Auth.SessionTTLHours > 0 {
		return time.Duration(c.Auth.SessionTTLHours) * time.Hour
	}
	return DefaultSessionTTLHours * time.Hour
}

// GetLogging returns logging settings with defaults applied. DebugMode
// defaults to false so a missing config means no log files.
func (c *Config) GetLogging() LoggingConfig {
	if c.Logging != nil {
		cfg := *c.Logging
		if cfg.Level == "" {
			cfg.Level = "info"
		}
		return cfg
	}
	return LoggingConfig{Level: "info"}
}

// IsCategoryEnabled reports whether a log category should emit. Categories
// not listed are enabled by default when debug mode is on.
func (l *LoggingConfig) IsCategoryEnabled(category string) bool {
	if !l.DebugMode {
		return false
	}
	if l.Categories == nil {
		return true
	}
	enabled, ok := l.Categories[category]
	if !ok {
		return true
	}
	return enabled
}
