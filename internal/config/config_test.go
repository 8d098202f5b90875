package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks the override variables so ambient environment does not
// leak into assertions.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"TASKMIND_DATA_DIR", "TASKMIND_HTTP_ADDR", "GEMINI_API_KEY", "OLLAMA_HOST"} {
		t.Setenv(key, "")
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)

	assert.Equal(t, DefaultHTTPAddr, cfg.GetHTTPAddr())
	assert.Equal(t, DefaultSessionTTLHours*time.Hour, cfg.GetSessionTTL())

	emb := cfg.GetEmbedding()
	assert.Equal(t, "ollama", emb.Provider)
	assert.Equal(t, "http://localhost:11434", emb.OllamaEndpoint)
	assert.Equal(t, "embeddinggemma", emb.OllamaModel)
	assert.Equal(t, "gemini-embedding-001", emb.GenAIModel)
	assert.Equal(t, "SEMANTIC_SIMILARITY", emb.TaskType)

	logCfg := cfg.GetLogging()
	assert.False(t, logCfg.DebugMode)
	assert.Equal(t, "info", logCfg.Level)
}

func TestLoadInvalidJSON(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := &Config{
		DataDir:  "/srv/taskmind",
		HTTPAddr: ":9090",
		Embedding: &EmbeddingConfig{
			Provider:    "genai",
			GenAIAPIKey: "test-key",
		},
		Auth:    &AuthConfig{SessionTTLHours: 48},
		Logging: &LoggingConfig{DebugMode: true, Level: "debug"},
	}
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/taskmind", loaded.GetDataDir())
	assert.Equal(t, ":9090", loaded.GetHTTPAddr())
	assert.Equal(t, 48*time.Hour, loaded.GetSessionTTL())

	emb := loaded.GetEmbedding()
	assert.Equal(t, "genai", emb.Provider)
	assert.Equal(t, "test-key", emb.GenAIAPIKey)
	// Unset fields still pick up defaults.
	assert.Equal(t, "gemini-embedding-001", emb.GenAIModel)

	logCfg := loaded.GetLogging()
	assert.True(t, logCfg.DebugMode)
	assert.Equal(t, "debug", logCfg.Level)
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TASKMIND_DATA_DIR", "/tmp/override")
	t.Setenv("TASKMIND_HTTP_ADDR", ":7070")
	t.Setenv("GEMINI_API_KEY", "env-key")

	cfg, err := Load(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/override", cfg.GetDataDir())
	assert.Equal(t, ":7070", cfg.GetHTTPAddr())

	emb := cfg.GetEmbedding()
	assert.Equal(t, "env-key", emb.GenAIAPIKey)
	assert.Equal(t, "genai", emb.Provider, "GEMINI_API_KEY implies the genai provider when none is set")
}

func TestEnvDoesNotOverrideExplicitProvider(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "env-key")

	path := filepath.Join(t.TempDir(), "config.json")
	cfg := &Config{Embedding: &EmbeddingConfig{Provider: "ollama"}}
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ollama", loaded.GetEmbedding().Provider)
	assert.Equal(t, "env-key", loaded.GetEmbedding().GenAIAPIKey)
}

func TestDBPaths(t *testing.T) {
	clearEnv(t)

	cfg := &Config{DataDir: "/data"}
	assert.Equal(t, filepath.Join("/data", "tasks.db"), cfg.TasksDBPath())
	assert.Equal(t, filepath.Join("/data", "users.db"), cfg.UsersDBPath())
}

func TestIsCategoryEnabled(t *testing.T) {
	off := LoggingConfig{}
	assert.False(t, off.IsCategoryEnabled("store"))

	allOn := LoggingConfig{DebugMode: true}
	assert.True(t, allOn.IsCategoryEnabled("store"))

	selective := LoggingConfig{
		DebugMode:  true,
		Categories: map[string]bool{"store": false},
	}
	assert.False(t, selective.IsCategoryEnabled("store"))
	assert.True(t, selective.IsCategoryEnabled("web"))
}

func TestWatcherReload(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, (&Config{HTTPAddr: ":1111"}).Save(path))

	reloaded := make(chan *Config, 4)
	w, err := NewWatcher(path, func(cfg *Config) { reloaded <- cfg })
	require.NoError(t, err)
	w.debounceDur = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	require.NoError(t, (&Config{HTTPAddr: ":2222"}).Save(path))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, ":2222", cfg.GetHTTPAddr())
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}
}
