package main

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/afittestide/orchat/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// withCLI sets command line flags for the duration of a test
func withCLI(t *testing.T, configPath, conversationsDir, model string) {
	t.Helper()
	saved := cli
	t.Cleanup(func() { cli = saved })
	cli.Config = configPath
	cli.ConversationsDir = conversationsDir
	cli.Model = model
	cli.Debug = false
}

func TestProvideConfigOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(apiKeyEnvVar, "sk-or-env")

	t.Run("known model", func(t *testing.T) {
		withCLI(t, filepath.Join(dir, "missing.toml"), filepath.Join(dir, "chats"), "anthropic/claude-3-sonnet")
		cfg, err := ProvideConfig(discardLogger())
		require.NoError(t, err)
		assert.Equal(t, "anthropic/claude-3-sonnet", cfg.DefaultModel)
		assert.Equal(t, filepath.Join(dir, "chats"), cfg.Storage.ConversationsDir)
		assert.Len(t, cfg.Models, 3)
		assert.Equal(t, "sk-or-env", cfg.OpenRouter.APIKey)
	})

	t.Run("unknown model joins the session catalog", func(t *testing.T) {
		withCLI(t, filepath.Join(dir, "missing.toml"), "", "qwen/qwen-2-72b")
		cfg, err := ProvideConfig(discardLogger())
		require.NoError(t, err)
		assert.Equal(t, "qwen/qwen-2-72b", cfg.DefaultModel)
		require.NotNil(t, cfg.FindModel("qwen/qwen-2-72b"))
		assert.Len(t, cfg.Models, 4)
	})
}

func TestProvideConfigMissingKey(t *testing.T) {
	t.Setenv(apiKeyEnvVar, "")
	withCLI(t, filepath.Join(t.TempDir(), "missing.toml"), "", "")

	_, err := ProvideConfig(discardLogger())
	require.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		level slog.Level
		known bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{"", slog.LevelInfo, true},
		{"warning", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"verbose", slog.LevelInfo, false},
	}
	for _, tt := range tests {
		level, known := parseLogLevel(tt.input)
		assert.Equal(t, tt.level, level, tt.input)
		assert.Equal(t, tt.known, known, tt.input)
	}
}

// TestStorageClosedOnStop verifies that stopping the app closes the database
func TestStorageClosedOnStop(t *testing.T) {
	cfg := mockConfig(t)
	cfg.History.Enabled = true

	var db *storage.DB
	var history *storage.HistoryStore
	app := fxtest.New(t,
		fx.Supply(cfg, discardLogger()),
		fx.Provide(ProvideStorage, ProvideHistoryStore),
		fx.Populate(&db, &history),
	)
	app.RequireStart()

	require.NotNil(t, history)
	require.NoError(t, history.AppendPrompt("hello", "openai/gpt-4"))
	_, err := db.Stats()
	require.NoError(t, err)

	app.RequireStop()
	_, err = db.Stats()
	require.Error(t, err)
}

func TestHistoryStoreDisabled(t *testing.T) {
	cfg := mockConfig(t)
	db, err := storage.InitDB(cfg.Storage.DatabasePath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	assert.Nil(t, ProvideHistoryStore(db, cfg, discardLogger()))
}

func TestProvideTUIModelWithoutHistory(t *testing.T) {
	cfg := mockConfig(t)

	var model *TUIModel
	app := fxtest.New(t,
		fx.Supply(cfg, discardLogger()),
		fx.Provide(
			ProvideConversationStore,
			func() Completer { return &stubCompleter{} },
			ProvideTUIModel,
		),
		fx.Populate(&model),
	)
	app.RequireStart()
	defer app.RequireStop()

	require.NotNil(t, model)
	assert.Nil(t, model.history)
	assert.Equal(t, cfg.Storage.ConversationsDir, model.store.Dir())
}

func TestClearPromptHistory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.sqlite")
	db, err := storage.InitDB(dbPath)
	require.NoError(t, err)
	history := storage.NewHistoryStore(db, storage.HistoryConfig{})
	require.NoError(t, history.AppendPrompt("one", "openai/gpt-4"))
	require.NoError(t, history.AppendPrompt("two", "openai/gpt-4"))
	require.NoError(t, db.Close())

	removed, err := clearPromptHistory(dbPath)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	db, err = storage.InitDB(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	stats, err := db.Stats()
	require.NoError(t, err)
	assert.Zero(t, stats["prompt_history"])
}
