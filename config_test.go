package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gokeyring "github.com/zalando/go-keyring"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	gokeyring.MockInit()
	t.Setenv("HOME", t.TempDir())
	t.Setenv(apiKeyEnvVar, "")

	t.Run("load with defaults", func(t *testing.T) {
		config, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
		require.NoError(t, err)
		assert.Equal(t, defaultSystemPrompt, config.SystemPrompt)
		assert.Equal(t, defaultBaseURL, config.OpenRouter.BaseURL)
		assert.Equal(t, 0.7, config.OpenRouter.Temperature)
		assert.Equal(t, 4000, config.OpenRouter.MaxTokens)
		assert.True(t, config.History.Enabled)
		assert.True(t, config.UI.MarkdownEnabled)
		assert.Equal(t, defaultModels(), config.Models)
		assert.Equal(t, "openai/gpt-4", config.DefaultModel)
		assert.Empty(t, config.OpenRouter.APIKey)
	})

	t.Run("load from file", func(t *testing.T) {
		path := writeConfigFile(t, `system_prompt = "Be terse."
default_model = "mistralai/mistral-large"

[openrouter]
api_key = "file-key"
max_tokens = 1000

[storage]
conversations_dir = "/tmp/orchat-convos"

[history]
enabled = false

[[models]]
id = "mistralai/mistral-large"
name = "Mistral Large"

[[models]]
id = "meta-llama/llama-3-70b"
name = ""
`)
		config, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "Be terse.", config.SystemPrompt)
		assert.Equal(t, "mistralai/mistral-large", config.DefaultModel)
		assert.Equal(t, 1000, config.OpenRouter.MaxTokens)
		assert.Equal(t, 0.7, config.OpenRouter.Temperature)
		assert.Equal(t, "/tmp/orchat-convos", config.Storage.ConversationsDir)
		assert.False(t, config.History.Enabled)
		assert.Equal(t, "file-key", config.OpenRouter.APIKey)
		assert.Equal(t, []Model{
			{ID: "mistralai/mistral-large", Name: "Mistral Large"},
			{ID: "meta-llama/llama-3-70b", Name: "meta-llama/llama-3-70b"},
		}, config.Models)
		assert.Equal(t, path, config.Path())
	})

	t.Run("environment variables override config", func(t *testing.T) {
		path := writeConfigFile(t, `[openrouter]
max_tokens = 1000
`)
		t.Setenv("ORCHAT_OPENROUTER__MAX_TOKENS", "2048")
		t.Setenv("ORCHAT_DEFAULT_MODEL", "openai/gpt-3.5-turbo")

		config, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, 2048, config.OpenRouter.MaxTokens)
		assert.Equal(t, "openai/gpt-3.5-turbo", config.DefaultModel)
	})

	t.Run("unknown default model falls back to first catalog entry", func(t *testing.T) {
		path := writeConfigFile(t, `default_model = "nope/none"`)
		config, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "openai/gpt-4", config.DefaultModel)
	})

	t.Run("invalid toml", func(t *testing.T) {
		path := writeConfigFile(t, `[openrouter`)
		_, err := LoadConfig(path)
		require.Error(t, err)
	})
}

func TestResolveAPIKey(t *testing.T) {
	gokeyring.MockInit()

	t.Run("environment wins", func(t *testing.T) {
		t.Setenv(apiKeyEnvVar, "env-key")
		assert.Equal(t, "env-key", resolveAPIKey("file-key"))
	})

	t.Run("file before keyring", func(t *testing.T) {
		t.Setenv(apiKeyEnvVar, "")
		require.NoError(t, SaveAPIKeyToKeyring(keyringProvider, "ring-key"))
		defer DeleteAPIKeyFromKeyring(keyringProvider)
		assert.Equal(t, "file-key", resolveAPIKey("file-key"))
	})

	t.Run("keyring fallback", func(t *testing.T) {
		t.Setenv(apiKeyEnvVar, "")
		require.NoError(t, SaveAPIKeyToKeyring(keyringProvider, "ring-key"))
		defer DeleteAPIKeyFromKeyring(keyringProvider)
		assert.Equal(t, "ring-key", resolveAPIKey(""))
	})

	t.Run("nothing configured", func(t *testing.T) {
		t.Setenv(apiKeyEnvVar, "")
		assert.Empty(t, resolveAPIKey(""))
	})
}

func TestDedupeModels(t *testing.T) {
	in := []Model{
		{ID: "a/one", Name: "One"},
		{ID: " a/one ", Name: "Duplicate"},
		{ID: "", Name: "Empty"},
		{ID: "b/two"},
	}
	assert.Equal(t, []Model{
		{ID: "a/one", Name: "One"},
		{ID: "b/two", Name: "b/two"},
	}, dedupeModels(in))
}

func TestAddModel(t *testing.T) {
	gokeyring.MockInit()
	t.Setenv(apiKeyEnvVar, "")

	path := writeConfigFile(t, `system_prompt = "Keep me."

[openrouter]
referer = "https://example.com"
`)
	config, err := LoadConfig(path)
	require.NoError(t, err)

	require.NoError(t, config.AddModel(Model{ID: "google/gemini-pro", Name: "Gemini Pro"}))
	assert.NotNil(t, config.FindModel("google/gemini-pro"))

	err = config.AddModel(Model{ID: "google/gemini-pro", Name: "Again"})
	assert.ErrorIs(t, err, ErrDuplicateModel)

	err = config.AddModel(Model{ID: "  "})
	assert.Error(t, err)

	reloaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "Keep me.", reloaded.SystemPrompt)
	assert.Equal(t, "https://example.com", reloaded.OpenRouter.Referer)
	assert.Equal(t, config.Models, reloaded.Models)
}

func TestKeyringRoundTrip(t *testing.T) {
	gokeyring.MockInit()

	key, err := GetAPIKeyFromKeyring(keyringProvider)
	require.NoError(t, err)
	assert.Empty(t, key)

	require.Error(t, SaveAPIKeyToKeyring(keyringProvider, "   "))
	require.NoError(t, SaveAPIKeyToKeyring(keyringProvider, "sk-or-v1-abcdef123456"))

	key, err = GetAPIKeyFromKeyring(keyringProvider)
	require.NoError(t, err)
	assert.Equal(t, "sk-or-v1-abcdef123456", key)

	require.NoError(t, DeleteAPIKeyFromKeyring(keyringProvider))
	require.NoError(t, DeleteAPIKeyFromKeyring(keyringProvider))

	assert.Equal(t, "sk-o*************3456", maskAPIKey("sk-or-v1-abcdef123456"))
	assert.Equal(t, "****", maskAPIKey("abcd"))
}
