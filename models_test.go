package main

import (
	"os"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gokeyring "github.com/zalando/go-keyring"
)

// TestMain keeps tests away from the real system keyring
func TestMain(m *testing.M) {
	gokeyring.MockInit()
	os.Exit(m.Run())
}

func TestModelOptions(t *testing.T) {
	opts := modelOptions(defaultModels())

	require.Len(t, opts, 4)
	assert.Equal(t, "openai/gpt-4", opts[0].model.ID)
	assert.False(t, opts[0].add)
	assert.True(t, opts[3].add)

	empty := modelOptions(nil)
	require.Len(t, empty, 1)
	assert.True(t, empty[0].add)
}

func TestInitialModelIndex(t *testing.T) {
	catalog := defaultModels()

	assert.Equal(t, 0, initialModelIndex(catalog, "openai/gpt-4"))
	assert.Equal(t, 2, initialModelIndex(catalog, "anthropic/claude-3-sonnet"))
	assert.Equal(t, 0, initialModelIndex(catalog, "vendor/unknown"))
	assert.Equal(t, 0, initialModelIndex(nil, "openai/gpt-4"))
}

func TestRenderModelSelector(t *testing.T) {
	out := renderModelSelector(defaultModels(), "openai/gpt-3.5-turbo", 3, 80)

	assert.Contains(t, out, "Select a model [4/4]")
	assert.Contains(t, out, "✓ GPT-3.5 Turbo (openai/gpt-3.5-turbo)")
	assert.Contains(t, out, "  GPT-4 (openai/gpt-4)")
	assert.Contains(t, out, addModelLabel)
	assert.Equal(t, 1, strings.Count(out, "✓"))
}

func TestModelFormSteps(t *testing.T) {
	form := newModelForm()

	_, done := form.advance()
	assert.False(t, done)
	assert.Equal(t, 0, form.step)
	assert.Equal(t, "Model ID cannot be empty", form.err)

	for _, r := range "mistralai/mixtral-8x7b" {
		form.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	_, done = form.advance()
	assert.False(t, done)
	assert.Equal(t, 1, form.step)
	assert.Empty(t, form.err)
	assert.Contains(t, form.View(), "Add new model [2/2]")

	// An empty display name falls back to the id
	model, done := form.advance()
	require.True(t, done)
	assert.Equal(t, Model{ID: "mistralai/mixtral-8x7b", Name: "mistralai/mixtral-8x7b"}, model)
}

func TestModelFormBack(t *testing.T) {
	form := newModelForm()
	assert.False(t, form.back())

	form.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x/y")})
	form.advance()
	require.Equal(t, 1, form.step)

	assert.True(t, form.back())
	assert.Equal(t, 0, form.step)
	assert.Equal(t, "x/y", form.id.Value())
}

func TestWrapIndex(t *testing.T) {
	tests := []struct {
		name   string
		index  int
		delta  int
		n      int
		expect int
	}{
		{"down", 0, 1, 3, 1},
		{"down wraps", 2, 1, 3, 0},
		{"up wraps", 0, -1, 3, 2},
		{"up", 2, -1, 3, 1},
		{"empty list", 5, 1, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, wrapIndex(tt.index, tt.delta, tt.n))
		})
	}
}

func TestSelectWindowScrolling(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e", "f"}
	sw := NewSelectWindow(items)
	sw.MaxVisible = 3

	assert.Equal(t, 0, sw.scrollOffset(0))
	assert.Equal(t, 0, sw.scrollOffset(2))
	assert.Equal(t, 1, sw.scrollOffset(3))
	assert.Equal(t, 3, sw.scrollOffset(5))

	out := sw.Render(4, RenderConfig[string]{Title: "Letters", Hint: "pick one"})
	assert.Contains(t, out, "Letters [5/6]")
	assert.Contains(t, out, "↑ more")
	assert.Contains(t, out, "↓ more")
	assert.Contains(t, out, "▶ e")
	assert.NotContains(t, out, "  a\n")
	assert.Contains(t, out, "pick one")
}

func TestSelectWindowEmpty(t *testing.T) {
	sw := NewSelectWindow([]string(nil))
	out := sw.Render(0, RenderConfig[string]{Title: "Nothing"})
	assert.Contains(t, out, "No items found.")

	out = sw.Render(0, RenderConfig[string]{
		Title:   "Nothing",
		OnEmpty: func(sb *strings.Builder) { sb.WriteString("custom empty\n") },
	})
	assert.Contains(t, out, "custom empty")
}
