package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHelpTextListsEveryCommand(t *testing.T) {
	registry := NewCommandRegistry()
	text := helpText(registry, "/tmp/convos")

	require.True(t, strings.HasPrefix(text, "Available commands:\n"))
	for _, cmd := range registry.GetAllCommands() {
		require.Contains(t, text, cmd.Name)
		require.Contains(t, text, cmd.Description)
	}
	require.Contains(t, text, "[Pasted Text #N]")
	require.Contains(t, text, "/tmp/convos")
}

func TestHelpTextCommandOrder(t *testing.T) {
	text := helpText(NewCommandRegistry(), "")
	last := -1
	for _, name := range []string{"/help", "/swmodel", "/save", "/load", "/listchats", "/newchat", "/exit"} {
		idx := strings.Index(text, "• "+name)
		require.Greater(t, idx, last, name)
		last = idx
	}
	require.NotContains(t, text, "Conversations are saved to")
}
