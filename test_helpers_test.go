package main

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/afittestide/orchat/storage"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// stubCompleter returns canned replies and records every request
type stubCompleter struct {
	mu      sync.Mutex
	replies []string
	err     error
	calls   [][]storage.Message
	models  []string
}

func (s *stubCompleter) Complete(ctx context.Context, modelID string, messages []storage.Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, append([]storage.Message(nil), messages...))
	s.models = append(s.models, modelID)
	if s.err != nil {
		return "", s.err
	}
	if len(s.replies) == 0 {
		return "ok", nil
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply, nil
}

func (s *stubCompleter) lastCall() []storage.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.calls) == 0 {
		return nil
	}
	return s.calls[len(s.calls)-1]
}

func (s *stubCompleter) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// testerCompleter also answers the startup connection test
type testerCompleter struct {
	stubCompleter
	connErr error
}

func (c *testerCompleter) TestConnection(ctx context.Context) error {
	return c.connErr
}

// mockConfig returns a hermetic configuration rooted in temp directories
func mockConfig(t *testing.T) *Config {
	t.Helper()
	cfg := defaultConfig()
	cfg.Models = defaultModels()
	cfg.DefaultModel = cfg.Models[0].ID
	cfg.UI.MarkdownEnabled = false
	cfg.History.Enabled = false
	cfg.Storage.ConversationsDir = filepath.Join(t.TempDir(), "conversations")
	cfg.Storage.DatabasePath = filepath.Join(t.TempDir(), "orchat.sqlite")
	cfg.OpenRouter.APIKey = "sk-or-test"
	cfg.path = filepath.Join(t.TempDir(), "config.toml")
	return &cfg
}

// newTestModel creates a sized TUIModel backed by completer
func newTestModel(t *testing.T, completer Completer) TUIModel {
	t.Helper()
	cfg := mockConfig(t)
	model := NewTUIModel(cfg, completer, storage.NewConversationStore(cfg.Storage.ConversationsDir), nil)
	updated, _ := model.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return updated.(TUIModel)
}

func runeKey(r rune) tea.KeyMsg {
	if r == ' ' {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// press sends one key and returns the updated model and its command
func press(m TUIModel, key tea.KeyMsg) (TUIModel, tea.Cmd) {
	updated, cmd := m.Update(key)
	return updated.(TUIModel), cmd
}

// typeText sends text one keystroke at a time, discarding commands
func typeText(m TUIModel, text string) TUIModel {
	for _, r := range text {
		m, _ = press(m, runeKey(r))
	}
	return m
}

// drain runs cmd synchronously and feeds the resulting messages back into the
// model until no work is left. Spinner ticks and quit are not followed.
func drain(t *testing.T, m TUIModel, cmd tea.Cmd) TUIModel {
	t.Helper()
	if cmd == nil {
		return m
	}
	switch msg := cmd().(type) {
	case nil, spinner.TickMsg, tea.QuitMsg:
		return m
	case tea.BatchMsg:
		for _, c := range msg {
			m = drain(t, m, c)
		}
		return m
	default:
		updated, next := m.Update(msg)
		return drain(t, updated.(TUIModel), next)
	}
}

// submit types text, presses enter and runs the resulting work
func submit(t *testing.T, m TUIModel, text string) TUIModel {
	t.Helper()
	m = typeText(m, text)
	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyEnter})
	return drain(t, m, cmd)
}

// currentToast returns the newest toast message, or ""
func currentToast(m TUIModel) string {
	toast, ok := m.commandLine.Current()
	if !ok {
		return ""
	}
	return toast.Message
}

func lastEntry(m TUIModel) chatEntry {
	return m.chat.Entries[len(m.chat.Entries)-1]
}
