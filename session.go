package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/afittestide/orchat/storage"
)

// Transcript is the ordered conversation history of the current session.
// It always starts with exactly one system message.
type Transcript struct {
	messages []storage.Message
	now      func() time.Time
}

// NewTranscript starts a transcript holding only the system prompt
func NewTranscript(systemPrompt string) *Transcript {
	t := &Transcript{now: time.Now}
	t.messages = []storage.Message{{
		Role:      storage.RoleSystem,
		Content:   systemPrompt,
		Timestamp: storage.StampTime(t.now()),
	}}
	return t
}

// Append adds a message stamped with the current time
func (t *Transcript) Append(role, content string) storage.Message {
	msg := storage.Message{Role: role, Content: content, Timestamp: storage.StampTime(t.now())}
	t.messages = append(t.messages, msg)
	return msg
}

// Snapshot returns an independent copy of the messages
func (t *Transcript) Snapshot() []storage.Message {
	out := make([]storage.Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Messages returns the messages. Callers must not modify the slice.
func (t *Transcript) Messages() []storage.Message {
	return t.messages
}

// SystemPrompt returns the content of the leading system message
func (t *Transcript) SystemPrompt() string {
	return t.messages[0].Content
}

// Len returns the number of messages, including the system message
func (t *Transcript) Len() int {
	return len(t.messages)
}

// NonSystemCount returns the number of user and assistant messages
func (t *Transcript) NonSystemCount() int {
	return countNonSystem(t.messages)
}

// TranscriptFromRecord rebuilds a transcript from a saved conversation. The
// record's first system message is kept; a missing one is recreated from
// the saved system prompt and later system messages are dropped.
func TranscriptFromRecord(rec *storage.ConversationRecord) *Transcript {
	t := &Transcript{now: time.Now}
	var system *storage.Message
	rest := make([]storage.Message, 0, len(rec.Messages))
	for i := range rec.Messages {
		m := rec.Messages[i]
		if m.Role == storage.RoleSystem {
			if system == nil {
				system = &m
			}
			continue
		}
		rest = append(rest, m)
	}
	if system == nil {
		system = &storage.Message{Role: storage.RoleSystem, Content: rec.SystemPrompt, Timestamp: rec.Timestamp}
	}
	t.messages = append([]storage.Message{*system}, rest...)
	return t
}

func countNonSystem(messages []storage.Message) int {
	n := 0
	for _, m := range messages {
		if m.Role != storage.RoleSystem {
			n++
		}
	}
	return n
}

// apiView returns messages with user placeholders expanded for sending upstream
func apiView(messages []storage.Message, pastes *PasteStore) []storage.Message {
	out := make([]storage.Message, len(messages))
	for i, m := range messages {
		if m.Role == storage.RoleUser && pastes != nil {
			m.Content, _ = pastes.Expand(m.Content)
		}
		out[i] = m
	}
	return out
}

// referencedPastes collects the pasted text behind placeholders in user messages
func referencedPastes(messages []storage.Message, pastes *PasteStore) map[int]string {
	if pastes == nil {
		return nil
	}
	refs := make(map[int]string)
	for _, m := range messages {
		if m.Role != storage.RoleUser {
			continue
		}
		for id, text := range pastes.Referenced(m.Content) {
			refs[id] = text
		}
	}
	if len(refs) == 0 {
		return nil
	}
	return refs
}

// saveRequest carries everything needed to name and persist a conversation.
// Messages is a snapshot owned by the request; APIView is the same snapshot
// with pasted text expanded and is what the naming model sees.
type saveRequest struct {
	Messages     []storage.Message
	APIView      []storage.Message
	Model        string
	SystemPrompt string
	Pastes       map[int]string
}

// newSaveRequest snapshots the transcript for naming and saving
func newSaveRequest(t *Transcript, pastes *PasteStore, model string) saveRequest {
	snapshot := t.Snapshot()
	return saveRequest{
		Messages:     snapshot,
		APIView:      apiView(snapshot, pastes),
		Model:        model,
		SystemPrompt: t.SystemPrompt(),
		Pastes:       referencedPastes(snapshot, pastes),
	}
}

// nameAndSave asks the model for a filename, validates it and writes the
// conversation. The naming request is only added to a private copy.
func nameAndSave(ctx context.Context, completer Completer, store *storage.ConversationStore, req saveRequest) (string, error) {
	if completer == nil {
		return "", fmt.Errorf("no completion service available")
	}

	view := req.APIView
	if view == nil {
		view = req.Messages
	}
	naming := make([]storage.Message, len(view), len(view)+1)
	copy(naming, view)
	naming = append(naming, storage.Message{
		Role:      storage.RoleUser,
		Content:   storage.NamingPrompt,
		Timestamp: time.Now(),
	})

	suggestion, err := completer.Complete(ctx, req.Model, naming)
	if err != nil {
		return "", fmt.Errorf("failed to get AI naming suggestion: %w", err)
	}
	name := storage.Synthesize(suggestion)
	slog.Debug("conversation name synthesized", "suggestion", strings.TrimSpace(suggestion), "name", name)

	rec := storage.NewConversationRecord(req.Messages, req.Model, req.SystemPrompt, name, time.Now())
	rec.Pastes = req.Pastes
	path, err := store.Save(rec, name)
	if err != nil {
		return "", fmt.Errorf("failed to save conversation: %w", err)
	}
	return path, nil
}
