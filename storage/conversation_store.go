package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a conversation file does not exist
	ErrNotFound = errors.New("conversation not found")
	// ErrParse is returned when a conversation file is not valid JSON
	ErrParse = errors.New("conversation file is not valid")
)

// Message roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// timestampLayout is RFC 3339 with exactly three fractional digits
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// StampTime normalizes t to the precision and zone written to disk
func StampTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

func formatStamp(t time.Time) string {
	return StampTime(t).Format(timestampLayout)
}

// Message is a single transcript entry as persisted on disk
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// MarshalJSON writes the timestamp in UTC with millisecond precision
func (m Message) MarshalJSON() ([]byte, error) {
	type plain Message
	return json.Marshal(struct {
		plain
		Timestamp string `json:"timestamp"`
	}{plain(m), formatStamp(m.Timestamp)})
}

// ConversationMetadata holds derived facts about a saved conversation
type ConversationMetadata struct {
	MessageCount    int    `json:"messageCount"`
	AIGeneratedName string `json:"aiGeneratedName"`
}

// ConversationRecord is the body of a saved conversation file
type ConversationRecord struct {
	Timestamp    time.Time            `json:"timestamp"`
	Model        string               `json:"model"`
	SystemPrompt string               `json:"systemPrompt"`
	Messages     []Message            `json:"messages"`
	Metadata     ConversationMetadata `json:"metadata"`
	// Pastes keeps the raw text behind placeholders referenced by Messages
	Pastes map[int]string `json:"pastes,omitempty"`
}

// MarshalJSON writes the record timestamp the same way as message timestamps
func (r ConversationRecord) MarshalJSON() ([]byte, error) {
	type plain ConversationRecord
	return json.Marshal(struct {
		plain
		Timestamp string `json:"timestamp"`
	}{plain(r), formatStamp(r.Timestamp)})
}

// NewConversationRecord builds a record for the given transcript. The message
// count excludes system messages.
func NewConversationRecord(messages []Message, model, systemPrompt, name string, at time.Time) ConversationRecord {
	count := 0
	for _, m := range messages {
		if m.Role != RoleSystem {
			count++
		}
	}
	return ConversationRecord{
		Timestamp:    StampTime(at),
		Model:        model,
		SystemPrompt: systemPrompt,
		Messages:     messages,
		Metadata: ConversationMetadata{
			MessageCount:    count,
			AIGeneratedName: name,
		},
	}
}

// ConversationSummary describes a saved conversation for listings
type ConversationSummary struct {
	Name          string
	Days          int
	FormattedDate string
	Filename      string
	SavedAt       time.Time

	// Filled in by Describe
	MessageCount int
	Model        string
}

// DisplayName returns the name with underscores replaced by spaces
func (s ConversationSummary) DisplayName() string {
	return strings.ReplaceAll(s.Name, "_", " ")
}

// DisplayAge shows a relative age for recent conversations and the date otherwise
func (s ConversationSummary) DisplayAge() string {
	if s.Days <= 5 {
		return fmt.Sprintf("%d days", s.Days)
	}
	return s.FormattedDate
}

// ConversationStore persists conversations as JSON files in a single directory
type ConversationStore struct {
	dir string
	now func() time.Time
}

// NewConversationStore creates a store rooted at dir. The directory is created on first write.
func NewConversationStore(dir string) *ConversationStore {
	return &ConversationStore{
		dir: dir,
		now: time.Now,
	}
}

// Dir returns the directory holding conversation files
func (s *ConversationStore) Dir() string {
	return s.dir
}

func (s *ConversationStore) ensureDir() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create conversations directory: %w", err)
	}
	return nil
}

// Save writes rec as <displayName>-<timestamp>.json and returns the stored path.
// An existing file is never overwritten: on a name clash a _NN suffix is added.
func (s *ConversationStore) Save(rec ConversationRecord, displayName string) (string, error) {
	if err := s.ensureDir(); err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal conversation: %w", err)
	}

	base := displayName + "-" + Timestamp(s.now())
	candidate := base + ".json"
	for counter := 1; ; counter++ {
		path := filepath.Join(s.dir, candidate)
		written, err := writeExclusive(path, data)
		if err != nil {
			return "", err
		}
		if written {
			slog.Debug("conversation saved", "path", path, "messages", len(rec.Messages))
			return path, nil
		}
		candidate = fmt.Sprintf("%s_%02d.json", base, counter)
	}
}

// writeExclusive creates path and writes data. It reports false when path already exists.
func writeExclusive(path string, data []byte) (bool, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create conversation file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return false, fmt.Errorf("failed to write conversation file: %w", err)
	}
	if err := f.Close(); err != nil {
		return false, fmt.Errorf("failed to close conversation file: %w", err)
	}
	return true, nil
}

// List returns summaries of all saved conversations, most recent first.
// Files that do not follow the conversation naming scheme are ignored.
func (s *ConversationStore) List() ([]ConversationSummary, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []ConversationSummary{}, nil
		}
		return nil, fmt.Errorf("failed to read conversations directory: %w", err)
	}

	now := s.now()
	summaries := make([]ConversationSummary, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name, at, ok := parseConversationFilename(entry.Name())
		if !ok {
			continue
		}
		days := int(now.Sub(at) / (24 * time.Hour))
		if now.Before(at) {
			days = 0
		}
		summaries = append(summaries, ConversationSummary{
			Name:          name,
			Days:          days,
			FormattedDate: formatDate(at),
			Filename:      entry.Name(),
			SavedAt:       at,
		})
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].Days != summaries[j].Days {
			return summaries[i].Days < summaries[j].Days
		}
		return summaries[i].Filename > summaries[j].Filename
	})
	return summaries, nil
}

// formatDate renders t as "<Weekday> D/M/YYYY"
func formatDate(t time.Time) string {
	return fmt.Sprintf("%s %d/%d/%d", t.Weekday(), t.Day(), int(t.Month()), t.Year())
}

// Load reads a saved conversation by filename (relative to the store directory)
func (s *ConversationStore) Load(filename string) (*ConversationRecord, error) {
	path := filepath.Join(s.dir, filepath.Base(filename))
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, filename)
		}
		return nil, fmt.Errorf("failed to read conversation %s: %w", filename, err)
	}

	var rec ConversationRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParse, filename, err)
	}
	return &rec, nil
}

// Describe fills in message counts and models by reading each file.
// Unreadable files keep zero values.
func (s *ConversationStore) Describe(summaries []ConversationSummary) []ConversationSummary {
	out := make([]ConversationSummary, len(summaries))
	for i, summary := range summaries {
		rec, err := s.Load(summary.Filename)
		if err != nil {
			slog.Debug("skipping conversation details", "file", summary.Filename, "error", err)
			out[i] = summary
			continue
		}
		summary.MessageCount = rec.Metadata.MessageCount
		summary.Model = rec.Model
		out[i] = summary
	}
	return out
}
