package storage

import (
	"fmt"
	"time"
)

// HistoryEntry is a single recalled prompt
type HistoryEntry struct {
	Content   string
	Model     string
	Timestamp time.Time
}

// HistoryStore persists submitted prompts so they can be recalled with up/down
type HistoryStore struct {
	db  *DB
	cfg HistoryConfig
	now func() time.Time
}

// NewHistoryStore creates a new history store
func NewHistoryStore(db *DB, cfg HistoryConfig) *HistoryStore {
	return &HistoryStore{
		db:  db,
		cfg: cfg,
		now: time.Now,
	}
}

// AppendPrompt records a prompt and trims the table to the configured size
func (h *HistoryStore) AppendPrompt(prompt, model string) error {
	_, err := h.db.conn.Exec(`
		INSERT INTO prompt_history (prompt, model, timestamp)
		VALUES (?, ?, ?)`,
		prompt,
		model,
		h.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to append prompt: %w", err)
	}

	if h.cfg.MaxEntries > 0 {
		_, err = h.db.conn.Exec(`
			DELETE FROM prompt_history
			WHERE id NOT IN (
				SELECT id FROM prompt_history
				ORDER BY timestamp DESC, id DESC
				LIMIT ?
			)`,
			h.cfg.MaxEntries,
		)
		if err != nil {
			return fmt.Errorf("failed to apply prompt history limit: %w", err)
		}
	}
	return nil
}

// LoadPromptHistory returns the most recent prompts in chronological order (oldest first)
func (h *HistoryStore) LoadPromptHistory(limit int) ([]HistoryEntry, error) {
	query := `
		SELECT prompt, model, timestamp FROM (
			SELECT id, prompt, model, timestamp
			FROM prompt_history
			ORDER BY timestamp DESC, id DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	query += `
		) ORDER BY timestamp ASC, id ASC`

	rows, err := h.db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to load prompt history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var prompt, model string
		var timestamp int64
		if err := rows.Scan(&prompt, &model, &timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan prompt: %w", err)
		}
		entries = append(entries, HistoryEntry{
			Content:   prompt,
			Model:     model,
			Timestamp: time.Unix(timestamp, 0),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating prompts: %w", err)
	}
	return entries, nil
}

// ClearPromptHistory removes every stored prompt
func (h *HistoryStore) ClearPromptHistory() error {
	if _, err := h.db.conn.Exec("DELETE FROM prompt_history"); err != nil {
		return fmt.Errorf("failed to clear prompt history: %w", err)
	}
	return nil
}

// CleanupOldHistory removes entries older than the configured age
func (h *HistoryStore) CleanupOldHistory() error {
	if h.cfg.MaxAgeDays <= 0 {
		return nil
	}
	cutoff := h.now().AddDate(0, 0, -h.cfg.MaxAgeDays).Unix()
	if _, err := h.db.conn.Exec("DELETE FROM prompt_history WHERE timestamp < ?", cutoff); err != nil {
		return fmt.Errorf("failed to cleanup old prompt history: %w", err)
	}
	return nil
}
