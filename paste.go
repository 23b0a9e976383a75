package main

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"time"
	"unicode/utf8"
)

// PasteThreshold is the minimum number of characters inserted at once that is treated as a paste
const PasteThreshold = 256

var pasteTokenRe = regexp.MustCompile(`\[Pasted\s+Text\s+#(\d+)\]`)

// PastedItem is a block of pasted text hidden behind a placeholder
type PastedItem struct {
	ID        int
	Text      string
	CreatedAt time.Time
}

// PasteStore keeps pasted text for the lifetime of the process.
// Ids start at 1, only grow and are never reused.
type PasteStore struct {
	items  map[int]PastedItem
	nextID int
}

// NewPasteStore creates an empty paste store
func NewPasteStore() *PasteStore {
	return &PasteStore{
		items:  make(map[int]PastedItem),
		nextID: 1,
	}
}

// Placeholder returns the token shown in place of paste id
func Placeholder(id int) string {
	return fmt.Sprintf("[Pasted Text #%d]", id)
}

// stalePlaceholder marks a token whose paste belongs to another process.
// It no longer matches pasteTokenRe, so it can never resolve against this store.
func stalePlaceholder(id string) string {
	return fmt.Sprintf("[Pasted Text #%s unavailable]", id)
}

// Neutralize rewrites every placeholder in text to its stale form. Used for
// text written by an earlier process, whose paste ids mean nothing here.
func Neutralize(text string) string {
	return pasteTokenRe.ReplaceAllStringFunc(text, func(token string) string {
		return stalePlaceholder(pasteTokenRe.FindStringSubmatch(token)[1])
	})
}

func (p *PasteStore) add(text string) int {
	id := p.nextID
	p.nextID++
	p.items[id] = PastedItem{ID: id, Text: text, CreatedAt: time.Now()}
	return id
}

// OnTextChanged returns the text to display after the buffer changed from
// oldText to newText. Large insertions are stored and replaced by a placeholder.
func (p *PasteStore) OnTextChanged(oldText, newText string) string {
	oldLen := utf8.RuneCountInString(oldText)
	if utf8.RuneCountInString(newText)-oldLen < PasteThreshold {
		return newText
	}

	inserted := string([]rune(newText)[oldLen:])
	id := p.add(inserted)
	slog.Debug("paste virtualized", "id", id, "chars", utf8.RuneCountInString(inserted))
	return oldText + Placeholder(id)
}

// Expand substitutes every resolvable placeholder in text with its pasted content.
// Unknown ids are left untouched and reported once each in order of appearance.
// Tokens whose id does not fit an int can never name a paste and are plain text.
func (p *PasteStore) Expand(text string) (string, []int) {
	var missing []int
	seen := make(map[int]bool)
	expanded := pasteTokenRe.ReplaceAllStringFunc(text, func(token string) string {
		id, ok := tokenID(token)
		if !ok {
			return token
		}
		if item, found := p.items[id]; found {
			return item.Text
		}
		if !seen[id] {
			seen[id] = true
			missing = append(missing, id)
		}
		return token
	})
	return expanded, missing
}

// Get returns the pasted item stored under id
func (p *PasteStore) Get(id int) (PastedItem, bool) {
	item, ok := p.items[id]
	return item, ok
}

// Len returns the number of stored pastes
func (p *PasteStore) Len() int {
	return len(p.items)
}

// Referenced returns the raw content of every resolvable placeholder in text
func (p *PasteStore) Referenced(text string) map[int]string {
	refs := make(map[int]string)
	for _, m := range pasteTokenRe.FindAllStringSubmatch(text, -1) {
		id, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if item, ok := p.items[id]; ok {
			refs[id] = item.Text
		}
	}
	return refs
}

// Adopt registers saved pastes under fresh ids and rewrites the placeholders in
// content to point at them. remap carries ids already adopted for the same
// conversation so repeated references share one new id. Placeholders without a
// saved paste are rewritten to their stale form. It returns the rewritten
// content and the number of placeholders that could not be restored.
func (p *PasteStore) Adopt(content string, saved map[int]string, remap map[int]int) (string, int) {
	unresolved := 0
	rewritten := pasteTokenRe.ReplaceAllStringFunc(content, func(token string) string {
		oldID, ok := tokenID(token)
		if !ok {
			return token
		}
		if newID, done := remap[oldID]; done {
			return Placeholder(newID)
		}
		text, found := saved[oldID]
		if !found {
			unresolved++
			return stalePlaceholder(strconv.Itoa(oldID))
		}
		newID := p.add(text)
		remap[oldID] = newID
		return Placeholder(newID)
	})
	return rewritten, unresolved
}

func tokenID(token string) (int, bool) {
	m := pasteTokenRe.FindStringSubmatch(token)
	if m == nil {
		return 0, false
	}
	id, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return id, true
}
