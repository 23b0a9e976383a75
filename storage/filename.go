package storage

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

const (
	// FallbackName is used whenever a suggestion cannot be shaped into a valid name
	FallbackName = "general_chat"

	maxNameLength = 25
	minNameWords  = 3
	maxNameWords  = 4

	filenameTimestampLayout = "20060102-150405"
)

// NamingPrompt is appended to a copy of the conversation to ask the model for a filename
const NamingPrompt = "Create a filename for this conversation using exactly 3 to 4 words separated by underscores, maximum 25 characters total. Examples: python_debug_help, home_buying_advice, tax_strategy_tips. Reply with ONLY the underscore-separated name, no other text."

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {}, "you": {}, "all": {},
	"can": {}, "had": {}, "her": {}, "was": {}, "one": {}, "our": {}, "out": {}, "day": {},
	"get": {}, "has": {}, "him": {}, "his": {}, "how": {}, "man": {}, "new": {}, "now": {},
	"old": {}, "see": {}, "two": {}, "way": {}, "who": {}, "boy": {}, "did": {}, "its": {},
	"let": {}, "put": {}, "say": {}, "she": {}, "too": {}, "use": {},
}

var (
	nonWordChars     = regexp.MustCompile(`[^a-z0-9\s]`)
	disallowedChars  = regexp.MustCompile(`[^A-Za-z0-9_]`)
	conversationFile = regexp.MustCompile(`^(.+)-(\d{8})-(\d{8})(?:_\d{2,})?\.json$`)
)

// Synthesize turns a raw model suggestion into a filename-safe identifier of
// 3 to 4 underscore-joined segments, at most 25 characters long.
func Synthesize(raw string) string {
	return validateName(extractName(raw))
}

// extractName picks or builds a candidate name from the model response
func extractName(raw string) string {
	name := ""
	for _, line := range strings.Split(strings.TrimSpace(raw), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && strings.Contains(trimmed, "_") && !strings.ContainsFunc(trimmed, unicode.IsSpace) {
			name = trimmed
			break
		}
	}

	if name == "" {
		cleaned := nonWordChars.ReplaceAllString(strings.ToLower(raw), "")
		var words []string
		for _, word := range strings.Fields(cleaned) {
			if len(word) <= 2 {
				continue
			}
			if _, stop := stopWords[word]; stop {
				continue
			}
			words = append(words, word)
			if len(words) == maxNameWords {
				break
			}
		}
		if len(words) < minNameWords {
			name = FallbackName
		} else {
			name = strings.Join(words, "_")
		}
	}

	name = strings.NewReplacer(`"`, "", "'", "").Replace(name)
	return disallowedChars.ReplaceAllString(name, "")
}

// validateName enforces the segment count and length bounds
func validateName(candidate string) string {
	var words []string
	for _, w := range strings.Split(candidate, "_") {
		if w != "" {
			words = append(words, w)
		}
	}
	if len(words) < minNameWords {
		return FallbackName
	}
	if len(words) > maxNameWords {
		words = words[:maxNameWords]
	}

	name := strings.Join(words, "_")
	if len(name) > maxNameLength {
		name = strings.Join(words[:minNameWords], "_")
		if len(name) > maxNameLength {
			return FallbackName
		}
	}
	return name
}

// Timestamp formats t as YYYYMMDD-HHMMSScc, cc being hundredths of a second
func Timestamp(t time.Time) string {
	return fmt.Sprintf("%s%02d", t.Format(filenameTimestampLayout), t.Nanosecond()/int(10*time.Millisecond))
}

// ParseTimestamp is the inverse of Timestamp, interpreted in local time
func ParseTimestamp(s string) (time.Time, error) {
	if len(s) != len(filenameTimestampLayout)+2 {
		return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
	}
	t, err := time.ParseInLocation(filenameTimestampLayout, s[:len(filenameTimestampLayout)], time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	cs, err := strconv.Atoi(s[len(filenameTimestampLayout):])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid centiseconds in %q: %w", s, err)
	}
	return t.Add(time.Duration(cs) * 10 * time.Millisecond), nil
}

// parseConversationFilename splits a stored filename into display name and instant.
// ok is false for files not written by Save.
func parseConversationFilename(filename string) (name string, at time.Time, ok bool) {
	m := conversationFile.FindStringSubmatch(filename)
	if m == nil {
		return "", time.Time{}, false
	}
	at, err := ParseTimestamp(m[2] + "-" + m[3])
	if err != nil {
		return "", time.Time{}, false
	}
	return m[1], at, true
}
