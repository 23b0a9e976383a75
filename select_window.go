package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// SelectWindow is a generic component for displaying a selectable list of items
type SelectWindow[T any] struct {
	Width      int
	Items      []T
	MaxVisible int
}

// NewSelectWindow creates a new generic select window
func NewSelectWindow[T any](items []T) SelectWindow[T] {
	return SelectWindow[T]{
		Width:      70,
		Items:      items,
		MaxVisible: 8,
	}
}

// wrapIndex moves index by delta within n items, wrapping at both ends
func wrapIndex(index, delta, n int) int {
	if n <= 0 {
		return 0
	}
	return ((index+delta)%n + n) % n
}

// scrollOffset returns the first visible row that keeps selected on screen
func (s *SelectWindow[T]) scrollOffset(selected int) int {
	if s.MaxVisible <= 0 || len(s.Items) <= s.MaxVisible {
		return 0
	}
	offset := selected - s.MaxVisible + 1
	if offset < 0 {
		offset = 0
	}
	if max := len(s.Items) - s.MaxVisible; offset > max {
		offset = max
	}
	return offset
}

// RenderConfig holds callbacks for customization
type RenderConfig[T any] struct {
	Title string
	Hint  string

	OnEmpty func(sb *strings.Builder)

	// RenderItem renders a single item
	// index is the absolute index in the Items slice
	RenderItem func(i int, item T, isSelected bool, sb *strings.Builder)
}

// Render renders the list with the given selection and configuration
func (s *SelectWindow[T]) Render(selectedIndex int, config RenderConfig[T]) string {
	titleStyle := globalTheme.Title
	hintStyle := globalTheme.Hint

	total := len(s.Items)
	title := titleStyle.Render(fmt.Sprintf("%s [%d/%d]", config.Title, selectedIndex+1, total))

	var sb strings.Builder
	if total == 0 {
		if config.OnEmpty != nil {
			config.OnEmpty(&sb)
		} else {
			sb.WriteString("No items found.\n")
		}
		return title + "\n" + sb.String()
	}

	start := s.scrollOffset(selectedIndex)
	end := total
	if s.MaxVisible > 0 && start+s.MaxVisible < end {
		end = start + s.MaxVisible
	}
	if start > 0 {
		sb.WriteString(hintStyle.Render("  ↑ more") + "\n")
	}
	for i := start; i < end; i++ {
		isSelected := i == selectedIndex
		if config.RenderItem != nil {
			config.RenderItem(i, s.Items[i], isSelected, &sb)
			continue
		}
		prefix := "  "
		if isSelected {
			prefix = "▶ "
		}
		sb.WriteString(fmt.Sprintf("%s%v\n", prefix, s.Items[i]))
	}
	if end < total {
		sb.WriteString(hintStyle.Render("  ↓ more") + "\n")
	}
	if config.Hint != "" {
		sb.WriteString(hintStyle.Render(config.Hint) + "\n")
	}
	return title + "\n" + sb.String()
}

// selectedRow renders a row with the selection marker and highlight
func selectedRow(text string, isSelected bool) string {
	if isSelected {
		return lipgloss.NewStyle().Foreground(globalTheme.ChatBorder).Bold(true).Render("▶ " + text)
	}
	return "  " + text
}
