package main

import "github.com/charmbracelet/lipgloss"

// globalTheme is the application-wide theme instance
var globalTheme = defaultTheme()

// Theme defines the colors and styles for the UI.
type Theme struct {
	// Terminal7 color scheme
	PromptBorder   lipgloss.Color // user text and the idle prompt frame
	BusyBorder     lipgloss.Color // prompt frame while a request is in flight
	ChatBorder     lipgloss.Color // assistant labels and selection highlight
	TextColor      lipgloss.Color
	Warning        lipgloss.Color
	Error          lipgloss.Color
	Muted          lipgloss.Color
	PaneBackground lipgloss.Color

	// Selector title bar
	Title lipgloss.Style
	// Hints under selectors and the empty prompt placeholder
	Hint lipgloss.Style
}

func defaultTheme() *Theme {
	promptBorder := lipgloss.Color("#F952F9")
	chatBorder := lipgloss.Color("#F4DB53")
	textColor := lipgloss.Color("#01FAFA")
	paneBackground := lipgloss.Color("#000000")
	darkBorder := lipgloss.Color("#373702")

	return &Theme{
		PromptBorder:   promptBorder,
		BusyBorder:     darkBorder,
		ChatBorder:     chatBorder,
		TextColor:      textColor,
		Warning:        chatBorder,
		Error:          lipgloss.Color("#F54545"),
		Muted:          darkBorder,
		PaneBackground: paneBackground,

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(promptBorder).
			Background(paneBackground).
			Padding(0, 1),
		Hint: lipgloss.NewStyle().Foreground(darkBorder),
	}
}

// NewTheme creates and returns a new Theme with Terminal7 colors.
// It also sets the global theme instance.
func NewTheme() *Theme {
	globalTheme = defaultTheme()
	return globalTheme
}
