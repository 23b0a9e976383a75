package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// StatusComponent represents the status bar component
type StatusComponent struct {
	ModelID      string
	ModelName    string
	MessageCount int
	Connected    bool
	HasError     bool // Track if the connection test failed
	Width        int
	Style        lipgloss.Style
	mode         string
	saveStatus   string

	// Waiting indicator
	spinner            spinner.Model
	waitingForResponse bool
	waitingSince       time.Time
}

// NewStatusComponent creates a new status component
func NewStatusComponent(width int) StatusComponent {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(globalTheme.Warning)
	return StatusComponent{
		Width:   width,
		Style:   lipgloss.NewStyle().Foreground(globalTheme.TextColor),
		mode:    "CHAT",
		spinner: sp,
	}
}

// SetModel sets the active model
func (s *StatusComponent) SetModel(m Model) {
	s.ModelID = m.ID
	s.ModelName = m.Name
}

// SetMessageCount sets the number of non-system messages in the transcript
func (s *StatusComponent) SetMessageCount(n int) {
	s.MessageCount = n
}

// SetConnected records the outcome of the connection test
func (s *StatusComponent) SetConnected(connected bool) {
	s.Connected = connected
	s.HasError = !connected
}

// SetSaveStatus shows the latest background save outcome
func (s *StatusComponent) SetSaveStatus(status string) {
	s.saveStatus = status
}

// SetMode sets the input mode label
func (s *StatusComponent) SetMode(mode string) {
	s.mode = strings.ToUpper(mode)
}

// StartWaiting marks the status component as waiting for a model response
// and returns the spinner's first tick
func (s *StatusComponent) StartWaiting() tea.Cmd {
	s.waitingForResponse = true
	s.waitingSince = time.Now()
	return s.spinner.Tick
}

// StopWaiting clears the waiting indicator
func (s *StatusComponent) StopWaiting() {
	s.waitingForResponse = false
}

// IsWaiting reports whether the waiting indicator is shown
func (s StatusComponent) IsWaiting() bool {
	return s.waitingForResponse
}

// Update advances the spinner while waiting
func (s StatusComponent) Update(msg tea.Msg) (StatusComponent, tea.Cmd) {
	if !s.waitingForResponse {
		return s, nil
	}
	var cmd tea.Cmd
	s.spinner, cmd = s.spinner.Update(msg)
	return s, cmd
}

// getStatusIcon returns the appropriate status icon based on connection and error state
func (s StatusComponent) getStatusIcon() string {
	if s.HasError {
		return "❌"
	}
	if s.Connected {
		return "✅"
	}
	return "🔌"
}

// shortModelName returns the part of a model id after the provider prefix
func shortModelName(id string) string {
	if i := strings.LastIndex(id, "/"); i >= 0 {
		return id[i+1:]
	}
	return id
}

// SetWidth updates the width of the status component
func (s *StatusComponent) SetWidth(width int) {
	s.Width = width
}

// View renders the status component
func (s StatusComponent) View() string {
	left := s.renderLeftSection()
	middle := s.renderMiddleSection()
	right := s.renderRightSection()

	leftWidth := lipgloss.Width(left)
	middleWidth := lipgloss.Width(middle)
	rightWidth := lipgloss.Width(right)

	if leftWidth+middleWidth+rightWidth > s.Width {
		middle = ""
		middleWidth = 0
		if leftWidth+rightWidth > s.Width {
			right = s.truncateString(right, s.Width-leftWidth-1)
			rightWidth = lipgloss.Width(right)
		}
	}

	var statusLine string
	total := leftWidth + middleWidth + rightWidth
	if middle != "" && total < s.Width {
		leftSpacing := (s.Width - total) / 2
		rightSpacing := s.Width - total - leftSpacing
		statusLine = left + strings.Repeat(" ", leftSpacing) + middle + strings.Repeat(" ", rightSpacing) + right
	} else {
		spacing := s.Width - leftWidth - rightWidth
		if spacing < 0 {
			spacing = 0
		}
		statusLine = left + strings.Repeat(" ", spacing) + right
	}

	return s.Style.Width(s.Width).Render(statusLine)
}

// renderLeftSection renders the input mode and the model
func (s StatusComponent) renderLeftSection() string {
	name := s.ModelName
	if name == "" {
		name = shortModelName(s.ModelID)
	}
	modelStyle := lipgloss.NewStyle().Foreground(globalTheme.PromptBorder)
	return fmt.Sprintf(" %s %s", s.mode, modelStyle.Render(name))
}

// renderMiddleSection renders the message count and the waiting spinner
func (s StatusComponent) renderMiddleSection() string {
	text := fmt.Sprintf("%d messages", s.MessageCount)
	if s.MessageCount == 1 {
		text = "1 message"
	}
	if s.waitingForResponse {
		elapsed := time.Since(s.waitingSince).Round(time.Second)
		text = s.spinner.View() + " thinking " + elapsed.String() + " · " + text
	}
	return text
}

// renderRightSection renders the save status and the connection icon
func (s StatusComponent) renderRightSection() string {
	parts := make([]string, 0, 2)
	if s.saveStatus != "" {
		parts = append(parts, s.saveStatus)
	}
	parts = append(parts, s.getStatusIcon()+" ")
	return strings.Join(parts, " ")
}

func (s StatusComponent) truncateString(str string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if lipgloss.Width(str) <= maxWidth {
		return str
	}
	runes := []rune(str)
	for len(runes) > 0 && lipgloss.Width(string(runes))+3 > maxWidth {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
