package main

import (
	"log/slog"
	"strings"
	"time"

	"github.com/afittestide/orchat/storage"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

type entryKind int

const (
	entryUser entryKind = iota
	entryAssistant
	entryNotice
)

const (
	assistantPrefix = "🤖 "
	noticePrefix    = "🛠️  "
	userIndent      = 5
)

// chatEntry is one rendered block in the chat view
type chatEntry struct {
	kind  entryKind
	label string
	text  string
}

// ChatComponent represents the chat view
type ChatComponent struct {
	Viewport     viewport.Model
	Entries      []chatEntry
	Width        int
	Height       int
	Style        lipgloss.Style
	AutoScroll   bool // Track if auto-scrolling is enabled
	UserScrolled bool // Track if user has manually scrolled

	// Markdown rendering
	markdownRenderer *glamour.TermRenderer
	markdownEnabled  bool
}

// NewChatComponent creates a new chat component
func NewChatComponent(width, height int, markdownEnabled bool) *ChatComponent {
	vp := viewport.New(width, height)

	var renderer *glamour.TermRenderer
	if markdownEnabled {
		rendererStart := time.Now()
		var err error
		renderer, err = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(0), // 0 disables glamour's word wrapping
		)
		slog.Debug("[TIMING] Markdown renderer initialized", "load time", time.Since(rendererStart), "err", err)
	}

	c := &ChatComponent{
		Viewport:         vp,
		Width:            width,
		Height:           height,
		AutoScroll:       true,
		markdownRenderer: renderer,
		markdownEnabled:  markdownEnabled,
		Style: lipgloss.NewStyle().
			Width(width).
			Height(height),
	}
	c.Clear()
	return c
}

func sessionBanner() chatEntry {
	return chatEntry{
		kind: entryNotice,
		text: "New chat at " + time.Now().Format("2 January, 3:04 PM MST") + ". Type /help for commands.",
	}
}

// Clear resets the chat to the session banner, keeping the markdown renderer
func (c *ChatComponent) Clear() {
	c.Entries = []chatEntry{sessionBanner()}
	c.AutoScroll = true
	c.UserScrolled = false
	c.UpdateContent()
	c.Viewport.GotoTop()
}

// SetSize updates the width & height of the chat component
func (c *ChatComponent) SetSize(width, height int) {
	if height < 0 {
		height = 0
	}
	c.Width = width
	c.Height = height
	c.Style = c.Style.Width(width).Height(height)
	c.Viewport.Width = width
	c.Viewport.Height = height
	c.UpdateContent()
}

func (c *ChatComponent) add(e chatEntry) {
	c.Entries = append(c.Entries, e)
	c.AutoScroll = true
	c.UserScrolled = false
	c.UpdateContent()
}

// AddUser shows a user message in display form
func (c *ChatComponent) AddUser(content string) {
	c.add(chatEntry{kind: entryUser, text: content})
}

// AddAssistant shows an assistant reply labelled with the model's short name
func (c *ChatComponent) AddAssistant(label, content string) {
	c.add(chatEntry{kind: entryAssistant, label: label, text: content})
}

// AddNotice shows local output such as help, listings and the session banner
func (c *ChatComponent) AddNotice(text string) {
	c.add(chatEntry{kind: entryNotice, text: text})
}

// LoadTranscript replaces the chat with the non-system messages of a transcript
func (c *ChatComponent) LoadTranscript(messages []storage.Message, label string) {
	c.Entries = []chatEntry{sessionBanner()}
	for _, m := range messages {
		switch m.Role {
		case storage.RoleUser:
			c.Entries = append(c.Entries, chatEntry{kind: entryUser, text: m.Content})
		case storage.RoleAssistant:
			c.Entries = append(c.Entries, chatEntry{kind: entryAssistant, label: label, text: m.Content})
		}
	}
	c.AutoScroll = true
	c.UserScrolled = false
	c.UpdateContent()
}

// ScrollPageUp scrolls the viewport up by half a page
func (c *ChatComponent) ScrollPageUp() {
	c.Viewport.HalfPageUp()
	c.UserScrolled = true
}

// ScrollPageDown scrolls the viewport down by half a page
func (c *ChatComponent) ScrollPageDown() {
	c.Viewport.HalfPageDown()
	c.UserScrolled = !c.Viewport.AtBottom()
	if !c.UserScrolled {
		c.AutoScroll = true
	}
}

// UpdateContent re-renders every entry into the viewport
func (c *ChatComponent) UpdateContent() {
	views := make([]string, 0, len(c.Entries))
	for _, e := range c.Entries {
		views = append(views, c.renderEntry(e))
	}
	c.Viewport.SetContent(lipgloss.JoinVertical(lipgloss.Left, views...))

	if c.AutoScroll && !c.UserScrolled {
		c.Viewport.GotoBottom()
	}
}

func (c *ChatComponent) renderEntry(e chatEntry) string {
	switch e.kind {
	case entryUser:
		style := lipgloss.NewStyle().Foreground(globalTheme.PromptBorder)
		wrapWidth := c.Width - userIndent
		if wrapWidth < 1 {
			wrapWidth = 1
		}
		lines := strings.Split(wordwrap.String(e.text, wrapWidth), "\n")
		lines[0] = "You: " + lines[0]
		for i := 1; i < len(lines); i++ {
			lines[i] = strings.Repeat(" ", userIndent) + lines[i]
		}
		return style.Render(strings.Join(lines, "\n"))
	case entryAssistant:
		header := lipgloss.NewStyle().Bold(true).Foreground(globalTheme.ChatBorder).Render(assistantPrefix + e.label)
		return header + "\n" + c.renderMarkdown(e.text)
	default:
		style := lipgloss.NewStyle().
			Foreground(globalTheme.TextColor).
			Padding(0, 1)
		width := c.Width - 2
		if width < 1 {
			width = 1
		}
		return style.Render(noticePrefix + wordwrap.String(e.text, width))
	}
}

// renderMarkdown renders markdown content with glamour
func (c *ChatComponent) renderMarkdown(content string) string {
	if !c.markdownEnabled || c.markdownRenderer == nil {
		return c.renderPlainText(content)
	}

	rendered, err := c.markdownRenderer.Render(content)
	if err != nil {
		return c.renderPlainText(content)
	}

	// Glamour runs with WordWrap(0); wrap here so resizes don't need a new renderer
	return strings.TrimSpace(wordwrap.String(rendered, c.Width-2))
}

func (c *ChatComponent) renderPlainText(content string) string {
	width := c.Width - 2
	if width < 1 {
		width = 1
	}
	return strings.TrimSpace(wordwrap.String(content, width))
}

// Update handles mouse wheel scrolling
func (c ChatComponent) Update(msg tea.Msg) (ChatComponent, tea.Cmd) {
	if msg, ok := msg.(tea.MouseMsg); ok {
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			c.Viewport.ScrollUp(1)
			c.UserScrolled = true
		case tea.MouseButtonWheelDown:
			c.Viewport.ScrollDown(1)
			c.UserScrolled = !c.Viewport.AtBottom()
		}
		return c, nil
	}
	var cmd tea.Cmd
	c.Viewport, cmd = c.Viewport.Update(msg)
	return c, cmd
}

// View renders the chat component
func (c ChatComponent) View() string {
	return c.Style.Render(c.Viewport.View())
}
