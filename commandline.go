package main

import (
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
)

const (
	toastInfo    = "info"
	toastSuccess = "success"
	toastWarning = "warning"
	toastError   = "error"

	errorToastTimeout = 5 * time.Second
	infoToastTimeout  = 3 * time.Second
)

// Toast represents a single toast notification
type Toast struct {
	ID      string
	Message string
	Type    string // info, success, warning, error
	Created time.Time
	Timeout time.Duration
}

// CommandLineComponent manages the bottom line, which shows transient toasts
type CommandLineComponent struct {
	toasts []Toast
	width  int
	style  lipgloss.Style
}

// NewCommandLineComponent creates a new command line component
func NewCommandLineComponent() *CommandLineComponent {
	return &CommandLineComponent{
		toasts: make([]Toast, 0),
		style: lipgloss.NewStyle().
			Background(lipgloss.Color("62")).
			Foreground(lipgloss.Color("230")).
			Padding(0, 1),
	}
}

// AddToast adds a new toast notification and returns its id
func (cl *CommandLineComponent) AddToast(message, toastType string, timeout time.Duration) string {
	toast := Toast{
		ID:      uuid.NewString(),
		Message: message,
		Type:    toastType,
		Created: time.Now(),
		Timeout: timeout,
	}
	cl.toasts = append(cl.toasts, toast)
	return toast.ID
}

// RemoveToast removes a toast by ID
func (cl *CommandLineComponent) RemoveToast(id string) {
	for i, toast := range cl.toasts {
		if toast.ID == id {
			cl.toasts = append(cl.toasts[:i], cl.toasts[i+1:]...)
			return
		}
	}
}

// ClearToasts removes all existing toast notifications
func (cl *CommandLineComponent) ClearToasts() {
	cl.toasts = nil
}

// Current returns the newest active toast
func (cl *CommandLineComponent) Current() (Toast, bool) {
	if len(cl.toasts) == 0 {
		return Toast{}, false
	}
	return cl.toasts[len(cl.toasts)-1], true
}

// SetWidth sets the available width
func (cl *CommandLineComponent) SetWidth(width int) {
	cl.width = width
}

// Update removes expired toasts
func (cl *CommandLineComponent) Update() {
	now := time.Now()
	active := cl.toasts[:0]
	for _, toast := range cl.toasts {
		if now.Sub(toast.Created) < toast.Timeout {
			active = append(active, toast)
		}
	}
	cl.toasts = active
}

// View renders the newest toast, or a blank line
func (cl *CommandLineComponent) View() string {
	toast, ok := cl.Current()
	if !ok {
		return ""
	}

	style := cl.style
	if cl.width > 0 {
		style = style.MaxWidth(cl.width)
	}
	switch toast.Type {
	case toastInfo:
		style = style.Background(lipgloss.NoColor{})
	case toastSuccess:
		style = style.Background(lipgloss.Color("76")) // Green
	case toastWarning:
		style = style.Background(lipgloss.Color("11")) // Yellow
	case toastError:
		style = style.Background(lipgloss.Color("124")) // Red
	}
	return style.Render(toast.Message)
}
