package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const addModelLabel = "Add new model..."

// modelOption is a row in the model selector. The last row adds a model.
type modelOption struct {
	model Model
	add   bool
}

func modelOptions(catalog []Model) []modelOption {
	opts := make([]modelOption, 0, len(catalog)+1)
	for _, m := range catalog {
		opts = append(opts, modelOption{model: m})
	}
	return append(opts, modelOption{add: true})
}

// initialModelIndex returns the catalog position of the active model
func initialModelIndex(catalog []Model, currentID string) int {
	for i, m := range catalog {
		if m.ID == currentID {
			return i
		}
	}
	return 0
}

// renderModelSelector renders the catalog with the active model marked
func renderModelSelector(catalog []Model, currentID string, index, width int) string {
	sw := NewSelectWindow(modelOptions(catalog))
	sw.Width = width
	return sw.Render(index, RenderConfig[modelOption]{
		Title: "Select a model",
		Hint:  "↑/↓ navigate · enter select · esc cancel",
		RenderItem: func(i int, opt modelOption, isSelected bool, sb *strings.Builder) {
			if opt.add {
				sb.WriteString(selectedRow("➕ "+addModelLabel, isSelected) + "\n")
				return
			}
			marker := "  "
			if opt.model.ID == currentID {
				marker = "✓ "
			}
			line := fmt.Sprintf("%s%s (%s)", marker, opt.model.Name, opt.model.ID)
			sb.WriteString(selectedRow(line, isSelected) + "\n")
		},
	})
}

// modelForm collects a model id and then a display name
type modelForm struct {
	step int
	id   textinput.Model
	name textinput.Model
	err  string
}

func newModelForm() *modelForm {
	id := textinput.New()
	id.Placeholder = "vendor/model-name"
	id.Prompt = "Model ID: "
	id.CharLimit = 200
	id.Focus()

	name := textinput.New()
	name.Placeholder = "Display name (optional)"
	name.Prompt = "Name: "
	name.CharLimit = 100

	return &modelForm{id: id, name: name}
}

// advance moves from the id step to the name step. It returns the model and
// true once both steps are complete.
func (f *modelForm) advance() (Model, bool) {
	if f.step == 0 {
		if strings.TrimSpace(f.id.Value()) == "" {
			f.err = "Model ID cannot be empty"
			return Model{}, false
		}
		f.err = ""
		f.step = 1
		f.id.Blur()
		f.name.Focus()
		return Model{}, false
	}
	id := strings.TrimSpace(f.id.Value())
	name := strings.TrimSpace(f.name.Value())
	if name == "" {
		name = id
	}
	return Model{ID: id, Name: name}, true
}

// back returns to the id step. It reports false when already on the first step.
func (f *modelForm) back() bool {
	if f.step == 0 {
		return false
	}
	f.step = 0
	f.err = ""
	f.name.Blur()
	f.id.Focus()
	return true
}

// Update forwards input to the focused field
func (f *modelForm) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if f.step == 0 {
		f.id, cmd = f.id.Update(msg)
	} else {
		f.name, cmd = f.name.Update(msg)
	}
	return cmd
}

func (f *modelForm) View() string {
	var sb strings.Builder
	sb.WriteString(globalTheme.Title.Render(fmt.Sprintf("Add new model [%d/2]", f.step+1)) + "\n")
	sb.WriteString(f.id.View() + "\n")
	if f.step == 1 {
		sb.WriteString(f.name.View() + "\n")
	}
	if f.err != "" {
		sb.WriteString(lipgloss.NewStyle().Foreground(globalTheme.Error).Render(f.err) + "\n")
	}
	sb.WriteString(globalTheme.Hint.Render("enter next · esc back") + "\n")
	return sb.String()
}
