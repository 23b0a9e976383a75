package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/afittestide/orchat/storage"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
)

const (
	unknownCommandHint = "Available commands: /help, /exit, /newchat, /swmodel, /save, /listchats, /load"
	busyMessage        = "Please wait for the current response"
	noMessagesToSave   = "No messages to save"
	noConversations    = "No saved conversations found"
)

// Command represents a slash command
type Command struct {
	Name        string
	Description string
	Handler     func(*TUIModel, []string) tea.Cmd
	// AllowWhileLoading marks commands that do not touch the transcript
	AllowWhileLoading bool
}

// CommandRegistry holds all available commands
type CommandRegistry struct {
	Commands map[string]Command
	order    []string
}

// NewCommandRegistry creates a new command registry
func NewCommandRegistry() CommandRegistry {
	registry := CommandRegistry{
		Commands: make(map[string]Command),
	}

	registry.RegisterCommand("/help", "Show help message with all commands", handleHelpCommand, true)
	registry.RegisterCommand("/swmodel", "Switch AI model (opens interactive selector)", handleSwitchModelCommand, true)
	registry.RegisterCommand("/save", "Save conversation with AI-generated filename", handleSaveCommand, false)
	registry.RegisterCommand("/load", "Load a previously saved conversation", handleLoadCommand, false)
	registry.RegisterCommand("/listchats", "List all saved conversations with dates", handleListChatsCommand, true)
	registry.RegisterCommand("/newchat", "Save current conversation and start fresh", handleNewChatCommand, false)
	registry.RegisterCommand("/exit", "Exit the application", handleExitCommand, true)

	return registry
}

// RegisterCommand registers a new command
func (cr *CommandRegistry) RegisterCommand(name, description string, handler func(*TUIModel, []string) tea.Cmd, allowWhileLoading bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || !strings.HasPrefix(name, "/") {
		return
	}
	if _, exists := cr.Commands[name]; !exists {
		cr.order = append(cr.order, name)
	}
	cr.Commands[name] = Command{
		Name:              name,
		Description:       description,
		Handler:           handler,
		AllowWhileLoading: allowWhileLoading,
	}
}

// GetCommand gets a command by name, ignoring case
func (cr CommandRegistry) GetCommand(name string) (Command, bool) {
	cmd, exists := cr.Commands[strings.ToLower(name)]
	return cmd, exists
}

// FilterCommands returns the commands whose name starts with the text typed
// after the leading "/", in catalog order. Input without a leading "/"
// matches nothing.
func (cr CommandRegistry) FilterCommands(input string) []Command {
	if !strings.HasPrefix(input, "/") {
		return nil
	}
	partial := strings.ToLower(strings.TrimPrefix(input, "/"))
	var matches []Command
	for _, name := range cr.order {
		if strings.HasPrefix(strings.TrimPrefix(name, "/"), partial) {
			matches = append(matches, cr.Commands[name])
		}
	}
	return matches
}

// GetAllCommands returns all registered commands
func (cr CommandRegistry) GetAllCommands() []Command {
	commands := make([]Command, 0, len(cr.order))
	for _, name := range cr.order {
		if cmd, ok := cr.Commands[name]; ok {
			commands = append(commands, cmd)
		}
	}
	return commands
}

// Command handlers

func handleHelpCommand(model *TUIModel, args []string) tea.Cmd {
	model.appendLocalReply(helpText(model.commandRegistry, model.store.Dir()))
	return nil
}

func handleSwitchModelCommand(model *TUIModel, args []string) tea.Cmd {
	model.mode = modelSelectMode{index: initialModelIndex(model.config.Models, model.currentModel.ID)}
	return nil
}

func handleSaveCommand(model *TUIModel, args []string) tea.Cmd {
	if model.transcript.NonSystemCount() == 0 {
		model.reportError(noMessagesToSave)
		return nil
	}
	model.loading = true
	model.commandLine.AddToast("Analyzing conversation for naming...", toastInfo, infoToastTimeout)
	req := newSaveRequest(model.transcript, model.pastes, model.currentModel.ID)
	return tea.Batch(model.status.StartWaiting(), saveConversationCmd(model.completer, model.store, req))
}

func handleLoadCommand(model *TUIModel, args []string) tea.Cmd {
	return listConversationsCmd(model.store, true)
}

func handleListChatsCommand(model *TUIModel, args []string) tea.Cmd {
	return listConversationsCmd(model.store, false)
}

func handleNewChatCommand(model *TUIModel, args []string) tea.Cmd {
	req := newSaveRequest(model.transcript, model.pastes, model.currentModel.ID)

	model.transcript = NewTranscript(model.config.SystemPrompt)
	model.chat.Clear()

	if countNonSystem(req.Messages) == 0 {
		model.commandLine.AddToast("Starting new chat...", toastSuccess, infoToastTimeout)
		return nil
	}

	jobID := uuid.NewString()
	slog.Info("saving previous conversation in background", "job", jobID, "messages", len(req.Messages))
	model.status.SetSaveStatus("saving…")
	model.commandLine.AddToast("Starting new chat, saving previous conversation...", toastInfo, infoToastTimeout)
	return backgroundSaveCmd(jobID, model.completer, model.store, req)
}

func handleExitCommand(model *TUIModel, args []string) tea.Cmd {
	return tea.Quit
}

// formatConversationList renders the /listchats output
func formatConversationList(summaries []storage.ConversationSummary) string {
	if len(summaries) == 0 {
		return noConversations
	}
	var sb strings.Builder
	sb.WriteString("Saved Conversations:\n\n")
	for _, s := range summaries {
		sb.WriteString(fmt.Sprintf("%-30s %s\n", s.DisplayName(), s.DisplayAge()))
	}
	return strings.TrimRight(sb.String(), "\n")
}
