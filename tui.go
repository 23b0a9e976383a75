package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/afittestide/orchat/storage"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// inputMode is the state of the input area. Exactly one mode is active.
type inputMode interface {
	modeName() string
}

type normalMode struct{}

type commandSelectMode struct {
	commands []Command
	index    int
}

type conversationSelectMode struct {
	conversations []storage.ConversationSummary
	index         int
}

// modelSelectMode lists the catalog. form is set while adding a model.
type modelSelectMode struct {
	index int
	form  *modelForm
}

func (normalMode) modeName() string             { return "chat" }
func (commandSelectMode) modeName() string      { return "command" }
func (conversationSelectMode) modeName() string { return "load" }
func (modelSelectMode) modeName() string        { return "model" }

// Messages produced by commands
type completionResultMsg struct {
	content string
	modelID string
}

type completionErrorMsg struct{ err error }

type conversationSavedMsg struct{ path string }

type saveErrorMsg struct{ err error }

type backgroundSaveMsg struct {
	jobID string
	path  string
	err   error
}

type conversationsListedMsg struct {
	summaries []storage.ConversationSummary
	forLoad   bool
	err       error
}

type conversationLoadedMsg struct{ record *storage.ConversationRecord }

type loadErrorMsg struct{ err error }

type connectionTestMsg struct{ err error }

// connectionTester is implemented by completers that can check credentials upfront
type connectionTester interface {
	TestConnection(ctx context.Context) error
}

// TUIModel represents the bubbletea model for the chat session
type TUIModel struct {
	config *Config
	width  int
	height int

	// UI components
	chat        *ChatComponent
	status      StatusComponent
	commandLine *CommandLineComponent

	commandRegistry CommandRegistry

	// Input state
	mode    inputMode
	input   string
	loading bool

	// Session
	transcript   *Transcript
	pastes       *PasteStore
	currentModel Model

	completer Completer
	store     *storage.ConversationStore
	history   *storage.HistoryStore

	// Prompt recall
	promptHistory  []string
	historyCursor  int
	historyPresent string
	historySaved   bool
}

// NewTUIModel creates a new TUI model
func NewTUIModel(config *Config, completer Completer, store *storage.ConversationStore, history *storage.HistoryStore) *TUIModel {
	NewTheme()

	current := Model{ID: config.DefaultModel, Name: config.DefaultModel}
	if found := config.FindModel(config.DefaultModel); found != nil {
		current = *found
	}

	m := &TUIModel{
		config:          config,
		chat:            NewChatComponent(80, 20, config.UI.MarkdownEnabled),
		status:          NewStatusComponent(80),
		commandLine:     NewCommandLineComponent(),
		commandRegistry: NewCommandRegistry(),
		mode:            normalMode{},
		transcript:      NewTranscript(config.SystemPrompt),
		pastes:          NewPasteStore(),
		currentModel:    current,
		completer:       completer,
		store:           store,
		history:         history,
	}
	m.initHistory()
	m.syncStatus()
	return m
}

func (m *TUIModel) initHistory() {
	if m.history == nil || !m.config.History.Enabled {
		return
	}
	entries, err := m.history.LoadPromptHistory(m.config.History.MaxEntries)
	if err != nil {
		slog.Warn("failed to load prompt history", "error", err)
		return
	}
	// Paste ids of earlier processes do not resolve here
	m.promptHistory = make([]string, 0, len(entries))
	for _, entry := range entries {
		m.promptHistory = append(m.promptHistory, Neutralize(entry.Content))
	}
	m.historyCursor = len(m.promptHistory)
}

// Init implements bubbletea.Model
func (m TUIModel) Init() tea.Cmd {
	if tester, ok := m.completer.(connectionTester); ok {
		return testConnectionCmd(tester)
	}
	return nil
}

// Update implements bubbletea.Model
func (m TUIModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	start := time.Now()
	defer func() {
		duration := time.Since(start)
		if duration > 100*time.Millisecond {
			slog.Warn("[bubbletea] Update() SLOW", "duration", duration, "msg_type", fmt.Sprintf("%T", msg))
		}
	}()

	// Update command line to remove expired toasts
	m.commandLine.Update()

	var model tea.Model
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.KeyMsg:
		model, cmd = m.handleKeyMsg(msg)

	case tea.MouseMsg:
		updated, chatCmd := m.chat.Update(msg)
		*m.chat = updated
		model, cmd = m, chatCmd

	case tea.WindowSizeMsg:
		model, cmd = m.handleWindowSizeMsg(msg)

	case spinner.TickMsg:
		m.status, cmd = m.status.Update(msg)
		model = m

	default:
		model, cmd = m.handleCustomMessages(msg)
	}

	next := model.(TUIModel)
	next.syncStatus()
	next.updateComponentDimensions()
	return next, cmd
}

// handleKeyMsg routes a key to the handler of the active mode
func (m TUIModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch mode := m.mode.(type) {
	case commandSelectMode:
		return m.handleCommandSelectKey(mode, msg)
	case conversationSelectMode:
		return m.handleConversationSelectKey(mode, msg)
	case modelSelectMode:
		return m.handleModelSelectKey(mode, msg)
	default:
		return m.handleNormalKey(msg)
	}
}

func (m TUIModel) handleNormalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return m.handleEnterKey()
	case "up":
		m.handleHistoryNavigation(-1)
		return m, nil
	case "down":
		m.handleHistoryNavigation(1)
		return m, nil
	case "pgup":
		m.chat.ScrollPageUp()
		return m, nil
	case "pgdown":
		m.chat.ScrollPageDown()
		return m, nil
	case "esc":
		return m, nil
	}
	m.editInput(msg)
	return m, nil
}

func (m TUIModel) handleCommandSelectKey(mode commandSelectMode, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up":
		mode.index = wrapIndex(mode.index, -1, len(mode.commands))
		m.mode = mode
	case "down":
		mode.index = wrapIndex(mode.index, 1, len(mode.commands))
		m.mode = mode
	case "enter", "tab":
		if len(mode.commands) == 0 {
			m.mode = normalMode{}
			return m, nil
		}
		return m.runCommand(mode.commands[mode.index], nil)
	case "esc":
		m.mode = normalMode{}
	default:
		m.editInput(msg)
	}
	return m, nil
}

func (m TUIModel) handleConversationSelectKey(mode conversationSelectMode, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up":
		mode.index = wrapIndex(mode.index, -1, len(mode.conversations))
		m.mode = mode
	case "down":
		mode.index = wrapIndex(mode.index, 1, len(mode.conversations))
		m.mode = mode
	case "enter":
		m.mode = normalMode{}
		if len(mode.conversations) == 0 {
			return m, nil
		}
		selected := mode.conversations[mode.index]
		slog.Info("loading conversation", "file", selected.Filename)
		// Submissions wait until the loaded transcript is in place
		m.loading = true
		return m, tea.Batch(m.status.StartWaiting(), loadConversationCmd(m.store, selected.Filename))
	case "esc":
		m.mode = normalMode{}
	}
	return m, nil
}

func (m TUIModel) handleModelSelectKey(mode modelSelectMode, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if mode.form != nil {
		return m.handleModelFormKey(mode, msg)
	}

	options := len(m.config.Models) + 1
	switch msg.String() {
	case "up":
		mode.index = wrapIndex(mode.index, -1, options)
	case "down":
		mode.index = wrapIndex(mode.index, 1, options)
	case "enter":
		if mode.index >= len(m.config.Models) {
			mode.form = newModelForm()
			m.mode = mode
			return m, textinput.Blink
		}
		m.selectModel(m.config.Models[mode.index])
		m.mode = normalMode{}
		return m, nil
	case "esc":
		m.mode = normalMode{}
		return m, nil
	}
	m.mode = mode
	return m, nil
}

func (m TUIModel) handleModelFormKey(mode modelSelectMode, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if !mode.form.back() {
			mode.form = nil
		}
		m.mode = mode
		return m, nil
	case "enter":
		added, done := mode.form.advance()
		if !done {
			m.mode = mode
			return m, nil
		}
		if err := m.config.AddModel(added); err != nil {
			slog.Warn("failed to add model", "id", added.ID, "error", err)
			mode.form.err = err.Error()
			m.mode = mode
			return m, nil
		}
		if found := m.config.FindModel(added.ID); found != nil {
			added = *found
		}
		m.selectModel(added)
		m.mode = normalMode{}
		return m, nil
	}
	cmd := mode.form.Update(msg)
	m.mode = mode
	return m, cmd
}

// selectModel makes model the target of later submissions
func (m *TUIModel) selectModel(model Model) {
	m.currentModel = model
	slog.Info("model switched", "id", model.ID)
	m.commandLine.AddToast("Switched to "+model.Name, toastSuccess, infoToastTimeout)
}

// editInput applies a buffer-editing key. Pastes are virtualized on the way in.
func (m *TUIModel) editInput(msg tea.KeyMsg) bool {
	var next string
	switch msg.Type {
	case tea.KeyRunes:
		next = m.input + string(msg.Runes)
	case tea.KeySpace:
		next = m.input + " "
	case tea.KeyBackspace, tea.KeyDelete:
		if m.input == "" {
			return false
		}
		runes := []rune(m.input)
		next = string(runes[:len(runes)-1])
	case tea.KeyCtrlU:
		next = ""
	default:
		return false
	}

	m.historySaved = false
	m.historyCursor = len(m.promptHistory)
	m.input = m.pastes.OnTextChanged(m.input, next)
	m.refreshCommandFilter()
	return true
}

// refreshCommandFilter enters command selection while the buffer matches a command
func (m *TUIModel) refreshCommandFilter() {
	if matches := m.commandRegistry.FilterCommands(m.input); len(matches) > 0 {
		m.mode = commandSelectMode{commands: matches}
		return
	}
	m.mode = normalMode{}
}

// handleHistoryNavigation recalls earlier prompts. It only starts from an empty buffer.
func (m *TUIModel) handleHistoryNavigation(direction int) bool {
	if len(m.promptHistory) == 0 {
		return false
	}

	switch {
	case direction < 0:
		if !m.historySaved {
			if m.input != "" {
				return false
			}
			m.historyPresent = m.input
			m.historySaved = true
			m.historyCursor = len(m.promptHistory)
		}
		if m.historyCursor > 0 {
			m.historyCursor--
		}
		m.input = m.promptHistory[m.historyCursor]
		return true
	case direction > 0:
		if !m.historySaved {
			return false
		}
		if m.historyCursor < len(m.promptHistory)-1 {
			m.historyCursor++
			m.input = m.promptHistory[m.historyCursor]
			return true
		}
		// Reached the end of history, restore the present state
		m.historyCursor = len(m.promptHistory)
		m.input = m.historyPresent
		m.historySaved = false
		return true
	}
	return false
}

// handleEnterKey submits the buffer as a command or a message
func (m TUIModel) handleEnterKey() (tea.Model, tea.Cmd) {
	expanded, missing := m.pastes.Expand(m.input)
	if len(missing) > 0 {
		m.reportError("Missing pasted content for " + formatPasteRefs(missing))
		return m, nil
	}

	trimmed := strings.TrimSpace(expanded)
	if trimmed == "" {
		m.reportError("Message cannot be empty")
		return m, nil
	}

	if strings.HasPrefix(trimmed, "/") {
		fields := strings.Fields(trimmed)
		name := strings.ToLower(fields[0])
		cmd, ok := m.commandRegistry.GetCommand(name)
		if !ok {
			m.input = ""
			m.mode = normalMode{}
			m.reportError(fmt.Sprintf("Unknown command: %s. %s", name, unknownCommandHint))
			return m, nil
		}
		return m.runCommand(cmd, fields[1:])
	}

	if m.loading {
		m.reportError(busyMessage)
		return m, nil
	}
	return m.submitPrompt()
}

// runCommand clears the input and runs cmd unless a response is pending
func (m TUIModel) runCommand(cmd Command, args []string) (tea.Model, tea.Cmd) {
	if m.loading && !cmd.AllowWhileLoading {
		m.reportError(busyMessage)
		return m, nil
	}
	slog.Debug("running command", "command", cmd.Name)
	m.commandLine.ClearToasts()
	m.input = ""
	m.mode = normalMode{}
	result := cmd.Handler(&m, args)
	return m, result
}

// submitPrompt appends the buffer to the transcript and requests a completion
func (m TUIModel) submitPrompt() (tea.Model, tea.Cmd) {
	display := m.input
	m.commandLine.ClearToasts()
	m.transcript.Append(storage.RoleUser, display)
	m.chat.AddUser(display)
	m.input = ""
	m.mode = normalMode{}
	m.loading = true
	m.recordHistory(display)

	messages := apiView(m.transcript.Snapshot(), m.pastes)
	return m, tea.Batch(m.status.StartWaiting(), completeCmd(m.completer, m.currentModel.ID, messages))
}

func (m *TUIModel) recordHistory(prompt string) {
	m.promptHistory = append(m.promptHistory, prompt)
	m.historyCursor = len(m.promptHistory)
	m.historySaved = false

	if m.history == nil || !m.config.History.Enabled {
		return
	}
	if err := m.history.AppendPrompt(Neutralize(prompt), m.currentModel.ID); err != nil {
		slog.Warn("failed to record prompt history", "error", err)
	}
}

// appendLocalReply records locally generated output as an assistant message.
// It is shown as a notice but saved and sent upstream like any reply.
func (m *TUIModel) appendLocalReply(text string) {
	m.transcript.Append(storage.RoleAssistant, text)
	m.chat.AddNotice(text)
}

// reportError shows message as an error toast
func (m *TUIModel) reportError(message string) {
	slog.Warn("user-visible error", "message", message)
	m.commandLine.AddToast(message, toastError, errorToastTimeout)
}

func formatPasteRefs(ids []int) string {
	refs := make([]string, len(ids))
	for i, id := range ids {
		refs[i] = fmt.Sprintf("#%d", id)
	}
	return strings.Join(refs, ", ")
}

func (m TUIModel) handleWindowSizeMsg(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	return m, nil
}

// handleCustomMessages handles the results of commands
func (m TUIModel) handleCustomMessages(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case connectionTestMsg:
		m.status.SetConnected(msg.err == nil)
		if msg.err != nil {
			slog.Warn("connection test failed", "error", msg.err)
			m.commandLine.AddToast("Connection test failed: "+msg.err.Error(), toastWarning, errorToastTimeout)
		}

	case completionResultMsg:
		m.loading = false
		m.status.StopWaiting()
		m.status.SetConnected(true)
		m.transcript.Append(storage.RoleAssistant, msg.content)
		m.chat.AddAssistant(shortModelName(msg.modelID), msg.content)

	case completionErrorMsg:
		m.loading = false
		m.status.StopWaiting()
		m.reportError(msg.err.Error())

	case conversationSavedMsg:
		m.loading = false
		m.status.StopWaiting()
		m.status.SetSaveStatus("saved " + filepath.Base(msg.path))
		m.commandLine.AddToast("Conversation saved to "+msg.path, toastSuccess, infoToastTimeout)

	case saveErrorMsg:
		m.loading = false
		m.status.StopWaiting()
		m.reportError(msg.err.Error())

	case backgroundSaveMsg:
		if msg.err != nil {
			slog.Warn("background save failed", "job", msg.jobID, "error", msg.err)
			m.status.SetSaveStatus("save failed")
			m.reportError("Background save failed: " + msg.err.Error())
			break
		}
		slog.Info("background save finished", "job", msg.jobID, "path", msg.path)
		m.status.SetSaveStatus("saved " + filepath.Base(msg.path))
		m.commandLine.AddToast("Previous conversation saved to "+msg.path, toastSuccess, infoToastTimeout)

	case conversationsListedMsg:
		if msg.err != nil {
			m.reportError(fmt.Sprintf("Failed to list conversations: %v", msg.err))
			break
		}
		if !msg.forLoad {
			m.appendLocalReply(formatConversationList(msg.summaries))
			break
		}
		if len(msg.summaries) == 0 {
			m.reportError(noConversations)
			break
		}
		if _, idle := m.mode.(normalMode); !idle || m.loading {
			break
		}
		m.mode = conversationSelectMode{conversations: msg.summaries}

	case conversationLoadedMsg:
		m.loading = false
		m.status.StopWaiting()
		m.applyConversation(msg.record)

	case loadErrorMsg:
		m.loading = false
		m.status.StopWaiting()
		m.reportError(fmt.Sprintf("Failed to load conversation: %v", msg.err))

	case updateAvailableMsg:
		m.commandLine.AddToast("A new orchat release is available. Run: "+GetUpdateCommand(), toastInfo, errorToastTimeout)
	}
	return m, nil
}

// applyConversation replaces the transcript with a loaded record. Saved pastes
// are adopted into this session's paste store under fresh ids.
func (m *TUIModel) applyConversation(rec *storage.ConversationRecord) {
	remap := make(map[int]int)
	unresolved := 0
	messages := make([]storage.Message, len(rec.Messages))
	for i, msg := range rec.Messages {
		if msg.Role == storage.RoleUser {
			var n int
			msg.Content, n = m.pastes.Adopt(msg.Content, rec.Pastes, remap)
			unresolved += n
		}
		messages[i] = msg
	}
	restored := *rec
	restored.Messages = messages
	m.transcript = TranscriptFromRecord(&restored)

	var warnings []string
	if found := m.config.FindModel(rec.Model); found != nil {
		m.currentModel = *found
	} else if rec.Model != "" {
		warnings = append(warnings, fmt.Sprintf("Model %s not in catalog, keeping %s", rec.Model, m.currentModel.ID))
	}
	if unresolved > 0 {
		warnings = append(warnings, fmt.Sprintf("%d pasted references could not be restored", unresolved))
	}

	label := shortModelName(rec.Model)
	if label == "" {
		label = shortModelName(m.currentModel.ID)
	}
	m.chat.LoadTranscript(m.transcript.Messages(), label)

	name := strings.ReplaceAll(rec.Metadata.AIGeneratedName, "_", " ")
	slog.Info("conversation loaded", "name", rec.Metadata.AIGeneratedName, "messages", m.transcript.Len())
	m.commandLine.AddToast("Loaded conversation: "+name, toastSuccess, infoToastTimeout)
	for _, w := range warnings {
		slog.Warn(w)
		m.commandLine.AddToast(w, toastWarning, errorToastTimeout)
	}
}

func (m *TUIModel) syncStatus() {
	m.status.SetModel(m.currentModel)
	m.status.SetMessageCount(m.transcript.NonSystemCount())
	m.status.SetMode(m.mode.modeName())
}

func (m *TUIModel) updateComponentDimensions() {
	if m.width == 0 || m.height == 0 {
		return
	}

	// Status line and command line take one line each
	fixed := lipgloss.Height(m.renderPrompt()) + 2
	if overlay := m.renderOverlay(); overlay != "" {
		fixed += lipgloss.Height(overlay)
	}
	chatHeight := max(m.height-fixed, 0)

	m.status.SetWidth(m.width)
	m.commandLine.SetWidth(m.width)
	if m.chat.Width != m.width || m.chat.Height != chatHeight {
		m.chat.SetSize(m.width, chatHeight)
	}
}

// View implements bubbletea.Model
func (m TUIModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	parts := []string{m.chat.View()}
	if overlay := m.renderOverlay(); overlay != "" {
		parts = append(parts, overlay)
	}
	parts = append(parts, m.renderPrompt(), m.status.View(), m.commandLine.View())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m TUIModel) renderPrompt() string {
	border := globalTheme.PromptBorder
	if m.loading {
		border = globalTheme.BusyBorder
	}
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Width(max(m.width-2, 1))

	if m.input == "" {
		hint := "Type a message or / for commands"
		if m.loading {
			hint = "Waiting for response..."
		}
		return style.Render(globalTheme.Hint.Render(hint))
	}
	return style.Render("> " + m.input + "▌")
}

// renderOverlay draws the selector of the active mode above the prompt
func (m TUIModel) renderOverlay() string {
	width := max(m.width-2, 1)
	switch mode := m.mode.(type) {
	case commandSelectMode:
		sw := NewSelectWindow(mode.commands)
		sw.Width = width
		return sw.Render(mode.index, RenderConfig[Command]{
			Title: "Commands",
			Hint:  "↑/↓ navigate · enter run · esc close",
			RenderItem: func(i int, cmd Command, isSelected bool, sb *strings.Builder) {
				sb.WriteString(selectedRow(fmt.Sprintf("%-11s %s", cmd.Name, cmd.Description), isSelected) + "\n")
			},
		})
	case conversationSelectMode:
		sw := NewSelectWindow(mode.conversations)
		sw.Width = width
		return sw.Render(mode.index, RenderConfig[storage.ConversationSummary]{
			Title: "Load conversation",
			Hint:  "↑/↓ navigate · enter load · esc cancel",
			RenderItem: func(i int, s storage.ConversationSummary, isSelected bool, sb *strings.Builder) {
				sb.WriteString(selectedRow(conversationRow(s), isSelected) + "\n")
			},
		})
	case modelSelectMode:
		if mode.form != nil {
			return mode.form.View()
		}
		return renderModelSelector(m.config.Models, m.currentModel.ID, mode.index, width)
	}
	return ""
}

func conversationRow(s storage.ConversationSummary) string {
	parts := []string{s.DisplayName(), s.DisplayAge()}
	if s.MessageCount > 0 {
		parts = append(parts, fmt.Sprintf("%d msgs", s.MessageCount))
	}
	if s.Model != "" {
		parts = append(parts, shortModelName(s.Model))
	}
	return strings.Join(parts, " · ")
}

// Commands

func completeCmd(completer Completer, modelID string, messages []storage.Message) tea.Cmd {
	return func() tea.Msg {
		if completer == nil {
			return completionErrorMsg{err: errors.New("no completion service available")}
		}
		start := time.Now()
		reply, err := completer.Complete(context.Background(), modelID, messages)
		if err != nil {
			slog.Warn("completion failed", "model", modelID, "error", err)
			return completionErrorMsg{err: err}
		}
		slog.Debug("completion received", "model", modelID, "duration", time.Since(start))
		return completionResultMsg{content: reply, modelID: modelID}
	}
}

func saveConversationCmd(completer Completer, store *storage.ConversationStore, req saveRequest) tea.Cmd {
	return func() tea.Msg {
		path, err := nameAndSave(context.Background(), completer, store, req)
		if err != nil {
			slog.Warn("save failed", "error", err)
			return saveErrorMsg{err: err}
		}
		return conversationSavedMsg{path: path}
	}
}

// backgroundSaveCmd saves a detached snapshot. It never touches the live session.
func backgroundSaveCmd(jobID string, completer Completer, store *storage.ConversationStore, req saveRequest) tea.Cmd {
	return func() tea.Msg {
		path, err := nameAndSave(context.Background(), completer, store, req)
		return backgroundSaveMsg{jobID: jobID, path: path, err: err}
	}
}

func listConversationsCmd(store *storage.ConversationStore, forLoad bool) tea.Cmd {
	return func() tea.Msg {
		summaries, err := store.List()
		if err != nil {
			return conversationsListedMsg{forLoad: forLoad, err: err}
		}
		if forLoad {
			summaries = store.Describe(summaries)
		}
		return conversationsListedMsg{summaries: summaries, forLoad: forLoad}
	}
}

func loadConversationCmd(store *storage.ConversationStore, filename string) tea.Cmd {
	return func() tea.Msg {
		rec, err := store.Load(filename)
		if err != nil {
			return loadErrorMsg{err: err}
		}
		return conversationLoadedMsg{record: rec}
	}
}

func testConnectionCmd(tester connectionTester) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return connectionTestMsg{err: tester.TestConnection(ctx)}
	}
}
