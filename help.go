package main

import (
	"fmt"
	"strings"
)

const helpTips = `Usage tips:
• Use arrow keys in selectors (Enter to select, Esc to cancel)
• Long text shows as [Pasted Text #N] but the full content is sent to the model
• Saved files are named <ai_generated_name>-YYYYMMDD-HHMMSScc.json
• Names are 3 to 4 words joined by underscores, at most 25 characters
• Load restores the whole conversation and its original model
• /listchats shows days for recent files and full dates for older ones
• /newchat saves the current conversation in the background before clearing
• ↑/↓ on an empty prompt recalls earlier prompts, PgUp/PgDn scrolls the chat`

// helpText renders the command catalog followed by usage tips
func helpText(registry CommandRegistry, conversationsDir string) string {
	var sb strings.Builder
	sb.WriteString("Available commands:\n")
	for _, cmd := range registry.GetAllCommands() {
		sb.WriteString(fmt.Sprintf("• %-11s %s\n", cmd.Name, cmd.Description))
	}
	sb.WriteString("\n")
	sb.WriteString(helpTips)
	if conversationsDir != "" {
		sb.WriteString("\n• Conversations are saved to " + conversationsDir)
	}
	return sb.String()
}
