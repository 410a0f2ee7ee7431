package views

import (
	"strings"

	"github.com/Cyclone1070/mcpchat/internal/ui/models"
	"github.com/Cyclone1070/mcpchat/internal/ui/services"
)

// RenderChat renders the message history
func RenderChat(s models.State) string {
	if len(s.Messages) == 0 {
		return "No messages yet. Type a query to start."
	}
	return s.Viewport.View()
}

// FormatChatContent formats the messages for the viewport
func FormatChatContent(messages []models.Message, width int, renderer services.MarkdownRenderer) string {
	var lines []string
	for _, msg := range messages {
		switch msg.Role {
		case models.RoleUser:
			lines = append(lines, UserMessageStyle.Render("You: "+msg.Content))
		case models.RoleTool:
			lines = append(lines, ToolMessageStyle.Render(msg.Content))
		case models.RoleToolError:
			lines = append(lines, ToolErrorStyle.Render(msg.Content))
		case models.RoleSystem:
			lines = append(lines, SystemMessageStyle.Render(msg.Content))
		default:
			// Render assistant messages as markdown
			rendered, err := services.RenderMarkdown(msg.Content, width, renderer)
			if err != nil {
				// Fallback to plain text
				lines = append(lines, AssistantMessageStyle.Render(msg.Content))
			} else {
				lines = append(lines, AssistantMessageStyle.Render(rendered))
			}
		}
		lines = append(lines, "") // Add spacing
	}
	return strings.Join(lines, "\n")
}
