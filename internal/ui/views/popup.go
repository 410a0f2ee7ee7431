package views

import (
	"fmt"
	"strings"

	"github.com/Cyclone1070/mcpchat/internal/ui/models"
	"github.com/charmbracelet/lipgloss"
)

// RenderToolsPopup renders the list of tools the server offers
func RenderToolsPopup(s models.State) string {
	if !s.ShowTools {
		return ""
	}

	var lines []string
	lines = append(lines, lipgloss.NewStyle().Bold(true).Render("Connected Tools:"))
	lines = append(lines, "")

	if len(s.Tools) == 0 {
		lines = append(lines, "  (none)")
	}
	for _, name := range s.Tools {
		lines = append(lines, fmt.Sprintf("  • %s", name))
	}

	lines = append(lines, "")
	lines = append(lines, lipgloss.NewStyle().Faint(true).Render("Esc: Close"))

	return PopupBoxStyle.Render(strings.Join(lines, "\n"))
}
