// Package models holds the terminal UI state rendered by views.
package models

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
)

// Message roles shown in the chat.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
	RoleToolError = "tool_error"
	RoleSystem    = "system"
)

// Message is one entry of the chat transcript.
type Message struct {
	Role    string
	Content string
}

// State is everything the views need to draw a frame.
type State struct {
	Input    textinput.Model
	Viewport viewport.Model
	Spinner  spinner.Model

	Messages []Message

	Width  int
	Height int

	// CanSubmit is set while the REPL waits for input.
	CanSubmit bool
	Prompt    string

	StatusPhase   string
	StatusMessage string
	DotCount      int

	CurrentModel string

	Tools     []string
	ShowTools bool
}
