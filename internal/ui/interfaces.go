package ui

import "context"

// UserInterface defines the contract for all user interactions.
// It follows a Read/Write pattern for clarity.
//
// Context Usage:
// ReadInput accepts context.Context for cancellation support. When the UI
// exits (Ctrl+C, quit, end of input) the caller cancels the context and
// ReadInput returns immediately.
type UserInterface interface {
	// Start runs the UI and blocks until it exits.
	Start() error

	// Ready is closed once the UI accepts requests.
	Ready() <-chan struct{}

	// Quit stops the UI; Start returns afterwards.
	Quit()

	// ReadInput prompts the user for a line of text
	ReadInput(ctx context.Context, prompt string) (string, error)

	// WriteStatus displays ephemeral status updates (e.g., "Thinking...")
	WriteStatus(phase string, message string)

	// WriteMessage displays the model's answer
	WriteMessage(content string)

	// WriteNotice displays a line from the client itself (banner, errors)
	WriteNotice(content string)

	// WriteTool displays a tool call line
	WriteTool(content string, isError bool)

	// SetModel shows the active model
	SetModel(model string)

	// SetTools records the tools the server offers
	SetTools(names []string)
}
