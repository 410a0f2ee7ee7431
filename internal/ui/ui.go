package ui

import (
	"context"
	"sync"

	"github.com/Cyclone1070/mcpchat/internal/ui/models"
	"github.com/Cyclone1070/mcpchat/internal/ui/services"
	tea "github.com/charmbracelet/bubbletea"
)

// UI implements the UserInterface using Bubble Tea
type UI struct {
	program *tea.Program

	// REPL -> UI channels
	inputReq    chan inputRequest
	inputResp   chan string
	statusChan  chan statusMsg
	messageChan chan models.Message
	modelChan   chan string
	toolsChan   chan []string

	// Ready signal
	readyChan chan struct{}

	// done is closed once the program has exited.
	done     chan struct{}
	doneOnce sync.Once
}

// Internal message types
type inputRequest struct {
	prompt string
}

type statusMsg struct {
	phase   string
	message string
}

// UIChannels holds the channels for UI communication
type UIChannels struct {
	InputReq    chan inputRequest
	InputResp   chan string
	StatusChan  chan statusMsg
	MessageChan chan models.Message
	ModelChan   chan string
	ToolsChan   chan []string
	ReadyChan   chan struct{} // Signals when UI is ready to accept requests
}

// NewUIChannels creates a new UIChannels struct with default buffers
func NewUIChannels() *UIChannels {
	return &UIChannels{
		InputReq:    make(chan inputRequest),
		InputResp:   make(chan string),
		StatusChan:  make(chan statusMsg, 10),
		MessageChan: make(chan models.Message, 64),
		ModelChan:   make(chan string, 1),
		ToolsChan:   make(chan []string, 1),
		ReadyChan:   make(chan struct{}),
	}
}

// NewUI creates a new Bubble Tea UI
func NewUI(
	channels *UIChannels,
	renderer services.MarkdownRenderer,
	spinnerFactory SpinnerFactory,
) *UI {
	ui := &UI{
		inputReq:    channels.InputReq,
		inputResp:   channels.InputResp,
		statusChan:  channels.StatusChan,
		messageChan: channels.MessageChan,
		modelChan:   channels.ModelChan,
		toolsChan:   channels.ToolsChan,
		readyChan:   channels.ReadyChan,
		done:        make(chan struct{}),
	}

	model := newBubbleTeaModel(
		ui.inputReq,
		ui.inputResp,
		ui.statusChan,
		ui.messageChan,
		ui.modelChan,
		ui.toolsChan,
		ui.readyChan,
		renderer,
		spinnerFactory,
	)

	ui.program = tea.NewProgram(model, tea.WithAltScreen())

	return ui
}

// Start starts the UI program
func (u *UI) Start() error {
	defer u.stopped()
	_, err := u.program.Run()
	return err
}

func (u *UI) stopped() {
	u.doneOnce.Do(func() { close(u.done) })
}

// Quit stops the UI program
func (u *UI) Quit() {
	u.program.Quit()
}

// ReadInput prompts the user for input
func (u *UI) ReadInput(ctx context.Context, prompt string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case u.inputReq <- inputRequest{prompt: prompt}:
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case response := <-u.inputResp:
			return response, nil
		}
	}
}

// WriteStatus updates the status bar
func (u *UI) WriteStatus(phase string, message string) {
	select {
	case u.statusChan <- statusMsg{phase: phase, message: message}:
	default:
		// Drop if channel is full
	}
}

// WriteMessage sends the model's answer to the UI
func (u *UI) WriteMessage(content string) {
	u.send(models.Message{Role: models.RoleAssistant, Content: content})
}

// WriteNotice sends a client line to the UI
func (u *UI) WriteNotice(content string) {
	u.send(models.Message{Role: models.RoleSystem, Content: content})
}

// WriteTool sends a tool call line to the UI
func (u *UI) WriteTool(content string, isError bool) {
	role := models.RoleTool
	if isError {
		role = models.RoleToolError
	}
	u.send(models.Message{Role: role, Content: content})
}

// send queues msg for the program. Answers wait for room until the program
// exits; other lines are dropped when the queue is full.
func (u *UI) send(msg models.Message) {
	if msg.Role == models.RoleAssistant {
		select {
		case u.messageChan <- msg:
		case <-u.done:
		}
		return
	}
	select {
	case u.messageChan <- msg:
	default:
		// Drop if channel is full
	}
}

// SetModel shows model in the status bar
func (u *UI) SetModel(model string) {
	select {
	case u.modelChan <- model:
	default:
	}
}

// SetTools records the connected tools for the /tools popup
func (u *UI) SetTools(names []string) {
	select {
	case u.toolsChan <- names:
	default:
	}
}

// Ready returns a channel that is closed when the UI is ready to accept requests
func (u *UI) Ready() <-chan struct{} {
	return u.readyChan
}
