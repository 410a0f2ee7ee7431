package ui

import (
	"strings"
	"time"

	"github.com/Cyclone1070/mcpchat/internal/ui/models"
	"github.com/Cyclone1070/mcpchat/internal/ui/services"
	"github.com/Cyclone1070/mcpchat/internal/ui/views"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

const helpText = "Available commands:\n" +
	"- /tools - Show the tools the server offers\n" +
	"- /help - Show this help\n" +
	"- clear - Clear the conversation history\n" +
	"- quit - Exit"

// BubbleTeaModel implements tea.Model
type BubbleTeaModel struct {
	state models.State

	// Dependencies
	renderer services.MarkdownRenderer

	// Channels for communication with the REPL
	inputReq    <-chan inputRequest
	inputResp   chan<- string
	statusChan  <-chan statusMsg
	messageChan <-chan models.Message
	modelChan   <-chan string
	toolsChan   <-chan []string

	// Ready signal
	readyChan chan<- struct{}
}

// View renders the UI
func (m BubbleTeaModel) View() string {
	return views.RenderRoot(m.state)
}

// SpinnerFactory creates a new spinner
type SpinnerFactory func() spinner.Model

// newBubbleTeaModel creates a new Bubble Tea model
func newBubbleTeaModel(
	inputReq <-chan inputRequest,
	inputResp chan<- string,
	statusChan <-chan statusMsg,
	messageChan <-chan models.Message,
	modelChan <-chan string,
	toolsChan <-chan []string,
	readyChan chan<- struct{},
	renderer services.MarkdownRenderer,
	spinnerFactory SpinnerFactory,
) BubbleTeaModel {
	ti := textinput.New()
	ti.Placeholder = "Type a query..."
	ti.Focus()

	vp := viewport.New(80, 20)

	return BubbleTeaModel{
		state: models.State{
			Input:       ti,
			Viewport:    vp,
			Spinner:     spinnerFactory(),
			Messages:    []models.Message{},
			StatusPhase: "ready",
		},
		renderer:    renderer,
		inputReq:    inputReq,
		inputResp:   inputResp,
		statusChan:  statusChan,
		messageChan: messageChan,
		modelChan:   modelChan,
		toolsChan:   toolsChan,
		readyChan:   readyChan,
	}
}

// Internal messages
type tickMsg time.Time
type inputRequestMsg inputRequest
type statusUpdateMsg statusMsg
type messageReceivedMsg models.Message
type modelReceivedMsg string
type toolsReceivedMsg []string

// Init initializes the model
func (m BubbleTeaModel) Init() tea.Cmd {
	// Signal that UI is ready
	if m.readyChan != nil {
		close(m.readyChan)
	}

	return tea.Batch(
		textinput.Blink,
		m.state.Spinner.Tick,
		tick(),
		listenForInputRequests(m.inputReq),
		listenForStatus(m.statusChan),
		listenForMessages(m.messageChan),
		listenForModel(m.modelChan),
		listenForTools(m.toolsChan),
	)
}

// Update handles messages
func (m BubbleTeaModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.state.Width = msg.Width
		m.state.Height = msg.Height
		m.state.Viewport.Width = msg.Width
		m.state.Viewport.Height = msg.Height - 6 // Reserve space for input and status
		m.updateViewport()
		return m, nil

	case tickMsg:
		m.state.DotCount = (m.state.DotCount + 1) % 4
		return m, tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.state.Spinner, cmd = m.state.Spinner.Update(msg)
		return m, cmd

	case inputRequestMsg:
		m.state.CanSubmit = true
		m.state.Prompt = msg.prompt
		return m, listenForInputRequests(m.inputReq)

	case statusUpdateMsg:
		m.state.StatusPhase = msg.phase
		m.state.StatusMessage = msg.message
		return m, listenForStatus(m.statusChan)

	case messageReceivedMsg:
		m.state.Messages = append(m.state.Messages, models.Message(msg))
		m.updateViewport()
		return m, listenForMessages(m.messageChan)

	case modelReceivedMsg:
		m.state.CurrentModel = string(msg)
		return m, listenForModel(m.modelChan)

	case toolsReceivedMsg:
		m.state.Tools = []string(msg)
		return m, listenForTools(m.toolsChan)
	}

	var cmd tea.Cmd
	m.state.Input, cmd = m.state.Input.Update(msg)
	return m, cmd
}

// handleKeyPress handles keyboard input
func (m BubbleTeaModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.state.ShowTools {
		if msg.String() == "esc" || msg.String() == "enter" {
			m.state.ShowTools = false
		}
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.state.Viewport, cmd = m.state.Viewport.Update(msg)
		return m, cmd

	case "enter":
		input := strings.TrimSpace(m.state.Input.Value())
		if input == "" {
			return m, nil
		}

		if strings.HasPrefix(input, "/") {
			return m.handleCommand(input)
		}

		if !m.state.CanSubmit {
			return m, nil
		}

		m.state.Messages = append(m.state.Messages, models.Message{
			Role:    models.RoleUser,
			Content: input,
		})
		m.updateViewport()

		m.inputResp <- input
		m.state.Input.SetValue("")
		m.state.CanSubmit = false
		return m, nil
	}

	var cmd tea.Cmd
	m.state.Input, cmd = m.state.Input.Update(msg)
	return m, cmd
}

// handleCommand handles slash commands
func (m BubbleTeaModel) handleCommand(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)

	switch parts[0] {
	case "/tools":
		m.state.ShowTools = true
	case "/help":
		m.state.Messages = append(m.state.Messages, models.Message{
			Role:    models.RoleSystem,
			Content: helpText,
		})
		m.updateViewport()
	default:
		m.state.Messages = append(m.state.Messages, models.Message{
			Role:    models.RoleSystem,
			Content: "Unknown command: " + parts[0],
		})
		m.updateViewport()
	}
	m.state.Input.SetValue("")

	return m, nil
}

// updateViewport updates the viewport content
func (m *BubbleTeaModel) updateViewport() {
	content := views.FormatChatContent(m.state.Messages, m.state.Width-4, m.renderer)
	m.state.Viewport.SetContent(content)
	m.state.Viewport.GotoBottom()
}

// Helper commands for listening to channels
func listenForInputRequests(ch <-chan inputRequest) tea.Cmd {
	return func() tea.Msg {
		return inputRequestMsg(<-ch)
	}
}

func listenForStatus(ch <-chan statusMsg) tea.Cmd {
	return func() tea.Msg {
		return statusUpdateMsg(<-ch)
	}
}

func listenForMessages(ch <-chan models.Message) tea.Cmd {
	return func() tea.Msg {
		return messageReceivedMsg(<-ch)
	}
}

func listenForModel(ch <-chan string) tea.Cmd {
	return func() tea.Msg {
		return modelReceivedMsg(<-ch)
	}
}

func listenForTools(ch <-chan []string) tea.Cmd {
	return func() tea.Msg {
		return toolsReceivedMsg(<-ch)
	}
}

func tick() tea.Cmd {
	return tea.Tick(300*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
