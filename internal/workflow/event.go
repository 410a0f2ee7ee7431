package workflow

// Event is the interface for all workflow events.
// UI handles events via type switch.
type Event interface {
	isEvent()
}

// TextEvent is emitted when the LLM produces text output.
type TextEvent struct {
	Text string
}

func (TextEvent) isEvent() {}

// ThinkingEvent is emitted before each LLM call.
type ThinkingEvent struct {
	Iteration int
}

func (ThinkingEvent) isEvent() {}

// DoneEvent is emitted when the workflow loop completes.
type DoneEvent struct {
	CapReached bool
}

func (DoneEvent) isEvent() {}

// ToolStartEvent is emitted when a tool execution begins.
type ToolStartEvent struct {
	ToolName       string
	Args           map[string]any
	RequestDisplay string // e.g., `lookup {"id":7}`
}

func (ToolStartEvent) isEvent() {}

// ToolEndEvent is emitted when a tool execution completes.
type ToolEndEvent struct {
	ToolName string
	Display  string
	IsError  bool
}

func (ToolEndEvent) isEvent() {}

// Emit sends ev on events when the channel is set.
func Emit(events chan<- Event, ev Event) {
	if events != nil {
		events <- ev
	}
}
