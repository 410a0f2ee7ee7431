package ui

import (
	"context"
	"fmt"

	"github.com/Cyclone1070/mcpchat/internal/ui/services"
	"github.com/Cyclone1070/mcpchat/internal/workflow"
)

// PumpEvents forwards workflow events to u until events is closed or ctx is
// done. The loop blocks on the events channel, so this must keep draining.
func PumpEvents(ctx context.Context, events <-chan workflow.Event, u UserInterface) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			HandleEvent(u, ev)
		}
	}
}

// HandleEvent maps one workflow event onto the UI.
func HandleEvent(u UserInterface, ev workflow.Event) {
	switch e := ev.(type) {
	case workflow.ThinkingEvent:
		u.WriteStatus("thinking", "")
	case workflow.ToolStartEvent:
		u.WriteStatus("executing", e.RequestDisplay)
		u.WriteTool(fmt.Sprintf("[Requested tool call: %s]", services.FormatToolDescription(e.ToolName, e.Args)), false)
	case workflow.ToolEndEvent:
		if e.IsError {
			u.WriteTool(fmt.Sprintf("[Error executing tool %s: %s]", e.ToolName, e.Display), true)
		}
	case workflow.DoneEvent:
		if e.CapReached {
			u.WriteNotice("[Stopped after reaching the tool call limit]")
		}
		u.WriteStatus("done", "Done")
	case workflow.TextEvent:
		// The answer is written once the query completes.
	}
}
