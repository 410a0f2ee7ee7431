package loop

import (
	"context"

	"github.com/Cyclone1070/mcpchat/internal/conversation"
	"github.com/Cyclone1070/mcpchat/internal/provider"
	"github.com/Cyclone1070/mcpchat/internal/tool"
	"github.com/Cyclone1070/mcpchat/internal/workflow"
)

// llmProvider communicates with an LLM.
type llmProvider interface {
	// Generate sends the conversation to the LLM and returns its response.
	Generate(ctx context.Context, history []conversation.Turn, decls []tool.Declaration) (*provider.Response, error)
}

// toolManager exposes tool declarations and executes tool calls.
type toolManager interface {
	// Declarations returns all tool schemas for the LLM.
	Declarations() []tool.Declaration

	// Execute runs a tool call and returns its envelope. It never fails.
	// It emits ToolStartEvent and ToolEndEvent to the events channel.
	Execute(ctx context.Context, call tool.Call, events chan<- workflow.Event) tool.Result
}
