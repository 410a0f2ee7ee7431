// Package conversation holds the ordered log of turns exchanged with the model.
package conversation

import "github.com/Cyclone1070/mcpchat/internal/tool"

// Role identifies who produced a turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
	RoleTool  Role = "tool"
)

// Turn is one entry of the conversation.
type Turn struct {
	Role  Role
	Parts []Part
}

// Part is exactly one of text, a tool invocation request, or a tool result.
type Part interface {
	isPart()
}

// TextPart is plain text.
type TextPart struct {
	Text string
}

// CallPart is a tool invocation requested by the model.
type CallPart struct {
	Call tool.Call
}

// ResultPart is the envelope produced for a CallPart with the same ID.
type ResultPart struct {
	ID     string
	Name   string
	Result tool.Result
}

func (TextPart) isPart()   {}
func (CallPart) isPart()   {}
func (ResultPart) isPart() {}

// UserText builds a user turn with a single text part.
func UserText(text string) Turn {
	return Turn{Role: RoleUser, Parts: []Part{TextPart{Text: text}}}
}

// ModelText builds a model turn with a single text part.
func ModelText(text string) Turn {
	return Turn{Role: RoleModel, Parts: []Part{TextPart{Text: text}}}
}

// ModelCall builds a model turn carrying one invocation request.
func ModelCall(call tool.Call) Turn {
	return Turn{Role: RoleModel, Parts: []Part{CallPart{Call: call}}}
}

// ToolResult builds a tool turn carrying the envelope for call.
func ToolResult(call tool.Call, result tool.Result) Turn {
	return Turn{Role: RoleTool, Parts: []Part{ResultPart{ID: call.ID, Name: call.Name, Result: result}}}
}
