package provider

import "github.com/Cyclone1070/mcpchat/internal/tool"

// Response is a model reply. Parts concatenates every candidate's parts in
// the order the model emitted them.
type Response struct {
	Parts    []Part
	Metadata Metadata
}

// Part is either text or a tool invocation request.
type Part struct {
	Text string
	Call *tool.Call
}

// TextPart returns a text part.
func TextPart(text string) Part {
	return Part{Text: text}
}

// CallPart returns an invocation request part.
func CallPart(call tool.Call) Part {
	return Part{Call: &call}
}

// IsCall reports whether the part requests a tool invocation.
func (p Part) IsCall() bool {
	return p.Call != nil
}

// Calls returns the invocation requests in emission order.
func (r *Response) Calls() []tool.Call {
	var calls []tool.Call
	for _, p := range r.Parts {
		if p.IsCall() {
			calls = append(calls, *p.Call)
		}
	}
	return calls
}

// Metadata contains information about the generation.
type Metadata struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	ModelUsed        string
}
