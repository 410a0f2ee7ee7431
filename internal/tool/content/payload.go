// Package content normalizes tool-host results into a single value the model can consume.
//
// Tool hosts are heterogeneous: a result may be a list of typed content
// blocks, a bare string holding JSON, or an already structured mapping. The
// host adapter classifies what it received into the closed set of Payload and
// Block variants below; Normalize then applies one rule per variant.
package content

// Raw is a tool result as received from the host.
// A nil Payload means the result carried no recognizable content.
type Raw struct {
	Payload Payload
	IsError bool // the host flagged the call as a tool-side failure
}

// Payload is the content carried by a Raw result.
type Payload interface {
	isPayload()
}

// Blocks is a sequence of content blocks.
type Blocks []Block

// Text is a payload delivered as a single string, possibly JSON-encoded.
type Text string

// RawMapping is a payload that is already a structured mapping.
type RawMapping map[string]any

// Unknown wraps a payload of any other shape.
type Unknown struct {
	Value any
}

func (Blocks) isPayload()     {}
func (Text) isPayload()       {}
func (RawMapping) isPayload() {}
func (Unknown) isPayload()    {}

// Block is one unit of a Blocks payload.
type Block interface {
	isBlock()
}

// TextBlock is an object block with a named text field.
type TextBlock struct {
	Text string
}

// MappingBlock is a mapping-like block. Its "text" entry, when present, is
// the payload; otherwise the whole mapping is.
type MappingBlock map[string]any

// StringBlock is a block that is already plain text.
type StringBlock string

// OpaqueBlock is any other block; it is converted to its string form.
type OpaqueBlock struct {
	Value any
}

func (TextBlock) isBlock()    {}
func (MappingBlock) isBlock() {}
func (StringBlock) isBlock()  {}
func (OpaqueBlock) isBlock()  {}
