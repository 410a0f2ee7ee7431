package tool

// Descriptor is a tool as advertised by the tool host at connect time.
type Descriptor struct {
	Name        string
	Description string
	Parameters  map[string]any // JSON Schema of the arguments, as sent by the host
}

// Declaration declares a tool's function signature for the LLM.
// Parameters has already been cleaned of keys providers reject.
type Declaration struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// Call is a tool invocation requested by the model.
type Call struct {
	ID   string // empty when the provider does not assign ids
	Name string
	Args map[string]any
}

// Result is the envelope returned to the model for one tool call.
// Exactly one of the two outcomes holds: a success carrying a (possibly nil)
// value, or a failure carrying an error message and no value.
type Result struct {
	value  any
	errMsg string
	failed bool
}

// Success wraps a normalized tool value.
func Success(value any) Result {
	return Result{value: value}
}

// Failure wraps an error message. The value of a failure is always nil.
func Failure(msg string) Result {
	return Result{errMsg: msg, failed: true}
}

// IsError reports whether the call failed.
func (r Result) IsError() bool {
	return r.failed
}

// Value returns the normalized value of a successful call, or nil.
func (r Result) Value() any {
	return r.value
}

// Error returns the failure message, or "" on success.
func (r Result) Error() string {
	return r.errMsg
}

// Map returns the wire form sent to the model:
// {"result": value} on success, {"error": msg, "result": nil} on failure.
func (r Result) Map() map[string]any {
	if r.failed {
		return map[string]any{"error": r.errMsg, "result": nil}
	}
	return map[string]any{"result": r.value}
}
