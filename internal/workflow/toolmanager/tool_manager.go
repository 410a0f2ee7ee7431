package toolmanager

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/Cyclone1070/mcpchat/internal/metrics"
	"github.com/Cyclone1070/mcpchat/internal/tool"
	"github.com/Cyclone1070/mcpchat/internal/tool/content"
	"github.com/Cyclone1070/mcpchat/internal/workflow"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/Cyclone1070/mcpchat", "toolmanager")

// maxDisplayLen bounds the result summary shown to the user.
const maxDisplayLen = 200

// Option configures a ToolManager.
type Option func(*ToolManager)

// WithPolicy restricts which tools are declared and callable.
func WithPolicy(p Policy) Option {
	return func(m *ToolManager) { m.policy = p }
}

// WithCallTimeout bounds each remote call. Zero means no timeout.
func WithCallTimeout(d time.Duration) Option {
	return func(m *ToolManager) { m.callTimeout = d }
}

// WithMetrics records per-call metrics.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *ToolManager) { m.metrics = mt }
}

// ToolManager invokes host tools and turns every outcome into an envelope.
type ToolManager struct {
	host        toolHost
	policy      Policy
	callTimeout time.Duration
	metrics     *metrics.Metrics

	decls []tool.Declaration
}

// NewToolManager adapts descriptors once; the declarations are reused for
// every model call.
func NewToolManager(host toolHost, descriptors []tool.Descriptor, opts ...Option) *ToolManager {
	m := &ToolManager{host: host}
	for _, opt := range opts {
		opt(m)
	}

	allowed := make([]tool.Descriptor, 0, len(descriptors))
	for _, d := range descriptors {
		if m.policy.Allowed(d.Name) {
			allowed = append(allowed, d)
		}
	}
	m.decls = tool.Adapt(allowed)
	return m
}

// Declarations returns the tool declarations for the LLM.
func (m *ToolManager) Declarations() []tool.Declaration {
	return m.decls
}

// Execute runs call on the host and returns its envelope. It never fails:
// transport errors, tool-side errors, denied tools and panics all become a
// failure envelope. ToolStartEvent and ToolEndEvent are emitted on events.
func (m *ToolManager) Execute(ctx context.Context, call tool.Call, events chan<- workflow.Event) (res tool.Result) {
	start := time.Now()
	status := metrics.StatusOK

	workflow.Emit(events, workflow.ToolStartEvent{
		ToolName:       call.Name,
		Args:           call.Args,
		RequestDisplay: requestDisplay(call),
	})

	defer func() {
		if r := recover(); r != nil {
			res = tool.Failure(fmt.Sprintf("tool %s panicked: %v", call.Name, r))
		}
		if res.IsError() && status == metrics.StatusOK {
			status = metrics.StatusError
		}
		m.metrics.ObserveToolCall(call.Name, status, time.Since(start))
		workflow.Emit(events, workflow.ToolEndEvent{
			ToolName: call.Name,
			Display:  resultDisplay(res),
			IsError:  res.IsError(),
		})
	}()

	if !m.policy.Allowed(call.Name) {
		status = metrics.StatusDenied
		logger.ContextKV(ctx, xlog.WARNING,
			"reason", "denied",
			"tool", call.Name)
		return tool.Failure(fmt.Sprintf("tool %q is not allowed", call.Name))
	}

	return m.invoke(ctx, call)
}

func (m *ToolManager) invoke(ctx context.Context, call tool.Call) tool.Result {
	if m.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.callTimeout)
		defer cancel()
	}

	raw, err := m.host.CallTool(ctx, call.Name, call.Args)
	if err != nil {
		logger.ContextKV(ctx, xlog.ERROR,
			"reason", "call_tool",
			"tool", call.Name,
			"err", err.Error())
		return tool.Failure(err.Error())
	}

	value := content.Normalize(raw)
	if s, ok := value.(string); ok {
		value = content.ParseJSON(s)
	}

	if raw.IsError {
		msg := errorText(value)
		logger.ContextKV(ctx, xlog.WARNING,
			"reason", "tool_error",
			"tool", call.Name,
			"err", msg)
		return tool.Failure(msg)
	}

	logger.ContextKV(ctx, xlog.DEBUG,
		"tool", call.Name,
		"result_type", fmt.Sprintf("%T", value))
	return tool.Success(value)
}

// errorText renders a tool-side error payload as a message.
func errorText(v any) string {
	switch val := v.(type) {
	case nil:
		return "tool reported an error"
	case string:
		return val
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
}

func requestDisplay(call tool.Call) string {
	if len(call.Args) == 0 {
		return call.Name
	}
	b, err := json.Marshal(call.Args)
	if err != nil {
		return call.Name
	}
	return truncate(call.Name + " " + string(b))
}

func resultDisplay(res tool.Result) string {
	if res.IsError() {
		return truncate(res.Error())
	}
	b, err := json.Marshal(res.Value())
	if err != nil {
		return truncate(fmt.Sprint(res.Value()))
	}
	return truncate(string(b))
}

func truncate(s string) string {
	if utf8.RuneCountInString(s) <= maxDisplayLen {
		return s
	}
	r := []rune(s)
	return string(r[:maxDisplayLen]) + "…"
}
