package loop

import (
	"context"
	"strings"
	"time"

	"github.com/Cyclone1070/mcpchat/internal/conversation"
	"github.com/Cyclone1070/mcpchat/internal/metrics"
	"github.com/Cyclone1070/mcpchat/internal/provider"
	"github.com/Cyclone1070/mcpchat/internal/tool"
	"github.com/Cyclone1070/mcpchat/internal/workflow"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var logger = xlog.NewPackageLogger("github.com/Cyclone1070/mcpchat", "loop")

const tracerName = "github.com/Cyclone1070/mcpchat/internal/workflow/loop"

// DefaultMaxIterations is the number of LLM calls allowed per query.
const DefaultMaxIterations = 10

// NoResponse is returned when the model produced no text at all.
const NoResponse = "No response generated."

// ToolCallRecord describes one tool invocation made while answering a query.
type ToolCallRecord struct {
	Name      string
	Args      map[string]any
	Result    tool.Result
	Iteration int
}

// Result is the outcome of one query.
type Result struct {
	Response   string
	Iterations int
	ToolCalls  []ToolCallRecord
	CapReached bool
}

// Option configures a Loop.
type Option func(*Loop)

// WithMetrics records query and LLM call metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Loop) { l.metrics = m }
}

// WithTracerProvider sets the tracer provider; the global one is used otherwise.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(l *Loop) { l.tracer = tp.Tracer(tracerName) }
}

type Loop struct {
	provider      llmProvider
	tools         toolManager
	history       *conversation.History
	events        chan<- workflow.Event
	maxIterations int

	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// NewLoop creates a loop over history. A non-positive maxIterations uses
// DefaultMaxIterations.
func NewLoop(provider llmProvider, tools toolManager, history *conversation.History, events chan<- workflow.Event, maxIterations int, opts ...Option) *Loop {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	l := &Loop{
		provider:      provider,
		tools:         tools,
		history:       history,
		events:        events,
		maxIterations: maxIterations,
		tracer:        otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run answers query, alternating between the model and the tools it requests
// until the model stops requesting tools or the iteration cap is hit.
// Provider errors and context cancellation abort the query; turns already
// appended stay in the history.
func (l *Loop) Run(ctx context.Context, query string) (res *Result, err error) {
	ctx, span := l.tracer.Start(ctx, "loop.Run")
	res = &Result{}
	defer func() {
		span.SetAttributes(
			attribute.Int("loop.iterations", res.Iterations),
			attribute.Int("loop.tool_calls", len(res.ToolCalls)),
			attribute.Bool("loop.cap_reached", res.CapReached),
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		l.metrics.ObserveQuery(res.Iterations, res.CapReached, err)
		workflow.Emit(l.events, workflow.DoneEvent{CapReached: res.CapReached})
	}()

	l.history.Append(conversation.UserText(query))

	var texts []string
	for {
		if res.Iterations >= l.maxIterations {
			res.CapReached = true
			logger.ContextKV(ctx, xlog.WARNING,
				"reason", "max_iterations",
				"limit", l.maxIterations)
			break
		}
		if err := ctx.Err(); err != nil {
			return res, errors.Wrap(err, "query cancelled")
		}

		res.Iterations++
		workflow.Emit(l.events, workflow.ThinkingEvent{Iteration: res.Iterations})

		resp, err := l.generate(ctx, res.Iterations)
		if err != nil {
			return res, errors.Wrapf(err, "llm call %d failed", res.Iterations)
		}

		handled := 0
		for _, part := range resp.Parts {
			if !part.IsCall() {
				if part.Text != "" {
					texts = append(texts, part.Text)
					workflow.Emit(l.events, workflow.TextEvent{Text: part.Text})
				}
				continue
			}

			if err := ctx.Err(); err != nil {
				return res, errors.Wrap(err, "query cancelled")
			}

			call := *part.Call
			l.history.Append(conversation.ModelCall(call))
			result := l.execute(ctx, call)
			l.history.Append(conversation.ToolResult(call, result))

			res.ToolCalls = append(res.ToolCalls, ToolCallRecord{
				Name:      call.Name,
				Args:      call.Args,
				Result:    result,
				Iteration: res.Iterations,
			})
			handled++
		}

		if handled == 0 {
			break
		}
	}

	if len(texts) == 0 {
		res.Response = NoResponse
		return res, nil
	}

	res.Response = strings.Join(texts, "\n")
	l.history.Append(conversation.ModelText(res.Response))
	return res, nil
}

func (l *Loop) generate(ctx context.Context, iteration int) (*provider.Response, error) {
	ctx, span := l.tracer.Start(ctx, "llm.Generate",
		trace.WithAttributes(attribute.Int("loop.iteration", iteration)))
	defer span.End()

	start := time.Now()
	resp, err := l.provider.Generate(ctx, l.history.Snapshot(), l.tools.Declarations())
	l.metrics.ObserveLLMCall(time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	logger.ContextKV(ctx, xlog.DEBUG,
		"iteration", iteration,
		"parts", len(resp.Parts),
		"calls", len(resp.Calls()),
		"model", resp.Metadata.ModelUsed)
	return resp, nil
}

func (l *Loop) execute(ctx context.Context, call tool.Call) tool.Result {
	ctx, span := l.tracer.Start(ctx, "tool.Call",
		trace.WithAttributes(attribute.String("tool.name", call.Name)))
	defer span.End()

	result := l.tools.Execute(ctx, call, l.events)
	if result.IsError() {
		span.SetStatus(codes.Error, result.Error())
	}
	return result
}
