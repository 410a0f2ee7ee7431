// Package session ties one tool host connection, one conversation and one
// agent loop together for the lifetime of an interactive run.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Cyclone1070/mcpchat/internal/conversation"
	"github.com/Cyclone1070/mcpchat/internal/metrics"
	"github.com/Cyclone1070/mcpchat/internal/provider"
	"github.com/Cyclone1070/mcpchat/internal/tool"
	"github.com/Cyclone1070/mcpchat/internal/tool/content"
	"github.com/Cyclone1070/mcpchat/internal/workflow"
	"github.com/Cyclone1070/mcpchat/internal/workflow/loop"
	"github.com/Cyclone1070/mcpchat/internal/workflow/toolmanager"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

var logger = xlog.NewPackageLogger("github.com/Cyclone1070/mcpchat", "session")

// toolHost is a connected tool server.
type toolHost interface {
	ListTools(ctx context.Context) ([]tool.Descriptor, error)
	CallTool(ctx context.Context, name string, args map[string]any) (content.Raw, error)
	Close() error
}

// Options configures a Session.
type Options struct {
	MaxIterations  int
	Policy         toolmanager.Policy
	CallTimeout    time.Duration
	Metrics        *metrics.Metrics
	TracerProvider trace.TracerProvider
	// Events receives loop and tool events; nil disables them.
	Events chan<- workflow.Event
}

// Session owns the conversation history and the tool host connection.
// Process must not be called concurrently.
type Session struct {
	id          uuid.UUID
	host        toolHost
	history     *conversation.History
	descriptors []tool.Descriptor
	loop        *loop.Loop

	closeOnce sync.Once
	closeErr  error
}

// Open discovers the host's tools and prepares the agent loop. The host is
// closed when Open fails.
func Open(ctx context.Context, host toolHost, llm provider.Provider, opts Options) (*Session, error) {
	descriptors, err := host.ListTools(ctx)
	if err != nil {
		_ = host.Close()
		return nil, errors.Wrap(err, "list tools")
	}

	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}

	tmOpts := []toolmanager.Option{
		toolmanager.WithPolicy(opts.Policy),
		toolmanager.WithCallTimeout(opts.CallTimeout),
		toolmanager.WithMetrics(opts.Metrics),
	}
	tools := toolmanager.NewToolManager(host, descriptors, tmOpts...)

	loopOpts := []loop.Option{loop.WithMetrics(opts.Metrics)}
	if opts.TracerProvider != nil {
		loopOpts = append(loopOpts, loop.WithTracerProvider(opts.TracerProvider))
	}

	history := conversation.NewHistory()
	s := &Session{
		id:          id,
		host:        host,
		history:     history,
		descriptors: descriptors,
		loop:        loop.NewLoop(llm, tools, history, opts.Events, opts.MaxIterations, loopOpts...),
	}

	logger.ContextKV(ctx, xlog.INFO,
		"status", "connected",
		"session", s.id.String(),
		"tools", s.ToolNames(),
		"declared", len(tools.Declarations()))
	return s, nil
}

// ID identifies the session in logs.
func (s *Session) ID() string {
	return s.id.String()
}

// ToolNames returns the names of every tool the host advertised.
func (s *Session) ToolNames() []string {
	names := make([]string, 0, len(s.descriptors))
	for _, d := range s.descriptors {
		names = append(names, d.Name)
	}
	return names
}

// Banner is the line shown once the host is connected.
func (s *Session) Banner() string {
	return fmt.Sprintf("Connected to server with tools: %v", s.ToolNames())
}

// Process answers one query, extending the conversation.
func (s *Session) Process(ctx context.Context, query string) (*loop.Result, error) {
	logger.ContextKV(ctx, xlog.DEBUG,
		"session", s.id.String(),
		"turns", s.history.Len())

	res, err := s.loop.Run(ctx, query)
	if err != nil {
		logger.ContextKV(ctx, xlog.ERROR,
			"session", s.id.String(),
			"err", err.Error())
		return nil, err
	}
	return res, nil
}

// Clear forgets the conversation. The tool host stays connected.
func (s *Session) Clear() {
	s.history.Clear()
	logger.KV(xlog.INFO, "status", "cleared", "session", s.id.String())
}

// History returns a copy of the conversation so far.
func (s *Session) History() []conversation.Turn {
	return s.history.Snapshot()
}

// Close releases the tool host. It is safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.host.Close()
		logger.KV(xlog.INFO, "status", "closed", "session", s.id.String())
	})
	return s.closeErr
}
