package session

import (
	"context"
	"errors"
	"testing"

	"github.com/Cyclone1070/mcpchat/internal/conversation"
	"github.com/Cyclone1070/mcpchat/internal/mcphost"
	"github.com/Cyclone1070/mcpchat/internal/provider"
	"github.com/Cyclone1070/mcpchat/internal/tool"
	"github.com/Cyclone1070/mcpchat/internal/tool/content"
	"github.com/Cyclone1070/mcpchat/internal/workflow/toolmanager"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lookupArgs struct {
	ID int `json:"id"`
}

type mockProvider struct {
	GenerateFunc func(ctx context.Context, history []conversation.Turn, decls []tool.Declaration) (*provider.Response, error)
	calls        int
}

func (m *mockProvider) Generate(ctx context.Context, history []conversation.Turn, decls []tool.Declaration) (*provider.Response, error) {
	m.calls++
	return m.GenerateFunc(ctx, history, decls)
}

type mockHost struct {
	ListToolsFunc func(ctx context.Context) ([]tool.Descriptor, error)
	closed        int
}

func (m *mockHost) ListTools(ctx context.Context) ([]tool.Descriptor, error) {
	return m.ListToolsFunc(ctx)
}

func (m *mockHost) CallTool(ctx context.Context, name string, args map[string]any) (content.Raw, error) {
	return content.Raw{}, errors.New("not connected")
}

func (m *mockHost) Close() error {
	m.closed++
	return nil
}

// widgetHost starts an in-memory MCP server and returns a connected host.
func widgetHost(t *testing.T) *mcphost.Host {
	t.Helper()
	ctx := context.Background()

	server := mcp.NewServer(&mcp.Implementation{Name: "widgets", Version: "1.0.0"}, nil)
	mcp.AddTool(server, &mcp.Tool{Name: "lookup", Description: "Look up a widget"},
		func(ctx context.Context, req *mcp.CallToolRequest, in lookupArgs) (*mcp.CallToolResult, any, error) {
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: `{"name": "widget"}`}},
			}, nil, nil
		})
	mcp.AddTool(server, &mcp.Tool{Name: "explode", Description: "Always fails"},
		func(ctx context.Context, req *mcp.CallToolRequest, in struct{}) (*mcp.CallToolResult, any, error) {
			return &mcp.CallToolResult{
				IsError: true,
				Content: []mcp.Content{&mcp.TextContent{Text: "widget store offline"}},
			}, nil, nil
		})

	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	h, err := mcphost.Dial(ctx, clientTransport)
	require.NoError(t, err)
	return h
}

func TestOpen_Banner(t *testing.T) {
	host := widgetHost(t)
	s, err := Open(context.Background(), host, &mockProvider{}, Options{})
	require.NoError(t, err)
	defer s.Close()

	assert.ElementsMatch(t, []string{"lookup", "explode"}, s.ToolNames())
	assert.Contains(t, s.Banner(), "Connected to server with tools: [")
	assert.NotEmpty(t, s.ID())
}

func TestOpen_ListToolsFailureClosesHost(t *testing.T) {
	host := &mockHost{ListToolsFunc: func(ctx context.Context) ([]tool.Descriptor, error) {
		return nil, errors.New("handshake failed")
	}}

	s, err := Open(context.Background(), host, &mockProvider{}, Options{})

	assert.Nil(t, s)
	assert.ErrorContains(t, err, "handshake failed")
	assert.Equal(t, 1, host.closed)
}

func TestProcess_ToolRoundTrip(t *testing.T) {
	host := widgetHost(t)
	call := tool.Call{ID: "c1", Name: "lookup", Args: map[string]any{"id": 7}}

	mp := &mockProvider{}
	mp.GenerateFunc = func(ctx context.Context, history []conversation.Turn, decls []tool.Declaration) (*provider.Response, error) {
		if mp.calls == 1 {
			return &provider.Response{Parts: []provider.Part{provider.CallPart(call)}}, nil
		}
		return &provider.Response{Parts: []provider.Part{provider.TextPart("It is a widget.")}}, nil
	}

	s, err := Open(context.Background(), host, mp, Options{})
	require.NoError(t, err)
	defer s.Close()

	res, err := s.Process(context.Background(), "What is widget 7?")
	require.NoError(t, err)
	assert.Equal(t, "It is a widget.", res.Response)

	turns := s.History()
	require.Len(t, turns, 4)
	result := turns[2].Parts[0].(conversation.ResultPart).Result
	assert.Equal(t, map[string]any{"result": map[string]any{"name": "widget"}}, result.Map())
}

func TestProcess_ToolFailureThenNextQuery(t *testing.T) {
	host := widgetHost(t)

	mp := &mockProvider{}
	mp.GenerateFunc = func(ctx context.Context, history []conversation.Turn, decls []tool.Declaration) (*provider.Response, error) {
		if mp.calls == 1 {
			return &provider.Response{Parts: []provider.Part{provider.CallPart(tool.Call{Name: "explode"})}}, nil
		}
		return &provider.Response{Parts: []provider.Part{provider.TextPart("ok")}}, nil
	}

	s, err := Open(context.Background(), host, mp, Options{})
	require.NoError(t, err)
	defer s.Close()

	res, err := s.Process(context.Background(), "break it")
	require.NoError(t, err)
	require.Len(t, res.ToolCalls, 1)
	assert.True(t, res.ToolCalls[0].Result.IsError())
	assert.Contains(t, res.ToolCalls[0].Result.Error(), "widget store offline")

	res, err = s.Process(context.Background(), "again")
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Response)
}

func TestProcess_DeniedToolNotDeclared(t *testing.T) {
	host := widgetHost(t)

	mp := &mockProvider{}
	mp.GenerateFunc = func(ctx context.Context, history []conversation.Turn, decls []tool.Declaration) (*provider.Response, error) {
		require.Len(t, decls, 1)
		assert.Equal(t, "lookup", decls[0].Name)
		return &provider.Response{Parts: []provider.Part{provider.TextPart("fine")}}, nil
	}

	s, err := Open(context.Background(), host, mp, Options{Policy: toolmanager.Policy{Deny: []string{"explode"}}})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Process(context.Background(), "hi")
	require.NoError(t, err)
}

func TestProcess_ProviderErrorKeepsSession(t *testing.T) {
	host := widgetHost(t)

	mp := &mockProvider{}
	mp.GenerateFunc = func(ctx context.Context, history []conversation.Turn, decls []tool.Declaration) (*provider.Response, error) {
		if mp.calls == 1 {
			return nil, provider.ErrServiceUnavailable
		}
		return &provider.Response{Parts: []provider.Part{provider.TextPart("back")}}, nil
	}

	s, err := Open(context.Background(), host, mp, Options{})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Process(context.Background(), "one")
	assert.ErrorIs(t, err, provider.ErrServiceUnavailable)

	res, err := s.Process(context.Background(), "two")
	require.NoError(t, err)
	assert.Equal(t, "back", res.Response)
}

func TestClear_KeepsConnection(t *testing.T) {
	host := widgetHost(t)
	mp := &mockProvider{GenerateFunc: func(ctx context.Context, history []conversation.Turn, decls []tool.Declaration) (*provider.Response, error) {
		return &provider.Response{Parts: []provider.Part{provider.TextPart("hi")}}, nil
	}}

	s, err := Open(context.Background(), host, mp, Options{})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Process(context.Background(), "hello")
	require.NoError(t, err)
	require.Len(t, s.History(), 2)

	s.Clear()
	s.Clear()
	assert.Empty(t, s.History())

	_, err = s.Process(context.Background(), "hello again")
	require.NoError(t, err)
	assert.Len(t, s.History(), 2)
}

func TestClose_Idempotent(t *testing.T) {
	host := &mockHost{ListToolsFunc: func(ctx context.Context) ([]tool.Descriptor, error) {
		return []tool.Descriptor{{Name: "a"}}, nil
	}}
	s, err := Open(context.Background(), host, &mockProvider{}, Options{})
	require.NoError(t, err)

	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
	assert.Equal(t, 1, host.closed)
}
