package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"strings"
	"sync"
	"testing"

	"github.com/Cyclone1070/mcpchat/internal/config"
	"github.com/Cyclone1070/mcpchat/internal/conversation"
	"github.com/Cyclone1070/mcpchat/internal/metrics"
	"github.com/Cyclone1070/mcpchat/internal/provider"
	"github.com/Cyclone1070/mcpchat/internal/tool"
	"github.com/Cyclone1070/mcpchat/internal/tool/content"
	"github.com/Cyclone1070/mcpchat/internal/ui"
	"github.com/Cyclone1070/mcpchat/internal/workflow/loop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer is a bytes.Buffer safe for concurrent use.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type fakeSession struct {
	ProcessFunc func(ctx context.Context, query string) (*loop.Result, error)
	queries     []string
	clears      int
}

func (s *fakeSession) Banner() string      { return "Connected to server with tools: [lookup]" }
func (s *fakeSession) ToolNames() []string { return []string{"lookup"} }
func (s *fakeSession) Clear()              { s.clears++ }

func (s *fakeSession) Process(ctx context.Context, query string) (*loop.Result, error) {
	s.queries = append(s.queries, query)
	if s.ProcessFunc != nil {
		return s.ProcessFunc(ctx, query)
	}
	return &loop.Result{Response: "answer to " + query}, nil
}

type fakeProvider struct {
	GenerateFunc func(ctx context.Context, history []conversation.Turn, decls []tool.Declaration) (*provider.Response, error)
}

func (p *fakeProvider) Model() string { return "fake-model" }

func (p *fakeProvider) Generate(ctx context.Context, history []conversation.Turn, decls []tool.Declaration) (*provider.Response, error) {
	return p.GenerateFunc(ctx, history, decls)
}

type fakeHost struct {
	mu     sync.Mutex
	calls  []string
	closed int
}

func (h *fakeHost) ListTools(ctx context.Context) ([]tool.Descriptor, error) {
	return []tool.Descriptor{{Name: "lookup", Description: "find a record"}}, nil
}

func (h *fakeHost) CallTool(ctx context.Context, name string, args map[string]any) (content.Raw, error) {
	h.mu.Lock()
	h.calls = append(h.calls, name)
	h.mu.Unlock()
	return content.Raw{Payload: content.Blocks{content.TextBlock{Text: `{"name":"widget"}`}}}, nil
}

func (h *fakeHost) Close() error {
	h.mu.Lock()
	h.closed++
	h.mu.Unlock()
	return nil
}

func TestRootCmd_RequiresScript(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	err := cmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "usage: mcpchat")
}

func TestRootCmd_RejectsExtraArgs(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"a.py", "b.py"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	assert.Error(t, cmd.Execute())
}

func TestApplyFlags_OnlyChangedFlagsWin(t *testing.T) {
	cmd := newRootCmd()
	require.NoError(t, cmd.Flags().Parse([]string{"--provider", "anthropic", "--plain"}))

	cfg := config.DefaultConfig()
	cfg.Provider.Model = "from-file"
	applyFlags(cfg, cmd.Flags(), options{provider: "anthropic", plain: true})

	assert.Equal(t, config.ProviderAnthropic, cfg.Provider.Name)
	assert.Equal(t, "from-file", cfg.Provider.Model)
	assert.True(t, cfg.UI.Plain)
}

// fileOnlyFS serves one config file and no environment.
type fileOnlyFS struct {
	path string
	data []byte
}

func (f fileOnlyFS) UserHomeDir() (string, error)    { return "/home/user", nil }
func (f fileOnlyFS) LookupEnv(string) (string, bool) { return "", false }

func (f fileOnlyFS) ReadFile(path string) ([]byte, error) {
	if path != f.path {
		return nil, fs.ErrNotExist
	}
	return f.data, nil
}

func TestLoadConfig_FlagFixesInvalidFileValue(t *testing.T) {
	loader := config.NewLoaderWithFS(fileOnlyFS{
		path: "/etc/mcpchat.yaml",
		data: []byte("provider:\n  name: mystery\n"),
	}).WithPath("/etc/mcpchat.yaml")

	cmd := newRootCmd()
	require.NoError(t, cmd.Flags().Parse([]string{"--provider", "gemini"}))

	cfg, err := loadConfig(loader, cmd.Flags(), options{provider: "gemini"})

	require.NoError(t, err)
	assert.Equal(t, config.ProviderGemini, cfg.Provider.Name)
}

func TestLoadConfig_InvalidWithoutFlagFails(t *testing.T) {
	loader := config.NewLoaderWithFS(fileOnlyFS{
		path: "/etc/mcpchat.yaml",
		data: []byte("provider:\n  name: mystery\n"),
	}).WithPath("/etc/mcpchat.yaml")

	_, err := loadConfig(loader, newRootCmd().Flags(), options{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider.name")
}

func TestProviderFactory_MissingKey(t *testing.T) {
	noEnv := func(string) (string, bool) { return "", false }

	tests := []struct {
		name    string
		cfg     config.ProviderConfig
		wantEnv string
	}{
		{"gemini", config.ProviderConfig{Name: config.ProviderGemini}, "GEMINI_API_KEY"},
		{"anthropic", config.ProviderConfig{Name: config.ProviderAnthropic}, "ANTHROPIC_API_KEY"},
		{"custom env", config.ProviderConfig{Name: config.ProviderGemini, APIKeyEnv: "MY_KEY"}, "MY_KEY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Provider = tt.cfg

			_, err := createRealProviderFactory(cfg, noEnv)(context.Background())

			require.Error(t, err)
			assert.True(t, errors.Is(err, provider.ErrMissingCredential))
			assert.Contains(t, err.Error(), tt.wantEnv)
		})
	}
}

func TestProviderFactory_Anthropic(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Provider.Name = config.ProviderAnthropic
	cfg.Provider.Model = "claude-test"
	env := func(k string) (string, bool) { return "key", k == "ANTHROPIC_API_KEY" }

	p, err := createRealProviderFactory(cfg, env)(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "claude-test", p.Model())
}

func TestProviderFactory_UnsupportedProvider(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Provider.Name = "mystery"
	env := func(string) (string, bool) { return "key", true }

	_, err := createRealProviderFactory(cfg, env)(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported provider")
}

func TestRunREPL_Commands(t *testing.T) {
	out := &syncBuffer{}
	console := ui.NewConsole(strings.NewReader("   \nhello\nclear\nQUIT\nnever\n"), out)
	sess := &fakeSession{}

	runREPL(context.Background(), console, sess, "fake-model")

	assert.Equal(t, []string{"hello"}, sess.queries)
	assert.Equal(t, 1, sess.clears)

	got := out.String()
	assert.Contains(t, got, "Connected to server with tools: [lookup]")
	assert.Contains(t, got, greeting)
	assert.Contains(t, got, "\nQuery: ")
	assert.Contains(t, got, "answer to hello")
	assert.Contains(t, got, "Conversation history cleared.")
}

func TestRunREPL_ErrorKeepsRunning(t *testing.T) {
	out := &syncBuffer{}
	console := ui.NewConsole(strings.NewReader("first\nsecond\n"), out)
	sess := &fakeSession{ProcessFunc: func(ctx context.Context, query string) (*loop.Result, error) {
		if query == "first" {
			return nil, errors.New("rate limited")
		}
		return &loop.Result{Response: "ok"}, nil
	}}

	runREPL(context.Background(), console, sess, "fake-model")

	assert.Equal(t, []string{"first", "second"}, sess.queries)
	assert.Contains(t, out.String(), "Error: rate limited")
	assert.Contains(t, out.String(), "\nok\n")
}

func TestRunREPL_PanicQuitsUI(t *testing.T) {
	console := ui.NewConsole(strings.NewReader("boom\n"), io.Discard)
	sess := &fakeSession{ProcessFunc: func(ctx context.Context, query string) (*loop.Result, error) {
		panic("unexpected")
	}}

	assert.NotPanics(t, func() {
		runREPL(context.Background(), console, sess, "fake-model")
	})
	assert.NoError(t, console.Start(), "Start returns once the REPL quit the UI")
}

func TestRunInteractive_ToolRoundTrip(t *testing.T) {
	out := &syncBuffer{}
	host := &fakeHost{}
	calls := 0
	llm := &fakeProvider{GenerateFunc: func(ctx context.Context, history []conversation.Turn, decls []tool.Declaration) (*provider.Response, error) {
		calls++
		if calls == 1 {
			assert.Len(t, decls, 1)
			return &provider.Response{Parts: []provider.Part{
				provider.CallPart(tool.Call{Name: "lookup", Args: map[string]any{"id": 7}}),
			}}, nil
		}
		return &provider.Response{Parts: []provider.Part{provider.TextPart("Found the widget.")}}, nil
	}}

	deps := Dependencies{
		Config: config.DefaultConfig(),
		UI:     ui.NewConsole(strings.NewReader("find 7\nquit\n"), out),
		ProviderFactory: func(ctx context.Context) (modelProvider, error) {
			return llm, nil
		},
		HostFactory: func(ctx context.Context, cfg *config.Config, script string, stderr io.Writer) (toolHost, error) {
			assert.Equal(t, "server.py", script)
			return host, nil
		},
		Metrics: metrics.New(),
	}

	require.NoError(t, runInteractive(context.Background(), deps, "server.py"))

	assert.Equal(t, []string{"lookup"}, host.calls)
	assert.Equal(t, 1, host.closed)
	got := out.String()
	assert.Contains(t, got, "Found the widget.")
	assert.Contains(t, got, `[Requested tool call: lookup id=7]`)
}

func TestRunInteractive_ProviderErrorBeforeConnect(t *testing.T) {
	hostStarted := false
	deps := Dependencies{
		Config: config.DefaultConfig(),
		UI:     ui.NewConsole(strings.NewReader(""), io.Discard),
		ProviderFactory: func(ctx context.Context) (modelProvider, error) {
			return nil, provider.ErrMissingCredential
		},
		HostFactory: func(ctx context.Context, cfg *config.Config, script string, stderr io.Writer) (toolHost, error) {
			hostStarted = true
			return nil, nil
		},
	}

	err := runInteractive(context.Background(), deps, "server.py")

	assert.True(t, errors.Is(err, provider.ErrMissingCredential))
	assert.False(t, hostStarted)
}

func TestRunInteractive_HostErrorIsWrapped(t *testing.T) {
	deps := Dependencies{
		Config: config.DefaultConfig(),
		UI:     ui.NewConsole(strings.NewReader(""), io.Discard),
		ProviderFactory: func(ctx context.Context) (modelProvider, error) {
			return &fakeProvider{}, nil
		},
		HostFactory: func(ctx context.Context, cfg *config.Config, script string, stderr io.Writer) (toolHost, error) {
			return nil, errors.New("exec: \"node\": executable file not found")
		},
	}

	err := runInteractive(context.Background(), deps, "server.js")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect to server.js")
}
