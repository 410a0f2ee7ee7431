// Package main provides the mcpchat command: an interactive chat client that
// connects an LLM to the tools of one MCP server.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/Cyclone1070/mcpchat/internal/config"
	"github.com/Cyclone1070/mcpchat/internal/logging"
	"github.com/Cyclone1070/mcpchat/internal/mcphost"
	"github.com/Cyclone1070/mcpchat/internal/metrics"
	"github.com/Cyclone1070/mcpchat/internal/session"
	"github.com/Cyclone1070/mcpchat/internal/tool"
	"github.com/Cyclone1070/mcpchat/internal/tool/content"
	"github.com/Cyclone1070/mcpchat/internal/ui"
	uiservices "github.com/Cyclone1070/mcpchat/internal/ui/services"
	"github.com/Cyclone1070/mcpchat/internal/workflow"
	"github.com/Cyclone1070/mcpchat/internal/workflow/toolmanager"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var logger = xlog.NewPackageLogger("github.com/Cyclone1070/mcpchat", "main")

// toolHost is a connected MCP server.
type toolHost interface {
	ListTools(ctx context.Context) ([]tool.Descriptor, error)
	CallTool(ctx context.Context, name string, args map[string]any) (content.Raw, error)
	Close() error
}

// HostFactory starts the server at script and connects to it.
type HostFactory func(ctx context.Context, cfg *config.Config, script string, stderr io.Writer) (toolHost, error)

// Dependencies holds the components required to run the application.
type Dependencies struct {
	Config          *config.Config
	UI              ui.UserInterface
	ProviderFactory ProviderFactory
	HostFactory     HostFactory
	Metrics         *metrics.Metrics
	// ServerStderr receives the server's diagnostics.
	ServerStderr io.Writer
}

type options struct {
	configPath  string
	provider    string
	model       string
	logLevel    string
	metricsAddr string
	plain       bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:           "mcpchat [flags] <server-script>",
		Short:         "Chat with an LLM that can call the tools of an MCP server",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.Newf("usage: %s", cmd.UseLine())
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd.Flags(), opts, args[0])
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "config file (default ~/.config/mcpchat/config.yaml)")
	f.StringVarP(&opts.provider, "provider", "p", "", "LLM provider: gemini or anthropic")
	f.StringVarP(&opts.model, "model", "m", "", "model name")
	f.StringVar(&opts.logLevel, "log-level", "", "log level")
	f.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	f.BoolVar(&opts.plain, "plain", false, "use a line-oriented console instead of the TUI")

	return cmd
}

func run(ctx context.Context, flags *pflag.FlagSet, opts options, script string) error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}

	loader := config.NewLoader()
	if opts.configPath != "" {
		loader = loader.WithPath(opts.configPath)
	}
	cfg, err := loadConfig(loader, flags, opts)
	if err != nil {
		return err
	}

	logOut, closeLog, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	deps := Dependencies{
		Config:          cfg,
		UI:              createRealUI(cfg),
		ProviderFactory: createRealProviderFactory(cfg, os.LookupEnv),
		HostFactory:     launchHost,
		Metrics:         metrics.New(),
		ServerStderr:    logOut,
	}
	return runInteractive(ctx, deps, script)
}

// loadConfig layers flags over the file and environment, then validates.
func loadConfig(loader *config.Loader, flags *pflag.FlagSet, opts options) (*config.Config, error) {
	cfg, err := loader.Load()
	if err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	applyFlags(cfg, flags, opts)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlags lets explicitly set flags win over file and environment values.
func applyFlags(cfg *config.Config, flags *pflag.FlagSet, opts options) {
	if flags.Changed("provider") {
		cfg.Provider.Name = opts.provider
	}
	if flags.Changed("model") {
		cfg.Provider.Model = opts.model
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = opts.logLevel
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Addr = opts.metricsAddr
	}
	if flags.Changed("plain") {
		cfg.UI.Plain = opts.plain
	}
}

// setupLogging sends logs to the log file under the TUI, which owns the
// terminal, and to stderr otherwise.
func setupLogging(cfg *config.Config) (io.Writer, func(), error) {
	if cfg.UI.Plain || cfg.Log.File == "" {
		return os.Stderr, func() {}, logging.Setup(cfg.Log.Level, os.Stderr)
	}

	f, err := logging.OpenFile(cfg.Log.File)
	if err != nil {
		return nil, nil, err
	}
	if err := logging.Setup(cfg.Log.Level, f); err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

func createRealUI(cfg *config.Config) ui.UserInterface {
	if cfg.UI.Plain {
		return ui.NewConsole(os.Stdin, os.Stdout)
	}
	channels := ui.NewUIChannels()
	renderer := uiservices.NewGlamourRenderer()
	spinnerFactory := func() spinner.Model {
		return spinner.New(spinner.WithSpinner(spinner.Dot))
	}
	return ui.NewUI(channels, renderer, spinnerFactory)
}

func launchHost(ctx context.Context, cfg *config.Config, script string, stderr io.Writer) (toolHost, error) {
	spec, err := mcphost.ResolveLaunch(mcphost.OSFileSystem{}, script, mcphost.Override{
		Command: cfg.Host.Command,
		Args:    cfg.Host.Args,
		Env:     cfg.Host.EnvList(),
	})
	if err != nil {
		return nil, err
	}
	spec.Stderr = stderr
	return mcphost.Launch(ctx, spec)
}

// serveMetrics exposes /metrics on addr. The returned func stops the server.
func serveMetrics(addr string, m *metrics.Metrics) func() {
	if addr == "" {
		return func() {}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.KV(xlog.ERROR, "reason", "metrics_server", "addr", addr, "err", err.Error())
		}
	}()
	logger.KV(xlog.INFO, "status", "serving_metrics", "addr", addr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

// runInteractive connects to the server and runs the chat until the user
// quits. Provider setup fails before any server is started.
func runInteractive(ctx context.Context, deps Dependencies, script string) error {
	cfg := deps.Config

	llm, err := deps.ProviderFactory(ctx)
	if err != nil {
		return err
	}

	host, err := deps.HostFactory(ctx, cfg, script, deps.ServerStderr)
	if err != nil {
		return errors.Wrapf(err, "connect to %s", script)
	}

	events := make(chan workflow.Event, 64)
	sess, err := session.Open(ctx, host, llm, session.Options{
		MaxIterations: cfg.Agent.MaxIterations,
		Policy:        toolmanager.Policy{Allow: cfg.Tools.Allow, Deny: cfg.Tools.Deny},
		CallTimeout:   cfg.Host.CallTimeout,
		Metrics:       deps.Metrics,
		Events:        events,
	})
	if err != nil {
		return errors.Wrapf(err, "connect to %s", script)
	}
	defer func() {
		if err := sess.Close(); err != nil {
			logger.KV(xlog.WARNING, "reason", "close", "err", err.Error())
		}
	}()

	stopMetrics := serveMetrics(cfg.Metrics.Addr, deps.Metrics)
	defer stopMetrics()

	replCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup

	// Events are drained until the REPL is gone so the loop never blocks
	// on a full channel.
	wg.Add(1)
	go func() {
		defer wg.Done()
		ui.PumpEvents(context.Background(), events, deps.UI)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(events)
		runREPL(replCtx, deps.UI, sess, llm.Model())
	}()

	// UI runs on the main goroutine until the user quits.
	uiErr := deps.UI.Start()

	cancel()
	wg.Wait()

	return errors.Wrap(uiErr, "run UI")
}
