// Package mcphost connects to an MCP server and exposes its tools.
package mcphost

import (
	"context"
	"os"
	"os/exec"
	"sync"

	"github.com/Cyclone1070/mcpchat/internal/tool"
	"github.com/Cyclone1070/mcpchat/internal/tool/content"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var logger = xlog.NewPackageLogger("github.com/Cyclone1070/mcpchat", "mcphost")

// ClientName and ClientVersion identify this client during the handshake.
const (
	ClientName    = "mcpchat"
	ClientVersion = "0.1.0"
)

// Host is a live session with one MCP server.
type Host struct {
	session *mcp.ClientSession

	closeOnce sync.Once
	closeErr  error
}

// Launch starts the server described by spec and completes the MCP
// handshake over its stdio.
func Launch(ctx context.Context, spec LaunchSpec) (*Host, error) {
	// The subprocess must outlive ctx; Close terminates it.
	cmd := exec.Command(spec.Command, spec.Args...)
	cmd.Dir = spec.Dir
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}
	cmd.Stderr = spec.Stderr

	logger.ContextKV(ctx, xlog.INFO,
		"status", "launching",
		"command", spec.Command,
		"args", spec.Args)

	h, err := Dial(ctx, &mcp.CommandTransport{Command: cmd})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to launch %s", spec.Command)
	}
	return h, nil
}

// Dial connects over an arbitrary MCP transport.
func Dial(ctx context.Context, transport mcp.Transport) (*Host, error) {
	client := mcp.NewClient(&mcp.Implementation{Name: ClientName, Version: ClientVersion}, nil)
	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, errors.Wrap(err, "MCP handshake failed")
	}
	return &Host{session: session}, nil
}

// ListTools returns every tool the server advertises, following pagination.
func (h *Host) ListTools(ctx context.Context) ([]tool.Descriptor, error) {
	var descs []tool.Descriptor
	params := &mcp.ListToolsParams{}
	for {
		res, err := h.session.ListTools(ctx, params)
		if err != nil {
			return nil, errors.Wrap(err, "tools/list failed")
		}
		for _, t := range res.Tools {
			d, err := toDescriptor(t)
			if err != nil {
				return nil, err
			}
			descs = append(descs, d)
		}
		if res.NextCursor == "" {
			return descs, nil
		}
		params = &mcp.ListToolsParams{Cursor: res.NextCursor}
	}
}

// CallTool invokes name with args and returns the result in raw form.
// Protocol and transport failures are returned as errors; a tool-side
// failure is a result with IsError set.
func (h *Host) CallTool(ctx context.Context, name string, args map[string]any) (content.Raw, error) {
	if args == nil {
		args = map[string]any{}
	}
	res, err := h.session.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return content.Raw{}, errors.Wrapf(err, "tools/call %s failed", name)
	}
	return toRaw(res), nil
}

// Close ends the session and terminates the server process. Safe to call
// more than once.
func (h *Host) Close() error {
	h.closeOnce.Do(func() {
		h.closeErr = h.session.Close()
		logger.KV(xlog.DEBUG, "status", "closed", "err", h.closeErr)
	})
	return h.closeErr
}
