package toolmanager

import (
	"context"

	"github.com/Cyclone1070/mcpchat/internal/tool/content"
)

// toolHost executes tools on the remote server.
type toolHost interface {
	// CallTool performs exactly one remote invocation.
	CallTool(ctx context.Context, name string, args map[string]any) (content.Raw, error)
}
