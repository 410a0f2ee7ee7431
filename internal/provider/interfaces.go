package provider

import (
	"context"

	"github.com/Cyclone1070/mcpchat/internal/conversation"
	"github.com/Cyclone1070/mcpchat/internal/tool"
)

// Provider represents the interface to the Language Model.
type Provider interface {
	// Generate sends the full history and the tool declarations to the model.
	// The history is the exact payload for this call and is not retained.
	Generate(ctx context.Context, history []conversation.Turn, decls []tool.Declaration) (*Response, error)
}
