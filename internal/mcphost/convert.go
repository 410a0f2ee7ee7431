package mcphost

import (
	"encoding/json"

	"github.com/Cyclone1070/mcpchat/internal/tool"
	"github.com/Cyclone1070/mcpchat/internal/tool/content"
	"github.com/cockroachdb/errors"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func toDescriptor(t *mcp.Tool) (tool.Descriptor, error) {
	schema, err := toMap(t.InputSchema)
	if err != nil {
		return tool.Descriptor{}, errors.Wrapf(err, "invalid input schema for tool %s", t.Name)
	}
	return tool.Descriptor{
		Name:        t.Name,
		Description: t.Description,
		Parameters:  schema,
	}, nil
}

// toMap converts a decoded JSON value or any JSON-marshalable schema type
// into a generic mapping.
func toMap(v any) (map[string]any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return val, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// toRaw classifies a call result into payload variants.
func toRaw(res *mcp.CallToolResult) content.Raw {
	if res == nil {
		return content.Raw{}
	}
	raw := content.Raw{IsError: res.IsError}

	if len(res.Content) > 0 {
		blocks := make(content.Blocks, 0, len(res.Content))
		for _, c := range res.Content {
			blocks = append(blocks, toBlock(c))
		}
		raw.Payload = blocks
		return raw
	}

	switch sc := res.StructuredContent.(type) {
	case nil:
	case map[string]any:
		raw.Payload = content.RawMapping(sc)
	case string:
		raw.Payload = content.Text(sc)
	default:
		if m, err := toMap(sc); err == nil && m != nil {
			raw.Payload = content.RawMapping(m)
		} else if data, err := json.Marshal(sc); err == nil {
			// Arrays and scalars stay JSON so the normalizer can decode them.
			raw.Payload = content.Text(data)
		} else {
			raw.Payload = content.Unknown{Value: sc}
		}
	}
	return raw
}

func toBlock(c mcp.Content) content.Block {
	if text, ok := c.(*mcp.TextContent); ok {
		return content.TextBlock{Text: text.Text}
	}
	if m, err := toMap(c); err == nil && m != nil {
		return content.MappingBlock(m)
	}
	return content.OpaqueBlock{Value: c}
}
