package tool

// rejectedKeys are schema keywords some providers refuse in function declarations.
var rejectedKeys = []string{"title"}

// Adapt converts host descriptors into LLM declarations, one per tool, in order.
// The descriptors are not modified.
func Adapt(descriptors []Descriptor) []Declaration {
	decls := make([]Declaration, 0, len(descriptors))
	for _, d := range descriptors {
		decls = append(decls, Declaration{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  CleanSchema(d.Parameters),
		})
	}
	return decls
}

// CleanSchema returns a deep copy of schema with every "title" keyword removed
// at any depth. Keys of a "properties" mapping are property names, so a
// property called "title" survives while its own schema is still cleaned.
// Returns nil for an empty schema.
func CleanSchema(schema map[string]any) map[string]any {
	if len(schema) == 0 {
		return nil
	}
	return cleanSchemaMap(schema)
}

func cleanSchemaMap(schema map[string]any) map[string]any {
	out := make(map[string]any, len(schema))
	for k, v := range schema {
		if isRejected(k) {
			continue
		}
		switch k {
		case "properties", "$defs", "definitions", "patternProperties":
			if named, ok := v.(map[string]any); ok {
				out[k] = cleanNamedSchemas(named)
				continue
			}
		case "default", "const", "enum", "examples":
			// instance data, not schema
			out[k] = copyValue(v)
			continue
		}
		out[k] = cleanValue(v)
	}
	return out
}

// cleanNamedSchemas keeps every name and cleans each schema under it.
func cleanNamedSchemas(named map[string]any) map[string]any {
	out := make(map[string]any, len(named))
	for name, v := range named {
		out[name] = cleanValue(v)
	}
	return out
}

func cleanValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cleanSchemaMap(val)
	case []any:
		items := make([]any, len(val))
		for i, item := range val {
			items[i] = cleanValue(item)
		}
		return items
	case []string:
		return append([]string(nil), val...)
	default:
		return val
	}
}

func copyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = copyValue(item)
		}
		return out
	case []any:
		items := make([]any, len(val))
		for i, item := range val {
			items[i] = copyValue(item)
		}
		return items
	case []string:
		return append([]string(nil), val...)
	default:
		return val
	}
}

func isRejected(key string) bool {
	for _, k := range rejectedKeys {
		if k == key {
			return true
		}
	}
	return false
}
