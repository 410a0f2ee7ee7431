package content

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strings"
)

// Normalize converts a raw tool result into one canonical value, or nil when
// nothing usable was returned. Structured data wins over text whenever the
// text parses as JSON; parse failures keep the text.
func Normalize(raw Raw) any {
	switch p := raw.Payload.(type) {
	case nil:
		return nil
	case Blocks:
		if len(p) == 0 {
			return nil
		}
		return combine(extractBlocks(p))
	case Text:
		return ParseJSON(string(p))
	case RawMapping:
		return map[string]any(p)
	case Unknown:
		return stringify(p.Value)
	default:
		return stringify(p)
	}
}

func extractBlocks(blocks Blocks) []any {
	parts := make([]any, 0, len(blocks))
	for _, b := range blocks {
		parts = append(parts, extractBlock(b))
	}
	return parts
}

func extractBlock(b Block) any {
	switch blk := b.(type) {
	case TextBlock:
		return ParseJSON(blk.Text)
	case MappingBlock:
		text, ok := blk["text"]
		if !ok {
			return map[string]any(blk)
		}
		if s, isString := text.(string); isString {
			return ParseJSON(s)
		}
		return text
	case StringBlock:
		return ParseJSON(string(blk))
	case OpaqueBlock:
		return fmt.Sprint(blk.Value)
	default:
		return fmt.Sprint(blk)
	}
}

// combine unwraps a single part, flattens one level when every part is a
// list, and otherwise returns the parts as they are.
func combine(parts []any) any {
	if len(parts) == 1 {
		return parts[0]
	}

	var flat []any
	for _, p := range parts {
		list, ok := p.([]any)
		if !ok {
			return parts
		}
		flat = append(flat, list...)
	}
	if flat == nil {
		flat = []any{}
	}
	return flat
}

// ParseJSON decodes s as a single JSON value. It returns s unchanged when s is
// not valid JSON or has trailing data. Numbers decode as json.Number.
func ParseJSON(s string) any {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return s
	}
	if _, err := dec.Token(); err != io.EOF {
		return s
	}
	return v
}

// stringify is the fallback for payloads of unknown shape: zero values and
// empty containers are treated as no content.
func stringify(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.String, reflect.Array:
		if rv.Len() == 0 {
			return nil
		}
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
	default:
		if rv.IsZero() {
			return nil
		}
	}
	return fmt.Sprint(v)
}
