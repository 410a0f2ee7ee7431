package services

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// maxArgLen bounds a single rendered argument value.
const maxArgLen = 60

// FormatToolDescription generates a user-friendly description from tool args,
// e.g. `lookup id=7 name="widget"`. Keys are sorted.
func FormatToolDescription(name string, args map[string]any) string {
	if len(args) == 0 {
		return name
	}

	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(name)
	for _, k := range keys {
		sb.WriteString(" ")
		sb.WriteString(k)
		sb.WriteString("=")
		sb.WriteString(formatArg(args[k]))
	}
	return sb.String()
}

func formatArg(v any) string {
	var s string
	switch val := v.(type) {
	case string:
		s = fmt.Sprintf("%q", val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			s = fmt.Sprint(val)
		} else {
			s = string(b)
		}
	}
	if len(s) > maxArgLen {
		s = s[:maxArgLen] + "…"
	}
	return s
}
