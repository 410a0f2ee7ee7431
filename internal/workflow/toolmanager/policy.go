package toolmanager

import "slices"

// Policy is a static allow/deny list of tool names. Deny wins over Allow;
// an empty Allow permits every tool not denied.
type Policy struct {
	Allow []string
	Deny  []string
}

// Allowed reports whether name may be offered to and called by the model.
func (p Policy) Allowed(name string) bool {
	if slices.Contains(p.Deny, name) {
		return false
	}
	return len(p.Allow) == 0 || slices.Contains(p.Allow, name)
}
