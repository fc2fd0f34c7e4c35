package task

import (
	"fmt"
	"strings"
)

// FieldSeparator joins ParamList elements in their persisted representation.
// No element may itself contain this separator.
const FieldSeparator = ","

// ParamList is a typed, separator-safe string list used for fields that are
// persisted as a single metafile line (currently Recovery.params).
//
// Constructing a ParamList from an empty string yields an empty list rather
// than a one-element list containing "" — the original implementation left
// this case to fall through untested; we make it explicit.
type ParamList struct {
	params []string
}

// NewParamList validates params and returns a ParamList wrapping a copy of
// it. It rejects any element containing FieldSeparator.
func NewParamList(params []string) (ParamList, error) {
	for _, p := range params {
		if strings.Contains(p, FieldSeparator) {
			return ParamList{}, fmt.Errorf("paramlist: element %q contains separator %q", p, FieldSeparator)
		}
	}
	return ParamList{params: append([]string(nil), params...)}, nil
}

// ParseParamList parses the persisted single-line representation of a
// ParamList. An empty string parses to an empty list.
func ParseParamList(s string) ParamList {
	if s == "" {
		return ParamList{}
	}
	parts := strings.Split(s, FieldSeparator)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return ParamList{params: parts}
}

// List returns a copy of the underlying elements.
func (p ParamList) List() []string {
	return append([]string(nil), p.params...)
}

// String renders the persisted single-line representation.
func (p ParamList) String() string {
	return strings.Join(p.params, FieldSeparator)
}
