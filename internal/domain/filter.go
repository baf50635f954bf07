package domain

import "strings"

// TriState is a boolean query filter that may be absent.
type TriState int

const (
	Unset TriState = iota
	True
	False
)

// ParseTriState maps a loosely typed query parameter: absent is Unset, the
// case-insensitive literal "true" is True, anything else (including "") is
// False.
func ParseTriState(raw string, present bool) TriState {
	if !present {
		return Unset
	}
	if strings.EqualFold(raw, "true") {
		return True
	}
	return False
}

// Bool reports the filter value; ok is false when Unset.
func (t TriState) Bool() (v bool, ok bool) {
	switch t {
	case True:
		return true, true
	case False:
		return false, true
	}
	return false, false
}
