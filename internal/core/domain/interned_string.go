package domain

import "unique"

// InternedString is a canonicalized string. File paths are interned because a
// header path is shared by every file that includes it, and lookups compare
// handles instead of bytes.
type InternedString struct {
	h unique.Handle[string]
}

// NewInternedString interns s.
func NewInternedString(s string) InternedString {
	return InternedString{h: unique.Make(s)}
}

// String returns the interned value, or "" for the zero InternedString.
func (is InternedString) String() string {
	if is == (InternedString{}) {
		return ""
	}
	return is.h.Value()
}
