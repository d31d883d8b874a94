package queryir

import (
	"fmt"
	"strings"
)

// Sanitize validates a dotted field key and returns its segments.
//
// Each segment must be non-empty and consist only of ASCII letters, digits,
// and underscores. Anything else (quotes, backslashes, semicolons, spaces,
// brackets, operators) fails with ErrCodeInvalidFieldPath.
//
// Sanitize is the only place raw user keys become path segments; every SQL
// fragment that names a JSON key is built from its output.
func Sanitize(raw string) (SafePath, error) {
	if raw == "" {
		return nil, NewInvalidFieldPath(raw, "field path is empty")
	}

	segments := strings.Split(raw, ".")
	for i, seg := range segments {
		if seg == "" {
			return nil, NewInvalidFieldPath(raw, fmt.Sprintf("segment %d is empty", i))
		}
		if r, ok := firstUnsafe(seg); ok {
			return nil, NewInvalidFieldPath(raw, fmt.Sprintf("segment %q contains disallowed character %q", seg, r))
		}
	}

	return SafePath(segments), nil
}

// IsIdentifier reports whether s is a single identifier-safe segment.
// Used for column names, which follow the same rules as path segments.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	_, bad := firstUnsafe(s)
	return !bad
}

// firstUnsafe returns the first rune outside [A-Za-z0-9_].
func firstUnsafe(seg string) (rune, bool) {
	for _, r := range seg {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_':
		default:
			return r, true
		}
	}
	return 0, false
}
