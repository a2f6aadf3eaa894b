package accounting

import (
	"strings"
	"unicode"
)

// DefaultPathSeparator joins account path segments, e.g. "assets:bank:checking".
const DefaultPathSeparator = ":"

// Slug derives a path segment from an account name: lower case, alphanumeric runs joined by '-'.
func Slug(name string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}

// JoinPath appends segment to parentPath. An empty parentPath yields a root path.
func JoinPath(parentPath, segment, sep string) string {
	if parentPath == "" {
		return segment
	}
	return parentPath + sep + segment
}

// LastSegment returns the final segment of a path.
func LastSegment(path, sep string) string {
	if i := strings.LastIndex(path, sep); i >= 0 {
		return path[i+len(sep):]
	}
	return path
}

// IsDescendantPath reports whether candidate lies strictly below ancestor.
// The separator is part of the comparison so "assets:bank" is not an ancestor of "assets:bankx".
func IsDescendantPath(candidate, ancestor, sep string) bool {
	return len(candidate) > len(ancestor)+len(sep) && strings.HasPrefix(candidate, ancestor+sep)
}

// InSubtree reports whether path is root itself or one of its descendants.
func InSubtree(path, root, sep string) bool {
	return path == root || IsDescendantPath(path, root, sep)
}

// RebasePath moves path from under oldPrefix to under newPrefix.
// Callers must ensure InSubtree(path, oldPrefix, sep).
func RebasePath(path, oldPrefix, newPrefix string) string {
	return newPrefix + strings.TrimPrefix(path, oldPrefix)
}

// ParentPath returns path without its last segment, or "" for a root path.
func ParentPath(path, sep string) string {
	if i := strings.LastIndex(path, sep); i >= 0 {
		return path[:i]
	}
	return ""
}

// AncestorPaths lists every proper ancestor of path, root first.
func AncestorPaths(path, sep string) []string {
	var out []string
	for i := 0; i < len(path); {
		j := strings.Index(path[i:], sep)
		if j < 0 {
			break
		}
		out = append(out, path[:i+j])
		i += j + len(sep)
	}
	return out
}
