// Package ticket validates external ticket identifiers and derives
// deep-links from them.
package ticket

import (
	"regexp"
	"strings"
)

// KeyPattern matches 1 to 4 uppercase letters, a hyphen, and one or more
// digits (e.g. CS-123, PLAT-42).
var KeyPattern = regexp.MustCompile(`^[A-Z]{1,4}-\d+$`)

// IsValidKey reports whether s, after trimming, is a well-formed ticket key.
func IsValidKey(s string) bool {
	return KeyPattern.MatchString(strings.TrimSpace(s))
}

// BrowseURL builds the tracker deep-link for a key. It returns "" unless
// both a base URL and a valid key are supplied, so callers never construct
// links to unvalidated identifiers.
func BrowseURL(base, key string) string {
	key = strings.TrimSpace(key)
	if base == "" || !IsValidKey(key) {
		return ""
	}
	return strings.TrimRight(base, "/") + "/browse/" + key
}
