package domain

import "strings"

// phoneSeparator delimits phone numbers in the storage column.
const phoneSeparator = ","

// JoinPhones encodes phone numbers for storage. Blank entries are dropped and
// embedded separators are removed so the value always splits back cleanly.
func JoinPhones(phones []string) string {
	out := make([]string, 0, len(phones))
	for _, p := range phones {
		p = strings.TrimSpace(strings.ReplaceAll(p, phoneSeparator, ""))
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, phoneSeparator)
}

// SplitPhones decodes the storage column. An empty column yields an empty, non-nil slice.
func SplitPhones(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, phoneSeparator) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
