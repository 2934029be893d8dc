// Package view orders note titles for display.
package view

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// Entry is the per-note input to Project.
type Entry struct {
	Title  string
	Pinned bool
}

// Project returns the titles of entries whose title contains filter
// (case-insensitively), pinned notes first, each group sorted by
// case-folded title. The result is a fresh slice built at call time.
func Project(entries []Entry, filter string) []string {
	fold := cases.Fold()
	needle := fold.String(filter)

	type keyed struct {
		Entry
		key string
	}
	matched := make([]keyed, 0, len(entries))
	for _, e := range entries {
		key := fold.String(e.Title)
		if needle != "" && !strings.Contains(key, needle) {
			continue
		}
		matched = append(matched, keyed{Entry: e, key: key})
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if a.Pinned != b.Pinned {
			return a.Pinned
		}
		if a.key != b.key {
			return a.key < b.key
		}
		return a.Title < b.Title
	})

	out := make([]string, len(matched))
	for i, m := range matched {
		out[i] = m.Title
	}
	return out
}
