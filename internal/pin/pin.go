// Package pin stores a note's pinned flag inside its content.
//
// A pinned note's file starts with the exact line "#pinned". There is no
// other metadata channel, so the encoding is lossy: a note whose real first
// line is "#pinned" reads back as pinned with that line hidden. Content that
// is exactly "#pinned" without a line break, or that starts with
// "#pinned\r\n", is not treated as pinned.
package pin

import "strings"

// MarkerLine is the reserved first line of a pinned note.
const MarkerLine = "#pinned\n"

// IsPinned reports whether content carries the marker line. Every code path
// that changes a note's content derives pin state through this function.
func IsPinned(content string) bool {
	return strings.HasPrefix(content, MarkerLine)
}

// Encode returns content with the marker present iff pinned. Removal cuts
// exactly one marker line so later lines that look like it are kept.
func Encode(content string, pinned bool) string {
	marked := IsPinned(content)
	switch {
	case pinned && !marked:
		return MarkerLine + content
	case !pinned && marked:
		return content[len(MarkerLine):]
	}
	return content
}

// Decode splits stored content into its pin flag and the text shown to the user.
func Decode(content string) (pinned bool, display string) {
	if IsPinned(content) {
		return true, content[len(MarkerLine):]
	}
	return false, content
}
