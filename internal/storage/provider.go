// Package storage keeps one Markdown file per note in a notes directory.
package storage

import "github.com/starford/pinnote/internal/models"

// Skipped describes a note file left out of an enumeration.
type Skipped struct {
	Title string
	Err   error
}

// Provider is the interface for note file operations. Titles are bare note
// titles; the provider maps them to "{title}.md" under its root.
type Provider interface {
	// Enumerate reads every note under the root, creating the root if it is
	// missing. Unreadable notes are returned in skipped, not as an error.
	Enumerate() (records []models.Record, skipped []Skipped, err error)
	// Read returns the content of a single note.
	Read(title string) (string, error)
	// Write atomically replaces the note's content.
	Write(title, content string) error
	// Delete removes the note file. A missing file is an error.
	Delete(title string) error
	// Relocate switches the root for all later operations.
	Relocate(root string) error
	// Root returns the absolute notes directory.
	Root() string
}
