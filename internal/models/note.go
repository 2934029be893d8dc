// Package models defines the domain types for Pinnote.
package models

// Note is the structured view of a stored note handed to front-ends.
// Content is the text as stored (marker included), Body the text shown to
// the user.
type Note struct {
	Title   string `json:"title"`
	Content string `json:"-"`
	Body    string `json:"body"`
	Pinned  bool   `json:"pinned"`
}

// Record is one note as read from storage.
type Record struct {
	Title   string
	Content string
}

