package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/pinnote/internal/index"
	"github.com/starford/pinnote/internal/noteservice"
	"github.com/starford/pinnote/internal/notestore"
)

// CreateNoteRequest is the request body for creating a note. Reserved
// characters are stripped from Title rather than rejected.
type CreateNoteRequest struct {
	Title string `json:"title" example:"Groceries"`
}

// Validate validates the request.
func (r CreateNoteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required),
	)
}

// UpdateNoteRequest is the request body for replacing a note's content.
// Content may be empty; a leading "#pinned" line pins the note.
type UpdateNoteRequest struct {
	Content *string `json:"content" example:"#pinned\nmilk, eggs"`
}

// Validate validates the request.
func (r UpdateNoteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Content, validation.NotNil),
	)
}

// RelocateRequest is the request body for moving the notes directory.
type RelocateRequest struct {
	Path string `json:"path" example:"/home/me/notes"`
}

// Validate validates the request.
func (r RelocateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Path, validation.Required),
	)
}

// NoteDetail is the full note response type (aliased from the domain layer).
type NoteDetail = noteservice.NoteDetail

// NoteListItem is a lightweight item in a list response (aliased from the domain layer).
type NoteListItem = noteservice.NoteListItem

// CreateNoteResponse is returned after a note is created. Modified is true
// when the requested title had to be sanitized.
type CreateNoteResponse struct {
	Note     *NoteDetail `json:"note"`
	Modified bool        `json:"modified"`
}

// NoteListResponse wraps note listings in display order.
type NoteListResponse struct {
	Notes []NoteListItem `json:"notes"`
	Total int            `json:"total" example:"42"`
}

// PinResponse reports the pin state after a toggle.
type PinResponse struct {
	Title  string `json:"title"`
	Pinned bool   `json:"pinned"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results"`
}

// BacklinksResponse lists the notes linking to a note.
type BacklinksResponse struct {
	Title     string   `json:"title"`
	Backlinks []string `json:"backlinks"`
}

// LoadReportResponse describes the outcome of loading a notes directory.
type LoadReportResponse struct {
	Root    string   `json:"root"`
	Loaded  int      `json:"loaded"`
	Skipped []string `json:"skipped"`
	Warning string   `json:"warning,omitempty"`
}

func newLoadReportResponse(r notestore.LoadReport) LoadReportResponse {
	skipped := make([]string, len(r.Skipped))
	for i, sk := range r.Skipped {
		skipped[i] = sk.Title
	}
	return LoadReportResponse{
		Root:    r.Root,
		Loaded:  r.Loaded,
		Skipped: skipped,
		Warning: r.Warning(),
	}
}
