// Package noteservice coordinates the note store, the search index and the
// persisted settings on behalf of the HTTP, MCP and CLI front-ends.
package noteservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/starford/pinnote/internal/apperr"
	"github.com/starford/pinnote/internal/checksum"
	"github.com/starford/pinnote/internal/index"
	"github.com/starford/pinnote/internal/notestore"
	"github.com/starford/pinnote/internal/parser"
	"github.com/starford/pinnote/internal/view"
	"github.com/starford/pinnote/pkg/config"
)

// Settings location of the notes directory in the config file.
const (
	SettingsSection = "settings"
	NotesPathKey    = "notes_path"
)

// ErrNoIndex is returned by index-backed queries when no index is attached.
var ErrNoIndex = errors.New("search index unavailable")

// NoteDetail is the full representation of a note.
type NoteDetail struct {
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Body      string   `json:"body"`
	Pinned    bool     `json:"pinned"`
	Checksum  string   `json:"checksum"`
	Tags      []string `json:"tags"`
	Backlinks []string `json:"backlinks"`
}

// NoteListItem is a lightweight item in a list response.
type NoteListItem struct {
	Title  string `json:"title"`
	Pinned bool   `json:"pinned"`
}

// Service coordinates store, index and settings operations.
type Service struct {
	store      *notestore.Store
	db         index.NoteIndex
	configFile string
}

// Option is a functional option for configuring a Service.
type Option func(*Service)

// WithIndex attaches the search index used by Search and Backlinks.
func WithIndex(db index.NoteIndex) Option {
	return func(s *Service) {
		s.db = db
	}
}

// WithConfigFile sets the config file Relocate persists the notes path to.
func WithConfigFile(file string) Option {
	return func(s *Service) {
		s.configFile = file
	}
}

// NewService creates a new note service.
func NewService(store *notestore.Store, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying note store.
func (s *Service) Store() *notestore.Store {
	return s.store
}

// GetNote returns a note enriched with its checksum, tags and backlinks.
func (s *Service) GetNote(ctx context.Context, title string) (*NoteDetail, error) {
	note, ok := s.store.Note(title)
	if !ok {
		return nil, fmt.Errorf("noteservice: get %q: %w", title, apperr.ErrNotFound)
	}
	res := parser.Parse(note.Body)
	detail := &NoteDetail{
		Title:     note.Title,
		Content:   note.Content,
		Body:      note.Body,
		Pinned:    note.Pinned,
		Checksum:  checksum.String(note.Content),
		Tags:      nonNilSlice(res.Tags),
		Backlinks: []string{},
	}
	if s.db != nil {
		bl, err := s.db.Backlinks(title)
		if err != nil {
			return nil, err
		}
		detail.Backlinks = nonNilSlice(bl)
	}
	return detail, nil
}

// CreateNote adds an empty note. The returned AddResult carries the stored
// title and whether sanitizing changed it.
func (s *Service) CreateNote(ctx context.Context, rawTitle string) (*NoteDetail, notestore.AddResult, error) {
	res, err := s.store.Add(rawTitle)
	if err != nil {
		return nil, res, err
	}
	detail, err := s.GetNote(ctx, res.Title)
	return detail, res, err
}

// UpdateNote replaces the content of a note. A non-empty ifMatch must equal
// the checksum of the current content, otherwise apperr.ErrConflict.
func (s *Service) UpdateNote(ctx context.Context, title, content, ifMatch string) (*NoteDetail, error) {
	var cond func(string) bool
	if ifMatch != "" {
		cond = func(current string) bool {
			return checksum.String(current) == ifMatch
		}
	}
	if err := s.store.SaveIf(title, content, cond); err != nil {
		return nil, err
	}
	return s.GetNote(ctx, title)
}

// DeleteNote removes a note.
func (s *Service) DeleteNote(_ context.Context, title string) error {
	return s.store.Delete(title)
}

// TogglePin flips the pin state of a note and returns the new state.
func (s *Service) TogglePin(_ context.Context, title string) (bool, error) {
	return s.store.TogglePin(title)
}

// ListNotes returns the notes whose titles contain filter, pinned first.
func (s *Service) ListNotes(_ context.Context, filter string) []NoteListItem {
	entries := s.store.Entries()
	pinned := make(map[string]bool, len(entries))
	for _, e := range entries {
		pinned[e.Title] = e.Pinned
	}
	titles := view.Project(entries, filter)
	items := make([]NoteListItem, len(titles))
	for i, t := range titles {
		items[i] = NoteListItem{Title: t, Pinned: pinned[t]}
	}
	return items
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	if s.db == nil {
		return nil, ErrNoIndex
	}
	results, err := s.db.Search(query, limit)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(results), nil
}

// Backlinks returns the titles of notes that link to title.
func (s *Service) Backlinks(_ context.Context, title string) ([]string, error) {
	if _, ok := s.store.Get(title); !ok {
		return nil, fmt.Errorf("noteservice: backlinks %q: %w", title, apperr.ErrNotFound)
	}
	if s.db == nil {
		return nil, ErrNoIndex
	}
	bl, err := s.db.Backlinks(title)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(bl), nil
}

// Relocate moves the store to dir and, when a config file is set, records
// dir as the notes path there. If the setting cannot be written the store
// returns to its previous directory.
func (s *Service) Relocate(_ context.Context, dir string) (notestore.LoadReport, error) {
	old := s.store.Root()
	report, err := s.store.Relocate(dir)
	if err != nil {
		return report, err
	}
	if s.configFile == "" {
		return report, nil
	}
	if err := config.SetValue(s.configFile, SettingsSection, NotesPathKey, report.Root); err != nil {
		err = fmt.Errorf("noteservice: persist notes path: %w", err)
		if _, rerr := s.store.Relocate(old); rerr != nil {
			err = errors.Join(err, fmt.Errorf("noteservice: restore %s: %w", old, rerr))
		}
		return notestore.LoadReport{}, err
	}
	return report, nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
