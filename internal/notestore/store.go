// Package notestore holds the authoritative in-memory set of notes and keeps
// it in step with the notes directory.
//
// Content is the source of truth for pin state: the pinned set is rebuilt
// from pin.IsPinned whenever content changes. Every mutation is written
// through to storage before it returns and is rolled back in memory if the
// write fails.
package notestore

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/starford/pinnote/internal/apperr"
	"github.com/starford/pinnote/internal/models"
	"github.com/starford/pinnote/internal/pin"
	"github.com/starford/pinnote/internal/storage"
	"github.com/starford/pinnote/internal/title"
	"github.com/starford/pinnote/internal/view"
)

// Store maps note titles to content.
type Store struct {
	mu      sync.RWMutex
	backend storage.Provider
	notes   map[string]string
	pinned  map[string]struct{}

	logger    *slog.Logger
	observers []Observer
}

// AddResult is returned by Add.
type AddResult struct {
	// Title is the stored title after sanitization.
	Title string
	// Modified is true when Title differs from the requested title.
	Modified bool
}

// Open loads every note from backend into a new Store.
func Open(backend storage.Provider, opts ...Option) (*Store, LoadReport, error) {
	s := &Store{
		backend: backend,
		notes:   make(map[string]string),
		pinned:  make(map[string]struct{}),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mu.Lock()
	report, err := s.loadLocked()
	s.mu.Unlock()
	if err != nil {
		return nil, report, err
	}
	return s, report, nil
}

// loadLocked replaces the in-memory state with the backend's notes.
func (s *Store) loadLocked() (LoadReport, error) {
	records, skipped, err := s.backend.Enumerate()
	if err != nil {
		return LoadReport{}, fmt.Errorf("notestore: load: %w", err)
	}

	notes := make(map[string]string, len(records))
	pinned := make(map[string]struct{})
	for _, r := range records {
		notes[r.Title] = r.Content
		if pin.IsPinned(r.Content) {
			pinned[r.Title] = struct{}{}
		}
	}
	s.notes = notes
	s.pinned = pinned

	for _, sk := range skipped {
		s.logger.Warn("notestore: skipped unreadable note",
			slog.String("title", sk.Title),
			slog.String("error", sk.Err.Error()))
	}
	report := LoadReport{Root: s.backend.Root(), Loaded: len(records), Skipped: skipped}
	s.logger.Info("notestore: loaded",
		slog.String("root", report.Root),
		slog.Int("loaded", report.Loaded),
		slog.Int("skipped", len(skipped)))
	return report, nil
}

// setLocked stores content and re-derives the pin flag from it.
func (s *Store) setLocked(t, content string) {
	s.notes[t] = content
	if pin.IsPinned(content) {
		s.pinned[t] = struct{}{}
	} else {
		delete(s.pinned, t)
	}
}

func (s *Store) removeLocked(t string) {
	delete(s.notes, t)
	delete(s.pinned, t)
}

// Add creates an empty note. The requested title is sanitized first; the
// result reports the stored title and whether it had to be changed.
func (s *Store) Add(raw string) (AddResult, error) {
	t, modified := title.Sanitize(raw)
	if err := title.Validate(t); err != nil {
		return AddResult{}, fmt.Errorf("notestore: add %q: %w", raw, err)
	}

	s.mu.Lock()
	if _, exists := s.notes[t]; exists {
		s.mu.Unlock()
		return AddResult{}, fmt.Errorf("notestore: add %q: %w", t, apperr.ErrDuplicateTitle)
	}
	s.setLocked(t, "")
	if err := s.backend.Write(t, ""); err != nil {
		s.removeLocked(t)
		s.mu.Unlock()
		return AddResult{}, fmt.Errorf("notestore: add: %w", err)
	}
	s.mu.Unlock()

	s.notify(Event{Kind: EventCreated, Title: t})
	return AddResult{Title: t, Modified: modified}, nil
}

// Get returns the stored content of t, marker included.
func (s *Store) Get(t string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	content, ok := s.notes[t]
	return content, ok
}

// Note returns the decoded note t.
func (s *Store) Note(t string) (models.Note, bool) {
	content, ok := s.Get(t)
	if !ok {
		return models.Note{}, false
	}
	pinned, body := pin.Decode(content)
	return models.Note{Title: t, Content: content, Body: body, Pinned: pinned}, true
}

// IsPinned reports whether t exists and is pinned.
func (s *Store) IsPinned(t string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.pinned[t]
	return ok
}

// Len returns the number of notes.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.notes)
}

// Root returns the directory the store currently persists to.
func (s *Store) Root() string {
	return s.backend.Root()
}

// Save replaces the content of t. A marker line at the start of content
// pins the note; its absence unpins it.
func (s *Store) Save(t, content string) error {
	return s.SaveIf(t, content, nil)
}

// SaveIf is Save guarded by cond, which is called with the current content
// under the write lock. A false result fails with apperr.ErrConflict.
func (s *Store) SaveIf(t, content string, cond func(current string) bool) error {
	s.mu.Lock()
	prev, ok := s.notes[t]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("notestore: save %q: %w", t, apperr.ErrNotFound)
	}
	if cond != nil && !cond(prev) {
		s.mu.Unlock()
		return fmt.Errorf("notestore: save %q: %w", t, apperr.ErrConflict)
	}
	s.setLocked(t, content)
	if err := s.backend.Write(t, content); err != nil {
		s.setLocked(t, prev)
		s.mu.Unlock()
		return fmt.Errorf("notestore: save: %w", err)
	}
	s.mu.Unlock()

	s.notify(Event{Kind: EventUpdated, Title: t})
	return nil
}

// Delete removes t from memory and disk. If the file cannot be removed the
// note is restored in memory.
func (s *Store) Delete(t string) error {
	s.mu.Lock()
	prev, ok := s.notes[t]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("notestore: delete %q: %w", t, apperr.ErrNotFound)
	}
	s.removeLocked(t)
	if err := s.backend.Delete(t); err != nil {
		s.setLocked(t, prev)
		s.mu.Unlock()
		return fmt.Errorf("notestore: delete: %w", err)
	}
	s.mu.Unlock()

	s.notify(Event{Kind: EventDeleted, Title: t})
	return nil
}

// TogglePin flips the pin state of t, persists the re-encoded content and
// returns the new state.
func (s *Store) TogglePin(t string) (bool, error) {
	s.mu.Lock()
	prev, ok := s.notes[t]
	if !ok {
		s.mu.Unlock()
		return false, fmt.Errorf("notestore: toggle pin %q: %w", t, apperr.ErrNotFound)
	}
	next := pin.Encode(prev, !pin.IsPinned(prev))
	s.setLocked(t, next)
	if err := s.backend.Write(t, next); err != nil {
		s.setLocked(t, prev)
		s.mu.Unlock()
		return false, fmt.Errorf("notestore: toggle pin: %w", err)
	}
	_, pinned := s.pinned[t]
	s.mu.Unlock()

	s.notify(Event{Kind: EventUpdated, Title: t})
	return pinned, nil
}

// Entries returns a snapshot of every title with its pin state.
func (s *Store) Entries() []view.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]view.Entry, 0, len(s.notes))
	for t := range s.notes {
		_, p := s.pinned[t]
		out = append(out, view.Entry{Title: t, Pinned: p})
	}
	return out
}

// List returns titles matching filter in display order.
func (s *Store) List(filter string) []string {
	return view.Project(s.Entries(), filter)
}

// Reload discards the in-memory state and reads every note again.
func (s *Store) Reload() (LoadReport, error) {
	s.mu.Lock()
	report, err := s.loadLocked()
	s.mu.Unlock()
	if err != nil {
		return report, err
	}
	s.notify(Event{Kind: EventReloaded, Title: ""})
	return report, nil
}

// Relocate points the store at a new notes directory and loads it. Notes in
// the old directory are left where they are. If loading fails the previous
// directory stays in effect.
func (s *Store) Relocate(dir string) (LoadReport, error) {
	s.mu.Lock()
	old := s.backend.Root()
	if err := s.backend.Relocate(dir); err != nil {
		s.mu.Unlock()
		return LoadReport{}, fmt.Errorf("notestore: relocate: %w", err)
	}
	report, err := s.loadLocked()
	if err != nil {
		if rerr := s.backend.Relocate(old); rerr != nil {
			err = errors.Join(err, rerr)
		}
		s.mu.Unlock()
		return report, err
	}
	s.mu.Unlock()

	s.notify(Event{Kind: EventRelocated, Title: ""})
	return report, nil
}

// Refresh re-reads t from disk after an outside change. A vanished file
// drops the note; unchanged content is a no-op.
func (s *Store) Refresh(t string) error {
	if !title.IsValid(t) {
		return nil
	}

	s.mu.Lock()
	prev, had := s.notes[t]
	content, err := s.backend.Read(t)
	var ev Event
	switch {
	case err != nil && storage.IsMissing(err):
		if !had {
			s.mu.Unlock()
			return nil
		}
		s.removeLocked(t)
		ev = Event{Kind: EventDeleted, Title: t}
	case err != nil:
		s.mu.Unlock()
		return fmt.Errorf("notestore: refresh: %w", err)
	case had && prev == content:
		s.mu.Unlock()
		return nil
	default:
		s.setLocked(t, content)
		ev = Event{Kind: EventUpdated, Title: t}
		if !had {
			ev.Kind = EventCreated
		}
	}
	s.mu.Unlock()

	s.logger.Debug("notestore: refreshed from disk", slog.String("title", t), slog.String("kind", ev.Kind))
	s.notify(ev)
	return nil
}
