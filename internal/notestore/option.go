package notestore

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/pinnote/internal/storage"
)

// Event kinds delivered to observers.
const (
	EventCreated   = "created"
	EventUpdated   = "updated"
	EventDeleted   = "deleted"
	EventRelocated = "relocated"
	EventReloaded  = "reloaded"
)

// Event describes one change to the store. Title is empty for relocations
// and reloads, after which observers should resynchronise everything.
type Event struct {
	Kind  string
	Title string
}

// Observer is called after a change has been persisted, outside the store lock.
type Observer func(Event)

// Option is a functional option for configuring a Store.
type Option func(*Store)

// WithLogger sets the logger used for load warnings and refresh events.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithObserver registers an observer for change events.
func WithObserver(o Observer) Option {
	return func(s *Store) {
		s.observers = append(s.observers, o)
	}
}

// Observe registers an observer on an open store. It must be called before
// the store is shared between goroutines.
func (s *Store) Observe(o Observer) {
	s.observers = append(s.observers, o)
}

func (s *Store) notify(ev Event) {
	for _, o := range s.observers {
		o(ev)
	}
}

// LoadReport summarises a load of the notes directory.
type LoadReport struct {
	Root    string
	Loaded  int
	Skipped []storage.Skipped
}

// Warning returns a single user-facing message about skipped notes, or ""
// when every note loaded.
func (r LoadReport) Warning() string {
	if len(r.Skipped) == 0 {
		return ""
	}
	titles := make([]string, len(r.Skipped))
	for i, sk := range r.Skipped {
		titles[i] = sk.Title
	}
	noun := "notes"
	if len(titles) == 1 {
		noun = "note"
	}
	return fmt.Sprintf("%d %s could not be loaded: %s", len(titles), noun, strings.Join(titles, ", "))
}
