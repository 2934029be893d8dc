package index

import (
	"log/slog"
	"time"

	"github.com/starford/pinnote/internal/checksum"
	"github.com/starford/pinnote/internal/models"
	"github.com/starford/pinnote/internal/notestore"
	"github.com/starford/pinnote/internal/parser"
)

// Source is the read side of the note store that the index mirrors.
type Source interface {
	List(filter string) []string
	Note(title string) (models.Note, bool)
}

// Sync brings the index up to date with src:
//   - new/changed notes are parsed and upserted
//   - notes no longer in src are deleted from the index
func Sync(db *DB, src Source, logger *slog.Logger) error {
	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	live := make(map[string]struct{})
	for _, t := range src.List("") {
		live[t] = struct{}{}

		note, ok := src.Note(t)
		if !ok {
			continue
		}
		if checksums[t] == checksum.String(note.Content) {
			continue
		}
		if err := IndexNote(db, note); err != nil {
			logger.Warn("sync: index failed", slog.String("title", t), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("title", t))
		}
	}

	// Remove stale entries.
	for t := range checksums {
		if _, ok := live[t]; !ok {
			if err := db.DeleteNote(t); err != nil {
				logger.Warn("sync: delete failed", slog.String("title", t), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("title", t))
			}
		}
	}

	return nil
}

// IndexNote parses the note body and upserts it into the DB.
func IndexNote(db NoteIndex, note models.Note) error {
	res := parser.Parse(note.Body)
	row := NoteRow{
		Title:     note.Title,
		Pinned:    note.Pinned,
		Checksum:  checksum.String(note.Content),
		Tags:      res.Tags,
		UpdatedAt: time.Now(),
	}
	return db.UpsertNote(row, note.Body, res.Links)
}

// indexIfChanged upserts note unless the index already holds its content.
// Watcher refreshes of the store's own writes land here unchanged.
func indexIfChanged(db NoteIndex, note models.Note) error {
	cs, err := db.GetChecksum(note.Title)
	if err != nil {
		return err
	}
	if cs == checksum.String(note.Content) {
		return nil
	}
	return IndexNote(db, note)
}

// Observer returns a store observer that keeps db in step with src.
func Observer(db *DB, src Source, logger *slog.Logger) notestore.Observer {
	return func(ev notestore.Event) {
		var err error
		switch ev.Kind {
		case notestore.EventCreated, notestore.EventUpdated:
			note, ok := src.Note(ev.Title)
			if !ok {
				return
			}
			err = indexIfChanged(db, note)
		case notestore.EventDeleted:
			err = db.DeleteNote(ev.Title)
		case notestore.EventRelocated, notestore.EventReloaded:
			err = Sync(db, src, logger)
		}
		if err != nil {
			logger.Warn("index: update failed",
				slog.String("kind", ev.Kind),
				slog.String("title", ev.Title),
				slog.String("error", err.Error()))
		}
	}
}
