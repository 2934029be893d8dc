package index

import (
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/starford/pinnote/internal/models"
	"github.com/starford/pinnote/internal/notestore"
	"github.com/starford/pinnote/internal/storage"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "pinnote-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testStore(t *testing.T) *notestore.Store {
	t.Helper()
	fs, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	s, _, err := notestore.Open(fs, notestore.WithLogger(discard))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM notes`).Scan(&count); err != nil {
		t.Fatalf("notes table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM links`).Scan(&count); err != nil {
		t.Fatalf("links table missing: %v", err)
	}
}

func TestOpenDropsStaleSchema(t *testing.T) {
	f, err := os.CreateTemp("", "pinnote-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = db.UpsertNote(NoteRow{Title: "old", Checksum: "1", UpdatedAt: time.Now()}, "body", nil)
	if _, err := db.conn.Exec(`PRAGMA user_version = 1`); err != nil {
		t.Fatal(err)
	}
	db.Close()

	db, err = Open(f.Name())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	var version int
	_ = db.conn.QueryRow(`PRAGMA user_version`).Scan(&version)
	if version != schemaVersion {
		t.Errorf("user_version = %d, want %d", version, schemaVersion)
	}
	if cs, _ := db.GetChecksum("old"); cs != "" {
		t.Error("rows from a stale schema should be dropped")
	}
}

func TestUpsertAndGetChecksum(t *testing.T) {
	db := testDB(t)
	row := NoteRow{
		Title:     "Hello World",
		Checksum:  "abc123",
		Tags:      []string{"go", "test"},
		UpdatedAt: time.Now(),
	}
	if err := db.UpsertNote(row, "This is a hello world note.", []string{"Other"}); err != nil {
		t.Fatalf("UpsertNote: %v", err)
	}
	cs, err := db.GetChecksum("Hello World")
	if err != nil {
		t.Fatalf("GetChecksum: %v", err)
	}
	if cs != "abc123" {
		t.Errorf("checksum = %q, want %q", cs, "abc123")
	}
}

func TestBacklinks(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Title: "a", Checksum: "1", UpdatedAt: time.Now()}, "body", []string{"b"})
	_ = db.UpsertNote(NoteRow{Title: "c", Checksum: "2", UpdatedAt: time.Now()}, "body", []string{"b"})

	bl, err := db.Backlinks("b")
	if err != nil {
		t.Fatalf("Backlinks: %v", err)
	}
	if len(bl) != 2 || bl[0] != "a" || bl[1] != "c" {
		t.Fatalf("backlinks = %v, want [a c]", bl)
	}
}

func TestDeleteNote(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Title: "del", Checksum: "x", UpdatedAt: time.Now()}, "body", []string{"target"})

	if err := db.DeleteNote("del"); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	cs, _ := db.GetChecksum("del")
	if cs != "" {
		t.Errorf("deleted note still has checksum %q", cs)
	}
	bl, _ := db.Backlinks("target")
	if len(bl) != 0 {
		t.Errorf("expected 0 backlinks after delete, got %d", len(bl))
	}
}

func TestUpsertUpdatesExisting(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.UpsertNote(NoteRow{Title: "up", Checksum: "1", UpdatedAt: now}, "old body", []string{"x"})
	_ = db.UpsertNote(NoteRow{Title: "up", Checksum: "2", Tags: []string{"new"}, UpdatedAt: now}, "new body", []string{"y"})

	cs, _ := db.GetChecksum("up")
	if cs != "2" {
		t.Errorf("checksum = %q, want %q", cs, "2")
	}
	bl, _ := db.Backlinks("x")
	if len(bl) != 0 {
		t.Error("old link should be removed on upsert")
	}
	bl, _ = db.Backlinks("y")
	if len(bl) != 1 {
		t.Error("new link should exist")
	}
}

func TestGetChecksum_NotFound(t *testing.T) {
	db := testDB(t)
	cs, err := db.GetChecksum("nonexistent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cs != "" {
		t.Errorf("expected empty checksum, got %q", cs)
	}
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Title: "Search Me", Checksum: "1", Tags: []string{"x"}, UpdatedAt: time.Now()}, "uniqueword appears here", nil)

	results, err := db.Search("uniqueword", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Title != "Search Me" {
		t.Fatalf("search results = %+v, want 1 hit for Search Me", results)
	}
	if len(results[0].Tags) != 1 || results[0].Tags[0] != "x" {
		t.Errorf("tags = %v, want [x]", results[0].Tags)
	}
}

func TestSyncMirrorsStore(t *testing.T) {
	db := testDB(t)
	s := testStore(t)
	_, _ = s.Add("first")
	_ = s.Save("first", "#pinned\nsee [[second]] #todo")
	_, _ = s.Add("second")

	// A stale row that is not in the store.
	_ = db.UpsertNote(NoteRow{Title: "stale", Checksum: "z", UpdatedAt: time.Now()}, "", nil)

	if err := Sync(db, s, discard); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	all, err := db.AllChecksums()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("indexed = %v, want first and second", all)
	}
	if _, ok := all["stale"]; ok {
		t.Error("stale row should be removed")
	}
	bl, _ := db.Backlinks("second")
	if len(bl) != 1 || bl[0] != "first" {
		t.Errorf("backlinks = %v, want [first]", bl)
	}

	results, _ := db.Search("todo", 10)
	if len(results) != 1 || !results[0].Pinned {
		t.Errorf("results = %+v, want pinned hit for first", results)
	}
}

func TestObserverFollowsStore(t *testing.T) {
	db := testDB(t)
	s := testStore(t)
	s.Observe(Observer(db, s, discard))

	_, _ = s.Add("n")
	if cs, _ := db.GetChecksum("n"); cs == "" {
		t.Fatal("created note not indexed")
	}
	_ = s.Save("n", "findme")
	results, _ := db.Search("findme", 10)
	if len(results) != 1 {
		t.Errorf("updated note not searchable: %+v", results)
	}
	_ = s.Delete("n")
	if cs, _ := db.GetChecksum("n"); cs != "" {
		t.Error("deleted note still indexed")
	}
}

// countingIndex records upserts that reach the database.
type countingIndex struct {
	*DB
	upserts int
}

func (c *countingIndex) UpsertNote(n NoteRow, body string, links []string) error {
	c.upserts++
	return c.DB.UpsertNote(n, body, links)
}

func TestIndexIfChangedSkipsUnchanged(t *testing.T) {
	idx := &countingIndex{DB: testDB(t)}
	note := models.Note{Title: "n", Content: "body", Body: "body"}

	if err := indexIfChanged(idx, note); err != nil {
		t.Fatalf("first index: %v", err)
	}
	if err := indexIfChanged(idx, note); err != nil {
		t.Fatalf("second index: %v", err)
	}
	if idx.upserts != 1 {
		t.Errorf("upserts = %d, want 1", idx.upserts)
	}

	note.Content, note.Body = "changed", "changed"
	if err := indexIfChanged(idx, note); err != nil {
		t.Fatalf("changed index: %v", err)
	}
	if idx.upserts != 2 {
		t.Errorf("upserts after change = %d, want 2", idx.upserts)
	}
}
