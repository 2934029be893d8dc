package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/starford/pinnote/internal/apperr"
	"github.com/starford/pinnote/internal/models"
	"github.com/starford/pinnote/internal/title"
)

const (
	// Ext is the file extension of every note file.
	Ext = ".md"
	// TempPrefix marks in-flight atomic writes; such files never match *.md.
	TempPrefix = ".pinnote-tmp-"

	notePattern = "*" + Ext
)

// ErrInvalidEncoding is wrapped by DecodeError when a note is not valid UTF-8.
var ErrInvalidEncoding = errors.New("content is not valid UTF-8")

// FS implements Provider backed by a flat directory on the local file system.
type FS struct {
	mu   sync.RWMutex
	root string // absolute path to the notes directory
}

// NewFS creates a new FS provider rooted at dir, creating it if needed.
func NewFS(dir string) (*FS, error) {
	root, err := ensureDir(dir)
	if err != nil {
		return nil, err
	}
	return &FS{root: root}, nil
}

func ensureDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", &apperr.IOError{Op: "storage: resolve root", Err: err}
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return "", &apperr.IOError{Op: "storage: create root", Err: err}
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", &apperr.IOError{Op: "storage: stat root", Err: err}
	}
	if !info.IsDir() {
		return "", &apperr.IOError{Op: "storage: stat root", Err: fmt.Errorf("not a directory: %s", abs)}
	}
	return abs, nil
}

// Root returns the absolute notes directory.
func (f *FS) Root() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.root
}

// Relocate points the provider at dir. Existing notes are not moved.
func (f *FS) Relocate(dir string) error {
	root, err := ensureDir(dir)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.root = root
	f.mu.Unlock()
	return nil
}

// notePath resolves a title to its file and rejects any result that would
// escape the root.
func (f *FS) notePath(t string) (string, error) {
	if err := title.Validate(t); err != nil {
		return "", fmt.Errorf("storage: %q: %w", t, err)
	}
	root := f.Root()
	abs := filepath.Join(root, t+Ext)
	if filepath.Dir(abs) != root {
		return "", fmt.Errorf("storage: path escapes notes root: %q", t)
	}
	return abs, nil
}

// Enumerate reads every *.md file directly under the root. Files that cannot
// be read or decoded are reported in skipped and left out of records.
func (f *FS) Enumerate() ([]models.Record, []Skipped, error) {
	root, err := ensureDir(f.Root())
	if err != nil {
		return nil, nil, err
	}
	names, err := doublestar.Glob(os.DirFS(root), notePattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, nil, &apperr.IOError{Op: "storage: list", Err: err}
	}
	sort.Strings(names)

	var (
		records []models.Record
		skipped []Skipped
	)
	for _, name := range names {
		t := strings.TrimSuffix(name, Ext)
		if !title.IsValid(t) {
			skipped = append(skipped, Skipped{Title: t, Err: fmt.Errorf("%w: %q", apperr.ErrInvalidTitle, name)})
			continue
		}
		content, err := f.Read(t)
		if err != nil {
			skipped = append(skipped, Skipped{Title: t, Err: err})
			continue
		}
		records = append(records, models.Record{Title: t, Content: content})
	}
	return records, skipped, nil
}

// Read returns the content of the note file for t.
func (f *FS) Read(t string) (string, error) {
	abs, err := f.notePath(t)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return "", &apperr.IOError{Op: "storage: read", Title: t, Err: err}
	}
	if !utf8.Valid(data) {
		return "", &apperr.DecodeError{Title: t, Err: ErrInvalidEncoding}
	}
	return string(data), nil
}

// Write atomically writes content: tmp file → fsync → rename.
func (f *FS) Write(t, content string) error {
	abs, err := f.notePath(t)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)

	tmp, err := os.CreateTemp(dir, TempPrefix+"*")
	if err != nil {
		return &apperr.IOError{Op: "storage: create temp", Title: t, Err: err}
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.WriteString(content); err != nil {
		return &apperr.IOError{Op: "storage: write temp", Title: t, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		return &apperr.IOError{Op: "storage: fsync", Title: t, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &apperr.IOError{Op: "storage: close temp", Title: t, Err: err}
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return &apperr.IOError{Op: "storage: chmod temp", Title: t, Err: err}
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return &apperr.IOError{Op: "storage: rename", Title: t, Err: err}
	}
	success = true
	return nil
}

// Delete removes the note file for t. A missing file is reported, since it
// means memory and disk disagree.
func (f *FS) Delete(t string) error {
	abs, err := f.notePath(t)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		return &apperr.IOError{Op: "storage: delete", Title: t, Err: err}
	}
	return nil
}

// IsMissing reports whether err means the note file does not exist.
func IsMissing(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
