package index

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/starford/pinnote/internal/notestore"
	"github.com/starford/pinnote/internal/storage"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

type recorder struct {
	mu     sync.Mutex
	titles []string
}

func (r *recorder) Refresh(title string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.titles = append(r.titles, title)
	return nil
}

func (r *recorder) seen(title string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.titles {
		if t == title {
			return true
		}
	}
	return false
}

func startWatcher(t *testing.T, target Refresher, root string) *Watcher {
	t.Helper()
	w := NewWatcher(target, root, discard)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = w.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	time.Sleep(100 * time.Millisecond)
	return w
}

func TestWatcher_ExternalEditRefreshesStore(t *testing.T) {
	dir := t.TempDir()
	fs, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	s, _, err := notestore.Open(fs, notestore.WithLogger(discard))
	if err != nil {
		t.Fatal(err)
	}
	startWatcher(t, s, fs.Root())

	_ = os.WriteFile(filepath.Join(dir, "outside.md"), []byte("#pinned\nfrom editor"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return s.IsPinned("outside")
	}, "external file not picked up by watcher")

	_ = os.Remove(filepath.Join(dir, "outside.md"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		_, ok := s.Get("outside")
		return !ok
	}, "external delete not picked up by watcher")
}

func TestWatcher_IgnoresNonNotes(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	startWatcher(t, rec, dir)

	_ = os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("x"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, storage.TempPrefix+"1"), []byte("x"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "real.md"), []byte("x"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.seen("real")
	}, "note change not reported")

	rec.mu.Lock()
	defer rec.mu.Unlock()
	for _, title := range rec.titles {
		if title != "real" {
			t.Errorf("unexpected refresh for %q", title)
		}
	}
}

func TestWatcher_Retarget(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	rec := &recorder{}
	w := startWatcher(t, rec, first)

	w.Retarget(second)
	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(second, "moved.md"), []byte("x"), 0o644)
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.seen("moved")
	}, "watcher did not follow retarget")
}
