package index

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/pinnote/internal/storage"
)

// Refresher re-reads a single note after an outside change.
type Refresher interface {
	Refresh(title string) error
}

// Watcher follows the notes directory with fsnotify and refreshes the store
// when note files change outside the process. Bursts of events for the same
// note are coalesced.
type Watcher struct {
	target   Refresher
	logger   *slog.Logger
	debounce time.Duration
	retarget chan string
	root     string
}

// NewWatcher creates a watcher for root. Call Run to start it.
func NewWatcher(target Refresher, root string, logger *slog.Logger) *Watcher {
	return &Watcher{
		target:   target,
		logger:   logger,
		debounce: 150 * time.Millisecond,
		retarget: make(chan string, 1),
		root:     root,
	}
}

// Retarget switches the watched directory. Only the latest request is kept
// if several arrive before Run picks them up.
func (w *Watcher) Retarget(root string) {
	for {
		select {
		case w.retarget <- root:
			return
		default:
			select {
			case <-w.retarget:
			default:
			}
		}
	}
}

// Run processes file change events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	root := w.root
	if err := fw.Add(root); err != nil {
		return err
	}
	w.logger.Info("watcher: started", slog.String("root", root))

	pending := make(map[string]struct{})

	// flushTimer debounces refreshes.
	var flushTimer *time.Timer
	var flushCh <-chan time.Time

	scheduleFlush := func() {
		if flushTimer == nil {
			flushTimer = time.NewTimer(w.debounce)
			flushCh = flushTimer.C
		} else {
			flushTimer.Reset(w.debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if flushTimer != nil {
				flushTimer.Stop()
			}
			w.logger.Info("watcher: stopped")
			return nil

		case next := <-w.retarget:
			if next == root {
				continue
			}
			if err := fw.Add(next); err != nil {
				w.logger.Warn("watcher: retarget failed", slog.String("root", next), slog.String("error", err.Error()))
				continue
			}
			_ = fw.Remove(root)
			root = next
			clear(pending)
			w.logger.Info("watcher: retargeted", slog.String("root", root))

		case <-flushCh:
			for t := range pending {
				if err := w.target.Refresh(t); err != nil {
					w.logger.Warn("watcher: refresh failed", slog.String("title", t), slog.String("error", err.Error()))
				}
			}
			clear(pending)

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Dir(ev.Name) != root {
				continue
			}
			name := filepath.Base(ev.Name)
			if !strings.HasSuffix(name, storage.Ext) || strings.HasPrefix(name, storage.TempPrefix) {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			t := strings.TrimSuffix(name, storage.Ext)
			w.logger.Debug("watcher: change", slog.String("title", t), slog.String("op", ev.Op.String()))
			pending[t] = struct{}{}
			scheduleFlush()

		case watchErr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
