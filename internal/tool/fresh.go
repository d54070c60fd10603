package tool

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// witnessGrace is how long to wait for a pending filesystem event once the
// analyzer has exited.
const witnessGrace = 200 * time.Millisecond

// writeWitness observes the output directory while an analyzer runs and
// records whether the report file was created or written during that window.
type writeWitness struct {
	path    string
	watcher *fsnotify.Watcher
	seen    chan struct{}
	once    sync.Once
	done    chan struct{}
}

// watchOutput starts watching the directory of path. It returns nil when
// the platform watcher is unavailable; callers then fall back to mtime.
func watchOutput(path string) *writeWitness {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Debug("fsnotify unavailable, using mtime freshness check", "error", err)
		return nil
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		slog.Debug("watch output dir failed, using mtime freshness check", "path", path, "error", err)
		_ = watcher.Close()
		return nil
	}

	w := &writeWitness{
		path:    filepath.Clean(path),
		watcher: watcher,
		seen:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go w.loop()
	return w
}

func (w *writeWitness) loop() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) {
				w.once.Do(func() { close(w.seen) })
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Debug("output watcher error", "error", err)
		}
	}
}

// Witnessed reports whether a create/write of the report was observed,
// waiting up to grace for events still in flight.
func (w *writeWitness) Witnessed(grace time.Duration) bool {
	select {
	case <-w.seen:
		return true
	case <-time.After(grace):
		return false
	}
}

// Close stops the watcher.
func (w *writeWitness) Close() {
	_ = w.watcher.Close()
	<-w.done
}

// isFresh reports whether the artifact at path was produced by the
// invocation that started at started.
func isFresh(w *writeWitness, fi os.FileInfo, started time.Time) bool {
	if w != nil && w.Witnessed(witnessGrace) {
		return true
	}
	// coarse mtime granularity on some filesystems
	return !fi.ModTime().Before(started.Truncate(time.Second))
}
