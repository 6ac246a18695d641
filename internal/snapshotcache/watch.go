package snapshotcache

import (
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher invalidates in-memory LRU entries when the persistent cache's
// on-disk namespace directory changes underneath this process — another
// process clearing or rewriting a FileBackend namespace, for instance.
// Debounce pattern mirrors the teacher's VendorSyncer.WatchConfig
// (internal/core/watch_service.go); unlike that watcher this one drives a
// cache invalidation rather than a sync callback.
type Watcher struct {
	cache     *Cache
	watcher   *fsnotify.Watcher
	debounce  time.Duration
	onInvalid func(namespace string)
}

// WatchNamespaceDir starts watching dir (a FileBackend namespace directory)
// and, on any create/write/remove/rename event, resets the in-memory LRU after a
// debounce window. It returns the Watcher so the caller can Close it; the
// watch loop runs in its own goroutine.
func WatchNamespaceDir(cache *Cache, dir string, debounce time.Duration, onInvalid func(namespace string)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, err
	}
	if debounce <= 0 {
		debounce = time.Second
	}

	w := &Watcher{cache: cache, watcher: fw, debounce: debounce, onInvalid: onInvalid}
	namespace := filepath.Base(dir)
	go w.loop(namespace)
	return w, nil
}

func (w *Watcher) loop(namespace string) {
	var timer *time.Timer
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Remove|fsnotify.Rename|fsnotify.Create) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				w.cache.mu.Lock()
				w.cache.mem.reset()
				w.cache.mu.Unlock()
				if w.onInvalid != nil {
					w.onInvalid(namespace)
				}
			})
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("snapshotcache: watch error: %v", err)
		}
	}
}

// Close stops the watch loop.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
