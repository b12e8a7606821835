// Package watch monitors a manifest file for edits using fsnotify and emits
// debounced change notifications so a fresh check can be run after each save.
package watch

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Change represents a detected edit of the watched manifest.
type Change struct {
	File    string    // Absolute path of the manifest
	At      time.Time // When the change settled
	Removed bool      // The manifest disappeared
}

// Watcher monitors a manifest file for changes. The parent directory is
// watched rather than the file itself so editor save strategies that replace
// the file (write temp + rename) are still observed.
type Watcher struct {
	Manifest string
	Changes  <-chan Change // Read-only external channel

	changes chan Change // Internal write channel
	done    chan struct{}
	watcher *fsnotify.Watcher

	// Debounce controls how long a burst of events must be quiet before a
	// change is emitted. Zero means the default of 200ms.
	Debounce time.Duration
}

const defaultDebounce = 200 * time.Millisecond

// NewWatcher creates a watcher for the given manifest path.
func NewWatcher(manifestPath string) (*Watcher, error) {
	abs, err := filepath.Abs(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve %s: %w", manifestPath, err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create watcher: %w", err)
	}

	ch := make(chan Change, 16)
	w := &Watcher{
		Manifest: abs,
		Changes:  ch,
		changes:  ch,
		done:     make(chan struct{}),
		watcher:  fw,
	}
	return w, nil
}

// Start begins watching the manifest's directory for changes.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(filepath.Dir(w.Manifest)); err != nil {
		return fmt.Errorf("watch: add %s: %w", filepath.Dir(w.Manifest), err)
	}
	go w.loop()
	return nil
}

// Stop closes the watcher and channels.
func (w *Watcher) Stop() {
	w.watcher.Close()
	<-w.done // Wait for loop to exit
	close(w.changes)
}

func (w *Watcher) loop() {
	defer close(w.done)

	debounce := w.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	var pending time.Time
	var removed bool
	ticker := time.NewTicker(debounce)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				if !pending.IsZero() {
					w.emit(removed)
				}
				return
			}
			if filepath.Clean(event.Name) != w.Manifest {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				pending = time.Now()
				removed = event.Has(fsnotify.Remove)
			}

		case _, ok := <-ticker.C:
			if !ok {
				return
			}
			if !pending.IsZero() && time.Since(pending) >= debounce {
				w.emit(removed)
				pending = time.Time{}
				removed = false
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Ignore watch errors; they're non-fatal.
		}
	}
}

func (w *Watcher) emit(removed bool) {
	select {
	case w.changes <- Change{File: w.Manifest, At: time.Now(), Removed: removed}:
	default:
		// Consumer stalled and the buffer is full; drop the notification
		// rather than wedge the event loop (and Stop with it). The next
		// manifest edit will produce a fresh one.
	}
}
