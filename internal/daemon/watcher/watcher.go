// Package watcher handles file system watching for the daemon.
package watcher

import (
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/watchfire-io/nearby/internal/config"
)

// DefaultDebounce is the quiet period before a change is reported.
const DefaultDebounce = 100 * time.Millisecond

// EventType represents the type of file system event.
type EventType int

// Event types for file system changes.
const (
	EventSettingsChanged EventType = iota
	EventDaemonFileRemoved
)

func (t EventType) String() string {
	switch t {
	case EventSettingsChanged:
		return "settings-changed"
	case EventDaemonFileRemoved:
		return "daemon-file-removed"
	default:
		return "unknown"
	}
}

// Event represents a file system change event.
type Event struct {
	Type EventType
	Path string
}

// Watcher watches the global directory for changes relevant to the daemon.
type Watcher struct {
	dir        string
	debounceD  time.Duration
	fsWatcher  *fsnotify.Watcher
	eventsChan chan Event
	done       chan struct{}
	stopOnce   sync.Once
	debounce   map[string]*time.Timer
	debounceMu sync.Mutex
}

// New creates a watcher for dir. An empty dir means the global directory.
func New(dir string) (*Watcher, error) {
	if dir == "" {
		globalDir, err := config.GlobalDir()
		if err != nil {
			return nil, err
		}
		dir = globalDir
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		dir:        dir,
		debounceD:  DefaultDebounce,
		fsWatcher:  fsWatcher,
		eventsChan: make(chan Event, 100),
		done:       make(chan struct{}),
		debounce:   make(map[string]*time.Timer),
	}

	return w, nil
}

// SetDebounce changes the quiet period. Call before Start.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounceD = d
}

// Events returns the channel for receiving events.
func (w *Watcher) Events() <-chan Event {
	return w.eventsChan
}

// Start starts the watcher.
func (w *Watcher) Start() error {
	// The directory is watched rather than the files: settings are saved by
	// writing a temp file and renaming it over the target.
	if err := w.fsWatcher.Add(w.dir); err != nil {
		return err
	}

	go w.processEvents()

	log.Printf("[watcher] Watching %s", w.dir)
	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		_ = w.fsWatcher.Close()

		w.debounceMu.Lock()
		for path, timer := range w.debounce {
			timer.Stop()
			delete(w.debounce, path)
		}
		w.debounceMu.Unlock()
	})
}

// processEvents processes file system events.
func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.Printf("[watcher] Error: %v", err)
		}
	}
}

// handleEvent processes a single file system event.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	switch filepath.Base(event.Name) {
	case config.SettingsFileName:
		// Accept write, create, and rename events. Atomic saves produce
		// Create or Rename on the target.
		if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
			return
		}
		w.debounceEvent(event.Name, func() {
			w.emit(Event{Type: EventSettingsChanged, Path: event.Name})
		})

	case config.DaemonFileName:
		if event.Op&fsnotify.Remove == 0 {
			return
		}
		w.emit(Event{Type: EventDaemonFileRemoved, Path: event.Name})
	}
}

// debounceEvent debounces events for the same path.
func (w *Watcher) debounceEvent(path string, fn func()) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	// Cancel existing timer
	if timer, ok := w.debounce[path]; ok {
		timer.Stop()
	}

	w.debounce[path] = time.AfterFunc(w.debounceD, func() {
		w.debounceMu.Lock()
		delete(w.debounce, path)
		w.debounceMu.Unlock()
		fn()
	})
}

func (w *Watcher) emit(e Event) {
	log.Printf("[watcher] %s: %s", e.Type, e.Path)
	select {
	case w.eventsChan <- e:
	case <-w.done:
	}
}
