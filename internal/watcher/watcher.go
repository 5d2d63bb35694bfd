// Package watcher notices when the note changes on disk underneath the
// editor. It watches the file's directory (editors replace files by rename,
// which a watch on the file itself would lose), debounces the event burst a
// single edit produces, and tells connected SSE clients so they can offer a
// reload. Writes performed by this process are filtered out.
package watcher

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	// debounce is how long the file must stay quiet before an event fires.
	debounce = 500 * time.Millisecond
	// selfWriteWindow is how long after one of our own saves events on the
	// file are attributed to that save and dropped.
	selfWriteWindow = 2 * time.Second
)

// Event is what SSE clients receive.
type Event struct {
	Type      string `json:"type"` // "connected", "changed", "removed"
	File      string `json:"file,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Watcher tracks on-disk changes to the single bound note file.
// It implements document.Notifier; binding the path starts the watch.
type Watcher struct {
	logger *slog.Logger

	mu            sync.Mutex
	fsw           *fsnotify.Watcher
	base          string // base name of the watched file
	changed       bool   // disk differs from what the editor last saw
	suppressUntil time.Time
	clients       map[chan Event]struct{}

	stopCh chan struct{}
}

// New creates a Watcher. Nothing is watched until FileBound is called.
func New(logger *slog.Logger) *Watcher {
	return &Watcher{
		logger:  logger,
		clients: make(map[chan Event]struct{}),
		stopCh:  make(chan struct{}),
	}
}

// FileBound starts watching the directory containing path. A watch that
// cannot be established is logged and skipped; the editor works without it.
func (w *Watcher) FileBound(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fsw != nil {
		return
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		w.logger.Warn("cannot resolve note path, file watch disabled", "path", path, "error", err)
		return
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Warn("cannot create file watcher, file watch disabled", "error", err)
		return
	}
	dir := filepath.Dir(abs)
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		w.logger.Warn("cannot watch note directory, file watch disabled", "dir", dir, "error", err)
		return
	}

	w.fsw = fsw
	w.base = filepath.Base(abs)
	w.logger.Info("file watch started", "dir", dir, "file", w.base)

	go w.loop(fsw)
}

// FileLoaded clears the changed flag: the editor has just read the disk.
func (w *Watcher) FileLoaded(path string) {
	w.mu.Lock()
	w.changed = false
	w.mu.Unlock()
}

// FileSaved clears the changed flag and opens the self-write window so the
// events our own rename produces are not reported back as external.
func (w *Watcher) FileSaved(path string) {
	w.mu.Lock()
	w.changed = false
	w.suppressUntil = time.Now().Add(selfWriteWindow)
	w.mu.Unlock()
}

// ExternallyChanged reports whether the file changed on disk since the
// editor last loaded or saved it.
func (w *Watcher) ExternallyChanged() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.changed
}

// Stop shuts the watcher down.
func (w *Watcher) Stop() {
	close(w.stopCh)
	w.mu.Lock()
	if w.fsw != nil {
		w.fsw.Close()
	}
	w.mu.Unlock()
}

// Subscribe returns a channel that receives file-change events.
func (w *Watcher) Subscribe() chan Event {
	ch := make(chan Event, 16)
	w.mu.Lock()
	w.clients[ch] = struct{}{}
	w.mu.Unlock()
	return ch
}

// Unsubscribe removes an SSE client.
func (w *Watcher) Unsubscribe(ch chan Event) {
	w.mu.Lock()
	delete(w.clients, ch)
	w.mu.Unlock()
	close(ch)
}

func (w *Watcher) broadcast(ev Event) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for ch := range w.clients {
		select {
		case ch <- ev:
		default:
			// Client buffer full, skip rather than block
		}
	}
}

func (w *Watcher) loop(fsw *fsnotify.Watcher) {
	// An external edit arrives as a burst of events. Remember only the most
	// recent one and fire after the file has been quiet for the debounce
	// interval.
	var pendingType string
	var pendingAt time.Time

	ticker := time.NewTicker(debounce)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != w.watchedBase() {
				continue
			}
			switch {
			case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
				pendingType = "changed"
				pendingAt = time.Now()
			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				pendingType = "removed"
				pendingAt = time.Now()
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("file watch error", "error", err)

		case now := <-ticker.C:
			if pendingAt.IsZero() || now.Sub(pendingAt) < debounce {
				continue
			}
			evType := pendingType
			pendingType = ""
			pendingAt = time.Time{}
			w.firePending(evType)
		}
	}
}

// firePending marks the file changed and tells subscribers, unless the event
// falls inside the self-write window. The window is checked here rather than
// on event receipt: the inotify event can race ahead of the FileSaved call
// that arms the window, and by the time the debounce expires it cannot.
func (w *Watcher) firePending(evType string) {
	w.mu.Lock()
	if time.Now().Before(w.suppressUntil) {
		w.mu.Unlock()
		return
	}
	w.changed = true
	base := w.base
	w.mu.Unlock()

	w.logger.Info("note changed on disk", "file", base, "event", evType)
	w.broadcast(Event{
		Type:      evType,
		File:      base,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

func (w *Watcher) watchedBase() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.base
}

// SSEHandler returns an HTTP handler for Server-Sent Events.
func (w *Watcher) SSEHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		flusher, ok := rw.(http.Flusher)
		if !ok {
			http.Error(rw, "streaming not supported", http.StatusInternalServerError)
			return
		}

		rw.Header().Set("Content-Type", "text/event-stream")
		rw.Header().Set("Cache-Control", "no-cache")
		rw.Header().Set("Connection", "keep-alive")

		ch := w.Subscribe()
		defer w.Unsubscribe(ch)

		// Send initial connected event
		fmt.Fprintf(rw, "data: {\"type\":\"connected\"}\n\n")
		flusher.Flush()

		for {
			select {
			case ev, ok := <-ch:
				if !ok {
					return
				}
				data, _ := json.Marshal(ev)
				fmt.Fprintf(rw, "data: %s\n\n", data)
				flusher.Flush()
			case <-r.Context().Done():
				return
			}
		}
	}
}
