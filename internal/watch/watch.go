// Package watch reports on-disk changes of the files currently selected in
// the form (template, inputs, XML schema) into the activity log.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/yildizm/catform/internal/form"
	"github.com/yildizm/catform/internal/logger"
)

// Watcher follows the form's file selection and watches exactly those files
type Watcher struct {
	fsw  *fsnotify.Watcher
	sink form.LogSink
	log  *logger.Logger

	mu      sync.Mutex
	watched map[string]struct{}

	unsubscribe func()
	closeOnce   sync.Once
}

// New creates a watcher bound to store. Log lines go to sink.
func New(store *form.Store, sink form.LogSink, log *logger.Logger) (*Watcher, error) {
	if log == nil {
		log = logger.Nop()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	w := &Watcher{
		fsw:     fsw,
		sink:    sink,
		log:     log,
		watched: make(map[string]struct{}),
	}
	w.sync(store.Snapshot())
	w.unsubscribe = store.Subscribe(w.sync)
	return w, nil
}

// selectedFiles returns the cleaned set of files the form refers to
func selectedFiles(s form.State) map[string]struct{} {
	files := make(map[string]struct{}, len(s.InputFiles)+2)
	add := func(p string) {
		if p == "" {
			return
		}
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		files[filepath.Clean(p)] = struct{}{}
	}
	add(s.Template)
	add(s.XMLValidationFile)
	for _, f := range s.InputFiles {
		add(f)
	}
	return files
}

// sync brings the watch list in line with the form state
func (w *Watcher) sync(s form.State) {
	want := selectedFiles(s)

	w.mu.Lock()
	defer w.mu.Unlock()

	for path := range w.watched {
		if _, ok := want[path]; ok {
			continue
		}
		if err := w.fsw.Remove(path); err != nil {
			w.log.Debug("failed to unwatch %s: %v", path, err)
		}
		delete(w.watched, path)
	}

	for path := range want {
		if _, ok := w.watched[path]; ok {
			continue
		}
		if err := w.fsw.Add(path); err != nil {
			w.log.Debug("cannot watch %s: %v", path, err)
			continue
		}
		w.watched[path] = struct{}{}
	}
}

// Watched returns the paths currently being watched, sorted
func (w *Watcher) Watched() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	paths := make([]string, 0, len(w.watched))
	for p := range w.watched {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Run processes file system events until ctx is done or the watcher closes
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watcher error: %v", err)
		}
	}
}

// handleEvent turns one fsnotify event into at most one log line
func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := filepath.Clean(event.Name)

	w.mu.Lock()
	_, tracked := w.watched[path]
	gone := event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
	if tracked && gone {
		// fsnotify drops the watch itself; forget it so a later sync re-adds it
		delete(w.watched, path)
	}
	w.mu.Unlock()

	if !tracked {
		return
	}

	switch {
	case gone:
		w.sink.UpdateLog(fmt.Sprintf("File removed from disk: %s", path), false)
	case event.Has(fsnotify.Write) || event.Has(fsnotify.Create):
		w.sink.UpdateLog(fmt.Sprintf("File changed on disk: %s", path), false)
	}
}

// Close stops following the store and releases the watcher
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		if w.unsubscribe != nil {
			w.unsubscribe()
		}
		err = w.fsw.Close()
	})
	return err
}
