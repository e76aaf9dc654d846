// Package watch ingests spreadsheets dropped into inbox directories.
package watch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Config selects the directories to watch.
type Config struct {
	Dirs      []string
	Recursive bool
	// Pattern optionally restricts files by base-name glob, e.g. "sales_*".
	Pattern  string
	Debounce time.Duration
}

// Event is one processed or skipped file.
type Event struct {
	Time      time.Time `json:"time"`
	Path      string    `json:"path"`
	Operation string    `json:"operation"`
	Status    string    `json:"status"` // "processed", "error"
	Error     string    `json:"error,omitempty"`
}

// Handler ingests one settled file.
type Handler func(ctx context.Context, path string) error

// Status summarizes a running watcher.
type Status struct {
	Directories []string  `json:"directories"`
	EventCount  int       `json:"eventCount"`
	Errors      int       `json:"errors"`
	StartedAt   time.Time `json:"startedAt"`
}

var spreadsheetExtensions = map[string]bool{
	".xlsx": true, ".xls": true, ".csv": true,
}

// Watcher debounces create and write events and hands each settled
// spreadsheet to a Handler.
type Watcher struct {
	cfg     Config
	handler Handler
	logger  *slog.Logger

	mu       sync.Mutex
	events   []Event
	debounce map[string]*time.Timer
	started  time.Time
	wg       sync.WaitGroup

	fsw *fsnotify.Watcher
}

// New creates a Watcher. A nil logger discards output.
func New(cfg Config, handler Handler, logger *slog.Logger) (*Watcher, error) {
	if len(cfg.Dirs) == 0 {
		return nil, fmt.Errorf("no directories to watch; set watch.dirs or pass --dir")
	}
	if handler == nil {
		return nil, fmt.Errorf("watch handler is required")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 500 * time.Millisecond
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("could not create file watcher: %w", err)
	}
	return &Watcher{
		cfg:      cfg,
		handler:  handler,
		logger:   logger.With("component", "watch"),
		debounce: make(map[string]*time.Timer),
		fsw:      fsw,
	}, nil
}

// Run watches until ctx is cancelled and waits for in-flight files.
func (w *Watcher) Run(ctx context.Context) error {
	for _, dir := range w.cfg.Dirs {
		abs, err := filepath.Abs(dir)
		if err != nil {
			w.fsw.Close()
			return fmt.Errorf("could not resolve %s: %w", dir, err)
		}
		if w.cfg.Recursive {
			err = w.addRecursive(abs)
		} else {
			err = w.fsw.Add(abs)
		}
		if err != nil {
			w.fsw.Close()
			return fmt.Errorf("could not watch %s: %w", abs, err)
		}
	}

	w.mu.Lock()
	w.started = time.Now()
	w.mu.Unlock()
	w.logger.Info("watching", "dirs", w.cfg.Dirs, "recursive", w.cfg.Recursive)

	defer func() {
		w.mu.Lock()
		for path, t := range w.debounce {
			if t.Stop() {
				w.wg.Done()
			}
			delete(w.debounce, path)
		}
		w.mu.Unlock()
		w.wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("stopping watcher")
			return w.fsw.Close()
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != dir {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

// Matches reports whether path is a spreadsheet the watcher ingests.
func (w *Watcher) Matches(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, "~$") || strings.HasPrefix(base, ".~") || strings.HasPrefix(base, ".") {
		return false
	}
	if !spreadsheetExtensions[strings.ToLower(filepath.Ext(base))] {
		return false
	}
	if w.cfg.Pattern != "" {
		if ok, _ := filepath.Match(w.cfg.Pattern, base); !ok {
			return false
		}
	}
	return true
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	path := event.Name
	if w.cfg.Recursive && event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := w.addRecursive(path); err != nil {
				w.logger.Warn("could not watch new directory", "path", path, "error", err)
			}
			return
		}
	}
	if !w.Matches(path) {
		return
	}

	op := "modify"
	if event.Has(fsnotify.Create) {
		op = "create"
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.debounce[path]; ok && t.Stop() {
		w.wg.Done()
	}
	w.wg.Add(1)
	var timer *time.Timer
	timer = time.AfterFunc(w.cfg.Debounce, func() {
		defer w.wg.Done()
		w.forget(path, timer)
		w.process(ctx, path, op)
	})
	w.debounce[path] = timer
}

// forget drops the pending entry for path if it is still t. A newer event
// may have re-armed path while t's callback waited for the lock.
func (w *Watcher) forget(path string, t *time.Timer) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounce[path] == t {
		delete(w.debounce, path)
	}
}

func (w *Watcher) process(ctx context.Context, path, op string) {
	evt := Event{Time: time.Now(), Path: path, Operation: op, Status: "processed"}
	if err := w.handler(ctx, path); err != nil {
		evt.Status = "error"
		evt.Error = err.Error()
		w.logger.Error("could not ingest file", "path", path, "error", err)
	} else {
		w.logger.Info("ingested file", "path", path, "operation", op)
	}

	w.mu.Lock()
	w.events = append(w.events, evt)
	w.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (w *Watcher) Events() []Event {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Event, len(w.events))
	copy(out, w.events)
	return out
}

// Status returns the current watcher status.
func (w *Watcher) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := Status{Directories: w.cfg.Dirs, EventCount: len(w.events), StartedAt: w.started}
	for _, e := range w.events {
		if e.Status == "error" {
			s.Errors++
		}
	}
	return s
}
