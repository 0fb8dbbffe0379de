// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package watch re-runs work whenever a single file changes on disk.
//
// The watch is placed on the file's parent directory rather than the
// file itself: most editors save by writing a temporary file and
// renaming it over the original, which detaches a watch held on the
// old inode. Events for other names in the directory are filtered out.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits after the last event
// before invoking the handler. Editor saves arrive as short bursts of
// create/write/chmod events; one window covers the whole burst.
const DefaultDebounce = 250 * time.Millisecond

// Handler is invoked after a debounced burst of changes to the watched
// file. It runs on the watcher's own goroutine, so invocations never
// overlap; a change arriving while the handler runs schedules another
// invocation after it returns.
type Handler func(ctx context.Context)

// Options configures a Watcher.
type Options struct {
	// Debounce is the quiet period required before the handler fires.
	// Default: DefaultDebounce.
	Debounce time.Duration

	// Logger receives watcher progress and errors.
	// Default: slog.Default().
	Logger *slog.Logger
}

// Watcher debounces change events for one file into handler calls.
//
// Thread Safety: safe for concurrent use. The handler is called from a
// single goroutine.
type Watcher struct {
	path     string
	dir      string
	base     string
	fsw      *fsnotify.Watcher
	handler  Handler
	debounce time.Duration
	logger   *slog.Logger

	triggers chan fsnotify.Op
	done     chan struct{}
	stopOnce sync.Once

	mu      sync.RWMutex
	running bool
}

// New creates a watcher for the file at path.
//
// Inputs:
//
//	path - The file to watch. Resolved to an absolute path.
//	handler - Called after each debounced burst. Must not be nil.
//	opts - Optional configuration (nil uses defaults).
func New(path string, handler Handler, opts *Options) (*Watcher, error) {
	if handler == nil {
		return nil, errors.New("watch: handler must not be nil")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve %s: %w", path, err)
	}

	if opts == nil {
		opts = &Options{}
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}

	return &Watcher{
		path:     abs,
		dir:      filepath.Dir(abs),
		base:     filepath.Base(abs),
		fsw:      fsw,
		handler:  handler,
		debounce: debounce,
		logger:   logger,
		triggers: make(chan fsnotify.Op, 64),
		done:     make(chan struct{}),
	}, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string { return w.path }

// Start begins watching. The file must exist. Watching continues until
// Stop is called or ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if _, err := os.Stat(w.path); err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	if err := w.fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch: %s: %w", w.dir, err)
	}

	go w.processEvents(ctx)
	go w.debounceLoop(ctx)

	w.logger.Info("watch: started",
		slog.String("path", w.path),
		slog.Duration("debounce", w.debounce),
	)
	return nil
}

// Stop stops the watcher. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		_ = w.fsw.Close()

		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	})
}

// IsRunning reports whether the watcher is active.
func (w *Watcher) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// processEvents filters directory events down to the watched file and
// forwards them to the debouncer.
func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != w.base {
				continue
			}
			// Chmod alone carries no content change.
			if event.Op == fsnotify.Chmod {
				continue
			}
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				// Editors often replace the file in two steps; the
				// rewrite lands as a create right after. If it never
				// comes back the handler will see the missing file.
				w.logger.Debug("watch: file moved or removed",
					slog.String("path", w.path))
			}

			select {
			case w.triggers <- event.Op:
			default:
				// The debouncer collapses bursts anyway; a full
				// buffer loses nothing.
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("watch: watcher error", slog.String("error", err.Error()))
		}
	}
}

// debounceLoop collapses trigger bursts and invokes the handler once
// per quiet period. Pending triggers are dropped on shutdown; a re-run
// provoked by exiting would be unwanted work.
func (w *Watcher) debounceLoop(ctx context.Context) {
	var pending int
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case <-w.triggers:
			pending++
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-timerC:
			w.logger.Info("watch: change detected",
				slog.String("path", w.path),
				slog.Int("events", pending),
			)
			pending = 0
			timer = nil
			timerC = nil
			w.handler(ctx)
		}
	}
}
