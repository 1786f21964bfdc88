// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package watch turns fsnotify notifications for a source tree into the
// create and delete events the correlator pairs into moves.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/walteh/incwatch/pkg/state"
	"gitlab.com/tozd/go/errors"
)

// Ignorer decides which paths are never watched or reported
type Ignorer interface {
	Ignored(path string) bool
}

// repairDelay is how long the watcher waits after a watched directory
// disappears before re-adding watches. The kernel drops the moved
// directory's watch after the create for its new path has been reported.
const repairDelay = 50 * time.Millisecond

// 👀 Watcher recursively watches a project root
type Watcher struct {
	root    string
	ignorer Ignorer
	fs      *fsnotify.Watcher
	ready   chan struct{}

	// dirs are the directories watched so far, only touched by Run
	dirs   map[string]bool
	repair <-chan time.Time
}

// New creates a watcher for root. ignorer may be nil.
func New(root string, ignorer Ignorer) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Errorf("resolving root: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Errorf("creating fsnotify watcher: %w", err)
	}

	return &Watcher{
		root:    abs,
		ignorer: ignorer,
		fs:      fsw,
		ready:   make(chan struct{}),
		dirs:    make(map[string]bool),
	}, nil
}

// Ready is closed once the initial watches are in place
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Run watches until ctx is cancelled, passing every create and delete to
// sink. Watch errors are logged and do not end the session.
func (w *Watcher) Run(ctx context.Context, sink func(state.MoveEvent)) error {
	logger := zerolog.Ctx(ctx)
	defer w.fs.Close()

	count, err := w.addTree(ctx, w.root)
	if err != nil {
		return errors.Errorf("watching %s: %w", w.root, err)
	}
	close(w.ready)
	logger.Debug().Str("root", w.root).Int("directories", count).Msg("watching")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.fs.Events:
			if !ok {
				return errors.Errorf("fsnotify event channel closed")
			}
			w.handle(ctx, ev, sink)

		case <-w.repair:
			w.repair = nil
			w.repairWatches(ctx)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return errors.Errorf("fsnotify error channel closed")
			}
			logger.Warn().Err(err).Msg("watch error")
		}
	}
}

func (w *Watcher) handle(ctx context.Context, ev fsnotify.Event, sink func(state.MoveEvent)) {
	if w.ignored(ev.Name) {
		return
	}

	mev, ok := translate(ev, time.Now())
	if !ok {
		return
	}

	switch mev.Kind {
	case state.EventCreated:
		// a moved-in or new directory needs its own watches
		if _, err := w.addTree(ctx, mev.Path); err != nil {
			zerolog.Ctx(ctx).Debug().Err(err).Str("path", mev.Path).Msg("not watching new path")
		}
	case state.EventDeleted:
		if w.forget(mev.Path) {
			w.repair = time.After(repairDelay)
			// the moved directory's own watch reports its move under the
			// path it was re-added as, which still exists
			if info, err := os.Stat(mev.Path); err == nil && info.IsDir() {
				zerolog.Ctx(ctx).Debug().Str("path", mev.Path).Msg("ignoring move of directory watch")
				return
			}
		}
	}

	sink(mev)
}

// translate maps an fsnotify event to a move event. Writes and mode
// changes carry no move information.
func translate(ev fsnotify.Event, at time.Time) (state.MoveEvent, bool) {
	switch {
	case ev.Has(fsnotify.Create):
		return state.MoveEvent{Kind: state.EventCreated, Path: filepath.Clean(ev.Name), ObservedAt: at}, true
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		return state.MoveEvent{Kind: state.EventDeleted, Path: filepath.Clean(ev.Name), ObservedAt: at}, true
	default:
		return state.MoveEvent{}, false
	}
}

// addTree watches dir and every directory below it that is not ignored.
// Calling it on a file is a no-op.
func (w *Watcher) addTree(ctx context.Context, dir string) (int, error) {
	logger := zerolog.Ctx(ctx)
	count := 0

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			logger.Debug().Err(err).Str("path", path).Msg("skipping unreadable path")
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && w.ignored(path) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			logger.Debug().Err(err).Str("path", path).Msg("failed to add directory to watch")
			return nil
		}
		w.dirs[path] = true
		count++
		return nil
	})

	return count, err
}

// forget drops path and everything below it from the watched set and
// reports whether path was a watched directory
func (w *Watcher) forget(path string) bool {
	if !w.dirs[path] {
		return false
	}
	prefix := path + string(filepath.Separator)
	for dir := range w.dirs {
		if dir == path || strings.HasPrefix(dir, prefix) {
			delete(w.dirs, dir)
		}
	}
	return true
}

// repairWatches walks the root again and watches every directory fsnotify
// no longer does. A moved directory keeps its inode, so its watch can be
// dropped even though it was re-added under the new path.
func (w *Watcher) repairWatches(ctx context.Context) {
	watched := make(map[string]bool)
	for _, path := range w.fs.WatchList() {
		watched[filepath.Clean(path)] = true
	}

	w.dirs = make(map[string]bool)
	for path := range watched {
		w.dirs[path] = true
	}

	added := 0
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != w.root && w.ignored(path) {
			return filepath.SkipDir
		}
		if watched[path] {
			return nil
		}
		if err := w.fs.Add(path); err != nil {
			zerolog.Ctx(ctx).Debug().Err(err).Str("path", path).Msg("failed to re-add directory to watch")
			return nil
		}
		w.dirs[path] = true
		added++
		return nil
	})
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("repairing watches")
		return
	}

	zerolog.Ctx(ctx).Debug().Int("added", added).Int("watched", len(w.dirs)).Msg("repaired watches")
}

func (w *Watcher) ignored(path string) bool {
	return w.ignorer != nil && w.ignorer.Ignored(path)
}
