/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

package depgraph

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchDebounce is the default quiet period after the last filesystem
// event before a batch of dirty paths is handed to TraverseDependencies.
const WatchDebounce = 100 * time.Millisecond

// Watcher re-traverses graph whenever a module currently in it changes on
// disk. It watches the directory containing every module path present at
// the time Watch is called (and re-watches new directories as modules are
// discovered), debouncing bursts of filesystem events into a single
// dirty-path batch per TraverseDependencies call.
type Watcher struct {
	graph    *Graph
	options  *Options
	fsnotify *fsnotify.Watcher
	watched  map[string]struct{}
}

// NewWatcher creates a Watcher over graph. Call Watch to start it; it
// does not watch anything until then.
func NewWatcher(graph *Graph, options *Options) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating filesystem watcher: %w", err)
	}
	return &Watcher{
		graph:    graph,
		options:  options,
		fsnotify: fw,
		watched:  make(map[string]struct{}),
	}, nil
}

// Close stops the underlying filesystem watcher.
func (w *Watcher) Close() error {
	return w.fsnotify.Close()
}

// addDirs registers a watch on the directory containing every path in
// the graph that isn't already watched.
func (w *Watcher) addDirs() error {
	for _, p := range w.graph.Paths() {
		dir := filepath.Dir(p)
		if _, ok := w.watched[dir]; ok {
			continue
		}
		if err := w.fsnotify.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
		w.watched[dir] = struct{}{}
	}
	return nil
}

// Watch blocks, debouncing filesystem events into batches and calling
// onResult after each re-traversal, until ctx is cancelled. A
// re-traversal error is passed to onResult and watching continues — a
// subsequent save that fixes the problem should still be observed.
func (w *Watcher) Watch(ctx context.Context, onResult func(*TraversalResult, error)) error {
	if err := w.addDirs(); err != nil {
		return err
	}

	dirty := make(map[string]struct{})
	var timer *time.Timer
	timerC := make(<-chan time.Time)

	flush := func() {
		if len(dirty) == 0 {
			return
		}
		paths := make([]string, 0, len(dirty))
		for p := range dirty {
			paths = append(paths, p)
		}
		dirty = make(map[string]struct{})

		result, err := TraverseDependencies(ctx, paths, w.graph, w.options)
		onResult(result, err)
		if err == nil {
			_ = w.addDirs() // pick up directories of any newly discovered modules
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsnotify.Events:
			if !ok {
				return nil
			}
			if _, tracked := w.graph.Get(event.Name); !tracked {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			dirty[event.Name] = struct{}{}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(WatchDebounce)
			timerC = timer.C

		case err, ok := <-w.fsnotify.Errors:
			if !ok {
				return nil
			}
			onResult(nil, fmt.Errorf("filesystem watch: %w", err))

		case <-timerC:
			timerC = make(<-chan time.Time)
			flush()
		}
	}
}
