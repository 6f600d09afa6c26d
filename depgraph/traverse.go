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
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// TraversalResult is the shape returned by InitialTraverseDependencies and
// TraverseDependencies: everything added (created or re-transformed) and
// everything deleted (released because its last referrer went away)
// during one call. Added and Deleted never share a path.
type TraversalResult struct {
	Added   []*Module
	Deleted []string
}

// nodeResult is what the shallow resolver adaptor produced for one path
// during a traversal, kept around until the mutation phase applies it.
type nodeResult struct {
	deps   []Dependency
	output any
}

// session carries the mutable state of a single traversal call. A new
// session is created per call; nothing survives across calls except the
// graph itself.
type session struct {
	ctx     context.Context
	graph   *Graph
	shallow *shallowResolver
	options *Options

	preExisting map[string]struct{} // paths already in the graph before this call
	dirty       map[string]struct{} // caller-supplied dirty/root paths

	mu      sync.Mutex
	visited map[string]struct{} // paths whose resolve has been launched this call
	results map[string]nodeResult

	discoveredCount int
	finishedCount   int
}

func newSession(ctx context.Context, graph *Graph, options *Options, dirty []string) *session {
	preExisting := make(map[string]struct{}, graph.Len())
	for _, p := range graph.Paths() {
		preExisting[p] = struct{}{}
	}
	dirtySet := make(map[string]struct{}, len(dirty))
	for _, p := range dirty {
		dirtySet[p] = struct{}{}
	}
	return &session{
		ctx:         ctx,
		graph:       graph,
		shallow:     newShallowResolver(options),
		options:     options,
		preExisting: preExisting,
		dirty:       dirtySet,
		visited:     make(map[string]struct{}),
		results:     make(map[string]nodeResult),
	}
}

// emitDiscovered and emitFinished are called only from emitProgress's
// single-threaded replay (never from expand's goroutines), so neither
// needs its own locking.

func (s *session) emitDiscovered() {
	s.discoveredCount++
	if s.options.OnProgress != nil {
		s.options.OnProgress(s.finishedCount, s.discoveredCount)
	}
}

func (s *session) emitFinished() {
	s.finishedCount++
	if s.options.OnProgress != nil {
		s.options.OnProgress(s.finishedCount, s.discoveredCount)
	}
}

// emitProgress replays discovery/finish events for this call in the same
// order expand's recursion explores the (now fully resolved) tree, so the
// OnProgress call sequence is a pure function of graph structure — same as
// added and post-reorderGraph key order — rather than of the real
// completion order run's concurrent C3 calls happened to finish in. This
// runs once, after run() has settled every result this call touches.
func (s *session) emitProgress(roots []string) {
	visited := make(map[string]struct{})

	var walk func(path string)
	walk = func(path string) {
		if _, seen := visited[path]; seen {
			return
		}
		res, touched := s.results[path]
		if !touched {
			return
		}
		visited[path] = struct{}{}

		s.emitDiscovered()
		s.emitFinished()

		for _, dep := range res.deps {
			if s.isKnownStable(dep.Path) {
				continue
			}
			walk(dep.Path)
		}
	}

	for _, root := range roots {
		walk(root)
	}
}

// isKnownStable reports whether path is already in the graph from a prior
// traversal and is not part of this call's dirty set — i.e. its
// dependency list is assumed unchanged and it must not be re-transformed.
func (s *session) isKnownStable(path string) bool {
	_, existed := s.preExisting[path]
	_, isDirty := s.dirty[path]
	return existed && !isDirty
}

// expand launches the shallow resolution of path, if it hasn't already
// been launched this call, and recursively expands any of its
// dependencies that are newly discovered or themselves dirty. This is the
// concurrency phase only: it gathers results into s.results for
// emitProgress and apply to replay deterministically afterward, and
// itself emits nothing observable.
func (s *session) expand(eg *errgroup.Group, path string) {
	s.mu.Lock()
	if _, seen := s.visited[path]; seen {
		s.mu.Unlock()
		return
	}
	s.visited[path] = struct{}{}
	s.mu.Unlock()

	eg.Go(func() error {
		deps, output, err := s.shallow.resolve(s.ctx, path)
		if err != nil {
			return err
		}

		s.mu.Lock()
		s.results[path] = nodeResult{deps: deps, output: output}
		s.mu.Unlock()

		for _, dep := range deps {
			if s.isKnownStable(dep.Path) {
				continue
			}
			s.expand(eg, dep.Path)
		}
		return nil
	})
}

// run drives concurrent shallow resolution from roots to quiescence. Every
// C3 call this traversal needs is in flight behind the returned error;
// no graph mutation happens until run returns successfully. On success it
// replays discovery/finish progress in canonical order (see emitProgress)
// before the caller proceeds to apply.
func (s *session) run(roots []string) error {
	eg, ctx := errgroup.WithContext(s.ctx)
	s.ctx = ctx
	for _, root := range roots {
		s.expand(eg, root)
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	s.emitProgress(roots)
	return nil
}

// apply commits every result gathered during run to the graph: it creates
// records for newly discovered paths, diffs dirty paths' old and new
// dependency lists, wires/unwires inverse edges, and recursively releases
// anything whose inverse set drops to empty. It returns the traversal
// result with Added and Deleted in the documented order.
func (s *session) apply(processedRoots []string) (*TraversalResult, error) {
	paths := make([]string, 0, len(s.results))
	for p := range s.results {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	// Pass 1: every touched path gets a record before any edge is wired,
	// so toAdd linking never races ahead of its target's existence.
	for _, p := range paths {
		if _, exists := s.graph.Get(p); !exists {
			s.graph.Set(p, NewModule(p))
		}
	}

	newlyDiscovered := make(map[string]struct{})
	for _, p := range paths {
		if _, existed := s.preExisting[p]; !existed {
			newlyDiscovered[p] = struct{}{}
		}
	}

	deleted := make(map[string]struct{})

	// Pass 2: diff each touched path's old dependency list (captured
	// before any mutation) against its freshly reported one. The add,
	// remove, and commit steps each run as their own sweep across every
	// touched path — not interleaved path-by-path — so that a sibling's
	// fresh reference to a shared child (the rename scenario) is
	// wired before any path's removal pass can see that child's inverse
	// set drop to empty and release it out from under the sibling.
	diffs := make([]pathDiff, 0, len(paths))
	for _, p := range paths {
		old := []Dependency(nil)
		if m, exists := s.graph.Get(p); exists {
			old = append(old, m.Dependencies...)
		}
		diffs = append(diffs, newPathDiff(p, old, s.results[p]))
	}

	if err := s.wireAdded(diffs); err != nil {
		return nil, err
	}
	s.releaseRemoved(diffs, deleted, newlyDiscovered)
	if err := s.commitDependencies(diffs); err != nil {
		return nil, err
	}

	added := s.orderAdded(processedRoots, newlyDiscovered, deleted)

	addedModules := make([]*Module, 0, len(added))
	for _, p := range added {
		if m, ok := s.graph.Get(p); ok {
			addedModules = append(addedModules, m)
		}
	}

	deletedPaths := make([]string, 0, len(deleted))
	for p := range deleted {
		deletedPaths = append(deletedPaths, p)
	}
	sort.Strings(deletedPaths)

	return &TraversalResult{Added: addedModules, Deleted: deletedPaths}, nil
}

// pathDiff is one touched path's dependency list transition: the edges it
// gained and lost between the record's prior state and its freshly
// reported one, per the edge-identity rule (matched by the full
// (name, path) pair, not path alone).
type pathDiff struct {
	path     string
	res      nodeResult
	toAdd    []Dependency
	toRemove []Dependency
}

func newPathDiff(path string, old []Dependency, res nodeResult) pathDiff {
	oldSet := dependencySet(old)
	newSet := dependencySet(res.deps)

	var toAdd, toRemove []Dependency
	for _, dep := range res.deps {
		if _, existed := oldSet[dep]; !existed {
			toAdd = append(toAdd, dep)
		}
	}
	for _, dep := range old {
		if _, still := newSet[dep]; !still {
			toRemove = append(toRemove, dep)
		}
	}

	return pathDiff{path: path, res: res, toAdd: toAdd, toRemove: toRemove}
}

// wireAdded wires every gained edge across the whole batch. It runs to
// completion before releaseRemoved touches a single inverse set, so a
// same-batch sibling's new reference to a shared child is always visible
// before that child's old owner's removal can drop it to zero.
func (s *session) wireAdded(diffs []pathDiff) error {
	for _, d := range diffs {
		for _, dep := range d.toAdd {
			target, ok := s.graph.Get(dep.Path)
			if !ok {
				return fmt.Errorf("%w: %s has no record for new edge %q -> %s", ErrReferentialViolation, d.path, dep.Name, dep.Path)
			}
			target.AddInverse(d.path)
		}
	}
	return nil
}

// releaseRemoved unwires every lost edge across the batch, releasing
// anything whose inverse set drops to empty. A lost edge whose target is
// still reached from the same path under another name keeps its inverse.
func (s *session) releaseRemoved(diffs []pathDiff, deleted, newlyDiscovered map[string]struct{}) {
	for _, d := range diffs {
		for _, dep := range d.toRemove {
			kept := false
			for _, nd := range d.res.deps {
				if nd.Path == dep.Path {
					kept = true
					break
				}
			}
			if kept {
				continue
			}
			target, ok := s.graph.Get(dep.Path)
			if !ok {
				continue // already released via another edge in this batch
			}
			if nowEmpty := target.RemoveInverse(d.path); nowEmpty && !s.graph.IsEntryPoint(dep.Path) {
				s.release(dep.Path, deleted, newlyDiscovered)
			}
		}
	}
}

// commitDependencies replaces each touched path's dependency list and
// output with its freshly reported one, once every edge in the batch has
// been wired and unwired.
func (s *session) commitDependencies(diffs []pathDiff) error {
	for _, d := range diffs {
		m, ok := s.graph.Get(d.path)
		if !ok {
			return fmt.Errorf("%w: %s has no record to receive its new dependency list", ErrReferentialViolation, d.path)
		}
		m.SetDependencies(d.res.deps)
		m.Output = d.res.output
	}
	return nil
}

// release recursively tears down path and any child whose only remaining
// referrer was path. It is eager: a cycle among to-be-released
// nodes collapses entirely once its last external referrer is gone.
func (s *session) release(path string, deleted, newlyDiscovered map[string]struct{}) {
	m, ok := s.graph.Get(path)
	if !ok {
		return
	}
	for _, dep := range m.Dependencies {
		target, ok := s.graph.Get(dep.Path)
		if !ok {
			continue
		}
		if nowEmpty := target.RemoveInverse(path); nowEmpty && !s.graph.IsEntryPoint(dep.Path) {
			s.release(dep.Path, deleted, newlyDiscovered)
		}
	}
	s.graph.Delete(path)
	deleted[path] = struct{}{}
	delete(newlyDiscovered, path)
}

// orderAdded computes Added in the required order: every newly
// discovered module first, in discovery (pre-order) order, then every
// re-transformed pre-existing module in the caller's dirty-set order.
// Anything released during this call is excluded from both halves.
func (s *session) orderAdded(processedRoots []string, newlyDiscovered, deleted map[string]struct{}) []string {
	var discoveryOrder []string
	visited := make(map[string]struct{})

	var walk func(path string)
	walk = func(path string) {
		if _, seen := visited[path]; seen {
			return
		}
		visited[path] = struct{}{}
		mod, ok := s.graph.Get(path)
		if !ok {
			return
		}
		for _, dep := range mod.Dependencies {
			if _, touched := s.results[dep.Path]; !touched {
				continue // untouched stable module, no new descendants possible
			}
			if _, isNew := newlyDiscovered[dep.Path]; isNew {
				if _, seen := visited[dep.Path]; !seen {
					if _, wasDeleted := deleted[dep.Path]; !wasDeleted {
						discoveryOrder = append(discoveryOrder, dep.Path)
					}
				}
			}
			walk(dep.Path)
		}
	}

	for _, root := range processedRoots {
		if _, isNew := newlyDiscovered[root]; isNew {
			if _, seen := visited[root]; !seen {
				if _, wasDeleted := deleted[root]; !wasDeleted {
					discoveryOrder = append(discoveryOrder, root)
				}
			}
		}
		walk(root)
	}

	s.graph.reinsertNewInOrder(discoveryOrder)

	var retransformed []string
	for _, root := range processedRoots {
		if _, isNew := newlyDiscovered[root]; isNew {
			continue
		}
		if _, wasDeleted := deleted[root]; wasDeleted {
			continue
		}
		retransformed = append(retransformed, root)
	}

	return append(discoveryOrder, retransformed...)
}

func dependencySet(deps []Dependency) map[Dependency]struct{} {
	set := make(map[Dependency]struct{}, len(deps))
	for _, d := range deps {
		set[d] = struct{}{}
	}
	return set
}

// InitialTraverseDependencies performs the first traversal of graph,
// which must have an empty store and at least one entry point. Discovery
// starts at each entry point in order. On success Deleted is always
// empty and Added contains every module now in the graph, in discovery
// (depth-first pre-order) order. On failure the graph is left untouched.
func InitialTraverseDependencies(ctx context.Context, graph *Graph, options *Options) (*TraversalResult, error) {
	if graph.Len() != 0 {
		return nil, fmt.Errorf("%w: initial traversal requires an empty graph", ErrReferentialViolation)
	}
	if len(graph.EntryPoints) == 0 {
		return nil, fmt.Errorf("%w: initial traversal requires at least one entry point", ErrReferentialViolation)
	}

	s := newSession(ctx, graph, options, graph.EntryPoints)
	if err := s.run(graph.EntryPoints); err != nil {
		return nil, err
	}
	return s.apply(graph.EntryPoints)
}

// TraverseDependencies re-transforms every path in dirtyPaths that is
// either already present in graph or is one of its entry points,
// recursively expanding newly discovered dependencies and releasing
// anything orphaned by the change. Paths in dirtyPaths that
// are neither present nor entry points are silently skipped as stale
// notifications. On failure the graph is left untouched and a later call
// with the same dirtyPaths must reproduce the same failure.
func TraverseDependencies(ctx context.Context, dirtyPaths []string, graph *Graph, options *Options) (*TraversalResult, error) {
	processedRoots := make([]string, 0, len(dirtyPaths))
	for _, p := range dirtyPaths {
		if _, exists := graph.Get(p); exists || graph.IsEntryPoint(p) {
			processedRoots = append(processedRoots, p)
		}
	}
	if len(processedRoots) == 0 {
		return &TraversalResult{}, nil
	}

	s := newSession(ctx, graph, options, processedRoots)
	if err := s.run(processedRoots); err != nil {
		return nil, err
	}
	return s.apply(processedRoots)
}
