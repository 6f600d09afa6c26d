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

// Graph is the store: a path-to-module mapping plus an ordered list of
// entry points. Iteration over the store follows insertion order, and
// that order is part of the public contract (callers rely on it, and
// ReorderGraph exists specifically to canonicalize it).
//
// A Graph is exclusively owned by the traversal engine during a call to
// InitialTraverseDependencies or TraverseDependencies. Between calls it
// is read-only and may be shared freely.
type Graph struct {
	modules     map[string]*Module
	order       []string
	EntryPoints []string
}

// NewGraph creates an empty graph with the given entry points. Per the
// preconditions of InitialTraverseDependencies, entryPoints must be
// non-empty before that call.
func NewGraph(entryPoints []string) *Graph {
	return &Graph{
		modules:     make(map[string]*Module),
		EntryPoints: append([]string(nil), entryPoints...),
	}
}

// Get returns the module record at path, if any.
func (g *Graph) Get(path string) (*Module, bool) {
	m, ok := g.modules[path]
	return m, ok
}

// Set inserts or replaces the module record at path. A path not
// previously in the store is appended to the end of the insertion order.
func (g *Graph) Set(path string, m *Module) {
	if _, exists := g.modules[path]; !exists {
		g.order = append(g.order, path)
	}
	g.modules[path] = m
}

// Delete removes the module record at path, if present, and drops it
// from the insertion order.
func (g *Graph) Delete(path string) {
	if _, exists := g.modules[path]; !exists {
		return
	}
	delete(g.modules, path)
	for i, p := range g.order {
		if p == path {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of modules currently in the store.
func (g *Graph) Len() int {
	return len(g.modules)
}

// Paths returns the store's paths in insertion order. Callers must treat
// the returned slice as read-only.
func (g *Graph) Paths() []string {
	return g.order
}

// IsEntryPoint reports whether path is one of the graph's entry points.
// Entry-point records carry an implicit synthetic inbound reference and
// are never released by reference counting.
func (g *Graph) IsEntryPoint(path string) bool {
	for _, p := range g.EntryPoints {
		if p == path {
			return true
		}
	}
	return false
}

// reinsertNewInOrder moves the given paths to the end of the store's
// insertion order, in the sequence given, leaving every other path's
// relative order untouched. The traversal engine uses this to splice
// newly discovered modules into the store in their canonical discovery
// order once concurrent resolution has settled.
func (g *Graph) reinsertNewInOrder(newPaths []string) {
	if len(newPaths) == 0 {
		return
	}
	isNew := make(map[string]struct{}, len(newPaths))
	for _, p := range newPaths {
		isNew[p] = struct{}{}
	}
	rest := make([]string, 0, len(g.order))
	for _, p := range g.order {
		if _, ok := isNew[p]; !ok {
			rest = append(rest, p)
		}
	}
	g.order = append(rest, newPaths...)
}

// setOrder replaces the store's insertion order outright, used internally
// by ReorderGraph (the traversal engine splices newly discovered modules
// in through reinsertNewInOrder instead). Every path named
// must already have a module record; paths not named are dropped from the
// iteration order (but not from the underlying map, which callers must
// keep consistent themselves).
func (g *Graph) setOrder(order []string) {
	g.order = order
}
