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

// Package depgraph implements an incremental module dependency graph, the
// kind a bundler uses to discover and re-discover every module reachable
// from a set of entry points.
package depgraph

// Dependency is a single named edge from a module to the resolved path of
// whatever it imports under that name. The same target may appear under
// two different names; both are kept.
type Dependency struct {
	Name string
	Path string
}

// Module is a single node in the graph: a path, its ordered outbound
// dependency list, the set of paths that currently depend on it, and the
// opaque artifact its transform produced.
type Module struct {
	Path                 string
	Dependencies         []Dependency
	InverseDependencies  map[string]struct{}
	Output               any
}

// NewModule creates an empty module record for path. Dependencies and
// InverseDependencies start empty.
func NewModule(path string) *Module {
	return &Module{
		Path:                path,
		InverseDependencies: make(map[string]struct{}),
	}
}

// SetDependencies replaces the module's dependency list wholesale,
// preserving the order given. It does not touch InverseDependencies on
// either side of any edge; the traversal engine owns that bookkeeping.
func (m *Module) SetDependencies(deps []Dependency) {
	m.Dependencies = deps
}

// AddInverse records that fromPath depends on this module. Idempotent.
func (m *Module) AddInverse(fromPath string) {
	m.InverseDependencies[fromPath] = struct{}{}
}

// RemoveInverse removes fromPath from this module's inverse set. It
// reports true if the set is now empty, which the traversal engine treats
// as the signal that this module has become eligible for garbage
// collection (unless it is an entry point).
func (m *Module) RemoveInverse(fromPath string) (nowEmpty bool) {
	delete(m.InverseDependencies, fromPath)
	return len(m.InverseDependencies) == 0
}

// HasDependency reports whether (name, path) is present in the module's
// dependency list, used by the traversal engine to diff old and new
// dependency lists by edge identity rather than by target path alone.
func (m *Module) HasDependency(dep Dependency) bool {
	for _, d := range m.Dependencies {
		if d == dep {
			return true
		}
	}
	return false
}
