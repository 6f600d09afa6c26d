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

// ReorderGraph rewrites graph's insertion order to the depth-first
// pre-order visitation starting at EntryPoints, in entry-point order,
// visiting each record's Dependencies in their stored order and skipping
// records already visited. Records unreachable from any entry point are
// dropped from the rewritten order (they violate invariant I3 if present,
// but the operation tolerates and prunes them rather than asserting).
//
// Idempotent: reordering an already-canonical graph leaves it unchanged.
func ReorderGraph(g *Graph) {
	g.setOrder(dfsPreOrder(g, g.EntryPoints))
}

// dfsPreOrder walks g starting at roots, in root order, following each
// module's Dependencies in stored order, and returns the paths visited in
// pre-order. Paths named in roots or reachable from them that have no
// module record are silently skipped.
func dfsPreOrder(g *Graph, roots []string) []string {
	visited := make(map[string]struct{}, g.Len())
	order := make([]string, 0, g.Len())

	var visit func(path string)
	visit = func(path string) {
		if _, seen := visited[path]; seen {
			return
		}
		mod, ok := g.Get(path)
		if !ok {
			return
		}
		visited[path] = struct{}{}
		order = append(order, path)
		for _, dep := range mod.Dependencies {
			visit(dep.Path)
		}
	}

	for _, root := range roots {
		visit(root)
	}

	return order
}
