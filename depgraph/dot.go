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
	"fmt"
	"strings"
)

// DOT renders graph as Graphviz dot source, visiting modules in the
// store's current iteration order (call ReorderGraph first for a
// canonical rendering). Entry points are drawn as bold nodes.
func DOT(graph *Graph) string {
	var b strings.Builder
	b.WriteString("digraph dependencies {\n")

	for _, path := range graph.Paths() {
		if graph.IsEntryPoint(path) {
			fmt.Fprintf(&b, "  %q [style=bold];\n", path)
		}
	}

	for _, path := range graph.Paths() {
		mod, ok := graph.Get(path)
		if !ok {
			continue
		}
		for _, dep := range mod.Dependencies {
			fmt.Fprintf(&b, "  %q -> %q [label=%q];\n", path, dep.Path, dep.Name)
		}
	}

	b.WriteString("}\n")
	return b.String()
}
