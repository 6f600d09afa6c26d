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
package depgraph_test

import (
	"reflect"
	"testing"

	"github.com/mappa-cli/mappa/depgraph"
)

func TestGraphSetPreservesInsertionOrder(t *testing.T) {
	g := depgraph.NewGraph([]string{"/a.js"})

	g.Set("/a.js", depgraph.NewModule("/a.js"))
	g.Set("/c.js", depgraph.NewModule("/c.js"))
	g.Set("/b.js", depgraph.NewModule("/b.js"))

	got := g.Paths()
	want := []string{"/a.js", "/c.js", "/b.js"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Paths() = %v, want %v", got, want)
	}
}

func TestGraphSetOnExistingPathDoesNotReorder(t *testing.T) {
	g := depgraph.NewGraph(nil)
	g.Set("/a.js", depgraph.NewModule("/a.js"))
	g.Set("/b.js", depgraph.NewModule("/b.js"))

	updated := depgraph.NewModule("/a.js")
	updated.Output = "new"
	g.Set("/a.js", updated)

	got := g.Paths()
	want := []string{"/a.js", "/b.js"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Paths() = %v, want %v", got, want)
	}

	mod, ok := g.Get("/a.js")
	if !ok || mod.Output != "new" {
		t.Fatalf("expected Set on an existing path to replace the record in place")
	}
}

func TestGraphDeleteRemovesFromOrderAndMap(t *testing.T) {
	g := depgraph.NewGraph(nil)
	g.Set("/a.js", depgraph.NewModule("/a.js"))
	g.Set("/b.js", depgraph.NewModule("/b.js"))
	g.Set("/c.js", depgraph.NewModule("/c.js"))

	g.Delete("/b.js")

	if _, ok := g.Get("/b.js"); ok {
		t.Fatalf("expected /b.js to be gone after Delete")
	}
	want := []string{"/a.js", "/c.js"}
	if got := g.Paths(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Paths() = %v, want %v", got, want)
	}
	if g.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", g.Len())
	}
}

func TestGraphIsEntryPoint(t *testing.T) {
	g := depgraph.NewGraph([]string{"/a.js", "/b.js"})

	if !g.IsEntryPoint("/a.js") {
		t.Fatalf("expected /a.js to be an entry point")
	}
	if g.IsEntryPoint("/c.js") {
		t.Fatalf("did not expect /c.js to be an entry point")
	}
}
