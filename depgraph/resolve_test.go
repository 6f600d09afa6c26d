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
	"context"
	"testing"

	"github.com/mappa-cli/mappa/depgraph"
	"github.com/mappa-cli/mappa/internal/mapfs"
)

func TestPathResolverRelativeSpecifiers(t *testing.T) {
	mfs := mapfs.New()
	r := depgraph.NewPathResolver(mfs, "/root", "", nil)

	got, err := r.Resolve(context.Background(), "/root/src/a.js", "./b.js")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != "/root/src/b.js" {
		t.Fatalf("Resolve(./b.js) = %q, want /root/src/b.js", got)
	}

	got, err = r.Resolve(context.Background(), "/root/src/a.js", "/lib/c.js")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != "/root/lib/c.js" {
		t.Fatalf("Resolve(/lib/c.js) = %q, want /root/lib/c.js", got)
	}
}

func TestPathResolverBareSpecifierViaMain(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/root/node_modules/left-pad/package.json", `{"name":"left-pad","main":"index.js"}`, 0644)

	r := depgraph.NewPathResolver(mfs, "/root", "/root/node_modules", nil)

	got, err := r.Resolve(context.Background(), "/root/src/a.js", "left-pad")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != "/root/node_modules/left-pad/index.js" {
		t.Fatalf("Resolve(left-pad) = %q, want .../left-pad/index.js", got)
	}

	specs := r.BareSpecifiers()
	if len(specs) != 1 || specs[0] != "left-pad" {
		t.Fatalf("BareSpecifiers() = %v, want [left-pad]", specs)
	}
}

func TestPathResolverBareSpecifierWithoutNodeModulesFails(t *testing.T) {
	mfs := mapfs.New()
	r := depgraph.NewPathResolver(mfs, "/root", "", nil)

	if _, err := r.Resolve(context.Background(), "/root/src/a.js", "left-pad"); err == nil {
		t.Fatalf("expected an error resolving a bare specifier with no node_modules configured")
	}
}

func TestPathResolverScopedPackageSubpath(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/root/node_modules/@scope/pkg/package.json", `{"name":"@scope/pkg","main":"index.js"}`, 0644)
	mfs.AddFile("/root/node_modules/@scope/pkg/util.js", "", 0644)

	r := depgraph.NewPathResolver(mfs, "/root", "/root/node_modules", nil)

	got, err := r.Resolve(context.Background(), "/root/src/a.js", "@scope/pkg/util.js")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != "/root/node_modules/@scope/pkg/util.js" {
		t.Fatalf("Resolve(@scope/pkg/util.js) = %q, want .../util.js", got)
	}
}
