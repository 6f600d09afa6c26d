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
	"sort"
	"strings"
	"sync"

	"github.com/mappa-cli/mappa/fs"
	"github.com/mappa-cli/mappa/packagejson"
)

// PathResolver is the resolve collaborator: it maps a dependency name,
// written in fromPath, to a canonical target path. Relative and
// web-absolute specifiers resolve by plain path joining, the same rule
// trace.Tracer.resolvePath applies. Bare specifiers resolve against
// node_modules via package.json exports/main, the same rule
// trace.Tracer.resolveBareSpecifier applies, and are additionally
// recorded so the caller can later feed them to an import-map resolver.
type PathResolver struct {
	fs              fs.FileSystem
	rootDir         string
	nodeModulesPath string
	pkgCache        packagejson.Cache

	mu             sync.Mutex
	bareSpecifiers map[string]struct{}
}

// NewPathResolver creates a PathResolver rooted at rootDir, resolving
// bare specifiers against nodeModulesPath. An empty nodeModulesPath
// disables bare specifier resolution entirely (such imports fail to
// resolve with an error; trace.Tracer without WithNodeModules instead
// records them without following them).
func NewPathResolver(fsys fs.FileSystem, rootDir, nodeModulesPath string, pkgCache packagejson.Cache) *PathResolver {
	return &PathResolver{
		fs:              fsys,
		rootDir:         rootDir,
		nodeModulesPath: nodeModulesPath,
		pkgCache:        pkgCache,
		bareSpecifiers:  make(map[string]struct{}),
	}
}

// Resolve implements the Options.Resolve collaborator hook.
func (r *PathResolver) Resolve(_ context.Context, fromPath, name string) (string, error) {
	if !isBareSpecifier(name) {
		return resolveRelativePath(r.rootDir, filepath.Dir(fromPath), name), nil
	}

	r.mu.Lock()
	r.bareSpecifiers[name] = struct{}{}
	r.mu.Unlock()

	if r.nodeModulesPath == "" {
		return "", fmt.Errorf("bare specifier %q: no node_modules configured", name)
	}

	pkgName, subpath := splitBareSpecifier(name)
	pkgPath := filepath.Join(r.nodeModulesPath, pkgName)
	pkgJSONPath := filepath.Join(pkgPath, "package.json")

	pkg, err := r.parsePackageJSON(pkgJSONPath)
	if err != nil {
		return "", fmt.Errorf("bare specifier %q: %w", name, err)
	}

	return resolvePackageSubpath(pkg, pkgPath, subpath)
}

func (r *PathResolver) parsePackageJSON(pkgJSONPath string) (*packagejson.PackageJSON, error) {
	if r.pkgCache == nil {
		return packagejson.ParseFile(r.fs, pkgJSONPath)
	}
	return r.pkgCache.GetOrLoad(pkgJSONPath, func() (*packagejson.PackageJSON, error) {
		return packagejson.ParseFile(r.fs, pkgJSONPath)
	})
}

// BareSpecifiers returns every bare specifier this resolver has been
// asked to resolve so far, including ones that failed to resolve, sorted. Feed it to an import-map resolver (e.g.
// resolve/local.Resolver.ResolveSpecifiers) to produce the import map a
// traversed entry point needs at runtime.
func (r *PathResolver) BareSpecifiers() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	specs := make([]string, 0, len(r.bareSpecifiers))
	for s := range r.bareSpecifiers {
		specs = append(specs, s)
	}
	sort.Strings(specs)
	return specs
}

// resolveRelativePath mirrors trace.Tracer.resolvePath: "./foo" and
// "../foo" resolve against baseDir, "/foo" resolves against rootDir.
func resolveRelativePath(rootDir, baseDir, specifier string) string {
	if strings.HasPrefix(specifier, "/") {
		return filepath.Join(rootDir, specifier)
	}
	return filepath.Join(baseDir, specifier)
}

// isBareSpecifier mirrors trace.isBareSpecifier.
func isBareSpecifier(specifier string) bool {
	if specifier == "" {
		return false
	}
	if strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../") {
		return false
	}
	if strings.HasPrefix(specifier, "/") {
		return false
	}
	if strings.Contains(specifier, "://") {
		return false
	}
	return true
}

// splitBareSpecifier separates a bare specifier into its package name
// (handling scoped packages) and subpath, mirroring
// trace.Tracer.resolveBareSpecifier's own split.
func splitBareSpecifier(specifier string) (pkgName, subpath string) {
	pkgName = packageName(specifier)
	rest := strings.TrimPrefix(specifier, pkgName)
	if rest == "" {
		return pkgName, "."
	}
	return pkgName, "." + rest
}

func packageName(specifier string) string {
	if strings.HasPrefix(specifier, "@") {
		parts := strings.SplitN(specifier, "/", 3)
		if len(parts) >= 2 {
			return parts[0] + "/" + parts[1]
		}
		return specifier
	}
	parts := strings.SplitN(specifier, "/", 2)
	return parts[0]
}

// resolvePackageSubpath mirrors trace.resolvePackageSubpath: resolve
// through package.json exports first, falling back to main/index.js only
// when the package declares no exports map at all.
func resolvePackageSubpath(pkg *packagejson.PackageJSON, pkgPath, subpath string) (string, error) {
	resolved, err := pkg.ResolveExport(subpath, nil)
	if err == nil {
		return filepath.Join(pkgPath, resolved), nil
	}

	if pkg.Exports != nil {
		return "", err
	}

	if subpath == "." {
		if pkg.Main != "" {
			return filepath.Join(pkgPath, strings.TrimPrefix(pkg.Main, "./")), nil
		}
		return filepath.Join(pkgPath, "index.js"), nil
	}

	return filepath.Join(pkgPath, strings.TrimPrefix(subpath, "./")), nil
}
