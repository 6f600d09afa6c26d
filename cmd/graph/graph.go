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

// Package graph provides the graph command for mappa: building and
// watching the incremental module dependency graph rooted at a set of
// entry points.
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	mappacdn "github.com/mappa-cli/mappa/cdn"
	"github.com/mappa-cli/mappa/depgraph"
	"github.com/mappa-cli/mappa/fs"
	"github.com/mappa-cli/mappa/importmap"
	"github.com/mappa-cli/mappa/packagejson"
	"github.com/mappa-cli/mappa/resolve"
	cdnresolve "github.com/mappa-cli/mappa/resolve/cdn"
	"github.com/mappa-cli/mappa/resolve/local"
)

// Cmd is the graph cobra command: it traces every module reachable from a
// set of entry points, via the same tree-sitter parsing trace uses, and
// reports the resulting dependency graph.
var Cmd = &cobra.Command{
	Use:   "graph <entry...>",
	Short: "Build the incremental module dependency graph from entry points",
	Long: `Build the module dependency graph reachable from one or more entry
points, using the same import extraction trace uses. Entry arguments may
be glob patterns.`,
	Example: `  # Graph a single entry point
  mappa graph src/index.ts

  # Graph everything a glob matches
  mappa graph 'src/**/*.ts'

  # Render as Graphviz dot, in canonical depth-first order
  mappa graph src/index.ts --reorder --format dot

  # Bridge discovered bare specifiers into an import map
  mappa graph src/index.ts --import-map`,
	RunE: run,
}

var watchCmd = &cobra.Command{
	Use:   "watch <entry...>",
	Short: "Build the graph, then re-traverse on every change",
	RunE:  runWatch,
}

func init() {
	Cmd.Flags().String("format", "summary", "Output format (summary, json, dot)")
	Cmd.Flags().Bool("reorder", false, "Canonicalize graph order via a depth-first pass before output")
	Cmd.Flags().Bool("import-map", false, "Emit an import map covering bare specifiers discovered during traversal")
	Cmd.Flags().Bool("cdn", false, "Build the bridged import map from package.json dependencies resolved against a CDN, instead of from discovered bare specifiers resolved against node_modules")
	Cmd.AddCommand(watchCmd)
}

func expandEntries(args []string) ([]string, error) {
	seen := make(map[string]struct{})
	var entries []string
	for _, arg := range args {
		matches, err := doublestar.FilepathGlob(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid entry pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			matches = []string{arg}
		}
		for _, m := range matches {
			abs, err := filepath.Abs(m)
			if err != nil {
				return nil, fmt.Errorf("invalid entry path %q: %w", m, err)
			}
			if _, ok := seen[abs]; ok {
				continue
			}
			seen[abs] = struct{}{}
			entries = append(entries, abs)
		}
	}
	sort.Strings(entries)
	return entries, nil
}

// buildOptions assembles the depgraph.Options collaborators for a run
// rooted at absRoot, using osfs for both the transform and the local
// bare-specifier resolve collaborator.
func buildOptions(osfs fs.FileSystem, absRoot string, pkgCache packagejson.Cache) (*depgraph.Options, *depgraph.PathResolver) {
	workspaceRoot := resolve.FindWorkspaceRoot(osfs, absRoot)
	nodeModules := filepath.Join(workspaceRoot, "node_modules")

	pathResolver := depgraph.NewPathResolver(osfs, absRoot, nodeModules, pkgCache)
	transform := depgraph.TreeSitterTransform(osfs)

	return &depgraph.Options{
		Resolve:   pathResolver.Resolve,
		Transform: transform,
	}, pathResolver
}

func run(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("graph requires at least one entry point")
	}

	osfs := fs.NewOSFileSystem()
	entries, err := expandEntries(args)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("no entry points matched")
	}

	absRoot, err := filepath.Abs(viper.GetString("package"))
	if err != nil {
		return fmt.Errorf("invalid package directory: %w", err)
	}

	pkgCache := packagejson.NewMemoryCache()
	opts, pathResolver := buildOptions(osfs, absRoot, pkgCache)

	g := depgraph.NewGraph(entries)

	ctx := context.Background()
	result, err := depgraph.InitialTraverseDependencies(ctx, g, opts)
	if err != nil {
		return fmt.Errorf("traversing dependencies: %w", err)
	}

	reorder, _ := cmd.Flags().GetBool("reorder")
	if reorder {
		depgraph.ReorderGraph(g)
	}

	format, _ := cmd.Flags().GetString("format")

	useImportMap, _ := cmd.Flags().GetBool("import-map")
	if useImportMap {
		im, err := bridgeImportMap(cmd, osfs, absRoot, pkgCache, pathResolver)
		if err != nil {
			return fmt.Errorf("bridging import map: %w", err)
		}
		fmt.Println(im.Format("json"))
		return nil
	}

	return writeOutput(format, g, result)
}

// bridgeImportMap builds the --import-map output. By default it resolves
// every bare specifier the path resolver recorded during traversal via
// the local resolver (node_modules). With --cdn it ignores the recorded
// specifiers and resolves the root package.json's dependencies through
// the CDN resolver instead.
func bridgeImportMap(cmd *cobra.Command, osfs fs.FileSystem, absRoot string, pkgCache packagejson.Cache, pathResolver *depgraph.PathResolver) (*importmap.ImportMap, error) {
	specs := pathResolver.BareSpecifiers()

	useCDN, _ := cmd.Flags().GetBool("cdn")
	if useCDN {
		pkg, err := packagejson.ParseFile(osfs, filepath.Join(absRoot, "package.json"))
		if err != nil {
			return nil, fmt.Errorf("reading package.json for cdn resolution: %w", err)
		}
		cdnResolver := cdnresolve.New(mappacdn.NewHTTPFetcher())
		return cdnResolver.ResolvePackageJSON(context.Background(), pkg)
	}

	localResolver := local.New(osfs, nil).WithPackageCache(pkgCache)
	workspaceRoot := resolve.FindWorkspaceRoot(osfs, absRoot)
	resolved := localResolver.ResolveSpecifiers(workspaceRoot, specs)

	return (&importmap.ImportMap{Imports: resolved}).Simplify(), nil
}

func writeOutput(format string, g *depgraph.Graph, result *depgraph.TraversalResult) error {
	switch format {
	case "dot":
		fmt.Print(depgraph.DOT(g))
		return nil
	case "json":
		encoded, err := json.MarshalIndent(summarize(g, result), "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(encoded))
		return nil
	case "summary":
		fmt.Printf("%d modules, %d added, %d deleted\n", g.Len(), len(result.Added), len(result.Deleted))
		return nil
	default:
		return fmt.Errorf("invalid format %q: must be one of summary, json, dot", format)
	}
}

type graphSummary struct {
	EntryPoints []string `json:"entryPoints"`
	Modules     []string `json:"modules"`
	Added       []string `json:"added"`
	Deleted     []string `json:"deleted"`
}

func summarize(g *depgraph.Graph, result *depgraph.TraversalResult) graphSummary {
	added := make([]string, len(result.Added))
	for i, m := range result.Added {
		added[i] = m.Path
	}
	return graphSummary{
		EntryPoints: g.EntryPoints,
		Modules:     append([]string(nil), g.Paths()...),
		Added:       added,
		Deleted:     result.Deleted,
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("graph watch requires at least one entry point")
	}

	osfs := fs.NewOSFileSystem()
	entries, err := expandEntries(args)
	if err != nil {
		return err
	}

	absRoot, err := filepath.Abs(viper.GetString("package"))
	if err != nil {
		return fmt.Errorf("invalid package directory: %w", err)
	}

	pkgCache := packagejson.NewMemoryCache()
	opts, _ := buildOptions(osfs, absRoot, pkgCache)

	g := depgraph.NewGraph(entries)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := depgraph.InitialTraverseDependencies(ctx, g, opts)
	if err != nil {
		return fmt.Errorf("traversing dependencies: %w", err)
	}
	fmt.Printf("initial: %d modules, %d added\n", g.Len(), len(result.Added))

	watcher, err := depgraph.NewWatcher(g, opts)
	if err != nil {
		return err
	}
	defer watcher.Close()

	return watcher.Watch(ctx, func(result *depgraph.TraversalResult, err error) {
		if err != nil {
			fmt.Fprintf(os.Stderr, "re-traversal failed: %v\n", err)
			return
		}
		fmt.Printf("added=%d deleted=%d\n", len(result.Added), len(result.Deleted))
	})
}
