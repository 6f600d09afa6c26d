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

	"github.com/mappa-cli/mappa/fs"
	"github.com/mappa-cli/mappa/trace"
)

// TreeSitterTransform builds the transform collaborator from a
// FileSystem, parsing each module with the same tree-sitter
// TypeScript/JavaScript grammar trace.ExtractImports already uses to
// drive import-map tracing. Dynamic imports and re-exports count as
// dependencies, same as trace's own treatment of them.
func TreeSitterTransform(fsys fs.FileSystem) func(ctx context.Context, path string) (TransformResult, error) {
	return func(_ context.Context, path string) (TransformResult, error) {
		content, err := fsys.ReadFile(path)
		if err != nil {
			return TransformResult{}, err
		}

		imports, err := trace.ExtractImports(content)
		if err != nil {
			return TransformResult{}, err
		}

		names := make([]string, len(imports))
		for i, imp := range imports {
			names[i] = imp.Specifier
		}

		return TransformResult{Dependencies: names, Output: imports}, nil
	}
}
