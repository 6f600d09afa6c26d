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

import "context"

// TransformResult is what the transform collaborator produces for a
// single module: the ordered list of dependency names exactly as written
// in source, plus an opaque artifact (code, source map, whatever the
// caller's pipeline wants) stored verbatim on the module record.
type TransformResult struct {
	Dependencies []string
	Output       any
}

// Options bundles the three external collaborators a traversal needs.
// The engine treats all three as opaque; none of their internals are
// the engine's concern.
type Options struct {
	// Resolve maps a dependency name, as written in the module at
	// fromPath, to a canonical target path. It must fail with an error
	// when the name cannot be resolved.
	Resolve func(ctx context.Context, fromPath, name string) (string, error)

	// Transform reads and parses the module at path, returning its
	// dependency names in textual order. It must fail when the file
	// cannot be read or parsed.
	Transform func(ctx context.Context, path string) (TransformResult, error)

	// OnProgress, if non-nil, is invoked twice per module touched by a
	// traversal: once on discovery, once on completion, each time with
	// the running (finished, discovered) counts.
	OnProgress func(finished, discovered int)
}

// shallowResolver is the C3 adaptor: a thin façade that turns a path into
// its current ordered dependency list by composing Transform then
// Resolve, the only place those two collaborators are invoked together.
type shallowResolver struct {
	options *Options
}

func newShallowResolver(options *Options) *shallowResolver {
	return &shallowResolver{options: options}
}

// resolve runs the module at path through transform, then resolve for
// each dependency name it reports, in order. Failures propagate
// unchanged (wrapped in TransformError or ResolutionError) — the caller
// decides what to do with a failed traversal; this adaptor never retries
// or swallows an error.
func (s *shallowResolver) resolve(ctx context.Context, path string) ([]Dependency, any, error) {
	result, err := s.options.Transform(ctx, path)
	if err != nil {
		return nil, nil, &TransformError{Path: path, Err: err}
	}

	deps := make([]Dependency, len(result.Dependencies))
	for i, name := range result.Dependencies {
		target, err := s.options.Resolve(ctx, path, name)
		if err != nil {
			return nil, nil, &ResolutionError{FromPath: path, Name: name, Err: err}
		}
		deps[i] = Dependency{Name: name, Path: target}
	}

	return deps, result.Output, nil
}
