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
	"errors"
	"fmt"
)

// ErrReferentialViolation marks an internal invariant failure: a
// programmer error in the engine itself, not a condition a caller can
// cause by feeding it bad files. It should never occur at runtime; if it
// does, treat it as an assertion failure rather than attempting recovery.
var ErrReferentialViolation = errors.New("depgraph: referential invariant violated")

// ResolutionError wraps a failure from the resolve collaborator: the
// dependency name could not be mapped to a target path.
type ResolutionError struct {
	FromPath string
	Name     string
	Err      error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %q from %s: %v", e.Name, e.FromPath, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// TransformError wraps a failure from the transform collaborator: the
// file at Path could not be read or parsed into a dependency list.
type TransformError struct {
	Path string
	Err  error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transform %s: %v", e.Path, e.Err)
}

func (e *TransformError) Unwrap() error { return e.Err }
