// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package include resolves quoted include literals against the location of the
// file that contains them, and computes the replacement literal after a move.
package include

import (
	"path/filepath"

	"gitlab.com/tozd/go/errors"
)

// ErrNoRelativePath is returned when a target cannot be expressed relative to a directory
var ErrNoRelativePath = errors.Base("no relative path")

// 🗺️ Lookup is the read-only view of a move map needed to rewrite literals
type Lookup interface {
	// NewPathOf returns where a file that lived at old now lives
	NewPathOf(old string) (string, bool)
	// OldPathOf returns where a file that now lives at new used to live
	OldPathOf(new string) (string, bool)
}

// 🎯 ResolveTarget turns an include literal into an absolute path.
//
// When oldLocation is set the containing file is itself part of the move and
// the literal is resolved against its old directory, since that is where the
// literal was written. An absolute literal is its own target.
func ResolveTarget(containingFile, literal, oldLocation string) string {
	if isAbs(literal) {
		return filepath.Clean(filepath.FromSlash(literal))
	}
	base := containingFile
	if oldLocation != "" {
		base = oldLocation
	}
	return filepath.Clean(filepath.Join(filepath.Dir(base), filepath.FromSlash(literal)))
}

// 🔗 Relativize returns the include literal that reaches target from fromDir.
// The literal always uses forward slashes.
func Relativize(fromDir, target string) (string, error) {
	rel, err := filepath.Rel(fromDir, target)
	if err != nil {
		return "", errors.WrapWith(err, ErrNoRelativePath)
	}
	return filepath.ToSlash(rel), nil
}

// 🔄 Resolver computes new literals for files after a batch of moves
type Resolver struct {
	Moves Lookup
}

// NewResolver creates a resolver over the given moves
func NewResolver(moves Lookup) *Resolver {
	return &Resolver{Moves: moves}
}

// Rewrite returns the literal that file should use so that it keeps reaching
// the same logical target. file is the current (post-move) path of the
// containing file. The caller decides whether the line changes by comparing
// the result with the original literal.
func (r *Resolver) Rewrite(file, literal string) (string, error) {
	oldLocation, moved := r.Moves.OldPathOf(file)
	if !moved {
		oldLocation = ""
	}

	target := ResolveTarget(file, literal, oldLocation)

	// the target may have moved in the same batch; when neither side moved
	// the literal is kept as written, even if it is not in canonical form
	newTarget, targetMoved := r.Moves.NewPathOf(target)
	if !moved && !targetMoved {
		return literal, nil
	}
	if targetMoved {
		target = newTarget
	}

	// absolute literals stay absolute
	if isAbs(literal) {
		return filepath.ToSlash(target), nil
	}

	rel, err := Relativize(filepath.Dir(file), target)
	if err != nil {
		return literal, errors.Errorf("relativizing %s from %s: %w", target, file, err)
	}
	return rel, nil
}

func isAbs(literal string) bool {
	return filepath.IsAbs(filepath.FromSlash(literal))
}
