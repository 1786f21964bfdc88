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

package movemap

import (
	"context"
	"path/filepath"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// ErrConflictingEntry is returned when one old path is mapped to two different new paths
var ErrConflictingEntry = errors.Base("conflicting move entry")

// 📦 Pair is one correlated move, of either a file or a directory
type Pair struct {
	OldPath     string
	NewPath     string
	IsDirectory bool
}

// Entry maps the old location of a single file to its new location
type Entry struct {
	OldPath string
	NewPath string
}

// 🗺️ Map is the finalized, read-only table of every file moved in a batch.
// It is safe for concurrent readers.
type Map struct {
	entries []Entry
	byOld   map[string]string
	byNew   map[string]string
}

// NewPathOf returns where the file at old was moved to
func (m *Map) NewPathOf(old string) (string, bool) {
	n, ok := m.byOld[old]
	return n, ok
}

// OldPathOf returns where the file now at new was moved from
func (m *Map) OldPathOf(new string) (string, bool) {
	o, ok := m.byNew[new]
	return o, ok
}

// Entries returns a copy of the entries in insertion order
func (m *Map) Entries() []Entry {
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Len returns the number of moved files
func (m *Map) Len() int {
	return len(m.entries)
}

// 🏗️ Builder collects entries before a Map is finalized
type Builder struct {
	entries []Entry
	byOld   map[string]string
	byNew   map[string]string
}

// NewBuilder creates an empty builder
func NewBuilder() *Builder {
	return &Builder{
		byOld: make(map[string]string),
		byNew: make(map[string]string),
	}
}

// Add records that the file at oldPath now lives at newPath. Adding the
// same entry twice is a no-op.
func (b *Builder) Add(oldPath, newPath string) error {
	oldPath = filepath.Clean(oldPath)
	newPath = filepath.Clean(newPath)

	if existing, ok := b.byOld[oldPath]; ok {
		if existing == newPath {
			return nil
		}
		return errors.WithDetails(ErrConflictingEntry, "old", oldPath, "new", newPath, "existing", existing)
	}
	if existing, ok := b.byNew[newPath]; ok {
		return errors.WithDetails(ErrConflictingEntry, "old", oldPath, "new", newPath, "existing_old", existing)
	}

	b.entries = append(b.entries, Entry{OldPath: oldPath, NewPath: newPath})
	b.byOld[oldPath] = newPath
	b.byNew[newPath] = oldPath
	return nil
}

// Build finalizes the map. The builder must not be used afterwards.
func (b *Builder) Build() *Map {
	m := &Map{
		entries: b.entries,
		byOld:   b.byOld,
		byNew:   b.byNew,
	}
	b.entries, b.byOld, b.byNew = nil, nil, nil
	return m
}

// 📂 Lister lists the tracked source files under a directory, as absolute paths
type Lister interface {
	ListFiles(ctx context.Context, root string) ([]string, error)
}

// Expand turns the pairs of one batch into a single flat Map. File pairs
// yield one entry each. Directory pairs yield one entry per tracked file
// under the new directory, mirrored onto the old root; the subtree is
// assumed to be otherwise unchanged. A pair that fails is skipped and its
// error returned alongside the map.
func Expand(ctx context.Context, lister Lister, pairs []Pair) (*Map, []error) {
	logger := zerolog.Ctx(ctx)
	b := NewBuilder()
	var errs []error

	for _, p := range pairs {
		if !p.IsDirectory {
			if err := b.Add(p.OldPath, p.NewPath); err != nil {
				errs = append(errs, err)
			}
			continue
		}

		files, err := lister.ListFiles(ctx, p.NewPath)
		if err != nil {
			errs = append(errs, errors.Errorf("listing moved directory %s: %w", p.NewPath, err))
			continue
		}

		logger.Debug().
			Str("old", p.OldPath).
			Str("new", p.NewPath).
			Int("files", len(files)).
			Msg("expanding directory move")

		for _, file := range files {
			rel, err := filepath.Rel(p.NewPath, file)
			if err != nil {
				errs = append(errs, errors.Errorf("relating %s to %s: %w", file, p.NewPath, err))
				continue
			}
			if err := b.Add(filepath.Join(p.OldPath, rel), file); err != nil {
				errs = append(errs, err)
			}
		}
	}

	return b.Build(), errs
}
