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

package state

import (
	"context"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/incwatch/pkg/movemap"
	"github.com/walteh/incwatch/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// ErrAmbiguousBasename is reported when more than one deletion or creation
// shares a basename within a batch, so no move can be inferred safely
var ErrAmbiguousBasename = errors.Base("ambiguous basename")

// 📣 EventKind is the kind of raw filesystem notification
type EventKind int

const (
	EventCreated EventKind = iota
	EventDeleted
)

// String returns a string representation of EventKind
func (k EventKind) String() string {
	if k == EventDeleted {
		return "deleted"
	}
	return "created"
}

// MoveEvent is one raw create or delete notification
type MoveEvent struct {
	Kind       EventKind
	Path       string
	ObservedAt time.Time
}

// Candidate is a deletion and a creation paired by basename, not yet classified
type Candidate struct {
	OldPath string
	NewPath string
}

// Statter reports what kind of entry lives at a path
type Statter interface {
	Stat(ctx context.Context, path string) (status.EntryType, error)
}

type eventKey struct {
	kind EventKind
	path string
}

type basenameGroup struct {
	deleted []string
	created []string
}

// Pair matches deletions with creations that share an exact basename.
// Identical events are counted once. A basename with one deletion and one
// creation becomes a candidate, unless both are the same path, which is a
// save and not a move. Unmatched events are dropped. A basename with several
// deletions or creations is reported as ErrAmbiguousBasename and left
// unpaired.
func Pair(events []MoveEvent) ([]Candidate, []error) {
	seen := make(map[eventKey]bool, len(events))
	groups := make(map[string]*basenameGroup)
	var order []string

	for _, ev := range events {
		path := filepath.Clean(ev.Path)
		key := eventKey{kind: ev.Kind, path: path}
		if seen[key] {
			continue
		}
		seen[key] = true

		base := filepath.Base(path)
		g, ok := groups[base]
		if !ok {
			g = &basenameGroup{}
			groups[base] = g
			order = append(order, base)
		}
		switch ev.Kind {
		case EventDeleted:
			g.deleted = append(g.deleted, path)
		case EventCreated:
			g.created = append(g.created, path)
		}
	}

	var candidates []Candidate
	var errs []error
	for _, base := range order {
		g := groups[base]
		if len(g.deleted) == 0 || len(g.created) == 0 {
			continue
		}
		if len(g.deleted) > 1 || len(g.created) > 1 {
			errs = append(errs, errors.WithDetails(ErrAmbiguousBasename,
				"basename", base,
				"deleted", g.deleted,
				"created", g.created,
			))
			continue
		}
		if g.deleted[0] == g.created[0] {
			continue
		}
		candidates = append(candidates, Candidate{OldPath: g.deleted[0], NewPath: g.created[0]})
	}

	return candidates, errs
}

// Classify stats the new location of each candidate. Candidates whose new
// path no longer exists, or cannot be inspected, are dropped; the rest
// become move pairs flagged as file or directory.
func Classify(ctx context.Context, statter Statter, candidates []Candidate) []movemap.Pair {
	logger := zerolog.Ctx(ctx)
	pairs := make([]movemap.Pair, 0, len(candidates))

	for _, c := range candidates {
		typ, err := statter.Stat(ctx, c.NewPath)
		if err != nil {
			logger.Warn().Err(err).Str("old", c.OldPath).Str("new", c.NewPath).Msg("dropping move, stat failed")
			continue
		}

		switch typ {
		case status.EntryNotFound:
			logger.Debug().Str("old", c.OldPath).Str("new", c.NewPath).Msg("dropping move, new path is gone")
			continue
		case status.EntryDirectory:
			pairs = append(pairs, movemap.Pair{OldPath: c.OldPath, NewPath: c.NewPath, IsDirectory: true})
		default:
			pairs = append(pairs, movemap.Pair{OldPath: c.OldPath, NewPath: c.NewPath})
		}
	}

	return pairs
}
