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

package operation

import (
	"context"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/walteh/incwatch/pkg/movemap"
	"github.com/walteh/incwatch/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// Mover is the filesystem surface needed to perform a move
type Mover interface {
	Stat(ctx context.Context, path string) (status.EntryType, error)
	ListFiles(ctx context.Context, root string) ([]string, error)
	Rename(ctx context.Context, oldPath, newPath string) error
}

// 🚚 MoveOperation moves one file or directory and fixes the includes that
// referenced it. If the source is already gone and the destination exists,
// the move is taken as done and only includes are fixed.
type MoveOperation struct {
	engine *Engine
	mover  Mover
	src    string
	dst    string

	summary *Summary
}

// NewMoveOperation creates a move operation
func NewMoveOperation(engine *Engine, mover Mover, src, dst string) (*MoveOperation, error) {
	if src == "" || dst == "" {
		return nil, errors.Errorf("source and destination are required")
	}

	absSrc, err := filepath.Abs(src)
	if err != nil {
		return nil, errors.Errorf("resolving source: %w", err)
	}
	absDst, err := filepath.Abs(dst)
	if err != nil {
		return nil, errors.Errorf("resolving destination: %w", err)
	}
	if absSrc == absDst {
		return nil, errors.Errorf("source and destination are the same path: %s", absSrc)
	}

	return &MoveOperation{
		engine: engine,
		mover:  mover,
		src:    absSrc,
		dst:    absDst,
	}, nil
}

// Summary returns the result of the rewrite pass, nil before Execute succeeds
func (op *MoveOperation) Summary() *Summary {
	return op.summary
}

// 🏃 Execute runs the move operation
func (op *MoveOperation) Execute(ctx context.Context) error {
	logger := zerolog.Ctx(ctx).With().Str("src", op.src).Str("dst", op.dst).Logger()
	ctx = logger.WithContext(ctx)

	srcType, err := op.mover.Stat(ctx, op.src)
	if err != nil {
		return errors.Errorf("checking source: %w", err)
	}
	dstType, err := op.mover.Stat(ctx, op.dst)
	if err != nil {
		return errors.Errorf("checking destination: %w", err)
	}

	var moved status.EntryType
	switch {
	case srcType != status.EntryNotFound && dstType == status.EntryNotFound:
		if op.engine.DryRun() {
			return errors.Errorf("dry run needs a move that was already performed, %s still exists", op.src)
		}
		if err := op.mover.Rename(ctx, op.src, op.dst); err != nil {
			return errors.Errorf("moving: %w", err)
		}
		moved = srcType
	case srcType == status.EntryNotFound && dstType != status.EntryNotFound:
		logger.Info().Msg("source already moved, fixing includes only")
		moved = dstType
	case srcType != status.EntryNotFound:
		return errors.Errorf("destination already exists: %s", op.dst)
	default:
		return errors.Errorf("source does not exist: %s", op.src)
	}

	pair := movemap.Pair{
		OldPath:     op.src,
		NewPath:     op.dst,
		IsDirectory: moved == status.EntryDirectory,
	}
	if !pair.IsDirectory && !op.engine.Tracks(op.dst) {
		logger.Info().Msg("moved file is not a tracked source file, no includes to fix")
		op.summary = &Summary{DryRun: op.engine.DryRun()}
		return nil
	}

	moves, errs := movemap.Expand(ctx, op.mover, []movemap.Pair{pair})
	if len(errs) > 0 {
		return errors.Errorf("expanding move: %w", errs[0])
	}
	for _, entry := range moves.Entries() {
		logger.Debug().Str("old", entry.OldPath).Str("new", entry.NewPath).Msg("file moved")
	}

	summary, err := op.engine.Apply(ctx, moves)
	if err != nil {
		return errors.Errorf("rewriting includes: %w", err)
	}
	op.summary = summary

	if len(summary.Failed) > 0 {
		return errors.Errorf("%d of %d files could not be updated: %w", len(summary.Failed), summary.Scanned, summary.Failed[0])
	}
	return nil
}
