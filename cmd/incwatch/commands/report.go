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

package commands

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/walteh/incwatch/cmd/incwatch/opts"
	"github.com/walteh/incwatch/pkg/log"
	"github.com/walteh/incwatch/pkg/movemap"
	"github.com/walteh/incwatch/pkg/operation"
	"github.com/walteh/incwatch/pkg/state"
	"github.com/walteh/incwatch/pkg/status"
)

// relPath returns path relative to root when it lies inside it
func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}

// moveLine renders a move as "old → new"
func moveLine(root, oldPath, newPath string, dir bool) string {
	suffix := ""
	if dir {
		suffix = "/"
	}
	return relPath(root, oldPath) + suffix + " → " + relPath(root, newPath) + suffix
}

// reportSummary prints one line per changed or failed file, then a total
func reportSummary(ctx context.Context, root string, summary *operation.Summary) {
	console := log.FromContext(ctx)
	for _, res := range summary.Changed {
		st := status.StatusRewritten
		if summary.DryRun {
			st = status.StatusPlanned
		}
		console.LogFileOperation(ctx, log.FileOperation{
			Path:         relPath(root, res.FilePath),
			Status:       st,
			Replacements: res.Replacements,
			Diff:         res.Diff,
		})
		for _, skipped := range res.Skipped {
			console.Warningf("%s:%d kept as written: %v", relPath(root, res.FilePath), skipped.Line+1, skipped.Err)
		}
	}
	for _, fe := range summary.Failed {
		console.LogFileOperation(ctx, log.FileOperation{
			Path:   relPath(root, fe.Path),
			Status: status.StatusFailed,
			Err:    fe.Err,
		})
	}

	switch {
	case len(summary.Failed) > 0:
		console.Errorf("%d files updated, %d failed, %d scanned", len(summary.Changed), len(summary.Failed), summary.Scanned)
	case len(summary.Changed) == 0:
		console.Infof("no includes needed updating, %d files scanned", summary.Scanned)
	case summary.DryRun:
		console.Successf("%d files would be updated, %d scanned", len(summary.Changed), summary.Scanned)
	default:
		console.Successf("%d files updated, %d scanned", len(summary.Changed), summary.Scanned)
	}
}

// reportUnchanged notes, in debug output, how many scanned files needed no
// rewrite in the last pass
func reportUnchanged(ctx context.Context, o *opts.RootOpts, tracker status.StatusReporter) {
	unchanged := 0
	for _, info := range tracker.ListTracked(ctx) {
		if info.Status == status.StatusUnchanged {
			unchanged++
		}
	}
	o.UserLogger.LogDebug("%d files needed no changes", unchanged)
}

// newBatchReport prints each batch the watch session handles
func newBatchReport(o *opts.RootOpts, files *status.Manager) operation.BatchReport {
	root := files.Root()
	return func(ctx context.Context, batch *state.Batch, moves *movemap.Map, summary *operation.Summary) {
		for _, err := range batch.Errors {
			o.UserLogger.LogAmbiguity(err)
		}
		if summary == nil {
			return
		}

		lines := make([]string, 0, len(batch.Pairs))
		for _, p := range batch.Pairs {
			if !p.IsDirectory {
				if _, ok := moves.NewPathOf(p.OldPath); !ok {
					continue
				}
			}
			lines = append(lines, moveLine(root, p.OldPath, p.NewPath, p.IsDirectory))
		}

		console := log.FromContext(ctx)
		console.StartBatchOperation(ctx, log.BatchOperation{
			ID:     batch.ID.String(),
			Moves:  lines,
			Files:  moves.Len(),
			DryRun: summary.DryRun,
		})
		reportSummary(ctx, root, summary)
		reportUnchanged(ctx, o, files)
		console.EndBatchOperation(ctx)
		console.LogNewline()
	}
}
