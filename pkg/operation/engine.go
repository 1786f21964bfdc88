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
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/walteh/incwatch/pkg/include"
	"github.com/walteh/incwatch/pkg/status"
	"github.com/walteh/incwatch/pkg/text"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// 📝 RewriteResult is the outcome of transforming one file
type RewriteResult struct {
	FilePath     string
	Changed      bool
	NewContent   []byte
	Replacements int
	// Diff is a preview of the change, only set on dry runs
	Diff string
	// Skipped lists include lines kept as written because no new literal could be computed
	Skipped []text.LineError
}

// FileError is a failure confined to one file
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string {
	return e.Path + ": " + e.Err.Error()
}

func (e FileError) Unwrap() error {
	return e.Err
}

// 📊 Summary reports what a rewrite pass did
type Summary struct {
	Scanned int
	Changed []RewriteResult
	Failed  []FileError
	DryRun  bool
}

// 🔧 Options configures an Engine
type Options struct {
	// Files reads, lists and writes the project's source files
	Files status.FileManager
	// Reporter tracks per-file results and progress
	Reporter status.StatusReporter
	// Matcher finds include directives, defaults to text.DefaultIncludePattern
	Matcher *text.Matcher
	// Root is the project root scanned for candidate files
	Root string
	// Extensions are the tracked source extensions, without the leading dot
	Extensions []string
	// Concurrency bounds the number of files processed at once, defaults to runtime.NumCPU
	Concurrency int
	// DryRun computes changes without writing them
	DryRun bool
}

// ⚙️ Engine rewrites include literals across the project after a batch of moves
type Engine struct {
	files       status.FileManager
	reporter    status.StatusReporter
	matcher     *text.Matcher
	root        string
	extensions  map[string]bool
	concurrency int
	dryRun      bool
}

// 🏭 NewEngine creates a new rewrite engine
func NewEngine(opts Options) (*Engine, error) {
	if opts.Files == nil {
		return nil, errors.Errorf("file manager is required")
	}
	if opts.Reporter == nil {
		return nil, errors.Errorf("status reporter is required")
	}
	if opts.Root == "" {
		return nil, errors.Errorf("root is required")
	}
	if len(opts.Extensions) == 0 {
		return nil, errors.Errorf("at least one extension is required")
	}

	matcher := opts.Matcher
	if matcher == nil {
		matcher = text.MustMatcher(text.DefaultIncludePattern)
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}

	exts := make(map[string]bool, len(opts.Extensions))
	for _, ext := range opts.Extensions {
		exts[strings.ToLower(strings.TrimPrefix(ext, "."))] = true
	}

	return &Engine{
		files:       opts.Files,
		reporter:    opts.Reporter,
		matcher:     matcher,
		root:        opts.Root,
		extensions:  exts,
		concurrency: concurrency,
		dryRun:      opts.DryRun,
	}, nil
}

// DryRun reports whether the engine only plans changes
func (e *Engine) DryRun() bool {
	return e.dryRun
}

// Tracks reports whether path has a tracked source extension
func (e *Engine) Tracks(path string) bool {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	return ext != "" && e.extensions[strings.ToLower(ext)]
}

// RewriteFile computes the new content of one file. It touches no
// filesystem; path is the file's current location.
func RewriteFile(ctx context.Context, path string, content []byte, moves include.Lookup, matcher *text.Matcher) RewriteResult {
	resolver := include.NewResolver(moves)
	replaced := matcher.ReplaceIncludes(ctx, content, func(literal string) (string, error) {
		return resolver.Rewrite(path, literal)
	})

	return RewriteResult{
		FilePath:     path,
		Changed:      replaced.WasModified,
		NewContent:   replaced.ModifiedContent,
		Replacements: replaced.ReplacementCount,
		Skipped:      replaced.LineErrors,
	}
}

// Apply rewrites every candidate file whose includes are affected by moves.
// Each file is read, transformed and written as one unit; a failing file is
// recorded in the summary and the others continue. The returned error is
// reserved for failures that prevent the pass from starting.
func (e *Engine) Apply(ctx context.Context, moves include.Lookup) (*Summary, error) {
	return e.run(ctx, moves, !e.dryRun)
}

func (e *Engine) run(ctx context.Context, moves include.Lookup, write bool) (*Summary, error) {
	logger := zerolog.Ctx(ctx)

	files, err := e.files.ListFiles(ctx, e.root)
	if err != nil {
		return nil, errors.Errorf("listing candidate files: %w", err)
	}

	summary := &Summary{
		Scanned: len(files),
		DryRun:  !write,
	}

	e.reporter.StartOperation(ctx, len(files))
	defer e.reporter.FinishOperation(ctx)

	var (
		mu        sync.Mutex
		processed int
	)
	done := func() {
		processed++
		e.reporter.UpdateProgress(ctx, processed)
	}

	var g errgroup.Group
	g.SetLimit(e.concurrency)

	for _, path := range files {
		path := path
		g.Go(func() error {
			res, err := e.processFile(ctx, path, moves, write)

			mu.Lock()
			defer mu.Unlock()
			defer done()

			if err != nil {
				logger.Warn().Err(err).Str("path", path).Msg("rewrite failed")
				summary.Failed = append(summary.Failed, FileError{Path: path, Err: err})
				e.reporter.TrackFile(ctx, status.FileInfo{Path: path, Status: status.StatusFailed, Error: err})
				return nil
			}
			if !res.Changed {
				e.reporter.TrackFile(ctx, status.FileInfo{Path: path, Status: status.StatusUnchanged})
				return nil
			}

			summary.Changed = append(summary.Changed, res)
			st := status.StatusRewritten
			if !write {
				st = status.StatusPlanned
			}
			e.reporter.TrackFile(ctx, status.FileInfo{Path: path, Status: st, Replacements: res.Replacements})
			return nil
		})
	}

	// tasks never return errors, failures are collected per file
	_ = g.Wait()

	slices.SortFunc(summary.Changed, func(a, b RewriteResult) int { return strings.Compare(a.FilePath, b.FilePath) })
	slices.SortFunc(summary.Failed, func(a, b FileError) int { return strings.Compare(a.Path, b.Path) })

	logger.Debug().
		Int("scanned", summary.Scanned).
		Int("changed", len(summary.Changed)).
		Int("failed", len(summary.Failed)).
		Bool("dry_run", summary.DryRun).
		Msg("rewrite pass finished")

	return summary, nil
}

func (e *Engine) processFile(ctx context.Context, path string, moves include.Lookup, write bool) (RewriteResult, error) {
	content, err := e.files.ReadFile(ctx, path)
	if err != nil {
		return RewriteResult{FilePath: path}, errors.Errorf("reading: %w", err)
	}

	res := RewriteFile(ctx, path, content, moves, e.matcher)
	if !res.Changed {
		return res, nil
	}

	if !write {
		res.Diff = text.Diff(e.display(path), content, res.NewContent)
		return res, nil
	}

	if err := e.files.WriteFileAtomic(ctx, path, res.NewContent); err != nil {
		return res, errors.Errorf("writing: %w", err)
	}
	return res, nil
}

func (e *Engine) display(path string) string {
	rel, err := filepath.Rel(e.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}
