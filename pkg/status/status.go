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

package status

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"unicode"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 📊 FileStatus represents the outcome of processing one candidate file
type FileStatus int

const (
	StatusUnknown   FileStatus = iota
	StatusUnchanged            // No include needed rewriting
	StatusRewritten            // Includes rewritten and saved
	StatusPlanned              // Includes would be rewritten (dry run)
	StatusFailed               // Reading or writing failed
)

// String returns a string representation of FileStatus
func (s FileStatus) String() string {
	switch s {
	case StatusUnchanged:
		return "unchanged"
	case StatusRewritten:
		return "rewritten"
	case StatusPlanned:
		return "planned"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// 📁 EntryType is the kind of filesystem entry found at a path
type EntryType int

const (
	EntryNotFound EntryType = iota
	EntryFile
	EntryDirectory
)

// String returns a string representation of EntryType
func (e EntryType) String() string {
	switch e {
	case EntryFile:
		return "file"
	case EntryDirectory:
		return "directory"
	default:
		return "not_found"
	}
}

// 📄 FileInfo contains the result recorded for a file
type FileInfo struct {
	Path         string     // Absolute path to the file
	Status       FileStatus // Outcome
	Replacements int        // Number of include literals rewritten
	Error        error      // Any error associated with this file
}

// 💾 FileManager handles all file system operations
type FileManager interface {
	Stat(ctx context.Context, path string) (EntryType, error)
	ListFiles(ctx context.Context, root string) ([]string, error)
	ReadFile(ctx context.Context, path string) ([]byte, error)
	WriteFileAtomic(ctx context.Context, path string, content []byte) error
}

// 📈 StatusReporter tracks file status and reports progress
type StatusReporter interface {
	// Status tracking
	TrackFile(ctx context.Context, info FileInfo)
	ListTracked(ctx context.Context) []FileInfo

	// Progress reporting
	StartOperation(ctx context.Context, total int)
	UpdateProgress(ctx context.Context, processed int)
	FinishOperation(ctx context.Context)
}

// ⚙️ Options configures a Manager
type Options struct {
	// Root is the project root; ignore patterns are matched relative to it
	Root string
	// Extensions are the tracked source extensions, without the leading dot
	Extensions []string
	// IgnorePatterns are doublestar globs of paths never listed
	IgnorePatterns []string
	// Formatter formats status messages, defaults to DefaultFileFormatter
	Formatter FileFormatter
}

// 🔧 Manager implements both FileManager and StatusReporter on the local disk
type Manager struct {
	root      string
	pattern   string
	ignore    []string
	formatter FileFormatter

	// Status tracking
	mu    sync.RWMutex
	files map[string]FileInfo

	// Progress tracking
	total     int
	processed int
}

// 🏭 New creates a new status manager
func New(opts Options) (*Manager, error) {
	if opts.Root == "" {
		return nil, errors.Errorf("root is required")
	}
	if len(opts.Extensions) == 0 {
		return nil, errors.Errorf("at least one extension is required")
	}

	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, errors.Errorf("resolving root: %w", err)
	}

	for _, p := range opts.IgnorePatterns {
		if !doublestar.ValidatePattern(p) {
			return nil, errors.Errorf("invalid ignore pattern %q", p)
		}
	}

	formatter := opts.Formatter
	if formatter == nil {
		formatter = NewDefaultFileFormatter()
	}

	return &Manager{
		root:      root,
		pattern:   SourcePattern(opts.Extensions),
		ignore:    opts.IgnorePatterns,
		formatter: formatter,
		files:     make(map[string]FileInfo),
	}, nil
}

// SourcePattern builds the doublestar pattern matching every tracked
// extension in any letter case, e.g. "**/*.{[cC],[hH]}"
func SourcePattern(extensions []string) string {
	exts := make([]string, len(extensions))
	for i, ext := range extensions {
		exts[i] = anyCase(ext)
	}
	if len(exts) == 1 {
		return "**/*." + exts[0]
	}
	return "**/*.{" + strings.Join(exts, ",") + "}"
}

// anyCase turns every letter of s into a class matching both cases
func anyCase(s string) string {
	var sb strings.Builder
	for _, r := range s {
		lower, upper := unicode.ToLower(r), unicode.ToUpper(r)
		if lower == upper {
			sb.WriteRune(r)
			continue
		}
		sb.WriteByte('[')
		sb.WriteRune(lower)
		sb.WriteRune(upper)
		sb.WriteByte(']')
	}
	return sb.String()
}

// Root returns the absolute project root
func (m *Manager) Root() string {
	return m.root
}

// Ignored reports whether an absolute path matches one of the ignore patterns
func (m *Manager) Ignored(path string) bool {
	rel, err := filepath.Rel(m.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, p := range m.ignore {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// FileManager interface implementation

func (m *Manager) Stat(ctx context.Context, path string) (EntryType, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return EntryNotFound, nil
	}
	if err != nil {
		return EntryNotFound, errors.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return EntryDirectory, nil
	}
	return EntryFile, nil
}

func (m *Manager) ListFiles(ctx context.Context, root string) ([]string, error) {
	root = filepath.Clean(root)

	matches, err := doublestar.Glob(os.DirFS(root), m.pattern, doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
	if err != nil {
		return nil, errors.Errorf("listing %s: %w", root, err)
	}

	files := make([]string, 0, len(matches))
	for _, match := range matches {
		abs := filepath.Join(root, filepath.FromSlash(match))
		if m.Ignored(abs) {
			continue
		}
		files = append(files, abs)
	}
	slices.Sort(files)

	zerolog.Ctx(ctx).Debug().Str("root", root).Int("files", len(files)).Msg("listed source files")
	return files, nil
}

func (m *Manager) ReadFile(ctx context.Context, path string) ([]byte, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading file: %w", err)
	}
	return content, nil
}

// WriteFileAtomic replaces the content of path through a temp file in the
// same directory, keeping the original permissions
func (m *Manager) WriteFileAtomic(ctx context.Context, path string, content []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Errorf("creating temp file: %w", err)
	}
	tempPath := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return errors.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tempPath)
		return errors.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tempPath, mode); err != nil {
		os.Remove(tempPath)
		return errors.Errorf("setting temp file mode: %w", err)
	}

	// Rename temp file to target (atomic operation)
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return errors.Errorf("renaming temp file: %w", err)
	}

	return nil
}

// Rename moves a file or directory, creating the destination's parent
// directories as needed
func (m *Manager) Rename(ctx context.Context, oldPath, newPath string) error {
	if err := os.MkdirAll(filepath.Dir(newPath), 0o755); err != nil {
		return errors.Errorf("creating parent directories: %w", err)
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		return errors.Errorf("renaming %s: %w", oldPath, err)
	}
	zerolog.Ctx(ctx).Debug().Str("old", oldPath).Str("new", newPath).Msg("renamed")
	return nil
}

// StatusReporter interface implementation

func (m *Manager) TrackFile(ctx context.Context, info FileInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.files[info.Path] = info

	msg := m.formatter.FormatFileOperation(m.display(info.Path), info.Status, info.Replacements)
	if info.Error != nil {
		msg = m.formatter.FormatError(info.Error)
	}

	logger := zerolog.Ctx(ctx)
	ev := logger.Debug()
	switch info.Status {
	case StatusRewritten, StatusPlanned:
		ev = logger.Info()
	case StatusFailed:
		ev = logger.Warn()
	}
	ev.Str("path", info.Path).Str("status", info.Status.String()).Msg(msg)
}

func (m *Manager) ListTracked(ctx context.Context) []FileInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	files := make([]FileInfo, 0, len(m.files))
	for _, info := range m.files {
		files = append(files, info)
	}
	slices.SortFunc(files, func(a, b FileInfo) int { return strings.Compare(a.Path, b.Path) })
	return files
}

func (m *Manager) StartOperation(ctx context.Context, total int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.files = make(map[string]FileInfo)
	m.total = total
	m.processed = 0
	msg := m.formatter.FormatProgress(0, total)
	zerolog.Ctx(ctx).Debug().Int("total", total).Msg(msg)
}

func (m *Manager) UpdateProgress(ctx context.Context, processed int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.processed = processed
	msg := m.formatter.FormatProgress(processed, m.total)
	zerolog.Ctx(ctx).Trace().
		Int("processed", processed).
		Int("total", m.total).
		Msg(msg)
}

func (m *Manager) FinishOperation(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	msg := m.formatter.FormatProgress(m.processed, m.total)
	zerolog.Ctx(ctx).Debug().
		Int("processed", m.processed).
		Int("total", m.total).
		Msg(msg)
}

// display returns path relative to the root when possible
func (m *Manager) display(path string) string {
	rel, err := filepath.Rel(m.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}
