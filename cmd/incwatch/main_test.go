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

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newProject writes a small project with a config file and returns its root
func newProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	files := map[string]string{
		".incwatch.yaml": "extensions: [c, cpp, h]\n",
		"src/a.h":        "#pragma once\n#include \"b.h\"\n",
		"src/b.h":        "#pragma once\n",
		"src/main.cpp":   "#include \"a.h\"\n#include <vector>\n",
	}
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer

	cmd, _ := newRootCmd(&stderr)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(content)
}

func TestMvCommand(t *testing.T) {
	tests := []struct {
		name         string
		premove      bool
		dryRun       bool
		wantMain     string
		wantMoved    string
		wantInOutput []string
	}{
		{
			name:         "moves_and_rewrites",
			wantMain:     "#include \"inc/a.h\"\n#include <vector>\n",
			wantMoved:    "#pragma once\n#include \"../b.h\"\n",
			wantInOutput: []string{"src/main.cpp", "src/inc/a.h", "2 files updated"},
		},
		{
			name:         "already_moved_fixes_includes_only",
			premove:      true,
			wantMain:     "#include \"inc/a.h\"\n#include <vector>\n",
			wantMoved:    "#pragma once\n#include \"../b.h\"\n",
			wantInOutput: []string{"2 files updated"},
		},
		{
			name:         "dry_run_prints_diff",
			premove:      true,
			dryRun:       true,
			wantMain:     "#include \"a.h\"\n#include <vector>\n",
			wantMoved:    "#pragma once\n#include \"b.h\"\n",
			wantInOutput: []string{"+#include \"inc/a.h\"", "-#include \"a.h\"", "2 files would be updated"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := newProject(t)
			src := filepath.Join(root, "src", "a.h")
			dst := filepath.Join(root, "src", "inc", "a.h")

			if tt.premove {
				require.NoError(t, os.MkdirAll(filepath.Dir(dst), 0o755))
				require.NoError(t, os.Rename(src, dst))
			}

			args := []string{"mv", "--config", filepath.Join(root, ".incwatch.yaml"), src, dst}
			if tt.dryRun {
				args = append(args, "--dry-run")
			}

			out, err := execute(t, args...)
			require.NoError(t, err)

			assert.NoFileExists(t, src)
			assert.Equal(t, tt.wantMain, readFile(t, filepath.Join(root, "src", "main.cpp")))
			assert.Equal(t, tt.wantMoved, readFile(t, dst))
			for _, want := range tt.wantInOutput {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestMvCommand_Errors(t *testing.T) {
	tests := []struct {
		name        string
		args        func(root string) []string
		errContains string
	}{
		{
			name: "missing_source",
			args: func(root string) []string {
				return []string{"mv", filepath.Join(root, "src", "nope.h"), filepath.Join(root, "src", "x.h")}
			},
			errContains: "source does not exist",
		},
		{
			name: "destination_exists",
			args: func(root string) []string {
				return []string{"mv", filepath.Join(root, "src", "a.h"), filepath.Join(root, "src", "b.h")}
			},
			errContains: "destination already exists",
		},
		{
			name: "dry_run_before_move",
			args: func(root string) []string {
				return []string{"mv", "--dry-run", filepath.Join(root, "src", "a.h"), filepath.Join(root, "src", "c.h")}
			},
			errContains: "dry run needs a move that was already performed",
		},
		{
			name: "wrong_arg_count",
			args: func(root string) []string {
				return []string{"mv", filepath.Join(root, "src", "a.h")}
			},
			errContains: "accepts 2 arg(s)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := newProject(t)
			args := append(tt.args(root), "--config", filepath.Join(root, ".incwatch.yaml"))

			_, err := execute(t, args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)

			// nothing was touched
			assert.Equal(t, "#include \"a.h\"\n#include <vector>\n", readFile(t, filepath.Join(root, "src", "main.cpp")))
		})
	}
}

func TestVersionCommand(t *testing.T) {
	// version never reads the config, even a missing one
	out, err := execute(t, "version", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "🚀 incwatch version info:")
	assert.Contains(t, out, "Go:")
}

func TestFormatVersion(t *testing.T) {
	out := FormatVersion(&VersionInfo{
		Version:   "v1.2.3",
		GoVersion: "go1.23.5",
		Platform:  "linux/amd64",
		Revision:  "abc123",
		Time:      "2025-01-01T00:00:00Z",
		Modified:  true,
	})

	assert.Equal(t, `🚀 incwatch version info:
Version:   v1.2.3
Revision:  abc123 (modified)
Built:     2025-01-01T00:00:00Z
Go:        go1.23.5
Platform:  linux/amd64
`, out)
}

func TestRootCmd_BadConfig(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, ".incwatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("debounce: -1s\n"), 0o644))

	_, err := execute(t, "mv", "--config", path, filepath.Join(root, "a.h"), filepath.Join(root, "b.h"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "debounce must be positive")
}
