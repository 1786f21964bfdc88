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

package include

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMoves is a map-backed Lookup
type fakeMoves map[string]string

func (m fakeMoves) NewPathOf(old string) (string, bool) {
	n, ok := m[old]
	return n, ok
}

func (m fakeMoves) OldPathOf(new string) (string, bool) {
	for o, n := range m {
		if n == new {
			return o, true
		}
	}
	return "", false
}

func TestResolveTarget(t *testing.T) {
	tests := []struct {
		name        string
		file        string
		literal     string
		oldLocation string
		want        string
	}{
		{
			name:    "sibling",
			file:    "/proj/src/b.cpp",
			literal: "a.h",
			want:    "/proj/src/a.h",
		},
		{
			name:    "parent_dir",
			file:    "/proj/src/inc/a.h",
			literal: "../b.h",
			want:    "/proj/src/b.h",
		},
		{
			name:    "dot_segments",
			file:    "/proj/src/b.cpp",
			literal: "./inc/../a.h",
			want:    "/proj/src/a.h",
		},
		{
			name:        "absolute_literal_ignores_directory",
			file:        "/proj/src/sub/a.cpp",
			literal:     "/opt/lib/x.h",
			oldLocation: "/proj/src/a.cpp",
			want:        "/opt/lib/x.h",
		},
		{
			name:        "moved_file_uses_old_directory",
			file:        "/proj/src/inc/a.h",
			literal:     "b.h",
			oldLocation: "/proj/src/a.h",
			want:        "/proj/src/b.h",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveTarget(tt.file, tt.literal, tt.oldLocation))
		})
	}
}

func TestRelativize(t *testing.T) {
	tests := []struct {
		name    string
		fromDir string
		target  string
		want    string
	}{
		{name: "same_dir", fromDir: "/proj/src", target: "/proj/src/a.h", want: "a.h"},
		{name: "child_dir", fromDir: "/proj/src", target: "/proj/src/inc/a.h", want: "inc/a.h"},
		{name: "parent_dir", fromDir: "/proj/src/inc", target: "/proj/src/b.h", want: "../b.h"},
		{name: "sibling_tree", fromDir: "/proj/a/b", target: "/proj/c/d/e.h", want: "../../c/d/e.h"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Relativize(tt.fromDir, tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.False(t, strings.HasPrefix(got, "./"), "literal should not start with ./")
		})
	}
}

func TestRelativize_NoRelativePath(t *testing.T) {
	_, err := Relativize("relative/dir", "/abs/target.h")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoRelativePath)
}

func TestResolver_Rewrite(t *testing.T) {
	tests := []struct {
		name    string
		moves   fakeMoves
		file    string
		literal string
		want    string
	}{
		{
			name:    "cross_tree_redirection",
			moves:   fakeMoves{"/p/src/a.h": "/p/src/inc/a.h"},
			file:    "/p/src/b.cpp",
			literal: "a.h",
			want:    "inc/a.h",
		},
		{
			name:    "moved_file_keeps_reaching_unmoved_target",
			moves:   fakeMoves{"/p/src/a.h": "/p/src/inc/a.h"},
			file:    "/p/src/inc/a.h",
			literal: "b.h",
			want:    "../b.h",
		},
		{
			name: "intra_batch_redirection",
			moves: fakeMoves{
				"/p/x.h": "/p/dir2/x.h",
				"/p/y.h": "/p/dir2/y.h",
			},
			file:    "/p/dir2/x.h",
			literal: "y.h",
			want:    "y.h",
		},
		{
			name: "locality_preserved_in_directory_move",
			moves: fakeMoves{
				"/p/foo/x.h": "/p/bar/x.h",
				"/p/foo/y.h": "/p/bar/y.h",
			},
			file:    "/p/bar/y.h",
			literal: "x.h",
			want:    "x.h",
		},
		{
			name:    "unrelated_reference_untouched",
			moves:   fakeMoves{"/p/src/a.h": "/p/src/inc/a.h"},
			file:    "/p/src/b.cpp",
			literal: "c.h",
			want:    "c.h",
		},
		{
			name:    "non_canonical_unrelated_literal_kept",
			moves:   fakeMoves{"/p/src/a.h": "/p/src/inc/a.h"},
			file:    "/p/src/b.cpp",
			literal: "./util/../c.h",
			want:    "./util/../c.h",
		},
		{
			name:    "non_canonical_moved_target_normalized",
			moves:   fakeMoves{"/p/src/a.h": "/p/src/inc/a.h"},
			file:    "/p/src/b.cpp",
			literal: "./a.h",
			want:    "inc/a.h",
		},
		{
			name:    "absolute_literal_kept_when_file_moves",
			moves:   fakeMoves{"/proj/src/a.cpp": "/proj/src/sub/a.cpp"},
			file:    "/proj/src/sub/a.cpp",
			literal: "/opt/lib/x.h",
			want:    "/opt/lib/x.h",
		},
		{
			name:    "absolute_literal_follows_moved_target",
			moves:   fakeMoves{"/proj/src/a.h": "/proj/inc/a.h"},
			file:    "/proj/src/main.cpp",
			literal: "/proj/src/a.h",
			want:    "/proj/inc/a.h",
		},
		{
			name:    "round_trip_back",
			moves:   fakeMoves{"/p/b.h": "/p/a.h"},
			file:    "/p/main.c",
			literal: "b.h",
			want:    "a.h",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewResolver(tt.moves).Rewrite(tt.file, tt.literal)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
