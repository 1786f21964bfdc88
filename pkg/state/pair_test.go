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

package state_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/walteh/incwatch/pkg/movemap"
	"github.com/walteh/incwatch/pkg/state"
	"github.com/walteh/incwatch/pkg/status"
	"github.com/walteh/incwatch/pkg/testutils"
	"gitlab.com/tozd/go/errors"
)

// MockStatter is a mock implementation of state.Statter
type MockStatter struct {
	mock.Mock
}

func (m *MockStatter) Stat(ctx context.Context, path string) (status.EntryType, error) {
	args := m.Called(ctx, path)
	return args.Get(0).(status.EntryType), args.Error(1)
}

func p(parts ...string) string {
	return filepath.Join(append([]string{string(filepath.Separator), "proj"}, parts...)...)
}

func deleted(path string) state.MoveEvent {
	return state.MoveEvent{Kind: state.EventDeleted, Path: path}
}

func created(path string) state.MoveEvent {
	return state.MoveEvent{Kind: state.EventCreated, Path: path}
}

func TestPair(t *testing.T) {
	tests := []struct {
		name          string
		events        []state.MoveEvent
		want          []state.Candidate
		ambiguousBase []string
	}{
		{
			name:   "single_move",
			events: []state.MoveEvent{deleted(p("a", "x.h")), created(p("b", "x.h"))},
			want:   []state.Candidate{{OldPath: p("a", "x.h"), NewPath: p("b", "x.h")}},
		},
		{
			name:   "creation_before_deletion",
			events: []state.MoveEvent{created(p("b", "x.h")), deleted(p("a", "x.h"))},
			want:   []state.Candidate{{OldPath: p("a", "x.h"), NewPath: p("b", "x.h")}},
		},
		{
			name: "two_independent_moves",
			events: []state.MoveEvent{
				deleted(p("a", "x.h")),
				deleted(p("a", "y.cpp")),
				created(p("b", "y.cpp")),
				created(p("c", "x.h")),
			},
			want: []state.Candidate{
				{OldPath: p("a", "x.h"), NewPath: p("c", "x.h")},
				{OldPath: p("a", "y.cpp"), NewPath: p("b", "y.cpp")},
			},
		},
		{
			name:   "directory_move",
			events: []state.MoveEvent{deleted(p("src", "net")), created(p("lib", "net"))},
			want:   []state.Candidate{{OldPath: p("src", "net"), NewPath: p("lib", "net")}},
		},
		{
			name:   "unmatched_deletion",
			events: []state.MoveEvent{deleted(p("a", "x.h"))},
		},
		{
			name:   "unmatched_creation",
			events: []state.MoveEvent{created(p("a", "x.h"))},
		},
		{
			name:   "different_basenames",
			events: []state.MoveEvent{deleted(p("a", "x.h")), created(p("a", "y.h"))},
		},
		{
			name:   "basename_match_is_case_sensitive",
			events: []state.MoveEvent{deleted(p("a", "X.h")), created(p("b", "x.h"))},
		},
		{
			name:   "save_is_not_a_move",
			events: []state.MoveEvent{deleted(p("a", "x.h")), created(p("a", "x.h"))},
		},
		{
			name: "duplicate_events_count_once",
			events: []state.MoveEvent{
				deleted(p("a", "x.h")),
				deleted(p("a", "x.h")),
				created(p("b", "x.h")),
				created(p("b", "x.h")),
			},
			want: []state.Candidate{{OldPath: p("a", "x.h"), NewPath: p("b", "x.h")}},
		},
		{
			name: "ambiguous_creations",
			events: []state.MoveEvent{
				deleted(p("a", "util.h")),
				created(p("b", "util.h")),
				created(p("c", "util.h")),
			},
			ambiguousBase: []string{"util.h"},
		},
		{
			name: "ambiguous_deletions_do_not_block_others",
			events: []state.MoveEvent{
				deleted(p("a", "util.h")),
				deleted(p("b", "util.h")),
				created(p("c", "util.h")),
				deleted(p("a", "main.c")),
				created(p("d", "main.c")),
			},
			want:          []state.Candidate{{OldPath: p("a", "main.c"), NewPath: p("d", "main.c")}},
			ambiguousBase: []string{"util.h"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, errs := state.Pair(tt.events)
			assert.Equal(t, tt.want, got)

			require.Len(t, errs, len(tt.ambiguousBase))
			for i, err := range errs {
				assert.ErrorIs(t, err, state.ErrAmbiguousBasename)
				assert.Equal(t, tt.ambiguousBase[i], errors.Details(err)["basename"])
			}
		})
	}
}

func TestClassify(t *testing.T) {
	ctx := testutils.Context(t)

	statter := new(MockStatter)
	statter.On("Stat", mock.Anything, p("b", "x.h")).Return(status.EntryFile, nil)
	statter.On("Stat", mock.Anything, p("lib", "net")).Return(status.EntryDirectory, nil)
	statter.On("Stat", mock.Anything, p("c", "gone.h")).Return(status.EntryNotFound, nil)
	statter.On("Stat", mock.Anything, p("d", "locked.h")).Return(status.EntryNotFound, errors.New("permission denied"))

	got := state.Classify(ctx, statter, []state.Candidate{
		{OldPath: p("a", "x.h"), NewPath: p("b", "x.h")},
		{OldPath: p("a", "gone.h"), NewPath: p("c", "gone.h")},
		{OldPath: p("src", "net"), NewPath: p("lib", "net")},
		{OldPath: p("a", "locked.h"), NewPath: p("d", "locked.h")},
	})

	assert.Equal(t, []movemap.Pair{
		{OldPath: p("a", "x.h"), NewPath: p("b", "x.h")},
		{OldPath: p("src", "net"), NewPath: p("lib", "net"), IsDirectory: true},
	}, got)
	statter.AssertExpectations(t)
}
