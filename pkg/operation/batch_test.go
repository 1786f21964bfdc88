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

package operation_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/incwatch/pkg/movemap"
	"github.com/walteh/incwatch/pkg/operation"
	"github.com/walteh/incwatch/pkg/state"
	"github.com/walteh/incwatch/pkg/testutils"
)

type reported struct {
	batch   *state.Batch
	moves   *movemap.Map
	summary *operation.Summary
}

func TestBatchHandler_Handle(t *testing.T) {
	ctx := testutils.Context(t)
	root := t.TempDir()
	testutils.WriteTree(t, root, map[string]string{
		"net/socket.h": "",
		"net/socket.c": "#include \"socket.h\"\n",
		"notes.txt":    "",
		"main.c":       "#include \"net/socket.h\"\n",
	})
	oldDir, newDir := testutils.Move(t, root, "net", "lib/net")
	oldTxt, newTxt := testutils.Move(t, root, "notes.txt", "docs/notes.txt")

	mgr := newManager(t, root)
	var got []reported
	handler := operation.NewBatchHandler(newEngine(t, root, mgr, false), mgr,
		func(ctx context.Context, batch *state.Batch, moves *movemap.Map, summary *operation.Summary) {
			got = append(got, reported{batch: batch, moves: moves, summary: summary})
		})

	batch := &state.Batch{
		ID: uuid.New(),
		Pairs: []movemap.Pair{
			{OldPath: oldDir, NewPath: newDir, IsDirectory: true},
			{OldPath: oldTxt, NewPath: newTxt},
		},
	}
	require.NoError(t, handler.Handle(ctx, batch))

	require.Len(t, got, 1)
	assert.Same(t, batch, got[0].batch)
	assert.Equal(t, 2, got[0].moves.Len(), "untracked files are not part of the move map")
	require.NotNil(t, got[0].summary)
	assert.Equal(t, []string{"main.c"}, changedPaths(root, got[0].summary))

	assert.Equal(t, "#include \"lib/net/socket.h\"\n", testutils.ReadTree(t, root)["main.c"])
}

func TestBatchHandler_NothingToApply(t *testing.T) {
	ctx := testutils.Context(t)
	root := t.TempDir()
	testutils.WriteTree(t, root, map[string]string{"README.md": ""})
	oldPath, newPath := testutils.Move(t, root, "README.md", "docs/README.md")

	mgr := newManager(t, root)
	var got []reported
	handler := operation.NewBatchHandler(newEngine(t, root, mgr, false), mgr,
		func(ctx context.Context, batch *state.Batch, moves *movemap.Map, summary *operation.Summary) {
			got = append(got, reported{batch: batch, moves: moves, summary: summary})
		})

	err := handler.Handle(ctx, &state.Batch{
		ID:    uuid.New(),
		Pairs: []movemap.Pair{{OldPath: oldPath, NewPath: newPath}},
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].summary)
	assert.Equal(t, 0, got[0].moves.Len())
}

func TestBatchHandler_WithCorrelator(t *testing.T) {
	ctx := testutils.Context(t)
	root := t.TempDir()
	testutils.WriteTree(t, root, map[string]string{
		"a.h":    "",
		"main.c": "#include \"a.h\"\n",
	})

	mgr := newManager(t, root)
	handler := operation.NewBatchHandler(newEngine(t, root, mgr, false), mgr, nil)
	c, err := state.NewCorrelator(ctx, state.Options{
		Debounce: time.Hour,
		Statter:  mgr,
		Handler:  handler.Handle,
	})
	require.NoError(t, err)

	oldPath, newPath := testutils.Move(t, root, "a.h", "include/a.h")
	c.Observe(state.MoveEvent{Kind: state.EventDeleted, Path: oldPath})
	c.Observe(state.MoveEvent{Kind: state.EventCreated, Path: filepath.Dir(newPath)})
	c.Observe(state.MoveEvent{Kind: state.EventCreated, Path: newPath})
	c.Flush(ctx)

	assert.Equal(t, "#include \"include/a.h\"\n", testutils.ReadTree(t, root)["main.c"])
}
