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

	"github.com/rs/zerolog"
	"github.com/walteh/incwatch/pkg/movemap"
	"github.com/walteh/incwatch/pkg/state"
	"gitlab.com/tozd/go/errors"
)

// BatchReport is called after each batch with the moves it found and what
// the engine did. Summary is nil when the batch had no usable moves.
type BatchReport func(ctx context.Context, batch *state.Batch, moves *movemap.Map, summary *Summary)

// 🔗 BatchHandler connects the correlator to the engine: it expands the
// batch's pairs into a move map and applies it to the project
type BatchHandler struct {
	engine *Engine
	lister movemap.Lister
	report BatchReport
}

// NewBatchHandler creates a batch handler. report may be nil.
func NewBatchHandler(engine *Engine, lister movemap.Lister, report BatchReport) *BatchHandler {
	return &BatchHandler{
		engine: engine,
		lister: lister,
		report: report,
	}
}

// Handle processes one finalized batch; it satisfies state.Handler
func (h *BatchHandler) Handle(ctx context.Context, batch *state.Batch) error {
	logger := zerolog.Ctx(ctx)

	pairs := make([]movemap.Pair, 0, len(batch.Pairs))
	for _, p := range batch.Pairs {
		if !p.IsDirectory && !h.engine.Tracks(p.NewPath) {
			logger.Debug().Str("old", p.OldPath).Str("new", p.NewPath).Msg("ignoring move of untracked file")
			continue
		}
		pairs = append(pairs, p)
	}

	moves, errs := movemap.Expand(ctx, h.lister, pairs)
	for _, err := range errs {
		logger.Warn().Err(err).Msg("skipping move")
	}

	if moves.Len() == 0 {
		h.emit(ctx, batch, moves, nil)
		return nil
	}

	logger.Info().Int("pairs", len(pairs)).Int("files", moves.Len()).Msg("updating includes")
	for _, entry := range moves.Entries() {
		logger.Debug().Str("old", entry.OldPath).Str("new", entry.NewPath).Msg("file moved")
	}

	summary, err := h.engine.Apply(ctx, moves)
	if err != nil {
		return errors.Errorf("applying batch %s: %w", batch.ID, err)
	}

	h.emit(ctx, batch, moves, summary)
	return nil
}

func (h *BatchHandler) emit(ctx context.Context, batch *state.Batch, moves *movemap.Map, summary *Summary) {
	if h.report != nil {
		h.report(ctx, batch, moves, summary)
	}
}
