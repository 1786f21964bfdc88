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
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/walteh/incwatch/pkg/movemap"
	"gitlab.com/tozd/go/errors"
)

// DefaultDebounce is the quiet window after the last event before a batch is finalized
const DefaultDebounce = 200 * time.Millisecond

// 🚦 Phase is the state of the correlator's batch lifecycle
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseBuffering
	PhaseFinalizing
)

// String returns a string representation of Phase
func (p Phase) String() string {
	switch p {
	case PhaseBuffering:
		return "buffering"
	case PhaseFinalizing:
		return "finalizing"
	default:
		return "idle"
	}
}

// 📦 Batch is one finalized group of events and the moves inferred from it
type Batch struct {
	ID     uuid.UUID
	Events []MoveEvent
	Pairs  []movemap.Pair
	// Errors holds pairing problems such as ambiguous basenames
	Errors []error
}

// Handler processes a finalized batch. A returned error is logged and the
// correlator moves on.
type Handler func(ctx context.Context, batch *Batch) error

// Options configures a Correlator
type Options struct {
	Debounce time.Duration
	Statter  Statter
	Handler  Handler
}

// 🔀 Correlator buffers raw events until the debounce window passes without
// new ones, then pairs and classifies them and hands the batch to the
// handler. Batches are handled one at a time.
type Correlator struct {
	ctx     context.Context
	statter Statter
	handler Handler
	window  time.Duration

	mu     sync.Mutex
	buffer []MoveEvent
	timer  *time.Timer
	gen    uint64
	phase  Phase

	processing sync.Mutex
}

// NewCorrelator creates a correlator. Batches finalized by the debounce
// timer run with ctx, so it should carry the session logger.
func NewCorrelator(ctx context.Context, opts Options) (*Correlator, error) {
	if opts.Statter == nil {
		return nil, errors.Errorf("statter is required")
	}
	if opts.Handler == nil {
		return nil, errors.Errorf("handler is required")
	}
	if opts.Debounce < 0 {
		return nil, errors.Errorf("debounce must not be negative, got %s", opts.Debounce)
	}
	if opts.Debounce == 0 {
		opts.Debounce = DefaultDebounce
	}

	return &Correlator{
		ctx:     ctx,
		statter: opts.Statter,
		handler: opts.Handler,
		window:  opts.Debounce,
	}, nil
}

// Phase returns the current lifecycle phase
func (c *Correlator) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Observe buffers an event and restarts the debounce window
func (c *Correlator) Observe(ev MoveEvent) {
	if ev.ObservedAt.IsZero() {
		ev.ObservedAt = time.Now()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.buffer = append(c.buffer, ev)
	c.phase = PhaseBuffering

	if c.timer != nil {
		c.timer.Stop()
	}
	c.gen++
	gen := c.gen
	c.timer = time.AfterFunc(c.window, func() { c.fire(gen) })

	zerolog.Ctx(c.ctx).Trace().
		Str("kind", ev.Kind.String()).
		Str("path", ev.Path).
		Int("buffered", len(c.buffer)).
		Msg("observed event")
}

// Flush finalizes any buffered events immediately and waits for the batch
// to be handled
func (c *Correlator) Flush(ctx context.Context) {
	c.mu.Lock()
	events := c.detach()
	c.mu.Unlock()

	if len(events) == 0 {
		return
	}
	c.process(ctx, events)
}

// Reset cancels the pending window and discards buffered events
func (c *Correlator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	dropped := c.detach()
	if c.phase == PhaseBuffering {
		c.phase = PhaseIdle
	}

	if len(dropped) > 0 {
		zerolog.Ctx(c.ctx).Debug().Int("events", len(dropped)).Msg("discarded buffered events")
	}
}

// detach takes the buffer and cancels the pending timer. c.mu must be held.
func (c *Correlator) detach() []MoveEvent {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.gen++
	events := c.buffer
	c.buffer = nil
	return events
}

func (c *Correlator) fire(gen uint64) {
	c.mu.Lock()
	if gen != c.gen {
		// superseded by a newer event, a flush or a reset
		c.mu.Unlock()
		return
	}
	events := c.detach()
	c.mu.Unlock()

	if len(events) == 0 {
		return
	}
	c.process(c.ctx, events)
}

func (c *Correlator) process(ctx context.Context, events []MoveEvent) {
	c.processing.Lock()
	defer c.processing.Unlock()

	c.mu.Lock()
	c.phase = PhaseFinalizing
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if len(c.buffer) > 0 {
			c.phase = PhaseBuffering
		} else {
			c.phase = PhaseIdle
		}
	}()

	batch := &Batch{
		ID:     uuid.New(),
		Events: events,
	}

	logger := zerolog.Ctx(ctx).With().Str("batch", batch.ID.String()).Logger()
	ctx = logger.WithContext(ctx)

	candidates, errs := Pair(events)
	batch.Errors = errs
	for _, err := range errs {
		logger.Warn().Err(err).Msg("skipping ambiguous move")
	}

	batch.Pairs = Classify(ctx, c.statter, candidates)

	logger.Debug().
		Int("events", len(events)).
		Int("candidates", len(candidates)).
		Int("pairs", len(batch.Pairs)).
		Msg("finalized batch")

	if len(batch.Pairs) == 0 && len(batch.Errors) == 0 {
		return
	}

	if err := c.handler(ctx, batch); err != nil {
		logger.Error().Err(err).Msg("handling batch")
	}
}
