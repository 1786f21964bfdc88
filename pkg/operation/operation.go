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

	"github.com/walteh/incwatch/pkg/state"
)

// 🎯 Operation is one unit of work the CLI hands to a Runner
type Operation interface {
	Execute(ctx context.Context) error
}

// 👀 WatchSource produces raw move events until its context is cancelled
type WatchSource interface {
	Run(ctx context.Context, sink func(state.MoveEvent)) error
}

// 👁️ WatchOperation feeds a watch source into a correlator for as long as
// the context lives, then flushes whatever is still buffered
type WatchOperation struct {
	source     WatchSource
	correlator *state.Correlator
}

// NewWatchOperation creates a watch operation
func NewWatchOperation(source WatchSource, correlator *state.Correlator) *WatchOperation {
	return &WatchOperation{
		source:     source,
		correlator: correlator,
	}
}

// 🏃 Execute runs the watch session
func (op *WatchOperation) Execute(ctx context.Context) error {
	err := op.source.Run(ctx, op.correlator.Observe)

	// let the last batch finish even though the session is over
	op.correlator.Flush(context.WithoutCancel(ctx))

	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
