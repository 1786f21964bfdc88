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
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🏃 OperationRunner executes operations
type OperationRunner struct {
	name string
}

// 🏗️ NewRunner creates a new runner. name labels the operation in logs
// and errors.
func NewRunner(name string) *OperationRunner {
	return &OperationRunner{name: name}
}

// 🏃 Run executes an operation
func (r *OperationRunner) Run(ctx context.Context, op Operation) error {
	logger := zerolog.Ctx(ctx).With().Str("operation", r.name).Logger()
	ctx = logger.WithContext(ctx)

	start := time.Now()
	logger.Debug().Msg("operation started")

	err := op.Execute(ctx)

	logger.Debug().Err(err).Dur("took", time.Since(start)).Msg("operation finished")

	if err != nil {
		return errors.Errorf("%s: %w", r.name, err)
	}
	return nil
}
