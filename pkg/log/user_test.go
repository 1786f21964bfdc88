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

package log

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"gitlab.com/tozd/go/errors"
)

func captureUserOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	pterm.DisableStyling()
	pterm.SetDefaultOutput(buf)
	t.Cleanup(func() {
		pterm.EnableStyling()
		pterm.SetDefaultOutput(os.Stdout)
	})
	return buf
}

func TestUserLogger(t *testing.T) {
	tests := []struct {
		name string
		op   func(u *UserLogger)
		want []string
	}{
		{
			name: "state_change",
			op:   func(u *UserLogger) { u.LogStateChange("Watching /proj") },
			want: []string{"Watching /proj"},
		},
		{
			name: "validation_ok",
			op:   func(u *UserLogger) { u.LogValidation(true, "Updated 2 files", nil) },
			want: []string{"Updated 2 files"},
		},
		{
			name: "validation_failed",
			op:   func(u *UserLogger) { u.LogValidation(false, "Move failed", errors.New("source does not exist")) },
			want: []string{"Move failed", "source does not exist"},
		},
		{
			name: "validation_warning",
			op:   func(u *UserLogger) { u.LogValidation(false, "1 file could not be updated", nil) },
			want: []string{"1 file could not be updated"},
		},
		{
			name: "ambiguity_with_basename",
			op: func(u *UserLogger) {
				u.LogAmbiguity(errors.WithDetails(errors.Base("ambiguous basename"), "basename", "util.h"))
			},
			want: []string{"Several files named util.h moved at once"},
		},
		{
			name: "ambiguity_without_basename",
			op:   func(u *UserLogger) { u.LogAmbiguity(errors.New("ambiguous basename")) },
			want: []string{"Ambiguous move, includes left unchanged"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureUserOutput(t)
			logger := zerolog.New(zerolog.NewTestWriter(t))
			u := NewUserLogger(logger.WithContext(context.Background()))

			tt.op(u)

			for _, want := range tt.want {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}
