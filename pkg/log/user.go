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
	"context"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 📢 UserLogger provides user-friendly feedback about the watch session
type UserLogger struct {
	log zerolog.Logger // for debug/error logging
}

// 🎯 NewUserLogger creates a new user logger
func NewUserLogger(ctx context.Context) *UserLogger {
	return &UserLogger{
		log: *zerolog.Ctx(ctx),
	}
}

// 📊 LogStateChange logs a change to the session, such as watching started
func (u *UserLogger) LogStateChange(description string) {
	printer := pterm.Info.WithPrefix(pterm.Prefix{Text: "👀"})
	printer.Println(description)
	u.log.Info().Msg(description)
}

// 🔍 LogValidation logs the outcome of a check or command
func (u *UserLogger) LogValidation(valid bool, description string, err error) {
	if valid {
		pterm.Success.WithPrefix(pterm.Prefix{Text: "✅"}).Println(description)
		u.log.Info().Msg(description)
		return
	}
	if err != nil {
		pterm.Error.WithPrefix(pterm.Prefix{Text: "❌"}).Println(description)
		pterm.Error.Println(err)
		u.log.Error().Err(err).Msg(description)
		return
	}
	pterm.Warning.WithPrefix(pterm.Prefix{Text: "⚠️"}).Println(description)
	u.log.Warn().Msg(description)
}

// 🔀 LogAmbiguity warns that a group of events could not be paired into a
// move, so includes for it are left as they are
func (u *UserLogger) LogAmbiguity(err error) {
	basename, _ := errors.Details(err)["basename"].(string)
	msg := "Ambiguous move, includes left unchanged"
	if basename != "" {
		msg = fmt.Sprintf("Several files named %s moved at once, includes left unchanged", basename)
	}
	pterm.Warning.WithPrefix(pterm.Prefix{Text: "🔀"}).Println(msg)
	u.log.Warn().Err(err).Msg(msg)
}

// 🐛 LogDebug prints a message only when debug output is enabled
func (u *UserLogger) LogDebug(format string, args ...interface{}) {
	pterm.Debug.WithPrefix(pterm.Prefix{Text: "🐛"}).Printf(format+"\n", args...)
	u.log.Debug().Msgf(format, args...)
}
