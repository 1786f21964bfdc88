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

package text

import (
	"bytes"
	"context"
	"regexp"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// DefaultIncludePattern matches a quoted include and captures its path.
// Angle-bracket includes never match.
const DefaultIncludePattern = `^\s*#\s*include\s*"([^"]+)"`

// ErrPatternGroups is returned for include patterns without exactly one capture group
var ErrPatternGroups = errors.Base("include pattern must have exactly one capture group")

// Directive is the quoted include found on a single line
type Directive struct {
	Literal string // path as written, without quotes
	Start   int    // byte offset of the literal in the line
	End     int    // byte offset just past the literal
}

// LineError records a line left untouched because its literal could not be rewritten
type LineError struct {
	Line int // zero-based
	Err  error
}

// ReplacementResult is the outcome of rewriting the includes of one file
type ReplacementResult struct {
	OriginalContent  []byte
	ModifiedContent  []byte
	WasModified      bool
	ReplacementCount int
	LineErrors       []LineError
}

// RewriteFunc maps an include literal to the literal that should replace it
type RewriteFunc func(literal string) (string, error)

// Matcher finds quoted include directives
type Matcher struct {
	re *regexp.Regexp
}

// NewMatcher compiles an include pattern
func NewMatcher(pattern string) (*Matcher, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errors.Errorf("compiling include pattern %q: %w", pattern, err)
	}
	if re.NumSubexp() != 1 {
		return nil, errors.WithDetails(ErrPatternGroups, "pattern", pattern, "groups", re.NumSubexp())
	}
	return &Matcher{re: re}, nil
}

// MustMatcher is NewMatcher that panics, for known-good patterns
func MustMatcher(pattern string) *Matcher {
	m, err := NewMatcher(pattern)
	if err != nil {
		panic(err)
	}
	return m
}

// Find returns the include directive on line, if any
func (m *Matcher) Find(line string) (Directive, bool) {
	loc := m.re.FindStringSubmatchIndex(line)
	if loc == nil || loc[2] < 0 {
		return Directive{}, false
	}
	return Directive{
		Literal: line[loc[2]:loc[3]],
		Start:   loc[2],
		End:     loc[3],
	}, true
}

// ReplaceIncludes rewrites the literal of every include line in content.
// Only the literal is replaced, the rest of each line (spacing, comments,
// line endings) is kept byte for byte. A line whose fn call fails is left
// as it was and reported in LineErrors.
func (m *Matcher) ReplaceIncludes(ctx context.Context, content []byte, fn RewriteFunc) *ReplacementResult {
	result := &ReplacementResult{
		OriginalContent: content,
		ModifiedContent: content,
	}

	lines := bytes.Split(content, []byte("\n"))
	for i, raw := range lines {
		line := string(raw)
		d, ok := m.Find(line)
		if !ok {
			continue
		}

		replacement, err := fn(d.Literal)
		if err != nil {
			zerolog.Ctx(ctx).Debug().Err(err).Int("line", i+1).Str("literal", d.Literal).Msg("keeping include as written")
			result.LineErrors = append(result.LineErrors, LineError{Line: i, Err: err})
			continue
		}
		if replacement == d.Literal {
			continue
		}

		lines[i] = []byte(line[:d.Start] + replacement + line[d.End:])
		result.ReplacementCount++
	}

	if result.ReplacementCount > 0 {
		result.WasModified = true
		result.ModifiedContent = bytes.Join(lines, []byte("\n"))
	}

	return result
}
