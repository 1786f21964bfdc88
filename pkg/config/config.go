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

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/walteh/incwatch/pkg/text"
	"gitlab.com/tozd/go/errors"
)

// DefaultFileName is the config file looked up in the working directory
const DefaultFileName = ".incwatch.yaml"

// DefaultDebounce is the default quiet window before a batch is processed
const DefaultDebounce = "200ms"

var (
	// DefaultExtensions are the source extensions tracked when none are configured
	DefaultExtensions = []string{"c", "cpp", "h", "hpp"}
	// DefaultIgnorePatterns keep VCS metadata and build output out of scans
	DefaultIgnorePatterns = []string{".git/**", "build/**"}
)

type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

func Register(p Parser) {
	parsers = append(parsers, p)
}

func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 📚 Config represents the complete configuration
type Config struct {
	// Root is the project root; relative roots are taken from the config file's directory
	Root string `json:"root,omitempty" yaml:"root,omitempty" hcl:"root,optional"`
	// Extensions are the tracked source extensions
	Extensions []string `json:"extensions,omitempty" yaml:"extensions,omitempty" hcl:"extensions,optional"`
	// Debounce is the quiet window as a Go duration string
	Debounce string `json:"debounce,omitempty" yaml:"debounce,omitempty" hcl:"debounce,optional"`
	// IncludePattern finds include lines; exactly one capture group holds the literal
	IncludePattern string `json:"include_pattern,omitempty" yaml:"include_pattern,omitempty" hcl:"include_pattern,optional"`
	// IgnorePatterns are doublestar globs, relative to Root, never scanned or watched
	IgnorePatterns []string `json:"ignore_patterns,omitempty" yaml:"ignore_patterns,omitempty" hcl:"ignore_patterns,optional"`
	// Concurrency bounds parallel file rewrites
	Concurrency int `json:"concurrency,omitempty" yaml:"concurrency,omitempty" hcl:"concurrency,optional"`
	// DryRun reports changes without writing them
	DryRun bool `json:"dry_run,omitempty" yaml:"dry_run,omitempty" hcl:"dry_run,optional"`

	debounce time.Duration
	matcher  *text.Matcher
}

// Default returns a validated configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	if err := cfg.Validate(); err != nil {
		panic(errors.Errorf("default config is invalid: %w", err))
	}
	return cfg
}

// 🎯 Load loads the configuration from a file
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	// Read config file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	// Get parser
	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	// Parse config
	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}

	if !filepath.IsAbs(cfg.Root) {
		cfg.Root = filepath.Join(filepath.Dir(path), cfg.Root)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadDefault loads DefaultFileName from dir, falling back to defaults
// rooted at dir when the file does not exist
func LoadDefault(ctx context.Context, dir string) (*Config, error) {
	path := filepath.Join(dir, DefaultFileName)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		zerolog.Ctx(ctx).Debug().Str("path", path).Msg("no config file, using defaults")
		cfg := &Config{Root: dir}
		if err := cfg.Validate(); err != nil {
			return nil, errors.Errorf("validating config: %w", err)
		}
		return cfg, nil
	}
	return Load(ctx, path)
}

// 🔍 Validate applies defaults, normalizes values and checks them. It is
// safe to call more than once.
func (cfg *Config) Validate() error {
	if cfg.Root == "" {
		cfg.Root = "."
	}
	cfg.Root = filepath.Clean(cfg.Root)

	// Extensions
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = append([]string(nil), DefaultExtensions...)
	}
	seen := make(map[string]bool, len(cfg.Extensions))
	exts := make([]string, 0, len(cfg.Extensions))
	for _, ext := range cfg.Extensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext == "" {
			return errors.Errorf("extensions must not be empty")
		}
		if strings.ContainsAny(ext, `/\{},*?[]`) {
			return errors.Errorf("invalid extension %q", ext)
		}
		if seen[ext] {
			continue
		}
		seen[ext] = true
		exts = append(exts, ext)
	}
	cfg.Extensions = exts

	// Debounce
	if cfg.Debounce == "" {
		cfg.Debounce = DefaultDebounce
	}
	d, err := time.ParseDuration(cfg.Debounce)
	if err != nil {
		return errors.Errorf("parsing debounce: %w", err)
	}
	if d <= 0 {
		return errors.Errorf("debounce must be positive, got %s", cfg.Debounce)
	}
	cfg.debounce = d

	// Include pattern
	if cfg.IncludePattern == "" {
		cfg.IncludePattern = text.DefaultIncludePattern
	}
	matcher, err := text.NewMatcher(cfg.IncludePattern)
	if err != nil {
		return errors.Errorf("include_pattern: %w", err)
	}
	cfg.matcher = matcher

	// Ignore patterns
	if cfg.IgnorePatterns == nil {
		cfg.IgnorePatterns = append([]string(nil), DefaultIgnorePatterns...)
	}
	for _, p := range cfg.IgnorePatterns {
		if !doublestar.ValidatePattern(p) {
			return errors.Errorf("invalid ignore pattern %q", p)
		}
	}

	// Concurrency
	if cfg.Concurrency < 0 {
		return errors.Errorf("concurrency must not be negative, got %d", cfg.Concurrency)
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = runtime.NumCPU()
	}

	return nil
}

// DebounceWindow returns the parsed debounce, valid after Validate
func (cfg *Config) DebounceWindow() time.Duration {
	return cfg.debounce
}

// Matcher returns the compiled include pattern, valid after Validate
func (cfg *Config) Matcher() *text.Matcher {
	return cfg.matcher
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	return fmt.Sprintf("%s [%s] debounce=%s concurrency=%d dry_run=%t",
		cfg.Root, strings.Join(cfg.Extensions, ","), cfg.Debounce, cfg.Concurrency, cfg.DryRun)
}
