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

package opts

import (
	"github.com/walteh/incwatch/pkg/config"
	"github.com/walteh/incwatch/pkg/log"
	"github.com/walteh/incwatch/pkg/operation"
	"github.com/walteh/incwatch/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// RootOpts is shared by every subcommand. It is filled in before a
// subcommand runs; the console logger travels on the command's context.
type RootOpts struct {
	Config     *config.Config
	UserLogger *log.UserLogger
}

// 🏗️ Project is the file manager and rewrite engine for the configured root
type Project struct {
	Files  *status.Manager
	Engine *operation.Engine
}

// NewProject builds the file manager and engine from the loaded config
func (o *RootOpts) NewProject() (*Project, error) {
	if o.Config == nil {
		return nil, errors.Errorf("config not loaded")
	}
	cfg := o.Config

	files, err := status.New(status.Options{
		Root:           cfg.Root,
		Extensions:     cfg.Extensions,
		IgnorePatterns: cfg.IgnorePatterns,
	})
	if err != nil {
		return nil, errors.Errorf("creating file manager: %w", err)
	}

	engine, err := operation.NewEngine(operation.Options{
		Files:       files,
		Reporter:    files,
		Matcher:     cfg.Matcher(),
		Root:        files.Root(),
		Extensions:  cfg.Extensions,
		Concurrency: cfg.Concurrency,
		DryRun:      cfg.DryRun,
	})
	if err != nil {
		return nil, errors.Errorf("creating engine: %w", err)
	}

	return &Project{Files: files, Engine: engine}, nil
}
