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

package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/walteh/incwatch/cmd/incwatch/opts"
	"github.com/walteh/incwatch/pkg/operation"
	"github.com/walteh/incwatch/pkg/state"
	"github.com/walteh/incwatch/pkg/watch"
	"gitlab.com/tozd/go/errors"
)

// NewWatchCmd creates the watch command
func NewWatchCmd(opts *opts.RootOpts) *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch a source tree and fix includes when files move",
		Long: `Watch follows every directory under the project root. When files or
directories are moved or renamed it will:
1. Wait until the filesystem has been quiet for the debounce window
2. Pair deleted and created paths into moves by basename
3. Rewrite the quoted #include lines that pointed at the old locations
4. Keep the includes of moved files pointing at what they referenced before

Stop with Ctrl-C; anything still buffered is processed before exit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if root != "" {
				opts.Config.Root = root
			}

			project, err := opts.NewProject()
			if err != nil {
				return err
			}
			projectRoot := project.Files.Root()

			watcher, err := watch.New(projectRoot, project.Files)
			if err != nil {
				return errors.Errorf("creating watcher: %w", err)
			}

			handler := operation.NewBatchHandler(project.Engine, project.Files, newBatchReport(opts, project.Files))

			correlator, err := state.NewCorrelator(context.WithoutCancel(ctx), state.Options{
				Debounce: opts.Config.DebounceWindow(),
				Statter:  project.Files,
				Handler:  handler.Handle,
			})
			if err != nil {
				return errors.Errorf("creating correlator: %w", err)
			}

			go func() {
				select {
				case <-watcher.Ready():
					msg := fmt.Sprintf("Watching %s", projectRoot)
					if project.Engine.DryRun() {
						msg += " (dry run)"
					}
					opts.UserLogger.LogStateChange(msg)
				case <-ctx.Done():
				}
			}()

			if err := operation.NewRunner("watch").Run(ctx, operation.NewWatchOperation(watcher, correlator)); err != nil {
				return err
			}

			opts.UserLogger.LogStateChange("Stopped watching")
			return nil
		},
	}

	cmd.Flags().StringVarP(&root, "root", "r", "", "project root to watch (overrides the config file)")

	return cmd
}
