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
	"github.com/spf13/cobra"
	"github.com/walteh/incwatch/cmd/incwatch/opts"
	"github.com/walteh/incwatch/pkg/log"
	"github.com/walteh/incwatch/pkg/operation"
	"gitlab.com/tozd/go/errors"
)

// NewMvCmd creates the mv command
func NewMvCmd(opts *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mv <source> <destination>",
		Short: "Move a file or directory and fix the includes that referenced it",
		Long: `Mv moves a file or directory inside the project and rewrites every
quoted #include affected by the move, without running a watch session.

If the source no longer exists but the destination does, the move is taken
as already done and only the includes are fixed. With --dry-run the move
must already have happened; the planned edits are printed as diffs.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			project, err := opts.NewProject()
			if err != nil {
				return err
			}

			log.FromContext(ctx).Header(args[0] + " → " + args[1])

			op, err := operation.NewMoveOperation(project.Engine, project.Files, args[0], args[1])
			if err != nil {
				return errors.Errorf("creating move: %w", err)
			}

			execErr := operation.NewRunner("mv").Run(ctx, op)

			// a partial rewrite is still worth showing
			if summary := op.Summary(); summary != nil {
				reportSummary(ctx, project.Files.Root(), summary)
				reportUnchanged(ctx, opts, project.Files)
			}

			return execErr
		},
	}

	return cmd
}
