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

package main

import (
	"context"
	"io"
	"os"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/incwatch/cmd/incwatch/commands"
	"github.com/walteh/incwatch/cmd/incwatch/opts"
	"github.com/walteh/incwatch/pkg/config"
	"github.com/walteh/incwatch/pkg/log"
	"gitlab.com/tozd/go/errors"
)

// annotationNoConfig marks commands that run without loading a config
const annotationNoConfig = "incwatch/no-config"

type rootFlags struct {
	configFile string
	debug      bool
	dryRun     bool
}

func addRootFlags(cmd *cobra.Command, flags *rootFlags) {
	cmd.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "config file path (default ./"+config.DefaultFileName+" if present)")
	cmd.PersistentFlags().BoolVarP(&flags.debug, "debug", "d", false, "enable debug logging")
	cmd.PersistentFlags().BoolVar(&flags.dryRun, "dry-run", false, "print the include changes instead of writing them")
}

// setupLogging builds the structured logger written to stderr. Console
// output for the user goes through pkg/log instead.
func setupLogging(w io.Writer, debug bool) zerolog.Logger {
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		pterm.EnableDebugMessages()
	} else {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
		pterm.DisableDebugMessages()
	}
	logger := zerolog.New(w).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &logger
	return logger
}

func loadConfig(ctx context.Context, cmd *cobra.Command, flags *rootFlags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if flags.configFile != "" {
		cfg, err = config.Load(ctx, flags.configFile)
	} else {
		wd, wdErr := os.Getwd()
		if wdErr != nil {
			return nil, errors.Errorf("getting working directory: %w", wdErr)
		}
		cfg, err = config.LoadDefault(ctx, wd)
	}
	if err != nil {
		return nil, errors.Errorf("loading config: %w", err)
	}

	if cmd.Flags().Changed("dry-run") {
		cfg.DryRun = flags.dryRun
	}

	zerolog.Ctx(ctx).Debug().Str("config", cfg.String()).Msg("configuration loaded")
	return cfg, nil
}

// newRootCmd builds the command tree. The shared options are filled in by
// the persistent pre-run, once flags are parsed.
func newRootCmd(stderr io.Writer) (*cobra.Command, *opts.RootOpts) {
	flags := &rootFlags{}
	rootOpts := &opts.RootOpts{}

	rootCmd := &cobra.Command{
		Use:   "incwatch",
		Short: "Keep C and C++ includes correct when files move",
		Long: `incwatch rewrites the quoted #include directives of a C or C++ project
when source files or directories are moved or renamed, so every include
keeps pointing at the same file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogging(stderr, flags.debug)
			ctx := logger.WithContext(cmd.Context())
			ctx = log.NewContext(ctx, log.New(cmd.OutOrStdout(), logger))
			cmd.SetContext(ctx)

			rootOpts.UserLogger = log.NewUserLogger(ctx)

			if cmd.Annotations[annotationNoConfig] == "true" {
				return nil
			}

			cfg, err := loadConfig(ctx, cmd, flags)
			if err != nil {
				return err
			}
			rootOpts.Config = cfg
			return nil
		},
	}

	addRootFlags(rootCmd, flags)

	versionCmd := newVersionCmd()
	versionCmd.Annotations = map[string]string{annotationNoConfig: "true"}

	rootCmd.AddCommand(
		commands.NewWatchCmd(rootOpts),
		commands.NewMvCmd(rootOpts),
		versionCmd,
	)

	return rootCmd, rootOpts
}
