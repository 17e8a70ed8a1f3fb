package main

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"seqmart/internal/config"
	"seqmart/internal/pipeline"
	"seqmart/internal/preflight"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the full pipeline over the sample sheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !skipPreflight {
				if err := runPreflight(cmd, cfg); err != nil {
					return err
				}
			}

			manager, closeStore, err := ctx.newManager(
				pipeline.WithProgress(stageProgress(cmd)),
			)
			if err != nil {
				return err
			}
			defer closeStore()

			if err := manager.Run(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Pipeline complete.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Skip environment checks before running")
	return cmd
}

func runPreflight(cmd *cobra.Command, cfg *config.Config) error {
	var failed []string
	for _, result := range preflight.Run(cfg) {
		if !result.Passed {
			failed = append(failed, fmt.Sprintf("%s: %s", result.Name, result.Detail))
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return fmt.Errorf("preflight checks failed:\n  %s", strings.Join(failed, "\n  "))
}

// stageProgress renders one progress bar per stage on interactive terminals
// and falls back to plain line output otherwise.
func stageProgress(cmd *cobra.Command) func(stage string, completed, total int) {
	interactive := isatty.IsTerminal(os.Stderr.Fd())

	var mu sync.Mutex
	var currentStage string
	var bar *progressbar.ProgressBar

	return func(stage string, completed, total int) {
		mu.Lock()
		defer mu.Unlock()

		if !interactive {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %d/%d\n", stage, completed, total)
			return
		}
		if stage != currentStage {
			currentStage = stage
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionSetDescription(stage),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}
		_ = bar.Set(completed)
	}
}
