package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"seqmart/internal/dataset"
	"seqmart/internal/pipeline"
)

// loadSamples reads the configured sample sheet for the standalone stage
// commands.
func loadSamples(ctx *commandContext) ([]dataset.Sample, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	samples, err := dataset.Load(cfg.Paths.SampleSheet)
	if err != nil {
		return nil, fmt.Errorf("read sample sheet %s: %w", cfg.Paths.SampleSheet, err)
	}
	return samples, nil
}

func newFetchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Download and extract raw reads for every run",
		RunE: func(cmd *cobra.Command, args []string) error {
			samples, err := loadSamples(ctx)
			if err != nil {
				return err
			}
			manager, closeStore, err := ctx.newManager(
				pipeline.WithProgress(stageProgress(cmd)),
			)
			if err != nil {
				return err
			}
			defer closeStore()
			return manager.FetchAll(cmd.Context(), samples)
		},
	}
}

func newFilterCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "filter",
		Short: "Quality-filter every fetched run",
		RunE: func(cmd *cobra.Command, args []string) error {
			samples, err := loadSamples(ctx)
			if err != nil {
				return err
			}
			manager, closeStore, err := ctx.newManager(
				pipeline.WithProgress(stageProgress(cmd)),
			)
			if err != nil {
				return err
			}
			defer closeStore()
			return manager.FilterAll(cmd.Context(), samples)
		},
	}
}

func newMergeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "merge",
		Short: "Merge every run's filtered outputs",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, closeStore, err := ctx.newManager()
			if err != nil {
				return err
			}
			defer closeStore()
			return manager.Merge(cmd.Context())
		},
	}
}

func newReferenceCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reference",
		Short: "Install the reference datasets",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, closeStore, err := ctx.newManager()
			if err != nil {
				return err
			}
			defer closeStore()
			return manager.InstallReference(cmd.Context())
		},
	}
}

func newPreprocessCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "preprocess",
		Short: "Dereplicate and align the merged batch",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, closeStore, err := ctx.newManager()
			if err != nil {
				return err
			}
			defer closeStore()
			return manager.Preprocess(cmd.Context())
		},
	}
}
