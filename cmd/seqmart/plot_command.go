package main

import (
	"github.com/spf13/cobra"

	"seqmart/internal/services/phyloseq"
)

func newPlotCommand(ctx *commandContext) *cobra.Command {
	var req phyloseq.BarPlot

	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Render an abundance bar plot from clustering outputs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("cutoff") {
				req.Cutoff = cfg.Plot.CutoffLevel
			}
			plotter := phyloseq.New(cfg, logger)
			return plotter.PlotBar(cmd.Context(), req)
		},
	}

	cmd.Flags().StringVar(&req.Shared, "shared", "", "Path to the shared OTU table")
	cmd.Flags().StringVar(&req.Taxonomy, "taxonomy", "", "Path to the consensus taxonomy table")
	cmd.Flags().StringVar(&req.List, "list", "", "Optional path to the OTU list file")
	cmd.Flags().Float64Var(&req.Cutoff, "cutoff", 0, "OTU label cutoff (defaults to the configured level)")
	cmd.Flags().StringVar(&req.Level, "level", "Rank6", "Taxonomic rank to color bars by")
	cmd.Flags().StringVarP(&req.Output, "output", "o", "abundance.png", "Image path to write")
	_ = cmd.MarkFlagRequired("shared")
	_ = cmd.MarkFlagRequired("taxonomy")

	return cmd
}
