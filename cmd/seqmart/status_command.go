package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"seqmart/internal/ledger"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the most recent outcome per run and stage",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			states, err := store.Latest(cmd.Context())
			if err != nil {
				return err
			}
			if len(states) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No recorded pipeline activity.")
				return nil
			}

			rows := make([][]string, 0, len(states))
			for _, state := range states {
				rows = append(rows, []string{
					runLabel(state),
					state.Stage,
					string(state.Status),
					state.UpdatedAt.Local().Format(time.RFC3339),
					state.Detail,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Run", "Stage", "Status", "Updated", "Detail"},
				rows,
			))
			return nil
		},
	}
}

func runLabel(state ledger.RunState) string {
	if state.Run == "" {
		return "(batch)"
	}
	return state.Run
}
