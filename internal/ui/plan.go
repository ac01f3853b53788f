package ui

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *App) planCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Run one scheduling pass",
		Long: `Run one scheduling pass over the pending tasks.

Each schedulable task gets the earliest free slot inside working
hours, booked on the calendar. Tasks with no room before their due
date stay pending and are retried on the next pass.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			summary, err := a.deps.Orch.Run(cmd.Context())
			if err != nil {
				return fmt.Errorf("scheduling pass: %w", err)
			}

			fmt.Printf("%s %d considered, %d placed, %d left pending\n",
				formatHeader("Pass complete:"),
				summary.Considered,
				summary.Placed,
				summary.Skipped,
			)
			return nil
		},
	}
}
