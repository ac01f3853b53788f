package ui

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tempoplan/tempo/internal/digest"
)

func (a *App) digestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "digest",
		Short: "Print the daily digest",
		RunE: func(cmd *cobra.Command, _ []string) error {
			now := time.Now().In(a.deps.Config.Location())
			d, err := digest.Build(cmd.Context(), a.deps.Repo, a.deps.Cal, now)
			if err != nil {
				return fmt.Errorf("building digest: %w", err)
			}
			fmt.Print(d.Render())
			return nil
		},
	}
}
