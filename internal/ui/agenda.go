package ui

import (
	"github.com/spf13/cobra"

	"github.com/tempoplan/tempo/internal/tui"
)

func (a *App) agendaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "agenda",
		Short: "Open the interactive agenda view",
		RunE: func(_ *cobra.Command, _ []string) error {
			return tui.Run(a.deps.Repo, a.deps.Cal, a.deps.Config.Location())
		},
	}
}
