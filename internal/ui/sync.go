package ui

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func (a *App) syncCmd() *cobra.Command {
	var icsURL string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Pull tasks from every configured source",
		Long: `Run a full sync: contacts, calendar events, mailbox, and an
optional ICS feed. New tasks get a due-date estimate where needed,
then a scheduling pass books what it can.`,
		Example: `  tempo sync
  tempo sync --ics https://canvas.example.com/feeds/calendar.ics`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.deps.Sync == nil {
				return errors.New("no sync sources are configured; run `tempo config` first")
			}
			ctx := cmd.Context()

			if err := a.deps.Sync(ctx, icsURL, time.Now()); err != nil {
				fmt.Printf("%s %v\n", formatMuted("sync finished with errors:"), err)
			}

			summary, err := a.deps.Orch.Run(ctx)
			if err != nil {
				return fmt.Errorf("scheduling pass: %w", err)
			}
			fmt.Printf("%s %d considered, %d placed.\n",
				formatHeader("Sync complete."), summary.Considered, summary.Placed)
			return nil
		},
	}

	cmd.Flags().StringVar(&icsURL, "ics", "", "ICS feed URL to import (e.g. a Canvas calendar)")
	return cmd
}
