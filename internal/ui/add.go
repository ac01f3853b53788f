package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func (a *App) addCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add [command text]",
		Short: "Add tasks from a natural-language command",
		Long: `Parse a natural-language command into tasks and schedule them.

Example:
  tempo add "finish the slides by friday and email alex about the deck"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.deps.Ex == nil {
				return errors.New("no language model is configured; set [llm] in the config file")
			}
			ctx := cmd.Context()
			text := strings.Join(args, " ")

			tasks, err := a.deps.Ex.FromText(ctx, text, time.Now())
			if err != nil {
				return fmt.Errorf("parsing command: %w", err)
			}
			if len(tasks) == 0 {
				fmt.Println("No tasks found in that.")
				return nil
			}

			for _, t := range tasks {
				if err := a.deps.Repo.CreateTask(ctx, t); err != nil {
					return fmt.Errorf("creating task: %w", err)
				}
				printTaskLine(t)
			}

			summary, err := a.deps.Orch.Run(ctx)
			if err != nil {
				return fmt.Errorf("scheduling pass: %w", err)
			}
			if summary.Placed > 0 {
				fmt.Printf("\n%s\n", formatStats(fmt.Sprintf("%d task(s) booked.", summary.Placed)))
			}
			return nil
		},
	}
	return cmd
}
