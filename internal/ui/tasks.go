package ui

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tempoplan/tempo/internal/orchestrator"
	"github.com/tempoplan/tempo/internal/task"
)

func (a *App) tasksCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List tasks grouped by bucket",
		Example: `  tempo tasks
  tempo tasks --all`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tasks, err := a.deps.Repo.ListTasks(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing tasks: %w", err)
			}

			now := time.Now().In(a.deps.Config.Location())
			buckets := map[task.Bucket][]*task.Task{}
			for _, t := range tasks {
				if t.Status == task.StatusDone && !all {
					continue
				}
				b := orchestrator.Classify(t, now)
				buckets[b] = append(buckets[b], t)
			}

			if len(buckets) == 0 {
				fmt.Println("No tasks. Add one with `tempo add` or run `tempo sync`.")
				return nil
			}

			for _, b := range []task.Bucket{task.BucketToday, task.BucketTomorrow, task.BucketUnscheduled} {
				group := buckets[b]
				if len(group) == 0 {
					continue
				}
				fmt.Printf("\n%s\n", formatHeader(bucketLabel(b)))
				for _, t := range group {
					printTaskLine(t)
				}
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include completed tasks")
	return cmd
}

func bucketLabel(b task.Bucket) string {
	switch b {
	case task.BucketToday:
		return "=== Today ==="
	case task.BucketTomorrow:
		return "=== Tomorrow ==="
	default:
		return "=== Unscheduled ==="
	}
}

func printTaskLine(t *task.Task) {
	clock := "     "
	if t.Due != nil {
		clock = t.Due.Format("15:04")
	}
	line := fmt.Sprintf("  %s %s  %s %s",
		statusSymbol(t),
		formatMuted(clock),
		formatTitle(t),
		formatMuted(fmt.Sprintf("(%dm, p%d)", t.DurationMinutes, t.Priority)),
	)
	if t.NeedsClarification {
		line += " " + colorBlocked.Sprint("— "+t.PendingQuestion)
	}
	if t.IsExternal {
		line += " " + formatMuted("[" + t.Source + "]")
	}
	fmt.Println(line)
}
