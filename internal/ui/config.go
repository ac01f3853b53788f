package ui

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tempoplan/tempo/internal/config"
)

func (a *App) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "View the configuration",
		Long: `Show the resolved configuration.

If no config file exists, one is created with default values so it
can be edited by hand.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			configPath := config.DefaultConfigPath()
			fmt.Printf("Config file: %s\n\n", configPath)

			if _, err := os.Stat(configPath); os.IsNotExist(err) {
				fmt.Println("No config file found. Creating with default values...")
				if err := a.deps.Config.Save(); err != nil {
					return fmt.Errorf("saving config: %w", err)
				}
				fmt.Printf("Created %s\n\n", configPath)
			}

			printConfig(a.deps.Config)
			return nil
		},
	}
}

func printConfig(cfg *config.Config) {
	fmt.Println(formatHeader("[schedule]"))
	fmt.Printf("  work_start = %s\n", cfg.Schedule.WorkStart)
	fmt.Printf("  work_end = %s\n", cfg.Schedule.WorkEnd)
	fmt.Printf("  default_duration_minutes = %d\n", cfg.Schedule.DefaultDurationMinutes)
	fmt.Printf("  min_duration_minutes = %d\n", cfg.Schedule.MinDurationMinutes)
	fmt.Printf("  default_priority = %d\n", cfg.Schedule.DefaultPriority)
	fmt.Printf("  no_due_horizon_days = %d\n", cfg.Schedule.NoDueHorizonDays)
	fmt.Printf("  timezone = %s\n", cfg.Schedule.Timezone)
	fmt.Printf("  event_prefix = %q\n", cfg.Schedule.EventPrefix)

	fmt.Println(formatHeader("[llm]"))
	fmt.Printf("  provider = %s\n", cfg.LLM.Provider)
	fmt.Printf("  model = %s\n", cfg.LLM.Model)
	if cfg.LLM.BaseURL != "" {
		fmt.Printf("  base_url = %s\n", cfg.LLM.BaseURL)
	}

	fmt.Println(formatHeader("[calendar]"))
	fmt.Printf("  calendar_id = %s\n", cfg.Calendar.CalendarID)
	fmt.Printf("  timeout_seconds = %d\n", cfg.Calendar.TimeoutSeconds)

	fmt.Println(formatHeader("[storage]"))
	fmt.Printf("  db_path = %s\n", cfg.Storage.DBPath)

	fmt.Println(formatHeader("[server]"))
	fmt.Printf("  addr = %s\n", cfg.Server.Addr)
}
