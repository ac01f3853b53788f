// Package ui implements the tempo command line interface.
package ui

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tempoplan/tempo/internal/calendar"
	"github.com/tempoplan/tempo/internal/config"
	"github.com/tempoplan/tempo/internal/contacts"
	"github.com/tempoplan/tempo/internal/extractor"
	"github.com/tempoplan/tempo/internal/orchestrator"
	"github.com/tempoplan/tempo/internal/server"
	"github.com/tempoplan/tempo/internal/task"
)

var (
	// Version is set at build time
	Version = "dev"
	// Commit is set at build time
	Commit = "none"
)

// Deps carries the wired collaborators into the commands. Cal, Ex and
// Sync may be nil when credentials or a model are not configured; the
// commands that need them report that instead of failing obscurely.
type Deps struct {
	Repo   task.Repository
	Config *config.Config
	Cal    calendar.Adapter
	Orch   *orchestrator.Orchestrator
	Ex     *extractor.Extractor
	Book   *contacts.Book
	Sync   server.SyncFunc
}

// App holds the CLI application state.
type App struct {
	deps Deps
	root *cobra.Command
}

// NewApp creates the CLI application. Running tempo with no subcommand
// starts the HTTP service.
func NewApp(deps Deps) *App {
	a := &App{deps: deps}

	a.root = &cobra.Command{
		Use:   "tempo",
		Short: "A personal task-planning assistant",
		Long: `Tempo turns loose commitments into calendar bookings.

It extracts tasks from text, email and calendar feeds, finds the
earliest free slot inside your working hours, and books it on your
calendar. Run without arguments to start the HTTP service.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runServe(cmd.Context())
		},
	}

	a.root.AddCommand(a.versionCmd())
	a.root.AddCommand(a.serveCmd())
	a.root.AddCommand(a.planCmd())
	a.root.AddCommand(a.tasksCmd())
	a.root.AddCommand(a.addCmd())
	a.root.AddCommand(a.syncCmd())
	a.root.AddCommand(a.digestCmd())
	a.root.AddCommand(a.agendaCmd())
	a.root.AddCommand(a.configCmd())

	return a
}

func (a *App) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("tempo %s (commit: %s)\n", Version, Commit)
		},
	}
}

// ExecuteContext runs the CLI application. The context cancels the
// HTTP service on shutdown signals.
func (a *App) ExecuteContext(ctx context.Context) error {
	return a.root.ExecuteContext(ctx)
}
