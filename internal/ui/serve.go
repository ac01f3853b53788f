package ui

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/tempoplan/tempo/internal/server"
)

func (a *App) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP service",
		Long: `Start the HTTP service on the configured address.

The service exposes the task list, text parsing, sync and planning
triggers, the clarification flow, and the daily digest.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runServe(cmd.Context())
		},
	}
}

func (a *App) runServe(ctx context.Context) error {
	d := a.deps
	srv := server.New(d.Repo, d.Orch, d.Ex, d.Book, d.Cal, d.Sync, d.Config.Location())

	httpServer := &http.Server{
		Addr:    d.Config.Server.Addr,
		Handler: srv,
	}
	go func() {
		<-ctx.Done()
		if err := httpServer.Shutdown(context.Background()); err != nil {
			log.Printf("serve: shutdown: %v", err)
		}
	}()

	log.Printf("tempo listening on %s", d.Config.Server.Addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http service: %w", err)
	}
	return nil
}
