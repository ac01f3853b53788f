package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
	"google.golang.org/api/people/v1"

	"github.com/tempoplan/tempo/internal/auth"
	"github.com/tempoplan/tempo/internal/config"
	"github.com/tempoplan/tempo/internal/contacts"
	"github.com/tempoplan/tempo/internal/db"
	"github.com/tempoplan/tempo/internal/extractor"
	"github.com/tempoplan/tempo/internal/ingest"
	"github.com/tempoplan/tempo/internal/llm"
	"github.com/tempoplan/tempo/internal/orchestrator"
	"github.com/tempoplan/tempo/internal/scheduler"
	"github.com/tempoplan/tempo/internal/task"
	"github.com/tempoplan/tempo/internal/ui"

	tempocal "github.com/tempoplan/tempo/internal/calendar"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// API keys may live in a local .env during development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	loc := cfg.Location()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := db.New(cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer repo.Close()

	defaults := task.Defaults{
		DurationMinutes:    cfg.Schedule.DefaultDurationMinutes,
		MinDurationMinutes: cfg.Schedule.MinDurationMinutes,
		Priority:           cfg.Schedule.DefaultPriority,
	}
	planner := scheduler.NewPlanner(
		cfg.Schedule.WorkStart,
		cfg.Schedule.WorkEnd,
		cfg.Schedule.DefaultDurationMinutes,
		cfg.Schedule.MinDurationMinutes,
		cfg.Schedule.NoDueHorizonDays,
		loc,
	)
	book := contacts.NewBook()

	var ex *extractor.Extractor
	if cfg.LLM.Model != "" {
		client, err := llm.NewClient(cfg.LLM.Provider, cfg.LLM.Model, cfg.LLM.BaseURL)
		if err != nil {
			log.Printf("llm disabled: %v", err)
		} else {
			ex = extractor.New(client, book, defaults, loc)
		}
	}

	cal, sync := googleIntegration(ctx, cfg, repo, book, ex, defaults, loc)

	orch := orchestrator.New(repo, cal, planner, cfg.Schedule.EventPrefix, loc)

	app := ui.NewApp(ui.Deps{
		Repo:   repo,
		Config: cfg,
		Cal:    cal,
		Orch:   orch,
		Ex:     ex,
		Book:   book,
		Sync:   sync,
	})
	return app.ExecuteContext(ctx)
}

// googleIntegration wires the calendar adapter and the sync pipeline.
// Without credentials the offline adapter is used: reads see an empty
// calendar and bookings are declined until credentials are added.
func googleIntegration(ctx context.Context, cfg *config.Config, repo task.Repository, book *contacts.Book, ex *extractor.Extractor, defaults task.Defaults, loc *time.Location) (tempocal.Adapter, func(context.Context, string, time.Time) error) {
	if !auth.HasCredentials() {
		log.Printf("google integration disabled: no credentials.json in the config directory")
		return tempocal.Offline(), nil
	}

	scopes := []string{
		calendar.CalendarScope,
		gmail.GmailReadonlyScope,
		people.ContactsReadonlyScope,
	}
	httpClient, err := auth.GetClient(ctx, scopes)
	if err != nil {
		log.Printf("google integration disabled: %v", err)
		return tempocal.Offline(), nil
	}

	timeout := time.Duration(cfg.Calendar.TimeoutSeconds) * time.Second
	adapter, err := tempocal.NewGoogle(ctx, httpClient, cfg.Calendar.CalendarID, loc, timeout)
	if err != nil {
		log.Printf("google integration disabled: %v", err)
		return tempocal.Offline(), nil
	}

	pipeline := &ingest.Pipeline{
		Repo:      repo,
		Adapter:   adapter,
		Book:      book,
		Extractor: ex,
		Defaults:  defaults,
		Prefix:    cfg.Schedule.EventPrefix,
		Loc:       loc,
	}
	if svc, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient)); err != nil {
		log.Printf("gmail sync disabled: %v", err)
	} else if ex != nil {
		pipeline.Gmail = ingest.NewGmail(svc, ex)
	}
	if svc, err := people.NewService(ctx, option.WithHTTPClient(httpClient)); err != nil {
		log.Printf("contacts sync disabled: %v", err)
	} else {
		pipeline.People = svc
	}

	return adapter, pipeline.Run
}
