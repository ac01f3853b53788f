package ingest

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"google.golang.org/api/people/v1"

	"github.com/tempoplan/tempo/internal/calendar"
	"github.com/tempoplan/tempo/internal/contacts"
	"github.com/tempoplan/tempo/internal/extractor"
	"github.com/tempoplan/tempo/internal/task"
)

// Pipeline runs a full sync: contacts, calendar, mailbox, ICS feed,
// then due-date estimation for tasks still missing one. Optional
// sources (people, gmail) may be nil and are skipped.
type Pipeline struct {
	Repo      task.Repository
	Adapter   calendar.Adapter
	Book      *contacts.Book
	People    *people.Service
	Gmail     *Gmail
	Extractor *extractor.Extractor
	Defaults  task.Defaults
	Prefix    string
	Loc       *time.Location
}

// Run executes every configured stage in order. Stage failures are
// logged and the remaining stages still run; the first error is
// returned so callers can surface a degraded sync.
func (p *Pipeline) Run(ctx context.Context, icsURL string, now time.Time) error {
	var firstErr error
	fail := func(stage string, err error) {
		log.Printf("sync: %s: %v", stage, err)
		if firstErr == nil {
			firstErr = fmt.Errorf("%s: %w", stage, err)
		}
	}

	if p.People != nil {
		if n, err := p.Book.SyncPeople(ctx, p.People); err != nil {
			fail("contacts", err)
		} else {
			log.Printf("sync: %d contacts known", n)
		}
	}

	if n, err := SyncCalendar(ctx, p.Adapter, p.Repo, p.Prefix, p.Defaults, p.Loc, now); err != nil {
		fail("calendar", err)
	} else if n > 0 {
		log.Printf("sync: %d calendar tasks ingested", n)
	}

	if icsURL != "" {
		if n, err := ImportICS(ctx, icsURL, p.Repo, p.Defaults, p.Loc); err != nil {
			fail("ics", err)
		} else if n > 0 {
			log.Printf("sync: %d feed tasks ingested", n)
		}
	}

	if p.Gmail != nil {
		if n, err := p.Gmail.Sync(ctx, p.Repo, now); err != nil {
			fail("gmail", err)
		} else if n > 0 {
			log.Printf("sync: %d mailbox tasks ingested", n)
		}
	}

	if err := p.estimateDueDates(ctx, now); err != nil {
		fail("due estimation", err)
	}
	return firstErr
}

// estimateDueDates asks the model for a plausible due date for every
// pending task that has none. A failed estimate leaves the task as is;
// the no-due planning horizon covers it.
func (p *Pipeline) estimateDueDates(ctx context.Context, now time.Time) error {
	if p.Extractor == nil {
		return nil
	}
	pending, err := p.Repo.ListTasksByStatus(ctx, task.StatusPending)
	if err != nil {
		return err
	}

	var agenda string
	for _, t := range pending {
		if t.Due != nil || t.NeedsClarification {
			continue
		}
		if agenda == "" {
			agenda = p.calendarContext(ctx)
		}
		due, err := p.Extractor.EstimateDue(ctx, t.Title, agenda, now)
		if err != nil || due == nil {
			if err != nil {
				log.Printf("sync: estimating due for %q: %v", t.Title, err)
			}
			continue
		}
		t.Due = due
		if err := p.Repo.UpdateTask(ctx, t); err != nil {
			log.Printf("sync: saving estimate for %q: %v", t.Title, err)
		}
	}
	return nil
}

// calendarContext summarizes upcoming events so the estimator can fit
// new work around them.
func (p *Pipeline) calendarContext(ctx context.Context) string {
	events, err := p.Adapter.ListUpcoming(ctx, 10)
	if err != nil {
		log.Printf("sync: calendar context: %v", err)
		return ""
	}
	lines := make([]string, 0, len(events))
	for _, ev := range events {
		lines = append(lines, fmt.Sprintf("%s: %s", ev.Start.In(p.Loc).Format("Mon Jan 2 15:04"), ev.Title))
	}
	return strings.Join(lines, "\n")
}
