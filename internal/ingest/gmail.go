package ingest

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	gmail "google.golang.org/api/gmail/v1"

	"github.com/tempoplan/tempo/internal/extractor"
	"github.com/tempoplan/tempo/internal/task"
)

const gmailMaxMessages = 20

// Gmail pulls actionable tasks out of recent inbox messages.
type Gmail struct {
	svc       *gmail.Service
	extractor *extractor.Extractor
}

// NewGmail creates a Gmail ingestion source.
func NewGmail(svc *gmail.Service, ex *extractor.Extractor) *Gmail {
	return &Gmail{svc: svc, extractor: ex}
}

// Sync lists recent messages (promotions, social, and forum categories
// excluded), runs the extractor over them, and stores the resulting
// external tasks. Returns the number of tasks extracted.
func (g *Gmail) Sync(ctx context.Context, repo task.Repository, now time.Time) (int, error) {
	resp, err := g.svc.Users.Messages.List("me").
		MaxResults(gmailMaxMessages).
		Q("-category:(promotions OR social OR forums)").
		Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("listing messages: %w", err)
	}

	var emails []extractor.Email
	for _, m := range resp.Messages {
		msg, err := g.svc.Users.Messages.Get("me", m.Id).
			Format("metadata").
			MetadataHeaders("subject", "from").
			Context(ctx).Do()
		if err != nil {
			log.Printf("ingest: skipping message %s: %v", m.Id, err)
			continue
		}

		email := extractor.Email{Snippet: msg.Snippet}
		if msg.Payload != nil {
			for _, h := range msg.Payload.Headers {
				switch strings.ToLower(h.Name) {
				case "subject":
					email.Subject = h.Value
				case "from":
					email.From = h.Value
				}
			}
		}
		if email.Subject == "" {
			email.Subject = "(no subject)"
		}
		emails = append(emails, email)
	}

	tasks, err := g.extractor.FromEmails(ctx, emails, now)
	if err != nil {
		return 0, err
	}

	for _, t := range tasks {
		if err := repo.CreateTask(ctx, t); err != nil {
			return 0, fmt.Errorf("storing email task: %w", err)
		}
	}
	return len(tasks), nil
}
