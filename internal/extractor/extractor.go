// Package extractor turns free text, email batches, and due-less task
// titles into typed task records using an LLM. The scheduling engine
// consumes its output; it never parses language itself.
package extractor

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/tempoplan/tempo/internal/contacts"
	"github.com/tempoplan/tempo/internal/llm"
	"github.com/tempoplan/tempo/internal/task"
)

// Email is one message handed to the email extraction flow.
type Email struct {
	From    string
	Subject string
	Snippet string
	Body    string
}

// Extractor converts unstructured input into task candidates.
type Extractor struct {
	client   llm.Client
	book     *contacts.Book
	defaults task.Defaults
	loc      *time.Location
}

// New creates an Extractor. The contact book decides whether email and
// call tasks need clarification before they may be scheduled.
func New(client llm.Client, book *contacts.Book, defaults task.Defaults, loc *time.Location) *Extractor {
	if loc == nil {
		loc = time.Local
	}
	return &Extractor{client: client, book: book, defaults: defaults, loc: loc}
}

// llmTask is the shape the prompts ask the model to produce.
type llmTask struct {
	Title            string  `json:"title"`
	Due              *string `json:"due"`
	DurationMinutes  *int    `json:"duration_minutes"`
	Priority         *int    `json:"priority"`
	NeedsContactName bool    `json:"needs_contact_name"`
}

type llmTaskList struct {
	Tasks []llmTask `json:"tasks"`
}

var contactNameRe = regexp.MustCompile(`(?i)^(?:email|call) (.+)$`)

// FromText parses a single voice or text command into tasks. Email and
// call tasks naming a contact the book does not know come back with
// NeedsClarification set and a pending question.
func (e *Extractor) FromText(ctx context.Context, text string, now time.Time) ([]*task.Task, error) {
	now = now.In(e.loc)
	var parsed llmTaskList
	err := e.client.ChatJSON(ctx, []llm.Message{
		{Role: "system", Content: textSystemPrompt},
		{Role: "user", Content: fmt.Sprintf("It is currently %s. Parse this: %s", now.Format(time.RFC3339), text)},
	}, &parsed)
	if err != nil {
		return nil, fmt.Errorf("parsing command: %w", err)
	}

	var out []*task.Task
	for _, item := range parsed.Tasks {
		t, err := e.buildTask(item, task.SourceAssistant, now)
		if err != nil {
			continue // skip candidates without a title
		}
		if item.NeedsContactName {
			e.flagUnknownContact(t)
		}
		out = append(out, t)
	}
	return out, nil
}

// FromEmails extracts actionable tasks from a batch of emails. The
// resulting tasks are external: they are surfaced to the user but
// never auto-booked. IDs are derived from the title so a rerun over
// the same inbox re-creates nothing.
func (e *Extractor) FromEmails(ctx context.Context, emails []Email, now time.Time) ([]*task.Task, error) {
	if len(emails) == 0 {
		return nil, nil
	}
	now = now.In(e.loc)

	var sb strings.Builder
	for _, m := range emails {
		fmt.Fprintf(&sb, "From: %s\nSubject: %s\nSnippet: %s\n---\n", m.From, m.Subject, m.Snippet)
	}

	var parsed llmTaskList
	err := e.client.ChatJSON(ctx, []llm.Message{
		{Role: "system", Content: emailSystemPrompt},
		{Role: "user", Content: fmt.Sprintf("It is currently %s. Parse this email list:\n%s", now.Format(time.RFC3339), sb.String())},
	}, &parsed)
	if err != nil {
		return nil, fmt.Errorf("parsing emails: %w", err)
	}

	var out []*task.Task
	for _, item := range parsed.Tasks {
		t, err := e.buildTask(item, task.SourceEmail, now)
		if err != nil {
			continue
		}
		t.ID = task.StableID("gmail", strings.ToLower(t.Title))
		t.IsExternal = true
		out = append(out, t)
	}
	return out, nil
}

// EstimateDue asks the model for a deadline for a task that has none,
// given a textual summary of current calendar commitments.
func (e *Extractor) EstimateDue(ctx context.Context, title, calendarContext string, now time.Time) (*time.Time, error) {
	now = now.In(e.loc)
	var parsed struct {
		DueDate string `json:"due_date"`
	}
	err := e.client.ChatJSON(ctx, []llm.Message{
		{Role: "system", Content: estimateSystemPrompt},
		{Role: "user", Content: fmt.Sprintf(
			"It is currently %s. My calendar context is: %s. Estimate the deadline for: %s",
			now.Format(time.RFC3339), calendarContext, title)},
	}, &parsed)
	if err != nil {
		return nil, fmt.Errorf("estimating deadline: %w", err)
	}
	return normalizeDue(parsed.DueDate, now), nil
}

func (e *Extractor) buildTask(item llmTask, source string, now time.Time) (*task.Task, error) {
	title := strings.TrimSpace(item.Title)
	t, err := task.New(capitalize(title), source)
	if err != nil {
		return nil, err
	}
	if item.Due != nil {
		t.Due = normalizeDue(*item.Due, now)
	}
	if item.DurationMinutes != nil {
		t.DurationMinutes = *item.DurationMinutes
	}
	if item.Priority != nil {
		t.Priority = *item.Priority
	}
	t.Normalize(e.defaults)
	return t, nil
}

// flagUnknownContact marks an email/call task as needing clarification
// when the named contact is not in the book.
func (e *Extractor) flagUnknownContact(t *task.Task) {
	m := contactNameRe.FindStringSubmatch(t.Title)
	if m == nil {
		return
	}
	name := strings.TrimSpace(m[1])
	if _, ok := e.book.Find(name); ok {
		return
	}
	t.NeedsClarification = true
	t.PendingQuestion = fmt.Sprintf("Who is %s? Provide an email address.", titleCase(name))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = capitalize(w)
	}
	return strings.Join(words, " ")
}
