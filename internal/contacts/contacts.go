// Package contacts keeps an in-memory name-to-email book used to
// decide whether an email/call task is ready to schedule.
package contacts

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	people "google.golang.org/api/people/v1"
)

// Book is a concurrency-safe contact store.
type Book struct {
	mu     sync.RWMutex
	byName map[string]string
}

// NewBook creates an empty contact book.
func NewBook() *Book {
	return &Book{byName: make(map[string]string)}
}

// Find returns the email for a name, matching case-insensitively.
func (b *Book) Find(name string) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	email, ok := b.byName[normalize(name)]
	return email, ok
}

// Learn stores a name-to-email mapping.
func (b *Book) Learn(name, email string) {
	key := normalize(name)
	if key == "" || email == "" {
		return
	}
	b.mu.Lock()
	b.byName[key] = email
	b.mu.Unlock()
}

// Len returns the number of known contacts.
func (b *Book) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.byName)
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// SyncPeople fills the book from the Google People API connections
// list. Both the display name and the bare first name are learned, so
// "email harsh" resolves the same contact as "email harsh karia".
func (b *Book) SyncPeople(ctx context.Context, svc *people.Service) (int, error) {
	resp, err := svc.People.Connections.List("people/me").
		PageSize(500).
		PersonFields("names,emailAddresses").
		Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("listing connections: %w", err)
	}

	count := 0
	for _, person := range resp.Connections {
		if len(person.Names) == 0 || len(person.EmailAddresses) == 0 {
			continue
		}
		name := person.Names[0].DisplayName
		email := person.EmailAddresses[0].Value
		if name == "" || email == "" {
			continue
		}
		b.Learn(name, email)
		if first, _, ok := strings.Cut(name, " "); ok {
			b.Learn(first, email)
		}
		count++
	}
	log.Printf("contacts: synced %d contacts", count)
	return count, nil
}
