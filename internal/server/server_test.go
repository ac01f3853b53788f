package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tempoplan/tempo/internal/calendar"
	"github.com/tempoplan/tempo/internal/contacts"
	"github.com/tempoplan/tempo/internal/extractor"
	"github.com/tempoplan/tempo/internal/llm"
	"github.com/tempoplan/tempo/internal/orchestrator"
	"github.com/tempoplan/tempo/internal/scheduler"
	"github.com/tempoplan/tempo/internal/task"
)

type memRepo struct {
	mu    sync.Mutex
	tasks map[string]*task.Task
}

func newMemRepo(tasks ...*task.Task) *memRepo {
	r := &memRepo{tasks: make(map[string]*task.Task)}
	for _, t := range tasks {
		r.tasks[t.ID] = t
	}
	return r
}

func (r *memRepo) CreateTask(_ context.Context, t *task.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[t.ID]; !ok {
		r.tasks[t.ID] = t
	}
	return nil
}

func (r *memRepo) GetTask(_ context.Context, id string) (*task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, task.ErrTaskNotFound
	}
	return t, nil
}

func (r *memRepo) ListTasks(_ context.Context) ([]*task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*task.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		out = append(out, t)
	}
	return out, nil
}

func (r *memRepo) ListTasksByStatus(ctx context.Context, s task.Status) ([]*task.Task, error) {
	all, _ := r.ListTasks(ctx)
	var out []*task.Task
	for _, t := range all {
		if t.Status == s {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *memRepo) UpdateTask(_ context.Context, t *task.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[t.ID]; !ok {
		return task.ErrTaskNotFound
	}
	r.tasks[t.ID] = t
	return nil
}

func (r *memRepo) DeleteTask(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tasks, id)
	return nil
}

func (r *memRepo) Close() error { return nil }

type memCal struct {
	mu      sync.Mutex
	deleted []string
}

func (c *memCal) ListBusy(context.Context, time.Time, time.Time) ([]scheduler.Interval, error) {
	return nil, nil
}

func (c *memCal) CreateEvent(_ context.Context, _ string, _, _ time.Time, _ string) (string, error) {
	return "evt-1", nil
}

func (c *memCal) DeleteEvent(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted = append(c.deleted, id)
	return nil
}

func (c *memCal) ListUpcoming(context.Context, int64) ([]calendar.Event, error) {
	return nil, nil
}

// canned LLM: ChatJSON unmarshals a fixed payload.
type cannedLLM struct {
	payload string
}

func (c *cannedLLM) Chat(context.Context, []llm.Message) (string, error) {
	return c.payload, nil
}

func (c *cannedLLM) ChatJSON(_ context.Context, _ []llm.Message, result any) error {
	return json.Unmarshal([]byte(c.payload), result)
}

func testServer(repo task.Repository, cal calendar.Adapter, client llm.Client, book *contacts.Book, sync SyncFunc) *Server {
	planner := scheduler.NewPlanner("09:00", "18:00", 60, 30, 2, time.UTC)
	orch := orchestrator.New(repo, cal, planner, "Tempo: ", time.UTC)
	var ex *extractor.Extractor
	if client != nil {
		ex = extractor.New(client, book, task.Defaults{DurationMinutes: 60, MinDurationMinutes: 30, Priority: 3}, time.UTC)
	}
	return New(repo, orch, ex, book, cal, sync, time.UTC)
}

func doJSON(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := testServer(newMemRepo(), &memCal{}, nil, nil, nil)
	rec := doJSON(t, s, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestListTasksRecomputesBuckets(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	due := now.Add(time.Hour)
	stale := &task.Task{
		ID: "t1", Title: "Stale bucket", Source: task.SourceAssistant,
		Due: &due, DurationMinutes: 60, Priority: 3,
		Status: task.StatusScheduled, Bucket: task.BucketUnscheduled,
	}
	s := testServer(newMemRepo(stale), &memCal{}, nil, nil, nil)
	s.now = func() time.Time { return now }

	rec := doJSON(t, s, http.MethodGet, "/api/tasks", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Tasks []*task.Task `json:"tasks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(resp.Tasks) != 1 || resp.Tasks[0].Bucket != task.BucketToday {
		t.Errorf("tasks = %+v, want one task bucketed today", resp.Tasks)
	}
}

func TestParseStoresExtractedTasks(t *testing.T) {
	client := &cannedLLM{payload: `{"tasks":[{"title":"write the quarterly report","due":null,"duration_minutes":90,"priority":4,"needs_contact_name":false}]}`}
	repo := newMemRepo()
	s := testServer(repo, &memCal{}, client, contacts.NewBook(), nil)

	rec := doJSON(t, s, http.MethodPost, "/api/parse", `{"text":"remind me to write the quarterly report"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body.String())
	}

	tasks, _ := repo.ListTasks(context.Background())
	if len(tasks) != 1 {
		t.Fatalf("stored %d tasks, want 1", len(tasks))
	}
	if tasks[0].Title != "Write the quarterly report" {
		t.Errorf("title = %q", tasks[0].Title)
	}
	if tasks[0].DurationMinutes != 90 || tasks[0].Priority != 4 {
		t.Errorf("fields not carried: %+v", tasks[0])
	}
}

func TestParseRejectsEmptyText(t *testing.T) {
	s := testServer(newMemRepo(), &memCal{}, &cannedLLM{payload: `{}`}, contacts.NewBook(), nil)
	rec := doJSON(t, s, http.MethodPost, "/api/parse", `{"text":"  "}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestParseWithoutModelConfigured(t *testing.T) {
	s := testServer(newMemRepo(), &memCal{}, nil, nil, nil)
	rec := doJSON(t, s, http.MethodPost, "/api/parse", `{"text":"anything"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestClarifyLearnsContactAndUnblocks(t *testing.T) {
	needy := &task.Task{
		ID: "t1", Title: "Email Alex", Source: task.SourceAssistant,
		DurationMinutes: 30, Priority: 3, Status: task.StatusPending,
		Bucket: task.BucketUnscheduled, NeedsClarification: true,
		PendingQuestion: "Who is Alex? Provide an email address.",
	}
	repo := newMemRepo(needy)
	book := contacts.NewBook()
	s := testServer(repo, &memCal{}, nil, book, nil)

	rec := doJSON(t, s, http.MethodPost, "/api/clarify", `{"taskId":"t1","answer":"alex@example.com"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	if email, ok := book.Find("Alex"); !ok || email != "alex@example.com" {
		t.Errorf("contact not learned: %q %v", email, ok)
	}
	got, _ := repo.GetTask(context.Background(), "t1")
	if got.NeedsClarification || got.PendingQuestion != "" {
		t.Errorf("task still blocked: %+v", got)
	}
}

func TestClarifyWithoutPendingQuestion(t *testing.T) {
	plain := &task.Task{
		ID: "t1", Title: "Plain task", Source: task.SourceAssistant,
		DurationMinutes: 30, Priority: 3, Status: task.StatusPending,
		Bucket: task.BucketUnscheduled,
	}
	s := testServer(newMemRepo(plain), &memCal{}, nil, contacts.NewBook(), nil)
	rec := doJSON(t, s, http.MethodPost, "/api/clarify", `{"taskId":"t1","answer":"x@y.com"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestDeleteTaskRemovesOwnBooking(t *testing.T) {
	booked := &task.Task{
		ID: "t1", Title: "Booked", Source: task.SourceAssistant,
		DurationMinutes: 60, Priority: 3, Status: task.StatusScheduled,
		Bucket: task.BucketToday, CalendarEventID: "evt-9",
	}
	repo := newMemRepo(booked)
	cal := &memCal{}
	s := testServer(repo, cal, nil, nil, nil)

	rec := doJSON(t, s, http.MethodDelete, "/api/tasks/t1", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if len(cal.deleted) != 1 || cal.deleted[0] != "evt-9" {
		t.Errorf("deleted events = %v, want [evt-9]", cal.deleted)
	}
	if _, err := repo.GetTask(context.Background(), "t1"); err == nil {
		t.Error("task still present")
	}
}

func TestDeleteTaskKeepsExternalEvent(t *testing.T) {
	mirrored := &task.Task{
		ID: "t1", Title: "Team standup", Source: task.SourceCalendar,
		DurationMinutes: 30, Priority: 3, Status: task.StatusScheduled,
		Bucket: task.BucketToday, CalendarEventID: "evt-ext", IsExternal: true,
	}
	cal := &memCal{}
	s := testServer(newMemRepo(mirrored), cal, nil, nil, nil)

	rec := doJSON(t, s, http.MethodDelete, "/api/tasks/t1", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if len(cal.deleted) != 0 {
		t.Errorf("external event was deleted: %v", cal.deleted)
	}
}

func TestDeleteUnknownTask(t *testing.T) {
	s := testServer(newMemRepo(), &memCal{}, nil, nil, nil)
	rec := doJSON(t, s, http.MethodDelete, "/api/tasks/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestPlanReturnsPassSummary(t *testing.T) {
	s := testServer(newMemRepo(), &memCal{}, nil, nil, nil)
	rec := doJSON(t, s, http.MethodPost, "/api/plan", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if _, ok := resp["considered"]; !ok {
		t.Errorf("summary missing considered: %v", resp)
	}
}

func TestSyncTriggersPipeline(t *testing.T) {
	called := make(chan string, 1)
	syncFn := func(_ context.Context, icsURL string, _ time.Time) error {
		called <- icsURL
		return nil
	}
	s := testServer(newMemRepo(), &memCal{}, nil, nil, syncFn)

	rec := doJSON(t, s, http.MethodPost, "/api/sync", `{"icsUrl":"https://canvas.example.com/feed.ics"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	select {
	case url := <-called:
		if url != "https://canvas.example.com/feed.ics" {
			t.Errorf("icsUrl = %q", url)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("sync was never invoked")
	}
}

func TestSyncWithoutSources(t *testing.T) {
	s := testServer(newMemRepo(), &memCal{}, nil, nil, nil)
	rec := doJSON(t, s, http.MethodPost, "/api/sync", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestDigestEndpoint(t *testing.T) {
	s := testServer(newMemRepo(), &memCal{}, nil, nil, nil)
	rec := doJSON(t, s, http.MethodGet, "/api/digest", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("content type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "Daily digest") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestQuestionName(t *testing.T) {
	cases := []struct {
		question string
		want     string
		ok       bool
	}{
		{"Who is Alex? Provide an email address.", "Alex", true},
		{"Who is Maria Lopez? Provide an email address.", "Maria Lopez", true},
		{"What time works?", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := questionName(tc.question)
		if got != tc.want || ok != tc.ok {
			t.Errorf("questionName(%q) = %q, %v; want %q, %v", tc.question, got, ok, tc.want, tc.ok)
		}
	}
}
