// Package server exposes the assistant over HTTP. Handlers delegate to
// the orchestrator and collaborators; a handler failure is reported as
// a JSON error, never a crash.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/tempoplan/tempo/internal/calendar"
	"github.com/tempoplan/tempo/internal/contacts"
	"github.com/tempoplan/tempo/internal/digest"
	"github.com/tempoplan/tempo/internal/extractor"
	"github.com/tempoplan/tempo/internal/orchestrator"
	"github.com/tempoplan/tempo/internal/task"
)

// SyncFunc runs a full ingestion sync. The server triggers it in the
// background from POST /api/sync.
type SyncFunc func(ctx context.Context, icsURL string, now time.Time) error

// Server routes HTTP requests to the engine.
type Server struct {
	repo task.Repository
	orch *orchestrator.Orchestrator
	ex   *extractor.Extractor
	book *contacts.Book
	cal  calendar.Adapter
	sync SyncFunc
	loc  *time.Location
	now  func() time.Time
	mux  *http.ServeMux
}

// New wires the routes. sync may be nil when no ingestion sources are
// configured; POST /api/sync then reports the sync as unavailable.
func New(repo task.Repository, orch *orchestrator.Orchestrator, ex *extractor.Extractor, book *contacts.Book, cal calendar.Adapter, sync SyncFunc, loc *time.Location) *Server {
	if loc == nil {
		loc = time.Local
	}
	s := &Server{
		repo: repo,
		orch: orch,
		ex:   ex,
		book: book,
		cal:  cal,
		sync: sync,
		loc:  loc,
		now:  time.Now,
		mux:  http.NewServeMux(),
	}

	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/tasks", s.handleListTasks)
	s.mux.HandleFunc("POST /api/parse", s.handleParse)
	s.mux.HandleFunc("POST /api/sync", s.handleSync)
	s.mux.HandleFunc("POST /api/plan", s.handlePlan)
	s.mux.HandleFunc("POST /api/clarify", s.handleClarify)
	s.mux.HandleFunc("DELETE /api/tasks/{id}", s.handleDeleteTask)
	s.mux.HandleFunc("GET /api/digest", s.handleDigest)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListTasks returns every task with its bucket recomputed for
// the current clock, so a stale stored bucket never reaches a client.
func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.repo.ListTasks(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "listing tasks: "+err.Error())
		return
	}
	now := s.now().In(s.loc)
	for _, t := range tasks {
		t.Bucket = orchestrator.Classify(t, now)
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

type parseRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	if s.ex == nil {
		writeError(w, http.StatusServiceUnavailable, "no language model is configured")
		return
	}
	var req parseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	now := s.now().In(s.loc)
	tasks, err := s.ex.FromText(r.Context(), req.Text, now)
	if err != nil {
		writeError(w, http.StatusBadGateway, "extracting tasks: "+err.Error())
		return
	}
	for _, t := range tasks {
		if err := s.repo.CreateTask(r.Context(), t); err != nil {
			writeError(w, http.StatusInternalServerError, "saving task: "+err.Error())
			return
		}
	}
	s.orch.RunAsync(context.WithoutCancel(r.Context()))
	writeJSON(w, http.StatusAccepted, map[string]any{"tasks": tasks})
}

type syncRequest struct {
	ICSURL string `json:"icsUrl"`
}

// handleSync kicks off a full ingestion sync followed by a scheduling
// pass. The work outlives the request, so the response only confirms
// the trigger.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if s.sync == nil {
		writeError(w, http.StatusServiceUnavailable, "sync sources are not configured")
		return
	}
	var req syncRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
			return
		}
	}

	ctx := context.WithoutCancel(r.Context())
	go func() {
		if err := s.sync(ctx, req.ICSURL, s.now().In(s.loc)); err != nil {
			log.Printf("server: sync: %v", err)
		}
		if _, err := s.orch.Run(ctx); err != nil {
			log.Printf("server: post-sync pass: %v", err)
		}
	}()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "sync started"})
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	summary, err := s.orch.Run(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "scheduling pass: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"considered": summary.Considered,
		"placed":     summary.Placed,
		"skipped":    summary.Skipped,
	})
}

type clarifyRequest struct {
	TaskID string `json:"taskId"`
	Answer string `json:"answer"`
}

// handleClarify resolves a pending question. For a "who is X" question
// the answer is an email address: the contact is learned, the task is
// unblocked, and a pass is triggered to schedule it.
func (s *Server) handleClarify(w http.ResponseWriter, r *http.Request) {
	var req clarifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.TaskID == "" || strings.TrimSpace(req.Answer) == "" {
		writeError(w, http.StatusBadRequest, "taskId and answer are required")
		return
	}

	t, err := s.repo.GetTask(r.Context(), req.TaskID)
	if err != nil {
		writeTaskError(w, err)
		return
	}
	if !t.NeedsClarification {
		writeError(w, http.StatusConflict, "task has no pending question")
		return
	}

	if name, ok := questionName(t.PendingQuestion); ok && s.book != nil {
		s.book.Learn(name, strings.TrimSpace(req.Answer))
	}
	t.NeedsClarification = false
	t.PendingQuestion = ""
	if err := s.repo.UpdateTask(r.Context(), t); err != nil {
		writeError(w, http.StatusInternalServerError, "saving task: "+err.Error())
		return
	}
	s.orch.RunAsync(context.WithoutCancel(r.Context()))
	writeJSON(w, http.StatusOK, map[string]any{"task": t})
}

// handleDeleteTask removes a task. An event booked by the engine is
// deleted with it; events the engine only mirrored are left alone.
func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	t, err := s.repo.GetTask(r.Context(), id)
	if err != nil {
		writeTaskError(w, err)
		return
	}

	if t.CalendarEventID != "" && !t.IsExternal && s.cal != nil {
		if err := s.cal.DeleteEvent(r.Context(), t.CalendarEventID); err != nil {
			log.Printf("server: deleting event %s: %v", t.CalendarEventID, err)
		}
	}
	if err := s.repo.DeleteTask(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "deleting task: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDigest(w http.ResponseWriter, r *http.Request) {
	d, err := digest.Build(r.Context(), s.repo, s.cal, s.now().In(s.loc))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "building digest: "+err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(d.Render()))
}

// questionName pulls the contact name out of a "Who is X? ..." prompt.
func questionName(question string) (string, bool) {
	const prefix = "Who is "
	if !strings.HasPrefix(question, prefix) {
		return "", false
	}
	rest := strings.TrimPrefix(question, prefix)
	if i := strings.IndexByte(rest, '?'); i > 0 {
		return rest[:i], true
	}
	return "", false
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("server: encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeTaskError(w http.ResponseWriter, err error) {
	if errors.Is(err, task.ErrTaskNotFound) {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
