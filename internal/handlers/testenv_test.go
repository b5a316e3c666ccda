package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/benvon/study-planner/internal/calendar"
	"github.com/benvon/study-planner/internal/database/memstore"
	"github.com/benvon/study-planner/internal/middleware"
	"github.com/benvon/study-planner/internal/models"
	"github.com/benvon/study-planner/internal/progress"
	"github.com/benvon/study-planner/internal/queue"
	"github.com/benvon/study-planner/internal/services/ai"
	"github.com/gorilla/mux"
)

// fixedNow is Monday 2025-03-10 08:00 UTC
var fixedNow = time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)

// recordingQueue captures enqueued jobs. Only Enqueue and HealthCheck are implemented.
type recordingQueue struct {
	queue.JobQueue

	mu          sync.Mutex
	jobs        []*queue.Job
	enqueueFunc func(job *queue.Job) error
}

func (q *recordingQueue) Enqueue(ctx context.Context, job *queue.Job) error {
	if q.enqueueFunc != nil {
		if err := q.enqueueFunc(job); err != nil {
			return err
		}
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *recordingQueue) HealthCheck(ctx context.Context) error { return nil }

func (q *recordingQueue) enqueued() []*queue.Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]*queue.Job(nil), q.jobs...)
}

// handlerEnv is the API mounted on a seeded in-memory store, authenticated as the dev user
type handlerEnv struct {
	router   *mux.Router
	store    *memstore.Store
	calendar *calendar.Service
	queue    *recordingQueue
	user     *models.User
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()

	store := memstore.New(nil)
	user, err := store.Seed(context.Background())
	if err != nil {
		t.Fatalf("failed to seed store: %v", err)
	}

	svc := calendar.NewService(
		store.Schedules(),
		store.Journeys(),
		store.Conflicts(),
		store.Todos(),
		calendar.NewPreferencesService(store.Preferences(), nil),
		nil,
	)
	svc.SetClock(func() time.Time { return fixedNow })

	syncer := progress.NewService(store.LearningPaths(), store.Todos(), nil)
	syncer.SetClock(func() time.Time { return fixedNow })

	jobQueue := &recordingQueue{}
	todos := NewTodoHandler(store.Todos(), svc, jobQueue, nil)
	todos.now = func() time.Time { return fixedNow }

	env := &handlerEnv{router: mux.NewRouter(), store: store, calendar: svc, queue: jobQueue, user: user}

	api := env.router.PathPrefix("/api/v1").Subrouter()
	api.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("X-Anonymous") != "" {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(middleware.SetUserInContext(r.Context(), env.user)))
		})
	})
	NewScheduleHandler(svc, nil).RegisterRoutes(api.PathPrefix("/schedules").Subrouter())
	NewPreferencesHandler(svc.Preferences(), nil).RegisterRoutes(api.PathPrefix("/preferences").Subrouter())
	todos.RegisterRoutes(api.PathPrefix("/todos").Subrouter())
	NewPathHandler(store.LearningPaths(), syncer, nil).RegisterRoutes(api.PathPrefix("/paths").Subrouter())
	NewAssistantHandler(ai.NewAssistantService(nil, svc, nil, nil)).RegisterRoutes(api.PathPrefix("/assistant").Subrouter())
	NewAuthHandler(store.Journeys(), nil).RegisterRoutes(api.PathPrefix("/auth").Subrouter())
	return env
}

// do sends a request through the router. body may be nil, a string (sent raw) or any JSON value.
func (e *handlerEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

// envelope is the decoded response wrapper
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Raw     map[string]json.RawMessage
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to decode envelope %q: %v", rr.Body.String(), err)
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &env.Raw); err != nil {
		t.Fatalf("failed to decode envelope fields: %v", err)
	}
	return env
}

func decodeData[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	env := decodeEnvelope(t, rr)
	if !env.Success {
		t.Fatalf("expected success, got %d %s", rr.Code, rr.Body.String())
	}
	if err := json.Unmarshal(env.Data, &out); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}
	return out
}

func scheduleBody(date, start string, duration int) map[string]any {
	return map[string]any{
		"scheduled_date":   date,
		"task_type":        "video",
		"title":            "Watch " + start,
		"start_time":       start,
		"duration_minutes": duration,
	}
}
