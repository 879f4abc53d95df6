package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"timetable-service/internal/cache"
	"timetable-service/internal/schedule"
	"timetable-service/internal/timegrid"
)

// memRepo mirrors PostgresRepository: whole-schedule load, delta applied
// with deletes before upserts.
type memRepo struct {
	mu   sync.Mutex
	data map[string]Schedule
}

func newMemRepo() *memRepo {
	return &memRepo{data: make(map[string]Schedule)}
}

func (r *memRepo) Load(_ context.Context, teacherID string) (Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clone(teacherID), nil
}

func (r *memRepo) Mutate(_ context.Context, teacherID string, fn func(Schedule) (schedule.Delta, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, err := fn(r.clone(teacherID))
	if err != nil {
		return err
	}
	cur := r.data[teacherID]

	sessions := make(map[string]schedule.Session, len(cur.Sessions))
	for _, s := range cur.Sessions {
		sessions[s.ID] = s
	}
	for _, id := range d.Deleted {
		delete(sessions, id)
	}
	for _, s := range d.Upserted {
		sessions[s.ID] = s
	}
	templates := make(map[string]schedule.RecurringTemplate, len(cur.Templates))
	for _, t := range cur.Templates {
		templates[t.ID] = t
	}
	for _, id := range d.TemplatesDeleted {
		delete(templates, id)
	}
	for _, t := range d.TemplatesUpserted {
		templates[t.ID] = t
	}

	var next Schedule
	for _, s := range sessions {
		next.Sessions = append(next.Sessions, s)
	}
	for _, t := range templates {
		next.Templates = append(next.Templates, t)
	}
	r.data[teacherID] = next
	return nil
}

func (r *memRepo) clone(teacherID string) Schedule {
	cur := r.data[teacherID]
	return Schedule{
		Sessions:  append([]schedule.Session(nil), cur.Sessions...),
		Templates: append([]schedule.RecurringTemplate(nil), cur.Templates...),
	}
}

func (r *memRepo) sessions(teacherID string) []schedule.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clone(teacherID).Sessions
}

// countingCache is an in-memory cache that records invalidations.
type countingCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	revs    map[string]int64
	bumps   int
}

func (c *countingCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.entries[key]
	return b, ok, nil
}

func (c *countingCache) Set(_ context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = make(map[string][]byte)
	}
	c.entries[key] = value
	return nil
}

func (c *countingCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

func (c *countingCache) Revision(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.revs[key], nil
}

func (c *countingCache) Bump(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.revs == nil {
		c.revs = make(map[string]int64)
	}
	c.revs[key]++
	c.bumps++
	return c.revs[key], nil
}

func (c *countingCache) revision(teacherID string) int64 {
	rev, _ := c.Revision(context.Background(), cache.TimetableRevisionKey(teacherID))
	return rev
}

type testServer struct {
	app    *App
	repo   *memRepo
	router *gin.Engine
}

func newTestServer(t *testing.T, c cache.Cache) *testServer {
	t.Helper()
	if c == nil {
		c = cache.Nop{}
	}
	n := 0
	var mu sync.Mutex
	repo := newMemRepo()
	a := &App{
		Repo:  repo,
		Cache: c,
		Grid:  timegrid.Default(),
		Rules: schedule.DefaultRules(),
		Now:   func() time.Time { return time.Date(2026, 10, 12, 9, 0, 0, 0, time.UTC) },
		NewID: func() string {
			mu.Lock()
			defer mu.Unlock()
			n++
			return fmt.Sprintf("id-%d", n)
		},
	}
	router := gin.New()
	router.Use(RequestLogger(zap.NewNop()))
	a.RegisterRoutes(router)
	return &testServer{app: a, repo: repo, router: router}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, w.Code, w.Body.String())
	}
}

func sessionBody(day, start, end, classRef string) schedule.SessionInput {
	return schedule.SessionInput{ClassRef: classRef, Day: day, StartTime: start, EndTime: end, Room: "RoomA"}
}
