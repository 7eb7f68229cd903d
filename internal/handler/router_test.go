package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"

	personaModel "github.com/zhouzirui/daycare-ai/backend/internal/model/persona"
	"github.com/zhouzirui/daycare-ai/backend/internal/service/agent"
	"github.com/zhouzirui/daycare-ai/backend/internal/service/ai"
	"github.com/zhouzirui/daycare-ai/backend/internal/service/knowledge"
	"github.com/zhouzirui/daycare-ai/backend/internal/store"
)

type replayStreamer struct {
	fragments []string
}

func (s replayStreamer) StreamChat(_ context.Context, _ []*schema.Message, _ ai.Options) (*schema.StreamReader[string], error) {
	return schema.StreamReaderFromArray(s.fragments), nil
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	repo, err := store.NewSQLite(store.MemoryPath)
	if err != nil {
		t.Fatalf("NewSQLite err: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	if err := store.SeedDemo(context.Background(), repo); err != nil {
		t.Fatalf("SeedDemo err: %v", err)
	}

	personas := personaModel.NewMemoryStore(personaModel.Seed())
	router, err := agent.NewRouter(repo, personas, agent.Runtime{
		Knowledge: knowledge.NewFetcher(repo),
		Chat:      replayStreamer{fragments: []string{"Temos ", "três turmas."}},
		Logger:    logger,
	})
	if err != nil {
		t.Fatalf("NewRouter err: %v", err)
	}

	return NewRouter(Dependencies{
		Personas:       personas,
		Dispatcher:     router,
		Knowledge:      repo,
		Health:         repo,
		AllowedOrigins: []string{"*"},
		Logger:         logger,
	})
}

func TestAnonymousChatEndToEnd(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"Quais turmas vocês têm?","conversationHistory":[]}`))
	resp := httptest.NewRecorder()
	srv.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	want := "data: {\"type\":\"text\",\"content\":\"Temos \"}\n\n" +
		"data: {\"type\":\"text\",\"content\":\"três turmas.\"}\n\n" +
		"data: {\"type\":\"done\"}\n\n"
	if got := resp.Body.String(); got != want {
		t.Fatalf("unexpected body %q", got)
	}
}

func TestRouteProtection(t *testing.T) {
	srv := newTestServer(t)

	cases := []struct {
		method, path, role string
		want               int
	}{
		{http.MethodGet, "/api/admin/knowledge", "", http.StatusUnauthorized},
		{http.MethodGet, "/api/admin/knowledge", "TEACHER", http.StatusForbidden},
		{http.MethodGet, "/api/admin/knowledge", "ADMIN", http.StatusOK},
		{http.MethodPost, "/api/teacher/interpret", "", http.StatusUnauthorized},
		{http.MethodPost, "/api/teacher/interpret", "PARENT", http.StatusForbidden},
		{http.MethodPost, "/api/teacher/interpret", "TEACHER", http.StatusServiceUnavailable},
		{http.MethodGet, "/api/personas", "", http.StatusOK},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(`{"text":"dormiu bem"}`))
		if tc.role != "" {
			req.Header.Set("X-User-Id", "u-1")
			req.Header.Set("X-User-Role", tc.role)
		}
		resp := httptest.NewRecorder()
		srv.ServeHTTP(resp, req)
		if resp.Code != tc.want {
			t.Fatalf("%s %s as %q: expected %d, got %d", tc.method, tc.path, tc.role, tc.want, resp.Code)
		}
	}
}

func TestHealthz(t *testing.T) {
	resp := httptest.NewRecorder()
	newTestServer(t).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	failing := NewRouter(Dependencies{
		Personas: personaModel.NewMemoryStore(nil),
		Health:   pingFunc(func(context.Context) error { return errors.New("db locked") }),
	})
	resp = httptest.NewRecorder()
	failing.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
}
