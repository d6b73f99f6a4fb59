package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/doeshing/zai-go/internal/domain"
	"github.com/doeshing/zai-go/internal/infrastructure/cache"
	"github.com/doeshing/zai-go/internal/ports"
)

type stubCompleter struct {
	mu         sync.Mutex
	calls      int
	suggestion string
	source     domain.SuggestionSource
	err        error
}

func (c *stubCompleter) Complete(ctx context.Context, req domain.CompletionRequest) (string, domain.SuggestionSource, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return "", "", c.err
	}
	return c.suggestion, c.source, nil
}

type memoryStore struct {
	mu      sync.Mutex
	records []domain.SuggestionRecord
}

func (m *memoryStore) Save(record domain.SuggestionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, record)
	return nil
}

func (m *memoryStore) Records(limit int, search string) ([]domain.SuggestionRecord, error) {
	return m.records, nil
}
func (m *memoryStore) Clear() error { return nil }
func (m *memoryStore) Path() string { return "memory" }

type nopLogger struct{}

func (nopLogger) Debug(string, map[string]interface{})        {}
func (nopLogger) Info(string, map[string]interface{})         {}
func (nopLogger) Warn(string, map[string]interface{})         {}
func (nopLogger) Error(string, error, map[string]interface{}) {}

func newTestService(completer *stubCompleter, suggestionCache *cache.SuggestionCache, store *memoryStore) http.Handler {
	var s ports.SuggestionStore
	if store != nil {
		s = store
	}
	return New(completer, suggestionCache, s, nopLogger{}).Handler()
}

func postComplete(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/complete", bytes.NewReader([]byte(body)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func TestHealthEndpoint(t *testing.T) {
	handler := newTestService(&stubCompleter{}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("GET /health = %d, want 200", rec.Code)
	}
	if body := decodeBody(t, rec); body["status"] != "ok" {
		t.Errorf("health body = %v", body)
	}
}

func TestCompleteHappyPath(t *testing.T) {
	completer := &stubCompleter{suggestion: "git status", source: domain.SourceServer}
	store := &memoryStore{}
	handler := newTestService(completer, nil, store)

	rec := postComplete(t, handler, `{"prefix":"git","clipboard":{"type":"text","value":""},"history":[]}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("POST /complete = %d, want 200; body %s", rec.Code, rec.Body)
	}
	if body := decodeBody(t, rec); body["suggestion"] != "git status" {
		t.Errorf("suggestion = %q", body["suggestion"])
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if len(store.records) != 1 || store.records[0].Source != domain.SourceServer {
		t.Errorf("store records = %+v, want one server-sourced entry", store.records)
	}
}

func TestCompleteRejectsMalformedJSON(t *testing.T) {
	handler := newTestService(&stubCompleter{}, nil, nil)

	rec := postComplete(t, handler, `{"prefix": git`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed body = %d, want 400", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "bad_json" {
		t.Errorf("error code = %q, want bad_json", body["error"])
	}
}

func TestCompleteRejectsUnknownPrefix(t *testing.T) {
	completer := &stubCompleter{}
	handler := newTestService(completer, nil, nil)

	rec := postComplete(t, handler, `{"prefix":"rm","clipboard":{"type":"text","value":""}}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown prefix = %d, want 400", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "bad_prefix" {
		t.Errorf("error code = %q, want bad_prefix", body["error"])
	}
	if completer.calls != 0 {
		t.Errorf("completer called %d times for rejected prefix", completer.calls)
	}
}

func TestEndpointsRejectWrongMethods(t *testing.T) {
	completer := &stubCompleter{suggestion: "ls -l", source: domain.SourceServer}
	handler := newTestService(completer, nil, nil)

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/health"},
		{http.MethodDelete, "/health"},
		{http.MethodGet, "/complete"},
		{http.MethodPut, "/complete"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("%s %s = %d, want 404", tc.method, tc.path, rec.Code)
		}
		if body := decodeBody(t, rec); body["error"] != "not_found" {
			t.Errorf("%s %s error code = %q, want not_found", tc.method, tc.path, body["error"])
		}
	}
	if completer.calls != 0 {
		t.Errorf("completer called %d times for wrong-method requests", completer.calls)
	}
}

func TestUnknownRouteReturnsNotFound(t *testing.T) {
	handler := newTestService(&stubCompleter{}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("GET /nope = %d, want 404", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "not_found" {
		t.Errorf("error code = %q, want not_found", body["error"])
	}
}

func TestCompleteUsesCache(t *testing.T) {
	completer := &stubCompleter{suggestion: "docker ps -a", source: domain.SourceServer}
	suggestionCache := cache.NewSuggestionCache(time.Minute, 10)
	defer suggestionCache.Stop()
	store := &memoryStore{}
	handler := newTestService(completer, suggestionCache, store)

	body := `{"prefix":"docker","clipboard":{"type":"text","value":""},"history":["docker images"]}`
	first := postComplete(t, handler, body)
	second := postComplete(t, handler, body)

	if first.Code != http.StatusOK || second.Code != http.StatusOK {
		t.Fatalf("statuses = %d, %d", first.Code, second.Code)
	}
	if completer.calls != 1 {
		t.Errorf("completer called %d times, want 1 (second hit served from cache)", completer.calls)
	}
	if got := decodeBody(t, second); got["suggestion"] != "docker ps -a" {
		t.Errorf("cached suggestion = %q", got["suggestion"])
	}
	if len(store.records) != 2 || store.records[1].Source != domain.SourceCache {
		t.Errorf("second record should be cache-sourced, got %+v", store.records)
	}
}

func TestCompleteSkipsCachingFallbacks(t *testing.T) {
	completer := &stubCompleter{suggestion: "ls -l", source: domain.SourceFallback}
	suggestionCache := cache.NewSuggestionCache(time.Minute, 10)
	defer suggestionCache.Stop()
	handler := newTestService(completer, suggestionCache, nil)

	body := `{"prefix":"ls","clipboard":{"type":"text","value":""}}`
	postComplete(t, handler, body)
	postComplete(t, handler, body)

	if completer.calls != 2 {
		t.Errorf("completer called %d times, want 2 (fallbacks are not cached)", completer.calls)
	}
}

func TestCompleteConcurrentRequests(t *testing.T) {
	completer := &stubCompleter{suggestion: "kubectl get pods", source: domain.SourceServer}
	handler := newTestService(completer, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := postComplete(t, handler, `{"prefix":"kubectl","clipboard":{"type":"text","value":""}}`)
			if rec.Code != http.StatusOK {
				t.Errorf("concurrent POST = %d", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), "kubectl get pods") {
				t.Errorf("unexpected body %s", rec.Body)
			}
		}()
	}
	wg.Wait()

	if completer.calls != 8 {
		t.Errorf("completer calls = %d, want 8", completer.calls)
	}
}
