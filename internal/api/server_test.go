package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/voyant-search/voyant/internal/agent"
	"github.com/voyant-search/voyant/internal/events"
	"github.com/voyant-search/voyant/internal/history"
	"github.com/voyant-search/voyant/internal/llm"
	"github.com/voyant-search/voyant/internal/search"
)

// fakeResolver scripts Resolve.
type fakeResolver struct {
	res      *agent.Resolution
	err      error
	gotQuery string
}

func (f *fakeResolver) Resolve(ctx context.Context, query string) (*agent.Resolution, error) {
	f.gotQuery = query
	return f.res, f.err
}

// fakeLLM scripts ListModels for the health endpoint.
type fakeLLM struct {
	models []string
	err    error
}

func (f *fakeLLM) Chat(ctx context.Context, model string, messages []llm.Message, tools []map[string]any) (*llm.ChatResponse, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeLLM) Generate(ctx context.Context, model, prompt string, opts *llm.GenerateOptions) (string, error) {
	return "", errors.New("not implemented")
}

func (f *fakeLLM) Ping(ctx context.Context) error { return f.err }

func (f *fakeLLM) ListModels(ctx context.Context) ([]string, error) { return f.models, f.err }

func newTestServer(resolver Resolver, client llm.Client, hist *history.Store, bus *events.Bus) *Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer("", 0, resolver, client, "http://127.0.0.1:11434", hist, bus, logger)
}

func postSearch(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestSearchValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"malformed JSON", "{not json"},
		{"missing query", `{}`},
		{"null query", `{"query": null}`},
		{"numeric query", `{"query": 42}`},
		{"object query", `{"query": {"nested": true}}`},
		{"empty string query", `{"query": ""}`},
	}

	srv := newTestServer(&fakeResolver{}, &fakeLLM{}, nil, nil)
	handler := srv.Handler()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postSearch(t, handler, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			var resp map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("response is not JSON: %v", err)
			}
			if resp["error"] != "Query is required and must be a string" {
				t.Errorf("error = %q", resp["error"])
			}
		})
	}
}

func TestSearchSuccess(t *testing.T) {
	resolver := &fakeResolver{res: &agent.Resolution{
		SearchResults: []search.Result{{Title: "T", URL: "U", Snippet: "S"}},
		RawContent:    "Title: T\nURL: U\nContent: S",
		Query:         "go testing",
		AISummary:     "a summary",
	}}
	hist := history.NewStore(10)
	srv := newTestServer(resolver, &fakeLLM{}, hist, nil)

	rec := postSearch(t, srv.Handler(), `{"query": "go testing"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	if resolver.gotQuery != "go testing" {
		t.Errorf("resolver received %q", resolver.gotQuery)
	}

	var envelope struct {
		SearchResults []search.Result `json:"searchResults"`
		RawContent    string          `json:"rawContent"`
		Query         string          `json:"query"`
		AISummary     string          `json:"aiSummary"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if len(envelope.SearchResults) != 1 || envelope.SearchResults[0].Title != "T" {
		t.Errorf("searchResults = %v", envelope.SearchResults)
	}
	if envelope.Query != "go testing" || envelope.AISummary != "a summary" {
		t.Errorf("envelope = %+v", envelope)
	}

	if hist.Len() != 1 {
		t.Fatalf("history has %d entries, want 1", hist.Len())
	}
	entry := hist.Recent(1)[0]
	if entry.Query != "go testing" || entry.ResultCount != 1 {
		t.Errorf("history entry = %+v", entry)
	}
}

func TestSearchEmptyResultsStayNonNull(t *testing.T) {
	resolver := &fakeResolver{res: &agent.Resolution{
		SearchResults: []search.Result{},
		Query:         "q",
		AISummary:     "direct answer",
	}}
	srv := newTestServer(resolver, &fakeLLM{}, nil, nil)

	rec := postSearch(t, srv.Handler(), `{"query": "q"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	// searchResults must serialize as [] rather than null.
	if !strings.Contains(rec.Body.String(), `"searchResults":[]`) {
		t.Errorf("body = %s, want searchResults as empty array", rec.Body)
	}
}

func TestSearchFailureIsOpaque(t *testing.T) {
	resolver := &fakeResolver{err: fmt.Errorf("chat request (iteration 2): dial tcp 127.0.0.1:11434: connect: connection refused")}
	srv := newTestServer(resolver, &fakeLLM{}, nil, nil)

	rec := postSearch(t, srv.Handler(), `{"query": "q"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["error"] != "Failed to perform search" {
		t.Errorf("error = %q", resp["error"])
	}
	// Internal detail must not leak to the client.
	if strings.Contains(rec.Body.String(), "127.0.0.1") {
		t.Errorf("response leaks internal error detail: %s", rec.Body)
	}
}

func TestHealthConnected(t *testing.T) {
	srv := newTestServer(&fakeResolver{}, &fakeLLM{models: []string{"llama3.2"}}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "healthy" || resp.Ollama.Status != "connected" {
		t.Errorf("health = %+v", resp)
	}
	if len(resp.Ollama.Models) != 1 || resp.Ollama.Models[0] != "llama3.2" {
		t.Errorf("models = %v", resp.Ollama.Models)
	}
	if resp.Timestamp == "" {
		t.Error("missing timestamp")
	}
}

func TestHealthDisconnected(t *testing.T) {
	// The backend answered with a non-200: reachable but unhappy.
	client := &fakeLLM{err: fmt.Errorf("%w 503", llm.ErrStatus)}
	srv := newTestServer(&fakeResolver{}, client, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "healthy" || resp.Ollama.Status != "disconnected" {
		t.Errorf("health = %+v", resp)
	}
}

func TestHealthUnhealthy(t *testing.T) {
	client := &fakeLLM{err: errors.New("dial tcp: connection refused")}
	srv := newTestServer(&fakeResolver{}, client, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var resp healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "unhealthy" || resp.Ollama.Status != "error" {
		t.Errorf("health = %+v", resp)
	}
	if resp.Ollama.Error == "" {
		t.Error("missing error detail")
	}
}

func TestHistoryEndpoint(t *testing.T) {
	hist := history.NewStore(10)
	hist.Add(history.Entry{ID: "1", Query: "first"})
	hist.Add(history.Entry{ID: "2", Query: "second"})

	srv := newTestServer(&fakeResolver{}, &fakeLLM{}, hist, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/history?limit=1", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Entries []history.Entry `json:"entries"`
		Count   int             `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Count != 1 || len(resp.Entries) != 1 {
		t.Fatalf("count = %d, entries = %d, want 1 each", resp.Count, len(resp.Entries))
	}
	if resp.Entries[0].ID != "2" {
		t.Errorf("entry = %+v, want newest first", resp.Entries[0])
	}
}

func TestHistoryEndpointWithoutStore(t *testing.T) {
	srv := newTestServer(&fakeResolver{}, &fakeLLM{}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/history", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"entries":[]`) {
		t.Errorf("body = %s, want empty entries array", rec.Body)
	}
}

func TestEventsWithoutBus(t *testing.T) {
	srv := newTestServer(&fakeResolver{}, &fakeLLM{}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/events", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestRootAndVersion(t *testing.T) {
	srv := newTestServer(&fakeResolver{}, &fakeLLM{}, nil, nil)
	handler := srv.Handler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("GET / status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Voyant") {
		t.Errorf("root body = %s", rec.Body)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/version", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("GET /v1/version status = %d, want 200", rec.Code)
	}
	var info map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatalf("version body is not JSON: %v", err)
	}
}

func TestMethodRouting(t *testing.T) {
	srv := newTestServer(&fakeResolver{}, &fakeLLM{}, nil, nil)
	handler := srv.Handler()

	// GET on /search is not routed.
	req := httptest.NewRequest(http.MethodGet, "/search", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code == http.StatusOK {
		t.Errorf("GET /search status = %d, want non-200", rec.Code)
	}
}
