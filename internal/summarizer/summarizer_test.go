package summarizer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/voyant-search/voyant/internal/llm"
	"github.com/voyant-search/voyant/internal/prompts"
)

// fakeClient scripts the Generate call; the rest of the interface is
// unused here.
type fakeClient struct {
	response  string
	err       error
	gotModel  string
	gotPrompt string
	gotOpts   *llm.GenerateOptions
}

func (f *fakeClient) Chat(ctx context.Context, model string, messages []llm.Message, tools []map[string]any) (*llm.ChatResponse, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeClient) Generate(ctx context.Context, model, prompt string, opts *llm.GenerateOptions) (string, error) {
	f.gotModel = model
	f.gotPrompt = prompt
	f.gotOpts = opts
	return f.response, f.err
}

func (f *fakeClient) Ping(ctx context.Context) error { return nil }

func (f *fakeClient) ListModels(ctx context.Context) ([]string, error) { return nil, nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSummarize(t *testing.T) {
	client := &fakeClient{response: "a concise summary"}
	s := New(client, "test-model", discardLogger())

	got := s.Summarize(context.Background(), "go generics", "Title: ...\nContent: ...")
	if got != "a concise summary" {
		t.Errorf("Summarize() = %q", got)
	}
	if client.gotModel != "test-model" {
		t.Errorf("model = %q, want test-model", client.gotModel)
	}
	if !strings.Contains(client.gotPrompt, `"go generics"`) {
		t.Errorf("prompt does not embed the query: %q", client.gotPrompt)
	}
	if !strings.Contains(client.gotPrompt, "Title: ...") {
		t.Error("prompt does not embed the content")
	}
}

func TestSummarizeSamplingParameters(t *testing.T) {
	client := &fakeClient{response: "ok"}
	s := New(client, "m", discardLogger())
	s.Summarize(context.Background(), "q", "c")

	if client.gotOpts == nil {
		t.Fatal("no options passed to Generate")
	}
	if client.gotOpts.Temperature != 0.3 {
		t.Errorf("Temperature = %v, want 0.3", client.gotOpts.Temperature)
	}
	if client.gotOpts.TopP != 0.9 {
		t.Errorf("TopP = %v, want 0.9", client.gotOpts.TopP)
	}
	if client.gotOpts.NumPredict != 500 {
		t.Errorf("NumPredict = %v, want 500", client.gotOpts.NumPredict)
	}
}

func TestSummarizeFallbackOnError(t *testing.T) {
	client := &fakeClient{err: errors.New("connection refused")}
	s := New(client, "m", discardLogger())

	got := s.Summarize(context.Background(), "go generics", "content")
	want := prompts.SummaryFallback("go generics")
	if got != want {
		t.Errorf("Summarize() = %q, want fallback %q", got, want)
	}
}

func TestSummarizeFallbackOnEmptyText(t *testing.T) {
	client := &fakeClient{response: ""}
	s := New(client, "m", discardLogger())

	got := s.Summarize(context.Background(), "go generics", "content")
	if got != prompts.SummaryFallback("go generics") {
		t.Errorf("Summarize() = %q, want fallback", got)
	}
}

func TestFallbackMentionsOllama(t *testing.T) {
	// The fallback must be self-explanatory to an end user.
	got := prompts.SummaryFallback("anything")
	if !strings.Contains(got, "Ollama") {
		t.Errorf("fallback does not mention the backend: %q", got)
	}
}
