// Package summarizer turns gathered search content into a synthesized
// answer via the language-model completion endpoint. It is a soft
// boundary: every failure path degrades to a fixed fallback string so a
// dead backend never aborts a resolution.
package summarizer

import (
	"context"
	"log/slog"
	"time"

	"github.com/voyant-search/voyant/internal/llm"
	"github.com/voyant-search/voyant/internal/metrics"
	"github.com/voyant-search/voyant/internal/prompts"
)

// Sampling parameters lean deterministic: low temperature and tight
// nucleus sampling favor factual fidelity, and the prediction cap bounds
// cost and latency.
const (
	temperature = 0.3
	topP        = 0.9
	numPredict  = 500

	// callTimeout bounds a single summarization call. The backend's
	// latency is otherwise unbounded and would stall the resolution.
	callTimeout = 60 * time.Second
)

// Summarizer generates summaries through an LLM client.
type Summarizer struct {
	client llm.Client
	model  string
	logger *slog.Logger
}

// New creates a Summarizer using the given client and model.
func New(client llm.Client, model string, logger *slog.Logger) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarizer{
		client: client,
		model:  model,
		logger: logger.With("component", "summarizer"),
	}
}

// Summarize produces a summary of content with respect to query. It
// never returns an error: if the backend call fails or yields no text,
// the fixed fallback message is returned instead.
func (s *Summarizer) Summarize(ctx context.Context, query, content string) string {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	text, err := s.client.Generate(ctx, s.model, prompts.Summary(query, content), &llm.GenerateOptions{
		Temperature: temperature,
		TopP:        topP,
		NumPredict:  numPredict,
	})
	if err != nil {
		s.logger.Warn("summarization failed, using fallback",
			"model", s.model,
			"error", err,
		)
		metrics.RecordSummarize(false)
		return prompts.SummaryFallback(query)
	}
	if text == "" {
		s.logger.Warn("summarization returned empty text, using fallback", "model", s.model)
		metrics.RecordSummarize(false)
		return prompts.SummaryFallback(query)
	}

	metrics.RecordSummarize(true)
	return text
}
