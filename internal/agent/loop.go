// Package agent implements the query-resolution orchestrator: a bounded
// agentic loop that mediates between the language-model backend and the
// search and summarization adapters.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/voyant-search/voyant/internal/events"
	"github.com/voyant-search/voyant/internal/llm"
	"github.com/voyant-search/voyant/internal/metrics"
	"github.com/voyant-search/voyant/internal/search"
	"github.com/voyant-search/voyant/internal/summarizer"
	"github.com/voyant-search/voyant/internal/tools"
)

// maxIterations bounds the loop. A backend that keeps requesting tools
// without converging gets cut off here rather than spinning forever.
const maxIterations = 5

// resultSeparator joins rendered search results into rawContent.
const resultSeparator = "\n\n---\n\n"

// Resolution is the terminal artifact of one orchestration. Field names
// match the HTTP response envelope.
type Resolution struct {
	SearchResults []search.Result `json:"searchResults"`
	RawContent    string          `json:"rawContent"`
	Query         string          `json:"query"`
	AISummary     string          `json:"aiSummary"`
}

// Loop drives the bounded conversation with the backend and dispatches
// tool calls. One Loop serves many concurrent resolutions; all mutable
// state is local to a single Resolve call.
type Loop struct {
	llm        llm.Client
	search     *search.Adapter
	summarizer *summarizer.Summarizer
	model      string
	logger     *slog.Logger
	bus        *events.Bus
}

// NewLoop creates the orchestrator. bus may be nil.
func NewLoop(client llm.Client, searcher *search.Adapter, summ *summarizer.Summarizer, model string, logger *slog.Logger, bus *events.Bus) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		llm:        client,
		search:     searcher,
		summarizer: summ,
		model:      model,
		logger:     logger.With("component", "agent"),
		bus:        bus,
	}
}

// Resolve runs one full query resolution. It returns an error only for
// protocol violations (backend returned neither text nor a recognized
// tool call) or transport failures talking to the backend; adapter
// failures degrade softly inside the loop. Exhausting the iteration cap
// is not an error — the accumulated partial result is returned.
func (l *Loop) Resolve(ctx context.Context, query string) (*Resolution, error) {
	requestID := uuid.New().String()
	start := time.Now()
	logger := l.logger.With("request_id", requestID)

	logger.Info("resolution started", "query_len", len(query))
	l.bus.Publish(events.Event{
		Timestamp: time.Now().UTC(),
		Source:    events.SourceAgent,
		Kind:      events.KindResolutionStart,
		Data:      map[string]any{"request_id": requestID, "query_len": len(query)},
	})

	// The conversation is owned by this resolution alone; it starts
	// with the user's query and grows turn by turn.
	messages := []llm.Message{{Role: "user", Content: query}}

	res := &Resolution{
		SearchResults: []search.Result{},
		Query:         query,
	}

	outcome := metrics.OutcomeExhausted
	iterations := 0

	defer func() {
		elapsed := time.Since(start)
		metrics.RecordResolution(outcome, iterations, elapsed)
		l.bus.Publish(events.Event{
			Timestamp: time.Now().UTC(),
			Source:    events.SourceAgent,
			Kind:      events.KindResolutionComplete,
			Data: map[string]any{
				"request_id": requestID,
				"outcome":    outcome,
				"iterations": iterations,
				"results":    len(res.SearchResults),
				"elapsed_ms": elapsed.Milliseconds(),
			},
		})
	}()

	for i := 0; i < maxIterations; i++ {
		iterations = i + 1

		resp, err := l.llm.Chat(ctx, l.model, messages, tools.Definitions())
		if err != nil {
			outcome = metrics.OutcomeError
			return nil, fmt.Errorf("chat request (iteration %d): %w", iterations, err)
		}

		msg := resp.Message
		l.bus.Publish(events.Event{
			Timestamp: time.Now().UTC(),
			Source:    events.SourceAgent,
			Kind:      events.KindModelTurn,
			Data: map[string]any{
				"request_id":  requestID,
				"iter":        iterations,
				"tool_calls":  len(msg.ToolCalls),
				"content_len": len(msg.Content),
			},
		})

		switch {
		case len(msg.ToolCalls) > 0:
			// Only the first call is honored; extra calls in the same
			// turn are ignored to keep the protocol deterministic.
			call := msg.ToolCalls[0]
			if len(msg.ToolCalls) > 1 {
				logger.Debug("ignoring additional tool calls in turn",
					"honored", call.Function.Name,
					"ignored", len(msg.ToolCalls)-1,
				)
			}

			done, err := l.dispatch(ctx, logger, requestID, iterations, call, msg, &messages, res)
			if err != nil {
				outcome = metrics.OutcomeError
				return nil, err
			}
			if done {
				outcome = metrics.OutcomeOK
				logger.Info("resolution completed",
					"iterations", iterations,
					"results", len(res.SearchResults),
				)
				return res, nil
			}

		case msg.Content != "":
			// Free text is a final answer; no further tool use is
			// solicited for this resolution.
			res.AISummary = msg.Content
			outcome = metrics.OutcomeOK
			logger.Info("resolution completed with direct answer", "iterations", iterations)
			return res, nil

		default:
			outcome = metrics.OutcomeError
			return nil, fmt.Errorf("backend returned neither content nor tool calls (iteration %d)", iterations)
		}
	}

	// Iteration cap exhausted: degraded but non-fatal. Whatever was
	// accumulated goes back to the caller, possibly with an empty summary.
	logger.Warn("iteration cap exhausted",
		"iterations", iterations,
		"results", len(res.SearchResults),
	)
	return res, nil
}

// dispatch executes one tool call, appends the assistant and tool-result
// turns to the conversation, and reports whether the loop is done.
func (l *Loop) dispatch(ctx context.Context, logger *slog.Logger, requestID string, iter int, call llm.ToolCall, assistantMsg llm.Message, messages *[]llm.Message, res *Resolution) (bool, error) {
	name := call.Function.Name
	args := call.Function.Arguments

	metrics.RecordToolCall(name)
	l.bus.Publish(events.Event{
		Timestamp: time.Now().UTC(),
		Source:    events.SourceAgent,
		Kind:      events.KindToolCall,
		Data:      map[string]any{"request_id": requestID, "iter": iter, "tool": name},
	})
	toolStart := time.Now()

	switch name {
	case tools.WebSearch:
		query, _ := args["query"].(string)
		logger.Debug("dispatching web search", "tool_query", query)

		results := l.search.Results(ctx, query)
		res.SearchResults = results
		res.RawContent = joinResults(results)

		payload, err := json.Marshal(results)
		if err != nil {
			// Results are plain strings; this cannot realistically fail,
			// but the conversation needs a tool turn either way.
			payload = []byte("[]")
		}

		*messages = append(*messages, assistantMsg)
		*messages = append(*messages, llm.Message{Role: "tool", Content: string(payload)})

		l.publishToolDone(requestID, iter, name, true, toolStart)
		return false, nil

	case tools.SummarizeContent:
		query, _ := args["query"].(string)
		content, _ := args["content"].(string)
		logger.Debug("dispatching summarization", "content_len", len(content))

		// The backend may have reframed the query; honor its arguments
		// rather than the outer query.
		summary := l.summarizer.Summarize(ctx, query, content)
		res.AISummary = summary

		*messages = append(*messages, assistantMsg)
		*messages = append(*messages, llm.Message{Role: "tool", Content: summary})

		// A summarize call is the loop's natural exit signal.
		l.publishToolDone(requestID, iter, name, true, toolStart)
		return true, nil

	default:
		l.publishToolDone(requestID, iter, name, false, toolStart)
		return false, fmt.Errorf("unknown tool %q", name)
	}
}

func (l *Loop) publishToolDone(requestID string, iter int, tool string, ok bool, start time.Time) {
	l.bus.Publish(events.Event{
		Timestamp: time.Now().UTC(),
		Source:    events.SourceAgent,
		Kind:      events.KindToolDone,
		Data: map[string]any{
			"request_id":  requestID,
			"iter":        iter,
			"tool":        tool,
			"ok":          ok,
			"duration_ms": time.Since(start).Milliseconds(),
		},
	})
}

// joinResults renders search results as text blocks for the summarizer.
// An empty result set yields an empty string.
func joinResults(results []search.Result) string {
	if len(results) == 0 {
		return ""
	}

	blocks := make([]string, 0, len(results))
	for _, r := range results {
		blocks = append(blocks, fmt.Sprintf("Title: %s\nURL: %s\nContent: %s", r.Title, r.URL, r.Snippet))
	}
	return strings.Join(blocks, resultSeparator)
}
