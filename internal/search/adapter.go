package search

import (
	"context"
	"log/slog"

	"github.com/voyant-search/voyant/internal/metrics"
)

// Adapter is the orchestrator's view of web search. It caps results and
// never returns an error: a missing credential, HTTP failure, malformed
// response, or unreachable network all resolve to an empty slice. The
// resolution continues and the summarizer explains the situation to the
// user instead of the whole request failing.
type Adapter struct {
	mgr    *Manager
	max    int
	logger *slog.Logger
}

// NewAdapter creates a soft-failing search adapter over mgr. max is the
// result cap; values below 1 fall back to 8.
func NewAdapter(mgr *Manager, max int, logger *slog.Logger) *Adapter {
	if max < 1 {
		max = 8
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		mgr:    mgr,
		max:    max,
		logger: logger.With("component", "search"),
	}
}

// Results runs the query against the primary provider and returns at
// most the configured cap of results. The returned slice is never nil.
func (a *Adapter) Results(ctx context.Context, query string) []Result {
	results, err := a.mgr.Search(ctx, query, Options{Count: a.max})
	if err != nil {
		a.logger.Warn("search failed, continuing with empty results",
			"query", query,
			"error", err,
		)
		metrics.RecordSearch(false)
		return []Result{}
	}

	metrics.RecordSearch(true)
	if len(results) > a.max {
		results = results[:a.max]
	}

	a.logger.Debug("search completed", "query", query, "results", len(results))
	if results == nil {
		return []Result{}
	}
	return results
}
