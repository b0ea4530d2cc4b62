// Package prompts holds the prompt templates sent to the language model.
// Keeping them in one place makes wording changes reviewable without
// touching adapter logic.
package prompts

import "fmt"

// Summary builds the single-shot summarization prompt for a query and
// the gathered content. The wording steers the model toward synthesis
// over speculation; sampling parameters do the rest.
func Summary(query, content string) string {
	return fmt.Sprintf(`You are a research assistant. Based on the following web search results for the query %q, provide a comprehensive, well-structured summary that synthesizes the key information. Focus on accuracy, clarity, and relevance.

Search Results:
%s

Please provide a clear, informative summary that addresses the user's query:`, query, content)
}

// SummaryFallback is returned to the user when the summarization backend
// is unavailable. The search results themselves still carry value, so
// the message explains what happened rather than failing the request.
func SummaryFallback(query string) string {
	return fmt.Sprintf("Based on the search results for %q, here's what I found: "+
		"The search returned several relevant sources covering different aspects of this topic. "+
		"The results include comprehensive guides, reference materials, and expert insights. "+
		"For the most accurate and up-to-date information, I recommend reviewing the individual sources provided below. "+
		"Please note: AI summarization is currently unavailable - check your Ollama connection.", query)
}
