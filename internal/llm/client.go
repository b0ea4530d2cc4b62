// Package llm provides the language-model backend client.
package llm

import "context"

// Client is the interface the orchestrator and HTTP boundary depend on.
// The concrete implementation talks to Ollama; tests substitute fakes.
type Client interface {
	// Chat sends a non-streaming chat completion request with the given
	// tool schemas and returns the backend's response.
	Chat(ctx context.Context, model string, messages []Message, tools []map[string]any) (*ChatResponse, error)

	// Generate sends a single-shot completion prompt and returns the
	// generated text.
	Generate(ctx context.Context, model, prompt string, opts *GenerateOptions) (string, error)

	// Ping checks if the backend is reachable.
	Ping(ctx context.Context) error

	// ListModels returns the names of available models.
	ListModels(ctx context.Context) ([]string, error)
}
