// Package tools declares the capabilities advertised to the language
// model. The registry is static data: the same two schemas are sent
// verbatim on every turn, and only the orchestrator may actually execute
// them.
package tools

// Tool names. These are the only values a well-behaved backend may put
// in a tool call; anything else is a protocol violation.
const (
	WebSearch        = "web_search"
	SummarizeContent = "summarize_content"
)

// Spec describes one callable tool: its name, a description for the
// model, and a JSON Schema for its parameters.
type Spec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// registry is the full static tool set, in advertisement order.
var registry = []Spec{
	{
		Name:        WebSearch,
		Description: "Searches the web for a given query and returns a list of search results (title, url, snippet).",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The search query.",
				},
			},
			"required": []string{"query"},
		},
	},
	{
		Name:        SummarizeContent,
		Description: "Summarizes a given text content based on a query.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The original query for which the content was gathered.",
				},
				"content": map[string]any{
					"type":        "string",
					"description": "The text content to summarize.",
				},
			},
			"required": []string{"query", "content"},
		},
	},
}

// Registry returns the static tool specs.
func Registry() []Spec {
	return registry
}

// Known reports whether name is a registered tool.
func Known(name string) bool {
	for _, t := range registry {
		if t.Name == name {
			return true
		}
	}
	return false
}

// Definitions renders the registry in the Ollama wire format, ready to
// attach to a chat request.
func Definitions() []map[string]any {
	defs := make([]map[string]any, 0, len(registry))
	for _, t := range registry {
		defs = append(defs, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        t.Name,
				"description": t.Description,
				"parameters":  t.Parameters,
			},
		})
	}
	return defs
}
