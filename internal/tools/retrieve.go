// ABOUTME: Document retrieval tool bound to the per-thread index manager
// ABOUTME: Reads the active thread key from the request context
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/akshith/chatkit/internal/retrieval"
)

// Retriever is the slice of the index manager this tool needs.
type Retriever interface {
	Query(ctx context.Context, threadKey, text string, k int) ([]retrieval.Result, error)
}

// RetrieveDocument searches the uploaded document for the active thread.
type RetrieveDocument struct {
	Retriever Retriever
	TopK      int
}

type retrieveArgs struct {
	Query string `json:"query"`
}

func (RetrieveDocument) Name() string { return "retrieve_document" }

func (RetrieveDocument) Description() string {
	return "Search the document uploaded to this conversation and return the most relevant passages."
}

func (RetrieveDocument) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "What to look for in the uploaded document",
			},
		},
		"required": []string{"query"},
	}
}

func (t RetrieveDocument) Invoke(ctx context.Context, args json.RawMessage) (any, error) {
	var parsed retrieveArgs
	if err := json.Unmarshal(args, &parsed); err != nil {
		return nil, fmt.Errorf("invalid retrieval arguments: %w", err)
	}
	query := strings.TrimSpace(parsed.Query)
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}

	threadKey := ThreadKeyFromContext(ctx)
	if threadKey == "" {
		return nil, fmt.Errorf("no active thread")
	}

	k := t.TopK
	if k <= 0 {
		k = 3
	}

	results, err := t.Retriever.Query(ctx, threadKey, query, k)
	if err != nil {
		return nil, err
	}

	type passage struct {
		Text   string  `json:"text"`
		Source string  `json:"source"`
		Score  float64 `json:"score"`
	}
	passages := make([]passage, 0, len(results))
	for _, r := range results {
		passages = append(passages, passage{Text: r.Content, Source: r.Source, Score: r.Score})
	}

	return map[string]any{
		"query":    query,
		"passages": passages,
	}, nil
}
