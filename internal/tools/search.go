package tools

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/stravagpt/stravagpt/internal/llm"
)

// SearchExecutor performs a web search through the configured provider.
// A nil searcher (no API key configured) reports the condition in-band.
type SearchExecutor struct {
	searcher Searcher
	logger   *slog.Logger
}

// NewSearchExecutor creates the search executor. searcher may be nil.
func NewSearchExecutor(log *slog.Logger, searcher Searcher) *SearchExecutor {
	if log == nil {
		log = slog.Default()
	}
	return &SearchExecutor{
		searcher: searcher,
		logger:   log.With(slog.String("tool", "search")),
	}
}

// Declaration returns the search tool schema.
func (e *SearchExecutor) Declaration() llm.Tool {
	return llm.Tool{
		Type: "function",
		Function: llm.ToolFunction{
			Name:        "search",
			Description: "Search the internet for information about the wider world.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "The query to search for",
					},
				},
				"required":             []string{"query"},
				"additionalProperties": false,
			},
		},
	}
}

// Execute runs the search and returns the ranked results as JSON.
func (e *SearchExecutor) Execute(ctx context.Context, args map[string]any) (Result, error) {
	if e.searcher == nil {
		return ErrorResult("search is not configured"), nil
	}
	query := StringArg(args, "query")
	if query == "" {
		return ErrorResult("query is required"), nil
	}
	response, err := e.searcher.Search(ctx, query)
	if err != nil {
		e.logger.Debug("search failed", slog.String("query", query), slog.Any("error", err))
		return ErrorResult("search failed: %v", err), nil
	}
	payload, err := json.Marshal(response)
	if err != nil {
		return ErrorResult("serialize search results: %v", err), nil
	}
	return Result{Content: string(payload)}, nil
}
