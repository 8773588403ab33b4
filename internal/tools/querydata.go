package tools

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/stravagpt/stravagpt/internal/llm"
)

// QueryDataExecutor runs declarative SQL queries against the activity table.
type QueryDataExecutor struct {
	table  QueryPort
	logger *slog.Logger
}

// NewQueryDataExecutor creates the query_data executor.
func NewQueryDataExecutor(log *slog.Logger, table QueryPort) *QueryDataExecutor {
	if log == nil {
		log = slog.Default()
	}
	return &QueryDataExecutor{
		table:  table,
		logger: log.With(slog.String("tool", "query_data")),
	}
}

// Declaration returns the query_data tool schema.
func (e *QueryDataExecutor) Declaration() llm.Tool {
	return llm.Tool{
		Type: "function",
		Function: llm.ToolFunction{
			Name:        "query_data",
			Description: "Query Strava Data using SQL Queries. Call this whenever you need to execute an SQL query on Strava data.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "The SQL query to execute",
					},
				},
				"required":             []string{"query"},
				"additionalProperties": false,
			},
		},
	}
}

// Execute runs the query and returns the rows as JSON. A malformed query is
// reported as an error result, never a crash.
func (e *QueryDataExecutor) Execute(ctx context.Context, args map[string]any) (Result, error) {
	query := StringArg(args, "query")
	if query == "" {
		return ErrorResult("query is required"), nil
	}
	rows, err := e.table.Query(ctx, query)
	if err != nil {
		e.logger.Debug("query rejected", slog.String("query", query), slog.Any("error", err))
		return ErrorResult("query failed: %v", err), nil
	}
	if rows == nil {
		rows = []map[string]any{}
	}
	payload, err := json.Marshal(rows)
	if err != nil {
		return ErrorResult("serialize rows: %v", err), nil
	}
	return Result{Content: string(payload)}, nil
}
