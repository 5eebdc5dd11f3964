package tools

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// SearchInput defines the input schema for the search_terms tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"required,Text to rank ontology terms against"`
	Limit int    `json:"limit,omitempty" jsonschema:"Max results 1-50, default 10"`
}

// termOutput is one ranked term in the search response.
type termOutput struct {
	ClassID    string `json:"class_id"`
	Label      string `json:"label"`
	Category   string `json:"category"`
	Definition string `json:"definition,omitempty"`
	Score      int    `json:"score"`
}

// NewSearchHandler creates the search_terms tool handler. It exposes the
// same lexical-overlap prefilter a match run uses, without any LLM call.
func NewSearchHandler(deps *Dependencies) mcp.ToolHandlerFor[SearchInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SearchInput) (
		*mcp.CallToolResult, any, error,
	) {
		if input.Query == "" {
			return ErrorResult("Query cannot be empty", "Provide text to rank terms against"), nil, nil
		}

		limit := input.Limit
		if limit <= 0 {
			limit = 10
		}
		if limit > 50 {
			return ErrorResult("Limit must be 1-50", "Reduce limit value"), nil, nil
		}

		candidates := deps.Selector.Select(input.Query)
		if len(candidates) > limit {
			candidates = candidates[:limit]
		}

		out := make([]termOutput, 0, len(candidates))
		for _, c := range candidates {
			out = append(out, termOutput{
				ClassID:    c.Term.ID,
				Label:      c.Term.Label,
				Category:   string(c.Term.Category),
				Definition: c.Term.Definition,
				Score:      c.Score,
			})
		}

		jsonBytes, _ := json.MarshalIndent(out, "", "  ")

		queryLog := input.Query
		if len(queryLog) > 30 {
			queryLog = queryLog[:30] + "..."
		}
		deps.Logger.Info("term search completed", "query", queryLog, "results", len(out))
		return TextResult(string(jsonBytes)), nil, nil
	}
}
