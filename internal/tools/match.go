package tools

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bioforge/edamatch-go/internal/llm"
	"github.com/bioforge/edamatch-go/internal/models"
)

// descLogLen caps the description fragment written to the log.
const descLogLen = 200

// MatchInput defines the input schema for the edam_match tool.
type MatchInput struct {
	Name        string `json:"name" jsonschema:"required,Package name"`
	Description string `json:"description" jsonschema:"required,Free-text package description to annotate"`
}

// NewMatchHandler creates the edam_match tool handler. It runs the full
// pipeline: candidate selection, delegate call, validation, and suggestion
// escalation for low-confidence matches.
func NewMatchHandler(deps *Dependencies) mcp.ToolHandlerFor[MatchInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input MatchInput) (
		*mcp.CallToolResult, any, error,
	) {
		if input.Name == "" {
			return ErrorResult("Package name cannot be empty", "Provide a name"), nil, nil
		}
		if input.Description == "" {
			return ErrorResult("Description cannot be empty", "Provide the package description text"), nil, nil
		}

		rec := models.PackageRecord{Name: input.Name, Description: input.Description}
		result, err := deps.Match.Match(ctx, rec)
		if err != nil {
			deps.Logger.Error("match failed", "package", input.Name, "error", err)
			if errors.Is(err, llm.ErrFatalAPI) {
				return ErrorResult("LLM API rejected the request", "Check API key and billing"), nil, nil
			}
			return ErrorResult("Match failed", "Retry or check the configured provider"), nil, nil
		}

		jsonBytes, _ := json.MarshalIndent(
			models.PackageMatch{Name: rec.Name, Description: rec.Description, Match: result}, "", "  ")

		descLog := input.Description
		if len(descLog) > descLogLen {
			descLog = descLog[:descLogLen] + "..."
		}
		deps.Logger.Info("match completed",
			"package", input.Name,
			"description", descLog,
			"term", result.ID,
			"confidence", result.Confidence,
			"validated", result.Validated)

		return TextResult(string(jsonBytes)), nil, nil
	}
}
