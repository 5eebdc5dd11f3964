package tools

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ValidateInput defines the input schema for the validate_term tool.
type ValidateInput struct {
	ClassID string `json:"class_id" jsonschema:"required,EDAM Class ID URI"`
	Label   string `json:"label" jsonschema:"required,Preferred label to check against the Class ID"`
}

// validateOutput is the JSON payload returned to the client.
type validateOutput struct {
	Valid      bool   `json:"valid"`
	Detail     string `json:"detail,omitempty"`
	FixedID    string `json:"fixed_id,omitempty"`
	FixedLabel string `json:"fixed_label,omitempty"`
	Repaired   bool   `json:"repaired"`
}

// NewValidateHandler creates the validate_term tool handler. Invalid but
// repairable pairs are returned reconciled, identifier winning over label.
func NewValidateHandler(deps *Dependencies) mcp.ToolHandlerFor[ValidateInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ValidateInput) (
		*mcp.CallToolResult, any, error,
	) {
		if input.ClassID == "" || input.Label == "" {
			return ErrorResult("Both class_id and label are required", "Provide the full pair"), nil, nil
		}

		out := validateOutput{}
		ok, detail := deps.Validator.Validate(input.ClassID, input.Label)
		out.Valid = ok
		if !ok {
			out.Detail = detail
			id, label, repaired := deps.Validator.Reconcile(input.ClassID, input.Label)
			if repaired {
				out.FixedID = id
				out.FixedLabel = label
				out.Repaired = true
			}
		}

		jsonBytes, _ := json.MarshalIndent(out, "", "  ")
		deps.Logger.Debug("validate completed", "class_id", input.ClassID, "valid", ok, "repaired", out.Repaired)
		return TextResult(string(jsonBytes)), nil, nil
	}
}
