package tools

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterAll registers all tools with the MCP server.
// Called from main after server creation but before Run().
func RegisterAll(server *mcp.Server, deps *Dependencies) {
	// Full pipeline: candidates, delegate call, validation, escalation
	mcp.AddTool(server, &mcp.Tool{
		Name:        "edam_match",
		Description: "Match a software package description to the best EDAM ontology term",
	}, NewMatchHandler(deps))

	// Ontology-only, no LLM call
	mcp.AddTool(server, &mcp.Tool{
		Name:        "validate_term",
		Description: "Validate an EDAM Class ID / Preferred Label pair, reconciling repairable mismatches",
	}, NewValidateHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_terms",
		Description: "Rank EDAM ontology terms by lexical overlap with a text query",
	}, NewSearchHandler(deps))
}
