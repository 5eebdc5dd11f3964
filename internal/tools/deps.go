// Package tools provides MCP tool handlers and registration.
package tools

import (
	"log/slog"

	"github.com/bioforge/edamatch-go/internal/ontology"
	"github.com/bioforge/edamatch-go/internal/service"
)

// Dependencies holds shared services for tool handlers.
// Passed to handler factories via closure capture.
type Dependencies struct {
	Match     *service.MatchService
	Table     *ontology.Table
	Selector  *ontology.Selector
	Validator *ontology.Validator
	Logger    *slog.Logger
}
