// Package main provides the entry point for the edamatch MCP server.
package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/bioforge/edamatch-go/internal/config"
	"github.com/bioforge/edamatch-go/internal/llm"
	"github.com/bioforge/edamatch-go/internal/metrics"
	"github.com/bioforge/edamatch-go/internal/ontology"
	"github.com/bioforge/edamatch-go/internal/server"
	"github.com/bioforge/edamatch-go/internal/service"
	"github.com/bioforge/edamatch-go/internal/tools"
)

const version = "0.1.0"

func main() {
	// Load configuration
	cfg := config.Load()

	// Setup logger (dual output: stderr text + file JSON)
	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer cleanup()

	logger.Info("edamatch starting",
		"version", version,
		"ontology", cfg.OntologyPath,
		"provider", cfg.LLMProvider,
		"model", cfg.LLMModel,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Load the ontology table
	table, err := ontology.Load(cfg.OntologyPath)
	if err != nil {
		logger.Error("failed to load ontology", "error", err)
		os.Exit(1)
	}
	logger.Info("ontology loaded", "terms", table.Len())

	selector := ontology.NewSelector(table, cfg.CandidateK, ontology.FallbackPolicy(cfg.Fallback))
	validator := ontology.NewValidator(table, cfg.UseSynonyms)

	// Create the LLM-backed delegate
	model, err := llm.NewModel(cfg)
	if err != nil {
		logger.Error("failed to create LLM client", "error", err)
		os.Exit(1)
	}
	logger.Info("LLM client initialized", "model", model.Model())

	opts := service.MatchOptions{
		ConfidenceThreshold: cfg.ConfidenceThreshold,
		CallTimeout:         cfg.CallTimeout,
		SimpleMode:          cfg.SimpleMode,
		SamplePerCategory:   5,
		RequestsPerSecond:   cfg.RateLimit,
	}
	collector := metrics.NewCollector()
	matchSvc := service.NewMatchService(table, selector, validator, llm.NewDelegate(model), collector, opts)

	// Create and setup server
	srv := server.New(version, logger)
	srv.Setup()

	// Register tools
	deps := &tools.Dependencies{
		Match:     matchSvc,
		Table:     table,
		Selector:  selector,
		Validator: validator,
		Logger:    logger,
	}
	tools.RegisterAll(srv.MCPServer(), deps)
	logger.Info("tools registered", "count", 3)

	logger.Info("server ready, awaiting connections")

	// Run server (blocks until disconnect or context cancelled)
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	if data, err := json.Marshal(collector.Snapshot()); err == nil {
		logger.Info("operation metrics", "snapshot", string(data))
	}
	logger.Info("shutdown complete")
}
