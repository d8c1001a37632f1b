package main

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ostendo/internal/common"
	"github.com/ternarybob/ostendo/internal/pipeline"
	"github.com/ternarybob/ostendo/internal/presets"
)

func handleGenerateDeck(logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		projectDir, err := request.RequireString("project_dir")
		if err != nil || projectDir == "" {
			return toolError("project_dir parameter is required"), nil
		}

		cfg, loadErr := toolConfig(projectDir, request.GetString("preset", ""), request.GetBool("strict", false))
		if loadErr != nil {
			return toolError(loadErr.Error()), nil
		}
		if outDir := request.GetString("out_dir", ""); outDir != "" {
			cfg.Generate.OutDir = outDir
		}

		result, genErr := pipeline.New(cfg, nil, logger).Generate(ctx, projectDir)
		if genErr != nil {
			logger.Error().Err(genErr).Str("project", projectDir).Msg("Deck generation failed")
			return toolError(fmt.Sprintf("generation failed: %v", genErr)), nil
		}

		summary := map[string]any{
			"out_dir":   result.OutDir,
			"artifacts": result.Artifacts,
			"slides":    len(result.Payload.Slides),
			"evidence":  len(result.Payload.Evidence),
		}
		if result.Payload.Quality != nil {
			summary["quality_passed"] = result.Payload.Quality.Passed
			summary["quality_warnings"] = len(result.Payload.Quality.Warnings)
		}
		return toolJSON(summary), nil
	}
}

func handleValidateDeck(logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		projectDir, err := request.RequireString("project_dir")
		if err != nil || projectDir == "" {
			return toolError("project_dir parameter is required"), nil
		}

		cfg, loadErr := toolConfig(projectDir, request.GetString("preset", ""), request.GetBool("strict", false))
		if loadErr != nil {
			return toolError(loadErr.Error()), nil
		}

		payload, valErr := pipeline.New(cfg, nil, logger).Validate(ctx, projectDir)
		if valErr != nil && payload == nil {
			logger.Error().Err(valErr).Str("project", projectDir).Msg("Validation failed")
			return toolError(fmt.Sprintf("validation failed: %v", valErr)), nil
		}

		report := map[string]any{
			"slides":   len(payload.Slides),
			"evidence": len(payload.Evidence),
		}
		if payload.Quality != nil {
			report["passed"] = payload.Quality.Passed
			report["errors"] = payload.Quality.Errors
			report["warnings"] = payload.Quality.Warnings
			report["metrics"] = payload.Quality.Metrics
		}
		return toolJSON(report), nil
	}
}

func handleListPresets(logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return toolJSON(presets.List()), nil
	}
}

func toolConfig(projectDir, preset string, strict bool) (*common.Config, error) {
	abs, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, err
	}
	cfg, err := common.LoadLayered(abs, "")
	if err != nil {
		return nil, err
	}
	if err := presets.Apply(cfg, preset); err != nil {
		return nil, err
	}
	if strict {
		cfg.Generate.Strict = true
	}
	if !filepath.IsAbs(cfg.Generate.OutDir) {
		cfg.Generate.OutDir = filepath.Join(abs, cfg.Generate.OutDir)
	}
	return cfg, nil
}

func toolJSON(value any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return toolError(fmt.Sprintf("failed to encode result: %v", err))
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(string(data))},
	}
}

func toolError(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{mcp.NewTextContent("Error: " + message)},
	}
}
