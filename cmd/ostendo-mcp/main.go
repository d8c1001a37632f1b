package main

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	arbor_models "github.com/ternarybob/arbor/models"
	"github.com/ternarybob/ostendo/internal/common"
)

func main() {
	common.LoadVersionFromFile()

	// Minimal logging so stdio stays clean for the MCP transport
	logger := arbor.NewLogger().WithConsoleWriter(arbor_models.WriterConfiguration{
		Type:             arbor_models.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		DisableTimestamp: false,
	}).WithLevelFromString("warn")

	mcpServer := server.NewMCPServer(
		"ostendo",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(createGenerateDeckTool(), handleGenerateDeck(logger))
	mcpServer.AddTool(createValidateDeckTool(), handleValidateDeck(logger))
	mcpServer.AddTool(createListPresetsTool(), handleListPresets(logger))

	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Fatal().Err(err).Msg("MCP server failed")
	}
}
