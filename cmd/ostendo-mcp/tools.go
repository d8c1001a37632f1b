package main

import "github.com/mark3labs/mcp-go/mcp"

// createGenerateDeckTool returns the generate_deck tool definition
func createGenerateDeckTool() mcp.Tool {
	return mcp.NewTool("generate_deck",
		mcp.WithDescription("Scan a project and write the presentation bundle (deck.json/html/md/pdf, notes, talk track, manifest)"),
		mcp.WithString("project_dir",
			mcp.Required(),
			mcp.Description("Absolute path to the project to present"),
		),
		mcp.WithString("out_dir",
			mcp.Description("Output directory (default: <project>/ostendo-out)"),
		),
		mcp.WithString("preset",
			mcp.Description("Named preset: quick, demo-day, investor, hackathon-judges, hackathon-finals"),
		),
		mcp.WithBoolean("strict",
			mcp.Description("Treat quality warnings as errors"),
		),
	)
}

// createValidateDeckTool returns the validate_deck tool definition
func createValidateDeckTool() mcp.Tool {
	return mcp.NewTool("validate_deck",
		mcp.WithDescription("Run the full pipeline and quality gate in memory without writing files"),
		mcp.WithString("project_dir",
			mcp.Required(),
			mcp.Description("Absolute path to the project to validate"),
		),
		mcp.WithString("preset",
			mcp.Description("Named preset to apply before validation"),
		),
		mcp.WithBoolean("strict",
			mcp.Description("Treat quality warnings as errors"),
		),
	)
}

// createListPresetsTool returns the list_presets tool definition
func createListPresetsTool() mcp.Tool {
	return mcp.NewTool("list_presets",
		mcp.WithDescription("List the available generation presets with their slide layouts"),
	)
}
