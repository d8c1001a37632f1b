package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/ostendo/internal/common"
)

const starterConfig = `# Ostendo project configuration. Every key is optional; defaults are
# shown commented out.

[generate]
# out_dir = "./ostendo-out"
# preset = "demo-day"
# slide_types = ["title", "problem", "solution", "demo", "tech", "impact", "delta", "closing"]
# strict = false
# with_ai = false

[ai]
# mode = "off"          # off, hybrid, or ai
# model = "claude-haiku-3-5-20241022"

[visuals]
# min_confidence = 0.62
# max_per_slide = 1

[quality]
# min_image_coverage = 0.5

[telemetry]
enabled = false
`

const sampleReadme = `# LunchRadar

Find where your team actually wants to eat.

## Problem

Deciding on a lunch spot burns twenty minutes of every standup, and the
loudest voice always wins.

## Solution

LunchRadar collects anonymous ranked votes in Slack and picks the
fairest option with a single command.

## Features

- Ranked-choice voting over Slack
- Dietary constraint filters
- Vote history so nobody eats tacos three days running

## Tech Stack

- Python service with a FastAPI backend
- Redis for vote state
- Slack Bolt for the bot surface
`

const sampleMain = `def rank(votes):
    totals = {}
    for ballot in votes:
        for position, option in enumerate(ballot):
            totals[option] = totals.get(option, 0) + (len(ballot) - position)
    return sorted(totals, key=lambda option: -totals[option])


if __name__ == "__main__":
    print(rank([["tacos", "ramen"], ["ramen", "tacos"], ["ramen", "salad"]]))
`

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	project := fs.String("project", ".", "Project directory to initialize")
	force := fs.Bool("force", false, "Overwrite an existing ostendo.toml")
	fs.Parse(args)

	path := filepath.Join(*project, "ostendo.toml")
	if _, err := os.Stat(path); err == nil && !*force {
		return common.NewAppError(common.CodeInvalidInput,
			fmt.Sprintf("%s already exists", path), nil).
			WithHint("pass -force to overwrite it")
	}

	if err := os.MkdirAll(*project, 0o755); err != nil {
		return common.NewAppError(common.CodeRuntimeError, "failed to create project directory", err)
	}
	if err := os.WriteFile(path, []byte(starterConfig), 0o644); err != nil {
		return common.NewAppError(common.CodeRuntimeError, "failed to write config", err)
	}

	fmt.Printf("Wrote %s\n", path)
	return nil
}

func runSample(args []string) error {
	fs := flag.NewFlagSet("sample", flag.ExitOnError)
	dir := fs.String("dir", "ostendo-sample", "Directory for the sample project")
	fs.Parse(args)

	if _, err := os.Stat(*dir); err == nil {
		return common.NewAppError(common.CodeInvalidInput,
			fmt.Sprintf("%s already exists", *dir), nil).
			WithHint("pick a different -dir or remove the existing one")
	}

	files := map[string]string{
		"README.md":        sampleReadme,
		"main.py":          sampleMain,
		"requirements.txt": "fastapi\nredis\nslack-bolt\n",
	}

	for name, content := range files {
		path := filepath.Join(*dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return common.NewAppError(common.CodeRuntimeError, "failed to create sample directory", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return common.NewAppError(common.CodeRuntimeError, "failed to write "+name, err)
		}
	}

	fmt.Printf("Sample project written to %s\n", *dir)
	fmt.Printf("Try: ostendo generate -project %s\n", *dir)
	return nil
}
