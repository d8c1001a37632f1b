package docs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ternarybob/ostendo/internal/common"
)

const sampleReadme = `# LunchRadar

Find where your team actually wants to eat.

## The Problem

Picking a lunch spot wastes twenty minutes of every standup. Nobody wants
to decide and everyone vetoes everything.

## How It Works

LunchRadar polls the team over Slack and ranks nearby places by past votes.

## Key Features

- Slack-native polls
- Vote history weighting
- Dietary filters
- Walk-time estimates

## Tech Stack

Python, FastAPI, Redis, and the Slack Bolt SDK.

## Roadmap

- Calendar integration
- Expense report export
`

func writeReadme(t *testing.T, content string) (string, string) {
	t.Helper()
	root := t.TempDir()
	path := filepath.Join(root, "README.md")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write README: %v", err)
	}
	return root, path
}

func TestParseExtractsSections(t *testing.T) {
	root, _ := writeReadme(t, sampleReadme)

	doc, err := NewParser(common.GetLogger()).Parse(root, "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if doc.Title != "LunchRadar" {
		t.Errorf("Title = %q, want LunchRadar", doc.Title)
	}
	if !strings.Contains(doc.Problem, "wastes twenty minutes") {
		t.Errorf("Problem section missing expected text: %q", doc.Problem)
	}
	if !strings.Contains(doc.Solution, "polls the team over Slack") {
		t.Errorf("Solution section missing expected text: %q", doc.Solution)
	}
	if len(doc.Features) != 4 {
		t.Fatalf("Features = %d entries, want 4", len(doc.Features))
	}
	if doc.Features[0] != "Slack-native polls" {
		t.Errorf("first feature = %q", doc.Features[0])
	}
	if !strings.Contains(doc.Tech, "FastAPI") {
		t.Errorf("Tech section missing expected text: %q", doc.Tech)
	}
	if !strings.Contains(doc.Future, "Calendar integration") {
		t.Errorf("Future section missing expected text: %q", doc.Future)
	}
}

func TestParseCapsSectionLength(t *testing.T) {
	long := strings.Repeat("problem problem problem ", 60)
	root, _ := writeReadme(t, "# X\n\n## Problem\n\n"+long+"\n")

	doc, err := NewParser(common.GetLogger()).Parse(root, "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(doc.Problem) > 500 {
		t.Errorf("Problem length = %d, want <= 500", len(doc.Problem))
	}
	if doc.Problem == "" {
		t.Error("Problem should not be empty")
	}
}

func TestParseCapsFeatureCount(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("# X\n\n## Features\n\n")
	for i := 0; i < 12; i++ {
		sb.WriteString("- feature line\n")
	}
	root, _ := writeReadme(t, sb.String())

	doc, err := NewParser(common.GetLogger()).Parse(root, "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(doc.Features) != 8 {
		t.Errorf("Features = %d entries, want 8", len(doc.Features))
	}
}

func TestParseMissingReadme(t *testing.T) {
	root := t.TempDir()

	doc, err := NewParser(common.GetLogger()).Parse(root, "")
	if err != nil {
		t.Fatalf("missing README must not error, got %v", err)
	}
	if len(doc.Warnings) == 0 {
		t.Error("expected a warning for the missing README")
	}
	if doc.Problem != "" || doc.Title != "" {
		t.Error("missing README should yield an empty document")
	}
}

func TestParseRejectsEscapingPath(t *testing.T) {
	root := t.TempDir()
	outside := filepath.Join(t.TempDir(), "README.md")
	if err := os.WriteFile(outside, []byte("# Outside\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := NewParser(common.GetLogger()).Parse(root, outside)
	if err == nil {
		t.Fatal("expected error for README outside the project root")
	}
	if common.CodeOf(err) != common.CodeInvalidInput {
		t.Errorf("code = %s, want INVALID_INPUT", common.CodeOf(err))
	}
}
