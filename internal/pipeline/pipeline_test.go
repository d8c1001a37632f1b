package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ternarybob/ostendo/internal/common"
	"github.com/ternarybob/ostendo/internal/models"
)

const pipelineReadme = `# LunchRadar

## Problem

Finding a good lunch spot near the office takes too long and the team
argues about it every day.

## Solution

LunchRadar scans nearby restaurants and ranks them by walking distance,
queue length and team preferences.

## Features

- Live queue estimates
- Team preference profiles
- One-click group vote

## Tech Stack

Python backend with a small TypeScript frontend.
`

func writeProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	files := map[string]string{
		"README.md":        pipelineReadme,
		"main.py":          "import sys\n\nprint('lunchradar')\n",
		"app/ranker.py":    "def rank(spots):\n    return sorted(spots)\n",
		"web/index.ts":     "export const radius = 500;\n",
		"requirements.txt": "flask==3.0.0\nrequests>=2.31\n",
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func testConfig(t *testing.T) *common.Config {
	t.Helper()
	cfg := common.NewDefaultConfig()
	cfg.AI.Mode = common.AIModeOff
	cfg.Generate.OutDir = filepath.Join(t.TempDir(), "out")
	cfg.Generate.Strict = false
	return cfg
}

func TestDeckJSONIdenticalAcrossRuns(t *testing.T) {
	projectDir := writeProject(t)
	cfg := testConfig(t)
	p := New(cfg, nil, common.GetLogger())

	var decks [][]byte
	for i := 0; i < 2; i++ {
		cfg.Generate.OutDir = filepath.Join(t.TempDir(), "out")
		result, err := p.Generate(context.Background(), projectDir)
		if err != nil {
			t.Fatalf("Generate() run %d error: %v", i+1, err)
		}
		data, err := os.ReadFile(filepath.Join(result.OutDir, "deck.json"))
		if err != nil {
			t.Fatal(err)
		}
		decks = append(decks, data)
	}

	if !bytes.Equal(decks[0], decks[1]) {
		t.Error("deck.json differs between runs over identical inputs")
	}
}

func TestGenerateWritesBundle(t *testing.T) {
	projectDir := writeProject(t)
	cfg := testConfig(t)

	p := New(cfg, nil, common.GetLogger())
	result, err := p.Generate(context.Background(), projectDir)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	wantFiles := []string{"deck.json", "deck.html", "deck.md", "deck.pdf", "notes.md", "talk-track.md", "manifest.json"}
	for _, name := range wantFiles {
		if _, err := os.Stat(filepath.Join(result.OutDir, name)); err != nil {
			t.Errorf("expected %s in output bundle: %v", name, err)
		}
	}
	if len(result.Artifacts) != len(wantFiles) {
		t.Errorf("expected %d artifacts, got %d", len(wantFiles), len(result.Artifacts))
	}

	data, err := os.ReadFile(filepath.Join(result.OutDir, "deck.json"))
	if err != nil {
		t.Fatal(err)
	}
	var payload models.Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("deck.json is not valid payload JSON: %v", err)
	}
	if payload.SchemaVersion != models.SchemaVersion {
		t.Errorf("unexpected schema version %q", payload.SchemaVersion)
	}
	if len(payload.Slides) == 0 {
		t.Fatal("expected slides in payload")
	}
	if payload.Slides[0].Type != models.SlideTitle {
		t.Errorf("expected title slide first, got %s", payload.Slides[0].Type)
	}
	if payload.Quality == nil || !payload.Quality.Passed {
		t.Errorf("expected passing quality report, got %+v", payload.Quality)
	}
}

func TestBuildPayloadContent(t *testing.T) {
	projectDir := writeProject(t)
	cfg := testConfig(t)

	p := New(cfg, nil, common.GetLogger())
	payload, err := p.BuildPayload(context.Background(), projectDir)
	if err != nil {
		t.Fatalf("BuildPayload() error: %v", err)
	}

	if payload.Readme.Title != "LunchRadar" {
		t.Errorf("expected README title, got %q", payload.Readme.Title)
	}
	if payload.Project.FileCount == 0 {
		t.Error("expected scanned files")
	}

	index := payload.EvidenceIndex()
	for _, id := range []string{"repo.files", "repo.deps", "doc.problem", "doc.solution", "doc.features"} {
		if !index.Has(id) {
			t.Errorf("expected evidence %s", id)
		}
	}

	for _, slide := range payload.Slides {
		for _, claim := range slide.Claims {
			for _, ref := range claim.EvidenceRefs {
				if !index.Has(ref) {
					t.Errorf("slide %s cites unknown evidence %s", slide.ID, ref)
				}
			}
		}
	}
}

func TestGenerateFailsQualityGateOnHype(t *testing.T) {
	projectDir := writeProject(t)
	hyped := pipelineReadme + "\n## Future Plans\n\nOur revolutionary roadmap.\n"
	if err := os.WriteFile(filepath.Join(projectDir, "README.md"), []byte(hyped), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := testConfig(t)
	p := New(cfg, nil, common.GetLogger())
	_, err := p.Generate(context.Background(), projectDir)
	if err == nil {
		t.Fatal("expected quality gate failure")
	}
	if common.CodeOf(err) != common.CodeQualityGateFailed {
		t.Errorf("expected QUALITY_GATE_FAILED, got %s", common.CodeOf(err))
	}

	if _, statErr := os.Stat(filepath.Join(cfg.Generate.OutDir, "deck.json")); statErr == nil {
		t.Error("failed runs must not write output files")
	}
}

func TestValidateDoesNotWrite(t *testing.T) {
	projectDir := writeProject(t)
	cfg := testConfig(t)

	p := New(cfg, nil, common.GetLogger())
	if _, err := p.Validate(context.Background(), projectDir); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if _, err := os.Stat(cfg.Generate.OutDir); !os.IsNotExist(err) {
		t.Error("validate must not create the output directory")
	}
}

func TestGenerateRejectsMissingProject(t *testing.T) {
	cfg := testConfig(t)
	p := New(cfg, nil, common.GetLogger())

	_, err := p.Generate(context.Background(), filepath.Join(t.TempDir(), "nope"))
	if err == nil {
		t.Fatal("expected error for missing project directory")
	}
	if common.CodeOf(err) != common.CodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %s", common.CodeOf(err))
	}
}
