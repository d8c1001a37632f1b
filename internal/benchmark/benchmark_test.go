package benchmark

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ternarybob/ostendo/internal/common"
)

const benchReadme = `# PlantPal

## Problem

Houseplants die because owners forget watering schedules.

## Solution

PlantPal tracks soil moisture and sends reminders.

## Features

- Moisture tracking
- Reminder scheduling
`

func writeCorpusProject(t *testing.T, root, name string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte(benchReadme), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "main.py"), []byte("print('hi')\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestDiscoverProjects(t *testing.T) {
	root := t.TempDir()
	writeCorpusProject(t, root, "beta")
	writeCorpusProject(t, root, "Alpha")
	if err := os.MkdirAll(filepath.Join(root, "not-a-project"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(root, ".hidden"), 0o755); err != nil {
		t.Fatal(err)
	}

	projects := discoverProjects(root)
	if len(projects) != 2 {
		t.Fatalf("expected 2 projects, got %d: %v", len(projects), projects)
	}
	if filepath.Base(projects[0]) != "Alpha" {
		t.Errorf("expected case-insensitive name order, got %v", projects)
	}
}

func TestDiscoverProjectsCorpusRootIsProject(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "README.md"), []byte(benchReadme), 0o644); err != nil {
		t.Fatal(err)
	}

	projects := discoverProjects(root)
	if len(projects) != 1 || projects[0] != root {
		t.Errorf("expected the root itself, got %v", projects)
	}
}

func TestVisualCoverageSweep(t *testing.T) {
	root := t.TempDir()
	writeCorpusProject(t, root, "one")
	writeCorpusProject(t, root, "two")

	cfg := common.NewDefaultConfig()
	report, err := New(cfg, common.GetLogger()).VisualCoverage(context.Background(), root, []float64{0.5, 0.9}, 12)
	if err != nil {
		t.Fatalf("VisualCoverage failed: %v", err)
	}

	if report.ProjectCount != 2 {
		t.Errorf("expected 2 projects, got %d", report.ProjectCount)
	}
	if len(report.Runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(report.Runs))
	}
	for _, run := range report.Runs {
		if run.Failures != 0 {
			t.Errorf("threshold %g had %d failures", run.MinConfidence, run.Failures)
		}
		if run.CoverageSamples != 2 {
			t.Errorf("threshold %g sampled %d projects", run.MinConfidence, run.CoverageSamples)
		}
	}
	if report.RecommendedMinConfidence != 0.5 && report.RecommendedMinConfidence != 0.9 {
		t.Errorf("recommendation %g not among candidates", report.RecommendedMinConfidence)
	}
}

func TestVisualCoverageRespectsMaxProjects(t *testing.T) {
	root := t.TempDir()
	writeCorpusProject(t, root, "a")
	writeCorpusProject(t, root, "b")
	writeCorpusProject(t, root, "c")

	cfg := common.NewDefaultConfig()
	report, err := New(cfg, common.GetLogger()).VisualCoverage(context.Background(), root, []float64{0.6}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if report.ProjectCount != 2 {
		t.Errorf("expected cap at 2 projects, got %d", report.ProjectCount)
	}
}
