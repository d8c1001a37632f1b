package studio

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ternarybob/ostendo/internal/common"
	"github.com/ternarybob/ostendo/internal/models"
)

const studioReadme = `# LunchRadar

## Problem

Finding a good lunch spot near the office takes too long.

## Solution

LunchRadar ranks nearby restaurants by distance and queue length.

## Features

- Live queue estimates
- One-click group vote
`

func writeStudioProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"README.md": studioReadme,
		"main.py":   "print('lunchradar')\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func newTestState(t *testing.T, root string, readOnly bool) *State {
	t.Helper()
	cfg := common.NewDefaultConfig()
	state, err := NewState(context.Background(), cfg, nil, root, readOnly, common.GetLogger())
	if err != nil {
		t.Fatalf("NewState() error: %v", err)
	}
	return state
}

func TestNewStateBuildsWorkingSet(t *testing.T) {
	state := newTestState(t, writeStudioProject(t), false)

	info := state.Context()
	if info.SchemaVersion != models.SchemaVersion {
		t.Errorf("unexpected schema version %q", info.SchemaVersion)
	}
	if info.Quality == nil {
		t.Fatal("expected quality report in context")
	}
	if len(state.Slides()) == 0 {
		t.Fatal("expected slides")
	}
	if len(state.EvidenceList()) == 0 {
		t.Error("expected evidence records")
	}
}

func TestUpdateSlidesPatchesAndPersists(t *testing.T) {
	root := writeStudioProject(t)
	state := newTestState(t, root, false)

	title := "  The Lunch Problem  "
	bullets := []string{"Slow decisions", "  ", "Hungry teams"}
	notes := "Pause for effect."
	slides, report, err := state.UpdateSlides([]SlidePatch{
		{ID: "slide.problem", Title: &title, Bullets: &bullets, Notes: &notes},
		{ID: "slide.unknown", Title: &title},
	})
	if err != nil {
		t.Fatalf("UpdateSlides() error: %v", err)
	}
	if report == nil {
		t.Fatal("expected refreshed quality report")
	}

	var problem *models.Slide
	for i := range slides {
		if slides[i].ID == "slide.problem" {
			problem = &slides[i]
		}
	}
	if problem == nil {
		t.Fatal("problem slide missing")
	}
	if problem.Title != "The Lunch Problem" {
		t.Errorf("expected trimmed title, got %q", problem.Title)
	}
	if len(problem.Bullets) != 2 {
		t.Errorf("expected blank bullets dropped, got %v", problem.Bullets)
	}
	if problem.Notes != "Pause for effect." {
		t.Errorf("unexpected notes %q", problem.Notes)
	}

	if _, err := os.Stat(filepath.Join(root, ".ostendo", "session.json")); err != nil {
		t.Errorf("expected session persisted: %v", err)
	}

	// A fresh state for the same project restores the edit.
	restored := newTestState(t, root, false)
	for _, slide := range restored.Slides() {
		if slide.ID == "slide.problem" && slide.Title != "The Lunch Problem" {
			t.Errorf("expected session edit restored, got %q", slide.Title)
		}
	}
}

func TestUpdateSlidesReadOnly(t *testing.T) {
	state := newTestState(t, writeStudioProject(t), true)

	title := "Nope"
	_, _, err := state.UpdateSlides([]SlidePatch{{ID: "slide.problem", Title: &title}})
	if err == nil {
		t.Fatal("expected read-only rejection")
	}
	if common.CodeOf(err) != common.CodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %s", common.CodeOf(err))
	}
}

func TestSanitizeVisualsRejectsUnknownMedia(t *testing.T) {
	state := newTestState(t, writeStudioProject(t), false)

	visuals := []models.Visual{
		{MediaID: "media.doesnotexist", Alt: "ghost"},
	}
	patched := &models.Slide{ID: "slide.problem"}
	state.applyPatch(patched, &SlidePatch{ID: "slide.problem", Visuals: &visuals})
	if len(patched.Visuals) != 0 {
		t.Errorf("expected unknown media rejected, got %v", patched.Visuals)
	}
}

func TestValidateCustomSlides(t *testing.T) {
	state := newTestState(t, writeStudioProject(t), false)

	report := state.Validate([]models.Slide{
		{
			ID:    "slide.problem",
			Type:  models.SlideProblem,
			Title: "Our revolutionary approach",
		},
	})
	if report.Passed {
		t.Error("expected hype language to fail validation")
	}
}

func TestExportWritesInsideProject(t *testing.T) {
	root := writeStudioProject(t)
	state := newTestState(t, root, false)

	result, err := state.Export("markdown", "exports/deck")
	if err != nil {
		t.Fatalf("Export() error: %v", err)
	}
	if len(result.Paths) != 1 {
		t.Fatalf("expected one path, got %v", result.Paths)
	}
	if !strings.HasPrefix(result.Paths[0], root) {
		t.Errorf("export must stay inside project root: %s", result.Paths[0])
	}
	data, err := os.ReadFile(result.Paths[0])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "marp: true") {
		t.Error("expected Marp markdown export")
	}
}

func TestExportRejectsEscapingPath(t *testing.T) {
	state := newTestState(t, writeStudioProject(t), false)

	_, err := state.Export("json", "../outside.json")
	if err == nil {
		t.Fatal("expected containment rejection")
	}
	if common.CodeOf(err) != common.CodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %s", common.CodeOf(err))
	}
}

func TestExportRejectsBadFormat(t *testing.T) {
	state := newTestState(t, writeStudioProject(t), false)

	_, err := state.Export("pptx", "")
	if err == nil {
		t.Fatal("expected format rejection")
	}
}

func TestSaveSessionSnapshots(t *testing.T) {
	state := newTestState(t, writeStudioProject(t), false)

	session, err := state.SaveSession("before-rehearsal")
	if err != nil {
		t.Fatalf("SaveSession() error: %v", err)
	}
	if len(session.Snapshots) != 1 {
		t.Fatalf("expected one snapshot, got %d", len(session.Snapshots))
	}
	if session.Snapshots[0].Label != "before-rehearsal" {
		t.Errorf("unexpected snapshot label %q", session.Snapshots[0].Label)
	}
}
