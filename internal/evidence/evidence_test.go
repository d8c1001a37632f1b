package evidence

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ternarybob/ostendo/internal/common"
	"github.com/ternarybob/ostendo/internal/models"
)

func testScan(root string) *models.ProjectScan {
	return &models.ProjectScan{
		RootPath:   root,
		Name:       "demo",
		FileCount:  12,
		TotalLines: 340,
		Languages: map[string]models.LanguageStat{
			"Python":     {Files: 8, Lines: 300},
			"JavaScript": {Files: 4, Lines: 40},
		},
		Dependencies: []models.Dependency{
			{Name: "flask", Version: "==3.0.0", Source: "requirements.txt"},
			{Name: "redis", Version: ">=5", Source: "requirements.txt"},
		},
	}
}

func TestBuildRepoRecords(t *testing.T) {
	records := NewBuilder(common.GetLogger()).Build(testScan(t.TempDir()), &models.ReadmeDoc{}, &models.GitContext{}, nil)

	idx := models.NewEvidenceIndex(records)
	if !idx.Has("repo.files") {
		t.Fatal("repo.files record missing")
	}
	files := idx["repo.files"]
	if !strings.Contains(files.Snippet, "12 files") || !strings.Contains(files.Snippet, "340 lines") {
		t.Errorf("repo.files snippet = %q", files.Snippet)
	}
	if !strings.Contains(files.Snippet, "Python") {
		t.Errorf("top language missing from snippet: %q", files.Snippet)
	}
	if !idx.Has("repo.deps") {
		t.Fatal("repo.deps record missing")
	}
	if !strings.Contains(idx["repo.deps"].Snippet, "flask") {
		t.Errorf("repo.deps snippet = %q", idx["repo.deps"].Snippet)
	}
}

func TestBuildDocRecordsWithLineSpan(t *testing.T) {
	root := t.TempDir()
	content := "# Demo\n\n## Problem\n\nChoosing lunch wastes time every single day.\n"
	if err := os.WriteFile(filepath.Join(root, "README.md"), []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	doc := &models.ReadmeDoc{
		Path:    "README.md",
		Problem: "Choosing lunch wastes time every single day.",
	}
	records := NewBuilder(common.GetLogger()).Build(testScan(root), doc, &models.GitContext{}, nil)

	idx := models.NewEvidenceIndex(records)
	rec, ok := idx["doc.problem"]
	if !ok {
		t.Fatal("doc.problem record missing")
	}
	if rec.LineSpan == nil {
		t.Fatal("doc.problem should carry a line span")
	}
	if rec.LineSpan.Start != 5 {
		t.Errorf("line span start = %d, want 5", rec.LineSpan.Start)
	}
	if rec.SnippetHash == "" || len(rec.SnippetHash) != 40 {
		t.Errorf("snippet hash = %q, want 40 hex chars", rec.SnippetHash)
	}
}

func TestBuildGitRecords(t *testing.T) {
	git := &models.GitContext{
		Available:         true,
		Branch:            "feature/visuals",
		HeadSHA:           "0123456789abcdef0123456789abcdef01234567",
		ChangedFilesCount: 3,
		ChangeSummary:     "3 files changed (backend:2, docs:1).",
	}
	records := NewBuilder(common.GetLogger()).Build(testScan(t.TempDir()), &models.ReadmeDoc{}, git, nil)

	idx := models.NewEvidenceIndex(records)
	if !strings.Contains(idx["git.branch"].Snippet, "0123456789ab") {
		t.Errorf("git.branch snippet should carry the short sha: %q", idx["git.branch"].Snippet)
	}
	if idx["git.changes"].Snippet != git.ChangeSummary {
		t.Errorf("git.changes snippet = %q", idx["git.changes"].Snippet)
	}
}

func TestSnippetCap(t *testing.T) {
	doc := &models.ReadmeDoc{
		Path:    "README.md",
		Problem: strings.Repeat("long problem text ", 40),
	}
	records := NewBuilder(common.GetLogger()).Build(testScan(t.TempDir()), doc, &models.GitContext{}, nil)

	for _, rec := range records {
		if len(rec.Snippet) > 320 {
			t.Errorf("record %s snippet length %d exceeds 320", rec.ID, len(rec.Snippet))
		}
	}
}

func TestMediaRecords(t *testing.T) {
	media := []models.MediaEntry{
		{ID: "media.0123456789abcdef", Path: "assets/demo.png", Mime: "image/png", Width: 800, Height: 600, Alt: "dashboard"},
	}
	records := NewBuilder(common.GetLogger()).Build(testScan(t.TempDir()), &models.ReadmeDoc{}, &models.GitContext{}, media)

	idx := models.NewEvidenceIndex(records)
	rec, ok := idx["media.0123456789abcdef"]
	if !ok {
		t.Fatal("media record missing")
	}
	if rec.Kind != models.EvidenceMedia {
		t.Errorf("kind = %s", rec.Kind)
	}
	if !strings.Contains(rec.Snippet, "dashboard") {
		t.Errorf("alt text missing from snippet: %q", rec.Snippet)
	}
}
