package analyzer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ternarybob/ostendo/internal/common"
	"github.com/ternarybob/ostendo/internal/models"
)

func newTestAnalyzer() *Analyzer {
	cfg := common.NewDefaultConfig()
	return New(&cfg.Analyzer, common.GetLogger())
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func TestScanCountsFilesAndLines(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.py", "import os\n\nprint('hi')\n")
	writeFile(t, root, "app/util.py", "def f():\n    return 1\n")
	writeFile(t, root, "web/index.js", "console.log(1);\n")
	writeFile(t, root, "README.md", "# Demo\n")

	scan, err := newTestAnalyzer().Scan(root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if scan.FileCount != 4 {
		t.Errorf("FileCount = %d, want 4", scan.FileCount)
	}
	if scan.TotalLines != 7 {
		t.Errorf("TotalLines = %d, want 7", scan.TotalLines)
	}

	py := scan.Languages["Python"]
	if py.Files != 2 || py.Lines != 5 {
		t.Errorf("Python stat = %+v, want {Files:2 Lines:5}", py)
	}
	js := scan.Languages["JavaScript"]
	if js.Files != 1 || js.Lines != 1 {
		t.Errorf("JavaScript stat = %+v, want {Files:1 Lines:1}", js)
	}
}

func TestScanSkipsIgnoredDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n")
	writeFile(t, root, "node_modules/pkg/index.js", "x\n")
	writeFile(t, root, ".git/config", "[core]\n")
	writeFile(t, root, "__pycache__/mod.pyc", "\x00")

	scan, err := newTestAnalyzer().Scan(root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if scan.FileCount != 1 {
		t.Errorf("FileCount = %d, want 1 (ignored dirs must be excluded)", scan.FileCount)
	}
	if _, ok := scan.Languages["JavaScript"]; ok {
		t.Error("node_modules contents leaked into the language table")
	}
}

func TestScanRejectsBadRoot(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{"missing", func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope") }},
		{"file not dir", func(t *testing.T) string {
			root := t.TempDir()
			writeFile(t, root, "plain.txt", "x")
			return filepath.Join(root, "plain.txt")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestAnalyzer().Scan(tt.path(t))
			if err == nil {
				t.Fatal("expected error")
			}
			if common.CodeOf(err) != common.CodeInvalidInput {
				t.Errorf("code = %s, want INVALID_INPUT", common.CodeOf(err))
			}
		})
	}
}

func TestScanExtractsDependencies(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "package.json", `{"dependencies":{"react":"^18.0.0"},"devDependencies":{"vite":"^5.0.0"}}`)
	writeFile(t, root, "requirements.txt", "flask==3.0.0\n# comment\nrequests>=2.31\n")
	writeFile(t, root, "go.mod", "module example.com/demo\n\ngo 1.22\n\nrequire (\n\tgithub.com/google/uuid v1.6.0\n)\n")

	scan, err := newTestAnalyzer().Scan(root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	byName := map[string]models.Dependency{}
	for _, d := range scan.Dependencies {
		byName[d.Name] = d
	}

	want := map[string]string{
		"react":                  "^18.0.0",
		"vite":                   "^5.0.0",
		"flask":                  "==3.0.0",
		"requests":               ">=2.31",
		"github.com/google/uuid": "v1.6.0",
	}
	for name, version := range want {
		dep, ok := byName[name]
		if !ok {
			t.Errorf("dependency %q not extracted", name)
			continue
		}
		if dep.Version != version {
			t.Errorf("dependency %q version = %q, want %q", name, dep.Version, version)
		}
	}
}

func TestScanDeterministicOrdering(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "requirements.txt", "zeta==1.0\nalpha==2.0\n")
	writeFile(t, root, "README.md", "# x\n")
	writeFile(t, root, "Makefile", "all:\n")

	a := newTestAnalyzer()
	first, err := a.Scan(root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	second, err := a.Scan(root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	for i := range first.KeyFiles {
		if first.KeyFiles[i] != second.KeyFiles[i] {
			t.Fatalf("key file order unstable: %v vs %v", first.KeyFiles, second.KeyFiles)
		}
	}
	for i := range first.Dependencies {
		if first.Dependencies[i] != second.Dependencies[i] {
			t.Fatalf("dependency order unstable at %d", i)
		}
	}
	if first.Dependencies[0].Name != "alpha" {
		t.Errorf("dependencies not sorted: first = %s", first.Dependencies[0].Name)
	}
}
