// Package analyzer scans a project tree and produces the repository facts
// the deck builders work from: language breakdown, line counts, key files
// and declared dependencies.
package analyzer

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ostendo/internal/common"
	"github.com/ternarybob/ostendo/internal/models"
)

// languageByExtension maps file extensions to display language names
var languageByExtension = map[string]string{
	".py":     "Python",
	".js":     "JavaScript",
	".jsx":    "JavaScript",
	".mjs":    "JavaScript",
	".ts":     "TypeScript",
	".tsx":    "TypeScript",
	".go":     "Go",
	".rs":     "Rust",
	".java":   "Java",
	".kt":     "Kotlin",
	".swift":  "Swift",
	".rb":     "Ruby",
	".php":    "PHP",
	".c":      "C",
	".h":      "C",
	".cpp":    "C++",
	".cc":     "C++",
	".hpp":    "C++",
	".cs":     "C#",
	".dart":   "Dart",
	".vue":    "Vue",
	".svelte": "Svelte",
	".html":   "HTML",
	".css":    "CSS",
	".scss":   "CSS",
	".sql":    "SQL",
	".sh":     "Shell",
	".ps1":    "PowerShell",
	".md":     "Markdown",
	".json":   "JSON",
	".yaml":   "YAML",
	".yml":    "YAML",
	".toml":   "TOML",
}

// binaryExtensions are counted as files but never line-scanned
var binaryExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true,
	".svg": true, ".ico": true, ".pdf": true, ".zip": true, ".tar": true,
	".gz": true, ".exe": true, ".dll": true, ".so": true, ".dylib": true,
	".woff": true, ".woff2": true, ".ttf": true, ".otf": true, ".eot": true,
	".mp3": true, ".mp4": true, ".mov": true, ".avi": true, ".wav": true,
	".db": true, ".sqlite": true, ".bin": true, ".pyc": true, ".class": true,
	".jar": true, ".wasm": true,
}

// keyFileNames are surfaced in the scan result when present at any depth
var keyFileNames = map[string]bool{
	"README.md":          true,
	"LICENSE":            true,
	"Dockerfile":         true,
	"docker-compose.yml": true,
	"Makefile":           true,
	"package.json":       true,
	"pyproject.toml":     true,
	"requirements.txt":   true,
	"go.mod":             true,
	"Cargo.toml":         true,
	"pubspec.yaml":       true,
}

// Analyzer walks a project tree and summarizes it
type Analyzer struct {
	config *common.AnalyzerConfig
	logger arbor.ILogger
}

// New creates an analyzer with the given configuration
func New(config *common.AnalyzerConfig, logger arbor.ILogger) *Analyzer {
	return &Analyzer{
		config: config,
		logger: logger,
	}
}

// Scan walks the project root and returns the repository summary.
// The root must exist and be a directory; everything else degrades
// gracefully (unreadable files are skipped with a debug log).
func (a *Analyzer) Scan(root string) (*models.ProjectScan, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, common.NewAppError(common.CodeInvalidInput,
			fmt.Sprintf("project path does not exist: %s", root), err)
	}
	if !info.IsDir() {
		return nil, common.NewAppError(common.CodeInvalidInput,
			fmt.Sprintf("project path is not a directory: %s", root), nil)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, common.NewAppError(common.CodeRuntimeError, "failed to resolve project path", err)
	}

	ignored := make(map[string]bool, len(a.config.IgnoreDirs))
	for _, dir := range a.config.IgnoreDirs {
		ignored[dir] = true
	}

	scan := &models.ProjectScan{
		RootPath:  absRoot,
		Name:      filepath.Base(absRoot),
		Languages: map[string]models.LanguageStat{},
	}

	var keyFiles []string
	var manifests []string

	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			a.logger.Debug().Str("path", path).Err(walkErr).Msg("Skipping unreadable entry")
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != absRoot && ignored[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(absRoot, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		scan.FileCount++

		name := d.Name()
		if keyFileNames[name] {
			keyFiles = append(keyFiles, rel)
			if isManifest(name) {
				manifests = append(manifests, path)
			}
		}

		ext := strings.ToLower(filepath.Ext(name))
		if binaryExtensions[ext] {
			return nil
		}

		lang, known := languageByExtension[ext]
		if !known {
			return nil
		}

		lines := a.countLines(path, d)
		stat := scan.Languages[lang]
		stat.Files++
		stat.Lines += lines
		scan.Languages[lang] = stat
		scan.TotalLines += lines

		return nil
	})
	if err != nil {
		return nil, common.NewAppError(common.CodeRuntimeError, "project walk failed", err)
	}

	sort.Strings(keyFiles)
	scan.KeyFiles = keyFiles

	deps := a.collectDependencies(absRoot, manifests)
	sort.Slice(deps, func(i, j int) bool {
		if deps[i].Source != deps[j].Source {
			return deps[i].Source < deps[j].Source
		}
		return deps[i].Name < deps[j].Name
	})
	scan.Dependencies = deps

	a.logger.Debug().
		Int("files", scan.FileCount).
		Int("lines", scan.TotalLines).
		Int("dependencies", len(deps)).
		Msg("Project scan complete")

	return scan, nil
}

// countLines counts newline-delimited lines in a text file, bailing out on
// oversized files so the walk stays fast on generated assets.
func (a *Analyzer) countLines(path string, d fs.DirEntry) int {
	if info, err := d.Info(); err == nil && a.config.MaxFileSize > 0 && info.Size() > a.config.MaxFileSize {
		return 0
	}

	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()

	lines := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines++
	}
	return lines
}
