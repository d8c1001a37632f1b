// Package gitctx collects repository metadata by shelling out to git.
// Everything here degrades to warnings: a project without git, or with a
// broken repo, still generates a deck.
package gitctx

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ostendo/internal/common"
	"github.com/ternarybob/ostendo/internal/models"
)

// maxTopChangedPaths bounds the changed-path list on the delta slide
const maxTopChangedPaths = 10

// Collector gathers git metadata for a project directory
type Collector struct {
	config *common.GitConfig
	logger arbor.ILogger
}

// New creates a git context collector
func New(config *common.GitConfig, logger arbor.ILogger) *Collector {
	return &Collector{
		config: config,
		logger: logger,
	}
}

// Collect returns the git context for a project root. Failures set
// Available=false and append to Warnings; this function never errors.
func (c *Collector) Collect(ctx context.Context, projectRoot string) *models.GitContext {
	gc := &models.GitContext{}

	if _, err := exec.LookPath("git"); err != nil {
		gc.Warnings = append(gc.Warnings, "git executable not found on PATH")
		return gc
	}

	inside, err := c.run(ctx, projectRoot, "rev-parse", "--is-inside-work-tree")
	if err != nil || strings.TrimSpace(inside) != "true" {
		gc.Warnings = append(gc.Warnings, "project is not a git repository")
		return gc
	}
	gc.Available = true

	if branch, err := c.run(ctx, projectRoot, "rev-parse", "--abbrev-ref", "HEAD"); err == nil {
		gc.Branch = strings.TrimSpace(branch)
	} else {
		gc.Warnings = append(gc.Warnings, fmt.Sprintf("could not resolve branch: %v", err))
	}

	if head, err := c.run(ctx, projectRoot, "rev-parse", "HEAD"); err == nil {
		gc.HeadSHA = strings.TrimSpace(head)
	} else {
		gc.Warnings = append(gc.Warnings, "repository has no commits")
		return gc
	}

	baseBranch, baseSHA := c.findBase(ctx, projectRoot, gc.Branch)
	if baseBranch == "" {
		gc.Warnings = append(gc.Warnings, "no base branch found among candidates")
		return gc
	}
	gc.BaseBranch = baseBranch
	gc.BaseSHA = baseSHA

	c.collectDiff(ctx, projectRoot, gc)
	return gc
}

// findBase probes the configured base branch candidates and returns the
// first that resolves, with its merge-base against HEAD.
func (c *Collector) findBase(ctx context.Context, dir, currentBranch string) (string, string) {
	for _, candidate := range c.config.BaseBranches {
		out, err := c.run(ctx, dir, "rev-parse", "--verify", "--quiet", candidate)
		if err != nil || strings.TrimSpace(out) == "" {
			continue
		}
		mergeBase, err := c.run(ctx, dir, "merge-base", "HEAD", candidate)
		if err != nil {
			continue
		}
		return candidate, strings.TrimSpace(mergeBase)
	}
	return "", ""
}

// collectDiff fills changed file counts, top paths and the bucketed summary
func (c *Collector) collectDiff(ctx context.Context, dir string, gc *models.GitContext) {
	if gc.BaseSHA == "" || gc.BaseSHA == gc.HeadSHA {
		gc.ChangeSummary = "No changes against the base branch."
		return
	}

	out, err := c.run(ctx, dir, "diff", "--name-only", gc.BaseSHA, "HEAD")
	if err != nil {
		gc.Warnings = append(gc.Warnings, fmt.Sprintf("diff against %s failed: %v", gc.BaseBranch, err))
		return
	}

	var files []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			files = append(files, line)
		}
	}

	gc.ChangedFilesCount = len(files)
	sort.Strings(files)
	if len(files) > maxTopChangedPaths {
		gc.TopChangedPaths = files[:maxTopChangedPaths]
	} else {
		gc.TopChangedPaths = files
	}
	gc.ChangeSummary = SummarizeChanges(files)
}

// run executes a git subcommand in dir with the configured timeout
func (c *Collector) run(ctx context.Context, dir string, args ...string) (string, error) {
	timeout := c.config.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", common.NewAppError(common.CodeGitError,
			fmt.Sprintf("git %s failed", strings.Join(args, " ")), err)
	}
	return string(out), nil
}

// changeBucket classifies a changed path for the summary line
func changeBucket(path string) string {
	lower := strings.ToLower(filepath.ToSlash(path))
	ext := filepath.Ext(lower)

	if strings.HasPrefix(lower, "docs/") || ext == ".md" || ext == ".rst" || ext == ".txt" {
		return "docs"
	}
	switch ext {
	case ".toml", ".yaml", ".yml", ".ini", ".env", ".cfg", ".json", ".lock":
		return "config"
	case ".js", ".jsx", ".ts", ".tsx", ".css", ".scss", ".html", ".vue", ".svelte":
		return "frontend"
	case ".py", ".go", ".rs", ".java", ".kt", ".rb", ".php", ".c", ".h", ".cpp", ".cs", ".sql":
		return "backend"
	}
	base := filepath.Base(lower)
	if base == "dockerfile" || base == "makefile" {
		return "config"
	}
	return "other"
}

// SummarizeChanges builds the one-line change summary,
// e.g. "5 files changed (backend:3, docs:2)."
func SummarizeChanges(files []string) string {
	if len(files) == 0 {
		return "No changes against the base branch."
	}

	counts := map[string]int{}
	for _, f := range files {
		counts[changeBucket(f)]++
	}

	buckets := make([]string, 0, len(counts))
	for b := range counts {
		buckets = append(buckets, b)
	}
	sort.Slice(buckets, func(i, j int) bool {
		if counts[buckets[i]] != counts[buckets[j]] {
			return counts[buckets[i]] > counts[buckets[j]]
		}
		return buckets[i] < buckets[j]
	})

	parts := make([]string, len(buckets))
	for i, b := range buckets {
		parts[i] = fmt.Sprintf("%s:%d", b, counts[b])
	}

	noun := "files"
	if len(files) == 1 {
		noun = "file"
	}
	return fmt.Sprintf("%d %s changed (%s).", len(files), noun, strings.Join(parts, ", "))
}
