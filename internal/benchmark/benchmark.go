// Package benchmark sweeps visual-selector confidence thresholds over a
// corpus of projects to recommend a min_confidence setting.
package benchmark

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ostendo/internal/common"
	"github.com/ternarybob/ostendo/internal/pipeline"
)

// DefaultCandidates are the confidence thresholds swept when none are given.
var DefaultCandidates = []float64{0.55, 0.62, 0.72, 0.8}

const coverageTarget = 0.7

// projectMarkers identify a directory as a scannable project.
var projectMarkers = []string{
	"README.md", "readme.md", "main.py", "package.json", "pyproject.toml", "requirements.txt", "go.mod",
}

// Run is one threshold's aggregate result.
type Run struct {
	MinConfidence   float64 `json:"min_confidence"`
	AvgCoverage     float64 `json:"avg_coverage"`
	CoverageGE07    int     `json:"coverage_ge_0_7"`
	CoverageSamples int     `json:"coverage_samples"`
	Failures        int     `json:"failures"`
}

// Report is the corpus sweep output.
type Report struct {
	CorpusDir                string   `json:"corpus_dir"`
	Projects                 []string `json:"projects_considered"`
	ProjectCount             int      `json:"project_count"`
	Runs                     []Run    `json:"runs"`
	RecommendedMinConfidence float64  `json:"recommended_min_confidence"`
	ElapsedSec               float64  `json:"elapsed_sec"`
}

type Benchmarker struct {
	config *common.Config
	logger arbor.ILogger
}

func New(cfg *common.Config, logger arbor.ILogger) *Benchmarker {
	return &Benchmarker{config: cfg, logger: logger}
}

// VisualCoverage sweeps the candidate thresholds across the corpus and
// recommends the one with the best average image coverage.
func (b *Benchmarker) VisualCoverage(ctx context.Context, corpusDir string, candidates []float64, maxProjects int) (*Report, error) {
	abs, err := filepath.Abs(corpusDir)
	if err != nil {
		return nil, common.NewAppError(common.CodeInvalidInput, "invalid corpus path", err)
	}
	if len(candidates) == 0 {
		candidates = DefaultCandidates
	}
	if maxProjects < 1 {
		maxProjects = 1
	}

	projects := discoverProjects(abs)
	if len(projects) > maxProjects {
		projects = projects[:maxProjects]
	}

	started := time.Now()
	runs := make([]Run, 0, len(candidates))
	for _, minConf := range candidates {
		runs = append(runs, b.sweepOne(ctx, projects, minConf))
	}

	report := &Report{
		CorpusDir:    abs,
		Projects:     projects,
		ProjectCount: len(projects),
		Runs:         runs,
		ElapsedSec:   math.Round(time.Since(started).Seconds()*100) / 100,
	}

	best := make([]Run, len(runs))
	copy(best, runs)
	sort.Slice(best, func(i, j int) bool {
		if best[i].AvgCoverage != best[j].AvgCoverage {
			return best[i].AvgCoverage > best[j].AvgCoverage
		}
		return best[i].MinConfidence < best[j].MinConfidence
	})
	if len(best) > 0 {
		report.RecommendedMinConfidence = best[0].MinConfidence
	}

	return report, nil
}

func (b *Benchmarker) sweepOne(ctx context.Context, projects []string, minConf float64) Run {
	run := Run{MinConfidence: math.Round(minConf*1000) / 1000}

	cfg := DeepCloneForSweep(b.config, minConf)
	var coverage []float64
	for _, project := range projects {
		payload, err := pipeline.New(cfg, nil, b.logger).BuildPayload(ctx, project)
		if err != nil {
			b.logger.Warn().Err(err).Str("project", project).Msg("Benchmark run failed")
			run.Failures++
			continue
		}
		value := 0.0
		if payload.Quality != nil {
			value = payload.Quality.Metrics.ImageCoverage
		}
		coverage = append(coverage, value)
		if value >= coverageTarget {
			run.CoverageGE07++
		}
	}

	run.CoverageSamples = len(coverage)
	if len(coverage) > 0 {
		sum := 0.0
		for _, value := range coverage {
			sum += value
		}
		denominator := len(projects) - run.Failures
		if denominator < 1 {
			denominator = 1
		}
		run.AvgCoverage = math.Round(sum/float64(denominator)*1000) / 1000
	}
	return run
}

// DeepCloneForSweep produces a deterministic, non-strict config with the
// threshold under test applied.
func DeepCloneForSweep(cfg *common.Config, minConf float64) *common.Config {
	clone := common.DeepCloneConfig(cfg)
	clone.AI.Mode = common.AIModeOff
	clone.Generate.WithAI = false
	clone.Generate.Strict = false
	clone.Visuals.MinConfidence = minConf
	clone.Visuals.MaxPerSlide = 1
	return clone
}

func discoverProjects(root string) []string {
	var projects []string
	if looksLikeProject(root) {
		projects = append(projects, root)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return projects
	}
	sort.Slice(entries, func(i, j int) bool {
		return strings.ToLower(entries[i].Name()) < strings.ToLower(entries[j].Name())
	})

	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		path := filepath.Join(root, entry.Name())
		if looksLikeProject(path) {
			projects = append(projects, path)
		}
	}
	return projects
}

func looksLikeProject(path string) bool {
	for _, marker := range projectMarkers {
		if _, err := os.Stat(filepath.Join(path, marker)); err == nil {
			return true
		}
	}
	return false
}
