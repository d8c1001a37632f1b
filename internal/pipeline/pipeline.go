// Package pipeline runs the end-to-end generation sequence: scan,
// parse, collect, build, refine, attach, gate, render.
package pipeline

import (
	"context"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ostendo/internal/ai"
	"github.com/ternarybob/ostendo/internal/analyzer"
	"github.com/ternarybob/ostendo/internal/artifacts"
	"github.com/ternarybob/ostendo/internal/common"
	"github.com/ternarybob/ostendo/internal/docs"
	"github.com/ternarybob/ostendo/internal/evidence"
	"github.com/ternarybob/ostendo/internal/gitctx"
	"github.com/ternarybob/ostendo/internal/interfaces"
	"github.com/ternarybob/ostendo/internal/models"
	"github.com/ternarybob/ostendo/internal/quality"
	"github.com/ternarybob/ostendo/internal/render"
	"github.com/ternarybob/ostendo/internal/slides"
	"github.com/ternarybob/ostendo/internal/visuals"
)

// Result describes a completed generation run
type Result struct {
	Payload   *models.Payload
	OutDir    string
	Artifacts []string
}

// Pipeline wires the generation stages together
type Pipeline struct {
	config  *common.Config
	storage interfaces.StorageManager
	logger  arbor.ILogger
}

// New creates a pipeline. The storage manager may be nil, in which case
// image probing runs without a cache.
func New(config *common.Config, storage interfaces.StorageManager, logger arbor.ILogger) *Pipeline {
	return &Pipeline{
		config:  config,
		storage: storage,
		logger:  logger,
	}
}

// BuildPayload runs every stage up to and including the quality gate
// and returns the assembled payload. The quality report is attached but
// not enforced; callers decide whether a failed gate is fatal.
func (p *Pipeline) BuildPayload(ctx context.Context, projectDir string) (*models.Payload, error) {
	scan, err := analyzer.New(&p.config.Analyzer, p.logger).Scan(projectDir)
	if err != nil {
		return nil, err
	}
	p.logger.Info().
		Int("files", scan.FileCount).
		Int("lines", scan.TotalLines).
		Msg("Scanned project")

	doc, err := docs.NewParser(p.logger).Parse(projectDir, p.config.Docs.ReadmePath)
	if err != nil {
		return nil, err
	}

	git := gitctx.New(&p.config.Git, p.logger).Collect(ctx, projectDir)

	var cache interfaces.MediaCache
	if p.storage != nil {
		cache = p.storage.MediaCache()
	}
	media, err := visuals.NewIndexer(&p.config.Visuals, &p.config.Analyzer, cache, p.logger).Index(ctx, projectDir, doc)
	if err != nil {
		return nil, err
	}

	evidenceList := evidence.NewBuilder(p.logger).Build(scan, doc, git, media)

	deck, err := slides.NewBuilder(p.logger).Build(slides.Inputs{
		Scan:     scan,
		Doc:      doc,
		Git:      git,
		Evidence: models.NewEvidenceIndex(evidenceList),
	}, p.config.Generate.SlideTypes)
	if err != nil {
		return nil, err
	}

	payload := &models.Payload{
		SchemaVersion: models.SchemaVersion,
		Project:       *scan,
		Readme:        *doc,
		Git:           *git,
		Slides:        deck,
		Evidence:      evidenceList,
		Media:         media,
	}

	refiner := ai.NewRefiner(p.config, p.logger)
	defer refiner.Close()
	aiWarnings, err := refiner.Refine(ctx, payload)
	if err != nil {
		return nil, err
	}

	payload.Slides = visuals.NewSelector(&p.config.Visuals, p.logger).Attach(payload.Slides, payload.Media)

	report := quality.NewGate(&p.config.Quality, p.logger).Check(payload, p.config.Generate.Strict)
	for _, warning := range aiWarnings {
		report.Warnings = append(report.Warnings, models.QualityIssue{
			Rule:    "ai_fallback",
			Message: warning,
		})
	}
	payload.Quality = report

	return payload, nil
}

// Generate runs the pipeline and writes the output bundle. A failed
// quality gate aborts before anything is written.
func (p *Pipeline) Generate(ctx context.Context, projectDir string) (*Result, error) {
	payload, err := p.BuildPayload(ctx, projectDir)
	if err != nil {
		return nil, err
	}

	gate := quality.NewGate(&p.config.Quality, p.logger)
	if err := gate.CheckError(payload.Quality); err != nil {
		return nil, err
	}

	outDir := p.config.Generate.OutDir
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, common.NewAppError(common.CodeRuntimeError, "failed to create output directory", err)
	}

	renderer := render.NewRenderer(p.logger)
	builder := artifacts.NewBuilder(p.logger)

	written := make([]string, 0, 6)
	write := func(name string, data []byte) error {
		target := filepath.Join(outDir, name)
		if err := os.WriteFile(target, data, 0644); err != nil {
			return common.NewAppError(common.CodeRuntimeError, "failed to write "+name, err)
		}
		written = append(written, target)
		return nil
	}

	deckJSON, err := renderer.JSON(payload)
	if err != nil {
		return nil, err
	}
	if err := write("deck.json", deckJSON); err != nil {
		return nil, err
	}

	deckHTML, err := renderer.HTML(payload)
	if err != nil {
		return nil, err
	}
	if err := write("deck.html", deckHTML); err != nil {
		return nil, err
	}

	if err := write("deck.md", renderer.Markdown(payload)); err != nil {
		return nil, err
	}

	deckPDF, err := renderer.PDF(payload)
	if err != nil {
		return nil, err
	}
	if err := write("deck.pdf", deckPDF); err != nil {
		return nil, err
	}

	if err := write("notes.md", builder.NotesMarkdown(payload.Slides)); err != nil {
		return nil, err
	}
	if err := write("talk-track.md", builder.TalkTrackMarkdown(payload.Slides)); err != nil {
		return nil, err
	}

	manifestPath, err := builder.WriteManifest(outDir, written, payload)
	if err != nil {
		return nil, err
	}
	written = append(written, manifestPath)

	p.logger.Info().
		Str("out_dir", outDir).
		Int("artifacts", len(written)).
		Msg("Wrote output bundle")

	return &Result{
		Payload:   payload,
		OutDir:    outDir,
		Artifacts: written,
	}, nil
}

// Validate runs the full pipeline in memory and enforces the quality
// gate without writing any files.
func (p *Pipeline) Validate(ctx context.Context, projectDir string) (*models.Payload, error) {
	payload, err := p.BuildPayload(ctx, projectDir)
	if err != nil {
		return nil, err
	}
	gate := quality.NewGate(&p.config.Quality, p.logger)
	if err := gate.CheckError(payload.Quality); err != nil {
		return payload, err
	}
	return payload, nil
}

// Package builds the submission archive from an existing output bundle,
// regenerating the bundle first when it is missing.
func (p *Pipeline) Package(ctx context.Context, projectDir, outputZip string) (string, error) {
	result, err := p.Generate(ctx, projectDir)
	if err != nil {
		return "", err
	}
	return artifacts.NewBuilder(p.logger).DevpostPackage(projectDir, outputZip, result.Payload, result.Artifacts)
}
