package quality

import (
	"strings"
	"testing"

	"github.com/ternarybob/ostendo/internal/common"
	"github.com/ternarybob/ostendo/internal/models"
)

func newTestGate() *Gate {
	cfg := common.NewDefaultConfig()
	return NewGate(&cfg.Quality, common.GetLogger())
}

func basePayload() *models.Payload {
	return &models.Payload{
		SchemaVersion: models.SchemaVersion,
		Evidence: []models.Evidence{
			{ID: "repo.files", Kind: models.EvidenceRepo, Snippet: "Repository contains 10 files."},
		},
		Media: []models.MediaEntry{
			{ID: "media.0000aaaa0000aaaa", Path: "demo.png", Mime: "image/png"},
		},
		Slides: []models.Slide{
			{ID: "slide.title", Type: models.SlideTitle, Title: "Demo"},
			{
				ID: "slide.problem", Type: models.SlideProblem, Title: "The Problem",
				Bullets: []string{"Choosing lunch wastes time."},
				Claims: []models.Claim{
					{Text: "from README", EvidenceRefs: []string{"repo.files"}, Confidence: 0.9},
				},
				Visuals: []models.Visual{
					{MediaID: "media.0000aaaa0000aaaa", Alt: "screenshot", Confidence: 0.8, Source: "auto"},
				},
			},
			{ID: "slide.closing", Type: models.SlideClosing, Title: "Thanks"},
		},
	}
}

func TestCleanDeckPasses(t *testing.T) {
	report := newTestGate().Check(basePayload(), true)
	if !report.Passed {
		t.Fatalf("clean deck failed the gate: %+v", report.Errors)
	}
	if report.Metrics.ImageCoverage != 1.0 {
		t.Errorf("coverage = %g, want 1.0", report.Metrics.ImageCoverage)
	}
}

func TestHypePhraseFailsGate(t *testing.T) {
	payload := basePayload()
	payload.Slides[1].Bullets = append(payload.Slides[1].Bullets, "A revolutionary new approach to lunch")

	report := newTestGate().Check(payload, false)
	if report.Passed {
		t.Fatal("deck with hype language passed the gate")
	}

	found := false
	for _, issue := range report.Errors {
		if issue.Rule == RuleHypeLanguage && strings.Contains(issue.Message, "revolutionary") {
			found = true
		}
	}
	if !found {
		t.Errorf("no hype_language error reported: %+v", report.Errors)
	}
}

func TestDanglingEvidenceFailsGate(t *testing.T) {
	payload := basePayload()
	payload.Slides[1].Claims = append(payload.Slides[1].Claims,
		models.Claim{Text: "made up", EvidenceRefs: []string{"doc.invented"}, Confidence: 0.9})

	report := newTestGate().Check(payload, false)
	if report.Passed {
		t.Fatal("deck with a dangling evidence ref passed the gate")
	}
	if report.Errors[0].Rule != RuleDanglingEvidence {
		t.Errorf("rule = %s, want dangling_evidence", report.Errors[0].Rule)
	}
}

func TestLowCoverageStrictVsRelaxed(t *testing.T) {
	payload := basePayload()
	payload.Slides[1].Visuals = nil // coverage drops to 0 of 1 eligible

	strict := newTestGate().Check(payload, true)
	if strict.Passed {
		t.Error("strict gate passed with zero image coverage")
	}
	foundCoverage := false
	for _, issue := range strict.Errors {
		if issue.Rule == RuleImageCoverage && strings.HasPrefix(issue.Message, "Image coverage") {
			foundCoverage = true
		}
	}
	if !foundCoverage {
		t.Errorf("no image_coverage error in strict mode: %+v", strict.Errors)
	}

	relaxed := newTestGate().Check(payload, false)
	if !relaxed.Passed {
		t.Errorf("relaxed gate should warn, not fail: %+v", relaxed.Errors)
	}
	if len(relaxed.Warnings) == 0 {
		t.Error("relaxed gate should carry a coverage warning")
	}
}

func TestMissingAltTextStrict(t *testing.T) {
	payload := basePayload()
	payload.Slides[1].Visuals[0].Alt = ""

	strict := newTestGate().Check(payload, true)
	if strict.Passed {
		t.Error("strict gate passed with missing alt text")
	}

	relaxed := newTestGate().Check(payload, false)
	if !relaxed.Passed {
		t.Error("relaxed gate should not fail on missing alt text")
	}
}

func TestUnknownMediaAlwaysFails(t *testing.T) {
	payload := basePayload()
	payload.Slides[1].Visuals[0].MediaID = "media.doesnotexist00"

	report := newTestGate().Check(payload, false)
	if report.Passed {
		t.Fatal("deck referencing unknown media passed the gate")
	}
}

func TestMetrics(t *testing.T) {
	payload := basePayload()
	report := newTestGate().Check(payload, false)

	if len(report.Metrics.SlidesWithoutVisual) != 0 {
		t.Errorf("slides_without_visual = %v", report.Metrics.SlidesWithoutVisual)
	}
	if report.Metrics.VisualConfidenceMean != 0.8 {
		t.Errorf("visual_confidence_mean = %g, want 0.8", report.Metrics.VisualConfidenceMean)
	}
}
