// Package quality checks a generated deck against the honesty rules:
// no hype language, no claims without evidence, and (in strict mode)
// adequate visual coverage with alt text.
package quality

import (
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ostendo/internal/common"
	"github.com/ternarybob/ostendo/internal/models"
)

// Rule names reported on issues
const (
	RuleHypeLanguage     = "hype_language"
	RuleDanglingEvidence = "dangling_evidence"
	RuleUnknownMedia     = "unknown_media"
	RuleImageCoverage    = "image_coverage"
	RuleMissingAltText   = "missing_alt_text"
)

// Gate evaluates a payload and produces the quality report
type Gate struct {
	config *common.QualityConfig
	logger arbor.ILogger
}

// NewGate creates a quality gate
func NewGate(config *common.QualityConfig, logger arbor.ILogger) *Gate {
	return &Gate{
		config: config,
		logger: logger,
	}
}

// Check runs every rule. In strict mode visual coverage and alt text
// failures are errors; otherwise they degrade to warnings.
func (g *Gate) Check(payload *models.Payload, strict bool) *models.QualityReport {
	report := &models.QualityReport{
		Errors:   []models.QualityIssue{},
		Warnings: []models.QualityIssue{},
	}

	g.checkHype(payload, report)
	g.checkEvidence(payload, report)
	g.checkVisuals(payload, strict, report)

	report.Passed = len(report.Errors) == 0

	g.logger.Debug().
		Bool("passed", report.Passed).
		Int("errors", len(report.Errors)).
		Int("warnings", len(report.Warnings)).
		Msg("Quality gate evaluated")

	return report
}

// CheckError wraps a failed report into the gate error for CLI exits
func (g *Gate) CheckError(report *models.QualityReport) error {
	if report.Passed {
		return nil
	}
	first := report.Errors[0]
	return common.NewAppError(common.CodeQualityGateFailed,
		fmt.Sprintf("quality gate failed with %d error(s); first: %s", len(report.Errors), first.Message), nil).
		WithHint("open the studio or run with -strict=false to review the slides")
}

func (g *Gate) checkHype(payload *models.Payload, report *models.QualityReport) {
	for i := range payload.Slides {
		slide := &payload.Slides[i]
		for _, text := range slideTexts(slide) {
			lower := strings.ToLower(text)
			for _, phrase := range g.config.BannedPhrases {
				if phrase == "" {
					continue
				}
				if strings.Contains(lower, strings.ToLower(phrase)) {
					report.Errors = append(report.Errors, models.QualityIssue{
						Rule:    RuleHypeLanguage,
						Message: fmt.Sprintf("banned phrase %q in slide %s", phrase, slide.ID),
						SlideID: slide.ID,
					})
				}
			}
		}
	}
}

func (g *Gate) checkEvidence(payload *models.Payload, report *models.QualityReport) {
	idx := payload.EvidenceIndex()
	for i := range payload.Slides {
		slide := &payload.Slides[i]
		for _, claim := range slide.Claims {
			for _, ref := range claim.EvidenceRefs {
				if !idx.Has(ref) {
					report.Errors = append(report.Errors, models.QualityIssue{
						Rule:    RuleDanglingEvidence,
						Message: fmt.Sprintf("claim on slide %s references unknown evidence %q", slide.ID, ref),
						SlideID: slide.ID,
					})
				}
			}
		}
	}
}

func (g *Gate) checkVisuals(payload *models.Payload, strict bool, report *models.QualityReport) {
	eligible := 0
	covered := 0
	confidenceSum := 0.0
	visualCount := 0
	var uncovered []string

	for i := range payload.Slides {
		slide := &payload.Slides[i]

		for _, v := range slide.Visuals {
			visualCount++
			confidenceSum += v.Confidence

			if payload.MediaByID(v.MediaID) == nil {
				report.Errors = append(report.Errors, models.QualityIssue{
					Rule:    RuleUnknownMedia,
					Message: fmt.Sprintf("slide %s references unknown media %q", slide.ID, v.MediaID),
					SlideID: slide.ID,
				})
			}

			if strings.TrimSpace(v.Alt) == "" {
				issue := models.QualityIssue{
					Rule:    RuleMissingAltText,
					Message: fmt.Sprintf("visual %s on slide %s is missing alt text", v.MediaID, slide.ID),
					SlideID: slide.ID,
				}
				if strict {
					report.Errors = append(report.Errors, issue)
				} else {
					report.Warnings = append(report.Warnings, issue)
				}
			}
		}

		if !slide.EligibleForVisuals() {
			continue
		}
		eligible++
		if len(slide.Visuals) > 0 {
			covered++
		} else {
			uncovered = append(uncovered, slide.ID)
		}
	}

	coverage := 1.0
	if eligible > 0 {
		coverage = float64(covered) / float64(eligible)
	}

	report.Metrics.ImageCoverage = coverage
	report.Metrics.SlidesWithoutVisual = uncovered
	if visualCount > 0 {
		report.Metrics.VisualConfidenceMean = confidenceSum / float64(visualCount)
	}

	if eligible > 0 && coverage < g.config.MinImageCoverage {
		issue := models.QualityIssue{
			Rule: RuleImageCoverage,
			Message: fmt.Sprintf("Image coverage %.0f%% below minimum %.0f%%",
				coverage*100, g.config.MinImageCoverage*100),
		}
		if strict {
			report.Errors = append(report.Errors, issue)
		} else {
			report.Warnings = append(report.Warnings, issue)
		}
	}
}

func slideTexts(slide *models.Slide) []string {
	texts := []string{slide.Title, slide.Notes}
	texts = append(texts, slide.Bullets...)
	for _, c := range slide.Claims {
		texts = append(texts, c.Text)
	}
	return texts
}
