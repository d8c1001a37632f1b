// Package artifacts writes the auxiliary outputs that accompany a deck:
// speaker notes, timed talk tracks, the bundle manifest and the
// submission package.
package artifacts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ostendo/internal/models"
)

const summaryMaxChars = 200

// talkTrackDurations are the pitch lengths emitted into talk-track.md
var talkTrackDurations = []int{30, 60, 180}

// Builder renders auxiliary artifacts from a generated payload
type Builder struct {
	logger arbor.ILogger
}

// NewBuilder creates an artifact builder
func NewBuilder(logger arbor.ILogger) *Builder {
	return &Builder{logger: logger}
}

// NotesMarkdown renders per-slide speaker notes. Slides without notes
// get a fallback line derived from the slide body.
func (b *Builder) NotesMarkdown(slides []models.Slide) []byte {
	var sb strings.Builder
	sb.WriteString("# Speaker Notes\n")

	for i := range slides {
		slide := &slides[i]
		fmt.Fprintf(&sb, "\n## %d. %s\n\n", i+1, slideTitle(slide, i))

		note := strings.TrimSpace(slide.Notes)
		if note == "" {
			note = slideSummary(slide)
		}
		if note == "" {
			note = "Keep this section concise and tie it to repository evidence."
		}
		sb.WriteString(note)
		sb.WriteString("\n")

		if refs := claimRefs(slide); len(refs) > 0 {
			sb.WriteString("\nEvidence refs: " + strings.Join(refs, ", ") + "\n")
		}
	}

	return []byte(sb.String())
}

// TalkTrackMarkdown renders 30, 60 and 180 second pitch outlines with a
// per-slide time allocation.
func (b *Builder) TalkTrackMarkdown(slides []models.Slide) []byte {
	var sb strings.Builder
	sb.WriteString("# Talk Track\n")

	for _, seconds := range talkTrackDurations {
		fmt.Fprintf(&sb, "\n## %s\n\n", durationTitle(seconds))

		if len(slides) == 0 {
			sb.WriteString("No slides available.\n")
			continue
		}

		perSlide := seconds / len(slides)
		if perSlide < 1 {
			perSlide = 1
		}
		for i := range slides {
			slide := &slides[i]
			summary := slideSummary(slide)
			if summary == "" {
				summary = "Present key point and connect to evidence."
			}
			fmt.Fprintf(&sb, "- [%02ds] %s: %s\n", perSlide, slideTitle(slide, i), summary)
		}
	}

	return []byte(sb.String())
}

func slideTitle(slide *models.Slide, index int) string {
	if title := strings.TrimSpace(slide.Title); title != "" {
		return title
	}
	if slide.ID != "" {
		return slide.ID
	}
	return fmt.Sprintf("Slide %d", index+1)
}

// slideSummary produces a one-line description from the slide body
func slideSummary(slide *models.Slide) string {
	if len(slide.Bullets) > 0 {
		if first := strings.TrimSpace(slide.Bullets[0]); first != "" {
			return truncate(first, summaryMaxChars)
		}
	}
	if len(slide.Claims) > 0 {
		if text := strings.TrimSpace(slide.Claims[0].Text); text != "" {
			return truncate(text, summaryMaxChars)
		}
	}
	return ""
}

// claimRefs returns the sorted union of evidence ids cited on the slide
func claimRefs(slide *models.Slide) []string {
	seen := make(map[string]bool)
	var refs []string
	for _, claim := range slide.Claims {
		for _, ref := range claim.EvidenceRefs {
			if !seen[ref] {
				seen[ref] = true
				refs = append(refs, ref)
			}
		}
	}
	sort.Strings(refs)
	return refs
}

func durationTitle(seconds int) string {
	switch seconds {
	case 30:
		return "30 Second Pitch"
	case 60:
		return "60 Second Pitch"
	case 180:
		return "3 Minute Pitch"
	default:
		return fmt.Sprintf("%d Second Pitch", seconds)
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
