package visuals

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ostendo/internal/common"
	"github.com/ternarybob/ostendo/internal/models"
)

// primaryStyleMarkers and secondaryStyleMarkers are filename tokens that
// usually indicate presentation-ready imagery.
var (
	primaryStyleMarkers   = []string{"screenshot", "demo", "ui", "screen"}
	secondaryStyleMarkers = []string{"diagram", "arch", "architecture", "chart", "flow"}
)

// slideKeywords maps slide types to media tags that should attract images
var slideKeywords = map[models.SlideType][]string{
	models.SlideDemo:   {"demo", "screenshot", "screen", "ui", "gif"},
	models.SlideTech:   {"diagram", "architecture", "arch", "stack", "flow"},
	models.SlideImpact: {"chart", "graph", "metrics", "results", "benchmark"},
}

// Selector attaches indexed media to slides by token-overlap scoring.
// All bonus magnitudes come from configuration so the scorer can be tuned
// without a rebuild.
type Selector struct {
	config *common.VisualsConfig
	logger arbor.ILogger
}

// NewSelector creates a visual selector
func NewSelector(config *common.VisualsConfig, logger arbor.ILogger) *Selector {
	return &Selector{
		config: config,
		logger: logger,
	}
}

// Score computes the attachment confidence for one slide/media pair.
// Base score is normalized token overlap; bonuses stack on top, clamped to 1.
func (s *Selector) Score(slide *models.Slide, media *models.MediaEntry) float64 {
	slideTokens := slideTokenSet(slide)
	mediaTokens := map[string]bool{}
	for _, t := range media.Tags {
		mediaTokens[t] = true
	}

	score := 0.0
	if len(slideTokens) > 0 && len(mediaTokens) > 0 {
		overlap := 0
		for t := range mediaTokens {
			if slideTokens[t] {
				overlap++
			}
		}
		score = float64(overlap) / math.Sqrt(float64(len(slideTokens))*float64(len(mediaTokens)))
	}

	// Evidence overlap: a claim citing this image is the strongest signal
	for _, claim := range slide.Claims {
		for _, ref := range claim.EvidenceRefs {
			if ref == media.ID {
				score += s.config.EvidenceRefBonus
			}
		}
	}

	if media.Kind == models.MediaDocImage {
		score += s.config.DocImageBonus
	}

	pathLower := strings.ToLower(media.Path)
	if containsAny(pathLower, primaryStyleMarkers) {
		score += s.config.StyleBonus
	} else if containsAny(pathLower, secondaryStyleMarkers) {
		score += s.config.StyleBonusMinor
	}

	if keywords, ok := slideKeywords[slide.Type]; ok {
		for _, kw := range keywords {
			if mediaTokens[kw] {
				score += s.config.KeywordBonus
				break
			}
		}
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// Attach scores every media entry against every eligible slide and attaches
// at most MaxPerSlide images above MinConfidence. Ties break by media id so
// runs are reproducible. Slides that already carry visuals are left alone.
func (s *Selector) Attach(slides []models.Slide, media []models.MediaEntry) []models.Slide {
	for i := range slides {
		slide := &slides[i]
		if !slide.EligibleForVisuals() || len(slide.Visuals) > 0 {
			continue
		}
		slide.Visuals = s.pick(slide, media)
	}
	return slides
}

type scoredMedia struct {
	entry *models.MediaEntry
	score float64
}

func (s *Selector) pick(slide *models.Slide, media []models.MediaEntry) []models.Visual {
	var candidates []scoredMedia
	for i := range media {
		score := s.Score(slide, &media[i])
		if score >= s.config.MinConfidence {
			candidates = append(candidates, scoredMedia{entry: &media[i], score: score})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].entry.ID < candidates[j].entry.ID
	})

	max := s.config.MaxPerSlide
	if max <= 0 {
		max = 2
	}
	if len(candidates) > max {
		candidates = candidates[:max]
	}

	visuals := make([]models.Visual, 0, len(candidates))
	for _, c := range candidates {
		visuals = append(visuals, models.Visual{
			MediaID:    c.entry.ID,
			Alt:        altTextFor(c.entry),
			Confidence: c.score,
			Source:     "auto",
		})
	}
	return visuals
}

// AltTextFor derives non-empty alt text for a media entry
func altTextFor(entry *models.MediaEntry) string {
	if entry.Alt != "" {
		return entry.Alt
	}
	if len(entry.Tags) > 0 {
		n := len(entry.Tags)
		if n > 3 {
			n = 3
		}
		return strings.Join(entry.Tags[:n], " ")
	}
	return fmt.Sprintf("project image %s", entry.Path)
}

// FillMissingAltText rewrites visuals lacking alt text, returning the
// number repaired. Used by the studio auto-fix endpoint.
func FillMissingAltText(slides []models.Slide, payload *models.Payload) int {
	fixed := 0
	for i := range slides {
		for j := range slides[i].Visuals {
			v := &slides[i].Visuals[j]
			if strings.TrimSpace(v.Alt) != "" {
				continue
			}
			if entry := payload.MediaByID(v.MediaID); entry != nil {
				v.Alt = altTextFor(entry)
			} else {
				v.Alt = "project image"
			}
			fixed++
		}
	}
	return fixed
}

func slideTokenSet(slide *models.Slide) map[string]bool {
	tokens := map[string]bool{}
	add := func(text string) {
		for _, tok := range tokenRe.FindAllString(strings.ToLower(text), -1) {
			if len(tok) >= 2 {
				tokens[tok] = true
			}
		}
	}
	add(slide.Title)
	for _, b := range slide.Bullets {
		add(b)
	}
	add(slide.Notes)
	return tokens
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
