package models

// SlideType identifies one of the canonical deck slide kinds
type SlideType string

const (
	SlideTitle    SlideType = "title"
	SlideProblem  SlideType = "problem"
	SlideSolution SlideType = "solution"
	SlideDemo     SlideType = "demo"
	SlideImpact   SlideType = "impact"
	SlideTech     SlideType = "tech"
	SlideFuture   SlideType = "future"
	SlideDelta    SlideType = "delta"
	SlideClosing  SlideType = "closing"
)

// AllSlideTypes is the canonical deck order. Builders emit slides in this
// order regardless of the order types were requested in.
var AllSlideTypes = []SlideType{
	SlideTitle,
	SlideProblem,
	SlideSolution,
	SlideDemo,
	SlideImpact,
	SlideTech,
	SlideFuture,
	SlideDelta,
	SlideClosing,
}

// IsValidSlideType reports whether t names a canonical slide type
func IsValidSlideType(t string) bool {
	for _, st := range AllSlideTypes {
		if string(st) == t {
			return true
		}
	}
	return false
}

// Claim is a single factual statement on a slide, tied to evidence records
type Claim struct {
	Text         string   `json:"text"`
	EvidenceRefs []string `json:"evidence_refs"`
	Confidence   float64  `json:"confidence"`
}

// Visual is an image attached to a slide by the selector or the studio user
type Visual struct {
	MediaID    string  `json:"media_id"`
	Caption    string  `json:"caption,omitempty"`
	Alt        string  `json:"alt"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"` // "auto" or "manual"
}

// Slide is one deck slide with speaker notes, claims and attached visuals
type Slide struct {
	ID      string    `json:"id"`
	Type    SlideType `json:"type"`
	Title   string    `json:"title"`
	Bullets []string  `json:"bullets"`
	Notes   string    `json:"notes,omitempty"`
	Claims  []Claim   `json:"claims"`
	Visuals []Visual  `json:"visuals"`
}

// EligibleForVisuals reports whether the slide type may carry images.
// Title and closing slides stay text-only.
func (s *Slide) EligibleForVisuals() bool {
	return s.Type != SlideTitle && s.Type != SlideClosing
}
