package models

// QualityIssue is one finding from the quality gate
type QualityIssue struct {
	Rule    string `json:"rule"`
	Message string `json:"message"`
	SlideID string `json:"slide_id,omitempty"`
}

// QualityMetrics summarizes measurable deck properties
type QualityMetrics struct {
	ImageCoverage        float64  `json:"image_coverage"`         // Fraction of visual-eligible slides with at least one visual
	SlidesWithoutVisual  []string `json:"slides_without_visual"`  // IDs of eligible slides with no visual
	VisualConfidenceMean float64  `json:"visual_confidence_mean"` // Mean confidence across attached visuals, 0 when none
}

// QualityReport is the gate output recorded on the payload
type QualityReport struct {
	Passed   bool           `json:"passed"`
	Errors   []QualityIssue `json:"errors"`
	Warnings []QualityIssue `json:"warnings"`
	Metrics  QualityMetrics `json:"metrics"`
}
