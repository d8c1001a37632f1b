package models

// EvidenceKind categorizes where an evidence record was extracted from
type EvidenceKind string

const (
	EvidenceRepo  EvidenceKind = "repo"
	EvidenceDoc   EvidenceKind = "doc"
	EvidenceGit   EvidenceKind = "git"
	EvidenceMedia EvidenceKind = "media"
)

// LineSpan is a 1-based inclusive line range within a source file
type LineSpan struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Evidence is a verifiable record backing slide claims.
// ID forms: repo.<topic>, doc.<section>, git.<field>, media.<sha16>.
// Snippet is capped at 320 characters; SnippetHash is the sha1 of the
// untruncated snippet so edits to source material are detectable.
type Evidence struct {
	ID          string       `json:"id"`
	Kind        EvidenceKind `json:"kind"`
	Source      string       `json:"source"`
	Snippet     string       `json:"snippet"`
	SnippetHash string       `json:"snippet_hash"`
	LineSpan    *LineSpan    `json:"line_span,omitempty"`
}

// EvidenceIndex resolves evidence ids to records
type EvidenceIndex map[string]Evidence

// NewEvidenceIndex builds an index from a record list
func NewEvidenceIndex(records []Evidence) EvidenceIndex {
	idx := make(EvidenceIndex, len(records))
	for _, e := range records {
		idx[e.ID] = e
	}
	return idx
}

// Has reports whether the id resolves
func (idx EvidenceIndex) Has(id string) bool {
	_, ok := idx[id]
	return ok
}
