package models

// MediaKind distinguishes README-referenced images from plain repo images
type MediaKind string

const (
	// MediaDocImage is an image referenced from the README
	MediaDocImage MediaKind = "doc_image"
	// MediaRepoImage is an image found in the tree without a README reference
	MediaRepoImage MediaKind = "repo_image"
)

// MediaEntry is one indexed project image.
// ID is "media." + first 16 hex chars of the content sha256, so the same
// bytes always index to the same id regardless of path.
type MediaEntry struct {
	ID         string    `json:"id"`
	Path       string    `json:"path"` // Relative to the project root, forward slashes
	Kind       MediaKind `json:"kind"`
	Mime       string    `json:"mime"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	SizeBytes  int64     `json:"size_bytes"`
	Tags       []string  `json:"tags"`
	Alt        string    `json:"alt,omitempty"`         // Alt text from the README reference, when present
	PreviewURI string    `json:"preview_uri,omitempty"` // Inline data URI for small images
}
