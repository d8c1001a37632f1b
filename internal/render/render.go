// Package render writes the generated deck as JSON, Marp Markdown,
// self-contained HTML and PDF.
package render

import (
	"encoding/json"
	"path/filepath"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ostendo/internal/common"
	"github.com/ternarybob/ostendo/internal/models"
)

// Renderer turns a payload into output artifacts
type Renderer struct {
	logger arbor.ILogger
}

// NewRenderer creates a renderer
func NewRenderer(logger arbor.ILogger) *Renderer {
	return &Renderer{logger: logger}
}

// JSON renders the payload as indented JSON. Output is byte-identical for
// identical payloads: struct fields emit in declaration order and Go sorts
// map keys during marshal.
func (r *Renderer) JSON(payload *models.Payload) ([]byte, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, common.NewAppError(common.CodeRuntimeError, "failed to encode deck JSON", err)
	}
	return append(data, '\n'), nil
}

// mediaFilePath resolves a catalog path against the scanned project root
func mediaFilePath(payload *models.Payload, entry *models.MediaEntry) string {
	if filepath.IsAbs(entry.Path) {
		return entry.Path
	}
	return filepath.Join(payload.Project.RootPath, filepath.FromSlash(entry.Path))
}
