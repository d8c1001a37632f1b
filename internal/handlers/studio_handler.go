package handlers

import (
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ostendo/internal/common"
	"github.com/ternarybob/ostendo/internal/models"
	"github.com/ternarybob/ostendo/internal/studio"
)

// StudioHandler serves the workspace API backed by the studio state
type StudioHandler struct {
	state  *studio.State
	logger arbor.ILogger
}

// NewStudioHandler creates a StudioHandler
func NewStudioHandler(state *studio.State, logger arbor.ILogger) *StudioHandler {
	return &StudioHandler{
		state:  state,
		logger: logger,
	}
}

// ContextHandler handles GET /api/context
func (h *StudioHandler) ContextHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	WriteOK(w, h.state.Context())
}

// SlidesHandler handles GET and POST /api/slides
func (h *StudioHandler) SlidesHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		WriteOK(w, map[string]interface{}{"slides": h.state.Slides()})
	case http.MethodPost:
		var body struct {
			Slides []studio.SlidePatch `json:"slides"`
		}
		if err := ReadJSONBody(r, &body); err != nil {
			WriteAppError(w, err)
			return
		}
		slides, report, err := h.state.UpdateSlides(body.Slides)
		if err != nil {
			WriteAppError(w, err)
			return
		}
		WriteOK(w, map[string]interface{}{"slides": slides, "quality": report})
	default:
		WriteError(w, http.StatusMethodNotAllowed,
			common.NewAppError(common.CodeInvalidInput, "method not allowed: "+r.Method, nil))
	}
}

// EvidenceHandler handles GET /api/evidence
func (h *StudioHandler) EvidenceHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	WriteOK(w, map[string]interface{}{"evidence": h.state.EvidenceList()})
}

// MediaHandler handles GET /api/media and GET /api/media/{id}/file
func (h *StudioHandler) MediaHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/media")
	rest = strings.Trim(rest, "/")
	if rest == "" {
		WriteOK(w, map[string]interface{}{"media": h.state.MediaCatalog()})
		return
	}

	id, tail, _ := strings.Cut(rest, "/")
	if tail != "file" {
		WriteError(w, http.StatusNotFound,
			common.NewAppError(common.CodeInvalidInput, "unknown media route: "+r.URL.Path, nil))
		return
	}

	path, err := h.state.MediaPath(id)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	http.ServeFile(w, r, path)
}

// SessionHandler handles GET and PUT /api/session
func (h *StudioHandler) SessionHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		WriteOK(w, map[string]interface{}{"session": h.state.Session()})
	case http.MethodPut:
		var body struct {
			Label string `json:"label"`
		}
		if err := ReadJSONBody(r, &body); err != nil {
			WriteAppError(w, err)
			return
		}
		session, err := h.state.SaveSession(body.Label)
		if err != nil {
			WriteAppError(w, err)
			return
		}
		WriteOK(w, map[string]interface{}{"session": session})
	default:
		WriteError(w, http.StatusMethodNotAllowed,
			common.NewAppError(common.CodeInvalidInput, "method not allowed: "+r.Method, nil))
	}
}

// ValidateHandler handles POST /api/validate
func (h *StudioHandler) ValidateHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}
	var body struct {
		Slides []models.Slide `json:"slides"`
	}
	if err := ReadJSONBody(r, &body); err != nil {
		WriteAppError(w, err)
		return
	}
	WriteOK(w, map[string]interface{}{"quality": h.state.Validate(body.Slides)})
}

// ExportHandler handles POST /api/export
func (h *StudioHandler) ExportHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}
	var body struct {
		Format     string `json:"format"`
		OutputPath string `json:"output_path"`
	}
	if err := ReadJSONBody(r, &body); err != nil {
		WriteAppError(w, err)
		return
	}
	if body.Format == "" {
		body.Format = "html"
	}
	result, err := h.state.Export(body.Format, body.OutputPath)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteOK(w, result)
}

// AutoFixVisualsHandler handles POST /api/visuals/auto-fix
func (h *StudioHandler) AutoFixVisualsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}
	slides, report, err := h.state.AutoFixVisuals()
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteOK(w, map[string]interface{}{"slides": slides, "quality": report})
}
