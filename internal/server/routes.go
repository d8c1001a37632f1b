package server

import (
	"net/http"

	"github.com/ternarybob/ostendo/internal/webui"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Static workspace page
	mux.Handle("/", webui.Handler())

	// WebSocket event stream
	mux.HandleFunc("/ws", s.wsHandler.HandleWebSocket)

	// API routes - workspace state
	mux.HandleFunc("/api/context", s.studioHandler.ContextHandler)   // GET
	mux.HandleFunc("/api/slides", s.studioHandler.SlidesHandler)     // GET (list), POST (update)
	mux.HandleFunc("/api/evidence", s.studioHandler.EvidenceHandler) // GET
	mux.HandleFunc("/api/media", s.studioHandler.MediaHandler)       // GET
	mux.HandleFunc("/api/media/", s.studioHandler.MediaHandler)      // GET /{id}/file
	mux.HandleFunc("/api/session", s.studioHandler.SessionHandler)   // GET, PUT

	// API routes - actions
	mux.HandleFunc("/api/validate", s.studioHandler.ValidateHandler)               // POST
	mux.HandleFunc("/api/export", s.studioHandler.ExportHandler)                   // POST
	mux.HandleFunc("/api/visuals/auto-fix", s.studioHandler.AutoFixVisualsHandler) // POST

	// API routes - system
	mux.HandleFunc("/api/version", s.apiHandler.VersionHandler) // GET
	mux.HandleFunc("/api/health", s.apiHandler.HealthHandler)   // GET

	return mux
}
