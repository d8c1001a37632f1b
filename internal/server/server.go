// Package server hosts the studio workspace over loopback HTTP.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ostendo/internal/common"
	"github.com/ternarybob/ostendo/internal/handlers"
	"github.com/ternarybob/ostendo/internal/studio"
)

// Server manages the HTTP server and routes
type Server struct {
	config *common.Config
	state  *studio.State
	logger arbor.ILogger

	router *http.ServeMux
	server *http.Server

	studioHandler *handlers.StudioHandler
	wsHandler     *handlers.WSHandler
	apiHandler    *handlers.APIHandler
}

// New creates the studio HTTP server. Only loopback hosts are accepted;
// the workspace is not meant to be exposed.
func New(config *common.Config, state *studio.State, logger arbor.ILogger) (*Server, error) {
	if !isLoopbackHost(config.Server.Host) {
		return nil, common.NewAppError(common.CodeConfigError,
			fmt.Sprintf("studio must bind to a loopback address, got %q", config.Server.Host), nil).
			WithHint("use 127.0.0.1 or localhost")
	}

	s := &Server{
		config:        config,
		state:         state,
		logger:        logger,
		studioHandler: handlers.NewStudioHandler(state, logger),
		wsHandler:     handlers.NewWSHandler(state.Events(), logger),
		apiHandler:    handlers.NewAPIHandler(logger),
	}

	s.router = s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.withConditionalMiddleware(s.router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// URL returns the address clients should open
func (s *Server) URL() string {
	return fmt.Sprintf("http://%s:%d/", s.config.Server.Host, s.config.Server.Port)
}

// Start starts the HTTP server and blocks until shutdown
func (s *Server) Start() error {
	s.logger.Info().
		Str("address", s.server.Addr).
		Str("project", s.state.ProjectRoot()).
		Msg("Studio server starting")
	s.logger.Info().Str("url", s.URL()).Msg("Workspace available")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down studio server...")

	s.state.Events().Close()
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info().Msg("Studio server stopped")
	return nil
}

func isLoopbackHost(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
