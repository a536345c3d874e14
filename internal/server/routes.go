package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Scrape sessions
	mux.HandleFunc("/scrape", s.app.ScrapeHandler.SubmitHandler)        // POST - submit criteria
	mux.HandleFunc("/scrape/", s.app.ScrapeHandler.SessionRoutesHandler) // GET /{id}/status, POST /{id}/close

	// Standalone browser management
	mux.HandleFunc("/browser/create", s.app.BrowserHandler.CreateHandler)      // POST - provision a browser
	mux.HandleFunc("/browser/list", s.app.BrowserHandler.ListHandler)          // GET - live browser handles
	mux.HandleFunc("/browser/close-all", s.app.BrowserHandler.CloseAllHandler) // POST - release everything
	mux.HandleFunc("/browser/", s.app.BrowserHandler.InstanceRoutesHandler)    // POST /{id}/close, /{id}/associate/{sessionId}

	// System
	mux.HandleFunc("/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/health", s.app.APIHandler.HealthHandler)
	mux.HandleFunc("/status", s.app.StatusHandler.GetStatusHandler)

	// 404 handler for everything else
	mux.HandleFunc("/", s.app.APIHandler.NotFoundHandler)

	return mux
}
