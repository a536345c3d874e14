package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/prospect/internal/interfaces"
	"github.com/ternarybob/prospect/internal/models"
)

// ScrapeService is the orchestrator surface the scrape API drives.
type ScrapeService interface {
	Submit(ctx context.Context, criteria models.SearchCriteria) (models.Session, error)
	Status(id string) (models.Session, error)
	Close(id string) error
}

// ScrapeHandler handles HTTP requests for scrape sessions
type ScrapeHandler struct {
	service  ScrapeService
	validate *validator.Validate
	logger   arbor.ILogger
}

// NewScrapeHandler creates a new ScrapeHandler
func NewScrapeHandler(service ScrapeService, logger arbor.ILogger) *ScrapeHandler {
	return &ScrapeHandler{
		service:  service,
		validate: validator.New(),
		logger:   logger,
	}
}

// SubmitHandler handles POST /scrape. It accepts search criteria,
// provisions a browser and answers 202 with the session receipt; the
// pipeline itself runs in the background.
func (h *ScrapeHandler) SubmitHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var criteria models.SearchCriteria
	if err := json.NewDecoder(r.Body).Decode(&criteria); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := h.validate.Struct(criteria); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid criteria: "+err.Error())
		return
	}

	session, err := h.service.Submit(r.Context(), criteria)
	if err != nil {
		h.logger.Error().Err(err).Msg("Scrape submission failed")
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	WriteJSON(w, http.StatusAccepted, map[string]string{
		"sessionId": session.ID,
		"chromeId":  session.ChromeID,
		"state":     string(session.State),
	})
}

// SessionRoutesHandler dispatches /scrape/{id}/status and
// /scrape/{id}/close.
func (h *ScrapeHandler) SessionRoutesHandler(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/scrape/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] == "" {
		WriteError(w, http.StatusNotFound, "Not found")
		return
	}
	sessionID, action := parts[0], parts[1]

	switch action {
	case "status":
		if !RequireMethod(w, r, "GET") {
			return
		}
		h.statusFor(w, sessionID)
	case "close":
		if !RequireMethod(w, r, "POST") {
			return
		}
		h.closeSession(w, sessionID)
	default:
		WriteError(w, http.StatusNotFound, "Not found")
	}
}

func (h *ScrapeHandler) statusFor(w http.ResponseWriter, sessionID string) {
	session, err := h.service.Status(sessionID)
	if err != nil {
		if errors.Is(err, interfaces.ErrSessionNotFound) {
			WriteError(w, http.StatusNotFound, "Session not found: "+sessionID)
			return
		}
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, session)
}

func (h *ScrapeHandler) closeSession(w http.ResponseWriter, sessionID string) {
	if err := h.service.Close(sessionID); err != nil {
		if errors.Is(err, interfaces.ErrSessionNotFound) {
			WriteError(w, http.StatusNotFound, "Session not found: "+sessionID)
			return
		}
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteSuccess(w, "Session closed")
}
