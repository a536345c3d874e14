package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/prospect/internal/interfaces"
)

// BrowserAssociator rebinds an existing browser to a session.
type BrowserAssociator interface {
	AssociateBrowser(sessionID, chromeID string) error
}

// BrowserHandler handles HTTP requests for standalone browser management
type BrowserHandler struct {
	manager    interfaces.BrowserManager
	associator BrowserAssociator
	logger     arbor.ILogger
}

// NewBrowserHandler creates a new BrowserHandler
func NewBrowserHandler(manager interfaces.BrowserManager, associator BrowserAssociator, logger arbor.ILogger) *BrowserHandler {
	return &BrowserHandler{
		manager:    manager,
		associator: associator,
		logger:     logger,
	}
}

type createBrowserRequest struct {
	Browser  string `json:"browser"`
	Headless bool   `json:"headless"`
}

// CreateHandler handles POST /browser/create. Operators pre-warm a
// browser here, sign in by hand, then associate it with a session.
func (h *BrowserHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req createBrowserRequest
	if r.Body != nil {
		// An empty body means default options.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	chromeID, _, err := h.manager.Create(r.Context(), interfaces.BrowserOptions{
		Kind:     req.Browser,
		Headless: req.Headless,
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("Browser creation failed")
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]string{
		"chromeId": chromeID,
	})
}

// ListHandler handles GET /browser/list
func (h *BrowserHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	ids := h.manager.List()
	if ids == nil {
		ids = []string{}
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"browsers": ids,
		"count":    len(ids),
	})
}

// CloseAllHandler handles POST /browser/close-all
func (h *BrowserHandler) CloseAllHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	if err := h.manager.CloseAll(); err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteSuccess(w, "All browsers closed")
}

// InstanceRoutesHandler dispatches /browser/{chromeId}/close and
// /browser/{chromeId}/associate/{sessionId}.
func (h *BrowserHandler) InstanceRoutesHandler(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/browser/")
	parts := strings.Split(path, "/")
	if len(parts) < 2 || parts[0] == "" {
		WriteError(w, http.StatusNotFound, "Not found")
		return
	}
	chromeID := parts[0]

	switch {
	case len(parts) == 2 && parts[1] == "close":
		if !RequireMethod(w, r, "POST") {
			return
		}
		h.closeBrowser(w, chromeID)
	case len(parts) == 3 && parts[1] == "associate" && parts[2] != "":
		if !RequireMethod(w, r, "POST") {
			return
		}
		h.associate(w, chromeID, parts[2])
	default:
		WriteError(w, http.StatusNotFound, "Not found")
	}
}

func (h *BrowserHandler) closeBrowser(w http.ResponseWriter, chromeID string) {
	if err := h.manager.Close(chromeID); err != nil {
		WriteError(w, http.StatusNotFound, "Browser not found: "+chromeID)
		return
	}
	WriteSuccess(w, "Browser closed")
}

func (h *BrowserHandler) associate(w http.ResponseWriter, chromeID, sessionID string) {
	if err := h.associator.AssociateBrowser(sessionID, chromeID); err != nil {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	WriteSuccess(w, "Browser associated")
}
