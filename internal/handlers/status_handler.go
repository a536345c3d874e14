package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/prospect/internal/common"
	"github.com/ternarybob/prospect/internal/interfaces"
	"github.com/ternarybob/prospect/internal/models"
)

// StatusHandler handles HTTP requests for application status
type StatusHandler struct {
	store    interfaces.SessionStore
	browsers interfaces.BrowserManager
	logger   arbor.ILogger
}

// NewStatusHandler creates a new StatusHandler
func NewStatusHandler(store interfaces.SessionStore, browsers interfaces.BrowserManager, logger arbor.ILogger) *StatusHandler {
	return &StatusHandler{
		store:    store,
		browsers: browsers,
		logger:   logger,
	}
}

// GetStatusHandler handles GET /status
func (h *StatusHandler) GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	sessions := h.store.List()
	active := 0
	for _, s := range sessions {
		if !s.State.Terminal() {
			active++
		}
	}

	if sessions == nil {
		sessions = []models.Session{}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"version":        common.GetVersion(),
		"sessions":       sessions,
		"activeSessions": active,
		"browsers":       len(h.browsers.List()),
	})
}
