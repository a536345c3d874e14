package models

import "time"

// SessionState tracks a scrape session through the pipeline. Transitions
// are applied only by the orchestrator; error is reachable from any state.
type SessionState string

const (
	SessionStateCreated         SessionState = "created"
	SessionStateWaitingForLogin SessionState = "waiting_for_login"
	SessionStateFiltersApplied  SessionState = "filters_applied"
	SessionStateHarvesting      SessionState = "harvesting"
	SessionStateEnriching       SessionState = "enriching"
	SessionStateCompleted       SessionState = "completed"
	SessionStateError           SessionState = "error"
)

// Terminal reports whether the session has finished (successfully or not).
func (s SessionState) Terminal() bool {
	return s == SessionStateCompleted || s == SessionStateError
}

// Session is one submitted scrape task and its progress. Instances are
// shared between the API read path and the background pipeline; all access
// goes through the session store's lock.
type Session struct {
	ID          string         `json:"sessionId"`
	ChromeID    string         `json:"chromeId"`
	State       SessionState   `json:"state"`
	Criteria    SearchCriteria `json:"criteria"`
	Error       string         `json:"error,omitempty"`
	OutputFiles []string       `json:"outputFiles,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}
