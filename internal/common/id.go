package common

import (
	"github.com/google/uuid"
)

// NewSessionID generates a time-sortable session identifier.
// Falls back to a random UUID if v7 generation fails (entropy exhaustion).
func NewSessionID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// NewChromeID generates a unique browser handle ID with the "chrome_" prefix
// Format: chrome_<uuid>
func NewChromeID() string {
	return "chrome_" + uuid.New().String()
}
