package interfaces

import (
	"errors"

	"github.com/ternarybob/prospect/internal/models"
)

// ErrSessionNotFound is returned for lookups of unknown session IDs.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore holds session state shared between the API read path and
// the background pipelines. Implementations serialize access internally;
// the lock is held only for the duration of the single map access, never
// across a UI wait.
type SessionStore interface {
	// Put stores a session, replacing any existing entry with the same ID.
	Put(session *models.Session)

	// Get returns a copy of the session, or ErrSessionNotFound.
	Get(id string) (models.Session, error)

	// Update applies fn to the stored session under the store's lock and
	// stamps UpdatedAt. Returns ErrSessionNotFound for unknown IDs.
	Update(id string, fn func(*models.Session)) error

	// Touch refreshes the session's UpdatedAt stamp without changing it.
	// Long-running pipeline stages heartbeat through here so an active
	// session never reads as idle.
	Touch(id string) error

	// Delete removes a session. Deleting an unknown ID is a no-op.
	Delete(id string)

	// List returns copies of all stored sessions in unspecified order.
	List() []models.Session
}
