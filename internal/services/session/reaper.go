package session

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/prospect/internal/common"
	"github.com/ternarybob/prospect/internal/interfaces"
	"github.com/ternarybob/prospect/internal/models"
)

// Reaper closes the browsers of sessions that have sat idle past the
// configured timeout. A terminal session keeps its record (the API can
// still report it) but loses its browser; an abandoned live session is
// marked as errored first so the state explains what happened.
type Reaper struct {
	store    interfaces.SessionStore
	browsers interfaces.BrowserManager
	config   *common.SessionConfig
	logger   arbor.ILogger
	cron     *cron.Cron
}

// NewReaper creates a reaper on the store and browser manager.
func NewReaper(store interfaces.SessionStore, browsers interfaces.BrowserManager, config *common.SessionConfig, logger arbor.ILogger) *Reaper {
	return &Reaper{
		store:    store,
		browsers: browsers,
		config:   config,
		logger:   logger,
		cron:     cron.New(),
	}
}

// Start schedules the sweep. The schedule comes from configuration so
// operators can slow it down on boxes juggling many browsers.
func (r *Reaper) Start() error {
	if _, err := r.cron.AddFunc(r.config.ReapSchedule, r.Sweep); err != nil {
		return err
	}
	r.cron.Start()
	r.logger.Info().Str("schedule", r.config.ReapSchedule).Msg("Session reaper started")
	return nil
}

// Stop halts the schedule, letting an in-flight sweep finish.
func (r *Reaper) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
}

// Sweep closes browsers attached to sessions idle past the timeout.
// Pipelines heartbeat UpdatedAt through Store.Touch during long stages,
// so only sessions with no progress at all go stale.
func (r *Reaper) Sweep() {
	cutoff := time.Now().UTC().Add(-r.config.IdleTimeout)

	for _, session := range r.store.List() {
		if session.UpdatedAt.After(cutoff) || session.ChromeID == "" {
			continue
		}

		if err := r.browsers.Close(session.ChromeID); err == nil {
			r.logger.Info().
				Str("sessionId", session.ID).
				Str("chromeId", session.ChromeID).
				Msg("Reaped idle session browser")
		}

		_ = r.store.Update(session.ID, func(s *models.Session) {
			s.ChromeID = ""
			if !s.State.Terminal() {
				s.State = models.SessionStateError
				s.Error = "session abandoned: idle past timeout"
			}
		})
	}
}
