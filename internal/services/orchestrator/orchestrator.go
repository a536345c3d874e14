package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/prospect/internal/common"
	"github.com/ternarybob/prospect/internal/interfaces"
	"github.com/ternarybob/prospect/internal/models"
)

// The orchestrator owns the session state machine. Each submitted scrape
// gets a browser and a background pipeline; every stage transition and
// every failure is recorded on the session so the status endpoint always
// tells the truth about where a run is.

type criteriaClassifier interface {
	ClassifyCriteria(ctx context.Context, criteria models.SearchCriteria) []models.ClassifiedFilter
}

type filterApplicator interface {
	Apply(ctx context.Context, b interfaces.Browser, filters []models.ClassifiedFilter, locations []string) error
}

type leadHarvester interface {
	Scrape(ctx context.Context, b interfaces.Browser, maxLeads int) ([]models.LeadRecord, error)
}

type leadEnricher interface {
	EnrichAll(ctx context.Context, b interfaces.Browser, leads []models.LeadRecord, heartbeat func()) ([]models.EnrichedLeadRecord, error)
}

type artifactWriter interface {
	WriteLeads(sessionID string, leads []models.LeadRecord) (string, error)
	WriteEnrichedLeads(sessionID string, leads []models.EnrichedLeadRecord) (string, error)
	WriteScreenshot(sessionID string, png []byte) (string, error)
}

type loginFunc func(ctx context.Context, b interfaces.Browser, cfg *common.LoginConfig, deadline time.Duration, logger arbor.ILogger) error

// Service coordinates the scrape pipeline across its stage services.
type Service struct {
	store      interfaces.SessionStore
	browsers   interfaces.BrowserManager
	classifier criteriaClassifier
	filters    filterApplicator
	harvester  leadHarvester
	enricher   leadEnricher
	output     artifactWriter
	login      loginFunc
	config     *common.Config
	logger     arbor.ILogger
}

// NewService wires the orchestrator.
func NewService(
	store interfaces.SessionStore,
	browsers interfaces.BrowserManager,
	classifier criteriaClassifier,
	filters filterApplicator,
	harvester leadHarvester,
	enricher leadEnricher,
	output artifactWriter,
	login loginFunc,
	config *common.Config,
	logger arbor.ILogger,
) *Service {
	return &Service{
		store:      store,
		browsers:   browsers,
		classifier: classifier,
		filters:    filters,
		harvester:  harvester,
		enricher:   enricher,
		output:     output,
		login:      login,
		config:     config,
		logger:     logger,
	}
}

// Submit provisions a browser, registers the session and starts the
// pipeline in the background. The returned session is the caller's
// receipt: browser provisioning failure is the only synchronous error,
// everything later surfaces through the session state.
func (s *Service) Submit(ctx context.Context, criteria models.SearchCriteria) (models.Session, error) {
	chromeID, _, err := s.browsers.Create(ctx, interfaces.BrowserOptions{
		Kind:     "chrome",
		Headless: s.config.Browser.Headless,
	})
	if err != nil {
		return models.Session{}, fmt.Errorf("provision browser: %w", err)
	}

	session := &models.Session{
		ID:       common.NewSessionID(),
		ChromeID: chromeID,
		State:    models.SessionStateWaitingForLogin,
		Criteria: criteria,
	}
	s.store.Put(session)

	// Snapshot the receipt before the pipeline goroutine exists; once it
	// runs, the stored session may only be read back through the store.
	receipt := *session

	s.logger.Info().
		Str("sessionId", receipt.ID).
		Str("chromeId", chromeID).
		Msg("Scrape session submitted")

	common.SafeGo(s.logger, fmt.Sprintf("pipeline-%s", receipt.ID), func() {
		s.run(receipt.ID, chromeID, criteria)
	})

	return receipt, nil
}

// Status returns the session snapshot for the status endpoint.
func (s *Service) Status(id string) (models.Session, error) {
	return s.store.Get(id)
}

// AssociateBrowser rebinds a session to an existing browser handle, for
// operators who pre-warmed a signed-in browser via the browser API.
func (s *Service) AssociateBrowser(sessionID, chromeID string) error {
	if _, ok := s.browsers.Get(chromeID); !ok {
		return fmt.Errorf("browser not found: %s", chromeID)
	}
	return s.store.Update(sessionID, func(session *models.Session) {
		session.ChromeID = chromeID
	})
}

// Close releases a session's browser. A session closed before it
// finished is marked errored so its record explains the missing
// artifacts.
func (s *Service) Close(sessionID string) error {
	session, err := s.store.Get(sessionID)
	if err != nil {
		return err
	}

	if session.ChromeID != "" {
		if err := s.browsers.Close(session.ChromeID); err != nil {
			s.logger.Warn().Err(err).Str("chromeId", session.ChromeID).Msg("Browser close failed")
		}
	}

	return s.store.Update(sessionID, func(session *models.Session) {
		session.ChromeID = ""
		if !session.State.Terminal() {
			session.State = models.SessionStateError
			session.Error = "session closed before completion"
		}
	})
}

// run drives one session through the pipeline. It owns the session's
// browser for its whole lifetime and releases it at the end, success or
// not.
func (s *Service) run(sessionID, chromeID string, criteria models.SearchCriteria) {
	ctx := context.Background()

	b, ok := s.browsers.Get(chromeID)
	if !ok {
		s.fail(sessionID, nil, fmt.Errorf("browser disappeared before pipeline start: %s", chromeID))
		return
	}

	if err := s.login(ctx, b, &s.config.Login, s.config.Session.LoginDeadline, s.logger); err != nil {
		s.fail(sessionID, b, fmt.Errorf("sign-in: %w", err))
		return
	}

	filters := s.classifier.ClassifyCriteria(ctx, criteria)

	if err := s.filters.Apply(ctx, b, filters, criteria.GoodToHave); err != nil {
		s.fail(sessionID, b, fmt.Errorf("apply filters: %w", err))
		return
	}
	if err := s.transition(sessionID, models.SessionStateFiltersApplied); err != nil {
		return
	}

	if err := s.transition(sessionID, models.SessionStateHarvesting); err != nil {
		return
	}
	budget := criteria.NumberOfLeads
	if budget <= 0 {
		budget = s.config.Pipeline.MaxLeads
	}
	leads, err := s.harvester.Scrape(ctx, b, budget)
	if err != nil {
		s.fail(sessionID, b, fmt.Errorf("harvest: %w", err))
		return
	}

	leadsPath, err := s.output.WriteLeads(sessionID, leads)
	if err != nil {
		s.fail(sessionID, b, fmt.Errorf("write leads: %w", err))
		return
	}
	s.addArtifact(sessionID, leadsPath)

	if err := s.transition(sessionID, models.SessionStateEnriching); err != nil {
		return
	}
	// The enrich stage paces itself across many profiles; touch the
	// session per lead so the reaper never mistakes it for abandoned.
	enriched, err := s.enricher.EnrichAll(ctx, b, leads, func() {
		_ = s.store.Touch(sessionID)
	})
	if err != nil {
		s.fail(sessionID, b, fmt.Errorf("enrich: %w", err))
		return
	}

	enrichedPath, err := s.output.WriteEnrichedLeads(sessionID, enriched)
	if err != nil {
		s.fail(sessionID, b, fmt.Errorf("write enriched leads: %w", err))
		return
	}
	s.addArtifact(sessionID, enrichedPath)

	s.release(sessionID)
	_ = s.store.Update(sessionID, func(session *models.Session) {
		session.State = models.SessionStateCompleted
	})

	s.logger.Info().
		Str("sessionId", sessionID).
		Int("leads", len(leads)).
		Msg("Scrape session completed")
}

// transition moves the session to the next state. A missing session
// means it was closed out from under the pipeline; the pipeline stops
// quietly.
func (s *Service) transition(sessionID string, state models.SessionState) error {
	err := s.store.Update(sessionID, func(session *models.Session) {
		session.State = state
	})
	if err != nil {
		s.logger.Warn().Str("sessionId", sessionID).Msg("Session gone mid-pipeline, stopping")
	}
	return err
}

func (s *Service) addArtifact(sessionID, path string) {
	_ = s.store.Update(sessionID, func(session *models.Session) {
		session.OutputFiles = append(session.OutputFiles, path)
	})
}

// fail records the error verbatim, captures a screenshot for diagnosis
// when a browser is still alive, and releases the browser.
func (s *Service) fail(sessionID string, b interfaces.Browser, cause error) {
	s.logger.Error().Err(cause).Str("sessionId", sessionID).Msg("Pipeline failed")

	if b != nil {
		if png, err := b.Screenshot(context.Background()); err == nil {
			if path, err := s.output.WriteScreenshot(sessionID, png); err == nil {
				s.addArtifact(sessionID, path)
			}
		}
	}

	s.release(sessionID)
	_ = s.store.Update(sessionID, func(session *models.Session) {
		session.State = models.SessionStateError
		session.Error = cause.Error()
	})
}

// release closes the session's browser and detaches the handle.
func (s *Service) release(sessionID string) {
	session, err := s.store.Get(sessionID)
	if err != nil || session.ChromeID == "" {
		return
	}
	if err := s.browsers.Close(session.ChromeID); err != nil {
		s.logger.Warn().Err(err).Str("chromeId", session.ChromeID).Msg("Browser close failed")
	}
	_ = s.store.Update(sessionID, func(session *models.Session) {
		session.ChromeID = ""
	})
}
