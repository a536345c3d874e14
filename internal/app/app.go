package app

import (
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/prospect/internal/browser"
	"github.com/ternarybob/prospect/internal/common"
	"github.com/ternarybob/prospect/internal/handlers"
	"github.com/ternarybob/prospect/internal/services/classifier"
	"github.com/ternarybob/prospect/internal/services/enricher"
	"github.com/ternarybob/prospect/internal/services/filters"
	"github.com/ternarybob/prospect/internal/services/harvester"
	"github.com/ternarybob/prospect/internal/services/llm"
	"github.com/ternarybob/prospect/internal/services/orchestrator"
	"github.com/ternarybob/prospect/internal/services/output"
	"github.com/ternarybob/prospect/internal/services/session"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// Core state
	SessionStore   *session.Store
	BrowserManager *browser.Manager

	// Pipeline services
	LLMProvider       *llm.ProviderFactory
	ClassifierService *classifier.Service
	FilterApplicator  *filters.Applicator
	HarvesterService  *harvester.Service
	EnricherService   *enricher.Service
	OutputWriter      *output.Writer
	Orchestrator      *orchestrator.Service
	Reaper            *session.Reaper

	// HTTP handlers
	APIHandler     *handlers.APIHandler
	ScrapeHandler  *handlers.ScrapeHandler
	BrowserHandler *handlers.BrowserHandler
	StatusHandler  *handlers.StatusHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	app.SessionStore = session.NewStore()
	app.BrowserManager = browser.NewManager(&cfg.Browser, logger)

	writer, err := output.NewWriter(cfg.Output.Dir, logger)
	if err != nil {
		return nil, err
	}
	app.OutputWriter = writer

	app.LLMProvider = llm.NewProviderFactory(&cfg.Gemini, &cfg.Claude, &cfg.LLM, logger)
	app.ClassifierService = classifier.NewService(app.LLMProvider, logger)
	app.FilterApplicator = filters.NewApplicator(&cfg.Browser, logger)
	app.HarvesterService = harvester.NewService(&cfg.Browser, &cfg.Pipeline, logger)
	app.EnricherService = enricher.NewService(&cfg.Browser, &cfg.Pipeline, logger)

	app.Orchestrator = orchestrator.NewService(
		app.SessionStore,
		app.BrowserManager,
		app.ClassifierService,
		app.FilterApplicator,
		app.HarvesterService,
		app.EnricherService,
		app.OutputWriter,
		browser.Login,
		cfg,
		logger,
	)

	app.Reaper = session.NewReaper(app.SessionStore, app.BrowserManager, &cfg.Session, logger)
	if err := app.Reaper.Start(); err != nil {
		return nil, err
	}

	app.APIHandler = handlers.NewAPIHandler()
	app.ScrapeHandler = handlers.NewScrapeHandler(app.Orchestrator, logger)
	app.BrowserHandler = handlers.NewBrowserHandler(app.BrowserManager, app.Orchestrator, logger)
	app.StatusHandler = handlers.NewStatusHandler(app.SessionStore, app.BrowserManager, logger)

	logger.Info().Msg("Application initialized")
	return app, nil
}

// Close releases every resource the app holds: the reap schedule, all
// live browsers and the LLM clients.
func (a *App) Close() error {
	a.Reaper.Stop()

	if err := a.BrowserManager.CloseAll(); err != nil {
		a.Logger.Warn().Err(err).Msg("Browser shutdown incomplete")
	}
	if err := a.LLMProvider.Close(); err != nil {
		a.Logger.Warn().Err(err).Msg("LLM provider shutdown incomplete")
	}

	a.Logger.Info().Msg("Application closed")
	return nil
}
