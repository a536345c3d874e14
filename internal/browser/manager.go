package browser

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/prospect/internal/common"
	"github.com/ternarybob/prospect/internal/interfaces"
)

// Manager provisions Chrome instances and tracks them by handle ID so the
// API can create, associate, and release browsers independently of
// session lifecycle.
type Manager struct {
	mu       sync.Mutex
	browsers map[string]interfaces.Browser
	config   *common.BrowserConfig
	logger   arbor.ILogger
}

// NewManager creates an empty browser manager.
func NewManager(config *common.BrowserConfig, logger arbor.ILogger) *Manager {
	return &Manager{
		browsers: make(map[string]interfaces.Browser),
		config:   config,
		logger:   logger,
	}
}

// Create provisions a browser and registers it under a fresh chrome ID.
func (m *Manager) Create(ctx context.Context, opts interfaces.BrowserOptions) (string, interfaces.Browser, error) {
	if opts.Kind != "" && opts.Kind != "chrome" {
		return "", nil, fmt.Errorf("unsupported browser kind %q", opts.Kind)
	}

	b, err := NewChrome(ctx, m.config, opts.Headless, m.logger)
	if err != nil {
		return "", nil, fmt.Errorf("provision browser: %w", err)
	}

	id := common.NewChromeID()

	m.mu.Lock()
	m.browsers[id] = b
	m.mu.Unlock()

	m.logger.Info().
		Str("chrome_id", id).
		Bool("headless", opts.Headless).
		Msg("Browser created")

	return id, b, nil
}

// Get returns the browser registered under id.
func (m *Manager) Get(id string) (interfaces.Browser, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.browsers[id]
	return b, ok
}

// List returns the registered chrome IDs in sorted order.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.browsers))
	for id := range m.browsers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close tears down the browser registered under id. Unknown IDs return an
// error so the API can answer 404.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	b, ok := m.browsers[id]
	delete(m.browsers, id)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("browser %q not found", id)
	}
	if err := b.Close(); err != nil {
		m.logger.Warn().Err(err).Str("chrome_id", id).Msg("Browser close reported error")
	}

	m.logger.Info().Str("chrome_id", id).Msg("Browser closed")
	return nil
}

// CloseAll tears down every registered browser. Idempotent.
func (m *Manager) CloseAll() error {
	m.mu.Lock()
	browsers := m.browsers
	m.browsers = make(map[string]interfaces.Browser)
	m.mu.Unlock()

	for id, b := range browsers {
		if err := b.Close(); err != nil {
			m.logger.Warn().Err(err).Str("chrome_id", id).Msg("Browser close reported error")
		}
	}

	if len(browsers) > 0 {
		m.logger.Info().Int("count", len(browsers)).Msg("All browsers closed")
	}
	return nil
}

var _ interfaces.BrowserManager = (*Manager)(nil)
