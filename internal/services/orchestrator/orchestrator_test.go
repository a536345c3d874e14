package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/prospect/internal/browser/browsertest"
	"github.com/ternarybob/prospect/internal/common"
	"github.com/ternarybob/prospect/internal/interfaces"
	"github.com/ternarybob/prospect/internal/models"
	"github.com/ternarybob/prospect/internal/services/session"
)

type fakeManager struct {
	mu       sync.Mutex
	browsers map[string]interfaces.Browser
	nextID   int
	failNext bool
	closed   []string
}

func newFakeManager() *fakeManager {
	return &fakeManager{browsers: make(map[string]interfaces.Browser)}
}

func (m *fakeManager) Create(_ context.Context, _ interfaces.BrowserOptions) (string, interfaces.Browser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext {
		return "", nil, fmt.Errorf("chrome failed to start")
	}
	m.nextID++
	id := fmt.Sprintf("chrome_%d", m.nextID)
	b := browsertest.New()
	m.browsers[id] = b
	return id, b, nil
}

func (m *fakeManager) Get(id string) (interfaces.Browser, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.browsers[id]
	return b, ok
}

func (m *fakeManager) List() []string { return nil }

func (m *fakeManager) Close(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.browsers[id]; !ok {
		return fmt.Errorf("browser not found: %s", id)
	}
	delete(m.browsers, id)
	m.closed = append(m.closed, id)
	return nil
}

func (m *fakeManager) CloseAll() error { return nil }

func (m *fakeManager) closedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.closed))
	copy(out, m.closed)
	return out
}

type fakeStages struct {
	mu          sync.Mutex
	classifyErr error
	applyErr    error
	scrapeErr   error
	enrichErr   error
	leads       []models.LeadRecord
	scrapedMax  int
	applied     []models.ClassifiedFilter
	locations   []string
	heartbeat   func()
}

func (f *fakeStages) ClassifyCriteria(_ context.Context, criteria models.SearchCriteria) []models.ClassifiedFilter {
	return []models.ClassifiedFilter{
		{Dimension: models.DimensionTitle, RawValue: criteria.JobTitle},
	}
}

func (f *fakeStages) Apply(_ context.Context, _ interfaces.Browser, filters []models.ClassifiedFilter, locations []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applied = filters
	f.locations = locations
	return f.applyErr
}

func (f *fakeStages) Scrape(_ context.Context, _ interfaces.Browser, maxLeads int) ([]models.LeadRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scrapedMax = maxLeads
	if f.scrapeErr != nil {
		return nil, f.scrapeErr
	}
	return f.leads, nil
}

func (f *fakeStages) EnrichAll(_ context.Context, _ interfaces.Browser, leads []models.LeadRecord, heartbeat func()) ([]models.EnrichedLeadRecord, error) {
	f.mu.Lock()
	f.heartbeat = heartbeat
	f.mu.Unlock()
	if f.enrichErr != nil {
		return nil, f.enrichErr
	}
	out := make([]models.EnrichedLeadRecord, 0, len(leads))
	for _, l := range leads {
		out = append(out, models.NewEnrichedLeadRecord(l))
	}
	return out, nil
}

func (f *fakeStages) capturedHeartbeat() func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.heartbeat
}

type fakeWriter struct {
	mu          sync.Mutex
	leadsErr    error
	screenshots int
}

func (f *fakeWriter) WriteLeads(sessionID string, _ []models.LeadRecord) (string, error) {
	if f.leadsErr != nil {
		return "", f.leadsErr
	}
	return sessionID + ".csv", nil
}

func (f *fakeWriter) WriteEnrichedLeads(sessionID string, _ []models.EnrichedLeadRecord) (string, error) {
	return sessionID + "_leads_pro.csv", nil
}

func (f *fakeWriter) WriteScreenshot(sessionID string, _ []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.screenshots++
	return sessionID + ".png", nil
}

func noopLogin(_ context.Context, _ interfaces.Browser, _ *common.LoginConfig, _ time.Duration, _ arbor.ILogger) error {
	return nil
}

func failingLogin(_ context.Context, _ interfaces.Browser, _ *common.LoginConfig, _ time.Duration, _ arbor.ILogger) error {
	return fmt.Errorf("timed out waiting for sign-in")
}

type fixture struct {
	svc     *Service
	store   *session.Store
	manager *fakeManager
	stages  *fakeStages
	writer  *fakeWriter
}

func newFixture(login loginFunc) *fixture {
	store := session.NewStore()
	manager := newFakeManager()
	stages := &fakeStages{leads: []models.LeadRecord{models.NewLeadRecord()}}
	writer := &fakeWriter{}
	cfg := common.NewDefaultConfig()
	svc := NewService(store, manager, stages, stages, stages, stages, writer, login, cfg, common.GetLogger())
	return &fixture{svc: svc, store: store, manager: manager, stages: stages, writer: writer}
}

func waitForTerminal(t *testing.T, fx *fixture, sessionID string) models.Session {
	t.Helper()
	var final models.Session
	require.Eventually(t, func() bool {
		got, err := fx.store.Get(sessionID)
		if err != nil {
			return false
		}
		final = got
		return got.State.Terminal()
	}, 5*time.Second, 10*time.Millisecond)
	return final
}

func TestSubmitReturnsWaitingSessionImmediately(t *testing.T) {
	fx := newFixture(noopLogin)

	submitted, err := fx.svc.Submit(context.Background(), models.SearchCriteria{JobTitle: "Head of Sustainability"})
	require.NoError(t, err)

	assert.NotEmpty(t, submitted.ID)
	assert.NotEmpty(t, submitted.ChromeID)
	assert.Equal(t, models.SessionStateWaitingForLogin, submitted.State)

	waitForTerminal(t, fx, submitted.ID)
}

func TestPipelineRunsToCompletion(t *testing.T) {
	fx := newFixture(noopLogin)

	submitted, err := fx.svc.Submit(context.Background(), models.SearchCriteria{
		JobTitle:      "Head of Sustainability",
		GoodToHave:    []string{"Australia"},
		NumberOfLeads: 10,
	})
	require.NoError(t, err)

	final := waitForTerminal(t, fx, submitted.ID)
	assert.Equal(t, models.SessionStateCompleted, final.State)
	assert.Empty(t, final.Error)
	assert.Empty(t, final.ChromeID, "browser released on completion")
	require.Len(t, final.OutputFiles, 2)
	assert.Equal(t, submitted.ID+".csv", final.OutputFiles[0])
	assert.Equal(t, submitted.ID+"_leads_pro.csv", final.OutputFiles[1])

	assert.Equal(t, []string{submitted.ChromeID}, fx.manager.closedIDs())
	assert.Equal(t, 10, fx.stages.scrapedMax, "request lead budget reaches the harvester")
	assert.Equal(t, []string{"Australia"}, fx.stages.locations)
}

func TestSubmitReceiptIsDetachedFromPipelineWrites(t *testing.T) {
	fx := newFixture(failingLogin)

	submitted, err := fx.svc.Submit(context.Background(), models.SearchCriteria{JobTitle: "Director"})
	require.NoError(t, err)

	final := waitForTerminal(t, fx, submitted.ID)
	assert.Equal(t, models.SessionStateError, final.State)
	assert.Equal(t, models.SessionStateWaitingForLogin, submitted.State,
		"receipt is a snapshot, pipeline writes go through the store")
	assert.Empty(t, submitted.Error)
}

func TestPipelineHeartbeatsDuringEnrichment(t *testing.T) {
	fx := newFixture(noopLogin)

	submitted, err := fx.svc.Submit(context.Background(), models.SearchCriteria{JobTitle: "Director"})
	require.NoError(t, err)
	waitForTerminal(t, fx, submitted.ID)

	beat := fx.stages.capturedHeartbeat()
	require.NotNil(t, beat, "enricher receives a session heartbeat")

	before, err := fx.store.Get(submitted.ID)
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	beat()
	after, err := fx.store.Get(submitted.ID)
	require.NoError(t, err)
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt), "heartbeat refreshes UpdatedAt")
}

func TestSubmitBrowserProvisioningFailure(t *testing.T) {
	fx := newFixture(noopLogin)
	fx.manager.failNext = true

	_, err := fx.svc.Submit(context.Background(), models.SearchCriteria{JobTitle: "Director"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provision browser")
	assert.Empty(t, fx.store.List(), "no session record for a failed submit")
}

func TestPipelineLoginFailure(t *testing.T) {
	fx := newFixture(failingLogin)

	submitted, err := fx.svc.Submit(context.Background(), models.SearchCriteria{JobTitle: "Director"})
	require.NoError(t, err)

	final := waitForTerminal(t, fx, submitted.ID)
	assert.Equal(t, models.SessionStateError, final.State)
	assert.Contains(t, final.Error, "sign-in")
	assert.Contains(t, final.Error, "timed out waiting for sign-in")
	assert.Empty(t, final.ChromeID)
	assert.Equal(t, 1, fx.writer.screenshots, "failure captures a screenshot")
}

func TestPipelineHarvestFailure(t *testing.T) {
	fx := newFixture(noopLogin)
	fx.stages.scrapeErr = fmt.Errorf("result list never rendered")

	submitted, err := fx.svc.Submit(context.Background(), models.SearchCriteria{JobTitle: "Director"})
	require.NoError(t, err)

	final := waitForTerminal(t, fx, submitted.ID)
	assert.Equal(t, models.SessionStateError, final.State)
	assert.Contains(t, final.Error, "harvest")
	assert.Equal(t, []string{submitted.ChromeID}, fx.manager.closedIDs())
}

func TestStatusUnknownSession(t *testing.T) {
	fx := newFixture(noopLogin)

	_, err := fx.svc.Status("missing")
	assert.ErrorIs(t, err, interfaces.ErrSessionNotFound)
}

func TestCloseMarksLiveSessionErrored(t *testing.T) {
	fx := newFixture(noopLogin)

	fx.store.Put(&models.Session{
		ID:       "s-1",
		ChromeID: "chrome_x",
		State:    models.SessionStateHarvesting,
	})

	require.NoError(t, fx.svc.Close("s-1"))

	got, err := fx.store.Get("s-1")
	require.NoError(t, err)
	assert.Equal(t, models.SessionStateError, got.State)
	assert.Equal(t, "session closed before completion", got.Error)
	assert.Empty(t, got.ChromeID)
}

func TestCloseCompletedSessionKeepsState(t *testing.T) {
	fx := newFixture(noopLogin)

	fx.store.Put(&models.Session{
		ID:    "s-2",
		State: models.SessionStateCompleted,
	})

	require.NoError(t, fx.svc.Close("s-2"))

	got, err := fx.store.Get("s-2")
	require.NoError(t, err)
	assert.Equal(t, models.SessionStateCompleted, got.State)
	assert.Empty(t, got.Error)
}

func TestCloseUnknownSession(t *testing.T) {
	fx := newFixture(noopLogin)
	assert.ErrorIs(t, fx.svc.Close("missing"), interfaces.ErrSessionNotFound)
}

func TestAssociateBrowser(t *testing.T) {
	fx := newFixture(noopLogin)

	id, _, err := fx.manager.Create(context.Background(), interfaces.BrowserOptions{})
	require.NoError(t, err)

	fx.store.Put(&models.Session{ID: "s-3", State: models.SessionStateWaitingForLogin})

	require.NoError(t, fx.svc.AssociateBrowser("s-3", id))
	got, err := fx.store.Get("s-3")
	require.NoError(t, err)
	assert.Equal(t, id, got.ChromeID)

	assert.Error(t, fx.svc.AssociateBrowser("s-3", "chrome_missing"))
	assert.ErrorIs(t, fx.svc.AssociateBrowser("missing", id), interfaces.ErrSessionNotFound)
}
