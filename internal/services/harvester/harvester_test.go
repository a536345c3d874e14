package harvester

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/prospect/internal/browser/browsertest"
	"github.com/ternarybob/prospect/internal/common"
	"github.com/ternarybob/prospect/internal/models"
)

func newTestService() *Service {
	cfg := common.NewDefaultConfig()
	cfg.Pipeline.ScrollSettle = time.Millisecond
	return NewService(&cfg.Browser, &cfg.Pipeline, common.GetLogger())
}

// scriptedList simulates a lazily loading result list: the item count
// follows the counts slice, repeating the final entry once exhausted.
func scriptedList(fake *browsertest.Fake, counts []int) {
	calls := 0
	fake.CountFunc = func(selector string) (int, error) {
		idx := calls
		if idx >= len(counts) {
			idx = len(counts) - 1
		}
		calls++
		return counts[idx], nil
	}
}

// fullRow answers every field selector for a complete result row.
func fullRow(fake *browsertest.Fake, name, title, company, location string) {
	fake.TextFunc = func(selector string) (string, error) {
		switch {
		case strings.Contains(selector, "person-name"):
			return name, nil
		case strings.Contains(selector, "data-anonymize='title'"):
			return title, nil
		case strings.Contains(selector, "company-name"):
			return company, nil
		case strings.Contains(selector, "location"):
			return location, nil
		}
		return "", nil
	}
	fake.AttrFunc = func(selector, attrName string) (string, bool, error) {
		switch {
		case strings.Contains(selector, "a[data-anonymize='person-name']"):
			return "/sales/lead/ACwAAA,NAME_SEARCH", true, nil
		case strings.Contains(selector, "company-name"):
			return "/sales/company/123", true, nil
		}
		return "", false, nil
	}
}

func TestScrapeConvergesAndExtracts(t *testing.T) {
	fake := browsertest.New()
	scriptedList(fake, []int{10, 18, 25, 25, 25, 25})
	fullRow(fake, "Alex Rivera", "Head of Sustainability", "Acme Corp", "Sydney, Australia")
	svc := newTestService()

	leads, err := svc.Scrape(context.Background(), fake, 0)
	require.NoError(t, err)
	require.Len(t, leads, 25)

	first := leads[0]
	assert.Equal(t, "Alex Rivera", first.Name)
	assert.Equal(t, "Head of Sustainability", first.Title)
	assert.Equal(t, "https://www.linkedin.com/sales/lead/ACwAAA,NAME_SEARCH", first.ProfileLink)
	assert.Equal(t, "Acme Corp", first.Company)
	assert.Equal(t, "https://www.linkedin.com/sales/company/123", first.CompanyLink)
	assert.Equal(t, "Sydney, Australia", first.Location)
}

func TestScrapeTruncatesToLeadBudget(t *testing.T) {
	fake := browsertest.New()
	scriptedList(fake, []int{40, 40, 40, 40})
	fullRow(fake, "Alex Rivera", "Director", "Acme Corp", "Sydney")
	svc := newTestService()

	leads, err := svc.Scrape(context.Background(), fake, 5)
	require.NoError(t, err)
	assert.Len(t, leads, 5)
}

func TestScrapeMissingFieldsDegradeToSentinel(t *testing.T) {
	fake := browsertest.New()
	scriptedList(fake, []int{1, 1, 1, 1})
	fake.TextFunc = func(selector string) (string, error) {
		if strings.Contains(selector, "person-name") {
			return "Alex Rivera", nil
		}
		return "", fmt.Errorf("node not found")
	}
	svc := newTestService()

	leads, err := svc.Scrape(context.Background(), fake, 0)
	require.NoError(t, err)
	require.Len(t, leads, 1)

	lead := leads[0]
	assert.Equal(t, "Alex Rivera", lead.Name)
	assert.Equal(t, models.Sentinel, lead.Title)
	assert.Equal(t, models.Sentinel, lead.Company)
	assert.Equal(t, models.Sentinel, lead.CompanyLink)
	assert.Equal(t, models.Sentinel, lead.Location)
	assert.Equal(t, models.Sentinel, lead.ProfileLink)
}

func TestScrapeNameFallsBackToHeadshotAlt(t *testing.T) {
	fake := browsertest.New()
	scriptedList(fake, []int{1, 1, 1, 1})
	fake.TextFunc = func(selector string) (string, error) {
		return "", fmt.Errorf("node not found")
	}
	fake.AttrFunc = func(selector, name string) (string, bool, error) {
		if strings.Contains(selector, "headshot-photo") && name == "alt" {
			return "Alex Rivera", true, nil
		}
		return "", false, nil
	}
	svc := newTestService()

	leads, err := svc.Scrape(context.Background(), fake, 0)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "Alex Rivera", leads[0].Name)
}

func TestScrapeProfileLinkFallsBackToMarkup(t *testing.T) {
	fake := browsertest.New()
	scriptedList(fake, []int{1, 1, 1, 1})
	fake.OuterHTMLFunc = func(selector string) (string, error) {
		return `<li><div class="wrap"><a href="/sales/lead/ACwBBB,NAME_SEARCH"><span>Alex</span></a></div></li>`, nil
	}
	svc := newTestService()

	leads, err := svc.Scrape(context.Background(), fake, 0)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "https://www.linkedin.com/sales/lead/ACwBBB,NAME_SEARCH", leads[0].ProfileLink)
}

func TestScrapeEmptySearchYieldsEmptyList(t *testing.T) {
	fake := browsertest.New()
	fake.WaitVisibleFunc = func(selector string) error {
		return fmt.Errorf("timeout waiting for %s", selector)
	}
	// Container rendered, zero result items: a legitimate empty search.
	fake.CountFunc = func(selector string) (int, error) {
		if selector == resultContainerSel {
			return 1, nil
		}
		return 0, nil
	}
	svc := newTestService()

	leads, err := svc.Scrape(context.Background(), fake, 0)
	require.NoError(t, err)
	require.NotNil(t, leads)
	assert.Empty(t, leads)
}

func TestScrapePageNeverLoads(t *testing.T) {
	fake := browsertest.New()
	// Neither the result items nor the container ever render.
	fake.WaitVisibleFunc = func(selector string) error {
		return fmt.Errorf("timeout waiting for %s", selector)
	}
	svc := newTestService()

	leads, err := svc.Scrape(context.Background(), fake, 0)
	require.Error(t, err)
	assert.Nil(t, leads)
	assert.Contains(t, err.Error(), "result list never rendered")
}

func TestScrapeStopsAtScrollBudget(t *testing.T) {
	fake := browsertest.New()
	// Grows forever: count increases every round so convergence never hits.
	calls := 0
	fake.CountFunc = func(selector string) (int, error) {
		calls++
		return calls, nil
	}
	svc := newTestService()
	svc.pipelineCfg.MaxScrollRounds = 5

	leads, err := svc.Scrape(context.Background(), fake, 0)
	require.NoError(t, err)
	assert.Len(t, leads, 5, "last observed count when the budget runs out")
}

func TestScrapeExtractsRowsPerIndex(t *testing.T) {
	fake := browsertest.New()
	scriptedList(fake, []int{3, 3, 3, 3})
	fake.TextFunc = func(selector string) (string, error) {
		for i := 1; i <= 3; i++ {
			if strings.Contains(selector, fmt.Sprintf(":nth-child(%d)", i)) && strings.Contains(selector, "person-name") {
				return fmt.Sprintf("Lead %d", i), nil
			}
		}
		return "", fmt.Errorf("node not found")
	}
	svc := newTestService()

	leads, err := svc.Scrape(context.Background(), fake, 0)
	require.NoError(t, err)
	require.Len(t, leads, 3)
	assert.Equal(t, "Lead 1", leads[0].Name)
	assert.Equal(t, "Lead 2", leads[1].Name)
	assert.Equal(t, "Lead 3", leads[2].Name)
}
