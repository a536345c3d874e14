package enricher

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/prospect/internal/browser/browsertest"
	"github.com/ternarybob/prospect/internal/common"
	"github.com/ternarybob/prospect/internal/models"
)

const contactModalHTML = `<div class="artdeco-modal__content">
  <section class="contact-info-form__phone">
    <a href="tel:+61400000000">+61 400 000 000</a>
  </section>
  <section class="contact-info-form__email">
    <a href="mailto:alex@acme.example">alex@acme.example</a>
    <a href="mailto:alex.rivera@gmail.example">alex.rivera@gmail.example</a>
  </section>
  <section class="contact-info-form__website">
    <a href="https://acme.example">acme.example</a>
  </section>
  <section class="contact-info-form__social">
    <a href="https://www.twitter.com/alexr">@alexr</a>
  </section>
  <section class="contact-info-form__address">
    <a href="https://www.bing.com/search?q=sydney+nsw">Sydney</a>
  </section>
</div>`

const contactSectionHTML = `<section data-sn-view-name="lead-contact-info">
  <a href="https://www.linkedin.com/in/alexrivera">Profile</a>
  <button>Show all</button>
</section>`

func newTestService() *Service {
	cfg := common.NewDefaultConfig()
	cfg.Browser.ShortTimeout = 10 * time.Millisecond
	cfg.Pipeline.ProfileDelay = time.Millisecond
	return NewService(&cfg.Browser, &cfg.Pipeline, common.GetLogger())
}

func lead() models.LeadRecord {
	l := models.NewLeadRecord()
	l.Name = "Alex Rivera"
	l.ProfileLink = "https://www.linkedin.com/sales/lead/ACwAAA,NAME_SEARCH"
	return l
}

// fullProfile wires the fake to behave like a profile page with a
// complete contact modal and an About section.
func fullProfile(fake *browsertest.Fake) {
	fake.OuterHTMLFunc = func(selector string) (string, error) {
		switch selector {
		case contactSectionSel:
			return contactSectionHTML, nil
		case contactModalSel:
			return contactModalHTML, nil
		}
		return "", nil
	}
	fake.EvalFunc = func(expression string, out interface{}) error {
		if b, ok := out.(*bool); ok {
			*b = true
		}
		return nil
	}
	fake.CountFunc = func(selector string) (int, error) {
		if selector == aboutSectionSel {
			return 1, nil
		}
		return 0, nil
	}
	fake.TextFunc = func(selector string) (string, error) {
		if selector == aboutSectionSel {
			return "About\nSustainability leader with 12 years in renewables.Show less", nil
		}
		return "", nil
	}
}

func TestEnrichAllExtractsContactInfoAndAbout(t *testing.T) {
	fake := browsertest.New()
	fullProfile(fake)
	svc := newTestService()

	enriched, err := svc.EnrichAll(context.Background(), fake, []models.LeadRecord{lead()}, nil)
	require.NoError(t, err)
	require.Len(t, enriched, 1)

	r := enriched[0]
	assert.Equal(t, "Alex Rivera", r.Name)
	assert.Equal(t, "https://www.linkedin.com/in/alexrivera", r.LinkedinURL)
	assert.Equal(t, "+61400000000", r.Phones)
	assert.Equal(t, "alex@acme.example; alex.rivera@gmail.example", r.Emails)
	assert.Equal(t, "https://acme.example", r.Websites)
	assert.Equal(t, "https://www.twitter.com/alexr", r.Socials)
	assert.Equal(t, models.Sentinel, r.Addresses, "search redirect links are filtered out")
	assert.Equal(t, "Sustainability leader with 12 years in renewables.", r.About)
}

func TestEnrichSkipsLeadsWithoutProfileLink(t *testing.T) {
	fake := browsertest.New()
	svc := newTestService()

	enriched, err := svc.EnrichAll(context.Background(), fake, []models.LeadRecord{models.NewLeadRecord()}, nil)
	require.NoError(t, err)
	require.Len(t, enriched, 1)

	assert.Empty(t, fake.CallsFor("navigate"), "sentinel profile link must not be visited")
	assert.Equal(t, models.Sentinel, enriched[0].About)
	assert.Equal(t, models.Sentinel, enriched[0].Emails)
}

func TestEnrichPageLoadFailureYieldsSentinelRow(t *testing.T) {
	fake := browsertest.New()
	fake.WaitVisibleFunc = func(selector string) error {
		if selector == profileReadySel {
			return fmt.Errorf("timeout")
		}
		return nil
	}
	svc := newTestService()

	base := lead()
	enriched, err := svc.EnrichAll(context.Background(), fake, []models.LeadRecord{base}, nil)
	require.NoError(t, err)
	require.Len(t, enriched, 1)

	r := enriched[0]
	assert.Equal(t, base.Name, r.Name, "base fields survive a failed enrichment")
	assert.Equal(t, base.ProfileLink, r.ProfileLink)
	assert.Equal(t, models.Sentinel, r.About)
	assert.Equal(t, models.Sentinel, r.LinkedinURL)
	assert.Equal(t, models.Sentinel, r.Phones)
}

func TestEnrichProfileWithoutContactSection(t *testing.T) {
	fake := browsertest.New()
	fake.WaitVisibleFunc = func(selector string) error {
		if selector == contactSectionSel {
			return fmt.Errorf("timeout")
		}
		return nil
	}
	svc := newTestService()

	enriched, err := svc.EnrichAll(context.Background(), fake, []models.LeadRecord{lead()}, nil)
	require.NoError(t, err)
	require.Len(t, enriched, 1)
	assert.Equal(t, models.Sentinel, enriched[0].Emails)
	assert.Equal(t, models.Sentinel, enriched[0].LinkedinURL)
}

func TestEnrichProfileWithoutAboutSection(t *testing.T) {
	fake := browsertest.New()
	fullProfile(fake)
	fake.CountFunc = func(selector string) (int, error) {
		return 0, nil
	}
	svc := newTestService()

	enriched, err := svc.EnrichAll(context.Background(), fake, []models.LeadRecord{lead()}, nil)
	require.NoError(t, err)
	require.Len(t, enriched, 1)

	r := enriched[0]
	assert.Equal(t, models.Sentinel, r.About, "missing About section keeps the sentinel")
	assert.Equal(t, "alex@acme.example; alex.rivera@gmail.example", r.Emails, "contact fields still populate")
	assert.Equal(t, "+61400000000", r.Phones)
	assert.Equal(t, "https://www.linkedin.com/in/alexrivera", r.LinkedinURL)
}

func TestEnrichAllHeartbeatsPerLead(t *testing.T) {
	fake := browsertest.New()
	svc := newTestService()

	beats := 0
	leads := []models.LeadRecord{lead(), models.NewLeadRecord(), lead()}
	enriched, err := svc.EnrichAll(context.Background(), fake, leads, func() { beats++ })
	require.NoError(t, err)
	require.Len(t, enriched, 3)

	assert.Equal(t, 3, beats, "every lead beats, skipped rows included")
}

func TestEnrichClosesContactModal(t *testing.T) {
	fake := browsertest.New()
	fullProfile(fake)
	svc := newTestService()

	_, err := svc.EnrichAll(context.Background(), fake, []models.LeadRecord{lead()}, nil)
	require.NoError(t, err)

	var closed bool
	for _, c := range fake.CallsFor("click") {
		if c.Selector == modalCloseSel {
			closed = true
		}
	}
	assert.True(t, closed)
}

func TestEnrichAllVisitsLeadsInOrder(t *testing.T) {
	fake := browsertest.New()
	svc := newTestService()

	first := lead()
	second := lead()
	second.ProfileLink = "https://www.linkedin.com/sales/lead/ACwBBB,NAME_SEARCH"

	enriched, err := svc.EnrichAll(context.Background(), fake, []models.LeadRecord{first, second}, nil)
	require.NoError(t, err)
	require.Len(t, enriched, 2)

	navs := fake.CallsFor("navigate")
	require.Len(t, navs, 2)
	assert.Equal(t, first.ProfileLink, navs[0].Value)
	assert.Equal(t, second.ProfileLink, navs[1].Value)
}

func TestEnrichAllStopsOnCancelledContext(t *testing.T) {
	fake := browsertest.New()
	svc := newTestService()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	enriched, err := svc.EnrichAll(ctx, fake, []models.LeadRecord{lead(), lead()}, nil)
	require.Error(t, err)
	assert.Empty(t, enriched)
}
