package enricher

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/prospect/internal/common"
	"github.com/ternarybob/prospect/internal/interfaces"
	"github.com/ternarybob/prospect/internal/models"
)

const (
	// The actions bar renders last; its presence means the profile page
	// finished hydrating.
	profileReadySel = `button[data-x--lead-actions-bar-overflow-menu][aria-label="Open actions overflow menu"]`

	contactSectionSel = `section[data-sn-view-name="lead-contact-info"]`
	contactModalSel   = "div.artdeco-modal__content"
	modalCloseSel     = "button[data-test-modal-close-btn]"
	aboutSectionSel   = "#about-section"

	profileLoadTimeout = 20 * time.Second

	showAllContactJS = `(() => {
		const sec = document.querySelector('section[data-sn-view-name="lead-contact-info"]');
		if (!sec) return false;
		for (const b of sec.querySelectorAll('button')) {
			if (b.textContent.includes('Show all')) { b.click(); return true; }
		}
		return false;
	})()`

	showMoreAboutJS = `(() => {
		const sec = document.querySelector('#about-section');
		if (!sec) return false;
		for (const b of sec.querySelectorAll('button')) {
			if (b.textContent.includes('Show more')) { b.click(); return true; }
		}
		return false;
	})()`
)

// Service visits each harvested lead's profile and augments the record
// with contact info and the About blurb. Profiles are visited
// sequentially and paced by a rate limiter, mirroring a human reading
// one profile at a time.
type Service struct {
	browserCfg *common.BrowserConfig
	limiter    *rate.Limiter
	logger     arbor.ILogger
}

// NewService creates an enricher paced at one profile per delay.
func NewService(browserCfg *common.BrowserConfig, pipelineCfg *common.PipelineConfig, logger arbor.ILogger) *Service {
	delay := pipelineCfg.ProfileDelay
	if delay <= 0 {
		delay = time.Second
	}
	return &Service{
		browserCfg: browserCfg,
		limiter:    rate.NewLimiter(rate.Every(delay), 1),
		logger:     logger,
	}
}

// EnrichAll enriches every lead in order. Rows without a usable profile
// link, and profiles whose page never loads, come back with every
// enrichment field at the sentinel; the base fields always survive.
// heartbeat, when non-nil, is invoked after each lead: a paced run over
// hundreds of profiles spends a long time with no other observable
// progress, and the callback is how the session proves it is alive.
func (s *Service) EnrichAll(ctx context.Context, b interfaces.Browser, leads []models.LeadRecord, heartbeat func()) ([]models.EnrichedLeadRecord, error) {
	enriched := make([]models.EnrichedLeadRecord, 0, len(leads))
	for _, lead := range leads {
		if err := ctx.Err(); err != nil {
			return enriched, err
		}
		enriched = append(enriched, s.enrichOne(ctx, b, lead))
		if heartbeat != nil {
			heartbeat()
		}
	}
	return enriched, nil
}

func (s *Service) enrichOne(ctx context.Context, b interfaces.Browser, lead models.LeadRecord) models.EnrichedLeadRecord {
	record := models.NewEnrichedLeadRecord(lead)

	if lead.ProfileLink == models.Sentinel || lead.ProfileLink == "" {
		s.logger.Debug().Str("name", lead.Name).Msg("No profile link, skipping enrichment")
		return record
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return record
	}

	s.logger.Info().Str("profile", lead.ProfileLink).Msg("Enriching lead")

	if err := b.Navigate(ctx, lead.ProfileLink); err != nil {
		s.logger.Warn().Err(err).Str("profile", lead.ProfileLink).Msg("Profile navigation failed")
		return record
	}
	if err := b.WaitVisible(ctx, profileReadySel, profileLoadTimeout); err != nil {
		s.logger.Warn().Err(err).Str("profile", lead.ProfileLink).Msg("Profile page never became ready")
		return record
	}

	s.extractContactInfo(ctx, b, &record)
	s.extractAbout(ctx, b, &record)

	return record
}

// extractContactInfo opens the contact info modal when the section offers
// one and pulls hrefs out of its per-channel subsections. Each channel
// fails independently; an absent channel keeps its sentinel.
func (s *Service) extractContactInfo(ctx context.Context, b interfaces.Browser, record *models.EnrichedLeadRecord) {
	if err := b.WaitVisible(ctx, contactSectionSel, s.browserCfg.ShortTimeout); err != nil {
		s.logger.Debug().Msg("No contact info section on this profile")
		return
	}

	if url := s.linkedinURLFrom(ctx, b, contactSectionSel); url != "" {
		record.LinkedinURL = url
	}

	var opened bool
	if err := b.Eval(ctx, showAllContactJS, &opened); err != nil || !opened {
		return
	}
	if err := b.WaitVisible(ctx, contactModalSel, s.browserCfg.ShortTimeout); err != nil {
		s.logger.Debug().Err(err).Msg("Contact info modal never appeared")
		return
	}
	defer func() {
		if err := b.Click(ctx, modalCloseSel); err != nil {
			s.logger.Debug().Err(err).Msg("Contact info modal close failed")
		}
	}()

	html, err := b.OuterHTML(ctx, contactModalSel)
	if err != nil || html == "" {
		return
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return
	}

	setIfAny(&record.Phones, hrefsIn(doc, "section.contact-info-form__phone", "tel:"))
	setIfAny(&record.Emails, hrefsIn(doc, "section.contact-info-form__email", "mailto:"))
	setIfAny(&record.Websites, hrefsIn(doc, "section.contact-info-form__website", ""))
	setIfAny(&record.Socials, hrefsIn(doc, "section.contact-info-form__social", ""))
	setIfAny(&record.Addresses, hrefsIn(doc, "section.contact-info-form__address", ""))

	if record.LinkedinURL == models.Sentinel {
		if url := flagshipURLIn(doc); url != "" {
			record.LinkedinURL = url
		}
	}
}

// linkedinURLFrom scans a container's anchors for a flagship profile
// link.
func (s *Service) linkedinURLFrom(ctx context.Context, b interfaces.Browser, selector string) string {
	html, err := b.OuterHTML(ctx, selector)
	if err != nil || html == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	return flagshipURLIn(doc)
}

func flagshipURLIn(doc *goquery.Document) string {
	var url string
	doc.Find("a").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, ok := sel.Attr("href")
		if ok && strings.Contains(href, "linkedin.com/in/") {
			url = href
			return false
		}
		return true
	})
	return url
}

// hrefsIn collects anchor hrefs under the given section, stripping a
// scheme prefix when one applies. Search redirect links are noise, not
// contact data.
func hrefsIn(doc *goquery.Document, sectionSel, stripPrefix string) []string {
	var values []string
	doc.Find(sectionSel + " a").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return
		}
		if strings.Contains(href, "https://www.bing.com/search?") {
			return
		}
		if stripPrefix != "" {
			href = strings.TrimPrefix(href, stripPrefix)
		}
		if v := strings.TrimSpace(href); v != "" {
			values = append(values, v)
		}
	})
	return values
}

func setIfAny(field *string, values []string) {
	if len(values) > 0 {
		*field = strings.Join(values, "; ")
	}
}

// extractAbout reads the About section, expanding it first when a show
// more control is present.
func (s *Service) extractAbout(ctx context.Context, b interfaces.Browser, record *models.EnrichedLeadRecord) {
	count, err := b.Count(ctx, aboutSectionSel)
	if err != nil || count == 0 {
		return
	}

	var expanded bool
	_ = b.Eval(ctx, showMoreAboutJS, &expanded)

	text, err := b.Text(ctx, aboutSectionSel)
	if err != nil || text == "" {
		return
	}
	text = strings.TrimPrefix(text, "About\n")
	text = strings.ReplaceAll(text, "Show less", "")
	if v := strings.TrimSpace(text); v != "" {
		record.About = v
	}
}
