package harvester

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/prospect/internal/common"
	"github.com/ternarybob/prospect/internal/interfaces"
	"github.com/ternarybob/prospect/internal/models"
)

const (
	resultItemSel      = "li.artdeco-list__item.pl3.pv3"
	resultContainerSel = "#search-results-container"

	scrollToBottomJS = `window.scrollTo(0, document.body.scrollHeight)`
	scrollNudgeJS    = `window.scrollBy(0, -400); window.scrollBy(0, 800)`
)

// Service harvests the visible result list after filters commit: it
// scrolls until the item count converges, then extracts one record per
// list item in DOM order.
type Service struct {
	browserCfg  *common.BrowserConfig
	pipelineCfg *common.PipelineConfig
	logger      arbor.ILogger
}

// NewService creates a harvester.
func NewService(browserCfg *common.BrowserConfig, pipelineCfg *common.PipelineConfig, logger arbor.ILogger) *Service {
	return &Service{
		browserCfg:  browserCfg,
		pipelineCfg: pipelineCfg,
		logger:      logger,
	}
}

// Scrape waits for the result list, scrolls it to convergence and
// extracts every row. Records come back in DOM order, undeduplicated;
// maxLeads > 0 truncates the result. Missing fields degrade to the
// sentinel value rather than failing the row. A search that matches
// nothing renders the results container with no items; that is an
// empty harvest, not a failure.
func (s *Service) Scrape(ctx context.Context, b interfaces.Browser, maxLeads int) ([]models.LeadRecord, error) {
	if err := b.WaitVisible(ctx, resultItemSel, s.browserCfg.WaitTimeout); err != nil {
		if n, cErr := b.Count(ctx, resultContainerSel); cErr == nil && n > 0 {
			s.logger.Info().Msg("Search returned no results")
			return []models.LeadRecord{}, nil
		}
		return nil, fmt.Errorf("result list never rendered: %w", err)
	}

	count, err := s.scrollToConvergence(ctx, b)
	if err != nil {
		return nil, err
	}
	if maxLeads > 0 && count > maxLeads {
		count = maxLeads
	}

	s.logger.Info().Int("items", count).Msg("Result list converged, extracting")

	leads := make([]models.LeadRecord, 0, count)
	for i := 1; i <= count; i++ {
		leads = append(leads, s.extractItem(ctx, b, i))
	}
	return leads, nil
}

// scrollToConvergence scrolls to the bottom until the item count stops
// growing for a run of stagnant rounds. The first stagnant round gets a
// nudge scroll, which unsticks the list's lazy loader often enough to
// be worth the extra settle.
func (s *Service) scrollToConvergence(ctx context.Context, b interfaces.Browser) (int, error) {
	lastCount := 0
	stagnant := 0

	for round := 0; round < s.pipelineCfg.MaxScrollRounds; round++ {
		if err := b.Eval(ctx, scrollToBottomJS, nil); err != nil {
			return 0, fmt.Errorf("scroll result list: %w", err)
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(s.pipelineCfg.ScrollSettle):
		}

		count, err := b.Count(ctx, resultItemSel)
		if err != nil {
			return 0, fmt.Errorf("count result items: %w", err)
		}

		if count > lastCount {
			lastCount = count
			stagnant = 0
			continue
		}

		stagnant++
		if stagnant >= s.pipelineCfg.StagnantRounds {
			s.logger.Debug().
				Int("count", count).
				Int("rounds", round+1).
				Msg("Result list stable, stopping scroll")
			return lastCount, nil
		}
		_ = b.Eval(ctx, scrollNudgeJS, nil)
	}

	s.logger.Warn().
		Int("count", lastCount).
		Int("maxRounds", s.pipelineCfg.MaxScrollRounds).
		Msg("Scroll budget exhausted before convergence")
	return lastCount, nil
}

// extractItem pulls one record out of the nth list item. Every field is
// independent: a field that fails all its strategies lands as the
// sentinel and the rest of the row survives.
func (s *Service) extractItem(ctx context.Context, b interfaces.Browser, index int) models.LeadRecord {
	item := fmt.Sprintf("%s:nth-child(%d)", resultItemSel, index)
	lead := models.NewLeadRecord()

	if v, ok := s.textField(ctx, b, item+" span[data-anonymize='person-name']"); ok {
		lead.Name = v
	} else if v, ok := s.attrField(ctx, b, item+" img[data-anonymize='headshot-photo']", "alt"); ok {
		lead.Name = v
	}

	if v, ok := s.attrField(ctx, b, item+" a[data-anonymize='person-name']", "href"); ok {
		lead.ProfileLink = absoluteURL(v)
	} else if v, ok := s.fallbackProfileLink(ctx, b, item); ok {
		lead.ProfileLink = v
	}

	if v, ok := s.textField(ctx, b, item+" span[data-anonymize='title']"); ok {
		lead.Title = v
	}

	if v, ok := s.textField(ctx, b, item+" a[data-anonymize='company-name']"); ok {
		lead.Company = v
	}
	if v, ok := s.attrField(ctx, b, item+" a[data-anonymize='company-name']", "href"); ok {
		lead.CompanyLink = absoluteURL(v)
	}

	if v, ok := s.textField(ctx, b, item+" span[data-anonymize='location']"); ok {
		lead.Location = v
	}

	if lead.Name == models.Sentinel {
		s.logger.Debug().Int("item", index).Msg("Item yielded no name, keeping sentinel row")
	}
	return lead
}

// textField reads trimmed text with retries. Empty text counts as a
// miss: blank spans appear while rows are still hydrating.
func (s *Service) textField(ctx context.Context, b interfaces.Browser, selector string) (string, bool) {
	for attempt := 0; attempt < s.browserCfg.MaxRetries; attempt++ {
		text, err := b.Text(ctx, selector)
		if err == nil && text != "" {
			return text, true
		}
		if ctx.Err() != nil {
			return "", false
		}
	}
	return "", false
}

// attrField reads an attribute with retries.
func (s *Service) attrField(ctx context.Context, b interfaces.Browser, selector, name string) (string, bool) {
	for attempt := 0; attempt < s.browserCfg.MaxRetries; attempt++ {
		value, ok, err := b.Attr(ctx, selector, name)
		if err == nil && ok && value != "" {
			return value, true
		}
		if ctx.Err() != nil {
			return "", false
		}
	}
	return "", false
}

// fallbackProfileLink parses the item's markup with goquery and takes
// the first anchor pointing at a lead profile. Some result variants
// nest the profile link in a wrapper the direct selector misses.
func (s *Service) fallbackProfileLink(ctx context.Context, b interfaces.Browser, itemSel string) (string, bool) {
	html, err := b.OuterHTML(ctx, itemSel)
	if err != nil || html == "" {
		return "", false
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", false
	}

	var href string
	doc.Find("a[href*='/sales/lead/']").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if v, ok := sel.Attr("href"); ok && v != "" {
			href = v
			return false
		}
		return true
	})
	if href == "" {
		return "", false
	}
	return absoluteURL(href), true
}

// absoluteURL resolves site-relative hrefs against the site origin.
func absoluteURL(href string) string {
	if strings.HasPrefix(href, "/") {
		return "https://www.linkedin.com" + href
	}
	return href
}
