package filters

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/prospect/internal/common"
	"github.com/ternarybob/prospect/internal/interfaces"
	"github.com/ternarybob/prospect/internal/models"
)

const (
	filtersURL = "https://www.linkedin.com/sales/search/people?viewAllFilters=true"

	overlaySel        = "div._scrim_1onvtb._dialog_1onvtb._visible_1onvtb._topLayer_1onvtb"
	overlayDismissSel = "button.artdeco-modal__dismiss"
	overlayWait       = 5 * time.Second
)

// control describes the UI shape of one filter dimension: the fieldset
// that expands it, the tag carrying the option's aria-label, and the
// typeahead placeholder for free-text controls.
type control struct {
	filterKey   string
	optionTag   string
	placeholder string
}

// controls maps each dimension onto the target UI's filter panel. The
// YEARS_OF_EXPERIENCE options render as list items rather than divs.
var controls = map[models.FilterDimension]control{
	models.DimensionTitle:           {filterKey: "CURRENT_TITLE", optionTag: "div", placeholder: "Add current titles"},
	models.DimensionFunction:        {filterKey: "FUNCTION", optionTag: "div"},
	models.DimensionSeniority:       {filterKey: "SENIORITY_LEVEL", optionTag: "div"},
	models.DimensionYearsExperience: {filterKey: "YEARS_OF_EXPERIENCE", optionTag: "li"},
	models.DimensionIndustry:        {filterKey: "INDUSTRY", optionTag: "div"},
}

// geographyControl serves locations carried in the goodToHave criteria.
var geographyControl = control{filterKey: "GEOGRAPHY", optionTag: "div", placeholder: "Add locations"}

// applyOrder is fixed: later filters' controls sometimes only become
// visible after earlier ones commit, an artifact of the panel's
// progressive disclosure.
var applyOrder = []models.FilterDimension{
	models.DimensionTitle,
	models.DimensionSeniority,
	models.DimensionYearsExperience,
	models.DimensionIndustry,
}

// Applicator translates classified filters into interactions against the
// search UI's filter panel.
type Applicator struct {
	config *common.BrowserConfig
	logger arbor.ILogger
}

// NewApplicator creates a filter applicator.
func NewApplicator(config *common.BrowserConfig, logger arbor.ILogger) *Applicator {
	return &Applicator{
		config: config,
		logger: logger,
	}
}

// Apply opens the filter panel and applies every non-skipped filter in
// the fixed dimension order, then types any locations into the geography
// control. A single filter's failure is logged and the next filter
// proceeds: partial filtering still yields a usable, merely broader,
// result set.
func (a *Applicator) Apply(ctx context.Context, b interfaces.Browser, filters []models.ClassifiedFilter, locations []string) error {
	if err := b.Navigate(ctx, filtersURL); err != nil {
		return fmt.Errorf("open filter panel: %w", err)
	}
	a.dismissOverlay(ctx, b)

	byDimension := make(map[models.FilterDimension]models.ClassifiedFilter, len(filters))
	for _, f := range filters {
		byDimension[f.Dimension] = f
	}

	for _, dim := range applyOrder {
		f, ok := byDimension[dim]
		if !ok || f.Skip() {
			continue
		}
		if err := a.applyOne(ctx, b, controls[dim], f.Value()); err != nil {
			a.logger.Warn().
				Err(err).
				Str("dimension", string(dim)).
				Str("value", f.Value()).
				Msg("Filter failed, continuing with remaining filters")
			continue
		}
		a.logger.Info().
			Str("dimension", string(dim)).
			Str("value", f.Value()).
			Msg("Filter applied")
	}

	for _, location := range locations {
		if location == "" {
			continue
		}
		if err := a.applyOne(ctx, b, geographyControl, location); err != nil {
			a.logger.Warn().
				Err(err).
				Str("location", location).
				Msg("Geography filter failed, continuing")
		}
	}

	return nil
}

// applyOne drives a single filter control: scroll its fieldset into view,
// expand it, type into the typeahead when the control has one, and click
// the option whose aria-label echoes the value. Each locate tolerates
// the element being detached and recreated mid-interaction by retrying
// up to the configured budget.
func (a *Applicator) applyOne(ctx context.Context, b interfaces.Browser, c control, value string) error {
	fieldsetSel := fmt.Sprintf("fieldset[data-x-search-filter='%s']", c.filterKey)

	a.dismissOverlay(ctx, b)

	// Controls outside the viewport silently reject input.
	scrollJS := fmt.Sprintf(`(() => { const el = document.querySelector(%q); if (el) el.scrollIntoView({block: 'center'}); })()`, fieldsetSel)
	_ = b.Eval(ctx, scrollJS, nil)

	if err := a.clickWithRelocate(ctx, b, fieldsetSel); err != nil {
		return fmt.Errorf("expand %s: %w", c.filterKey, err)
	}

	if c.placeholder != "" {
		inputSel := fmt.Sprintf("input[placeholder='%s']", c.placeholder)
		if err := a.typeWithRelocate(ctx, b, inputSel, value); err != nil {
			return fmt.Errorf("type into %s: %w", c.filterKey, err)
		}
	}

	optionSel := fmt.Sprintf(`%s[aria-label*="%s"]`, c.optionTag, value)
	if err := b.WaitVisible(ctx, optionSel, a.config.WaitTimeout); err != nil {
		return fmt.Errorf("option for %q: %w", value, err)
	}
	if err := a.clickWithRelocate(ctx, b, optionSel); err != nil {
		return fmt.Errorf("select option %q: %w", value, err)
	}

	return nil
}

// clickWithRelocate retries the locate-and-click up to MaxRetries. The
// panel re-renders its controls as selections commit, so a first click
// landing on a detached element is routine rather than exceptional.
func (a *Applicator) clickWithRelocate(ctx context.Context, b interfaces.Browser, selector string) error {
	var lastErr error
	for attempt := 0; attempt < a.config.MaxRetries; attempt++ {
		if err := b.Click(ctx, selector); err != nil {
			lastErr = err
			a.logger.Debug().
				Err(err).
				Str("selector", selector).
				Int("attempt", attempt+1).
				Msg("Click failed, relocating")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
			continue
		}
		return nil
	}
	return fmt.Errorf("click %q after %d attempts: %w", selector, a.config.MaxRetries, lastErr)
}

// typeWithRelocate retries locating the typeahead input before typing.
func (a *Applicator) typeWithRelocate(ctx context.Context, b interfaces.Browser, selector, text string) error {
	var lastErr error
	for attempt := 0; attempt < a.config.MaxRetries; attempt++ {
		if err := b.WaitVisible(ctx, selector, a.config.ShortTimeout); err != nil {
			lastErr = err
		} else if err := b.SendKeys(ctx, selector, text); err != nil {
			lastErr = err
		} else {
			return nil
		}
		a.logger.Debug().
			Err(lastErr).
			Str("selector", selector).
			Int("attempt", attempt+1).
			Msg("Typeahead input not ready, relocating")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
	return fmt.Errorf("type into %q after %d attempts: %w", selector, a.config.MaxRetries, lastErr)
}

// dismissOverlay closes a blocking scrim when one is present. Absence of
// the overlay is the normal case and not an error.
func (a *Applicator) dismissOverlay(ctx context.Context, b interfaces.Browser) {
	count, err := b.Count(ctx, overlaySel)
	if err != nil || count == 0 {
		return
	}

	a.logger.Debug().Msg("Overlay detected, dismissing")
	if err := b.Click(ctx, overlayDismissSel); err != nil {
		a.logger.Debug().Err(err).Msg("Overlay dismiss click failed")
		return
	}
	if err := b.WaitNotPresent(ctx, overlaySel, overlayWait); err != nil {
		a.logger.Debug().Err(err).Msg("Overlay still present after dismissal")
	}
}
