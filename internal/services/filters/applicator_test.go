package filters

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/prospect/internal/browser/browsertest"
	"github.com/ternarybob/prospect/internal/common"
	"github.com/ternarybob/prospect/internal/models"
)

func newTestApplicator() *Applicator {
	cfg := common.NewDefaultConfig()
	return NewApplicator(&cfg.Browser, common.GetLogger())
}

func fieldsetClicks(fake *browsertest.Fake) []string {
	var out []string
	for _, c := range fake.CallsFor("click") {
		if strings.HasPrefix(c.Selector, "fieldset[") {
			out = append(out, c.Selector)
		}
	}
	return out
}

func TestApplyDrivesFiltersInFixedOrder(t *testing.T) {
	fake := browsertest.New()
	app := newTestApplicator()

	filters := []models.ClassifiedFilter{
		{Dimension: models.DimensionIndustry, MatchedValue: "Accounting"},
		{Dimension: models.DimensionTitle, RawValue: "Head of Sustainability"},
		{Dimension: models.DimensionYearsExperience, MatchedValue: "3-5 years"},
		{Dimension: models.DimensionSeniority, MatchedValue: "Experienced Manager"},
	}

	err := app.Apply(context.Background(), fake, filters, nil)
	require.NoError(t, err)

	navs := fake.CallsFor("navigate")
	require.Len(t, navs, 1)
	assert.Equal(t, filtersURL, navs[0].Value)

	clicks := fieldsetClicks(fake)
	require.Len(t, clicks, 4)
	assert.Contains(t, clicks[0], "CURRENT_TITLE")
	assert.Contains(t, clicks[1], "SENIORITY_LEVEL")
	assert.Contains(t, clicks[2], "YEARS_OF_EXPERIENCE")
	assert.Contains(t, clicks[3], "INDUSTRY")
}

func TestApplySkippedFiltersTouchNothing(t *testing.T) {
	fake := browsertest.New()
	app := newTestApplicator()

	filters := []models.ClassifiedFilter{
		{Dimension: models.DimensionTitle, RawValue: "Head of Sustainability"},
		{Dimension: models.DimensionSeniority},
		{Dimension: models.DimensionYearsExperience},
		{Dimension: models.DimensionIndustry, MatchedValue: "Banking"},
	}

	err := app.Apply(context.Background(), fake, filters, nil)
	require.NoError(t, err)

	clicks := fieldsetClicks(fake)
	require.Len(t, clicks, 2)
	assert.Contains(t, clicks[0], "CURRENT_TITLE")
	assert.Contains(t, clicks[1], "INDUSTRY")
	for _, sel := range clicks {
		assert.NotContains(t, sel, "SENIORITY_LEVEL")
		assert.NotContains(t, sel, "YEARS_OF_EXPERIENCE")
	}
}

func TestApplyTitleUsesTypeaheadAndRawValue(t *testing.T) {
	fake := browsertest.New()
	app := newTestApplicator()

	filters := []models.ClassifiedFilter{
		{Dimension: models.DimensionTitle, RawValue: "Head of Sustainability"},
	}

	err := app.Apply(context.Background(), fake, filters, nil)
	require.NoError(t, err)

	keys := fake.CallsFor("send_keys")
	require.Len(t, keys, 1)
	assert.Equal(t, "input[placeholder='Add current titles']", keys[0].Selector)
	assert.Equal(t, "Head of Sustainability", keys[0].Value)
}

func TestApplySelectFilterClicksAriaLabelOption(t *testing.T) {
	fake := browsertest.New()
	app := newTestApplicator()

	filters := []models.ClassifiedFilter{
		{Dimension: models.DimensionYearsExperience, MatchedValue: "3-5 years"},
	}

	err := app.Apply(context.Background(), fake, filters, nil)
	require.NoError(t, err)

	var optionClicks []string
	for _, c := range fake.CallsFor("click") {
		if strings.Contains(c.Selector, "aria-label") {
			optionClicks = append(optionClicks, c.Selector)
		}
	}
	require.Len(t, optionClicks, 1)
	assert.Equal(t, `li[aria-label*="3-5 years"]`, optionClicks[0])
	assert.Empty(t, fake.CallsFor("send_keys"), "select filters have no typeahead")
}

func TestApplyGeographyFromLocations(t *testing.T) {
	fake := browsertest.New()
	app := newTestApplicator()

	err := app.Apply(context.Background(), fake, nil, []string{"Australia", "", "New Zealand"})
	require.NoError(t, err)

	keys := fake.CallsFor("send_keys")
	require.Len(t, keys, 2)
	assert.Equal(t, "input[placeholder='Add locations']", keys[0].Selector)
	assert.Equal(t, "Australia", keys[0].Value)
	assert.Equal(t, "New Zealand", keys[1].Value)
}

func TestApplyRetriesStaleClicks(t *testing.T) {
	fake := browsertest.New()
	failures := 0
	fake.ClickFunc = func(selector string) error {
		if strings.HasPrefix(selector, "fieldset[") && failures < 2 {
			failures++
			return fmt.Errorf("node detached")
		}
		return nil
	}
	app := newTestApplicator()

	filters := []models.ClassifiedFilter{
		{Dimension: models.DimensionSeniority, MatchedValue: "Director"},
	}

	err := app.Apply(context.Background(), fake, filters, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, failures, "first two clicks fail, third succeeds")
	assert.Len(t, fieldsetClicks(fake), 3)
}

func TestApplyContinuesPastFailedFilter(t *testing.T) {
	fake := browsertest.New()
	fake.ClickFunc = func(selector string) error {
		if strings.Contains(selector, "SENIORITY_LEVEL") {
			return fmt.Errorf("node not found")
		}
		return nil
	}
	app := newTestApplicator()

	filters := []models.ClassifiedFilter{
		{Dimension: models.DimensionSeniority, MatchedValue: "Director"},
		{Dimension: models.DimensionIndustry, MatchedValue: "Banking"},
	}

	err := app.Apply(context.Background(), fake, filters, nil)
	require.NoError(t, err)

	var industryClicked bool
	for _, c := range fake.CallsFor("click") {
		if strings.Contains(c.Selector, "INDUSTRY") {
			industryClicked = true
		}
	}
	assert.True(t, industryClicked, "failure of one filter must not abort the rest")
}

func TestApplyDismissesOverlay(t *testing.T) {
	fake := browsertest.New()
	overlayPresent := true
	fake.CountFunc = func(selector string) (int, error) {
		if selector == overlaySel && overlayPresent {
			return 1, nil
		}
		return 0, nil
	}
	fake.ClickFunc = func(selector string) error {
		if selector == overlayDismissSel {
			overlayPresent = false
		}
		return nil
	}
	app := newTestApplicator()

	err := app.Apply(context.Background(), fake, nil, nil)
	require.NoError(t, err)

	dismisses := 0
	for _, c := range fake.CallsFor("click") {
		if c.Selector == overlayDismissSel {
			dismisses++
		}
	}
	assert.Equal(t, 1, dismisses)
	assert.False(t, overlayPresent)
}

func TestApplyNavigateFailureIsFatal(t *testing.T) {
	fake := browsertest.New()
	fake.NavigateFunc = func(url string) error {
		return fmt.Errorf("net::ERR_NAME_NOT_RESOLVED")
	}
	app := newTestApplicator()

	err := app.Apply(context.Background(), fake, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open filter panel")
}
