package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/prospect/internal/interfaces"
	"github.com/ternarybob/prospect/internal/models"
	"github.com/ternarybob/prospect/internal/services/llm"
)

// Service resolves free-text criteria against the canonical filter
// enumerations, using an LLM to extract the candidate value and fuzzy
// matching to pin it to an enumeration entry.
type Service struct {
	provider llm.Provider
	logger   arbor.ILogger
}

// NewService creates a classifier backed by the given content provider.
func NewService(provider llm.Provider, logger arbor.ILogger) *Service {
	return &Service{
		provider: provider,
		logger:   logger,
	}
}

// Classify resolves one criteria dimension. Empty input yields a skipped
// filter, not an error. A provider failure is swallowed into a skipped
// filter as well (single attempt at this level): a missing filter merely
// broadens the result set, which beats aborting the search.
func (s *Service) Classify(ctx context.Context, freeText string, dimension models.FilterDimension) models.ClassifiedFilter {
	result := models.ClassifiedFilter{Dimension: dimension}

	freeText = strings.TrimSpace(freeText)
	if freeText == "" {
		return result
	}

	// TITLE has no enumeration; the raw text is typed into the keyword
	// control as-is.
	if dimension == models.DimensionTitle {
		result.RawValue = freeText
		return result
	}

	candidate, err := s.extractCandidate(ctx, freeText, dimension)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("dimension", string(dimension)).
			Msg("Classification call failed, skipping filter")
		return result
	}
	if candidate == "" {
		return result
	}

	result.RawValue = candidate

	options := enumerationFor(dimension)
	best, score := closestMatch(candidate, options)
	result.MatchScore = score

	if score >= cutoffs[dimension] {
		result.MatchedValue = best
	} else {
		s.logger.Debug().
			Str("dimension", string(dimension)).
			Str("candidate", candidate).
			Str("best", best).
			Int("score", score).
			Msg("Best match below cutoff, passing raw value through")
	}

	return result
}

// ClassifyCriteria resolves every dimension of the criteria in filter
// application order. Dimensions with empty input are returned as skipped
// filters so the applicator can honor the skip invariant.
func (s *Service) ClassifyCriteria(ctx context.Context, criteria models.SearchCriteria) []models.ClassifiedFilter {
	return []models.ClassifiedFilter{
		s.Classify(ctx, criteria.JobTitle, models.DimensionTitle),
		s.Classify(ctx, criteria.SeniorityLevel, models.DimensionSeniority),
		s.Classify(ctx, criteria.YearsOfExperience, models.DimensionYearsExperience),
		s.Classify(ctx, criteria.Industry, models.DimensionIndustry),
	}
}

var dimensionDescriptions = map[models.FilterDimension]string{
	models.DimensionFunction:        "the job function or area of expertise the candidate should have",
	models.DimensionSeniority:       "the desired seniority level of the candidate",
	models.DimensionYearsExperience: "the minimum number of years of relevant experience required",
	models.DimensionIndustry:        "the industry the candidate should have experience in",
}

// extractCandidate asks the provider to pull one bare value for the
// dimension out of the free text, and parses the response permissively.
func (s *Service) extractCandidate(ctx context.Context, freeText string, dimension models.FilterDimension) (string, error) {
	prompt := fmt.Sprintf(
		"Extract %s from the candidate search criteria below and return it as a valid JSON object "+
			"with only the key 'value' and no additional text.\n\n"+
			"Candidate criteria:\n%q\n\n"+
			"For example, the output should be exactly:\n{\n  \"value\": \"Engineering\"\n}\n",
		dimensionDescriptions[dimension], freeText,
	)

	// One attempt per dimension: a failed classification degrades to a
	// skipped filter, so waiting out provider backoffs buys nothing.
	resp, err := s.provider.GenerateContent(ctx, &llm.ContentRequest{
		Messages: []interfaces.Message{
			{Role: "user", Content: prompt},
		},
		SingleAttempt: true,
	})
	if err != nil {
		return "", err
	}

	return parseResponse(resp.Text), nil
}

var jsonObjectRegex = regexp.MustCompile(`(?s)\{.*\}`)

// parseResponse extracts the classified value from a model response.
// Models wrap JSON in prose and code fences often enough that the parse
// is deliberately permissive: take the first brace-delimited substring
// and decode it; if that fails, treat the whole trimmed response as the
// bare value.
func parseResponse(raw string) string {
	if match := jsonObjectRegex.FindString(raw); match != "" {
		var decoded map[string]interface{}
		if err := json.Unmarshal([]byte(match), &decoded); err == nil {
			if v, ok := decoded["value"].(string); ok {
				return strings.TrimSpace(v)
			}
			// Tolerate a different key as long as exactly one string
			// value came back.
			var only string
			count := 0
			for _, v := range decoded {
				if sv, ok := v.(string); ok {
					only = sv
					count++
				}
			}
			if count == 1 {
				return strings.TrimSpace(only)
			}
			return ""
		}
	}
	return strings.TrimSpace(raw)
}

// closestMatch scores the candidate against every option with a
// token-set ratio and returns the best. Ties keep the earlier option.
func closestMatch(candidate string, options []string) (string, int) {
	var best string
	bestScore := 0
	for _, option := range options {
		score := fuzzy.TokenSetRatio(strings.ToLower(candidate), strings.ToLower(option))
		if score > bestScore {
			best = option
			bestScore = score
		}
	}
	return best, bestScore
}
