package models

// FilterDimension identifies one search-filter axis in the target UI.
type FilterDimension string

const (
	DimensionTitle           FilterDimension = "TITLE"
	DimensionSeniority       FilterDimension = "SENIORITY"
	DimensionYearsExperience FilterDimension = "YEARS_EXPERIENCE"
	DimensionFunction        FilterDimension = "FUNCTION"
	DimensionIndustry        FilterDimension = "INDUSTRY"
)

// SearchCriteria is the caller-supplied description of the leads to find.
// Free-text seniority/experience fields are not guaranteed to match the
// canonical enumerations; classification is best-effort.
type SearchCriteria struct {
	JobTitle          string   `json:"jobTitle" validate:"required"`
	SeniorityLevel    string   `json:"seniorityLevel"`
	YearsOfExperience string   `json:"yearsOfExperience"`
	Industry          string   `json:"industry"`
	GoodToHave        []string `json:"goodToHave"`
	NumberOfLeads     int      `json:"numberOfLeads" validate:"gte=0"`
}

// ClassifiedFilter is the result of resolving one criteria dimension
// against its canonical enumeration.
//
// MatchedValue is non-empty only when MatchScore met the dimension cutoff,
// and is then drawn verbatim from the enumeration. A raw value that failed
// to match is carried in RawValue and typed into a free-text control
// instead of selected from an enumerated one.
type ClassifiedFilter struct {
	Dimension    FilterDimension `json:"dimension"`
	RawValue     string          `json:"rawValue"`
	MatchedValue string          `json:"matchedValue,omitempty"`
	MatchScore   int             `json:"matchScore"`
}

// Skip reports whether the dimension should be omitted from filtering
// entirely (empty input or unusable classification output).
func (f ClassifiedFilter) Skip() bool {
	return f.RawValue == "" && f.MatchedValue == ""
}

// Value returns the string to apply in the UI: the canonical match when
// one was accepted, otherwise the raw pass-through.
func (f ClassifiedFilter) Value() string {
	if f.MatchedValue != "" {
		return f.MatchedValue
	}
	return f.RawValue
}
