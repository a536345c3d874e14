package models

// Sentinel is written in place of any field that could not be extracted.
// Downstream consumers rely on every column being present, so extraction
// failure degrades to this value rather than omitting the field.
const Sentinel = "NA"

// LeadRecord is one harvested search-result row. Every field is always
// populated; a record is retained even when all fields are sentinels so
// positional correspondence with the source list is preserved.
type LeadRecord struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	ProfileLink string `json:"profileLink"`
	Company     string `json:"company"`
	CompanyLink string `json:"companyLink"`
	Location    string `json:"location"`
}

// NewLeadRecord returns a record with every field set to the sentinel.
func NewLeadRecord() LeadRecord {
	return LeadRecord{
		Name:        Sentinel,
		Title:       Sentinel,
		ProfileLink: Sentinel,
		Company:     Sentinel,
		CompanyLink: Sentinel,
		Location:    Sentinel,
	}
}

// EnrichedLeadRecord extends a LeadRecord with profile-page detail.
// Multi-valued fields are semicolon-joined strings with the sentinel
// when the subsection was absent.
type EnrichedLeadRecord struct {
	LeadRecord
	About       string `json:"about"`
	LinkedinURL string `json:"linkedinUrl"`
	Phones      string `json:"phones"`
	Emails      string `json:"emails"`
	Websites    string `json:"websites"`
	Socials     string `json:"socials"`
	Addresses   string `json:"addresses"`
}

// NewEnrichedLeadRecord returns an enrichment of lead with every
// profile-derived field set to the sentinel.
func NewEnrichedLeadRecord(lead LeadRecord) EnrichedLeadRecord {
	return EnrichedLeadRecord{
		LeadRecord:  lead,
		About:       Sentinel,
		LinkedinURL: Sentinel,
		Phones:      Sentinel,
		Emails:      Sentinel,
		Websites:    Sentinel,
		Socials:     Sentinel,
		Addresses:   Sentinel,
	}
}

// CSV column orders are a compatibility surface for downstream consumers
// and must not be reordered.
var (
	LeadCSVHeader = []string{"Name", "Title", "Profile Link", "Company", "Company Link", "Location"}

	EnrichedLeadCSVHeader = []string{
		"Name", "Title", "Profile Link", "Company", "Company Link", "Location",
		"About", "Linkedin URL", "Phones", "Emails", "Websites", "Socials", "Addresses",
	}
)

// CSVRow returns the record's fields in LeadCSVHeader order.
func (r LeadRecord) CSVRow() []string {
	return []string{r.Name, r.Title, r.ProfileLink, r.Company, r.CompanyLink, r.Location}
}

// CSVRow returns the record's fields in EnrichedLeadCSVHeader order.
func (r EnrichedLeadRecord) CSVRow() []string {
	return []string{
		r.Name, r.Title, r.ProfileLink, r.Company, r.CompanyLink, r.Location,
		r.About, r.LinkedinURL, r.Phones, r.Emails, r.Websites, r.Socials, r.Addresses,
	}
}
