package classifier

import "github.com/ternarybob/prospect/internal/models"

// Canonical enumerations for the target UI's filter controls. Values are
// applied verbatim, so entries must match the site's option labels
// exactly. Order matters: ties in fuzzy scoring resolve to the earlier
// entry.

var Functions = []string{
	"Administrative", "Business Development", "Consulting", "Education", "Engineering",
	"Entrepreneurship", "Finance", "Healthcare Services", "Human Resources",
	"Information Technology", "Legal", "Marketing", "Media & Communication",
	"Military & Protective Services", "Operations", "Product Management",
	"Program & Project Management", "Purchasing", "Quality Assurance", "Real Estate",
	"Research", "Sales", "Support",
}

var SeniorityLevels = []string{
	"Entry Level", "Director", "In Training", "Experienced Manager", "Owner/Partner",
	"Entry Level Manager", "CXO", "Vice President", "Strategic", "Senior",
}

var YearsOfExperience = []string{
	"Less than 1 year", "1-2 years", "3-5 years", "6-10 years", "More than 10 years",
}

var Industries = []string{
	"Accounting", "Airlines & Aviation", "Alternative Dispute Resolution", "Alternative Medicine", "Animation",
	"Apparel & Fashion", "Architecture & Planning", "Arts & Crafts", "Automotive", "Aviation & Aerospace",
	"Banking", "Biotechnology", "Broadcast Media", "Building Materials", "Business Supplies & Equipment",
	"Capital Markets", "Chemicals", "Civic & Social Organization", "Civil Engineering", "Commercial Real Estate",
	"Computer & Network Security", "Computer Games", "Computer Hardware", "Computer Networking", "Computer Software",
	"Construction", "Consumer Electronics", "Consumer Goods", "Consumer Services", "Cosmetics",
	"Dairy", "Defense & Space", "Design", "Education Management", "E-learning",
	"Electrical & Electronic Manufacturing", "Entertainment", "Environmental Services", "Events Services", "Executive Office",
	"Facilities Services", "Farming", "Financial Services", "Fine Art", "Fishery",
	"Food & Beverages", "Food Production", "Fundraising", "Furniture", "Gambling & Casinos",
	"Glass, Ceramics & Concrete", "Government Administration", "Government Relations", "Graphic Design", "Health, Wellness & Fitness",
	"Higher Education", "Hospital & Health Care", "Hospitality", "Human Resources", "Import & Export",
	"Individual & Family Services", "Industrial Automation", "Information Services", "Information Technology & Services", "Insurance",
	"International Affairs", "International Trade & Development", "Internet", "Investment Banking", "Investment Management",
	"Judiciary", "Law Enforcement", "Law Practice", "Legal Services", "Legislative Office",
	"Leisure, Travel & Tourism", "Libraries", "Logistics & Supply Chain", "Luxury Goods & Jewelry", "Machinery",
	"Management Consulting", "Maritime", "Marketing & Advertising", "Market Research", "Mechanical or Industrial Engineering",
	"Media Production", "Medical Devices", "Medical Practice", "Mental Health Care", "Military",
	"Mining & Metals", "Motion Pictures & Film", "Museums & Institutions", "Music", "Nanotechnology",
	"Newspapers", "Nonprofit Organization Management", "Oil & Energy", "Online Media", "Outsourcing/Offshoring",
	"Package/Freight Delivery", "Packaging & Containers", "Paper & Forest Products", "Performing Arts", "Pharmaceuticals",
	"Philanthropy", "Photography", "Plastics", "Political Organization", "Primary/Secondary Education",
	"Printing", "Professional Training & Coaching", "Program Development", "Public Policy", "Public Relations & Communications",
	"Public Safety", "Publishing", "Railroad Manufacture", "Ranching", "Real Estate",
	"Recreational Facilities & Services", "Religious Institutions", "Renewables & Environment", "Research", "Restaurants",
	"Retail", "Security & Investigations", "Semiconductors", "Shipbuilding", "Sporting Goods",
	"Sports", "Staffing & Recruiting", "Supermarkets", "Telecommunications", "Textiles",
	"Think Tanks", "Tobacco", "Translation & Localization", "Transportation/Trucking/Railroad", "Utilities",
	"Venture Capital & Private Equity", "Veterinary", "Warehousing", "Wholesale", "Wine & Spirits",
	"Wireless", "Writing & Editing",
}

// cutoffs are the minimum fuzzy-match scores, per dimension, for accepting
// a canonical value. Below the cutoff the raw value passes through to a
// free-text control instead.
var cutoffs = map[models.FilterDimension]int{
	models.DimensionSeniority:       80,
	models.DimensionFunction:        70,
	models.DimensionIndustry:        75,
	models.DimensionYearsExperience: 60,
}

// enumerationFor returns the canonical value list for a dimension, or nil
// for free-text dimensions (TITLE).
func enumerationFor(dimension models.FilterDimension) []string {
	switch dimension {
	case models.DimensionFunction:
		return Functions
	case models.DimensionSeniority:
		return SeniorityLevels
	case models.DimensionYearsExperience:
		return YearsOfExperience
	case models.DimensionIndustry:
		return Industries
	default:
		return nil
	}
}
