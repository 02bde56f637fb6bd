package domain

import "time"

// PageAnalysis is the stored analysis of one crawled URL belonging to an
// organization. The crawler (external to this service) writes these; the
// infrastructure reranker reads them.
type PageAnalysis struct {
	ID             int64     `db:"id"              json:"id"`
	OrganizationID int64     `db:"organization_id" json:"organization_id"`
	URL            string    `db:"url"             json:"url"`
	CrawledAt      time.Time `db:"crawled_at"      json:"crawled_at"`

	// ContainsInfrastructure flags pages mentioning physical infrastructure.
	ContainsInfrastructure bool `db:"contains_infrastructure" json:"contains_infrastructure"`

	// IndustryIndicators maps industry name to a 0.0-1.0 signal strength.
	IndustryIndicators IndicatorMap `db:"industry_indicators" json:"industry_indicators,omitempty"`

	// Projects lists projects described on the page.
	Projects ProjectList `db:"project_data" json:"project_data,omitempty"`
}

// ProjectData describes one project found on a crawled page.
type ProjectData struct {
	Title              string `json:"title"`
	ContainsAutomation bool   `json:"contains_automation"`
}
