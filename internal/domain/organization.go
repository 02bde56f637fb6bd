// Package domain defines the core data types shared across the lead pipeline.
package domain

import "time"

// OrgType is the business-sector classification of an organization.
type OrgType string

// Known organization types.
const (
	OrgTypeEngineering    OrgType = "engineering"
	OrgTypeGovernment     OrgType = "government"
	OrgTypeMunicipal      OrgType = "municipal"
	OrgTypeWater          OrgType = "water"
	OrgTypeUtility        OrgType = "utility"
	OrgTypeTransportation OrgType = "transportation"
	OrgTypeOilGas         OrgType = "oil_gas"
	OrgTypeAgriculture    OrgType = "agriculture"
	OrgTypeHealthcare     OrgType = "healthcare"
	OrgTypeEmergency      OrgType = "emergency"
)

// FallbackOrgType is assigned when classification produces a category
// outside the known taxonomy.
const FallbackOrgType = OrgTypeEngineering

// PlaceholderOrgName is used when discovery produced no organization name.
const PlaceholderOrgName = "Unknown Organization"

// PlaceholderState is used when discovery produced no state.
const PlaceholderState = "Unknown"

// MergedRelevanceSentinel marks an organization merged away during
// deduplication. The row is kept for referential history; its relevance
// score is set to this value instead of deleting it.
const MergedRelevanceSentinel = -1.0

// KnownOrgTypes lists every valid organization type.
var KnownOrgTypes = []OrgType{
	OrgTypeEngineering,
	OrgTypeGovernment,
	OrgTypeMunicipal,
	OrgTypeWater,
	OrgTypeUtility,
	OrgTypeTransportation,
	OrgTypeOilGas,
	OrgTypeAgriculture,
	OrgTypeHealthcare,
	OrgTypeEmergency,
}

// IsKnownOrgType reports whether t belongs to the fixed taxonomy.
func IsKnownOrgType(t OrgType) bool {
	for _, known := range KnownOrgTypes {
		if t == known {
			return true
		}
	}
	return false
}

// OrgInput is the raw discovery payload for an organization before
// classification. Text fields feed the scorers; everything else is carried
// through to the persisted record.
type OrgInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	WebsiteText string `json:"website_text"`
	Website     string `json:"website"`
	SourceURL   string `json:"source_url"`
	State       string `json:"state"`
	City        string `json:"city"`
	County      string `json:"county"`
	ZipCode     string `json:"zip_code"`
	Address     string `json:"address"`
	Phone       string `json:"phone"`
}

// Organization is a persisted sales prospect. Identity for duplicate
// matching is (name, state); the database ID is the reference key.
type Organization struct {
	ID          int64     `db:"id"           json:"id"`
	Name        string    `db:"name"         json:"name"`
	OrgType     OrgType   `db:"org_type"     json:"org_type"`
	Subtype     string    `db:"subtype"      json:"subtype"`
	Website     string    `db:"website"      json:"website"`
	Address     string    `db:"address"      json:"address"`
	City        string    `db:"city"         json:"city"`
	State       string    `db:"state"        json:"state"`
	ZipCode     string    `db:"zip_code"     json:"zip_code"`
	County      string    `db:"county"       json:"county"`
	Phone       string    `db:"phone"        json:"phone"`
	Description string    `db:"description"  json:"description"`
	SourceURL   string    `db:"source_url"   json:"source_url"`
	DateAdded   time.Time `db:"date_added"   json:"date_added"`
	LastUpdated time.Time `db:"last_updated" json:"last_updated"`

	// Classification scores, all 0.0-1.0.
	ConfidenceScore  float64 `db:"confidence_score"   json:"confidence_score"`
	RelevanceScore   float64 `db:"relevance_score"    json:"relevance_score"`
	DataQualityScore float64 `db:"data_quality_score" json:"data_quality_score"`

	// Infrastructure analysis scores, all 0.0-1.0.
	InfrastructureScore         float64 `db:"infrastructure_score"          json:"infrastructure_score"`
	ProcessComplexityScore      float64 `db:"process_complexity_score"      json:"process_complexity_score"`
	AutomationLevel             float64 `db:"automation_level"              json:"automation_level"`
	IntegrationOpportunityScore float64 `db:"integration_opportunity_score" json:"integration_opportunity_score"`
	IsCompetitor                bool    `db:"is_competitor"                 json:"is_competitor"`

	// ExtendedData holds structured sub-analyses keyed by section.
	ExtendedData ExtendedData `db:"extended_data" json:"extended_data"`
}

// Merged reports whether this organization was merged into another one.
func (o *Organization) Merged() bool {
	return o.RelevanceScore < 0
}

// ExtendedData is the free-form analysis blob stored with an organization.
type ExtendedData struct {
	InfrastructureIndicators *InfrastructureIndicators `json:"infrastructure_indicators,omitempty"`
	CompetitorAnalysis       *CompetitorAnalysis       `json:"competitor_analysis,omitempty"`
}

// InfrastructureIndicators holds precomputed keyword matches from crawled pages.
type InfrastructureIndicators struct {
	InfrastructureMatches []string `json:"infrastructure_matches"`
	ProcessMatches        []string `json:"process_matches"`
}

// CompetitorAnalysis holds competitor signals extracted from crawled pages.
type CompetitorAnalysis struct {
	CompetitorIndicators []string `json:"competitor_indicators"`
	IsLikelyCompetitor   bool     `json:"is_likely_competitor"`
}
