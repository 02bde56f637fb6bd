package domain

// Taxonomy bundles every keyword list and lookup table the scorers use.
// It is built once at startup (DefaultTaxonomy, optionally overridden from
// config) and passed into scorer constructors; scorers never reach into
// ambient state.
type Taxonomy struct {
	// Classification maps a category to the keywords that indicate it.
	Classification map[OrgType][]string

	// TypeRelevance is the base relevance score per organization type.
	TypeRelevance map[OrgType]float64

	// IndustryCriteria lists per-type bonus phrases for relevance scoring.
	IndustryCriteria map[OrgType][]string

	// DomainKeywords is the flat list of general SCADA-related keywords.
	DomainKeywords []string

	// Exclusions holds the competitor and irrelevant-sector lists.
	Exclusions ExclusionLists

	// TargetTitles lists per-type target job titles for contact scoring.
	TargetTitles map[OrgType][]string

	// TitleKeywords lists per-type role keywords (tier below exact/partial
	// title matches).
	TitleKeywords map[OrgType][]string

	// GenericTitleKeywords is the lowest keyword tier for title scoring.
	GenericTitleKeywords []string

	// Owners maps an outreach owner (sales email) to the org types they cover.
	Owners map[string][]OrgType
}

// ExclusionLists holds keyword lists that disqualify an organization.
type ExclusionLists struct {
	// Competitors immediately zero an organization's relevance.
	Competitors []string
	// IrrelevantSectors immediately zero an organization's relevance.
	IrrelevantSectors []string
	// ExclusionKeywords zero relevance only when two or more match; one
	// incidental hit is tolerated.
	ExclusionKeywords []string
}

// BaseRelevanceDefault is the base relevance for types absent from the
// TypeRelevance table.
const BaseRelevanceDefault = 0.4

// DefaultTaxonomy returns the built-in keyword taxonomy for SCADA
// integration prospecting.
func DefaultTaxonomy() *Taxonomy {
	return &Taxonomy{
		Classification: map[OrgType][]string{
			OrgTypeWater: {
				"water district", "water authority", "water department", "wastewater",
				"sewage", "water treatment", "water reclamation", "freshwater treatment",
				"potable water", "treatment plant", "water utility", "water quality",
				"water management", "public water", "water compliance", "water systems",
			},
			OrgTypeAgriculture: {
				"agriculture", "farm", "irrigation", "crop", "agricultural", "farming",
				"irrigation district", "water conservation", "precision agriculture",
				"agricultural water", "farm operations", "irrigation systems", "water resources",
			},
			OrgTypeHealthcare: {
				"hospital", "medical center", "healthcare facility", "medical facility",
				"patient care", "legionella", "water safety", "healthcare", "patient safety",
				"medical", "health system", "healthcare system", "healthcare services",
			},
			OrgTypeEmergency: {
				"emergency management", "critical infrastructure", "emergency operations",
				"public safety", "emergency response", "disaster management", "alerting system",
				"notification system", "emergency services", "emergency preparedness", "crisis management",
			},
			OrgTypeEngineering: {
				"engineering", "design", "consultant", "construction management",
				"technical services", "civil engineering", "electrical engineering",
			},
			OrgTypeMunicipal: {
				"city of", "town of", "village of", "municipal", "public works", "local government",
			},
			OrgTypeUtility: {
				"utility", "power", "electric", "gas", "energy", "distribution", "generation",
			},
			OrgTypeTransportation: {
				"transportation", "transit", "traffic", "rail", "airport", "highway",
			},
			OrgTypeOilGas: {
				"oil", "petroleum", "pipeline", "refinery", "drilling", "extraction",
			},
			OrgTypeGovernment: {
				"agency", "department", "bureau", "administration", "federal", "regulatory",
			},
		},
		TypeRelevance: map[OrgType]float64{
			OrgTypeWater:          0.8,
			OrgTypeAgriculture:    0.7,
			OrgTypeHealthcare:     0.8,
			OrgTypeEmergency:      0.7,
			OrgTypeEngineering:    0.6,
			OrgTypeGovernment:     0.5,
			OrgTypeMunicipal:      0.6,
			OrgTypeUtility:        0.7,
			OrgTypeTransportation: 0.5,
			OrgTypeOilGas:         0.6,
		},
		IndustryCriteria: map[OrgType][]string{
			OrgTypeWater: {
				"compliance monitoring", "regulatory requirements", "water quality control",
				"treatment process", "remote monitoring", "data logging", "epa compliance",
				"water safety", "chlorination", "water testing", "backflow prevention",
			},
			OrgTypeAgriculture: {
				"complex irrigation", "multiple water sources", "water conservation",
				"irrigation automation", "remote field monitoring", "precision agriculture",
				"water management", "crop monitoring", "soil moisture", "sprinkler control",
			},
			OrgTypeHealthcare: {
				"legionella", "legionella prevention", "water safety plan", "monitoring",
				"patient safety", "hospital compliance", "water management program",
				"temperature monitoring", "disinfection", "healthcare compliance",
			},
			OrgTypeEmergency: {
				"alerting system", "emergency response", "critical infrastructure",
				"public notification", "resilience planning", "backup systems",
				"emergency management", "critical operations", "alert notification",
			},
		},
		DomainKeywords: []string{
			"scada", "control system", "automation", "plc", "hmi", "industrial control",
			"instrumentation", "process control", "telemetry", "remote monitoring",
			"water treatment", "wastewater", "pump station", "rtu", "ics",
		},
		Exclusions: ExclusionLists{
			Competitors: []string{
				"scada integrator", "automation company", "control systems integrator",
				"industrial automation", "systems integrator", "automation integrator",
				"controls contractor", "automation contractor", "plc programming",
				"scada integration",
			},
			IrrelevantSectors: []string{
				"retail", "consumer goods", "technology", "software", "financial",
				"banking", "insurance", "education", "restaurant", "hospitality",
				"entertainment", "media", "marketing", "advertising",
			},
			ExclusionKeywords: []string{
				"automation systems", "controls systems", "industrial controls",
				"control system integration", "scada integration", "control systems",
				"plc integration", "hmi development", "automation solutions",
			},
		},
		TargetTitles: map[OrgType][]string{
			OrgTypeWater: {
				"Water Operations Manager", "Treatment Plant Director", "Plant Manager",
				"Operations Manager", "Water Quality Manager", "Compliance Manager",
				"Systems Manager", "Process Engineer", "Instrumentation Technician",
				"Chief Engineer", "Engineering Manager", "VP of Operations",
				"Director of Engineering", "Water Systems Director",
			},
			OrgTypeAgriculture: {
				"Irrigation Manager", "Farm Operations Director", "District Manager",
				"Operations Manager", "Irrigation System Manager", "Agricultural Engineer",
				"Farm Technology Manager", "Water Resources Manager",
			},
			OrgTypeHealthcare: {
				"Facilities Director", "Hospital Engineer", "Safety Officer",
				"Director of Plant Operations", "Maintenance Manager", "Compliance Officer",
				"Environmental Services Director", "Water Safety Manager",
			},
			OrgTypeEmergency: {
				"Emergency Manager", "Operations Director", "Critical Infrastructure Manager",
				"Public Safety Director", "Emergency Services Coordinator", "Disaster Response Manager",
				"Systems Administrator", "Technical Operations Manager",
			},
		},
		TitleKeywords: map[OrgType][]string{
			OrgTypeWater: {
				"water operations", "treatment", "plant", "compliance", "quality",
				"water systems", "utility", "operations", "water",
			},
			OrgTypeAgriculture: {
				"irrigation", "farm operations", "agricultural", "water resources",
				"field", "farm", "crop",
			},
			OrgTypeHealthcare: {
				"facilities", "engineering", "safety", "plant operations",
				"maintenance", "hospital", "environmental", "compliance",
			},
			OrgTypeEmergency: {
				"emergency", "operations", "critical", "public safety",
				"disaster", "response", "management", "systems",
			},
		},
		GenericTitleKeywords: []string{
			"manager", "director", "engineer", "supervisor", "chief",
			"head", "lead", "administrator", "coordinator",
			"scada", "control", "automation", "operations", "technical",
			"maintenance", "project", "systems", "technology",
		},
		Owners: map[string][]OrgType{
			"tim@gbl-data.com": {
				OrgTypeEngineering, OrgTypeGovernment, OrgTypeTransportation,
				OrgTypeOilGas, OrgTypeAgriculture,
			},
			"marc@gbl-data.com": {
				OrgTypeMunicipal, OrgTypeWater, OrgTypeUtility,
				OrgTypeHealthcare, OrgTypeEmergency,
			},
		},
	}
}

// OwnerFor returns the outreach owner responsible for an org type, or ""
// when no owner covers it.
func (t *Taxonomy) OwnerFor(orgType OrgType) string {
	for owner, types := range t.Owners {
		for _, covered := range types {
			if covered == orgType {
				return owner
			}
		}
	}
	return ""
}
