package scoring

import (
	"strings"

	"github.com/gbl-data/leadpipe/internal/domain"
)

// Tier scores for contact title relevance. Tiers are checked top down and
// the first match wins; scores are never averaged.
const (
	titleExactScore     = 1.0
	titlePartialScore   = 0.8
	titleKeywordScore   = 0.7
	titleGenericScore   = 0.5
	titleNoTargetsScore = 0.3
	titleFloorScore     = 0.2
)

// ContactRelevanceScorer scores a contact's job title against the target
// titles for the contact's organization type.
type ContactRelevanceScorer struct {
	taxonomy *domain.Taxonomy
}

// NewContactRelevanceScorer creates a contact title scorer.
func NewContactRelevanceScorer(taxonomy *domain.Taxonomy) *ContactRelevanceScorer {
	return &ContactRelevanceScorer{taxonomy: taxonomy}
}

// Score returns the title relevance in [0.2, 1.0]. An org type with no
// configured target titles scores 0.3, which is distinct from the 0.2
// floor for a title that matched nothing.
func (s *ContactRelevanceScorer) Score(jobTitle string, orgType domain.OrgType) float64 {
	title := strings.ToLower(strings.TrimSpace(jobTitle))
	targets := s.taxonomy.TargetTitles[orgType]

	for _, target := range targets {
		if title == strings.ToLower(target) {
			return titleExactScore
		}
	}

	if title != "" {
		for _, target := range targets {
			lowered := strings.ToLower(target)
			if strings.Contains(title, lowered) || strings.Contains(lowered, title) {
				return titlePartialScore
			}
		}

		for _, keyword := range s.taxonomy.TitleKeywords[orgType] {
			if strings.Contains(title, strings.ToLower(keyword)) {
				return titleKeywordScore
			}
		}

		for _, keyword := range s.taxonomy.GenericTitleKeywords {
			if strings.Contains(title, strings.ToLower(keyword)) {
				return titleGenericScore
			}
		}
	}

	if len(targets) == 0 {
		return titleNoTargetsScore
	}
	return titleFloorScore
}
