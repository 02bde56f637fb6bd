package scoring

import (
	"strings"

	"github.com/cloudflare/ahocorasick"

	"github.com/gbl-data/leadpipe/internal/domain"
	"github.com/gbl-data/leadpipe/internal/logger"
)

// Bonus weights and caps for relevance scoring.
const (
	industryBonusPerMatch = 0.1
	industryBonusCap      = 0.4
	domainBonusPerMatch   = 0.05
	domainBonusCap        = 0.3

	// exclusionKeywordThreshold is how many generic exclusion keywords must
	// match before the organization is zeroed. One incidental hit is
	// tolerated; an end customer can legitimately mention "control systems"
	// once.
	exclusionKeywordThreshold = 2
)

// RelevanceScorer scores how relevant an organization is as a SCADA
// integration prospect. Hard exclusions (competitors, irrelevant sectors,
// repeated integrator vocabulary) zero the score before any bonus is
// considered.
type RelevanceScorer struct {
	taxonomy *domain.Taxonomy
	logger   logger.Logger

	competitors *ahocorasick.Matcher
	irrelevant  *ahocorasick.Matcher
	exclusions  *ahocorasick.Matcher
	industry    map[domain.OrgType]*ahocorasick.Matcher
	domainKw    *ahocorasick.Matcher
}

// NewRelevanceScorer builds the keyword matchers once at construction;
// scoring itself does no allocation beyond the match scans.
func NewRelevanceScorer(taxonomy *domain.Taxonomy, log logger.Logger) *RelevanceScorer {
	industry := make(map[domain.OrgType]*ahocorasick.Matcher, len(taxonomy.IndustryCriteria))
	for orgType, phrases := range taxonomy.IndustryCriteria {
		industry[orgType] = newMatcher(phrases)
	}

	return &RelevanceScorer{
		taxonomy:    taxonomy,
		logger:      log,
		competitors: newMatcher(taxonomy.Exclusions.Competitors),
		irrelevant:  newMatcher(taxonomy.Exclusions.IrrelevantSectors),
		exclusions:  newMatcher(taxonomy.Exclusions.ExclusionKeywords),
		industry:    industry,
		domainKw:    newMatcher(taxonomy.DomainKeywords),
	}
}

// Score returns the relevance score in [0, 1] for an organization of the
// given type, scanning the combined text of its name, description, and
// website.
func (s *RelevanceScorer) Score(orgType domain.OrgType, combinedText string) float64 {
	text := strings.ToLower(combinedText)

	if matchCount(s.competitors, text) > 0 {
		s.logger.Debug("relevance zeroed: competitor keyword",
			logger.String("org_type", string(orgType)))
		return 0.0
	}
	if matchCount(s.irrelevant, text) > 0 {
		s.logger.Debug("relevance zeroed: irrelevant sector keyword",
			logger.String("org_type", string(orgType)))
		return 0.0
	}
	if matchCount(s.exclusions, text) >= exclusionKeywordThreshold {
		s.logger.Debug("relevance zeroed: repeated exclusion keywords",
			logger.String("org_type", string(orgType)))
		return 0.0
	}

	score := s.baseRelevance(orgType)

	if matcher, ok := s.industry[orgType]; ok {
		bonus := industryBonusPerMatch * float64(matchCount(matcher, text))
		if bonus > industryBonusCap {
			bonus = industryBonusCap
		}
		score += bonus
	}

	domainBonus := domainBonusPerMatch * float64(matchCount(s.domainKw, text))
	if domainBonus > domainBonusCap {
		domainBonus = domainBonusCap
	}
	score += domainBonus

	if score > 1.0 {
		score = 1.0
	}
	return score
}

func (s *RelevanceScorer) baseRelevance(orgType domain.OrgType) float64 {
	if base, ok := s.taxonomy.TypeRelevance[orgType]; ok {
		return base
	}
	return domain.BaseRelevanceDefault
}

// newMatcher builds an Aho-Corasick matcher over lowercased patterns, or
// nil for an empty list.
func newMatcher(patterns []string) *ahocorasick.Matcher {
	if len(patterns) == 0 {
		return nil
	}
	lowered := make([]string, len(patterns))
	for i, p := range patterns {
		lowered[i] = strings.ToLower(p)
	}
	return ahocorasick.NewStringMatcher(lowered)
}

// matchCount returns how many distinct patterns hit in the text. Matcher
// hits are deduplicated per pattern, so a keyword repeated in the text
// counts once.
func matchCount(m *ahocorasick.Matcher, text string) int {
	if m == nil || text == "" {
		return 0
	}
	return len(m.Match([]byte(text)))
}
