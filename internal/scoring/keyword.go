// Package scoring implements the pure scoring functions of the lead
// pipeline: keyword category scoring, relevance scoring, data quality
// scoring, and contact title scoring.
package scoring

import (
	"strings"
	"unicode"

	"github.com/gbl-data/leadpipe/internal/domain"
	"github.com/gbl-data/leadpipe/internal/logger"
)

// Field weights for keyword classification. Keywords in the organization
// name carry the most signal; secondary source text (scraped website text)
// the least.
const (
	weightName        = 5.0
	weightDescription = 2.0
	weightSecondary   = 1.0
)

// fallbackConfidence is returned with the fallback category when no
// keyword matches at all. Nonzero so the record keeps moving through the
// pipeline instead of stalling on a zero-confidence classification.
const fallbackConfidence = 0.3

// KeywordScorer computes weighted keyword-match scores per category from
// an organization's text fields.
type KeywordScorer struct {
	taxonomy *domain.Taxonomy
	logger   logger.Logger
}

// NewKeywordScorer creates a keyword scorer over the given taxonomy.
func NewKeywordScorer(taxonomy *domain.Taxonomy, log logger.Logger) *KeywordScorer {
	return &KeywordScorer{taxonomy: taxonomy, logger: log}
}

// Score computes the raw keyword score for every category. A keyword that
// appears in multiple fields contributes once per field; repeats within a
// single field are not double-counted (containment, not frequency).
func (s *KeywordScorer) Score(name, description, secondary string) map[domain.OrgType]float64 {
	scores := make(map[domain.OrgType]float64, len(s.taxonomy.Classification))

	nameTokens := tokenize(name)
	descTokens := tokenize(description)
	secondaryTokens := tokenize(secondary)

	for category, keywords := range s.taxonomy.Classification {
		scores[category] = 0
		for _, keyword := range keywords {
			if nameTokens.contains(keyword) {
				scores[category] += weightName
			}
			if descTokens.contains(keyword) {
				scores[category] += weightDescription
			}
			if secondaryTokens.contains(keyword) {
				scores[category] += weightSecondary
			}
		}
	}

	return scores
}

// BestCategory selects the category with the highest score. Confidence is
// that score over the total across categories, capped at 1.0. With zero
// matches the fallback category is returned with a small nonzero
// confidence.
func (s *KeywordScorer) BestCategory(scores map[domain.OrgType]float64) (domain.OrgType, float64) {
	if len(scores) == 0 {
		return domain.FallbackOrgType, 0.0
	}

	var total float64
	for _, score := range scores {
		total += score
	}

	if total == 0 {
		s.logger.Debug("no keyword matches, using fallback category",
			logger.String("category", string(domain.FallbackOrgType)))
		return domain.FallbackOrgType, fallbackConfidence
	}

	best := domain.FallbackOrgType
	bestScore := -1.0
	for category, score := range scores {
		if score > bestScore || (score == bestScore && category < best) {
			best = category
			bestScore = score
		}
	}

	confidence := bestScore / total
	if confidence > 1.0 {
		confidence = 1.0
	}
	return best, confidence
}

// tokenSet holds the word-level tokens of one text field plus their
// space-joined form for phrase matching.
type tokenSet struct {
	words  map[string]bool
	joined string
}

func tokenize(text string) tokenSet {
	if text == "" {
		return tokenSet{}
	}

	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	words := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		words[tok] = true
	}

	return tokenSet{
		words:  words,
		joined: strings.Join(tokens, " "),
	}
}

// contains checks keyword containment: single-word keywords by token-set
// membership, multi-word phrases by substring search over the joined token
// sequence. Phrase matching across punctuation boundaries can miss; that
// fuzziness is accepted.
func (t tokenSet) contains(keyword string) bool {
	if len(t.words) == 0 {
		return false
	}

	keyword = strings.ToLower(keyword)
	if !strings.ContainsRune(keyword, ' ') {
		return t.words[keyword]
	}
	return strings.Contains(t.joined, keyword)
}
