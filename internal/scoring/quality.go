package scoring

import "github.com/gbl-data/leadpipe/internal/domain"

// Field tier weights for data quality scoring. Each tier is normalized by
// its own field count, so a fully populated tier contributes exactly its
// weight. The denominator is the sum of the tier weights.
const (
	essentialWeight = 1.0
	importantWeight = 0.5
	helpfulWeight   = 0.25

	qualityDenominator = essentialWeight + importantWeight + helpfulWeight
)

// DataQualityScorer scores how completely an organization record is
// populated, independent of what the field values say.
type DataQualityScorer struct{}

// NewDataQualityScorer creates a data quality scorer.
func NewDataQualityScorer() *DataQualityScorer {
	return &DataQualityScorer{}
}

// Score returns the completeness score in [0, 1] for the organization.
func (s *DataQualityScorer) Score(org *domain.Organization) float64 {
	essential := []string{org.Name, string(org.OrgType), org.State}
	important := []string{org.Website, org.City, org.Description}
	helpful := []string{org.Phone, org.Address, org.ZipCode, org.County}

	score := tierScore(essential, essentialWeight) +
		tierScore(important, importantWeight) +
		tierScore(helpful, helpfulWeight)

	score /= qualityDenominator
	if score > 1.0 {
		score = 1.0
	}
	return score
}

func tierScore(fields []string, weight float64) float64 {
	var sum float64
	for _, f := range fields {
		if f != "" {
			sum += weight
		}
	}
	return sum / float64(len(fields))
}
