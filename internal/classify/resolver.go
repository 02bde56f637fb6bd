// Package classify orchestrates keyword scoring and the AI classifier
// into final organization and contact classifications.
package classify

import (
	"context"

	"github.com/gbl-data/leadpipe/internal/aiclient"
	"github.com/gbl-data/leadpipe/internal/domain"
	"github.com/gbl-data/leadpipe/internal/logger"
	"github.com/gbl-data/leadpipe/internal/scoring"
)

// AIClassifier is the slice of the AI client the resolver needs.
type AIClassifier interface {
	Classify(ctx context.Context, name, description, secondaryText string) (*aiclient.Classification, error)
}

// Resolution is the merged classification verdict.
type Resolution struct {
	Category   domain.OrgType
	Confidence float64
	Subtype    string
	// UsedAI reports whether the AI classifier was consulted.
	UsedAI bool
}

// ConfidenceResolver merges keyword and AI classifications. The keyword
// scorer always runs; the AI is consulted only below the confidence
// threshold, and its answer wins only when it is more confident than the
// keywords. The final confidence is the max of the two, so consulting the
// AI can never lower a classification's confidence.
type ConfidenceResolver struct {
	keywords  *scoring.KeywordScorer
	ai        AIClassifier
	threshold float64
	logger    logger.Logger
}

// NewConfidenceResolver creates a resolver. ai may be nil, in which case
// classification is keyword-only.
func NewConfidenceResolver(keywords *scoring.KeywordScorer, ai AIClassifier, threshold float64, log logger.Logger) *ConfidenceResolver {
	return &ConfidenceResolver{
		keywords:  keywords,
		ai:        ai,
		threshold: threshold,
		logger:    log,
	}
}

// Resolve classifies the organization text.
func (r *ConfidenceResolver) Resolve(ctx context.Context, name, description, secondaryText string) Resolution {
	scores := r.keywords.Score(name, description, secondaryText)
	category, keywordConf := r.keywords.BestCategory(scores)

	resolution := Resolution{
		Category:   category,
		Confidence: keywordConf,
	}

	if keywordConf >= r.threshold || r.ai == nil {
		return resolution
	}

	aiResult, err := r.ai.Classify(ctx, name, description, secondaryText)
	if err != nil {
		// AI failures are never fatal to classification.
		r.logger.Warn("ai classification failed, keeping keyword result",
			logger.String("organization", name),
			logger.Error(err))
		return resolution
	}

	resolution.UsedAI = true
	if aiResult.Confidence > keywordConf {
		resolution.Category = domain.OrgType(aiResult.Category)
		resolution.Subtype = aiResult.Subtype
	}
	if aiResult.Confidence > resolution.Confidence {
		resolution.Confidence = aiResult.Confidence
	}
	return resolution
}
