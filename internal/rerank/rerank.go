// Package rerank rescores organizations using crawled page evidence.
// Where the initial relevance score works from self-described text, the
// reranker works from what the organization's website actually shows:
// infrastructure pages, process descriptions, and automation mentions.
package rerank

import (
	"sort"

	"github.com/gbl-data/leadpipe/internal/domain"
	"github.com/gbl-data/leadpipe/internal/logger"
)

// Formula constants. The blend weight deliberately favors page evidence
// over the text-based score once pages exist.
const (
	infraMatchDivisor   = 10.0
	processMatchDivisor = 8.0

	// automationDefault is assumed when no project data exists.
	automationDefault = 0.3

	competitorPenaltyPerIndicator = 0.2
	competitorPenaltyCap          = 0.9

	// competitorRelevanceCap is the ceiling on relevance for any flagged
	// competitor, whatever the page evidence says.
	competitorRelevanceCap = 0.1

	integrationInfraWeight   = 0.4
	integrationProcessWeight = 0.3
	integrationManualWeight  = 0.3

	blendOldWeight = 0.2
	blendNewWeight = 0.8
)

// Scores is the full reranker output for one organization.
type Scores struct {
	Infrastructure         float64
	ProcessComplexity      float64
	AutomationLevel        float64
	IntegrationOpportunity float64
	Relevance              float64
	IsCompetitor           bool
}

// Reranker computes integration opportunity scores from page analyses.
type Reranker struct {
	logger logger.Logger
}

// New creates a reranker.
func New(log logger.Logger) *Reranker {
	return &Reranker{logger: log}
}

// Rerank computes new scores for one organization from its crawled pages.
// The computation is pure; nothing is written back until Apply.
func (r *Reranker) Rerank(org *domain.Organization, pages []domain.PageAnalysis) Scores {
	infraPages := 0
	automatedProjects := 0
	totalProjects := 0
	for _, page := range pages {
		if page.ContainsInfrastructure {
			infraPages++
		}
		for _, project := range page.Projects {
			totalProjects++
			if project.ContainsAutomation {
				automatedProjects++
			}
		}
	}

	// The stored flag is sticky: an organization already marked as a
	// competitor stays one even when the extended data carries no
	// competitor section.
	var infraMatches, processMatches, competitorIndicators []string
	isCompetitor := org.IsCompetitor
	if ind := org.ExtendedData.InfrastructureIndicators; ind != nil {
		infraMatches = ind.InfrastructureMatches
		processMatches = ind.ProcessMatches
	}
	if comp := org.ExtendedData.CompetitorAnalysis; comp != nil {
		competitorIndicators = comp.CompetitorIndicators
		isCompetitor = isCompetitor || comp.IsLikelyCompetitor
	}

	totalPages := len(pages)
	if totalPages < 1 {
		totalPages = 1
	}
	infraScore := float64(infraPages)/float64(totalPages) + float64(len(infraMatches))/infraMatchDivisor
	if infraScore > 1.0 {
		infraScore = 1.0
	}

	processScore := float64(len(processMatches)) / processMatchDivisor
	if processScore > 1.0 {
		processScore = 1.0
	}

	automation := automationDefault
	if totalProjects > 0 {
		automation = float64(automatedProjects) / float64(totalProjects)
	}

	var penalty float64
	if isCompetitor {
		penalty = competitorPenaltyPerIndicator * float64(len(competitorIndicators))
		if penalty > competitorPenaltyCap {
			penalty = competitorPenaltyCap
		}
	}

	// Low automation is the opportunity: manual operations are the ones a
	// SCADA integration sells into.
	integration := integrationInfraWeight*infraScore +
		integrationProcessWeight*processScore +
		integrationManualWeight*(1.0-automation) -
		penalty
	if integration < 0 {
		integration = 0
	}

	relevance := blendOldWeight*org.RelevanceScore + blendNewWeight*integration
	if isCompetitor && relevance > competitorRelevanceCap {
		relevance = competitorRelevanceCap
	}

	return Scores{
		Infrastructure:         infraScore,
		ProcessComplexity:      processScore,
		AutomationLevel:        automation,
		IntegrationOpportunity: integration,
		Relevance:              relevance,
		IsCompetitor:           isCompetitor,
	}
}

// Ranked pairs an organization with its reranked scores.
type Ranked struct {
	Organization *domain.Organization
	Scores       Scores
}

// RerankAll scores every organization and returns the non-competitors
// sorted by integration opportunity, best first. Competitors are scored
// but excluded from the ranking.
func (r *Reranker) RerankAll(orgs []*domain.Organization, pagesByOrg map[int64][]domain.PageAnalysis) []Ranked {
	ranked := make([]Ranked, 0, len(orgs))
	for _, org := range orgs {
		scores := r.Rerank(org, pagesByOrg[org.ID])
		if scores.IsCompetitor {
			r.logger.Debug("excluding competitor from ranking",
				logger.Int64("organization_id", org.ID),
				logger.String("name", org.Name))
			continue
		}
		ranked = append(ranked, Ranked{Organization: org, Scores: scores})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Scores.IntegrationOpportunity > ranked[j].Scores.IntegrationOpportunity
	})
	return ranked
}

// Apply writes the scores back onto the organization.
func Apply(org *domain.Organization, scores Scores) {
	org.InfrastructureScore = scores.Infrastructure
	org.ProcessComplexityScore = scores.ProcessComplexity
	org.AutomationLevel = scores.AutomationLevel
	org.IntegrationOpportunityScore = scores.IntegrationOpportunity
	org.RelevanceScore = scores.Relevance
	org.IsCompetitor = scores.IsCompetitor
}
