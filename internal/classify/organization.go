package classify

import (
	"context"
	"strings"

	"github.com/gbl-data/leadpipe/internal/domain"
	"github.com/gbl-data/leadpipe/internal/logger"
	"github.com/gbl-data/leadpipe/internal/scoring"
	"github.com/gbl-data/leadpipe/internal/telemetry"
)

// OrganizationClassifier turns a raw discovery payload into a fully
// scored Organization ready for persistence.
type OrganizationClassifier struct {
	resolver  *ConfidenceResolver
	relevance *scoring.RelevanceScorer
	quality   *scoring.DataQualityScorer
	metrics   *telemetry.Metrics
	logger    logger.Logger
}

// NewOrganizationClassifier creates an organization classifier.
func NewOrganizationClassifier(resolver *ConfidenceResolver, relevance *scoring.RelevanceScorer, quality *scoring.DataQualityScorer, metrics *telemetry.Metrics, log logger.Logger) *OrganizationClassifier {
	return &OrganizationClassifier{
		resolver:  resolver,
		relevance: relevance,
		quality:   quality,
		metrics:   metrics,
		logger:    log,
	}
}

// Classify scores the input and returns a new Organization. Missing name
// and state are replaced with placeholder sentinels rather than rejected
// here; admission is the validation gate's call.
func (c *OrganizationClassifier) Classify(ctx context.Context, input domain.OrgInput) *domain.Organization {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = domain.PlaceholderOrgName
	}
	state := strings.TrimSpace(input.State)
	if state == "" {
		state = domain.PlaceholderState
	}

	website := strings.TrimSpace(input.Website)
	if website == "" {
		website = strings.TrimSpace(input.SourceURL)
	}

	resolution := c.resolver.Resolve(ctx, name, input.Description, input.WebsiteText)

	org := &domain.Organization{
		Name:            name,
		OrgType:         resolution.Category,
		Subtype:         resolution.Subtype,
		State:           state,
		City:            strings.TrimSpace(input.City),
		County:          strings.TrimSpace(input.County),
		Address:         strings.TrimSpace(input.Address),
		ZipCode:         strings.TrimSpace(input.ZipCode),
		Phone:           strings.TrimSpace(input.Phone),
		Website:         website,
		Description:     strings.TrimSpace(input.Description),
		SourceURL:       strings.TrimSpace(input.SourceURL),
		ConfidenceScore: resolution.Confidence,
	}

	combined := strings.Join([]string{org.Name, org.Description, org.Website}, " ")
	org.RelevanceScore = c.relevance.Score(org.OrgType, combined)
	org.DataQualityScore = c.quality.Score(org)

	c.metrics.RecordClassification(string(org.OrgType), resolution.UsedAI)
	c.logger.Debug("organization classified",
		logger.String("name", org.Name),
		logger.String("org_type", string(org.OrgType)),
		logger.Float64("confidence", org.ConfidenceScore),
		logger.Float64("relevance", org.RelevanceScore),
		logger.Bool("used_ai", resolution.UsedAI))
	return org
}
