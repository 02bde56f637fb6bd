package classify

import (
	"regexp"
	"strings"

	"github.com/gbl-data/leadpipe/internal/domain"
	"github.com/gbl-data/leadpipe/internal/logger"
	"github.com/gbl-data/leadpipe/internal/scoring"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidEmail reports whether the address is syntactically plausible.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}

// ContactClassifier scores a contact's title against its organization and
// assigns the outreach owner.
type ContactClassifier struct {
	titles   *scoring.ContactRelevanceScorer
	taxonomy *domain.Taxonomy
	logger   logger.Logger
}

// NewContactClassifier creates a contact classifier.
func NewContactClassifier(titles *scoring.ContactRelevanceScorer, taxonomy *domain.Taxonomy, log logger.Logger) *ContactClassifier {
	return &ContactClassifier{titles: titles, taxonomy: taxonomy, logger: log}
}

// Classify builds a Contact from the input for an organization of the
// given type. Email syntax is recorded, not enforced; the validation gate
// decides admission.
func (c *ContactClassifier) Classify(input domain.ContactInput, orgType domain.OrgType) *domain.Contact {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	contact := &domain.Contact{
		OrganizationID:        input.OrganizationID,
		FirstName:             strings.TrimSpace(input.FirstName),
		LastName:              strings.TrimSpace(input.LastName),
		JobTitle:              strings.TrimSpace(input.JobTitle),
		Email:                 email,
		Phone:                 strings.TrimSpace(input.Phone),
		Status:                domain.StatusNew,
		EmailValid:            ValidEmail(email),
		ContactRelevanceScore: c.titles.Score(input.JobTitle, orgType),
		AssignedTo:            c.taxonomy.OwnerFor(orgType),
	}

	c.logger.Debug("contact classified",
		logger.String("email", contact.Email),
		logger.Float64("title_relevance", contact.ContactRelevanceScore),
		logger.String("assigned_to", contact.AssignedTo))
	return contact
}
