// Package processor runs discovery batches through classification,
// validation, and persistence.
package processor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/time/rate"

	"github.com/gbl-data/leadpipe/internal/classify"
	"github.com/gbl-data/leadpipe/internal/database"
	"github.com/gbl-data/leadpipe/internal/domain"
	"github.com/gbl-data/leadpipe/internal/logger"
	"github.com/gbl-data/leadpipe/internal/validation"
)

// OrganizationStore is the persistence surface batch processing needs for
// organizations.
type OrganizationStore interface {
	GetByNameAndState(ctx context.Context, name, state string) (*domain.Organization, error)
	Create(ctx context.Context, org *domain.Organization) error
	Update(ctx context.Context, org *domain.Organization) error
}

// ContactStore is the persistence surface batch processing needs for
// contacts.
type ContactStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.Contact, error)
	Create(ctx context.Context, contact *domain.Contact) error
}

// DiscoveryRecord is one organization with its discovered contacts, as
// produced by the upstream discovery crawler.
type DiscoveryRecord struct {
	Organization domain.OrgInput       `json:"organization"`
	Contacts     []domain.ContactInput `json:"contacts"`
}

// BatchResult summarizes one batch run.
type BatchResult struct {
	OrganizationsCreated  int `json:"organizations_created"`
	OrganizationsUpdated  int `json:"organizations_updated"`
	OrganizationsRejected int `json:"organizations_rejected"`
	ContactsApproved      int `json:"contacts_approved"`
	ContactsRejected      int `json:"contacts_rejected"`
	ContactsSkipped       int `json:"contacts_skipped"`
	Failures              int `json:"failures"`
}

// Processor drives discovery records through the pipeline.
type Processor struct {
	orgs       OrganizationStore
	contacts   ContactStore
	classifier *classify.OrganizationClassifier
	contactCls *classify.ContactClassifier
	gate       *validation.Gate
	limiter    *rate.Limiter
	logger     logger.Logger
}

// New creates a processor. callRate limits outbound collaborator calls
// per second; zero or negative disables limiting.
func New(orgs OrganizationStore, contacts ContactStore, classifier *classify.OrganizationClassifier, contactCls *classify.ContactClassifier, gate *validation.Gate, callRate float64, log logger.Logger) *Processor {
	limit := rate.Inf
	if callRate > 0 {
		limit = rate.Limit(callRate)
	}
	return &Processor{
		orgs:       orgs,
		contacts:   contacts,
		classifier: classifier,
		contactCls: contactCls,
		gate:       gate,
		limiter:    rate.NewLimiter(limit, 1),
		logger:     log,
	}
}

// ProcessBatch runs every record through the pipeline. A failing record
// is counted and skipped; one bad record never aborts the batch. The
// returned error is reserved for batch-level failures such as context
// cancellation.
func (p *Processor) ProcessBatch(ctx context.Context, records []DiscoveryRecord) (*BatchResult, error) {
	hurdles := p.gate.CurrentHurdles(ctx)
	result := &BatchResult{}

	// Discovery batches often repeat an organization across records; the
	// cache keeps each one to a single lookup per batch.
	cache := make(map[string]*domain.Organization)

	for i := range records {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("batch aborted at record %d: %w", i, err)
		}
		if err := p.processRecord(ctx, &records[i], hurdles, cache, result); err != nil {
			result.Failures++
			p.logger.Error("record failed, continuing batch",
				logger.Int("record", i),
				logger.String("organization", records[i].Organization.Name),
				logger.Error(err))
		}
	}

	p.logger.Info("batch processed",
		logger.Int("records", len(records)),
		logger.Int("orgs_created", result.OrganizationsCreated),
		logger.Int("contacts_approved", result.ContactsApproved),
		logger.Int("contacts_rejected", result.ContactsRejected),
		logger.Int("failures", result.Failures))
	return result, nil
}

func (p *Processor) processRecord(ctx context.Context, record *DiscoveryRecord, hurdles validation.Hurdles, cache map[string]*domain.Organization, result *BatchResult) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	classified := p.classifier.Classify(ctx, record.Organization)

	org, err := p.upsertOrganization(ctx, classified, cache, result)
	if err != nil {
		return err
	}
	if org == nil {
		// Rejected by the gate; its contacts have nothing to attach to.
		return nil
	}

	for i := range record.Contacts {
		record.Contacts[i].OrganizationID = org.ID
		if err := p.processContact(ctx, record.Contacts[i], org, hurdles, result); err != nil {
			result.Failures++
			p.logger.Error("contact failed, continuing batch",
				logger.String("email", record.Contacts[i].Email),
				logger.Error(err))
		}
	}
	return nil
}

// upsertOrganization creates the organization, or refreshes an existing
// row matched by (name, state). Existing rows keep their identity and
// infrastructure scores; text fields and classification scores refresh
// from the newer discovery data. Returns nil when the gate rejects the
// organization.
func (p *Processor) upsertOrganization(ctx context.Context, classified *domain.Organization, cache map[string]*domain.Organization, result *BatchResult) (*domain.Organization, error) {
	key := strings.ToLower(classified.Name) + "|" + strings.ToLower(classified.State)

	existing, cached := cache[key]
	if !cached {
		var err error
		existing, err = p.orgs.GetByNameAndState(ctx, classified.Name, classified.State)
		if errors.Is(err, database.ErrNotFound) {
			if decision := p.gate.CheckOrganization(classified); !decision.Approved() {
				result.OrganizationsRejected++
				return nil, nil
			}
			if err := p.orgs.Create(ctx, classified); err != nil {
				return nil, err
			}
			result.OrganizationsCreated++
			cache[key] = classified
			return classified, nil
		}
		if err != nil {
			return nil, fmt.Errorf("organization lookup: %w", err)
		}
	}

	changed := false
	if classified.Website != "" && classified.Website != existing.Website {
		// Identity carries the name, so the website is the only change that
		// needs revalidation before it is accepted.
		candidate := *existing
		candidate.Website = classified.Website
		if p.gate.CheckOrganization(&candidate).Approved() {
			existing.Website = classified.Website
			changed = true
		} else {
			result.OrganizationsRejected++
		}
	}
	if len(classified.Description) > len(existing.Description) {
		existing.Description = classified.Description
		changed = true
	}
	if classified.ConfidenceScore > existing.ConfidenceScore {
		existing.OrgType = classified.OrgType
		existing.Subtype = classified.Subtype
		existing.ConfidenceScore = classified.ConfidenceScore
		existing.RelevanceScore = classified.RelevanceScore
		changed = true
	}

	if changed {
		if err := p.orgs.Update(ctx, existing); err != nil {
			return nil, err
		}
		result.OrganizationsUpdated++
		p.gate.RecordOrganizationImproved()
	}
	cache[key] = existing
	return existing, nil
}

func (p *Processor) processContact(ctx context.Context, input domain.ContactInput, org *domain.Organization, hurdles validation.Hurdles, result *BatchResult) error {
	if _, err := p.contacts.GetByEmail(ctx, input.Email); err == nil {
		// Already known; deduplication owns reconciling repeat discoveries.
		result.ContactsSkipped++
		return nil
	}

	contact := p.contactCls.Classify(input, org.OrgType)
	contact.ContactConfidenceScore = input.Confidence

	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	decision := p.gate.Check(ctx, contact, hurdles)
	if !decision.Approved() {
		result.ContactsRejected++
		return nil
	}

	if decision.Outcome == domain.OutcomeApprovedNoName {
		contact.Notes = appendNote(contact.Notes, "Approved without person name")
	}
	if err := p.contacts.Create(ctx, contact); err != nil {
		return err
	}
	result.ContactsApproved++
	return nil
}

func appendNote(notes, note string) string {
	if notes == "" {
		return note
	}
	return notes + "; " + note
}
