// Package validation implements the admission gate for discovered
// contacts. Every contact passes through the gate before it is persisted;
// the gate's decision and reason are what sales staff see when auditing
// why a lead was or was not admitted.
package validation

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/gbl-data/leadpipe/internal/aiclient"
	"github.com/gbl-data/leadpipe/internal/config"
	"github.com/gbl-data/leadpipe/internal/database"
	"github.com/gbl-data/leadpipe/internal/domain"
	"github.com/gbl-data/leadpipe/internal/logger"
	"github.com/gbl-data/leadpipe/internal/search"
	"github.com/gbl-data/leadpipe/internal/telemetry"
)

// OrganizationSource resolves the organization a contact claims to belong to.
type OrganizationSource interface {
	GetByID(ctx context.Context, id int64) (*domain.Organization, error)
}

// ContactValidator judges whether a contact's email matches the claimed
// person and organization.
type ContactValidator interface {
	Validate(ctx context.Context, req aiclient.ValidationRequest) (*aiclient.ValidationResult, error)
}

// HurdleStore reads runtime-tunable confidence hurdles.
type HurdleStore interface {
	GetFloat(ctx context.Context, key string, fallback float64) float64
}

// Hurdles are the admission thresholds for one validation run.
type Hurdles struct {
	Org  float64
	Name float64
}

// Stats is a snapshot of gate activity since startup.
type Stats struct {
	ContactsValidated int64 `json:"contacts_validated"`
	ContactsApproved  int64 `json:"contacts_approved"`
	ApprovedNoName    int64 `json:"approved_no_name"`
	ContactsRejected  int64 `json:"contacts_rejected"`
	OrgsValidated     int64 `json:"orgs_validated"`
	OrgsRejected      int64 `json:"orgs_rejected"`
	OrgsImproved      int64 `json:"orgs_improved"`
}

// Gate validates contacts before persistence.
type Gate struct {
	orgs      OrganizationSource
	validator ContactValidator
	searcher  search.Provider
	settings  HurdleStore
	config    config.ValidationConfig
	metrics   *telemetry.Metrics
	logger    logger.Logger

	checked        atomic.Int64
	approved       atomic.Int64
	approvedNoName atomic.Int64
	rejected       atomic.Int64
	orgsValidated  atomic.Int64
	orgsRejected   atomic.Int64
	orgsImproved   atomic.Int64
}

// New creates a validation gate. searcher and settings may be nil;
// validator may be nil only when validation is disabled upstream.
func New(orgs OrganizationSource, validator ContactValidator, searcher search.Provider, settings HurdleStore, cfg config.ValidationConfig, metrics *telemetry.Metrics, log logger.Logger) *Gate {
	return &Gate{
		orgs:      orgs,
		validator: validator,
		searcher:  searcher,
		settings:  settings,
		config:    cfg,
		metrics:   metrics,
		logger:    log,
	}
}

// CurrentHurdles reads the admission thresholds, falling back to
// configuration when the settings store has no row. Read once per run so
// a mid-run settings change cannot split one batch across two policies.
func (g *Gate) CurrentHurdles(ctx context.Context) Hurdles {
	hurdles := Hurdles{
		Org:  g.config.OrgConfidenceHurdle,
		Name: g.config.NameConfidenceHurdle,
	}
	if g.settings != nil {
		hurdles.Org = g.settings.GetFloat(ctx, database.SettingOrgHurdle, hurdles.Org)
		hurdles.Name = g.settings.GetFloat(ctx, database.SettingNameHurdle, hurdles.Name)
	}
	return hurdles
}

// Check validates one contact against the hurdles. The identity and
// excluded-domain rejections happen before any collaborator call; a
// contact with no email must cost nothing.
func (g *Gate) Check(ctx context.Context, contact *domain.Contact, hurdles Hurdles) domain.ValidationDecision {
	decision := g.check(ctx, contact, hurdles)
	g.metrics.RecordValidation(string(decision.Outcome))

	g.checked.Add(1)
	switch decision.Outcome {
	case domain.OutcomeApproved:
		g.approved.Add(1)
	case domain.OutcomeApprovedNoName:
		g.approvedNoName.Add(1)
	case domain.OutcomeRejected:
		g.rejected.Add(1)
	}

	if decision.Outcome == domain.OutcomeRejected {
		g.logger.Info("contact rejected",
			logger.String("email", contact.Email),
			logger.String("reason", decision.Reason))
	}
	return decision
}

// Stats reports how many contacts and organizations the gate has checked
// and with what outcomes since the service started.
func (g *Gate) Stats() Stats {
	return Stats{
		ContactsValidated: g.checked.Load(),
		ContactsApproved:  g.approved.Load(),
		ApprovedNoName:    g.approvedNoName.Load(),
		ContactsRejected:  g.rejected.Load(),
		OrgsValidated:     g.orgsValidated.Load(),
		OrgsRejected:      g.orgsRejected.Load(),
		OrgsImproved:      g.orgsImproved.Load(),
	}
}

// CheckOrganization validates an organization before it is created or
// before a changed name or website is accepted. The checks are structural
// and cost no collaborator calls.
func (g *Gate) CheckOrganization(org *domain.Organization) domain.ValidationDecision {
	decision := g.checkOrganization(org)
	g.orgsValidated.Add(1)
	if decision.Outcome == domain.OutcomeRejected {
		g.orgsRejected.Add(1)
		g.logger.Info("organization rejected",
			logger.String("name", org.Name),
			logger.String("reason", decision.Reason))
	}
	return decision
}

func (g *Gate) checkOrganization(org *domain.Organization) domain.ValidationDecision {
	name := strings.TrimSpace(org.Name)
	if name == "" || name == domain.PlaceholderOrgName {
		return reject("Missing organization name")
	}

	website := strings.ToLower(strings.TrimSpace(org.Website))
	website = strings.TrimRight(website, "/")
	for _, suffix := range g.config.ExcludedDomainSuffixes {
		if website != "" && strings.HasSuffix(website, strings.ToLower(suffix)) {
			return reject(fmt.Sprintf("Excluded website domain (%s)", suffix))
		}
	}

	if g.config.EnforceTargetStates && !g.stateTargeted(org.State) {
		return reject(fmt.Sprintf("Organization state not targeted (%s)", org.State))
	}

	return domain.ValidationDecision{
		Outcome: domain.OutcomeApproved,
		Reason:  "Organization data valid",
	}
}

// RecordOrganizationImproved counts a stored organization whose data got
// better from a later discovery.
func (g *Gate) RecordOrganizationImproved() {
	g.orgsImproved.Add(1)
}

func (g *Gate) check(ctx context.Context, contact *domain.Contact, hurdles Hurdles) domain.ValidationDecision {
	email := strings.ToLower(strings.TrimSpace(contact.Email))

	if email == "" {
		return reject("Missing email address")
	}
	if contact.OrganizationID == 0 {
		return reject("Missing organization")
	}
	for _, suffix := range g.config.ExcludedDomainSuffixes {
		if strings.HasSuffix(email, strings.ToLower(suffix)) {
			return reject(fmt.Sprintf("Excluded email domain (%s)", suffix))
		}
	}

	if contact.ContactConfidenceScore > g.config.HighConfidenceSkip {
		return g.approve(contact, domain.ValidationDecision{
			Reason:        fmt.Sprintf("High confidence (%.2f), validation skipped", contact.ContactConfidenceScore),
			OrgConfidence: contact.ContactConfidenceScore,
		})
	}

	org, err := g.orgs.GetByID(ctx, contact.OrganizationID)
	if err != nil {
		return reject(fmt.Sprintf("Organization %d not found", contact.OrganizationID))
	}

	if g.config.EnforceTargetStates && !g.stateTargeted(org.State) {
		return reject(fmt.Sprintf("Organization state not targeted (%s)", org.State))
	}

	snippets := g.searchDomainEvidence(ctx, email)

	result, err := g.validator.Validate(ctx, aiclient.ValidationRequest{
		Email:            email,
		FirstName:        contact.FirstName,
		LastName:         contact.LastName,
		JobTitle:         contact.JobTitle,
		OrganizationName: org.Name,
		OrganizationType: string(org.OrgType),
		Website:          org.Website,
		Description:      org.Description,
		State:            org.State,
		SearchSnippets:   snippets,
	})
	if err != nil {
		// The validator failing is a property of this record's run, not of
		// the batch; reject this one and let the batch continue.
		g.metrics.RecordExternalCall("validator", "error")
		g.logger.Error("contact validation failed",
			logger.String("email", email),
			logger.Error(err))
		return reject("Validation service error: " + err.Error())
	}
	g.metrics.RecordExternalCall("validator", "ok")

	decision := domain.ValidationDecision{
		OrgConfidence:  result.OrgConfidence,
		NameConfidence: result.NameConfidence,
	}

	if result.OrgConfidence < hurdles.Org {
		decision.Outcome = domain.OutcomeRejected
		decision.Reason = fmt.Sprintf("Low org confidence (%.2f, hurdle %.2f)", result.OrgConfidence, hurdles.Org)
		return decision
	}
	if result.NameConfidence != nil && *result.NameConfidence < hurdles.Name {
		decision.Outcome = domain.OutcomeRejected
		decision.Reason = fmt.Sprintf("Low name confidence (%.2f, hurdle %.2f)", *result.NameConfidence, hurdles.Name)
		return decision
	}

	return g.approve(contact, decision)
}

// approve tags the no-name variant when the organization passed but there
// is no person name to address; downstream uses the organization-level
// email template for those.
func (g *Gate) approve(contact *domain.Contact, decision domain.ValidationDecision) domain.ValidationDecision {
	decision.Outcome = domain.OutcomeApproved
	if decision.NameConfidence == nil && strings.TrimSpace(contact.FirstName) == "" {
		decision.Outcome = domain.OutcomeApprovedNoName
	}
	if decision.Reason == "" {
		decision.Reason = fmt.Sprintf("Org confidence %.2f", decision.OrgConfidence)
	}
	return decision
}

// searchDomainEvidence gathers search snippets for the email domain.
// Search failures are non-fatal; the validator just sees fewer snippets.
func (g *Gate) searchDomainEvidence(ctx context.Context, email string) []string {
	if g.searcher == nil {
		return nil
	}
	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		return nil
	}

	results, err := g.searcher.Search(ctx, search.DomainQuery(email[at+1:]))
	if err != nil {
		g.metrics.RecordExternalCall("search", "error")
		g.logger.Warn("domain search failed, validating without snippets",
			logger.String("email", email),
			logger.Error(err))
		return nil
	}
	g.metrics.RecordExternalCall("search", "ok")

	snippets := make([]string, 0, len(results))
	for _, r := range results {
		snippets = append(snippets, r.Snippet)
	}
	return snippets
}

func (g *Gate) stateTargeted(state string) bool {
	for _, target := range g.config.TargetStates {
		if strings.EqualFold(state, target) {
			return true
		}
	}
	return false
}

func reject(reason string) domain.ValidationDecision {
	return domain.ValidationDecision{
		Outcome: domain.OutcomeRejected,
		Reason:  reason,
	}
}
