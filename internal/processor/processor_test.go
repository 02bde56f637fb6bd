package processor

import (
	"context"
	"errors"
	"testing"

	"github.com/gbl-data/leadpipe/internal/aiclient"
	"github.com/gbl-data/leadpipe/internal/classify"
	"github.com/gbl-data/leadpipe/internal/config"
	"github.com/gbl-data/leadpipe/internal/database"
	"github.com/gbl-data/leadpipe/internal/domain"
	"github.com/gbl-data/leadpipe/internal/logger"
	"github.com/gbl-data/leadpipe/internal/scoring"
	"github.com/gbl-data/leadpipe/internal/validation"
)

type memOrgStore struct {
	byKey   map[string]*domain.Organization
	nextID  int64
	lookups int
	creates int
	updates int
	getErr  error
}

func newMemOrgStore() *memOrgStore {
	return &memOrgStore{byKey: make(map[string]*domain.Organization), nextID: 1}
}

func (s *memOrgStore) key(name, state string) string { return name + "|" + state }

func (s *memOrgStore) GetByNameAndState(_ context.Context, name, state string) (*domain.Organization, error) {
	s.lookups++
	if s.getErr != nil {
		return nil, s.getErr
	}
	if org, ok := s.byKey[s.key(name, state)]; ok {
		return org, nil
	}
	return nil, database.ErrNotFound
}

func (s *memOrgStore) GetByID(_ context.Context, id int64) (*domain.Organization, error) {
	for _, org := range s.byKey {
		if org.ID == id {
			return org, nil
		}
	}
	return nil, database.ErrNotFound
}

func (s *memOrgStore) Create(_ context.Context, org *domain.Organization) error {
	org.ID = s.nextID
	s.nextID++
	s.creates++
	s.byKey[s.key(org.Name, org.State)] = org
	return nil
}

func (s *memOrgStore) Update(_ context.Context, org *domain.Organization) error {
	s.updates++
	s.byKey[s.key(org.Name, org.State)] = org
	return nil
}

type memContactStore struct {
	byEmail   map[string]*domain.Contact
	creates   int
	createErr error
}

func newMemContactStore() *memContactStore {
	return &memContactStore{byEmail: make(map[string]*domain.Contact)}
}

func (s *memContactStore) GetByEmail(_ context.Context, email string) (*domain.Contact, error) {
	if c, ok := s.byEmail[email]; ok {
		return c, nil
	}
	return nil, database.ErrNotFound
}

func (s *memContactStore) Create(_ context.Context, contact *domain.Contact) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.creates++
	contact.ID = int64(s.creates)
	s.byEmail[contact.Email] = contact
	return nil
}

type stubValidator struct {
	result *aiclient.ValidationResult
	err    error
	calls  int
}

func (s *stubValidator) Validate(_ context.Context, _ aiclient.ValidationRequest) (*aiclient.ValidationResult, error) {
	s.calls++
	return s.result, s.err
}

func floatPtr(v float64) *float64 { return &v }

func newProcessor(t *testing.T, orgs *memOrgStore, contacts *memContactStore, validator *stubValidator) *Processor {
	t.Helper()
	tax := domain.DefaultTaxonomy()
	log := logger.NewNop()

	resolver := classify.NewConfidenceResolver(scoring.NewKeywordScorer(tax, log), nil, 0.5, log)
	orgClassifier := classify.NewOrganizationClassifier(
		resolver, scoring.NewRelevanceScorer(tax, log), scoring.NewDataQualityScorer(), nil, log)
	contactClassifier := classify.NewContactClassifier(scoring.NewContactRelevanceScorer(tax), tax, log)

	cfg := config.ValidationConfig{
		OrgConfidenceHurdle:    0.7,
		NameConfidenceHurdle:   0.7,
		HighConfidenceSkip:     0.9,
		ExcludedDomainSuffixes: []string{".edu"},
	}
	gate := validation.New(orgs, validator, nil, nil, cfg, nil, log)

	return New(orgs, contacts, orgClassifier, contactClassifier, gate, 0, log)
}

func waterRecord() DiscoveryRecord {
	return DiscoveryRecord{
		Organization: domain.OrgInput{
			Name:        "Acme Water District",
			Description: "Regional water treatment and wastewater services",
			Website:     "https://acmewater.example.gov",
			State:       "Utah",
		},
		Contacts: []domain.ContactInput{{
			FirstName:  "Jane",
			LastName:   "Smith",
			JobTitle:   "Water Operations Manager",
			Email:      "jsmith@acmewater.gov",
			Confidence: 0.6,
		}},
	}
}

func TestProcessBatch_CreatesOrganizationAndApprovedContact(t *testing.T) {
	orgs := newMemOrgStore()
	contacts := newMemContactStore()
	validator := &stubValidator{result: &aiclient.ValidationResult{
		OrgConfidence:  0.85,
		NameConfidence: floatPtr(0.8),
	}}

	p := newProcessor(t, orgs, contacts, validator)
	result, err := p.ProcessBatch(context.Background(), []DiscoveryRecord{waterRecord()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.OrganizationsCreated != 1 {
		t.Errorf("expected 1 organization created, got %d", result.OrganizationsCreated)
	}
	if result.ContactsApproved != 1 {
		t.Errorf("expected 1 contact approved, got %d", result.ContactsApproved)
	}
	contact := contacts.byEmail["jsmith@acmewater.gov"]
	if contact == nil {
		t.Fatal("approved contact not persisted")
	}
	if contact.OrganizationID == 0 {
		t.Error("contact must be linked to the created organization")
	}
	if contact.AssignedTo != "marc@gbl-data.com" {
		t.Errorf("water contact must route to marc, got %q", contact.AssignedTo)
	}
}

func TestProcessBatch_RejectedContactNeverPersisted(t *testing.T) {
	orgs := newMemOrgStore()
	contacts := newMemContactStore()
	validator := &stubValidator{result: &aiclient.ValidationResult{OrgConfidence: 0.4}}

	p := newProcessor(t, orgs, contacts, validator)
	result, err := p.ProcessBatch(context.Background(), []DiscoveryRecord{waterRecord()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.ContactsRejected != 1 {
		t.Errorf("expected 1 rejection, got %d", result.ContactsRejected)
	}
	if contacts.creates != 0 {
		t.Errorf("rejected contact must never be persisted, got %d creates", contacts.creates)
	}
}

func TestProcessBatch_KnownContactSkipsValidation(t *testing.T) {
	orgs := newMemOrgStore()
	contacts := newMemContactStore()
	contacts.byEmail["jsmith@acmewater.gov"] = &domain.Contact{ID: 1, Email: "jsmith@acmewater.gov"}
	validator := &stubValidator{result: &aiclient.ValidationResult{OrgConfidence: 0.9}}

	p := newProcessor(t, orgs, contacts, validator)
	result, err := p.ProcessBatch(context.Background(), []DiscoveryRecord{waterRecord()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.ContactsSkipped != 1 {
		t.Errorf("expected 1 skipped contact, got %d", result.ContactsSkipped)
	}
	if validator.calls != 0 {
		t.Errorf("known contact must not be re-validated, got %d calls", validator.calls)
	}
}

func TestProcessBatch_SecondDiscoveryUpdatesOrganization(t *testing.T) {
	orgs := newMemOrgStore()
	contacts := newMemContactStore()
	validator := &stubValidator{result: &aiclient.ValidationResult{
		OrgConfidence:  0.85,
		NameConfidence: floatPtr(0.8),
	}}

	p := newProcessor(t, orgs, contacts, validator)
	if _, err := p.ProcessBatch(context.Background(), []DiscoveryRecord{waterRecord()}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	richer := waterRecord()
	richer.Organization.Description = "Regional water treatment and wastewater services with SCADA-monitored pump stations"
	richer.Contacts = nil

	result, err := p.ProcessBatch(context.Background(), []DiscoveryRecord{richer})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.OrganizationsCreated != 0 {
		t.Errorf("existing organization must not be recreated, got %d", result.OrganizationsCreated)
	}
	if result.OrganizationsUpdated != 1 {
		t.Errorf("expected 1 update, got %d", result.OrganizationsUpdated)
	}
}

func TestProcessBatch_NamelessOrganizationRejected(t *testing.T) {
	orgs := newMemOrgStore()
	contacts := newMemContactStore()
	validator := &stubValidator{result: &aiclient.ValidationResult{OrgConfidence: 0.9}}

	record := waterRecord()
	record.Organization.Name = ""

	p := newProcessor(t, orgs, contacts, validator)
	result, err := p.ProcessBatch(context.Background(), []DiscoveryRecord{record})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.OrganizationsRejected != 1 {
		t.Errorf("expected 1 organization rejected, got %d", result.OrganizationsRejected)
	}
	if orgs.creates != 0 {
		t.Errorf("rejected organization must not be persisted, got %d creates", orgs.creates)
	}
	if validator.calls != 0 {
		t.Errorf("contacts of a rejected organization must not be validated, got %d calls", validator.calls)
	}
}

func TestProcessBatch_LookupFailureIsRecordFailure(t *testing.T) {
	orgs := newMemOrgStore()
	orgs.getErr = errors.New("connection refused")
	contacts := newMemContactStore()
	validator := &stubValidator{result: &aiclient.ValidationResult{OrgConfidence: 0.9}}

	p := newProcessor(t, orgs, contacts, validator)
	result, err := p.ProcessBatch(context.Background(), []DiscoveryRecord{waterRecord()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Failures != 1 {
		t.Errorf("a failing lookup is a record failure, got %d failures", result.Failures)
	}
	if orgs.creates != 0 {
		t.Errorf("a failing lookup must never fall through to create, got %d creates", orgs.creates)
	}
}

func TestProcessBatch_ExcludedWebsiteChangeNotApplied(t *testing.T) {
	orgs := newMemOrgStore()
	contacts := newMemContactStore()
	validator := &stubValidator{result: &aiclient.ValidationResult{
		OrgConfidence:  0.85,
		NameConfidence: floatPtr(0.8),
	}}

	p := newProcessor(t, orgs, contacts, validator)
	if _, err := p.ProcessBatch(context.Background(), []DiscoveryRecord{waterRecord()}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rediscovered := waterRecord()
	rediscovered.Organization.Website = "https://acmewater.edu"
	rediscovered.Contacts = nil

	result, err := p.ProcessBatch(context.Background(), []DiscoveryRecord{rediscovered})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.OrganizationsUpdated != 0 {
		t.Errorf("excluded website must not be applied, got %d updates", result.OrganizationsUpdated)
	}
	if result.OrganizationsRejected != 1 {
		t.Errorf("expected the website change to be rejected, got %d", result.OrganizationsRejected)
	}
	stored := orgs.byKey[orgs.key("Acme Water District", "Utah")]
	if stored.Website != "https://acmewater.example.gov" {
		t.Errorf("stored website must be untouched, got %q", stored.Website)
	}
}

func TestProcessBatch_RepeatedOrganizationCachedWithinBatch(t *testing.T) {
	orgs := newMemOrgStore()
	contacts := newMemContactStore()
	validator := &stubValidator{result: &aiclient.ValidationResult{
		OrgConfidence:  0.85,
		NameConfidence: floatPtr(0.8),
	}}

	second := waterRecord()
	second.Contacts[0].Email = "bjones@acmewater.gov"
	second.Contacts[0].FirstName = "Bob"
	second.Contacts[0].LastName = "Jones"

	p := newProcessor(t, orgs, contacts, validator)
	result, err := p.ProcessBatch(context.Background(), []DiscoveryRecord{waterRecord(), second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if orgs.lookups != 1 {
		t.Errorf("repeated organization must hit the store once, got %d lookups", orgs.lookups)
	}
	if result.OrganizationsCreated != 1 {
		t.Errorf("expected 1 organization created, got %d", result.OrganizationsCreated)
	}
	if result.ContactsApproved != 2 {
		t.Errorf("expected both contacts approved, got %d", result.ContactsApproved)
	}
}

func TestProcessBatch_ContactCreateFailureIsolated(t *testing.T) {
	orgs := newMemOrgStore()
	contacts := newMemContactStore()
	contacts.createErr = errors.New("connection reset")
	validator := &stubValidator{result: &aiclient.ValidationResult{
		OrgConfidence:  0.85,
		NameConfidence: floatPtr(0.8),
	}}

	p := newProcessor(t, orgs, contacts, validator)
	result, err := p.ProcessBatch(context.Background(), []DiscoveryRecord{waterRecord()})
	if err != nil {
		t.Fatalf("record failure must not abort the batch: %v", err)
	}
	if result.Failures != 1 {
		t.Errorf("expected 1 failure, got %d", result.Failures)
	}
	if result.OrganizationsCreated != 1 {
		t.Errorf("organization work must survive contact failure, got %d", result.OrganizationsCreated)
	}
}

func TestProcessBatch_CancelledContextAborts(t *testing.T) {
	orgs := newMemOrgStore()
	contacts := newMemContactStore()
	validator := &stubValidator{result: &aiclient.ValidationResult{OrgConfidence: 0.85}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := newProcessor(t, orgs, contacts, validator)
	if _, err := p.ProcessBatch(ctx, []DiscoveryRecord{waterRecord()}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
