package dedup

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gbl-data/leadpipe/internal/domain"
	"github.com/gbl-data/leadpipe/internal/logger"
)

type fakeContactStore struct {
	groups   map[string][]domain.Contact
	merges   []appliedMerge
	mergeErr map[string]error
}

type appliedMerge struct {
	survivor domain.Contact
	loserIDs []int64
}

func (f *fakeContactStore) DuplicateEmailGroups(_ context.Context) ([]string, error) {
	var emails []string
	for email, group := range f.groups {
		if len(group) > 1 {
			emails = append(emails, email)
		}
	}
	return emails, nil
}

func (f *fakeContactStore) ListByNormalizedEmail(_ context.Context, email string) ([]domain.Contact, error) {
	return f.groups[email], nil
}

func (f *fakeContactStore) ApplyMerge(_ context.Context, survivor *domain.Contact, loserIDs []int64) error {
	if err := f.mergeErr[survivor.Email]; err != nil {
		return err
	}
	f.merges = append(f.merges, appliedMerge{survivor: *survivor, loserIDs: loserIDs})

	// Mimic the real repository: losers deleted, survivor rewritten.
	f.groups[survivor.Email] = []domain.Contact{*survivor}
	return nil
}

func TestMergeContacts_SurvivorAbsorbsFields(t *testing.T) {
	older := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	group := []domain.Contact{
		{
			ID: 1, Email: "jsmith@acmewater.gov",
			ContactConfidenceScore: 0.9,
			FirstName:              "Jane",
			DateAdded:              older,
		},
		{
			ID: 2, Email: "jsmith@acmewater.gov",
			ContactConfidenceScore: 0.6,
			LastName:               "Smith",
			JobTitle:               "Operations Manager",
			Phone:                  "801-555-0100",
			ContactRelevanceScore:  0.8,
			DateAdded:              newer,
		},
	}

	survivor, losers := MergeContacts(group)

	if survivor.ID != 1 {
		t.Fatalf("higher confidence must survive, got id %d", survivor.ID)
	}
	if len(losers) != 1 || losers[0].ID != 2 {
		t.Fatalf("unexpected losers %+v", losers)
	}
	if survivor.LastName != "Smith" || survivor.JobTitle != "Operations Manager" || survivor.Phone != "801-555-0100" {
		t.Errorf("survivor must absorb missing fields: %+v", survivor)
	}
	if survivor.FirstName != "Jane" {
		t.Errorf("survivor's own fields must win, got %q", survivor.FirstName)
	}
	if survivor.ContactConfidenceScore != 0.9 {
		t.Errorf("confidence must be the group max, got %f", survivor.ContactConfidenceScore)
	}
	if survivor.ContactRelevanceScore != 0.8 {
		t.Errorf("relevance must be the group max, got %f", survivor.ContactRelevanceScore)
	}
	if survivor.Notes == "" {
		t.Error("merge must be recorded in notes")
	}
}

func TestMergeContacts_TiesBreakOnFieldPresenceThenRecency(t *testing.T) {
	older := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	group := []domain.Contact{
		{ID: 1, Email: "info@acmewater.gov", ContactConfidenceScore: 0.5, DateAdded: older},
		{ID: 2, Email: "info@acmewater.gov", ContactConfidenceScore: 0.5, FirstName: "Jane", DateAdded: older},
		{ID: 3, Email: "info@acmewater.gov", ContactConfidenceScore: 0.5, DateAdded: newer},
	}

	survivor, _ := MergeContacts(group)
	if survivor.ID != 2 {
		t.Errorf("field presence must beat recency, got id %d", survivor.ID)
	}
}

func TestContactDeduper_Run(t *testing.T) {
	store := &fakeContactStore{
		groups: map[string][]domain.Contact{
			"jsmith@acmewater.gov": {
				{ID: 1, Email: "jsmith@acmewater.gov", ContactConfidenceScore: 0.9},
				{ID: 2, Email: "jsmith@acmewater.gov", ContactConfidenceScore: 0.4},
				{ID: 3, Email: "jsmith@acmewater.gov", ContactConfidenceScore: 0.2},
			},
		},
	}

	deduper := NewContactDeduper(store, nil, logger.NewNop())
	result, err := deduper.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.GroupsProcessed != 1 || result.ContactsMerged != 2 {
		t.Errorf("unexpected result %+v", result)
	}
	if len(store.merges) != 1 {
		t.Fatalf("expected 1 merge, got %d", len(store.merges))
	}
	if store.merges[0].survivor.ID != 1 {
		t.Errorf("expected survivor 1, got %d", store.merges[0].survivor.ID)
	}

	// Rerun on the now-clean table must be a no-op.
	result, err = deduper.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error on rerun: %v", err)
	}
	if result.GroupsProcessed != 0 || len(store.merges) != 1 {
		t.Errorf("rerun must merge nothing, got %+v", result)
	}
}

func TestContactDeduper_FailingGroupDoesNotAbortRun(t *testing.T) {
	store := &fakeContactStore{
		groups: map[string][]domain.Contact{
			"bad@acmewater.gov": {
				{ID: 1, Email: "bad@acmewater.gov"},
				{ID: 2, Email: "bad@acmewater.gov"},
			},
			"good@acmewater.gov": {
				{ID: 3, Email: "good@acmewater.gov"},
				{ID: 4, Email: "good@acmewater.gov"},
			},
		},
		mergeErr: map[string]error{"bad@acmewater.gov": errors.New("deadlock")},
	}

	deduper := NewContactDeduper(store, nil, logger.NewNop())
	result, err := deduper.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.GroupsProcessed != 1 || result.GroupsFailed != 1 {
		t.Errorf("unexpected result %+v", result)
	}
}

type fakeOrgStore struct {
	orgs   []domain.Organization
	merges [][2]int64
}

func (f *fakeOrgStore) ListActive(_ context.Context, limit, offset int) ([]domain.Organization, error) {
	var active []domain.Organization
	for _, org := range f.orgs {
		if !org.Merged() {
			active = append(active, org)
		}
	}
	if offset >= len(active) {
		return nil, nil
	}
	end := offset + limit
	if end > len(active) {
		end = len(active)
	}
	return active[offset:end], nil
}

func (f *fakeOrgStore) ListDuplicateCandidates(_ context.Context, state string, orgType domain.OrgType) ([]domain.Organization, error) {
	var candidates []domain.Organization
	for _, org := range f.orgs {
		if org.Merged() {
			continue
		}
		if !strings.EqualFold(org.State, state) || org.OrgType != orgType {
			continue
		}
		candidates = append(candidates, org)
	}
	return candidates, nil
}

func (f *fakeOrgStore) MergeInto(_ context.Context, winner, loser *domain.Organization) error {
	f.merges = append(f.merges, [2]int64{winner.ID, loser.ID})
	for i := range f.orgs {
		if f.orgs[i].ID == loser.ID {
			f.orgs[i].RelevanceScore = domain.MergedRelevanceSentinel
		}
	}
	return nil
}

func TestOrgDeduper_MergesPrefixDuplicates(t *testing.T) {
	store := &fakeOrgStore{orgs: []domain.Organization{
		{ID: 1, Name: "Acme Water District", State: "Utah", OrgType: domain.OrgTypeWater, RelevanceScore: 0.8},
		{ID: 2, Name: "Acme Water Dist", State: "Utah", OrgType: domain.OrgTypeWater, RelevanceScore: 0.5},
		{ID: 3, Name: "Bravo Irrigation", State: "Utah", OrgType: domain.OrgTypeWater, RelevanceScore: 0.6},
	}}

	deduper := NewOrgDeduper(store, logger.NewNop())
	result, err := deduper.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.PairsMerged != 1 {
		t.Fatalf("expected 1 merge, got %d", result.PairsMerged)
	}
	if store.merges[0] != [2]int64{1, 2} {
		t.Errorf("higher relevance must win, got %v", store.merges[0])
	}
}

func TestOrgDeduper_DifferentStateOrTypeNeverMerges(t *testing.T) {
	store := &fakeOrgStore{orgs: []domain.Organization{
		{ID: 1, Name: "Acme Water District", State: "Utah", OrgType: domain.OrgTypeWater, RelevanceScore: 0.8},
		{ID: 2, Name: "Acme Water District", State: "Nevada", OrgType: domain.OrgTypeWater, RelevanceScore: 0.5},
		{ID: 3, Name: "Acme Water District", State: "Utah", OrgType: domain.OrgTypeMunicipal, RelevanceScore: 0.5},
	}}

	deduper := NewOrgDeduper(store, logger.NewNop())
	result, err := deduper.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.PairsMerged != 0 {
		t.Errorf("expected no merges across state/type, got %d", result.PairsMerged)
	}
}

func TestSameOrganizationName(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"Acme Water District", "acme water district", true},
		{"Acme Water District", "Acme Water Dist", true},
		{"Acme  Water   District", "Acme Water District", true},
		{"Acme Water District", "Bravo Water District", false},
		{"", "Acme Water District", false},
	}

	for _, tt := range tests {
		if got := SameOrganizationName(tt.a, tt.b); got != tt.want {
			t.Errorf("SameOrganizationName(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
