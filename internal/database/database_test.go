package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/gbl-data/leadpipe/internal/domain"
	"github.com/gbl-data/leadpipe/internal/logger"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("creating sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return NewStore(sqlx.NewDb(db, "postgres"), logger.NewNop()), mock
}

func TestOrganizationCreate_ReturnsID(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("INSERT INTO organizations").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	org := &domain.Organization{Name: "Acme Water District", OrgType: domain.OrgTypeWater, State: "Utah"}
	if err := store.Organizations().Create(context.Background(), org); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if org.ID != 7 {
		t.Errorf("expected id 7, got %d", org.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestOrganizationGetByID_NotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM organizations WHERE id").
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.Organizations().GetByID(context.Background(), 99)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOrganizationListDuplicateCandidates_MatchesStateCaseInsensitively(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT (.+) FROM organizations\s+WHERE LOWER\(state\) = LOWER\(\$1\) AND org_type = \$2`).
		WithArgs("Utah", domain.OrgTypeWater).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	orgs, err := store.Organizations().ListDuplicateCandidates(context.Background(), "Utah", domain.OrgTypeWater)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(orgs) != 0 {
		t.Errorf("expected no candidates, got %d", len(orgs))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestOrganizationMergeInto_Transaction(t *testing.T) {
	store, mock := newMockStore(t)

	winner := &domain.Organization{ID: 1, Name: "Acme Water District", Description: "regional provider"}
	loser := &domain.Organization{ID: 2, Name: "Acme Water Dist", Description: "short"}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE contacts SET organization_id").
		WithArgs(winner.ID, loser.ID).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("UPDATE organizations SET relevance_score").
		WithArgs(domain.MergedRelevanceSentinel, "MERGED into ID 1", loser.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := store.Organizations().MergeInto(context.Background(), winner, loser); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestOrganizationMergeInto_TakesLongerDescription(t *testing.T) {
	store, mock := newMockStore(t)

	winner := &domain.Organization{ID: 1, Name: "Acme Water District"}
	loser := &domain.Organization{ID: 2, Name: "Acme Water Dist", Description: "a much longer description"}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE contacts SET organization_id").
		WithArgs(winner.ID, loser.ID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("UPDATE organizations SET description").
		WithArgs(loser.Description, winner.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE organizations SET relevance_score").
		WithArgs(domain.MergedRelevanceSentinel, "MERGED into ID 1", loser.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := store.Organizations().MergeInto(context.Background(), winner, loser); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if winner.Description != loser.Description {
		t.Errorf("winner must take loser's longer description, got %q", winner.Description)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestContactApplyMerge_Transaction(t *testing.T) {
	store, mock := newMockStore(t)

	survivor := &domain.Contact{ID: 10, OrganizationID: 1, Email: "jsmith@acmewater.gov"}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE contacts SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM contacts WHERE id = ANY").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	if err := store.Contacts().ApplyMerge(context.Background(), survivor, []int64{11, 12}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestContactApplyMerge_RollsBackOnDeleteFailure(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE contacts SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM contacts WHERE id = ANY").
		WillReturnError(errors.New("deadlock detected"))
	mock.ExpectRollback()

	err := store.Contacts().ApplyMerge(context.Background(), &domain.Contact{ID: 10}, []int64{11})
	if err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestContactUpdateStatus_RejectsBackwardTransition(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"id", "status"}).AddRow(5, "emailed")
	mock.ExpectQuery("SELECT (.+) FROM contacts WHERE id").
		WithArgs(int64(5)).
		WillReturnRows(rows)

	err := store.Contacts().UpdateStatus(context.Background(), 5, domain.StatusNew)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestContactPurgeByEmailSuffix(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("DELETE FROM contacts WHERE LOWER\\(email\\) LIKE").
		WithArgs(".edu").
		WillReturnResult(sqlmock.NewResult(0, 4))

	removed, err := store.Contacts().PurgeByEmailSuffix(context.Background(), ".edu")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed != 4 {
		t.Errorf("expected 4 removed, got %d", removed)
	}
}

func TestSettingsGetFloat_FallbackOnMissingRow(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT value FROM pipeline_settings").
		WithArgs(SettingOrgHurdle).
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	got := store.Settings().GetFloat(context.Background(), SettingOrgHurdle, 0.7)
	if got != 0.7 {
		t.Errorf("expected fallback 0.7, got %f", got)
	}
}

func TestSettingsGetFloat_ReadsStoredValue(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT value FROM pipeline_settings").
		WithArgs(SettingNameHurdle).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("0.85"))

	got := store.Settings().GetFloat(context.Background(), SettingNameHurdle, 0.7)
	if got != 0.85 {
		t.Errorf("expected 0.85, got %f", got)
	}
}

func TestSettingsGetFloat_FallbackOnGarbage(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT value FROM pipeline_settings").
		WithArgs(SettingOrgHurdle).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("not-a-number"))

	got := store.Settings().GetFloat(context.Background(), SettingOrgHurdle, 0.7)
	if got != 0.7 {
		t.Errorf("expected fallback 0.7, got %f", got)
	}
}
