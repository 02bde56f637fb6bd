package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/gbl-data/leadpipe/internal/domain"
	"github.com/gbl-data/leadpipe/internal/logger"
)

// ErrInvalidTransition is returned when a status update would move a
// contact backwards through the outreach funnel.
var ErrInvalidTransition = errors.New("invalid status transition")

// ContactRepository persists contacts.
type ContactRepository struct {
	db     *sqlx.DB
	logger logger.Logger
}

const contactColumns = `id, organization_id, first_name, last_name, job_title,
	email, phone, assigned_to, status, status_date, notes, date_added,
	last_updated, contact_confidence_score, contact_relevance_score, email_valid`

// Create inserts a contact and fills in its generated ID.
func (r *ContactRepository) Create(ctx context.Context, contact *domain.Contact) error {
	query := `
		INSERT INTO contacts (
			organization_id, first_name, last_name, job_title, email, phone,
			assigned_to, status, status_date, notes,
			contact_confidence_score, contact_relevance_score, email_valid,
			date_added, last_updated
		) VALUES (
			:organization_id, :first_name, :last_name, :job_title, :email, :phone,
			:assigned_to, :status, NOW(), :notes,
			:contact_confidence_score, :contact_relevance_score, :email_valid,
			NOW(), NOW()
		) RETURNING id`

	rows, err := r.db.NamedQueryContext(ctx, query, contact)
	if err != nil {
		return fmt.Errorf("creating contact %q: %w", contact.Email, err)
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&contact.ID); err != nil {
			return fmt.Errorf("scanning contact id: %w", err)
		}
	}
	return rows.Err()
}

// GetByID fetches one contact.
func (r *ContactRepository) GetByID(ctx context.Context, id int64) (*domain.Contact, error) {
	var contact domain.Contact
	query := fmt.Sprintf("SELECT %s FROM contacts WHERE id = $1", contactColumns)

	if err := r.db.GetContext(ctx, &contact, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting contact %d: %w", id, err)
	}
	return &contact, nil
}

// GetByEmail fetches a contact by normalized email.
func (r *ContactRepository) GetByEmail(ctx context.Context, email string) (*domain.Contact, error) {
	var contact domain.Contact
	query := fmt.Sprintf("SELECT %s FROM contacts WHERE LOWER(TRIM(email)) = LOWER(TRIM($1))", contactColumns)

	if err := r.db.GetContext(ctx, &contact, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting contact by email: %w", err)
	}
	return &contact, nil
}

// ListByOrganization returns all contacts of one organization.
func (r *ContactRepository) ListByOrganization(ctx context.Context, orgID int64) ([]domain.Contact, error) {
	var contacts []domain.Contact
	query := fmt.Sprintf("SELECT %s FROM contacts WHERE organization_id = $1 ORDER BY id", contactColumns)

	if err := r.db.SelectContext(ctx, &contacts, query, orgID); err != nil {
		return nil, fmt.Errorf("listing contacts for organization %d: %w", orgID, err)
	}
	return contacts, nil
}

// Update rewrites the mutable fields of a contact.
func (r *ContactRepository) Update(ctx context.Context, contact *domain.Contact) error {
	query := `
		UPDATE contacts SET
			organization_id = :organization_id,
			first_name = :first_name, last_name = :last_name,
			job_title = :job_title, email = :email, phone = :phone,
			assigned_to = :assigned_to, notes = :notes,
			contact_confidence_score = :contact_confidence_score,
			contact_relevance_score = :contact_relevance_score,
			email_valid = :email_valid,
			last_updated = NOW()
		WHERE id = :id`

	result, err := r.db.NamedExecContext(ctx, query, contact)
	if err != nil {
		return fmt.Errorf("updating contact %d: %w", contact.ID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("contact %d: %w", contact.ID, ErrNotFound)
	}
	return nil
}

// UpdateStatus moves a contact through the outreach funnel, enforcing the
// forward-only transition rules.
func (r *ContactRepository) UpdateStatus(ctx context.Context, id int64, to domain.ContactStatus) error {
	contact, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !contact.Status.CanTransition(to) {
		return fmt.Errorf("contact %d: %s -> %s: %w", id, contact.Status, to, ErrInvalidTransition)
	}

	if _, err := r.db.ExecContext(ctx,
		`UPDATE contacts SET status = $1, status_date = NOW(), last_updated = NOW() WHERE id = $2`,
		to, id); err != nil {
		return fmt.Errorf("updating status of contact %d: %w", id, err)
	}
	return nil
}

// DuplicateEmailGroups returns the normalized emails that appear on more
// than one contact.
func (r *ContactRepository) DuplicateEmailGroups(ctx context.Context) ([]string, error) {
	var emails []string
	query := `
		SELECT LOWER(TRIM(email)) AS email
		FROM contacts
		GROUP BY LOWER(TRIM(email))
		HAVING COUNT(*) > 1
		ORDER BY email`

	if err := r.db.SelectContext(ctx, &emails, query); err != nil {
		return nil, fmt.Errorf("listing duplicate emails: %w", err)
	}
	return emails, nil
}

// ListByNormalizedEmail returns every contact sharing one normalized email.
func (r *ContactRepository) ListByNormalizedEmail(ctx context.Context, email string) ([]domain.Contact, error) {
	var contacts []domain.Contact
	query := fmt.Sprintf(`SELECT %s FROM contacts
		WHERE LOWER(TRIM(email)) = LOWER(TRIM($1))
		ORDER BY id`, contactColumns)

	if err := r.db.SelectContext(ctx, &contacts, query, email); err != nil {
		return nil, fmt.Errorf("listing contacts by email: %w", err)
	}
	return contacts, nil
}

// ApplyMerge persists one deduplication decision atomically: the survivor
// is rewritten with its merged fields and the losers are deleted.
func (r *ContactRepository) ApplyMerge(ctx context.Context, survivor *domain.Contact, loserIDs []int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning merge transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE contacts SET
			organization_id = :organization_id,
			first_name = :first_name, last_name = :last_name,
			job_title = :job_title, phone = :phone, notes = :notes,
			contact_confidence_score = :contact_confidence_score,
			contact_relevance_score = :contact_relevance_score,
			last_updated = NOW()
		WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, query, survivor); err != nil {
		return fmt.Errorf("updating merge survivor %d: %w", survivor.ID, err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM contacts WHERE id = ANY($1)`,
		pq.Array(loserIDs)); err != nil {
		return fmt.Errorf("deleting merged contacts: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing contact merge: %w", err)
	}

	r.logger.Info("contacts merged",
		logger.Int64("survivor_id", survivor.ID),
		logger.Int("merged_count", len(loserIDs)))
	return nil
}

// PurgeByEmailSuffix deletes contacts whose email ends with the suffix
// and returns the number removed. Used to clean out excluded domains such
// as .edu addresses that slipped in before the exclusion existed.
func (r *ContactRepository) PurgeByEmailSuffix(ctx context.Context, suffix string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM contacts WHERE LOWER(email) LIKE '%' || LOWER($1)`,
		suffix)
	if err != nil {
		return 0, fmt.Errorf("purging contacts by suffix %q: %w", suffix, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}

	if affected > 0 {
		r.logger.Info("purged contacts by email suffix",
			logger.String("suffix", suffix),
			logger.Int64("removed", affected))
	}
	return affected, nil
}

// CountByStatus returns contact counts per funnel status.
func (r *ContactRepository) CountByStatus(ctx context.Context) (map[domain.ContactStatus]int64, error) {
	rows, err := r.db.QueryxContext(ctx,
		`SELECT status, COUNT(*) FROM contacts GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("counting contacts by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.ContactStatus]int64)
	for rows.Next() {
		var status domain.ContactStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scanning status count: %w", err)
		}
		counts[status] = count
	}
	return counts, rows.Err()
}
