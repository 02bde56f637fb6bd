package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/gbl-data/leadpipe/internal/domain"
	"github.com/gbl-data/leadpipe/internal/logger"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// OrganizationRepository persists organizations.
type OrganizationRepository struct {
	db     *sqlx.DB
	logger logger.Logger
}

const orgColumns = `id, name, org_type, subtype, website, address, city, state,
	zip_code, county, phone, description, source_url, date_added, last_updated,
	confidence_score, relevance_score, data_quality_score,
	infrastructure_score, process_complexity_score, automation_level,
	integration_opportunity_score, is_competitor, extended_data`

// Create inserts an organization and fills in its generated ID.
func (r *OrganizationRepository) Create(ctx context.Context, org *domain.Organization) error {
	query := `
		INSERT INTO organizations (
			name, org_type, subtype, website, address, city, state, zip_code,
			county, phone, description, source_url,
			confidence_score, relevance_score, data_quality_score,
			infrastructure_score, process_complexity_score, automation_level,
			integration_opportunity_score, is_competitor, extended_data,
			date_added, last_updated
		) VALUES (
			:name, :org_type, :subtype, :website, :address, :city, :state, :zip_code,
			:county, :phone, :description, :source_url,
			:confidence_score, :relevance_score, :data_quality_score,
			:infrastructure_score, :process_complexity_score, :automation_level,
			:integration_opportunity_score, :is_competitor, :extended_data,
			NOW(), NOW()
		) RETURNING id`

	rows, err := r.db.NamedQueryContext(ctx, query, org)
	if err != nil {
		return fmt.Errorf("creating organization %q: %w", org.Name, err)
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&org.ID); err != nil {
			return fmt.Errorf("scanning organization id: %w", err)
		}
	}
	return rows.Err()
}

// GetByID fetches one organization.
func (r *OrganizationRepository) GetByID(ctx context.Context, id int64) (*domain.Organization, error) {
	var org domain.Organization
	query := fmt.Sprintf("SELECT %s FROM organizations WHERE id = $1", orgColumns)

	if err := r.db.GetContext(ctx, &org, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting organization %d: %w", id, err)
	}
	return &org, nil
}

// GetByNameAndState fetches an organization by its natural identity.
func (r *OrganizationRepository) GetByNameAndState(ctx context.Context, name, state string) (*domain.Organization, error) {
	var org domain.Organization
	query := fmt.Sprintf("SELECT %s FROM organizations WHERE name = $1 AND state = $2", orgColumns)

	if err := r.db.GetContext(ctx, &org, query, name, state); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting organization %q/%q: %w", name, state, err)
	}
	return &org, nil
}

// Update rewrites the mutable fields of an organization.
func (r *OrganizationRepository) Update(ctx context.Context, org *domain.Organization) error {
	query := `
		UPDATE organizations SET
			name = :name, org_type = :org_type, subtype = :subtype,
			website = :website, address = :address, city = :city, state = :state,
			zip_code = :zip_code, county = :county, phone = :phone,
			description = :description, source_url = :source_url,
			confidence_score = :confidence_score,
			relevance_score = :relevance_score,
			data_quality_score = :data_quality_score,
			last_updated = NOW()
		WHERE id = :id`

	result, err := r.db.NamedExecContext(ctx, query, org)
	if err != nil {
		return fmt.Errorf("updating organization %d: %w", org.ID, err)
	}
	return requireRow(result, org.ID)
}

// UpdateInfrastructureScores writes the reranker's output for one
// organization.
func (r *OrganizationRepository) UpdateInfrastructureScores(ctx context.Context, org *domain.Organization) error {
	query := `
		UPDATE organizations SET
			infrastructure_score = :infrastructure_score,
			process_complexity_score = :process_complexity_score,
			automation_level = :automation_level,
			integration_opportunity_score = :integration_opportunity_score,
			is_competitor = :is_competitor,
			relevance_score = :relevance_score,
			extended_data = :extended_data,
			last_updated = NOW()
		WHERE id = :id`

	result, err := r.db.NamedExecContext(ctx, query, org)
	if err != nil {
		return fmt.Errorf("updating infrastructure scores for organization %d: %w", org.ID, err)
	}
	return requireRow(result, org.ID)
}

// ListActive returns organizations not merged away, ordered by relevance.
func (r *OrganizationRepository) ListActive(ctx context.Context, limit, offset int) ([]domain.Organization, error) {
	var orgs []domain.Organization
	query := fmt.Sprintf(`SELECT %s FROM organizations
		WHERE relevance_score >= 0
		ORDER BY relevance_score DESC, id
		LIMIT $1 OFFSET $2`, orgColumns)

	if err := r.db.SelectContext(ctx, &orgs, query, limit, offset); err != nil {
		return nil, fmt.Errorf("listing organizations: %w", err)
	}
	return orgs, nil
}

// ListDuplicateCandidates returns active organizations sharing state and
// org_type, the pool duplicate detection scans for name overlap. The
// state match is case-insensitive so scraper casing differences land in
// the same pool.
func (r *OrganizationRepository) ListDuplicateCandidates(ctx context.Context, state string, orgType domain.OrgType) ([]domain.Organization, error) {
	var orgs []domain.Organization
	query := fmt.Sprintf(`SELECT %s FROM organizations
		WHERE LOWER(state) = LOWER($1) AND org_type = $2 AND relevance_score >= 0
		ORDER BY relevance_score DESC, id`, orgColumns)

	if err := r.db.SelectContext(ctx, &orgs, query, state, orgType); err != nil {
		return nil, fmt.Errorf("listing duplicate candidates: %w", err)
	}
	return orgs, nil
}

// MergeInto marks loser as merged into winner inside one transaction:
// contacts are reassigned, the loser's relevance score is set to the
// merged sentinel, and its description records the surviving ID. The
// loser row is never deleted. When the winner has no description and the
// loser has a longer one, the winner takes it.
func (r *OrganizationRepository) MergeInto(ctx context.Context, winner, loser *domain.Organization) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning merge transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE contacts SET organization_id = $1, last_updated = NOW() WHERE organization_id = $2`,
		winner.ID, loser.ID); err != nil {
		return fmt.Errorf("reassigning contacts from %d to %d: %w", loser.ID, winner.ID, err)
	}

	if winner.Description == "" && len(loser.Description) > len(winner.Description) {
		winner.Description = loser.Description
		if _, err := tx.ExecContext(ctx,
			`UPDATE organizations SET description = $1, last_updated = NOW() WHERE id = $2`,
			winner.Description, winner.ID); err != nil {
			return fmt.Errorf("copying description to organization %d: %w", winner.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE organizations SET relevance_score = $1, description = $2, last_updated = NOW() WHERE id = $3`,
		domain.MergedRelevanceSentinel, fmt.Sprintf("MERGED into ID %d", winner.ID), loser.ID); err != nil {
		return fmt.Errorf("marking organization %d merged: %w", loser.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing merge of %d into %d: %w", loser.ID, winner.ID, err)
	}

	r.logger.Info("organizations merged",
		logger.Int64("winner_id", winner.ID),
		logger.Int64("loser_id", loser.ID))
	return nil
}

// OrganizationStats summarizes the organizations table.
type OrganizationStats struct {
	Total  int64
	Merged int64
	ByType map[domain.OrgType]int64
}

// Stats returns organization counts overall and per type.
func (r *OrganizationRepository) Stats(ctx context.Context) (*OrganizationStats, error) {
	stats := &OrganizationStats{ByType: make(map[domain.OrgType]int64)}

	if err := r.db.GetContext(ctx, &stats.Total,
		`SELECT COUNT(*) FROM organizations`); err != nil {
		return nil, fmt.Errorf("counting organizations: %w", err)
	}
	if err := r.db.GetContext(ctx, &stats.Merged,
		`SELECT COUNT(*) FROM organizations WHERE relevance_score < 0`); err != nil {
		return nil, fmt.Errorf("counting merged organizations: %w", err)
	}

	rows, err := r.db.QueryxContext(ctx,
		`SELECT org_type, COUNT(*) FROM organizations WHERE relevance_score >= 0 GROUP BY org_type`)
	if err != nil {
		return nil, fmt.Errorf("counting organizations by type: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var orgType domain.OrgType
		var count int64
		if err := rows.Scan(&orgType, &count); err != nil {
			return nil, fmt.Errorf("scanning type count: %w", err)
		}
		stats.ByType[orgType] = count
	}
	return stats, rows.Err()
}

func requireRow(result sql.Result, id int64) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("organization %d: %w", id, ErrNotFound)
	}
	return nil
}
