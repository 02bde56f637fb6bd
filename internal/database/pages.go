package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/gbl-data/leadpipe/internal/domain"
	"github.com/gbl-data/leadpipe/internal/logger"
)

// PageRepository reads the crawled page analyses the reranker consumes.
// The crawler writes these rows from outside this service.
type PageRepository struct {
	db     *sqlx.DB
	logger logger.Logger
}

const pageColumns = `id, organization_id, url, crawled_at,
	contains_infrastructure, industry_indicators, project_data`

// ListByOrganization returns every analyzed page for one organization.
// An organization with no crawled pages yields an empty slice, which the
// reranker treats as a valid low-signal input.
func (r *PageRepository) ListByOrganization(ctx context.Context, orgID int64) ([]domain.PageAnalysis, error) {
	var pages []domain.PageAnalysis
	query := fmt.Sprintf("SELECT %s FROM page_analyses WHERE organization_id = $1 ORDER BY id", pageColumns)

	if err := r.db.SelectContext(ctx, &pages, query, orgID); err != nil {
		return nil, fmt.Errorf("listing page analyses for organization %d: %w", orgID, err)
	}
	return pages, nil
}

// Create stores one page analysis.
func (r *PageRepository) Create(ctx context.Context, page *domain.PageAnalysis) error {
	query := `
		INSERT INTO page_analyses (
			organization_id, url, crawled_at,
			contains_infrastructure, industry_indicators, project_data
		) VALUES (
			:organization_id, :url, :crawled_at,
			:contains_infrastructure, :industry_indicators, :project_data
		) RETURNING id`

	rows, err := r.db.NamedQueryContext(ctx, query, page)
	if err != nil {
		return fmt.Errorf("creating page analysis for organization %d: %w", page.OrganizationID, err)
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&page.ID); err != nil {
			return fmt.Errorf("scanning page analysis id: %w", err)
		}
	}
	return rows.Err()
}
