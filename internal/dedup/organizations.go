package dedup

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/gbl-data/leadpipe/internal/domain"
	"github.com/gbl-data/leadpipe/internal/logger"
)

// OrganizationStore is the persistence surface organization deduplication
// needs.
type OrganizationStore interface {
	ListActive(ctx context.Context, limit, offset int) ([]domain.Organization, error)
	ListDuplicateCandidates(ctx context.Context, state string, orgType domain.OrgType) ([]domain.Organization, error)
	MergeInto(ctx context.Context, winner, loser *domain.Organization) error
}

// OrgDeduper merges organizations that are the same entity under slightly
// different names.
type OrgDeduper struct {
	store  OrganizationStore
	logger logger.Logger
}

// NewOrgDeduper creates an organization deduper.
func NewOrgDeduper(store OrganizationStore, log logger.Logger) *OrgDeduper {
	return &OrgDeduper{store: store, logger: log}
}

// OrgResult summarizes one deduplication run.
type OrgResult struct {
	PairsMerged int
	PairsFailed int
}

const orgPageSize = 500

// Run scans active organizations for their (state, org_type) groups and
// merges name duplicates into the higher-relevance record. Merged losers
// keep their rows with the sentinel relevance, so a rerun skips them.
func (d *OrgDeduper) Run(ctx context.Context) (*OrgResult, error) {
	type groupKey struct {
		state   string
		orgType domain.OrgType
	}

	// First pass only collects the distinct groups; each group is then
	// fetched as one candidate pool so merges never span pagination pages.
	seen := make(map[string]bool)
	var keys []groupKey
	for offset := 0; ; offset += orgPageSize {
		page, err := d.store.ListActive(ctx, orgPageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("listing organizations: %w", err)
		}
		for _, org := range page {
			k := fmt.Sprintf("%s|%s", strings.ToLower(org.State), org.OrgType)
			if !seen[k] {
				seen[k] = true
				keys = append(keys, groupKey{state: org.State, orgType: org.OrgType})
			}
		}
		if len(page) < orgPageSize {
			break
		}
	}

	result := &OrgResult{}
	for _, key := range keys {
		group, err := d.store.ListDuplicateCandidates(ctx, key.state, key.orgType)
		if err != nil {
			d.logger.Error("failed to list duplicate candidates",
				logger.String("state", key.state),
				logger.String("org_type", string(key.orgType)),
				logger.Error(err))
			result.PairsFailed++
			continue
		}
		d.mergeGroup(ctx, group, result)
	}

	d.logger.Info("organization deduplication finished",
		logger.Int("merged", result.PairsMerged),
		logger.Int("failed", result.PairsFailed))
	return result, nil
}

// mergeGroup merges duplicates within one (state, org_type) group. The
// group is ordered by relevance so the best record always wins.
func (d *OrgDeduper) mergeGroup(ctx context.Context, group []domain.Organization, result *OrgResult) {
	sort.SliceStable(group, func(i, j int) bool {
		return group[i].RelevanceScore > group[j].RelevanceScore
	})

	merged := make(map[int64]bool)
	for i := range group {
		winner := &group[i]
		if merged[winner.ID] {
			continue
		}
		for j := i + 1; j < len(group); j++ {
			loser := &group[j]
			if merged[loser.ID] {
				continue
			}
			if !SameOrganizationName(winner.Name, loser.Name) {
				continue
			}

			if err := d.store.MergeInto(ctx, winner, loser); err != nil {
				d.logger.Error("failed to merge organizations",
					logger.Int64("winner_id", winner.ID),
					logger.Int64("loser_id", loser.ID),
					logger.Error(err))
				result.PairsFailed++
				continue
			}
			merged[loser.ID] = true
			result.PairsMerged++
		}
	}
}

// SameOrganizationName reports whether two names refer to the same
// organization: equal after normalization, or one a prefix of the other.
// The prefix rule catches truncated scraper output like "Acme Water Dist"
// next to "Acme Water District".
func SameOrganizationName(a, b string) bool {
	na := normalizeOrgName(a)
	nb := normalizeOrgName(b)
	if na == "" || nb == "" {
		return false
	}
	return na == nb || strings.HasPrefix(na, nb) || strings.HasPrefix(nb, na)
}

func normalizeOrgName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
