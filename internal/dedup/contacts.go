// Package dedup removes duplicate contacts and organizations. Contacts
// deduplicate on normalized email; organizations on name overlap within
// the same state and type.
package dedup

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/gbl-data/leadpipe/internal/domain"
	"github.com/gbl-data/leadpipe/internal/logger"
	"github.com/gbl-data/leadpipe/internal/telemetry"
)

// ContactStore is the persistence surface contact deduplication needs.
type ContactStore interface {
	DuplicateEmailGroups(ctx context.Context) ([]string, error)
	ListByNormalizedEmail(ctx context.Context, email string) ([]domain.Contact, error)
	ApplyMerge(ctx context.Context, survivor *domain.Contact, loserIDs []int64) error
}

// ContactDeduper merges contacts sharing one normalized email.
type ContactDeduper struct {
	store   ContactStore
	metrics *telemetry.Metrics
	logger  logger.Logger
}

// NewContactDeduper creates a contact deduper.
func NewContactDeduper(store ContactStore, metrics *telemetry.Metrics, log logger.Logger) *ContactDeduper {
	return &ContactDeduper{store: store, metrics: metrics, logger: log}
}

// ContactResult summarizes one deduplication run.
type ContactResult struct {
	GroupsProcessed int
	ContactsMerged  int
	GroupsFailed    int
}

// Run merges every duplicate email group. Each group commits in its own
// transaction; a failing group is logged and skipped so one bad group
// cannot abort the run. Running again on an already-clean table is a
// no-op.
func (d *ContactDeduper) Run(ctx context.Context) (*ContactResult, error) {
	emails, err := d.store.DuplicateEmailGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("finding duplicate emails: %w", err)
	}

	result := &ContactResult{}
	for _, email := range emails {
		group, err := d.store.ListByNormalizedEmail(ctx, email)
		if err != nil {
			d.logger.Error("failed to load duplicate group",
				logger.String("email", email),
				logger.Error(err))
			result.GroupsFailed++
			continue
		}
		if len(group) < 2 {
			continue
		}

		survivor, losers := MergeContacts(group)
		loserIDs := make([]int64, len(losers))
		for i, l := range losers {
			loserIDs[i] = l.ID
		}

		if err := d.store.ApplyMerge(ctx, survivor, loserIDs); err != nil {
			d.logger.Error("failed to merge duplicate group",
				logger.String("email", email),
				logger.Error(err))
			result.GroupsFailed++
			continue
		}

		d.metrics.RecordMerge("contact")
		result.GroupsProcessed++
		result.ContactsMerged += len(losers)
	}

	d.logger.Info("contact deduplication finished",
		logger.Int("groups", result.GroupsProcessed),
		logger.Int("merged", result.ContactsMerged),
		logger.Int("failed", result.GroupsFailed))
	return result, nil
}

// MergeContacts picks the survivor of one duplicate group and folds the
// losers' data into it. The survivor is the best-ranked contact; it
// absorbs any field it is missing, takes the maximum scores, and records
// the merge in its notes.
func MergeContacts(group []domain.Contact) (*domain.Contact, []domain.Contact) {
	sorted := make([]domain.Contact, len(group))
	copy(sorted, group)
	sort.SliceStable(sorted, func(i, j int) bool {
		return contactRank(&sorted[i]).better(contactRank(&sorted[j]))
	})

	survivor := sorted[0]
	losers := sorted[1:]

	loserIDs := make([]string, 0, len(losers))
	for _, loser := range losers {
		if survivor.FirstName == "" {
			survivor.FirstName = loser.FirstName
		}
		if survivor.LastName == "" {
			survivor.LastName = loser.LastName
		}
		if survivor.JobTitle == "" {
			survivor.JobTitle = loser.JobTitle
		}
		if survivor.Phone == "" {
			survivor.Phone = loser.Phone
		}
		if loser.ContactConfidenceScore > survivor.ContactConfidenceScore {
			survivor.ContactConfidenceScore = loser.ContactConfidenceScore
		}
		if loser.ContactRelevanceScore > survivor.ContactRelevanceScore {
			survivor.ContactRelevanceScore = loser.ContactRelevanceScore
		}
		loserIDs = append(loserIDs, fmt.Sprintf("%d", loser.ID))
	}

	note := fmt.Sprintf("Merged duplicate contacts (IDs: %s)", strings.Join(loserIDs, ", "))
	if survivor.Notes == "" {
		survivor.Notes = note
	} else {
		survivor.Notes = survivor.Notes + "; " + note
	}

	return &survivor, losers
}

// rank orders contacts within a duplicate group: higher confidence first,
// then presence of name, title, and phone fields, then the newer record.
type rank struct {
	confidence   float64
	hasFirstName bool
	hasLastName  bool
	hasJobTitle  bool
	hasPhone     bool
	dateAdded    int64
}

func contactRank(c *domain.Contact) rank {
	return rank{
		confidence:   c.ContactConfidenceScore,
		hasFirstName: c.FirstName != "",
		hasLastName:  c.LastName != "",
		hasJobTitle:  c.JobTitle != "",
		hasPhone:     c.Phone != "",
		dateAdded:    c.DateAdded.UnixNano(),
	}
}

func (r rank) better(other rank) bool {
	if r.confidence != other.confidence {
		return r.confidence > other.confidence
	}
	if r.hasFirstName != other.hasFirstName {
		return r.hasFirstName
	}
	if r.hasLastName != other.hasLastName {
		return r.hasLastName
	}
	if r.hasJobTitle != other.hasJobTitle {
		return r.hasJobTitle
	}
	if r.hasPhone != other.hasPhone {
		return r.hasPhone
	}
	return r.dateAdded > other.dateAdded
}
