package scoring

import (
	"testing"

	"github.com/gbl-data/leadpipe/internal/domain"
)

func TestContactRelevanceScorer(t *testing.T) {
	scorer := NewContactRelevanceScorer(domain.DefaultTaxonomy())

	tests := []struct {
		name    string
		title   string
		orgType domain.OrgType
		want    float64
	}{
		{
			name:    "exact target title",
			title:   "Water Operations Manager",
			orgType: domain.OrgTypeWater,
			want:    titleExactScore,
		},
		{
			name:    "exact match is case insensitive",
			title:   "water operations manager",
			orgType: domain.OrgTypeWater,
			want:    titleExactScore,
		},
		{
			name:    "title contains a target title",
			title:   "Senior Plant Manager",
			orgType: domain.OrgTypeWater,
			want:    titlePartialScore,
		},
		{
			name:    "type keyword match",
			title:   "Treatment Specialist",
			orgType: domain.OrgTypeWater,
			want:    titleKeywordScore,
		},
		{
			name:    "generic keyword only",
			title:   "Regional Coordinator",
			orgType: domain.OrgTypeWater,
			want:    titleGenericScore,
		},
		{
			name:    "no target titles for org type",
			title:   "Pipeline Foreman",
			orgType: domain.OrgTypeOilGas,
			want:    titleNoTargetsScore,
		},
		{
			name:    "generic keyword beats no-targets tier",
			title:   "Pipeline Engineer",
			orgType: domain.OrgTypeOilGas,
			want:    titleGenericScore,
		},
		{
			name:    "floor for unmatched title",
			title:   "Receptionist",
			orgType: domain.OrgTypeWater,
			want:    titleFloorScore,
		},
		{
			name:    "empty title with targets configured",
			title:   "",
			orgType: domain.OrgTypeWater,
			want:    titleFloorScore,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scorer.Score(tt.title, tt.orgType); got != tt.want {
				t.Errorf("Score(%q, %q) = %f, want %f", tt.title, tt.orgType, got, tt.want)
			}
		})
	}
}
