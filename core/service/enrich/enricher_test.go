package enrich

import (
	"testing"

	"github.com/official-panen138/seo-nexus/core/domain"
	"github.com/official-panen138/seo-nexus/core/service/graph"
)

func TestClassifySeverityLadder(t *testing.T) {
	tests := []struct {
		name   string
		impact Impact
		want   domain.Severity
	}{
		{
			name:   "main node is critical",
			impact: Impact{NodeRoleMain: true, HighestTierImpact: 0},
			want:   domain.SeverityCritical,
		},
		{
			name:   "tier 1 reaching money site is critical",
			impact: Impact{HighestTierImpact: 1, ReachesMoneySite: true},
			want:   domain.SeverityCritical,
		},
		{
			name:   "tier 1 without money reach is high",
			impact: Impact{HighestTierImpact: 1},
			want:   domain.SeverityHigh,
		},
		{
			name:   "deep node with wide downstream is high",
			impact: Impact{HighestTierImpact: 3, DownstreamNodes: 3},
			want:   domain.SeverityHigh,
		},
		{
			name:   "tier 2 reaching money site is medium",
			impact: Impact{HighestTierImpact: 2, ReachesMoneySite: true},
			want:   domain.SeverityMedium,
		},
		{
			name:   "orphan reaching nothing is low",
			impact: Impact{HighestTierImpact: domain.TierOrphan},
			want:   domain.SeverityLow,
		},
		{
			name:   "deep isolated node is low",
			impact: Impact{HighestTierImpact: 4, DownstreamNodes: 1},
			want:   domain.SeverityLow,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(&tt.impact); got != tt.want {
				t.Errorf("classify() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestChainText(t *testing.T) {
	impact := Impact{
		References: []Reference{{
			UpstreamChain: []graph.ChainHop{
				{NodeLabel: "a.com/blog", StatusLabel: "301 Redirect"},
				{NodeLabel: "hub.com", StatusLabel: "Canonical"},
				{NodeLabel: "money.com", StatusLabel: "Primary", IsEnd: true, EndReason: graph.EndMoneySite},
			},
		}},
	}
	got := impact.ChainText()
	want := "a.com/blog [301 Redirect] → hub.com [Canonical] → money.com [Primary]"
	if got != want {
		t.Errorf("ChainText() = %q, want %q", got, want)
	}

	empty := Impact{}
	if empty.ChainText() != "" {
		t.Error("ChainText with no references should be empty")
	}
}

func TestImpactVars(t *testing.T) {
	impact := Impact{
		Severity:          domain.SeverityHigh,
		ReachesMoneySite:  true,
		DownstreamNodes:   4,
		NetworksAffected:  2,
		HighestTierImpact: 1,
	}
	vars := impact.Vars()
	if vars["highest_tier"] != "1" {
		t.Errorf("highest_tier = %v", vars["highest_tier"])
	}
	if vars["reaches_money_site"] != "true" {
		t.Errorf("reaches_money_site = %v", vars["reaches_money_site"])
	}

	orphan := Impact{Severity: domain.SeverityLow, HighestTierImpact: domain.TierOrphan}
	if orphan.Vars()["highest_tier"] != "-" {
		t.Error("orphan impact should render highest_tier as dash")
	}
}
