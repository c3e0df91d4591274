package seo

import (
	"context"
	"fmt"
	"strings"

	"github.com/official-panen138/seo-nexus/core/domain"
	"github.com/official-panen138/seo-nexus/core/service/graph"
	"github.com/official-panen138/seo-nexus/core/service/template"
)

// changeVars builds the template context for a graph-write
// notification. entries may be nil when the network view is not
// loaded; the structure groups then render empty.
func (s *Service) changeVars(ctx context.Context, actor domain.Actor, network *domain.Network, entry *domain.StructureEntry, row *domain.ChangeLog, entries []*domain.StructureEntry) template.Context {
	vars := template.Context{}
	vars.Group("actor", map[string]any{
		"email":   actor.Email,
		"name":    actor.Name,
		"user_id": actor.UserID,
	})

	brandName := network.BrandID
	if brand, err := s.brands.GetByID(ctx, network.BrandID); err == nil {
		brandName = brand.Name
	}
	vars.Group("brand", map[string]any{"id": network.BrandID, "name": brandName})
	vars.Group("network", map[string]any{
		"id":         network.ID,
		"name":       network.Name,
		"node_count": fmt.Sprintf("%d", len(entries)),
	})

	var g *graph.Graph
	if entries != nil {
		g = graph.Build(entries)
	}

	nodeVars := map[string]any{
		"label":        entry.Label(),
		"domain_name":  entry.DomainName,
		"path":         entry.OptimizedPath,
		"role":         string(entry.Role),
		"status":       entry.Status.Label(),
		"index_status": string(entry.IndexStatus),
		"keyword":      entry.PrimaryKeyword,
		"notes":        entry.Notes,
	}
	if entry.RankingPosition != nil {
		nodeVars["ranking_position"] = fmt.Sprintf("%d", *entry.RankingPosition)
	}
	if g != nil {
		tier := g.Tier(entry.ID)
		nodeVars["tier"] = fmt.Sprintf("%d", tier)
		nodeVars["tier_label"] = domain.TierLabel(tier)
		if target, ok := g.ByID[entry.TargetEntryID]; ok {
			nodeVars["target_label"] = target.Label()
		}
	}
	vars.Group("node", nodeVars)

	vars.Group("change", map[string]any{
		"action":       string(row.ActionType),
		"action_label": row.ActionType.Label(),
		"reason":       row.ChangeNote,
		"before":       snapshotText(row.BeforeSnapshot),
		"after":        snapshotText(row.AfterSnapshot),
		"details":      changesText(row.Changes),
		"timestamp":    row.CreatedAt.UTC().Format("2006-01-02 15:04"),
	})

	if g != nil {
		chain := g.ChainToMain(entry.ID)
		reaches := len(chain) > 0 && chain[len(chain)-1].EndReason == graph.EndMoneySite
		downstream := g.Downstream(entry.ID)
		severity := changeSeverity(g, entry, reaches, len(downstream))
		vars.Group("impact", map[string]any{
			"severity":           severity.Label(),
			"reaches_money_site": fmt.Sprintf("%t", reaches),
			"downstream_count":   fmt.Sprintf("%d", len(downstream)),
			"networks_affected":  "1",
			"highest_tier":       fmt.Sprintf("%d", g.Tier(entry.ID)),
			"upstream_chain":     graph.FormatChain(chain),
		})
		vars.Group("structure", map[string]any{
			"snapshot":     g.Snapshot(),
			"tier_summary": g.TierSummary(),
		})
	}
	return vars
}

func changeSeverity(g *graph.Graph, entry *domain.StructureEntry, reachesMoney bool, downstream int) domain.Severity {
	tier := g.Tier(entry.ID)
	switch {
	case entry.Role == domain.RoleMain:
		return domain.SeverityCritical
	case tier == 1 && reachesMoney:
		return domain.SeverityCritical
	case tier == 1 || downstream >= 3:
		return domain.SeverityHigh
	case tier >= 2 && tier < domain.TierOrphan && reachesMoney:
		return domain.SeverityMedium
	default:
		return domain.SeverityLow
	}
}

func snapshotText(snap *domain.EntrySnapshot) string {
	if snap == nil {
		return ""
	}
	parts := []string{}
	if snap.Role != "" {
		parts = append(parts, "role="+snap.Role)
	}
	if snap.Status != "" {
		parts = append(parts, "status="+snap.Status)
	}
	if snap.TargetLabel != "" {
		parts = append(parts, "target="+snap.TargetLabel)
	}
	if snap.OptimizedPath != "" {
		parts = append(parts, "path="+snap.OptimizedPath)
	}
	return strings.Join(parts, ", ")
}

func changesText(changes []domain.FieldChange) string {
	parts := make([]string, 0, len(changes))
	for _, c := range changes {
		parts = append(parts, fmt.Sprintf("%s: %v -> %v", c.Field, c.Before, c.After))
	}
	return strings.Join(parts, "; ")
}
