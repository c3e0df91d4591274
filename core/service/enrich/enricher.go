// Package enrich computes SEO context for a domain: where it sits in
// every network's graph, what depends on it, and how severe an outage
// or expiration would be.
package enrich

import (
	"context"
	"fmt"

	"github.com/official-panen138/seo-nexus/core/domain"
	"github.com/official-panen138/seo-nexus/core/port/out"
	"github.com/official-panen138/seo-nexus/core/service/graph"
)

// Reference is one structure entry using the probed domain, with its
// computed position in the network graph.
type Reference struct {
	Entry           *domain.StructureEntry
	NetworkID       string
	NetworkName     string
	Tier            int
	UpstreamChain   []graph.ChainHop
	ReachesMoney    bool
	DownstreamCount int
	DirectChildren  int
}

// Impact aggregates the SEO consequences of losing one domain.
type Impact struct {
	DomainID   string
	DomainName string

	References []Reference

	ReachesMoneySite  bool
	DownstreamNodes   int
	NetworksAffected  int
	HighestTierImpact int // minimum tier number among references; TierOrphan when none
	NodeRoleMain      bool
	Severity          domain.Severity
}

// Enricher loads graph context for domains.
type Enricher struct {
	entries  out.EntryRepository
	networks out.NetworkRepository
}

// New creates an enricher.
func New(entries out.EntryRepository, networks out.NetworkRepository) *Enricher {
	return &Enricher{entries: entries, networks: networks}
}

// ImpactFor computes the full SEO impact of a domain across every
// network that references it.
func (e *Enricher) ImpactFor(ctx context.Context, d *domain.AssetDomain) (*Impact, error) {
	refs, err := e.entries.ListByDomain(ctx, d.ID)
	if err != nil {
		return nil, err
	}

	impact := &Impact{
		DomainID:          d.ID,
		DomainName:        d.DomainName,
		HighestTierImpact: domain.TierOrphan,
	}
	if len(refs) == 0 {
		impact.Severity = domain.SeverityLow
		return impact, nil
	}

	byNetwork := map[string][]*domain.StructureEntry{}
	for _, r := range refs {
		byNetwork[r.NetworkID] = append(byNetwork[r.NetworkID], r)
	}
	impact.NetworksAffected = len(byNetwork)

	for networkID, networkRefs := range byNetwork {
		all, err := e.entries.ListByNetwork(ctx, networkID)
		if err != nil {
			return nil, err
		}
		g := graph.Build(all)

		networkName := networkID
		if n, err := e.networks.GetByID(ctx, networkID); err == nil {
			networkName = n.Name
		}

		for _, entry := range networkRefs {
			chain := g.ChainToMain(entry.ID)
			reaches := len(chain) > 0 && chain[len(chain)-1].EndReason == graph.EndMoneySite
			downstream := g.Downstream(entry.ID)

			ref := Reference{
				Entry:           entry,
				NetworkID:       networkID,
				NetworkName:     networkName,
				Tier:            g.Tier(entry.ID),
				UpstreamChain:   chain,
				ReachesMoney:    reaches,
				DownstreamCount: len(downstream),
				DirectChildren:  len(g.DirectChildren(entry.ID)),
			}
			impact.References = append(impact.References, ref)

			if entry.Role == domain.RoleMain {
				impact.NodeRoleMain = true
			}
			if reaches {
				impact.ReachesMoneySite = true
			}
			impact.DownstreamNodes += ref.DownstreamCount
			if ref.Tier < impact.HighestTierImpact {
				impact.HighestTierImpact = ref.Tier
			}
		}
	}

	impact.Severity = classify(impact)
	return impact, nil
}

// classify applies the severity ladder, strictest rule first.
func classify(impact *Impact) domain.Severity {
	tier := impact.HighestTierImpact
	switch {
	case impact.NodeRoleMain:
		return domain.SeverityCritical
	case tier == 1 && impact.ReachesMoneySite:
		return domain.SeverityCritical
	case tier == 1 || impact.DownstreamNodes >= 3:
		return domain.SeverityHigh
	case tier >= 2 && tier < domain.TierOrphan && impact.ReachesMoneySite:
		return domain.SeverityMedium
	default:
		return domain.SeverityLow
	}
}

// ChainText renders the first reference's upstream chain for
// notifications; empty when the domain is in no network.
func (i *Impact) ChainText() string {
	if len(i.References) == 0 {
		return ""
	}
	return graph.FormatChain(i.References[0].UpstreamChain)
}

// Vars returns the impact.* template variables.
func (i *Impact) Vars() map[string]any {
	highest := "-"
	if i.HighestTierImpact < domain.TierOrphan {
		highest = fmt.Sprintf("%d", i.HighestTierImpact)
	}
	return map[string]any{
		"severity":           i.Severity.Label(),
		"reaches_money_site": fmt.Sprintf("%t", i.ReachesMoneySite),
		"downstream_count":   fmt.Sprintf("%d", i.DownstreamNodes),
		"networks_affected":  fmt.Sprintf("%d", i.NetworksAffected),
		"highest_tier":       highest,
		"upstream_chain":     i.ChainText(),
	}
}
