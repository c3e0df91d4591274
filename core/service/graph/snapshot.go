package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/official-panen138/seo-nexus/core/domain"
)

// Snapshot serializes the network structure for inclusion in a
// notification: nodes grouped by tier, main first then alphabetical
// within each group, each node annotated with its full authority chain.
func (g *Graph) Snapshot() string {
	groups := map[int][]*domain.StructureEntry{}
	for _, e := range g.Entries {
		tier := g.Tier(e.ID)
		switch {
		case tier >= domain.TierOrphan:
			tier = domain.TierOrphan
		case tier >= 5:
			tier = 5
		}
		groups[tier] = append(groups[tier], e)
	}

	var keys []int
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	var b strings.Builder
	for _, tier := range keys {
		nodes := groups[tier]
		sort.Slice(nodes, func(i, j int) bool {
			if (nodes[i].Role == domain.RoleMain) != (nodes[j].Role == domain.RoleMain) {
				return nodes[i].Role == domain.RoleMain
			}
			return nodes[i].Label() < nodes[j].Label()
		})

		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(domain.TierLabel(tier))
		b.WriteString("\n")
		for _, e := range nodes {
			b.WriteString("  ")
			b.WriteString(g.chainLine(e))
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// chainLine renders one node's authority chain up to the main node.
func (g *Graph) chainLine(e *domain.StructureEntry) string {
	chain := g.ChainToMain(e.ID)
	if len(chain) == 0 {
		return e.Label()
	}
	return FormatChain(chain)
}

// FormatChain renders an authority chain for notifications. Every hop
// shows its domain-status label in square brackets; a chain that ends
// somewhere other than the main node is tagged with the end reason.
func FormatChain(chain []ChainHop) string {
	parts := make([]string, 0, len(chain))
	for _, hop := range chain {
		if hop.IsEnd && hop.EndReason != EndMoneySite {
			parts = append(parts, fmt.Sprintf("%s [%s]", hop.NodeLabel, hop.EndReason))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s [%s]", hop.NodeLabel, hop.StatusLabel))
	}
	return strings.Join(parts, " → ")
}

// TierSummary renders a compact per-tier node count, e.g. "T0:1 T1:3".
func (g *Graph) TierSummary() string {
	counts := map[int]int{}
	for _, e := range g.Entries {
		tier := g.Tier(e.ID)
		if tier >= domain.TierOrphan {
			tier = domain.TierOrphan
		} else if tier > 5 {
			tier = 5
		}
		counts[tier]++
	}
	var keys []int
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	parts := make([]string, 0, len(keys))
	for _, tier := range keys {
		if tier >= domain.TierOrphan {
			parts = append(parts, fmt.Sprintf("Orphan:%d", counts[tier]))
			continue
		}
		parts = append(parts, fmt.Sprintf("T%d:%d", tier, counts[tier]))
	}
	return strings.Join(parts, " ")
}
