// Package graph implements the SEO graph engine: tier computation over
// target edges, structural invariants, conflict detection and the
// structure-snapshot formatter.
package graph

import (
	"sort"

	"github.com/official-panen138/seo-nexus/core/domain"
)

// Graph is an in-memory view of one network's entries. Tiers are
// recomputed on build; nothing here is persisted.
type Graph struct {
	Entries  []*domain.StructureEntry
	ByID     map[string]*domain.StructureEntry
	Children map[string][]*domain.StructureEntry // target id -> sources
	Main     *domain.StructureEntry
	Tiers    map[string]int
}

// Build indexes a network's entries and computes tiers.
func Build(entries []*domain.StructureEntry) *Graph {
	g := &Graph{
		Entries:  entries,
		ByID:     make(map[string]*domain.StructureEntry, len(entries)),
		Children: make(map[string][]*domain.StructureEntry),
	}
	for _, e := range entries {
		g.ByID[e.ID] = e
		if e.Role == domain.RoleMain {
			g.Main = e
		}
	}
	for _, e := range entries {
		if e.TargetEntryID != "" {
			g.Children[e.TargetEntryID] = append(g.Children[e.TargetEntryID], e)
		}
	}
	g.Tiers = computeTiers(g)
	return g
}

// computeTiers walks each entry's target chain toward the main node.
// Each node has at most one outgoing edge, so the tier is the chain
// length to tier 0; broken or cyclic chains get TierOrphan.
func computeTiers(g *Graph) map[string]int {
	tiers := make(map[string]int, len(g.Entries))

	var walk func(e *domain.StructureEntry, visiting map[string]bool) int
	walk = func(e *domain.StructureEntry, visiting map[string]bool) int {
		if tier, ok := tiers[e.ID]; ok {
			return tier
		}
		if e.Role == domain.RoleMain {
			tiers[e.ID] = 0
			return 0
		}
		if e.TargetEntryID == "" || visiting[e.ID] {
			tiers[e.ID] = domain.TierOrphan
			return domain.TierOrphan
		}
		target, ok := g.ByID[e.TargetEntryID]
		if !ok {
			tiers[e.ID] = domain.TierOrphan
			return domain.TierOrphan
		}
		visiting[e.ID] = true
		parentTier := walk(target, visiting)
		delete(visiting, e.ID)

		tier := domain.TierOrphan
		if parentTier < domain.TierOrphan {
			tier = parentTier + 1
			if tier > domain.TierOrphan {
				tier = domain.TierOrphan
			}
		}
		tiers[e.ID] = tier
		return tier
	}

	for _, e := range g.Entries {
		walk(e, map[string]bool{})
	}
	return tiers
}

// Tier returns the computed tier for an entry id.
func (g *Graph) Tier(id string) int {
	if tier, ok := g.Tiers[id]; ok {
		return tier
	}
	return domain.TierOrphan
}

// Orphan reports whether an entry is unreachable from the main node.
func (g *Graph) Orphan(id string) bool {
	return g.Tier(id) >= domain.TierOrphan
}

// ChainHop is one step of an authority chain.
type ChainHop struct {
	NodeLabel         string
	StatusLabel       string
	TargetLabel       string
	TargetStatusLabel string
	IsEnd             bool
	EndReason         string
}

// Chain end reasons.
const (
	EndMoneySite = "MONEY SITE"
	EndOrphan    = "ORPHAN NODE"
	EndCircular  = "CIRCULAR REFERENCE"
)

// ChainToMain walks an entry's target chain up to the main node,
// recording each hop. The walk stops at the main node, a missing
// target, or a cycle.
func (g *Graph) ChainToMain(id string) []ChainHop {
	var chain []ChainHop
	visited := map[string]bool{}

	current, ok := g.ByID[id]
	if !ok {
		return chain
	}
	for {
		if current.Role == domain.RoleMain {
			chain = append(chain, ChainHop{
				NodeLabel:   current.Label(),
				StatusLabel: current.Status.Label(),
				IsEnd:       true,
				EndReason:   EndMoneySite,
			})
			return chain
		}
		if visited[current.ID] {
			chain = append(chain, ChainHop{
				NodeLabel:   current.Label(),
				StatusLabel: current.Status.Label(),
				IsEnd:       true,
				EndReason:   EndCircular,
			})
			return chain
		}
		visited[current.ID] = true

		target, ok := g.ByID[current.TargetEntryID]
		if current.TargetEntryID == "" || !ok {
			chain = append(chain, ChainHop{
				NodeLabel:   current.Label(),
				StatusLabel: current.Status.Label(),
				IsEnd:       true,
				EndReason:   EndOrphan,
			})
			return chain
		}
		chain = append(chain, ChainHop{
			NodeLabel:         current.Label(),
			StatusLabel:       current.Status.Label(),
			TargetLabel:       target.Label(),
			TargetStatusLabel: target.Status.Label(),
		})
		current = target
	}
}

// Downstream returns every entry whose target chain resolves to the
// given entry, transitively.
func (g *Graph) Downstream(id string) []*domain.StructureEntry {
	var result []*domain.StructureEntry
	seen := map[string]bool{id: true}
	queue := []string{id}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, child := range g.Children[current] {
			if seen[child.ID] {
				continue
			}
			seen[child.ID] = true
			result = append(result, child)
			queue = append(queue, child.ID)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Label() < result[j].Label() })
	return result
}

// DirectChildren returns the entries pointing straight at the given
// entry.
func (g *Graph) DirectChildren(id string) []*domain.StructureEntry {
	children := append([]*domain.StructureEntry(nil), g.Children[id]...)
	sort.Slice(children, func(i, j int) bool { return children[i].Label() < children[j].Label() })
	return children
}
