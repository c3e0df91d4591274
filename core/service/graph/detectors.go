package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/official-panen138/seo-nexus/core/domain"
)

// Detect runs every conflict detector over the network graph. Output
// is ordered by severity, then type, then node label, so repeated runs
// over the same structure produce identical batches.
func Detect(g *Graph) []domain.DetectedConflict {
	var conflicts []domain.DetectedConflict
	conflicts = append(conflicts, detectKeywordCannibalization(g)...)
	conflicts = append(conflicts, detectCompetingTargets(g)...)
	conflicts = append(conflicts, detectCanonicalMismatch(g)...)
	conflicts = append(conflicts, detectTierInversion(g)...)
	conflicts = append(conflicts, detectRedirectLoops(g)...)
	conflicts = append(conflicts, detectMultipleParentsToMain(g)...)
	conflicts = append(conflicts, detectIndexNoindexMismatch(g)...)
	conflicts = append(conflicts, detectCanonicalRedirectConflict(g)...)
	conflicts = append(conflicts, detectOrphans(g)...)
	conflicts = append(conflicts, detectNoindexHighTier(g)...)

	sort.SliceStable(conflicts, func(i, j int) bool {
		a, b := conflicts[i], conflicts[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() < b.Severity.Rank()
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		return a.NodeALabel < b.NodeALabel
	})
	return conflicts
}

func newConflict(g *Graph, t domain.ConflictType, sev domain.Severity, a, b *domain.StructureEntry, desc, suggestion string) domain.DetectedConflict {
	c := domain.DetectedConflict{
		Type:        t,
		Severity:    sev,
		NodeAID:     a.ID,
		NodeALabel:  a.Label(),
		Description: desc,
		Suggestion:  suggestion,
		DomainID:    a.AssetDomainID,
		NodePath:    a.PathKey(),
		Tier:        g.Tier(a.ID),
	}
	if b != nil {
		c.NodeBID = b.ID
		c.NodeBLabel = b.Label()
		c.TargetPath = b.PathKey()
	}
	return c
}

// Pairwise detectors scan ordered pairs so (A,B) and (B,A) collapse to
// one conflict with the lexically smaller label as node A.
func orderPair(a, b *domain.StructureEntry) (*domain.StructureEntry, *domain.StructureEntry) {
	if a.Label() > b.Label() {
		return b, a
	}
	return a, b
}

func detectKeywordCannibalization(g *Graph) []domain.DetectedConflict {
	var conflicts []domain.DetectedConflict
	for i, a := range g.Entries {
		keywordA := strings.ToLower(strings.TrimSpace(a.PrimaryKeyword))
		if keywordA == "" {
			continue
		}
		for _, b := range g.Entries[i+1:] {
			if b.AssetDomainID != a.AssetDomainID {
				continue
			}
			if strings.ToLower(strings.TrimSpace(b.PrimaryKeyword)) != keywordA {
				continue
			}
			first, second := orderPair(a, b)
			conflicts = append(conflicts, newConflict(g,
				domain.ConflictKeywordCannibalization, domain.SeverityHigh, first, second,
				fmt.Sprintf("%s and %s both target keyword %q on the same domain", first.Label(), second.Label(), keywordA),
				"consolidate the pages or differentiate their primary keywords"))
		}
	}
	return conflicts
}

func detectCompetingTargets(g *Graph) []domain.DetectedConflict {
	var conflicts []domain.DetectedConflict
	for i, a := range g.Entries {
		if a.TargetEntryID == "" {
			continue
		}
		for _, b := range g.Entries[i+1:] {
			if b.AssetDomainID != a.AssetDomainID || b.TargetEntryID == "" {
				continue
			}
			if b.TargetEntryID == a.TargetEntryID {
				continue
			}
			first, second := orderPair(a, b)
			conflicts = append(conflicts, newConflict(g,
				domain.ConflictCompetingTargets, domain.SeverityMedium, first, second,
				fmt.Sprintf("%s and %s on the same domain point at different targets", first.Label(), second.Label()),
				"route the domain's authority through a single target"))
		}
	}
	return conflicts
}

func detectCanonicalMismatch(g *Graph) []domain.DetectedConflict {
	var conflicts []domain.DetectedConflict
	for _, e := range g.Entries {
		if !e.Status.IsRedirect() || e.TargetEntryID == "" {
			continue
		}
		target, ok := g.ByID[e.TargetEntryID]
		if !ok || target.IndexStatus != domain.IndexStatusIndex {
			continue
		}
		conflicts = append(conflicts, newConflict(g,
			domain.ConflictCanonicalMismatch, domain.SeverityHigh, e, target,
			fmt.Sprintf("%s (%s) redirects into indexed page %s", e.Label(), e.Status.Label(), target.Label()),
			"confirm the redirect target should stay indexed, or switch the source to canonical"))
	}
	return conflicts
}

func detectTierInversion(g *Graph) []domain.DetectedConflict {
	var conflicts []domain.DetectedConflict
	for _, e := range g.Entries {
		if e.Role != domain.RoleSupporting || e.TargetEntryID == "" {
			continue
		}
		target, ok := g.ByID[e.TargetEntryID]
		if !ok {
			continue
		}
		sourceTier, targetTier := g.Tier(e.ID), g.Tier(target.ID)
		if sourceTier >= domain.TierOrphan || targetTier >= domain.TierOrphan {
			continue
		}
		if targetTier > sourceTier {
			conflicts = append(conflicts, newConflict(g,
				domain.ConflictTierInversion, domain.SeverityCritical, e, target,
				fmt.Sprintf("tier %d node %s supports tier %d node %s", sourceTier, e.Label(), targetTier, target.Label()),
				"retarget the node so authority flows toward the money site"))
		}
	}
	return conflicts
}

func detectRedirectLoops(g *Graph) []domain.DetectedConflict {
	var conflicts []domain.DetectedConflict
	reported := map[string]bool{}

	for _, start := range g.Entries {
		if reported[start.ID] {
			continue
		}
		visited := map[string]bool{}
		current := start
		for current != nil && (current.Status.IsRedirect() || current.Status == domain.StatusCanonical) {
			if visited[current.ID] {
				// Loop found: report once, keyed by the smallest label
				// in the cycle so the conflict is stable across runs.
				cycle := collectCycle(g, current)
				anchor := cycle[0]
				if !reported[anchor.ID] {
					for _, member := range cycle {
						reported[member.ID] = true
					}
					var next *domain.StructureEntry
					if len(cycle) > 1 {
						next = cycle[1]
					}
					conflicts = append(conflicts, newConflict(g,
						domain.ConflictRedirectLoop, domain.SeverityCritical, anchor, next,
						fmt.Sprintf("redirect chain starting at %s loops back on itself", anchor.Label()),
						"break the loop by pointing one node at a primary page"))
				}
				break
			}
			visited[current.ID] = true
			current = g.ByID[current.TargetEntryID]
		}
	}
	return conflicts
}

// collectCycle walks the loop containing entry and returns its members
// rotated so the smallest label comes first.
func collectCycle(g *Graph, entry *domain.StructureEntry) []*domain.StructureEntry {
	var cycle []*domain.StructureEntry
	seen := map[string]bool{}
	current := entry
	for current != nil && !seen[current.ID] {
		seen[current.ID] = true
		cycle = append(cycle, current)
		current = g.ByID[current.TargetEntryID]
	}
	minIdx := 0
	for i, e := range cycle {
		if e.Label() < cycle[minIdx].Label() {
			minIdx = i
		}
	}
	return append(cycle[minIdx:], cycle[:minIdx]...)
}

func detectMultipleParentsToMain(g *Graph) []domain.DetectedConflict {
	if g.Main == nil {
		return nil
	}
	var parents []*domain.StructureEntry
	for _, e := range g.Children[g.Main.ID] {
		if e.Status.IsRedirect() || e.Status == domain.StatusCanonical {
			continue
		}
		parents = append(parents, e)
	}
	if len(parents) <= 1 {
		return nil
	}
	sort.Slice(parents, func(i, j int) bool { return parents[i].Label() < parents[j].Label() })
	labels := make([]string, len(parents))
	for i, p := range parents {
		labels[i] = p.Label()
	}
	c := newConflict(g,
		domain.ConflictMultipleParentsToMain, domain.SeverityMedium, parents[0], parents[1],
		fmt.Sprintf("%d primary nodes point directly at the main node: %s", len(parents), strings.Join(labels, ", ")),
		"funnel link equity through a single tier-1 hub")
	return []domain.DetectedConflict{c}
}

func detectIndexNoindexMismatch(g *Graph) []domain.DetectedConflict {
	var conflicts []domain.DetectedConflict
	for _, e := range g.Entries {
		if e.IndexStatus != domain.IndexStatusIndex || e.TargetEntryID == "" {
			continue
		}
		target, ok := g.ByID[e.TargetEntryID]
		if !ok || target.IndexStatus != domain.IndexStatusNoindex {
			continue
		}
		sourceTier, targetTier := g.Tier(e.ID), g.Tier(target.ID)
		if sourceTier >= domain.TierOrphan || targetTier >= sourceTier {
			continue
		}
		conflicts = append(conflicts, newConflict(g,
			domain.ConflictIndexNoindexMismatch, domain.SeverityHigh, e, target,
			fmt.Sprintf("indexed node %s (tier %d) feeds noindex node %s (tier %d)", e.Label(), sourceTier, target.Label(), targetTier),
			"set the upstream node to index or retarget the source"))
	}
	return conflicts
}

func detectCanonicalRedirectConflict(g *Graph) []domain.DetectedConflict {
	var conflicts []domain.DetectedConflict
	for _, a := range g.Entries {
		if a.Status != domain.StatusCanonical || a.TargetEntryID == "" {
			continue
		}
		b, ok := g.ByID[a.TargetEntryID]
		if !ok || b.AssetDomainID != a.AssetDomainID {
			continue
		}
		if !b.Status.IsRedirect() || b.TargetEntryID == "" {
			continue
		}
		conflicts = append(conflicts, newConflict(g,
			domain.ConflictCanonicalRedirectConflict, domain.SeverityHigh, a, b,
			fmt.Sprintf("%s canonicalizes to %s, which redirects elsewhere", a.Label(), b.Label()),
			"canonicalize straight to the redirect's final destination"))
	}
	return conflicts
}

func detectOrphans(g *Graph) []domain.DetectedConflict {
	var conflicts []domain.DetectedConflict
	for _, e := range g.Entries {
		if e.Role == domain.RoleMain || e.TargetEntryID != "" {
			continue
		}
		if !g.Orphan(e.ID) {
			continue
		}
		conflicts = append(conflicts, newConflict(g,
			domain.ConflictOrphan, domain.SeverityMedium, e, nil,
			fmt.Sprintf("%s has no target and is unreachable from the main node", e.Label()),
			"link the node into the structure or remove it"))
	}
	return conflicts
}

func detectNoindexHighTier(g *Graph) []domain.DetectedConflict {
	var conflicts []domain.DetectedConflict
	for _, e := range g.Entries {
		if e.IndexStatus != domain.IndexStatusNoindex {
			continue
		}
		tier := g.Tier(e.ID)
		if tier > 2 {
			continue
		}
		conflicts = append(conflicts, newConflict(g,
			domain.ConflictNoindexHighTier, domain.SeverityHigh, e, nil,
			fmt.Sprintf("noindex node %s sits at tier %d", e.Label(), tier),
			"high tiers should be indexable; review the noindex flag"))
	}
	return conflicts
}
