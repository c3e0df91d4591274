package graph

import (
	"github.com/official-panen138/seo-nexus/core/domain"
	"github.com/official-panen138/seo-nexus/pkg/apperr"
)

// ValidateEntry checks the structural invariants for a candidate write
// against the network's current entries. candidate may be new or an
// update of an existing entry; siblings excludes the candidate itself.
// domainBrandID is the brand of the candidate's asset domain.
func ValidateEntry(candidate *domain.StructureEntry, siblings []*domain.StructureEntry, networkBrandID, domainBrandID string) error {
	if candidate.ID != "" && candidate.ID == candidate.TargetEntryID {
		return apperr.ValidationFailed("a node cannot target itself")
	}

	if domainBrandID != "" && networkBrandID != "" && domainBrandID != networkBrandID {
		return apperr.ValidationFailed("node domain must belong to the network's brand")
	}

	if candidate.Role == domain.RoleMain {
		if candidate.TargetEntryID != "" {
			return apperr.ValidationFailed("main node cannot have a target")
		}
		if candidate.Status != domain.StatusPrimary {
			return apperr.ValidationFailed("main node must have primary status")
		}
	}

	mainCount := 0
	if candidate.Role == domain.RoleMain {
		mainCount = 1
	}
	path := candidate.PathKey()
	for _, s := range siblings {
		if s.Role == domain.RoleMain {
			mainCount++
		}
		if s.AssetDomainID == candidate.AssetDomainID && s.PathKey() == path {
			return apperr.AlreadyExists("structure entry", candidate.DomainName+path)
		}
	}
	if mainCount > 1 {
		return apperr.ValidationFailed("network already has a main node")
	}
	if candidate.Role != domain.RoleMain && mainCount == 0 && len(siblings) == 0 {
		return apperr.ValidationFailed("first node in a network must be the main node")
	}

	if candidate.TargetEntryID != "" {
		found := false
		for _, s := range siblings {
			if s.ID == candidate.TargetEntryID {
				found = true
				break
			}
		}
		if !found {
			return apperr.ValidationFailed("target node must exist in the same network")
		}
	}
	return nil
}

// ValidateDelete checks that an entry may be removed: the main node is
// protected while other nodes remain.
func ValidateDelete(entry *domain.StructureEntry, siblings []*domain.StructureEntry) error {
	if entry.Role == domain.RoleMain && len(siblings) > 0 {
		return apperr.Conflict("cannot delete the main node while other nodes exist")
	}
	return nil
}
