package domain

import (
	"strings"
	"time"
)

// VisibilityMode controls who can see a network.
type VisibilityMode string

const (
	VisibilityBrandBased VisibilityMode = "brand_based"
	VisibilityRestricted VisibilityMode = "restricted"
)

// Network is a named SEO graph container belonging to one brand.
// Exactly one entry inside a network has the main role.
type Network struct {
	ID         string
	BrandID    string
	Name       string
	Status     string
	Visibility VisibilityMode
	ManagerIDs []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsManager reports whether the user manages this network.
func (n *Network) IsManager(userID string) bool {
	for _, id := range n.ManagerIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// DomainRole distinguishes the money site from its supporters.
type DomainRole string

const (
	RoleMain       DomainRole = "main"
	RoleSupporting DomainRole = "supporting"
)

// EntryStatus is how a node relates to its target.
type EntryStatus string

const (
	StatusPrimary     EntryStatus = "primary"
	StatusCanonical   EntryStatus = "canonical"
	Status301Redirect EntryStatus = "301_redirect"
	Status302Redirect EntryStatus = "302_redirect"
	StatusRestore     EntryStatus = "restore"
)

// Label returns the display label used in chains and notifications.
func (s EntryStatus) Label() string {
	switch s {
	case StatusPrimary:
		return "Primary"
	case StatusCanonical:
		return "Canonical"
	case Status301Redirect:
		return "301 Redirect"
	case Status302Redirect:
		return "302 Redirect"
	case StatusRestore:
		return "Restore"
	default:
		return string(s)
	}
}

// IsRedirect reports whether the status forwards authority to a target.
func (s EntryStatus) IsRedirect() bool {
	return s == Status301Redirect || s == Status302Redirect
}

// IsValidEntryStatus checks a raw status value.
func IsValidEntryStatus(s string) bool {
	switch EntryStatus(s) {
	case StatusPrimary, StatusCanonical, Status301Redirect, Status302Redirect, StatusRestore:
		return true
	}
	return false
}

// IndexStatus is the intended search-engine indexability of a node.
type IndexStatus string

const (
	IndexStatusIndex   IndexStatus = "index"
	IndexStatusNoindex IndexStatus = "noindex"
)

// NormalizePath canonicalizes an optimized path. Empty, whitespace-only
// and "/" collapse to "" (domain root). Otherwise the path gets a leading
// slash and loses any trailing slash.
func NormalizePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || p == "/" {
		return ""
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	for len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}

// StructureEntry is one vertex in a network's SEO graph: a domain plus an
// optimized path. TargetEntryID points at another entry in the same
// network; the main entry has no target.
type StructureEntry struct {
	ID            string
	NetworkID     string
	AssetDomainID string
	DomainName    string // denormalized for labels
	OptimizedPath string // normalized; "" is domain root

	Role        DomainRole
	Status      EntryStatus
	IndexStatus IndexStatus

	TargetEntryID string

	RankingPosition *int
	PrimaryKeyword  string
	RankingURL      string
	Notes           string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Label returns the human-readable node label: domain plus path.
func (e *StructureEntry) Label() string {
	if e.OptimizedPath == "" {
		return e.DomainName
	}
	return e.DomainName + e.OptimizedPath
}

// PathKey returns the uniqueness key component for the entry's path.
func (e *StructureEntry) PathKey() string {
	return NormalizePath(e.OptimizedPath)
}

// EntrySnapshot is the ledger-facing snapshot of a structure entry. All
// fields are plain values so snapshots serialize to stable documents.
type EntrySnapshot struct {
	EntryID         string `json:"entry_id,omitempty"`
	DomainName      string `json:"domain_name,omitempty"`
	OptimizedPath   string `json:"optimized_path,omitempty"`
	Role            string `json:"domain_role,omitempty"`
	Status          string `json:"domain_status,omitempty"`
	IndexStatus     string `json:"index_status,omitempty"`
	TargetEntryID   string `json:"target_entry_id,omitempty"`
	TargetLabel     string `json:"target_label,omitempty"`
	RankingPosition *int   `json:"ranking_position,omitempty"`
	PrimaryKeyword  string `json:"primary_keyword,omitempty"`
	RankingURL      string `json:"ranking_url,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

// Snapshot builds the ledger snapshot for the entry. targetLabel may be
// empty when the entry has no target.
func (e *StructureEntry) Snapshot(targetLabel string) *EntrySnapshot {
	return &EntrySnapshot{
		EntryID:         e.ID,
		DomainName:      e.DomainName,
		OptimizedPath:   e.OptimizedPath,
		Role:            string(e.Role),
		Status:          string(e.Status),
		IndexStatus:     string(e.IndexStatus),
		TargetEntryID:   e.TargetEntryID,
		TargetLabel:     targetLabel,
		RankingPosition: e.RankingPosition,
		PrimaryKeyword:  e.PrimaryKeyword,
		RankingURL:      e.RankingURL,
		Notes:           e.Notes,
	}
}

// TierOrphan is the reported tier for entries unreachable from main.
// Conceptually the tier is unbounded; displays group them as "Tier 5+".
const TierOrphan = 99

// TierLabel formats a computed tier for display.
func TierLabel(tier int) string {
	switch {
	case tier == 0:
		return "LP/Money Site"
	case tier >= 1 && tier <= 4:
		return "Tier " + string(rune('0'+tier))
	case tier >= 5 && tier < TierOrphan:
		return "Tier 5+"
	default:
		return "Orphan"
	}
}
