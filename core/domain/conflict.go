package domain

import "time"

// ConflictType identifies which detector produced a conflict.
type ConflictType string

const (
	ConflictKeywordCannibalization    ConflictType = "keyword_cannibalization"
	ConflictCompetingTargets          ConflictType = "competing_targets"
	ConflictCanonicalMismatch         ConflictType = "canonical_mismatch"
	ConflictTierInversion             ConflictType = "tier_inversion"
	ConflictRedirectLoop              ConflictType = "redirect_loop"
	ConflictMultipleParentsToMain     ConflictType = "multiple_parents_to_main"
	ConflictIndexNoindexMismatch      ConflictType = "index_noindex_mismatch"
	ConflictCanonicalRedirectConflict ConflictType = "canonical_redirect_conflict"
	ConflictOrphan                    ConflictType = "orphan"
	ConflictNoindexHighTier           ConflictType = "noindex_high_tier"
)

// Label returns the human-readable conflict type name used in task
// titles and notifications.
func (t ConflictType) Label() string {
	switch t {
	case ConflictKeywordCannibalization:
		return "Keyword Cannibalization"
	case ConflictCompetingTargets:
		return "Competing Targets"
	case ConflictCanonicalMismatch:
		return "Canonical Mismatch"
	case ConflictTierInversion:
		return "Tier Inversion"
	case ConflictRedirectLoop:
		return "Redirect Loop"
	case ConflictMultipleParentsToMain:
		return "Multiple Parents To Main"
	case ConflictIndexNoindexMismatch:
		return "Index/Noindex Mismatch"
	case ConflictCanonicalRedirectConflict:
		return "Canonical Redirect Conflict"
	case ConflictOrphan:
		return "Orphan Node"
	case ConflictNoindexHighTier:
		return "Noindex High Tier"
	default:
		return string(t)
	}
}

// ConflictStatus tracks a conflict through triage.
type ConflictStatus string

const (
	ConflictDetected    ConflictStatus = "detected"
	ConflictUnderReview ConflictStatus = "under_review"
	ConflictResolved    ConflictStatus = "resolved"
	ConflictApproved    ConflictStatus = "approved"
	ConflictIgnored     ConflictStatus = "ignored"
)

// IsValidConflictStatus checks a raw status value.
func IsValidConflictStatus(s string) bool {
	switch ConflictStatus(s) {
	case ConflictDetected, ConflictUnderReview, ConflictResolved, ConflictApproved, ConflictIgnored:
		return true
	}
	return false
}

// DetectedConflict is raw detector output, before fingerprint dedup.
type DetectedConflict struct {
	Type     ConflictType
	Severity Severity

	NodeAID    string
	NodeALabel string
	NodeBID    string
	NodeBLabel string

	Description string
	Suggestion  string

	// Fingerprint inputs beyond node identity.
	DomainID   string
	NodePath   string
	Tier       int
	TargetPath string
}

// Conflict is a stored conflict row. Conflicts are never deleted; they
// deactivate when resolved, approved or ignored and reactivate on
// recurrence.
type Conflict struct {
	ID        string
	NetworkID string
	BrandID   string

	Type     ConflictType
	Severity Severity
	Status   ConflictStatus
	IsActive bool

	Fingerprint string

	NodeAID    string
	NodeALabel string
	NodeBID    string
	NodeBLabel string

	Description string
	Suggestion  string

	DetectedAt       time.Time
	FirstDetectedAt  time.Time
	LastRecurrenceAt *time.Time
	RecurrenceCount  int

	OptimizationID string

	ResolvedAt     *time.Time
	ResolvedBy     string
	ResolutionNote string

	UpdatedAt time.Time
}

// Closed reports whether the conflict is in a terminal triage state.
// A recurrence of a closed conflict reopens it.
func (c *Conflict) Closed() bool {
	switch c.Status {
	case ConflictResolved, ConflictApproved, ConflictIgnored:
		return true
	}
	return false
}
