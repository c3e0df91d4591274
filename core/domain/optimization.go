package domain

import "time"

// OptimizationStatus tracks the working state of an optimization task.
type OptimizationStatus string

const (
	OptPlanned    OptimizationStatus = "planned"
	OptInProgress OptimizationStatus = "in_progress"
	OptCompleted  OptimizationStatus = "completed"
	OptReverted   OptimizationStatus = "reverted"
)

// IsValidOptimizationStatus checks a raw status value.
func IsValidOptimizationStatus(s string) bool {
	switch OptimizationStatus(s) {
	case OptPlanned, OptInProgress, OptCompleted, OptReverted:
		return true
	}
	return false
}

// ComplaintStatus is the complaint state carried on an optimization.
type ComplaintStatus string

const (
	ComplaintNone        ComplaintStatus = "none"
	ComplaintComplained  ComplaintStatus = "complained"
	ComplaintUnderReview ComplaintStatus = "under_review"
	ComplaintResolved    ComplaintStatus = "resolved"
)

// AffectedScope describes what part of the network an optimization touches.
type AffectedScope string

const (
	ScopeMoneySite      AffectedScope = "money_site"
	ScopeDomain         AffectedScope = "domain"
	ScopePath           AffectedScope = "path"
	ScopeWholeNetwork   AffectedScope = "whole_network"
	ScopeSpecificDomain AffectedScope = "specific_domain"
)

// Expected-impact dimensions.
const (
	ImpactRanking    = "ranking"
	ImpactAuthority  = "authority"
	ImpactCrawl      = "crawl"
	ImpactConversion = "conversion"
)

// ActivityTypeConflictResolution marks optimizations auto-created from
// detected conflicts.
const ActivityTypeConflictResolution = "conflict_resolution"

// ReportURL is an external evidence link with its observation start date.
type ReportURL struct {
	URL       string `json:"url"`
	StartDate string `json:"start_date"`
}

// TeamResponse is a threaded reply on an optimization.
type TeamResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	UserEmail string    `json:"user_email"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Optimization is a work-tracking record for an SEO intervention.
type Optimization struct {
	ID        string
	NetworkID string
	BrandID   string

	Title        string
	Description  string
	ReasonNote   string
	ActivityType string
	Priority     string

	AffectedScope  AffectedScope
	TargetDomains  []string
	Keywords       []string
	ReportURLs     []ReportURL
	ExpectedImpact []string
	ObservedImpact string

	Status          OptimizationStatus
	ComplaintStatus ComplaintStatus

	LinkedConflictID string

	Responses []TeamResponse

	LastReminderSentAt *time.Time

	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
	ClosedAt  *time.Time
	ClosedBy  string
}

// Open reports whether the optimization still needs work.
func (o *Optimization) Open() bool {
	return o.Status == OptPlanned || o.Status == OptInProgress
}

// ProjectComplaintStatus is the state of a standalone complaint row.
type ProjectComplaintStatus string

const (
	ComplaintOpen           ProjectComplaintStatus = "open"
	ComplaintInReview       ProjectComplaintStatus = "under_review"
	ComplaintStatusResolved ProjectComplaintStatus = "resolved"
)

// Complaint is a quality complaint raised against an optimization, or
// against a network directly when OptimizationID is empty.
type Complaint struct {
	ID             string
	OptimizationID string
	NetworkID      string
	BrandID        string

	Reason             string
	Priority           string
	ResponsibleUserIDs []string

	Status                ProjectComplaintStatus
	ResolvedAt            *time.Time
	ResolvedBy            string
	ResolutionNote        string
	TimeToResolutionHours *float64

	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Resolve closes the complaint and records time-to-resolution.
func (c *Complaint) Resolve(by, note string, now time.Time) {
	c.Status = ComplaintStatusResolved
	c.ResolvedAt = &now
	c.ResolvedBy = by
	c.ResolutionNote = note
	hours := now.Sub(c.CreatedAt).Hours()
	c.TimeToResolutionHours = &hours
	c.UpdatedAt = now
}
