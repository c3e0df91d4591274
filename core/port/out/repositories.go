// Package out defines outbound ports (driven ports) for the application.
package out

import (
	"context"
	"time"

	"github.com/official-panen138/seo-nexus/core/domain"
)

// =============================================================================
// Asset domains & brands
// =============================================================================

// DomainListOptions filters asset-domain queries.
type DomainListOptions struct {
	BrandID        string
	Status         *domain.DomainStatus
	PingStatus     *domain.PingStatus
	MonitoringOnly bool
	Search         string
	Limit          int
	Offset         int
}

// ProbeResult is the availability-engine write-back for one probe.
type ProbeResult struct {
	PingStatus    domain.PingStatus
	HTTPCode      int
	SoftBlockType domain.SoftBlockType
	DownReason    string
	CheckedAt     time.Time
}

// AssetDomainRepository stores registered domains.
type AssetDomainRepository interface {
	Save(ctx context.Context, d *domain.AssetDomain) error
	Update(ctx context.Context, d *domain.AssetDomain) error
	GetByID(ctx context.Context, id string) (*domain.AssetDomain, error)
	GetByName(ctx context.Context, name string) (*domain.AssetDomain, error)
	List(ctx context.Context, opts *DomainListOptions) ([]*domain.AssetDomain, int64, error)

	// Monitoring queries
	ListMonitored(ctx context.Context) ([]*domain.AssetDomain, error)
	ListExpiring(ctx context.Context, skipAutoRenew bool) ([]*domain.AssetDomain, error)
	ListByPingStatus(ctx context.Context, status domain.PingStatus) ([]*domain.AssetDomain, error)
	RecordProbe(ctx context.Context, id string, result *ProbeResult) error

	Delete(ctx context.Context, id string) error
}

// BrandRepository stores brands.
type BrandRepository interface {
	Save(ctx context.Context, b *domain.Brand) error
	GetByID(ctx context.Context, id string) (*domain.Brand, error)
	List(ctx context.Context) ([]*domain.Brand, error)
}

// =============================================================================
// Networks & structure entries
// =============================================================================

// NetworkRepository stores SEO networks.
type NetworkRepository interface {
	Save(ctx context.Context, n *domain.Network) error
	Update(ctx context.Context, n *domain.Network) error
	GetByID(ctx context.Context, id string) (*domain.Network, error)
	ListByBrand(ctx context.Context, brandID string) ([]*domain.Network, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Network, int64, error)
	Delete(ctx context.Context, id string) error
}

// EntryRepository stores structure entries. Entries belong to exactly
// one network and are removed with it.
type EntryRepository interface {
	Save(ctx context.Context, e *domain.StructureEntry) error
	Update(ctx context.Context, e *domain.StructureEntry) error
	GetByID(ctx context.Context, id string) (*domain.StructureEntry, error)
	ListByNetwork(ctx context.Context, networkID string) ([]*domain.StructureEntry, error)
	ListByDomain(ctx context.Context, assetDomainID string) ([]*domain.StructureEntry, error)
	ListTargeting(ctx context.Context, targetEntryID string) ([]*domain.StructureEntry, error)
	CountByDomain(ctx context.Context, assetDomainID string) (int64, error)
	Delete(ctx context.Context, id string) error
	DeleteByNetwork(ctx context.Context, networkID string) (int64, error)

	// DistinctMonitoredDomainIDs returns every asset_domain_id referenced
	// by at least one structure entry.
	DistinctDomainIDs(ctx context.Context) ([]string, error)
}

// =============================================================================
// Change ledger
// =============================================================================

// ChangeLogListOptions filters ledger queries.
type ChangeLogListOptions struct {
	NetworkID  string
	BrandID    string
	ActionType *domain.ActionType
	ActorEmail string
	Archived   *bool
	Limit      int
	Offset     int
}

// ChangeLogRepository stores the append-only change ledger.
type ChangeLogRepository interface {
	Save(ctx context.Context, log *domain.ChangeLog) error
	GetByID(ctx context.Context, id string) (*domain.ChangeLog, error)
	List(ctx context.Context, opts *ChangeLogListOptions) ([]*domain.ChangeLog, int64, error)
	SetNotificationStatus(ctx context.Context, id string, status domain.NotificationStatus) error
	Archive(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// =============================================================================
// Optimizations & complaints
// =============================================================================

// OptimizationListOptions filters optimization queries.
type OptimizationListOptions struct {
	NetworkID       string
	BrandID         string
	Status          *domain.OptimizationStatus
	ComplaintStatus *domain.ComplaintStatus
	ActivityType    string
	Limit           int
	Offset          int
}

// OptimizationRepository stores optimization work records.
type OptimizationRepository interface {
	Save(ctx context.Context, o *domain.Optimization) error
	Update(ctx context.Context, o *domain.Optimization) error
	GetByID(ctx context.Context, id string) (*domain.Optimization, error)
	List(ctx context.Context, opts *OptimizationListOptions) ([]*domain.Optimization, int64, error)
	ListInProgress(ctx context.Context) ([]*domain.Optimization, error)
	AddResponse(ctx context.Context, id string, resp *domain.TeamResponse) error
	SetReminderSentAt(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

// ComplaintRepository stores standalone complaint rows.
type ComplaintRepository interface {
	Save(ctx context.Context, c *domain.Complaint) error
	Update(ctx context.Context, c *domain.Complaint) error
	GetByID(ctx context.Context, id string) (*domain.Complaint, error)
	ListByOptimization(ctx context.Context, optimizationID string) ([]*domain.Complaint, error)
	ListByNetwork(ctx context.Context, networkID string) ([]*domain.Complaint, error)
	ListOpen(ctx context.Context) ([]*domain.Complaint, error)
}

// =============================================================================
// Conflicts
// =============================================================================

// ConflictListOptions filters conflict queries.
type ConflictListOptions struct {
	NetworkID  string
	Type       *domain.ConflictType
	Severity   *domain.Severity
	Status     *domain.ConflictStatus
	ActiveOnly bool
	Limit      int
	Offset     int
}

// ConflictRepository stores detected conflicts keyed by fingerprint.
// Rows are never deleted, only deactivated.
type ConflictRepository interface {
	Save(ctx context.Context, c *domain.Conflict) error
	Update(ctx context.Context, c *domain.Conflict) error
	GetByID(ctx context.Context, id string) (*domain.Conflict, error)
	GetByFingerprint(ctx context.Context, fingerprint string) (*domain.Conflict, error)
	GetByOptimization(ctx context.Context, optimizationID string) (*domain.Conflict, error)
	ListByNetwork(ctx context.Context, networkID string) ([]*domain.Conflict, error)
	List(ctx context.Context, opts *ConflictListOptions) ([]*domain.Conflict, int64, error)
	CountActive(ctx context.Context, networkID string) (int64, error)
}

// =============================================================================
// Templates, settings, audit, scheduler state
// =============================================================================

// TemplateRepository stores notification template overrides.
type TemplateRepository interface {
	Upsert(ctx context.Context, t *domain.Template) error
	Get(ctx context.Context, channel domain.Channel, event domain.EventType) (*domain.Template, error)
	List(ctx context.Context, channel string) ([]*domain.Template, error)
	Delete(ctx context.Context, channel domain.Channel, event domain.EventType) error
}

// SettingsRepository stores mutable settings rows. Values are read at
// every event so admin edits apply without restart.
type SettingsRepository interface {
	Get(ctx context.Context, key string, into any) (bool, error)
	Set(ctx context.Context, key string, value any, updatedBy string) error
}

// AuditListOptions filters audit queries.
type AuditListOptions struct {
	EventType  string
	ActorEmail string
	Resource   string
	Severity   *domain.AuditSeverity
	Success    *bool
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

// AuditRepository stores the append-only audit log.
type AuditRepository interface {
	Save(ctx context.Context, a *domain.AuditLog) error
	List(ctx context.Context, opts *AuditListOptions) ([]*domain.AuditLog, int64, error)
	Stats(ctx context.Context, sinceDays int) (*domain.AuditStats, error)
}

// SchedulerStateRepository stores per-job dedup marks so daily jobs run
// once across restarts.
type SchedulerStateRepository interface {
	// LastRun returns the recorded run time for a job key, or zero time.
	LastRun(ctx context.Context, key string) (time.Time, error)
	// MarkRun records a run; returns false when another worker already
	// marked a run inside the window.
	MarkRun(ctx context.Context, key string, at time.Time, window time.Duration) (bool, error)
}
