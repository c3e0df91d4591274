package domain

import "time"

// AuditSeverity grades an audit event.
type AuditSeverity string

const (
	AuditInfo     AuditSeverity = "info"
	AuditWarning  AuditSeverity = "warning"
	AuditError    AuditSeverity = "error"
	AuditCritical AuditSeverity = "critical"
)

// Audit event types for privileged actions.
const (
	AuditTemplateUpdated     = "template_updated"
	AuditTemplateReset       = "template_reset"
	AuditTemplateToggled     = "template_toggled"
	AuditSettingsChanged     = "settings_changed"
	AuditPermissionViolation = "permission_violation"
	AuditNotificationFailed  = "notification_failed"
	AuditSEOChange           = "seo_change"
	AuditConflictApproved    = "conflict_approved"
)

// AuditLog is one append-only audit row.
type AuditLog struct {
	ID         string
	EventType  string
	ActorEmail string
	Resource   string
	Details    map[string]any
	Severity   AuditSeverity
	Success    bool
	Timestamp  time.Time
}

// AuditStats aggregates audit rows over a window.
type AuditStats struct {
	TotalEvents  int64            `json:"total_events"`
	FailureCount int64            `json:"failure_count"`
	ByEventType  map[string]int64 `json:"by_event_type"`
	BySeverity   map[string]int64 `json:"by_severity"`
	ByActor      map[string]int64 `json:"by_actor"`
	SinceDays    int              `json:"since_days"`
}
