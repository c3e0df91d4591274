package domain

import "time"

// Channel is a notification delivery channel.
type Channel string

const (
	ChannelTelegram Channel = "telegram"
	ChannelEmail    Channel = "email"
)

// IsValidChannel checks a raw channel value.
func IsValidChannel(s string) bool {
	return Channel(s) == ChannelTelegram || Channel(s) == ChannelEmail
}

// EventType keys a notification template per channel.
type EventType string

const (
	EventSEOChange          EventType = "seo_change"
	EventNetworkCreated     EventType = "seo_network_created"
	EventNodeDeleted        EventType = "seo_node_deleted"
	EventOptimizationCreate EventType = "optimization_created"
	EventOptimizationStatus EventType = "optimization_status_changed"
	EventComplaint          EventType = "complaint_created"
	EventConflictDetected   EventType = "conflict_detected"
	EventConflictRecurred   EventType = "conflict_recurred"
	EventConflictResolved   EventType = "conflict_resolved"
	EventOptReminder        EventType = "optimization_reminder"
	EventMonitoringReminder EventType = "monitoring_reminder"
	EventDomainExpiration   EventType = "domain_expiration"
	EventDomainDown         EventType = "domain_down"
	EventDomainRecovered    EventType = "domain_recovered"
	EventDomainSoftBlocked  EventType = "domain_soft_blocked"
	EventWeeklyDigest       EventType = "weekly_digest"
	EventTest               EventType = "test"
)

// TopicFamily maps an event to the chat sub-thread family used for
// forum-topic routing.
func (e EventType) TopicFamily() string {
	switch e {
	case EventSEOChange, EventNetworkCreated, EventNodeDeleted:
		return "seo_change"
	case EventOptimizationCreate, EventOptimizationStatus, EventConflictDetected,
		EventConflictRecurred, EventConflictResolved:
		return "seo_optimization"
	case EventComplaint:
		return "seo_complaint"
	case EventOptReminder, EventMonitoringReminder:
		return "seo_reminder"
	default:
		return ""
	}
}

// Template is a stored notification template. When no row exists for a
// (channel, event) pair the renderer falls back to the embedded default.
type Template struct {
	ID                  string
	Channel             Channel
	EventType           EventType
	Title               string
	TemplateBody        string
	DefaultTemplateBody string
	Enabled             bool
	UpdatedBy           string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
