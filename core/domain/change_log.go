package domain

import (
	"strings"
	"time"
)

// ActionType classifies a change-ledger entry.
type ActionType string

const (
	ActionCreateNode    ActionType = "create_node"
	ActionUpdateNode    ActionType = "update_node"
	ActionDeleteNode    ActionType = "delete_node"
	ActionRelinkNode    ActionType = "relink_node"
	ActionChangeRole    ActionType = "change_role"
	ActionChangePath    ActionType = "change_path"
	ActionCreateNetwork ActionType = "create_network"
)

// Label returns the display label used in notifications.
func (a ActionType) Label() string {
	switch a {
	case ActionCreateNode:
		return "Node Created"
	case ActionUpdateNode:
		return "Node Updated"
	case ActionDeleteNode:
		return "Node Deleted"
	case ActionRelinkNode:
		return "Node Relinked"
	case ActionChangeRole:
		return "Role Changed"
	case ActionChangePath:
		return "Path Changed"
	case ActionCreateNetwork:
		return "Network Created"
	default:
		return string(a)
	}
}

// Critical reports whether the action bypasses the per-network
// notification throttle.
func (a ActionType) Critical() bool {
	return a == ActionDeleteNode || a == ActionChangeRole
}

// NotificationStatus is the delivery state of a ledger entry's alert.
type NotificationStatus string

const (
	NotifyPending   NotificationStatus = "pending"
	NotifySuccess   NotificationStatus = "success"
	NotifyFailed    NotificationStatus = "failed"
	NotifyThrottled NotificationStatus = "throttled"
)

// Retryable reports whether a manual resend may target this state.
func (s NotificationStatus) Retryable() bool {
	return s == NotifyFailed || s == NotifyThrottled
}

// Rationale length bounds. Every graph write carries a human-written
// change note; optimization reasons require a longer minimum.
const (
	MinChangeNoteLen = 10
	MinReasonNoteLen = 20
	MaxNoteLen       = 2000
)

// ValidateNote checks a rationale against the given minimum trimmed
// length. Returns the trimmed note.
func ValidateNote(note string, minLen int) (string, bool) {
	trimmed := strings.TrimSpace(note)
	if len(trimmed) < minLen || len(trimmed) > MaxNoteLen {
		return trimmed, false
	}
	return trimmed, true
}

// FieldChange is one entry of a strict diff.
type FieldChange struct {
	Field  string `json:"field"`
	Before any    `json:"before"`
	After  any    `json:"after"`
}

// ChangeLog is an immutable ledger row for a graph write.
type ChangeLog struct {
	ID           string
	NetworkID    string
	BrandID      string
	EntryID      string
	ActionType   ActionType
	AffectedNode string

	ActorUserID string
	ActorEmail  string
	ChangeNote  string

	BeforeSnapshot *EntrySnapshot
	AfterSnapshot  *EntrySnapshot
	Changes        []FieldChange

	NotificationStatus NotificationStatus
	Archived           bool
	CreatedAt          time.Time
}
