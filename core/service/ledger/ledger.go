// Package ledger implements the change ledger and its write pipeline:
// rationale validation, strict diffing, ledger persistence and the
// best-effort templated notification that follows every graph write.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/official-panen138/seo-nexus/core/domain"
	"github.com/official-panen138/seo-nexus/core/port/out"
	"github.com/official-panen138/seo-nexus/core/service/notify"
	"github.com/official-panen138/seo-nexus/core/service/template"
	"github.com/official-panen138/seo-nexus/pkg/apperr"
	"github.com/official-panen138/seo-nexus/pkg/logger"
	"github.com/official-panen138/seo-nexus/pkg/ratelimit"
)

// Service owns ledger rows and their notifications.
type Service struct {
	logs       out.ChangeLogRepository
	dispatcher *notify.Dispatcher
	throttle   *ratelimit.NotifyThrottle
	log        *logger.Logger
}

// New creates the ledger service.
func New(logs out.ChangeLogRepository, dispatcher *notify.Dispatcher, throttle *ratelimit.NotifyThrottle) *Service {
	return &Service{
		logs:       logs,
		dispatcher: dispatcher,
		throttle:   throttle,
		log:        logger.Default().WithField("component", "ledger"),
	}
}

// ValidateChangeNote checks an SEO change rationale.
func ValidateChangeNote(note string) (string, error) {
	trimmed, ok := domain.ValidateNote(note, domain.MinChangeNoteLen)
	if !ok {
		return "", apperr.RationaleTooShort("change_note", domain.MinChangeNoteLen)
	}
	return trimmed, nil
}

// ValidateReasonNote checks an optimization rationale.
func ValidateReasonNote(note string) (string, error) {
	trimmed, ok := domain.ValidateNote(note, domain.MinReasonNoteLen)
	if !ok {
		return "", apperr.RationaleTooShort("reason_note", domain.MinReasonNoteLen)
	}
	return trimmed, nil
}

// ValidateResolutionNote checks a resolution rationale.
func ValidateResolutionNote(note string) (string, error) {
	trimmed, ok := domain.ValidateNote(note, domain.MinChangeNoteLen)
	if !ok {
		return "", apperr.RationaleTooShort("resolution_note", domain.MinChangeNoteLen)
	}
	return trimmed, nil
}

// Diff compares the tracked fields of two snapshots. A write whose
// diff is empty is a no-change save and must be rejected.
func Diff(before, after *domain.EntrySnapshot) []domain.FieldChange {
	var changes []domain.FieldChange
	add := func(field string, b, a any) {
		if fmt.Sprint(b) != fmt.Sprint(a) {
			changes = append(changes, domain.FieldChange{Field: field, Before: b, After: a})
		}
	}
	add("optimized_path", before.OptimizedPath, after.OptimizedPath)
	add("domain_role", before.Role, after.Role)
	add("domain_status", before.Status, after.Status)
	add("index_status", before.IndexStatus, after.IndexStatus)
	add("target_entry_id", before.TargetEntryID, after.TargetEntryID)
	add("ranking_position", derefInt(before.RankingPosition), derefInt(after.RankingPosition))
	add("primary_keyword", before.PrimaryKeyword, after.PrimaryKeyword)
	add("ranking_url", before.RankingURL, after.RankingURL)
	add("notes", before.Notes, after.Notes)
	return changes
}

func derefInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

// ClassifyAction derives the ledger action type from a diff: role
// changes dominate, then path changes, then a pure relink; everything
// else is a generic update.
func ClassifyAction(changes []domain.FieldChange) domain.ActionType {
	var hasRole, hasPath, hasOther bool
	targetOnly := len(changes) > 0
	for _, c := range changes {
		switch c.Field {
		case "domain_role":
			hasRole = true
			targetOnly = false
		case "optimized_path":
			hasPath = true
			targetOnly = false
		case "target_entry_id":
		default:
			hasOther = true
			targetOnly = false
		}
	}
	switch {
	case hasRole:
		return domain.ActionChangeRole
	case hasPath:
		return domain.ActionChangePath
	case targetOnly && !hasOther:
		return domain.ActionRelinkNode
	default:
		return domain.ActionUpdateNode
	}
}

// Entry is the input for one ledger write.
type Entry struct {
	NetworkID    string
	BrandID      string
	EntryID      string
	ActionType   domain.ActionType
	AffectedNode string
	ActorUserID  string
	ActorEmail   string
	ChangeNote   string

	Before  *domain.EntrySnapshot
	After   *domain.EntrySnapshot
	Changes []domain.FieldChange
}

// Record appends a ledger row with notification_status pending. The
// caller has already persisted the entity; a failed ledger write is
// surfaced so the caller can compensate.
func (s *Service) Record(ctx context.Context, e *Entry) (*domain.ChangeLog, error) {
	row := &domain.ChangeLog{
		ID:                 uuid.New().String(),
		NetworkID:          e.NetworkID,
		BrandID:            e.BrandID,
		EntryID:            e.EntryID,
		ActionType:         e.ActionType,
		AffectedNode:       e.AffectedNode,
		ActorUserID:        e.ActorUserID,
		ActorEmail:         e.ActorEmail,
		ChangeNote:         e.ChangeNote,
		BeforeSnapshot:     e.Before,
		AfterSnapshot:      e.After,
		Changes:            e.Changes,
		NotificationStatus: domain.NotifyPending,
		CreatedAt:          time.Now(),
	}
	if err := s.logs.Save(ctx, row); err != nil {
		return nil, err
	}
	return row, nil
}

// Notify sends the ledger row's notification and records delivery.
// Per-network sends are throttled to one per minute; critical actions
// bypass the throttle. Failure never rolls back the business write.
func (s *Service) Notify(ctx context.Context, row *domain.ChangeLog, event domain.EventType, vars template.Context) {
	if !s.throttle.Allow(ctx, row.NetworkID, row.ActionType.Critical()) {
		s.log.WithFields(map[string]any{"network_id": row.NetworkID, "change_log_id": row.ID}).
			Debug("notification throttled")
		s.markDelivery(ctx, row, domain.NotifyThrottled)
		return
	}

	sent, err := s.dispatcher.SendTelegram(ctx, event, vars)
	if err != nil || !sent {
		if err != nil {
			s.log.WithError(err).WithField("change_log_id", row.ID).Error("ledger notification failed")
		}
		status := domain.NotifyFailed
		if err == nil {
			// Channel disabled or template off: nothing to deliver.
			status = domain.NotifySuccess
		}
		s.markDelivery(ctx, row, status)
		return
	}
	s.markDelivery(ctx, row, domain.NotifySuccess)
}

// Retry re-sends a failed or throttled ledger notification on operator
// request, bypassing the throttle.
func (s *Service) Retry(ctx context.Context, id string, event domain.EventType, vars template.Context) (*domain.ChangeLog, error) {
	row, err := s.logs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !row.NotificationStatus.Retryable() {
		return nil, apperr.Conflict("notification is not in a retryable state")
	}
	sent, err := s.dispatcher.SendTelegram(ctx, event, vars)
	if err != nil || !sent {
		s.markDelivery(ctx, row, domain.NotifyFailed)
		if err != nil {
			return nil, apperr.ExternalError("telegram", err)
		}
		return nil, apperr.Conflict("notification channel is not configured")
	}
	s.markDelivery(ctx, row, domain.NotifySuccess)
	return row, nil
}

// Compensate removes a ledger row after a failed downstream step in
// the logical entity+ledger unit.
func (s *Service) Compensate(ctx context.Context, id string) {
	if err := s.logs.Delete(ctx, id); err != nil {
		s.log.WithError(err).WithField("change_log_id", id).Error("ledger compensation failed")
	}
}

// List exposes ledger queries.
func (s *Service) List(ctx context.Context, opts *out.ChangeLogListOptions) ([]*domain.ChangeLog, int64, error) {
	return s.logs.List(ctx, opts)
}

// Get returns one ledger row.
func (s *Service) Get(ctx context.Context, id string) (*domain.ChangeLog, error) {
	return s.logs.GetByID(ctx, id)
}

// Archive soft-hides a ledger row from default listings. Rows are never
// hard-deleted through the API.
func (s *Service) Archive(ctx context.Context, id string) error {
	if _, err := s.logs.GetByID(ctx, id); err != nil {
		return err
	}
	return s.logs.Archive(ctx, id)
}

func (s *Service) markDelivery(ctx context.Context, row *domain.ChangeLog, status domain.NotificationStatus) {
	row.NotificationStatus = status
	if err := s.logs.SetNotificationStatus(ctx, row.ID, status); err != nil {
		s.log.WithError(err).WithField("change_log_id", row.ID).Error("failed to record delivery state")
	}
}
