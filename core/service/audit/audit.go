// Package audit records privileged actions in an append-only trail.
// Recording never fails the action being audited; failures are logged.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/official-panen138/seo-nexus/core/domain"
	"github.com/official-panen138/seo-nexus/core/port/out"
	"github.com/official-panen138/seo-nexus/pkg/logger"
)

// Service writes and reads the audit trail.
type Service struct {
	repo out.AuditRepository
	log  *logger.Logger
}

// New creates the audit service.
func New(repo out.AuditRepository) *Service {
	return &Service{
		repo: repo,
		log:  logger.Default().WithField("component", "audit"),
	}
}

// Record appends an audit row. Best-effort: a storage failure is logged
// and swallowed so the audited action itself is unaffected.
func (s *Service) Record(ctx context.Context, actor domain.Actor, eventType, resource string, severity domain.AuditSeverity, success bool, details map[string]any) {
	row := &domain.AuditLog{
		ID:         uuid.New().String(),
		EventType:  eventType,
		ActorEmail: actor.Email,
		Resource:   resource,
		Details:    details,
		Severity:   severity,
		Success:    success,
		Timestamp:  time.Now(),
	}
	if err := s.repo.Save(ctx, row); err != nil {
		s.log.WithError(err).WithField("event_type", eventType).Error("audit write failed")
	}
}

// Info records a successful privileged action.
func (s *Service) Info(ctx context.Context, actor domain.Actor, eventType, resource string, details map[string]any) {
	s.Record(ctx, actor, eventType, resource, domain.AuditInfo, true, details)
}

// PermissionViolation records a rejected privileged attempt.
func (s *Service) PermissionViolation(ctx context.Context, actor domain.Actor, resource, attempted string) {
	s.Record(ctx, actor, domain.AuditPermissionViolation, resource, domain.AuditWarning, false, map[string]any{
		"attempted": attempted,
	})
}

// NotificationFailed records a notification delivery failure.
func (s *Service) NotificationFailed(ctx context.Context, event, reason string) {
	s.Record(ctx, domain.Actor{Email: "system"}, domain.AuditNotificationFailed, event, domain.AuditError, false, map[string]any{
		"reason": reason,
	})
}

// List returns audit rows matching the options.
func (s *Service) List(ctx context.Context, opts *out.AuditListOptions) ([]*domain.AuditLog, int64, error) {
	return s.repo.List(ctx, opts)
}

// Stats aggregates the trail over the trailing window.
func (s *Service) Stats(ctx context.Context, sinceDays int) (*domain.AuditStats, error) {
	if sinceDays <= 0 {
		sinceDays = 7
	}
	return s.repo.Stats(ctx, sinceDays)
}
