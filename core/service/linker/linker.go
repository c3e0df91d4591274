// Package linker keeps conflicts and their remediation optimizations
// in sync: detection batches dedup by fingerprint, every new or
// recurring conflict gets a linked optimization, and optimization
// status changes flow back to the conflict.
package linker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/official-panen138/seo-nexus/core/domain"
	"github.com/official-panen138/seo-nexus/core/port/out"
	"github.com/official-panen138/seo-nexus/core/service/graph"
	"github.com/official-panen138/seo-nexus/core/service/notify"
	"github.com/official-panen138/seo-nexus/core/service/template"
	"github.com/official-panen138/seo-nexus/pkg/apperr"
	"github.com/official-panen138/seo-nexus/pkg/logger"
)

// Service links conflicts with optimizations.
type Service struct {
	conflicts     out.ConflictRepository
	optimizations out.OptimizationRepository
	networks      out.NetworkRepository
	entries       out.EntryRepository
	dispatcher    *notify.Dispatcher
	log           *logger.Logger
}

// New creates the linker service.
func New(conflicts out.ConflictRepository, optimizations out.OptimizationRepository, networks out.NetworkRepository, entries out.EntryRepository, dispatcher *notify.Dispatcher) *Service {
	return &Service{
		conflicts:     conflicts,
		optimizations: optimizations,
		networks:      networks,
		entries:       entries,
		dispatcher:    dispatcher,
		log:           logger.Default().WithField("component", "linker"),
	}
}

// Scan runs the conflict detectors over a network's current structure
// and ingests the batch.
func (s *Service) Scan(ctx context.Context, networkID string) (*IngestResult, error) {
	entries, err := s.entries.ListByNetwork(ctx, networkID)
	if err != nil {
		return nil, err
	}
	detected := graph.Detect(graph.Build(entries))
	return s.Ingest(ctx, networkID, detected)
}

// IngestResult summarizes one detection batch.
type IngestResult struct {
	New       int `json:"new"`
	Recurred  int `json:"recurred"`
	StillOpen int `json:"still_open"`
	Total     int `json:"total"`
}

// Ingest processes a detection batch for a network. Unknown
// fingerprints insert and get a linked optimization; fingerprints of
// closed conflicts reopen as recurrences with a fresh optimization;
// still-open matches only touch updated_at.
func (s *Service) Ingest(ctx context.Context, networkID string, detected []domain.DetectedConflict) (*IngestResult, error) {
	network, err := s.networks.GetByID(ctx, networkID)
	if err != nil {
		return nil, err
	}

	existing, err := s.conflicts.ListByNetwork(ctx, networkID)
	if err != nil {
		return nil, err
	}
	byFingerprint := make(map[string]*domain.Conflict, len(existing))
	for _, c := range existing {
		byFingerprint[c.Fingerprint] = c
	}

	result := &IngestResult{Total: len(detected)}
	now := time.Now()

	for i := range detected {
		d := &detected[i]
		fingerprint := Fingerprint(networkID, d)
		known, ok := byFingerprint[fingerprint]

		switch {
		case !ok:
			if err := s.insertNew(ctx, network, d, fingerprint, now); err != nil {
				return nil, err
			}
			result.New++

		case known.Closed():
			if err := s.reopen(ctx, network, known, d, now); err != nil {
				return nil, err
			}
			result.Recurred++

		default:
			known.UpdatedAt = now
			if err := s.conflicts.Update(ctx, known); err != nil {
				return nil, err
			}
			result.StillOpen++
		}
	}
	return result, nil
}

func (s *Service) insertNew(ctx context.Context, network *domain.Network, d *domain.DetectedConflict, fingerprint string, now time.Time) error {
	conflict := &domain.Conflict{
		ID:              uuid.New().String(),
		NetworkID:       network.ID,
		BrandID:         network.BrandID,
		Type:            d.Type,
		Severity:        d.Severity,
		Status:          domain.ConflictDetected,
		IsActive:        true,
		Fingerprint:     fingerprint,
		NodeAID:         d.NodeAID,
		NodeALabel:      d.NodeALabel,
		NodeBID:         d.NodeBID,
		NodeBLabel:      d.NodeBLabel,
		Description:     d.Description,
		Suggestion:      d.Suggestion,
		DetectedAt:      now,
		FirstDetectedAt: now,
		UpdatedAt:       now,
	}
	if err := s.conflicts.Save(ctx, conflict); err != nil {
		return err
	}

	opt, err := s.createLinkedOptimization(ctx, network, conflict, 0, now)
	if err != nil {
		return err
	}
	conflict.OptimizationID = opt.ID
	conflict.Status = domain.ConflictUnderReview
	if err := s.conflicts.Update(ctx, conflict); err != nil {
		return err
	}

	s.notifyConflict(ctx, network, conflict, opt, domain.EventConflictDetected)
	return nil
}

func (s *Service) reopen(ctx context.Context, network *domain.Network, conflict *domain.Conflict, d *domain.DetectedConflict, now time.Time) error {
	conflict.RecurrenceCount++
	conflict.LastRecurrenceAt = &now
	conflict.Status = domain.ConflictDetected
	conflict.IsActive = true
	conflict.OptimizationID = ""
	conflict.Severity = d.Severity
	conflict.Description = d.Description
	conflict.Suggestion = d.Suggestion
	conflict.DetectedAt = now
	conflict.ResolvedAt = nil
	conflict.ResolvedBy = ""
	conflict.ResolutionNote = ""
	conflict.UpdatedAt = now
	if err := s.conflicts.Update(ctx, conflict); err != nil {
		return err
	}

	opt, err := s.createLinkedOptimization(ctx, network, conflict, conflict.RecurrenceCount, now)
	if err != nil {
		return err
	}
	conflict.OptimizationID = opt.ID
	conflict.Status = domain.ConflictUnderReview
	if err := s.conflicts.Update(ctx, conflict); err != nil {
		return err
	}

	s.notifyConflict(ctx, network, conflict, opt, domain.EventConflictRecurred)
	return nil
}

// createLinkedOptimization builds the auto-generated remediation task.
func (s *Service) createLinkedOptimization(ctx context.Context, network *domain.Network, conflict *domain.Conflict, recurrence int, now time.Time) (*domain.Optimization, error) {
	title := fmt.Sprintf("[Conflict Resolution] %s", conflict.Type.Label())
	if recurrence > 0 {
		title = fmt.Sprintf("%s [RECURRING #%d]", title, recurrence)
	}
	description := conflict.Description
	if conflict.NodeBLabel != "" {
		description = fmt.Sprintf("%s (nodes: %s, %s)", description, conflict.NodeALabel, conflict.NodeBLabel)
	}
	if conflict.Suggestion != "" {
		description += "\nSuggestion: " + conflict.Suggestion
	}

	opt := &domain.Optimization{
		ID:               uuid.New().String(),
		NetworkID:        network.ID,
		BrandID:          network.BrandID,
		Title:            title,
		Description:      description,
		ReasonNote:       fmt.Sprintf("Auto-created from %s conflict detected on %s", conflict.Type, conflict.NodeALabel),
		ActivityType:     domain.ActivityTypeConflictResolution,
		Priority:         string(conflict.Severity),
		AffectedScope:    domain.ScopeSpecificDomain,
		TargetDomains:    []string{conflict.NodeALabel},
		ExpectedImpact:   []string{domain.ImpactAuthority},
		Status:           domain.OptPlanned,
		ComplaintStatus:  domain.ComplaintNone,
		LinkedConflictID: conflict.ID,
		CreatedBy:        "system",
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.optimizations.Save(ctx, opt); err != nil {
		return nil, err
	}
	return opt, nil
}

// List exposes conflict queries.
func (s *Service) List(ctx context.Context, opts *out.ConflictListOptions) ([]*domain.Conflict, int64, error) {
	return s.conflicts.List(ctx, opts)
}

// Get returns one conflict.
func (s *Service) Get(ctx context.Context, id string) (*domain.Conflict, error) {
	return s.conflicts.GetByID(ctx, id)
}

// SyncFromOptimization propagates an optimization status change to its
// linked conflict.
func (s *Service) SyncFromOptimization(ctx context.Context, opt *domain.Optimization, actor domain.Actor) error {
	if opt.LinkedConflictID == "" {
		return nil
	}
	conflict, err := s.conflicts.GetByID(ctx, opt.LinkedConflictID)
	if err != nil {
		return err
	}
	now := time.Now()

	switch opt.Status {
	case domain.OptCompleted:
		conflict.Status = domain.ConflictResolved
		conflict.IsActive = false
		conflict.ResolvedAt = &now
		conflict.ResolvedBy = actor.Email
	case domain.OptInProgress:
		conflict.Status = domain.ConflictUnderReview
	case domain.OptReverted:
		conflict.Status = domain.ConflictDetected
		conflict.IsActive = true
		conflict.ResolvedAt = nil
		conflict.ResolvedBy = ""
	default:
		return nil
	}
	conflict.UpdatedAt = now
	if err := s.conflicts.Update(ctx, conflict); err != nil {
		return err
	}

	if opt.Status == domain.OptCompleted {
		network, err := s.networks.GetByID(ctx, conflict.NetworkID)
		if err == nil {
			vars := s.conflictVars(network, conflict, opt)
			vars.Group("actor", map[string]any{"email": actor.Email})
			if _, err := s.dispatcher.SendTelegram(ctx, domain.EventConflictResolved, vars); err != nil {
				s.log.WithError(err).Warn("conflict resolution notification failed")
			}
		}
	}
	return nil
}

// Approve is the super-admin action: the conflict is accepted as
// intentional structure, deactivated with a reset recurrence count,
// and its linked optimization auto-completes.
func (s *Service) Approve(ctx context.Context, conflictID, note string, actor domain.Actor) (*domain.Conflict, error) {
	if !actor.SuperAdmin {
		return nil, apperr.Forbidden("conflict approval requires super admin")
	}
	conflict, err := s.conflicts.GetByID(ctx, conflictID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	conflict.Status = domain.ConflictApproved
	conflict.IsActive = false
	conflict.RecurrenceCount = 0
	conflict.ResolvedAt = &now
	conflict.ResolvedBy = actor.Email
	conflict.ResolutionNote = note
	conflict.UpdatedAt = now
	if err := s.conflicts.Update(ctx, conflict); err != nil {
		return nil, err
	}

	if conflict.OptimizationID != "" {
		opt, err := s.optimizations.GetByID(ctx, conflict.OptimizationID)
		if err == nil && opt.Open() {
			opt.Status = domain.OptCompleted
			opt.ClosedAt = &now
			opt.ClosedBy = actor.Email
			opt.UpdatedAt = now
			if err := s.optimizations.Update(ctx, opt); err != nil {
				s.log.WithError(err).Warn("failed to auto-complete linked optimization")
			}
		}
	}
	return conflict, nil
}

// Unlink detaches a deleted optimization from its conflict: the
// conflict reverts to detected, ready for a new optimization.
func (s *Service) Unlink(ctx context.Context, optimizationID string) error {
	conflict, err := s.conflicts.GetByOptimization(ctx, optimizationID)
	if err != nil {
		if apperr.AsAppError(err).Code == apperr.CodeNotFound {
			return nil
		}
		return err
	}
	conflict.Status = domain.ConflictDetected
	conflict.OptimizationID = ""
	conflict.IsActive = true
	conflict.UpdatedAt = time.Now()
	return s.conflicts.Update(ctx, conflict)
}

func (s *Service) notifyConflict(ctx context.Context, network *domain.Network, conflict *domain.Conflict, opt *domain.Optimization, event domain.EventType) {
	vars := s.conflictVars(network, conflict, opt)
	if _, err := s.dispatcher.SendTelegram(ctx, event, vars); err != nil {
		s.log.WithError(err).WithField("conflict_id", conflict.ID).Warn("conflict notification failed")
	}
}

func (s *Service) conflictVars(network *domain.Network, conflict *domain.Conflict, opt *domain.Optimization) template.Context {
	vars := template.Context{}
	vars.Group("network", map[string]any{"id": network.ID, "name": network.Name})
	vars.Group("conflict", map[string]any{
		"type":              string(conflict.Type),
		"severity":          conflict.Severity.Label(),
		"node_a":            conflict.NodeALabel,
		"node_b":            conflict.NodeBLabel,
		"description":       conflict.Description,
		"suggestion":        conflict.Suggestion,
		"recurrence_count":  fmt.Sprintf("%d", conflict.RecurrenceCount),
		"first_detected_at": conflict.FirstDetectedAt.UTC().Format("2006-01-02"),
	})
	if opt != nil {
		vars.Group("optimization", map[string]any{
			"id":    opt.ID,
			"title": opt.Title,
		})
	}
	return vars
}
