// Package optimization manages SEO work-tracking records and their
// complaints. Status changes cross-sync to linked conflicts.
package optimization

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/official-panen138/seo-nexus/core/domain"
	"github.com/official-panen138/seo-nexus/core/port/out"
	"github.com/official-panen138/seo-nexus/core/service/ledger"
	"github.com/official-panen138/seo-nexus/core/service/linker"
	"github.com/official-panen138/seo-nexus/core/service/notify"
	"github.com/official-panen138/seo-nexus/core/service/template"
	"github.com/official-panen138/seo-nexus/pkg/apperr"
	"github.com/official-panen138/seo-nexus/pkg/logger"
)

// Service owns optimizations and complaints.
type Service struct {
	optimizations out.OptimizationRepository
	complaints    out.ComplaintRepository
	networks      out.NetworkRepository
	linker        *linker.Service
	dispatcher    *notify.Dispatcher
	log           *logger.Logger
}

// New creates the optimization service.
func New(optimizations out.OptimizationRepository, complaints out.ComplaintRepository, networks out.NetworkRepository, linkerSvc *linker.Service, dispatcher *notify.Dispatcher) *Service {
	return &Service{
		optimizations: optimizations,
		complaints:    complaints,
		networks:      networks,
		linker:        linkerSvc,
		dispatcher:    dispatcher,
		log:           logger.Default().WithField("component", "optimization"),
	}
}

// CreateInput is the write payload for an optimization.
type CreateInput struct {
	NetworkID      string
	Title          string
	Description    string
	ReasonNote     string
	ActivityType   string
	Priority       string
	AffectedScope  domain.AffectedScope
	TargetDomains  []string
	Keywords       []string
	ReportURLs     []domain.ReportURL
	ExpectedImpact []string
}

// Create validates the rationale and stores a new optimization.
func (s *Service) Create(ctx context.Context, actor domain.Actor, input *CreateInput) (*domain.Optimization, error) {
	reason, err := ledger.ValidateReasonNote(input.ReasonNote)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, apperr.MissingField("title")
	}
	network, err := s.networks.GetByID(ctx, input.NetworkID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	opt := &domain.Optimization{
		ID:              uuid.New().String(),
		NetworkID:       network.ID,
		BrandID:         network.BrandID,
		Title:           input.Title,
		Description:     input.Description,
		ReasonNote:      reason,
		ActivityType:    input.ActivityType,
		Priority:        input.Priority,
		AffectedScope:   input.AffectedScope,
		TargetDomains:   input.TargetDomains,
		Keywords:        input.Keywords,
		ReportURLs:      input.ReportURLs,
		ExpectedImpact:  input.ExpectedImpact,
		Status:          domain.OptPlanned,
		ComplaintStatus: domain.ComplaintNone,
		CreatedBy:       actor.Email,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.optimizations.Save(ctx, opt); err != nil {
		return nil, err
	}

	vars := s.optimizationVars(network, opt)
	if _, err := s.dispatcher.SendTelegram(ctx, domain.EventOptimizationCreate, vars); err != nil {
		s.log.WithError(err).WithField("optimization_id", opt.ID).Warn("creation notification failed")
	}
	return opt, nil
}

// ChangeStatus moves an optimization through its lifecycle and
// cross-syncs the linked conflict.
func (s *Service) ChangeStatus(ctx context.Context, actor domain.Actor, id string, status domain.OptimizationStatus, note string) (*domain.Optimization, error) {
	if !domain.IsValidOptimizationStatus(string(status)) {
		return nil, apperr.InvalidInput("status", "unknown status")
	}
	opt, err := s.optimizations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if opt.Status == status {
		return nil, apperr.NoChanges()
	}

	now := time.Now()
	opt.Status = status
	opt.UpdatedAt = now
	if status == domain.OptCompleted || status == domain.OptReverted {
		opt.ClosedAt = &now
		opt.ClosedBy = actor.Email
	} else {
		opt.ClosedAt = nil
		opt.ClosedBy = ""
	}
	if err := s.optimizations.Update(ctx, opt); err != nil {
		return nil, err
	}

	if err := s.linker.SyncFromOptimization(ctx, opt, actor); err != nil {
		s.log.WithError(err).WithField("optimization_id", opt.ID).Error("conflict cross-sync failed")
	}

	if network, err := s.networks.GetByID(ctx, opt.NetworkID); err == nil {
		vars := s.optimizationVars(network, opt)
		vars.Group("actor", map[string]any{"email": actor.Email})
		vars.Group("change", map[string]any{"reason": note})
		if _, err := s.dispatcher.SendTelegram(ctx, domain.EventOptimizationStatus, vars); err != nil {
			s.log.WithError(err).Warn("status notification failed")
		}
	}
	return opt, nil
}

// AddResponse appends a team reply to an optimization thread.
func (s *Service) AddResponse(ctx context.Context, actor domain.Actor, id, message string) (*domain.TeamResponse, error) {
	if strings.TrimSpace(message) == "" {
		return nil, apperr.MissingField("message")
	}
	resp := &domain.TeamResponse{
		ID:        uuid.New().String(),
		UserID:    actor.UserID,
		UserEmail: actor.Email,
		Message:   message,
		CreatedAt: time.Now(),
	}
	if err := s.optimizations.AddResponse(ctx, id, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Delete removes an optimization. Super-admin only; the linked
// conflict is detached and reverts to detected.
func (s *Service) Delete(ctx context.Context, actor domain.Actor, id string) error {
	if !actor.SuperAdmin {
		return apperr.Forbidden("optimization deletion requires super admin")
	}
	if err := s.linker.Unlink(ctx, id); err != nil {
		return err
	}
	return s.optimizations.Delete(ctx, id)
}

// Get returns one optimization.
func (s *Service) Get(ctx context.Context, id string) (*domain.Optimization, error) {
	return s.optimizations.GetByID(ctx, id)
}

// List returns optimizations matching the options.
func (s *Service) List(ctx context.Context, opts *out.OptimizationListOptions) ([]*domain.Optimization, int64, error) {
	return s.optimizations.List(ctx, opts)
}

// =============================================================================
// Complaints
// =============================================================================

// ComplaintInput is the write payload for a complaint.
type ComplaintInput struct {
	OptimizationID     string
	NetworkID          string
	Reason             string
	Priority           string
	ResponsibleUserIDs []string
}

// Complain raises a complaint against an optimization, or against a
// network directly when OptimizationID is empty.
func (s *Service) Complain(ctx context.Context, actor domain.Actor, input *ComplaintInput) (*domain.Complaint, error) {
	reason, err := ledger.ValidateChangeNote(input.Reason)
	if err != nil {
		return nil, err
	}
	if input.OptimizationID == "" && input.NetworkID == "" {
		return nil, apperr.MissingField("optimization_id or network_id")
	}

	now := time.Now()
	complaint := &domain.Complaint{
		ID:                 uuid.New().String(),
		OptimizationID:     input.OptimizationID,
		NetworkID:          input.NetworkID,
		Reason:             reason,
		Priority:           input.Priority,
		ResponsibleUserIDs: input.ResponsibleUserIDs,
		Status:             domain.ComplaintOpen,
		CreatedBy:          actor.Email,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	var opt *domain.Optimization
	if input.OptimizationID != "" {
		opt, err = s.optimizations.GetByID(ctx, input.OptimizationID)
		if err != nil {
			return nil, err
		}
		complaint.NetworkID = opt.NetworkID
		complaint.BrandID = opt.BrandID
	}

	if err := s.complaints.Save(ctx, complaint); err != nil {
		return nil, err
	}

	if opt != nil {
		opt.ComplaintStatus = domain.ComplaintComplained
		opt.UpdatedAt = now
		if err := s.optimizations.Update(ctx, opt); err != nil {
			s.log.WithError(err).Warn("failed to flag optimization complaint status")
		}
	}

	if network, err := s.networks.GetByID(ctx, complaint.NetworkID); err == nil {
		vars := template.Context{}
		vars.Group("network", map[string]any{"id": network.ID, "name": network.Name})
		vars.Group("complaint", map[string]any{
			"reason":      complaint.Reason,
			"priority":    complaint.Priority,
			"status":      string(complaint.Status),
			"responsible": strings.Join(complaint.ResponsibleUserIDs, ", "),
		})
		if opt != nil {
			vars.Group("optimization", map[string]any{"id": opt.ID, "title": opt.Title})
		}
		if _, err := s.dispatcher.SendTelegram(ctx, domain.EventComplaint, vars); err != nil {
			s.log.WithError(err).Warn("complaint notification failed")
		}
	}
	return complaint, nil
}

// ResolveComplaint closes a complaint with a mandatory resolution note
// and records time-to-resolution.
func (s *Service) ResolveComplaint(ctx context.Context, actor domain.Actor, id, note string) (*domain.Complaint, error) {
	trimmed, err := ledger.ValidateResolutionNote(note)
	if err != nil {
		return nil, err
	}
	complaint, err := s.complaints.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if complaint.Status == domain.ComplaintStatusResolved {
		return nil, apperr.Conflict("complaint already resolved")
	}

	complaint.Resolve(actor.Email, trimmed, time.Now())
	if err := s.complaints.Update(ctx, complaint); err != nil {
		return nil, err
	}

	if complaint.OptimizationID != "" {
		if opt, err := s.optimizations.GetByID(ctx, complaint.OptimizationID); err == nil {
			open, err := s.complaints.ListByOptimization(ctx, complaint.OptimizationID)
			stillOpen := false
			if err == nil {
				for _, c := range open {
					if c.Status != domain.ComplaintStatusResolved {
						stillOpen = true
						break
					}
				}
			}
			if !stillOpen {
				opt.ComplaintStatus = domain.ComplaintResolved
				opt.UpdatedAt = time.Now()
				if err := s.optimizations.Update(ctx, opt); err != nil {
					s.log.WithError(err).Warn("failed to clear optimization complaint status")
				}
			}
		}
	}
	return complaint, nil
}

// ListComplaints returns complaints for an optimization or network.
func (s *Service) ListComplaints(ctx context.Context, optimizationID, networkID string) ([]*domain.Complaint, error) {
	if optimizationID != "" {
		return s.complaints.ListByOptimization(ctx, optimizationID)
	}
	if networkID != "" {
		return s.complaints.ListByNetwork(ctx, networkID)
	}
	return s.complaints.ListOpen(ctx)
}

func (s *Service) optimizationVars(network *domain.Network, opt *domain.Optimization) template.Context {
	vars := template.Context{}
	vars.Group("network", map[string]any{"id": network.ID, "name": network.Name})
	vars.Group("brand", map[string]any{"id": network.BrandID})
	vars.Group("optimization", map[string]any{
		"id":             opt.ID,
		"title":          opt.Title,
		"description":    opt.Description,
		"reason":         opt.ReasonNote,
		"status":         string(opt.Status),
		"status_label":   statusLabel(opt.Status),
		"priority":       opt.Priority,
		"scope":          string(opt.AffectedScope),
		"keywords":       strings.Join(opt.Keywords, ", "),
		"target_domains": strings.Join(opt.TargetDomains, ", "),
		"created_by":     opt.CreatedBy,
	})
	return vars
}

func statusLabel(s domain.OptimizationStatus) string {
	switch s {
	case domain.OptPlanned:
		return "Planned"
	case domain.OptInProgress:
		return "In Progress"
	case domain.OptCompleted:
		return "Completed"
	case domain.OptReverted:
		return "Reverted"
	default:
		return string(s)
	}
}

// DaysInProgress is used by the reminder scheduler's template context.
func DaysInProgress(opt *domain.Optimization, now time.Time) string {
	return fmt.Sprintf("%d", int(now.Sub(opt.UpdatedAt).Hours()/24))
}
