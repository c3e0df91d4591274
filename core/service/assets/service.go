// Package assets manages the registered domain inventory: lifecycle,
// quarantine and the monitoring-compliance invariant.
package assets

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/official-panen138/seo-nexus/core/domain"
	"github.com/official-panen138/seo-nexus/core/port/out"
	"github.com/official-panen138/seo-nexus/pkg/apperr"
	"github.com/official-panen138/seo-nexus/pkg/logger"
)

// Service owns asset domains.
type Service struct {
	domains out.AssetDomainRepository
	brands  out.BrandRepository
	entries out.EntryRepository
	log     *logger.Logger
}

// New creates the asset service.
func New(domains out.AssetDomainRepository, brands out.BrandRepository, entries out.EntryRepository) *Service {
	return &Service{
		domains: domains,
		brands:  brands,
		entries: entries,
		log:     logger.Default().WithField("component", "assets"),
	}
}

// CreateInput is the write payload for a domain.
type CreateInput struct {
	DomainName         string
	BrandID            string
	CategoryID         string
	RegistrarID        string
	ExpirationDate     *time.Time
	AutoRenew          bool
	MonitoringEnabled  bool
	MonitoringInterval domain.MonitoringInterval
}

// Create registers a domain under a brand. Names are stored lowercase
// and must be unique.
func (s *Service) Create(ctx context.Context, input *CreateInput) (*domain.AssetDomain, error) {
	name := normalizeName(input.DomainName)
	if name == "" {
		return nil, apperr.MissingField("domain_name")
	}
	if _, err := s.brands.GetByID(ctx, input.BrandID); err != nil {
		return nil, err
	}
	if existing, err := s.domains.GetByName(ctx, name); err == nil && existing != nil {
		return nil, apperr.AlreadyExists("asset domain", name)
	}

	interval := input.MonitoringInterval
	if interval == "" {
		interval = domain.Interval15m
	}
	if !domain.IsValidMonitoringInterval(string(interval)) {
		return nil, apperr.InvalidInput("monitoring_interval", "unknown interval")
	}

	now := time.Now()
	d := &domain.AssetDomain{
		ID:                 uuid.New().String(),
		DomainName:         name,
		BrandID:            input.BrandID,
		CategoryID:         input.CategoryID,
		RegistrarID:        input.RegistrarID,
		Status:             domain.DomainStatusActive,
		Lifecycle:          domain.LifecycleActive,
		ExpirationDate:     input.ExpirationDate,
		AutoRenew:          input.AutoRenew,
		MonitoringEnabled:  input.MonitoringEnabled,
		MonitoringInterval: interval,
		PingStatus:         domain.PingUnknown,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.domains.Save(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// UpdateInput carries mutable domain fields. Nil pointers leave the
// stored value untouched.
type UpdateInput struct {
	CategoryID     *string
	RegistrarID    *string
	Status         *domain.DomainStatus
	Lifecycle      *domain.LifecycleStatus
	ExpirationDate *time.Time
	AutoRenew      *bool
}

// Update applies the provided fields.
func (s *Service) Update(ctx context.Context, id string, input *UpdateInput) (*domain.AssetDomain, error) {
	d, err := s.domains.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.CategoryID != nil {
		d.CategoryID = *input.CategoryID
	}
	if input.RegistrarID != nil {
		d.RegistrarID = *input.RegistrarID
	}
	if input.Status != nil {
		d.Status = *input.Status
	}
	if input.Lifecycle != nil {
		d.Lifecycle = *input.Lifecycle
	}
	if input.ExpirationDate != nil {
		d.ExpirationDate = input.ExpirationDate
	}
	if input.AutoRenew != nil {
		d.AutoRenew = *input.AutoRenew
	}
	d.UpdatedAt = time.Now()
	if err := s.domains.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// SetMonitoring toggles probing. Disabling is rejected while the domain
// is referenced by any structure entry with an active lifecycle and no
// quarantine; monitoring is how those networks learn their nodes died.
func (s *Service) SetMonitoring(ctx context.Context, id string, enabled bool, interval domain.MonitoringInterval) (*domain.AssetDomain, error) {
	d, err := s.domains.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !enabled {
		count, err := s.entries.CountByDomain(ctx, id)
		if err != nil {
			return nil, err
		}
		if d.RequiresMonitoring(count > 0) {
			return nil, apperr.Conflict("domain is used in SEO structures and must stay monitored")
		}
	}
	if interval != "" {
		if !domain.IsValidMonitoringInterval(string(interval)) {
			return nil, apperr.InvalidInput("monitoring_interval", "unknown interval")
		}
		d.MonitoringInterval = interval
	}
	d.MonitoringEnabled = enabled
	d.UpdatedAt = time.Now()
	if err := s.domains.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Quarantine places an operator hold on the domain and pauses probing.
func (s *Service) Quarantine(ctx context.Context, actor domain.Actor, id, category string) (*domain.AssetDomain, error) {
	if strings.TrimSpace(category) == "" {
		return nil, apperr.MissingField("category")
	}
	d, err := s.domains.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Quarantine.Active() {
		return nil, apperr.Conflict("domain is already quarantined")
	}
	d.Quarantine = &domain.Quarantine{
		Category:      category,
		QuarantinedBy: actor.Email,
		QuarantinedAt: time.Now(),
	}
	d.MonitoringEnabled = false
	d.UpdatedAt = time.Now()
	if err := s.domains.Update(ctx, d); err != nil {
		return nil, err
	}
	s.log.WithFields(map[string]any{"domain": d.DomainName, "category": category, "actor": actor.Email}).Info("domain quarantined")
	return d, nil
}

// ReleaseQuarantine lifts the hold. Monitoring re-enables when the
// domain is still referenced by structures.
func (s *Service) ReleaseQuarantine(ctx context.Context, actor domain.Actor, id string) (*domain.AssetDomain, error) {
	d, err := s.domains.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !d.Quarantine.Active() {
		return nil, apperr.Conflict("domain is not quarantined")
	}
	now := time.Now()
	d.Quarantine.ReleasedBy = actor.Email
	d.Quarantine.ReleasedAt = &now
	count, err := s.entries.CountByDomain(ctx, id)
	if err == nil && count > 0 {
		d.MonitoringEnabled = true
	}
	d.UpdatedAt = now
	if err := s.domains.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Get returns one domain.
func (s *Service) Get(ctx context.Context, id string) (*domain.AssetDomain, error) {
	return s.domains.GetByID(ctx, id)
}

// List returns domains matching the options.
func (s *Service) List(ctx context.Context, opts *out.DomainListOptions) ([]*domain.AssetDomain, int64, error) {
	return s.domains.List(ctx, opts)
}

// Delete removes a domain that no structure entry references.
func (s *Service) Delete(ctx context.Context, id string) error {
	count, err := s.entries.CountByDomain(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperr.Conflict("domain is referenced by SEO structure entries")
	}
	return s.domains.Delete(ctx, id)
}

// UnmonitoredInUse returns domains referenced by structures that should
// be monitored but are not. Feeds the daily compliance reminder.
func (s *Service) UnmonitoredInUse(ctx context.Context) ([]*domain.AssetDomain, error) {
	ids, err := s.entries.DistinctDomainIDs(ctx)
	if err != nil {
		return nil, err
	}
	var result []*domain.AssetDomain
	for _, id := range ids {
		d, err := s.domains.GetByID(ctx, id)
		if err != nil {
			continue
		}
		if !d.MonitoringEnabled && d.RequiresMonitoring(true) {
			result = append(result, d)
		}
	}
	return result, nil
}

func normalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.TrimPrefix(name, "https://")
	name = strings.TrimPrefix(name, "http://")
	name = strings.TrimPrefix(name, "www.")
	return strings.TrimSuffix(name, "/")
}
