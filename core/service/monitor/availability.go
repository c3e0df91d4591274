// Package monitor probes domain availability and tracks registration
// expiration. Alerts carry the SEO impact context of the affected
// domain and dedup over a 24h window.
package monitor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/official-panen138/seo-nexus/core/domain"
	"github.com/official-panen138/seo-nexus/core/port/out"
	"github.com/official-panen138/seo-nexus/core/service/enrich"
	"github.com/official-panen138/seo-nexus/core/service/notify"
	"github.com/official-panen138/seo-nexus/core/service/template"
	"github.com/official-panen138/seo-nexus/pkg/httputil"
	"github.com/official-panen138/seo-nexus/pkg/logger"
	"github.com/official-panen138/seo-nexus/pkg/ratelimit"
)

const probeUserAgent = "seo-nexus-monitor/1.0"

// Dedup key kinds.
const (
	alertDown       = "domain_down"
	alertSoftBlock  = "domain_soft_blocked"
	alertExpiration = "domain_expiration"
)

// Service runs availability probes and expiration checks.
type Service struct {
	domains    out.AssetDomainRepository
	brands     out.BrandRepository
	settings   out.SettingsRepository
	enricher   *enrich.Enricher
	dispatcher *notify.Dispatcher
	dedup      *ratelimit.Deduper
	client     *http.Client
	log        *logger.Logger
	now        func() time.Time
}

// New creates the monitoring service.
func New(domains out.AssetDomainRepository, brands out.BrandRepository, settings out.SettingsRepository, enricher *enrich.Enricher, dispatcher *notify.Dispatcher, dedup *ratelimit.Deduper) *Service {
	return &Service{
		domains:    domains,
		brands:     brands,
		settings:   settings,
		enricher:   enricher,
		dispatcher: dispatcher,
		dedup:      dedup,
		client:     httputil.ProbeClient(),
		log:        logger.Default().WithField("component", "monitor"),
		now:        time.Now,
	}
}

// config loads the monitoring settings row, defaults when absent.
func (s *Service) config(ctx context.Context) domain.MonitoringSettings {
	var cfg domain.MonitoringSettings
	if ok, err := s.settings.Get(ctx, domain.SettingMonitoringConfig, &cfg); err != nil || !ok {
		return domain.MonitoringSettings{AlertOnRecovery: true}
	}
	return cfg
}

func (s *Service) dedupWindow(cfg *domain.MonitoringSettings) time.Duration {
	if cfg.AlertDedupHours > 0 {
		return time.Duration(cfg.AlertDedupHours) * time.Hour
	}
	return 24 * time.Hour
}

// Probe fetches the domain over HTTPS and classifies the result. No
// state is written.
func (s *Service) Probe(ctx context.Context, domainName string) Outcome {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://"+domainName, nil)
	if err != nil {
		return Outcome{Status: domain.PingDown, DownReason: ReasonConnFailed}
	}
	req.Header.Set("User-Agent", probeUserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return classifyError(err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyScan))
	return classifyResponse(resp.StatusCode, body)
}

// CheckDomain probes one domain, records the result and fires
// transition alerts. Returns the classification outcome.
func (s *Service) CheckDomain(ctx context.Context, d *domain.AssetDomain) (Outcome, error) {
	cfg := s.config(ctx)
	outcome := s.Probe(ctx, d.DomainName)
	now := s.now()

	result := &out.ProbeResult{
		PingStatus:    outcome.Status,
		HTTPCode:      outcome.HTTPCode,
		SoftBlockType: outcome.SoftBlockType,
		DownReason:    outcome.DownReason,
		CheckedAt:     now,
	}
	if err := s.domains.RecordProbe(ctx, d.ID, result); err != nil {
		return outcome, err
	}

	previous := d.PingStatus
	previousBlock := d.SoftBlockType
	d.PingStatus = outcome.Status
	d.LastHTTPCode = outcome.HTTPCode
	d.SoftBlockType = outcome.SoftBlockType
	d.DownReason = outcome.DownReason
	d.LastCheckedAt = &now

	s.handleTransition(ctx, d, previous, previousBlock, outcome, &cfg)
	return outcome, nil
}

// handleTransition fires alerts on state changes. Repeat states inside
// the dedup window stay silent.
func (s *Service) handleTransition(ctx context.Context, d *domain.AssetDomain, previous domain.PingStatus, previousBlock domain.SoftBlockType, outcome Outcome, cfg *domain.MonitoringSettings) {
	window := s.dedupWindow(cfg)

	switch outcome.Status {
	case domain.PingDown:
		if !s.dedup.Acquire(ctx, ratelimit.Key(alertDown, d.ID), window) {
			return
		}
		s.alertDown(ctx, d, outcome)

	case domain.PingSoftBlocked:
		if !s.dedup.Acquire(ctx, ratelimit.Key(alertSoftBlock, d.ID, string(outcome.SoftBlockType)), window) {
			return
		}
		s.alertSoftBlocked(ctx, d, outcome)

	case domain.PingUp:
		if previous != domain.PingDown && previous != domain.PingSoftBlocked {
			return
		}
		// Re-arm the incident keys so the next outage alerts immediately.
		s.dedup.Clear(ctx, ratelimit.Key(alertDown, d.ID))
		s.dedup.Clear(ctx, ratelimit.Key(alertSoftBlock, d.ID, string(previousBlock)))
		if cfg.AlertOnRecovery {
			s.alertRecovered(ctx, d, previous)
		}
	}
}

func (s *Service) alertDown(ctx context.Context, d *domain.AssetDomain, outcome Outcome) {
	impact := s.impactFor(ctx, d)
	// An unreachable domain is never below HIGH, whatever its tier.
	severity := domain.MaxSeverity(impact.Severity, domain.SeverityHigh)

	vars := s.domainVars(ctx, d, outcome)
	vars.Group("impact", impactVars(impact, severity))

	if _, err := s.dispatcher.SendTelegram(ctx, domain.EventDomainDown, vars); err != nil {
		s.log.WithError(err).WithField("domain", d.DomainName).Error("down alert failed")
	}
	if _, err := s.dispatcher.SendEmail(ctx, domain.EventDomainDown, severity, nil, vars); err != nil {
		s.log.WithError(err).WithField("domain", d.DomainName).Warn("down email failed")
	}
}

func (s *Service) alertSoftBlocked(ctx context.Context, d *domain.AssetDomain, outcome Outcome) {
	impact := s.impactFor(ctx, d)
	vars := s.domainVars(ctx, d, outcome)
	vars.Group("impact", impactVars(impact, domain.SeverityWarning))

	if _, err := s.dispatcher.SendTelegram(ctx, domain.EventDomainSoftBlocked, vars); err != nil {
		s.log.WithError(err).WithField("domain", d.DomainName).Error("soft-block alert failed")
	}
}

func (s *Service) alertRecovered(ctx context.Context, d *domain.AssetDomain, previous domain.PingStatus) {
	vars := s.domainVars(ctx, d, Outcome{Status: domain.PingUp, HTTPCode: d.LastHTTPCode})
	vars.Group("change", map[string]any{"before": string(previous), "after": string(domain.PingUp)})

	if _, err := s.dispatcher.SendTelegram(ctx, domain.EventDomainRecovered, vars); err != nil {
		s.log.WithError(err).WithField("domain", d.DomainName).Warn("recovery alert failed")
	}
}

func (s *Service) impactFor(ctx context.Context, d *domain.AssetDomain) *enrich.Impact {
	impact, err := s.enricher.ImpactFor(ctx, d)
	if err != nil {
		s.log.WithError(err).WithField("domain", d.DomainName).Warn("impact enrichment failed")
		return &enrich.Impact{
			DomainID:          d.ID,
			DomainName:        d.DomainName,
			HighestTierImpact: domain.TierOrphan,
			Severity:          domain.SeverityLow,
		}
	}
	return impact
}

func impactVars(impact *enrich.Impact, severity domain.Severity) map[string]any {
	vars := impact.Vars()
	vars["severity"] = severity.Label()
	return vars
}

func (s *Service) domainVars(ctx context.Context, d *domain.AssetDomain, outcome Outcome) template.Context {
	brandName := d.BrandID
	if brand, err := s.brands.GetByID(ctx, d.BrandID); err == nil {
		brandName = brand.Name
	}

	vars := template.Context{}
	vars.Group("domain", map[string]any{
		"name":            d.DomainName,
		"brand_name":      brandName,
		"ping_status":     string(outcome.Status),
		"http_code":       fmt.Sprintf("%d", outcome.HTTPCode),
		"down_reason":     outcome.DownReason,
		"soft_block_type": string(outcome.SoftBlockType),
		"checked_at":      s.now().UTC().Format("2006-01-02 15:04"),
	})
	return vars
}

// DueDomains returns the monitored domains whose probe interval has
// elapsed.
func (s *Service) DueDomains(ctx context.Context) ([]*domain.AssetDomain, error) {
	monitored, err := s.domains.ListMonitored(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	due := monitored[:0]
	for _, d := range monitored {
		if d.MonitoringDue(now) {
			due = append(due, d)
		}
	}
	return due, nil
}
