package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/official-panen138/seo-nexus/config"
	"github.com/official-panen138/seo-nexus/core/domain"
	"github.com/official-panen138/seo-nexus/core/port/out"
	"github.com/official-panen138/seo-nexus/core/service/assets"
	"github.com/official-panen138/seo-nexus/core/service/enrich"
	"github.com/official-panen138/seo-nexus/core/service/monitor"
	"github.com/official-panen138/seo-nexus/core/service/notify"
	"github.com/official-panen138/seo-nexus/core/service/template"
	"github.com/official-panen138/seo-nexus/pkg/apperr"
	"github.com/official-panen138/seo-nexus/pkg/ratelimit"
)

// countingDomains records expiration sweeps; everything else is empty.
type countingDomains struct {
	listExpiring atomic.Int32
}

func (d *countingDomains) Save(_ context.Context, _ *domain.AssetDomain) error   { return nil }
func (d *countingDomains) Update(_ context.Context, _ *domain.AssetDomain) error { return nil }

func (d *countingDomains) GetByID(_ context.Context, id string) (*domain.AssetDomain, error) {
	return nil, apperr.NotFound("asset domain", id)
}

func (d *countingDomains) GetByName(_ context.Context, name string) (*domain.AssetDomain, error) {
	return nil, apperr.NotFound("asset domain", name)
}

func (d *countingDomains) List(_ context.Context, _ *out.DomainListOptions) ([]*domain.AssetDomain, int64, error) {
	return nil, 0, nil
}

func (d *countingDomains) ListMonitored(_ context.Context) ([]*domain.AssetDomain, error) {
	return nil, nil
}

func (d *countingDomains) ListExpiring(_ context.Context, _ bool) ([]*domain.AssetDomain, error) {
	d.listExpiring.Add(1)
	return nil, nil
}

func (d *countingDomains) ListByPingStatus(_ context.Context, _ domain.PingStatus) ([]*domain.AssetDomain, error) {
	return nil, nil
}

func (d *countingDomains) RecordProbe(_ context.Context, _ string, _ *out.ProbeResult) error {
	return nil
}

func (d *countingDomains) Delete(_ context.Context, _ string) error { return nil }

type emptyBrands struct{}

func (emptyBrands) Save(_ context.Context, _ *domain.Brand) error { return nil }

func (emptyBrands) GetByID(_ context.Context, id string) (*domain.Brand, error) {
	return nil, apperr.NotFound("brand", id)
}

func (emptyBrands) List(_ context.Context) ([]*domain.Brand, error) { return nil, nil }

type emptyEntries struct{}

func (emptyEntries) Save(_ context.Context, _ *domain.StructureEntry) error   { return nil }
func (emptyEntries) Update(_ context.Context, _ *domain.StructureEntry) error { return nil }

func (emptyEntries) GetByID(_ context.Context, id string) (*domain.StructureEntry, error) {
	return nil, apperr.NotFound("entry", id)
}

func (emptyEntries) ListByNetwork(_ context.Context, _ string) ([]*domain.StructureEntry, error) {
	return nil, nil
}

func (emptyEntries) ListByDomain(_ context.Context, _ string) ([]*domain.StructureEntry, error) {
	return nil, nil
}

func (emptyEntries) ListTargeting(_ context.Context, _ string) ([]*domain.StructureEntry, error) {
	return nil, nil
}

func (emptyEntries) CountByDomain(_ context.Context, _ string) (int64, error) { return 0, nil }

func (emptyEntries) Delete(_ context.Context, _ string) error { return nil }

func (emptyEntries) DeleteByNetwork(_ context.Context, _ string) (int64, error) { return 0, nil }

func (emptyEntries) DistinctDomainIDs(_ context.Context) ([]string, error) { return nil, nil }

type emptyNetworks struct{}

func (emptyNetworks) Save(_ context.Context, _ *domain.Network) error   { return nil }
func (emptyNetworks) Update(_ context.Context, _ *domain.Network) error { return nil }

func (emptyNetworks) GetByID(_ context.Context, id string) (*domain.Network, error) {
	return nil, apperr.NotFound("network", id)
}

func (emptyNetworks) ListByBrand(_ context.Context, _ string) ([]*domain.Network, error) {
	return nil, nil
}

func (emptyNetworks) List(_ context.Context, _, _ int) ([]*domain.Network, int64, error) {
	return nil, 0, nil
}

func (emptyNetworks) Delete(_ context.Context, _ string) error { return nil }

type emptyOptimizations struct{}

func (emptyOptimizations) Save(_ context.Context, _ *domain.Optimization) error   { return nil }
func (emptyOptimizations) Update(_ context.Context, _ *domain.Optimization) error { return nil }

func (emptyOptimizations) GetByID(_ context.Context, id string) (*domain.Optimization, error) {
	return nil, apperr.NotFound("optimization", id)
}

func (emptyOptimizations) List(_ context.Context, _ *out.OptimizationListOptions) ([]*domain.Optimization, int64, error) {
	return nil, 0, nil
}

func (emptyOptimizations) ListInProgress(_ context.Context) ([]*domain.Optimization, error) {
	return nil, nil
}

func (emptyOptimizations) AddResponse(_ context.Context, _ string, _ *domain.TeamResponse) error {
	return nil
}

func (emptyOptimizations) SetReminderSentAt(_ context.Context, _ string, _ time.Time) error {
	return nil
}

func (emptyOptimizations) Delete(_ context.Context, _ string) error { return nil }

// unsetSettings leaves every settings row unconfigured.
type unsetSettings struct{}

func (unsetSettings) Get(_ context.Context, _ string, _ any) (bool, error) { return false, nil }

func (unsetSettings) Set(_ context.Context, _ string, _ any, _ string) error { return nil }

type openState struct{}

func (openState) LastRun(_ context.Context, _ string) (time.Time, error) { return time.Time{}, nil }

func (openState) MarkRun(_ context.Context, _ string, _ time.Time, _ time.Duration) (bool, error) {
	return true, nil
}

type silentChat struct{}

func (silentChat) Send(_ context.Context, _ *out.ChatMessage) error { return nil }

type silentEmail struct{}

func (silentEmail) Send(_ context.Context, _ *out.EmailMessage) error { return nil }

type emptyTemplates struct{}

func (emptyTemplates) Upsert(_ context.Context, _ *domain.Template) error { return nil }

func (emptyTemplates) Get(_ context.Context, c domain.Channel, e domain.EventType) (*domain.Template, error) {
	return nil, apperr.NotFound("template", string(c)+"/"+string(e))
}

func (emptyTemplates) List(_ context.Context, _ string) ([]*domain.Template, error) { return nil, nil }

func (emptyTemplates) Delete(_ context.Context, _ domain.Channel, _ domain.EventType) error {
	return nil
}

func newSchedulerFixture(expirationHourUTC int) (*Scheduler, *countingDomains) {
	domains := &countingDomains{}
	settings := unsetSettings{}
	enricher := enrich.New(emptyEntries{}, emptyNetworks{})
	dispatcher := notify.NewDispatcher(
		template.NewEngine(emptyTemplates{}), settings, silentChat{}, silentEmail{})
	mon := monitor.New(domains, emptyBrands{}, settings, enricher, dispatcher, ratelimit.NewDeduper(nil))

	cfg := &config.Config{
		WorkerID:               "test-worker",
		AvailabilityTickSec:    60,
		ProbeConcurrency:       1,
		ProbeTimeoutSec:        1,
		ExpirationCheckHourUTC: expirationHourUTC,
	}
	s := New(Deps{
		Config:        cfg,
		Monitor:       mon,
		Assets:        assets.New(domains, emptyBrands{}, emptyEntries{}),
		Enricher:      enricher,
		Dispatcher:    dispatcher,
		Domains:       domains,
		Networks:      emptyNetworks{},
		Optimizations: emptyOptimizations{},
		Settings:      settings,
		State:         openState{},
	})
	return s, domains
}

func TestDailyJobsGatedByHour(t *testing.T) {
	// Hour() never reaches 24, so the daily gate always blocks.
	s, domains := newSchedulerFixture(24)
	s.dailyJobs(context.Background())
	if got := domains.listExpiring.Load(); got != 0 {
		t.Errorf("expiration sweeps before the configured hour = %d, want 0", got)
	}
}

func TestRunSweepsExpirationsAtStartup(t *testing.T) {
	s, domains := newSchedulerFixture(24)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Run(ctx)

	if got := domains.listExpiring.Load(); got != 1 {
		t.Errorf("startup expiration sweeps = %d, want 1 despite the hour gate", got)
	}
}
