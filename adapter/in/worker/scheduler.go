// Package worker runs the background schedulers: availability probes,
// expiration checks, compliance and optimization reminders, and the
// weekly digest.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/official-panen138/seo-nexus/config"
	"github.com/official-panen138/seo-nexus/core/port/out"
	"github.com/official-panen138/seo-nexus/core/service/assets"
	"github.com/official-panen138/seo-nexus/core/service/enrich"
	"github.com/official-panen138/seo-nexus/core/service/monitor"
	"github.com/official-panen138/seo-nexus/core/service/notify"
	"github.com/official-panen138/seo-nexus/pkg/logger"
)

// Job state keys for cross-worker daily dedup.
const (
	jobExpiration         = "expiration_check"
	jobMonitoringReminder = "monitoring_reminder"
	jobWeeklyDigest       = "weekly_digest"
)

// dailyWindow is slightly under a day so a slow clock never skips a run.
const dailyWindow = 20 * time.Hour

// Scheduler drives the periodic jobs. One instance runs per worker
// process; daily jobs coordinate through scheduler state so multiple
// workers never double-fire.
type Scheduler struct {
	cfg           *config.Config
	monitor       *monitor.Service
	assets        *assets.Service
	enricher      *enrich.Enricher
	dispatcher    *notify.Dispatcher
	domains       out.AssetDomainRepository
	networks      out.NetworkRepository
	optimizations out.OptimizationRepository
	settings      out.SettingsRepository
	state         out.SchedulerStateRepository
	log           *logger.Logger

	mu       sync.Mutex
	inFlight map[string]bool
}

// Deps bundles the scheduler dependencies.
type Deps struct {
	Config        *config.Config
	Monitor       *monitor.Service
	Assets        *assets.Service
	Enricher      *enrich.Enricher
	Dispatcher    *notify.Dispatcher
	Domains       out.AssetDomainRepository
	Networks      out.NetworkRepository
	Optimizations out.OptimizationRepository
	Settings      out.SettingsRepository
	State         out.SchedulerStateRepository
}

// New creates the scheduler.
func New(d Deps) *Scheduler {
	return &Scheduler{
		cfg:           d.Config,
		monitor:       d.Monitor,
		assets:        d.Assets,
		enricher:      d.Enricher,
		dispatcher:    d.Dispatcher,
		domains:       d.Domains,
		networks:      d.Networks,
		optimizations: d.Optimizations,
		settings:      d.Settings,
		state:         d.State,
		log:           logger.Default().WithField("component", "scheduler"),
		inFlight:      make(map[string]bool),
	}
}

// Run blocks until ctx is cancelled. Each loop recovers its own errors;
// one failing job never stops the others.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.WithField("worker_id", s.cfg.WorkerID).Info("scheduler started")

	// Startup sweep so a restart never leaves an expiring domain
	// unalerted until the next configured hour. Per-domain dedup in the
	// monitor suppresses duplicate alerts.
	s.expirationCheck(ctx)

	var wg sync.WaitGroup
	loops := []struct {
		name     string
		interval time.Duration
		fn       func(context.Context)
	}{
		{"availability", s.cfg.AvailabilityTick(), s.availabilitySweep},
		{"daily", 10 * time.Minute, s.dailyJobs},
		{"optimization_reminders", time.Hour, s.optimizationReminders},
		{"weekly_digest", time.Minute, s.weeklyDigest},
	}

	for _, loop := range loops {
		wg.Add(1)
		go func(name string, interval time.Duration, fn func(context.Context)) {
			defer wg.Done()
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			// First pass shortly after boot so a restarted worker
			// catches up instead of waiting a full interval.
			fn(ctx)
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					fn(ctx)
				}
			}
		}(loop.name, loop.interval, loop.fn)
	}

	<-ctx.Done()
	wg.Wait()
	s.log.Info("scheduler stopped")
}

// markDaily acquires the cross-worker run slot for a daily job.
func (s *Scheduler) markDaily(ctx context.Context, key string) bool {
	won, err := s.state.MarkRun(ctx, key, time.Now(), dailyWindow)
	if err != nil {
		s.log.WithError(err).WithField("job", key).Error("scheduler state check failed")
		return false
	}
	return won
}

// claim guards a domain probe against overlapping sweeps.
func (s *Scheduler) claim(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[id] {
		return false
	}
	s.inFlight[id] = true
	return true
}

func (s *Scheduler) release(id string) {
	s.mu.Lock()
	delete(s.inFlight, id)
	s.mu.Unlock()
}
