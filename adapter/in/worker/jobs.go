package worker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/official-panen138/seo-nexus/core/domain"
	"github.com/official-panen138/seo-nexus/core/service/template"
)

// dailyJobs gates the once-a-day work on the configured UTC hour and
// the shared scheduler state.
func (s *Scheduler) dailyJobs(ctx context.Context) {
	if time.Now().UTC().Hour() < s.cfg.ExpirationCheckHourUTC {
		return
	}
	if s.markDaily(ctx, jobExpiration) {
		s.expirationCheck(ctx)
	}
	if s.markDaily(ctx, jobMonitoringReminder) {
		s.monitoringReminders(ctx)
	}
}

// expirationCheck runs one expiration sweep. Per-domain alert dedup in
// the monitor keeps repeated sweeps from re-alerting inside the window.
func (s *Scheduler) expirationCheck(ctx context.Context) {
	alerts, err := s.monitor.CheckExpirations(ctx)
	if err != nil {
		s.log.WithError(err).Error("expiration check failed")
		return
	}
	s.log.WithField("alerts", alerts).Info("expiration check complete")
}

// monitoringReminders nags about domains that are used in SEO
// structures but have probing switched off.
func (s *Scheduler) monitoringReminders(ctx context.Context) {
	unmonitored, err := s.assets.UnmonitoredInUse(ctx)
	if err != nil {
		s.log.WithError(err).Error("compliance query failed")
		return
	}
	for _, d := range unmonitored {
		impact, err := s.enricher.ImpactFor(ctx, d)
		if err != nil {
			s.log.WithError(err).WithField("domain", d.DomainName).Warn("impact enrichment failed")
			continue
		}

		vars := template.Context{}
		vars.Group("domain", map[string]any{
			"name":        d.DomainName,
			"ping_status": string(d.PingStatus),
		})
		vars.Group("impact", impact.Vars())
		vars.Group("reminder", map[string]any{
			"manager_mentions": s.dispatcher.LeaderMentions(ctx),
		})
		if _, err := s.dispatcher.SendTelegram(ctx, domain.EventMonitoringReminder, vars); err != nil {
			s.log.WithError(err).WithField("domain", d.DomainName).Warn("monitoring reminder failed")
		}
	}
	if len(unmonitored) > 0 {
		s.log.WithField("domains", len(unmonitored)).Info("monitoring reminders sent")
	}
}

// optimizationReminders pings stale in-progress optimizations on the
// configured per-network cadence.
func (s *Scheduler) optimizationReminders(ctx context.Context) {
	var cfg domain.ReminderSettings
	if ok, err := s.settings.Get(ctx, domain.SettingOptimizationReminder, &cfg); err != nil || !ok || !cfg.Enabled {
		return
	}

	open, err := s.optimizations.ListInProgress(ctx)
	if err != nil {
		s.log.WithError(err).Error("in-progress optimization query failed")
		return
	}

	now := time.Now()
	for _, opt := range open {
		interval := cfg.IntervalFor(opt.NetworkID)
		since := opt.UpdatedAt
		if opt.LastReminderSentAt != nil {
			since = *opt.LastReminderSentAt
		}
		if now.Sub(since) < interval {
			continue
		}

		networkName := opt.NetworkID
		if n, err := s.networks.GetByID(ctx, opt.NetworkID); err == nil {
			networkName = n.Name
		}

		vars := template.Context{}
		vars.Group("network", map[string]any{"id": opt.NetworkID, "name": networkName})
		vars.Group("optimization", map[string]any{
			"id":               opt.ID,
			"title":            opt.Title,
			"status":           string(opt.Status),
			"priority":         opt.Priority,
			"created_by":       opt.CreatedBy,
			"days_in_progress": fmt.Sprintf("%d", int(now.Sub(opt.UpdatedAt).Hours()/24)),
		})
		vars.Group("reminder", map[string]any{
			"interval_days":    fmt.Sprintf("%d", int(interval.Hours()/24)),
			"manager_mentions": s.dispatcher.LeaderMentions(ctx),
		})

		sent, err := s.dispatcher.SendTelegram(ctx, domain.EventOptReminder, vars)
		if err != nil {
			s.log.WithError(err).WithField("optimization_id", opt.ID).Warn("optimization reminder failed")
			continue
		}
		if sent {
			if err := s.optimizations.SetReminderSentAt(ctx, opt.ID, now); err != nil {
				s.log.WithError(err).WithField("optimization_id", opt.ID).Warn("reminder mark failed")
			}
		}
	}
}

// weeklyDigest emails the monitoring summary on the configured weekday.
func (s *Scheduler) weeklyDigest(ctx context.Context) {
	var cfg domain.WeeklyDigestSettings
	if ok, err := s.settings.Get(ctx, domain.SettingWeeklyDigest, &cfg); err != nil || !ok {
		return
	}
	now := time.Now().In(s.dispatcher.Timezone(ctx).Location())
	if !cfg.Due(now) {
		return
	}
	if !s.markDaily(ctx, jobWeeklyDigest) {
		return
	}

	vars := template.Context{}
	vars.Group("digest", s.digestVars(ctx, &cfg))

	sent, err := s.dispatcher.SendEmail(ctx, domain.EventWeeklyDigest, domain.SeverityCritical, nil, vars)
	if err != nil {
		s.log.WithError(err).Error("weekly digest send failed")
		return
	}
	if sent {
		utcNow := time.Now().UTC()
		cfg.LastSentAt = &utcNow
		if err := s.settings.Set(ctx, domain.SettingWeeklyDigest, &cfg, "system"); err != nil {
			s.log.WithError(err).Warn("digest timestamp save failed")
		}
		s.log.Info("weekly digest sent")
	}
}

// digestVars assembles the digest.* variables: expiring domains grouped
// by urgency plus current down and soft-blocked lists.
func (s *Scheduler) digestVars(ctx context.Context, cfg *domain.WeeklyDigestSettings) map[string]any {
	vars := map[string]any{
		"period": fmt.Sprintf("week of %s", time.Now().UTC().Format("2006-01-02")),
	}

	if cfg.IncludeExpiring {
		critical, high, medium := s.expiringGroups(ctx)
		vars["expiring_critical"] = critical
		vars["expiring_high"] = high
		vars["expiring_medium"] = medium
	}
	if cfg.IncludeDown {
		vars["down_domains"] = s.statusList(ctx, domain.PingDown)
	}
	if cfg.IncludeSoftBlocked {
		vars["soft_blocked_domains"] = s.statusList(ctx, domain.PingSoftBlocked)
	}
	return vars
}

func (s *Scheduler) expiringGroups(ctx context.Context) (critical, high, medium string) {
	expiring, err := s.domains.ListExpiring(ctx, false)
	if err != nil {
		s.log.WithError(err).Warn("digest expiring query failed")
		return "-", "-", "-"
	}
	now := time.Now()
	var c, h, m []string
	for _, d := range expiring {
		days, ok := d.DaysUntilExpiration(now)
		if !ok || days > 30 {
			continue
		}
		line := fmt.Sprintf("%s (%dd)", d.DomainName, days)
		switch {
		case days <= 7:
			c = append(c, line)
		case days <= 14:
			h = append(h, line)
		default:
			m = append(m, line)
		}
	}
	return joinOrDash(c), joinOrDash(h), joinOrDash(m)
}

func (s *Scheduler) statusList(ctx context.Context, status domain.PingStatus) string {
	domains, err := s.domains.ListByPingStatus(ctx, status)
	if err != nil {
		s.log.WithError(err).Warn("digest status query failed")
		return "-"
	}
	lines := make([]string, 0, len(domains))
	for _, d := range domains {
		reason := d.DownReason
		if reason == "" && d.SoftBlockType != "" {
			reason = string(d.SoftBlockType)
		}
		lines = append(lines, fmt.Sprintf("%s (%s)", d.DomainName, reason))
	}
	return joinOrDash(lines)
}

func joinOrDash(lines []string) string {
	if len(lines) == 0 {
		return "-"
	}
	return strings.Join(lines, ", ")
}
