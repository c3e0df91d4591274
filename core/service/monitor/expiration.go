package monitor

import (
	"context"
	"fmt"
	"strconv"

	"github.com/official-panen138/seo-nexus/core/domain"
)

// CheckExpirations scans expiring domains against the configured
// day-thresholds and alerts once per threshold crossing. Already
// expired domains alert daily until renewed or released.
func (s *Service) CheckExpirations(ctx context.Context) (int, error) {
	cfg := s.config(ctx)
	expiring, err := s.domains.ListExpiring(ctx, cfg.SkipAutoRenew)
	if err != nil {
		return 0, err
	}

	thresholds := cfg.Thresholds()
	now := s.now()
	alerts := 0

	for _, d := range expiring {
		days, ok := d.DaysUntilExpiration(now)
		if !ok {
			continue
		}
		if !expirationDue(days, thresholds) {
			continue
		}
		if !s.dedup.Acquire(ctx, expirationKey(d.ID, days), s.dedupWindow(&cfg)) {
			continue
		}
		s.alertExpiration(ctx, d, days)
		alerts++
	}
	return alerts, nil
}

// expirationDue reports whether the remaining days hit a threshold.
// Negative days (already expired) are always due.
func expirationDue(days int, thresholds []int) bool {
	if days < 0 {
		return true
	}
	for _, t := range thresholds {
		if days == t {
			return true
		}
	}
	return false
}

// expirationKey scopes dedup per threshold while far out, per domain
// once inside the final week. The far keys fire once per crossing; the
// near key makes the alert daily.
func expirationKey(domainID string, days int) string {
	if days >= 7 {
		return fmt.Sprintf("%s:%s:d%s", alertExpiration, domainID, strconv.Itoa(days))
	}
	return fmt.Sprintf("%s:%s", alertExpiration, domainID)
}

func (s *Service) alertExpiration(ctx context.Context, d *domain.AssetDomain, days int) {
	impact := s.impactFor(ctx, d)
	severity := impact.Severity
	if days < 0 || (days <= 3 && impact.NetworksAffected > 0) {
		severity = domain.SeverityCritical
	}

	vars := s.domainVars(ctx, d, Outcome{Status: d.PingStatus, HTTPCode: d.LastHTTPCode})
	vars.Group("impact", impactVars(impact, severity))

	expDate := "-"
	if d.ExpirationDate != nil {
		expDate = d.ExpirationDate.UTC().Format("2006-01-02")
	}
	remaining := strconv.Itoa(days)
	if days < 0 {
		remaining = fmt.Sprintf("EXPIRED %d days ago", -days)
	}
	vars.Group("expiration", map[string]any{
		"date":           expDate,
		"days_remaining": remaining,
		"severity":       severity.Label(),
		"auto_renew":     fmt.Sprintf("%t", d.AutoRenew),
	})

	if _, err := s.dispatcher.SendTelegram(ctx, domain.EventDomainExpiration, vars); err != nil {
		s.log.WithError(err).WithField("domain", d.DomainName).Error("expiration alert failed")
	}
	if _, err := s.dispatcher.SendEmail(ctx, domain.EventDomainExpiration, severity, nil, vars); err != nil {
		s.log.WithError(err).WithField("domain", d.DomainName).Warn("expiration email failed")
	}
}
