package domain

import (
	"time"
)

// DomainStatus is the administrative status of a registered domain.
type DomainStatus string

const (
	DomainStatusActive   DomainStatus = "active"
	DomainStatusInactive DomainStatus = "inactive"
	DomainStatusExpired  DomainStatus = "expired"
	DomainStatusPending  DomainStatus = "pending"
)

// LifecycleStatus tracks a domain through registration lifecycle.
type LifecycleStatus string

const (
	LifecycleActive          LifecycleStatus = "active"
	LifecycleExpiredPending  LifecycleStatus = "expired_pending"
	LifecycleExpiredReleased LifecycleStatus = "expired_released"
	LifecycleInactive        LifecycleStatus = "inactive"
	LifecycleArchived        LifecycleStatus = "archived"
)

// PingStatus is the last observed availability state of a domain.
type PingStatus string

const (
	PingUp          PingStatus = "up"
	PingDown        PingStatus = "down"
	PingSoftBlocked PingStatus = "soft_blocked"
	PingUnknown     PingStatus = "unknown"
)

// SoftBlockType classifies a soft-block indication found in a probe body.
type SoftBlockType string

const (
	SoftBlockCloudflare    SoftBlockType = "cloudflare_challenge"
	SoftBlockCaptcha       SoftBlockType = "captcha"
	SoftBlockGeoBlocked    SoftBlockType = "geo_blocked"
	SoftBlockBotProtection SoftBlockType = "bot_protection"
)

// MonitoringInterval is how often a domain is probed.
type MonitoringInterval string

const (
	Interval5m    MonitoringInterval = "5m"
	Interval15m   MonitoringInterval = "15m"
	Interval1h    MonitoringInterval = "1h"
	IntervalDaily MonitoringInterval = "daily"
)

// Duration returns the probe interval as a time.Duration.
func (i MonitoringInterval) Duration() time.Duration {
	switch i {
	case Interval5m:
		return 5 * time.Minute
	case Interval15m:
		return 15 * time.Minute
	case Interval1h:
		return time.Hour
	case IntervalDaily:
		return 24 * time.Hour
	default:
		return 15 * time.Minute
	}
}

// IsValidMonitoringInterval checks a raw interval value.
func IsValidMonitoringInterval(s string) bool {
	switch MonitoringInterval(s) {
	case Interval5m, Interval15m, Interval1h, IntervalDaily:
		return true
	}
	return false
}

// Quarantine records an operator-imposed hold on a domain.
type Quarantine struct {
	Category      string     `json:"category"`
	QuarantinedBy string     `json:"quarantined_by"`
	QuarantinedAt time.Time  `json:"quarantined_at"`
	ReleasedBy    string     `json:"released_by,omitempty"`
	ReleasedAt    *time.Time `json:"released_at,omitempty"`
}

// Active reports whether the quarantine is currently in force.
func (q *Quarantine) Active() bool {
	return q != nil && q.ReleasedAt == nil
}

// AssetDomain is a registered DNS name owned by a brand.
type AssetDomain struct {
	ID          string
	DomainName  string
	BrandID     string
	CategoryID  string
	RegistrarID string

	Status             DomainStatus
	Lifecycle          LifecycleStatus
	ExpirationDate     *time.Time
	AutoRenew          bool
	MonitoringEnabled  bool
	MonitoringInterval MonitoringInterval

	// Probe state
	PingStatus    PingStatus
	LastHTTPCode  int
	LastCheckedAt *time.Time
	SoftBlockType SoftBlockType
	DownReason    string

	Quarantine *Quarantine

	CreatedAt time.Time
	UpdatedAt time.Time
}

// RequiresMonitoring reports whether the monitoring-compliance invariant
// applies: a domain used in any SEO structure with an active-ish lifecycle
// and no live quarantine must have monitoring enabled. usedInSEO is
// whether any structure entry references the domain.
func (d *AssetDomain) RequiresMonitoring(usedInSEO bool) bool {
	if !usedInSEO {
		return false
	}
	if d.Lifecycle != LifecycleActive && d.Lifecycle != LifecycleExpiredPending {
		return false
	}
	return !d.Quarantine.Active()
}

// MonitoringDue reports whether the domain is due for a probe at now.
func (d *AssetDomain) MonitoringDue(now time.Time) bool {
	if !d.MonitoringEnabled {
		return false
	}
	if d.LastCheckedAt == nil {
		return true
	}
	return !now.Before(d.LastCheckedAt.Add(d.MonitoringInterval.Duration()))
}

// DaysUntilExpiration returns whole days from today (UTC) to the
// expiration date; negative when already expired. ok is false when the
// expiration date is unknown.
func (d *AssetDomain) DaysUntilExpiration(now time.Time) (days int, ok bool) {
	if d.ExpirationDate == nil {
		return 0, false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	exp := d.ExpirationDate.UTC()
	expDay := time.Date(exp.Year(), exp.Month(), exp.Day(), 0, 0, 0, 0, time.UTC)
	return int(expDay.Sub(today).Hours() / 24), true
}

// Brand owns domains and SEO networks and scopes user access.
type Brand struct {
	ID        string
	Name      string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}
