package domain

import (
	"testing"
	"time"
)

func TestMonitoringIntervalDuration(t *testing.T) {
	tests := []struct {
		interval MonitoringInterval
		want     time.Duration
	}{
		{Interval5m, 5 * time.Minute},
		{Interval15m, 15 * time.Minute},
		{Interval1h, time.Hour},
		{IntervalDaily, 24 * time.Hour},
		{MonitoringInterval(""), 15 * time.Minute},
		{MonitoringInterval("bogus"), 15 * time.Minute},
	}
	for _, tt := range tests {
		if got := tt.interval.Duration(); got != tt.want {
			t.Errorf("Duration(%q) = %v, want %v", tt.interval, got, tt.want)
		}
	}
}

func TestQuarantineActive(t *testing.T) {
	released := time.Now()
	tests := []struct {
		name string
		q    *Quarantine
		want bool
	}{
		{"nil quarantine", nil, false},
		{"in force", &Quarantine{Category: "legal_hold"}, true},
		{"released", &Quarantine{Category: "legal_hold", ReleasedAt: &released}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.q.Active(); got != tt.want {
				t.Errorf("Active() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRequiresMonitoring(t *testing.T) {
	released := time.Now()
	tests := []struct {
		name      string
		lifecycle LifecycleStatus
		q         *Quarantine
		usedInSEO bool
		want      bool
	}{
		{"active and used", LifecycleActive, nil, true, true},
		{"expired pending and used", LifecycleExpiredPending, nil, true, true},
		{"not used in any structure", LifecycleActive, nil, false, false},
		{"archived", LifecycleArchived, nil, true, false},
		{"released domain", LifecycleExpiredReleased, nil, true, false},
		{"quarantined", LifecycleActive, &Quarantine{Category: "malware"}, true, false},
		{"quarantine lifted", LifecycleActive, &Quarantine{ReleasedAt: &released}, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &AssetDomain{Lifecycle: tt.lifecycle, Quarantine: tt.q}
			if got := d.RequiresMonitoring(tt.usedInSEO); got != tt.want {
				t.Errorf("RequiresMonitoring(%v) = %v, want %v", tt.usedInSEO, got, tt.want)
			}
		})
	}
}

func TestMonitoringDue(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	tenAgo := now.Add(-10 * time.Minute)
	twentyAgo := now.Add(-20 * time.Minute)

	tests := []struct {
		name    string
		enabled bool
		last    *time.Time
		want    bool
	}{
		{"disabled never due", false, &twentyAgo, false},
		{"never checked", true, nil, true},
		{"checked inside interval", true, &tenAgo, false},
		{"checked past interval", true, &twentyAgo, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &AssetDomain{
				MonitoringEnabled:  tt.enabled,
				MonitoringInterval: Interval15m,
				LastCheckedAt:      tt.last,
			}
			if got := d.MonitoringDue(now); got != tt.want {
				t.Errorf("MonitoringDue = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDaysUntilExpiration(t *testing.T) {
	now := time.Date(2026, 8, 24, 18, 30, 0, 0, time.UTC)

	t.Run("unknown expiration", func(t *testing.T) {
		d := &AssetDomain{}
		if _, ok := d.DaysUntilExpiration(now); ok {
			t.Error("ok should be false without an expiration date")
		}
	})

	tests := []struct {
		name string
		exp  time.Time
		want int
	}{
		{"thirty days out", time.Date(2026, 9, 23, 0, 0, 0, 0, time.UTC), 30},
		{"expires today", time.Date(2026, 8, 24, 23, 59, 0, 0, time.UTC), 0},
		{"tomorrow despite late hour", time.Date(2026, 8, 25, 1, 0, 0, 0, time.UTC), 1},
		{"already expired", time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC), -4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp := tt.exp
			d := &AssetDomain{ExpirationDate: &exp}
			days, ok := d.DaysUntilExpiration(now)
			if !ok {
				t.Fatal("ok should be true")
			}
			if days != tt.want {
				t.Errorf("days = %d, want %d", days, tt.want)
			}
		})
	}
}
