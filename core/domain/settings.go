package domain

import "time"

// Settings row keys. One document per key; every notifier and scheduler
// reads the row at event time so admin edits apply immediately.
const (
	SettingTelegramSEO          = "telegram_seo"
	SettingTelegramMonitoring   = "telegram_monitoring"
	SettingEmailAlerts          = "email_alerts"
	SettingWeeklyDigest         = "weekly_digest"
	SettingOptimizationReminder = "optimization_reminders"
	SettingMonitoringConfig     = "monitoring_config"
	SettingSystemTimezone       = "system_timezone"
)

// TelegramSettings configures a bot channel. The SEO row supports
// forum-topic routing; the monitoring row is a dedicated channel with
// no fallback to the SEO one.
type TelegramSettings struct {
	Enabled         bool           `json:"enabled"`
	BotToken        string         `json:"bot_token"`
	ChatID          string         `json:"chat_id"`
	UseTopics       bool           `json:"use_topics"`
	TopicIDs        map[string]int `json:"topic_ids"` // family -> thread id
	LeaderUsernames []string       `json:"leader_usernames"`
}

// EmailSettings configures the email alert channel.
type EmailSettings struct {
	Enabled           bool     `json:"enabled"`
	APIKey            string   `json:"api_key"`
	Sender            string   `json:"sender"`
	AdminEmails       []string `json:"admin_emails"`
	SeverityThreshold Severity `json:"severity_threshold"`
}

// ShouldSend reports whether an alert of the given severity clears the
// configured threshold.
func (e *EmailSettings) ShouldSend(sev Severity) bool {
	if !e.Enabled {
		return false
	}
	threshold := e.SeverityThreshold
	if threshold == "" {
		threshold = SeverityHigh
	}
	return sev.Rank() <= threshold.Rank()
}

// WeeklyDigestSettings schedules the weekly summary email.
type WeeklyDigestSettings struct {
	Enabled            bool       `json:"enabled"`
	Weekday            int        `json:"weekday"` // 0=Sunday
	Hour               int        `json:"hour"`
	Minute             int        `json:"minute"`
	IncludeExpiring    bool       `json:"include_expiring"`
	IncludeDown        bool       `json:"include_down"`
	IncludeSoftBlocked bool       `json:"include_soft_blocked"`
	ExpiringThreshold  int        `json:"expiring_threshold_days"`
	LastSentAt         *time.Time `json:"last_sent_at,omitempty"`
}

// Due reports whether the digest should fire at now (UTC plus the
// configured offset applied by the caller).
func (w *WeeklyDigestSettings) Due(now time.Time) bool {
	if !w.Enabled {
		return false
	}
	if int(now.Weekday()) != w.Weekday || now.Hour() != w.Hour {
		return false
	}
	if w.LastSentAt != nil && now.Sub(*w.LastSentAt) < 12*time.Hour {
		return false
	}
	return now.Minute() >= w.Minute
}

// ReminderSettings configures optimization reminders.
type ReminderSettings struct {
	Enabled      bool           `json:"enabled"`
	IntervalDays int            `json:"interval_days"`
	PerNetwork   map[string]int `json:"per_network,omitempty"`
}

// IntervalFor returns the reminder interval for a network, clamped to
// the allowed 1..30 day range.
func (r *ReminderSettings) IntervalFor(networkID string) time.Duration {
	days := r.IntervalDays
	if override, ok := r.PerNetwork[networkID]; ok {
		days = override
	}
	if days < 1 {
		days = 2
	}
	if days > 30 {
		days = 30
	}
	return time.Duration(days) * 24 * time.Hour
}

// MonitoringSettings tunes the availability and expiration engines.
type MonitoringSettings struct {
	ExpirationThresholds []int `json:"expiration_thresholds"`
	SkipAutoRenew        bool  `json:"skip_auto_renew"`
	AvailabilityInterval int   `json:"availability_interval_sec"`
	ProbeTimeoutSec      int   `json:"probe_timeout_sec"`
	AlertOnRecovery      bool  `json:"alert_on_recovery"`
	AlertDedupHours      int   `json:"alert_dedup_hours"`
}

// DefaultExpirationThresholds are the alert days-remaining marks.
var DefaultExpirationThresholds = []int{30, 14, 7, 3, 1, 0}

// Thresholds returns configured thresholds or the defaults.
func (m *MonitoringSettings) Thresholds() []int {
	if m == nil || len(m.ExpirationThresholds) == 0 {
		return DefaultExpirationThresholds
	}
	return m.ExpirationThresholds
}

// TimezoneSettings holds the display timezone for notifications.
type TimezoneSettings struct {
	Name  string `json:"name"`  // IANA name
	Label string `json:"label"` // human label shown in messages
}

// DefaultTimezone is used when no settings row exists.
var DefaultTimezone = TimezoneSettings{Name: "Asia/Jakarta", Label: "GMT+7"}

// Location resolves the configured IANA zone, falling back to UTC.
func (t TimezoneSettings) Location() *time.Location {
	if t.Name == "" {
		t = DefaultTimezone
	}
	loc, err := time.LoadLocation(t.Name)
	if err != nil {
		return time.UTC
	}
	return loc
}
