// Package notify renders templated notifications and routes them to
// the configured channels. Settings rows are read at every event so
// admin edits apply immediately.
package notify

import (
	"context"
	"time"

	"github.com/official-panen138/seo-nexus/core/domain"
	"github.com/official-panen138/seo-nexus/core/port/out"
	"github.com/official-panen138/seo-nexus/core/service/template"
	"github.com/official-panen138/seo-nexus/pkg/logger"
)

// Dispatcher resolves channel settings, renders the event template and
// sends. Sends are best-effort: failures are logged and reported as a
// false result, never as a rolled-back business action.
type Dispatcher struct {
	templates *template.Engine
	settings  out.SettingsRepository
	chat      out.ChatNotifier
	email     out.EmailNotifier
	log       *logger.Logger
}

// NewDispatcher creates a notification dispatcher.
func NewDispatcher(templates *template.Engine, settings out.SettingsRepository, chat out.ChatNotifier, email out.EmailNotifier) *Dispatcher {
	return &Dispatcher{
		templates: templates,
		settings:  settings,
		chat:      chat,
		email:     email,
		log:       logger.Default().WithField("component", "notify"),
	}
}

// monitoringEvents route to the dedicated monitoring Telegram channel.
// There is no fallback to the SEO channel: an unconfigured monitoring
// channel means monitoring alerts are off.
var monitoringEvents = map[domain.EventType]bool{
	domain.EventDomainDown:         true,
	domain.EventDomainRecovered:    true,
	domain.EventDomainSoftBlocked:  true,
	domain.EventDomainExpiration:   true,
	domain.EventMonitoringReminder: true,
}

// Timezone returns the configured display timezone.
func (d *Dispatcher) Timezone(ctx context.Context) domain.TimezoneSettings {
	tz := domain.DefaultTimezone
	if ok, err := d.settings.Get(ctx, domain.SettingSystemTimezone, &tz); err != nil || !ok {
		return domain.DefaultTimezone
	}
	if tz.Name == "" {
		return domain.DefaultTimezone
	}
	return tz
}

// withSystemVars stamps the system.* group onto the context.
func (d *Dispatcher) withSystemVars(ctx context.Context, vars template.Context) template.Context {
	tz := d.Timezone(ctx)
	now := time.Now().In(tz.Location())
	return vars.Group("system", map[string]any{
		"timestamp": now.Format("2006-01-02 15:04"),
		"timezone":  tz.Label,
	})
}

// SendTelegram renders and sends a Telegram notification for the
// event. Returns true only when the message was accepted by the API.
// A disabled template or unconfigured channel returns false with no
// error.
func (d *Dispatcher) SendTelegram(ctx context.Context, event domain.EventType, vars template.Context) (bool, error) {
	settingsKey := domain.SettingTelegramSEO
	if monitoringEvents[event] {
		settingsKey = domain.SettingTelegramMonitoring
	}
	var tg domain.TelegramSettings
	ok, err := d.settings.Get(ctx, settingsKey, &tg)
	if err != nil {
		return false, err
	}
	if !ok || !tg.Enabled || tg.ChatID == "" {
		d.log.WithField("event", string(event)).Debug("telegram channel not configured, skipping")
		return false, nil
	}

	rendered, err := d.templates.RenderEvent(ctx, domain.ChannelTelegram, event, d.withSystemVars(ctx, vars))
	if err != nil {
		return false, err
	}
	if rendered == nil {
		return false, nil
	}

	msg := &out.ChatMessage{ChatID: tg.ChatID, Text: rendered.Body}
	if tg.UseTopics {
		msg.Topic = event.TopicFamily()
	}
	if err := d.chat.Send(ctx, msg); err != nil {
		d.log.WithError(err).WithField("event", string(event)).Error("telegram send failed")
		return false, err
	}
	return true, nil
}

// SendEmail renders and sends an email notification when the event
// severity clears the configured threshold. recipients overrides the
// configured admin list when non-empty.
func (d *Dispatcher) SendEmail(ctx context.Context, event domain.EventType, severity domain.Severity, recipients []string, vars template.Context) (bool, error) {
	var email domain.EmailSettings
	ok, err := d.settings.Get(ctx, domain.SettingEmailAlerts, &email)
	if err != nil {
		return false, err
	}
	if !ok || !email.ShouldSend(severity) {
		return false, nil
	}
	to := recipients
	if len(to) == 0 {
		to = email.AdminEmails
	}
	if len(to) == 0 {
		return false, nil
	}

	rendered, err := d.templates.RenderEvent(ctx, domain.ChannelEmail, event, d.withSystemVars(ctx, vars))
	if err != nil {
		return false, err
	}
	if rendered == nil {
		return false, nil
	}

	if err := d.email.Send(ctx, &out.EmailMessage{To: to, Subject: rendered.Title, HTML: rendered.Body}); err != nil {
		d.log.WithError(err).WithField("event", string(event)).Error("email send failed")
		return false, err
	}
	return true, nil
}

// LeaderMentions formats the configured Telegram leader usernames for
// tagging in reminders.
func (d *Dispatcher) LeaderMentions(ctx context.Context) string {
	var tg domain.TelegramSettings
	if ok, err := d.settings.Get(ctx, domain.SettingTelegramSEO, &tg); err != nil || !ok {
		return ""
	}
	mentions := ""
	for _, u := range tg.LeaderUsernames {
		if u == "" {
			continue
		}
		if mentions != "" {
			mentions += " "
		}
		if u[0] != '@' {
			mentions += "@"
		}
		mentions += u
	}
	return mentions
}
