package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/official-panen138/seo-nexus/core/domain"
	"github.com/official-panen138/seo-nexus/core/port/out"
	"github.com/official-panen138/seo-nexus/core/service/audit"
	"github.com/official-panen138/seo-nexus/infra/middleware"
	"github.com/official-panen138/seo-nexus/pkg/apperr"
	"github.com/official-panen138/seo-nexus/pkg/response"
)

// SettingsHandler serves the admin settings routes. Every key maps to a
// typed document; unknown keys are rejected so the collection cannot be
// polluted through the API.
type SettingsHandler struct {
	settings out.SettingsRepository
	audit    *audit.Service
}

// NewSettingsHandler creates the handler.
func NewSettingsHandler(settings out.SettingsRepository, auditSvc *audit.Service) *SettingsHandler {
	return &SettingsHandler{settings: settings, audit: auditSvc}
}

// Register mounts the settings routes. Writes require super admin.
func (h *SettingsHandler) Register(router fiber.Router) {
	settings := router.Group("/settings")

	settings.Get("/:key", h.Get)
	settings.Put("/:key", middleware.RequireSuperAdmin(), h.Set)
}

// settingValue returns a typed zero value for a known settings key.
func settingValue(key string) (any, bool) {
	switch key {
	case domain.SettingTelegramSEO, domain.SettingTelegramMonitoring:
		return &domain.TelegramSettings{}, true
	case domain.SettingEmailAlerts:
		return &domain.EmailSettings{}, true
	case domain.SettingWeeklyDigest:
		return &domain.WeeklyDigestSettings{}, true
	case domain.SettingOptimizationReminder:
		return &domain.ReminderSettings{}, true
	case domain.SettingMonitoringConfig:
		return &domain.MonitoringSettings{}, true
	case domain.SettingSystemTimezone:
		return &domain.TimezoneSettings{}, true
	}
	return nil, false
}

// Get returns the settings document for a key, or the typed zero value
// when none has been saved yet.
func (h *SettingsHandler) Get(c *fiber.Ctx) error {
	key := c.Params("key")
	value, ok := settingValue(key)
	if !ok {
		return apperr.NotFound("setting", key)
	}
	if _, err := h.settings.Get(c.Context(), key, value); err != nil {
		return err
	}
	if tg, ok := value.(*domain.TelegramSettings); ok {
		tg.BotToken = maskSecret(tg.BotToken)
	}
	if em, ok := value.(*domain.EmailSettings); ok {
		em.APIKey = maskSecret(em.APIKey)
	}
	return response.OK(c, fiber.Map{"key": key, "value": value})
}

// Set replaces the settings document for a key.
func (h *SettingsHandler) Set(c *fiber.Ctx) error {
	key := c.Params("key")
	value, ok := settingValue(key)
	if !ok {
		return apperr.NotFound("setting", key)
	}
	if err := c.BodyParser(value); err != nil {
		return apperr.BadRequest("invalid settings payload")
	}
	actor := middleware.ActorFrom(c)
	if err := h.settings.Set(c.Context(), key, value, actor.Email); err != nil {
		return err
	}
	h.audit.Info(c.Context(), actor, domain.AuditSettingsChanged, "setting:"+key, nil)
	return response.OK(c, fiber.Map{"key": key, "updated": true})
}

// maskSecret hides all but the last four characters of a credential.
func maskSecret(s string) string {
	if len(s) <= 4 {
		if s == "" {
			return ""
		}
		return "****"
	}
	return "****" + s[len(s)-4:]
}
