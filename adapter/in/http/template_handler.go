package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/official-panen138/seo-nexus/core/domain"
	"github.com/official-panen138/seo-nexus/core/service/audit"
	"github.com/official-panen138/seo-nexus/core/service/notify"
	"github.com/official-panen138/seo-nexus/core/service/template"
	"github.com/official-panen138/seo-nexus/infra/middleware"
	"github.com/official-panen138/seo-nexus/pkg/apperr"
	"github.com/official-panen138/seo-nexus/pkg/response"
)

// TemplateHandler serves notification-template management routes.
type TemplateHandler struct {
	engine     *template.Engine
	dispatcher *notify.Dispatcher
	audit      *audit.Service
}

// NewTemplateHandler creates the handler.
func NewTemplateHandler(engine *template.Engine, dispatcher *notify.Dispatcher, auditSvc *audit.Service) *TemplateHandler {
	return &TemplateHandler{engine: engine, dispatcher: dispatcher, audit: auditSvc}
}

// Register mounts the template routes.
func (h *TemplateHandler) Register(router fiber.Router) {
	templates := router.Group("/notification-templates")

	templates.Get("/", h.List)
	templates.Get("/variables", h.Variables)
	templates.Post("/preview", h.Preview)
	templates.Put("/:channel/:event", h.Update)
	templates.Post("/:channel/:event/reset", h.Reset)
	templates.Put("/:channel/:event/toggle", h.Toggle)
	templates.Post("/test-send", h.TestSend)
}

// List returns the effective template set.
func (h *TemplateHandler) List(c *fiber.Ctx) error {
	templates, err := h.engine.List(c.Context(), c.Query("channel"))
	if err != nil {
		return err
	}
	return response.OK(c, templates)
}

// Variables returns the substitution contract.
func (h *TemplateHandler) Variables(c *fiber.Ctx) error {
	return response.OK(c, template.AllowedVariables())
}

// UpdateTemplateRequest saves a template override.
type UpdateTemplateRequest struct {
	Title        string `json:"title"`
	TemplateBody string `json:"template_body"`
}

// Update saves a template override for a (channel, event) pair.
func (h *TemplateHandler) Update(c *fiber.Ctx) error {
	var req UpdateTemplateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	actor := middleware.ActorFrom(c)
	channel := domain.Channel(c.Params("channel"))
	event := domain.EventType(c.Params("event"))

	tpl, err := h.engine.Update(c.Context(), channel, event, req.Title, req.TemplateBody, actor.Email)
	if err != nil {
		return err
	}
	h.audit.Info(c.Context(), actor, domain.AuditTemplateUpdated, string(channel)+"/"+string(event), nil)
	return response.OK(c, tpl)
}

// Reset restores the embedded default for a pair.
func (h *TemplateHandler) Reset(c *fiber.Ctx) error {
	actor := middleware.ActorFrom(c)
	channel := domain.Channel(c.Params("channel"))
	event := domain.EventType(c.Params("event"))

	tpl, err := h.engine.Reset(c.Context(), channel, event, actor.Email)
	if err != nil {
		return err
	}
	h.audit.Info(c.Context(), actor, domain.AuditTemplateReset, string(channel)+"/"+string(event), nil)
	return response.OK(c, tpl)
}

// ToggleRequest enables or disables a pair.
type ToggleRequest struct {
	Enabled bool `json:"enabled"`
}

// Toggle switches rendering for a pair on or off.
func (h *TemplateHandler) Toggle(c *fiber.Ctx) error {
	var req ToggleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	actor := middleware.ActorFrom(c)
	channel := domain.Channel(c.Params("channel"))
	event := domain.EventType(c.Params("event"))

	if err := h.engine.SetEnabled(c.Context(), channel, event, req.Enabled, actor.Email); err != nil {
		return err
	}
	h.audit.Info(c.Context(), actor, domain.AuditTemplateToggled, string(channel)+"/"+string(event), map[string]any{
		"enabled": req.Enabled,
	})
	return response.OK(c, fiber.Map{"enabled": req.Enabled})
}

// PreviewRequest renders a draft against the sample context.
type PreviewRequest struct {
	Title        string `json:"title"`
	TemplateBody string `json:"template_body"`
}

// Preview renders a draft body without saving it.
func (h *TemplateHandler) Preview(c *fiber.Ctx) error {
	var req PreviewRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	rendered, err := h.engine.Preview(req.Title, req.TemplateBody)
	if err != nil {
		return err
	}
	return response.OK(c, rendered)
}

// TestSend fires the test event through the real channel so operators
// can verify bot tokens and chat ids end to end.
func (h *TemplateHandler) TestSend(c *fiber.Ctx) error {
	sent, err := h.dispatcher.SendTelegram(c.Context(), domain.EventTest, template.SampleContext())
	if err != nil {
		return apperr.ExternalError("telegram", err)
	}
	if !sent {
		return apperr.Conflict("telegram channel is not configured or the test template is disabled")
	}
	return response.OK(c, fiber.Map{"sent": true})
}
