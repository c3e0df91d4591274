package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/official-panen138/seo-nexus/core/domain"
	"github.com/official-panen138/seo-nexus/core/port/out"
	"github.com/official-panen138/seo-nexus/core/service/audit"
	"github.com/official-panen138/seo-nexus/pkg/apperr"
	"github.com/official-panen138/seo-nexus/pkg/response"
)

// AuditHandler serves the read-only audit trail routes.
type AuditHandler struct {
	audit *audit.Service
}

// NewAuditHandler creates the handler.
func NewAuditHandler(auditSvc *audit.Service) *AuditHandler {
	return &AuditHandler{audit: auditSvc}
}

// Register mounts the audit routes.
func (h *AuditHandler) Register(router fiber.Router) {
	logs := router.Group("/audit-logs")

	logs.Get("/", h.List)
	logs.Get("/stats", h.Stats)
}

// List returns audit rows with filters.
func (h *AuditHandler) List(c *fiber.Ctx) error {
	p := response.GetPagination(c, 50, 200)
	opts := &out.AuditListOptions{
		EventType:  c.Query("event_type"),
		ActorEmail: c.Query("actor_email"),
		Resource:   c.Query("resource"),
		Limit:      p.Limit,
		Offset:     p.Offset,
	}
	if raw := c.Query("severity"); raw != "" {
		sev := domain.AuditSeverity(raw)
		opts.Severity = &sev
	}
	if c.Query("success") != "" {
		success := c.QueryBool("success")
		opts.Success = &success
	}
	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return apperr.BadRequest("from must be RFC3339")
		}
		opts.From = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return apperr.BadRequest("to must be RFC3339")
		}
		opts.To = &to
	}

	rows, total, err := h.audit.List(c.Context(), opts)
	if err != nil {
		return err
	}
	return response.OKWithMeta(c, rows, &response.Meta{Total: total, Page: p.Page, PageSize: p.PageSize})
}

// Stats aggregates the trail over a trailing window of days.
func (h *AuditHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.audit.Stats(c.Context(), c.QueryInt("days", 7))
	if err != nil {
		return err
	}
	return response.OK(c, stats)
}
