package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/official-panen138/seo-nexus/core/domain"
	"github.com/official-panen138/seo-nexus/core/port/out"
	"github.com/official-panen138/seo-nexus/core/service/audit"
	"github.com/official-panen138/seo-nexus/core/service/linker"
	"github.com/official-panen138/seo-nexus/infra/middleware"
	"github.com/official-panen138/seo-nexus/pkg/apperr"
	"github.com/official-panen138/seo-nexus/pkg/response"
)

// ConflictHandler serves conflict routes.
type ConflictHandler struct {
	linker *linker.Service
	audit  *audit.Service
}

// NewConflictHandler creates the handler.
func NewConflictHandler(linkerSvc *linker.Service, auditSvc *audit.Service) *ConflictHandler {
	return &ConflictHandler{linker: linkerSvc, audit: auditSvc}
}

// Register mounts the conflict routes.
func (h *ConflictHandler) Register(router fiber.Router) {
	conflicts := router.Group("/conflicts")

	conflicts.Get("/", h.List)
	conflicts.Get("/:id", h.Get)
	conflicts.Post("/:id/approve", h.Approve)
}

// List returns conflicts with filters.
func (h *ConflictHandler) List(c *fiber.Ctx) error {
	p := response.GetPagination(c, 50, 200)
	opts := &out.ConflictListOptions{
		NetworkID:  c.Query("network_id"),
		ActiveOnly: c.QueryBool("active_only"),
		Limit:      p.Limit,
		Offset:     p.Offset,
	}
	if raw := c.Query("type"); raw != "" {
		ct := domain.ConflictType(raw)
		opts.Type = &ct
	}
	if raw := c.Query("severity"); raw != "" {
		sev := domain.Severity(raw)
		opts.Severity = &sev
	}
	if raw := c.Query("status"); raw != "" {
		status := domain.ConflictStatus(raw)
		opts.Status = &status
	}

	conflicts, total, err := h.linker.List(c.Context(), opts)
	if err != nil {
		return err
	}
	return response.OKWithMeta(c, conflicts, &response.Meta{Total: total, Page: p.Page, PageSize: p.PageSize})
}

// Get returns one conflict.
func (h *ConflictHandler) Get(c *fiber.Ctx) error {
	conflict, err := h.linker.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return response.OK(c, conflict)
}

// ApproveRequest accepts a conflict as intentional.
type ApproveRequest struct {
	Note string `json:"note"`
}

// Approve marks a conflict as intentional structure. Super admin only;
// both the grant and any violation land in the audit trail.
func (h *ConflictHandler) Approve(c *fiber.Ctx) error {
	var req ApproveRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	actor := middleware.ActorFrom(c)

	conflict, err := h.linker.Approve(c.Context(), c.Params("id"), req.Note, actor)
	if err != nil {
		if apperr.AsAppError(err).Code == apperr.CodeForbidden {
			h.audit.PermissionViolation(c.Context(), actor, "conflict:"+c.Params("id"), "approve")
		}
		return err
	}

	h.audit.Info(c.Context(), actor, domain.AuditConflictApproved, "conflict:"+conflict.ID, map[string]any{
		"network_id": conflict.NetworkID,
		"type":       string(conflict.Type),
		"note":       req.Note,
	})
	return response.OK(c, conflict)
}
