package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/official-panen138/seo-nexus/core/domain"
	"github.com/official-panen138/seo-nexus/core/port/out"
	"github.com/official-panen138/seo-nexus/core/service/ledger"
	"github.com/official-panen138/seo-nexus/core/service/seo"
	"github.com/official-panen138/seo-nexus/pkg/response"
)

// ChangeLogHandler serves the change ledger routes. The ledger is
// append-only: rows can be archived or have their notification retried,
// never edited.
type ChangeLogHandler struct {
	ledger *ledger.Service
	seo    *seo.Service
}

// NewChangeLogHandler creates the handler.
func NewChangeLogHandler(ledgerSvc *ledger.Service, seoSvc *seo.Service) *ChangeLogHandler {
	return &ChangeLogHandler{ledger: ledgerSvc, seo: seoSvc}
}

// Register mounts the change-log routes.
func (h *ChangeLogHandler) Register(router fiber.Router) {
	logs := router.Group("/change-logs")

	logs.Get("/", h.List)
	logs.Get("/:id", h.Get)
	logs.Post("/:id/archive", h.Archive)
	logs.Post("/:id/retry-notification", h.RetryNotification)
}

// List returns ledger rows with filters.
func (h *ChangeLogHandler) List(c *fiber.Ctx) error {
	p := response.GetPagination(c, 50, 200)
	opts := &out.ChangeLogListOptions{
		NetworkID:  c.Query("network_id"),
		BrandID:    c.Query("brand_id"),
		ActorEmail: c.Query("actor_email"),
		Limit:      p.Limit,
		Offset:     p.Offset,
	}
	if raw := c.Query("action_type"); raw != "" {
		action := domain.ActionType(raw)
		opts.ActionType = &action
	}
	if c.Query("archived") != "" {
		archived := c.QueryBool("archived")
		opts.Archived = &archived
	}

	rows, total, err := h.ledger.List(c.Context(), opts)
	if err != nil {
		return err
	}
	return response.OKWithMeta(c, rows, &response.Meta{Total: total, Page: p.Page, PageSize: p.PageSize})
}

// Get returns one ledger row.
func (h *ChangeLogHandler) Get(c *fiber.Ctx) error {
	row, err := h.ledger.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return response.OK(c, row)
}

// Archive soft-hides a ledger row.
func (h *ChangeLogHandler) Archive(c *fiber.Ctx) error {
	if err := h.ledger.Archive(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return response.OK(c, fiber.Map{"archived": true})
}

// RetryNotification re-sends a failed ledger notification.
func (h *ChangeLogHandler) RetryNotification(c *fiber.Ctx) error {
	row, err := h.seo.RetryNotification(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return response.OK(c, row)
}
