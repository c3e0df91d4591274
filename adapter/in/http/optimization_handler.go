package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/official-panen138/seo-nexus/core/domain"
	"github.com/official-panen138/seo-nexus/core/port/out"
	"github.com/official-panen138/seo-nexus/core/service/optimization"
	"github.com/official-panen138/seo-nexus/infra/middleware"
	"github.com/official-panen138/seo-nexus/pkg/apperr"
	"github.com/official-panen138/seo-nexus/pkg/response"
)

// OptimizationHandler serves optimization and complaint routes.
type OptimizationHandler struct {
	optimizations *optimization.Service
}

// NewOptimizationHandler creates the handler.
func NewOptimizationHandler(svc *optimization.Service) *OptimizationHandler {
	return &OptimizationHandler{optimizations: svc}
}

// Register mounts the optimization routes.
func (h *OptimizationHandler) Register(router fiber.Router) {
	opts := router.Group("/optimizations")

	opts.Get("/", h.List)
	opts.Post("/", h.Create)
	opts.Get("/:id", h.Get)
	opts.Put("/:id/status", h.ChangeStatus)
	opts.Post("/:id/responses", h.AddResponse)
	opts.Delete("/:id", h.Delete)

	complaints := router.Group("/complaints")
	complaints.Get("/", h.ListComplaints)
	complaints.Post("/", h.Complain)
	complaints.Put("/:id/resolve", h.ResolveComplaint)
}

// CreateOptimizationRequest creates an optimization.
type CreateOptimizationRequest struct {
	NetworkID      string             `json:"network_id"`
	Title          string             `json:"title"`
	Description    string             `json:"description"`
	ReasonNote     string             `json:"reason_note"`
	ActivityType   string             `json:"activity_type"`
	Priority       string             `json:"priority"`
	AffectedScope  string             `json:"affected_scope"`
	TargetDomains  []string           `json:"target_domains"`
	Keywords       []string           `json:"keywords"`
	ReportURLs     []domain.ReportURL `json:"report_urls"`
	ExpectedImpact []string           `json:"expected_impact"`
}

// Create creates an optimization.
func (h *OptimizationHandler) Create(c *fiber.Ctx) error {
	var req CreateOptimizationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	opt, err := h.optimizations.Create(c.Context(), middleware.ActorFrom(c), &optimization.CreateInput{
		NetworkID:      req.NetworkID,
		Title:          req.Title,
		Description:    req.Description,
		ReasonNote:     req.ReasonNote,
		ActivityType:   req.ActivityType,
		Priority:       req.Priority,
		AffectedScope:  domain.AffectedScope(req.AffectedScope),
		TargetDomains:  req.TargetDomains,
		Keywords:       req.Keywords,
		ReportURLs:     req.ReportURLs,
		ExpectedImpact: req.ExpectedImpact,
	})
	if err != nil {
		return err
	}
	return response.Created(c, opt)
}

// List returns optimizations with filters.
func (h *OptimizationHandler) List(c *fiber.Ctx) error {
	p := response.GetPagination(c, 50, 200)
	opts := &out.OptimizationListOptions{
		NetworkID: c.Query("network_id"),
		BrandID:   c.Query("brand_id"),
		Limit:     p.Limit,
		Offset:    p.Offset,
	}
	if raw := c.Query("status"); raw != "" {
		status := domain.OptimizationStatus(raw)
		opts.Status = &status
	}
	if raw := c.Query("complaint_status"); raw != "" {
		cs := domain.ComplaintStatus(raw)
		opts.ComplaintStatus = &cs
	}

	items, total, err := h.optimizations.List(c.Context(), opts)
	if err != nil {
		return err
	}
	return response.OKWithMeta(c, items, &response.Meta{Total: total, Page: p.Page, PageSize: p.PageSize})
}

// Get returns one optimization.
func (h *OptimizationHandler) Get(c *fiber.Ctx) error {
	opt, err := h.optimizations.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return response.OK(c, opt)
}

// StatusRequest moves an optimization through its lifecycle.
type StatusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

// ChangeStatus updates the working state.
func (h *OptimizationHandler) ChangeStatus(c *fiber.Ctx) error {
	var req StatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	opt, err := h.optimizations.ChangeStatus(c.Context(), middleware.ActorFrom(c), c.Params("id"), domain.OptimizationStatus(req.Status), req.Note)
	if err != nil {
		return err
	}
	return response.OK(c, opt)
}

// ResponseRequest appends a team reply.
type ResponseRequest struct {
	Message string `json:"message"`
}

// AddResponse appends a reply to the thread.
func (h *OptimizationHandler) AddResponse(c *fiber.Ctx) error {
	var req ResponseRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	resp, err := h.optimizations.AddResponse(c.Context(), middleware.ActorFrom(c), c.Params("id"), req.Message)
	if err != nil {
		return err
	}
	return response.Created(c, resp)
}

// Delete removes an optimization (super admin only).
func (h *OptimizationHandler) Delete(c *fiber.Ctx) error {
	if err := h.optimizations.Delete(c.Context(), middleware.ActorFrom(c), c.Params("id")); err != nil {
		return err
	}
	return response.NoContent(c)
}

// ComplaintRequest raises a complaint.
type ComplaintRequest struct {
	OptimizationID     string   `json:"optimization_id"`
	NetworkID          string   `json:"network_id"`
	Reason             string   `json:"reason"`
	Priority           string   `json:"priority"`
	ResponsibleUserIDs []string `json:"responsible_user_ids"`
}

// Complain raises a complaint.
func (h *OptimizationHandler) Complain(c *fiber.Ctx) error {
	var req ComplaintRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	complaint, err := h.optimizations.Complain(c.Context(), middleware.ActorFrom(c), &optimization.ComplaintInput{
		OptimizationID:     req.OptimizationID,
		NetworkID:          req.NetworkID,
		Reason:             req.Reason,
		Priority:           req.Priority,
		ResponsibleUserIDs: req.ResponsibleUserIDs,
	})
	if err != nil {
		return err
	}
	return response.Created(c, complaint)
}

// ListComplaints returns complaints scoped by query params.
func (h *OptimizationHandler) ListComplaints(c *fiber.Ctx) error {
	complaints, err := h.optimizations.ListComplaints(c.Context(), c.Query("optimization_id"), c.Query("network_id"))
	if err != nil {
		return err
	}
	return response.OK(c, complaints)
}

// ResolveRequest closes a complaint.
type ResolveRequest struct {
	ResolutionNote string `json:"resolution_note"`
}

// ResolveComplaint closes a complaint with its resolution note.
func (h *OptimizationHandler) ResolveComplaint(c *fiber.Ctx) error {
	var req ResolveRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	complaint, err := h.optimizations.ResolveComplaint(c.Context(), middleware.ActorFrom(c), c.Params("id"), req.ResolutionNote)
	if err != nil {
		return err
	}
	return response.OK(c, complaint)
}
