package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/official-panen138/seo-nexus/core/domain"
	"github.com/official-panen138/seo-nexus/core/port/out"
	"github.com/official-panen138/seo-nexus/core/service/assets"
	"github.com/official-panen138/seo-nexus/core/service/monitor"
	"github.com/official-panen138/seo-nexus/infra/middleware"
	"github.com/official-panen138/seo-nexus/pkg/apperr"
	"github.com/official-panen138/seo-nexus/pkg/response"
)

// DomainHandler serves the asset-domain inventory routes.
type DomainHandler struct {
	assets  *assets.Service
	monitor *monitor.Service
}

// NewDomainHandler creates the handler.
func NewDomainHandler(assetsSvc *assets.Service, monitorSvc *monitor.Service) *DomainHandler {
	return &DomainHandler{assets: assetsSvc, monitor: monitorSvc}
}

// Register mounts the domain routes.
func (h *DomainHandler) Register(router fiber.Router) {
	domains := router.Group("/domains")

	domains.Get("/", h.List)
	domains.Post("/", h.Create)
	domains.Get("/unmonitored", h.Unmonitored)
	domains.Get("/:id", h.Get)
	domains.Put("/:id", h.Update)
	domains.Delete("/:id", h.Delete)
	domains.Put("/:id/monitoring", h.SetMonitoring)
	domains.Post("/:id/quarantine", h.Quarantine)
	domains.Post("/:id/quarantine/release", h.ReleaseQuarantine)
	domains.Post("/:id/check", h.CheckNow)
}

// CreateDomainRequest registers a domain.
type CreateDomainRequest struct {
	DomainName         string     `json:"domain_name"`
	BrandID            string     `json:"brand_id"`
	CategoryID         string     `json:"category_id"`
	RegistrarID        string     `json:"registrar_id"`
	ExpirationDate     *time.Time `json:"expiration_date"`
	AutoRenew          bool       `json:"auto_renew"`
	MonitoringEnabled  bool       `json:"monitoring_enabled"`
	MonitoringInterval string     `json:"monitoring_interval"`
}

// Create registers a domain.
func (h *DomainHandler) Create(c *fiber.Ctx) error {
	var req CreateDomainRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	d, err := h.assets.Create(c.Context(), &assets.CreateInput{
		DomainName:         req.DomainName,
		BrandID:            req.BrandID,
		CategoryID:         req.CategoryID,
		RegistrarID:        req.RegistrarID,
		ExpirationDate:     req.ExpirationDate,
		AutoRenew:          req.AutoRenew,
		MonitoringEnabled:  req.MonitoringEnabled,
		MonitoringInterval: domain.MonitoringInterval(req.MonitoringInterval),
	})
	if err != nil {
		return err
	}
	return response.Created(c, d)
}

// List returns the inventory with filters and pagination.
func (h *DomainHandler) List(c *fiber.Ctx) error {
	p := response.GetPagination(c, 50, 200)
	opts := &out.DomainListOptions{
		BrandID:        c.Query("brand_id"),
		Search:         c.Query("search"),
		MonitoringOnly: c.QueryBool("monitoring_only"),
		Limit:          p.Limit,
		Offset:         p.Offset,
	}
	if raw := c.Query("status"); raw != "" {
		status := domain.DomainStatus(raw)
		opts.Status = &status
	}
	if raw := c.Query("ping_status"); raw != "" {
		ping := domain.PingStatus(raw)
		opts.PingStatus = &ping
	}

	domains, total, err := h.assets.List(c.Context(), opts)
	if err != nil {
		return err
	}
	return response.OKWithMeta(c, domains, &response.Meta{Total: total, Page: p.Page, PageSize: p.PageSize})
}

// Unmonitored returns domains referenced by SEO structures without
// monitoring enabled, the same set the daily compliance reminder covers.
func (h *DomainHandler) Unmonitored(c *fiber.Ctx) error {
	domains, err := h.assets.UnmonitoredInUse(c.Context())
	if err != nil {
		return err
	}
	return response.OK(c, domains)
}

// Get returns one domain.
func (h *DomainHandler) Get(c *fiber.Ctx) error {
	d, err := h.assets.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return response.OK(c, d)
}

// UpdateDomainRequest carries optional field updates.
type UpdateDomainRequest struct {
	CategoryID     *string    `json:"category_id"`
	RegistrarID    *string    `json:"registrar_id"`
	Status         *string    `json:"status"`
	Lifecycle      *string    `json:"lifecycle"`
	ExpirationDate *time.Time `json:"expiration_date"`
	AutoRenew      *bool      `json:"auto_renew"`
}

// Update applies the provided fields.
func (h *DomainHandler) Update(c *fiber.Ctx) error {
	var req UpdateDomainRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	input := &assets.UpdateInput{
		CategoryID:     req.CategoryID,
		RegistrarID:    req.RegistrarID,
		ExpirationDate: req.ExpirationDate,
		AutoRenew:      req.AutoRenew,
	}
	if req.Status != nil {
		status := domain.DomainStatus(*req.Status)
		input.Status = &status
	}
	if req.Lifecycle != nil {
		lifecycle := domain.LifecycleStatus(*req.Lifecycle)
		input.Lifecycle = &lifecycle
	}
	d, err := h.assets.Update(c.Context(), c.Params("id"), input)
	if err != nil {
		return err
	}
	return response.OK(c, d)
}

// Delete removes an unreferenced domain.
func (h *DomainHandler) Delete(c *fiber.Ctx) error {
	if err := h.assets.Delete(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return response.NoContent(c)
}

// MonitoringRequest toggles probing.
type MonitoringRequest struct {
	Enabled  bool   `json:"enabled"`
	Interval string `json:"interval"`
}

// SetMonitoring toggles probing for a domain.
func (h *DomainHandler) SetMonitoring(c *fiber.Ctx) error {
	var req MonitoringRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	d, err := h.assets.SetMonitoring(c.Context(), c.Params("id"), req.Enabled, domain.MonitoringInterval(req.Interval))
	if err != nil {
		return err
	}
	return response.OK(c, d)
}

// QuarantineRequest places a hold on a domain.
type QuarantineRequest struct {
	Category string `json:"category"`
}

// Quarantine places an operator hold.
func (h *DomainHandler) Quarantine(c *fiber.Ctx) error {
	var req QuarantineRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	d, err := h.assets.Quarantine(c.Context(), middleware.ActorFrom(c), c.Params("id"), req.Category)
	if err != nil {
		return err
	}
	return response.OK(c, d)
}

// ReleaseQuarantine lifts the hold.
func (h *DomainHandler) ReleaseQuarantine(c *fiber.Ctx) error {
	d, err := h.assets.ReleaseQuarantine(c.Context(), middleware.ActorFrom(c), c.Params("id"))
	if err != nil {
		return err
	}
	return response.OK(c, d)
}

// CheckNow runs an immediate availability probe.
func (h *DomainHandler) CheckNow(c *fiber.Ctx) error {
	d, err := h.assets.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	outcome, err := h.monitor.CheckDomain(c.Context(), d)
	if err != nil {
		return err
	}
	return response.OK(c, outcome)
}
