// Package http exposes the REST API. Handlers parse and validate
// transport concerns only; business rules live in the services.
package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/official-panen138/seo-nexus/core/domain"
	"github.com/official-panen138/seo-nexus/core/service/linker"
	"github.com/official-panen138/seo-nexus/core/service/seo"
	"github.com/official-panen138/seo-nexus/infra/middleware"
	"github.com/official-panen138/seo-nexus/pkg/apperr"
	"github.com/official-panen138/seo-nexus/pkg/response"
)

// NetworkHandler serves SEO network and structure routes.
type NetworkHandler struct {
	seo    *seo.Service
	linker *linker.Service
}

// NewNetworkHandler creates the handler.
func NewNetworkHandler(seoSvc *seo.Service, linkerSvc *linker.Service) *NetworkHandler {
	return &NetworkHandler{seo: seoSvc, linker: linkerSvc}
}

// Register mounts the network routes.
func (h *NetworkHandler) Register(router fiber.Router) {
	networks := router.Group("/networks")

	networks.Get("/", h.List)
	networks.Post("/", h.Create)
	networks.Get("/:id/structure", h.GetStructure)
	networks.Delete("/:id", h.Delete)
	networks.Post("/:id/main-switch", h.SwitchMain)
	networks.Post("/:id/conflicts/scan", h.ScanConflicts)

	networks.Post("/:id/entries", h.CreateEntry)

	entries := router.Group("/entries")
	entries.Put("/:id", h.UpdateEntry)
	entries.Delete("/:id", h.DeleteEntry)
}

// EntryRequest is the transport payload for a structure entry.
type EntryRequest struct {
	AssetDomainID   string `json:"asset_domain_id"`
	OptimizedPath   string `json:"optimized_path"`
	DomainRole      string `json:"domain_role"`
	DomainStatus    string `json:"domain_status"`
	IndexStatus     string `json:"index_status"`
	TargetEntryID   string `json:"target_entry_id"`
	RankingPosition *int   `json:"ranking_position"`
	PrimaryKeyword  string `json:"primary_keyword"`
	RankingURL      string `json:"ranking_url"`
	Notes           string `json:"notes"`
}

func (r *EntryRequest) toInput() *seo.EntryInput {
	return &seo.EntryInput{
		AssetDomainID:   r.AssetDomainID,
		OptimizedPath:   r.OptimizedPath,
		Role:            domain.DomainRole(r.DomainRole),
		Status:          domain.EntryStatus(r.DomainStatus),
		IndexStatus:     domain.IndexStatus(r.IndexStatus),
		TargetEntryID:   r.TargetEntryID,
		RankingPosition: r.RankingPosition,
		PrimaryKeyword:  r.PrimaryKeyword,
		RankingURL:      r.RankingURL,
		Notes:           r.Notes,
	}
}

// CreateNetworkRequest creates a network with its main node.
type CreateNetworkRequest struct {
	BrandID    string       `json:"brand_id"`
	Name       string       `json:"name"`
	Visibility string       `json:"visibility"`
	ManagerIDs []string     `json:"manager_ids"`
	Main       EntryRequest `json:"main"`
	ChangeNote string       `json:"change_note"`
}

// Create creates a network.
func (h *NetworkHandler) Create(c *fiber.Ctx) error {
	var req CreateNetworkRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	if req.Name == "" {
		return apperr.MissingField("name")
	}

	network, err := h.seo.CreateNetwork(c.Context(), middleware.ActorFrom(c), &seo.NetworkInput{
		BrandID:    req.BrandID,
		Name:       req.Name,
		Visibility: domain.VisibilityMode(req.Visibility),
		ManagerIDs: req.ManagerIDs,
		Main:       *req.Main.toInput(),
	}, req.ChangeNote)
	if err != nil {
		return err
	}
	return response.Created(c, network)
}

// List returns networks, optionally filtered by brand.
func (h *NetworkHandler) List(c *fiber.Ctx) error {
	p := response.GetPagination(c, 50, 200)
	networks, total, err := h.seo.ListNetworks(c.Context(), c.Query("brand_id"), p.Limit, p.Offset)
	if err != nil {
		return err
	}
	return response.OKWithMeta(c, networks, &response.Meta{Total: total, Page: p.Page, PageSize: p.PageSize})
}

// GetStructure returns a network with entries and computed tiers.
func (h *NetworkHandler) GetStructure(c *fiber.Ctx) error {
	structure, err := h.seo.GetStructure(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return response.OK(c, structure)
}

// deleteRequest carries the mandatory rationale for destructive calls.
type deleteRequest struct {
	ChangeNote string `json:"change_note"`
}

// Delete removes a network and its entries.
func (h *NetworkHandler) Delete(c *fiber.Ctx) error {
	var req deleteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	if err := h.seo.DeleteNetwork(c.Context(), middleware.ActorFrom(c), c.Params("id"), req.ChangeNote); err != nil {
		return err
	}
	return response.NoContent(c)
}

// SwitchMainRequest promotes a node to main.
type SwitchMainRequest struct {
	NewMainEntryID string `json:"new_main_entry_id"`
	ChangeNote     string `json:"change_note"`
}

// SwitchMain swaps the network's main node.
func (h *NetworkHandler) SwitchMain(c *fiber.Ctx) error {
	var req SwitchMainRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	if req.NewMainEntryID == "" {
		return apperr.MissingField("new_main_entry_id")
	}
	if err := h.seo.SwitchMain(c.Context(), middleware.ActorFrom(c), c.Params("id"), req.NewMainEntryID, req.ChangeNote); err != nil {
		return err
	}
	return response.OK(c, fiber.Map{"switched": true})
}

// ScanConflicts runs the detectors over the network.
func (h *NetworkHandler) ScanConflicts(c *fiber.Ctx) error {
	result, err := h.linker.Scan(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return response.OK(c, result)
}

// CreateEntryRequest adds a node to a network.
type CreateEntryRequest struct {
	EntryRequest
	ChangeNote string `json:"change_note"`
}

// CreateEntry adds a structure entry.
func (h *NetworkHandler) CreateEntry(c *fiber.Ctx) error {
	var req CreateEntryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	entry, err := h.seo.CreateEntry(c.Context(), middleware.ActorFrom(c), c.Params("id"), req.toInput(), req.ChangeNote)
	if err != nil {
		return err
	}
	return response.Created(c, entry)
}

// UpdateEntry applies a tracked-field update to a node.
func (h *NetworkHandler) UpdateEntry(c *fiber.Ctx) error {
	var req CreateEntryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	entry, err := h.seo.UpdateEntry(c.Context(), middleware.ActorFrom(c), c.Params("id"), req.toInput(), req.ChangeNote)
	if err != nil {
		return err
	}
	return response.OK(c, entry)
}

// DeleteEntry removes a node.
func (h *NetworkHandler) DeleteEntry(c *fiber.Ctx) error {
	var req deleteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	if err := h.seo.DeleteEntry(c.Context(), middleware.ActorFrom(c), c.Params("id"), req.ChangeNote); err != nil {
		return err
	}
	return response.NoContent(c)
}
