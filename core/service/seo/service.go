// Package seo implements network and structure-entry operations. Every
// write runs through the change-ledger pipeline: rationale validation,
// strict diff, entity write, ledger row, templated notification.
package seo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/official-panen138/seo-nexus/core/domain"
	"github.com/official-panen138/seo-nexus/core/port/out"
	"github.com/official-panen138/seo-nexus/core/service/graph"
	"github.com/official-panen138/seo-nexus/core/service/ledger"
	"github.com/official-panen138/seo-nexus/pkg/apperr"
	"github.com/official-panen138/seo-nexus/pkg/logger"
)

// Service orchestrates graph writes.
type Service struct {
	networks out.NetworkRepository
	entries  out.EntryRepository
	domains  out.AssetDomainRepository
	brands   out.BrandRepository
	ledger   *ledger.Service
	log      *logger.Logger
}

// New creates the SEO service.
func New(networks out.NetworkRepository, entries out.EntryRepository, domains out.AssetDomainRepository, brands out.BrandRepository, ledgerSvc *ledger.Service) *Service {
	return &Service{
		networks: networks,
		entries:  entries,
		domains:  domains,
		brands:   brands,
		ledger:   ledgerSvc,
		log:      logger.Default().WithField("component", "seo"),
	}
}

// EntryInput is the write payload for a structure entry.
type EntryInput struct {
	AssetDomainID   string
	OptimizedPath   string
	Role            domain.DomainRole
	Status          domain.EntryStatus
	IndexStatus     domain.IndexStatus
	TargetEntryID   string
	RankingPosition *int
	PrimaryKeyword  string
	RankingURL      string
	Notes           string
}

// NetworkInput is the write payload for a network plus its main node.
type NetworkInput struct {
	BrandID    string
	Name       string
	Visibility domain.VisibilityMode
	ManagerIDs []string
	Main       EntryInput
}

// Structure is a network with its entries and computed tiers.
type Structure struct {
	Network *domain.Network
	Entries []*domain.StructureEntry
	Tiers   map[string]int
}

// CreateNetwork creates a network together with its main node. Both
// writes are ledgered under the shared rationale and announced with
// the network-created event.
func (s *Service) CreateNetwork(ctx context.Context, actor domain.Actor, input *NetworkInput, note string) (*domain.Network, error) {
	trimmed, err := ledger.ValidateChangeNote(note)
	if err != nil {
		return nil, err
	}
	brand, err := s.brands.GetByID(ctx, input.BrandID)
	if err != nil {
		return nil, err
	}
	assetDomain, err := s.domains.GetByID(ctx, input.Main.AssetDomainID)
	if err != nil {
		return nil, err
	}
	if assetDomain.BrandID != brand.ID {
		return nil, apperr.ValidationFailed("main node domain must belong to the network's brand")
	}

	now := time.Now()
	visibility := input.Visibility
	if visibility == "" {
		visibility = domain.VisibilityBrandBased
	}
	network := &domain.Network{
		ID:         uuid.New().String(),
		BrandID:    input.BrandID,
		Name:       input.Name,
		Status:     "active",
		Visibility: visibility,
		ManagerIDs: input.ManagerIDs,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	main := &domain.StructureEntry{
		ID:             uuid.New().String(),
		NetworkID:      network.ID,
		AssetDomainID:  assetDomain.ID,
		DomainName:     assetDomain.DomainName,
		OptimizedPath:  domain.NormalizePath(input.Main.OptimizedPath),
		Role:           domain.RoleMain,
		Status:         domain.StatusPrimary,
		IndexStatus:    defaultIndexStatus(input.Main.IndexStatus),
		PrimaryKeyword: input.Main.PrimaryKeyword,
		RankingURL:     input.Main.RankingURL,
		Notes:          input.Main.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := graph.ValidateEntry(main, nil, network.BrandID, assetDomain.BrandID); err != nil {
		return nil, err
	}

	if err := s.networks.Save(ctx, network); err != nil {
		return nil, err
	}
	if err := s.entries.Save(ctx, main); err != nil {
		// Keep the entity+ledger unit consistent: a half-created
		// network without a main node violates the one-main invariant.
		_ = s.networks.Delete(ctx, network.ID)
		return nil, err
	}

	row, err := s.ledger.Record(ctx, &ledger.Entry{
		NetworkID:    network.ID,
		BrandID:      network.BrandID,
		EntryID:      main.ID,
		ActionType:   domain.ActionCreateNetwork,
		AffectedNode: main.Label(),
		ActorUserID:  actor.UserID,
		ActorEmail:   actor.Email,
		ChangeNote:   trimmed,
		After:        main.Snapshot(""),
	})
	if err != nil {
		_, _ = s.entries.DeleteByNetwork(ctx, network.ID)
		_ = s.networks.Delete(ctx, network.ID)
		return nil, err
	}

	vars := s.changeVars(ctx, actor, network, main, row, nil)
	s.ledger.Notify(ctx, row, domain.EventNetworkCreated, vars)
	return network, nil
}

// CreateEntry adds a node to an existing network.
func (s *Service) CreateEntry(ctx context.Context, actor domain.Actor, networkID string, input *EntryInput, note string) (*domain.StructureEntry, error) {
	trimmed, err := ledger.ValidateChangeNote(note)
	if err != nil {
		return nil, err
	}
	network, err := s.networks.GetByID(ctx, networkID)
	if err != nil {
		return nil, err
	}
	assetDomain, err := s.domains.GetByID(ctx, input.AssetDomainID)
	if err != nil {
		return nil, err
	}
	siblings, err := s.entries.ListByNetwork(ctx, networkID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	entry := &domain.StructureEntry{
		ID:              uuid.New().String(),
		NetworkID:       networkID,
		AssetDomainID:   assetDomain.ID,
		DomainName:      assetDomain.DomainName,
		OptimizedPath:   domain.NormalizePath(input.OptimizedPath),
		Role:            input.Role,
		Status:          input.Status,
		IndexStatus:     defaultIndexStatus(input.IndexStatus),
		TargetEntryID:   input.TargetEntryID,
		RankingPosition: input.RankingPosition,
		PrimaryKeyword:  input.PrimaryKeyword,
		RankingURL:      input.RankingURL,
		Notes:           input.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if entry.Role == "" {
		entry.Role = domain.RoleSupporting
	}
	if !domain.IsValidEntryStatus(string(entry.Status)) {
		return nil, apperr.InvalidInput("domain_status", "unknown status")
	}
	if err := graph.ValidateEntry(entry, siblings, network.BrandID, assetDomain.BrandID); err != nil {
		return nil, err
	}

	if err := s.entries.Save(ctx, entry); err != nil {
		return nil, err
	}
	row, err := s.ledger.Record(ctx, &ledger.Entry{
		NetworkID:    networkID,
		BrandID:      network.BrandID,
		EntryID:      entry.ID,
		ActionType:   domain.ActionCreateNode,
		AffectedNode: entry.Label(),
		ActorUserID:  actor.UserID,
		ActorEmail:   actor.Email,
		ChangeNote:   trimmed,
		After:        entry.Snapshot(s.targetLabel(append(siblings, entry), entry.TargetEntryID)),
	})
	if err != nil {
		_ = s.entries.Delete(ctx, entry.ID)
		return nil, err
	}

	vars := s.changeVars(ctx, actor, network, entry, row, append(siblings, entry))
	s.ledger.Notify(ctx, row, domain.EventSEOChange, vars)
	return entry, nil
}

// UpdateEntry applies a tracked-field update. A save that changes
// nothing is rejected.
func (s *Service) UpdateEntry(ctx context.Context, actor domain.Actor, entryID string, input *EntryInput, note string) (*domain.StructureEntry, error) {
	trimmed, err := ledger.ValidateChangeNote(note)
	if err != nil {
		return nil, err
	}
	entry, err := s.entries.GetByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	network, err := s.networks.GetByID(ctx, entry.NetworkID)
	if err != nil {
		return nil, err
	}
	all, err := s.entries.ListByNetwork(ctx, entry.NetworkID)
	if err != nil {
		return nil, err
	}
	siblings := excludeEntry(all, entry.ID)

	before := *entry
	beforeSnapshot := entry.Snapshot(s.targetLabel(all, entry.TargetEntryID))

	entry.OptimizedPath = domain.NormalizePath(input.OptimizedPath)
	if input.Role != "" {
		entry.Role = input.Role
	}
	if input.Status != "" {
		if !domain.IsValidEntryStatus(string(input.Status)) {
			return nil, apperr.InvalidInput("domain_status", "unknown status")
		}
		entry.Status = input.Status
	}
	if input.IndexStatus != "" {
		entry.IndexStatus = input.IndexStatus
	}
	entry.TargetEntryID = input.TargetEntryID
	entry.RankingPosition = input.RankingPosition
	entry.PrimaryKeyword = input.PrimaryKeyword
	entry.RankingURL = input.RankingURL
	entry.Notes = input.Notes

	afterSnapshot := entry.Snapshot(s.targetLabel(all, entry.TargetEntryID))
	changes := ledger.Diff(beforeSnapshot, afterSnapshot)
	if len(changes) == 0 {
		return nil, apperr.NoChanges()
	}
	if err := graph.ValidateEntry(entry, siblings, network.BrandID, ""); err != nil {
		return nil, err
	}

	entry.UpdatedAt = time.Now()
	if err := s.entries.Update(ctx, entry); err != nil {
		return nil, err
	}

	action := ledger.ClassifyAction(changes)
	row, err := s.ledger.Record(ctx, &ledger.Entry{
		NetworkID:    entry.NetworkID,
		BrandID:      network.BrandID,
		EntryID:      entry.ID,
		ActionType:   action,
		AffectedNode: entry.Label(),
		ActorUserID:  actor.UserID,
		ActorEmail:   actor.Email,
		ChangeNote:   trimmed,
		Before:       beforeSnapshot,
		After:        afterSnapshot,
		Changes:      changes,
	})
	if err != nil {
		_ = s.entries.Update(ctx, &before)
		return nil, err
	}

	vars := s.changeVars(ctx, actor, network, entry, row, all)
	s.ledger.Notify(ctx, row, domain.EventSEOChange, vars)
	return entry, nil
}

// DeleteEntry removes a node. The main node is protected while other
// nodes remain; delete is a critical action and bypasses the
// notification throttle.
func (s *Service) DeleteEntry(ctx context.Context, actor domain.Actor, entryID, note string) error {
	trimmed, err := ledger.ValidateChangeNote(note)
	if err != nil {
		return err
	}
	entry, err := s.entries.GetByID(ctx, entryID)
	if err != nil {
		return err
	}
	network, err := s.networks.GetByID(ctx, entry.NetworkID)
	if err != nil {
		return err
	}
	all, err := s.entries.ListByNetwork(ctx, entry.NetworkID)
	if err != nil {
		return err
	}
	siblings := excludeEntry(all, entry.ID)
	if err := graph.ValidateDelete(entry, siblings); err != nil {
		return err
	}

	beforeSnapshot := entry.Snapshot(s.targetLabel(all, entry.TargetEntryID))
	if err := s.entries.Delete(ctx, entry.ID); err != nil {
		return err
	}

	row, err := s.ledger.Record(ctx, &ledger.Entry{
		NetworkID:    entry.NetworkID,
		BrandID:      network.BrandID,
		EntryID:      entry.ID,
		ActionType:   domain.ActionDeleteNode,
		AffectedNode: entry.Label(),
		ActorUserID:  actor.UserID,
		ActorEmail:   actor.Email,
		ChangeNote:   trimmed,
		Before:       beforeSnapshot,
	})
	if err != nil {
		_ = s.entries.Save(ctx, entry)
		return err
	}

	vars := s.changeVars(ctx, actor, network, entry, row, siblings)
	s.ledger.Notify(ctx, row, domain.EventNodeDeleted, vars)
	return nil
}

// SwitchMain promotes a supporting node to main: the old main is
// demoted to a canonical supporter targeting the new main, the new
// main loses its target, and tiers recompute. Each step writes its own
// ledger row under the shared rationale.
func (s *Service) SwitchMain(ctx context.Context, actor domain.Actor, networkID, newMainID, note string) error {
	trimmed, err := ledger.ValidateChangeNote(note)
	if err != nil {
		return err
	}
	network, err := s.networks.GetByID(ctx, networkID)
	if err != nil {
		return err
	}
	all, err := s.entries.ListByNetwork(ctx, networkID)
	if err != nil {
		return err
	}
	g := graph.Build(all)
	if g.Main == nil {
		return apperr.Conflict("network has no main node")
	}
	if g.Main.ID == newMainID {
		return apperr.NoChanges()
	}
	newMain, ok := g.ByID[newMainID]
	if !ok {
		return apperr.NotFound("structure entry", newMainID)
	}

	now := time.Now()
	oldMain := g.Main

	// Step 1: demote old main.
	oldBefore := oldMain.Snapshot("")
	oldMain.Role = domain.RoleSupporting
	oldMain.Status = domain.StatusCanonical
	oldMain.TargetEntryID = newMain.ID
	oldMain.UpdatedAt = now
	if err := s.entries.Update(ctx, oldMain); err != nil {
		return err
	}
	demoteRow, err := s.ledger.Record(ctx, &ledger.Entry{
		NetworkID:    networkID,
		BrandID:      network.BrandID,
		EntryID:      oldMain.ID,
		ActionType:   domain.ActionChangeRole,
		AffectedNode: oldMain.Label(),
		ActorUserID:  actor.UserID,
		ActorEmail:   actor.Email,
		ChangeNote:   trimmed,
		Before:       oldBefore,
		After:        oldMain.Snapshot(newMain.Label()),
	})
	if err != nil {
		return err
	}

	// Step 2: promote new main.
	newBefore := newMain.Snapshot(s.targetLabel(all, newMain.TargetEntryID))
	newMain.Role = domain.RoleMain
	newMain.Status = domain.StatusPrimary
	newMain.TargetEntryID = ""
	newMain.UpdatedAt = now
	if err := s.entries.Update(ctx, newMain); err != nil {
		return err
	}
	promoteRow, err := s.ledger.Record(ctx, &ledger.Entry{
		NetworkID:    networkID,
		BrandID:      network.BrandID,
		EntryID:      newMain.ID,
		ActionType:   domain.ActionChangeRole,
		AffectedNode: newMain.Label(),
		ActorUserID:  actor.UserID,
		ActorEmail:   actor.Email,
		ChangeNote:   trimmed,
		Before:       newBefore,
		After:        newMain.Snapshot(""),
	})
	if err != nil {
		return err
	}

	// Step 3: tiers are derived, not stored; rebuilding the graph is
	// the recompute. Ledger the switch itself against the new main.
	vars := s.changeVars(ctx, actor, network, newMain, promoteRow, all)
	s.ledger.Notify(ctx, demoteRow, domain.EventSEOChange, s.changeVars(ctx, actor, network, oldMain, demoteRow, all))
	s.ledger.Notify(ctx, promoteRow, domain.EventSEOChange, vars)
	return nil
}

// GetStructure loads a network with entries and computed tiers.
func (s *Service) GetStructure(ctx context.Context, networkID string) (*Structure, error) {
	network, err := s.networks.GetByID(ctx, networkID)
	if err != nil {
		return nil, err
	}
	entries, err := s.entries.ListByNetwork(ctx, networkID)
	if err != nil {
		return nil, err
	}
	g := graph.Build(entries)
	return &Structure{Network: network, Entries: entries, Tiers: g.Tiers}, nil
}

// ListNetworks returns networks with pagination.
func (s *Service) ListNetworks(ctx context.Context, brandID string, limit, offset int) ([]*domain.Network, int64, error) {
	if brandID != "" {
		networks, err := s.networks.ListByBrand(ctx, brandID)
		return networks, int64(len(networks)), err
	}
	return s.networks.List(ctx, limit, offset)
}

// DeleteNetwork removes a network and every entry in it.
func (s *Service) DeleteNetwork(ctx context.Context, actor domain.Actor, networkID, note string) error {
	trimmed, err := ledger.ValidateChangeNote(note)
	if err != nil {
		return err
	}
	network, err := s.networks.GetByID(ctx, networkID)
	if err != nil {
		return err
	}
	deleted, err := s.entries.DeleteByNetwork(ctx, networkID)
	if err != nil {
		return err
	}
	if err := s.networks.Delete(ctx, networkID); err != nil {
		return err
	}
	s.log.WithFields(map[string]any{
		"network_id": networkID, "network_name": network.Name,
		"entries_deleted": deleted, "actor": actor.Email, "reason": trimmed,
	}).Info("network deleted")
	return nil
}

// RetryNotification re-sends a failed ledger notification. The event
// context is rebuilt from the stored row; the entry may be gone for
// delete actions, so the row snapshot stands in.
func (s *Service) RetryNotification(ctx context.Context, id string) (*domain.ChangeLog, error) {
	row, err := s.ledger.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	network, err := s.networks.GetByID(ctx, row.NetworkID)
	if err != nil {
		return nil, err
	}

	event := domain.EventSEOChange
	switch row.ActionType {
	case domain.ActionDeleteNode:
		event = domain.EventNodeDeleted
	case domain.ActionCreateNetwork:
		event = domain.EventNetworkCreated
	}

	actor := domain.Actor{UserID: row.ActorUserID, Email: row.ActorEmail}
	entry, entryErr := s.entries.GetByID(ctx, row.EntryID)
	if entryErr != nil {
		entry = entryFromSnapshot(row)
	}
	var all []*domain.StructureEntry
	if entryErr == nil {
		all, _ = s.entries.ListByNetwork(ctx, row.NetworkID)
	}

	vars := s.changeVars(ctx, actor, network, entry, row, all)
	return s.ledger.Retry(ctx, row.ID, event, vars)
}

// entryFromSnapshot reconstructs enough of a deleted entry for the
// notification template.
func entryFromSnapshot(row *domain.ChangeLog) *domain.StructureEntry {
	entry := &domain.StructureEntry{
		ID:        row.EntryID,
		NetworkID: row.NetworkID,
	}
	snap := row.BeforeSnapshot
	if snap == nil {
		snap = row.AfterSnapshot
	}
	if snap != nil {
		entry.DomainName = snap.DomainName
		entry.OptimizedPath = snap.OptimizedPath
		entry.Role = domain.DomainRole(snap.Role)
		entry.Status = domain.EntryStatus(snap.Status)
		entry.IndexStatus = domain.IndexStatus(snap.IndexStatus)
		entry.TargetEntryID = snap.TargetEntryID
		entry.RankingPosition = snap.RankingPosition
		entry.PrimaryKeyword = snap.PrimaryKeyword
		entry.RankingURL = snap.RankingURL
		entry.Notes = snap.Notes
	}
	return entry
}

func defaultIndexStatus(status domain.IndexStatus) domain.IndexStatus {
	if status == "" {
		return domain.IndexStatusIndex
	}
	return status
}

func excludeEntry(entries []*domain.StructureEntry, id string) []*domain.StructureEntry {
	result := make([]*domain.StructureEntry, 0, len(entries))
	for _, e := range entries {
		if e.ID != id {
			result = append(result, e)
		}
	}
	return result
}

func (s *Service) targetLabel(entries []*domain.StructureEntry, targetID string) string {
	if targetID == "" {
		return ""
	}
	for _, e := range entries {
		if e.ID == targetID {
			return e.Label()
		}
	}
	return ""
}
