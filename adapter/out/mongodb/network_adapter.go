package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/official-panen138/seo-nexus/core/domain"
	"github.com/official-panen138/seo-nexus/core/port/out"
	"github.com/official-panen138/seo-nexus/pkg/apperr"
)

const (
	collectionNetworks = "seo_networks"
	collectionEntries  = "seo_structure_entries"
)

// NetworkAdapter implements out.NetworkRepository using MongoDB.
type NetworkAdapter struct {
	collection *mongo.Collection
}

// NewNetworkAdapter creates a new MongoDB network adapter.
func NewNetworkAdapter(db *mongo.Database) *NetworkAdapter {
	return &NetworkAdapter{collection: db.Collection(collectionNetworks)}
}

var _ out.NetworkRepository = (*NetworkAdapter)(nil)

// EnsureIndexes creates necessary indexes for the collection.
func (a *NetworkAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "brand_id", Value: 1}},
		},
	}
	_, err := a.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

type networkDocument struct {
	ID         string   `bson:"id"`
	BrandID    string   `bson:"brand_id"`
	Name       string   `bson:"name"`
	Status     string   `bson:"status"`
	Visibility string   `bson:"visibility_mode"`
	ManagerIDs []string `bson:"manager_ids"`
	CreatedAt  string   `bson:"created_at"`
	UpdatedAt  string   `bson:"updated_at"`
}

func toNetworkDocument(n *domain.Network) *networkDocument {
	return &networkDocument{
		ID:         n.ID,
		BrandID:    n.BrandID,
		Name:       n.Name,
		Status:     n.Status,
		Visibility: string(n.Visibility),
		ManagerIDs: n.ManagerIDs,
		CreatedAt:  ts(n.CreatedAt),
		UpdatedAt:  ts(n.UpdatedAt),
	}
}

func (doc *networkDocument) toEntity() *domain.Network {
	return &domain.Network{
		ID:         doc.ID,
		BrandID:    doc.BrandID,
		Name:       doc.Name,
		Status:     doc.Status,
		Visibility: domain.VisibilityMode(doc.Visibility),
		ManagerIDs: doc.ManagerIDs,
		CreatedAt:  parseTS(doc.CreatedAt),
		UpdatedAt:  parseTS(doc.UpdatedAt),
	}
}

// Save inserts a network.
func (a *NetworkAdapter) Save(ctx context.Context, n *domain.Network) error {
	_, err := a.collection.InsertOne(ctx, toNetworkDocument(n))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.AlreadyExists("network", n.ID)
		}
		return fmt.Errorf("failed to save network: %w", err)
	}
	return nil
}

// Update replaces an existing network document.
func (a *NetworkAdapter) Update(ctx context.Context, n *domain.Network) error {
	res, err := a.collection.ReplaceOne(ctx, bson.M{"id": n.ID}, toNetworkDocument(n))
	if err != nil {
		return fmt.Errorf("failed to update network: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("network", n.ID)
	}
	return nil
}

// GetByID retrieves a network by id.
func (a *NetworkAdapter) GetByID(ctx context.Context, id string) (*domain.Network, error) {
	var doc networkDocument
	err := a.collection.FindOne(ctx, bson.M{"id": id}).Decode(&doc)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("network", id)
		}
		return nil, fmt.Errorf("failed to get network: %w", err)
	}
	return doc.toEntity(), nil
}

// ListByBrand returns all networks for one brand.
func (a *NetworkAdapter) ListByBrand(ctx context.Context, brandID string) ([]*domain.Network, error) {
	cursor, err := a.collection.Find(ctx, bson.M{"brand_id": brandID},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list networks: %w", err)
	}
	defer cursor.Close(ctx)
	return decodeNetworks(ctx, cursor)
}

// List returns networks with pagination and a total count.
func (a *NetworkAdapter) List(ctx context.Context, limit, offset int) ([]*domain.Network, int64, error) {
	total, err := a.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count networks: %w", err)
	}
	findOpts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	if limit > 0 {
		findOpts.SetLimit(int64(limit)).SetSkip(int64(offset))
	}
	cursor, err := a.collection.Find(ctx, bson.M{}, findOpts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list networks: %w", err)
	}
	defer cursor.Close(ctx)

	networks, err := decodeNetworks(ctx, cursor)
	if err != nil {
		return nil, 0, err
	}
	return networks, total, nil
}

// Delete removes a network document. Entries are deleted separately.
func (a *NetworkAdapter) Delete(ctx context.Context, id string) error {
	res, err := a.collection.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete network: %w", err)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("network", id)
	}
	return nil
}

func decodeNetworks(ctx context.Context, cursor *mongo.Cursor) ([]*domain.Network, error) {
	var networks []*domain.Network
	for cursor.Next(ctx) {
		var doc networkDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode network: %w", err)
		}
		networks = append(networks, doc.toEntity())
	}
	return networks, cursor.Err()
}

// =============================================================================
// Structure entries
// =============================================================================

// EntryAdapter implements out.EntryRepository using MongoDB.
type EntryAdapter struct {
	collection *mongo.Collection
}

// NewEntryAdapter creates a new MongoDB structure-entry adapter.
func NewEntryAdapter(db *mongo.Database) *EntryAdapter {
	return &EntryAdapter{collection: db.Collection(collectionEntries)}
}

var _ out.EntryRepository = (*EntryAdapter)(nil)

// EnsureIndexes creates necessary indexes for the collection. The
// compound unique index backs the per-(network, domain, path)
// uniqueness invariant.
func (a *EntryAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "network_id", Value: 1},
				{Key: "asset_domain_id", Value: 1},
				{Key: "optimized_path", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "target_entry_id", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "asset_domain_id", Value: 1}},
		},
	}
	_, err := a.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

type entryDocument struct {
	ID            string `bson:"id"`
	NetworkID     string `bson:"network_id"`
	AssetDomainID string `bson:"asset_domain_id"`
	DomainName    string `bson:"domain_name"`
	OptimizedPath string `bson:"optimized_path"`

	Role        string `bson:"domain_role"`
	Status      string `bson:"domain_status"`
	IndexStatus string `bson:"index_status"`

	TargetEntryID string `bson:"target_entry_id,omitempty"`

	RankingPosition *int   `bson:"ranking_position,omitempty"`
	PrimaryKeyword  string `bson:"primary_keyword,omitempty"`
	RankingURL      string `bson:"ranking_url,omitempty"`
	Notes           string `bson:"notes,omitempty"`

	CreatedAt string `bson:"created_at"`
	UpdatedAt string `bson:"updated_at"`
}

func toEntryDocument(e *domain.StructureEntry) *entryDocument {
	return &entryDocument{
		ID:              e.ID,
		NetworkID:       e.NetworkID,
		AssetDomainID:   e.AssetDomainID,
		DomainName:      e.DomainName,
		OptimizedPath:   domain.NormalizePath(e.OptimizedPath),
		Role:            string(e.Role),
		Status:          string(e.Status),
		IndexStatus:     string(e.IndexStatus),
		TargetEntryID:   e.TargetEntryID,
		RankingPosition: e.RankingPosition,
		PrimaryKeyword:  e.PrimaryKeyword,
		RankingURL:      e.RankingURL,
		Notes:           e.Notes,
		CreatedAt:       ts(e.CreatedAt),
		UpdatedAt:       ts(e.UpdatedAt),
	}
}

func (doc *entryDocument) toEntity() *domain.StructureEntry {
	return &domain.StructureEntry{
		ID:              doc.ID,
		NetworkID:       doc.NetworkID,
		AssetDomainID:   doc.AssetDomainID,
		DomainName:      doc.DomainName,
		OptimizedPath:   doc.OptimizedPath,
		Role:            domain.DomainRole(doc.Role),
		Status:          domain.EntryStatus(doc.Status),
		IndexStatus:     domain.IndexStatus(doc.IndexStatus),
		TargetEntryID:   doc.TargetEntryID,
		RankingPosition: doc.RankingPosition,
		PrimaryKeyword:  doc.PrimaryKeyword,
		RankingURL:      doc.RankingURL,
		Notes:           doc.Notes,
		CreatedAt:       parseTS(doc.CreatedAt),
		UpdatedAt:       parseTS(doc.UpdatedAt),
	}
}

// Save inserts an entry. A duplicate-key error means the normalized
// path already exists on the same (network, domain) pair.
func (a *EntryAdapter) Save(ctx context.Context, e *domain.StructureEntry) error {
	_, err := a.collection.InsertOne(ctx, toEntryDocument(e))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.AlreadyExists("structure entry", e.Label())
		}
		return fmt.Errorf("failed to save entry: %w", err)
	}
	return nil
}

// Update replaces an existing entry document.
func (a *EntryAdapter) Update(ctx context.Context, e *domain.StructureEntry) error {
	res, err := a.collection.ReplaceOne(ctx, bson.M{"id": e.ID}, toEntryDocument(e))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.AlreadyExists("structure entry", e.Label())
		}
		return fmt.Errorf("failed to update entry: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("structure entry", e.ID)
	}
	return nil
}

// GetByID retrieves an entry by id.
func (a *EntryAdapter) GetByID(ctx context.Context, id string) (*domain.StructureEntry, error) {
	var doc entryDocument
	err := a.collection.FindOne(ctx, bson.M{"id": id}).Decode(&doc)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("structure entry", id)
		}
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	return doc.toEntity(), nil
}

// ListByNetwork returns all entries in a network.
func (a *EntryAdapter) ListByNetwork(ctx context.Context, networkID string) ([]*domain.StructureEntry, error) {
	cursor, err := a.collection.Find(ctx, bson.M{"network_id": networkID},
		options.Find().SetSort(bson.D{{Key: "domain_name", Value: 1}, {Key: "optimized_path", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer cursor.Close(ctx)
	return decodeEntries(ctx, cursor)
}

// ListByDomain returns all entries referencing an asset domain, across
// networks.
func (a *EntryAdapter) ListByDomain(ctx context.Context, assetDomainID string) ([]*domain.StructureEntry, error) {
	cursor, err := a.collection.Find(ctx, bson.M{"asset_domain_id": assetDomainID})
	if err != nil {
		return nil, fmt.Errorf("failed to list entries by domain: %w", err)
	}
	defer cursor.Close(ctx)
	return decodeEntries(ctx, cursor)
}

// ListTargeting returns the direct children of an entry.
func (a *EntryAdapter) ListTargeting(ctx context.Context, targetEntryID string) ([]*domain.StructureEntry, error) {
	cursor, err := a.collection.Find(ctx, bson.M{"target_entry_id": targetEntryID})
	if err != nil {
		return nil, fmt.Errorf("failed to list targeting entries: %w", err)
	}
	defer cursor.Close(ctx)
	return decodeEntries(ctx, cursor)
}

// CountByDomain counts entries referencing an asset domain.
func (a *EntryAdapter) CountByDomain(ctx context.Context, assetDomainID string) (int64, error) {
	n, err := a.collection.CountDocuments(ctx, bson.M{"asset_domain_id": assetDomainID})
	if err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return n, nil
}

// Delete removes one entry.
func (a *EntryAdapter) Delete(ctx context.Context, id string) error {
	res, err := a.collection.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("structure entry", id)
	}
	return nil
}

// DeleteByNetwork removes every entry in a network.
func (a *EntryAdapter) DeleteByNetwork(ctx context.Context, networkID string) (int64, error) {
	res, err := a.collection.DeleteMany(ctx, bson.M{"network_id": networkID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete entries: %w", err)
	}
	return res.DeletedCount, nil
}

// DistinctDomainIDs returns every asset_domain_id used by any entry.
func (a *EntryAdapter) DistinctDomainIDs(ctx context.Context) ([]string, error) {
	values, err := a.collection.Distinct(ctx, "asset_domain_id", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list distinct domain ids: %w", err)
	}
	ids := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			ids = append(ids, s)
		}
	}
	return ids, nil
}

func decodeEntries(ctx context.Context, cursor *mongo.Cursor) ([]*domain.StructureEntry, error) {
	var entries []*domain.StructureEntry
	for cursor.Next(ctx) {
		var doc entryDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode entry: %w", err)
		}
		entries = append(entries, doc.toEntity())
	}
	return entries, cursor.Err()
}
