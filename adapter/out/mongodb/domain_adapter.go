package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/official-panen138/seo-nexus/core/domain"
	"github.com/official-panen138/seo-nexus/core/port/out"
	"github.com/official-panen138/seo-nexus/pkg/apperr"
)

const (
	collectionAssetDomains = "asset_domains"
	collectionBrands       = "brands"
)

// AssetDomainAdapter implements out.AssetDomainRepository using MongoDB.
type AssetDomainAdapter struct {
	collection *mongo.Collection
}

// NewAssetDomainAdapter creates a new MongoDB asset-domain adapter.
func NewAssetDomainAdapter(db *mongo.Database) *AssetDomainAdapter {
	return &AssetDomainAdapter{collection: db.Collection(collectionAssetDomains)}
}

var _ out.AssetDomainRepository = (*AssetDomainAdapter)(nil)

// EnsureIndexes creates necessary indexes for the collection.
func (a *AssetDomainAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "domain_name", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "brand_id", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "monitoring_enabled", Value: 1}, {Key: "ping_status", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "expiration_date", Value: 1}},
		},
	}
	_, err := a.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

type quarantineDocument struct {
	Category      string `bson:"category"`
	QuarantinedBy string `bson:"quarantined_by"`
	QuarantinedAt string `bson:"quarantined_at"`
	ReleasedBy    string `bson:"released_by,omitempty"`
	ReleasedAt    string `bson:"released_at,omitempty"`
}

type assetDomainDocument struct {
	ID          string `bson:"id"`
	DomainName  string `bson:"domain_name"`
	BrandID     string `bson:"brand_id"`
	CategoryID  string `bson:"category_id,omitempty"`
	RegistrarID string `bson:"registrar_id,omitempty"`

	Status             string `bson:"status"`
	Lifecycle          string `bson:"domain_lifecycle_status"`
	ExpirationDate     string `bson:"expiration_date,omitempty"`
	AutoRenew          bool   `bson:"auto_renew"`
	MonitoringEnabled  bool   `bson:"monitoring_enabled"`
	MonitoringInterval string `bson:"monitoring_interval"`

	PingStatus    string `bson:"ping_status"`
	LastHTTPCode  int    `bson:"last_http_code,omitempty"`
	LastCheckedAt string `bson:"last_checked_at,omitempty"`
	SoftBlockType string `bson:"soft_block_type,omitempty"`
	DownReason    string `bson:"down_reason,omitempty"`

	Quarantine *quarantineDocument `bson:"quarantine,omitempty"`

	CreatedAt string `bson:"created_at"`
	UpdatedAt string `bson:"updated_at"`
}

func toAssetDomainDocument(d *domain.AssetDomain) *assetDomainDocument {
	doc := &assetDomainDocument{
		ID:                 d.ID,
		DomainName:         d.DomainName,
		BrandID:            d.BrandID,
		CategoryID:         d.CategoryID,
		RegistrarID:        d.RegistrarID,
		Status:             string(d.Status),
		Lifecycle:          string(d.Lifecycle),
		ExpirationDate:     tsPtr(d.ExpirationDate),
		AutoRenew:          d.AutoRenew,
		MonitoringEnabled:  d.MonitoringEnabled,
		MonitoringInterval: string(d.MonitoringInterval),
		PingStatus:         string(d.PingStatus),
		LastHTTPCode:       d.LastHTTPCode,
		LastCheckedAt:      tsPtr(d.LastCheckedAt),
		SoftBlockType:      string(d.SoftBlockType),
		DownReason:         d.DownReason,
		CreatedAt:          ts(d.CreatedAt),
		UpdatedAt:          ts(d.UpdatedAt),
	}
	if d.Quarantine != nil {
		doc.Quarantine = &quarantineDocument{
			Category:      d.Quarantine.Category,
			QuarantinedBy: d.Quarantine.QuarantinedBy,
			QuarantinedAt: ts(d.Quarantine.QuarantinedAt),
			ReleasedBy:    d.Quarantine.ReleasedBy,
			ReleasedAt:    tsPtr(d.Quarantine.ReleasedAt),
		}
	}
	return doc
}

func (doc *assetDomainDocument) toEntity() *domain.AssetDomain {
	d := &domain.AssetDomain{
		ID:                 doc.ID,
		DomainName:         doc.DomainName,
		BrandID:            doc.BrandID,
		CategoryID:         doc.CategoryID,
		RegistrarID:        doc.RegistrarID,
		Status:             domain.DomainStatus(doc.Status),
		Lifecycle:          domain.LifecycleStatus(doc.Lifecycle),
		ExpirationDate:     parseTSPtr(doc.ExpirationDate),
		AutoRenew:          doc.AutoRenew,
		MonitoringEnabled:  doc.MonitoringEnabled,
		MonitoringInterval: domain.MonitoringInterval(doc.MonitoringInterval),
		PingStatus:         domain.PingStatus(doc.PingStatus),
		LastHTTPCode:       doc.LastHTTPCode,
		LastCheckedAt:      parseTSPtr(doc.LastCheckedAt),
		SoftBlockType:      domain.SoftBlockType(doc.SoftBlockType),
		DownReason:         doc.DownReason,
		CreatedAt:          parseTS(doc.CreatedAt),
		UpdatedAt:          parseTS(doc.UpdatedAt),
	}
	if doc.Quarantine != nil {
		d.Quarantine = &domain.Quarantine{
			Category:      doc.Quarantine.Category,
			QuarantinedBy: doc.Quarantine.QuarantinedBy,
			QuarantinedAt: parseTS(doc.Quarantine.QuarantinedAt),
			ReleasedBy:    doc.Quarantine.ReleasedBy,
			ReleasedAt:    parseTSPtr(doc.Quarantine.ReleasedAt),
		}
	}
	return d
}

// Save inserts a domain, replacing any document with the same id.
func (a *AssetDomainAdapter) Save(ctx context.Context, d *domain.AssetDomain) error {
	opts := options.Replace().SetUpsert(true)
	_, err := a.collection.ReplaceOne(ctx, bson.M{"id": d.ID}, toAssetDomainDocument(d), opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.AlreadyExists("domain", d.DomainName)
		}
		return fmt.Errorf("failed to save domain: %w", err)
	}
	return nil
}

// Update replaces an existing domain document.
func (a *AssetDomainAdapter) Update(ctx context.Context, d *domain.AssetDomain) error {
	res, err := a.collection.ReplaceOne(ctx, bson.M{"id": d.ID}, toAssetDomainDocument(d))
	if err != nil {
		return fmt.Errorf("failed to update domain: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("domain", d.ID)
	}
	return nil
}

// GetByID retrieves a domain by id.
func (a *AssetDomainAdapter) GetByID(ctx context.Context, id string) (*domain.AssetDomain, error) {
	var doc assetDomainDocument
	err := a.collection.FindOne(ctx, bson.M{"id": id}).Decode(&doc)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("domain", id)
		}
		return nil, fmt.Errorf("failed to get domain: %w", err)
	}
	return doc.toEntity(), nil
}

// GetByName retrieves a domain by its DNS name.
func (a *AssetDomainAdapter) GetByName(ctx context.Context, name string) (*domain.AssetDomain, error) {
	var doc assetDomainDocument
	err := a.collection.FindOne(ctx, bson.M{"domain_name": name}).Decode(&doc)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("domain", name)
		}
		return nil, fmt.Errorf("failed to get domain: %w", err)
	}
	return doc.toEntity(), nil
}

// List retrieves domains matching the options with a total count.
func (a *AssetDomainAdapter) List(ctx context.Context, opts *out.DomainListOptions) ([]*domain.AssetDomain, int64, error) {
	filter := bson.M{}
	if opts.BrandID != "" {
		filter["brand_id"] = opts.BrandID
	}
	if opts.Status != nil {
		filter["status"] = string(*opts.Status)
	}
	if opts.PingStatus != nil {
		filter["ping_status"] = string(*opts.PingStatus)
	}
	if opts.MonitoringOnly {
		filter["monitoring_enabled"] = true
	}
	if opts.Search != "" {
		filter["domain_name"] = bson.M{"$regex": primitive.Regex{Pattern: opts.Search, Options: "i"}}
	}

	total, err := a.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count domains: %w", err)
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "domain_name", Value: 1}})
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit)).SetSkip(int64(opts.Offset))
	}
	cursor, err := a.collection.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list domains: %w", err)
	}
	defer cursor.Close(ctx)

	domains, err := decodeDomains(ctx, cursor)
	if err != nil {
		return nil, 0, err
	}
	return domains, total, nil
}

// ListMonitored returns every domain with monitoring enabled.
func (a *AssetDomainAdapter) ListMonitored(ctx context.Context) ([]*domain.AssetDomain, error) {
	cursor, err := a.collection.Find(ctx, bson.M{"monitoring_enabled": true})
	if err != nil {
		return nil, fmt.Errorf("failed to list monitored domains: %w", err)
	}
	defer cursor.Close(ctx)
	return decodeDomains(ctx, cursor)
}

// ListExpiring returns domains with a known expiration date.
func (a *AssetDomainAdapter) ListExpiring(ctx context.Context, skipAutoRenew bool) ([]*domain.AssetDomain, error) {
	filter := bson.M{"expiration_date": bson.M{"$gt": ""}}
	if skipAutoRenew {
		filter["auto_renew"] = false
	}
	cursor, err := a.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "expiration_date", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list expiring domains: %w", err)
	}
	defer cursor.Close(ctx)
	return decodeDomains(ctx, cursor)
}

// ListByPingStatus returns domains in a given availability state.
func (a *AssetDomainAdapter) ListByPingStatus(ctx context.Context, status domain.PingStatus) ([]*domain.AssetDomain, error) {
	cursor, err := a.collection.Find(ctx, bson.M{"ping_status": string(status)})
	if err != nil {
		return nil, fmt.Errorf("failed to list domains by ping status: %w", err)
	}
	defer cursor.Close(ctx)
	return decodeDomains(ctx, cursor)
}

// RecordProbe writes the availability-engine result for one domain.
func (a *AssetDomainAdapter) RecordProbe(ctx context.Context, id string, result *out.ProbeResult) error {
	update := bson.M{"$set": bson.M{
		"ping_status":     string(result.PingStatus),
		"last_http_code":  result.HTTPCode,
		"last_checked_at": ts(result.CheckedAt),
		"soft_block_type": string(result.SoftBlockType),
		"down_reason":     result.DownReason,
		"updated_at":      ts(time.Now()),
	}}
	res, err := a.collection.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to record probe: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("domain", id)
	}
	return nil
}

// Delete removes a domain document.
func (a *AssetDomainAdapter) Delete(ctx context.Context, id string) error {
	res, err := a.collection.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete domain: %w", err)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("domain", id)
	}
	return nil
}

func decodeDomains(ctx context.Context, cursor *mongo.Cursor) ([]*domain.AssetDomain, error) {
	var domains []*domain.AssetDomain
	for cursor.Next(ctx) {
		var doc assetDomainDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode domain: %w", err)
		}
		domains = append(domains, doc.toEntity())
	}
	return domains, cursor.Err()
}

// =============================================================================
// Brands
// =============================================================================

// BrandAdapter implements out.BrandRepository using MongoDB.
type BrandAdapter struct {
	collection *mongo.Collection
}

// NewBrandAdapter creates a new MongoDB brand adapter.
func NewBrandAdapter(db *mongo.Database) *BrandAdapter {
	return &BrandAdapter{collection: db.Collection(collectionBrands)}
}

var _ out.BrandRepository = (*BrandAdapter)(nil)

// EnsureIndexes creates necessary indexes for the collection.
func (a *BrandAdapter) EnsureIndexes(ctx context.Context) error {
	_, err := a.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

type brandDocument struct {
	ID        string `bson:"id"`
	Name      string `bson:"name"`
	Status    string `bson:"status"`
	CreatedAt string `bson:"created_at"`
	UpdatedAt string `bson:"updated_at"`
}

// Save upserts a brand.
func (a *BrandAdapter) Save(ctx context.Context, b *domain.Brand) error {
	doc := &brandDocument{
		ID:        b.ID,
		Name:      b.Name,
		Status:    b.Status,
		CreatedAt: ts(b.CreatedAt),
		UpdatedAt: ts(b.UpdatedAt),
	}
	opts := options.Replace().SetUpsert(true)
	_, err := a.collection.ReplaceOne(ctx, bson.M{"id": b.ID}, doc, opts)
	if err != nil {
		return fmt.Errorf("failed to save brand: %w", err)
	}
	return nil
}

// GetByID retrieves a brand by id.
func (a *BrandAdapter) GetByID(ctx context.Context, id string) (*domain.Brand, error) {
	var doc brandDocument
	err := a.collection.FindOne(ctx, bson.M{"id": id}).Decode(&doc)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("brand", id)
		}
		return nil, fmt.Errorf("failed to get brand: %w", err)
	}
	return &domain.Brand{
		ID:        doc.ID,
		Name:      doc.Name,
		Status:    doc.Status,
		CreatedAt: parseTS(doc.CreatedAt),
		UpdatedAt: parseTS(doc.UpdatedAt),
	}, nil
}

// List returns all brands sorted by name.
func (a *BrandAdapter) List(ctx context.Context) ([]*domain.Brand, error) {
	cursor, err := a.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list brands: %w", err)
	}
	defer cursor.Close(ctx)

	var brands []*domain.Brand
	for cursor.Next(ctx) {
		var doc brandDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode brand: %w", err)
		}
		brands = append(brands, &domain.Brand{
			ID:        doc.ID,
			Name:      doc.Name,
			Status:    doc.Status,
			CreatedAt: parseTS(doc.CreatedAt),
			UpdatedAt: parseTS(doc.UpdatedAt),
		})
	}
	return brands, cursor.Err()
}
