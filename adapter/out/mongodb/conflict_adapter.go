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

const collectionConflicts = "seo_conflicts"

// ConflictAdapter implements out.ConflictRepository using MongoDB.
type ConflictAdapter struct {
	collection *mongo.Collection
}

// NewConflictAdapter creates a new MongoDB conflict adapter.
func NewConflictAdapter(db *mongo.Database) *ConflictAdapter {
	return &ConflictAdapter{collection: db.Collection(collectionConflicts)}
}

var _ out.ConflictRepository = (*ConflictAdapter)(nil)

// EnsureIndexes creates necessary indexes for the collection. The
// fingerprint index backs recurrence dedup across detection runs.
func (a *ConflictAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "fingerprint", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "network_id", Value: 1}, {Key: "is_active", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "optimization_id", Value: 1}},
		},
	}
	_, err := a.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

type conflictDocument struct {
	ID        string `bson:"id"`
	NetworkID string `bson:"network_id"`
	BrandID   string `bson:"brand_id,omitempty"`

	Type     string `bson:"conflict_type"`
	Severity string `bson:"severity"`
	Status   string `bson:"status"`
	IsActive bool   `bson:"is_active"`

	Fingerprint string `bson:"fingerprint"`

	NodeAID    string `bson:"node_a_id"`
	NodeALabel string `bson:"node_a_label"`
	NodeBID    string `bson:"node_b_id,omitempty"`
	NodeBLabel string `bson:"node_b_label,omitempty"`

	Description string `bson:"description"`
	Suggestion  string `bson:"suggestion,omitempty"`

	DetectedAt       string `bson:"detected_at"`
	FirstDetectedAt  string `bson:"first_detected_at"`
	LastRecurrenceAt string `bson:"last_recurrence_at,omitempty"`
	RecurrenceCount  int    `bson:"recurrence_count"`

	OptimizationID string `bson:"optimization_id,omitempty"`

	ResolvedAt     string `bson:"resolved_at,omitempty"`
	ResolvedBy     string `bson:"resolved_by,omitempty"`
	ResolutionNote string `bson:"resolution_note,omitempty"`

	UpdatedAt string `bson:"updated_at"`
}

func toConflictDocument(c *domain.Conflict) *conflictDocument {
	return &conflictDocument{
		ID:               c.ID,
		NetworkID:        c.NetworkID,
		BrandID:          c.BrandID,
		Type:             string(c.Type),
		Severity:         string(c.Severity),
		Status:           string(c.Status),
		IsActive:         c.IsActive,
		Fingerprint:      c.Fingerprint,
		NodeAID:          c.NodeAID,
		NodeALabel:       c.NodeALabel,
		NodeBID:          c.NodeBID,
		NodeBLabel:       c.NodeBLabel,
		Description:      c.Description,
		Suggestion:       c.Suggestion,
		DetectedAt:       ts(c.DetectedAt),
		FirstDetectedAt:  ts(c.FirstDetectedAt),
		LastRecurrenceAt: tsPtr(c.LastRecurrenceAt),
		RecurrenceCount:  c.RecurrenceCount,
		OptimizationID:   c.OptimizationID,
		ResolvedAt:       tsPtr(c.ResolvedAt),
		ResolvedBy:       c.ResolvedBy,
		ResolutionNote:   c.ResolutionNote,
		UpdatedAt:        ts(c.UpdatedAt),
	}
}

func (doc *conflictDocument) toEntity() *domain.Conflict {
	return &domain.Conflict{
		ID:               doc.ID,
		NetworkID:        doc.NetworkID,
		BrandID:          doc.BrandID,
		Type:             domain.ConflictType(doc.Type),
		Severity:         domain.Severity(doc.Severity),
		Status:           domain.ConflictStatus(doc.Status),
		IsActive:         doc.IsActive,
		Fingerprint:      doc.Fingerprint,
		NodeAID:          doc.NodeAID,
		NodeALabel:       doc.NodeALabel,
		NodeBID:          doc.NodeBID,
		NodeBLabel:       doc.NodeBLabel,
		Description:      doc.Description,
		Suggestion:       doc.Suggestion,
		DetectedAt:       parseTS(doc.DetectedAt),
		FirstDetectedAt:  parseTS(doc.FirstDetectedAt),
		LastRecurrenceAt: parseTSPtr(doc.LastRecurrenceAt),
		RecurrenceCount:  doc.RecurrenceCount,
		OptimizationID:   doc.OptimizationID,
		ResolvedAt:       parseTSPtr(doc.ResolvedAt),
		ResolvedBy:       doc.ResolvedBy,
		ResolutionNote:   doc.ResolutionNote,
		UpdatedAt:        parseTS(doc.UpdatedAt),
	}
}

// Save inserts a conflict row.
func (a *ConflictAdapter) Save(ctx context.Context, c *domain.Conflict) error {
	_, err := a.collection.InsertOne(ctx, toConflictDocument(c))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.AlreadyExists("conflict", c.Fingerprint)
		}
		return fmt.Errorf("failed to save conflict: %w", err)
	}
	return nil
}

// Update replaces an existing conflict document.
func (a *ConflictAdapter) Update(ctx context.Context, c *domain.Conflict) error {
	res, err := a.collection.ReplaceOne(ctx, bson.M{"id": c.ID}, toConflictDocument(c))
	if err != nil {
		return fmt.Errorf("failed to update conflict: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("conflict", c.ID)
	}
	return nil
}

// GetByID retrieves a conflict by id.
func (a *ConflictAdapter) GetByID(ctx context.Context, id string) (*domain.Conflict, error) {
	return a.getBy(ctx, bson.M{"id": id}, id)
}

// GetByFingerprint retrieves a conflict by its dedup key.
func (a *ConflictAdapter) GetByFingerprint(ctx context.Context, fingerprint string) (*domain.Conflict, error) {
	return a.getBy(ctx, bson.M{"fingerprint": fingerprint}, fingerprint)
}

// GetByOptimization retrieves the conflict linked to an optimization.
func (a *ConflictAdapter) GetByOptimization(ctx context.Context, optimizationID string) (*domain.Conflict, error) {
	return a.getBy(ctx, bson.M{"optimization_id": optimizationID}, optimizationID)
}

func (a *ConflictAdapter) getBy(ctx context.Context, filter bson.M, ref string) (*domain.Conflict, error) {
	var doc conflictDocument
	err := a.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("conflict", ref)
		}
		return nil, fmt.Errorf("failed to get conflict: %w", err)
	}
	return doc.toEntity(), nil
}

// ListByNetwork returns all conflicts in a network, active first.
func (a *ConflictAdapter) ListByNetwork(ctx context.Context, networkID string) ([]*domain.Conflict, error) {
	cursor, err := a.collection.Find(ctx, bson.M{"network_id": networkID},
		options.Find().SetSort(bson.D{{Key: "is_active", Value: -1}, {Key: "detected_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list conflicts: %w", err)
	}
	defer cursor.Close(ctx)
	return decodeConflicts(ctx, cursor)
}

// List returns conflicts matching the options with a total count.
func (a *ConflictAdapter) List(ctx context.Context, opts *out.ConflictListOptions) ([]*domain.Conflict, int64, error) {
	filter := bson.M{}
	if opts.NetworkID != "" {
		filter["network_id"] = opts.NetworkID
	}
	if opts.Type != nil {
		filter["conflict_type"] = string(*opts.Type)
	}
	if opts.Severity != nil {
		filter["severity"] = string(*opts.Severity)
	}
	if opts.Status != nil {
		filter["status"] = string(*opts.Status)
	}
	if opts.ActiveOnly {
		filter["is_active"] = true
	}

	total, err := a.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count conflicts: %w", err)
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "detected_at", Value: -1}})
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit)).SetSkip(int64(opts.Offset))
	}
	cursor, err := a.collection.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list conflicts: %w", err)
	}
	defer cursor.Close(ctx)

	conflicts, err := decodeConflicts(ctx, cursor)
	if err != nil {
		return nil, 0, err
	}
	return conflicts, total, nil
}

// CountActive counts live conflicts in a network.
func (a *ConflictAdapter) CountActive(ctx context.Context, networkID string) (int64, error) {
	n, err := a.collection.CountDocuments(ctx, bson.M{"network_id": networkID, "is_active": true})
	if err != nil {
		return 0, fmt.Errorf("failed to count active conflicts: %w", err)
	}
	return n, nil
}

func decodeConflicts(ctx context.Context, cursor *mongo.Cursor) ([]*domain.Conflict, error) {
	var conflicts []*domain.Conflict
	for cursor.Next(ctx) {
		var doc conflictDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode conflict: %w", err)
		}
		conflicts = append(conflicts, doc.toEntity())
	}
	return conflicts, cursor.Err()
}
