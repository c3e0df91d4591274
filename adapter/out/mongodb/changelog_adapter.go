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

const collectionChangeLogs = "seo_change_logs"

// ChangeLogAdapter implements out.ChangeLogRepository using MongoDB.
type ChangeLogAdapter struct {
	collection *mongo.Collection
}

// NewChangeLogAdapter creates a new MongoDB change-log adapter.
func NewChangeLogAdapter(db *mongo.Database) *ChangeLogAdapter {
	return &ChangeLogAdapter{collection: db.Collection(collectionChangeLogs)}
}

var _ out.ChangeLogRepository = (*ChangeLogAdapter)(nil)

// EnsureIndexes creates necessary indexes for the collection.
func (a *ChangeLogAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "network_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "actor_email", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "notification_status", Value: 1}},
		},
	}
	_, err := a.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

type fieldChangeDocument struct {
	Field  string `bson:"field"`
	Before any    `bson:"before"`
	After  any    `bson:"after"`
}

type changeLogDocument struct {
	ID           string `bson:"id"`
	NetworkID    string `bson:"network_id"`
	BrandID      string `bson:"brand_id"`
	EntryID      string `bson:"entry_id,omitempty"`
	ActionType   string `bson:"action_type"`
	AffectedNode string `bson:"affected_node"`

	ActorUserID string `bson:"actor_user_id"`
	ActorEmail  string `bson:"actor_email"`
	ChangeNote  string `bson:"change_note"`

	BeforeSnapshot *domain.EntrySnapshot `bson:"before_snapshot,omitempty"`
	AfterSnapshot  *domain.EntrySnapshot `bson:"after_snapshot,omitempty"`
	Changes        []fieldChangeDocument `bson:"changes,omitempty"`

	NotificationStatus string `bson:"notification_status"`
	Archived           bool   `bson:"archived"`
	CreatedAt          string `bson:"created_at"`
}

func toChangeLogDocument(l *domain.ChangeLog) *changeLogDocument {
	doc := &changeLogDocument{
		ID:                 l.ID,
		NetworkID:          l.NetworkID,
		BrandID:            l.BrandID,
		EntryID:            l.EntryID,
		ActionType:         string(l.ActionType),
		AffectedNode:       l.AffectedNode,
		ActorUserID:        l.ActorUserID,
		ActorEmail:         l.ActorEmail,
		ChangeNote:         l.ChangeNote,
		BeforeSnapshot:     l.BeforeSnapshot,
		AfterSnapshot:      l.AfterSnapshot,
		NotificationStatus: string(l.NotificationStatus),
		Archived:           l.Archived,
		CreatedAt:          ts(l.CreatedAt),
	}
	for _, c := range l.Changes {
		doc.Changes = append(doc.Changes, fieldChangeDocument{Field: c.Field, Before: c.Before, After: c.After})
	}
	return doc
}

func (doc *changeLogDocument) toEntity() *domain.ChangeLog {
	l := &domain.ChangeLog{
		ID:                 doc.ID,
		NetworkID:          doc.NetworkID,
		BrandID:            doc.BrandID,
		EntryID:            doc.EntryID,
		ActionType:         domain.ActionType(doc.ActionType),
		AffectedNode:       doc.AffectedNode,
		ActorUserID:        doc.ActorUserID,
		ActorEmail:         doc.ActorEmail,
		ChangeNote:         doc.ChangeNote,
		BeforeSnapshot:     doc.BeforeSnapshot,
		AfterSnapshot:      doc.AfterSnapshot,
		NotificationStatus: domain.NotificationStatus(doc.NotificationStatus),
		Archived:           doc.Archived,
		CreatedAt:          parseTS(doc.CreatedAt),
	}
	for _, c := range doc.Changes {
		l.Changes = append(l.Changes, domain.FieldChange{Field: c.Field, Before: c.Before, After: c.After})
	}
	return l
}

// Save appends a ledger row.
func (a *ChangeLogAdapter) Save(ctx context.Context, log *domain.ChangeLog) error {
	_, err := a.collection.InsertOne(ctx, toChangeLogDocument(log))
	if err != nil {
		return fmt.Errorf("failed to save change log: %w", err)
	}
	return nil
}

// GetByID retrieves a ledger row.
func (a *ChangeLogAdapter) GetByID(ctx context.Context, id string) (*domain.ChangeLog, error) {
	var doc changeLogDocument
	err := a.collection.FindOne(ctx, bson.M{"id": id}).Decode(&doc)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("change log", id)
		}
		return nil, fmt.Errorf("failed to get change log: %w", err)
	}
	return doc.toEntity(), nil
}

// List returns ledger rows newest first with a total count.
func (a *ChangeLogAdapter) List(ctx context.Context, opts *out.ChangeLogListOptions) ([]*domain.ChangeLog, int64, error) {
	filter := bson.M{}
	if opts.NetworkID != "" {
		filter["network_id"] = opts.NetworkID
	}
	if opts.BrandID != "" {
		filter["brand_id"] = opts.BrandID
	}
	if opts.ActionType != nil {
		filter["action_type"] = string(*opts.ActionType)
	}
	if opts.ActorEmail != "" {
		filter["actor_email"] = opts.ActorEmail
	}
	if opts.Archived != nil {
		filter["archived"] = *opts.Archived
	}

	total, err := a.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count change logs: %w", err)
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit)).SetSkip(int64(opts.Offset))
	}
	cursor, err := a.collection.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list change logs: %w", err)
	}
	defer cursor.Close(ctx)

	var logs []*domain.ChangeLog
	for cursor.Next(ctx) {
		var doc changeLogDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, 0, fmt.Errorf("failed to decode change log: %w", err)
		}
		logs = append(logs, doc.toEntity())
	}
	return logs, total, cursor.Err()
}

// SetNotificationStatus records the delivery state of a ledger row.
func (a *ChangeLogAdapter) SetNotificationStatus(ctx context.Context, id string, status domain.NotificationStatus) error {
	res, err := a.collection.UpdateOne(ctx, bson.M{"id": id},
		bson.M{"$set": bson.M{"notification_status": string(status)}})
	if err != nil {
		return fmt.Errorf("failed to set notification status: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("change log", id)
	}
	return nil
}

// Archive hides a ledger row from default listings.
func (a *ChangeLogAdapter) Archive(ctx context.Context, id string) error {
	res, err := a.collection.UpdateOne(ctx, bson.M{"id": id},
		bson.M{"$set": bson.M{"archived": true}})
	if err != nil {
		return fmt.Errorf("failed to archive change log: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("change log", id)
	}
	return nil
}

// Delete removes a ledger row. Used only to compensate a failed write
// pipeline; ledger rows are otherwise append-only.
func (a *ChangeLogAdapter) Delete(ctx context.Context, id string) error {
	_, err := a.collection.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete change log: %w", err)
	}
	return nil
}
