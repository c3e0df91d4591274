package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/official-panen138/seo-nexus/core/domain"
	"github.com/official-panen138/seo-nexus/core/port/out"
)

const collectionAuditLogs = "audit_logs"

// AuditAdapter implements out.AuditRepository using MongoDB.
type AuditAdapter struct {
	collection *mongo.Collection
}

// NewAuditAdapter creates a new MongoDB audit adapter.
func NewAuditAdapter(db *mongo.Database) *AuditAdapter {
	return &AuditAdapter{collection: db.Collection(collectionAuditLogs)}
}

var _ out.AuditRepository = (*AuditAdapter)(nil)

// EnsureIndexes creates necessary indexes for the collection.
func (a *AuditAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "timestamp", Value: -1}, {Key: "event_type", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "actor_email", Value: 1}},
		},
	}
	_, err := a.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

type auditDocument struct {
	ID         string         `bson:"id"`
	EventType  string         `bson:"event_type"`
	ActorEmail string         `bson:"actor_email,omitempty"`
	Resource   string         `bson:"resource,omitempty"`
	Details    map[string]any `bson:"details,omitempty"`
	Severity   string         `bson:"severity"`
	Success    bool           `bson:"success"`
	Timestamp  string         `bson:"timestamp"`
}

// Save appends an audit row.
func (a *AuditAdapter) Save(ctx context.Context, log *domain.AuditLog) error {
	doc := &auditDocument{
		ID:         log.ID,
		EventType:  log.EventType,
		ActorEmail: log.ActorEmail,
		Resource:   log.Resource,
		Details:    log.Details,
		Severity:   string(log.Severity),
		Success:    log.Success,
		Timestamp:  ts(log.Timestamp),
	}
	_, err := a.collection.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to save audit log: %w", err)
	}
	return nil
}

// List returns audit rows newest first with a total count.
func (a *AuditAdapter) List(ctx context.Context, opts *out.AuditListOptions) ([]*domain.AuditLog, int64, error) {
	filter := bson.M{}
	if opts.EventType != "" {
		filter["event_type"] = opts.EventType
	}
	if opts.ActorEmail != "" {
		filter["actor_email"] = opts.ActorEmail
	}
	if opts.Resource != "" {
		filter["resource"] = opts.Resource
	}
	if opts.Severity != nil {
		filter["severity"] = string(*opts.Severity)
	}
	if opts.Success != nil {
		filter["success"] = *opts.Success
	}
	if opts.From != nil || opts.To != nil {
		rangeFilter := bson.M{}
		if opts.From != nil {
			rangeFilter["$gte"] = ts(*opts.From)
		}
		if opts.To != nil {
			rangeFilter["$lte"] = ts(*opts.To)
		}
		filter["timestamp"] = rangeFilter
	}

	total, err := a.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit)).SetSkip(int64(opts.Offset))
	}
	cursor, err := a.collection.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}
	defer cursor.Close(ctx)

	var logs []*domain.AuditLog
	for cursor.Next(ctx) {
		var doc auditDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, 0, fmt.Errorf("failed to decode audit log: %w", err)
		}
		logs = append(logs, &domain.AuditLog{
			ID:         doc.ID,
			EventType:  doc.EventType,
			ActorEmail: doc.ActorEmail,
			Resource:   doc.Resource,
			Details:    doc.Details,
			Severity:   domain.AuditSeverity(doc.Severity),
			Success:    doc.Success,
			Timestamp:  parseTS(doc.Timestamp),
		})
	}
	return logs, total, cursor.Err()
}

// Stats aggregates audit counts over the last sinceDays days.
func (a *AuditAdapter) Stats(ctx context.Context, sinceDays int) (*domain.AuditStats, error) {
	if sinceDays <= 0 {
		sinceDays = 7
	}
	since := ts(time.Now().AddDate(0, 0, -sinceDays))
	match := bson.M{"timestamp": bson.M{"$gte": since}}

	stats := &domain.AuditStats{
		ByEventType: map[string]int64{},
		BySeverity:  map[string]int64{},
		ByActor:     map[string]int64{},
		SinceDays:   sinceDays,
	}

	total, err := a.collection.CountDocuments(ctx, match)
	if err != nil {
		return nil, fmt.Errorf("failed to count audit logs: %w", err)
	}
	stats.TotalEvents = total

	failures, err := a.collection.CountDocuments(ctx, bson.M{"timestamp": bson.M{"$gte": since}, "success": false})
	if err != nil {
		return nil, fmt.Errorf("failed to count audit failures: %w", err)
	}
	stats.FailureCount = failures

	for _, group := range []struct {
		field string
		dest  map[string]int64
	}{
		{"event_type", stats.ByEventType},
		{"severity", stats.BySeverity},
		{"actor_email", stats.ByActor},
	} {
		pipeline := mongo.Pipeline{
			bson.D{{Key: "$match", Value: match}},
			bson.D{{Key: "$group", Value: bson.M{"_id": "$" + group.field, "count": bson.M{"$sum": 1}}}},
		}
		cursor, err := a.collection.Aggregate(ctx, pipeline)
		if err != nil {
			return nil, fmt.Errorf("failed to aggregate audit stats: %w", err)
		}
		var rows []struct {
			ID    string `bson:"_id"`
			Count int64  `bson:"count"`
		}
		if err := cursor.All(ctx, &rows); err != nil {
			return nil, fmt.Errorf("failed to decode audit stats: %w", err)
		}
		for _, row := range rows {
			if row.ID != "" {
				group.dest[row.ID] = row.Count
			}
		}
	}
	return stats, nil
}
