package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/official-panen138/seo-nexus/core/port/out"
)

const (
	collectionSettings       = "settings"
	collectionSchedulerState = "scheduler_state"
)

// SettingsAdapter implements out.SettingsRepository using MongoDB.
// Settings values are stored as JSON blobs under a string key; callers
// read them at every event so admin edits apply immediately.
type SettingsAdapter struct {
	collection *mongo.Collection
}

// NewSettingsAdapter creates a new MongoDB settings adapter.
func NewSettingsAdapter(db *mongo.Database) *SettingsAdapter {
	return &SettingsAdapter{collection: db.Collection(collectionSettings)}
}

var _ out.SettingsRepository = (*SettingsAdapter)(nil)

// EnsureIndexes creates necessary indexes for the collection.
func (a *SettingsAdapter) EnsureIndexes(ctx context.Context) error {
	_, err := a.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "key", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

type settingsDocument struct {
	Key       string `bson:"key"`
	Value     []byte `bson:"value"`
	UpdatedBy string `bson:"updated_by,omitempty"`
	UpdatedAt string `bson:"updated_at"`
}

// Get loads a settings row into the destination. Returns false when no
// row exists for the key.
func (a *SettingsAdapter) Get(ctx context.Context, key string, into any) (bool, error) {
	var doc settingsDocument
	err := a.collection.FindOne(ctx, bson.M{"key": key}).Decode(&doc)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get settings %q: %w", key, err)
	}
	if err := json.Unmarshal(doc.Value, into); err != nil {
		return false, fmt.Errorf("failed to decode settings %q: %w", key, err)
	}
	return true, nil
}

// Set upserts a settings row.
func (a *SettingsAdapter) Set(ctx context.Context, key string, value any, updatedBy string) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode settings %q: %w", key, err)
	}
	update := bson.M{"$set": bson.M{
		"value":      raw,
		"updated_by": updatedBy,
		"updated_at": ts(time.Now()),
	}}
	_, err = a.collection.UpdateOne(ctx, bson.M{"key": key}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to set settings %q: %w", key, err)
	}
	return nil
}

// =============================================================================
// Scheduler state
// =============================================================================

// SchedulerStateAdapter implements out.SchedulerStateRepository. Daily
// jobs use it to dedup runs across restarts and worker replicas.
type SchedulerStateAdapter struct {
	collection *mongo.Collection
}

// NewSchedulerStateAdapter creates a new MongoDB scheduler-state adapter.
func NewSchedulerStateAdapter(db *mongo.Database) *SchedulerStateAdapter {
	return &SchedulerStateAdapter{collection: db.Collection(collectionSchedulerState)}
}

var _ out.SchedulerStateRepository = (*SchedulerStateAdapter)(nil)

// EnsureIndexes creates necessary indexes for the collection.
func (a *SchedulerStateAdapter) EnsureIndexes(ctx context.Context) error {
	_, err := a.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "key", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

type schedulerStateDocument struct {
	Key       string `bson:"key"`
	LastRunAt string `bson:"last_run_at"`
}

// LastRun returns the recorded run time for a job key.
func (a *SchedulerStateAdapter) LastRun(ctx context.Context, key string) (time.Time, error) {
	var doc schedulerStateDocument
	err := a.collection.FindOne(ctx, bson.M{"key": key}).Decode(&doc)
	if err != nil {
		if isNotFound(err) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("failed to get scheduler state: %w", err)
	}
	return parseTS(doc.LastRunAt), nil
}

// MarkRun claims a run slot. The conditional update only matches when
// the stored mark is older than the window, so concurrent workers race
// safely: exactly one claims the slot.
func (a *SchedulerStateAdapter) MarkRun(ctx context.Context, key string, at time.Time, window time.Duration) (bool, error) {
	cutoff := ts(at.Add(-window))
	filter := bson.M{
		"key": key,
		"$or": bson.A{
			bson.M{"last_run_at": bson.M{"$lt": cutoff}},
			bson.M{"last_run_at": bson.M{"$exists": false}},
		},
	}
	update := bson.M{"$set": bson.M{"last_run_at": ts(at)}}
	res, err := a.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to mark scheduler run: %w", err)
	}
	if res.MatchedCount > 0 {
		return true, nil
	}

	// No matching row: either the mark is fresh (lose the race) or the
	// row does not exist yet. Try an insert; a duplicate-key error means
	// another worker created it first.
	_, err = a.collection.InsertOne(ctx, schedulerStateDocument{Key: key, LastRunAt: ts(at)})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert scheduler state: %w", err)
	}
	return true, nil
}
