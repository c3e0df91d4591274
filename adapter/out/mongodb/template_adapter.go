package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/official-panen138/seo-nexus/core/domain"
	"github.com/official-panen138/seo-nexus/core/port/out"
	"github.com/official-panen138/seo-nexus/pkg/apperr"
)

const collectionTemplates = "notification_templates"

// TemplateAdapter implements out.TemplateRepository using MongoDB.
type TemplateAdapter struct {
	collection *mongo.Collection
}

// NewTemplateAdapter creates a new MongoDB template adapter.
func NewTemplateAdapter(db *mongo.Database) *TemplateAdapter {
	return &TemplateAdapter{collection: db.Collection(collectionTemplates)}
}

var _ out.TemplateRepository = (*TemplateAdapter)(nil)

// EnsureIndexes creates necessary indexes for the collection.
func (a *TemplateAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "channel", Value: 1},
				{Key: "event_type", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
	}
	_, err := a.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

type templateDocument struct {
	ID                  string `bson:"id"`
	Channel             string `bson:"channel"`
	EventType           string `bson:"event_type"`
	Title               string `bson:"title,omitempty"`
	TemplateBody        string `bson:"template_body"`
	DefaultTemplateBody string `bson:"default_template_body"`
	Enabled             bool   `bson:"enabled"`
	UpdatedBy           string `bson:"updated_by,omitempty"`
	CreatedAt           string `bson:"created_at"`
	UpdatedAt           string `bson:"updated_at"`
}

func (doc *templateDocument) toEntity() *domain.Template {
	return &domain.Template{
		ID:                  doc.ID,
		Channel:             domain.Channel(doc.Channel),
		EventType:           domain.EventType(doc.EventType),
		Title:               doc.Title,
		TemplateBody:        doc.TemplateBody,
		DefaultTemplateBody: doc.DefaultTemplateBody,
		Enabled:             doc.Enabled,
		UpdatedBy:           doc.UpdatedBy,
		CreatedAt:           parseTS(doc.CreatedAt),
		UpdatedAt:           parseTS(doc.UpdatedAt),
	}
}

// Upsert writes a template override keyed by (channel, event_type).
func (a *TemplateAdapter) Upsert(ctx context.Context, t *domain.Template) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	now := time.Now()
	filter := bson.M{"channel": string(t.Channel), "event_type": string(t.EventType)}
	update := bson.M{
		"$set": bson.M{
			"title":                 t.Title,
			"template_body":         t.TemplateBody,
			"default_template_body": t.DefaultTemplateBody,
			"enabled":               t.Enabled,
			"updated_by":            t.UpdatedBy,
			"updated_at":            ts(now),
		},
		"$setOnInsert": bson.M{
			"id":         t.ID,
			"channel":    string(t.Channel),
			"event_type": string(t.EventType),
			"created_at": ts(now),
		},
	}
	_, err := a.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert template: %w", err)
	}
	return nil
}

// Get retrieves the stored template for a (channel, event) pair.
func (a *TemplateAdapter) Get(ctx context.Context, channel domain.Channel, event domain.EventType) (*domain.Template, error) {
	var doc templateDocument
	err := a.collection.FindOne(ctx, bson.M{"channel": string(channel), "event_type": string(event)}).Decode(&doc)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("template", string(channel)+"/"+string(event))
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return doc.toEntity(), nil
}

// List returns stored templates, optionally filtered by channel.
func (a *TemplateAdapter) List(ctx context.Context, channel string) ([]*domain.Template, error) {
	filter := bson.M{}
	if channel != "" {
		filter["channel"] = channel
	}
	cursor, err := a.collection.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "channel", Value: 1}, {Key: "event_type", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer cursor.Close(ctx)

	var templates []*domain.Template
	for cursor.Next(ctx) {
		var doc templateDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode template: %w", err)
		}
		templates = append(templates, doc.toEntity())
	}
	return templates, cursor.Err()
}

// Delete removes a template override so renders fall back to the
// embedded default.
func (a *TemplateAdapter) Delete(ctx context.Context, channel domain.Channel, event domain.EventType) error {
	_, err := a.collection.DeleteOne(ctx, bson.M{"channel": string(channel), "event_type": string(event)})
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	return nil
}
