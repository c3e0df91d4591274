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
	"github.com/official-panen138/seo-nexus/pkg/apperr"
)

const (
	collectionOptimizations = "seo_optimizations"
	collectionComplaints    = "seo_complaints"
)

// OptimizationAdapter implements out.OptimizationRepository using MongoDB.
type OptimizationAdapter struct {
	collection *mongo.Collection
}

// NewOptimizationAdapter creates a new MongoDB optimization adapter.
func NewOptimizationAdapter(db *mongo.Database) *OptimizationAdapter {
	return &OptimizationAdapter{collection: db.Collection(collectionOptimizations)}
}

var _ out.OptimizationRepository = (*OptimizationAdapter)(nil)

// EnsureIndexes creates necessary indexes for the collection.
func (a *OptimizationAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "network_id", Value: 1}, {Key: "status", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "linked_conflict_id", Value: 1}},
		},
	}
	_, err := a.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

type reportURLDocument struct {
	URL       string `bson:"url"`
	StartDate string `bson:"start_date"`
}

type teamResponseDocument struct {
	ID        string `bson:"id"`
	UserID    string `bson:"user_id"`
	UserEmail string `bson:"user_email"`
	Message   string `bson:"message"`
	CreatedAt string `bson:"created_at"`
}

type optimizationDocument struct {
	ID        string `bson:"id"`
	NetworkID string `bson:"network_id"`
	BrandID   string `bson:"brand_id"`

	Title        string `bson:"title"`
	Description  string `bson:"description,omitempty"`
	ReasonNote   string `bson:"reason_note"`
	ActivityType string `bson:"activity_type,omitempty"`
	Priority     string `bson:"priority,omitempty"`

	AffectedScope  string              `bson:"affected_scope,omitempty"`
	TargetDomains  []string            `bson:"target_domains,omitempty"`
	Keywords       []string            `bson:"keywords,omitempty"`
	ReportURLs     []reportURLDocument `bson:"report_urls,omitempty"`
	ExpectedImpact []string            `bson:"expected_impact,omitempty"`
	ObservedImpact string              `bson:"observed_impact,omitempty"`

	Status          string `bson:"status"`
	ComplaintStatus string `bson:"complaint_status"`

	LinkedConflictID string `bson:"linked_conflict_id,omitempty"`

	Responses []teamResponseDocument `bson:"responses,omitempty"`

	LastReminderSentAt string `bson:"last_reminder_sent_at,omitempty"`

	CreatedBy string `bson:"created_by"`
	CreatedAt string `bson:"created_at"`
	UpdatedAt string `bson:"updated_at"`
	ClosedAt  string `bson:"closed_at,omitempty"`
	ClosedBy  string `bson:"closed_by,omitempty"`
}

func toOptimizationDocument(o *domain.Optimization) *optimizationDocument {
	doc := &optimizationDocument{
		ID:                 o.ID,
		NetworkID:          o.NetworkID,
		BrandID:            o.BrandID,
		Title:              o.Title,
		Description:        o.Description,
		ReasonNote:         o.ReasonNote,
		ActivityType:       o.ActivityType,
		Priority:           o.Priority,
		AffectedScope:      string(o.AffectedScope),
		TargetDomains:      o.TargetDomains,
		Keywords:           o.Keywords,
		ExpectedImpact:     o.ExpectedImpact,
		ObservedImpact:     o.ObservedImpact,
		Status:             string(o.Status),
		ComplaintStatus:    string(o.ComplaintStatus),
		LinkedConflictID:   o.LinkedConflictID,
		LastReminderSentAt: tsPtr(o.LastReminderSentAt),
		CreatedBy:          o.CreatedBy,
		CreatedAt:          ts(o.CreatedAt),
		UpdatedAt:          ts(o.UpdatedAt),
		ClosedAt:           tsPtr(o.ClosedAt),
		ClosedBy:           o.ClosedBy,
	}
	for _, r := range o.ReportURLs {
		doc.ReportURLs = append(doc.ReportURLs, reportURLDocument{URL: r.URL, StartDate: r.StartDate})
	}
	for _, r := range o.Responses {
		doc.Responses = append(doc.Responses, teamResponseDocument{
			ID: r.ID, UserID: r.UserID, UserEmail: r.UserEmail, Message: r.Message, CreatedAt: ts(r.CreatedAt),
		})
	}
	return doc
}

func (doc *optimizationDocument) toEntity() *domain.Optimization {
	o := &domain.Optimization{
		ID:                 doc.ID,
		NetworkID:          doc.NetworkID,
		BrandID:            doc.BrandID,
		Title:              doc.Title,
		Description:        doc.Description,
		ReasonNote:         doc.ReasonNote,
		ActivityType:       doc.ActivityType,
		Priority:           doc.Priority,
		AffectedScope:      domain.AffectedScope(doc.AffectedScope),
		TargetDomains:      doc.TargetDomains,
		Keywords:           doc.Keywords,
		ExpectedImpact:     doc.ExpectedImpact,
		ObservedImpact:     doc.ObservedImpact,
		Status:             domain.OptimizationStatus(doc.Status),
		ComplaintStatus:    domain.ComplaintStatus(doc.ComplaintStatus),
		LinkedConflictID:   doc.LinkedConflictID,
		LastReminderSentAt: parseTSPtr(doc.LastReminderSentAt),
		CreatedBy:          doc.CreatedBy,
		CreatedAt:          parseTS(doc.CreatedAt),
		UpdatedAt:          parseTS(doc.UpdatedAt),
		ClosedAt:           parseTSPtr(doc.ClosedAt),
		ClosedBy:           doc.ClosedBy,
	}
	for _, r := range doc.ReportURLs {
		o.ReportURLs = append(o.ReportURLs, domain.ReportURL{URL: r.URL, StartDate: r.StartDate})
	}
	for _, r := range doc.Responses {
		o.Responses = append(o.Responses, domain.TeamResponse{
			ID: r.ID, UserID: r.UserID, UserEmail: r.UserEmail, Message: r.Message, CreatedAt: parseTS(r.CreatedAt),
		})
	}
	return o
}

// Save inserts an optimization.
func (a *OptimizationAdapter) Save(ctx context.Context, o *domain.Optimization) error {
	_, err := a.collection.InsertOne(ctx, toOptimizationDocument(o))
	if err != nil {
		return fmt.Errorf("failed to save optimization: %w", err)
	}
	return nil
}

// Update replaces an existing optimization document.
func (a *OptimizationAdapter) Update(ctx context.Context, o *domain.Optimization) error {
	res, err := a.collection.ReplaceOne(ctx, bson.M{"id": o.ID}, toOptimizationDocument(o))
	if err != nil {
		return fmt.Errorf("failed to update optimization: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("optimization", o.ID)
	}
	return nil
}

// GetByID retrieves an optimization by id.
func (a *OptimizationAdapter) GetByID(ctx context.Context, id string) (*domain.Optimization, error) {
	var doc optimizationDocument
	err := a.collection.FindOne(ctx, bson.M{"id": id}).Decode(&doc)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("optimization", id)
		}
		return nil, fmt.Errorf("failed to get optimization: %w", err)
	}
	return doc.toEntity(), nil
}

// List returns optimizations matching the options with a total count.
func (a *OptimizationAdapter) List(ctx context.Context, opts *out.OptimizationListOptions) ([]*domain.Optimization, int64, error) {
	filter := bson.M{}
	if opts.NetworkID != "" {
		filter["network_id"] = opts.NetworkID
	}
	if opts.BrandID != "" {
		filter["brand_id"] = opts.BrandID
	}
	if opts.Status != nil {
		filter["status"] = string(*opts.Status)
	}
	if opts.ComplaintStatus != nil {
		filter["complaint_status"] = string(*opts.ComplaintStatus)
	}
	if opts.ActivityType != "" {
		filter["activity_type"] = opts.ActivityType
	}

	total, err := a.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count optimizations: %w", err)
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit)).SetSkip(int64(opts.Offset))
	}
	cursor, err := a.collection.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list optimizations: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*domain.Optimization
	for cursor.Next(ctx) {
		var doc optimizationDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, 0, fmt.Errorf("failed to decode optimization: %w", err)
		}
		result = append(result, doc.toEntity())
	}
	return result, total, cursor.Err()
}

// ListInProgress returns every in-progress optimization for reminders.
func (a *OptimizationAdapter) ListInProgress(ctx context.Context) ([]*domain.Optimization, error) {
	cursor, err := a.collection.Find(ctx, bson.M{"status": string(domain.OptInProgress)})
	if err != nil {
		return nil, fmt.Errorf("failed to list in-progress optimizations: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*domain.Optimization
	for cursor.Next(ctx) {
		var doc optimizationDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode optimization: %w", err)
		}
		result = append(result, doc.toEntity())
	}
	return result, cursor.Err()
}

// AddResponse appends a team response via $push.
func (a *OptimizationAdapter) AddResponse(ctx context.Context, id string, resp *domain.TeamResponse) error {
	update := bson.M{
		"$push": bson.M{"responses": teamResponseDocument{
			ID: resp.ID, UserID: resp.UserID, UserEmail: resp.UserEmail,
			Message: resp.Message, CreatedAt: ts(resp.CreatedAt),
		}},
		"$set": bson.M{"updated_at": ts(time.Now())},
	}
	res, err := a.collection.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to add response: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("optimization", id)
	}
	return nil
}

// SetReminderSentAt records when the reminder scheduler last tagged the
// optimization.
func (a *OptimizationAdapter) SetReminderSentAt(ctx context.Context, id string, at time.Time) error {
	_, err := a.collection.UpdateOne(ctx, bson.M{"id": id},
		bson.M{"$set": bson.M{"last_reminder_sent_at": ts(at)}})
	if err != nil {
		return fmt.Errorf("failed to set reminder timestamp: %w", err)
	}
	return nil
}

// Delete removes an optimization document.
func (a *OptimizationAdapter) Delete(ctx context.Context, id string) error {
	res, err := a.collection.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete optimization: %w", err)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("optimization", id)
	}
	return nil
}

// =============================================================================
// Complaints
// =============================================================================

// ComplaintAdapter implements out.ComplaintRepository using MongoDB.
type ComplaintAdapter struct {
	collection *mongo.Collection
}

// NewComplaintAdapter creates a new MongoDB complaint adapter.
func NewComplaintAdapter(db *mongo.Database) *ComplaintAdapter {
	return &ComplaintAdapter{collection: db.Collection(collectionComplaints)}
}

var _ out.ComplaintRepository = (*ComplaintAdapter)(nil)

// EnsureIndexes creates necessary indexes for the collection.
func (a *ComplaintAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "optimization_id", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "network_id", Value: 1}, {Key: "status", Value: 1}},
		},
	}
	_, err := a.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

type complaintDocument struct {
	ID             string `bson:"id"`
	OptimizationID string `bson:"optimization_id,omitempty"`
	NetworkID      string `bson:"network_id,omitempty"`
	BrandID        string `bson:"brand_id,omitempty"`

	Reason             string   `bson:"reason"`
	Priority           string   `bson:"priority,omitempty"`
	ResponsibleUserIDs []string `bson:"responsible_user_ids,omitempty"`

	Status                string   `bson:"status"`
	ResolvedAt            string   `bson:"resolved_at,omitempty"`
	ResolvedBy            string   `bson:"resolved_by,omitempty"`
	ResolutionNote        string   `bson:"resolution_note,omitempty"`
	TimeToResolutionHours *float64 `bson:"time_to_resolution_hours,omitempty"`

	CreatedBy string `bson:"created_by"`
	CreatedAt string `bson:"created_at"`
	UpdatedAt string `bson:"updated_at"`
}

func toComplaintDocument(c *domain.Complaint) *complaintDocument {
	return &complaintDocument{
		ID:                    c.ID,
		OptimizationID:        c.OptimizationID,
		NetworkID:             c.NetworkID,
		BrandID:               c.BrandID,
		Reason:                c.Reason,
		Priority:              c.Priority,
		ResponsibleUserIDs:    c.ResponsibleUserIDs,
		Status:                string(c.Status),
		ResolvedAt:            tsPtr(c.ResolvedAt),
		ResolvedBy:            c.ResolvedBy,
		ResolutionNote:        c.ResolutionNote,
		TimeToResolutionHours: c.TimeToResolutionHours,
		CreatedBy:             c.CreatedBy,
		CreatedAt:             ts(c.CreatedAt),
		UpdatedAt:             ts(c.UpdatedAt),
	}
}

func (doc *complaintDocument) toEntity() *domain.Complaint {
	return &domain.Complaint{
		ID:                    doc.ID,
		OptimizationID:        doc.OptimizationID,
		NetworkID:             doc.NetworkID,
		BrandID:               doc.BrandID,
		Reason:                doc.Reason,
		Priority:              doc.Priority,
		ResponsibleUserIDs:    doc.ResponsibleUserIDs,
		Status:                domain.ProjectComplaintStatus(doc.Status),
		ResolvedAt:            parseTSPtr(doc.ResolvedAt),
		ResolvedBy:            doc.ResolvedBy,
		ResolutionNote:        doc.ResolutionNote,
		TimeToResolutionHours: doc.TimeToResolutionHours,
		CreatedBy:             doc.CreatedBy,
		CreatedAt:             parseTS(doc.CreatedAt),
		UpdatedAt:             parseTS(doc.UpdatedAt),
	}
}

// Save inserts a complaint.
func (a *ComplaintAdapter) Save(ctx context.Context, c *domain.Complaint) error {
	_, err := a.collection.InsertOne(ctx, toComplaintDocument(c))
	if err != nil {
		return fmt.Errorf("failed to save complaint: %w", err)
	}
	return nil
}

// Update replaces an existing complaint document.
func (a *ComplaintAdapter) Update(ctx context.Context, c *domain.Complaint) error {
	res, err := a.collection.ReplaceOne(ctx, bson.M{"id": c.ID}, toComplaintDocument(c))
	if err != nil {
		return fmt.Errorf("failed to update complaint: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("complaint", c.ID)
	}
	return nil
}

// GetByID retrieves a complaint by id.
func (a *ComplaintAdapter) GetByID(ctx context.Context, id string) (*domain.Complaint, error) {
	var doc complaintDocument
	err := a.collection.FindOne(ctx, bson.M{"id": id}).Decode(&doc)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("complaint", id)
		}
		return nil, fmt.Errorf("failed to get complaint: %w", err)
	}
	return doc.toEntity(), nil
}

// ListByOptimization returns complaints for an optimization.
func (a *ComplaintAdapter) ListByOptimization(ctx context.Context, optimizationID string) ([]*domain.Complaint, error) {
	return a.listBy(ctx, bson.M{"optimization_id": optimizationID})
}

// ListByNetwork returns project-level and optimization complaints for a
// network.
func (a *ComplaintAdapter) ListByNetwork(ctx context.Context, networkID string) ([]*domain.Complaint, error) {
	return a.listBy(ctx, bson.M{"network_id": networkID})
}

// ListOpen returns every unresolved complaint.
func (a *ComplaintAdapter) ListOpen(ctx context.Context) ([]*domain.Complaint, error) {
	return a.listBy(ctx, bson.M{"status": bson.M{"$ne": string(domain.ComplaintStatusResolved)}})
}

func (a *ComplaintAdapter) listBy(ctx context.Context, filter bson.M) ([]*domain.Complaint, error) {
	cursor, err := a.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list complaints: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*domain.Complaint
	for cursor.Next(ctx) {
		var doc complaintDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode complaint: %w", err)
		}
		result = append(result, doc.toEntity())
	}
	return result, cursor.Err()
}
