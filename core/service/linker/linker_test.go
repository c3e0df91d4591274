package linker

import (
	"context"
	"testing"
	"time"

	"github.com/official-panen138/seo-nexus/core/domain"
	"github.com/official-panen138/seo-nexus/core/port/out"
	"github.com/official-panen138/seo-nexus/core/service/notify"
	"github.com/official-panen138/seo-nexus/core/service/template"
	"github.com/official-panen138/seo-nexus/pkg/apperr"
)

// ---- in-memory fakes ----

type fakeConflicts struct {
	rows map[string]*domain.Conflict
}

func newFakeConflicts() *fakeConflicts {
	return &fakeConflicts{rows: make(map[string]*domain.Conflict)}
}

func (f *fakeConflicts) Save(_ context.Context, c *domain.Conflict) error {
	cp := *c
	f.rows[c.ID] = &cp
	return nil
}

func (f *fakeConflicts) Update(_ context.Context, c *domain.Conflict) error {
	cp := *c
	f.rows[c.ID] = &cp
	return nil
}

func (f *fakeConflicts) GetByID(_ context.Context, id string) (*domain.Conflict, error) {
	if c, ok := f.rows[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, apperr.NotFound("conflict", id)
}

func (f *fakeConflicts) GetByFingerprint(_ context.Context, fp string) (*domain.Conflict, error) {
	for _, c := range f.rows {
		if c.Fingerprint == fp {
			cp := *c
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("conflict", fp)
}

func (f *fakeConflicts) GetByOptimization(_ context.Context, optID string) (*domain.Conflict, error) {
	for _, c := range f.rows {
		if c.OptimizationID == optID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("conflict", optID)
}

func (f *fakeConflicts) ListByNetwork(_ context.Context, networkID string) ([]*domain.Conflict, error) {
	var rows []*domain.Conflict
	for _, c := range f.rows {
		if c.NetworkID == networkID {
			cp := *c
			rows = append(rows, &cp)
		}
	}
	return rows, nil
}

func (f *fakeConflicts) List(_ context.Context, _ *out.ConflictListOptions) ([]*domain.Conflict, int64, error) {
	return nil, 0, nil
}

func (f *fakeConflicts) CountActive(_ context.Context, _ string) (int64, error) { return 0, nil }

type fakeOptimizations struct {
	rows map[string]*domain.Optimization
}

func newFakeOptimizations() *fakeOptimizations {
	return &fakeOptimizations{rows: make(map[string]*domain.Optimization)}
}

func (f *fakeOptimizations) Save(_ context.Context, o *domain.Optimization) error {
	cp := *o
	f.rows[o.ID] = &cp
	return nil
}

func (f *fakeOptimizations) Update(_ context.Context, o *domain.Optimization) error {
	cp := *o
	f.rows[o.ID] = &cp
	return nil
}

func (f *fakeOptimizations) GetByID(_ context.Context, id string) (*domain.Optimization, error) {
	if o, ok := f.rows[id]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, apperr.NotFound("optimization", id)
}

func (f *fakeOptimizations) List(_ context.Context, _ *out.OptimizationListOptions) ([]*domain.Optimization, int64, error) {
	return nil, 0, nil
}

func (f *fakeOptimizations) ListInProgress(_ context.Context) ([]*domain.Optimization, error) {
	return nil, nil
}

func (f *fakeOptimizations) AddResponse(_ context.Context, _ string, _ *domain.TeamResponse) error {
	return nil
}

func (f *fakeOptimizations) SetReminderSentAt(_ context.Context, _ string, _ time.Time) error {
	return nil
}

func (f *fakeOptimizations) Delete(_ context.Context, id string) error {
	delete(f.rows, id)
	return nil
}

type fakeNetworks struct {
	network *domain.Network
}

func (f *fakeNetworks) Save(_ context.Context, _ *domain.Network) error   { return nil }
func (f *fakeNetworks) Update(_ context.Context, _ *domain.Network) error { return nil }
func (f *fakeNetworks) GetByID(_ context.Context, id string) (*domain.Network, error) {
	if f.network != nil && f.network.ID == id {
		return f.network, nil
	}
	return nil, apperr.NotFound("network", id)
}
func (f *fakeNetworks) ListByBrand(_ context.Context, _ string) ([]*domain.Network, error) {
	return nil, nil
}
func (f *fakeNetworks) List(_ context.Context, _, _ int) ([]*domain.Network, int64, error) {
	return nil, 0, nil
}
func (f *fakeNetworks) Delete(_ context.Context, _ string) error { return nil }

type fakeEntries struct {
	entries []*domain.StructureEntry
}

func (f *fakeEntries) Save(_ context.Context, _ *domain.StructureEntry) error   { return nil }
func (f *fakeEntries) Update(_ context.Context, _ *domain.StructureEntry) error { return nil }
func (f *fakeEntries) GetByID(_ context.Context, id string) (*domain.StructureEntry, error) {
	return nil, apperr.NotFound("entry", id)
}
func (f *fakeEntries) ListByNetwork(_ context.Context, _ string) ([]*domain.StructureEntry, error) {
	return f.entries, nil
}
func (f *fakeEntries) ListByDomain(_ context.Context, _ string) ([]*domain.StructureEntry, error) {
	return nil, nil
}
func (f *fakeEntries) ListTargeting(_ context.Context, _ string) ([]*domain.StructureEntry, error) {
	return nil, nil
}
func (f *fakeEntries) CountByDomain(_ context.Context, _ string) (int64, error) { return 0, nil }
func (f *fakeEntries) Delete(_ context.Context, _ string) error                 { return nil }
func (f *fakeEntries) DeleteByNetwork(_ context.Context, _ string) (int64, error) {
	return 0, nil
}
func (f *fakeEntries) DistinctDomainIDs(_ context.Context) ([]string, error) { return nil, nil }

type fakeTemplates struct{}

func (fakeTemplates) Upsert(_ context.Context, _ *domain.Template) error { return nil }
func (fakeTemplates) Get(_ context.Context, _ domain.Channel, _ domain.EventType) (*domain.Template, error) {
	return nil, apperr.NotFound("template", "")
}
func (fakeTemplates) List(_ context.Context, _ string) ([]*domain.Template, error) {
	return nil, nil
}
func (fakeTemplates) Delete(_ context.Context, _ domain.Channel, _ domain.EventType) error {
	return nil
}

// fakeSettings has no rows, so the dispatcher treats every channel as
// unconfigured and sends become silent no-ops.
type fakeSettings struct{}

func (fakeSettings) Get(_ context.Context, _ string, _ any) (bool, error) { return false, nil }
func (fakeSettings) Set(_ context.Context, _ string, _ any, _ string) error {
	return nil
}

type noopChat struct{}

func (noopChat) Send(_ context.Context, _ *out.ChatMessage) error { return nil }

type noopEmail struct{}

func (noopEmail) Send(_ context.Context, _ *out.EmailMessage) error { return nil }

// ---- tests ----

func newTestService(conflicts *fakeConflicts, opts *fakeOptimizations, entries *fakeEntries) *Service {
	dispatcher := notify.NewDispatcher(
		template.NewEngine(fakeTemplates{}), fakeSettings{}, noopChat{}, noopEmail{})
	networks := &fakeNetworks{network: &domain.Network{ID: "net-1", BrandID: "brand-1", Name: "Alpha"}}
	return New(conflicts, opts, networks, entries, dispatcher)
}

func detected() domain.DetectedConflict {
	return domain.DetectedConflict{
		Type:        domain.ConflictOrphan,
		Severity:    domain.SeverityMedium,
		NodeAID:     "entry-1",
		NodeALabel:  "lost.com",
		Description: "lost.com has no target",
		DomainID:    "dom-1",
		NodePath:    "",
		Tier:        domain.TierOrphan,
	}
}

func TestFingerprintDeterministic(t *testing.T) {
	a := detected()
	b := detected()
	b.NodePath = "/"
	b.Description = "different wording"
	b.NodeALabel = "renamed label"

	fpA := Fingerprint("net-1", &a)
	fpB := Fingerprint("net-1", &b)
	if fpA != fpB {
		t.Errorf("fingerprints differ for equivalent conflicts: %s vs %s", fpA, fpB)
	}
	if len(fpA) != 32 {
		t.Errorf("fingerprint length = %d, want 32", len(fpA))
	}

	c := detected()
	c.Tier = 2
	if Fingerprint("net-1", &c) == fpA {
		t.Error("fingerprint should change with tier")
	}
	if Fingerprint("net-2", &a) == fpA {
		t.Error("fingerprint should change with network")
	}
}

func TestIngestNewConflict(t *testing.T) {
	conflicts := newFakeConflicts()
	opts := newFakeOptimizations()
	svc := newTestService(conflicts, opts, &fakeEntries{})

	result, err := svc.Ingest(context.Background(), "net-1", []domain.DetectedConflict{detected()})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if result.New != 1 || result.Recurred != 0 || result.StillOpen != 0 {
		t.Fatalf("result = %+v, want 1 new", result)
	}

	if len(conflicts.rows) != 1 {
		t.Fatalf("stored conflicts = %d, want 1", len(conflicts.rows))
	}
	var stored *domain.Conflict
	for _, c := range conflicts.rows {
		stored = c
	}
	if stored.Status != domain.ConflictUnderReview {
		t.Errorf("status = %s, want under_review", stored.Status)
	}
	if !stored.IsActive {
		t.Error("conflict should be active")
	}
	if stored.OptimizationID == "" {
		t.Fatal("conflict has no linked optimization")
	}

	opt := opts.rows[stored.OptimizationID]
	if opt == nil {
		t.Fatal("linked optimization was not saved")
	}
	if opt.ActivityType != domain.ActivityTypeConflictResolution {
		t.Errorf("activity type = %s", opt.ActivityType)
	}
	if opt.LinkedConflictID != stored.ID {
		t.Error("optimization does not point back at the conflict")
	}
	if opt.CreatedBy != "system" {
		t.Errorf("created by = %s, want system", opt.CreatedBy)
	}
	if opt.Title != "[Conflict Resolution] Orphan Node" {
		t.Errorf("title = %q, want the conflict type label", opt.Title)
	}
}

func TestLinkedTaskTitleUsesConflictTypeLabel(t *testing.T) {
	conflicts := newFakeConflicts()
	opts := newFakeOptimizations()
	svc := newTestService(conflicts, opts, &fakeEntries{})

	cannibal := domain.DetectedConflict{
		Type:        domain.ConflictKeywordCannibalization,
		Severity:    domain.SeverityHigh,
		NodeAID:     "entry-1",
		NodeALabel:  "support.com/blog",
		NodeBID:     "entry-2",
		NodeBLabel:  "support.com/blog2",
		Description: "both nodes target the keyword slot bonus",
		DomainID:    "dom-1",
		NodePath:    "/blog",
		Tier:        1,
	}
	if _, err := svc.Ingest(context.Background(), "net-1", []domain.DetectedConflict{cannibal}); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if len(opts.rows) != 1 {
		t.Fatalf("stored optimizations = %d, want 1", len(opts.rows))
	}
	for _, opt := range opts.rows {
		if opt.Title != "[Conflict Resolution] Keyword Cannibalization" {
			t.Errorf("title = %q, want %q", opt.Title, "[Conflict Resolution] Keyword Cannibalization")
		}
	}
}

func TestIngestStillOpenOnlyTouches(t *testing.T) {
	conflicts := newFakeConflicts()
	opts := newFakeOptimizations()
	svc := newTestService(conflicts, opts, &fakeEntries{})
	ctx := context.Background()

	if _, err := svc.Ingest(ctx, "net-1", []domain.DetectedConflict{detected()}); err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	result, err := svc.Ingest(ctx, "net-1", []domain.DetectedConflict{detected()})
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	if result.StillOpen != 1 || result.New != 0 || result.Recurred != 0 {
		t.Fatalf("result = %+v, want 1 still open", result)
	}
	if len(conflicts.rows) != 1 {
		t.Errorf("stored conflicts = %d, want 1 (no duplicate rows)", len(conflicts.rows))
	}
	if len(opts.rows) != 1 {
		t.Errorf("stored optimizations = %d, want 1 (no duplicate tasks)", len(opts.rows))
	}
}

func TestIngestRecurrenceReopens(t *testing.T) {
	conflicts := newFakeConflicts()
	opts := newFakeOptimizations()
	svc := newTestService(conflicts, opts, &fakeEntries{})
	ctx := context.Background()

	if _, err := svc.Ingest(ctx, "net-1", []domain.DetectedConflict{detected()}); err != nil {
		t.Fatalf("first ingest: %v", err)
	}

	// Resolve the conflict out of band.
	var id string
	for _, c := range conflicts.rows {
		id = c.ID
	}
	resolved := conflicts.rows[id]
	now := time.Now()
	resolved.Status = domain.ConflictResolved
	resolved.IsActive = false
	resolved.ResolvedAt = &now
	resolved.ResolvedBy = "ops@example.com"

	result, err := svc.Ingest(ctx, "net-1", []domain.DetectedConflict{detected()})
	if err != nil {
		t.Fatalf("recurrence ingest: %v", err)
	}
	if result.Recurred != 1 {
		t.Fatalf("result = %+v, want 1 recurred", result)
	}

	reopened := conflicts.rows[id]
	if reopened.Status != domain.ConflictUnderReview {
		t.Errorf("status = %s, want under_review", reopened.Status)
	}
	if !reopened.IsActive {
		t.Error("recurred conflict should be active")
	}
	if reopened.RecurrenceCount != 1 {
		t.Errorf("recurrence count = %d, want 1", reopened.RecurrenceCount)
	}
	if reopened.LastRecurrenceAt == nil {
		t.Error("last recurrence timestamp missing")
	}
	if reopened.ResolvedAt != nil || reopened.ResolvedBy != "" {
		t.Error("resolution fields should be cleared on recurrence")
	}
	if len(opts.rows) != 2 {
		t.Errorf("stored optimizations = %d, want 2 (fresh task per recurrence)", len(opts.rows))
	}
	opt := opts.rows[reopened.OptimizationID]
	if opt == nil {
		t.Fatal("reopened conflict has no fresh optimization")
	}
	if opt.Title != "[Conflict Resolution] Orphan Node [RECURRING #1]" {
		t.Errorf("recurring task title = %q", opt.Title)
	}
}

func TestSyncFromOptimization(t *testing.T) {
	conflicts := newFakeConflicts()
	opts := newFakeOptimizations()
	svc := newTestService(conflicts, opts, &fakeEntries{})
	ctx := context.Background()

	if _, err := svc.Ingest(ctx, "net-1", []domain.DetectedConflict{detected()}); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	var conflict *domain.Conflict
	for _, c := range conflicts.rows {
		conflict = c
	}
	opt := opts.rows[conflict.OptimizationID]
	actor := domain.Actor{Email: "ops@example.com"}

	opt.Status = domain.OptCompleted
	if err := svc.SyncFromOptimization(ctx, opt, actor); err != nil {
		t.Fatalf("sync completed: %v", err)
	}
	synced := conflicts.rows[conflict.ID]
	if synced.Status != domain.ConflictResolved || synced.IsActive {
		t.Errorf("conflict after completion = %s/active=%v", synced.Status, synced.IsActive)
	}
	if synced.ResolvedBy != actor.Email {
		t.Errorf("resolved by = %s", synced.ResolvedBy)
	}

	opt.Status = domain.OptReverted
	if err := svc.SyncFromOptimization(ctx, opt, actor); err != nil {
		t.Fatalf("sync reverted: %v", err)
	}
	synced = conflicts.rows[conflict.ID]
	if synced.Status != domain.ConflictDetected || !synced.IsActive {
		t.Errorf("conflict after revert = %s/active=%v", synced.Status, synced.IsActive)
	}
	if synced.ResolvedAt != nil {
		t.Error("revert should clear resolution timestamp")
	}
}

func TestApproveRequiresSuperAdmin(t *testing.T) {
	conflicts := newFakeConflicts()
	opts := newFakeOptimizations()
	svc := newTestService(conflicts, opts, &fakeEntries{})
	ctx := context.Background()

	if _, err := svc.Ingest(ctx, "net-1", []domain.DetectedConflict{detected()}); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	var conflict *domain.Conflict
	for _, c := range conflicts.rows {
		conflict = c
	}

	_, err := svc.Approve(ctx, conflict.ID, "looks intentional", domain.Actor{Email: "user@example.com"})
	if apperr.AsAppError(err).Code != apperr.CodeForbidden {
		t.Fatalf("approve by non-admin = %v, want forbidden", err)
	}

	admin := domain.Actor{Email: "admin@example.com", SuperAdmin: true}
	approved, err := svc.Approve(ctx, conflict.ID, "intentional structure", admin)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != domain.ConflictApproved || approved.IsActive {
		t.Errorf("approved conflict = %s/active=%v", approved.Status, approved.IsActive)
	}
	if approved.RecurrenceCount != 0 {
		t.Errorf("recurrence count = %d, want reset to 0", approved.RecurrenceCount)
	}

	// The linked optimization auto-completes.
	opt := opts.rows[conflict.OptimizationID]
	if opt.Status != domain.OptCompleted {
		t.Errorf("linked optimization status = %s, want completed", opt.Status)
	}
}
