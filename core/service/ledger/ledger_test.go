package ledger

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/official-panen138/seo-nexus/core/domain"
	"github.com/official-panen138/seo-nexus/core/port/out"
	"github.com/official-panen138/seo-nexus/core/service/notify"
	"github.com/official-panen138/seo-nexus/core/service/template"
	"github.com/official-panen138/seo-nexus/pkg/apperr"
	"github.com/official-panen138/seo-nexus/pkg/ratelimit"
)

func TestValidateChangeNote(t *testing.T) {
	tests := []struct {
		name    string
		note    string
		wantErr bool
	}{
		{"long enough", "consolidating redirect chain", false},
		{"exactly minimum", "0123456789", false},
		{"too short", "too short", true},
		{"whitespace not counted", "   short1   ", true},
		{"empty", "", true},
		{"over max length", strings.Repeat("x", domain.MaxNoteLen+1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trimmed, err := ValidateChangeNote(tt.note)
			if tt.wantErr {
				if apperr.AsAppError(err).Code != apperr.CodeRationaleTooShort {
					t.Fatalf("err = %v, want rationale error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if trimmed != strings.TrimSpace(tt.note) {
				t.Errorf("trimmed = %q", trimmed)
			}
		})
	}
}

func TestValidateReasonNoteRequiresLongerMinimum(t *testing.T) {
	// 19 chars passes the change-note bar but not the reason-note bar.
	note := strings.Repeat("a", domain.MinReasonNoteLen-1)
	if _, err := ValidateChangeNote(note); err != nil {
		t.Fatalf("change note rejected: %v", err)
	}
	if _, err := ValidateReasonNote(note); err == nil {
		t.Fatal("reason note accepted below its minimum")
	}
	if _, err := ValidateReasonNote(strings.Repeat("a", domain.MinReasonNoteLen)); err != nil {
		t.Fatalf("reason note at minimum rejected: %v", err)
	}
}

func snapshot(mutate func(*domain.EntrySnapshot)) *domain.EntrySnapshot {
	s := &domain.EntrySnapshot{
		EntryID:        "entry-1",
		DomainName:     "example.com",
		OptimizedPath:  "/blog",
		Role:           "supporting",
		Status:         "primary",
		IndexStatus:    "index",
		TargetEntryID:  "entry-2",
		PrimaryKeyword: "widgets",
	}
	if mutate != nil {
		mutate(s)
	}
	return s
}

func TestDiff(t *testing.T) {
	t.Run("identical snapshots produce no changes", func(t *testing.T) {
		if changes := Diff(snapshot(nil), snapshot(nil)); len(changes) != 0 {
			t.Errorf("changes = %v, want none", changes)
		}
	})

	t.Run("tracked field changes are reported", func(t *testing.T) {
		after := snapshot(func(s *domain.EntrySnapshot) {
			s.Status = "301_redirect"
			s.TargetEntryID = "entry-3"
		})
		changes := Diff(snapshot(nil), after)
		if len(changes) != 2 {
			t.Fatalf("changes = %v, want 2", changes)
		}
		fields := map[string]bool{}
		for _, c := range changes {
			fields[c.Field] = true
		}
		if !fields["domain_status"] || !fields["target_entry_id"] {
			t.Errorf("changed fields = %v", fields)
		}
	})

	t.Run("nil ranking position vs set", func(t *testing.T) {
		pos := 5
		after := snapshot(func(s *domain.EntrySnapshot) { s.RankingPosition = &pos })
		changes := Diff(snapshot(nil), after)
		if len(changes) != 1 || changes[0].Field != "ranking_position" {
			t.Errorf("changes = %v", changes)
		}
	})

	t.Run("equal ranking positions through distinct pointers", func(t *testing.T) {
		a, b := 5, 5
		before := snapshot(func(s *domain.EntrySnapshot) { s.RankingPosition = &a })
		after := snapshot(func(s *domain.EntrySnapshot) { s.RankingPosition = &b })
		if changes := Diff(before, after); len(changes) != 0 {
			t.Errorf("changes = %v, want none", changes)
		}
	})
}

func TestClassifyAction(t *testing.T) {
	tests := []struct {
		name   string
		fields []string
		want   domain.ActionType
	}{
		{"role change dominates", []string{"domain_role", "target_entry_id", "notes"}, domain.ActionChangeRole},
		{"path change", []string{"optimized_path", "notes"}, domain.ActionChangePath},
		{"pure relink", []string{"target_entry_id"}, domain.ActionRelinkNode},
		{"relink plus other fields is update", []string{"target_entry_id", "notes"}, domain.ActionUpdateNode},
		{"generic update", []string{"primary_keyword"}, domain.ActionUpdateNode},
		{"empty diff defaults to update", nil, domain.ActionUpdateNode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var changes []domain.FieldChange
			for _, f := range tt.fields {
				changes = append(changes, domain.FieldChange{Field: f, Before: "a", After: "b"})
			}
			if got := ClassifyAction(changes); got != tt.want {
				t.Errorf("ClassifyAction(%v) = %s, want %s", tt.fields, got, tt.want)
			}
		})
	}
}

func TestActionCritical(t *testing.T) {
	if !domain.ActionDeleteNode.Critical() || !domain.ActionChangeRole.Critical() {
		t.Error("delete_node and change_role must bypass the throttle")
	}
	for _, a := range []domain.ActionType{
		domain.ActionCreateNode, domain.ActionUpdateNode,
		domain.ActionRelinkNode, domain.ActionChangePath, domain.ActionCreateNetwork,
	} {
		if a.Critical() {
			t.Errorf("%s should not be critical", a)
		}
	}
}

// fakeLogs is an in-memory ChangeLogRepository.
type fakeLogs struct {
	rows map[string]*domain.ChangeLog
}

func newFakeLogs() *fakeLogs {
	return &fakeLogs{rows: make(map[string]*domain.ChangeLog)}
}

func (f *fakeLogs) Save(_ context.Context, row *domain.ChangeLog) error {
	cp := *row
	f.rows[row.ID] = &cp
	return nil
}

func (f *fakeLogs) GetByID(_ context.Context, id string) (*domain.ChangeLog, error) {
	row, ok := f.rows[id]
	if !ok {
		return nil, apperr.NotFound("change log", id)
	}
	cp := *row
	return &cp, nil
}

func (f *fakeLogs) List(_ context.Context, _ *out.ChangeLogListOptions) ([]*domain.ChangeLog, int64, error) {
	return nil, 0, nil
}

func (f *fakeLogs) SetNotificationStatus(_ context.Context, id string, status domain.NotificationStatus) error {
	if row, ok := f.rows[id]; ok {
		row.NotificationStatus = status
	}
	return nil
}

func (f *fakeLogs) Archive(_ context.Context, id string) error { return nil }

func (f *fakeLogs) Delete(_ context.Context, id string) error {
	delete(f.rows, id)
	return nil
}

// chatSettings enables the SEO Telegram channel and nothing else.
type chatSettings struct{}

func (chatSettings) Get(_ context.Context, key string, into any) (bool, error) {
	if key != domain.SettingTelegramSEO {
		return false, nil
	}
	tg, ok := into.(*domain.TelegramSettings)
	if !ok {
		return false, nil
	}
	tg.Enabled = true
	tg.ChatID = "-100200300"
	return true, nil
}

func (chatSettings) Set(_ context.Context, _ string, _ any, _ string) error { return nil }

type recordingChat struct{ sent int }

func (c *recordingChat) Send(_ context.Context, _ *out.ChatMessage) error {
	c.sent++
	return nil
}

type noopEmail struct{}

func (noopEmail) Send(_ context.Context, _ *out.EmailMessage) error { return nil }

type noTemplates struct{}

func (noTemplates) Upsert(_ context.Context, _ *domain.Template) error { return nil }

func (noTemplates) Get(_ context.Context, c domain.Channel, e domain.EventType) (*domain.Template, error) {
	return nil, apperr.NotFound("template", string(c)+"/"+string(e))
}

func (noTemplates) List(_ context.Context, _ string) ([]*domain.Template, error) { return nil, nil }

func (noTemplates) Delete(_ context.Context, _ domain.Channel, _ domain.EventType) error { return nil }

func newNotifyFixture() (*Service, *fakeLogs, *recordingChat) {
	logs := newFakeLogs()
	chat := &recordingChat{}
	dispatcher := notify.NewDispatcher(
		template.NewEngine(noTemplates{}), chatSettings{}, chat, noopEmail{})
	throttle := ratelimit.NewNotifyThrottle(ratelimit.NewDeduper(nil), time.Minute)
	return New(logs, dispatcher, throttle), logs, chat
}

func record(t *testing.T, svc *Service, action domain.ActionType) *domain.ChangeLog {
	t.Helper()
	row, err := svc.Record(context.Background(), &Entry{
		NetworkID:    "net-1",
		BrandID:      "brand-1",
		EntryID:      "entry-1",
		ActionType:   action,
		AffectedNode: "support.com/blog",
		ActorEmail:   "ops@example.com",
		ChangeNote:   "consolidating redirect chain",
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	return row
}

func TestNotifyThrottledRowIsRetryable(t *testing.T) {
	svc, logs, chat := newNotifyFixture()
	ctx := context.Background()

	first := record(t, svc, domain.ActionUpdateNode)
	svc.Notify(ctx, first, domain.EventSEOChange, template.Context{})
	if chat.sent != 1 {
		t.Fatalf("sends after first notify = %d, want 1", chat.sent)
	}
	if logs.rows[first.ID].NotificationStatus != domain.NotifySuccess {
		t.Errorf("first row status = %s, want success", logs.rows[first.ID].NotificationStatus)
	}

	// Second non-critical notification for the same network inside the
	// window is suppressed but stays recoverable.
	second := record(t, svc, domain.ActionUpdateNode)
	svc.Notify(ctx, second, domain.EventSEOChange, template.Context{})
	if chat.sent != 1 {
		t.Fatalf("sends after throttled notify = %d, want 1", chat.sent)
	}
	if logs.rows[second.ID].NotificationStatus != domain.NotifyThrottled {
		t.Fatalf("throttled row status = %s, want throttled", logs.rows[second.ID].NotificationStatus)
	}

	retried, err := svc.Retry(ctx, second.ID, domain.EventSEOChange, template.Context{})
	if err != nil {
		t.Fatalf("Retry of throttled row: %v", err)
	}
	if chat.sent != 2 {
		t.Errorf("sends after retry = %d, want 2", chat.sent)
	}
	if retried.NotificationStatus != domain.NotifySuccess {
		t.Errorf("retried row status = %s, want success", retried.NotificationStatus)
	}

	// A delivered row cannot be re-sent.
	if _, err := svc.Retry(ctx, first.ID, domain.EventSEOChange, template.Context{}); apperr.AsAppError(err).Code != apperr.CodeConflict {
		t.Errorf("Retry of delivered row = %v, want conflict", err)
	}
}

func TestNotifyCriticalActionBypassesThrottle(t *testing.T) {
	svc, logs, chat := newNotifyFixture()
	ctx := context.Background()

	first := record(t, svc, domain.ActionUpdateNode)
	svc.Notify(ctx, first, domain.EventSEOChange, template.Context{})

	critical := record(t, svc, domain.ActionChangeRole)
	svc.Notify(ctx, critical, domain.EventSEOChange, template.Context{})
	if chat.sent != 2 {
		t.Fatalf("sends = %d, want 2 (critical bypasses the throttle)", chat.sent)
	}
	if logs.rows[critical.ID].NotificationStatus != domain.NotifySuccess {
		t.Errorf("critical row status = %s, want success", logs.rows[critical.ID].NotificationStatus)
	}
}
