package template

import (
	"context"
	"strings"
	"testing"

	"github.com/official-panen138/seo-nexus/core/domain"
	"github.com/official-panen138/seo-nexus/pkg/apperr"
)

func TestRender(t *testing.T) {
	ctx := Context{
		"network": map[string]any{"name": "acme-main"},
		"node":    map[string]any{"label": "example.com/blog", "tier": 2},
		"optimization": map[string]any{
			"keywords":       []string{"slot bonus", "free spins"},
			"target_domains": []any{"a.com", "b.com"},
		},
	}

	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "simple substitution",
			body: "Network: {{network.name}}",
			want: "Network: acme-main",
		},
		{
			name: "whitespace inside braces",
			body: "{{  network.name  }}",
			want: "acme-main",
		},
		{
			name: "non-string leaf is formatted",
			body: "tier {{node.tier}}",
			want: "tier 2",
		},
		{
			name: "missing variable becomes empty",
			body: "x{{node.label2}}y",
			want: "xy",
		},
		{
			name: "missing group becomes empty",
			body: "a{{digest.period}}b",
			want: "ab",
		},
		{
			name: "string list joins with commas",
			body: "{{optimization.keywords}}",
			want: "slot bonus, free spins",
		},
		{
			name: "mixed list joins with commas",
			body: "{{optimization.target_domains}}",
			want: "a.com, b.com",
		},
		{
			name: "text without placeholders unchanged",
			body: "no variables here",
			want: "no variables here",
		},
		{
			name: "multiple placeholders",
			body: "{{network.name}}: {{node.label}}",
			want: "acme-main: example.com/blog",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Render(tt.body, ctx); got != tt.want {
				t.Errorf("Render(%q) = %q, want %q", tt.body, got, tt.want)
			}
		})
	}
}

func TestValidateBody(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantUnknown []string
	}{
		{
			name: "allowed variables pass",
			body: "{{network.name}} {{actor.email}} {{impact.severity}}",
		},
		{
			name:        "unknown variable rejected",
			body:        "{{network.name}} {{evil.payload}}",
			wantUnknown: []string{"evil.payload"},
		},
		{
			name:        "unknown reported once",
			body:        "{{nope.x}} {{nope.x}}",
			wantUnknown: []string{"nope.x"},
		},
		{
			name: "malformed placeholders are ignored",
			body: "{{Network.Name}} {{ }} {{a..b}}",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateBody(tt.body)
			if len(got) != len(tt.wantUnknown) {
				t.Fatalf("ValidateBody(%q) = %v, want %v", tt.body, got, tt.wantUnknown)
			}
			for i := range got {
				if got[i] != tt.wantUnknown[i] {
					t.Errorf("unknown[%d] = %q, want %q", i, got[i], tt.wantUnknown[i])
				}
			}
		})
	}
}

func TestGroupMerges(t *testing.T) {
	ctx := Context{}
	ctx.Group("node", map[string]any{"label": "a.com"})
	ctx.Group("node", map[string]any{"tier": "1"})

	if got := Render("{{node.label}} {{node.tier}}", ctx); got != "a.com 1" {
		t.Errorf("merged render = %q", got)
	}
}

func TestDefaultsOnlyReferenceAllowedVariables(t *testing.T) {
	for channel, byEvent := range defaultTemplates {
		for event, def := range byEvent {
			if unknown := ValidateBody(def.Body); len(unknown) > 0 {
				t.Errorf("%s/%s default references unknown variables: %v", channel, event, unknown)
			}
			if strings.TrimSpace(def.Body) == "" {
				t.Errorf("%s/%s default body is empty", channel, event)
			}
		}
	}
}

func TestSampleContextCoversContract(t *testing.T) {
	sample := SampleContext()
	for _, v := range AllowedVariables() {
		if _, ok := sample.lookup(v); !ok {
			t.Errorf("sample context is missing %s", v)
		}
	}
}

// memTemplates is an in-memory TemplateRepository.
type memTemplates struct {
	rows map[string]*domain.Template
}

func newMemTemplates() *memTemplates {
	return &memTemplates{rows: make(map[string]*domain.Template)}
}

func key(c domain.Channel, e domain.EventType) string { return string(c) + "/" + string(e) }

func (m *memTemplates) Upsert(_ context.Context, t *domain.Template) error {
	cp := *t
	m.rows[key(t.Channel, t.EventType)] = &cp
	return nil
}

func (m *memTemplates) Get(_ context.Context, c domain.Channel, e domain.EventType) (*domain.Template, error) {
	if t, ok := m.rows[key(c, e)]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, apperr.NotFound("template", key(c, e))
}

func (m *memTemplates) List(_ context.Context, channel string) ([]*domain.Template, error) {
	var result []*domain.Template
	for _, t := range m.rows {
		if channel == "" || string(t.Channel) == channel {
			cp := *t
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (m *memTemplates) Delete(_ context.Context, c domain.Channel, e domain.EventType) error {
	delete(m.rows, key(c, e))
	return nil
}

func TestEngineResolveFallsBackToDefault(t *testing.T) {
	engine := NewEngine(newMemTemplates())

	tpl, err := engine.Resolve(context.Background(), domain.ChannelTelegram, domain.EventSEOChange)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if tpl == nil {
		t.Fatal("no template resolved for a pair with an embedded default")
	}
	if !tpl.Enabled {
		t.Error("default template should be enabled")
	}
	if tpl.TemplateBody != tpl.DefaultTemplateBody {
		t.Error("default resolution should carry the default body")
	}
}

func TestEngineUpdateRejectsUnknownVariable(t *testing.T) {
	engine := NewEngine(newMemTemplates())

	_, err := engine.Update(context.Background(), domain.ChannelTelegram, domain.EventSEOChange,
		"Title", "hello {{not.a.var}}", "ops@example.com")
	if apperr.AsAppError(err).Code != apperr.CodeValidationFailed {
		t.Fatalf("Update with unknown variable = %v, want validation error", err)
	}
}

func TestEngineUpdateOverridesAndInvalidates(t *testing.T) {
	repo := newMemTemplates()
	engine := NewEngine(repo)
	ctx := context.Background()

	// Prime the cache with the default.
	if _, err := engine.Resolve(ctx, domain.ChannelTelegram, domain.EventSEOChange); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	custom := "changed by {{actor.email}}"
	if _, err := engine.Update(ctx, domain.ChannelTelegram, domain.EventSEOChange, "T", custom, "ops@example.com"); err != nil {
		t.Fatalf("Update: %v", err)
	}

	tpl, err := engine.Resolve(ctx, domain.ChannelTelegram, domain.EventSEOChange)
	if err != nil {
		t.Fatalf("Resolve after update: %v", err)
	}
	if tpl.TemplateBody != custom {
		t.Errorf("resolved body = %q, want the override", tpl.TemplateBody)
	}
}

func TestEngineDisabledRendersNil(t *testing.T) {
	engine := NewEngine(newMemTemplates())
	ctx := context.Background()

	if err := engine.SetEnabled(ctx, domain.ChannelTelegram, domain.EventSEOChange, false, "ops@example.com"); err != nil {
		t.Fatalf("SetEnabled: %v", err)
	}
	rendered, err := engine.RenderEvent(ctx, domain.ChannelTelegram, domain.EventSEOChange, Context{})
	if err != nil {
		t.Fatalf("RenderEvent: %v", err)
	}
	if rendered != nil {
		t.Error("disabled template should render to nil")
	}
}

func TestEngineResetRestoresDefault(t *testing.T) {
	engine := NewEngine(newMemTemplates())
	ctx := context.Background()

	if _, err := engine.Update(ctx, domain.ChannelTelegram, domain.EventSEOChange, "T", "custom {{actor.email}}", "ops@example.com"); err != nil {
		t.Fatalf("Update: %v", err)
	}
	tpl, err := engine.Reset(ctx, domain.ChannelTelegram, domain.EventSEOChange, "ops@example.com")
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if tpl.TemplateBody != tpl.DefaultTemplateBody {
		t.Error("reset should restore the default body")
	}

	resolved, err := engine.Resolve(ctx, domain.ChannelTelegram, domain.EventSEOChange)
	if err != nil {
		t.Fatalf("Resolve after reset: %v", err)
	}
	if resolved.TemplateBody != tpl.DefaultTemplateBody {
		t.Error("resolution after reset should serve the default body")
	}
}
