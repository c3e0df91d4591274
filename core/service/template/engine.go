package template

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/official-panen138/seo-nexus/core/domain"
	"github.com/official-panen138/seo-nexus/core/port/out"
	"github.com/official-panen138/seo-nexus/pkg/apperr"
)

// Engine resolves, validates and renders notification templates. Reads
// go through an in-memory cache; any write invalidates the pair's
// cache slot before returning.
type Engine struct {
	repo out.TemplateRepository

	mu    sync.RWMutex
	cache map[cacheKey]*domain.Template
}

type cacheKey struct {
	channel domain.Channel
	event   domain.EventType
}

// NewEngine creates a template engine backed by the repository.
func NewEngine(repo out.TemplateRepository) *Engine {
	return &Engine{
		repo:  repo,
		cache: make(map[cacheKey]*domain.Template),
	}
}

// Resolve returns the effective template for a pair: the stored
// override when one exists, else the embedded default. A nil template
// with nil error means the pair has no default and no override.
func (e *Engine) Resolve(ctx context.Context, channel domain.Channel, event domain.EventType) (*domain.Template, error) {
	key := cacheKey{channel, event}

	e.mu.RLock()
	cached, ok := e.cache[key]
	e.mu.RUnlock()
	if ok {
		return cached, nil
	}

	stored, err := e.repo.Get(ctx, channel, event)
	if err != nil && !apperr.IsAppError(err) {
		return nil, err
	}
	if stored == nil {
		def, ok := DefaultFor(channel, event)
		if !ok {
			return nil, nil
		}
		stored = &domain.Template{
			Channel:             channel,
			EventType:           event,
			Title:               def.Title,
			TemplateBody:        def.Body,
			DefaultTemplateBody: def.Body,
			Enabled:             true,
		}
	}

	e.mu.Lock()
	e.cache[key] = stored
	e.mu.Unlock()
	return stored, nil
}

// Rendered is the output of RenderEvent.
type Rendered struct {
	Title string
	Body  string
}

// RenderEvent renders the effective template for a pair against the
// context. Returns nil when the pair is disabled or has no template;
// the notifier then skips the send.
func (e *Engine) RenderEvent(ctx context.Context, channel domain.Channel, event domain.EventType, vars Context) (*Rendered, error) {
	tpl, err := e.Resolve(ctx, channel, event)
	if err != nil {
		return nil, err
	}
	if tpl == nil || !tpl.Enabled {
		return nil, nil
	}
	return &Rendered{
		Title: Render(tpl.Title, vars),
		Body:  Render(tpl.TemplateBody, vars),
	}, nil
}

// Update validates and stores a template override, then invalidates
// the cache slot.
func (e *Engine) Update(ctx context.Context, channel domain.Channel, event domain.EventType, title, body, updatedBy string) (*domain.Template, error) {
	if !domain.IsValidChannel(string(channel)) {
		return nil, apperr.InvalidInput("channel", "must be telegram or email")
	}
	if strings.TrimSpace(body) == "" {
		return nil, apperr.MissingField("template_body")
	}
	if unknown := ValidateBody(body); len(unknown) > 0 {
		return nil, apperr.ValidationFailed("template references unknown variables: " + strings.Join(unknown, ", "))
	}
	if unknown := ValidateBody(title); len(unknown) > 0 {
		return nil, apperr.ValidationFailed("title references unknown variables: " + strings.Join(unknown, ", "))
	}

	def, _ := DefaultFor(channel, event)
	existing, err := e.repo.Get(ctx, channel, event)
	if err != nil && !apperr.IsAppError(err) {
		return nil, err
	}

	tpl := &domain.Template{
		Channel:             channel,
		EventType:           event,
		Title:               title,
		TemplateBody:        body,
		DefaultTemplateBody: def.Body,
		Enabled:             true,
		UpdatedBy:           updatedBy,
	}
	if existing != nil {
		tpl.ID = existing.ID
		tpl.Enabled = existing.Enabled
		tpl.CreatedAt = existing.CreatedAt
	}
	if err := e.repo.Upsert(ctx, tpl); err != nil {
		return nil, err
	}
	e.invalidate(channel, event)
	return tpl, nil
}

// Reset restores the embedded default body for a pair.
func (e *Engine) Reset(ctx context.Context, channel domain.Channel, event domain.EventType, updatedBy string) (*domain.Template, error) {
	def, ok := DefaultFor(channel, event)
	if !ok {
		return nil, apperr.NotFound("template", string(channel)+"/"+string(event))
	}
	tpl := &domain.Template{
		Channel:             channel,
		EventType:           event,
		Title:               def.Title,
		TemplateBody:        def.Body,
		DefaultTemplateBody: def.Body,
		Enabled:             true,
		UpdatedBy:           updatedBy,
	}
	if err := e.repo.Upsert(ctx, tpl); err != nil {
		return nil, err
	}
	e.invalidate(channel, event)
	return tpl, nil
}

// SetEnabled toggles rendering for a pair. Disabled pairs render to
// nil and the notifier skips the send.
func (e *Engine) SetEnabled(ctx context.Context, channel domain.Channel, event domain.EventType, enabled bool, updatedBy string) error {
	tpl, err := e.Resolve(ctx, channel, event)
	if err != nil {
		return err
	}
	if tpl == nil {
		return apperr.NotFound("template", string(channel)+"/"+string(event))
	}
	tpl.Enabled = enabled
	tpl.UpdatedBy = updatedBy
	if err := e.repo.Upsert(ctx, tpl); err != nil {
		return err
	}
	e.invalidate(channel, event)
	return nil
}

// List returns the effective template set for a channel: stored
// overrides merged over the embedded defaults.
func (e *Engine) List(ctx context.Context, channel string) ([]*domain.Template, error) {
	stored, err := e.repo.List(ctx, channel)
	if err != nil {
		return nil, err
	}
	byKey := make(map[cacheKey]*domain.Template, len(stored))
	for _, t := range stored {
		byKey[cacheKey{t.Channel, t.EventType}] = t
	}

	var result []*domain.Template
	for ch, byEvent := range defaultTemplates {
		if channel != "" && string(ch) != channel {
			continue
		}
		for event, def := range byEvent {
			if t, ok := byKey[cacheKey{ch, event}]; ok {
				result = append(result, t)
				delete(byKey, cacheKey{ch, event})
				continue
			}
			result = append(result, &domain.Template{
				Channel:             ch,
				EventType:           event,
				Title:               def.Title,
				TemplateBody:        def.Body,
				DefaultTemplateBody: def.Body,
				Enabled:             true,
			})
		}
	}
	for _, t := range byKey {
		result = append(result, t)
	}
	return result, nil
}

// Preview renders a body against the fixed sample context so operators
// can verify output before saving. The body is validated first.
func (e *Engine) Preview(title, body string) (*Rendered, error) {
	if unknown := ValidateBody(body); len(unknown) > 0 {
		return nil, apperr.ValidationFailed("template references unknown variables: " + strings.Join(unknown, ", "))
	}
	return &Rendered{
		Title: Render(title, SampleContext()),
		Body:  Render(body, SampleContext()),
	}, nil
}

func (e *Engine) invalidate(channel domain.Channel, event domain.EventType) {
	e.mu.Lock()
	delete(e.cache, cacheKey{channel, event})
	e.mu.Unlock()
}

// SampleContext is the fixed context used by Preview.
func SampleContext() Context {
	return Context{
		"actor": map[string]any{
			"email":   "ops@example.com",
			"name":    "Ops User",
			"user_id": "u-1001",
		},
		"brand":   map[string]any{"id": "b-1", "name": "Acme"},
		"network": map[string]any{"id": "n-1", "name": "acme-main", "node_count": "12", "manager_mentions": "@lead"},
		"node": map[string]any{
			"label": "example.com/landing", "domain_name": "example.com", "path": "/landing",
			"role": "supporting", "status": "301_redirect", "index_status": "index",
			"tier": "2", "tier_label": "Tier 2", "target_label": "hub.example.com",
			"keyword": "best widgets", "ranking_position": "14", "notes": "-",
		},
		"change": map[string]any{
			"action": "update_node", "action_label": "Node Updated",
			"reason": "Consolidating redirect chain after audit",
			"before": "target=old.example.com", "after": "target=hub.example.com",
			"details": "target_entry_id changed", "timestamp": time.Now().UTC().Format("2006-01-02 15:04"),
		},
		"impact": map[string]any{
			"severity": "HIGH", "reaches_money_site": "true", "downstream_count": "4",
			"networks_affected": "1", "highest_tier": "1",
			"upstream_chain": "example.com/landing [301 Redirect] → hub.example.com [Canonical] → money.example.com [Primary]",
		},
		"structure": map[string]any{"snapshot": "LP/Money Site\n  money.example.com", "tier_summary": "T0:1 T1:3 T2:8"},
		"conflict": map[string]any{
			"type": "tier_inversion", "severity": "CRITICAL",
			"node_a": "example.com/landing", "node_b": "hub.example.com",
			"description": "supporting node targets a lower tier", "suggestion": "retarget to tier 1",
			"recurrence_count": "2", "first_detected_at": "2026-08-01",
		},
		"optimization": map[string]any{
			"id": "opt-1", "title": "[Conflict Resolution] Tier Inversion",
			"description": "fix tier inversion", "reason": "auto-created from detector",
			"status": "in_progress", "status_label": "In Progress", "priority": "high",
			"scope": "specific_domain", "keywords": "best widgets", "target_domains": "example.com",
			"created_by": "ops@example.com", "days_in_progress": "3",
		},
		"complaint": map[string]any{
			"reason": "ranking dropped after change", "priority": "high",
			"status": "open", "responsible": "@seo-team", "resolution_note": "-",
		},
		"domain": map[string]any{
			"name": "example.com", "brand_name": "Acme", "ping_status": "down",
			"http_code": "503", "down_reason": "Connection Timeout",
			"soft_block_type": "cloudflare_challenge", "checked_at": "2026-08-24 09:00",
		},
		"expiration": map[string]any{
			"date": "2026-09-23", "days_remaining": "30", "severity": "MEDIUM", "auto_renew": "false",
		},
		"reminder": map[string]any{"interval_days": "2", "manager_mentions": "@lead @seo-team"},
		"digest": map[string]any{
			"period": "2026-08-17 - 2026-08-24",
			"expiring_critical": "example.com (3d)", "expiring_high": "foo.com (10d)",
			"expiring_medium": "bar.com (21d)", "down_domains": "baz.com", "soft_blocked_domains": "-",
		},
		"system": map[string]any{
			"timestamp":   time.Now().UTC().Format("2006-01-02 15:04"),
			"timezone":    "GMT+7",
			"environment": "production",
		},
	}
}
