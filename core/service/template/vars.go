package template

import (
	"regexp"
	"sort"
)

// varPattern matches {{ a.b.c }} placeholders. The grammar is
// intentionally tiny: dotted lowercase identifiers only, no filters,
// loops or conditionals.
var varPattern = regexp.MustCompile(`\{\{\s*([a-z][a-z0-9_]*(?:\.[a-z][a-z0-9_]*)*)\s*\}\}`)

// allowedVariables is the full substitution contract. Templates that
// reference anything outside this set are rejected on save. Complex
// formatting (joined lists, labeled enums, localized timestamps) is
// done in the context builders, so every variable is a plain string.
var allowedVariables = []string{
	// Actor
	"actor.email",
	"actor.name",
	"actor.user_id",

	// Brand and network
	"brand.id",
	"brand.name",
	"network.id",
	"network.name",
	"network.node_count",
	"network.manager_mentions",

	// Node under change
	"node.label",
	"node.domain_name",
	"node.path",
	"node.role",
	"node.status",
	"node.index_status",
	"node.tier",
	"node.tier_label",
	"node.target_label",
	"node.keyword",
	"node.ranking_position",
	"node.notes",

	// Change details
	"change.action",
	"change.action_label",
	"change.reason",
	"change.before",
	"change.after",
	"change.details",
	"change.timestamp",

	// Impact summary
	"impact.severity",
	"impact.reaches_money_site",
	"impact.downstream_count",
	"impact.networks_affected",
	"impact.highest_tier",
	"impact.upstream_chain",

	// Structure snapshot
	"structure.snapshot",
	"structure.tier_summary",

	// Conflict
	"conflict.type",
	"conflict.severity",
	"conflict.node_a",
	"conflict.node_b",
	"conflict.description",
	"conflict.suggestion",
	"conflict.recurrence_count",
	"conflict.first_detected_at",

	// Optimization
	"optimization.id",
	"optimization.title",
	"optimization.description",
	"optimization.reason",
	"optimization.status",
	"optimization.status_label",
	"optimization.priority",
	"optimization.scope",
	"optimization.keywords",
	"optimization.target_domains",
	"optimization.created_by",
	"optimization.days_in_progress",

	// Complaint
	"complaint.reason",
	"complaint.priority",
	"complaint.status",
	"complaint.responsible",
	"complaint.resolution_note",

	// Domain monitoring
	"domain.name",
	"domain.brand_name",
	"domain.ping_status",
	"domain.http_code",
	"domain.down_reason",
	"domain.soft_block_type",
	"domain.checked_at",

	// Expiration
	"expiration.date",
	"expiration.days_remaining",
	"expiration.severity",
	"expiration.auto_renew",

	// Reminder
	"reminder.interval_days",
	"reminder.manager_mentions",

	// Digest
	"digest.period",
	"digest.expiring_critical",
	"digest.expiring_high",
	"digest.expiring_medium",
	"digest.down_domains",
	"digest.soft_blocked_domains",

	// System
	"system.timestamp",
	"system.timezone",
	"system.environment",
}

var allowedSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(allowedVariables))
	for _, v := range allowedVariables {
		set[v] = struct{}{}
	}
	return set
}()

// AllowedVariables returns the substitution contract, sorted.
func AllowedVariables() []string {
	vars := make([]string, len(allowedVariables))
	copy(vars, allowedVariables)
	sort.Strings(vars)
	return vars
}

// ExtractVariables returns every placeholder referenced in a body.
func ExtractVariables(body string) []string {
	matches := varPattern.FindAllStringSubmatch(body, -1)
	seen := make(map[string]struct{}, len(matches))
	var vars []string
	for _, m := range matches {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		vars = append(vars, m[1])
	}
	return vars
}

// ValidateBody returns the referenced variables that are outside the
// allow-list. An empty result means the body is valid.
func ValidateBody(body string) []string {
	var unknown []string
	for _, v := range ExtractVariables(body) {
		if _, ok := allowedSet[v]; !ok {
			unknown = append(unknown, v)
		}
	}
	sort.Strings(unknown)
	return unknown
}
