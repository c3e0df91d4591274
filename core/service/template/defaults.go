package template

import "github.com/official-panen138/seo-nexus/core/domain"

type defaultTemplate struct {
	Title string
	Body  string
}

// defaultTemplates are the embedded fallbacks used when no stored
// override exists for a (channel, event) pair. Telegram bodies are
// plain text; email bodies are simple HTML fragments.
var defaultTemplates = map[domain.Channel]map[domain.EventType]defaultTemplate{
	domain.ChannelTelegram: {
		domain.EventSEOChange: {
			Title: "SEO Structure Change",
			Body: "🔧 SEO STRUCTURE CHANGE\n" +
				"Network: {{network.name}} ({{brand.name}})\n" +
				"Action: {{change.action_label}}\n" +
				"Node: {{node.label}} [{{node.tier_label}}]\n" +
				"By: {{actor.email}}\n" +
				"Reason: {{change.reason}}\n" +
				"Details: {{change.details}}\n" +
				"Impact: {{impact.severity}} | downstream {{impact.downstream_count}}\n" +
				"Chain: {{impact.upstream_chain}}\n" +
				"Time: {{change.timestamp}} {{system.timezone}}",
		},
		domain.EventNetworkCreated: {
			Title: "SEO Network Created",
			Body: "🆕 SEO NETWORK CREATED\n" +
				"Network: {{network.name}} ({{brand.name}})\n" +
				"Main node: {{node.label}}\n" +
				"By: {{actor.email}}\n" +
				"Reason: {{change.reason}}\n" +
				"Time: {{change.timestamp}} {{system.timezone}}",
		},
		domain.EventNodeDeleted: {
			Title: "SEO Node Deleted",
			Body: "🗑 SEO NODE DELETED\n" +
				"Network: {{network.name}} ({{brand.name}})\n" +
				"Node: {{node.label}} [{{node.tier_label}}]\n" +
				"By: {{actor.email}}\n" +
				"Reason: {{change.reason}}\n" +
				"Impact: {{impact.severity}} | downstream {{impact.downstream_count}}\n" +
				"Structure:\n{{structure.snapshot}}",
		},
		domain.EventOptimizationCreate: {
			Title: "Optimization Created",
			Body: "📈 NEW OPTIMIZATION\n" +
				"Network: {{network.name}} ({{brand.name}})\n" +
				"Title: {{optimization.title}}\n" +
				"Scope: {{optimization.scope}} | Priority: {{optimization.priority}}\n" +
				"Targets: {{optimization.target_domains}}\n" +
				"Keywords: {{optimization.keywords}}\n" +
				"Reason: {{optimization.reason}}\n" +
				"By: {{optimization.created_by}}",
		},
		domain.EventOptimizationStatus: {
			Title: "Optimization Status Changed",
			Body: "🔄 OPTIMIZATION STATUS\n" +
				"Network: {{network.name}}\n" +
				"Title: {{optimization.title}}\n" +
				"Status: {{optimization.status_label}}\n" +
				"By: {{actor.email}}\n" +
				"Note: {{change.reason}}",
		},
		domain.EventComplaint: {
			Title: "Complaint Raised",
			Body: "⚠️ COMPLAINT\n" +
				"Network: {{network.name}}\n" +
				"Optimization: {{optimization.title}}\n" +
				"Priority: {{complaint.priority}}\n" +
				"Reason: {{complaint.reason}}\n" +
				"Responsible: {{complaint.responsible}}",
		},
		domain.EventConflictDetected: {
			Title: "SEO Conflict Detected",
			Body: "🚨 SEO CONFLICT [{{conflict.severity}}]\n" +
				"Network: {{network.name}}\n" +
				"Type: {{conflict.type}}\n" +
				"Node A: {{conflict.node_a}}\n" +
				"Node B: {{conflict.node_b}}\n" +
				"Problem: {{conflict.description}}\n" +
				"Suggestion: {{conflict.suggestion}}\n" +
				"Task: {{optimization.title}}",
		},
		domain.EventConflictRecurred: {
			Title: "SEO Conflict Recurred",
			Body: "🔁 CONFLICT RECURRENCE #{{conflict.recurrence_count}} [{{conflict.severity}}]\n" +
				"Network: {{network.name}}\n" +
				"Type: {{conflict.type}}\n" +
				"Node A: {{conflict.node_a}}\n" +
				"First seen: {{conflict.first_detected_at}}\n" +
				"Problem: {{conflict.description}}\n" +
				"Task: {{optimization.title}}",
		},
		domain.EventConflictResolved: {
			Title: "SEO Conflict Resolved",
			Body: "✅ CONFLICT RESOLVED\n" +
				"Network: {{network.name}}\n" +
				"Type: {{conflict.type}}\n" +
				"Node A: {{conflict.node_a}}\n" +
				"Resolved via: {{optimization.title}}\n" +
				"By: {{actor.email}}",
		},
		domain.EventOptReminder: {
			Title: "Optimization Reminder",
			Body: "⏰ OPTIMIZATION REMINDER\n" +
				"Network: {{network.name}}\n" +
				"Title: {{optimization.title}}\n" +
				"In progress for {{optimization.days_in_progress}} days\n" +
				"Managers: {{reminder.manager_mentions}}",
		},
		domain.EventMonitoringReminder: {
			Title: "Monitoring Not Enabled",
			Body: "📡 MONITORING NOT ENABLED\n" +
				"Domain: {{domain.name}} ({{domain.brand_name}})\n" +
				"Used in SEO structure but not monitored.\n" +
				"Impact: {{impact.severity}} | networks {{impact.networks_affected}}\n" +
				"Chain: {{impact.upstream_chain}}",
		},
		domain.EventDomainExpiration: {
			Title: "Domain Expiration",
			Body: "⏳ DOMAIN EXPIRATION [{{expiration.severity}}]\n" +
				"Domain: {{domain.name}} ({{domain.brand_name}})\n" +
				"Expires: {{expiration.date}} ({{expiration.days_remaining}} days)\n" +
				"Auto-renew: {{expiration.auto_renew}}\n" +
				"SEO impact: {{impact.severity}} | reaches money site: {{impact.reaches_money_site}}\n" +
				"Chain: {{impact.upstream_chain}}",
		},
		domain.EventDomainDown: {
			Title: "Domain Down",
			Body: "🔴 DOMAIN DOWN [{{impact.severity}}]\n" +
				"Domain: {{domain.name}} ({{domain.brand_name}})\n" +
				"HTTP: {{domain.http_code}} | Reason: {{domain.down_reason}}\n" +
				"Checked: {{domain.checked_at}} {{system.timezone}}\n" +
				"SEO impact: downstream {{impact.downstream_count}}, networks {{impact.networks_affected}}\n" +
				"Chain: {{impact.upstream_chain}}",
		},
		domain.EventDomainRecovered: {
			Title: "Domain Recovered",
			Body: "🟢 DOMAIN RECOVERED\n" +
				"Domain: {{domain.name}} ({{domain.brand_name}})\n" +
				"HTTP: {{domain.http_code}}\n" +
				"Checked: {{domain.checked_at}} {{system.timezone}}",
		},
		domain.EventDomainSoftBlocked: {
			Title: "Domain Soft-Blocked",
			Body: "🟡 DOMAIN SOFT-BLOCKED [WARNING]\n" +
				"Domain: {{domain.name}} ({{domain.brand_name}})\n" +
				"Type: {{domain.soft_block_type}} | HTTP: {{domain.http_code}}\n" +
				"Checked: {{domain.checked_at}} {{system.timezone}}",
		},
		domain.EventTest: {
			Title: "Test Notification",
			Body: "🧪 TEST NOTIFICATION\n" +
				"Sent by {{actor.email}} at {{system.timestamp}} {{system.timezone}}.\n" +
				"If you can read this, the channel works.",
		},
	},
	domain.ChannelEmail: {
		domain.EventDomainExpiration: {
			Title: "Domain expiration: {{domain.name}}",
			Body: "<h2>Domain Expiration [{{expiration.severity}}]</h2>" +
				"<p><b>{{domain.name}}</b> ({{domain.brand_name}}) expires on " +
				"<b>{{expiration.date}}</b> ({{expiration.days_remaining}} days remaining).</p>" +
				"<p>Auto-renew: {{expiration.auto_renew}}</p>" +
				"<p>SEO impact: {{impact.severity}} | reaches money site: {{impact.reaches_money_site}}</p>" +
				"<pre>{{impact.upstream_chain}}</pre>",
		},
		domain.EventDomainDown: {
			Title: "Domain down: {{domain.name}}",
			Body: "<h2>Domain Down [{{impact.severity}}]</h2>" +
				"<p><b>{{domain.name}}</b> ({{domain.brand_name}}) is unreachable.</p>" +
				"<p>HTTP {{domain.http_code}}: {{domain.down_reason}}</p>" +
				"<p>Checked at {{domain.checked_at}} {{system.timezone}}</p>" +
				"<p>Downstream nodes affected: {{impact.downstream_count}}</p>",
		},
		domain.EventWeeklyDigest: {
			Title: "Weekly domain digest {{digest.period}}",
			Body: "<h2>Weekly Domain Digest</h2>" +
				"<p>Period: {{digest.period}}</p>" +
				"<h3>Expiring ≤ 7 days (critical)</h3><pre>{{digest.expiring_critical}}</pre>" +
				"<h3>Expiring 8–14 days</h3><pre>{{digest.expiring_high}}</pre>" +
				"<h3>Expiring 15–30 days</h3><pre>{{digest.expiring_medium}}</pre>" +
				"<h3>Currently down</h3><pre>{{digest.down_domains}}</pre>" +
				"<h3>Soft-blocked</h3><pre>{{digest.soft_blocked_domains}}</pre>",
		},
		domain.EventTest: {
			Title: "Test notification",
			Body: "<p>Test notification sent by {{actor.email}} at " +
				"{{system.timestamp}} {{system.timezone}}.</p>",
		},
	},
}

// DefaultFor returns the embedded default for a pair; ok is false when
// the pair has no default (renders are skipped).
func DefaultFor(channel domain.Channel, event domain.EventType) (defaultTemplate, bool) {
	byEvent, ok := defaultTemplates[channel]
	if !ok {
		return defaultTemplate{}, false
	}
	tpl, ok := byEvent[event]
	return tpl, ok
}
