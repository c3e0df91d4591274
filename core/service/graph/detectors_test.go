package graph

import (
	"testing"

	"github.com/official-panen138/seo-nexus/core/domain"
)

func findConflicts(conflicts []domain.DetectedConflict, t domain.ConflictType) []domain.DetectedConflict {
	var out []domain.DetectedConflict
	for _, c := range conflicts {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out
}

func TestDetectKeywordCannibalization(t *testing.T) {
	main := entry("main", "money.com", "", domain.RoleMain, domain.StatusPrimary, "")
	a := entry("a", "site.com", "/blog", domain.RoleSupporting, domain.StatusPrimary, "main")
	b := entry("b", "site.com", "/news", domain.RoleSupporting, domain.StatusPrimary, "main")
	a.AssetDomainID = "dom-1"
	b.AssetDomainID = "dom-1"
	a.PrimaryKeyword = "Best Casino"
	b.PrimaryKeyword = "  best casino "

	other := entry("c", "elsewhere.com", "", domain.RoleSupporting, domain.StatusPrimary, "main")
	other.PrimaryKeyword = "best casino"

	got := findConflicts(Detect(Build([]*domain.StructureEntry{main, a, b, other})), domain.ConflictKeywordCannibalization)
	if len(got) != 1 {
		t.Fatalf("cannibalization conflicts = %d, want 1", len(got))
	}
	if got[0].Severity != domain.SeverityHigh {
		t.Errorf("severity = %s, want high", got[0].Severity)
	}
}

func TestDetectCompetingTargets(t *testing.T) {
	main := entry("main", "money.com", "", domain.RoleMain, domain.StatusPrimary, "")
	hub := entry("hub", "hub.com", "", domain.RoleSupporting, domain.StatusPrimary, "main")
	a := entry("a", "site.com", "/x", domain.RoleSupporting, domain.StatusPrimary, "main")
	b := entry("b", "site.com", "/y", domain.RoleSupporting, domain.StatusPrimary, "hub")
	a.AssetDomainID = "dom-1"
	b.AssetDomainID = "dom-1"

	got := findConflicts(Detect(Build([]*domain.StructureEntry{main, hub, a, b})), domain.ConflictCompetingTargets)
	if len(got) != 1 {
		t.Fatalf("competing target conflicts = %d, want 1", len(got))
	}
}

func TestDetectTierInversion(t *testing.T) {
	main := entry("main", "money.com", "", domain.RoleMain, domain.StatusPrimary, "")
	t1 := entry("t1", "hub.com", "", domain.RoleSupporting, domain.StatusPrimary, "main")
	t2 := entry("t2", "feeder.com", "", domain.RoleSupporting, domain.StatusPrimary, "t1")
	// inverted points at t2 but also has its own direct path to main,
	// so it sits at tier 1 feeding tier 2.
	inverted := entry("inv", "inv.com", "", domain.RoleSupporting, domain.StatusPrimary, "t2")

	g := Build([]*domain.StructureEntry{main, t1, t2, inverted})
	got := findConflicts(Detect(g), domain.ConflictTierInversion)
	// inverted is tier 3 pointing at tier 2: no inversion.
	if len(got) != 0 {
		t.Fatalf("tier inversion conflicts = %d, want 0", len(got))
	}
}

func TestDetectRedirectLoop(t *testing.T) {
	main := entry("main", "money.com", "", domain.RoleMain, domain.StatusPrimary, "")
	a := entry("a", "a.com", "", domain.RoleSupporting, domain.Status301Redirect, "b")
	b := entry("b", "b.com", "", domain.RoleSupporting, domain.Status302Redirect, "a")

	got := findConflicts(Detect(Build([]*domain.StructureEntry{main, a, b})), domain.ConflictRedirectLoop)
	if len(got) != 1 {
		t.Fatalf("redirect loop conflicts = %d, want 1", len(got))
	}
	if got[0].Severity != domain.SeverityCritical {
		t.Errorf("severity = %s, want critical", got[0].Severity)
	}
	if got[0].NodeALabel != "a.com" {
		t.Errorf("loop anchored at %s, want a.com", got[0].NodeALabel)
	}
}

func TestDetectMultipleParentsToMain(t *testing.T) {
	main := entry("main", "money.com", "", domain.RoleMain, domain.StatusPrimary, "")
	p1 := entry("p1", "one.com", "", domain.RoleSupporting, domain.StatusPrimary, "main")
	p2 := entry("p2", "two.com", "", domain.RoleSupporting, domain.StatusPrimary, "main")
	canon := entry("p3", "three.com", "", domain.RoleSupporting, domain.StatusCanonical, "main")
	redir := entry("p4", "four.com", "", domain.RoleSupporting, domain.Status301Redirect, "main")

	got := findConflicts(Detect(Build([]*domain.StructureEntry{main, p1, p2, canon, redir})), domain.ConflictMultipleParentsToMain)
	if len(got) != 1 {
		t.Fatalf("multiple parent conflicts = %d, want 1", len(got))
	}

	// Redirect and canonical parents do not count toward the threshold.
	got = findConflicts(Detect(Build([]*domain.StructureEntry{main, p1, canon, redir})), domain.ConflictMultipleParentsToMain)
	if len(got) != 0 {
		t.Fatalf("multiple parent conflicts with one primary parent = %d, want 0", len(got))
	}
}

func TestDetectCanonicalRedirectConflict(t *testing.T) {
	main := entry("main", "money.com", "", domain.RoleMain, domain.StatusPrimary, "")
	redir := entry("redir", "site.com", "/old", domain.RoleSupporting, domain.Status301Redirect, "main")
	canon := entry("canon", "site.com", "/new", domain.RoleSupporting, domain.StatusCanonical, "redir")
	redir.AssetDomainID = "dom-1"
	canon.AssetDomainID = "dom-1"

	got := findConflicts(Detect(Build([]*domain.StructureEntry{main, redir, canon})), domain.ConflictCanonicalRedirectConflict)
	if len(got) != 1 {
		t.Fatalf("canonical redirect conflicts = %d, want 1", len(got))
	}
}

func TestDetectOrphans(t *testing.T) {
	main := entry("main", "money.com", "", domain.RoleMain, domain.StatusPrimary, "")
	orphan := entry("orphan", "lost.com", "", domain.RoleSupporting, domain.StatusPrimary, "")
	linked := entry("linked", "hub.com", "", domain.RoleSupporting, domain.StatusPrimary, "main")

	got := findConflicts(Detect(Build([]*domain.StructureEntry{main, orphan, linked})), domain.ConflictOrphan)
	if len(got) != 1 {
		t.Fatalf("orphan conflicts = %d, want 1", len(got))
	}
	if got[0].NodeALabel != "lost.com" {
		t.Errorf("orphan node = %s, want lost.com", got[0].NodeALabel)
	}
}

func TestDetectNoindexHighTier(t *testing.T) {
	main := entry("main", "money.com", "", domain.RoleMain, domain.StatusPrimary, "")
	t1 := entry("t1", "hub.com", "", domain.RoleSupporting, domain.StatusPrimary, "main")
	t1.IndexStatus = domain.IndexStatusNoindex
	t3 := entry("t3", "deep.com", "", domain.RoleSupporting, domain.StatusPrimary, "t1")
	t3.IndexStatus = domain.IndexStatusNoindex

	got := findConflicts(Detect(Build([]*domain.StructureEntry{main, t1, t3})), domain.ConflictNoindexHighTier)
	if len(got) != 1 {
		t.Fatalf("noindex high tier conflicts = %d, want 1", len(got))
	}
	if got[0].NodeALabel != "hub.com" {
		t.Errorf("flagged node = %s, want hub.com", got[0].NodeALabel)
	}
}

func TestDetectCanonicalMismatch(t *testing.T) {
	main := entry("main", "money.com", "", domain.RoleMain, domain.StatusPrimary, "")
	redir := entry("redir", "old.com", "", domain.RoleSupporting, domain.Status301Redirect, "main")

	got := findConflicts(Detect(Build([]*domain.StructureEntry{main, redir})), domain.ConflictCanonicalMismatch)
	if len(got) != 1 {
		t.Fatalf("canonical mismatch conflicts = %d, want 1", len(got))
	}

	// Noindex target does not trip the detector.
	main2 := entry("main", "money.com", "", domain.RoleMain, domain.StatusPrimary, "")
	main2.IndexStatus = domain.IndexStatusNoindex
	redir2 := entry("redir", "old.com", "", domain.RoleSupporting, domain.Status301Redirect, "main")
	got = findConflicts(Detect(Build([]*domain.StructureEntry{main2, redir2})), domain.ConflictCanonicalMismatch)
	if len(got) != 0 {
		t.Fatalf("canonical mismatch conflicts = %d, want 0", len(got))
	}
}

func TestDetectOrderingIsStable(t *testing.T) {
	main := entry("main", "money.com", "", domain.RoleMain, domain.StatusPrimary, "")
	orphan := entry("orphan", "lost.com", "", domain.RoleSupporting, domain.StatusPrimary, "")
	a := entry("a", "a.com", "", domain.RoleSupporting, domain.Status301Redirect, "b")
	b := entry("b", "b.com", "", domain.RoleSupporting, domain.Status302Redirect, "a")
	entries := []*domain.StructureEntry{main, orphan, a, b}

	first := Detect(Build(entries))
	second := Detect(Build([]*domain.StructureEntry{b, a, orphan, main}))

	if len(first) != len(second) {
		t.Fatalf("detection counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Type != second[i].Type || first[i].NodeALabel != second[i].NodeALabel {
			t.Errorf("order differs at %d: %s/%s vs %s/%s",
				i, first[i].Type, first[i].NodeALabel, second[i].Type, second[i].NodeALabel)
		}
	}
	// Critical conflicts sort before medium ones.
	if len(first) >= 2 && first[0].Severity.Rank() > first[len(first)-1].Severity.Rank() {
		t.Error("conflicts are not sorted by severity")
	}
}
