package graph

import (
	"testing"

	"github.com/official-panen138/seo-nexus/core/domain"
)

func entry(id, name, path string, role domain.DomainRole, status domain.EntryStatus, target string) *domain.StructureEntry {
	return &domain.StructureEntry{
		ID:            id,
		NetworkID:     "net-1",
		AssetDomainID: "dom-" + name,
		DomainName:    name,
		OptimizedPath: path,
		Role:          role,
		Status:        status,
		IndexStatus:   domain.IndexStatusIndex,
		TargetEntryID: target,
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   ", ""},
		{"/", ""},
		{"blog", "/blog"},
		{"/blog", "/blog"},
		{"/blog/", "/blog"},
		{"/blog///", "/blog"},
		{"  /deals  ", "/deals"},
		{"a/b/", "/a/b"},
	}
	for _, tt := range tests {
		if got := domain.NormalizePath(tt.in); got != tt.want {
			t.Errorf("NormalizePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestComputeTiers(t *testing.T) {
	main := entry("main", "money.com", "", domain.RoleMain, domain.StatusPrimary, "")
	t1 := entry("t1", "hub.com", "", domain.RoleSupporting, domain.StatusPrimary, "main")
	t2 := entry("t2", "feeder.com", "", domain.RoleSupporting, domain.Status301Redirect, "t1")
	t3 := entry("t3", "deep.com", "", domain.RoleSupporting, domain.StatusCanonical, "t2")
	orphan := entry("orphan", "lost.com", "", domain.RoleSupporting, domain.StatusPrimary, "")
	dangling := entry("dangling", "dangle.com", "", domain.RoleSupporting, domain.StatusPrimary, "gone")

	g := Build([]*domain.StructureEntry{main, t1, t2, t3, orphan, dangling})

	tests := []struct {
		id   string
		want int
	}{
		{"main", 0},
		{"t1", 1},
		{"t2", 2},
		{"t3", 3},
		{"orphan", domain.TierOrphan},
		{"dangling", domain.TierOrphan},
	}
	for _, tt := range tests {
		if got := g.Tier(tt.id); got != tt.want {
			t.Errorf("Tier(%s) = %d, want %d", tt.id, got, tt.want)
		}
	}
}

func TestComputeTiersCycle(t *testing.T) {
	a := entry("a", "a.com", "", domain.RoleSupporting, domain.Status301Redirect, "b")
	b := entry("b", "b.com", "", domain.RoleSupporting, domain.Status301Redirect, "a")
	hanger := entry("c", "c.com", "", domain.RoleSupporting, domain.StatusPrimary, "a")

	g := Build([]*domain.StructureEntry{a, b, hanger})

	for _, id := range []string{"a", "b", "c"} {
		if got := g.Tier(id); got != domain.TierOrphan {
			t.Errorf("Tier(%s) = %d, want orphan (%d)", id, got, domain.TierOrphan)
		}
	}
}

func TestChainToMain(t *testing.T) {
	main := entry("main", "money.com", "", domain.RoleMain, domain.StatusPrimary, "")
	t1 := entry("t1", "hub.com", "", domain.RoleSupporting, domain.StatusPrimary, "main")
	t2 := entry("t2", "feeder.com", "/blog", domain.RoleSupporting, domain.Status301Redirect, "t1")
	g := Build([]*domain.StructureEntry{main, t1, t2})

	chain := g.ChainToMain("t2")
	if len(chain) != 3 {
		t.Fatalf("chain length = %d, want 3", len(chain))
	}
	if chain[0].NodeLabel != "feeder.com/blog" {
		t.Errorf("hop 0 label = %q", chain[0].NodeLabel)
	}
	last := chain[len(chain)-1]
	if !last.IsEnd || last.EndReason != EndMoneySite {
		t.Errorf("chain end = %+v, want money site end", last)
	}
}

func TestChainToMainCircular(t *testing.T) {
	a := entry("a", "a.com", "", domain.RoleSupporting, domain.Status301Redirect, "b")
	b := entry("b", "b.com", "", domain.RoleSupporting, domain.Status301Redirect, "a")
	g := Build([]*domain.StructureEntry{a, b})

	chain := g.ChainToMain("a")
	last := chain[len(chain)-1]
	if !last.IsEnd || last.EndReason != EndCircular {
		t.Errorf("chain end = %+v, want circular end", last)
	}
}

func TestDownstream(t *testing.T) {
	main := entry("main", "money.com", "", domain.RoleMain, domain.StatusPrimary, "")
	t1 := entry("t1", "hub.com", "", domain.RoleSupporting, domain.StatusPrimary, "main")
	t2a := entry("t2a", "alpha.com", "", domain.RoleSupporting, domain.StatusPrimary, "t1")
	t2b := entry("t2b", "beta.com", "", domain.RoleSupporting, domain.StatusPrimary, "t1")
	side := entry("side", "side.com", "", domain.RoleSupporting, domain.StatusPrimary, "main")
	g := Build([]*domain.StructureEntry{main, t1, t2a, t2b, side})

	down := g.Downstream("t1")
	if len(down) != 2 {
		t.Fatalf("downstream of t1 = %d entries, want 2", len(down))
	}
	if down[0].ID != "t2a" || down[1].ID != "t2b" {
		t.Errorf("downstream order = %s, %s", down[0].ID, down[1].ID)
	}

	if got := len(g.Downstream("main")); got != 4 {
		t.Errorf("downstream of main = %d entries, want 4", got)
	}
}

func TestFormatChain(t *testing.T) {
	main := entry("main", "money.com", "", domain.RoleMain, domain.StatusPrimary, "")
	blog := entry("blog", "support.com", "/blog", domain.RoleSupporting, domain.StatusCanonical, "main")
	g := Build([]*domain.StructureEntry{main, blog})

	got := FormatChain(g.ChainToMain("blog"))
	want := "support.com/blog [Canonical] → money.com [Primary]"
	if got != want {
		t.Errorf("chain = %q, want %q", got, want)
	}

	// The main node's own chain is a single hop with its status label.
	if got := FormatChain(g.ChainToMain("main")); got != "money.com [Primary]" {
		t.Errorf("main chain = %q", got)
	}

	lost := entry("lost", "lost.com", "", domain.RoleSupporting, domain.StatusPrimary, "gone")
	g = Build([]*domain.StructureEntry{main, lost})
	if got := FormatChain(g.ChainToMain("lost")); got != "lost.com [ORPHAN NODE]" {
		t.Errorf("orphan chain = %q", got)
	}

	a := entry("a", "a.com", "", domain.RoleSupporting, domain.Status301Redirect, "b")
	b := entry("b", "b.com", "", domain.RoleSupporting, domain.Status301Redirect, "a")
	g = Build([]*domain.StructureEntry{main, a, b})
	want = "a.com [301 Redirect] → b.com [301 Redirect] → a.com [CIRCULAR REFERENCE]"
	if got := FormatChain(g.ChainToMain("a")); got != want {
		t.Errorf("circular chain = %q, want %q", got, want)
	}
}
