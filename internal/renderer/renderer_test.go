package renderer

import (
	"strings"
	"testing"

	"github.com/joinspace/joinspace/internal/classifier"
)

func rels(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

func TestRender_Singleton_NoPredicates(t *testing.T) {
	c := classifier.New()
	c.Finalize()
	r := New(map[string]string{"a": "accounts"}, c, func(x, y string) []JoinDetail { return nil })

	got := r.Render([]string{"a"})
	want := "SELECT COUNT(*) FROM accounts a;"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestRender_Singleton_WithSelection(t *testing.T) {
	c := classifier.New()
	c.Add("a.status = 'active'", rels("a"))
	c.Finalize()
	r := New(map[string]string{"a": "accounts"}, c, func(x, y string) []JoinDetail { return nil })

	got := r.Render([]string{"a"})
	want := "SELECT COUNT(*) FROM accounts a WHERE a.status = 'active';"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestRender_Join_PrefersAssertedOverDerived(t *testing.T) {
	c := classifier.New()
	c.Finalize()

	details := map[string][]JoinDetail{
		"a|b": {{Rel1: "a", Col1: "id", Rel2: "b", Col2: "a_id", Asserted: false}},
		"a|c": {{Rel1: "a", Col1: "id", Rel2: "c", Col2: "a_id", Asserted: true}},
	}
	r := New(nil, c, func(x, y string) []JoinDetail {
		lo, hi := x, y
		if hi < lo {
			lo, hi = hi, lo
		}
		return details[lo+"|"+hi]
	})

	got := r.Render([]string{"a", "b", "c"})
	if !strings.Contains(got, "JOIN c ON a.id = c.a_id") {
		t.Fatalf("expected the asserted edge to c to be attached before the derived edge to b, got:\n%s", got)
	}
}

func TestRender_Join_ResidualPredicateNotConsumedByOnClause(t *testing.T) {
	c := classifier.New()
	c.Add("a.id = b.a_id", rels("a", "b"))
	c.Add("b.id = c.b_id", rels("b", "c"))
	c.Finalize()

	details := map[string][]JoinDetail{
		"a|b": {{Rel1: "a", Col1: "id", Rel2: "b", Col2: "a_id", Asserted: true}},
		"b|c": {{Rel1: "b", Col1: "id", Rel2: "c", Col2: "b_id", Asserted: true}},
	}
	r := New(nil, c, func(x, y string) []JoinDetail {
		lo, hi := x, y
		if hi < lo {
			lo, hi = hi, lo
		}
		return details[lo+"|"+hi]
	})

	got := r.Render([]string{"a", "b", "c"})
	if strings.Contains(got, "WHERE") {
		t.Fatalf("expected both join predicates to be fully consumed by ON clauses, got:\n%s", got)
	}
}

func TestRender_Join_LeavesUnmatchedResidualInWhere(t *testing.T) {
	c := classifier.New()
	c.Add("a.region = b.region", rels("a", "b"))
	c.Finalize()

	details := map[string][]JoinDetail{
		"a|b": {{Rel1: "a", Col1: "id", Rel2: "b", Col2: "a_id", Asserted: true}},
	}
	r := New(nil, c, func(x, y string) []JoinDetail {
		lo, hi := x, y
		if hi < lo {
			lo, hi = hi, lo
		}
		return details[lo+"|"+hi]
	})

	got := r.Render([]string{"a", "b"})
	if !strings.Contains(got, "WHERE a.region = b.region") {
		t.Fatalf("expected the unmatched join predicate text to remain in WHERE, got:\n%s", got)
	}
	if !strings.Contains(got, "ON a.id = b.a_id") {
		t.Fatalf("expected the ON clause to use the join-graph edge, got:\n%s", got)
	}
}

func TestRender_Join_SeedsAtLexicographicallySmallestAlias(t *testing.T) {
	c := classifier.New()
	c.Finalize()

	details := map[string][]JoinDetail{
		"a|z": {{Rel1: "a", Col1: "id", Rel2: "z", Col2: "a_id", Asserted: true}},
	}
	r := New(nil, c, func(x, y string) []JoinDetail {
		lo, hi := x, y
		if hi < lo {
			lo, hi = hi, lo
		}
		return details[lo+"|"+hi]
	})

	got := r.Render([]string{"z", "a"})
	if !strings.HasPrefix(got, "SELECT * FROM a") {
		t.Fatalf("expected render to seed at alias 'a', got:\n%s", got)
	}
}
