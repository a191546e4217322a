package enumerator

import (
	"testing"

	"github.com/joinspace/joinspace/internal/joingraph"
)

func TestEnumerate_ChainOfThree_AdmitsAllConnectedSubsets(t *testing.T) {
	g := joingraph.New()
	g.AddJoin("a", "id", "b", "id", true)
	g.AddJoin("b", "id", "c", "id", true)
	g.BuildEquivalenceClasses()

	result := Enumerate(g, []string{"c", "a", "b"}, 3)

	if result.Counts[1] != 3 {
		t.Errorf("expected 3 singletons admitted, got %d", result.Counts[1])
	}
	// Pairs: {a,b}, {a,c} and {b,c} are all connected. The graph was never
	// closed transitively, but union-find still puts a.id, b.id and c.id in
	// one equivalence class, so a and c share a class without a direct edge.
	if result.Counts[2] != 3 {
		t.Errorf("expected 3 connected pairs admitted, got %d", result.Counts[2])
	}
	if result.Counts[3] != 1 {
		t.Errorf("expected the full triple admitted via a witness decomposition, got %d", result.Counts[3])
	}
}

func TestEnumerate_DisconnectedPairNeverAdmitted(t *testing.T) {
	g := joingraph.New()
	g.AddJoin("a", "id", "b", "id", true)
	g.BuildEquivalenceClasses()

	result := Enumerate(g, []string{"a", "b", "c"}, 3)

	for _, p := range result.Plans {
		if len(p.Subset) == 2 && p.Subset[0] == "a" && p.Subset[1] == "c" {
			t.Fatalf("subset {a,c} should never be admitted: no join connects them")
		}
	}
}

func TestEnumerate_EveryNonSingletonPlanHasWitness(t *testing.T) {
	g := joingraph.New()
	g.AddJoin("a", "id", "b", "id", true)
	g.AddJoin("b", "id", "c", "id", true)
	g.AddJoin("c", "id", "d", "id", true)
	g.BuildEquivalenceClasses()

	result := Enumerate(g, []string{"a", "b", "c", "d"}, 4)

	for _, p := range result.Plans {
		if len(p.Subset) > 1 && (p.Left == nil || p.Right == nil) {
			t.Fatalf("subset %v admitted without a witness decomposition", p.Subset)
		}
	}
}

func TestEnumerate_MaxLevelClampsToRelationCount(t *testing.T) {
	g := joingraph.New()
	g.AddJoin("a", "id", "b", "id", true)
	g.BuildEquivalenceClasses()

	result := Enumerate(g, []string{"a", "b"}, 20)

	if _, ok := result.Counts[3]; ok {
		t.Fatalf("expected no level 3 with only 2 relations")
	}
	if result.Counts[2] != 1 {
		t.Errorf("expected the single pair admitted, got %d", result.Counts[2])
	}
}

func TestEnumerate_DeterministicOrdering(t *testing.T) {
	g := joingraph.New()
	g.AddJoin("a", "id", "b", "id", true)
	g.AddJoin("b", "id", "c", "id", true)
	g.BuildEquivalenceClasses()

	r1 := Enumerate(g, []string{"c", "b", "a"}, 3)
	r2 := Enumerate(g, []string{"a", "b", "c"}, 3)

	if len(r1.Plans) != len(r2.Plans) {
		t.Fatalf("expected identical plan counts regardless of input order")
	}
	for i := range r1.Plans {
		if len(r1.Plans[i].Subset) != len(r2.Plans[i].Subset) {
			t.Fatalf("plan order diverged at index %d", i)
		}
		for j := range r1.Plans[i].Subset {
			if r1.Plans[i].Subset[j] != r2.Plans[i].Subset[j] {
				t.Fatalf("plan %d subset diverged: %v vs %v", i, r1.Plans[i].Subset, r2.Plans[i].Subset)
			}
		}
	}
}
