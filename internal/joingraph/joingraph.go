// Package joingraph tracks equi-join relationships between relation
// aliases: the asserted joins parsed from a query, the joins derivable
// from constant equality, and the column-aware transitive closure of both.
// It answers connectivity queries over equivalence classes of qualified
// columns without ever building a pointer-based graph.
package joingraph

import (
	"fmt"
	"sort"

	joinspaceerrors "github.com/joinspace/joinspace/internal/errors"
)

const maxClosureIterations = 10

// Detail describes one equi-join edge between two relations, normalized so
// that Rel1 <= Rel2 lexicographically (columns are swapped to match).
type Detail struct {
	Rel1     string
	Col1     string
	Rel2     string
	Col2     string
	Asserted bool
}

// Graph accumulates join details keyed by canonical edge, and the
// equivalence classes of qualified columns derived from them.
type Graph struct {
	edgeDetails map[string][]Detail
	classes     []map[string]bool // qualified-column sets
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{edgeDetails: make(map[string][]Detail)}
}

func edgeKey(t1, t2 string) string {
	a, b := t1, t2
	if b < a {
		a, b = b, a
	}
	return a + "|||" + b
}

// AddJoin records a join between (t1, t1Col) and (t2, t2Col). Edges are
// stored with the lexicographically smaller alias first; columns are
// swapped to keep correspondence.
func (g *Graph) AddJoin(t1, t1Col, t2, t2Col string, asserted bool) {
	if t1Col == "" || t2Col == "" {
		return
	}
	edge := edgeKey(t1, t2)
	r1, r2 := t1, t2
	c1, c2 := t1Col, t2Col
	if r2 < r1 {
		r1, r2 = r2, r1
		c1, c2 = c2, c1
	}
	g.edgeDetails[edge] = append(g.edgeDetails[edge], Detail{
		Rel1: r1, Col1: c1, Rel2: r2, Col2: c2, Asserted: asserted,
	})
}

// DetailsFor returns the join details recorded between relations a and b,
// in insertion order.
func (g *Graph) DetailsFor(a, b string) []Detail {
	return g.edgeDetails[edgeKey(a, b)]
}

// ComputeTransitiveClosure adds every transitive edge implied by matching
// columns on a shared relation, to a fixed point capped at
// maxClosureIterations passes. Hitting the cap without convergence is an
// internal invariant violation, not a silent truncation.
func (g *Graph) ComputeTransitiveClosure() error {
	for iteration := 0; iteration < maxClosureIterations; iteration++ {
		foundNew := false

		type edgeEntry struct {
			key     string
			details []Detail
		}
		var edges []edgeEntry
		for k, v := range g.edgeDetails {
			edges = append(edges, edgeEntry{k, v})
		}
		sort.Slice(edges, func(i, j int) bool { return edges[i].key < edges[j].key })

		for _, e1 := range edges {
			for _, e2 := range edges {
				if e1.key == e2.key {
					continue
				}
				for _, d1 := range e1.details {
					for _, d2 := range e2.details {
						t, ok := tryFormTransitive(d1, d2)
						if !ok || t.Rel1 == t.Rel2 {
							continue
						}
						if g.joinExists(t) {
							continue
						}
						g.AddJoin(t.Rel1, t.Col1, t.Rel2, t.Col2, false)
						foundNew = true
					}
				}
			}
		}

		if !foundNew {
			return nil
		}
	}
	return joinspaceerrors.NewInvariantViolation(
		"transitive-closure-convergence",
		fmt.Sprintf("closure did not converge within %d iterations", maxClosureIterations),
	)
}

func tryFormTransitive(d1, d2 Detail) (Detail, bool) {
	switch {
	case d1.Rel2 == d2.Rel1 && d1.Col2 == d2.Col1:
		return Detail{Rel1: d1.Rel1, Col1: d1.Col1, Rel2: d2.Rel2, Col2: d2.Col2}, true
	case d1.Rel2 == d2.Rel2 && d1.Col2 == d2.Col2:
		return Detail{Rel1: d1.Rel1, Col1: d1.Col1, Rel2: d2.Rel1, Col2: d2.Col1}, true
	case d1.Rel1 == d2.Rel1 && d1.Col1 == d2.Col1:
		return Detail{Rel1: d1.Rel2, Col1: d1.Col2, Rel2: d2.Rel2, Col2: d2.Col2}, true
	case d1.Rel1 == d2.Rel2 && d1.Col1 == d2.Col2:
		return Detail{Rel1: d1.Rel2, Col1: d1.Col2, Rel2: d2.Rel1, Col2: d2.Col1}, true
	default:
		return Detail{}, false
	}
}

func (g *Graph) joinExists(t Detail) bool {
	edge := edgeKey(t.Rel1, t.Rel2)
	for _, d := range g.edgeDetails[edge] {
		if (d.Rel1 == t.Rel1 && d.Col1 == t.Col1 && d.Rel2 == t.Rel2 && d.Col2 == t.Col2) ||
			(d.Rel1 == t.Rel2 && d.Col1 == t.Col2 && d.Rel2 == t.Rel1 && d.Col2 == t.Col1) {
			return true
		}
	}
	return false
}

// BuildEquivalenceClasses rebuilds the equivalence classes of qualified
// columns ("relation.column" strings) using an iterative union-find over
// every recorded join detail.
func (g *Graph) BuildEquivalenceClasses() {
	parent := make(map[string]string)
	rank := make(map[string]int)

	find := func(x string) string {
		if _, ok := parent[x]; !ok {
			parent[x] = x
			rank[x] = 0
		}
		root := x
		for parent[root] != root {
			root = parent[root]
		}
		// Path compression, iterative.
		for parent[x] != root {
			next := parent[x]
			parent[x] = root
			x = next
		}
		return root
	}

	union := func(x, y string) {
		rx, ry := find(x), find(y)
		if rx == ry {
			return
		}
		switch {
		case rank[rx] < rank[ry]:
			parent[rx] = ry
		case rank[rx] > rank[ry]:
			parent[ry] = rx
		default:
			parent[ry] = rx
			rank[rx]++
		}
	}

	var keys []string
	for k := range g.edgeDetails {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, d := range g.edgeDetails[k] {
			union(d.Rel1+"."+d.Col1, d.Rel2+"."+d.Col2)
		}
	}

	groups := make(map[string]map[string]bool)
	for tc := range parent {
		root := find(tc)
		if groups[root] == nil {
			groups[root] = make(map[string]bool)
		}
		groups[root][tc] = true
	}

	g.classes = g.classes[:0]
	var roots []string
	for r := range groups {
		roots = append(roots, r)
	}
	sort.Strings(roots)
	for _, r := range roots {
		g.classes = append(g.classes, groups[r])
	}
}

// InSameClass reports whether relations a and b share any qualified
// column in the same equivalence class.
func (g *Graph) InSameClass(a, b string) bool {
	for _, ec := range g.classes {
		hasA, hasB := false, false
		for tc := range ec {
			if hasPrefix(tc, a+".") {
				hasA = true
			}
			if hasPrefix(tc, b+".") {
				hasB = true
			}
		}
		if hasA && hasB {
			return true
		}
	}
	return false
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

// IsConnected reports whether every relation in subset is reachable from
// the others via shared equivalence classes, using BFS with a FIFO
// frontier for deterministic traversal order.
func (g *Graph) IsConnected(subset []string) bool {
	if len(subset) <= 1 {
		return true
	}

	visited := map[string]bool{subset[0]: true}
	queue := []string{subset[0]}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, other := range subset {
			if !visited[other] && g.InSameClass(current, other) {
				visited[other] = true
				queue = append(queue, other)
			}
		}
	}

	return len(visited) == len(subset)
}

// CanJoin reports whether any relation in left shares an equivalence
// class with any relation in right.
func (g *Graph) CanJoin(left, right []string) bool {
	for _, l := range left {
		for _, r := range right {
			if g.InSameClass(l, r) {
				return true
			}
		}
	}
	return false
}
