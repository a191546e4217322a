// Package enumerator performs level-ordered dynamic-programming enumeration
// of connected relation subsets, admitting a subset only once a witness
// decomposition into two already-admitted, join-compatible subsets exists.
package enumerator

import (
	"sort"
	"strings"

	"github.com/joinspace/joinspace/internal/joingraph"
)

// Plan is one admitted subset together with its witness decomposition.
// Left and Right are nil for singleton (base-relation) subsets.
type Plan struct {
	Subset []string
	Left   []string
	Right  []string
}

// Result is the complete ordered enumeration output.
type Result struct {
	Plans  []Plan
	Counts map[int]int // level -> admitted count
}

// Enumerate admits connected subsets of tables level by level (size 1, 2,
// 3, ...) up to maxLevel, in the same order a bottom-up DP join optimizer
// would visit them. tables need not be sorted; Enumerate sorts its own
// copy.
func Enumerate(graph *joingraph.Graph, tables []string, maxLevel int) Result {
	sorted := append([]string(nil), tables...)
	sort.Strings(sorted)

	if maxLevel > len(sorted) {
		maxLevel = len(sorted)
	}

	dpTable := make(map[string]bool)
	result := Result{Counts: make(map[int]int)}

	for level := 1; level <= maxLevel; level++ {
		added := 0
		for _, subset := range combinations(sorted, level) {
			if !graph.IsConnected(subset) {
				continue
			}

			if level == 1 {
				addPlan(&result, dpTable, subset, nil, nil)
				added++
				continue
			}

			left, right, ok := findDecomposition(graph, dpTable, subset)
			if ok {
				addPlan(&result, dpTable, subset, left, right)
				added++
			}
		}
		result.Counts[level] = added
	}

	return result
}

func addPlan(result *Result, dpTable map[string]bool, subset, left, right []string) {
	dpTable[canonicalKey(subset)] = true
	result.Plans = append(result.Plans, Plan{Subset: subset, Left: left, Right: right})
}

// findDecomposition searches, in deterministic lexicographic order over
// split size and left-subset choice, for a decomposition of subset into
// two already-admitted, join-compatible parts.
func findDecomposition(graph *joingraph.Graph, dpTable map[string]bool, subset []string) (left, right []string, ok bool) {
	n := len(subset)
	for leftSize := 1; leftSize < n; leftSize++ {
		for _, l := range combinations(subset, leftSize) {
			r := difference(subset, l)

			if !dpTable[canonicalKey(l)] || !dpTable[canonicalKey(r)] {
				continue
			}
			if graph.CanJoin(l, r) {
				return l, r, true
			}
		}
	}
	return nil, nil, false
}

func canonicalKey(subset []string) string {
	return strings.Join(subset, "|||")
}

// combinations returns every k-combination of items (already sorted) in
// lexicographic order, without mutating items.
func combinations(items []string, k int) [][]string {
	n := len(items)
	if k <= 0 || k > n {
		return nil
	}

	indices := make([]int, k)
	for i := range indices {
		indices[i] = i
	}

	var out [][]string
	for {
		combo := make([]string, k)
		for i, idx := range indices {
			combo[i] = items[idx]
		}
		out = append(out, combo)

		i := k - 1
		for i >= 0 && indices[i] == i+n-k {
			i--
		}
		if i < 0 {
			break
		}
		indices[i]++
		for j := i + 1; j < k; j++ {
			indices[j] = indices[j-1] + 1
		}
	}
	return out
}

func difference(subset, minus []string) []string {
	excl := make(map[string]bool, len(minus))
	for _, m := range minus {
		excl[m] = true
	}
	var out []string
	for _, s := range subset {
		if !excl[s] {
			out = append(out, s)
		}
	}
	return out
}
