// Package renderer builds a self-contained counting query for an admitted
// subset: a singleton counting query for base relations, or a left-deep
// join expression with residual predicates for multi-relation subsets.
package renderer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/joinspace/joinspace/internal/classifier"
)

// Renderer holds the per-query context needed to turn an admitted subset
// into SQL text: the alias-to-base-table map, the predicate classifier,
// and a join-detail lookup keyed identically to joingraph.Graph.
type Renderer struct {
	aliases    map[string]string
	classifier *classifier.Classifier
	detailsFor func(a, b string) []JoinDetail
}

// JoinDetail mirrors joingraph.Detail without importing the package, so
// the renderer stays decoupled from the graph's internal representation.
type JoinDetail struct {
	Rel1, Col1, Rel2, Col2 string
	Asserted               bool
}

// New creates a Renderer. detailsFor must return the join details recorded
// between two relation aliases, in the same insertion order the graph
// recorded them.
func New(aliases map[string]string, c *classifier.Classifier, detailsFor func(a, b string) []JoinDetail) *Renderer {
	return &Renderer{aliases: aliases, classifier: c, detailsFor: detailsFor}
}

// Render produces the SQL text for subset. It takes no witness
// decomposition: the join tree is always rebuilt from the join graph, not
// from the enumerator's Plan.Left/Plan.Right.
func (r *Renderer) Render(subset []string) string {
	if len(subset) == 1 {
		return r.renderSingleton(subset[0])
	}
	return r.renderJoin(subset)
}

func (r *Renderer) renderSingleton(alias string) string {
	preds := r.classifier.Selections(alias)
	table := r.renderTable(alias)
	if len(preds) == 0 {
		return fmt.Sprintf("SELECT COUNT(*) FROM %s;", table)
	}
	return fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s;", table, strings.Join(preds, " AND "))
}

func (r *Renderer) renderJoin(subset []string) string {
	sorted := append([]string(nil), subset...)
	sort.Strings(sorted)

	addedSet := map[string]bool{sorted[0]: true}
	remaining := make(map[string]bool, len(sorted)-1)
	for _, a := range sorted[1:] {
		remaining[a] = true
	}

	from := r.renderTable(sorted[0])
	usedPredicates := make(map[string]bool)

	for len(remaining) > 0 {
		table, pred, ok := r.findNextTable(addedSet, remaining)
		if !ok {
			break
		}

		from += "\nJOIN " + r.renderTable(table)
		if pred != "" {
			from += " ON " + pred
			usedPredicates[pred] = true
		}

		addedSet[table] = true
		delete(remaining, table)
	}

	where := r.buildWhereClause(sorted, usedPredicates)
	if where != "" {
		return fmt.Sprintf("SELECT * FROM %s\nWHERE %s;", from, where)
	}
	return fmt.Sprintf("SELECT * FROM %s;", from)
}

// findNextTable scans remaining tables in lexicographic order; for each,
// it checks every already-attached relation for an asserted join detail
// first, falling back to the first detail found (derived) if no asserted
// edge exists anywhere in the scan.
func (r *Renderer) findNextTable(added map[string]bool, remaining map[string]bool) (table, predicate string, ok bool) {
	remSorted := sortedKeys(remaining)
	addedSorted := sortedKeys(added)

	for _, t := range remSorted {
		for _, a := range addedSorted {
			for _, d := range r.detailsFor(a, t) {
				if d.Asserted {
					return t, predicateText(d), true
				}
			}
		}
	}

	for _, t := range remSorted {
		for _, a := range addedSorted {
			details := r.detailsFor(a, t)
			if len(details) > 0 {
				return t, predicateText(details[0]), true
			}
		}
	}

	return "", "", false
}

func predicateText(d JoinDetail) string {
	return fmt.Sprintf("%s.%s = %s.%s", d.Rel1, d.Col1, d.Rel2, d.Col2)
}

func (r *Renderer) buildWhereClause(subset []string, used map[string]bool) string {
	subsetSet := make(map[string]bool, len(subset))
	for _, s := range subset {
		subsetSet[s] = true
	}
	preds := r.classifier.ForSubset(subsetSet)

	var all []string
	all = append(all, preds.Selections...)
	for _, j := range preds.Joins {
		if !used[j] {
			all = append(all, j)
		}
	}
	all = append(all, preds.Complex...)

	return strings.Join(all, " AND ")
}

func (r *Renderer) renderTable(alias string) string {
	base, ok := r.aliases[alias]
	if !ok || base == alias {
		return alias
	}
	return base + " " + alias
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
