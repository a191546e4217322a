package queryparse

import (
	"regexp"
	"strings"
)

// ConstantFact is a single-relation constant-equality fact: relation.column
// is constrained to exactly one normalized value.
type ConstantFact struct {
	Relation, Column, Value string
}

var eqPattern = regexp.MustCompile(`(?i)^(\w+)\.(\w+)\s*=\s*(.+)$`)
var inPattern = regexp.MustCompile(`(?i)^(\w+)\.(\w+)\s+in\s*\(([^)]+)\)$`)

// ExtractConstantFacts scans the selection predicates of a finalized
// classifier-like source (here, any single-relation predicate text) for
// `relation.col = constant` or `relation.col IN (constant)` with exactly
// one value. IN-lists with more than one element, inequalities,
// pattern-matches, and null tests contribute nothing.
func ExtractConstantFacts(selections []string) []ConstantFact {
	var facts []ConstantFact
	for _, pred := range selections {
		text := strings.TrimSpace(pred)

		if m := eqPattern.FindStringSubmatch(text); m != nil {
			facts = append(facts, ConstantFact{
				Relation: m[1], Column: m[2], Value: normalizeValue(m[3]),
			})
			continue
		}

		if m := inPattern.FindStringSubmatch(text); m != nil {
			values := strings.Split(m[3], ",")
			if len(values) == 1 {
				facts = append(facts, ConstantFact{
					Relation: m[1], Column: m[2], Value: normalizeValue(values[0]),
				})
			}
		}
	}
	return facts
}

var castSuffix = regexp.MustCompile(`(?i)::\w+$`)

// normalizeValue strips surrounding quotes and a trailing ::type cast so
// 'rating' and 'rating'::text compare equal.
func normalizeValue(raw string) string {
	v := strings.TrimSpace(raw)
	v = castSuffix.ReplaceAllString(v, "")
	v = strings.TrimSpace(v)
	if len(v) >= 2 {
		first, last := v[0], v[len(v)-1]
		if (first == '\'' && last == '\'') || (first == '"' && last == '"') {
			v = v[1 : len(v)-1]
		}
	}
	return strings.TrimSpace(v)
}

// DeriveConstantEqualityJoins groups facts by (column, value) and returns
// every pairwise derived join among relations sharing a group, in
// deterministic order (grouped by key, then relation order as given).
func DeriveConstantEqualityJoins(facts []ConstantFact) []JoinCondition {
	type key struct{ column, value string }
	groups := make(map[key][]string)
	var order []key

	for _, f := range facts {
		k := key{f.Column, f.Value}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], f.Relation)
	}

	var conds []JoinCondition
	for _, k := range order {
		rels := groups[k]
		for i := 0; i < len(rels); i++ {
			for j := i + 1; j < len(rels); j++ {
				conds = append(conds, JoinCondition{
					LeftRel: rels[i], LeftCol: k.column,
					RightRel: rels[j], RightCol: k.column,
				})
			}
		}
	}
	return conds
}
