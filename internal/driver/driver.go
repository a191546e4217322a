// Package driver wires the parser, classifier, join graph, enumerator and
// renderer together: for each query read from an input file it builds the
// per-query graph, enumerates connected subsets, renders each one, and
// streams result rows to an output writer.
package driver

import (
	"fmt"

	"github.com/joinspace/joinspace/internal/classifier"
	joinspaceerrors "github.com/joinspace/joinspace/internal/errors"
	"github.com/joinspace/joinspace/internal/enumerator"
	"github.com/joinspace/joinspace/internal/joingraph"
	"github.com/joinspace/joinspace/internal/queryparse"
	"github.com/joinspace/joinspace/internal/renderer"
)

// Options configures a single run of the driver.
type Options struct {
	MaxLevel int
	Dialect  string
}

// Row is one emitted output record.
type Row struct {
	QueryID int
	Subset  []string
	Query   string
}

// QueryOutcome summarizes the processing of a single query, for logging.
type QueryOutcome struct {
	QueryID   int
	Line      int
	Relations int
	Levels    map[int]int
	Rows      int
	Err       error
}

// ProcessQuery runs one query through the full pipeline and returns the
// output rows for subsets of size >= 2, in enumeration order.
func ProcessQuery(sql string, queryID, line int, opts Options) ([]Row, QueryOutcome, error) {
	outcome := QueryOutcome{QueryID: queryID, Line: line}

	parsed, err := queryparse.Parse(sql, queryID, line, opts.Dialect)
	if err != nil {
		return nil, outcome, err
	}
	outcome.Relations = len(parsed.Relations)

	graph := joingraph.New()
	pc := classifier.New()

	for _, jc := range parsed.JoinConds {
		graph.AddJoin(jc.LeftRel, jc.LeftCol, jc.RightRel, jc.RightCol, true)
	}

	for _, p := range parsed.Predicates {
		text := p.Text
		if len(p.Relations) == 2 {
			if jc, ok := matchingJoinCond(parsed.JoinConds, p.Text, p.Relations); ok {
				text = joinCanonicalText(jc)
			}
		}
		pc.Add(text, p.Relations)
	}
	pc.Finalize()

	var selections []string
	for _, rel := range parsed.Relations {
		selections = append(selections, pc.Selections(rel)...)
	}
	facts := queryparse.ExtractConstantFacts(selections)
	for _, jc := range queryparse.DeriveConstantEqualityJoins(facts) {
		graph.AddJoin(jc.LeftRel, jc.LeftCol, jc.RightRel, jc.RightCol, false)
	}

	if err := graph.ComputeTransitiveClosure(); err != nil {
		return nil, outcome, err
	}
	graph.BuildEquivalenceClasses()

	maxLevel := opts.MaxLevel
	if maxLevel <= 0 || maxLevel > len(parsed.Relations) {
		maxLevel = len(parsed.Relations)
	}
	result := enumerator.Enumerate(graph, parsed.Relations, maxLevel)
	outcome.Levels = result.Counts

	rend := renderer.New(parsed.Aliases, pc, func(a, b string) []renderer.JoinDetail {
		details := graph.DetailsFor(a, b)
		out := make([]renderer.JoinDetail, len(details))
		for i, d := range details {
			out[i] = renderer.JoinDetail{
				Rel1: d.Rel1, Col1: d.Col1, Rel2: d.Rel2, Col2: d.Col2, Asserted: d.Asserted,
			}
		}
		return out
	})

	var rows []Row
	for _, plan := range result.Plans {
		if len(plan.Subset) < 2 {
			continue
		}
		if len(plan.Subset) > 1 && plan.Left == nil {
			return nil, outcome, joinspaceerrors.NewInvariantViolation(
				"witnessed-decomposition",
				fmt.Sprintf("admitted subset %v has no witness decomposition", plan.Subset),
			)
		}
		text := rend.Render(plan.Subset)
		rows = append(rows, Row{QueryID: queryID, Subset: plan.Subset, Query: text})
	}
	outcome.Rows = len(rows)

	return rows, outcome, nil
}

func joinCanonicalText(jc queryparse.JoinCondition) string {
	r1, c1, r2, c2 := jc.LeftRel, jc.LeftCol, jc.RightRel, jc.RightCol
	if r2 < r1 {
		r1, c1, r2, c2 = r2, c2, r1, c1
	}
	return fmt.Sprintf("%s.%s = %s.%s", r1, c1, r2, c2)
}

// matchingJoinCond returns the equi-join condition that the predicate text
// was parsed from, if any; other predicates on the same two relations keep
// their own text.
func matchingJoinCond(conds []queryparse.JoinCondition, text string, relations map[string]bool) (queryparse.JoinCondition, bool) {
	for _, jc := range conds {
		own := fmt.Sprintf("%s.%s = %s.%s", jc.LeftRel, jc.LeftCol, jc.RightRel, jc.RightCol)
		if relations[jc.LeftRel] && relations[jc.RightRel] && len(relations) == 2 && text == own {
			return jc, true
		}
	}
	return queryparse.JoinCondition{}, false
}
