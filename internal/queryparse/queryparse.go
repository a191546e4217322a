// Package queryparse turns a single SELECT statement into the parsed-query
// contract the rest of joinspace builds on: an ordered relation list, the
// alias-to-base-table map, the set of equi-join conditions, and the list of
// atomic filter predicates with the relations each one touches.
//
// Parsing uses the dolthub/vitess sqlparser fork.
package queryparse

import (
	"fmt"
	"strings"

	"github.com/dolthub/vitess/go/vt/sqlparser"

	joinspaceerrors "github.com/joinspace/joinspace/internal/errors"
)

// JoinCondition is an equi-join extracted from an explicit JOIN ... ON
// clause or from a top-level AND-conjunct of WHERE comparing two qualified
// columns on distinct relations.
type JoinCondition struct {
	LeftRel, LeftCol   string
	RightRel, RightCol string
}

// Predicate is an atomic filter conjunct together with the relations it
// references.
type Predicate struct {
	Text      string
	Relations map[string]bool
}

// Parsed is the full contract produced by Parse.
type Parsed struct {
	Relations  []string // appearance order in FROM/JOIN
	Aliases    map[string]string
	JoinConds  []JoinCondition
	Predicates []Predicate
}

// Parse parses a single SELECT statement. queryID and line are carried
// into any returned error for diagnostics. dialect selects input-quoting
// normalization applied before parsing; see applyDialect.
func Parse(sql string, queryID, line int, dialect string) (*Parsed, error) {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return nil, joinspaceerrors.NewEmptyQuery(queryID, line)
	}
	trimmed = applyDialect(trimmed, dialect)

	stmt, err := sqlparser.Parse(trimmed)
	if err != nil {
		return nil, joinspaceerrors.NewParseFailure(queryID, line, err)
	}

	sel, ok := stmt.(*sqlparser.Select)
	if !ok {
		return nil, joinspaceerrors.NewParseFailure(queryID, line,
			fmt.Errorf("only single SELECT statements are supported, got %T", stmt))
	}

	relations, aliases := extractTables(sel)
	if len(relations) == 0 {
		return nil, joinspaceerrors.NewEmptyQuery(queryID, line)
	}

	var joinConds []JoinCondition
	for _, joinExpr := range findJoins(sel.From) {
		if joinExpr.Condition != nil {
			joinConds = append(joinConds, extractJoinConditions(joinExpr.Condition)...)
		}
	}

	var predicates []Predicate
	if sel.Where != nil {
		for _, cond := range splitConjuncts(sel.Where.Expr) {
			text := sqlparser.String(cond)
			rels := relationsOf(cond)
			if len(rels) == 0 {
				continue
			}
			predicates = append(predicates, Predicate{Text: text, Relations: rels})

			if jc, ok := asJoinCondition(cond); ok {
				joinConds = append(joinConds, jc)
			}
		}
	}

	return &Parsed{
		Relations:  relations,
		Aliases:    aliases,
		JoinConds:  joinConds,
		Predicates: predicates,
	}, nil
}

// applyDialect normalizes identifier quoting for the given dialect before
// the sql is handed to the parser. The underlying grammar is MySQL-only:
// it reads a double-quoted span as a string literal, not an identifier, so
// a query written for an ANSI-quoting dialect needs its identifiers
// rewritten to backticks first. "generic" and "mysql" are passed through
// unchanged; an unrecognized dialect name is treated as "generic".
func applyDialect(sql, dialect string) string {
	switch dialect {
	case "postgres", "ansi":
		return rewriteDoubleQuotedIdentifiers(sql)
	default:
		return sql
	}
}

// rewriteDoubleQuotedIdentifiers turns "ident" into `ident`, leaving
// single-quoted string literals untouched.
func rewriteDoubleQuotedIdentifiers(sql string) string {
	var b strings.Builder
	inString := false
	for i := 0; i < len(sql); i++ {
		c := sql[i]
		switch {
		case c == '\'':
			inString = !inString
			b.WriteByte(c)
		case c == '"' && !inString:
			b.WriteByte('`')
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// extractTables walks FROM (including JOIN chains) and returns relation
// aliases in order of appearance plus the alias -> base-table map.
func extractTables(sel *sqlparser.Select) ([]string, map[string]string) {
	var relations []string
	aliases := make(map[string]string)
	seen := make(map[string]bool)

	var walk func(expr sqlparser.TableExpr)
	walk = func(expr sqlparser.TableExpr) {
		switch t := expr.(type) {
		case *sqlparser.AliasedTableExpr:
			tableName, ok := t.Expr.(sqlparser.TableName)
			if !ok {
				return
			}
			base := tableName.Name.String()
			alias := base
			if !t.As.IsEmpty() {
				alias = t.As.String()
			}
			if !seen[alias] {
				seen[alias] = true
				relations = append(relations, alias)
				aliases[alias] = base
			}
		case *sqlparser.JoinTableExpr:
			walk(t.LeftExpr)
			walk(t.RightExpr)
		case *sqlparser.ParenTableExpr:
			for _, e := range t.Exprs {
				walk(e)
			}
		}
	}

	for _, tableExpr := range sel.From {
		walk(tableExpr)
	}
	return relations, aliases
}

// findJoins flattens the FROM clause's JOIN tree into its individual
// JoinTableExpr nodes, each carrying its own ON condition (if any).
func findJoins(from sqlparser.TableExprs) []*sqlparser.JoinTableExpr {
	var joins []*sqlparser.JoinTableExpr

	var walk func(expr sqlparser.TableExpr)
	walk = func(expr sqlparser.TableExpr) {
		switch t := expr.(type) {
		case *sqlparser.JoinTableExpr:
			joins = append(joins, t)
			walk(t.LeftExpr)
			walk(t.RightExpr)
		case *sqlparser.ParenTableExpr:
			for _, e := range t.Exprs {
				walk(e)
			}
		}
	}

	for _, tableExpr := range from {
		walk(tableExpr)
	}
	return joins
}

// extractJoinConditions pulls equi-join conditions out of a JOIN ... ON
// expression, recursing through AND chains the same way WHERE is split.
func extractJoinConditions(expr sqlparser.Expr) []JoinCondition {
	var out []JoinCondition
	for _, cond := range splitConjuncts(expr) {
		if jc, ok := asJoinCondition(cond); ok {
			out = append(out, jc)
		}
	}
	return out
}

// splitConjuncts flattens a chain of top-level AND expressions into its
// individual conditions. OR and other constructs are returned whole.
func splitConjuncts(expr sqlparser.Expr) []sqlparser.Expr {
	if and, ok := expr.(*sqlparser.AndExpr); ok {
		return append(splitConjuncts(and.Left), splitConjuncts(and.Right)...)
	}
	return []sqlparser.Expr{expr}
}

// asJoinCondition recognizes `rel1.col1 = rel2.col2` where both sides are
// qualified columns on distinct relations. A self-comparison (`a.x = a.y`)
// is degenerate and is not reported as a join condition.
func asJoinCondition(expr sqlparser.Expr) (JoinCondition, bool) {
	cmp, ok := expr.(*sqlparser.ComparisonExpr)
	if !ok || cmp.Operator != sqlparser.EqualOp {
		return JoinCondition{}, false
	}

	leftCol, leftOK := asQualifiedColumn(cmp.Left)
	rightCol, rightOK := asQualifiedColumn(cmp.Right)
	if !leftOK || !rightOK {
		return JoinCondition{}, false
	}
	if leftCol.table == rightCol.table {
		return JoinCondition{}, false
	}

	return JoinCondition{
		LeftRel: leftCol.table, LeftCol: leftCol.column,
		RightRel: rightCol.table, RightCol: rightCol.column,
	}, true
}

type qualifiedColumn struct {
	table, column string
}

func asQualifiedColumn(expr sqlparser.Expr) (qualifiedColumn, bool) {
	col, ok := expr.(*sqlparser.ColName)
	if !ok || col.Qualifier.Name.IsEmpty() {
		return qualifiedColumn{}, false
	}
	return qualifiedColumn{table: col.Qualifier.Name.String(), column: col.Name.String()}, true
}

// relationsOf returns the set of relation aliases referenced by any
// qualified column inside expr.
func relationsOf(expr sqlparser.Expr) map[string]bool {
	rels := make(map[string]bool)
	sqlparser.Walk(func(node sqlparser.SQLNode) (bool, error) {
		if col, ok := node.(*sqlparser.ColName); ok && !col.Qualifier.Name.IsEmpty() {
			rels[col.Qualifier.Name.String()] = true
		}
		return true, nil
	}, expr)
	return rels
}
