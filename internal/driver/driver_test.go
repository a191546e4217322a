package driver

import (
	"strings"
	"testing"
)

func TestProcessQuery_ThreeWayChain_EmitsAllConnectedSubsets(t *testing.T) {
	sql := `SELECT * FROM orders o
JOIN customers c ON o.customer_id = c.id
JOIN regions r ON c.region_id = r.id`

	rows, outcome, err := ProcessQuery(sql, 1, 1, Options{MaxLevel: 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Relations != 3 {
		t.Fatalf("expected 3 relations, got %d", outcome.Relations)
	}
	// Pairs {o,c} and {c,r} are connected; {o,r} is not (no direct or
	// transitive edge since o and c join on different columns than c and r).
	if outcome.Levels[2] != 2 {
		t.Fatalf("expected 2 connected pairs, got %d", outcome.Levels[2])
	}
	if outcome.Levels[3] != 1 {
		t.Fatalf("expected the full triple admitted, got %d", outcome.Levels[3])
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 output rows (2 pairs + 1 triple, singletons excluded), got %d", len(rows))
	}
}

func TestProcessQuery_ResidualPredicateExactTextMatch(t *testing.T) {
	sql := `SELECT * FROM orders o, customers c WHERE o.customer_id = c.id`

	rows, _, err := ProcessQuery(sql, 1, 1, Options{MaxLevel: 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row for the single pair, got %d", len(rows))
	}
	if strings.Contains(rows[0].Query, "WHERE") {
		t.Fatalf("expected the WHERE equi-join to be fully consumed by the ON clause, got:\n%s", rows[0].Query)
	}
	if !strings.Contains(rows[0].Query, "ON c.id = o.customer_id") {
		t.Fatalf("expected an ON clause joining o and c, got:\n%s", rows[0].Query)
	}
}

func TestProcessQuery_ConstantEqualityDerivesJoin(t *testing.T) {
	sql := `SELECT * FROM orders o, archived_orders a WHERE o.status = 'closed' AND a.status = 'closed'`

	rows, outcome, err := ProcessQuery(sql, 1, 1, Options{MaxLevel: 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Levels[2] != 1 {
		t.Fatalf("expected the constant-equality join to connect o and a, got level-2 count %d", outcome.Levels[2])
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 output row, got %d", len(rows))
	}
}

func TestProcessQuery_DisconnectedRelationsProduceNoMultiRelationRows(t *testing.T) {
	sql := `SELECT * FROM orders o, unrelated_table u`

	rows, outcome, err := ProcessQuery(sql, 1, 1, Options{MaxLevel: 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Levels[2] != 0 {
		t.Fatalf("expected 0 connected pairs for unrelated tables, got %d", outcome.Levels[2])
	}
	if len(rows) != 0 {
		t.Fatalf("expected no output rows: only singletons exist, and those are never written, got %d", len(rows))
	}
}

func TestProcessQuery_PostgresDialectAcceptsDoubleQuotedIdentifiers(t *testing.T) {
	sql := `SELECT * FROM "orders" o JOIN "customers" c ON o."customer_id" = c."id"`

	rows, _, err := ProcessQuery(sql, 1, 1, Options{MaxLevel: 20, Dialect: "postgres"})
	if err != nil {
		t.Fatalf("unexpected error with dialect=postgres: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row for the single pair, got %d", len(rows))
	}

	_, _, err = ProcessQuery(sql, 1, 1, Options{MaxLevel: 20, Dialect: "generic"})
	if err == nil {
		t.Fatalf("expected dialect=generic to fail on ANSI double-quoted identifiers, since the parser reads them as string literals")
	}
}

func TestExtractLineMode_SkipsNonSelectLines(t *testing.T) {
	content := "not a query\nSELECT * FROM orders;\n\nSELECT * FROM customers;\n"
	queries := ExtractLineMode(content)
	if len(queries) != 2 {
		t.Fatalf("expected 2 extracted queries, got %d", len(queries))
	}
	if queries[0].Line != 2 || queries[1].Line != 4 {
		t.Fatalf("expected line numbers [2 4], got [%d %d]", queries[0].Line, queries[1].Line)
	}
}

func TestExtractSemicolonMode_HandlesMultilineQueries(t *testing.T) {
	content := "SELECT *\nFROM orders\nJOIN customers ON orders.id = customers.order_id;\nSELECT * FROM regions;"
	queries := ExtractSemicolonMode(content)
	if len(queries) != 2 {
		t.Fatalf("expected 2 extracted queries, got %d", len(queries))
	}
	if !strings.Contains(queries[0].SQL, "JOIN customers") {
		t.Fatalf("expected the first query to span multiple lines, got %q", queries[0].SQL)
	}
}
