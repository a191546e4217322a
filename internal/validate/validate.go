// Package validate provides an optional local syntax check for rendered
// subquery output, used by the --validate CLI flag. It never changes the
// output file or the exit code of a run; failures are reported as
// warnings.
package validate

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dolthub/vitess/go/vt/sqlparser"
	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"
)

// Schema maps a base table name to its ordered column list, as loaded
// from a --schema YAML file.
type Schema map[string][]string

// LoadSchema parses a YAML file of the form `table: [col1, col2, ...]`.
func LoadSchema(path string) (Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("validate: failed to read schema %s: %w", path, err)
	}
	var schema Schema
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("validate: failed to parse schema %s: %w", path, err)
	}
	return schema, nil
}

// RenderedOutput checks every `query` column of the CSV file at
// outputPath for syntactic validity. With a non-empty schemaPath, each
// query is PREPAREd against an in-memory sqlite database seeded with
// empty tables from the schema, catching unknown-table and
// unknown-column mistakes as well as gross syntax errors. Without a
// schema, it only parses each query with the same SQL parser used on
// input queries. Returns the first failure found, wrapped with the
// offending row number; callers treat this as a warning, not a fatal
// error.
func RenderedOutput(outputPath, schemaPath string) error {
	queries, err := readQueryColumn(outputPath)
	if err != nil {
		return err
	}

	if schemaPath == "" {
		return parseOnly(queries)
	}

	schema, err := LoadSchema(schemaPath)
	if err != nil {
		return err
	}
	return prepareAgainstSchema(queries, schema)
}

func parseOnly(queries []queryRow) error {
	for _, q := range queries {
		if _, err := sqlparser.Parse(q.text); err != nil {
			return fmt.Errorf("validate: row %d: invalid SQL: %w", q.row, err)
		}
	}
	return nil
}

func prepareAgainstSchema(queries []queryRow, schema Schema) error {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return fmt.Errorf("validate: failed to open in-memory sqlite: %w", err)
	}
	defer db.Close()

	for table, columns := range schema {
		ddl := buildCreateTable(table, columns)
		if _, err := db.Exec(ddl); err != nil {
			return fmt.Errorf("validate: failed to materialize schema table %s: %w", table, err)
		}
	}

	for _, q := range queries {
		stmt, err := db.Prepare(q.text)
		if err != nil {
			return fmt.Errorf("validate: row %d: query failed to prepare: %w", q.row, err)
		}
		stmt.Close()
	}
	return nil
}

func buildCreateTable(table string, columns []string) string {
	cols := make([]string, len(columns))
	for i, c := range columns {
		cols[i] = c + " TEXT"
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", table, strings.Join(cols, ", "))
}

type queryRow struct {
	row  int
	text string
}

// readQueryColumn reads the `query_id, subset, query` CSV the driver
// writes and returns the query field of every data row, in order.
func readQueryColumn(path string) ([]queryRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("validate: failed to open output %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var rows []queryRow
	rowNum := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("validate: failed to read output %s: %w", path, err)
		}
		rowNum++
		if rowNum == 1 {
			continue // header
		}
		if len(record) == 0 {
			continue
		}
		text := strings.TrimSpace(record[len(record)-1])
		if text == "" {
			continue
		}
		rows = append(rows, queryRow{row: rowNum, text: text})
	}
	return rows, nil
}
