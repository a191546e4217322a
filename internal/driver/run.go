package driver

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	joinspaceerrors "github.com/joinspace/joinspace/internal/errors"
	"github.com/joinspace/joinspace/internal/observability"
)

// RunOptions configures a full driver run over an input file.
type RunOptions struct {
	InputPath          string
	OutputPath         string
	SemicolonSeparated bool
	StopOnError        bool
	MaxLevel           int
	Dialect            string
}

// RunResult summarizes a completed run for the CLI's final report.
type RunResult struct {
	QueriesFound     int
	QueriesProcessed int
	QueriesFailed    int
	RowsWritten      int
}

// Run reads queries from opts.InputPath, processes each one, and writes
// result rows to opts.OutputPath. Errors on individual queries are logged
// via logger and either skip to the next query or abort the run,
// depending on opts.StopOnError.
func Run(opts RunOptions, logger observability.RunLogger) (RunResult, error) {
	content, err := os.ReadFile(opts.InputPath)
	if err != nil {
		return RunResult{}, joinspaceerrors.NewInputUnavailable(opts.InputPath, err)
	}

	var queries []QueryText
	if opts.SemicolonSeparated {
		queries = ExtractSemicolonMode(string(content))
	} else {
		queries = ExtractLineMode(string(content))
	}

	result := RunResult{QueriesFound: len(queries)}
	if len(queries) == 0 {
		return result, nil
	}

	outFile, err := os.Create(opts.OutputPath)
	if err != nil {
		return result, joinspaceerrors.NewInputUnavailable(opts.OutputPath, err)
	}
	defer outFile.Close()

	writer := NewCSVWriter(outFile)
	if err := writer.WriteHeader(); err != nil {
		return result, err
	}

	ctx := context.Background()

	for i, q := range queries {
		queryID := i + 1
		start := time.Now()

		rows, outcome, err := ProcessQuery(q.SQL, queryID, q.Line, Options{MaxLevel: opts.MaxLevel, Dialect: opts.Dialect})
		outcome.Err = err

		entry := observability.QueryLogEntry{
			QueryID:       queryID,
			Line:          q.Line,
			RelationCount: outcome.Relations,
			LevelsEmitted: len(outcome.Levels),
			RowsWritten:   outcome.Rows,
			Duration:      time.Since(start),
			Outcome:       "success",
		}
		if err != nil {
			entry.Outcome = "error"
			entry.Error = err.Error()
		}
		_ = logger.LogQuery(ctx, entry)

		if err != nil {
			result.QueriesFailed++
			if opts.StopOnError {
				return result, err
			}
			continue
		}

		for _, row := range rows {
			if writeErr := writer.WriteRow(row); writeErr != nil {
				return result, writeErr
			}
		}

		result.QueriesProcessed++
		result.RowsWritten += len(rows)
	}

	return result, nil
}

// CSVWriter writes the header, `query_id, subset, query`, and each output
// row with the subset formatted `{a, b, c}` (sorted) and the query text
// flattened to a single line.
type CSVWriter struct {
	w *csv.Writer
}

// NewCSVWriter wraps w for row-at-a-time writing with a flush after each
// row, so output survives a later fatal error.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: csv.NewWriter(w)}
}

// WriteHeader writes the fixed column header.
func (c *CSVWriter) WriteHeader() error {
	if err := c.w.Write([]string{"query_id", "subset", "query"}); err != nil {
		return fmt.Errorf("driver: failed to write header: %w", err)
	}
	c.w.Flush()
	return c.w.Error()
}

// WriteRow writes one output row and flushes immediately.
func (c *CSVWriter) WriteRow(row Row) error {
	subset := append([]string(nil), row.Subset...)
	sort.Strings(subset)
	formatted := "{" + strings.Join(subset, ", ") + "}"

	query := strings.ReplaceAll(row.Query, "\n", " ")

	record := []string{fmt.Sprintf("%d", row.QueryID), formatted, query}
	if err := c.w.Write(record); err != nil {
		return fmt.Errorf("driver: failed to write row: %w", err)
	}
	c.w.Flush()
	return c.w.Error()
}
