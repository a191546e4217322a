// Package errors provides explicit, human-readable error types for joinspace.
// Every error carries a Reason and Suggestion so a failure can be explained
// without reading the source.
package errors

import (
	"fmt"
)

// JoinspaceError is the base error type for all joinspace errors.
type JoinspaceError struct {
	Code       ErrorCode
	Message    string
	Reason     string
	Suggestion string
	Cause      error
}

// ErrorCode represents the category of error. The CLI does not map codes
// to exit codes: every failure exits with status 1.
type ErrorCode int

const (
	CodeInputUnavailable ErrorCode = 1
	CodeParseFailure     ErrorCode = 2
	CodeEmptyQuery       ErrorCode = 3
	CodeInvariant        ErrorCode = 4
)

func (e *JoinspaceError) Error() string {
	msg := e.Message
	if e.Reason != "" {
		msg = fmt.Sprintf("%s\nReason: %s", msg, e.Reason)
	}
	if e.Suggestion != "" {
		msg = fmt.Sprintf("%s\nSuggestion: %s", msg, e.Suggestion)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s\nCaused by: %v", msg, e.Cause)
	}
	return msg
}

func (e *JoinspaceError) Unwrap() error {
	return e.Cause
}

// ErrInputUnavailable is returned when the input file cannot be read.
type ErrInputUnavailable struct {
	JoinspaceError
	Path string
}

// NewInputUnavailable creates a new ErrInputUnavailable.
func NewInputUnavailable(path string, cause error) *ErrInputUnavailable {
	return &ErrInputUnavailable{
		JoinspaceError: JoinspaceError{
			Code:       CodeInputUnavailable,
			Message:    fmt.Sprintf("cannot read input file: %s", path),
			Reason:     cause.Error(),
			Suggestion: "check that the path exists and is readable",
			Cause:      cause,
		},
		Path: path,
	}
}

// ErrParseFailure is returned when a query fails to parse.
type ErrParseFailure struct {
	JoinspaceError
	QueryID int
	Line    int
}

// NewParseFailure creates a new ErrParseFailure with the source line number.
func NewParseFailure(queryID, line int, cause error) *ErrParseFailure {
	return &ErrParseFailure{
		JoinspaceError: JoinspaceError{
			Code:       CodeParseFailure,
			Message:    fmt.Sprintf("query %d failed to parse (line %d)", queryID, line),
			Reason:     cause.Error(),
			Suggestion: "verify the query is a single, valid SELECT statement",
			Cause:      cause,
		},
		QueryID: queryID,
		Line:    line,
	}
}

// ErrEmptyQuery is returned when a query has no base relations.
type ErrEmptyQuery struct {
	JoinspaceError
	QueryID int
	Line    int
}

// NewEmptyQuery creates a new ErrEmptyQuery.
func NewEmptyQuery(queryID, line int) *ErrEmptyQuery {
	return &ErrEmptyQuery{
		JoinspaceError: JoinspaceError{
			Code:       CodeEmptyQuery,
			Message:    fmt.Sprintf("query %d has no relations (line %d)", queryID, line),
			Reason:     "no tables found in FROM/JOIN clause",
			Suggestion: "ensure the query references at least one table",
		},
		QueryID: queryID,
		Line:    line,
	}
}

// ErrInvariantViolation is returned when an internal invariant does not hold.
// These are bugs, not user error: the driver never papers over them.
type ErrInvariantViolation struct {
	JoinspaceError
	Invariant string
}

// NewInvariantViolation creates a new ErrInvariantViolation.
func NewInvariantViolation(invariant, detail string) *ErrInvariantViolation {
	return &ErrInvariantViolation{
		JoinspaceError: JoinspaceError{
			Code:       CodeInvariant,
			Message:    fmt.Sprintf("internal invariant violated: %s", invariant),
			Reason:     detail,
			Suggestion: "this is a bug in joinspace, please report it with the offending query",
		},
		Invariant: invariant,
	}
}
