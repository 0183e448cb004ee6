package gqlrequest

import (
	"fmt"
	"strings"
)

// PolicyError explains why a document cannot be sent to the gateway.
type PolicyError struct {
	Reason string
}

func (e *PolicyError) Error() string {
	return "query rejected: " + e.Reason
}

// InlinePolicy describes what the gateway accepts. MaxDepth of zero
// disables the depth check.
type InlinePolicy struct {
	MaxDepth int
}

// CheckInline verifies that query is a single read-only operation with every
// argument written as a literal. It returns the analysis so callers can reuse
// the hash and root fields.
func CheckInline(query string, policy InlinePolicy) (*Analysis, error) {
	analysis := Analyze(query, "")
	if err := analysis.Err(); err != nil {
		return analysis, &PolicyError{Reason: err.Error()}
	}
	if analysis.OperationCount != 1 {
		return analysis, &PolicyError{Reason: fmt.Sprintf("expected exactly one operation, found %d", analysis.OperationCount)}
	}
	if analysis.OperationType != "query" {
		return analysis, &PolicyError{Reason: fmt.Sprintf("only query operations are allowed, got %s", analysis.OperationType)}
	}
	if analysis.VariableCount > 0 || analysis.VariableRefCount > 0 {
		return analysis, &PolicyError{Reason: "variable definitions are not supported by the gateway; inline every argument as a literal"}
	}
	if policy.MaxDepth > 0 && analysis.SelectionDepth > policy.MaxDepth {
		return analysis, &PolicyError{Reason: fmt.Sprintf("selection depth %d exceeds the limit of %d", analysis.SelectionDepth, policy.MaxDepth)}
	}
	return analysis, nil
}

// Truncate shortens a query for logging.
func Truncate(query string, limit int) string {
	if limit <= 0 || len(query) <= limit {
		return query
	}
	cut := limit
	for cut > 0 && !utf8RuneStart(query[cut]) {
		cut--
	}
	return strings.TrimRight(query[:cut], " \n\t") + "..."
}

func utf8RuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
