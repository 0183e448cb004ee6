// Package sqlutil holds identifier helpers for the audit store's SQL.
package sqlutil

import (
	"regexp"
	"strings"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,63}$`)

// ValidIdentifier reports whether name is a plain unquoted MySQL identifier
// of at most 64 characters.
func ValidIdentifier(name string) bool {
	return identifierPattern.MatchString(name)
}

// QuoteIdentifier quotes a SQL identifier (table name, column name, etc.)
// with backticks and escapes any backticks within the identifier.
func QuoteIdentifier(name string) string {
	escaped := strings.ReplaceAll(name, "`", "``")
	return "`" + escaped + "`"
}

// QuoteIdentifiers quotes each name in order.
func QuoteIdentifiers(names []string) []string {
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = QuoteIdentifier(name)
	}
	return out
}
