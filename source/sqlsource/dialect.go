package sqlsource

import (
	"strconv"
	"strings"
)

// Dialect captures the SQL differences between supported backends.
type Dialect struct {
	// Name identifies the dialect in logs and errors.
	Name string

	// Text is the type numeric-looking categorical values are cast to before comparison.
	Text string

	// Float is the type numeric attributes are cast to when read.
	Float string

	// Numbered selects $1-style placeholders instead of '?'.
	Numbered bool
}

var (
	// DuckDB dialect.
	DuckDB = Dialect{Name: "duckdb", Text: "VARCHAR", Float: "DOUBLE"}

	// SQLite dialect.
	SQLite = Dialect{Name: "sqlite", Text: "TEXT", Float: "REAL"}

	// Postgres dialect.
	Postgres = Dialect{Name: "postgres", Text: "TEXT", Float: "DOUBLE PRECISION", Numbered: true}
)

// Placeholder returns the n-th (1-based) bind parameter marker.
func (d Dialect) Placeholder(n int) string {
	if d.Numbered {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// Quote quotes an identifier. Dotted names are quoted per part.
func (d Dialect) Quote(ident string) string {
	parts := strings.Split(ident, ".")
	for i, p := range parts {
		parts[i] = `"` + strings.ReplaceAll(p, `"`, `""`) + `"`
	}
	return strings.Join(parts, ".")
}
