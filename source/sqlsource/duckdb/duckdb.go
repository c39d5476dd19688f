// Package duckdb opens sqlsource sources backed by DuckDB.
package duckdb

import (
	"database/sql"
	"fmt"

	_ "github.com/marcboeker/go-duckdb/v2" // load duckdb driver

	"github.com/hupe1980/qbucket/source/sqlsource"
)

// Open opens the DuckDB database at path (empty for in-memory) and returns a
// source over table. The returned source owns the connection.
func Open(path, table string, categorical, numeric []string, optFns ...func(*sqlsource.Options)) (*sqlsource.Source, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open DuckDB: %w", err)
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to DuckDB: %w", err)
	}

	src, err := sqlsource.New(db, sqlsource.DuckDB, table, categorical, numeric, optFns...)
	if err != nil {
		db.Close()
		return nil, err
	}
	return src.Own(), nil
}
