// Package sqlite opens sqlsource sources backed by SQLite (pure Go driver).
package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // load sqlite driver

	"github.com/hupe1980/qbucket/source/sqlsource"
)

// Open opens the SQLite database at path and returns a source over table.
// The returned source owns the connection.
func Open(path, table string, categorical, numeric []string, optFns ...func(*sqlsource.Options)) (*sqlsource.Source, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to SQLite: %w", err)
	}

	src, err := sqlsource.New(db, sqlsource.SQLite, table, categorical, numeric, optFns...)
	if err != nil {
		db.Close()
		return nil, err
	}
	return src.Own(), nil
}
