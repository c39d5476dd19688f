// Package postgres opens sqlsource sources backed by PostgreSQL via pgx.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/hupe1980/qbucket/source/sqlsource"
)

// Open connects to dsn and returns a source over table. The returned source
// owns the connection pool.
func Open(ctx context.Context, dsn, table string, categorical, numeric []string, optFns ...func(*sqlsource.Options)) (*sqlsource.Source, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool)
	src, err := sqlsource.New(db, sqlsource.Postgres, table, categorical, numeric, optFns...)
	if err != nil {
		db.Close()
		return nil, err
	}
	return src.Own(), nil
}
