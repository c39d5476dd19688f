package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/qbucket/filter"
)

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ratings.db")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE ratings (category TEXT, rating REAL)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO ratings VALUES ('cat1', 1.5), ('cat1', 2.1), ('cat2', 3.3), ('cat2', 4.8)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	src, err := Open(path, "ratings", []string{"category"}, []string{"rating"})
	require.NoError(t, err)

	v, err := src.ValueAt(context.Background(), "rating", 1, filter.New(filter.Pair{Key: "category", Value: "cat2"}))
	require.NoError(t, err)
	assert.Equal(t, 4.8, v)

	require.NoError(t, src.Close())
	assert.Error(t, src.DB().Ping())
}

func TestOpen_InvalidTable(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "x.db"), "bad table", nil, []string{"rating"})
	assert.Error(t, err)
}
