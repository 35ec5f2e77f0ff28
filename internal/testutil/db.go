// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nikhil/teamtasks/internal/database"
)

var dbCounter atomic.Int64

// NewDB returns an isolated in-memory sqlite database with the full schema applied.
// The pool is capped at one connection so every statement sees the same memory database.
func NewDB(t *testing.T) *sql.DB {
	t.Helper()

	name := fmt.Sprintf("teamtasks_test_%d", dbCounter.Add(1))
	db, err := database.Open("sqlite3", fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	require.NoError(t, database.Bootstrap(context.Background(), db))
	t.Cleanup(func() { db.Close() })
	return db
}
