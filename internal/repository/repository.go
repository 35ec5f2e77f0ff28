// Package repository holds one data-access type per table. Repositories run parameterized SQL
// and return rows, ids or affected-row booleans. They never authorize; callers do.
// A missing row is reported as sql.ErrNoRows.
package repository

import (
	"database/sql"
	"time"
)

type scanner interface {
	Scan(dest ...interface{}) error
}

func affected(result sql.Result, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
