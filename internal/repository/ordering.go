package repository

import (
	"context"

	"github.com/nikhil/teamtasks/internal/database"
)

// orderedSet names a positioned child table and the column of its parent.
// Both are compile-time constants, never request input.
type orderedSet struct {
	table  string
	parent string
}

var (
	listsOfBoard = orderedSet{table: "lists", parent: "board_id"}
	cardsOfList  = orderedSet{table: "cards", parent: "list_id"}
)

func (s orderedSet) ids(ctx context.Context, q database.DBTX, parentID int64) ([]int64, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id FROM `+s.table+` WHERE `+s.parent+` = ? ORDER BY position, id`, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s orderedSet) nextPosition(ctx context.Context, q database.DBTX, parentID int64) (int, error) {
	var max int
	err := q.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position), 0) FROM `+s.table+` WHERE `+s.parent+` = ?`, parentID).Scan(&max)
	return max + 1, err
}

// renumber writes positions 1..n following the order of ids
func (s orderedSet) renumber(ctx context.Context, q database.DBTX, parentID int64, ids []int64) error {
	for i, id := range ids {
		if _, err := q.ExecContext(ctx,
			`UPDATE `+s.table+` SET `+s.parent+` = ?, position = ? WHERE id = ?`, parentID, i+1, id); err != nil {
			return err
		}
	}
	return nil
}

func without(ids []int64, id int64) []int64 {
	out := make([]int64, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// insertAt places id at the 1-based position, clamped to the valid range
func insertAt(ids []int64, id int64, position int) []int64 {
	idx := position - 1
	if idx < 0 {
		idx = 0
	}
	if idx > len(ids) {
		idx = len(ids)
	}
	out := make([]int64, 0, len(ids)+1)
	out = append(out, ids[:idx]...)
	out = append(out, id)
	return append(out, ids[idx:]...)
}
