package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nikhil/teamtasks/internal/database"
	"github.com/nikhil/teamtasks/internal/models"
)

const cardColumns = `c.id, c.title, c.description, c.list_id, c.position, c.due_date, c.assigned_to, c.created_at, c.updated_at`

// CardRepository handles cards and their card_labels rows
type CardRepository struct {
	DB *sql.DB
}

// NewCardRepository creates a CardRepository
func NewCardRepository(db *sql.DB) *CardRepository {
	return &CardRepository{DB: db}
}

func scanCard(s scanner) (*models.Card, error) {
	var c models.Card
	err := s.Scan(&c.ID, &c.Title, &c.Description, &c.ListID, &c.Position, &c.DueDate, &c.AssignedTo, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Labels = []models.Label{}
	return &c, nil
}

// Create appends c to the end of its list together with its labels
func (r *CardRepository) Create(ctx context.Context, c *models.Card) (int64, error) {
	err := database.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		position, err := cardsOfList.nextPosition(ctx, tx, c.ListID)
		if err != nil {
			return err
		}
		ts := now()
		result, err := tx.ExecContext(ctx, `
			INSERT INTO cards (title, description, list_id, position, due_date, assigned_to, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			c.Title, c.Description, c.ListID, position, c.DueDate, c.AssignedTo, ts, ts)
		if err != nil {
			return fmt.Errorf("insert card: %w", err)
		}
		if c.ID, err = result.LastInsertId(); err != nil {
			return err
		}
		c.Position, c.CreatedAt, c.UpdatedAt = position, ts, ts
		return replaceLabels(ctx, tx, c.ID, c.Labels)
	})
	if err != nil {
		return 0, err
	}
	if c.Labels == nil {
		c.Labels = []models.Label{}
	}
	return c.ID, nil
}

// GetByID returns a card with its labels
func (r *CardRepository) GetByID(ctx context.Context, id int64) (*models.Card, error) {
	card, err := scanCard(r.DB.QueryRowContext(ctx, `SELECT `+cardColumns+` FROM cards c WHERE c.id = ?`, id))
	if err != nil {
		return nil, err
	}
	labels, err := r.labelsWhere(ctx, `cl.card_id = ?`, id)
	if err != nil {
		return nil, err
	}
	if l, ok := labels[id]; ok {
		card.Labels = l
	}
	return card, nil
}

// ListByList returns the cards of listID ordered by position
func (r *CardRepository) ListByList(ctx context.Context, listID int64) ([]models.Card, error) {
	cards, err := r.queryCards(ctx, `SELECT `+cardColumns+` FROM cards c WHERE c.list_id = ? ORDER BY c.position, c.id`, listID)
	if err != nil {
		return nil, err
	}
	labels, err := r.labelsWhere(ctx, `c.list_id = ?`, listID)
	if err != nil {
		return nil, err
	}
	return attachLabels(cards, labels), nil
}

// ListByBoard returns every card of boardID ordered by list then position
func (r *CardRepository) ListByBoard(ctx context.Context, boardID int64) ([]models.Card, error) {
	cards, err := r.queryCards(ctx, `
		SELECT `+cardColumns+` FROM cards c
		JOIN lists l ON c.list_id = l.id
		WHERE l.board_id = ?
		ORDER BY c.list_id, c.position, c.id`, boardID)
	if err != nil {
		return nil, err
	}
	labels, err := r.labelsWhere(ctx, `c.list_id IN (SELECT id FROM lists WHERE board_id = ?)`, boardID)
	if err != nil {
		return nil, err
	}
	return attachLabels(cards, labels), nil
}

// Update overwrites the editable fields and replaces the labels
func (r *CardRepository) Update(ctx context.Context, c *models.Card) (bool, error) {
	var updated bool
	err := database.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		var err error
		updated, err = affected(tx.ExecContext(ctx, `
			UPDATE cards SET title = ?, description = ?, due_date = ?, assigned_to = ?, updated_at = ? WHERE id = ?`,
			c.Title, c.Description, c.DueDate, c.AssignedTo, now(), c.ID))
		if err != nil || !updated {
			return err
		}
		return replaceLabels(ctx, tx, c.ID, c.Labels)
	})
	return updated, err
}

// Move places the card at the 1-based position of targetListID and renumbers both lists densely
func (r *CardRepository) Move(ctx context.Context, cardID, targetListID int64, position int) error {
	return database.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		var sourceListID int64
		if err := tx.QueryRowContext(ctx, `SELECT list_id FROM cards WHERE id = ?`, cardID).Scan(&sourceListID); err != nil {
			return err
		}

		target, err := cardsOfList.ids(ctx, tx, targetListID)
		if err != nil {
			return err
		}
		if err := cardsOfList.renumber(ctx, tx, targetListID, insertAt(without(target, cardID), cardID, position)); err != nil {
			return err
		}
		if sourceListID == targetListID {
			return nil
		}

		source, err := cardsOfList.ids(ctx, tx, sourceListID)
		if err != nil {
			return err
		}
		return cardsOfList.renumber(ctx, tx, sourceListID, without(source, cardID))
	})
}

// Delete removes a card and closes the gap in its list
func (r *CardRepository) Delete(ctx context.Context, cardID int64) (bool, error) {
	var removed bool
	err := database.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		var listID int64
		err := tx.QueryRowContext(ctx, `SELECT list_id FROM cards WHERE id = ?`, cardID).Scan(&listID)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return err
		}
		if removed, err = affected(tx.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, cardID)); err != nil {
			return err
		}
		ids, err := cardsOfList.ids(ctx, tx, listID)
		if err != nil {
			return err
		}
		return cardsOfList.renumber(ctx, tx, listID, ids)
	})
	return removed, err
}

func (r *CardRepository) queryCards(ctx context.Context, query string, args ...interface{}) ([]models.Card, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cards := []models.Card{}
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, *c)
	}
	return cards, rows.Err()
}

func (r *CardRepository) labelsWhere(ctx context.Context, where string, args ...interface{}) (map[int64][]models.Label, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT cl.card_id, cl.text, cl.color
		FROM card_labels cl
		JOIN cards c ON c.id = cl.card_id
		WHERE `+where+`
		ORDER BY cl.id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	labels := make(map[int64][]models.Label)
	for rows.Next() {
		var cardID int64
		var l models.Label
		if err := rows.Scan(&cardID, &l.Text, &l.Color); err != nil {
			return nil, err
		}
		labels[cardID] = append(labels[cardID], l)
	}
	return labels, rows.Err()
}

func attachLabels(cards []models.Card, labels map[int64][]models.Label) []models.Card {
	for i := range cards {
		if l, ok := labels[cards[i].ID]; ok {
			cards[i].Labels = l
		}
	}
	return cards
}

func replaceLabels(ctx context.Context, q database.DBTX, cardID int64, labels []models.Label) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM card_labels WHERE card_id = ?`, cardID); err != nil {
		return err
	}
	for _, l := range labels {
		if _, err := q.ExecContext(ctx,
			`INSERT INTO card_labels (card_id, text, color) VALUES (?, ?, ?)`, cardID, l.Text, l.Color); err != nil {
			return fmt.Errorf("insert card label: %w", err)
		}
	}
	return nil
}
