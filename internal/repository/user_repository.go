package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nikhil/teamtasks/internal/models"
)

const userColumns = `id, username, email, password, full_name, role, created_at, updated_at`

// UserRepository handles the users table
type UserRepository struct {
	DB *sql.DB
}

// NewUserRepository creates a UserRepository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func scanUser(s scanner) (*models.User, error) {
	var u models.User
	if err := s.Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.FullName, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) queryUsers(ctx context.Context, query string, args ...interface{}) ([]models.User, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// Create inserts u and fills in its id and timestamps
func (r *UserRepository) Create(ctx context.Context, u *models.User) (int64, error) {
	ts := now()
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	result, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (username, email, password, full_name, role, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.Username, u.Email, u.Password, u.FullName, u.Role, ts, ts)
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	u.ID, u.CreatedAt, u.UpdatedAt = id, ts, ts
	return id, nil
}

// GetByID returns a user, password hash included
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

// GetByEmail returns the user owning email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
}

// EmailExists reports whether an account already uses email
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`, email).Scan(&exists)
	return exists, err
}

// List returns every user ordered by id
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	return r.queryUsers(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
}

// Search matches term against username, email and full name
func (r *UserRepository) Search(ctx context.Context, term string) ([]models.User, error) {
	like := "%" + term + "%"
	return r.queryUsers(ctx,
		`SELECT `+userColumns+` FROM users WHERE username LIKE ? OR email LIKE ? OR full_name LIKE ? ORDER BY username LIMIT 50`,
		like, like, like)
}

// UpdateProfile changes the self-service fields
func (r *UserRepository) UpdateProfile(ctx context.Context, id int64, username, fullName string) (bool, error) {
	return affected(r.DB.ExecContext(ctx,
		`UPDATE users SET username = ?, full_name = ?, updated_at = ? WHERE id = ?`,
		username, fullName, now(), id))
}

// UpdatePassword stores a new password hash
func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, hash string) (bool, error) {
	return affected(r.DB.ExecContext(ctx,
		`UPDATE users SET password = ?, updated_at = ? WHERE id = ?`, hash, now(), id))
}

// Update changes the admin-managed fields
func (r *UserRepository) Update(ctx context.Context, u *models.User) (bool, error) {
	return affected(r.DB.ExecContext(ctx,
		`UPDATE users SET username = ?, email = ?, full_name = ?, role = ?, updated_at = ? WHERE id = ?`,
		u.Username, u.Email, u.FullName, u.Role, now(), u.ID))
}

// UpdateRole changes only the account role
func (r *UserRepository) UpdateRole(ctx context.Context, id int64, role string) (bool, error) {
	return affected(r.DB.ExecContext(ctx,
		`UPDATE users SET role = ?, updated_at = ? WHERE id = ?`, role, now(), id))
}

// Delete removes a user
func (r *UserRepository) Delete(ctx context.Context, id int64) (bool, error) {
	return affected(r.DB.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id))
}
