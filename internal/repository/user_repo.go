package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"vehirent/internal/db"
	apperrors "vehirent/internal/errors"
)

type UserRepository struct {
	DB *sql.DB
}

func NewUserRepository(conn *sql.DB) *UserRepository {
	return &UserRepository{DB: conn}
}

func (r *UserRepository) CreateUser(ctx context.Context, u *db.User) error {
	query := `
		INSERT INTO users (name, email, phone, password_hash, is_admin)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`
	err := r.DB.QueryRowContext(ctx, query, u.Name, u.Email, u.Phone, u.PasswordHash, u.IsAdmin).
		Scan(&u.ID, &u.CreatedAt)
	if pqCode(err) == codeUniqueViolation {
		return apperrors.Validation("email already registered")
	}
	if err != nil {
		return fmt.Errorf("error inserting user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*db.User, error) {
	return r.getOne(ctx, `WHERE email = $1`, email)
}

func (r *UserRepository) GetUserByID(ctx context.Context, id int64) (*db.User, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

func (r *UserRepository) getOne(ctx context.Context, where string, arg interface{}) (*db.User, error) {
	var u db.User
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, name, email, phone, password_hash, is_admin, created_at FROM users `+where, arg).
		Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("error querying user: %w", err)
	}
	return &u, nil
}
