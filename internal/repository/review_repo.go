package repository

import (
	"context"
	"database/sql"
	"fmt"

	"vehirent/internal/db"
	apperrors "vehirent/internal/errors"
)

type ReviewRepository struct {
	DB *sql.DB
}

func NewReviewRepository(conn *sql.DB) *ReviewRepository {
	return &ReviewRepository{DB: conn}
}

func (r *ReviewRepository) CreateReview(ctx context.Context, rv *db.Review) error {
	query := `
		INSERT INTO reviews (user_id, vehicle_id, rating, comment)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`
	err := r.DB.QueryRowContext(ctx, query, rv.UserID, rv.VehicleID, rv.Rating, rv.Comment).
		Scan(&rv.ID, &rv.CreatedAt)
	switch pqCode(err) {
	case codeUniqueViolation:
		return apperrors.Conflict("vehicle already reviewed by this user")
	case codeForeignKeyViolation:
		return apperrors.NotFound(fmt.Sprintf("vehicle %d not found", rv.VehicleID))
	}
	if err != nil {
		return fmt.Errorf("error inserting review: %w", err)
	}
	return nil
}

func (r *ReviewRepository) ListReviewsByVehicle(ctx context.Context, vehicleID int64) ([]db.Review, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, user_id, vehicle_id, rating, comment, created_at
		FROM reviews WHERE vehicle_id = $1 ORDER BY created_at DESC`, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("error querying reviews: %w", err)
	}
	defer rows.Close()

	reviews := []db.Review{}
	for rows.Next() {
		var rv db.Review
		if err := rows.Scan(&rv.ID, &rv.UserID, &rv.VehicleID, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning review: %w", err)
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}

func (r *ReviewRepository) DeleteReview(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting review %d: %w", id, err)
	}
	return expectOneRow(res, fmt.Sprintf("review %d not found", id))
}
