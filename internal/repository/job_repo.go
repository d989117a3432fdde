package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"vehirent/internal/entities"
)

type JobRepository struct {
	DB *sql.DB
}

func NewJobRepository(conn *sql.DB) *JobRepository {
	return &JobRepository{DB: conn}
}

// ConfirmedBookingIDsStartingOn returns confirmed bookings whose start date is day.
func (r *JobRepository) ConfirmedBookingIDsStartingOn(ctx context.Context, day time.Time) ([]int64, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id FROM bookings WHERE status = 'confirmed' AND start_date = $1 ORDER BY id`, day)
	if err != nil {
		return nil, fmt.Errorf("error querying bookings starting on %s: %w", day.Format("2006-01-02"), err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning booking ID: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating rows: %w", err)
	}
	return ids, nil
}

// ReminderTargets loads user and vehicle details for the given bookings.
func (r *JobRepository) ReminderTargets(ctx context.Context, ids []int64) ([]entities.ReminderTarget, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `
		SELECT b.id, b.start_date, b.end_date, b.total_price, u.name, u.email, u.phone, v.title
		FROM bookings b
		JOIN users u ON u.id = b.user_id
		JOIN vehicles v ON v.id = b.vehicle_id
		WHERE b.id = ANY($1) AND b.status = 'confirmed'
		ORDER BY b.id`
	rows, err := r.DB.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("error querying reminder targets: %w", err)
	}
	defer rows.Close()

	var targets []entities.ReminderTarget
	for rows.Next() {
		var t entities.ReminderTarget
		if err := rows.Scan(&t.BookingID, &t.StartDate, &t.EndDate, &t.TotalPrice,
			&t.UserName, &t.UserEmail, &t.UserPhone, &t.VehicleTitle); err != nil {
			return nil, fmt.Errorf("error scanning reminder target: %w", err)
		}
		targets = append(targets, t)
	}
	return targets, rows.Err()
}
