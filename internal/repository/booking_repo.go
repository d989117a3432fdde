package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"vehirent/internal/db"
	"vehirent/internal/entities"
	apperrors "vehirent/internal/errors"
)

type BookingRepository struct {
	DB *sql.DB
}

func NewBookingRepository(conn *sql.DB) *BookingRepository {
	return &BookingRepository{DB: conn}
}

const bookingColumns = `id, vehicle_id, user_id, start_date, end_date, total_price, status, payment_id, created_at, updated_at`

func scanBooking(row interface{ Scan(...interface{}) error }, b *db.Booking) error {
	var paymentID sql.NullInt64
	err := row.Scan(&b.ID, &b.VehicleID, &b.UserID, &b.StartDate, &b.EndDate,
		&b.TotalPrice, &b.Status, &paymentID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return err
	}
	if paymentID.Valid {
		id := paymentID.Int64
		b.PaymentID = &id
	}
	return nil
}

// ActiveBookings returns the non-cancelled bookings of a vehicle ordered by start date.
func (r *BookingRepository) ActiveBookings(ctx context.Context, vehicleID int64) ([]db.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
		WHERE vehicle_id = $1 AND status <> 'cancelled'
		ORDER BY start_date`
	rows, err := r.DB.QueryContext(ctx, query, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("error querying active bookings: %w", err)
	}
	defer rows.Close()

	bookings := []db.Booking{}
	for rows.Next() {
		var b db.Booking
		if err := scanBooking(rows, &b); err != nil {
			return nil, fmt.Errorf("error scanning booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating bookings: %w", err)
	}
	return bookings, nil
}

// InsertIfFree inserts b only if no active booking of the same vehicle overlaps
// its dates. The vehicle row is locked for the duration of the transaction, so
// concurrent inserts for one vehicle are serialized across processes.
func (r *BookingRepository) InsertIfFree(ctx context.Context, b *db.Booking) (err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting booking transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var locked int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM vehicles WHERE id = $1 FOR UPDATE`, b.VehicleID).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NotFound(fmt.Sprintf("vehicle %d not found", b.VehicleID))
	}
	if err != nil {
		return fmt.Errorf("error locking vehicle %d: %w", b.VehicleID, err)
	}

	var overlapping int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM bookings
		WHERE vehicle_id = $1 AND status <> 'cancelled'
		AND start_date <= $3 AND end_date >= $2`,
		b.VehicleID, b.StartDate, b.EndDate,
	).Scan(&overlapping)
	if err != nil {
		return fmt.Errorf("error counting overlapping bookings: %w", err)
	}
	if overlapping > 0 {
		return apperrors.Conflict("vehicle is already booked for the selected dates")
	}

	if b.Status == "" {
		b.Status = db.BookingConfirmed
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO bookings (vehicle_id, user_id, start_date, end_date, total_price, status, payment_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`,
		b.VehicleID, b.UserID, b.StartDate, b.EndDate, b.TotalPrice, b.Status, b.PaymentID,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return mapBookingInsertError(err)
	}

	if err = tx.Commit(); err != nil {
		return mapBookingInsertError(err)
	}
	return nil
}

func mapBookingInsertError(err error) error {
	switch pqCode(err) {
	case codeExclusionViolation:
		return apperrors.Conflict("vehicle is already booked for the selected dates")
	case codeUniqueViolation:
		return apperrors.Conflict("payment is already linked to a booking")
	case codeForeignKeyViolation:
		return apperrors.NotFound("referenced vehicle, user or payment not found")
	}
	return fmt.Errorf("error inserting booking: %w", err)
}

func (r *BookingRepository) GetBooking(ctx context.Context, id int64) (*db.Booking, error) {
	var b db.Booking
	err := scanBooking(r.DB.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id), &b)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound(fmt.Sprintf("booking %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("error querying booking %d: %w", id, err)
	}
	return &b, nil
}

// CancelBooking flips a confirmed booking to cancelled. It reports false when
// the booking was already cancelled.
func (r *BookingRepository) CancelBooking(ctx context.Context, id int64) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE bookings SET status = 'cancelled', updated_at = NOW() WHERE id = $1 AND status <> 'cancelled'`, id)
	if err != nil {
		return false, fmt.Errorf("error cancelling booking %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("could not get rows affected: %w", err)
	}
	return n == 1, nil
}

func (r *BookingRepository) DeleteBooking(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting booking %d: %w", id, err)
	}
	return expectOneRow(res, fmt.Sprintf("booking %d not found", id))
}

const bookingViewQuery = `
	SELECT
		b.id, b.start_date, b.end_date, b.total_price, b.status, b.created_at,
		v.id, v.title, v.price_per_day,
		u.id, u.name, u.email,
		p.id, p.provider_payment_id, p.amount, p.status
	FROM bookings b
	JOIN vehicles v ON v.id = b.vehicle_id
	JOIN users u ON u.id = b.user_id
	LEFT JOIN payments p ON p.id = b.payment_id`

func (r *BookingRepository) ListBookingsByUser(ctx context.Context, userID int64) ([]entities.BookingView, error) {
	return r.listViews(ctx, bookingViewQuery+` WHERE b.user_id = $1 ORDER BY b.created_at DESC`, userID)
}

func (r *BookingRepository) ListBookingsByVehicle(ctx context.Context, vehicleID int64) ([]entities.BookingView, error) {
	return r.listViews(ctx, bookingViewQuery+` WHERE b.vehicle_id = $1 ORDER BY b.start_date`, vehicleID)
}

func (r *BookingRepository) ListAllBookings(ctx context.Context) ([]entities.BookingView, error) {
	return r.listViews(ctx, bookingViewQuery+` ORDER BY b.created_at DESC`)
}

func (r *BookingRepository) listViews(ctx context.Context, query string, args ...interface{}) ([]entities.BookingView, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying bookings: %w", err)
	}
	defer rows.Close()

	views := []entities.BookingView{}
	for rows.Next() {
		var (
			v          entities.BookingView
			payID      sql.NullInt64
			providerID sql.NullString
			payAmount  sql.NullFloat64
			payStatus  sql.NullString
		)
		err := rows.Scan(
			&v.ID, &v.StartDate, &v.EndDate, &v.TotalPrice, &v.Status, &v.CreatedAt,
			&v.Vehicle.ID, &v.Vehicle.Title, &v.Vehicle.PricePerDay,
			&v.User.ID, &v.User.Name, &v.User.Email,
			&payID, &providerID, &payAmount, &payStatus,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning booking row: %w", err)
		}
		if payID.Valid {
			v.Payment = &entities.PaymentSummary{
				ID:                payID.Int64,
				ProviderPaymentID: providerID.String,
				Amount:            payAmount.Float64,
				Status:            payStatus.String,
			}
		}
		views = append(views, v)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating bookings: %w", err)
	}
	return views, nil
}
