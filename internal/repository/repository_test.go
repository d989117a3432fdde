package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehirent/internal/db"
	apperrors "vehirent/internal/errors"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn, mock
}

func day(s string) time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return d
}

func TestInsertIfFreeInsertsWhenNoOverlap(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewBookingRepository(conn)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM vehicles WHERE id = \$1 FOR UPDATE`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings`).
		WithArgs(int64(3), day("2025-01-16"), day("2025-01-20")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`INSERT INTO bookings`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(11, now, now))
	mock.ExpectCommit()

	b := &db.Booking{VehicleID: 3, UserID: 5, StartDate: day("2025-01-16"), EndDate: day("2025-01-20"), TotalPrice: 5000}
	require.NoError(t, repo.InsertIfFree(context.Background(), b))
	assert.Equal(t, int64(11), b.ID)
	assert.Equal(t, db.BookingConfirmed, b.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertIfFreeRejectsOverlap(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewBookingRepository(conn)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	b := &db.Booking{VehicleID: 3, UserID: 5, StartDate: day("2025-01-15"), EndDate: day("2025-01-20")}
	err := repo.InsertIfFree(context.Background(), b)
	assert.ErrorIs(t, err, apperrors.ErrBookingConflict)
	assert.Zero(t, b.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertIfFreeMapsExclusionViolation(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewBookingRepository(conn)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectQuery(`SELECT COUNT`).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`INSERT INTO bookings`).
		WillReturnError(&pq.Error{Code: "23P01", Constraint: "bookings_no_overlap"})
	mock.ExpectRollback()

	err := repo.InsertIfFree(context.Background(), &db.Booking{VehicleID: 3, UserID: 5})
	assert.ErrorIs(t, err, apperrors.ErrBookingConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertIfFreeUnknownVehicle(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewBookingRepository(conn)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := repo.InsertIfFree(context.Background(), &db.Booking{VehicleID: 99})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelBookingReportsRepeat(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewBookingRepository(conn)

	mock.ExpectExec(`UPDATE bookings SET status = 'cancelled'`).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE bookings SET status = 'cancelled'`).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	changed, err := repo.CancelBooking(context.Background(), 4)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.CancelBooking(context.Background(), 4)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListBookingsByUserScansOptionalPayment(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewBookingRepository(conn)
	now := time.Now()

	cols := []string{
		"id", "start_date", "end_date", "total_price", "status", "created_at",
		"vid", "title", "price_per_day",
		"uid", "name", "email",
		"pid", "provider_payment_id", "amount", "pstatus",
	}
	mock.ExpectQuery(`FROM bookings b .* WHERE b.user_id = \$1 ORDER BY b.created_at DESC`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(2, day("2025-01-01"), day("2025-01-03"), 3000.0, "confirmed", now,
				3, "Swift", 1000.0, 5, "Asha", "asha@example.com", 9, "pay_1", 3000.0, "success").
			AddRow(1, day("2024-12-01"), day("2024-12-01"), 1000.0, "cancelled", now.Add(-time.Hour),
				3, "Swift", 1000.0, 5, "Asha", "asha@example.com", nil, nil, nil, nil))

	views, err := repo.ListBookingsByUser(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, views, 2)
	require.NotNil(t, views[0].Payment)
	assert.Equal(t, "pay_1", views[0].Payment.ProviderPaymentID)
	assert.Equal(t, "Swift", views[0].Vehicle.Title)
	assert.Nil(t, views[1].Payment)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePaymentDuplicateIsConflict(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewPaymentRepository(conn)

	mock.ExpectQuery(`INSERT INTO payments`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "payments_provider_payment_id_key"})

	err := repo.CreatePayment(context.Background(), &db.Payment{ProviderPaymentID: "pay_1", Status: db.PaymentSuccess})
	assert.ErrorIs(t, err, apperrors.ErrBookingConflict)
	assert.Contains(t, err.Error(), "payment already processed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePaymentDuplicateOrderIsConflict(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewPaymentRepository(conn)

	mock.ExpectQuery(`INSERT INTO payments`).
		WithArgs(int64(5), int64(0), "order_1", "", 3000.0, "inr", "pending").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "payments_provider_order_id_key"})

	err := repo.CreatePayment(context.Background(), &db.Payment{
		UserID: 5, ProviderOrderID: "order_1", Amount: 3000, Currency: "inr", Status: db.PaymentPending,
	})
	assert.ErrorIs(t, err, apperrors.ErrBookingConflict)
	assert.Contains(t, err.Error(), "order already recorded")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPaymentByOrderID(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewPaymentRepository(conn)
	cols := []string{"id", "user_id", "vehicle_id", "provider_order_id", "provider_payment_id", "amount", "currency", "status", "created_at"}

	mock.ExpectQuery(`FROM payments WHERE provider_order_id = \$1`).
		WithArgs("order_1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(7, 5, 0, "order_1", "", 1000.0, "inr", "pending", time.Now()))
	mock.ExpectQuery(`FROM payments WHERE provider_order_id = \$1`).
		WithArgs("order_2").
		WillReturnError(sql.ErrNoRows)

	p, err := repo.GetPaymentByOrderID(context.Background(), "order_1")
	require.NoError(t, err)
	assert.Equal(t, db.PaymentPending, p.Status)
	assert.Equal(t, 1000.0, p.Amount)

	_, err = repo.GetPaymentByOrderID(context.Background(), "order_2")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompletePaymentOnlyOnce(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewPaymentRepository(conn)

	mock.ExpectExec(`UPDATE payments SET status = 'success'.*WHERE id = \$1 AND status = 'pending'`).
		WithArgs(int64(7), "pay_1", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE payments SET status = 'success'`).
		WithArgs(int64(7), "pay_1", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`UPDATE payments SET status = 'success'`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "payments_provider_payment_id_key"})

	p := &db.Payment{ID: 7, ProviderPaymentID: "pay_1", VehicleID: 3, Status: db.PaymentPending}
	require.NoError(t, repo.CompletePayment(context.Background(), p))
	assert.Equal(t, db.PaymentSuccess, p.Status)

	err := repo.CompletePayment(context.Background(), p)
	assert.ErrorIs(t, err, apperrors.ErrBookingConflict)

	err = repo.CompletePayment(context.Background(), &db.Payment{ID: 8, ProviderPaymentID: "pay_1", VehicleID: 3})
	assert.ErrorIs(t, err, apperrors.ErrBookingConflict)
	assert.Contains(t, err.Error(), "payment already processed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteVehicleRefusesActiveBookings(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewVehicleRepository(conn)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM vehicles WHERE id = \$1 FOR UPDATE`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings WHERE vehicle_id = \$1 AND status <> 'cancelled'`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	err := repo.DeleteVehicle(context.Background(), 3)
	assert.ErrorIs(t, err, apperrors.ErrBookingConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteVehicleKeepsPaymentRecords(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewVehicleRepository(conn)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectQuery(`SELECT COUNT`).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`DELETE FROM vehicles WHERE id = \$1`).
		WithArgs(int64(3)).
		WillReturnError(&pq.Error{Code: "23503", Constraint: "payments_vehicle_id_fkey"})
	mock.ExpectRollback()

	err := repo.DeleteVehicle(context.Background(), 3)
	assert.ErrorIs(t, err, apperrors.ErrBookingConflict)
	assert.Contains(t, err.Error(), "payment records")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteVehicle(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewVehicleRepository(conn)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectQuery(`SELECT COUNT`).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`DELETE FROM vehicles`).WithArgs(int64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	require.NoError(t, repo.DeleteVehicle(context.Background(), 3))

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()
	assert.ErrorIs(t, repo.DeleteVehicle(context.Background(), 9), apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewUserRepository(conn)

	mock.ExpectQuery(`INSERT INTO users`).WillReturnError(&pq.Error{Code: "23505"})

	err := repo.CreateUser(context.Background(), &db.User{Email: "a@example.com"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestGetVehicleNotFound(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewVehicleRepository(conn)

	mock.ExpectQuery(`FROM vehicles WHERE id = \$1`).WithArgs(int64(8)).WillReturnError(sql.ErrNoRows)

	_, err := repo.GetVehicle(context.Background(), 8)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestListVehiclesOnlyBookable(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewVehicleRepository(conn)
	now := time.Now()

	mock.ExpectQuery(`WHERE available AND approval = 'approved'`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "title", "brand", "model", "description",
			"price_per_day", "available", "approval", "created_at", "updated_at"}).
			AddRow(1, 2, "Swift", "Suzuki", "VXi", "", 1000.0, true, "approved", now, now))

	vehicles, err := repo.ListVehicles(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, vehicles, 1)
	assert.True(t, vehicles[0].Bookable())
}

func TestDeleteReviewMissing(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewReviewRepository(conn)

	mock.ExpectExec(`DELETE FROM reviews`).WithArgs(int64(7)).WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.DeleteReview(context.Background(), 7), apperrors.ErrNotFound)
}

func TestReminderTargets(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewJobRepository(conn)

	mock.ExpectQuery(`SELECT id FROM bookings WHERE status = 'confirmed' AND start_date = \$1`).
		WithArgs(day("2025-01-02")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(4).AddRow(6))
	mock.ExpectQuery(`WHERE b.id = ANY\(\$1\)`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "start_date", "end_date", "total_price", "name", "email", "phone", "title"}).
			AddRow(4, day("2025-01-02"), day("2025-01-04"), 3000.0, "Asha", "asha@example.com", "+911234567890", "Swift"))

	ids, err := repo.ConfirmedBookingIDsStartingOn(context.Background(), day("2025-01-02"))
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 6}, ids)

	targets, err := repo.ReminderTargets(context.Background(), ids)
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, "Swift", targets[0].VehicleTitle)
	assert.NoError(t, mock.ExpectationsWereMet())

	none, err := repo.ReminderTargets(context.Background(), nil)
	assert.NoError(t, err)
	assert.Empty(t, none)
}
