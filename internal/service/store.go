package service

import (
	"context"
	"time"

	"vehirent/internal/db"
	"vehirent/internal/entities"
)

// Store interfaces are implemented by the Postgres repositories and by the
// in-memory fakes in testutil/memstore.

type UserStore interface {
	CreateUser(ctx context.Context, u *db.User) error
	GetUserByEmail(ctx context.Context, email string) (*db.User, error)
	GetUserByID(ctx context.Context, id int64) (*db.User, error)
}

type VehicleStore interface {
	CreateVehicle(ctx context.Context, v *db.Vehicle) error
	GetVehicle(ctx context.Context, id int64) (*db.Vehicle, error)
	ListVehicles(ctx context.Context, onlyBookable bool) ([]db.Vehicle, error)
	UpdateVehicle(ctx context.Context, v *db.Vehicle) error
	SetApproval(ctx context.Context, id int64, approval db.Approval) error
	DeleteVehicle(ctx context.Context, id int64) error
}

type BookingStore interface {
	ActiveBookings(ctx context.Context, vehicleID int64) ([]db.Booking, error)
	// InsertIfFree must atomically re-check for overlapping active bookings
	// and insert, returning a conflict error when the dates are taken.
	InsertIfFree(ctx context.Context, b *db.Booking) error
	GetBooking(ctx context.Context, id int64) (*db.Booking, error)
	CancelBooking(ctx context.Context, id int64) (bool, error)
	DeleteBooking(ctx context.Context, id int64) error
	ListBookingsByUser(ctx context.Context, userID int64) ([]entities.BookingView, error)
	ListBookingsByVehicle(ctx context.Context, vehicleID int64) ([]entities.BookingView, error)
	ListAllBookings(ctx context.Context) ([]entities.BookingView, error)
}

type PaymentStore interface {
	CreatePayment(ctx context.Context, p *db.Payment) error
	GetPaymentByOrderID(ctx context.Context, orderID string) (*db.Payment, error)
	// CompletePayment must move p from pending to success exactly once.
	CompletePayment(ctx context.Context, p *db.Payment) error
	ListPaymentsByUser(ctx context.Context, userID int64) ([]db.Payment, error)
}

type ReviewStore interface {
	CreateReview(ctx context.Context, r *db.Review) error
	ListReviewsByVehicle(ctx context.Context, vehicleID int64) ([]db.Review, error)
	DeleteReview(ctx context.Context, id int64) error
}

type ReminderStore interface {
	ConfirmedBookingIDsStartingOn(ctx context.Context, day time.Time) ([]int64, error)
	ReminderTargets(ctx context.Context, ids []int64) ([]entities.ReminderTarget, error)
}
