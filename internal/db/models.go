package db

import "time"

type Approval string

const (
	ApprovalPending  Approval = "pending"
	ApprovalApproved Approval = "approved"
	ApprovalRejected Approval = "rejected"
)

type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentSuccess PaymentStatus = "success"
	PaymentFailed  PaymentStatus = "failed"
	PaymentPending PaymentStatus = "pending"
)

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
}

type Vehicle struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"owner_id"`
	Title       string    `json:"title"`
	Brand       string    `json:"brand"`
	Model       string    `json:"model"`
	Description string    `json:"description"`
	PricePerDay float64   `json:"price_per_day"`
	Available   bool      `json:"available"`
	Approval    Approval  `json:"approval"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Bookable reports whether new bookings may be placed on the vehicle.
func (v *Vehicle) Bookable() bool {
	return v.Available && v.Approval == ApprovalApproved
}

type Booking struct {
	ID         int64         `json:"id"`
	VehicleID  int64         `json:"vehicle_id"`
	UserID     int64         `json:"user_id"`
	StartDate  time.Time     `json:"start_date"`
	EndDate    time.Time     `json:"end_date"`
	TotalPrice float64       `json:"total_price"`
	Status     BookingStatus `json:"status"`
	PaymentID  *int64        `json:"payment_id,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

func (b *Booking) Active() bool {
	return b.Status != BookingCancelled
}

// Payment starts as a pending provider order and becomes success once the
// provider payment is verified. VehicleID and ProviderPaymentID are set then.
type Payment struct {
	ID                int64         `json:"id"`
	UserID            int64         `json:"user_id"`
	VehicleID         int64         `json:"vehicle_id,omitempty"`
	ProviderOrderID   string        `json:"order_id"`
	ProviderPaymentID string        `json:"payment_id,omitempty"`
	Amount            float64       `json:"amount"`
	Currency          string        `json:"currency"`
	Status            PaymentStatus `json:"status"`
	CreatedAt         time.Time     `json:"created_at"`
}

type Review struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	VehicleID int64     `json:"vehicle_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}
