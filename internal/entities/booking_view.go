package entities

import "time"

type VehicleSummary struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	PricePerDay float64 `json:"price_per_day"`
}

type UserSummary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type PaymentSummary struct {
	ID                int64   `json:"id"`
	ProviderPaymentID string  `json:"payment_id"`
	Amount            float64 `json:"amount"`
	Status            string  `json:"status"`
}

// BookingView is a booking joined with what list screens show next to it.
type BookingView struct {
	ID         int64           `json:"id"`
	StartDate  time.Time       `json:"start_date"`
	EndDate    time.Time       `json:"end_date"`
	TotalPrice float64         `json:"total_price"`
	Status     string          `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	Vehicle    VehicleSummary  `json:"vehicle"`
	User       UserSummary     `json:"user"`
	Payment    *PaymentSummary `json:"payment,omitempty"`
}

type BookingsList struct {
	Total    int           `json:"total"`
	Bookings []BookingView `json:"bookings"`
}

// ReminderTarget is everything a reminder message needs about one booking.
type ReminderTarget struct {
	BookingID    int64
	StartDate    time.Time
	EndDate      time.Time
	TotalPrice   float64
	UserName     string
	UserEmail    string
	UserPhone    string
	VehicleTitle string
}
