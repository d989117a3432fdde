package entities

import "vehirent/internal/db"

type OrderRequest struct {
	Amount float64 `json:"amount"`
}

type Order struct {
	OrderID  string  `json:"order_id"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

type VerifyPaymentRequest struct {
	OrderID   string  `json:"order_id"`
	PaymentID string  `json:"payment_id"`
	Signature string  `json:"signature"`
	VehicleID int64   `json:"vehicle_id"`
	StartDate string  `json:"start_date"`
	EndDate   string  `json:"end_date"`
	Amount    float64 `json:"amount"`
}

type VerifyPaymentResponse struct {
	Success bool        `json:"success"`
	Booking *db.Booking `json:"booking"`
	Payment *db.Payment `json:"payment"`
}
