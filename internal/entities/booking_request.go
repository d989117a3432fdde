package entities

type BookingRequest struct {
	VehicleID  int64    `json:"vehicle_id"`
	StartDate  string   `json:"start_date"`
	EndDate    string   `json:"end_date"`
	TotalPrice *float64 `json:"total_price,omitempty"`
	// Amount is accepted as an alias of total_price.
	Amount *float64 `json:"amount,omitempty"`
}

// ClientTotal returns whichever price field the client sent.
func (r BookingRequest) ClientTotal() *float64 {
	if r.TotalPrice != nil {
		return r.TotalPrice
	}
	return r.Amount
}

type AvailabilityRequest struct {
	VehicleID int64  `json:"vehicle_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}
