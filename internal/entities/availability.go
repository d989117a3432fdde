package entities

import "time"

type BookedRange struct {
	BookingID int64     `json:"booking_id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

type Availability struct {
	VehicleID  int64         `json:"vehicle_id"`
	Available  bool          `json:"available"`
	StartDate  time.Time     `json:"start_date"`
	EndDate    time.Time     `json:"end_date"`
	Conflicts  []BookedRange `json:"conflicts,omitempty"`
	Days       int           `json:"days,omitempty"`
	TotalPrice float64       `json:"total_price,omitempty"`
}
