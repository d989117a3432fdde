package entities

type ReviewRequest struct {
	VehicleID int64  `json:"vehicle_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}
