package entities

type VehicleRequest struct {
	Title       string  `json:"title"`
	Brand       string  `json:"brand"`
	Model       string  `json:"model"`
	Description string  `json:"description"`
	PricePerDay float64 `json:"price_per_day"`
	Available   *bool   `json:"available,omitempty"`
}

type ApprovalRequest struct {
	Approval string `json:"approval"`
}
