package api

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// BookingResponse wraps a single booking with a human readable message.
type BookingResponse struct {
	Message string      `json:"message"`
	Booking interface{} `json:"booking"`
}

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}
