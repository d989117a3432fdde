package entities

// NotificationData feeds the email and SMS templates.
type NotificationData struct {
	UserName           string
	BookingID          int64
	VehicleTitle       string
	StartDateFormatted string
	EndDateFormatted   string
	Days               int
	TotalPrice         string
	Currency           string
	InvoiceURL         string
	CurrentYear        int
}

type InvoiceData struct {
	InvoiceNumber     string
	IssuedAt          string
	UserName          string
	UserEmail         string
	VehicleTitle      string
	StartDate         string
	EndDate           string
	Days              int
	PricePerDay       string
	Total             string
	Currency          string
	ProviderOrderID   string
	ProviderPaymentID string
}
