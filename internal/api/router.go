package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"vehirent/internal/auth"
	"vehirent/internal/service"
)

// Services groups what the router needs to build its handlers.
type Services struct {
	Auth     service.AuthService
	Bookings *service.BookingService
	Payments *service.PaymentService
	Vehicles *service.VehicleService
	Reviews  *service.ReviewService
}

func NewRouter(svc Services, issuer *auth.TokenIssuer, db Pinger, log *logrus.Logger) *mux.Router {
	authHandler := NewAuthHandler(svc.Auth, log)
	bookingHandler := NewBookingHandler(svc.Bookings, log)
	paymentHandler := NewPaymentHandler(svc.Payments, log)
	vehicleHandler := NewVehicleHandler(svc.Vehicles, log)
	reviewHandler := NewReviewHandler(svc.Reviews, log)
	adminHandler := NewAdminHandler(svc.Bookings, svc.Vehicles, svc.Reviews, log)
	health := NewHealthHandler(db)

	requireUser := auth.Middleware(issuer)
	user := func(h http.HandlerFunc) http.Handler { return requireUser(h) }
	admin := func(h http.HandlerFunc) http.Handler { return requireUser(auth.AdminOnly(h)) }

	r := mux.NewRouter()
	r.HandleFunc("/healthz", health.Live).Methods("GET")
	r.HandleFunc("/livez", health.Live).Methods("GET")
	r.HandleFunc("/readyz", health.Ready).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Auth
	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	// Bookings
	api.HandleFunc("/bookings/availability", bookingHandler.CheckAvailability).Methods("POST")
	api.HandleFunc("/bookings/vehicle/{vehicleId:[0-9]+}", bookingHandler.VehicleBookings).Methods("GET")
	api.Handle("/bookings", user(bookingHandler.Create)).Methods("POST")
	api.Handle("/bookings/my-bookings", user(bookingHandler.MyBookings)).Methods("GET")
	api.Handle("/bookings/cancel/{id:[0-9]+}", user(bookingHandler.Cancel)).Methods("PATCH")
	api.Handle("/bookings/admin", admin(adminHandler.ListBookings)).Methods("GET")
	api.Handle("/bookings/admin/vehicle/{vehicleId:[0-9]+}", admin(adminHandler.ListVehicleBookings)).Methods("GET")
	api.Handle("/bookings/{id:[0-9]+}", admin(adminHandler.DeleteBooking)).Methods("DELETE")

	// Payments
	api.Handle("/payment/orders", user(paymentHandler.CreateOrder)).Methods("POST")
	api.Handle("/payment/verify", user(paymentHandler.Verify)).Methods("POST")
	api.Handle("/payment/history", user(paymentHandler.History)).Methods("GET")

	// Vehicles
	api.HandleFunc("/vehicles", vehicleHandler.List).Methods("GET")
	api.HandleFunc("/vehicles/{id:[0-9]+}", vehicleHandler.Get).Methods("GET")
	api.Handle("/vehicles", user(vehicleHandler.Create)).Methods("POST")
	api.Handle("/vehicles/{id:[0-9]+}", user(vehicleHandler.Update)).Methods("PUT")
	api.Handle("/vehicles/{id:[0-9]+}", user(vehicleHandler.Delete)).Methods("DELETE")

	// Reviews
	api.HandleFunc("/reviews/vehicle/{vehicleId:[0-9]+}", reviewHandler.ListForVehicle).Methods("GET")
	api.Handle("/reviews", user(reviewHandler.Create)).Methods("POST")

	// Admin endpoints (protected)
	adminRouter := api.PathPrefix("/admin").Subrouter()
	adminRouter.Use(requireUser, auth.AdminOnly)
	adminRouter.HandleFunc("/vehicles", adminHandler.ListVehicles).Methods("GET")
	adminRouter.HandleFunc("/vehicles/{id:[0-9]+}/approval", adminHandler.SetVehicleApproval).Methods("PATCH")
	adminRouter.HandleFunc("/reviews/{id:[0-9]+}", adminHandler.DeleteReview).Methods("DELETE")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "route not found"})
	})
	return r
}
