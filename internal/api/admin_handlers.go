package api

import (
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"vehirent/internal/entities"
	"vehirent/internal/service"
)

// AdminHandler serves the admin-only views over bookings, vehicles and reviews.
type AdminHandler struct {
	Bookings *service.BookingService
	Vehicles *service.VehicleService
	Reviews  *service.ReviewService
	log      *logrus.Logger
}

func NewAdminHandler(bookings *service.BookingService, vehicles *service.VehicleService, reviews *service.ReviewService, log *logrus.Logger) *AdminHandler {
	return &AdminHandler{Bookings: bookings, Vehicles: vehicles, Reviews: reviews, log: log}
}

func filterStatus(views []entities.BookingView, status string) []entities.BookingView {
	status = strings.ToLower(strings.TrimSpace(status))
	if status == "" {
		return views
	}
	out := make([]entities.BookingView, 0, len(views))
	for _, v := range views {
		if v.Status == status {
			out = append(out, v)
		}
	}
	return out
}

// ListBookings accepts an optional ?status= filter.
func (h *AdminHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	views, err := h.Bookings.ListAll(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	views = filterStatus(views, r.URL.Query().Get("status"))
	writeJSON(w, http.StatusOK, entities.BookingsList{Total: len(views), Bookings: views})
}

func (h *AdminHandler) ListVehicleBookings(w http.ResponseWriter, r *http.Request) {
	vehicleID, err := pathID(r, "vehicleId")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	views, err := h.Bookings.ListForVehicle(r.Context(), vehicleID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	views = filterStatus(views, r.URL.Query().Get("status"))
	writeJSON(w, http.StatusOK, entities.BookingsList{Total: len(views), Bookings: views})
}

func (h *AdminHandler) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if err := h.Bookings.Delete(r.Context(), id); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Booking deleted"})
}

func (h *AdminHandler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	vehicles, err := h.Vehicles.ListAll(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, vehicles)
}

func (h *AdminHandler) SetVehicleApproval(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	var req entities.ApprovalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	vehicle, err := h.Vehicles.SetApproval(r.Context(), id, req.Approval)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, vehicle)
}

func (h *AdminHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if err := h.Reviews.Delete(r.Context(), id); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Review deleted"})
}
