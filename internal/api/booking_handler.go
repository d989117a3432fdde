package api

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"vehirent/internal/entities"
	apperrors "vehirent/internal/errors"
	"vehirent/internal/service"
	"vehirent/internal/utils"
)

type BookingHandler struct {
	Service *service.BookingService
	log     *logrus.Logger
}

func NewBookingHandler(svc *service.BookingService, log *logrus.Logger) *BookingHandler {
	return &BookingHandler{Service: svc, log: log}
}

func parseRange(start, end string) (utils.DateRange, error) {
	if start == "" || end == "" {
		return utils.DateRange{}, apperrors.Validation("start_date and end_date are required")
	}
	rng, err := utils.ParseDateRange(start, end)
	if err != nil {
		return utils.DateRange{}, apperrors.Validation(err.Error())
	}
	return rng, nil
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFrom(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	var req entities.BookingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if req.VehicleID <= 0 {
		writeError(w, r, h.log, apperrors.Validation("vehicle_id is required"))
		return
	}
	rng, err := parseRange(req.StartDate, req.EndDate)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	booking, err := h.Service.Create(r.Context(), service.CreateBookingInput{
		VehicleID:   req.VehicleID,
		UserID:      claims.UserID,
		Range:       rng,
		ClientTotal: req.ClientTotal(),
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, BookingResponse{Message: "Booking confirmed.", Booking: booking})
}

func (h *BookingHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	var req entities.AvailabilityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if req.VehicleID <= 0 {
		writeError(w, r, h.log, apperrors.Validation("vehicle_id is required"))
		return
	}
	rng, err := parseRange(req.StartDate, req.EndDate)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	availability, err := h.Service.Availability.Check(r.Context(), req.VehicleID, rng)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, availability)
}

// VehicleBookings lists the booked ranges of a vehicle for calendar display.
func (h *BookingHandler) VehicleBookings(w http.ResponseWriter, r *http.Request) {
	vehicleID, err := pathID(r, "vehicleId")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	ranges, err := h.Service.Availability.BookedRanges(r.Context(), vehicleID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, ranges)
}

func (h *BookingHandler) MyBookings(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFrom(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	views, err := h.Service.ListForUser(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, entities.BookingsList{Total: len(views), Bookings: views})
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFrom(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	booking, err := h.Service.Cancel(r.Context(), id, claims)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, BookingResponse{Message: "Booking cancelled.", Booking: booking})
}
