package api

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"vehirent/internal/entities"
	"vehirent/internal/service"
)

type ReviewHandler struct {
	Service *service.ReviewService
	log     *logrus.Logger
}

func NewReviewHandler(svc *service.ReviewService, log *logrus.Logger) *ReviewHandler {
	return &ReviewHandler{Service: svc, log: log}
}

func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFrom(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	var req entities.ReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	review, err := h.Service.Create(r.Context(), claims.UserID, req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, review)
}

func (h *ReviewHandler) ListForVehicle(w http.ResponseWriter, r *http.Request) {
	vehicleID, err := pathID(r, "vehicleId")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	reviews, err := h.Service.ListForVehicle(r.Context(), vehicleID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}
