package api

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"vehirent/internal/entities"
	"vehirent/internal/service"
)

type PaymentHandler struct {
	Service *service.PaymentService
	log     *logrus.Logger
}

func NewPaymentHandler(svc *service.PaymentService, log *logrus.Logger) *PaymentHandler {
	return &PaymentHandler{Service: svc, log: log}
}

func (h *PaymentHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFrom(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	var req entities.OrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	order, err := h.Service.CreateOrder(r.Context(), claims.UserID, req.Amount)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// Verify confirms a provider payment and books the vehicle in one call.
func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFrom(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	var req entities.VerifyPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	resp, err := h.Service.Verify(r.Context(), claims.UserID, req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *PaymentHandler) History(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFrom(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	payments, err := h.Service.History(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, payments)
}
