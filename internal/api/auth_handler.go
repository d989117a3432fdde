package api

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"vehirent/internal/entities"
	"vehirent/internal/service"
)

type AuthHandler struct {
	service service.AuthService
	log     *logrus.Logger
}

func NewAuthHandler(svc service.AuthService, log *logrus.Logger) *AuthHandler {
	return &AuthHandler{service: svc, log: log}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req entities.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	resp, err := h.service.Register(r.Context(), req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req entities.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	resp, err := h.service.Login(r.Context(), req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
