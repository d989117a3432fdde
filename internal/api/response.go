package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"vehirent/internal/auth"
	apperrors "vehirent/internal/errors"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Warn("failed to encode response")
	}
}

// writeError maps err to its HTTP status. Unexpected errors are logged with
// the request and answered with a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, log *logrus.Logger, err error) {
	he := apperrors.FromError(err)
	if he.Code >= http.StatusInternalServerError {
		log.WithError(err).WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
			"status": he.Code,
		}).Error("request failed")
	}
	writeJSON(w, he.Code, ErrorResponse{Error: he.KindName(), Message: he.Message})
}

func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.Validation("invalid request body")
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.Validation("invalid " + name)
	}
	return id, nil
}

func claimsFrom(r *http.Request) (*auth.Claims, error) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		return nil, apperrors.Unauthorized("authorization header required")
	}
	return claims, nil
}
