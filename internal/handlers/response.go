package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"library-catalog/internal/models"

	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

func respondWithXML(w http.ResponseWriter, code int, body []byte) {
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(code)
	w.Write(body)
}

func respondWithError(w http.ResponseWriter, code int, errorCode, message string) {
	respondWithJSON(w, code, map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// respondWithServiceError maps a service error onto a status code. Domain
// errors keep their message; anything else is logged and reported as a
// generic internal error. notFoundStatus lets routes report a missing
// resource as 404 or 400.
func respondWithServiceError(w http.ResponseWriter, logger zerolog.Logger, err error, notFoundStatus int) {
	var domainErr *models.Error
	if !errors.As(err, &domainErr) {
		logger.Error().Err(err).Msg("Request failed")
		respondWithError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
		return
	}

	status := http.StatusBadRequest
	switch domainErr.Kind {
	case models.KindNotFound:
		status = notFoundStatus
	case models.KindUnauthenticated:
		status = http.StatusUnauthorized
	case models.KindForbidden:
		status = http.StatusForbidden
	}
	respondWithError(w, status, string(domainErr.Kind), domainErr.Error())
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var domainErr *models.Error
		if errors.As(err, &domainErr) {
			respondWithError(w, http.StatusBadRequest, string(domainErr.Kind), domainErr.Error())
			return false
		}
		respondWithError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return false
	}
	return true
}
