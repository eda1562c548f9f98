package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"fersal/internal/middleware"
	"fersal/internal/model"

	"github.com/rs/zerolog"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes a standardised error response carrying a stable code and
// the request's correlation ID.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, logger zerolog.Logger) {
	correlationID := middleware.CorrelationIDFrom(r.Context())
	logger.Error().
		Str("code", code).
		Str("error", message).
		Int("status", status).
		Str("correlation_id", correlationID).
		Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{
		Error:         code,
		Message:       message,
		CorrelationID: correlationID,
	})
}

// writeDomainError maps a domain error to its response, falling back to a
// generic 500 for anything unrecognised.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error, logger zerolog.Logger) {
	var derr *model.DomainError
	if !errors.As(err, &derr) {
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "internal server error", logger)
		return
	}
	writeError(w, r, domainErrorStatus(derr.Code), derr.Code, derr.Message, logger)
}

// domainErrorStatus picks the HTTP status for a domain error code.
func domainErrorStatus(code string) int {
	switch code {
	case model.ErrCodeInvalidDenomination, model.ErrCodeInvalidOTP:
		return http.StatusBadRequest
	case model.ErrCodeNoVoucherAvailable:
		return http.StatusNotFound
	case model.ErrCodeReservationHeld, model.ErrCodePortalSessionMissing:
		return http.StatusConflict
	case model.ErrCodeSourceUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
