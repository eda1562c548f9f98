package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"fersal/internal/model"
	"fersal/internal/service"

	"github.com/rs/zerolog"
)

// sessionIDHeader identifies the operator session holding a reservation.
const sessionIDHeader = "X-Session-ID"

// ReservationHandler handles reservation-related HTTP requests.
type ReservationHandler struct {
	service service.ReservationService
	logger  zerolog.Logger
}

// NewReservationHandler creates a new reservation handler.
func NewReservationHandler(service service.ReservationService, logger zerolog.Logger) *ReservationHandler {
	return &ReservationHandler{
		service: service,
		logger:  logger.With().Str("handler", "reservation").Logger(),
	}
}

// reserveRequest is the body of POST /api/reservations.
type reserveRequest struct {
	Denomination json.Number `json:"denomination"`
}

// Reserve handles POST /api/reservations requests.
func (h *ReservationHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, r, http.StatusMethodNotAllowed, model.ErrCodeInternalError, "method not allowed", h.logger)
		return
	}

	sessionID := r.Header.Get(sessionIDHeader)
	if sessionID == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeMissingField, "X-Session-ID header is required", h.logger)
		return
	}

	var req reserveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	// Accepts both a bare number and a quoted one.
	value, err := strconv.Atoi(req.Denomination.String())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidDenomination, model.ErrInvalidDenomination.Message, h.logger)
		return
	}

	reservation, err := h.service.Reserve(r.Context(), sessionID, model.Denomination(value))
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, reservation)
}

// Confirm handles POST /api/reservations/confirm requests.
func (h *ReservationHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, r, http.StatusMethodNotAllowed, model.ErrCodeInternalError, "method not allowed", h.logger)
		return
	}

	sessionID := r.Header.Get(sessionIDHeader)
	if sessionID == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeMissingField, "X-Session-ID header is required", h.logger)
		return
	}

	if err := h.service.ConfirmUsed(r.Context(), sessionID); err != nil {
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "failed to confirm redemption", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "confirmed"})
}

// Release handles POST /api/reservations/release requests.
func (h *ReservationHandler) Release(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, r, http.StatusMethodNotAllowed, model.ErrCodeInternalError, "method not allowed", h.logger)
		return
	}

	sessionID := r.Header.Get(sessionIDHeader)
	if sessionID == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeMissingField, "X-Session-ID header is required", h.logger)
		return
	}

	h.service.Release(sessionID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "released"})
}
