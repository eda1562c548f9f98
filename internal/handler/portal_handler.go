package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"fersal/internal/model"
	"fersal/internal/portal"
	"fersal/internal/service"

	"github.com/rs/zerolog"
)

// PortalHandler drives the portal scan exchange: start the OTP challenge,
// then take the code and run the scan. A pending challenge survives rejected
// codes so the operator can retry.
type PortalHandler struct {
	client  *portal.Client
	service service.VoucherService
	logger  zerolog.Logger

	mu      sync.Mutex
	pending bool
}

// NewPortalHandler creates a new portal handler. A nil client means portal
// scanning is disabled.
func NewPortalHandler(client *portal.Client, service service.VoucherService, logger zerolog.Logger) *PortalHandler {
	return &PortalHandler{
		client:  client,
		service: service,
		logger:  logger.With().Str("handler", "portal").Logger(),
	}
}

// Start handles POST /api/scans/portal requests.
func (h *PortalHandler) Start(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, r, http.StatusMethodNotAllowed, model.ErrCodeInternalError, "method not allowed", h.logger)
		return
	}

	if h.client == nil {
		writeError(w, r, http.StatusServiceUnavailable, model.ErrCodeSourceUnavailable, "portal scanning is disabled", h.logger)
		return
	}

	if err := h.client.StartAuth(r.Context()); err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	h.mu.Lock()
	h.pending = true
	h.mu.Unlock()

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "otp_sent"})
}

// otpRequest is the body of POST /api/scans/portal/otp.
type otpRequest struct {
	OTP string `json:"otp"`
}

// SubmitOTP handles POST /api/scans/portal/otp requests.
func (h *PortalHandler) SubmitOTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, r, http.StatusMethodNotAllowed, model.ErrCodeInternalError, "method not allowed", h.logger)
		return
	}

	if h.client == nil {
		writeError(w, r, http.StatusServiceUnavailable, model.ErrCodeSourceUnavailable, "portal scanning is disabled", h.logger)
		return
	}

	h.mu.Lock()
	pending := h.pending
	h.mu.Unlock()
	if !pending {
		writeDomainError(w, r, model.ErrPortalSessionMissing, h.logger)
		return
	}

	var req otpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	session, err := h.client.VerifyOTP(r.Context(), req.OTP)
	if err != nil {
		// A bad code leaves the challenge open for another attempt.
		if !errors.Is(err, model.ErrInvalidOTP) {
			h.mu.Lock()
			h.pending = false
			h.mu.Unlock()
		}
		writeDomainError(w, r, err, h.logger)
		return
	}

	h.mu.Lock()
	h.pending = false
	h.mu.Unlock()

	summary, err := h.service.ScanSource(r.Context(), portal.NewSource(h.client, session))
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
