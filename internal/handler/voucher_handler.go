package handler

import (
	"net/http"

	"fersal/internal/ingest"
	"fersal/internal/model"
	"fersal/internal/service"

	"github.com/rs/zerolog"
)

// VoucherHandler handles ingestion and reporting HTTP requests.
type VoucherHandler struct {
	service    service.VoucherService
	mailSource func() ingest.Source
	logger     zerolog.Logger
}

// NewVoucherHandler creates a new voucher handler. mailSource builds a fresh
// mailbox session per scan; nil means email scanning is disabled.
func NewVoucherHandler(service service.VoucherService, mailSource func() ingest.Source, logger zerolog.Logger) *VoucherHandler {
	return &VoucherHandler{
		service:    service,
		mailSource: mailSource,
		logger:     logger.With().Str("handler", "voucher").Logger(),
	}
}

// ScanEmail handles POST /api/scans/email requests.
func (h *VoucherHandler) ScanEmail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, r, http.StatusMethodNotAllowed, model.ErrCodeInternalError, "method not allowed", h.logger)
		return
	}

	if h.mailSource == nil {
		writeError(w, r, http.StatusServiceUnavailable, model.ErrCodeSourceUnavailable, "email scanning is disabled", h.logger)
		return
	}

	summary, err := h.service.ScanSource(r.Context(), h.mailSource())
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// Availability handles GET /api/vouchers/availability requests.
func (h *VoucherHandler) Availability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, r, http.StatusMethodNotAllowed, model.ErrCodeInternalError, "method not allowed", h.logger)
		return
	}

	counts, err := h.service.Availability(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "failed to compute availability", h.logger)
		return
	}

	// String keys so the JSON object reads as face values.
	byDenomination := make(map[string]int, len(counts))
	for d, count := range counts {
		byDenomination[d.String()] = count
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"counts": byDenomination,
		"total":  h.service.TotalValue(counts),
	})
}

// List handles GET /api/vouchers requests.
func (h *VoucherHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, r, http.StatusMethodNotAllowed, model.ErrCodeInternalError, "method not allowed", h.logger)
		return
	}

	vouchers, err := h.service.ListAvailable(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "failed to list vouchers", h.logger)
		return
	}

	if vouchers == nil {
		vouchers = []model.Voucher{}
	}
	writeJSON(w, http.StatusOK, vouchers)
}
