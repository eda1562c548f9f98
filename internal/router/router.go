package router

import (
	"net/http"

	"fersal/internal/handler"
	"fersal/internal/middleware"

	"github.com/rs/zerolog"
)

// New creates a new HTTP router with all routes and middleware configured.
func New(
	voucherHandler *handler.VoucherHandler,
	reservationHandler *handler.ReservationHandler,
	portalHandler *handler.PortalHandler,
	apiKey string,
	logger zerolog.Logger,
) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint (no authentication required)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	// Ingestion scans
	mux.HandleFunc("/api/scans/email", voucherHandler.ScanEmail)
	mux.HandleFunc("/api/scans/portal", portalHandler.Start)
	mux.HandleFunc("/api/scans/portal/otp", portalHandler.SubmitOTP)

	// Ledger reporting
	mux.HandleFunc("/api/vouchers", voucherHandler.List)
	mux.HandleFunc("/api/vouchers/availability", voucherHandler.Availability)

	// Redemption state machine
	mux.HandleFunc("/api/reservations", reservationHandler.Reserve)
	mux.HandleFunc("/api/reservations/confirm", reservationHandler.Confirm)
	mux.HandleFunc("/api/reservations/release", reservationHandler.Release)

	// Apply middleware in order: Recovery -> CorrelationID -> Logging -> CORS -> APIKeyAuth
	var h http.Handler = mux
	h = middleware.APIKeyAuth(apiKey, logger)(h)
	h = middleware.CORS(h)
	h = middleware.Logging(logger)(h)
	h = middleware.CorrelationID(h)
	h = middleware.Recovery(logger)(h)

	return h
}
