package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fersal/internal/config"
	"fersal/internal/model"
	"fersal/internal/portal"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// newPortalFixture wires a handler against a fake portal server.
func newPortalFixture(t *testing.T, portalServer http.HandlerFunc) (*PortalHandler, *MockVoucherService) {
	t.Helper()
	server := httptest.NewServer(portalServer)
	t.Cleanup(server.Close)

	client := portal.NewClient(config.PortalConfig{
		Enabled: true,
		BaseURL: server.URL,
		Email:   "account@example.com",
		Timeout: 5,
	}, zerolog.Nop())

	mockService := new(MockVoucherService)
	return NewPortalHandler(client, mockService, zerolog.Nop()), mockService
}

// fakePortal answers the auth and coupon endpoints like the real portal.
func fakePortal(acceptOTP string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/otp":
			w.WriteHeader(http.StatusNoContent)
		case "/api/auth/verify":
			var payload map[string]string
			json.NewDecoder(r.Body).Decode(&payload)
			if payload["otp"] != acceptOTP {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			json.NewEncoder(w).Encode(portal.Session{Token: "session-token"})
		case "/api/coupons":
			json.NewEncoder(w).Encode([]portal.Coupon{})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func postJSON(handler http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func TestPortalHandler_StartSendsChallenge(t *testing.T) {
	handler, _ := newPortalFixture(t, fakePortal("12345"))

	w := postJSON(handler.Start, "/api/scans/portal", "")

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), "otp_sent")
}

func TestPortalHandler_StartDisabled(t *testing.T) {
	handler := NewPortalHandler(nil, new(MockVoucherService), zerolog.Nop())

	w := postJSON(handler.Start, "/api/scans/portal", "")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestPortalHandler_StartPortalDown(t *testing.T) {
	handler, _ := newPortalFixture(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	w := postJSON(handler.Start, "/api/scans/portal", "")

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestPortalHandler_SubmitOTPWithoutChallenge(t *testing.T) {
	handler, _ := newPortalFixture(t, fakePortal("12345"))

	w := postJSON(handler.SubmitOTP, "/api/scans/portal/otp", `{"otp": "12345"}`)

	require.Equal(t, http.StatusConflict, w.Code)
	var body model.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, model.ErrCodePortalSessionMissing, body.Error)
}

func TestPortalHandler_SubmitOTPRunsScan(t *testing.T) {
	handler, mockService := newPortalFixture(t, fakePortal("12345"))
	mockService.On("ScanSource", mock.Anything, mock.Anything).
		Return(model.IngestSummary{Added: 3, Total: 150}, nil)

	require.Equal(t, http.StatusAccepted, postJSON(handler.Start, "/api/scans/portal", "").Code)
	w := postJSON(handler.SubmitOTP, "/api/scans/portal/otp", `{"otp": "12345"}`)

	require.Equal(t, http.StatusOK, w.Code)
	var summary model.IngestSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 3, summary.Added)
	mockService.AssertExpectations(t)

	// The challenge is spent; another submit needs a fresh start.
	again := postJSON(handler.SubmitOTP, "/api/scans/portal/otp", `{"otp": "12345"}`)
	assert.Equal(t, http.StatusConflict, again.Code)
}

func TestPortalHandler_BadOTPKeepsChallengeOpen(t *testing.T) {
	handler, mockService := newPortalFixture(t, fakePortal("12345"))
	mockService.On("ScanSource", mock.Anything, mock.Anything).
		Return(model.IngestSummary{}, nil)

	require.Equal(t, http.StatusAccepted, postJSON(handler.Start, "/api/scans/portal", "").Code)

	// Malformed, then rejected, then correct: the first two keep the
	// challenge open.
	malformed := postJSON(handler.SubmitOTP, "/api/scans/portal/otp", `{"otp": "12"}`)
	require.Equal(t, http.StatusBadRequest, malformed.Code)

	rejected := postJSON(handler.SubmitOTP, "/api/scans/portal/otp", `{"otp": "99999"}`)
	require.Equal(t, http.StatusBadRequest, rejected.Code)

	accepted := postJSON(handler.SubmitOTP, "/api/scans/portal/otp", `{"otp": "12345"}`)
	assert.Equal(t, http.StatusOK, accepted.Code)
}
