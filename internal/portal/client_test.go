package portal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"fersal/internal/config"
	"fersal/internal/extract"
	"fersal/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(serverURL string) *Client {
	return NewClient(config.PortalConfig{
		Enabled: true,
		BaseURL: serverURL,
		Email:   "account@example.com",
		Timeout: 5,
	}, zerolog.Nop())
}

func TestClient_StartAuth(t *testing.T) {
	var gotEmail string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/auth/otp", r.URL.Path)
		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		gotEmail = payload["email"]
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	err := newTestClient(server.URL).StartAuth(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "account@example.com", gotEmail)
}

func TestClient_StartAuthPortalDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	err := newTestClient(server.URL).StartAuth(context.Background())

	assert.ErrorIs(t, err, model.ErrSourceUnavailable)
}

func TestClient_VerifyOTPMalformedCode(t *testing.T) {
	// Malformed codes never reach the portal.
	client := newTestClient("http://portal.invalid")

	for _, otp := range []string{"", "1234", "123456", "12a45"} {
		_, err := client.VerifyOTP(context.Background(), otp)
		assert.ErrorIs(t, err, model.ErrInvalidOTP, "otp %q", otp)
	}
}

func TestClient_VerifyOTPRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).VerifyOTP(context.Background(), "12345")

	assert.ErrorIs(t, err, model.ErrInvalidOTP)
}

func TestClient_VerifyOTPSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/auth/verify", r.URL.Path)
		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Equal(t, "12345", payload["otp"])
		json.NewEncoder(w).Encode(Session{Token: "session-token"})
	}))
	defer server.Close()

	session, err := newTestClient(server.URL).VerifyOTP(context.Background(), "12345")

	require.NoError(t, err)
	assert.Equal(t, "session-token", session.Token)
}

func TestClient_VerifyOTPEmptyToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(Session{})
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).VerifyOTP(context.Background(), "12345")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty session token")
}

func TestClient_Coupons(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/coupons", r.URL.Path)
		require.Equal(t, "Bearer session-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode([]Coupon{
			{Barcode: "11111111111111111111", Amount: "50", URL: "https://myconsumers.pluxee.co.il/b/1"},
			{Barcode: "22222222222222222222", Amount: "100"},
		})
	}))
	defer server.Close()

	coupons, err := newTestClient(server.URL).Coupons(context.Background(), &Session{Token: "session-token"})

	require.NoError(t, err)
	require.Len(t, coupons, 2)
	assert.Equal(t, "11111111111111111111", coupons[0].Barcode)
	assert.Equal(t, "100", coupons[1].Amount)
}

func TestSource_NextBatchItemsAreExtractable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode([]Coupon{
			{Barcode: "11111111111111111111", Amount: "50"},
		})
	}))
	defer server.Close()

	source := NewSource(newTestClient(server.URL), &Session{Token: "session-token"})
	assert.Equal(t, "portal-scan", source.Name())

	items, err := source.NextBatch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NoError(t, items[0].MarkConsumed(context.Background()))

	// A rendered coupon passes the shared extraction pipeline.
	extractor := extract.NewExtractor(nil, 180, zerolog.Nop())
	candidate, err := extractor.Extract(context.Background(), extract.Item{
		Metadata: items[0].Metadata(),
		Parts:    items[0].Parts(),
	})
	require.NoError(t, err)
	assert.Equal(t, 50.0, candidate.Amount)
	assert.Equal(t, "11111111111111111111", candidate.Barcode)
}

func TestSource_PortalFailureSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	source := NewSource(newTestClient(server.URL), &Session{Token: "session-token"})
	_, err := source.NextBatch(context.Background())

	assert.ErrorIs(t, err, model.ErrSourceUnavailable)
}
