// Package portal implements an ingestion source backed by the merchant's
// voucher portal. The portal authenticates with a one-time password sent to
// the account email, so a scan is a two-step exchange: request the challenge,
// then verify the code and pull the coupon list.
package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"fersal/internal/config"
	"fersal/internal/model"

	"github.com/rs/zerolog"
)

var otpPattern = regexp.MustCompile(`^\d{5}$`)

// Coupon is one voucher entry as listed by the portal. Fields are carried as
// raw strings; validation happens downstream in the extraction pipeline.
type Coupon struct {
	Barcode string `json:"barcode"`
	Amount  string `json:"amount"`
	URL     string `json:"url"`
}

// Session is an authenticated portal session.
type Session struct {
	Token string `json:"token"`
}

// Client talks to the merchant portal API.
type Client struct {
	baseURL string
	email   string
	http    *http.Client
	logger  zerolog.Logger
}

// NewClient creates a portal client from configuration.
func NewClient(cfg config.PortalConfig, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		email:   cfg.Email,
		http:    &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second},
		logger:  logger.With().Str("component", "portal-client").Logger(),
	}
}

// StartAuth asks the portal to send a one-time password to the account email.
func (c *Client) StartAuth(ctx context.Context) error {
	body, err := json.Marshal(map[string]string{"email": c.email})
	if err != nil {
		return fmt.Errorf("failed to encode auth request: %w", err)
	}

	resp, err := c.post(ctx, "/api/auth/otp", body)
	if err != nil {
		return fmt.Errorf("%w: portal-scan: %v", model.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: portal-scan: challenge request returned status %d", model.ErrSourceUnavailable, resp.StatusCode)
	}

	c.logger.Info().Str("email", c.email).Msg("otp challenge requested")
	return nil
}

// VerifyOTP exchanges the one-time password for a session. A malformed or
// rejected code fails with model.ErrInvalidOTP; the challenge stays open so
// the caller can retry with a corrected code.
func (c *Client) VerifyOTP(ctx context.Context, otp string) (*Session, error) {
	if !otpPattern.MatchString(otp) {
		return nil, fmt.Errorf("%w: expected a 5-digit code", model.ErrInvalidOTP)
	}

	body, err := json.Marshal(map[string]string{"email": c.email, "otp": otp})
	if err != nil {
		return nil, fmt.Errorf("failed to encode verify request: %w", err)
	}

	resp, err := c.post(ctx, "/api/auth/verify", body)
	if err != nil {
		return nil, fmt.Errorf("%w: portal-scan: %v", model.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: code rejected by the portal", model.ErrInvalidOTP)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("%w: portal-scan: verify returned status %d", model.ErrSourceUnavailable, resp.StatusCode)
	}

	var session Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("failed to decode session response: %w", err)
	}
	if session.Token == "" {
		return nil, fmt.Errorf("portal returned an empty session token")
	}

	c.logger.Info().Msg("portal session established")
	return &session, nil
}

// Coupons lists the account's vouchers using an authenticated session.
func (c *Client) Coupons(ctx context.Context, session *Session) ([]Coupon, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/coupons", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create coupons request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+session.Token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: portal-scan: %v", model.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: portal-scan: coupons returned status %d", model.ErrSourceUnavailable, resp.StatusCode)
	}

	var coupons []Coupon
	if err := json.NewDecoder(resp.Body).Decode(&coupons); err != nil {
		return nil, fmt.Errorf("failed to decode coupons response: %w", err)
	}

	c.logger.Info().Int("coupons", len(coupons)).Msg("portal coupons listed")
	return coupons, nil
}

func (c *Client) post(ctx context.Context, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.http.Do(req)
}
