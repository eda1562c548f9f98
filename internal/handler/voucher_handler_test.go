package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"fersal/internal/ingest"
	"fersal/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockVoucherService is a mock implementation of VoucherService.
type MockVoucherService struct {
	mock.Mock
}

func (m *MockVoucherService) ScanSource(ctx context.Context, src ingest.Source) (model.IngestSummary, error) {
	args := m.Called(ctx, src)
	return args.Get(0).(model.IngestSummary), args.Error(1)
}

func (m *MockVoucherService) Availability(ctx context.Context) (map[model.Denomination]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[model.Denomination]int), args.Error(1)
}

func (m *MockVoucherService) TotalValue(counts map[model.Denomination]int) int {
	args := m.Called(counts)
	return args.Int(0)
}

func (m *MockVoucherService) ListAvailable(ctx context.Context) ([]model.Voucher, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Voucher), args.Error(1)
}

// nopSource satisfies the source contract without doing anything.
type nopSource struct{}

func (nopSource) Name() string { return "email-scan" }

func (nopSource) NextBatch(context.Context) ([]ingest.RawItem, error) { return nil, nil }

func newNopMailSource() func() ingest.Source {
	return func() ingest.Source { return nopSource{} }
}

func TestVoucherHandler_ScanEmail(t *testing.T) {
	logger := zerolog.Nop()

	tests := []struct {
		name           string
		method         string
		mailSource     func() ingest.Source
		mockReturn     model.IngestSummary
		mockError      error
		expectedStatus int
		expectService  bool
	}{
		{
			name:           "Success",
			method:         http.MethodPost,
			mailSource:     newNopMailSource(),
			mockReturn:     model.IngestSummary{Added: 2, Total: 150},
			expectedStatus: http.StatusOK,
			expectService:  true,
		},
		{
			name:           "Email scanning disabled",
			method:         http.MethodPost,
			mailSource:     nil,
			expectedStatus: http.StatusServiceUnavailable,
		},
		{
			name:           "Source unreachable",
			method:         http.MethodPost,
			mailSource:     newNopMailSource(),
			mockError:      fmt.Errorf("%w: email-scan: dial tcp: refused", model.ErrSourceUnavailable),
			expectedStatus: http.StatusBadGateway,
			expectService:  true,
		},
		{
			name:           "Method not allowed",
			method:         http.MethodGet,
			mailSource:     newNopMailSource(),
			expectedStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockVoucherService)
			handler := NewVoucherHandler(mockService, tt.mailSource, logger)

			if tt.expectService {
				mockService.On("ScanSource", mock.Anything, mock.Anything).
					Return(tt.mockReturn, tt.mockError)
			}

			req := httptest.NewRequest(tt.method, "/api/scans/email", nil)
			w := httptest.NewRecorder()

			handler.ScanEmail(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectService {
				mockService.AssertExpectations(t)
			}
		})
	}
}

func TestVoucherHandler_ScanEmailReportsSummary(t *testing.T) {
	mockService := new(MockVoucherService)
	mockService.On("ScanSource", mock.Anything, mock.Anything).
		Return(model.IngestSummary{Added: 1, Total: 50, Skipped: 2}, nil)
	handler := NewVoucherHandler(mockService, newNopMailSource(), zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/scans/email", nil)
	w := httptest.NewRecorder()
	handler.ScanEmail(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var summary model.IngestSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.Added)
	assert.Equal(t, 50.0, summary.Total)
	assert.Equal(t, 2, summary.Skipped)
}

func TestVoucherHandler_Availability(t *testing.T) {
	counts := map[model.Denomination]int{
		model.Denom15: 0, model.Denom30: 0, model.Denom40: 0,
		model.Denom50: 2, model.Denom100: 1, model.Denom200: 0,
	}

	mockService := new(MockVoucherService)
	mockService.On("Availability", mock.Anything).Return(counts, nil)
	mockService.On("TotalValue", counts).Return(200)
	handler := NewVoucherHandler(mockService, nil, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/vouchers/availability", nil)
	w := httptest.NewRecorder()
	handler.Availability(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Counts map[string]int `json:"counts"`
		Total  int            `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 200, body.Total)
	// All six face values are present even when zero.
	assert.Len(t, body.Counts, 6)
	assert.Equal(t, 2, body.Counts["50"])
	assert.Equal(t, 0, body.Counts["15"])
	mockService.AssertExpectations(t)
}

func TestVoucherHandler_AvailabilityServiceError(t *testing.T) {
	mockService := new(MockVoucherService)
	mockService.On("Availability", mock.Anything).Return(nil, errors.New("database error"))
	handler := NewVoucherHandler(mockService, nil, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/vouchers/availability", nil)
	w := httptest.NewRecorder()
	handler.Availability(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestVoucherHandler_List(t *testing.T) {
	vouchers := []model.Voucher{{Code: "11111111111111111111", Amount: "50"}}

	mockService := new(MockVoucherService)
	mockService.On("ListAvailable", mock.Anything).Return(vouchers, nil)
	handler := NewVoucherHandler(mockService, nil, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/vouchers", nil)
	w := httptest.NewRecorder()
	handler.List(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var got []model.Voucher
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "11111111111111111111", got[0].Code)
}

func TestVoucherHandler_ListEmptyIsArray(t *testing.T) {
	mockService := new(MockVoucherService)
	mockService.On("ListAvailable", mock.Anything).Return([]model.Voucher{}, nil)
	handler := NewVoucherHandler(mockService, nil, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/vouchers", nil)
	w := httptest.NewRecorder()
	handler.List(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}
