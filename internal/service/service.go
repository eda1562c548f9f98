package service

import (
	"context"

	"fersal/internal/ingest"
	"fersal/internal/model"
)

// VoucherService defines ingestion and reporting operations.
type VoucherService interface {
	// ScanSource runs one ingestion pass over the given source and reports
	// how many new vouchers were committed and their total value.
	ScanSource(ctx context.Context, src ingest.Source) (model.IngestSummary, error)

	// Availability counts un-redeemed vouchers per canonical denomination.
	// The result always carries exactly the six canonical keys, zero-filled,
	// and is recomputed fresh on every call.
	Availability(ctx context.Context) (map[model.Denomination]int, error)

	// TotalValue sums denomination times count over an availability result.
	TotalValue(counts map[model.Denomination]int) int

	// ListAvailable retrieves all un-redeemed vouchers.
	ListAvailable(ctx context.Context) ([]model.Voucher, error)
}

// ReservationService drives the per-session redemption state machine: each
// session holds zero or one voucher pending operator confirmation.
type ReservationService interface {
	// Reserve picks one un-redeemed voucher of the given denomination and
	// holds it for the session. It fails with model.ErrReservationHeld when
	// the session already holds one, and with model.ErrNoVoucherAvailable
	// when the denomination has no un-redeemed voucher.
	Reserve(ctx context.Context, sessionID string, denom model.Denomination) (*model.Reservation, error)

	// ConfirmUsed marks the session's held voucher redeemed, only if it is
	// still unused, and returns the session to idle. Calling it with no held
	// reservation is a no-op.
	ConfirmUsed(ctx context.Context, sessionID string) error

	// Release discards the session's held reservation without touching the
	// ledger. Calling it with no held reservation is a no-op.
	Release(sessionID string)
}
