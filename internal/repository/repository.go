package repository

import (
	"context"
	"time"

	"fersal/internal/model"
)

// VoucherRepository defines the interface for ledger data access operations.
// The ledger is keyed by voucher code; a code appears at most once.
type VoucherRepository interface {
	// InsertIfAbsent commits a voucher unless one with the same code already
	// exists. It returns true when a new row was written, false when the code
	// was already present. A false return is the expected duplicate outcome,
	// not an error.
	InsertIfAbsent(ctx context.Context, voucher *model.Voucher) (bool, error)

	// GetByCode retrieves a single voucher by its code.
	// Returns nil without error when no voucher matches.
	GetByCode(ctx context.Context, code string) (*model.Voucher, error)

	// FindFirstAvailable picks the first un-redeemed voucher with the given
	// amount in deterministic ledger order (oldest first, code as tie-break),
	// skipping any code in excludeCodes. The exclusion list carries in-flight
	// reservation holds, which live outside the ledger.
	// Returns nil without error when no voucher matches.
	FindFirstAvailable(ctx context.Context, amount string, excludeCodes []string) (*model.Voucher, error)

	// ListAvailable retrieves all un-redeemed vouchers.
	ListAvailable(ctx context.Context) ([]model.Voucher, error)

	// CountAvailable counts un-redeemed vouchers grouped by amount. Amounts
	// with no vouchers are absent from the result; callers that need total
	// reporting must zero-fill.
	CountAvailable(ctx context.Context) (map[string]int, error)

	// MarkUsed flips is_used to true and records date_used, only if the
	// voucher is still unused. It returns true when the row changed, false
	// when the voucher was missing or already redeemed.
	MarkUsed(ctx context.Context, code string, usedAt time.Time) (bool, error)
}
