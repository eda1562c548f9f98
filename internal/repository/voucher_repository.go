package repository

import (
	"context"
	"fmt"
	"time"

	"fersal/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// voucherRepository implements the VoucherRepository interface using PostgreSQL.
// Column names mirror the legacy document store and are part of the external
// contract (code, amount, expiry_date, is_used, date_added, date_used, source,
// source_url).
type voucherRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewVoucherRepository creates a new PostgreSQL-backed voucher repository.
func NewVoucherRepository(pool *pgxpool.Pool, logger zerolog.Logger) VoucherRepository {
	return &voucherRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "voucher").Logger(),
	}
}

// InsertIfAbsent commits a voucher unless one with the same code already exists.
func (r *voucherRepository) InsertIfAbsent(ctx context.Context, voucher *model.Voucher) (bool, error) {
	query := `
		INSERT INTO vouchers (code, amount, expiry_date, is_used, date_added, date_used, source, source_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (code) DO NOTHING
	`

	tag, err := r.pool.Exec(ctx, query,
		voucher.Code,
		voucher.Amount,
		voucher.ExpiryDate,
		voucher.IsUsed,
		voucher.DateAdded,
		voucher.DateUsed,
		voucher.Source,
		voucher.SourceURL,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("code", voucher.Code).Msg("failed to insert voucher")
		return false, fmt.Errorf("failed to insert voucher: %w", err)
	}

	inserted := tag.RowsAffected() == 1
	if !inserted {
		r.logger.Debug().Str("code", voucher.Code).Msg("voucher already present, insert skipped")
	}

	return inserted, nil
}

// GetByCode retrieves a single voucher by its code.
func (r *voucherRepository) GetByCode(ctx context.Context, code string) (*model.Voucher, error) {
	query := `
		SELECT code, amount, expiry_date, is_used, date_added, date_used, source, source_url
		FROM vouchers
		WHERE code = $1
	`

	v, err := r.scanVoucher(r.pool.QueryRow(ctx, query, code))
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("code", code).Msg("voucher not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("code", code).Msg("failed to query voucher")
		return nil, fmt.Errorf("failed to query voucher: %w", err)
	}

	return v, nil
}

// FindFirstAvailable picks the first un-redeemed voucher of the given amount
// whose code is not in excludeCodes.
func (r *voucherRepository) FindFirstAvailable(ctx context.Context, amount string, excludeCodes []string) (*model.Voucher, error) {
	// A nil slice would reach postgres as NULL and make the predicate
	// three-valued; normalise to an empty array.
	if excludeCodes == nil {
		excludeCodes = []string{}
	}

	query := `
		SELECT code, amount, expiry_date, is_used, date_added, date_used, source, source_url
		FROM vouchers
		WHERE amount = $1 AND is_used = FALSE AND NOT (code = ANY($2))
		ORDER BY date_added, code
		LIMIT 1
	`

	v, err := r.scanVoucher(r.pool.QueryRow(ctx, query, amount, excludeCodes))
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("amount", amount).Msg("no unused voucher for amount")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("amount", amount).Msg("failed to query unused voucher")
		return nil, fmt.Errorf("failed to query unused voucher: %w", err)
	}

	return v, nil
}

// ListAvailable retrieves all un-redeemed vouchers.
func (r *voucherRepository) ListAvailable(ctx context.Context) ([]model.Voucher, error) {
	query := `
		SELECT code, amount, expiry_date, is_used, date_added, date_used, source, source_url
		FROM vouchers
		WHERE is_used = FALSE
		ORDER BY amount, date_added, code
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query available vouchers")
		return nil, fmt.Errorf("failed to query available vouchers: %w", err)
	}
	defer rows.Close()

	var vouchers []model.Voucher
	for rows.Next() {
		v, err := r.scanVoucher(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan voucher row")
			return nil, fmt.Errorf("failed to scan voucher: %w", err)
		}
		vouchers = append(vouchers, *v)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating voucher rows")
		return nil, fmt.Errorf("error iterating vouchers: %w", err)
	}

	return vouchers, nil
}

// CountAvailable counts un-redeemed vouchers grouped by amount.
func (r *voucherRepository) CountAvailable(ctx context.Context) (map[string]int, error) {
	query := `
		SELECT amount, COUNT(*)
		FROM vouchers
		WHERE is_used = FALSE
		GROUP BY amount
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to count available vouchers")
		return nil, fmt.Errorf("failed to count available vouchers: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var amount string
		var count int
		if err := rows.Scan(&amount, &count); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan count row")
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[amount] = count
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating count rows")
		return nil, fmt.Errorf("error iterating counts: %w", err)
	}

	return counts, nil
}

// MarkUsed flips is_used to true only if the voucher is still unused.
func (r *voucherRepository) MarkUsed(ctx context.Context, code string, usedAt time.Time) (bool, error) {
	query := `
		UPDATE vouchers
		SET is_used = TRUE, date_used = $2
		WHERE code = $1 AND is_used = FALSE
	`

	tag, err := r.pool.Exec(ctx, query, code, usedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("code", code).Msg("failed to mark voucher used")
		return false, fmt.Errorf("failed to mark voucher used: %w", err)
	}

	updated := tag.RowsAffected() == 1
	if !updated {
		r.logger.Warn().Str("code", code).Msg("voucher missing or already redeemed, no update")
	}

	r.logger.Debug().Str("code", code).Bool("updated", updated).Msg("mark used completed")

	return updated, nil
}

// scanVoucher reads one voucher row from a pgx.Row or pgx.Rows.
func (r *voucherRepository) scanVoucher(row pgx.Row) (*model.Voucher, error) {
	var v model.Voucher
	err := row.Scan(
		&v.Code,
		&v.Amount,
		&v.ExpiryDate,
		&v.IsUsed,
		&v.DateAdded,
		&v.DateUsed,
		&v.Source,
		&v.SourceURL,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
