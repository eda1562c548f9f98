package service

import (
	"context"
	"fmt"
	"io"

	"fersal/internal/ingest"
	"fersal/internal/model"
	"fersal/internal/repository"

	"github.com/rs/zerolog"
)

// voucherService implements VoucherService.
type voucherService struct {
	pipeline *ingest.Pipeline
	repo     repository.VoucherRepository
	logger   zerolog.Logger
}

// NewVoucherService creates a new voucher service.
func NewVoucherService(pipeline *ingest.Pipeline, repo repository.VoucherRepository, logger zerolog.Logger) VoucherService {
	return &voucherService{
		pipeline: pipeline,
		repo:     repo,
		logger:   logger.With().Str("service", "voucher").Logger(),
	}
}

// ScanSource runs one ingestion pass over the given source.
func (s *voucherService) ScanSource(ctx context.Context, src ingest.Source) (model.IngestSummary, error) {
	if closer, ok := src.(io.Closer); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				s.logger.Warn().Err(err).Str("source", src.Name()).Msg("failed to close source")
			}
		}()
	}

	summary, err := s.pipeline.Ingest(ctx, src)
	if err != nil {
		return model.IngestSummary{}, err
	}

	s.logger.Info().
		Str("source", src.Name()).
		Int("added", summary.Added).
		Float64("total", summary.Total).
		Msg("scan completed")

	return summary, nil
}

// Availability counts un-redeemed vouchers per canonical denomination.
func (s *voucherService) Availability(ctx context.Context) (map[model.Denomination]int, error) {
	counts, err := s.repo.CountAvailable(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to count available vouchers")
		return nil, fmt.Errorf("failed to compute availability: %w", err)
	}

	// Zero-fill so every canonical key always appears. Non-canonical amounts
	// in the store have no bucket and are not reported.
	result := make(map[model.Denomination]int, 6)
	for _, d := range model.Denominations() {
		result[d] = counts[d.String()]
	}

	return result, nil
}

// TotalValue sums denomination times count over an availability result.
func (s *voucherService) TotalValue(counts map[model.Denomination]int) int {
	total := 0
	for d, count := range counts {
		total += int(d) * count
	}
	return total
}

// ListAvailable retrieves all un-redeemed vouchers.
func (s *voucherService) ListAvailable(ctx context.Context) ([]model.Voucher, error) {
	vouchers, err := s.repo.ListAvailable(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list available vouchers")
		return nil, fmt.Errorf("failed to list available vouchers: %w", err)
	}
	return vouchers, nil
}
