package ingest

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"fersal/internal/extract"
	"fersal/internal/model"
	"fersal/internal/repository"

	"github.com/rs/zerolog"
)

// Pipeline runs extraction over a source's raw items and commits new vouchers
// to the ledger. Dedup is keyed on voucher code via insert-if-absent, so
// re-running the pipeline against the same source state never double-commits.
type Pipeline struct {
	extractor *extract.Extractor
	repo      repository.VoucherRepository
	logger    zerolog.Logger
	now       func() time.Time
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(extractor *extract.Extractor, repo repository.VoucherRepository, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		extractor: extractor,
		repo:      repo,
		logger:    logger.With().Str("component", "ingest-pipeline").Logger(),
		now:       time.Now,
	}
}

// Ingest pulls one batch from the source and processes every item. A single
// bad item is logged and skipped; only a source connection failure aborts the
// run, surfaced as an error wrapping model.ErrSourceUnavailable so the caller
// can distinguish "nothing new" from "couldn't check".
func (p *Pipeline) Ingest(ctx context.Context, src Source) (model.IngestSummary, error) {
	items, err := src.NextBatch(ctx)
	if err != nil {
		p.logger.Error().Err(err).Str("source", src.Name()).Msg("source unreachable, aborting ingestion")
		return model.IngestSummary{}, fmt.Errorf("%w: %s: %v", model.ErrSourceUnavailable, src.Name(), err)
	}

	var summary model.IngestSummary
	for _, item := range items {
		added, amount := p.processItem(ctx, src.Name(), item)
		if added {
			summary.Added++
			summary.Total += amount
		} else {
			summary.Skipped++
		}
	}

	p.logger.Info().
		Str("source", src.Name()).
		Int("items", len(items)).
		Int("added", summary.Added).
		Float64("total", summary.Total).
		Msg("ingestion run completed")

	return summary, nil
}

// processItem handles one raw item end to end. Failures of any kind, a
// panicking parser included, are contained here so sibling items still get
// processed.
func (p *Pipeline) processItem(ctx context.Context, sourceName string, item RawItem) (added bool, amount float64) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error().
				Interface("panic", r).
				Str("source", sourceName).
				Msg("panic while processing item, skipped")
			added = false
		}
	}()

	candidate, err := p.extractor.Extract(ctx, extract.Item{
		Metadata: item.Metadata(),
		Parts:    item.Parts(),
	})
	if err != nil {
		p.logger.Debug().Err(err).Str("source", sourceName).Msg("item yielded no voucher")
		return false, 0
	}

	// Extraction succeeded: the item is spent for future scans even when the
	// voucher turns out to be a duplicate.
	if err := item.MarkConsumed(ctx); err != nil {
		p.logger.Warn().Err(err).Str("code", candidate.Barcode).Msg("failed to mark item consumed")
	}

	amountStr := strconv.Itoa(int(candidate.Amount))
	if _, err := model.ParseDenomination(amountStr); err != nil {
		p.logger.Warn().
			Str("amount", amountStr).
			Str("code", candidate.Barcode).
			Msg("amount outside canonical denominations; ingested but will not appear in availability")
	}

	voucher := &model.Voucher{
		Code:       candidate.Barcode,
		Amount:     amountStr,
		ExpiryDate: candidate.ExpiryDate,
		IsUsed:     false,
		DateAdded:  p.now(),
		Source:     sourceName,
		SourceURL:  candidate.SourceURL,
	}

	inserted, err := p.repo.InsertIfAbsent(ctx, voucher)
	if err != nil {
		p.logger.Error().Err(err).Str("code", voucher.Code).Msg("failed to commit voucher, item skipped")
		return false, 0
	}
	if !inserted {
		p.logger.Debug().Str("code", voucher.Code).Msg("duplicate voucher, already in ledger")
		return false, 0
	}

	p.logger.Info().
		Str("code", voucher.Code).
		Str("amount", voucher.Amount).
		Str("source", sourceName).
		Msg("voucher ingested")

	return true, candidate.Amount
}
