// Package ingest pulls raw items from a voucher source, runs extraction over
// each and commits new vouchers to the ledger exactly once.
package ingest

import (
	"context"

	"fersal/internal/extract"
)

// RawItem is one raw inbound item produced by a Source: an email message, a
// scraped portal line.
type RawItem interface {
	// Metadata returns the decoded subject/sender or page metadata used for
	// the provenance filter.
	Metadata() string

	// Parts returns the raw body parts, transfer-decoded but still in their
	// declared character encoding.
	Parts() []extract.Part

	// MarkConsumed flags the item so a repeat scan does not re-deliver it.
	// Re-delivery is safe regardless: dedup is keyed on voucher code.
	MarkConsumed(ctx context.Context) error
}

// Source yields finite, restartable batches of raw items.
type Source interface {
	// Name is the provenance tag recorded on vouchers ingested from this
	// source, e.g. "email-scan" or "portal-scan".
	Name() string

	// NextBatch fetches the current batch of raw items. A returned error
	// means the source itself could not be reached; per-item problems are
	// never surfaced here.
	NextBatch(ctx context.Context) ([]RawItem, error)
}
