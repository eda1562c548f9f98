// Package extract turns one raw inbound item (voucher email, scraped portal
// line) into at most one well-formed voucher candidate. Every sub-task runs an
// ordered list of strategies and takes the first success; a failed item is a
// typed reject, never a fault that escapes to sibling items.
package extract

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Part is one raw body part of an inbound item, as delivered by the source:
// transfer-decoded but still in its declared (or unknown) character encoding.
type Part struct {
	MediaType string // "text/plain" or "text/html"
	Charset   string // declared charset, may be empty
	Data      []byte
}

// Item is one raw inbound item presented for extraction.
type Item struct {
	Metadata string // decoded subject + sender, or page metadata
	Parts    []Part
}

// Candidate is a well-formed voucher candidate ready for ingestion. A
// candidate always carries an amount and a barcode; anything less is a reject.
type Candidate struct {
	Amount     float64
	Barcode    string
	ExpiryDate time.Time
	SourceURL  string
}

// Typed reject reasons. They let callers and tests distinguish "nothing to
// ingest" outcomes without treating them as faults.
var (
	ErrNoKeyword = errors.New("no voucher keyword in item metadata")
	ErrNoAmount  = errors.New("no plausible amount in item")
	ErrNoBarcode = errors.New("no barcode in item")
)

// PageFetcher issues the single bounded-timeout GET used when an item links
// to a voucher page but carries no barcode itself.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// defaultKeywords gate extraction on provenance: merchant brand names plus the
// Hebrew and English words for "voucher". Items matching none are unrelated
// mail and are rejected before any parsing.
var defaultKeywords = []string{
	"cibus", "pluxee", "שובר", "voucher",
	"שופרסל", "myconsumers",
}

// Extractor derives voucher candidates from raw items.
type Extractor struct {
	fetcher  PageFetcher
	keywords []string
	expiry   time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

// NewExtractor creates an extractor. fetcher may be nil, in which case the
// remote barcode fallback is skipped. expiryDays is the default voucher
// validity applied when the source supplies no expiry.
func NewExtractor(fetcher PageFetcher, expiryDays int, logger zerolog.Logger) *Extractor {
	return &Extractor{
		fetcher:  fetcher,
		keywords: defaultKeywords,
		expiry:   time.Duration(expiryDays) * 24 * time.Hour,
		logger:   logger.With().Str("component", "extractor").Logger(),
		now:      time.Now,
	}
}

// Extract runs the extraction cascade over one item. It returns a candidate,
// or a typed reject reason when the item yields no voucher. It never writes to
// the ledger; the only side effect is the bounded fallback page fetch.
func (e *Extractor) Extract(ctx context.Context, item Item) (*Candidate, error) {
	if !e.matchesKeywords(item.Metadata) {
		e.logger.Debug().Str("metadata", truncate(item.Metadata, 60)).Msg("item rejected, no voucher keyword")
		return nil, ErrNoKeyword
	}

	body := e.combineParts(item.Parts)

	amount, ok := ExtractAmount(item.Metadata + " " + body)
	if !ok {
		e.logger.Debug().Str("metadata", truncate(item.Metadata, 60)).Msg("item rejected, no plausible amount")
		return nil, ErrNoAmount
	}

	sourceURL := VoucherPageURL(body)

	barcode, ok := ExtractBarcode(body)
	if !ok && sourceURL != "" && e.fetcher != nil {
		barcode, ok = e.fetchBarcode(ctx, sourceURL)
	}
	if !ok {
		e.logger.Debug().Float64("amount", amount).Msg("item rejected, no barcode")
		return nil, ErrNoBarcode
	}

	e.logger.Debug().
		Float64("amount", amount).
		Str("barcode", barcode).
		Msg("voucher candidate extracted")

	return &Candidate{
		Amount:     amount,
		Barcode:    barcode,
		ExpiryDate: e.now().Add(e.expiry),
		SourceURL:  sourceURL,
	}, nil
}

// matchesKeywords reports whether the metadata contains any provenance
// keyword, case-insensitively.
func (e *Extractor) matchesKeywords(metadata string) bool {
	if metadata == "" {
		return false
	}
	lowered := strings.ToLower(metadata)
	for _, kw := range e.keywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

// combineParts decodes and concatenates the text-bearing parts of an item.
// HTML parts are stripped to text before concatenation. A part that cannot be
// decoded cleanly degrades to lossy decoding rather than failing the item.
func (e *Extractor) combineParts(parts []Part) string {
	var b strings.Builder
	for _, part := range parts {
		switch part.MediaType {
		case "text/plain", "text/html", "":
		default:
			continue
		}

		text := DecodeText(part.Data, part.Charset)
		if part.MediaType == "text/html" {
			text = StripHTML(text)
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String()
}

// fetchBarcode re-runs the digit-run search against a fetched voucher page,
// raw first and HTML-stripped second. Fetch failures degrade silently to
// "no barcode".
func (e *Extractor) fetchBarcode(ctx context.Context, url string) (string, bool) {
	page, err := e.fetcher.Fetch(ctx, url)
	if err != nil {
		e.logger.Warn().Err(err).Str("url", truncate(url, 80)).Msg("voucher page fetch failed")
		return "", false
	}

	if barcode, ok := ExtractBarcode(page); ok {
		return barcode, true
	}
	return ExtractBarcode(StripHTML(page))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
