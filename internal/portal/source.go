package portal

import (
	"context"
	"strings"

	"fersal/internal/extract"
	"fersal/internal/ingest"
)

// Source adapts an authenticated portal session to the ingestion contract.
// Each listed coupon becomes one raw item; the shared pipeline owns amount
// and barcode validation, exactly as for mail.
type Source struct {
	client  *Client
	session *Session
}

// NewSource wraps an authenticated session as an ingestion source.
func NewSource(client *Client, session *Session) *Source {
	return &Source{client: client, session: session}
}

// Name identifies this source in logs and stored vouchers.
func (s *Source) Name() string { return "portal-scan" }

// NextBatch lists the portal's coupons.
func (s *Source) NextBatch(ctx context.Context) ([]ingest.RawItem, error) {
	coupons, err := s.client.Coupons(ctx, s.session)
	if err != nil {
		return nil, err
	}

	items := make([]ingest.RawItem, 0, len(coupons))
	for _, coupon := range coupons {
		items = append(items, &couponItem{coupon: coupon})
	}
	return items, nil
}

// couponItem is one portal coupon rendered as raw voucher text.
type couponItem struct {
	coupon Coupon
}

// Metadata tags the item with the portal's provenance.
func (i *couponItem) Metadata() string { return "pluxee voucher portal" }

func (i *couponItem) Parts() []extract.Part {
	lines := []string{"₪" + i.coupon.Amount, i.coupon.Barcode}
	if i.coupon.URL != "" {
		lines = append(lines, i.coupon.URL)
	}
	return []extract.Part{{
		MediaType: "text/plain",
		Data:      []byte(strings.Join(lines, "\n")),
	}}
}

// MarkConsumed is a no-op. Portal coupons have no unread state; dedup on the
// voucher code keeps repeat listings out of the ledger.
func (i *couponItem) MarkConsumed(context.Context) error { return nil }
